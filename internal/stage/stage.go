package stage

import (
	"errors"
	"fmt"
	"time"
)

// ID names one node of the playback sequence graph.
type ID string

// Stage is one node in the playback sequence. Stages are immutable once the
// graph is built.
//
// Next is the natural successor; empty means terminal. A terminal stage must
// loop (wait for interaction). Loop keeps the stage's clip repeating until an
// external transition. BlankDuration marks a deliberate non-video interval:
// the active surface is hidden and the successor is entered after the delay,
// independent of any media end-of-stream event.
type Stage struct {
	ID            ID
	Next          ID
	Loop          bool
	AssetIndex    int
	BlankDuration time.Duration
}

// Blank reports whether the stage is a timed blank interval.
func (s *Stage) Blank() bool { return s.BlankDuration > 0 }

var (
	// ErrEmptyGraph is returned when a graph is built with no stages.
	ErrEmptyGraph = errors.New("stage graph has no stages")

	// ErrDuplicateStage is returned when two stages share an id.
	ErrDuplicateStage = errors.New("duplicate stage id")

	// ErrUnknownSuccessor is returned when a stage names a successor that
	// does not exist in the graph.
	ErrUnknownSuccessor = errors.New("unknown successor stage")

	// ErrBadTerminal is returned for a terminal stage that does not loop:
	// playback would simply freeze on the last frame with no way onward.
	ErrBadTerminal = errors.New("terminal stage must loop")

	// ErrBadBlank is returned for a blank stage that loops or lacks a
	// successor; a blank interval only makes sense as a timed pass-through.
	ErrBadBlank = errors.New("blank stage must have a successor and not loop")
)

// Graph is the static stage table. The first stage in the input order is the
// initial state.
type Graph struct {
	stages map[ID]*Stage
	order  []ID
}

// NewGraph validates the stage list and builds the graph.
func NewGraph(stages []Stage) (*Graph, error) {
	if len(stages) == 0 {
		return nil, ErrEmptyGraph
	}

	g := &Graph{stages: make(map[ID]*Stage, len(stages))}
	for i := range stages {
		st := stages[i]
		if _, exists := g.stages[st.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateStage, st.ID)
		}
		g.stages[st.ID] = &st
		g.order = append(g.order, st.ID)
	}

	for _, id := range g.order {
		st := g.stages[id]
		if st.Next != "" {
			if _, ok := g.stages[st.Next]; !ok {
				return nil, fmt.Errorf("%w: %s -> %s", ErrUnknownSuccessor, st.ID, st.Next)
			}
		}
		if st.Blank() && (st.Loop || st.Next == "") {
			return nil, fmt.Errorf("%w: %s", ErrBadBlank, st.ID)
		}
		if st.Next == "" && !st.Loop {
			return nil, fmt.Errorf("%w: %s", ErrBadTerminal, st.ID)
		}
	}
	return g, nil
}

// Get returns the stage with the given id.
func (g *Graph) Get(id ID) (*Stage, bool) {
	st, ok := g.stages[id]
	return st, ok
}

// First returns the initial stage.
func (g *Graph) First() *Stage {
	return g.stages[g.order[0]]
}

// IDs returns the stage ids in definition order.
func (g *Graph) IDs() []ID {
	out := make([]ID, len(g.order))
	copy(out, g.order)
	return out
}

// Default returns the installation's stage sequence: an intro clip, a second
// clip, a looping hold waiting for a viewer, a reaction clip, a 16 second
// blank interval, and a terminal looping clip.
func Default() *Graph {
	g, err := NewGraph([]Stage{
		{ID: "video1", Next: "video2", AssetIndex: 1},
		{ID: "video2", Next: "video3", AssetIndex: 2},
		{ID: "video3", Next: "video4", Loop: true, AssetIndex: 3},
		{ID: "video4", Next: "blank", AssetIndex: 4},
		{ID: "blank", Next: "video6", AssetIndex: 5, BlankDuration: 16 * time.Second},
		{ID: "video6", Loop: true, AssetIndex: 6},
	})
	if err != nil {
		panic(err) // static table, cannot fail
	}
	return g
}
