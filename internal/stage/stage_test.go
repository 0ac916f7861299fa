package stage

import (
	"errors"
	"testing"
	"time"
)

func TestNewGraph_valid(t *testing.T) {
	g, err := NewGraph([]Stage{
		{ID: "a", Next: "b", AssetIndex: 1},
		{ID: "b", Loop: true, AssetIndex: 2},
	})
	if err != nil {
		t.Fatal(err)
	}

	if g.First().ID != "a" {
		t.Errorf("First() = %s", g.First().ID)
	}
	st, ok := g.Get("b")
	if !ok || !st.Loop {
		t.Errorf("Get(b) = %+v, %v", st, ok)
	}
	if _, ok := g.Get("missing"); ok {
		t.Error("expected miss for unknown id")
	}
}

func TestNewGraph_rejects_empty(t *testing.T) {
	if _, err := NewGraph(nil); !errors.Is(err, ErrEmptyGraph) {
		t.Errorf("expected ErrEmptyGraph, got %v", err)
	}
}

func TestNewGraph_rejects_duplicate_ids(t *testing.T) {
	_, err := NewGraph([]Stage{
		{ID: "a", Loop: true},
		{ID: "a", Loop: true},
	})
	if !errors.Is(err, ErrDuplicateStage) {
		t.Errorf("expected ErrDuplicateStage, got %v", err)
	}
}

func TestNewGraph_rejects_unknown_successor(t *testing.T) {
	_, err := NewGraph([]Stage{{ID: "a", Next: "ghost"}})
	if !errors.Is(err, ErrUnknownSuccessor) {
		t.Errorf("expected ErrUnknownSuccessor, got %v", err)
	}
}

func TestNewGraph_rejects_non_looping_terminal(t *testing.T) {
	_, err := NewGraph([]Stage{{ID: "a"}})
	if !errors.Is(err, ErrBadTerminal) {
		t.Errorf("expected ErrBadTerminal, got %v", err)
	}
}

func TestNewGraph_rejects_bad_blank(t *testing.T) {
	_, err := NewGraph([]Stage{
		{ID: "a", Loop: true, BlankDuration: time.Second},
	})
	if !errors.Is(err, ErrBadBlank) {
		t.Errorf("expected ErrBadBlank for looping blank, got %v", err)
	}

	_, err = NewGraph([]Stage{
		{ID: "a", BlankDuration: time.Second},
	})
	if !errors.Is(err, ErrBadBlank) {
		t.Errorf("expected ErrBadBlank for terminal blank, got %v", err)
	}
}

func TestDefault_graph_shape(t *testing.T) {
	g := Default()

	if g.First().ID != "video1" {
		t.Errorf("first stage = %s", g.First().ID)
	}

	hold, ok := g.Get("video3")
	if !ok || !hold.Loop || hold.Next != "video4" {
		t.Errorf("video3 = %+v", hold)
	}

	blank, ok := g.Get("blank")
	if !ok || !blank.Blank() || blank.BlankDuration != 16*time.Second {
		t.Errorf("blank = %+v", blank)
	}

	terminal, ok := g.Get("video6")
	if !ok || !terminal.Loop || terminal.Next != "" {
		t.Errorf("video6 = %+v", terminal)
	}

	if got := len(g.IDs()); got != 6 {
		t.Errorf("expected 6 stages, got %d", got)
	}
}
