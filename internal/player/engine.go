package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"showloop/internal/control"
	"showloop/internal/stage"
)

// Engine owns the two swappable media surfaces and moves a session through
// the stage graph. At any settled moment exactly one surface is active
// (visible) and one is pending (hidden, available for preloading).
type Engine struct {
	mu       sync.Mutex
	graph    *stage.Graph
	surfaces [2]Surface
	profile  Profile
	baseURL  string

	cacheBuster string
	notifier    Notifier
	prober      Prober
	promptFn    func()

	log *slog.Logger
}

// NewEngine returns an Engine driving surfaces a and b. baseURL is the media
// endpoint prefix the asset URLs are built on (e.g. "" for same-origin or
// "https://pferde.example.net").
func NewEngine(g *stage.Graph, a, b Surface, profile Profile, baseURL string, log *slog.Logger) *Engine {
	return &Engine{
		graph:    g,
		surfaces: [2]Surface{a, b},
		profile:  profile,
		baseURL:  strings.TrimRight(baseURL, "/"),
		log:      log,
	}
}

// SetNotifier wires the outbound control signals. May be nil.
func (e *Engine) SetNotifier(n Notifier) { e.notifier = n }

// SetProber wires the lightweight existence probe. May be nil.
func (e *Engine) SetProber(p Prober) { e.prober = p }

// SetPromptFunc wires the one-time tap-to-start prompt. May be nil.
func (e *Engine) SetPromptFunc(fn func()) { e.promptFn = fn }

// SetCacheBuster appends v=<value> to built asset URLs.
func (e *Engine) SetCacheBuster(v string) { e.cacheBuster = v }

// Graph returns the engine's stage graph.
func (e *Engine) Graph() *stage.Graph { return e.graph }

// TransitionTo moves the session to the given stage. It returns true when the
// stage is playing (or already was); false with a nil error for recoverable
// conditions such as an autoplay refusal.
func (e *Engine) TransitionTo(ctx context.Context, s *Session, id stage.ID) (bool, error) {
	e.mu.Lock()

	// Racing commands and duplicate events make re-entry normal; a
	// transition to the already-started current stage is a no-op.
	if s.started && s.current == id {
		e.mu.Unlock()
		return true, nil
	}

	st, ok := e.graph.Get(id)
	if !ok {
		e.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrUnknownStage, id)
	}

	if st.Blank() {
		e.enterBlankLocked(s, st)
		e.mu.Unlock()
		return true, nil
	}

	// Every commit advances the session epoch; remembering it here lets the
	// commit below detect a competing transition that landed while this one
	// was blocked in Play or the readiness wait.
	entryEpoch := s.epoch

	url := e.assetURL(st, s.format)

	// Target selection: normally the pending surface. On a constrained
	// platform the very first playback may reuse an active surface that
	// was already warmed up with the same source, avoiding a redundant
	// reload on the first tap.
	tgtIdx := 1 - s.active
	if !s.started && id == e.graph.First().ID && e.profile.Constrained {
		act := e.surfaces[s.active]
		if act.Source() == url && act.BufferedLead() >= e.profile.WarmLead {
			tgtIdx = s.active
		}
	}
	tgt := e.surfaces[tgtIdx]
	other := e.surfaces[1-tgtIdx]

	switch {
	case tgt.Source() != url:
		tgt.SetSource(url)
		tgt.Load()
	case e.profile.Constrained && !tgt.HasBufferedData():
		// A matching source with nothing buffered means the platform
		// evicted the resource; force a reload.
		tgt.Load()
	default:
		tgt.Rewind()
	}

	tgt.SetLoop(st.Loop)

	if e.profile.Constrained && tgtIdx != s.active {
		// Two simultaneously playing media elements degrade badly on
		// constrained platforms; stop the other one first.
		other.Pause()
	}

	e.mu.Unlock()

	playErr := make(chan error, 1)
	go func() { playErr <- tgt.Play(ctx) }()

	readyCtx, cancel := context.WithTimeout(ctx, e.profile.ReadyTimeout)
	if !tgt.WaitReady(readyCtx) {
		e.log.Debug("readiness wait timed out, proceeding best effort", slog.String("stage", string(id)))
	}
	cancel()

	if err := <-playErr; err != nil {
		return e.playFailed(ctx, s, id, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// A competing transition may have committed while we waited.
	if s.started && s.current == id {
		return true, nil
	}
	if s.epoch != entryEpoch {
		// A forced jump overrode this transition mid-flight; committing now
		// would drag the session off the stage that won.
		e.log.Debug("discarding superseded transition", slog.String("stage", string(id)))
		return false, nil
	}

	wasFirst := !s.started
	swapped := tgtIdx != s.active
	s.active = tgtIdx
	s.current = id
	s.started = true
	s.epoch++
	epoch := s.epoch

	tgt.SetVisible(true)
	if swapped {
		other.SetVisible(false)
		// Let the visual cross-fade finish before disturbing the now
		// hidden surface, to avoid an abrupt frame cut. A transition
		// landing inside the settle window makes this surface active
		// again, so the cleanup re-checks the epoch before touching it.
		time.AfterFunc(e.profile.SwapSettle, func() {
			e.mu.Lock()
			stale := s.epoch != epoch
			e.mu.Unlock()
			if stale {
				return
			}
			other.Pause()
			other.Rewind()
			other.SetLoop(false)
		})
	}

	if wasFirst && e.notifier != nil {
		e.notifier.Signal(control.SignalStarted)
	}

	time.AfterFunc(e.profile.PreloadDelay, func() {
		e.preloadSuccessor(s, id, epoch)
	})

	return true, nil
}

// enterBlankLocked handles a timed blank stage: hide the picture, advance
// after the configured delay, never touch the surfaces' sources.
func (e *Engine) enterBlankLocked(s *Session, st *stage.Stage) {
	e.surfaces[s.active].SetVisible(false)
	s.current = st.ID
	s.started = true
	s.epoch++
	epoch := s.epoch

	time.AfterFunc(st.BlankDuration, func() {
		e.mu.Lock()
		stale := s.epoch != epoch || s.current != st.ID
		e.mu.Unlock()
		if stale {
			return
		}
		if _, err := e.TransitionTo(context.Background(), s, st.Next); err != nil {
			e.log.Error("timed advance failed",
				slog.String("from", string(st.ID)),
				slog.String("to", string(st.Next)),
				slog.String("error", err.Error()))
		}
	})
}

// playFailed sorts a play error into its recovery path.
func (e *Engine) playFailed(ctx context.Context, s *Session, id stage.ID, err error) (bool, error) {
	if errors.Is(err, ErrAutoplayBlocked) {
		e.mu.Lock()
		prompt := !s.promptShown
		s.promptShown = true
		e.mu.Unlock()
		if prompt && e.promptFn != nil {
			e.promptFn()
		}
		return false, nil
	}

	if errors.Is(err, ErrSourceUnsupported) {
		e.mu.Lock()
		retry := e.profile.FragileMP4 && s.format == FormatMP4 && !s.fallbackDone && !s.failed[id]
		s.failed[id] = true
		if retry {
			s.fallbackDone = true
			s.format = FormatHLS
		}
		e.mu.Unlock()
		if retry {
			e.log.Warn("mp4 source rejected, switching session to hls", slog.String("stage", string(id)))
			return e.TransitionTo(ctx, s, id)
		}
	}

	e.log.Error("play failed", slog.String("stage", string(id)), slog.String("error", err.Error()))
	return false, err
}

// HandleEnded advances to the natural successor when the active surface
// reaches end of stream on a non-looping stage. Looping and terminal stages
// ignore the event.
func (e *Engine) HandleEnded(ctx context.Context, s *Session) (bool, error) {
	e.mu.Lock()
	if !s.started {
		e.mu.Unlock()
		return false, nil
	}
	st, ok := e.graph.Get(s.current)
	if !ok || st.Loop || st.Next == "" {
		e.mu.Unlock()
		return false, nil
	}
	next := st.Next
	e.mu.Unlock()
	return e.TransitionTo(ctx, s, next)
}

// HandleInteraction reacts to a viewer tap: it starts playback when nothing
// has played yet, or advances out of a looping hold stage, signalling the
// controller once per successful viewer-triggered transition.
func (e *Engine) HandleInteraction(ctx context.Context, s *Session) (bool, error) {
	e.mu.Lock()
	if !s.started {
		first := e.graph.First().ID
		e.mu.Unlock()
		return e.TransitionTo(ctx, s, first)
	}
	st, ok := e.graph.Get(s.current)
	if !ok || !st.Loop || st.Next == "" {
		e.mu.Unlock()
		return false, nil
	}
	next := st.Next
	e.mu.Unlock()

	done, err := e.TransitionTo(ctx, s, next)
	if done && e.notifier != nil {
		e.notifier.Signal(control.SignalInteraction)
	}
	return done, err
}

// preloadSuccessor speculatively prepares the next stage on the pending
// surface. It re-checks that the session is still where it was when the work
// was scheduled: an intervening forced jump makes this preload stale.
func (e *Engine) preloadSuccessor(s *Session, id stage.ID, epoch uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s.epoch != epoch || s.current != id {
		return
	}

	st, ok := e.graph.Get(id)
	if !ok || st.Next == "" {
		return
	}
	next, ok := e.graph.Get(st.Next)
	if !ok || next.Blank() {
		return
	}

	url := e.assetURL(next, s.format)
	pending := e.surfaces[1-s.active]
	if pending.Source() == url {
		return
	}

	if e.profile.Constrained {
		minLead := e.profile.MinLead
		if st.Loop {
			minLead = e.profile.MinLeadLoop
		}
		if e.surfaces[s.active].BufferedLead() < minLead {
			// Not enough headroom for a competing fetch; just confirm
			// the asset exists so a later load fails fast.
			if e.prober != nil {
				go e.prober.Probe(url)
			}
			return
		}
	}

	pending.SetSource(url)
	pending.Load()
}

// assetURL builds the media URL for a stage in the given delivery format.
func (e *Engine) assetURL(st *stage.Stage, format Format) string {
	ext := ".mp4"
	if format == FormatHLS {
		ext = ".m3u8"
	}
	url := e.baseURL + "/" + strconv.Itoa(st.AssetIndex) + ext
	if e.cacheBuster != "" {
		url += "?v=" + e.cacheBuster
	}
	return url
}
