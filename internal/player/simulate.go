package player

import (
	"context"
	"sync"
	"time"
)

// SimSurface is a clock-driven Surface used by the headless player binary to
// exercise the engine against a live server without a browser. It fakes
// buffering with a fixed fill delay and fires an end-of-stream callback after
// a fixed clip length.
type SimSurface struct {
	mu       sync.Mutex
	name     string
	source   string
	visible  bool
	loop     bool
	playing  bool
	buffered bool
	ready    chan struct{}

	clipLen   time.Duration
	fillDelay time.Duration
	onEnded   func()

	endTimer *time.Timer
}

// NewSimSurface returns a simulated surface. clipLen is the pretended clip
// duration, fillDelay the pretended time to buffer enough to start. onEnded
// is invoked (on a timer goroutine) when a non-looping clip finishes.
func NewSimSurface(name string, clipLen, fillDelay time.Duration, onEnded func()) *SimSurface {
	return &SimSurface{
		name:      name,
		ready:     make(chan struct{}),
		clipLen:   clipLen,
		fillDelay: fillDelay,
		onEnded:   onEnded,
	}
}

// Name returns the surface's label.
func (f *SimSurface) Name() string { return f.name }

// Visible reports whether the surface is currently shown.
func (f *SimSurface) Visible() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visible
}

// Source implements Surface.
func (f *SimSurface) Source() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.source
}

// SetSource implements Surface.
func (f *SimSurface) SetSource(url string) {
	f.mu.Lock()
	f.source = url
	f.buffered = false
	f.mu.Unlock()
}

// Load implements Surface: after the fill delay the surface reports data.
func (f *SimSurface) Load() {
	f.mu.Lock()
	ready := make(chan struct{})
	f.ready = ready
	f.buffered = false
	f.mu.Unlock()

	time.AfterFunc(f.fillDelay, func() {
		f.mu.Lock()
		if f.ready == ready {
			f.buffered = true
			close(ready)
		}
		f.mu.Unlock()
	})
}

// Play implements Surface. The simulator always has permission.
func (f *SimSurface) Play(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = true
	f.armEndTimerLocked()
	return nil
}

// Pause implements Surface.
func (f *SimSurface) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = false
	if f.endTimer != nil {
		f.endTimer.Stop()
		f.endTimer = nil
	}
}

// Rewind implements Surface.
func (f *SimSurface) Rewind() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.playing {
		f.armEndTimerLocked()
	}
}

// SetVisible implements Surface.
func (f *SimSurface) SetVisible(visible bool) {
	f.mu.Lock()
	f.visible = visible
	f.mu.Unlock()
}

// SetLoop implements Surface.
func (f *SimSurface) SetLoop(loop bool) {
	f.mu.Lock()
	f.loop = loop
	f.mu.Unlock()
}

// HasBufferedData implements Surface.
func (f *SimSurface) HasBufferedData() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buffered
}

// BufferedLead implements Surface: a buffered simulator pretends to hold the
// whole clip.
func (f *SimSurface) BufferedLead() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.buffered {
		return 0
	}
	return f.clipLen.Seconds()
}

// WaitReady implements Surface.
func (f *SimSurface) WaitReady(ctx context.Context) bool {
	f.mu.Lock()
	ready := f.ready
	f.mu.Unlock()
	select {
	case <-ready:
		return true
	case <-ctx.Done():
		return false
	}
}

// armEndTimerLocked schedules the end-of-clip event. Looping surfaces re-arm
// themselves instead of reporting an end.
func (f *SimSurface) armEndTimerLocked() {
	if f.endTimer != nil {
		f.endTimer.Stop()
	}
	f.endTimer = time.AfterFunc(f.clipLen, func() {
		f.mu.Lock()
		loop, playing := f.loop, f.playing
		if loop && playing {
			f.armEndTimerLocked()
		}
		f.mu.Unlock()
		if !loop && playing && f.onEnded != nil {
			f.onEnded()
		}
	})
}
