package player

import (
	"context"
	"errors"
	"net/http"
)

var (
	// ErrAutoplayBlocked is a permission-class play failure: the platform
	// refuses to start playback without a user gesture. It is recoverable
	// via the tap-to-start prompt and never treated as a media error.
	ErrAutoplayBlocked = errors.New("autoplay blocked")

	// ErrSourceUnsupported is a decode/source-not-supported failure. The
	// first occurrence on a fragile platform triggers the format fallback.
	ErrSourceUnsupported = errors.New("source not supported")

	// ErrUnknownStage is returned for a transition to a stage id that is
	// not in the graph.
	ErrUnknownStage = errors.New("unknown stage")
)

// Surface is one of the two swappable media surfaces the engine drives: a
// video element on the real client, a fake in tests, a simulator in the
// headless player.
type Surface interface {
	// Source returns the currently assigned media URL, empty when unset.
	Source() string

	// SetSource assigns a new media URL without loading it.
	SetSource(url string)

	// Load (re)starts fetching the assigned source.
	Load()

	// Play starts playback. It returns ErrAutoplayBlocked for a
	// permission-class refusal and ErrSourceUnsupported for a
	// decode/source failure.
	Play(ctx context.Context) error

	// Pause halts playback without clearing state.
	Pause()

	// Rewind resets the playback position to the start.
	Rewind()

	// SetVisible shows or hides the surface.
	SetVisible(visible bool)

	// SetLoop sets whether playback restarts at end of stream.
	SetLoop(loop bool)

	// HasBufferedData reports whether any media data is currently
	// buffered. Mobile platforms can evict a loaded source behind the
	// engine's back.
	HasBufferedData() bool

	// BufferedLead returns how many seconds of media are buffered ahead
	// of the playhead.
	BufferedLead() float64

	// WaitReady blocks until the surface is sufficiently buffered to start
	// playback, or ctx expires. It reports whether readiness was reached;
	// callers treat a timeout as "best effort, go anyway".
	WaitReady(ctx context.Context) bool
}

// Prober issues a lightweight existence check for an asset URL, used instead
// of a full preload when buffered lead is short.
type Prober interface {
	Probe(url string) bool
}

// HTTPProber probes with a HEAD request.
type HTTPProber struct {
	Client *http.Client
}

// Probe implements Prober.
func (p *HTTPProber) Probe(url string) bool {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Head(url)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 400
}

// Notifier carries the engine's outbound progress signals to the control
// channel.
type Notifier interface {
	Signal(token string)
}
