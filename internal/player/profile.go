package player

import "time"

// Profile holds the platform-dependent playback heuristics. The threshold
// values are tuning parameters, not correctness requirements; the server
// wiring exposes them as configuration.
type Profile struct {
	// Constrained marks platforms (mobile browsers) that degrade with two
	// simultaneously active media elements and evict buffers aggressively.
	Constrained bool

	// FragileMP4 marks platforms whose progressive mp4 pipeline can fail
	// with a source-not-supported error; such a failure switches the
	// session to HLS once.
	FragileMP4 bool

	// ReadyTimeout bounds the wait for a surface's readiness signal.
	// Longer on constrained platforms; the wait always resolves.
	ReadyTimeout time.Duration

	// WarmLead is the buffered lead (seconds) at which the very first
	// playback may reuse an already-warmed active surface directly.
	WarmLead float64

	// MinLead is the buffered lead (seconds) the active surface must have
	// before a constrained platform performs a full successor preload on a
	// once-through stage.
	MinLead float64

	// MinLeadLoop is the same threshold while on a looping stage, where
	// the loop keeps refilling the buffer and less headroom is needed.
	MinLeadLoop float64

	// SwapSettle is the delay before the hidden surface is paused and
	// rewound after a swap, matching the visual cross-fade duration.
	SwapSettle time.Duration

	// PreloadDelay is the settle time before speculative preloading of the
	// successor stage begins.
	PreloadDelay time.Duration
}

// DesktopProfile returns the defaults for unconstrained platforms.
func DesktopProfile() Profile {
	return Profile{
		ReadyTimeout: 4 * time.Second,
		WarmLead:     2,
		MinLead:      4,
		MinLeadLoop:  2,
		SwapSettle:   500 * time.Millisecond,
		PreloadDelay: 750 * time.Millisecond,
	}
}

// MobileProfile returns the defaults for constrained platforms.
func MobileProfile() Profile {
	p := DesktopProfile()
	p.Constrained = true
	p.FragileMP4 = true
	p.ReadyTimeout = 8 * time.Second
	return p
}
