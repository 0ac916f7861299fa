package player

import "showloop/internal/stage"

// Format selects the delivery format for the remainder of a session.
type Format string

const (
	// FormatMP4 is the primary delivery format: one progressive file per
	// stage, served with range requests.
	FormatMP4 Format = "mp4"

	// FormatHLS is the fallback delivery format for platforms whose mp4
	// pipeline proves fragile.
	FormatHLS Format = "hls"
)

// Session is the mutable playback state for one client, owned by the engine
// operations that receive it. It lives for the page lifetime and is never a
// package-level singleton, so tests can run independent sessions.
type Session struct {
	current      stage.ID
	format       Format
	started      bool
	promptShown  bool
	active       int
	epoch        uint64
	fallbackDone bool
	failed       map[stage.ID]bool
}

// NewSession returns a fresh session using the given delivery format.
func NewSession(format Format) *Session {
	if format == "" {
		format = FormatMP4
	}
	return &Session{format: format, failed: make(map[stage.ID]bool)}
}

// Stage returns the current stage id, empty before first playback.
func (s *Session) Stage() stage.ID { return s.current }

// Started reports whether playback has begun for the current stage.
func (s *Session) Started() bool { return s.started }

// Format returns the session's current delivery format.
func (s *Session) Format() Format { return s.format }

// PromptShown reports whether the tap-to-start prompt has been raised.
func (s *Session) PromptShown() bool { return s.promptShown }
