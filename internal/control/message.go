package control

import "strings"

// Reserved tokens of the heartbeat/ack class. They are relayed like any other
// message but must never trigger a transition on the playback client.
const (
	TokenPing = "PING"
	TokenAck  = "ACK"
)

// Outbound signal tokens emitted by the playback client so an external
// controller can track progress without polling.
const (
	// SignalStarted is sent once when the first stage begins playing.
	SignalStarted = "1"

	// SignalInteraction is sent when a viewer-triggered transition occurs.
	SignalInteraction = "2"
)

// Kind classifies a parsed control message.
type Kind int

const (
	// KindSignal is a free-form informational token; no reply expected.
	KindSignal Kind = iota

	// KindStage requests a transition to the stage named by Arg.
	KindStage

	// KindVideo is the legacy spelling of KindStage.
	KindVideo

	// KindReload requests a full page reload of the playback client.
	KindReload

	// KindIgnore marks reserved heartbeat/ack tokens.
	KindIgnore
)

// Command is one parsed control message.
type Command struct {
	Kind Kind
	Arg  string
}

// ParseMessage classifies a raw control frame. Structured commands are
// VERB:ARG with verbs STAGE and VIDEO, plus the bare RELOAD verb; everything
// else is a free-form signal except the reserved tokens.
func ParseMessage(raw string) Command {
	msg := strings.TrimSpace(raw)
	switch msg {
	case TokenPing, TokenAck:
		return Command{Kind: KindIgnore, Arg: msg}
	case "RELOAD":
		return Command{Kind: KindReload}
	}
	if arg, ok := strings.CutPrefix(msg, "STAGE:"); ok {
		return Command{Kind: KindStage, Arg: arg}
	}
	if arg, ok := strings.CutPrefix(msg, "VIDEO:"); ok {
		return Command{Kind: KindVideo, Arg: arg}
	}
	return Command{Kind: KindSignal, Arg: msg}
}
