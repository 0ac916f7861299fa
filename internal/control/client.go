package control

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultReconnectDelay is the fixed pause between reconnect attempts.
const DefaultReconnectDelay = 3 * time.Second

// dialTimeout bounds a single connection attempt.
const dialTimeout = 10 * time.Second

// CommandHandler receives the structured commands a playback client acts on.
// Free-form signals from other peers are informational and are delivered too.
type CommandHandler interface {
	// Stage requests a transition to the named stage.
	Stage(id string)

	// Reload asks the client to fully restart its presentation.
	Reload()

	// Signal delivers a free-form token from another peer.
	Signal(token string)
}

// Client maintains a persistent connection to the control hub, dispatching
// inbound commands to a CommandHandler and queueing outbound messages while
// disconnected. Reconnects retry forever with a fixed delay.
type Client struct {
	url     string
	handler CommandHandler
	delay   time.Duration
	log     *slog.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	pending []string
}

// NewClient returns a Client for the given websocket URL. The handler may be
// nil for send-only controllers. delay <= 0 uses DefaultReconnectDelay.
func NewClient(url string, handler CommandHandler, delay time.Duration, log *slog.Logger) *Client {
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	return &Client{url: url, handler: handler, delay: delay, log: log}
}

// Run connects and keeps the connection alive until ctx is cancelled.
func (c *Client) Run(ctx context.Context) {
	for {
		if err := c.session(ctx); err != nil {
			c.log.Debug("control session ended", slog.String("error", err.Error()))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.delay):
		}
	}
}

// Send transmits a message, or queues it for in-order delivery on the next
// connect when currently disconnected.
func (c *Client) Send(msg string) {
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.pending = append(c.pending, msg)
		c.mu.Unlock()
		return
	}
	defer c.mu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		c.conn = nil
		c.pending = append(c.pending, msg)
	}
}

// Signal implements the player's outbound notifier on top of Send.
func (c *Client) Signal(token string) { c.Send(token) }

func (c *Client) session(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, c.url, nil)
	cancel()
	if err != nil {
		return err
	}
	defer conn.Close()

	// Flush messages queued while disconnected, preserving order. The mutex
	// is held across the flush and the connection published only afterwards:
	// the websocket allows a single writer, so a concurrent Send must either
	// land in the queue (and be flushed here) or write after publication.
	c.mu.Lock()
	for len(c.pending) > 0 {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(c.pending[0])); err != nil {
			c.mu.Unlock()
			return err
		}
		c.pending = c.pending[1:]
	}
	c.conn = conn
	c.mu.Unlock()

	c.log.Info("control channel connected", slog.String("url", c.url))

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			c.detach()
			return err
		}
		c.dispatch(string(msg))
	}
}

// detach clears the live connection; subsequent Sends queue again.
func (c *Client) detach() {
	c.mu.Lock()
	c.conn = nil
	c.mu.Unlock()
}

func (c *Client) dispatch(raw string) {
	if c.handler == nil {
		return
	}
	cmd := ParseMessage(raw)
	switch cmd.Kind {
	case KindStage, KindVideo:
		c.handler.Stage(cmd.Arg)
	case KindReload:
		c.handler.Reload()
	case KindSignal:
		c.handler.Signal(cmd.Arg)
	case KindIgnore:
		// Heartbeat/ack class tokens never reach the handler.
	}
}
