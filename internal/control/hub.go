package control

import (
	"log/slog"
	"net/http"
	"sync"

	"showloop/internal/platform/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// peerSendBuffer is the per-peer outbound queue. A peer that cannot drain
// this many frames is considered dead and dropped.
const peerSendBuffer = 32

var upgrader = websocket.Upgrader{
	// Controllers and players connect from variant subdomains and from the
	// show-control network; origin checks happen upstream if at all.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type peer struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub is a full-mesh broadcast relay: every text frame received from one peer
// is forwarded verbatim to all other currently connected peers. There is no
// queuing for peers not yet connected and no ordering guarantee across peers.
type Hub struct {
	mu       sync.Mutex
	peers    map[string]*peer
	greeting string
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// NewHub returns a Hub. greeting, when non-empty, is sent to each peer on
// connect; it carries no required semantics for clients. Metrics may be nil.
func NewHub(greeting string, log *slog.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		peers:    make(map[string]*peer),
		greeting: greeting,
		log:      log,
		metrics:  m,
	}
}

// PeerCount returns the number of currently connected peers.
func (h *Hub) PeerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

// ServeHTTP upgrades the request to a websocket and joins the peer to the
// relay until its connection fails or closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("control upgrade failed", slog.String("error", err.Error()))
		return
	}

	p := &peer{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, peerSendBuffer),
	}

	// Queue the greeting before the peer becomes visible to broadcast: once
	// registered, a concurrent drop may close the send channel. This also
	// guarantees the greeting precedes any relayed frame.
	if h.greeting != "" {
		p.send <- []byte(h.greeting)
	}

	h.register(p)
	defer h.unregister(p)

	h.log.Info("control peer connected",
		slog.String("peer", p.id),
		slog.String("remote", r.RemoteAddr))

	go writeLoop(p)

	for {
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("control read failed", slog.String("peer", p.id), slog.String("error", err.Error()))
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		h.broadcast(p, msg)
	}
}

// Broadcast relays msg to every connected peer, as if sent by an external
// controller that is not itself connected.
func (h *Hub) Broadcast(msg string) {
	h.broadcast(nil, []byte(msg))
}

// broadcast forwards msg to all peers except the sender. A peer whose send
// buffer is full is dropped on the spot; a slow consumer must not stall the
// relay.
func (h *Hub) broadcast(from *peer, msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, p := range h.peers {
		if from != nil && id == from.id {
			continue
		}
		select {
		case p.send <- msg:
			if h.metrics != nil {
				h.metrics.IncRelayedMessages()
			}
		default:
			h.log.Warn("dropping slow control peer", slog.String("peer", id))
			delete(h.peers, id)
			close(p.send)
		}
	}
}

func (h *Hub) register(p *peer) {
	h.mu.Lock()
	h.peers[p.id] = p
	h.mu.Unlock()
}

func (h *Hub) unregister(p *peer) {
	h.mu.Lock()
	if _, ok := h.peers[p.id]; ok {
		delete(h.peers, p.id)
		close(p.send)
	}
	h.mu.Unlock()
	p.conn.Close()
	h.log.Info("control peer disconnected", slog.String("peer", p.id))
}

// writeLoop drains the peer's send channel onto its connection. It exits when
// the channel closes (unregister or drop) or a write fails.
func writeLoop(p *peer) {
	for msg := range p.send {
		if err := p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			p.conn.Close()
			return
		}
	}
	p.conn.WriteMessage(websocket.CloseMessage, []byte{})
	p.conn.Close()
}
