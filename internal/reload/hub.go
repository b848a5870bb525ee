// Package reload implements the development hot-reload channel: a websocket
// endpoint on the reload port that tells open pages when site assets change.
package reload

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/net/websocket"
)

// Path is where pages connect to the reload channel.
const Path = "/live_reload"

// Message is sent to every connected page. CSS is set when only a
// stylesheet changed and the page can swap it in place; otherwise All asks
// for a full reload.
type Message struct {
	CSS string `json:"css,omitempty"`
	All bool   `json:"all,omitempty"`
}

type conn struct {
	send chan []byte
}

// Hub fans messages out to connected pages.
type Hub struct {
	mu      sync.Mutex
	clients map[*conn]struct{}
	done    chan struct{}
	once    sync.Once
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*conn]struct{}),
		done:    make(chan struct{}),
	}
}

// Handler serves the websocket endpoint.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(Path, websocket.Handler(h.serve))
	return mux
}

func (h *Hub) serve(ws *websocket.Conn) {
	c := &conn{send: make(chan []byte, 8)}
	if !h.add(c) {
		ws.Close()
		return
	}
	defer h.remove(c)
	defer ws.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		var discard string
		for {
			if err := websocket.Message.Receive(ws, &discard); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg := <-c.send:
			if err := websocket.Message.Send(ws, string(msg)); err != nil {
				slog.Debug("Reload client write failed", "err", err)
				return
			}
		case <-closed:
			return
		case <-h.done:
			return
		}
	}
}

func (h *Hub) add(c *conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.done:
		return false
	default:
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// Broadcast queues msg for every connected page. Slow pages miss messages
// rather than block the sender.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
		}
	}
	slog.Debug("Reload broadcast", "clients", len(h.clients), "css", msg.CSS, "all", msg.All)
}

// Clients returns the number of connected pages.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every page and refuses new ones.
func (h *Hub) Close() {
	h.once.Do(func() { close(h.done) })
}
