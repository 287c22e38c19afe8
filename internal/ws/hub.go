// Package ws implements the dashboard push channel: a WebSocket hub that
// fans out alert and keyword events to every connected dashboard session and
// accepts keyword mutation commands back from them.
//
// Wire protocol (JSON, one object per message):
//
//	server → client: {"type":"telegram-alert","data":{...}}
//	                 {"type":"keywords-update","data":["LONDON_GERMANY",...]}
//	client → server: {"type":"add-keyword","keyword":"paris"}
//	                 {"type":"remove-keyword","keyword":"paris"}
//	                 {"type":"get-keywords"}
//
// On connect the hub immediately pushes the current keyword list, so a
// reconnecting dashboard never renders a stale set.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// writeWait bounds a single frame write to a slow client.
const writeWait = 10 * time.Second

// Alert is the push payload for one relayed message. Field names match what
// the dashboard consumes.
type Alert struct {
	Keyword        string `json:"keyword"`
	Message        string `json:"message"`
	Group          string `json:"group"`
	Sender         string `json:"sender"`
	Timestamp      int64  `json:"timestamp"`
	ChatID         string `json:"chatId"`
	IsKeywordMatch bool   `json:"isKeywordMatch"`
}

// Event is the envelope for every server-to-client message.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// command is the envelope for every client-to-server message.
type command struct {
	Type    string `json:"type"`
	Keyword string `json:"keyword,omitempty"`
}

// KeywordStore is the mutable keyword set the hub manipulates on behalf of
// dashboard commands. Add and Remove report whether the set changed.
type KeywordStore interface {
	Add(word string) bool
	Remove(word string) bool
	Keywords() []string
}

// client is one connected dashboard session. Gorilla connections do not allow
// concurrent writers, so every write goes through writeMu.
type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) send(ev Event) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(ev)
}

// Hub owns the connection registry and the keyword command handling.
type Hub struct {
	keywords KeywordStore
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub builds a hub around the given keyword store. The dashboard is served
// from arbitrary origins (it is a local tool behind no auth gateway), so the
// upgrader accepts any Origin header.
func NewHub(keywords KeywordStore, log zerolog.Logger) *Hub {
	return &Hub{
		keywords: keywords,
		log:      log.With().Str("component", "ws-hub").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// HandleUpgrade upgrades an HTTP request to a WebSocket session, registers
// it, pushes the current keyword list, and services commands until the
// connection drops.
func (h *Hub) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{conn: conn}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Info().Int("clients", n).Msg("dashboard connected")

	if err := c.send(Event{Type: "keywords-update", Data: h.keywords.Keywords()}); err != nil {
		h.drop(c)
		return
	}

	h.readLoop(c)
}

// readLoop services client commands until the first read error.
func (h *Hub) readLoop(c *client) {
	defer h.drop(c)

	for {
		var cmd command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}

		switch cmd.Type {
		case "add-keyword":
			if h.keywords.Add(cmd.Keyword) {
				h.log.Info().Str("keyword", cmd.Keyword).Msg("keyword added")
				h.BroadcastKeywords()
			}
		case "remove-keyword":
			if h.keywords.Remove(cmd.Keyword) {
				h.log.Info().Str("keyword", cmd.Keyword).Msg("keyword removed")
				h.BroadcastKeywords()
			}
		case "get-keywords":
			if err := c.send(Event{Type: "keywords-update", Data: h.keywords.Keywords()}); err != nil {
				return
			}
		default:
			h.log.Debug().Str("type", cmd.Type).Msg("ignoring unknown command")
		}
	}
}

// BroadcastAlert pushes one alert to every connected session.
func (h *Hub) BroadcastAlert(a Alert) {
	h.broadcast(Event{Type: "telegram-alert", Data: a})
}

// BroadcastKeywords pushes the full current keyword list to every connected
// session. Called after every effective mutation, whether it came from a
// WebSocket command or the REST mirror.
func (h *Hub) BroadcastKeywords() {
	h.broadcast(Event{Type: "keywords-update", Data: h.keywords.Keywords()})
}

// broadcast writes ev to all sessions, pruning the ones whose write failed.
func (h *Hub) broadcast(ev Event) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.send(ev); err != nil {
			h.log.Warn().Err(err).Msg("dropping dead dashboard connection")
			h.drop(c)
		}
	}
}

// drop unregisters and closes a session. Safe to call more than once.
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, present := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if present {
		_ = c.conn.Close()
	}
}

// ClientCount returns the number of connected dashboard sessions.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close terminates every session, typically during shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	for c := range h.clients {
		_ = c.conn.Close()
		delete(h.clients, c)
	}
	h.mu.Unlock()
}
