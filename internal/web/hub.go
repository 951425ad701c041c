package web

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hammamikhairi/pantrychef/internal/domain"
	"github.com/hammamikhairi/pantrychef/internal/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Event types on the /ws stream.
const (
	EventNavigate   = "navigate"
	EventState      = "state"
	EventTranscript = "transcript"
	EventReply      = "reply"
	EventStatus     = "status"
	EventPage       = "page" // inbound only
	EventError      = "error"
)

// Envelope wraps every websocket message.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// PagePayload carries a page for navigate and page events.
type PagePayload struct {
	Page domain.Page `json:"page"`
}

// StatePayload is the voice state snapshot.
type StatePayload struct {
	State  string      `json:"state"`
	Active bool        `json:"active"`
	Page   domain.Page `json:"page"`
}

// TextPayload carries a transcript or status line.
type TextPayload struct {
	Text string `json:"text"`
}

// Client is one websocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans controller events out to every connected display. It is both a
// navigation sink and a controller observer.
type Hub struct {
	log *logger.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	quit       chan struct{}

	mu      sync.RWMutex
	clients map[*Client]bool
	onPage  func(domain.Page)
}

// NewHub creates a hub. Run must be started before clients connect.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:        log,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, sendBuffer),
		quit:       make(chan struct{}),
		clients:    make(map[*Client]bool),
	}
}

// OnPage sets the callback for inbound page updates from displays.
func (h *Hub) OnPage(fn func(domain.Page)) {
	h.mu.Lock()
	h.onPage = fn
	h.mu.Unlock()
}

// Run processes registrations and broadcasts until ctx ends.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.quit)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("ws client registered (%d connected)", n)

		case c := <-h.unregister:
			h.mu.Lock()
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("ws client unregistered (%d connected)", n)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow client; drop it.
					delete(h.clients, c)
					close(c.send)
					h.log.Warn("ws client dropped: send buffer full")
				}
			}
			h.mu.Unlock()
		}
	}
}

// join registers c. It reports false once the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

// Clients returns the number of connected displays.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish queues an event for every client. It never blocks; when the
// queue is full the event is dropped.
func (h *Hub) Publish(eventType string, payload any) {
	msg, err := encode(eventType, payload)
	if err != nil {
		h.log.Error("ws encode %s: %v", eventType, err)
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn("ws broadcast queue full, dropping %s event", eventType)
	}
}

// Navigate broadcasts a navigate event.
func (h *Hub) Navigate(ctx context.Context, page domain.Page) error {
	h.Publish(EventNavigate, PagePayload{Page: page})
	return nil
}

// OnState broadcasts a turn state change.
func (h *Hub) OnState(state domain.TurnState) {
	h.Publish(EventState, struct {
		State string `json:"state"`
	}{state.String()})
}

// OnTranscript broadcasts what the user said.
func (h *Hub) OnTranscript(text string) {
	h.Publish(EventTranscript, TextPayload{Text: text})
}

// OnReply broadcasts the assistant's reply.
func (h *Hub) OnReply(reply domain.Reply) {
	h.Publish(EventReply, reply)
}

// OnStatus broadcasts a status line.
func (h *Hub) OnStatus(line string) {
	h.Publish(EventStatus, TextPayload{Text: line})
}

func (h *Hub) handleMessage(c *Client, data []byte) {
	var msg Envelope
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendEvent(EventError, TextPayload{Text: "invalid message format"})
		return
	}

	switch msg.Type {
	case EventPage:
		var p PagePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.Page == domain.PageNone {
			c.sendEvent(EventError, TextPayload{Text: "unknown page"})
			return
		}
		h.mu.RLock()
		fn := h.onPage
		h.mu.RUnlock()
		if fn != nil {
			fn(p.Page)
		}
		h.log.Debug("ws: display is on %s", p.Page)
	default:
		c.sendEvent(EventError, TextPayload{Text: "unknown message type: " + msg.Type})
	}
}

func encode(eventType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: eventType, Payload: raw})
}

// sendEvent queues a message for this client only.
func (c *Client) sendEvent(eventType string, payload any) {
	msg, err := encode(eventType, payload)
	if err != nil {
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if !c.hub.clients[c] {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

// readPump reads inbound messages until the connection fails.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Warn("unexpected websocket close: %v", err)
			}
			return
		}
		c.hub.handleMessage(c, data)
	}
}

// writePump sends queued messages and keepalive pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
