package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kr1s57/linkshield/internal/usecase/assess"
)

// Topics carried by the event stream. A client starts subscribed to all of
// them and can narrow the set with subscribe/unsubscribe control messages.
const (
	TopicAssessments = "assessments"
	TopicProviders   = "providers"
	TopicAlerts      = "alerts"
)

// Event is the wire format pushed to subscribers.
type Event struct {
	Topic     string    `json:"topic"`
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // fronted by the CORS middleware
	},
}

// Hub fans live engine events out to WebSocket subscribers, filtered by
// topic. It satisfies the engine's Broadcaster contract.
type Hub struct {
	events chan Event
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		events:  make(chan Event, 256),
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// Run drains the event queue and fans each event out. Blocks; run it in its
// own goroutine.
func (h *Hub) Run() {
	for ev := range h.events {
		h.fanOut(ev)
	}
}

// Broadcast routes an engine event onto its topic.
func (h *Hub) Broadcast(msgType string, payload any) {
	h.Publish(topicFor(msgType), msgType, payload)
}

// Publish queues one event. A full queue drops the event rather than
// delaying an assessment.
func (h *Hub) Publish(topic, eventType string, payload any) {
	ev := Event{Topic: topic, Type: eventType, Payload: payload, Timestamp: time.Now().UTC()}
	select {
	case h.events <- ev:
	default:
		h.logger.Warn("event queue full, dropping event", "topic", topic, "type", eventType)
	}
}

func topicFor(eventType string) string {
	switch eventType {
	case assess.EventAlert:
		return TopicAlerts
	case assess.EventProviderIssues:
		return TopicProviders
	default:
		return TopicAssessments
	}
}

func (h *Hub) fanOut(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("failed to marshal event", "type", ev.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.subscribed(ev.Topic) {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Slow consumer, skip this event for it.
		}
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "total", n)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client disconnected", "total", n)
}

// ServeWS upgrades the request and attaches the client to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, 64),
		topics: map[string]bool{
			TopicAssessments: true,
			TopicProviders:   true,
			TopicAlerts:      true,
		},
	}
	h.add(c)

	go c.writePump()
	go h.readPump(c)
}

type client struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	topics map[string]bool
}

func (c *client) subscribed(topic string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topics[topic]
}

// readPump consumes subscribe/unsubscribe control messages until the
// connection drops.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var ctl struct {
			Action string `json:"action"`
			Topic  string `json:"topic"`
		}
		if err := json.Unmarshal(data, &ctl); err != nil {
			continue
		}

		c.mu.Lock()
		switch ctl.Action {
		case "subscribe":
			c.topics[ctl.Topic] = true
		case "unsubscribe":
			delete(c.topics, ctl.Topic)
		}
		c.mu.Unlock()
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
