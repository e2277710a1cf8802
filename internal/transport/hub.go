package transport

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"hlnodefeed/internal/subscribe"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
)

// Hub manages connected clients and delivers topic-filtered publish
// frames to them, adapted from the teacher's broadcast-only
// register/unregister/broadcast Hub to gate delivery by each client's
// subscribed topics rather than fanning every message out to everyone.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	logger  *slog.Logger
}

// NewHub returns an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		logger:  logger.With("component", "transport-hub"),
	}
}

// Register adds client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	h.logger.Info("client connected", "count", h.clientCount())
}

// Unregister removes client and closes its send channel. Safe to call
// more than once for the same client.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.logger.Info("client disconnected", "count", len(h.clients))
}

func (h *Hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish delivers frame to every client subscribed to topic. A client
// whose send channel is full is dropped rather than allowed to stall
// delivery to everyone else.
func (h *Hub) Publish(topic string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.subscribed(topic) {
			continue
		}
		select {
		case c.send <- frame:
		default:
			h.logger.Warn("client too slow, dropping", "topic", topic)
			go h.Unregister(c)
		}
	}
}

// Client is one connected transport peer: a WebSocket connection plus
// the set of topics it currently receives publish frames for. It also
// tracks its own subscription ids so that, on disconnect, it can tear
// those subscriptions out of the registry instead of leaking them.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	subs     *subscribe.Registry
	send     chan []byte
	requests chan []byte
	mu       sync.RWMutex
	topics   map[string]bool
	subIDs   map[string]bool
}

// NewClient registers conn with hub and starts its read/write pumps.
// Inbound non-publish frames (plain JSON request envelopes) are
// delivered on the client's Requests channel for the router to consume. subs is
// the subscription registry this client's wallet subscriptions live
// in; its entries are removed once the client disconnects.
func NewClient(hub *Hub, conn *websocket.Conn, subs *subscribe.Registry) *Client {
	c := &Client{
		hub:      hub,
		conn:     conn,
		subs:     subs,
		send:     make(chan []byte, 256),
		requests: make(chan []byte, 256),
		topics:   make(map[string]bool),
		subIDs:   make(map[string]bool),
	}
	hub.Register(c)
	go c.writePump()
	go c.readPump()
	return c
}

// Subscribe records that this client holds subscription id for topic,
// and adds topic to the set it receives publishes for.
func (c *Client) Subscribe(id, topic string) {
	c.mu.Lock()
	c.topics[topic] = true
	c.subIDs[id] = true
	c.mu.Unlock()
}

// Unsubscribe forgets subscription id and removes topic from this
// client's subscribed set.
func (c *Client) Unsubscribe(id, topic string) {
	c.mu.Lock()
	delete(c.topics, topic)
	delete(c.subIDs, id)
	c.mu.Unlock()
}

// releaseSubscriptions unsubscribes every subscription this client
// still holds from the registry. Called once, on disconnect.
func (c *Client) releaseSubscriptions() {
	c.mu.Lock()
	ids := make([]string, 0, len(c.subIDs))
	for id := range c.subIDs {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	if c.subs == nil {
		return
	}
	for _, id := range ids {
		c.subs.Unsubscribe(id)
	}
}

func (c *Client) subscribed(topic string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topics[topic]
}

// Requests returns the channel of inbound request envelope bytes.
func (c *Client) Requests() <-chan []byte {
	return c.requests
}

// Send enqueues a reply frame for delivery, dropping it if the
// client's send buffer is already full.
func (c *Client) Send(payload []byte) {
	select {
	case c.send <- payload:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.releaseSubscriptions()
		close(c.requests)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Error("websocket error", "error", err)
			}
			return
		}
		select {
		case c.requests <- data:
		default:
			c.hub.logger.Warn("request buffer full, dropping client message")
		}
	}
}
