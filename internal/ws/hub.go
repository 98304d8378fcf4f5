// Package ws implements the event fan-out: a hub of websocket clients
// subscribed to room channels. The hub is the transport side of the engine's
// dispatcher contract — delivery is best effort and at most once, sends to a
// slow client are dropped rather than blocking a mutation, and a
// disconnected subscriber simply misses events (the model has no durable
// history to replay).
package ws

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/vanish-chat/vanish-backend/internal/events"
)

const (
	// sendBuffer is the per-client queue length; events beyond it are dropped.
	sendBuffer = 64
	// writeTimeout bounds a single frame write.
	writeTimeout = 10 * time.Second
	// pingInterval keeps idle connections alive through proxies.
	pingInterval = 25 * time.Second
)

var (
	wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections",
		Help: "Current number of connected websocket clients.",
	})
	wsEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_events_delivered_total",
		Help: "Events queued for delivery to subscribers, by event type.",
	}, []string{"type"})
	wsDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ws_events_dropped_total",
		Help: "Events dropped because a client send buffer was full.",
	})
)

func init() {
	prometheus.MustRegister(wsConnections, wsEventsTotal, wsDroppedTotal)
}

// Client is one websocket connection with its identity and send queue.
type Client struct {
	UserID   string
	UserName string

	conn *websocket.Conn
	send chan events.Event

	ctx    context.Context
	cancel context.CancelFunc
}

// Hub tracks connected clients and their room subscriptions. It is safe for
// concurrent use and implements events.Dispatcher.
type Hub struct {
	mu sync.RWMutex

	// room key -> subscribed clients
	rooms map[string]map[*Client]struct{}
	// all connected clients
	clients map[*Client]struct{}
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Client]struct{}),
		clients: make(map[*Client]struct{}),
	}
}

// AddClient registers a connection under the authenticated identity and
// starts its write and keep-alive loops.
func (h *Hub) AddClient(userID, userName string, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		UserID:   userID,
		UserName: userName,
		conn:     conn,
		send:     make(chan events.Event, sendBuffer),
		ctx:      ctx,
		cancel:   cancel,
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	wsConnections.Inc()

	go c.writeLoop()
	go c.keepAliveLoop()
	return c
}

// RemoveClient drops the client from every room and closes its connection.
func (h *Hub) RemoveClient(c *Client) {
	c.cancel()

	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for room, set := range h.rooms {
		delete(set, c)
		if len(set) == 0 {
			delete(h.rooms, room)
		}
	}
	h.mu.Unlock()
	wsConnections.Dec()

	_ = c.conn.Close(websocket.StatusNormalClosure, "bye")
}

// Join subscribes the client to a room channel. Idempotent.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	set, ok := h.rooms[room]
	if !ok {
		set = make(map[*Client]struct{})
		h.rooms[room] = set
	}
	set[c] = struct{}{}
}

// Leave unsubscribes the client from a room channel.
func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.rooms[room]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Dispatch implements events.Dispatcher: the event is queued for every
// subscriber of its room. Full queues drop the event for that client.
func (h *Hub) Dispatch(ev events.Event) {
	h.mu.RLock()
	set := h.rooms[ev.Room]
	targets := make([]*Client, 0, len(set))
	for c := range set {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		select {
		case c.send <- ev:
			wsEventsTotal.WithLabelValues(ev.Type).Inc()
		default:
			wsDroppedTotal.Inc()
		}
	}
}

// Subscribers returns how many clients are subscribed to room.
func (h *Hub) Subscribers(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (c *Client) writeLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case ev := <-c.send:
			ctx, cancel := context.WithTimeout(c.ctx, writeTimeout)
			err := wsjson.Write(ctx, c.conn, ev)
			cancel()
			if err != nil {
				log.Debug().Err(err).Str("user_id", c.UserID).Msg("ws write failed")
				c.cancel()
				return
			}
		}
	}
}

func (c *Client) keepAliveLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				c.cancel()
				return
			}
		}
	}
}

// Done is closed when the client is shut down (write failure, ping failure,
// or removal from the hub).
func (c *Client) Done() <-chan struct{} { return c.ctx.Done() }
