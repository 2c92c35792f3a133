// Package realtime pushes order events to browsers over WebSocket.
//
// A connection starts in no room. The client sends
//
//	{"event":"join_order_room","data":{"order_id":"..."}}
//	{"event":"join_admin_room","data":{"token":"..."}}
//
// and from then on receives every event published to that room as
// {"event":name,"data":payload}. Joins are acknowledged with a "joined"
// frame; rejected requests get an "error" frame.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"cafe-order/metrics"
	"cafe-order/services"

	"github.com/gorilla/websocket"
)

const (
	EventJoinOrderRoom = "join_order_room"
	EventJoinAdminRoom = "join_admin_room"
	EventJoined        = "joined"
	EventError         = "error"

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// Authenticator resolves an admin bearer token to a username.
type Authenticator func(ctx context.Context, token string) (string, error)

type Options struct {
	Auth           Authenticator
	AllowedOrigins []string // "*" allows any; empty means same host only
	Log            *slog.Logger
	Metrics        *metrics.Metrics
}

type Hub struct {
	auth     Authenticator
	log      *slog.Logger
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
	rooms   map[string]map[*client]struct{}
}

type client struct {
	id    string
	conn  *websocket.Conn
	send  chan []byte
	rooms map[string]struct{}
	// closed is guarded by Hub.mu; send is only written while it is false.
	closed bool
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func NewHub(opts Options) *Hub {
	h := &Hub{
		auth:    opts.Auth,
		log:     opts.Log,
		metrics: opts.Metrics,
		clients: make(map[*client]struct{}),
		rooms:   make(map[string]map[*client]struct{}),
	}
	if h.log == nil {
		h.log = slog.Default()
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(opts.AllowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(strings.ToLower(o), "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		_, ok := set[strings.ToLower(u.Scheme+"://"+u.Host)]
		return ok
	}
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}
	c := &client{
		id:    r.RemoteAddr,
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		rooms: make(map[string]struct{}),
	}
	h.register(c)
	go h.writePump(c)
	h.readPump(r.Context(), c)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.ClientConnected()
	h.log.Debug("client connected", "client", c.id)
}

// remove detaches c from every room and closes its send queue, which makes
// the write pump close the socket. Safe to call more than once.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if c.closed {
		h.mu.Unlock()
		return
	}
	c.closed = true
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
	delete(h.clients, c)
	close(c.send)
	h.mu.Unlock()

	h.metrics.ClientDisconnected()
	h.log.Debug("client disconnected", "client", c.id)
}

func (h *Hub) leaveLocked(c *client, room string) {
	members := h.rooms[room]
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
	delete(c.rooms, room)
}

func (h *Hub) join(c *client, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.closed {
		return false
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
	return true
}

// trySend queues msg without blocking. Callers hold h.mu for reading.
func (c *client) trySend(msg []byte) bool {
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Publish implements services.Notifier. Clients whose send queue is full
// are disconnected instead of stalling the room.
func (h *Hub) Publish(ctx context.Context, room string, ev services.Event) error {
	msg, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	var slow []*client
	h.mu.RLock()
	for c := range h.rooms[room] {
		if !c.trySend(msg) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("dropping slow client", "client", c.id, "room", room)
		h.remove(c)
	}
	return ctx.Err()
}

// RoomSize reports how many clients are in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	all := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()
	for _, c := range all {
		h.remove(c)
	}
}

func (h *Hub) reply(c *client, event string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	msg, err := json.Marshal(frame{Event: event, Data: raw})
	if err != nil {
		return
	}
	h.mu.RLock()
	ok := c.trySend(msg)
	h.mu.RUnlock()
	if !ok {
		h.remove(c)
	}
}

func (h *Hub) replyError(c *client, msg string) {
	h.reply(c, EventError, map[string]string{"message": msg})
}

func (h *Hub) readPump(ctx context.Context, c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket read failed", "client", c.id, "error", err)
			}
			return
		}
		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			h.replyError(c, "malformed message")
			continue
		}
		h.handle(ctx, c, f)
	}
}

func (h *Hub) handle(ctx context.Context, c *client, f frame) {
	switch f.Event {
	case EventJoinOrderRoom:
		var req struct {
			OrderID string `json:"order_id"`
		}
		if len(f.Data) > 0 {
			_ = json.Unmarshal(f.Data, &req)
		}
		if strings.TrimSpace(req.OrderID) == "" {
			h.replyError(c, "order_id is required")
			return
		}
		room := services.OrderRoom(req.OrderID)
		if h.join(c, room) {
			h.log.Info("client joined room", "client", c.id, "room", room)
			h.reply(c, EventJoined, map[string]string{"room": room})
		}

	case EventJoinAdminRoom:
		var req struct {
			Token string `json:"token"`
		}
		if len(f.Data) > 0 {
			_ = json.Unmarshal(f.Data, &req)
		}
		if h.auth == nil || req.Token == "" {
			h.replyError(c, "admin token required")
			return
		}
		user, err := h.auth(ctx, req.Token)
		if err != nil {
			h.replyError(c, "invalid or expired token")
			return
		}
		if h.join(c, services.RoomAdmin) {
			h.log.Info("admin joined room", "client", c.id, "username", user)
			h.reply(c, EventJoined, map[string]string{"room": services.RoomAdmin})
		}

	default:
		h.replyError(c, "unknown event "+f.Event)
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
