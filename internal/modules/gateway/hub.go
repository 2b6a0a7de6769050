package gateway

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"

	pkgredis "github.com/folio-space/core/internal/pkg/redis"
)

// NewHub builds the socket.io server with the /web and /admin namespaces.
// rc may be nil; it only backs the daily peak-visitors counter.
func NewHub(rc *pkgredis.Client, log *zap.Logger, checkToken TokenCheck) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		sidRoom:    make(map[string]string),
		roomCount:  make(map[string]int),
		broadcast:  make(chan Message, 256),
		register:   make(chan clientMeta, 256),
		unregister: make(chan clientMeta, 256),
		rc:         rc,
		log:        log,
		sio:        socketio.NewServer(nil, nil),
		checkToken: checkToken,
	}
	h.emit = func(nsp string, p gatewayPayload) {
		_ = h.sio.Of(nsp, nil).Emit("message", p)
	}
	h.registerNamespaces()
	return h
}

// Run is the hub loop. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.sio.Close(nil)
			return
		case c := <-h.register:
			h.registerClient(c)
		case c := <-h.unregister:
			h.unregisterClient(c)
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg Message) {
	p := gatewayPayload{Type: msg.Event, Data: msg.Payload}
	switch msg.Room {
	case RoomAdmin:
		h.emit(namespaceAdmin, p)
	case RoomPublic:
		h.emit(namespaceWeb, p)
	default:
		h.emit(namespaceAdmin, p)
		h.emit(namespaceWeb, p)
	}
}

func (h *Hub) registerClient(c clientMeta) {
	h.mu.Lock()
	if old, ok := h.sidRoom[c.sid]; ok {
		if old == c.room {
			h.mu.Unlock()
			return
		}
		if h.roomCount[old] > 0 {
			h.roomCount[old]--
		}
	}
	h.sidRoom[c.sid] = c.room
	h.roomCount[c.room]++
	online := h.roomCount[RoomPublic]
	h.mu.Unlock()

	if c.room == RoomPublic {
		h.BroadcastAdmin(eventVisitorOnline, visitorPayload(online))
		h.recordPeak(online)
	}
}

func (h *Hub) unregisterClient(c clientMeta) {
	h.mu.Lock()
	room, ok := h.sidRoom[c.sid]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sidRoom, c.sid)
	if h.roomCount[room] > 0 {
		h.roomCount[room]--
	}
	online := h.roomCount[RoomPublic]
	h.mu.Unlock()

	if room == RoomPublic {
		h.BroadcastAdmin(eventVisitorLeft, visitorPayload(online))
	}
}

func visitorPayload(online int) map[string]any {
	return map[string]any{"online": online, "timestamp": time.Now().UTC().Format(time.RFC3339)}
}

// recordPeak keeps the highest concurrent visitor count per day in Redis.
func (h *Hub) recordPeak(online int) {
	if h.rc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	day := time.Now().Format("2006-01-02")
	current, err := h.rc.Raw().HGet(ctx, redisKeyMaxOnline, day).Int()
	if err != nil && err != redis.Nil {
		h.log.Debug("gateway read peak online failed", zap.Error(err))
		return
	}
	if online > current {
		if err := h.rc.Raw().HSet(ctx, redisKeyMaxOnline, day, strconv.Itoa(online)).Err(); err != nil {
			h.log.Debug("gateway write peak online failed", zap.Error(err))
		}
	}
}

// PeakOnline returns today's highest visitor count, 0 when unknown.
func (h *Hub) PeakOnline(ctx context.Context) int {
	if h.rc == nil {
		return 0
	}
	n, err := h.rc.Raw().HGet(ctx, redisKeyMaxOnline, time.Now().Format("2006-01-02")).Int()
	if err != nil {
		return 0
	}
	return n
}

// Broadcast queues msg for delivery. A full queue drops the message: change
// notifications are hints and clients refetch on the next one.
func (h *Hub) Broadcast(event string, payload any, room string) {
	select {
	case h.broadcast <- Message{Event: event, Payload: payload, Room: room}:
	default:
		h.log.Warn("gateway broadcast queue full, dropping", zap.String("event", event))
	}
}

func (h *Hub) BroadcastAdmin(event string, payload any) {
	h.Broadcast(event, payload, RoomAdmin)
}

func (h *Hub) BroadcastPublic(event string, payload any) {
	h.Broadcast(event, payload, RoomPublic)
}

// ClientCount returns connected clients in room, or all clients for "".
func (h *Hub) ClientCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if room == "" {
		return len(h.sidRoom)
	}
	return h.roomCount[room]
}

// Handler is the socket.io HTTP handler mounted at /socket.io.
func (h *Hub) Handler() http.Handler {
	return h.sio.ServeHandler(nil)
}
