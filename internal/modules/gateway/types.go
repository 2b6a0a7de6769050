package gateway

import (
	"context"
	"sync"

	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"

	pkgredis "github.com/folio-space/core/internal/pkg/redis"
)

const (
	RoomAdmin      = "admin"
	RoomPublic     = "public"
	namespaceAdmin = "/admin"
	namespaceWeb   = "/web"

	redisKeyMaxOnline = "folio:gateway:max_online"

	eventConnect       = "GATEWAY_CONNECT"
	eventAuthFailed    = "AUTH_FAILED"
	eventVisitorOnline = "VISITOR_ONLINE"
	eventVisitorLeft   = "VISITOR_OFFLINE"
)

// Message is a hub broadcast. An empty Room reaches both namespaces.
type Message struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
	Room    string `json:"room,omitempty"`
}

// gatewayPayload is what clients receive on the "message" event.
type gatewayPayload struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type clientMeta struct {
	sid  string
	room string
}

// TokenCheck reports whether token belongs to a live admin session.
type TokenCheck func(ctx context.Context, token string) bool

// Hub owns the socket.io server and pushes change notifications to browsers.
type Hub struct {
	mu        sync.RWMutex
	sidRoom   map[string]string
	roomCount map[string]int

	broadcast  chan Message
	register   chan clientMeta
	unregister chan clientMeta

	rc         *pkgredis.Client
	log        *zap.Logger
	sio        *socketio.Server
	checkToken TokenCheck

	// emit delivers one payload to a namespace; swapped in tests.
	emit func(nsp string, p gatewayPayload)
}
