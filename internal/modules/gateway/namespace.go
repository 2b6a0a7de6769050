package gateway

import (
	"context"
	"strings"
	"time"

	socketio "github.com/zishang520/socket.io/v2/socket"

	"github.com/folio-space/core/internal/middleware"
)

func (h *Hub) registerNamespaces() {
	webNS := h.sio.Of(namespaceWeb, nil)
	_ = webNS.On("connection", func(args ...any) {
		client, ok := args[0].(*socketio.Socket)
		if !ok {
			return
		}
		sid := string(client.Id())
		h.register <- clientMeta{sid: sid, room: RoomPublic}
		_ = client.Emit("message", gatewayPayload{Type: eventConnect, Data: "WebSocket connected"})
		_ = client.On("disconnect", func(...any) {
			h.unregister <- clientMeta{sid: sid, room: RoomPublic}
		})
	})

	adminNS := h.sio.Of(namespaceAdmin, nil)
	_ = adminNS.On("connection", func(args ...any) {
		client, ok := args[0].(*socketio.Socket)
		if !ok {
			return
		}
		if !h.authorize(extractToken(client)) {
			_ = client.Emit("message", gatewayPayload{Type: eventAuthFailed, Data: "auth failed"})
			client.Disconnect(true)
			return
		}
		sid := string(client.Id())
		h.register <- clientMeta{sid: sid, room: RoomAdmin}
		_ = client.Emit("message", gatewayPayload{Type: eventConnect, Data: "WebSocket connected"})
		_ = client.On("disconnect", func(...any) {
			h.unregister <- clientMeta{sid: sid, room: RoomAdmin}
		})
	})
}

func (h *Hub) authorize(raw string) bool {
	token := middleware.NormalizeToken(raw)
	if token == "" || h.checkToken == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return h.checkToken(ctx, token)
}

// extractToken reads the token from the handshake query, the Authorization
// header or the session cookie.
func extractToken(client *socketio.Socket) string {
	hs := client.Handshake()
	if hs == nil {
		return ""
	}
	if token := firstValue(hs.Query, "token"); token != "" {
		return token
	}
	if token := firstValue(hs.Headers, "authorization"); token != "" {
		return token
	}
	return cookieValue(firstValue(hs.Headers, "cookie"), middleware.TokenCookie)
}

func firstValue(values map[string][]string, key string) string {
	for k, list := range values {
		if !strings.EqualFold(strings.TrimSpace(k), key) || len(list) == 0 {
			continue
		}
		if v := strings.TrimSpace(list[0]); v != "" {
			return v
		}
	}
	return ""
}

func cookieValue(header, name string) string {
	for _, part := range strings.Split(header, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && k == name {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
