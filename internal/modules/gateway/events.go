package gateway

import (
	"context"

	"github.com/folio-space/core/internal/pkg/events"
)

// adminOnly lists tables whose changes must not reach public visitors.
var adminOnly = map[string]bool{
	events.TableContactMessages: true,
	events.TableAssets:          true,
}

// Subscriber is the part of the event bus the hub listens on.
type Subscriber interface {
	Subscribe(table string, h events.Handler) (unsubscribe func())
}

// Forward pushes every change event on bus to the connected browsers as
// {type: "<TABLE>_<TYPE>", data: {table, type, id}}.
func (h *Hub) Forward(bus Subscriber) (unsubscribe func()) {
	return bus.Subscribe(events.AllTables, func(_ context.Context, ev events.ChangeEvent) {
		data := map[string]any{"table": ev.Table, "type": ev.Type, "id": ev.ID}
		if adminOnly[ev.Table] {
			h.BroadcastAdmin(ev.GatewayType(), data)
			return
		}
		h.Broadcast(ev.GatewayType(), data, "")
	})
}
