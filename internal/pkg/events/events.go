// Package events carries row change notifications between the write paths
// and everything that needs to react to them: cached collections, the
// websocket gateway and other server instances.
package events

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ChangeType is the kind of row change.
type ChangeType string

const (
	Insert ChangeType = "INSERT"
	Update ChangeType = "UPDATE"
	Delete ChangeType = "DELETE"
)

// Tables that emit change events.
const (
	TableProjects        = "projects"
	TableProjectImages   = "project_images"
	TableServices        = "services"
	TableSiteContents    = "site_contents"
	TableContactMessages = "contact_messages"
	TableAssets          = "assets"

	// AllTables subscribes to every table.
	AllTables = "*"
)

// ChangeEvent describes one row change.
type ChangeEvent struct {
	Table  string     `json:"table"`
	Type   ChangeType `json:"type"`
	ID     string     `json:"id,omitempty"`
	Origin string     `json:"origin,omitempty"`
	At     time.Time  `json:"at"`
}

// Subject is the NATS subject for the event, e.g. "folio.projects.insert".
func (e ChangeEvent) Subject() string {
	return fmt.Sprintf("folio.%s.%s", e.Table, strings.ToLower(string(e.Type)))
}

// GatewayType is the realtime message type, e.g. "PROJECTS_INSERT".
func (e ChangeEvent) GatewayType() string {
	return strings.ToUpper(e.Table) + "_" + string(e.Type)
}

// Publisher is the interface for emitting events to an external transport.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Notifier is what write paths depend on to announce a change.
type Notifier interface {
	Publish(ctx context.Context, ev ChangeEvent)
}
