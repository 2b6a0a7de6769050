// Package dashboard serves the admin overview: table counts, connected
// realtime clients and the latest content changes.
package dashboard

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/folio-space/core/internal/pkg/events"
)

// PairCounter reports a total and a filtered subset (active, unread).
type PairCounter interface {
	Counts(ctx context.Context) (total, subset int64, err error)
}

type Counter interface {
	Count(ctx context.Context) (int64, error)
}

type ClientCounter interface {
	ClientCount(room string) int
}

type Pair struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}

type Messages struct {
	Total  int64 `json:"total"`
	Unread int64 `json:"unread"`
}

type Summary struct {
	Projects Pair     `json:"projects"`
	Services Pair     `json:"services"`
	Messages Messages `json:"messages"`
	Assets   int64    `json:"assets"`
	Clients  int      `json:"clients"`
	Recent   []Entry  `json:"recent"`
}

type Service struct {
	projects PairCounter
	services PairCounter
	messages PairCounter
	assets   Counter
	clients  ClientCounter
	activity *Activity
}

// NewService wires the counters. clients and activity may be nil.
func NewService(projects, services, messages PairCounter, assets Counter, clients ClientCounter, activity *Activity) *Service {
	return &Service{
		projects: projects,
		services: services,
		messages: messages,
		assets:   assets,
		clients:  clients,
		activity: activity,
	}
}

// Summary runs the counts concurrently; the first failure cancels the rest.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	var out Summary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Projects.Total, out.Projects.Active, err = s.projects.Counts(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.Services.Total, out.Services.Active, err = s.services.Counts(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.Messages.Total, out.Messages.Unread, err = s.messages.Counts(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.Assets, err = s.assets.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if s.clients != nil {
		out.Clients = s.clients.ClientCount("")
	}
	out.Recent = []Entry{}
	if s.activity != nil {
		out.Recent = s.activity.Recent()
	}
	return &out, nil
}

// Entry is one recorded change.
type Entry struct {
	Table string            `json:"table"`
	Type  events.ChangeType `json:"type"`
	ID    string            `json:"id,omitempty"`
	At    time.Time         `json:"at"`
}

// Activity keeps the last N change events in memory, newest first on read.
type Activity struct {
	mu   sync.Mutex
	buf  []Entry
	next int
	full bool
}

func NewActivity(size int) *Activity {
	if size <= 0 {
		size = 20
	}
	return &Activity{buf: make([]Entry, size)}
}

func (a *Activity) Record(_ context.Context, ev events.ChangeEvent) {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	a.mu.Lock()
	a.buf[a.next] = Entry{Table: ev.Table, Type: ev.Type, ID: ev.ID, At: at}
	a.next = (a.next + 1) % len(a.buf)
	if a.next == 0 {
		a.full = true
	}
	a.mu.Unlock()
}

func (a *Activity) Recent() []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := a.next
	if a.full {
		n = len(a.buf)
	}
	out := make([]Entry, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, a.buf[(a.next-i+len(a.buf))%len(a.buf)])
	}
	return out
}
