package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler receives change events. Handlers run on the publishing goroutine
// and must not block.
type Handler func(ctx context.Context, ev ChangeEvent)

// Bus is the in-process observer registry. Published events reach every local
// subscriber of the table (and of AllTables) plus every attached Publisher.
type Bus struct {
	origin string
	log    *zap.Logger

	mu         sync.RWMutex
	nextID     int
	subs       map[string]map[int]Handler
	publishers []Publisher
}

type Option func(*Bus)

func WithLogger(log *zap.Logger) Option {
	return func(b *Bus) { b.log = log }
}

// WithOrigin sets the instance identifier stamped on outgoing events.
func WithOrigin(origin string) Option {
	return func(b *Bus) { b.origin = origin }
}

func NewBus(opts ...Option) *Bus {
	b := &Bus{
		origin: uuid.NewString(),
		log:    zap.NewNop(),
		subs:   make(map[string]map[int]Handler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Origin identifies this instance on shared transports.
func (b *Bus) Origin() string { return b.origin }

// Attach adds an external publisher. Nil publishers are ignored.
func (b *Bus) Attach(p Publisher) {
	if p == nil {
		return
	}
	b.mu.Lock()
	b.publishers = append(b.publishers, p)
	b.mu.Unlock()
}

// Subscribe registers h for table and returns a function that removes it.
func (b *Bus) Subscribe(table string, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.subs[table] == nil {
		b.subs[table] = make(map[int]Handler)
	}
	b.subs[table][id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[table], id)
			if len(b.subs[table]) == 0 {
				delete(b.subs, table)
			}
			b.mu.Unlock()
		})
	}
}

// Publish stamps ev, delivers it locally and forwards it to every publisher.
// Publisher failures are logged, never returned: the write already happened.
func (b *Bus) Publish(ctx context.Context, ev ChangeEvent) {
	if ev.Origin == "" {
		ev.Origin = b.origin
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	b.Deliver(ctx, ev)

	b.mu.RLock()
	publishers := append([]Publisher(nil), b.publishers...)
	b.mu.RUnlock()
	for _, p := range publishers {
		if err := p.Publish(ctx, ev.Subject(), ev); err != nil {
			b.log.Warn("forward change event failed",
				zap.String("table", ev.Table),
				zap.String("type", string(ev.Type)),
				zap.Error(err))
		}
	}
}

// Deliver hands ev to local subscribers only.
func (b *Bus) Deliver(ctx context.Context, ev ChangeEvent) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[ev.Table])+len(b.subs[AllTables]))
	for _, h := range b.subs[ev.Table] {
		handlers = append(handlers, h)
	}
	if ev.Table != AllTables {
		for _, h := range b.subs[AllTables] {
			handlers = append(handlers, h)
		}
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, ev)
	}
}

// Close closes every attached publisher.
func (b *Bus) Close() error {
	b.mu.Lock()
	publishers := b.publishers
	b.publishers = nil
	b.mu.Unlock()

	var errs []error
	for _, p := range publishers {
		errs = append(errs, p.Close())
	}
	return errors.Join(errs...)
}
