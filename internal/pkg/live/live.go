// Package live keeps in-memory snapshots of table queries fresh by
// refetching whenever the table reports a change.
package live

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/folio-space/core/internal/pkg/events"
)

const defaultErrorMessage = "Não foi possível carregar os dados"

// Subscriber is the part of the event bus a Collection listens on.
type Subscriber interface {
	Subscribe(table string, h events.Handler) (unsubscribe func())
}

// FetchFunc loads the full result set of the watched query.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Collection holds the latest result of a query on one table.
type Collection[T any] struct {
	name   string
	table  string
	fetch  FetchFunc[T]
	bus    Subscriber
	log    *zap.Logger
	errMsg string

	fetchMu sync.Mutex

	mu      sync.RWMutex
	items   []T
	lastErr string
	loaded  bool

	signal chan struct{}
	done   chan struct{}
}

type Option func(*options)

type options struct {
	log    *zap.Logger
	errMsg string
}

func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithErrorMessage sets the message reported by Snapshot after a failed fetch.
func WithErrorMessage(msg string) Option {
	return func(o *options) { o.errMsg = msg }
}

func New[T any](name, table string, fetch FetchFunc[T], bus Subscriber, opts ...Option) *Collection[T] {
	o := options{log: zap.NewNop(), errMsg: defaultErrorMessage}
	for _, opt := range opts {
		opt(&o)
	}
	return &Collection[T]{
		name:   name,
		table:  table,
		fetch:  fetch,
		bus:    bus,
		log:    o.log.With(zap.String("collection", name)),
		errMsg: o.errMsg,
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (c *Collection[T]) Name() string { return c.name }

// Start subscribes to change events, performs the initial fetch and keeps
// refetching in the background until ctx is cancelled. The returned error is
// the initial fetch failure, if any; the collection keeps running either way.
func (c *Collection[T]) Start(ctx context.Context) error {
	unsubscribe := c.bus.Subscribe(c.table, func(context.Context, events.ChangeEvent) {
		c.notify()
	})

	err := c.Refresh(ctx)

	go func() {
		defer close(c.done)
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.signal:
				_ = c.Refresh(ctx)
			}
		}
	}()
	return err
}

// Done is closed once the background loop has stopped.
func (c *Collection[T]) Done() <-chan struct{} { return c.done }

func (c *Collection[T]) notify() {
	select {
	case c.signal <- struct{}{}:
	default:
	}
}

// Refresh fetches synchronously. On failure the previous items are kept and
// the error message is recorded.
func (c *Collection[T]) Refresh(ctx context.Context) error {
	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	items, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = true
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		c.lastErr = c.errMsg
		c.log.Warn("fetch failed", zap.String("table", c.table), zap.Error(err))
		return err
	}
	c.items = items
	c.lastErr = ""
	return nil
}

// Snapshot returns a copy of the items and the last error message ("" when healthy).
func (c *Collection[T]) Snapshot() ([]T, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out, c.lastErr
}

// Loading reports whether the first fetch has not completed yet.
func (c *Collection[T]) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.loaded
}
