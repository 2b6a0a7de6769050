package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []any
	err    error
	closed bool
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

func TestSubscribeByTable(t *testing.T) {
	bus := NewBus()
	var got []ChangeEvent
	unsubscribe := bus.Subscribe(TableProjects, func(_ context.Context, ev ChangeEvent) {
		got = append(got, ev)
	})

	bus.Publish(context.Background(), ChangeEvent{Table: TableServices, Type: Insert})
	bus.Publish(context.Background(), ChangeEvent{Table: TableProjects, Type: Update, ID: "p1"})
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].ID)
	assert.Equal(t, bus.Origin(), got[0].Origin)
	assert.False(t, got[0].At.IsZero())

	unsubscribe()
	unsubscribe()
	bus.Publish(context.Background(), ChangeEvent{Table: TableProjects, Type: Delete})
	assert.Len(t, got, 1)
}

func TestWildcardSubscriber(t *testing.T) {
	bus := NewBus()
	count := 0
	bus.Subscribe(AllTables, func(context.Context, ChangeEvent) { count++ })

	bus.Publish(context.Background(), ChangeEvent{Table: TableProjects, Type: Insert})
	bus.Publish(context.Background(), ChangeEvent{Table: TableContactMessages, Type: Insert})
	assert.Equal(t, 2, count)
}

func TestPublishForwardsToPublishers(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	bus := NewBus(WithOrigin("node-a"), WithLogger(zap.New(core)))
	ok := &recordingPublisher{}
	failing := &recordingPublisher{err: errors.New("nats down")}
	bus.Attach(ok)
	bus.Attach(failing)
	bus.Attach(nil)

	bus.Publish(context.Background(), ChangeEvent{Table: TableServices, Type: Delete, ID: "s1"})

	require.Equal(t, []string{"folio.services.delete"}, ok.topics)
	ev := ok.events[0].(ChangeEvent)
	assert.Equal(t, "node-a", ev.Origin)
	assert.Equal(t, 1, logs.FilterMessage("forward change event failed").Len())

	require.NoError(t, bus.Close())
	assert.True(t, ok.closed)
	assert.True(t, failing.closed)
}

func TestEventNames(t *testing.T) {
	ev := ChangeEvent{Table: TableContactMessages, Type: Insert}
	assert.Equal(t, "folio.contact_messages.insert", ev.Subject())
	assert.Equal(t, "CONTACT_MESSAGES_INSERT", ev.GatewayType())
}

func TestRedisRelaySkipsOwnOrigin(t *testing.T) {
	bus := NewBus(WithOrigin("node-a"))
	relay := NewRedisRelay(nil, "folio:events", bus, nil)
	var got []ChangeEvent
	bus.Subscribe(AllTables, func(_ context.Context, ev ChangeEvent) { got = append(got, ev) })

	own, _ := json.Marshal(ChangeEvent{Table: TableProjects, Type: Insert, Origin: "node-a"})
	remote, _ := json.Marshal(ChangeEvent{Table: TableProjects, Type: Update, Origin: "node-b", ID: "p9"})
	relay.handle(context.Background(), string(own))
	relay.handle(context.Background(), "{not json")
	relay.handle(context.Background(), string(remote))

	require.Len(t, got, 1)
	assert.Equal(t, "p9", got[0].ID)
	assert.Equal(t, "node-b", got[0].Origin)
}
