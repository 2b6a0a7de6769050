package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisPublisher fans events out to other instances over a Redis channel.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, _ string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	return p.rdb.Publish(ctx, p.channel, data).Err()
}

func (p *RedisPublisher) Close() error {
	return nil
}

// RedisRelay re-delivers events published by other instances to the local bus.
type RedisRelay struct {
	rdb     *redis.Client
	channel string
	bus     *Bus
	log     *zap.Logger
}

func NewRedisRelay(rdb *redis.Client, channel string, bus *Bus, log *zap.Logger) *RedisRelay {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisRelay{rdb: rdb, channel: channel, bus: bus, log: log}
}

// Run blocks, relaying messages until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(ctx, msg.Payload)
		}
	}
}

func (r *RedisRelay) handle(ctx context.Context, payload string) {
	var ev ChangeEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		r.log.Warn("drop malformed change event", zap.Error(err))
		return
	}
	if ev.Origin == r.bus.Origin() || ev.Table == "" {
		return
	}
	r.bus.Deliver(ctx, ev)
}
