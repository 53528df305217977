package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/derivedconcept-backend/internal/pkg/logger"
	"github.com/yungbote/derivedconcept-backend/internal/realtime"
)

const DefaultRedisChannel = "derived-concept-events"

type RedisOptions struct {
	Addr    string
	Channel string
}

// RedisBus implements Bus and Subscriber over one redis pub/sub channel.
type RedisBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

var (
	_ Bus        = (*RedisBus)(nil)
	_ Subscriber = (*RedisBus)(nil)
)

func NewRedisBus(log *logger.Logger, opts RedisOptions) (*RedisBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(opts.Channel)
	if ch == "" {
		ch = DefaultRedisChannel
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisBus{
		log:     log.With("service", "RedisEventBus", "channel", ch),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *RedisBus) Channel() string { return b.channel }

func (b *RedisBus) Publish(ctx context.Context, msg realtime.Event) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis event bus not initialized")
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", msg.Event, err)
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, events []string, handle func(realtime.Event)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis event bus not initialized")
	}
	if handle == nil {
		return fmt.Errorf("event handler required")
	}
	wanted := eventSet(events)

	sub := b.rdb.Subscribe(ctx, b.channel)
	defer func() { _ = sub.Close() }()
	// Wait for the subscribe confirmation so no event published after
	// Subscribe starts blocking is missed.
	if _, err := sub.Receive(ctx); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return fmt.Errorf("redis subscribe: %w", err)
	}
	b.log.Debug("Subscribed", "events", events)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			ev, err := decodeEvent(m.Payload)
			if err != nil {
				b.log.Warn("Dropping undecodable event", "error", err)
				continue
			}
			if wanted != nil && !wanted[ev.Event] {
				continue
			}
			handle(ev)
		}
	}
}

func (b *RedisBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

func decodeEvent(payload string) (realtime.Event, error) {
	var ev realtime.Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return realtime.Event{}, err
	}
	if ev.Event == "" {
		return realtime.Event{}, fmt.Errorf("event name missing")
	}
	return ev, nil
}

func eventSet(events []string) map[string]bool {
	var out map[string]bool
	for _, e := range events {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if out == nil {
			out = map[string]bool{}
		}
		out[e] = true
	}
	return out
}
