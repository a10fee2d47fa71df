package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

const (
	EventRestaurantCreated = "restaurant.created"
	EventRestaurantUpdated = "restaurant.updated"
	EventRestaurantDeleted = "restaurant.deleted"
)

type RestaurantEvent struct {
	Type         string    `json:"type"`
	UserID       uuid.UUID `json:"user_id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Name         string    `json:"name,omitempty"`
	Location     string    `json:"location,omitempty"`
	Mentions     int       `json:"mentions,omitempty"`
	Source       string    `json:"source,omitempty"`
	At           time.Time `json:"at"`
}

type Bus interface {
	Publish(ctx context.Context, evt RestaurantEvent) error
	StartForwarder(ctx context.Context, onEvent func(RestaurantEvent)) error
	Close() error
}

type redisBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// New returns a redis-backed bus, or a no-op bus when rdb is nil.
func New(log *logger.Logger, rdb *goredis.Client, channel string) Bus {
	if rdb == nil {
		return Nop{}
	}
	if channel == "" {
		channel = "unidine.restaurants"
	}
	return &redisBus{log: log.With("service", "RestaurantEventBus"), rdb: rdb, channel: channel}
}

func (b *redisBus) Publish(ctx context.Context, evt RestaurantEvent) error {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	raw, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *redisBus) StartForwarder(ctx context.Context, onEvent func(RestaurantEvent)) error {
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var evt RestaurantEvent
				if err := json.Unmarshal([]byte(m.Payload), &evt); err != nil {
					b.log.Warn("bad restaurant event payload", "error", err)
					continue
				}
				onEvent(evt)
			}
		}
	}()
	return nil
}

func (b *redisBus) Close() error { return nil }

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, RestaurantEvent) error { return nil }

func (Nop) StartForwarder(context.Context, func(RestaurantEvent)) error { return nil }

func (Nop) Close() error { return nil }

// Recorder keeps published events in memory. Tests use it in place of redis.
type Recorder struct {
	mu     sync.Mutex
	events []RestaurantEvent
}

func (r *Recorder) Publish(_ context.Context, evt RestaurantEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *Recorder) Events() []RestaurantEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RestaurantEvent(nil), r.events...)
}

func (r *Recorder) StartForwarder(context.Context, func(RestaurantEvent)) error { return nil }

func (r *Recorder) Close() error { return nil }
