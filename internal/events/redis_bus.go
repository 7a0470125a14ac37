package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("events")

type redisBus struct {
	rdb *redis.Client
}

// NewRedisBus creates a Bus over Redis Pub/Sub so that every replica sees
// the changes made by the others.
func NewRedisBus(rdb *redis.Client) Bus {
	return &redisBus{rdb: rdb}
}

func (b *redisBus) Publish(ctx context.Context, ev Event) error {
	ctx, span := tracer.Start(ctx, "events.Publish", trace.WithAttributes(
		attribute.String("game.id", ev.GameID),
		attribute.String("event.type", ev.Type),
	))
	defer span.End()

	data, err := json.Marshal(ev)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.rdb.Publish(ctx, channelName(ev.GameID), data).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to publish event")
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (b *redisBus) Subscribe(ctx context.Context, gameID string) (<-chan Event, func(), error) {
	ctx, span := tracer.Start(ctx, "events.Subscribe", trace.WithAttributes(
		attribute.String("game.id", gameID),
	))
	defer span.End()

	pubsub := b.rdb.Subscribe(ctx, channelName(gameID))
	// Wait for the confirmation so that no event published after Subscribe returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to subscribe")
		return nil, nil, fmt.Errorf("failed to subscribe to game %s: %w", gameID, err)
	}

	out := make(chan Event, subscriberBuffer)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			pubsub.Close()
		})
	}

	go func() {
		defer close(out)
		defer cancel()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					slog.WarnContext(ctx, "Ignoring malformed event", "game.id", gameID, "error", err)
					continue
				}
				deliver(ctx, out, done, ev)
			}
		}
	}()

	return out, cancel, nil
}
