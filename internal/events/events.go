package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Pub/Sub channel prefix, one channel per game.
const channelPrefix = "channel:game:"

const (
	TypeGameUpdated = "game_updated"
	TypeGameDeleted = "game_deleted"
)

// subscriberBuffer is how many events a slow subscriber may fall behind by
// before further events are dropped for it.
const subscriberBuffer = 16

// Event is a change to one game, fanned out to everyone watching it.
type Event struct {
	Type    string          `json:"event"`
	GameID  string          `json:"game_id"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Bus delivers game events to the subscribers of that game.
type Bus interface {
	Publish(ctx context.Context, ev Event) error
	// Subscribe returns the events of gameID until cancel is called or ctx is done.
	Subscribe(ctx context.Context, gameID string) (events <-chan Event, cancel func(), err error)
}

func channelName(gameID string) string {
	return channelPrefix + gameID
}

// deliver hands ev to a subscriber. Updates are dropped once the subscriber
// is subscriberBuffer events behind; a deletion waits until it is taken,
// the subscriber goes away or ctx is done.
func deliver(ctx context.Context, ch chan<- Event, done <-chan struct{}, ev Event) {
	if ev.Type == TypeGameDeleted {
		select {
		case ch <- ev:
		case <-done:
		case <-ctx.Done():
			slog.WarnContext(ctx, "Deletion not delivered", "game.id", ev.GameID, "error", ctx.Err())
		}
		return
	}

	select {
	case ch <- ev:
	default:
		slog.WarnContext(ctx, "Dropping event for slow subscriber", "game.id", ev.GameID, "event.type", ev.Type)
	}
}

type subscriber struct {
	ch   chan Event
	done chan struct{}
}

type memoryBus struct {
	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

// NewMemoryBus creates a Bus for a single process.
func NewMemoryBus() Bus {
	return &memoryBus{subs: make(map[string]map[*subscriber]struct{})}
}

func (b *memoryBus) Publish(ctx context.Context, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs[ev.GameID] {
		deliver(ctx, sub.ch, sub.done, ev)
	}
	return nil
}

func (b *memoryBus) Subscribe(ctx context.Context, gameID string) (<-chan Event, func(), error) {
	sub := &subscriber{
		ch:   make(chan Event, subscriberBuffer),
		done: make(chan struct{}),
	}

	b.mu.Lock()
	if b.subs[gameID] == nil {
		b.subs[gameID] = make(map[*subscriber]struct{})
	}
	b.subs[gameID][sub] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			// done is closed before taking the lock so that a Publish blocked
			// on this subscriber lets go of it.
			close(sub.done)

			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[gameID], sub)
			if len(b.subs[gameID]) == 0 {
				delete(b.subs, gameID)
			}
			close(sub.ch)
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-sub.done:
		}
	}()
	return sub.ch, cancel, nil
}
