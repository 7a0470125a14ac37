package repository

import (
	"context"
	"ctchen222/quantum-tictactoe/internal/session"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxUpdateRetries = 5

type redisSessionRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisSessionRepository creates a Redis-based SessionRepository. Every
// write refreshes the key's expiry to ttl so abandoned games disappear.
func NewRedisSessionRepository(rdb *redis.Client, ttl time.Duration) SessionRepository {
	return &redisSessionRepository{rdb: rdb, ttl: ttl}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// Create stores a new session, failing if the id is taken.
func (r *redisSessionRepository) Create(ctx context.Context, s *session.Session) error {
	ctx, span := tracer.Start(ctx, "SessionRepository.Create", trace.WithAttributes(
		attribute.String("game.id", s.ID),
	))
	defer span.End()

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ok, err := r.rdb.SetNX(ctx, sessionKey(s.ID), data, r.ttl).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create session")
		return fmt.Errorf("failed to create session in redis: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionExists, s.ID)
	}
	return nil
}

// FindByID retrieves a session from Redis.
func (r *redisSessionRepository) FindByID(ctx context.Context, id string) (*session.Session, error) {
	ctx, span := tracer.Start(ctx, "SessionRepository.FindByID", trace.WithAttributes(
		attribute.String("game.id", id),
	))
	defer span.End()

	data, err := r.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to get session")
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}

	return decodeSession(data)
}

// Update runs fn inside a WATCH transaction so concurrent writers to the same
// session retry instead of overwriting each other.
func (r *redisSessionRepository) Update(ctx context.Context, id string, fn UpdateFunc) (*session.Session, error) {
	ctx, span := tracer.Start(ctx, "SessionRepository.Update", trace.WithAttributes(
		attribute.String("game.id", id),
	))
	defer span.End()

	key := sessionKey(id)
	var updated *session.Session

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("failed to get session for update: %w", err)
		}

		s, err := decodeSession(data)
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}

		newData, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to marshal updated session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newData, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		updated = s
		return nil
	}

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		err := r.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			span.AddEvent("session.update.retry", trace.WithAttributes(attribute.Int("attempt", attempt+1)))
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}

	span.SetStatus(codes.Error, "Too many concurrent updates")
	return nil, fmt.Errorf("failed to update session %s: %w", id, redis.TxFailedErr)
}

// Delete removes the session from Redis.
func (r *redisSessionRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "SessionRepository.Delete", trace.WithAttributes(
		attribute.String("game.id", id),
	))
	defer span.End()

	n, err := r.rdb.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete session")
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

func decodeSession(data []byte) (*session.Session, error) {
	var s session.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}
