package repository

import (
	"context"
	"ctchen222/quantum-tictactoe/internal/session"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("repository.session")

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
)

// UpdateFunc mutates a session inside Update. Returning an error aborts the
// update and leaves the stored session unchanged.
type UpdateFunc func(s *session.Session) error

// SessionRepository defines the interface for session data operations.
type SessionRepository interface {
	Create(ctx context.Context, s *session.Session) error
	FindByID(ctx context.Context, id string) (*session.Session, error)
	Update(ctx context.Context, id string, fn UpdateFunc) (*session.Session, error)
	Delete(ctx context.Context, id string) error
}

type memorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
}

// NewMemorySessionRepository creates a SessionRepository that keeps sessions in process memory.
func NewMemorySessionRepository() SessionRepository {
	return &memorySessionRepository{sessions: make(map[string]*session.Session)}
}

// Create stores a copy of s.
func (r *memorySessionRepository) Create(ctx context.Context, s *session.Session) error {
	_, span := tracer.Start(ctx, "SessionRepository.Create", trace.WithAttributes(
		attribute.String("game.id", s.ID),
	))
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.ID]; ok {
		return fmt.Errorf("%w: %s", ErrSessionExists, s.ID)
	}
	stored := *s
	r.sessions[s.ID] = &stored
	return nil
}

// FindByID returns a copy of the stored session.
func (r *memorySessionRepository) FindByID(ctx context.Context, id string) (*session.Session, error) {
	_, span := tracer.Start(ctx, "SessionRepository.FindByID", trace.WithAttributes(
		attribute.String("game.id", id),
	))
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	found := *stored
	return &found, nil
}

// Update applies fn to a copy of the session under the repository lock and
// stores the result if fn succeeds.
func (r *memorySessionRepository) Update(ctx context.Context, id string, fn UpdateFunc) (*session.Session, error) {
	_, span := tracer.Start(ctx, "SessionRepository.Update", trace.WithAttributes(
		attribute.String("game.id", id),
	))
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	working := *stored
	if err := fn(&working); err != nil {
		return nil, err
	}

	r.sessions[id] = &working
	updated := working
	return &updated, nil
}

// Delete removes the session.
func (r *memorySessionRepository) Delete(ctx context.Context, id string) error {
	_, span := tracer.Start(ctx, "SessionRepository.Delete", trace.WithAttributes(
		attribute.String("game.id", id),
	))
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(r.sessions, id)
	return nil
}
