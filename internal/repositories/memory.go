package repositories

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/stakewatch/passport-node/internal/core/domain"
	"github.com/stakewatch/passport-node/internal/core/ports"
)

// MemoryVerificationRepository keeps sessions in memory. Used in development
// mode and in tests; not durable.
type MemoryVerificationRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]domain.VerificationSession
}

// NewMemoryVerification creates a new in-memory session store
func NewMemoryVerification() ports.VerificationRepository {
	return &MemoryVerificationRepository{
		sessions: make(map[uuid.UUID]domain.VerificationSession),
	}
}

// Get returns a verification session by id
func (r *MemoryVerificationRepository) Get(_ context.Context, id uuid.UUID) (*domain.VerificationSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

// GetBySubject returns the latest verification session for a subject
func (r *MemoryVerificationRepository) GetBySubject(_ context.Context, subjectID string) (*domain.VerificationSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *domain.VerificationSession
	for id := range r.sessions {
		session := r.sessions[id]
		if session.SubjectID != subjectID {
			continue
		}
		if latest == nil || session.CreatedAt.After(latest.CreatedAt) {
			latest = &session
		}
	}
	if latest == nil {
		return nil, ErrSessionNotFound
	}
	found := *latest
	return &found, nil
}

// Save stores a verification session, overwriting any previous record
func (r *MemoryVerificationRepository) Save(_ context.Context, session *domain.VerificationSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = *session
	return nil
}
