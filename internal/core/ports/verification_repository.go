package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/stakewatch/passport-node/internal/core/domain"
)

// VerificationRepository is the durable store for verification sessions.
// Save is a full-record overwrite, last writer wins; no optimistic
// concurrency control is assumed.
type VerificationRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.VerificationSession, error)
	GetBySubject(ctx context.Context, subjectID string) (*domain.VerificationSession, error)
	Save(ctx context.Context, session *domain.VerificationSession) error
}
