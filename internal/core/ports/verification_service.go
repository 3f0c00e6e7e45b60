package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/stakewatch/passport-node/internal/core/domain"
)

// VerificationService drives a verification session from creation through a
// terminal state, enforcing the state machine and the threshold policy.
type VerificationService interface {
	// CreateOrResumeSession returns the existing non-terminal session for the
	// subject, or creates a new one with a fresh nonce.
	CreateOrResumeSession(ctx context.Context, subjectID string) (*domain.VerificationSession, error)
	// SubmitSignature binds wallet and signature to the session, transitions
	// it to PROCESSING and synchronously runs the poll sequence to a terminal
	// state.
	SubmitSignature(ctx context.Context, sessionID uuid.UUID, walletAddress, signature string) (*domain.VerificationSession, error)
	// GetStatus returns the session for a subject without mutating it
	GetStatus(ctx context.Context, subjectID string) (*domain.VerificationSession, error)
	// GetScore returns the provider score for an address bound to a session
	GetScore(ctx context.Context, sessionID uuid.UUID, walletAddress string) (*ScoreResult, error)
}
