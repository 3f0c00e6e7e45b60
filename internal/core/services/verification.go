package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"github.com/stakewatch/passport-node/internal/common"
	"github.com/stakewatch/passport-node/internal/config"
	"github.com/stakewatch/passport-node/internal/core/domain"
	"github.com/stakewatch/passport-node/internal/core/event"
	"github.com/stakewatch/passport-node/internal/core/ports"
	"github.com/stakewatch/passport-node/internal/log"
	"github.com/stakewatch/passport-node/internal/session"
	"github.com/stakewatch/passport-node/pkg/pubsub"
	"github.com/stakewatch/passport-node/pkg/rand"
)

// SignMessageTemplate is the EIP-191 message a subject signs to prove wallet
// ownership. The session nonce is embedded so a signature binds to exactly one
// session.
const SignMessageTemplate = "Verify wallet ownership for validator passport. Nonce: %s"

// Verification drives sessions from creation through terminal state
type Verification struct {
	repo      ports.VerificationRepository
	scorer    ports.ScoreProvider
	granter   ports.RoleGranter
	publisher pubsub.Publisher
	locker    *session.Locker
	cfg       config.Verification
	roles     config.Roles
	// caps simultaneous outbound provider calls across all sessions
	sem chan struct{}
}

// NewVerification creates a new verification service
func NewVerification(
	repo ports.VerificationRepository,
	scorer ports.ScoreProvider,
	granter ports.RoleGranter,
	publisher pubsub.Publisher,
	locker *session.Locker,
	cfg config.Verification,
	roles config.Roles,
) *Verification {
	maxPolls := cfg.MaxConcurrentPolls
	if maxPolls <= 0 {
		maxPolls = 8
	}
	return &Verification{
		repo:      repo,
		scorer:    scorer,
		granter:   granter,
		publisher: publisher,
		locker:    locker,
		cfg:       cfg,
		roles:     roles,
		sem:       make(chan struct{}, maxPolls),
	}
}

// CreateOrResumeSession returns the subject's current non-terminal session, or
// creates a new one with a fresh nonce. Terminal sessions are never resumed; a
// retry always gets a new session and nonce.
func (s *Verification) CreateOrResumeSession(ctx context.Context, subjectID string) (*domain.VerificationSession, error) {
	existing, err := s.repo.GetBySubject(ctx, subjectID)
	if err == nil && !existing.Terminal() {
		return existing, nil
	}

	nonce, err := rand.Nonce()
	if err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	newSession := &domain.VerificationSession{
		ID:        uuid.New(),
		SubjectID: subjectID,
		Nonce:     nonce,
		Status:    domain.StatusNotVerified,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Save(ctx, newSession); err != nil {
		return nil, fmt.Errorf("saving new session: %w", err)
	}
	log.Info(ctx, "verification session created", "session", newSession.ID, "subject", subjectID)
	return newSession, nil
}

// GetStatus returns the subject's session without mutating it
func (s *Verification) GetStatus(ctx context.Context, subjectID string) (*domain.VerificationSession, error) {
	return s.repo.GetBySubject(ctx, subjectID)
}

// GetScore returns the provider score for a wallet bound to a session
func (s *Verification) GetScore(ctx context.Context, sessionID uuid.UUID, walletAddress string) (*ports.ScoreResult, error) {
	if !domain.ValidWalletAddress(walletAddress) {
		return nil, ErrInvalidSignatureInput
	}
	if _, err := s.repo.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.getScore(ctx, walletAddress)
}

// SubmitSignature validates the proof of ownership, transitions the session to
// PROCESSING and synchronously runs the poll sequence to a terminal state.
// Returns the finalized session; a FAILED outcome is a result, not an error.
func (s *Verification) SubmitSignature(ctx context.Context, sessionID uuid.UUID, walletAddress, signature string) (*domain.VerificationSession, error) {
	current, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !domain.ValidWalletAddress(walletAddress) {
		return nil, ErrInvalidSignatureInput
	}
	if current.NonceConsumed {
		return nil, ErrNonceReused
	}
	if !current.CanTransition(domain.StatusProcessing) {
		if current.Terminal() {
			return nil, ErrSessionTerminal
		}
		return nil, ErrSessionBusy
	}
	if err := verifySignature(walletAddress, current.Nonce, signature); err != nil {
		return nil, err
	}

	if !s.locker.TryAcquire(current.ID) {
		return nil, ErrSessionBusy
	}
	defer s.locker.Release(current.ID)

	current.WalletAddress = walletAddress
	current.Signature = signature
	current.NonceConsumed = true
	current.Status = domain.StatusProcessing
	if err := s.repo.Save(ctx, current); err != nil {
		return nil, fmt.Errorf("saving processing session: %w", err)
	}
	log.Info(ctx, "signature accepted", "session", current.ID, "wallet", walletAddress)

	if err := s.submitToScorer(ctx, current); err != nil {
		log.Error(ctx, "scorer submission failed", "err", err, "session", current.ID)
		return s.finalize(ctx, current, nil, fmt.Errorf("%w: %v", ErrScoreProvider, err))
	}

	result, pollErr := s.pollScore(ctx, current.WalletAddress, s.cfg.PollMaxAttempts, s.cfg.PollInterval)
	return s.finalize(ctx, current, result, pollErr)
}

// pollScore repeatedly asks the provider for the wallet score until it reports
// a terminal status or the attempt budget is exhausted. Attempts are strictly
// sequential and each one waits the full interval before the next, regardless
// of individual call latency. Transient provider errors are retried within the
// budget, never surfaced as session failures on their own.
func (s *Verification) pollScore(ctx context.Context, walletAddress string, maxAttempts int, interval time.Duration) (*ports.ScoreResult, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := s.getScore(ctx, walletAddress)
		if err != nil {
			log.Warn(ctx, "score poll attempt failed", "err", err, "attempt", attempt, "wallet", walletAddress)
		} else if result.Status == ports.ScoreStatusDone || result.Status == ports.ScoreStatusError {
			return result, nil
		}

		if attempt == maxAttempts {
			break
		}
		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, ErrScoreTimeout
}

// finalize applies the threshold policy and the role-grant side effect, then
// persists the terminal state and publishes the finalized event.
func (s *Verification) finalize(ctx context.Context, current *domain.VerificationSession, result *ports.ScoreResult, pollErr error) (*domain.VerificationSession, error) {
	now := time.Now()
	current.LastVerificationTime = &now

	switch {
	case pollErr != nil:
		log.Warn(ctx, "session failed", "err", pollErr, "session", current.ID)
		current.Status = domain.StatusFailed
	case result.Status == ports.ScoreStatusError:
		log.Warn(ctx, "provider reported error", "session", current.ID)
		current.Status = domain.StatusFailed
	default:
		score, err := strconv.ParseFloat(result.Score, 64)
		if err != nil {
			// a non-numeric score is a provider error, not a crash
			log.Warn(ctx, "provider returned non-numeric score", "score", result.Score, "session", current.ID)
			current.Status = domain.StatusFailed
			break
		}
		current.Score = common.ToPointer(score)
		if score >= s.cfg.MinimumScore {
			current.Status = domain.StatusVerified
			current.RoleAssigned = s.grantRoles(ctx, current.SubjectID, score)
		} else {
			current.Status = domain.StatusFailed
		}
	}

	if err := s.repo.Save(ctx, current); err != nil {
		return nil, fmt.Errorf("saving finalized session: %w", err)
	}
	s.publishFinalized(ctx, current)
	log.Info(ctx, "session finalized", "session", current.ID, "status", current.Status, "roleAssigned", current.RoleAssigned)
	return current, nil
}

// grantRoles invokes the role granter for the base verified role and, when the
// score is high enough, the extra high-score role. The high-score grant is
// attempted independently and its failure only logged. Returns whether the
// base role was assigned; a false return leaves the session VERIFIED but
// unprivileged and is never retried automatically.
func (s *Verification) grantRoles(ctx context.Context, subjectID string, score float64) bool {
	assigned := true
	if err := s.granter.Grant(ctx, subjectID, s.roles.Verified); err != nil {
		log.Error(ctx, "granting verified role", "err", err, "subject", subjectID)
		assigned = false
	}

	if s.roles.HighScore != "" && s.cfg.HighScoreThreshold > 0 && score >= s.cfg.HighScoreThreshold {
		if err := s.granter.Grant(ctx, subjectID, s.roles.HighScore); err != nil {
			log.Error(ctx, "granting high score role", "err", err, "subject", subjectID)
		}
	}
	return assigned
}

func (s *Verification) submitToScorer(ctx context.Context, current *domain.VerificationSession) error {
	s.sem <- struct{}{}
	defer func() { <-s.sem }()
	return s.scorer.Submit(ctx, current.WalletAddress, current.Signature, current.Nonce)
}

func (s *Verification) getScore(ctx context.Context, walletAddress string) (*ports.ScoreResult, error) {
	s.sem <- struct{}{}
	defer func() { <-s.sem }()
	return s.scorer.GetScore(ctx, walletAddress)
}

func (s *Verification) publishFinalized(ctx context.Context, current *domain.VerificationSession) {
	err := s.publisher.Publish(ctx, event.VerificationFinalizedEvent, &event.VerificationFinalized{
		SessionID:    current.ID.String(),
		SubjectID:    current.SubjectID,
		Status:       string(current.Status),
		RoleAssigned: current.RoleAssigned,
	})
	if err != nil {
		log.Error(ctx, "publishing finalized event", "err", err, "session", current.ID)
	}
}

// verifySignature checks that signature is a valid EIP-191 personal signature
// over the nonce message and that it recovers walletAddress.
func verifySignature(walletAddress, nonce, signature string) error {
	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return ErrInvalidSignatureInput
	}
	// wallets produce V as 27/28, go-ethereum expects 0/1
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	hash := accounts.TextHash([]byte(fmt.Sprintf(SignMessageTemplate, nonce)))
	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return ErrInvalidSignatureInput
	}
	if crypto.PubkeyToAddress(*pub) != ethcommon.HexToAddress(walletAddress) {
		return ErrInvalidSignatureInput
	}
	return nil
}
