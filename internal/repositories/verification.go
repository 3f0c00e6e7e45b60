package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/stakewatch/passport-node/internal/core/domain"
	"github.com/stakewatch/passport-node/internal/core/ports"
	"github.com/stakewatch/passport-node/internal/db"
)

// ErrSessionNotFound is returned when a verification session is not found
var ErrSessionNotFound = errors.New("verification session not found")

// VerificationRepository stores verification sessions in postgres
type VerificationRepository struct {
	conn *db.Storage
}

// NewVerification creates a new VerificationRepository
func NewVerification(conn *db.Storage) ports.VerificationRepository {
	return &VerificationRepository{conn: conn}
}

// Get returns a verification session by id
func (r *VerificationRepository) Get(ctx context.Context, id uuid.UUID) (*domain.VerificationSession, error) {
	sql := `SELECT id, subject_id, wallet_address, nonce, nonce_consumed, signature, status, score, last_verification_time, role_assigned, created_at
			FROM verification_sessions
			WHERE id = $1`

	return r.scanOne(ctx, sql, id)
}

// GetBySubject returns the latest verification session for a subject
func (r *VerificationRepository) GetBySubject(ctx context.Context, subjectID string) (*domain.VerificationSession, error) {
	sql := `SELECT id, subject_id, wallet_address, nonce, nonce_consumed, signature, status, score, last_verification_time, role_assigned, created_at
			FROM verification_sessions
			WHERE subject_id = $1
			ORDER BY created_at DESC
			LIMIT 1`

	return r.scanOne(ctx, sql, subjectID)
}

// Save stores a verification session, overwriting any previous record with the
// same id. Last writer wins.
func (r *VerificationRepository) Save(ctx context.Context, session *domain.VerificationSession) error {
	sql := `INSERT INTO verification_sessions (id, subject_id, wallet_address, nonce, nonce_consumed, signature, status, score, last_verification_time, role_assigned, created_at)
			VALUES($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11) ON CONFLICT (id) DO
			UPDATE SET wallet_address=NULLIF($3, ''), nonce=$4, nonce_consumed=$5, signature=NULLIF($6, ''), status=$7, score=$8, last_verification_time=$9, role_assigned=$10`

	_, err := r.conn.Pgx.Exec(ctx, sql,
		session.ID,
		session.SubjectID,
		session.WalletAddress,
		session.Nonce,
		session.NonceConsumed,
		session.Signature,
		string(session.Status),
		session.Score,
		session.LastVerificationTime,
		session.RoleAssigned,
		session.CreatedAt,
	)
	return err
}

func (r *VerificationRepository) scanOne(ctx context.Context, sql string, arg any) (*domain.VerificationSession, error) {
	var (
		session       domain.VerificationSession
		walletAddress *string
		signature     *string
		status        string
	)
	err := r.conn.Pgx.QueryRow(ctx, sql, arg).Scan(
		&session.ID,
		&session.SubjectID,
		&walletAddress,
		&session.Nonce,
		&session.NonceConsumed,
		&signature,
		&status,
		&session.Score,
		&session.LastVerificationTime,
		&session.RoleAssigned,
		&session.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "no rows in result set") {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if walletAddress != nil {
		session.WalletAddress = *walletAddress
	}
	if signature != nil {
		session.Signature = *signature
	}
	session.Status = domain.SessionStatus(status)
	return &session, nil
}
