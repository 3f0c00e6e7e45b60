package domain

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the verification session lifecycle state
type SessionStatus string

// Session statuses. Transitions only move forward:
// NOT_VERIFIED -> PROCESSING -> VERIFIED | FAILED.
const (
	StatusNotVerified SessionStatus = "NOT_VERIFIED"
	StatusProcessing  SessionStatus = "PROCESSING"
	StatusVerified    SessionStatus = "VERIFIED"
	StatusFailed      SessionStatus = "FAILED"
)

var walletAddressRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// VerificationSession holds one subject's verification attempt
type VerificationSession struct {
	ID                   uuid.UUID
	SubjectID            string
	WalletAddress        string
	Nonce                string
	NonceConsumed        bool
	Signature            string
	Status               SessionStatus
	Score                *float64
	LastVerificationTime *time.Time
	RoleAssigned         bool
	CreatedAt            time.Time
}

// Terminal reports whether the session reached a final state
func (s *VerificationSession) Terminal() bool {
	return s.Status == StatusVerified || s.Status == StatusFailed
}

// CanTransition reports whether moving to the given status is a legal forward
// transition for the session state machine.
func (s *VerificationSession) CanTransition(to SessionStatus) bool {
	switch s.Status {
	case StatusNotVerified:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusVerified || to == StatusFailed
	default:
		return false
	}
}

// ValidWalletAddress reports whether addr is a 0x-prefixed 20 byte hex address
func ValidWalletAddress(addr string) bool {
	return walletAddressRegex.MatchString(addr)
}
