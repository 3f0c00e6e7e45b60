package ports

import "context"

// ScoreStatus is the state of a score computation on the provider side
type ScoreStatus string

// Score statuses as reported by the passport scorer
const (
	ScoreStatusDone       ScoreStatus = "DONE"
	ScoreStatusProcessing ScoreStatus = "PROCESSING"
	ScoreStatusError      ScoreStatus = "ERROR"
)

// ScoreResult is one provider answer for an address. Score is the provider's
// decimal string and is only meaningful when Status is DONE.
type ScoreResult struct {
	Status ScoreStatus
	Score  string
}

// ScoreProvider is the external passport scoring service
type ScoreProvider interface {
	// Submit registers the address for scoring. Scoring is asynchronous on
	// the provider side; the result arrives through GetScore.
	Submit(ctx context.Context, walletAddress, signature, nonce string) error
	// GetScore reads the current score computation state for the address
	GetScore(ctx context.Context, walletAddress string) (*ScoreResult, error)
}
