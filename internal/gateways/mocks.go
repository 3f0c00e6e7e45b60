package gateways

import (
	"context"
	"sync"

	"github.com/stakewatch/passport-node/internal/core/domain"
	"github.com/stakewatch/passport-node/internal/core/ports"
)

// Development-mode collaborators. They stand in for the live scorer, role
// granter and chain node so the service can run without network access.

// DevScorer always reports a finished score
type DevScorer struct {
	Result ports.ScoreResult
}

// NewDevScorer returns a scorer that reports the given score as DONE
func NewDevScorer(score string) *DevScorer {
	return &DevScorer{Result: ports.ScoreResult{Status: ports.ScoreStatusDone, Score: score}}
}

// Submit accepts everything
func (s *DevScorer) Submit(_ context.Context, _, _, _ string) error {
	return nil
}

// GetScore returns the configured result
func (s *DevScorer) GetScore(_ context.Context, _ string) (*ports.ScoreResult, error) {
	result := s.Result
	return &result, nil
}

// DevRoleGranter records grants instead of calling the bot service
type DevRoleGranter struct {
	mu     sync.Mutex
	grants map[string][]string
}

// NewDevRoleGranter returns a role granter that always succeeds
func NewDevRoleGranter() *DevRoleGranter {
	return &DevRoleGranter{grants: make(map[string][]string)}
}

// Grant records the grant
func (g *DevRoleGranter) Grant(_ context.Context, subjectID, role string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.grants[subjectID] = append(g.grants[subjectID], role)
	return nil
}

// Granted returns the roles recorded for a subject
func (g *DevRoleGranter) Granted(subjectID string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.grants[subjectID]
}

// DevChainReader serves a fixed snapshot
type DevChainReader struct {
	Snapshot domain.ValidatorSnapshot
}

// NewDevChainReader returns a chain reader with a small static validator set
func NewDevChainReader() *DevChainReader {
	return &DevChainReader{
		Snapshot: domain.ValidatorSnapshot{
			PendingBlockNumber: 128,
			ProvenBlockNumber:  120,
			CurrentEpoch:       4,
			CurrentSlot:        130,
			ProposerAddress:    "0x1111111111111111111111111111111111111111",
			ValidatorAddresses: []string{
				"0x1111111111111111111111111111111111111111",
				"0x2222222222222222222222222222222222222222",
			},
			CommitteeAddresses: []string{
				"0x1111111111111111111111111111111111111111",
			},
			Stats: map[string]*domain.Stats{
				"0x1111111111111111111111111111111111111111": {
					AttestationsSucceeded: 95,
					AttestationsMissed:    5,
					BlocksProposed:        3,
					MissRate:              0.05,
				},
			},
		},
	}
}

// FetchSnapshot returns a copy of the fixed snapshot
func (r *DevChainReader) FetchSnapshot(_ context.Context) (*domain.ValidatorSnapshot, error) {
	snapshot := r.Snapshot
	return &snapshot, nil
}

// EncodedENR returns a placeholder record
func (r *DevChainReader) EncodedENR(_ context.Context) (string, error) {
	return "enr:-dev", nil
}

// ArchiveSiblingPath returns an empty path
func (r *DevChainReader) ArchiveSiblingPath(_ context.Context, _ uint64) ([]string, error) {
	return []string{}, nil
}

// AddValidator accepts everything
func (r *DevChainReader) AddValidator(_ context.Context, _ string) error {
	return nil
}

// RemoveValidator accepts everything
func (r *DevChainReader) RemoveValidator(_ context.Context, _ string) error {
	return nil
}
