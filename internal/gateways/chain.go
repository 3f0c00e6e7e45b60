package gateways

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/stakewatch/passport-node/internal/core/domain"
)

// ChainGateway reads chain state from the node over JSON-RPC 2.0 and drives
// the validator registry admin surface.
type ChainGateway struct {
	client  *rpc.Client
	timeout time.Duration
}

type blockRef struct {
	Number uint64 `json:"number"`
}

type l2Tips struct {
	Pending blockRef `json:"pending"`
	Proven  blockRef `json:"proven"`
}

type validatorStats struct {
	AttestationsSucceeded uint64 `json:"attestationsSucceeded"`
	AttestationsMissed    uint64 `json:"attestationsMissed"`
	BlocksProposed        uint64 `json:"blocksProposed"`
	BlocksMissed          uint64 `json:"blocksMissed"`
}

type validatorsStats struct {
	Validators   []string                  `json:"validators"`
	Committee    []string                  `json:"committee"`
	Proposer     string                    `json:"proposer"`
	CurrentEpoch uint64                    `json:"currentEpoch"`
	CurrentSlot  uint64                    `json:"currentSlot"`
	Stats        map[string]validatorStats `json:"stats"`
}

// NewChainGateway opens a JSON-RPC connection to the chain node
func NewChainGateway(ctx context.Context, rpcURL string, timeout time.Duration) (*ChainGateway, error) {
	client, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain node %s: %w", rpcURL, err)
	}
	return &ChainGateway{client: client, timeout: timeout}, nil
}

// Close releases the underlying RPC connection
func (g *ChainGateway) Close() {
	g.client.Close()
}

// FetchSnapshot builds a ValidatorSnapshot from a small fixed set of RPC
// round-trips. Any RPC-level failure is returned as an error; the snapshot is
// never partially populated.
func (g *ChainGateway) FetchSnapshot(ctx context.Context) (*domain.ValidatorSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var tips l2Tips
	if err := g.client.CallContext(ctx, &tips, "node_getL2Tips"); err != nil {
		return nil, fmt.Errorf("fetching l2 tips: %w", err)
	}

	var stats validatorsStats
	if err := g.client.CallContext(ctx, &stats, "node_getValidatorsStats"); err != nil {
		return nil, fmt.Errorf("fetching validator stats: %w", err)
	}

	snapshot := &domain.ValidatorSnapshot{
		PendingBlockNumber: tips.Pending.Number,
		ProvenBlockNumber:  tips.Proven.Number,
		CurrentEpoch:       stats.CurrentEpoch,
		CurrentSlot:        stats.CurrentSlot,
		ProposerAddress:    stats.Proposer,
		ValidatorAddresses: stats.Validators,
		CommitteeAddresses: stats.Committee,
		Stats:              make(map[string]*domain.Stats, len(stats.Stats)),
	}
	for addr, vs := range stats.Stats {
		snapshot.Stats[normalizeAddress(addr)] = &domain.Stats{
			AttestationsSucceeded: vs.AttestationsSucceeded,
			AttestationsMissed:    vs.AttestationsMissed,
			BlocksProposed:        vs.BlocksProposed,
			BlocksMissed:          vs.BlocksMissed,
			MissRate:              missRate(vs.AttestationsSucceeded, vs.AttestationsMissed),
		}
	}
	return snapshot, nil
}

// EncodedENR returns the node's encoded ENR record
func (g *ChainGateway) EncodedENR(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var enr string
	if err := g.client.CallContext(ctx, &enr, "node_getEncodedEnr"); err != nil {
		return "", fmt.Errorf("fetching encoded enr: %w", err)
	}
	return enr, nil
}

// ArchiveSiblingPath returns the archive tree sibling path for a block
func (g *ChainGateway) ArchiveSiblingPath(ctx context.Context, blockNumber uint64) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var path []string
	if err := g.client.CallContext(ctx, &path, "node_getArchiveSiblingPath", blockNumber); err != nil {
		return nil, fmt.Errorf("fetching archive sibling path for block %d: %w", blockNumber, err)
	}
	return path, nil
}

// AddValidator registers an address in the validator set
func (g *ChainGateway) AddValidator(ctx context.Context, address string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.client.CallContext(ctx, nil, "nodeAdmin_addValidator", address); err != nil {
		return fmt.Errorf("adding validator %s: %w", address, err)
	}
	return nil
}

// RemoveValidator removes an address from the validator set. The node accepts
// removals of unknown addresses, so this call is issued unconditionally.
func (g *ChainGateway) RemoveValidator(ctx context.Context, address string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.client.CallContext(ctx, nil, "nodeAdmin_removeValidator", address); err != nil {
		return fmt.Errorf("removing validator %s: %w", address, err)
	}
	return nil
}

// Stats keys are lowercased so lookups are case-insensitive
func normalizeAddress(addr string) string {
	return strings.ToLower(addr)
}

func missRate(succeeded, missed uint64) float64 {
	total := succeeded + missed
	if total == 0 {
		return 0
	}
	return float64(missed) / float64(total)
}
