package ports

import (
	"context"

	"github.com/stakewatch/passport-node/internal/core/domain"
)

// ChainReader reads validator state from the chain node RPC
type ChainReader interface {
	// FetchSnapshot reads the chain tips and the validator stats in one pass
	FetchSnapshot(ctx context.Context) (*domain.ValidatorSnapshot, error)
	// EncodedENR returns the node's encoded ENR record
	EncodedENR(ctx context.Context) (string, error)
	// ArchiveSiblingPath returns the archive tree sibling path for a block
	ArchiveSiblingPath(ctx context.Context, blockNumber uint64) ([]string, error)
}

// ValidatorRegistry mutates the validator set through the node admin RPC
type ValidatorRegistry interface {
	AddValidator(ctx context.Context, address string) error
	RemoveValidator(ctx context.Context, address string) error
}
