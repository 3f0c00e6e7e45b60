package ports

import (
	"context"

	"github.com/stakewatch/passport-node/internal/core/domain"
)

// ChainInfoService serves validator snapshot reads, refreshing through the
// ChainReader when the cached snapshot is stale.
type ChainInfoService interface {
	Snapshot(ctx context.Context) (*domain.ValidatorSnapshot, error)
	Refresh(ctx context.Context) (*domain.ValidatorSnapshot, error)
	CheckValidator(ctx context.Context, address string) (*domain.Stats, bool, error)
	EncodedENR(ctx context.Context) (string, error)
	ArchiveSiblingPath(ctx context.Context, blockNumber uint64) ([]string, error)
}
