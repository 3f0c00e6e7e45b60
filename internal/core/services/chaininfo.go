package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stakewatch/passport-node/internal/cache"
	"github.com/stakewatch/passport-node/internal/core/domain"
	"github.com/stakewatch/passport-node/internal/core/ports"
	"github.com/stakewatch/passport-node/internal/log"
)

const snapshotCacheKey = "chain:snapshot"

// ChainInfo serves validator snapshot reads. Snapshots are fetched wholesale
// from the chain reader and cached read-only; a stale cache entry is replaced
// atomically by the next refresh.
type ChainInfo struct {
	reader ports.ChainReader
	cache  cache.Cache
	ttl    time.Duration
}

// NewChainInfo creates a new chain info service
func NewChainInfo(reader ports.ChainReader, c cache.Cache, ttl time.Duration) *ChainInfo {
	return &ChainInfo{reader: reader, cache: c, ttl: ttl}
}

// Snapshot returns the cached snapshot, refreshing it when missing or expired.
// A fetch failure propagates as an error; no defaults are substituted.
func (s *ChainInfo) Snapshot(ctx context.Context) (*domain.ValidatorSnapshot, error) {
	var cached domain.ValidatorSnapshot
	if s.cache.Get(ctx, snapshotCacheKey, &cached) {
		return &cached, nil
	}
	return s.Refresh(ctx)
}

// Refresh fetches a fresh snapshot and replaces the cached one
func (s *ChainInfo) Refresh(ctx context.Context) (*domain.ValidatorSnapshot, error) {
	snapshot, err := s.reader.FetchSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("refreshing validator snapshot: %w", err)
	}
	if err := s.cache.Set(ctx, snapshotCacheKey, snapshot, s.ttl); err != nil {
		log.Warn(ctx, "caching validator snapshot", "err", err)
	}
	return snapshot, nil
}

// EncodedENR returns the node's encoded ENR record. Never cached; the record
// changes when the node rotates keys or addresses.
func (s *ChainInfo) EncodedENR(ctx context.Context) (string, error) {
	return s.reader.EncodedENR(ctx)
}

// ArchiveSiblingPath returns the archive tree sibling path for a block
func (s *ChainInfo) ArchiveSiblingPath(ctx context.Context, blockNumber uint64) ([]string, error) {
	return s.reader.ArchiveSiblingPath(ctx, blockNumber)
}

// CheckValidator reports whether the address is in the validator set and its
// attestation stats when available.
func (s *ChainInfo) CheckValidator(ctx context.Context, address string) (*domain.Stats, bool, error) {
	if !domain.ValidWalletAddress(address) {
		return nil, false, ErrInvalidAddress
	}

	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, false, err
	}

	if !snapshot.IsValidator(address) {
		return nil, false, nil
	}
	return snapshot.Stats[strings.ToLower(address)], true, nil
}
