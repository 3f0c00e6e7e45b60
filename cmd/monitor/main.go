package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stakewatch/passport-node/internal/cache"
	"github.com/stakewatch/passport-node/internal/config"
	"github.com/stakewatch/passport-node/internal/core/event"
	"github.com/stakewatch/passport-node/internal/core/services"
	"github.com/stakewatch/passport-node/internal/gateways"
	"github.com/stakewatch/passport-node/internal/log"
	"github.com/stakewatch/passport-node/internal/redis"
	"github.com/stakewatch/passport-node/pkg/pubsub"
)

// monitor polls the chain node on a fixed interval, replaces the cached
// validator snapshot and notifies subscribers of every successful refresh.
func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Error(context.Background(), "cannot load config", "err", err)
		os.Exit(1)
	}
	if err := cfg.Sanitize(); err != nil {
		log.Error(context.Background(), "invalid config", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(log.NewContext(context.Background(), cfg.Log.Level, cfg.Log.Mode, os.Stdout))
	defer cancel()

	rdb, err := redis.Open(ctx, cfg.Cache.RedisURL)
	if err != nil {
		log.Error(ctx, "cannot connect to redis", "err", err)
		os.Exit(1)
	}

	chainGateway, err := gateways.NewChainGateway(ctx, cfg.Chain.RPCURL, cfg.Chain.RPCResponseTimeout)
	if err != nil {
		log.Error(ctx, "cannot connect to chain node", "err", err)
		os.Exit(1)
	}
	defer chainGateway.Close()

	chainInfo := services.NewChainInfo(chainGateway, cache.NewRedisCache(rdb), cfg.SnapshotTTL)
	publisher := pubsub.NewRedis(rdb)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.SnapshotTTL)
	defer ticker.Stop()

	log.Info(ctx, "monitor started", "interval", cfg.SnapshotTTL.String())
	refresh(ctx, chainInfo, publisher)
	for {
		select {
		case <-ticker.C:
			refresh(ctx, chainInfo, publisher)
		case <-quit:
			log.Info(ctx, "shutting down")
			return
		}
	}
}

func refresh(ctx context.Context, chainInfo *services.ChainInfo, publisher pubsub.Publisher) {
	snapshot, err := chainInfo.Refresh(ctx)
	if err != nil {
		log.Error(ctx, "refreshing validator snapshot", "err", err)
		return
	}

	ev := event.SnapshotRefreshed{
		PendingBlockNumber: snapshot.PendingBlockNumber,
		ProvenBlockNumber:  snapshot.ProvenBlockNumber,
		CurrentEpoch:       snapshot.CurrentEpoch,
		Validators:         len(snapshot.ValidatorAddresses),
	}
	if err := publisher.Publish(ctx, event.SnapshotRefreshedEvent, &ev); err != nil {
		log.Error(ctx, "publishing snapshot refresh", "err", err)
		return
	}
	log.Info(ctx, "validator snapshot refreshed",
		"pendingBlock", snapshot.PendingBlockNumber,
		"provenBlock", snapshot.ProvenBlockNumber,
		"validators", len(snapshot.ValidatorAddresses))
}
