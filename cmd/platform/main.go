package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/stakewatch/passport-node/internal/api"
	"github.com/stakewatch/passport-node/internal/buildinfo"
	"github.com/stakewatch/passport-node/internal/cache"
	"github.com/stakewatch/passport-node/internal/commands"
	"github.com/stakewatch/passport-node/internal/config"
	"github.com/stakewatch/passport-node/internal/core/ports"
	"github.com/stakewatch/passport-node/internal/core/services"
	"github.com/stakewatch/passport-node/internal/db"
	"github.com/stakewatch/passport-node/internal/gateways"
	"github.com/stakewatch/passport-node/internal/health"
	"github.com/stakewatch/passport-node/internal/log"
	"github.com/stakewatch/passport-node/internal/redis"
	"github.com/stakewatch/passport-node/internal/repositories"
	"github.com/stakewatch/passport-node/internal/session"
	"github.com/stakewatch/passport-node/pkg/pubsub"
)

const sessionLockTTL = 5 * time.Minute

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

	var (
		repo      ports.VerificationRepository
		scorer    ports.ScoreProvider
		granter   ports.RoleGranter
		reader    ports.ChainReader
		registry  ports.ValidatorRegistry
		publisher pubsub.Publisher
		cch       cache.Cache
		pingers   []health.Ping
	)

	if cfg.Mode == config.ModeDevelopment {
		log.Info(ctx, "development mode, external collaborators are mocked")
		repo = repositories.NewMemoryVerification()
		scorer = gateways.NewDevScorer("10")
		granter = gateways.NewDevRoleGranter()
		devChain := gateways.NewDevChainReader()
		reader, registry = devChain, devChain
		publisher = pubsub.NewMock()
		cch = cache.NewMemoryCache()
	} else {
		storage, err := db.NewStorage(cfg.Database.URL)
		if err != nil {
			log.Error(ctx, "cannot connect to database", "err", err)
			os.Exit(1)
		}
		defer func() { _ = storage.Close() }()

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

		repo = repositories.NewVerification(storage)
		scorer = gateways.NewScorerGateway(cfg.Scorer)
		granter = gateways.NewRoleGranterGateway(cfg.Granter)
		reader, registry = chainGateway, chainGateway
		publisher = pubsub.NewRedis(rdb)
		cch = cache.NewRedisCache(rdb)
		pingers = append(pingers, storage, health.RedisPinger(rdb))
	}

	locker := session.NewLocker(sessionLockTTL)
	locker.CleaningBackground(time.Minute)

	verificationService := services.NewVerification(repo, scorer, granter, publisher, locker, cfg.Verification, cfg.Roles)
	chainInfoService := services.NewChainInfo(reader, cch, cfg.SnapshotTTL)
	commandHandler := commands.NewHandler(verificationService, chainInfoService, registry, cfg.ServerURL)

	mux := chi.NewRouter()
	api.NewServer(verificationService, chainInfoService, commandHandler, health.New(pingers...)).Routes(ctx, mux)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info(ctx, fmt.Sprintf("server started on port:%d", cfg.ServerPort), "revision", buildinfo.Revision())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "starting http server", "err", err)
		}
	}()

	<-quit
	log.Info(ctx, "shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "shutting down http server", "err", err)
	}
}
