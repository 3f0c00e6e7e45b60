package health

import (
	"context"

	iRedis "github.com/stakewatch/passport-node/internal/redis"

	"github.com/go-redis/redis/v8"

	"github.com/stakewatch/passport-node/internal/db"
)

const (
	cacheKey = "cache"
	dbKey    = "db"
)

// Ping interface
type Ping interface {
	Ping(ctx context.Context) error
}

type redisPinger struct {
	rdb *redis.Client
}

func (r redisPinger) Ping(ctx context.Context) error {
	return iRedis.Status(ctx, r.rdb)
}

// Status struct
type Status struct {
	pingers map[string]Ping
}

// New returns a Health instance
func New(pingers ...Ping) *Status {
	m := make(map[string]Ping)

	for _, p := range pingers {
		switch t := p.(type) {
		case *db.Storage:
			m[dbKey] = t
		case redisPinger:
			m[cacheKey] = t
		}
	}

	return &Status{m}
}

// RedisPinger wraps a redis client in the Ping interface
func RedisPinger(rdb *redis.Client) Ping {
	return redisPinger{rdb: rdb}
}

// Status returns whether each monitored dependency is reachable
func (h *Status) Status(ctx context.Context) map[string]bool {
	m := make(map[string]bool)

	for key, val := range h.pingers {
		m[key] = true
		if err := val.Ping(ctx); err != nil {
			m[key] = false
		}
	}

	return m
}
