// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis provides the managed client backing the entitlement cache.

Only positive purchase lookups are stored, each with a TTL, so Redis never
holds state that Postgres cannot rebuild. Losing Redis slows reads down; it
never changes an access decision.
*/
package redis

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 2 * time.Second

// Options tunes the client beyond what the URL carries.
type Options struct {
	URL      string
	PoolSize int
	// OperationTimeout bounds every read and write. A slow cache must fail
	// fast so the ledger can answer instead.
	OperationTimeout time.Duration
}

// NewClient parses opts.URL, applies the pool settings and pings the server.
//
// The returned client satisfies [redis.UniversalClient], which is all the
// entitlement cache and the readiness check depend on.
func NewClient(context stdctx.Context, opts Options, logger *slog.Logger) (redis.UniversalClient, error) {
	parsed, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	if opts.PoolSize > 0 {
		parsed.PoolSize = opts.PoolSize
		parsed.MinIdleConns = max(1, opts.PoolSize/5)
	}
	if opts.OperationTimeout > 0 {
		parsed.DialTimeout = opts.OperationTimeout
		parsed.ReadTimeout = opts.OperationTimeout
		parsed.WriteTimeout = opts.OperationTimeout
	}

	client := redis.NewClient(parsed)

	if err := Ping(context, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_client_connected",
		slog.String("addr", parsed.Addr),
		slog.Int("db", parsed.DB),
		slog.Int("pool_size", parsed.PoolSize),
	)

	return client, nil
}

// Ping checks that the server answers within a short deadline.
func Ping(context stdctx.Context, client redis.UniversalClient) error {
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}
	return nil
}
