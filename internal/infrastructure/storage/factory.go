// Package storage selects and wires a persistence backend from
// configuration. All backends satisfy the same store contracts, so the
// rest of the application never knows which one is running.
package storage

import (
	"context"
	"fmt"
	"path/filepath"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pv2447407/bulkqr/internal/core/sequence"
	"github.com/pv2447407/bulkqr/internal/domain/session"
	"github.com/pv2447407/bulkqr/internal/infrastructure/storage/file"
	"github.com/pv2447407/bulkqr/internal/infrastructure/storage/postgres"
	"github.com/pv2447407/bulkqr/internal/infrastructure/storage/redis"
)

// Supported backend selectors.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config names the backend and carries whatever that backend needs.
type Config struct {
	// Backend is one of memory, file, postgres, redis. Empty means memory.
	Backend string

	// Dir is the data directory for the file backend.
	Dir string

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string

	// RedisAddr, RedisPassword and RedisDB configure the redis backend.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Stores bundles the opened backend with its cleanup.
type Stores struct {
	Sequences sequence.Store
	Sessions  session.Log

	ping  func(ctx context.Context) error
	close func()
}

// Ping probes the backend. Backends without a connection report healthy.
func (s *Stores) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases backend resources. Safe on a zero value.
func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// Open builds the stores for the configured backend. Schema setup runs
// here so callers get a ready-to-use backend or an error.
func Open(ctx context.Context, cfg Config) (*Stores, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return &Stores{
			Sequences: sequence.NewMemStore(),
			Sessions:  session.NewMemLog(),
		}, nil

	case BackendFile:
		if cfg.Dir == "" {
			return nil, fmt.Errorf("file backend requires a data directory")
		}
		seqStore, err := file.NewSequenceStore(filepath.Join(cfg.Dir, "sequences.json"))
		if err != nil {
			return nil, fmt.Errorf("open file sequence store: %w", err)
		}
		sessions, err := file.NewSessionLog(filepath.Join(cfg.Dir, "sessions.jsonl"))
		if err != nil {
			return nil, fmt.Errorf("open file session log: %w", err)
		}
		return &Stores{Sequences: seqStore, Sessions: sessions}, nil

	case BackendPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres backend requires a DSN")
		}
		pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.PostgresDSN))
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		seqStore := postgres.NewSequenceStore(pool)
		if err := seqStore.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("prepare sequence schema: %w", err)
		}
		sessions, err := postgres.NewSessionLog(pool)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("open postgres session log: %w", err)
		}
		if err := sessions.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("prepare session schema: %w", err)
		}
		return &Stores{
			Sequences: seqStore,
			Sessions:  sessions,
			ping:      pool.Ping,
			close:     pool.Close,
		}, nil

	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis backend requires an address")
		}
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return &Stores{
			Sequences: redis.NewSequenceStore(client),
			Sessions:  redis.NewSessionLog(client),
			ping:      func(ctx context.Context) error { return client.Ping(ctx).Err() },
			close:     func() { _ = client.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
