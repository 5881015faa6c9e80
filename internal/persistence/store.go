package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/aquarium-api/internal/config"
	"github.com/spec-kit/aquarium-api/internal/repository"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CredentialStore is the opened credential backend plus its probes.
type CredentialStore struct {
	Repository repository.CredentialRepository
	Backend    string

	postgres *Postgres
	redis    *Redis
}

// OpenCredentialStore connects the backend selected by CREDENTIAL_STORE.
func OpenCredentialStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*CredentialStore, error) {
	store := &CredentialStore{Backend: cfg.Store.Backend}

	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		pg, err := NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.Postgres.RunMigrations {
			if err := RunMigrations(ctx, pg.Pool, logger); err != nil {
				pg.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		store.postgres = pg
		store.Repository = repository.NewPostgresCredentialRepository(pg.Pool)
	case config.StoreBackendRedis:
		rd, err := NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		store.redis = rd
		store.Repository = repository.NewRedisCredentialRepository(rd.Client, cfg.Redis.KeyPrefix)
	case config.StoreBackendMemory:
		logger.Warn("using in-memory credential store; credentials are lost on restart")
		store.Repository = repository.NewMemoryCredentialRepository()
	default:
		return nil, fmt.Errorf("unsupported credential store %q", cfg.Store.Backend)
	}

	logger.Info("credential store ready", zap.String("backend", cfg.Store.Backend))
	return store, nil
}

// Probes returns readiness checks keyed by dependency name.
func (s *CredentialStore) Probes() map[string]Pinger {
	probes := make(map[string]Pinger)
	if s.postgres != nil {
		probes["postgres"] = s.postgres
	}
	if s.redis != nil {
		probes["redis"] = s.redis
	}
	return probes
}

// Close releases backend connections.
func (s *CredentialStore) Close() {
	if s == nil {
		return
	}
	s.postgres.Close()
	s.redis.Close()
}
