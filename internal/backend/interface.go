package backend

import (
	"context"
	"errors"

	redis "github.com/redis/go-redis/v9"

	"payflow/internal/amqp"
	"payflow/internal/cache"
	"payflow/internal/core"
	"payflow/internal/services"
	"payflow/internal/storage"
)

// CacheType names where reports are cached.
type CacheType string

const (
	CacheMemory CacheType = "memory"
	CacheRedis  CacheType = "redis"
)

func (ct CacheType) String() string {
	return string(ct)
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Backend bundles the infrastructure the binaries share.
type Backend struct {
	Repo        *storage.SQLiteRepository
	AMQP        *amqp.Client  // nil when publishing is disabled
	Redis       *redis.Client // nil when reports are cached in process
	ReportCache cache.Store[core.Report]
	CacheType   CacheType
	Caches      *cache.Manager

	cleanups []CleanupFunc
}

// Publisher returns the sync publisher, or nil when AMQP is not configured.
func (b *Backend) Publisher() services.Publisher {
	if b.AMQP == nil {
		return nil
	}
	return b.AMQP
}

// Checks lists the readiness probes of every configured dependency.
func (b *Backend) Checks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{
		"sqlite": b.Repo.Ping,
	}
	if b.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return b.Redis.Ping(ctx).Err() }
	}
	return checks
}

func (b *Backend) addCleanup(fn CleanupFunc) {
	b.cleanups = append(b.cleanups, fn)
}

// Close releases resources in reverse order of acquisition.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.cleanups) - 1; i >= 0; i-- {
		if err := b.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.cleanups = nil
	return errors.Join(errs...)
}
