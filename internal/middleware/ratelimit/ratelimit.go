// Package ratelimit throttles clients per IP with a memory or Redis store.
package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const keyPrefix = "payflow:ratelimit"

// Config holds rate limiter configuration
type Config struct {
	// Rate in limiter notation, e.g. "120-M" for 120 requests per minute.
	Rate string
	// Redis shares counters between instances; nil keeps them in memory.
	Redis *redis.Client
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{Rate: "120-M"}
}

// Limiter wraps a ulule limiter with HTTP middleware.
type Limiter struct {
	limiter *limiter.Limiter
	onLimit http.HandlerFunc
}

// New builds a limiter. onLimit writes the 429 response; nil uses a plain
// text body.
func New(cfg Config, onLimit http.HandlerFunc) (*Limiter, error) {
	if cfg.Rate == "" {
		cfg.Rate = DefaultConfig().Rate
	}
	rate, err := limiter.NewRateFromFormatted(cfg.Rate)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", cfg.Rate, err)
	}

	var store limiter.Store
	if cfg.Redis != nil {
		store, err = limiterredis.NewStoreWithOptions(cfg.Redis, limiter.StoreOptions{Prefix: keyPrefix})
		if err != nil {
			return nil, fmt.Errorf("redis limiter store: %w", err)
		}
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: keyPrefix})
	}

	if onLimit == nil {
		onLimit = func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		}
	}
	return &Limiter{limiter: limiter.New(store, rate), onLimit: onLimit}, nil
}

// Middleware applies the limit keyed on the client IP. It relies on
// RemoteAddr already holding the real client address.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	onReached := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", strconv.FormatInt(int64(l.limiter.Rate.Period.Seconds()), 10))
		l.onLimit(w, r)
	}
	return stdlib.NewMiddleware(l.limiter, stdlib.WithLimitReachedHandler(onReached)).Handler(next)
}
