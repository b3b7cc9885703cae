package microsoft

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/tenantctl/internal/logger"
)

// ServiceType identifies a Microsoft API surface for rate limiting and logging.
type ServiceType string

const (
	// ServiceGraph is the Microsoft Graph v1.0 API.
	ServiceGraph ServiceType = "graph"
	// ServiceExchange is the Exchange Online admin API.
	ServiceExchange ServiceType = "exchange"
)

// RateLimitConfig holds rate limiting configuration for a service.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// DefaultRateLimits provides conservative defaults for each Microsoft service.
// Microsoft Graph allows ~10,000 requests per 10 minutes (~16.67/sec).
// Exchange Online admin calls are throttled far more aggressively per tenant.
var DefaultRateLimits = map[ServiceType]RateLimitConfig{
	ServiceGraph:    {RequestsPerSecond: 10.0, BurstSize: 15},
	ServiceExchange: {RequestsPerSecond: 3.0, BurstSize: 5},
}

// defaultBackoff applies when a 429 carries no usable Retry-After.
const defaultBackoff = 60 * time.Second

// RateLimiter provides rate limiting for Microsoft API requests.
// It uses a token bucket algorithm with optional backoff for 429 responses.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	service ServiceType
}

// NewRateLimiter creates a new rate limiter for the specified service.
func NewRateLimiter(service ServiceType) *RateLimiter {
	return NewRateLimiterWithConfig(service, RateLimitConfig{})
}

// NewRateLimiterWithConfig creates a rate limiter with custom configuration.
// Non-positive values fall back to the service defaults.
func NewRateLimiterWithConfig(service ServiceType, cfg RateLimitConfig) *RateLimiter {
	def, ok := DefaultRateLimits[service]
	if !ok {
		def = DefaultRateLimits[ServiceGraph]
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = def.BurstSize
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		service: service,
	}
}

// Wait blocks until a request can be made without exceeding the rate limit.
// It also respects any backoff period set by RecordRateLimitError.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		timer := time.NewTimer(time.Until(retryAt))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.limiter.Wait(ctx)
}

// RecordRateLimitError records a rate limit error and sets a backoff period.
// Non-positive values use the default backoff.
func (r *RateLimiter) RecordRateLimitError(retryAfter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if retryAfter <= 0 {
		retryAfter = defaultBackoff
	}
	r.retryAt = time.Now().Add(retryAfter)
	logger.Warn("%s: throttled, backing off for %s", r.service, retryAfter)
}

// RetryAfter parses a Retry-After header given either as seconds or as an HTTP date.
// It returns zero when the header is absent or unparseable.
func RetryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		return time.Until(at)
	}
	return 0
}
