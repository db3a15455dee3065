package worker

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter implements per-endpoint rate limiting. Endpoints are keyed by URL
// host, or by the raw string for names that are not URLs.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a new rate limiter. A non-positive rate disables
// throttling.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  toLimit(requestsPerSecond),
		defaultBurst: burst,
	}
}

// Wait waits for rate limit clearance for the given endpoint
func (l *Limiter) Wait(ctx context.Context, endpoint string) error {
	key, err := endpointKey(endpoint)
	if err != nil {
		return err
	}

	return l.getLimiter(key).Wait(ctx)
}

// getLimiter returns the rate limiter for an endpoint key
func (l *Limiter) getLimiter(key string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[key]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[key] = limiter

	return limiter
}

// SetEndpointRate overrides the default rate for one endpoint. A
// non-positive rate disables throttling for it.
func (l *Limiter) SetEndpointRate(endpoint string, requestsPerSecond float64, burst int) error {
	key, err := endpointKey(endpoint)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.limiters[key] = rate.NewLimiter(toLimit(requestsPerSecond), burst)
	return nil
}

func endpointKey(endpoint string) (string, error) {
	if endpoint == "" {
		return "", fmt.Errorf("empty endpoint")
	}

	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	if parsed.Host != "" {
		return parsed.Host, nil
	}
	return endpoint, nil
}

func toLimit(requestsPerSecond float64) rate.Limit {
	if requestsPerSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(requestsPerSecond)
}
