package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "https://api.openai.com/v1"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	// Named endpoints work too
	if err := limiter.Wait(ctx, "local-asr"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

// admits reports whether a request to endpoint is let through without a
// noticeable wait
func admits(l *Limiter, endpoint string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	return l.Wait(ctx, endpoint) == nil
}

func TestLimiter_RateLimit(t *testing.T) {
	limiter := NewLimiter(1, 1)
	endpoint := "https://api.openai.com/v1"

	if !admits(limiter, endpoint) {
		t.Errorf("first request should pass")
	}

	// Burst 1 is consumed; same host under a different path shares it
	if admits(limiter, "https://api.openai.com/v1/audio/transcriptions") {
		t.Errorf("expected request to be held back (exhausted tokens)")
	}

	if !admits(limiter, "http://localhost:9000") {
		t.Errorf("expected other endpoint to pass")
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 20; i++ {
		if !admits(limiter, "asr") {
			t.Fatalf("expected unlimited limiter to pass request %d", i)
		}
	}
}

func TestLimiter_SetEndpointRate(t *testing.T) {
	limiter := NewLimiter(10, 10)

	if err := limiter.SetEndpointRate("http://slow.example", 0.1, 1); err != nil {
		t.Fatalf("SetEndpointRate failed: %v", err)
	}

	if !admits(limiter, "http://slow.example/a") {
		t.Errorf("first request should pass")
	}
	if admits(limiter, "http://slow.example/b") {
		t.Errorf("second request should be held back")
	}
	if !admits(limiter, "http://fast.example") {
		t.Errorf("other endpoint should pass")
	}
}

func TestLimiter_SetEndpointRateUnlimited(t *testing.T) {
	limiter := NewLimiter(0.1, 1)

	if err := limiter.SetEndpointRate("local-asr", 0, 1); err != nil {
		t.Fatalf("SetEndpointRate failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		if !admits(limiter, "local-asr") {
			t.Fatalf("expected unthrottled endpoint to pass request %d", i)
		}
	}

	if err := limiter.SetEndpointRate("", 1, 1); err == nil {
		t.Errorf("expected error for empty endpoint")
	}
}

func TestEndpointKey(t *testing.T) {
	tests := []struct {
		endpoint string
		expected string
	}{
		{"http://example.com/foo", "example.com"},
		{"https://api.openai.com:443/v1", "api.openai.com:443"},
		{"openai", "openai"},
	}

	for _, tt := range tests {
		got, err := endpointKey(tt.endpoint)
		if err != nil {
			t.Fatalf("endpointKey(%q) failed: %v", tt.endpoint, err)
		}
		if got != tt.expected {
			t.Errorf("Expected %s, got %s", tt.expected, got)
		}
	}

	if _, err := endpointKey("::invalid"); err == nil {
		t.Errorf("expected error for invalid URL")
	}
	if _, err := endpointKey(""); err == nil {
		t.Errorf("expected error for empty endpoint")
	}
}
