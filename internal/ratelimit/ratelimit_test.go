package ratelimit

import (
	"context"
	"log/slog"
	"io"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return client, mr
}

func TestLimiter_Check_AllowsWithinLimit(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	l := New(true, 5, client, discardLogger())
	ctx := context.Background()

	result, err := l.Check(ctx, "client-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Allowed {
		t.Error("expected first request to be allowed")
	}
	if result.Remaining != 4 {
		t.Errorf("expected remaining 4, got %d", result.Remaining)
	}
}

func TestLimiter_Check_BlocksOverLimit(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	l := New(true, 3, client, discardLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := l.Check(ctx, "client-b")
		if err != nil {
			t.Fatalf("unexpected error on request %d: %v", i+1, err)
		}
		if !result.Allowed {
			t.Errorf("request %d should be allowed", i+1)
		}
	}

	result, err := l.Check(ctx, "client-b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Allowed {
		t.Error("4th request should have been blocked")
	}
	if result.RetryAfter <= 0 {
		t.Errorf("expected positive retry_after, got %d", result.RetryAfter)
	}
}

func TestLimiter_Check_DisabledAlwaysAllows(t *testing.T) {
	l := New(false, 1, nil, discardLogger())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		result, err := l.Check(ctx, "client-c")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Allowed {
			t.Errorf("request %d should be allowed when disabled", i+1)
		}
	}
}

func TestLimiter_Check_FailsOpenWhenRedisUnreachable(t *testing.T) {
	client, mr := setupTestRedis(t)
	mr.Close() // simulate L2 becoming unreachable
	defer client.Close()

	l := New(true, 2, client, discardLogger())
	ctx := context.Background()

	result, err := l.Check(ctx, "client-d")
	if err != nil {
		t.Fatalf("expected Check to fail open rather than return an error: %v", err)
	}
	if !result.Allowed {
		t.Error("expected fail-open fallback to allow the request")
	}
}

func TestLimiter_Check_LocalFallbackDistinguishesClients(t *testing.T) {
	l := New(true, 1, nil, discardLogger())
	ctx := context.Background()

	r1, _ := l.Check(ctx, "alpha")
	if !r1.Allowed {
		t.Error("first request for alpha should be allowed")
	}
	r2, _ := l.Check(ctx, "alpha")
	if r2.Allowed {
		t.Error("second request for alpha should be blocked")
	}
	r3, _ := l.Check(ctx, "beta")
	if !r3.Allowed {
		t.Error("first request for a different client should be allowed")
	}
}

func TestClientID(t *testing.T) {
	tests := []struct {
		name          string
		xForwardedFor string
		remoteAddr    string
		want          string
	}{
		{"uses first forwarded address", "1.2.3.4, 5.6.7.8", "9.9.9.9:1234", "1.2.3.4"},
		{"falls back to remote addr", "", "9.9.9.9:1234", "9.9.9.9:1234"},
		{"trims whitespace", " 1.2.3.4 , 5.6.7.8", "9.9.9.9:1234", "1.2.3.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClientID(tt.xForwardedFor, tt.remoteAddr)
			if got != tt.want {
				t.Errorf("ClientID() = %q, want %q", got, tt.want)
			}
		})
	}
}
