package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frozenLimiter(t *testing.T, cfg *Config) (*Limiter, *time.Time) {
	t.Helper()
	l := NewLimiter(cfg)
	t.Cleanup(l.Stop)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiter_Allow(t *testing.T) {
	l, _ := frozenLimiter(t, &Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})

	for i := 0; i < 10; i++ {
		allowed, info := l.Allow("127.0.0.1", "/v1/runs/x", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
	}

	allowed, info := l.Allow("127.0.0.1", "/v1/runs/x", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Positive(t, info.RetryAfter)
	assert.True(t, info.ResetTime.After(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)))
}

func TestLimiter_Refill(t *testing.T) {
	l, now := frozenLimiter(t, &Config{Enabled: true, DefaultLimit: 60, DefaultWindow: time.Minute})

	for i := 0; i < 60; i++ {
		l.Allow("c", "/x", "GET")
	}
	allowed, _ := l.Allow("c", "/x", "GET")
	require.False(t, allowed)

	*now = now.Add(1100 * time.Millisecond)
	allowed, _ = l.Allow("c", "/x", "GET")
	assert.True(t, allowed)
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	l, _ := frozenLimiter(t, &Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute})

	allowed, _ := l.Allow("a", "/x", "GET")
	assert.True(t, allowed)
	allowed, _ = l.Allow("a", "/x", "GET")
	assert.False(t, allowed)
	allowed, _ = l.Allow("b", "/x", "GET")
	assert.True(t, allowed)
}

func TestLimiter_Lists(t *testing.T) {
	l, _ := frozenLimiter(t, &Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"10.0.0.1": true},
		Blacklist:     map[string]bool{"10.0.0.2": true},
	})

	for i := 0; i < 5; i++ {
		allowed, _ := l.Allow("10.0.0.1", "/x", "GET")
		assert.True(t, allowed)
	}
	allowed, _ := l.Allow("10.0.0.2", "/x", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	l, _ := frozenLimiter(t, &Config{Enabled: false})
	for i := 0; i < 100; i++ {
		allowed, _ := l.Allow("c", "/v1/list/format", "POST")
		assert.True(t, allowed)
	}
	assert.Equal(t, 0, l.Len())
}

func TestLimiter_EndpointBurst(t *testing.T) {
	l, _ := frozenLimiter(t, &Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(),
	})

	allowedCount := 0
	for i := 0; i < 20; i++ {
		if ok, _ := l.Allow("c", "/v1/list/datetime", "POST"); ok {
			allowedCount++
		}
	}
	assert.Equal(t, 10, allowedCount)

	ok, _ := l.Allow("c", "/health", "GET")
	assert.True(t, ok)
}

func TestLimiter_Cleanup(t *testing.T) {
	l, now := frozenLimiter(t, &Config{Enabled: true, DefaultLimit: 5, DefaultWindow: time.Minute, IdleTTL: time.Minute})

	l.Allow("a", "/x", "GET")
	l.Allow("b", "/x", "GET")
	require.Equal(t, 2, l.Len())

	*now = now.Add(30 * time.Second)
	l.Allow("b", "/x", "GET")
	*now = now.Add(45 * time.Second)
	l.cleanup()
	assert.Equal(t, 1, l.Len())
}

func TestLimiter_StopTwice(t *testing.T) {
	l := NewLimiter(nil)
	l.Stop()
	assert.NotPanics(t, l.Stop)
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()

	tests := []struct {
		name      string
		path      string
		method    string
		wantPath  string
		wantNil   bool
		wantLimit int
	}{
		{"health is unlimited", "/health", "GET", "", false, 0},
		{"exact", "/v1/format", "POST", "/v1/format", false, 300},
		{"prefix", "/v1/records/datetime", "POST", "/v1/records/", false, 60},
		{"method mismatch", "/v1/format", "GET", "", true, 0},
		{"no match", "/v1/runs/abc", "GET", "", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantPath, got.Path)
			assert.Equal(t, tt.wantLimit, got.Limit)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "42")
	t.Setenv("RATE_LIMIT_DEFAULT_WINDOW", "30s")
	t.Setenv("RATE_LIMIT_WHITELIST", "1.1.1.1, 2.2.2.2")

	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 42, cfg.DefaultLimit)
	assert.Equal(t, 30*time.Second, cfg.DefaultWindow)
	assert.True(t, cfg.Whitelist["2.2.2.2"])
	assert.NotEmpty(t, cfg.EndpointConfigs)

	t.Setenv("RATE_LIMIT_ENABLED", "false")
	assert.False(t, LoadConfig().Enabled)
}
