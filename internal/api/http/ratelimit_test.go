package http

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/greenmark/notes-service/internal/config"
)

func TestLoginRateLimiterBurst(t *testing.T) {
	rl := NewLoginRateLimiter(config.RateLimitConfig{LoginPerMinute: 1, LoginBurst: 2})
	t.Cleanup(rl.Stop)

	assert.True(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))

	// other clients keep their own budget
	assert.True(t, rl.allow("10.0.0.2"))
}

func TestLoginRateLimiterStopIdempotent(t *testing.T) {
	rl := NewLoginRateLimiter(config.RateLimitConfig{})
	rl.Stop()
	rl.Stop()
}
