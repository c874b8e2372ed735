package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRateLimit_AllowsUpToLimit(t *testing.T) {
	m := NewRateLimitMiddleware(HTTPRateLimitConfig{RequestsPerMinute: 3}, zap.NewNop())

	assert.True(t, m.allow("1.2.3.4"))
	assert.True(t, m.allow("1.2.3.4"))
	assert.True(t, m.allow("1.2.3.4"))
	assert.False(t, m.allow("1.2.3.4"))
}

func TestRateLimit_PerClient(t *testing.T) {
	m := NewRateLimitMiddleware(HTTPRateLimitConfig{RequestsPerMinute: 1}, zap.NewNop())

	assert.True(t, m.allow("1.2.3.4"))
	assert.False(t, m.allow("1.2.3.4"))
	assert.True(t, m.allow("5.6.7.8"))
}

func TestRateLimit_WindowReset(t *testing.T) {
	m := NewRateLimitMiddleware(HTTPRateLimitConfig{RequestsPerMinute: 1}, zap.NewNop())

	assert.True(t, m.allow("1.2.3.4"))
	assert.False(t, m.allow("1.2.3.4"))

	m.clientsMux.Lock()
	m.clients["1.2.3.4"].windowStart = time.Now().Add(-2 * time.Minute)
	m.clientsMux.Unlock()

	assert.True(t, m.allow("1.2.3.4"))
}
