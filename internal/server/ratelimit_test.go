package server

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiterBlocksUntilSwept(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	assert.False(t, rl.IsBlocked("1.2.3.4"))

	rl.BlockIP("1.2.3.4")
	assert.True(t, rl.IsBlocked("1.2.3.4"))
	assert.False(t, rl.IsBlocked("5.6.7.8"))

	rl.Sweep(time.Now())
	assert.True(t, rl.IsBlocked("1.2.3.4"))

	rl.Sweep(time.Now().Add(2 * time.Minute))
	rl.mu.RLock()
	assert.Empty(t, rl.blockedIPs)
	rl.mu.RUnlock()
}

func TestAPILimiter(t *testing.T) {
	l := NewAPILimiter(0, 3)
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"))
	}
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"), "limits are per client")

	l.Sweep(time.Now().Add(time.Second))
	l.mu.Lock()
	assert.Empty(t, l.clients)
	l.mu.Unlock()
	assert.True(t, l.Allow("10.0.0.1"), "a swept client starts with a full bucket")
}

func TestGetRealIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		want   string
	}{
		{"remote addr", nil, "192.0.2.1"},
		{"cloudflare wins", map[string]string{"CF-Connecting-IP": "203.0.113.5", "X-Real-IP": "198.51.100.1"}, "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.1"}, "198.51.100.1"},
		{"forwarded first hop", map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.1"}, "198.51.100.7"},
		{"garbage ignored", map[string]string{"X-Real-IP": "not-an-ip"}, "192.0.2.1"},
		{"ipv6", map[string]string{"X-Real-IP": "2001:db8::1"}, "2001:db8::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = req
			assert.Equal(t, tt.want, GetRealIP(c))
		})
	}
}
