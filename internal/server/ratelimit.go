package server

import (
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter tracks failed authentication attempts and blocks IPs
type RateLimiter struct {
	mu          sync.RWMutex
	blockedIPs  map[string]time.Time
	blockPeriod time.Duration
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(blockPeriod time.Duration) *RateLimiter {
	return &RateLimiter{
		blockedIPs:  make(map[string]time.Time),
		blockPeriod: blockPeriod,
	}
}

// IsBlocked checks if an IP is currently blocked
func (rl *RateLimiter) IsBlocked(ip string) bool {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	blockedUntil, exists := rl.blockedIPs[ip]
	if !exists {
		return false
	}

	return time.Now().Before(blockedUntil)
}

// BlockIP blocks an IP for the configured period
func (rl *RateLimiter) BlockIP(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.blockedIPs[ip] = time.Now().Add(rl.blockPeriod)
}

// Sweep removes expired blocks
func (rl *RateLimiter) Sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, blockedUntil := range rl.blockedIPs {
		if now.After(blockedUntil) {
			delete(rl.blockedIPs, ip)
		}
	}
}

// APILimiter throttles server function calls per client IP.
type APILimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*apiClient
}

type apiClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewAPILimiter allows rps calls per second per IP with the given burst.
func NewAPILimiter(rps float64, burst int) *APILimiter {
	return &APILimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		clients: make(map[string]*apiClient),
	}
}

// Allow reports whether ip may make another call now.
func (l *APILimiter) Allow(ip string) bool {
	l.mu.Lock()
	c, ok := l.clients[ip]
	if !ok {
		c = &apiClient{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = time.Now()
	l.mu.Unlock()
	return c.limiter.Allow()
}

// Sweep forgets clients idle since before cutoff.
func (l *APILimiter) Sweep(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, ip)
		}
	}
}

// GetRealIP extracts the real client IP from a request, handling proxies and Cloudflare
func GetRealIP(c *gin.Context) string {
	// Priority order for IP detection:
	// 1. CF-Connecting-IP (Cloudflare)
	// 2. True-Client-IP (Cloudflare Enterprise)
	// 3. X-Real-IP (nginx)
	// 4. X-Forwarded-For (standard proxy header, first IP)
	// 5. RemoteAddr (direct connection)
	for _, header := range []string{"CF-Connecting-IP", "True-Client-IP", "X-Real-IP"} {
		if ip := parseIP(c.GetHeader(header)); ip != "" {
			return ip
		}
	}

	// X-Forwarded-For can contain multiple IPs: client, proxy1, proxy2, ...
	// The first IP is typically the real client
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := parseIP(first); ip != "" {
			return ip
		}
	}

	// Fallback to direct connection
	return parseIP(c.ClientIP())
}

// parseIP validates and extracts an IP address, stripping port if present
func parseIP(ipStr string) string {
	ipStr = strings.TrimSpace(ipStr)
	if ipStr == "" {
		return ""
	}

	// Try parsing as IP:port first
	if host, _, err := net.SplitHostPort(ipStr); err == nil {
		ipStr = host
	}

	// Validate it's a proper IP
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return ""
	}

	return ip.String()
}

// LogFailedAuth logs a failed authentication attempt
func LogFailedAuth(ip, reason string, blocked bool) {
	status := "failed"
	if blocked {
		status = "blocked"
	}
	slog.Warn("Auth "+status, "ip", ip, "reason", reason)
}
