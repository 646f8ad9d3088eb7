package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ── Login rate limiter ────────────────────────────────────────────────────────

// ipEntry tracks login attempts per IP within a fixed window.
type ipEntry struct {
	count     int
	windowEnd time.Time
}

// LoginLimiter limits login attempts per client IP.
type LoginLimiter struct {
	limit  int
	window time.Duration

	// mu guards entries and every entry in it.
	mu      sync.Mutex
	entries map[string]*ipEntry
}

const purgeInterval = 5 * time.Minute

// NewLoginLimiter allows limit attempts per minute per IP. Expired entries
// are purged in the background until ctx is cancelled.
func NewLoginLimiter(ctx context.Context, limit int) *LoginLimiter {
	l := &LoginLimiter{limit: limit, window: time.Minute, entries: make(map[string]*ipEntry)}
	go l.purgeLoop(ctx)
	return l
}

// Middleware rejects requests over the limit with 429.
func (l *LoginLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.limit <= 0 || l.allow(c.ClientIP(), time.Now()) {
			c.Next()
			return
		}
		log.Warn().
			Str("request_id", c.GetString(RequestIDKey)).
			Str("ip", c.ClientIP()).
			Msg("login rate limit exceeded")
		c.Header("Retry-After", "60")
		c.String(http.StatusTooManyRequests, "Demasiados intentos de login. Intente en 1 minuto.")
		c.Abort()
	}
}

func (l *LoginLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.entries[ip]
	if !exists {
		entry = &ipEntry{}
		l.entries[ip] = entry
	}
	if now.After(entry.windowEnd) {
		// Reset window
		entry.count = 0
		entry.windowEnd = now.Add(l.window)
	}
	entry.count++
	return entry.count <= l.limit
}

func (l *LoginLimiter) purgeLoop(ctx context.Context) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.purge(time.Now())
		}
	}
}

func (l *LoginLimiter) purge(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	purged := 0
	for ip, entry := range l.entries {
		if now.After(entry.windowEnd) {
			delete(l.entries, ip)
			purged++
		}
	}
	if purged > 0 {
		log.Debug().
			Int("login_entries_purged", purged).
			Int("login_entries_remaining", len(l.entries)).
			Msg("rate limiter map purged")
	}
	return purged
}
