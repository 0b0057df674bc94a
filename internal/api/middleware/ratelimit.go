package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/studentaffairs/portal/internal/api/problem"
	"github.com/studentaffairs/portal/internal/config"
	"golang.org/x/time/rate"
)

type RateLimitTier string

const (
	TierPublic   RateLimitTier = "public"
	TierAdmin    RateLimitTier = "admin"
	TierReminder RateLimitTier = "reminder"
)

const (
	limiterIdleTTL         = 15 * time.Minute
	limiterCleanupInterval = 5 * time.Minute
)

// RateLimiter hands out per-client token buckets for each tier. A tier with
// a non-positive limit is unlimited.
type RateLimiter struct {
	mu          sync.Mutex
	limiters    map[string]*limiterEntry
	perMinute   map[RateLimitTier]int
	trusted     []*net.IPNet
	env         string
	stopCleanup chan struct{}
	stopOnce    sync.Once
	now         func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig, env string) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		perMinute: map[RateLimitTier]int{
			TierPublic:   cfg.PublicPerMinute,
			TierAdmin:    cfg.AdminPerMinute,
			TierReminder: cfg.ReminderPerMinute,
		},
		trusted:     parseCIDRs(cfg.TrustedProxyCIDRs),
		env:         env,
		stopCleanup: make(chan struct{}),
		now:         time.Now,
	}
	go rl.cleanupLoop()
	return rl
}

// Limit returns middleware enforcing tier for each client address.
func (rl *RateLimiter) Limit(tier RateLimitTier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter := rl.limiter(tier, rl.clientKey(r))
			if limiter == nil || limiter.Allow() {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfterSeconds(tier)))
			problem.Write(w, r, http.StatusTooManyRequests, problem.TypeRateLimited, "Too many requests", nil, rl.env)
		})
	}
}

// Stop ends the background cleanup. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

func (rl *RateLimiter) retryAfterSeconds(tier RateLimitTier) int {
	limit := rl.perMinute[tier]
	if limit <= 0 {
		return 1
	}
	seconds := 60 / limit
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

func (rl *RateLimiter) limiter(tier RateLimitTier, key string) *rate.Limiter {
	limit := rl.perMinute[tier]
	if limit <= 0 {
		return nil
	}

	lookup := string(tier) + ":" + key

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if entry, ok := rl.limiters[lookup]; ok {
		entry.lastSeen = now
		return entry.limiter
	}

	interval := time.Minute / time.Duration(limit)
	entry := &limiterEntry{
		limiter:  rate.NewLimiter(rate.Every(interval), limit),
		lastSeen: now,
	}
	rl.limiters[lookup] = entry
	return entry.limiter
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(rl.limiters, key)
		}
	}
}

// clientKey is the peer address, or the first X-Forwarded-For hop when the
// peer is a trusted proxy.
func (rl *RateLimiter) clientKey(r *http.Request) string {
	remoteIP := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		remoteIP = host
	}

	if rl.isTrustedProxy(remoteIP) {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
		if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
			return realIP
		}
	}
	return remoteIP
}

func (rl *RateLimiter) isTrustedProxy(ip string) bool {
	if len(rl.trusted) == 0 {
		return false
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, cidr := range rl.trusted {
		if cidr.Contains(parsed) {
			return true
		}
	}
	return false
}

func parseCIDRs(values []string) []*net.IPNet {
	var out []*net.IPNet
	for _, value := range values {
		_, cidr, err := net.ParseCIDR(strings.TrimSpace(value))
		if err != nil {
			continue
		}
		out = append(out, cidr)
	}
	return out
}
