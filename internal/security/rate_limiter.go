package security

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/leslieo2/go-status-board/internal/config"
	"github.com/leslieo2/go-status-board/internal/constants"
)

// RateLimiter throttles page and API requests per client IP.
type RateLimiter struct {
	limiters *cache.Cache
	config   *config.RateLimitConfig
	clock    Clock
	done     chan struct{}
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

type RateLimitStatus struct {
	Limit      int           `json:"limit"`
	Remaining  int           `json:"remaining"`
	Reset      time.Time     `json:"reset"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

func NewRateLimiter(cfg *config.RateLimitConfig) *RateLimiter {
	rl := newRateLimiter(cfg, RealClock{})

	// Set a maximum cache size to prevent memory exhaustion from many clients
	maxCacheSize := cfg.MaxCacheSize
	if maxCacheSize <= 0 {
		maxCacheSize = constants.RateLimitMaxCacheSize
	}
	go rl.periodicCleanup(maxCacheSize)

	return rl
}

func newRateLimiter(cfg *config.RateLimitConfig, clock Clock) *RateLimiter {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = constants.RateLimitCleanupInterval
	}
	return &RateLimiter{
		limiters: cache.New(cfg.CleanupInterval, cfg.CleanupInterval*2),
		config:   cfg,
		clock:    clock,
		done:     make(chan struct{}),
	}
}

// Close stops the cache size enforcement loop.
func (rl *RateLimiter) Close() {
	select {
	case <-rl.done:
	default:
		close(rl.done)
	}
}

// periodicCleanup evicts random limiters while the cache holds more than maxSize clients
func (rl *RateLimiter) periodicCleanup(maxSize int) {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.evict(maxSize)
		}
	}
}

func (rl *RateLimiter) evict(maxSize int) {
	currentSize := rl.limiters.ItemCount()
	if currentSize <= maxSize {
		return
	}

	// Remove an extra 10% to avoid frequent cleanup
	toRemove := currentSize - maxSize + maxSize/10

	keys := make([]string, 0, currentSize)
	for key := range rl.limiters.Items() {
		keys = append(keys, key)
	}
	rand.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

	for i := 0; i < toRemove && i < len(keys); i++ {
		rl.limiters.Delete(keys[i])
	}
}

func (rl *RateLimiter) limiter(identifier string, limit *config.RateLimit) *rate.Limiter {
	if item, found := rl.limiters.Get(identifier); found {
		return item.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(rate.Limit(limit.RequestsPerSecond), limit.BurstSize)
	rl.limiters.Set(identifier, limiter, cache.DefaultExpiration)
	return limiter
}

func (rl *RateLimiter) Allow(identifier string, limit *config.RateLimit) bool {
	if !rl.config.Enabled {
		return true
	}
	return rl.limiter(identifier, limit).AllowN(rl.clock.Now(), 1)
}

// Status reports the remaining budget of identifier without consuming a token.
func (rl *RateLimiter) Status(identifier string, limit *config.RateLimit) RateLimitStatus {
	now := rl.clock.Now()
	if !rl.config.Enabled {
		return RateLimitStatus{
			Limit:     limit.BurstSize,
			Remaining: limit.BurstSize,
			Reset:     now,
		}
	}

	tokens := rl.limiter(identifier, limit).TokensAt(now)
	remaining := int(math.Floor(tokens))
	if remaining < 0 {
		remaining = 0
	}

	perToken := time.Duration(float64(time.Second) / float64(limit.RequestsPerSecond))
	missing := float64(limit.BurstSize) - tokens
	status := RateLimitStatus{
		Limit:     limit.BurstSize,
		Remaining: remaining,
		Reset:     now.Add(time.Duration(missing * float64(perToken))),
	}
	if tokens < 1 {
		status.RetryAfter = time.Duration((1 - tokens) * float64(perToken))
	}
	return status
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.config.Enabled || rl.shouldSkipRateLimit(r.URL.Path) || rl.exemptLoopback(r) {
			next.ServeHTTP(w, r)
			return
		}

		identifier := "ip:" + ClientIP(r)
		limit := rl.rateLimit()

		allowed := rl.Allow(identifier, limit)
		status := rl.Status(identifier, limit)
		setRateLimitHeaders(w, status)

		if !allowed {
			retryAfter := int(math.Ceil(status.RetryAfter.Seconds()))
			w.Header().Set(constants.HeaderRetryAfter, strconv.Itoa(retryAfter))
			w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
			w.WriteHeader(http.StatusTooManyRequests)

			response := map[string]interface{}{
				"error":       constants.ErrorCodeRateLimitExceeded,
				"message":     fmt.Sprintf("Rate limit exceeded. Try again in %v", status.RetryAfter.Round(time.Millisecond)),
				"retry_after": retryAfter,
				"code":        http.StatusTooManyRequests,
			}
			_ = json.NewEncoder(w).Encode(response)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func setRateLimitHeaders(w http.ResponseWriter, status RateLimitStatus) {
	w.Header().Set(constants.HeaderXRateLimitLimit, strconv.Itoa(status.Limit))
	w.Header().Set(constants.HeaderXRateLimitRemaining, strconv.Itoa(status.Remaining))
	w.Header().Set(constants.HeaderXRateLimitReset, strconv.FormatInt(status.Reset.Unix(), 10))
}

// ClientIP returns the originating client address, preferring proxy headers.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get(constants.HeaderXForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get(constants.HeaderXRealIP); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// rateLimit returns the per-IP limit, falling back to the global one.
func (rl *RateLimiter) rateLimit() *config.RateLimit {
	if rl.config.ByIP != nil {
		return rl.config.ByIP
	}
	return rl.config.Global
}

// exemptLoopback reports whether r came straight from a loopback address.
// Proxied requests carry forwarding headers and are always limited.
func (rl *RateLimiter) exemptLoopback(r *http.Request) bool {
	if !rl.config.ExemptLoopback {
		return false
	}
	if r.Header.Get(constants.HeaderXForwardedFor) != "" || r.Header.Get(constants.HeaderXRealIP) != "" {
		return false
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (rl *RateLimiter) shouldSkipRateLimit(path string) bool {
	switch path {
	case constants.PathHealth, constants.PathReady, constants.PathMetrics:
		return true
	}
	return false
}
