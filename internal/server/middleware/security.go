package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/leslieo2/go-status-board/internal/config"
	"github.com/leslieo2/go-status-board/internal/constants"
)

// SecurityHeadersMiddleware creates a security headers middleware
func SecurityHeadersMiddleware(cfg config.SecurityHeaders) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer")
			if r.TLS != nil && cfg.HSTSMaxAge > 0 {
				w.Header().Set("Strict-Transport-Security", fmt.Sprintf("max-age=%d; includeSubDomains", cfg.HSTSMaxAge))
			}
			if cfg.ContentSecurityPolicy != "" {
				w.Header().Set("Content-Security-Policy", cfg.ContentSecurityPolicy)
			}

			if len(cfg.AllowedHosts) > 0 && !hostAllowed(r.Host, cfg.AllowedHosts) {
				WriteError(w, http.StatusForbidden, constants.ErrorCodeHostNotAllowed, "Host not allowed: "+r.Host)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// hostAllowed matches the request host with or without its port
func hostAllowed(host string, allowed []string) bool {
	bare := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		bare = h
	}
	for _, a := range allowed {
		if strings.EqualFold(a, host) || strings.EqualFold(a, bare) {
			return true
		}
	}
	return false
}
