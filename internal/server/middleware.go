package server

import (
	"net/http"
	"strings"

	"github.com/leslieo2/go-status-board/internal/server/middleware"
)

// applyMiddleware applies the complete middleware chain to the handler
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	// Apply middleware chain in reverse order

	// Rate limiting
	handler = s.rateLimiter.Middleware(handler)

	// Request size limit middleware
	handler = middleware.RequestSizeLimitMiddleware(s.config.Server.MaxRequestSize)(handler)

	// CORS middleware
	if s.config.Security.CORS.Enabled {
		handler = middleware.NewCORSMiddleware(s.config.Security.CORS).Handler(handler)
	}

	// Security headers
	handler = middleware.SecurityHeadersMiddleware(s.config.Security.Headers)(handler)

	// Logging middleware
	handler = middleware.LoggingMiddleware(s.logger.Logger)(handler)

	// Request ID, set before logging reads it
	handler = middleware.RequestIDMiddleware(handler)

	// Request metrics
	handler = middleware.MetricsMiddleware(s.metrics, s.metrics.ActiveConnections, endpointLabel)(handler)

	return handler
}

// endpointLabel is the route pattern a request matched, without its method
func endpointLabel(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	if _, path, ok := strings.Cut(r.Pattern, " "); ok {
		return path
	}
	return r.Pattern
}
