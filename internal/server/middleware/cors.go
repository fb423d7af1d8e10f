package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/leslieo2/go-status-board/internal/config"
	"github.com/leslieo2/go-status-board/internal/constants"
)

// CORSMiddleware lets dashboards on other origins read the status endpoint.
// Response headers are computed once from the config.
type CORSMiddleware struct {
	origins     map[string]struct{}
	anyOrigin   bool
	credentials bool
	static      http.Header
}

func NewCORSMiddleware(cfg config.CORSConfig) *CORSMiddleware {
	c := &CORSMiddleware{
		origins:     make(map[string]struct{}, len(cfg.AllowedOrigins)),
		credentials: cfg.AllowCredentials,
		static:      http.Header{},
	}
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			c.anyOrigin = true
			continue
		}
		c.origins[o] = struct{}{}
	}

	if len(cfg.AllowedMethods) > 0 {
		c.static.Set(constants.HeaderAccessControlAllowMethods, strings.Join(cfg.AllowedMethods, ", "))
	}
	if len(cfg.AllowedHeaders) > 0 {
		c.static.Set(constants.HeaderAccessControlAllowHeaders, strings.Join(cfg.AllowedHeaders, ", "))
	}
	if cfg.AllowCredentials {
		c.static.Set(constants.HeaderAccessControlAllowCredentials, "true")
	}
	if cfg.MaxAge > 0 {
		c.static.Set(constants.HeaderAccessControlMaxAge, strconv.Itoa(cfg.MaxAge))
	}
	return c
}

// allowedOrigin returns the Access-Control-Allow-Origin value for origin.
// Credentialed responses echo the origin since browsers refuse "*" there.
func (c *CORSMiddleware) allowedOrigin(origin string) (string, bool) {
	if _, ok := c.origins[origin]; ok {
		return origin, true
	}
	if !c.anyOrigin {
		return "", false
	}
	if c.credentials {
		return origin, true
	}
	return "*", true
}

func (c *CORSMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get(constants.HeaderOrigin)
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		if value, ok := c.allowedOrigin(origin); ok {
			h := w.Header()
			h.Set(constants.HeaderAccessControlAllowOrigin, value)
			if value != "*" {
				h.Add("Vary", constants.HeaderOrigin)
			}
			for k, v := range c.static {
				h.Set(k, v[0])
			}
		}

		if r.Method == constants.MethodOPTIONS {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
