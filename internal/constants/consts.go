package constants

import "time"

// Environment variable constants
const (
	EnvHost              = "GO_STATUS_BOARD_HOST"
	EnvPort              = "GO_STATUS_BOARD_PORT"
	EnvMetricsPort       = "GO_STATUS_BOARD_METRICS_PORT"
	EnvReadTimeout       = "GO_STATUS_BOARD_READ_TIMEOUT"
	EnvWriteTimeout      = "GO_STATUS_BOARD_WRITE_TIMEOUT"
	EnvIdleTimeout       = "GO_STATUS_BOARD_IDLE_TIMEOUT"
	EnvMaxRequestSize    = "GO_STATUS_BOARD_MAX_REQUEST_SIZE"
	EnvShutdownTimeout   = "GO_STATUS_BOARD_SHUTDOWN_TIMEOUT"
	EnvPollInterval      = "GO_STATUS_BOARD_POLL_INTERVAL"
	EnvProbeTimeout      = "GO_STATUS_BOARD_PROBE_TIMEOUT"
	EnvStatusURL         = "GO_STATUS_BOARD_STATUS_URL"
	EnvLogLevel          = "GO_STATUS_BOARD_LOG_LEVEL"
	EnvHotReload         = "GO_STATUS_BOARD_HOT_RELOAD"
	EnvHotReloadDebounce = "GO_STATUS_BOARD_HOT_RELOAD_DEBOUNCE"
	EnvTLSEnabled        = "GO_STATUS_BOARD_TLS_ENABLED"
	EnvTLSCertFile       = "GO_STATUS_BOARD_TLS_CERT_FILE"
	EnvTLSKeyFile        = "GO_STATUS_BOARD_TLS_KEY_FILE"
)

// HTTP method constants
const (
	MethodGET     = "GET"
	MethodHEAD    = "HEAD"
	MethodOPTIONS = "OPTIONS"
)

// HTTP header constants
const (
	HeaderContentType   = "Content-Type"
	HeaderAccept        = "Accept"
	HeaderOrigin        = "Origin"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXRequestID    = "X-Request-ID"
)

// Content type constants
const (
	ContentTypeJSON = "application/json"
	ContentTypeHTML = "text/html; charset=utf-8"
	ContentTypeYAML = "application/yaml"
)

// CORS headers
const (
	HeaderAccessControlAllowOrigin      = "Access-Control-Allow-Origin"
	HeaderAccessControlAllowMethods     = "Access-Control-Allow-Methods"
	HeaderAccessControlAllowHeaders     = "Access-Control-Allow-Headers"
	HeaderAccessControlAllowCredentials = "Access-Control-Allow-Credentials"
	HeaderAccessControlMaxAge           = "Access-Control-Max-Age"
)

// Rate limiting headers
const (
	HeaderXRateLimitLimit     = "X-RateLimit-Limit"
	HeaderXRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderXRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter          = "Retry-After"
)

// Rate limiter internal constants
const (
	// RateLimitCleanupInterval is the interval for cleaning up rate limit cache
	RateLimitCleanupInterval = 5 * time.Minute
	// RateLimitMaxCacheSize is the maximum size of the rate limit cache
	RateLimitMaxCacheSize = 10000
)

// Server constants (internal use only - not user configurable)
const (
	// ServerMaxHeaderBytes caps request header size
	ServerMaxHeaderBytes = 1 << 20
	// MetricsReadHeaderTimeout is the read header timeout of the metrics server
	MetricsReadHeaderTimeout = 5 * time.Second
)

// Error code constants
const (
	ErrorCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrorCodeHostNotAllowed    = "HOST_NOT_ALLOWED"
	ErrorCodeRequestTooLarge   = "REQUEST_TOO_LARGE"
	ErrorCodeInternal          = "INTERNAL_ERROR"
)

// Path constants
const (
	PathRoot    = "/"
	PathStatus  = "/api/status"
	PathOpenAPI = "/openapi.yaml"
	PathHealth  = "/health"
	PathReady   = "/ready"
	PathMetrics = "/metrics"
)

// Status page mount points
const (
	MountServiceRow = "service_row"
	MountStatusRow  = "status_row"
)

// Probe constants
const (
	// NotPolledYet is the failure reason of a service that has not been probed
	NotPolledYet = "Not Polled Yet"
	// DefaultDNSPort is used when a DNS probe address carries no port
	DefaultDNSPort = "53"
)

// Probe kinds
const (
	ProbeHTTP = "http"
	ProbeDNS  = "dns"
	ProbeTCP  = "tcp"
)

// Rate limiting strategy constants
const (
	RateLimitStrategyIP = "ip"
)
