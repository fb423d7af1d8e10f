package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/leslieo2/go-status-board/internal/apispec"
	"github.com/leslieo2/go-status-board/internal/client"
	"github.com/leslieo2/go-status-board/internal/config"
	"github.com/leslieo2/go-status-board/internal/constants"
	"github.com/leslieo2/go-status-board/internal/monitor"
	"github.com/leslieo2/go-status-board/internal/observability"
	"github.com/leslieo2/go-status-board/internal/render"
	"github.com/leslieo2/go-status-board/internal/security"
)

type Server struct {
	config        *config.Config
	server        *http.Server
	metricsServer *http.Server

	// Status board
	spec     *apispec.Spec
	store    *monitor.Store
	scanner  *monitor.Scanner
	client   *client.Client
	renderer *render.Renderer
	page     *render.Page

	// Security
	rateLimiter *security.RateLimiter

	// Observability
	logger  *observability.Logger
	metrics *observability.Metrics
	tracer  *observability.Tracer
	health  *observability.Health
}

// NewStatusClient builds the client for the configured status endpoint.
// Bodies are checked against spec when page.validate_responses is set.
func NewStatusClient(cfg *config.Config, spec *apispec.Spec, userAgent string) (*client.Client, error) {
	clientCfg := client.Config{
		BaseURL:    cfg.StatusBaseURL(),
		Timeout:    cfg.Page.Timeout,
		UserAgent:  userAgent,
		RootCAFile: cfg.StatusRootCAFile(),
	}
	if cfg.Page.ValidateResponses {
		if spec == nil {
			return nil, errors.New("response validation requires the OpenAPI document")
		}
		clientCfg.Validator = spec
	}
	c, err := client.New(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize status client: %w", err)
	}
	return c, nil
}

// New wires the monitor, the status client and the renderer. source supplies
// the services to probe; nil means the services of cfg. A nil logger is
// built from cfg.
func New(cfg *config.Config, logger *observability.Logger, source monitor.PlanSource) (*Server, error) {
	var err error
	if logger == nil {
		logger, err = observability.NewLogger(cfg.Observability.Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	spec, err := apispec.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}

	metrics := observability.NewMetrics()
	if err := metrics.Register(); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	tracer, err := observability.NewTracer(cfg.Observability.Tracing)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	if tracer.Enabled() {
		logger.Info("Tracing enabled",
			zap.String("service_name", cfg.Observability.Tracing.ServiceName),
			zap.Float64("sample_ratio", cfg.Observability.Tracing.SampleRatio),
		)
	}

	if source == nil {
		services := cfg.Monitor
		source = func() (monitor.Plan, error) { return services.Plan(), nil }
	}
	store := monitor.NewStore(cfg.Monitor.Names())
	scanner, err := monitor.NewScanner(store, source, cfg.Monitor.Interval, metrics, logger.Component("scanner"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize scanner: %w", err)
	}

	statusClient, err := NewStatusClient(cfg, spec, "go-status-board/"+cfg.Observability.Tracing.Version)
	if err != nil {
		return nil, err
	}

	page, err := render.NewPage(cfg.Page.Title)
	if err != nil {
		return nil, err
	}
	renderer := render.NewRenderer(statusClient, logger.Component("render"))

	health := observability.NewHealth(spec.Version())
	health.AddCheck("scanner", scanner.Running)

	return &Server{
		config:      cfg,
		spec:        spec,
		store:       store,
		scanner:     scanner,
		client:      statusClient,
		renderer:    renderer,
		page:        page,
		rateLimiter: security.NewRateLimiter(&cfg.Security.RateLimit),
		logger:      logger,
		metrics:     metrics,
		tracer:      tracer,
		health:      health,
	}, nil
}

// Handler returns the routed handler with the full middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Status board
	mux.HandleFunc(constants.MethodGET+" "+constants.PathStatus, s.statusHandler)
	mux.HandleFunc(constants.MethodGET+" /{$}", s.pageHandler)
	mux.HandleFunc(constants.MethodGET+" "+constants.PathOpenAPI, s.openAPIHandler)

	// Observability endpoints
	mux.HandleFunc(constants.MethodGET+" "+constants.PathHealth, s.healthHandler)
	mux.HandleFunc(constants.MethodGET+" "+constants.PathReady, s.readinessHandler)
	if s.config.Observability.Metrics.Enabled {
		mux.Handle(constants.MethodGET+" "+s.config.Observability.Metrics.Path, s.metrics.Handler())
	}

	return s.applyMiddleware(mux)
}

// Scanner exposes the scanner so it can be registered for hot reload.
func (s *Server) Scanner() *monitor.Scanner {
	return s.scanner
}

// Start serves the board until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:           s.config.GetServerAddress(),
		Handler:        s.Handler(),
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		IdleTimeout:    s.config.Server.IdleTimeout,
		MaxHeaderBytes: constants.ServerMaxHeaderBytes,
		TLSConfig:      s.config.TLS.ServerTLS(),
	}

	s.logger.Info("Starting server",
		zap.String("address", s.server.Addr),
		zap.Bool("tls", s.config.TLS.Enabled),
		zap.String("status_url", s.client.URL()),
		zap.Int("services", s.store.Len()),
	)

	s.scanner.Start(ctx)
	s.metrics.SetHealthStatus(true)

	// Start metrics server in background
	if s.config.Observability.Metrics.Enabled && s.config.Server.SeparateMetrics() {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(s.config.Observability.Metrics.Path, s.metrics.Handler())
		s.metricsServer = &http.Server{
			Addr:              s.config.GetMetricsAddress(),
			Handler:           metricsMux,
			ReadHeaderTimeout: constants.MetricsReadHeaderTimeout,
		}
		s.logger.Info("Starting metrics server", zap.String("address", s.metricsServer.Addr))
		go func() {
			if err := s.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		var err error
		if s.config.TLS.Enabled {
			err = s.server.ListenAndServeTLS(s.config.TLS.CertFile, s.config.TLS.KeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		s.logger.Error("Server failed", zap.Error(err))
		runErr = fmt.Errorf("server failed: %w", err)
	}

	if err := s.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Shutdown stops the scanner and both HTTP servers within the configured timeout.
func (s *Server) Shutdown() error {
	s.logger.Info("Shutting down server...")
	s.metrics.SetHealthStatus(false)

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	s.scanner.Stop()
	s.rateLimiter.Close()

	var g errgroup.Group

	shutdown := func(name string, srv *http.Server) func() error {
		return func() error {
			s.logger.Info("Shutting down " + name + "...")
			if err := srv.Shutdown(ctx); err != nil {
				s.logger.Error("Failed to shutdown "+name, zap.Error(err))
				return fmt.Errorf("%s shutdown: %w", name, err)
			}
			return nil
		}
	}

	if s.metricsServer != nil {
		g.Go(shutdown("metrics server", s.metricsServer))
	}
	if s.server != nil {
		g.Go(shutdown("main server", s.server))
	}
	g.Go(func() error {
		if err := s.tracer.Shutdown(ctx); err != nil {
			return fmt.Errorf("tracer shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
