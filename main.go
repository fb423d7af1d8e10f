package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/leslieo2/go-status-board/internal/apispec"
	"github.com/leslieo2/go-status-board/internal/config"
	"github.com/leslieo2/go-status-board/internal/hotreload"
	"github.com/leslieo2/go-status-board/internal/monitor"
	"github.com/leslieo2/go-status-board/internal/observability"
	"github.com/leslieo2/go-status-board/internal/render"
	"github.com/leslieo2/go-status-board/internal/server"
)

var version = "dev"

func main() {
	fs := pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	configFile := fs.StringP("config", "c", "", "Path to configuration file (YAML or JSON)")
	printRows := fs.Bool("print-rows", false, "Fetch the status endpoint once, print the two table rows and exit")
	showVersion := fs.BoolP("version", "v", false, "Print version and exit")
	cliFlags := config.BindFlags(fs)
	fs.Usage = func() { printUsage(fs) }

	if err := fs.Parse(os.Args[1:]); err != nil {
		// pflag has already reported the error and printed usage
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if *showVersion {
		fmt.Printf("go-status-board %s\n", version)
		return
	}

	// Load configuration with precedence (CLI > Env > File > Defaults)
	cfg, err := config.LoadConfig(*configFile, cliFlags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.Observability.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *printRows {
		if err := runPrintRows(cfg); err != nil {
			logger.Error("Failed to fetch status", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, *configFile, cliFlags, logger); err != nil {
		logger.Fatal("Status board exited", zap.Error(err))
	}
}

func run(cfg *config.Config, configFile string, cliFlags *config.CLIFlags, logger *observability.Logger) error {
	srv, err := server.New(cfg, logger, planSource(cfg, configFile, cliFlags))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var reloader *hotreload.Manager
	if configFile != "" {
		reloader, err = hotreload.NewManager(cfg.HotReload.Debounce, logger.Logger)
		if err != nil {
			return fmt.Errorf("failed to create hot reload manager: %w", err)
		}
		reloader.RegisterReloadable(srv.Scanner())

		if cfg.HotReload.Active(configFile) {
			if err := reloader.AddWatch(configFile); err != nil {
				return fmt.Errorf("failed to watch config file: %w", err)
			}
			if err := reloader.Start(ctx); err != nil {
				return fmt.Errorf("failed to start hot reload: %w", err)
			}
		}
		defer reloader.Stop()

		go reloadOnHangup(ctx, reloader, logger.Logger)
	}

	logger.Info("Starting status board",
		zap.String("address", cfg.GetServerAddress()),
		zap.Int("services", len(cfg.Monitor.Services)),
		zap.Duration("interval", cfg.Monitor.Interval),
		zap.Bool("hot_reload", cfg.HotReload.Active(configFile)),
		zap.Bool("rate_limit", cfg.Security.RateLimit.Enabled),
	)

	return srv.Start(ctx)
}

// planSource re-reads the configuration so that edits to the service list
// and the source pool apply on reload. Without a config file they are fixed.
func planSource(cfg *config.Config, configFile string, cliFlags *config.CLIFlags) monitor.PlanSource {
	if configFile == "" {
		return func() (monitor.Plan, error) {
			return cfg.Monitor.Plan(), nil
		}
	}
	return func() (monitor.Plan, error) {
		fresh, err := config.LoadConfig(configFile, cliFlags)
		if err != nil {
			return monitor.Plan{}, err
		}
		return fresh.Monitor.Plan(), nil
	}
}

func reloadOnHangup(ctx context.Context, reloader *hotreload.Manager, logger *zap.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			logger.Info("SIGHUP received, reloading configuration")
			if err := reloader.Reload(ctx); err != nil {
				logger.Error("Reload failed", zap.Error(err))
			}
		}
	}
}

func runPrintRows(cfg *config.Config) error {
	var spec *apispec.Spec
	if cfg.Page.ValidateResponses {
		var err error
		if spec, err = apispec.Load(); err != nil {
			return fmt.Errorf("failed to load OpenAPI document: %w", err)
		}
	}
	c, err := server.NewStatusClient(cfg, spec, "go-status-board/"+version)
	if err != nil {
		return err
	}

	resp, _, err := c.Fetch(context.Background())
	if err != nil {
		serviceRow, statusRow := render.ErrorRows(err)
		fmt.Println(serviceRow)
		fmt.Println(statusRow)
		return err
	}

	serviceRow, statusRow := render.Rows(resp)
	fmt.Println(serviceRow)
	fmt.Println(statusRow)
	return nil
}

func printUsage(fs *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Flags:\n%s", fs.FlagUsages())
	fmt.Fprintf(os.Stderr, "\nEnvironment variables:\n")
	fmt.Fprintf(os.Stderr, "  GO_STATUS_BOARD_HOST, GO_STATUS_BOARD_PORT, GO_STATUS_BOARD_METRICS_PORT\n")
	fmt.Fprintf(os.Stderr, "  GO_STATUS_BOARD_READ_TIMEOUT, GO_STATUS_BOARD_WRITE_TIMEOUT, GO_STATUS_BOARD_IDLE_TIMEOUT\n")
	fmt.Fprintf(os.Stderr, "  GO_STATUS_BOARD_MAX_REQUEST_SIZE, GO_STATUS_BOARD_SHUTDOWN_TIMEOUT\n")
	fmt.Fprintf(os.Stderr, "  GO_STATUS_BOARD_POLL_INTERVAL, GO_STATUS_BOARD_PROBE_TIMEOUT, GO_STATUS_BOARD_STATUS_URL\n")
	fmt.Fprintf(os.Stderr, "  GO_STATUS_BOARD_LOG_LEVEL, GO_STATUS_BOARD_HOT_RELOAD, GO_STATUS_BOARD_HOT_RELOAD_DEBOUNCE\n")
	fmt.Fprintf(os.Stderr, "  GO_STATUS_BOARD_TLS_ENABLED, GO_STATUS_BOARD_TLS_CERT_FILE, GO_STATUS_BOARD_TLS_KEY_FILE\n")
	fmt.Fprintf(os.Stderr, "\nExample usage:\n")
	fmt.Fprintf(os.Stderr, "  %s --config ./configs/status-board.yaml\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s --config ./configs/status-board.yaml --port 8081 --poll-interval 5s\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s --print-rows --status-url http://monitor.internal:8080\n", os.Args[0])
}
