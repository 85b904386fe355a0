package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/developer-mesh/mcp-github-server/internal/api"
	"github.com/developer-mesh/mcp-github-server/internal/auth"
	"github.com/developer-mesh/mcp-github-server/internal/config"
	"github.com/developer-mesh/mcp-github-server/internal/github"
	"github.com/developer-mesh/mcp-github-server/internal/mcp"
	"github.com/developer-mesh/mcp-github-server/internal/metrics"
	"github.com/developer-mesh/mcp-github-server/internal/middleware"
	"github.com/developer-mesh/mcp-github-server/internal/observability"
	"github.com/developer-mesh/mcp-github-server/internal/tools"
	"github.com/developer-mesh/mcp-github-server/internal/tracing"
)

var (
	version = "1.0.0"
	commit  = "unknown"
)

const (
	serverName        = "mcp-github-server"
	serverDescription = "GitHub repository, issue, pull request and workflow operations over a JSON envelope protocol"
)

type options struct {
	configFile  string
	envFile     string
	logLevel    string
	port        int
	stdio       bool
	showVersion bool
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	fs := flag.NewFlagSet(serverName, flag.ContinueOnError)
	fs.SetOutput(output)

	opts := &options{}
	fs.StringVar(&opts.configFile, "config", "", "Path to an optional YAML configuration file")
	fs.StringVar(&opts.envFile, "env-file", ".env", "Path to a .env file; missing files are ignored")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.IntVar(&opts.port, "port", 0, "Port to listen on (overrides PORT)")
	fs.BoolVar(&opts.stdio, "stdio", false, "Serve newline-delimited envelopes on stdin/stdout")
	fs.BoolVar(&opts.showVersion, "version", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}
	if opts.showVersion {
		fmt.Printf("%s v%s (commit: %s)\n", serverName, version, commit)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, opts)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serverName, err)
		os.Exit(1)
	}
}

// loadConfig applies sources in precedence order: defaults, config file,
// .env, environment, flags.
func loadConfig(opts *options) (*config.Config, error) {
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return nil, err
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, err
	}

	if opts.port != 0 {
		cfg.Server.Port = opts.port
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) observability.Logger {
	logger := observability.NewStandardLogger(serverName)
	if level, ok := observability.ParseLevel(cfg.Log.Level); ok {
		if stdLogger, ok := logger.(*observability.StandardLogger); ok {
			logger = stdLogger.WithLevel(level)
		}
	}
	return logger
}

func run(ctx context.Context, opts *options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	logger.Info("Gateway starting", map[string]interface{}{
		"version":     version,
		"commit":      commit,
		"environment": cfg.Server.Environment,
		"stdio":       opts.stdio,
	})

	tracingConfig := tracing.DefaultConfig()
	tracingConfig.Enabled = cfg.Tracing.Enabled
	tracingConfig.ServiceName = serverName
	tracingConfig.ServiceVersion = version
	tracingConfig.Environment = cfg.Server.Environment
	tracingConfig.OTLPEndpoint = cfg.Tracing.OTLPEndpoint
	tracingConfig.OTLPInsecure = cfg.Tracing.OTLPInsecure
	tracingConfig.ZipkinEndpoint = cfg.Tracing.ZipkinEndpoint
	tracingConfig.SamplingRate = cfg.Tracing.SamplingRate

	tracerProvider, err := tracing.NewTracerProvider(tracingConfig)
	if err != nil {
		logger.Warn("Could not initialize tracing", map[string]interface{}{
			"error": err.Error(),
		})
		tracerProvider = nil
	} else if tracerProvider.IsEnabled() {
		logger.Info("Initialized distributed tracing", map[string]interface{}{
			"sampling_rate": tracingConfig.SamplingRate,
		})
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(flushCtx); err != nil {
			logger.Warn("Tracer shutdown error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	client, err := github.NewRESTClient(github.ClientConfig{
		Token:   cfg.GitHub.Token,
		BaseURL: cfg.GitHub.APIURL,
		Timeout: cfg.GitHub.Timeout,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create GitHub client")
	}

	registry, err := tools.NewGatewayRegistry(client, logger, tools.ServerInfo{
		Name:        serverName,
		Version:     version,
		Description: serverDescription,
		AuthEnabled: cfg.Auth.Enabled(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to build dispatch table")
	}
	logger.Info("Registered methods", map[string]interface{}{
		"count":    registry.Count(),
		"base_url": client.BaseURL(),
	})

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	handler := mcp.NewHandler(registry, logger, mcp.Options{
		Development: cfg.IsDevelopment(),
		RateLimit: middleware.RateLimitConfig{
			RPS:   cfg.RateLimit.RPS,
			Burst: cfg.RateLimit.Burst,
		},
		Metrics: metrics.New(promRegistry, registry.Names()),
		Tracer:  tracerProvider,
	})

	if opts.stdio {
		err := handler.HandleStdio(ctx, os.Stdin, os.Stdout)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.RouterConfig{
		Handler:        handler,
		Health:         api.NewHealthChecker(registry, handler, logger, version),
		Authenticator:  auth.NewCredentialAuthenticator(cfg.Auth.ID, cfg.Auth.Token),
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Gatherer:       promRegistry,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return serve(ctx, srv, handler, logger, cfg.Server.ShutdownTimeout)
}

// serve runs srv until ctx is cancelled, then drains WebSocket connections
// before stopping the listener.
func serve(ctx context.Context, srv *http.Server, handler *mcp.Handler, logger observability.Logger, timeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Listening", map[string]interface{}{
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server failed")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := handler.Shutdown(shutdownCtx); err != nil {
			logger.Error("Handler shutdown error", map[string]interface{}{
				"error": err.Error(),
			})
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "server shutdown failed")
		}
		logger.Info("Shutdown complete", nil)
		return nil
	})

	return g.Wait()
}
