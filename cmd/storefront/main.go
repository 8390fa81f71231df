package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"lebem.uz/storefront/internal/api"
	"lebem.uz/storefront/internal/config"
	"lebem.uz/storefront/internal/httpserver"
	"lebem.uz/storefront/internal/i18n"
	"lebem.uz/storefront/internal/loader"
	"lebem.uz/storefront/internal/middleware"
	"lebem.uz/storefront/internal/observability"
	"lebem.uz/storefront/internal/partials"
	"lebem.uz/storefront/internal/render"
	"lebem.uz/storefront/public"
)

func main() {
	var (
		configFile string
		envFile    string
		addr       string
	)
	flag.StringVar(&configFile, "config", os.Getenv("LEBEM_CONFIG_FILE"), "optional YAML configuration file")
	flag.StringVar(&envFile, "env-file", ".env", "optional dotenv file")
	flag.StringVar(&addr, "addr", "", "HTTP listen address (overrides configuration)")
	flag.Parse()

	cfg, err := config.Load(config.WithConfigFile(configFile), config.WithEnvFile(envFile))
	if err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", verr.Fields())
		} else {
			fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		}
		os.Exit(1)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	baseLogger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()
	logger := baseLogger.Named("storefront")

	tp, err := observability.NewTracerProvider(context.Background(), cfg.Tracing.ServiceName, cfg.Tracing.OTLPEndpoint)
	if err != nil {
		logger.Fatal("failed to initialise tracing", zap.Error(err))
	}
	otel.SetTracerProvider(tp)

	srv, err := buildServer(cfg, logger, tp)
	if err != nil {
		logger.Fatal("failed to build server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	logger.Info("storefront listening",
		zap.String("addr", cfg.Server.Addr),
		zap.String("env", cfg.Environment),
		zap.String("api", cfg.API.BaseURL),
		zap.Bool("trace_export", cfg.Tracing.OTLPEndpoint != ""),
	)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		cancel()
		stop()
		os.Exit(1)
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Warn("flushing spans failed", zap.Error(err))
	}
	logger.Info("storefront stopped")
}

// buildServer wires the storefront collaborators from cfg.
func buildServer(cfg config.Config, logger *zap.Logger, tp trace.TracerProvider) (*http.Server, error) {
	client, err := api.NewClient(cfg.API.BaseURL, api.WithTimeout(cfg.API.Timeout), api.WithTracerProvider(tp))
	if err != nil {
		return nil, err
	}
	bundle, err := i18n.Embedded(cfg.I18n.DefaultLang)
	if err != nil {
		return nil, fmt.Errorf("load locales: %w", err)
	}
	embedded, err := partials.NewEmbedSource(bundle)
	if err != nil {
		return nil, fmt.Errorf("load partials: %w", err)
	}
	var source partials.Source = embedded
	if cfg.Partials.TemplateBaseURL != "" {
		source = partials.FallbackSource{
			Primary:   partials.NewHTTPSource(client, cfg.Partials.TemplateBaseURL, cfg.Partials.CacheTTL),
			Secondary: embedded,
		}
	}
	renderer, err := render.New(bundle)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	signingKey := cfg.Session.SigningKey
	if signingKey == "" {
		logger.Warn("LEBEM_SESSION_SIGNING_KEY not set; using an ephemeral key")
		signingKey = middleware.EphemeralSigningKey()
	}
	sessions, err := middleware.NewSessions(signingKey, cfg.IsProduction())
	if err != nil {
		return nil, err
	}
	assets, err := public.AssetsFS()
	if err != nil {
		return nil, fmt.Errorf("load assets: %w", err)
	}

	return httpserver.New(httpserver.Config{
		Address:         cfg.Server.Addr,
		Catalog:         client,
		Searcher:        client,
		Loader:          loader.New(client, source, renderer),
		Bundle:          bundle,
		Sessions:        sessions,
		Logger:          logger,
		TracerProvider:  tp,
		Assets:          assets,
		SearchDelay:     cfg.Search.Delay,
		SearchMinChars:  cfg.Search.MinChars,
		MaxVisitors:     cfg.Session.MaxVisitors,
		VisitorIdleTTL:  cfg.Session.IdleTTL,
		GAMeasurementID: cfg.Analytics.GAMeasurementID,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
	})
}
