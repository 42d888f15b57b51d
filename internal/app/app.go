package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"drivertree/internal/analysis"
	"drivertree/internal/config"
	apperrors "drivertree/internal/errors"
	"drivertree/internal/infrastructure"
	"drivertree/internal/llm/gemini"
	customMiddleware "drivertree/internal/middleware"
	"drivertree/internal/services"
	handlers "drivertree/internal/transport/http"
	"drivertree/pkg/contracts"
)

// Application represents the analysis web application
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	Services      *ServiceContainer
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	ErrorHandler  *apperrors.ErrorHandler
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Session  *analysis.Session
	Analysis *services.AnalysisService
	Health   *services.HealthService
}

// NewApplication loads configuration and credentials, connects the hosted
// model and prepares the analysis of the transformed file. A missing or
// placeholder API key fails before any spreadsheet is read.
func NewApplication(ctx context.Context, configPath string) (*Application, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to load configuration", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("build_time", contracts.BuildTime),
		slog.String("git_commit", contracts.GitCommit))

	creds, err := config.LoadCredentials(cfg.Paths.CredentialsFile)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to load credentials", err)
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	client, err := gemini.New(ctx, creds.GeminiAPIKey,
		gemini.WithModel(cfg.Model.Name),
		gemini.WithLogger(logger))
	if err != nil {
		return nil, apperrors.NewExternalError("failed to create model client", err)
	}

	return newApplication(ctx, cfg, logger, providers, client)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

// newApplication wires an application around an already created generator
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, providers *infrastructure.OTelProviders, generator analysis.Generator) (*Application, error) {
	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
		ErrorHandler:  apperrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	if err := app.initializeServices(ctx, generator); err != nil {
		return nil, err
	}

	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to setup router: %w", err)
	}

	app.createServer()

	return app, nil
}

// initializeServices reads the transformed file once and generates the
// summary before the server accepts requests.
func (a *Application) initializeServices(ctx context.Context, generator analysis.Generator) error {
	output := a.Config.Paths.OutputFile

	analysisContext, err := services.LoadAnalysisContext(output, a.Config.Transform.CurrentPeriod)
	if err != nil {
		return err
	}

	session, err := analysis.NewSession(analysisContext, generator, analysis.SessionOptions{
		Persona: a.Config.Model.Persona,
		Timeout: a.Config.Model.Timeout,
		Logger:  a.Logger,
		Metrics: a.Metrics,
	})
	if err != nil {
		return fmt.Errorf("failed to create analysis session: %w", err)
	}

	a.Services = &ServiceContainer{Session: session}
	a.Services.Analysis = services.NewAnalysisService(session, a.Config.Security.MaxQuestionLength, a.Logger)
	a.Services.Health = services.NewHealthService(config.AppVersion, output, a.Config.Model.Name,
		func() bool { return a.Services.Session != nil }, a.Logger)

	a.Logger.InfoContext(ctx, "Analysis context prepared",
		slog.String("file", output),
		slog.String("title", analysisContext.Title()))

	a.Services.Analysis.WarmUp(ctx)
	return nil
}

// setupRouter configures the middleware chain and mounts the handlers
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger)
	if err != nil {
		return err
	}

	r.Use(customMiddleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(otelMiddleware.Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.ErrorHandler))
	r.Use(customMiddleware.DefaultSecureHeaders().Handler)
	r.Use(middleware.Compress(5))

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	var limit func(http.Handler) http.Handler
	if rl := a.Config.Security.RateLimit; rl.Enabled {
		limit = customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger, a.ErrorHandler).Handler
	}

	validation := customMiddleware.NewValidationMiddleware(a.Logger, a.ErrorHandler)

	r.Mount("/api/analysis", handlers.NewAnalysisHandler(a.Services.Analysis, validation, a.Logger, a.ErrorHandler).Routes(limit))
	r.Mount("/api", handlers.NewHealthHandler(a.Services.Health, a.Logger).Routes())

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Mount("/", handlers.NewPageHandler(a.Services.Analysis, a.Config.Security.MaxQuestionLength, a.Logger).Routes(limit))

	a.Router = r
	return nil
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Address(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Run serves until ctx is done or an interrupt arrives, then shuts down
// gracefully.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "Server listening",
			slog.String("address", "http://"+a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.InfoContext(context.WithoutCancel(gctx), "Received shutdown signal")
		return a.Stop(context.WithoutCancel(gctx))
	})

	return g.Wait()
}

// Stop gracefully stops the server and flushes telemetry
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}
