package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/kr1s57/linkshield/internal/adapter/controller/http/handlers"
	"github.com/kr1s57/linkshield/internal/adapter/controller/http/middleware"
	"github.com/kr1s57/linkshield/internal/adapter/controller/ws"
	"github.com/kr1s57/linkshield/internal/adapter/external/intel"
	"github.com/kr1s57/linkshield/internal/adapter/repository/clickhouse"
	"github.com/kr1s57/linkshield/internal/config"
	"github.com/kr1s57/linkshield/internal/usecase/assess"
	"github.com/kr1s57/linkshield/internal/usecase/auth"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := config.SetupLogger(cfg)
	logger.Info("Starting LinkShield API",
		"env", cfg.App.Env,
		"port", cfg.App.Port,
	)

	// Scoring policy, defaults unless a policy file is given
	policy := assess.DefaultPolicy()
	if cfg.App.PolicyFile != "" {
		policy, err = assess.LoadPolicy(cfg.App.PolicyFile)
		if err != nil {
			logger.Error("Failed to load scoring policy", "file", cfg.App.PolicyFile, "error", err)
			os.Exit(1)
		}
		logger.Info("Loaded scoring policy", "file", cfg.App.PolicyFile)
	}

	adapters, secondary := buildAdapters(cfg)
	for _, a := range adapters {
		logger.Info("Provider registered",
			"provider", a.ID(),
			"configured", a.Configured(),
		)
	}

	service := assess.NewService(adapters, secondary, policy, assess.Config{
		PerCallTimeout: cfg.Assess.PerCallTimeout,
		BatchDeadline:  cfg.Assess.BatchDeadline,
		MaxInFlight:    int64(cfg.Assess.MaxInFlight),
	}, logger)

	// WebSocket hub for live assessment events
	hub := ws.NewHub(logger)
	go hub.Run()
	service.SetBroadcaster(hub)

	// Optional ClickHouse persistence
	pingers := map[string]handlers.Pinger{}
	var historyHandler *handlers.HistoryHandler
	if cfg.ClickHouse.Enabled {
		conn, err := clickhouse.NewConnection(&cfg.ClickHouse, logger)
		if err != nil {
			logger.Error("Failed to connect to ClickHouse", "error", err)
			os.Exit(1)
		}
		defer conn.Close()

		repo := clickhouse.NewAssessmentsRepository(conn)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := repo.EnsureSchema(ctx); err != nil {
			cancel()
			logger.Error("Failed to prepare ClickHouse schema", "error", err)
			os.Exit(1)
		}
		cancel()

		service.SetRecorder(repo)
		historyHandler = handlers.NewHistoryHandler(repo)
		pingers["clickhouse"] = conn
		logger.Info("ClickHouse persistence enabled", "host", cfg.ClickHouse.Host)
	}

	authService := auth.NewService(cfg.JWT)
	if !authService.Enabled() {
		logger.Warn("Token auth not configured, API routes are open")
	}

	assessHandler := handlers.NewAssessHandler(service)
	providersHandler := handlers.NewProvidersHandler(service)
	authHandler := handlers.NewAuthHandler(authService)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.SecurityHeaders)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Rate limiting
	r.Use(httprate.LimitByIP(100, time.Minute))

	// Health check (no auth required)
	r.Get("/health", handlers.HealthCheck(cfg, pingers))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(authService))

			r.Route("/assess", func(r chi.Router) {
				r.Post("/url", assessHandler.AssessURL)
				r.Post("/url/report", assessHandler.AssessURLReport)
				r.Get("/ip/{ip}", assessHandler.AssessIP)
			})

			r.Get("/providers/status", providersHandler.Status)

			if historyHandler != nil {
				r.Route("/assessments", func(r chi.Router) {
					r.Get("/recent", historyHandler.Recent)
					r.Get("/top", historyHandler.Top)
					r.Get("/level/{level}", historyHandler.ByLevel)
				})
			}
		})
	})

	// WebSocket endpoint
	r.Get("/ws", hub.ServeWS)

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}

// buildAdapters constructs the provider set from configuration. The second
// return value is the breach lookup used as a domain-only secondary source.
func buildAdapters(cfg *config.Config) ([]assess.Adapter, assess.Adapter) {
	p := cfg.Providers
	timeout := cfg.Assess.PerCallTimeout

	adapters := []assess.Adapter{
		intel.NewSafeBrowsing(intel.SafeBrowsingConfig{
			APIKey: p.SafeBrowsing.APIKey, BaseURL: p.SafeBrowsing.BaseURL, Timeout: timeout,
		}),
		intel.NewPhishTank(intel.PhishTankConfig{
			APIKey: p.PhishTank.APIKey, BaseURL: p.PhishTank.BaseURL, Timeout: timeout,
		}),
		intel.NewURLhaus(intel.URLhausConfig{
			APIKey: p.URLhaus.APIKey, BaseURL: p.URLhaus.BaseURL, Timeout: timeout,
		}),
		intel.NewWebRep(intel.WebRepConfig{
			APIKey: p.WebRep.APIKey, BaseURL: p.WebRep.BaseURL, Timeout: timeout,
		}),
		intel.NewURLScore(intel.URLScoreConfig{
			APIKey: p.URLScore.APIKey, BaseURL: p.URLScore.BaseURL, Timeout: timeout,
		}),
		intel.NewOTX(intel.OTXConfig{
			APIKey: p.OTX.APIKey, BaseURL: p.OTX.BaseURL, Timeout: timeout,
		}),
		intel.NewIPReputation(intel.IPReputationConfig{
			APIKey: p.IPRep.APIKey, BaseURL: p.IPRep.BaseURL, Timeout: timeout,
		}),
		intel.NewRegional(intel.RegionalConfig{
			Mirrors: p.RegionalMirrors, Timeout: timeout,
		}),
	}

	secondary := intel.NewBreachWatch(intel.BreachWatchConfig{
		APIKey: p.BreachWatch.APIKey, BaseURL: p.BreachWatch.BaseURL, Timeout: timeout,
	})

	return adapters, secondary
}
