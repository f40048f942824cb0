package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sourceful-energy/tariff-service/config"
	"github.com/sourceful-energy/tariff-service/internal/ai"
	"github.com/sourceful-energy/tariff-service/internal/handlers"
	"github.com/sourceful-energy/tariff-service/internal/http/ratelimit"
	"github.com/sourceful-energy/tariff-service/internal/middleware"
	"github.com/sourceful-energy/tariff-service/internal/normalize"
	"github.com/sourceful-energy/tariff-service/internal/scrape"
	"github.com/sourceful-energy/tariff-service/internal/storage"
	"github.com/sourceful-energy/tariff-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting tariff service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.GetConfigFromEnv())
	if err != nil {
		logger.Warn().Err(err).Msg("Telemetry disabled")
	}

	local, err := storage.NewLocalStorage(cfg.Storage.BasePath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Storage.BasePath).Msg("Failed to open storage")
	}
	results := storage.NewResultStore(local)

	scraper := scrape.New(ratelimit.Config{
		RequestsPerSecond: cfg.Scraper.RequestsPerSecond,
		BurstSize:         4,
		MaxRetries:        cfg.Scraper.MaxRetries,
		InitialBackoffMs:  cfg.Scraper.InitialBackoffMs,
		MaxBackoffMs:      cfg.Scraper.MaxBackoffMs,
	})

	parser := buildParser(cfg, logger)
	if parser == nil {
		logger.Warn().Msg("ANTHROPIC_API_KEY not set, AI endpoints disabled")
	}

	handlers.Configure(handlers.Deps{
		Parser:       parser,
		Scraper:      scraper,
		Results:      results,
		CatalogueURL: cfg.Scraper.CatalogueURL,
		ResultMaxAge: cfg.Storage.ResultMaxAge,
	})

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	setupMiddleware(router, logger)

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.Use(middleware.RateLimitMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.BurstSize,
	}))
	{
		// AI-backed endpoints get a much tighter per-IP budget.
		parse := api.Group("/parse")
		parse.Use(middleware.RateLimitMiddleware(middleware.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.AIRequestsPerHour / 3600.0,
			BurstSize:         cfg.RateLimit.AIBurstSize,
		}))
		{
			parse.POST("/text", handlers.ParseText)
			parse.POST("/url", handlers.ParseURL)
			parse.POST("/combined", handlers.ParseCombined)
			parse.POST("/improve", handlers.Improve)
		}

		explore := api.Group("/explore")
		{
			explore.GET("/catalogue", handlers.ExploreCatalogue)
			explore.POST("/fetch", handlers.ExploreFetch)
			explore.POST("/explain", handlers.ExploreExplain)
		}

		resultsGroup := api.Group("/results")
		{
			resultsGroup.POST("/save", handlers.SaveResult)
			resultsGroup.GET("/recent", handlers.RecentResults)
			resultsGroup.GET("/:id", handlers.GetResult)
		}

		generate := api.Group("/generate")
		{
			generate.POST("/excel", handlers.GenerateExcel)
			generate.POST("/package", handlers.GeneratePackage)
			generate.POST("/openapi", handlers.GenerateOpenAPI)
		}
	}

	admin := router.Group("/admin")
	admin.Use(middleware.AdminAuthMiddleware())
	{
		admin.POST("/results/cleanup", handlers.CleanupResults)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		runResultCleanup(gCtx, results, cfg.Storage, logger)
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("Server error")
	}

	if telemetryShutdown != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetryShutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Telemetry shutdown failed")
		}
	}

	logger.Info().Msg("Server exited")
}

// runResultCleanup periodically deletes saved results past their retention.
func runResultCleanup(ctx context.Context, results *storage.ResultStore, cfg config.StorageConfig, logger *zerolog.Logger) {
	if cfg.CleanupPeriod <= 0 || cfg.ResultMaxAge <= 0 {
		return
	}

	ticker := time.NewTicker(cfg.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := results.Cleanup(ctx, cfg.ResultMaxAge)
			if err != nil {
				logger.Error().Err(err).Msg("Result cleanup failed")
				continue
			}
			if deleted > 0 {
				logger.Info().Int("deleted", deleted).Msg("Cleaned up old results")
			}
		}
	}
}

func buildParser(cfg *config.Config, logger *zerolog.Logger) *ai.Parser {
	if cfg.AI.APIKey == "" {
		return nil
	}

	opts := []ai.AnthropicOption{}
	if cfg.AI.Model != "" {
		opts = append(opts, ai.WithModel(cfg.AI.Model))
	}
	client, err := ai.NewAnthropicClient(cfg.AI.APIKey, opts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create AI client")
	}

	var normOpts []normalize.Option
	if cfg.Guard.CalendarYear > 0 {
		normOpts = append(normOpts, normalize.WithCalendarYear(cfg.Guard.CalendarYear))
	}
	return ai.NewParser(client, ai.WithNormalizer(normalize.New(normOpts...)), ai.WithLogger(*logger))
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "tariff-service").Logger()
	return &logger
}

func setupMiddleware(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		end := time.Now()
		latency := end.Sub(start)

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	})
}
