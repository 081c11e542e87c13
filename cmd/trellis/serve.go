package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/florahq/trellis/internal/activity"
	"github.com/florahq/trellis/internal/api"
	"github.com/florahq/trellis/internal/config"
	"github.com/florahq/trellis/internal/garden"
	"github.com/florahq/trellis/internal/identify"
	"github.com/florahq/trellis/internal/metrics"
	"github.com/florahq/trellis/internal/plant"
	"github.com/florahq/trellis/internal/ratelimit"
	"github.com/florahq/trellis/internal/user"
	"github.com/florahq/trellis/internal/weather"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Trellis API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}
	slog.Info("connected to database")

	m := metrics.New()
	m.RegisterDBPoolCollector(func() metrics.DBPoolStats {
		stat := pool.Stat()
		return metrics.DBPoolStats{
			Total:    stat.TotalConns(),
			Idle:     stat.IdleConns(),
			Acquired: stat.AcquiredConns(),
			Max:      stat.MaxConns(),
		}
	})

	userStore := user.NewStore(pool)
	plantStore := plant.NewStore(pool)
	gardenStore := garden.NewStore(pool)
	activityStore := activity.NewStore(pool)

	plantService := plant.NewService(plantStore)
	gardenService := garden.NewService(gardenStore, plantStore)
	gardenService.SetMetrics(m)

	collector := activity.NewCollector(activityStore, cfg.Activity.BatchSize, cfg.Activity.FlushInterval)
	collector.SetMetrics(m)
	go collector.Start(ctx)

	limiter := ratelimit.New(cfg.RateLimit.Auth, cfg.RateLimit.Window)

	weatherClient := weather.NewClient(weather.Config{
		GeocodeBaseURL:  cfg.Weather.GeocodeURL,
		ForecastBaseURL: cfg.Weather.ForecastURL,
		Timeout:         cfg.Weather.Timeout,
	})
	identifyClient := identify.NewClient(identify.Config{
		Endpoint: cfg.Identify.Endpoint,
		APIKey:   cfg.Identify.APIKey,
		Timeout:  cfg.Identify.Timeout,
	})

	router := api.NewRouter(api.RouterDeps{
		Users:          userStore,
		Sessions:       user.NewAuthAdapter(userStore),
		Gardens:        gardenService,
		Plants:         plantService,
		ActivityFeed:   activityStore,
		Collector:      collector,
		Weather:        weatherClient,
		Identifier:     identifyClient,
		Limiter:        limiter,
		Metrics:        m,
		DB:             pool,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	collector.Stop()

	return srv.Shutdown(shutdownCtx)
}
