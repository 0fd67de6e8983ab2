package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"property-evaluation-service/internal/app"
	"property-evaluation-service/internal/config"
	"property-evaluation-service/internal/infra/memory"
	pgstore "property-evaluation-service/internal/infra/postgres"
	redisstore "property-evaluation-service/internal/infra/redis"
	"property-evaluation-service/internal/logging"
	"property-evaluation-service/internal/telemetry"
	transport "property-evaluation-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the evaluation server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 0)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.PropertyTypeLoader = memory.NewStaticPropertyTypeLoader(samplePropertyTypes())
	var saver app.ResultSaver = memory.NewEvaluationSaver()
	if pool != nil {
		loader = pgstore.NewPropertyTypeLoader(pool)
		saver = pgstore.NewEvaluationSaver(pool)
	}

	typesTTL := config.TTLDuration(cfg.PropertyTypes.TTL, 10*time.Minute)
	var types app.PropertyTypeRepository
	if redisClient != nil {
		types = redisstore.NewPropertyTypeRepository(redisClient, loader, typesTTL, logger)
	} else {
		types = memory.NewPropertyTypeRepository(loader, typesTTL, logger)
	}

	var storage app.Storage
	if redisClient != nil {
		storage = redisstore.NewKV(redisClient, redisTTL)
	} else {
		storage = memory.NewKV()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	tracker, err := telemetry.NewTracker(logger, registry)
	if err != nil {
		return err
	}

	queue := app.NewSaveQueue(
		saver,
		cfg.Evaluation.SaveQueueSize,
		cfg.Evaluation.SaveWorkers,
		config.TTLDuration(cfg.Evaluation.SaveTimeout, 10*time.Second),
		logger,
	)
	queue.Start(context.Background())

	service := app.NewEvaluationService(types, storage, queue, tracker, logger,
		app.WithMaxSessionAge(config.TTLDuration(cfg.Evaluation.MaxSessionAge, app.DefaultMaxSessionAge)),
	)
	wsHandler := transport.NewWSHandler(service, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting evaluation service", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server...")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	// Completed evaluations still queued are saved before exit.
	return queue.Close()
}
