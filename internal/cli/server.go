package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"career-assessment-service/internal/advisor"
	"career-assessment-service/internal/app"
	"career-assessment-service/internal/config"
	"career-assessment-service/internal/infra/memory"
	"career-assessment-service/internal/infra/postgres"
	redisstore "career-assessment-service/internal/infra/redis"
	"career-assessment-service/internal/llm"
	"career-assessment-service/internal/logging"
	transport "career-assessment-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the assessment server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func loadConfig(path string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

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
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 24*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
	}

	var loader memory.AssessmentLoader
	if pool != nil {
		pgLoader := postgres.NewAssessmentLoader(pool)
		existing, err := pgLoader.ListAssessments(ctx)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			if err := seedCatalog(ctx, cfg, pgLoader, logger); err != nil {
				return err
			}
		}
		loader = pgLoader
	} else {
		c, err := loadCatalog(cfg.Catalog.Dir)
		if err != nil {
			return err
		}
		loader = c
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	var catalogRepo app.CatalogRepository
	var results app.ResultRepository
	if redisClient != nil {
		catalogRepo = redisstore.NewCatalogRepository(redisClient, loader, catalogTTL, logger)
		results = redisstore.NewResultRepository(redisClient, redisTTL, cfg.Assessment.ExpectedTotal, logger)
	} else {
		catalogRepo = memory.NewCatalogRepository(loader, catalogTTL)
		results = memory.NewResultRepository(cfg.Assessment.ExpectedTotal)
	}

	var snapshots app.SnapshotStore
	switch {
	case pool != nil:
		snapshots = postgres.NewSnapshotStore(pool)
	case redisClient != nil:
		snapshots = redisstore.NewSnapshotStore(redisClient, 0)
	default:
		snapshots = memory.NewSnapshotStore()
	}

	opts := []app.Option{app.WithLogger(logger)}
	if cfg.Assessment.TopN > 0 {
		opts = append(opts, app.WithTopN(cfg.Assessment.TopN))
	}
	service := app.NewAssessmentService(catalogRepo, results, memory.NewAttemptStore(), snapshots, opts...)

	provider, err := llm.New(ctx, llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.Gemini.APIKey,
		Model:    cfg.LLM.Gemini.Model,
		Timeout:  config.TTLDuration(cfg.LLM.Timeout, 30*time.Second),
	})
	if err != nil {
		return err
	}
	if provider == nil {
		logger.Info("no llm provider configured, advisor runs offline")
	}
	adv := advisor.New(service, provider, logger)

	var resolver transport.UserResolver
	if len(cfg.Auth.Tokens) > 0 {
		resolver = transport.StaticTokens(cfg.Auth.Tokens)
	}
	api := transport.NewServer(service, adv, transport.Options{
		Resolver:       resolver,
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      api.Router(),
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	go func() {
		logger.Info("starting assessment service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
