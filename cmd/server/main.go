package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/UkralStul/feed-moderation-service/internal/api"
	"github.com/UkralStul/feed-moderation-service/internal/config"
	"github.com/UkralStul/feed-moderation-service/internal/content"
	"github.com/UkralStul/feed-moderation-service/internal/logging"
	"github.com/UkralStul/feed-moderation-service/internal/moderation"
	"github.com/UkralStul/feed-moderation-service/internal/observer"
	"github.com/UkralStul/feed-moderation-service/internal/review"
	"github.com/UkralStul/feed-moderation-service/internal/storage"
	"github.com/UkralStul/feed-moderation-service/internal/storage/inmemory"
	"github.com/UkralStul/feed-moderation-service/internal/storage/postgres"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath  string
	storageType string
	seed        bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "feed-server",
	Short: "Social feed backend with content moderation",
	Long: `feed-server serves the social feed REST API. Every post and comment is checked
by a banned-word filter and an OpenAI-compatible classifier before it is stored;
flagged content is hidden from regular users until an admin approves or removes it.

Examples:
  # In-memory storage with demo data
  feed-server --seed

  # Postgres, settings from file and environment
  DATABASE_URL=postgres://... GROQ_API_KEY=... feed-server --config config.yaml --storage postgres`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.Flags().StringVar(&storageType, "storage", "", "storage type (in-memory or postgres), overrides config")
	rootCmd.Flags().BoolVar(&seed, "seed", false, "fill storage with demo users, posts and comments")
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if storageType != "" {
		cfg.Storage.Type = storageType
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	log, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Service: "feed-moderation"})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting server", zap.String("storage", cfg.Storage.Type))
	store, err := newStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if seed {
		if err := fillWithMockData(ctx, store, log); err != nil {
			return err
		}
	}

	classifier, err := moderation.NewGroqClassifier(cfg.Groq.Classifier(), log.Named("classifier"))
	if err != nil {
		return fmt.Errorf("failed to create classifier: %w", err)
	}
	defer classifier.Close()

	policy := moderation.NewPolicy(moderation.NewKeywordFilter(cfg.Moderation.BannedWords), classifier, log.Named("moderation"))
	events := observer.New()
	gate := content.NewGate(store, policy, events, log.Named("content"))
	queue := review.NewQueue(store, events, log.Named("review"))
	server := api.NewServer(store, gate, queue, events, log.Named("api"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      server.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.Storage, error) {
	if cfg.Storage.Type == config.StoragePostgres {
		store, err := postgres.New(ctx, cfg.Database.URL, log.Named("postgres"))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return store, nil
	}
	return inmemory.New(), nil
}
