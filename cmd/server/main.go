package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"haven-backend/internal/config"
	"haven-backend/internal/database"
	"haven-backend/internal/logging"
	"haven-backend/internal/notify"
	"haven-backend/internal/server"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configFile string

// rootCmd serves the API when run without a subcommand.
var rootCmd = &cobra.Command{
	Use:           "haven-backend",
	Short:         "Haven wellness backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load .env (ignore error in production, env vars are set directly)
		_ = godotenv.Load()
		if configFile != "" {
			return os.Setenv("CONFIG_FILE", configFile)
		}
		return nil
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

var ensureIndexesCmd = &cobra.Command{
	Use:   "ensure-indexes",
	Short: "Create record store indexes and exit",
	RunE:  runEnsureIndexes,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file (or set CONFIG_FILE env)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ensureIndexesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type service struct {
	cfg    config.Config
	logger *zap.Logger
	store  database.Store
}

func bootstrap(ctx context.Context) (*service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	store, err := database.Open(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("failed to open record store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
		_ = logger.Sync()
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	return &service{cfg: cfg, logger: logger, store: store}, nil
}

func (rt *service) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.store.Close(ctx); err != nil {
		rt.logger.Warn("closing record store failed", zap.Error(err))
	}
	_ = rt.logger.Sync()
}

func (rt *service) newApp() *server.App {
	return server.NewApp(rt.cfg, rt.store,
		notify.NewMailer(rt.cfg.Email, rt.logger),
		notify.NewLogNotifier(rt.logger),
		rt.logger,
	)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	app := rt.newApp()

	indexCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := app.EnsureIndexes(indexCtx); err != nil {
		rt.logger.Warn("failed to create indexes", zap.Error(err))
	}
	cancel()

	srv := server.New(rt.logger, rt.cfg.HTTP, app.Handler)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		rt.logger.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			rt.logger.Error("server stopped unexpectedly", zap.Error(err))
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		rt.logger.Error("graceful shutdown failed", zap.Error(err))
	}
	app.Drain()
	return nil
}

func runEnsureIndexes(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	if err := rt.newApp().EnsureIndexes(ctx); err != nil {
		return err
	}
	rt.logger.Info("indexes created", zap.String("driver", rt.cfg.Store.Driver))
	return nil
}
