package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"upload-service/internal/config"
	"upload-service/internal/db"
	"upload-service/internal/logging"
	"upload-service/internal/server"
	"upload-service/internal/storage"
	"upload-service/internal/upload"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "backend",
		Short:         "Upload service: accepts images and documents over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			if err := serve(cmd.Context(), cfg, logger); err != nil {
				logger.Error("backend stopped", "err", err)
				return err
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment (ignored when missing)")

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply catalog migrations to UPLOAD_DATABASE_URL and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			if !cfg.CatalogEnabled() {
				return errors.New("UPLOAD_DATABASE_URL is not set")
			}
			conn, err := db.Open(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect catalog: %w", err)
			}
			defer func() { _ = conn.Close() }()

			if err := db.Migrate(conn); err != nil {
				return err
			}
			logger.Info("migrations complete")
			return nil
		},
	})

	return root
}

// loadConfig reads settings and builds the logger. Configuration errors are
// printed to stderr since no logger exists yet.
func loadConfig(envFile string) (config.Config, *log.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return config.Config{}, nil, err
	}
	logger, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Prefix: "backend",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// app is the wired service plus whatever must be released on exit.
type app struct {
	srv     *server.Server
	catalog *sql.DB
}

func (a *app) close() {
	if a.catalog != nil {
		_ = a.catalog.Close()
	}
}

// build prepares storage, connects the optional catalog, and assembles the
// HTTP server.
func build(ctx context.Context, cfg config.Config, fs afero.Fs, logger *log.Logger) (*app, error) {
	store := storage.NewLocal(fs, cfg.StorageDir, upload.KindImage.Dir(), upload.KindFile.Dir())
	if err := store.Prepare(); err != nil {
		return nil, err
	}

	a := &app{}
	var catalog upload.Catalog
	if cfg.CatalogEnabled() {
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect catalog: %w", err)
		}
		logger.Info("running migrations")
		if err := db.Migrate(conn); err != nil {
			_ = conn.Close()
			return nil, err
		}
		a.catalog = conn
		catalog = db.NewCatalog(conn)
	}

	svc := upload.NewService(upload.Options{
		MaxMB:   cfg.MaxMB,
		Store:   store,
		Catalog: catalog,
		Logger:  logger,
	})

	a.srv = server.New(server.Config{
		Addr:           cfg.Addr,
		Build:          server.BuildInfo{Version: cfg.Version, Commit: cfg.Commit},
		Uploads:        svc,
		Storage:        store,
		Catalog:        catalog,
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins(),
		RateLimit:      cfg.RateLimit,
	})
	return a, nil
}

func serve(ctx context.Context, cfg config.Config, logger *log.Logger) error {
	a, err := build(ctx, cfg, afero.NewOsFs(), logger)
	if err != nil {
		return err
	}
	defer a.close()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting",
			"addr", cfg.Addr,
			"version", cfg.Version,
			"commit", cfg.Commit,
			"storage", cfg.StorageDir,
			"max_upload", humanize.IBytes(uint64(cfg.MaxBytes())),
			"catalog", cfg.CatalogEnabled(),
		)
		errCh <- a.srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		// Give in-flight uploads five seconds to finish.
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.Info("shutdown complete")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
