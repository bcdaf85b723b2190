package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sentryscreen/sentryscreen/internal/audit"
	"github.com/sentryscreen/sentryscreen/internal/catalog"
	"github.com/sentryscreen/sentryscreen/internal/catalogstate"
	"github.com/sentryscreen/sentryscreen/internal/config"
	"github.com/sentryscreen/sentryscreen/internal/delta"
	"github.com/sentryscreen/sentryscreen/internal/httpapi"
	"github.com/sentryscreen/sentryscreen/internal/indexer"
	"github.com/sentryscreen/sentryscreen/internal/indexstore"
	"github.com/sentryscreen/sentryscreen/internal/logging"
	"github.com/sentryscreen/sentryscreen/internal/match"
	"github.com/sentryscreen/sentryscreen/pkg/version"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the sentryscreen API server",
		Long: `Start the HTTP server, load the dataset catalog, and (unless
auto-reindex is disabled) begin converging every dataset's index in the
background.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if !debugMode {
		logger, cleanup, err := logging.Setup(logging.Config{
			Level:         cfg.LogLevel,
			FilePath:      logging.DefaultLogPath(),
			MaxSizeMB:     10,
			MaxFiles:      5,
			WriteToStderr: true,
		})
		if err != nil {
			return fmt.Errorf("setup logging: %w", err)
		}
		defer cleanup()
		slog.SetDefault(logger)
	}
	log := slog.Default()

	store := indexstore.New(cfg.DataDir)

	lockDir := ""
	statePath := ":memory:"
	if cfg.DataDir != "" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		lockDir = cfg.DataDir
		statePath = filepath.Join(cfg.DataDir, "state.db")
	}

	auditLog, err := audit.NewLogger(store, indexstore.AuditLogIndex(cfg.Prefix), version.Version, lockDir)
	if err != nil {
		return err
	}

	state, err := catalogstate.Open(statePath)
	if err != nil {
		return err
	}
	defer state.Close()

	httpClient := outboundClient(cfg.HTTPProxy)

	cat, err := catalog.New(cfg.Manifest,
		catalog.WithLogger(log),
		catalog.WithHTTPClient(httpClient),
	)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if err := cat.Watch(); err != nil {
		log.Warn("manifest watch disabled", "error", err)
	}
	defer cat.Stop()

	fetcher := delta.NewFetcher(cfg.DeltaUpdates)
	fetcher.HTTPClient = httpClient
	fetcher.Logger = log

	writerID := fmt.Sprintf("%s-%s", hostname(), uuid.NewString()[:8])

	interval, err := time.ParseDuration(cfg.ReindexInterval())
	if err != nil {
		return fmt.Errorf("parse reindex interval: %w", err)
	}

	scheduler := indexer.NewScheduler(indexer.SchedulerConfig{
		Catalog: cat,
		NewCoordinator: func(ds catalog.Dataset) *indexer.Coordinator {
			return indexer.NewCoordinator(indexer.CoordinatorConfig{
				Prefix:          cfg.Prefix,
				SoftwarePrefix:  cfg.SoftwarePrefix,
				SoftwareVersion: version.Version,
				WriterID:        writerID,
				Store:           store,
				Audit:           auditLog,
				Fetcher:         fetcher,
				DeltaEnabled:    cfg.DeltaUpdates,
				Logger:          log,
			})
		},
		BaseVersion: func(dataset string) string {
			v, err := state.Version(context.Background(), dataset)
			if err != nil {
				log.Warn("read base version failed", "dataset", dataset, "error", err)
				return ""
			}
			return v
		},
		RecordVersion: func(dataset, ver, indexName string) {
			if err := state.SetVersion(context.Background(), dataset, ver, indexName); err != nil {
				log.Warn("record version failed", "dataset", dataset, "error", err)
			}
		},
		Interval: interval,
		Logger:   log,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AutoReindex {
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Store:     store,
		Catalog:   cat,
		Scheduler: scheduler,
		Router:    match.NewRouter(store, cfg.QueryConcurrency),
		State:     state,
		Config:    cfg,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("sentryscreen listening", "addr", srv.Addr, "version", version.Version)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// outboundClient builds the HTTP client used for dataset and delta
// fetches, honoring an explicit proxy when configured.
func outboundClient(proxy string) *http.Client {
	client := &http.Client{Timeout: 5 * time.Minute}
	if proxy != "" {
		if u, err := url.Parse(proxy); err == nil {
			client.Transport = &http.Transport{Proxy: http.ProxyURL(u)}
		}
	}
	return client
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "sentryscreen"
	}
	return h
}
