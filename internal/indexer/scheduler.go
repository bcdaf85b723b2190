package indexer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sentryscreen/sentryscreen/internal/catalog"
)

// BaseVersionFunc returns the version currently aliased for a dataset,
// persisted state the Scheduler consults before converging so the
// already-current check spans restarts.
type BaseVersionFunc func(dataset string) string

// SchedulerConfig configures the background dataset-convergence loop: a
// small config struct plus an injected coordinator factory.
type SchedulerConfig struct {
	Catalog        *catalog.Catalog
	NewCoordinator func(ds catalog.Dataset) *Coordinator
	BaseVersion    BaseVersionFunc

	// RecordVersion, when set, is invoked after every successful
	// convergence so the caller can persist the newly aliased version
	// (the state BaseVersion reads back after a restart).
	RecordVersion func(dataset, version, indexName string)

	Interval time.Duration
	Logger   *slog.Logger
}

// Scheduler drives the periodic per-dataset reindex loop: a cron-like
// interval tick over every catalog dataset, an immediate run on Start,
// and a manual single-dataset Trigger for the admin endpoint (sync=true
// blocks the caller; otherwise it's fire and forget).
type Scheduler struct {
	config SchedulerConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	resultsMu sync.Mutex
	results   map[string]Result
}

// NewScheduler builds a Scheduler. Interval defaults to 1 hour if unset.
func NewScheduler(config SchedulerConfig) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = time.Hour
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Scheduler{
		config:  config,
		results: map[string]Result{},
	}
}

// Start launches the background loop: one immediate run over every
// dataset, then a run on every Interval tick, until Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.runAll(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

// runAll converges every dataset currently in the catalog, sequentially
// — parallel convergence would need per-dataset audit-log coordination
// that's already provided by the lock, but sequencing here keeps a
// single replica's resource usage (HTTP fetch + bulk index) bounded.
func (s *Scheduler) runAll(ctx context.Context) {
	for _, ds := range s.config.Catalog.All() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		s.runOne(ctx, ds)
	}
}

func (s *Scheduler) runOne(ctx context.Context, ds catalog.Dataset) Result {
	coordinator := s.config.NewCoordinator(ds)
	base := ""
	if s.config.BaseVersion != nil {
		base = s.config.BaseVersion(ds.Name)
	}
	result, err := coordinator.Converge(ctx, ds, base)
	if err != nil {
		s.config.Logger.Error("dataset convergence failed", "dataset", ds.Name, "error", err)
	} else if !result.Skipped {
		s.config.Logger.Info("dataset converged", "dataset", ds.Name, "index", result.IndexName, "docs", result.DocsWritten)
		if s.config.RecordVersion != nil && result.Version != "" {
			s.config.RecordVersion(ds.Name, result.Version, result.IndexName)
		}
	}
	s.resultsMu.Lock()
	s.results[ds.Name] = result
	s.resultsMu.Unlock()
	return result
}

// Trigger runs a single dataset's convergence on demand (the admin
// endpoint). When sync is true it blocks until
// the run completes and returns its Result; otherwise it launches the
// run in the background and returns immediately with a Result that
// names the dataset and is marked Skipped with SkipReason
// "running in background".
func (s *Scheduler) Trigger(ctx context.Context, datasetName string, sync bool) (Result, error) {
	ds, err := s.config.Catalog.Get(datasetName)
	if err != nil {
		return Result{}, err
	}
	if sync {
		return s.runOne(ctx, ds), nil
	}
	go func() {
		// Background runs get their own context: the triggering request's
		// context will be canceled once the handler returns.
		s.runOne(context.Background(), ds)
	}()
	return Result{Dataset: ds.Name, Skipped: true, SkipReason: "running in background"}, nil
}

// LastResult returns the most recent convergence result recorded for a
// dataset, used by status/health reporting.
func (s *Scheduler) LastResult(datasetName string) (Result, bool) {
	s.resultsMu.Lock()
	defer s.resultsMu.Unlock()
	r, ok := s.results[datasetName]
	return r, ok
}

// Stop signals the loop to stop and waits for the in-flight run (if any)
// to return control.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	stopCh := s.stopCh
	doneCh := s.doneCh
	s.mu.Unlock()

	close(stopCh)
	<-doneCh
}
