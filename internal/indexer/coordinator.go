// Package indexer implements the per-dataset convergence loop: compute
// the versioned index name, acquire the reindex lock, choose a build
// source, stream ops in chunks, heartbeat, and atomically roll the alias
// over for readers.
package indexer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sentryscreen/sentryscreen/internal/apierr"
	"github.com/sentryscreen/sentryscreen/internal/audit"
	"github.com/sentryscreen/sentryscreen/internal/catalog"
	"github.com/sentryscreen/sentryscreen/internal/delta"
	"github.com/sentryscreen/sentryscreen/internal/entity"
	"github.com/sentryscreen/sentryscreen/internal/indexstore"
)

// chunkSize is the bulk-write unit size.
const chunkSize = 1000

// CoordinatorConfig injects every dependency a single dataset convergence
// run needs.
type CoordinatorConfig struct {
	Prefix          string
	SoftwarePrefix  string
	SoftwareVersion string
	WriterID        string

	Store   *indexstore.Store
	Audit   *audit.Logger
	Fetcher *delta.Fetcher

	DeltaEnabled bool
	ForceFull    bool

	Logger *slog.Logger
}

// Coordinator converges a single dataset's index to its catalog-declared
// current version.
type Coordinator struct {
	config CoordinatorConfig
}

// NewCoordinator builds a Coordinator for one dataset convergence run.
func NewCoordinator(config CoordinatorConfig) *Coordinator {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Coordinator{config: config}
}

// Result summarizes a single Converge invocation for callers and for the
// admin sync=true endpoint.
type Result struct {
	Dataset     string
	Skipped     bool
	SkipReason  string
	IndexName   string
	Version     string
	DocsWritten int
}

// Converge runs the full convergence algorithm for a single dataset.
func (c *Coordinator) Converge(ctx context.Context, ds catalog.Dataset, baseVersion string) (Result, error) {
	cfg := c.config
	alias := indexstore.Alias(cfg.Prefix)
	matchPrefix := indexstore.DatasetMemberPrefix(cfg.Prefix, ds.Name)

	if !ds.Load || ds.EntitiesURL == "" {
		return Result{Dataset: ds.Name, Skipped: true, SkipReason: "dataset not loaded"}, nil
	}

	plan, err := cfg.Fetcher.Plan(ds, baseVersion, cfg.ForceFull)
	if err != nil {
		return Result{Dataset: ds.Name}, fmt.Errorf("plan update for %s: %w", ds.Name, err)
	}
	if !delta.NeedsUpdate(ds, baseVersion, plan) {
		return Result{Dataset: ds.Name, Skipped: true, SkipReason: "already current", Version: baseVersion}, nil
	}

	targetIndex := indexstore.IndexName(cfg.Prefix, ds.Name, cfg.SoftwarePrefix, plan.Target)

	// Step 1: if already aliased at this version, nothing to do.
	if member, ok := cfg.Store.HasDatasetMember(alias, matchPrefix); ok && member == targetIndex {
		return Result{Dataset: ds.Name, Skipped: true, SkipReason: "already aliased", IndexName: targetIndex, Version: plan.Target}, nil
	}

	reindexType := audit.ReindexPartial
	if plan.Full {
		reindexType = audit.ReindexFull
	}

	// Step 2: acquire the lock.
	acquired, docID, err := cfg.Audit.AcquireLock(ctx, targetIndex, alias, ds.Name, plan.Target, cfg.WriterID, reindexType)
	if err != nil {
		return Result{Dataset: ds.Name}, fmt.Errorf("acquire lock for %s: %w", targetIndex, err)
	}
	if !acquired {
		cfg.Logger.Info("reindex lock held elsewhere, skipping", "dataset", ds.Name, "index", targetIndex)
		return Result{Dataset: ds.Name, Skipped: true, SkipReason: "lock held by another replica", IndexName: targetIndex}, nil
	}

	docsWritten, runErr := c.build(ctx, cfg, ds, plan, targetIndex, matchPrefix, docID, reindexType)
	if runErr != nil {
		cfg.Logger.Error("reindex failed, cleaning up partial index", "dataset", ds.Name, "index", targetIndex, "error", runErr)
		_ = cfg.Store.Delete(targetIndex)
		if auditErr := cfg.Audit.Release(ctx, targetIndex, alias, ds.Name, plan.Target, cfg.WriterID, reindexType, false); auditErr != nil {
			cfg.Logger.Error("failed to write REINDEX_FAILED record", "error", auditErr)
		}
		return Result{Dataset: ds.Name, IndexName: targetIndex}, runErr
	}

	// Step 6: refresh, atomic alias rollover, terminal audit records.
	if err := cfg.Store.Refresh(targetIndex); err != nil {
		return Result{Dataset: ds.Name, IndexName: targetIndex}, fmt.Errorf("refresh %s: %w", targetIndex, err)
	}
	cfg.Store.Rollover(alias, matchPrefix, targetIndex)

	if err := cfg.Audit.Release(ctx, targetIndex, alias, ds.Name, plan.Target, cfg.WriterID, reindexType, true); err != nil {
		cfg.Logger.Error("failed to write REINDEX_COMPLETED record", "error", err)
	}
	if err := cfg.Audit.RecordRollover(ctx, targetIndex, alias, ds.Name, plan.Target, cfg.WriterID); err != nil {
		cfg.Logger.Error("failed to write INDEX_ALIAS_ROLLOVER_COMPLETE record", "error", err)
	}

	return Result{Dataset: ds.Name, IndexName: targetIndex, Version: plan.Target, DocsWritten: docsWritten}, nil
}

// build runs steps 3-5: choose source, stream ops in chunks, heartbeat.
func (c *Coordinator) build(ctx context.Context, cfg CoordinatorConfig, ds catalog.Dataset, plan *delta.Plan, targetIndex, matchPrefix, lockDocID string, reindexType audit.ReindexType) (int, error) {
	alias := indexstore.Alias(cfg.Prefix)

	// Step 3: choose build source.
	if plan.Full {
		if err := cfg.Store.Create(targetIndex); err != nil {
			return 0, fmt.Errorf("create fresh index %s: %w", targetIndex, err)
		}
	} else {
		srcMember, ok := cfg.Store.HasDatasetMember(alias, matchPrefix)
		if !ok {
			return 0, apierr.Internal(fmt.Sprintf("no currently-aliased index for dataset %s to clone", ds.Name), nil)
		}
		if err := cfg.Store.Clone(srcMember, targetIndex); err != nil {
			return 0, fmt.Errorf("clone %s into %s: %w", srcMember, targetIndex, err)
		}
	}

	// Steps 4-5: stream ops in chunks, refreshing the audit-log heartbeat
	// every ~60s of wall time so long runs keep their lock alive.
	hb := newHeartbeatTicker(audit.HeartbeatInterval)
	defer hb.Stop()

	written := 0
	entityBatch := make([]*entity.Entity, 0, chunkSize)
	deleteBatch := make([]string, 0, chunkSize)

	flush := func() error {
		if len(entityBatch) > 0 {
			if err := cfg.Store.BulkIndex(targetIndex, entityBatch); err != nil {
				return fmt.Errorf("bulk index chunk: %w", err)
			}
			written += len(entityBatch)
			entityBatch = entityBatch[:0]
		}
		if len(deleteBatch) > 0 {
			if err := cfg.Store.BulkDelete(targetIndex, deleteBatch); err != nil {
				return fmt.Errorf("bulk delete chunk: %w", err)
			}
			deleteBatch = deleteBatch[:0]
		}
		return nil
	}

	for rec, err := range cfg.Fetcher.Ops(ctx, plan) {
		if err != nil {
			return written, fmt.Errorf("stream ops for %s: %w", ds.Name, err)
		}
		switch rec.Op {
		case delta.OpAdd, delta.OpMod:
			entityBatch = append(entityBatch, rec.Entity)
		case delta.OpDel:
			deleteBatch = append(deleteBatch, rec.Entity.ID)
		}
		if len(entityBatch) >= chunkSize || len(deleteBatch) >= chunkSize {
			if err := flush(); err != nil {
				return written, err
			}
		}
		select {
		case <-hb.C:
			if err := cfg.Audit.Heartbeat(ctx, targetIndex, lockDocID, alias, ds.Name, plan.Target, cfg.WriterID, reindexType); err != nil {
				cfg.Logger.Warn("heartbeat failed", "dataset", ds.Name, "error", err)
			}
		default:
		}
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}
	}
	if err := flush(); err != nil {
		return written, err
	}
	return written, nil
}
