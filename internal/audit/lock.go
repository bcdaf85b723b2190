package audit

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/gofrs/flock"
	"github.com/oklog/ulid/v2"

	"github.com/sentryscreen/sentryscreen/internal/apierr"
	"github.com/sentryscreen/sentryscreen/internal/indexstore"
)

// recentWindow bounds how many recent documents Logger reads back when
// resolving lock winners.
const recentWindow = 50

// Logger writes and reads audit-log documents and implements the
// two-phase reindex lock protocol.
type Logger struct {
	store           *indexstore.Store
	indexName       string
	softwareVersion string
	localLock       *flock.Flock
}

// NewLogger wires a Logger onto the audit-log index indexName, creating
// it if necessary. localLockDir, when non-empty, backs an additional
// gofrs/flock advisory lock scoped to this host: a supplementary guard
// for single-host deployments where two writer processes share a
// filesystem but the search backend's eventual consistency would
// otherwise let both pass the free-slot check.
func NewLogger(store *indexstore.Store, indexName, softwareVersion, localLockDir string) (*Logger, error) {
	if err := store.CreateWithMapping(indexName, indexstore.AuditMapping()); err != nil {
		return nil, fmt.Errorf("create audit log index: %w", err)
	}
	l := &Logger{store: store, indexName: indexName, softwareVersion: softwareVersion}
	if localLockDir != "" {
		l.localLock = flock.New(localLockDir + "/" + indexName + ".lock")
	}
	return l, nil
}

// AcquireLock runs the full tentative→started protocol for targetIndex
// (the partial/full index being built, distinct from the audit log's own
// indexName) and returns the document id of the winning STARTED record
// when acquired.
func (l *Logger) AcquireLock(ctx context.Context, targetIndex, aliasIndex, dataset, datasetVersion, writerID string, reindexType ReindexType) (acquired bool, docID string, err error) {
	if l.localLock != nil {
		ok, err := l.localLock.TryLockContext(ctx, 50*time.Millisecond)
		if err != nil || !ok {
			return false, "", nil
		}
		defer func() {
			if !acquired {
				_ = l.localLock.Unlock()
			}
		}()
	}

	latest, ok, err := l.latest(ctx, targetIndex)
	if err != nil {
		return false, "", err
	}
	if ok && latest.Locked(time.Now()) {
		return false, "", nil
	}

	id := ulid.Make().String()
	tentative := LogEntry{
		ID:              id,
		AliasIndex:      aliasIndex,
		Index:           targetIndex,
		Dataset:         dataset,
		DatasetVersion:  datasetVersion,
		SoftwareVersion: l.softwareVersion,
		MessageType:     MsgLockTentative,
		ReindexType:     reindexType,
		WriterID:        writerID,
		Timestamp:       time.Now(),
	}
	if err := l.write(tentative); err != nil {
		return false, "", err
	}

	recent, err := l.recent(ctx, targetIndex, recentWindow)
	if err != nil {
		return false, "", err
	}
	winner, ok := tentativeWinner(recent)
	if !ok || winner.ID != id {
		return false, "", nil
	}

	started := tentative
	started.MessageType = MsgStarted
	started.HeartbeatTimestamp = time.Now()
	if err := l.write(started); err != nil {
		return false, "", err
	}
	return true, id, nil
}

// tentativeWinner walks recent (already sorted newest-first by
// Logger.recent) and finds the contiguous run of REINDEX_LOCK_TENTATIVE
// records at its head, returning the oldest one in that run. Ties break
// on the smallest (lexicographically earliest, hence ULID-earliest)
// document id.
func tentativeWinner(recent []LogEntry) (LogEntry, bool) {
	var run []LogEntry
	for _, e := range recent {
		if e.MessageType != MsgLockTentative {
			break
		}
		run = append(run, e)
	}
	if len(run) == 0 {
		return LogEntry{}, false
	}
	winner := run[0]
	for _, e := range run[1:] {
		if e.Timestamp.Before(winner.Timestamp) ||
			(e.Timestamp.Equal(winner.Timestamp) && e.ID < winner.ID) {
			winner = e
		}
	}
	return winner, true
}

// Heartbeat refreshes the heartbeat timestamp on an acquired lock's
// STARTED record.
func (l *Logger) Heartbeat(ctx context.Context, targetIndex, docID, aliasIndex, dataset, datasetVersion, writerID string, reindexType ReindexType) error {
	entry := LogEntry{
		ID:              docID,
		AliasIndex:      aliasIndex,
		Index:           targetIndex,
		Dataset:         dataset,
		DatasetVersion:  datasetVersion,
		SoftwareVersion: l.softwareVersion,
		MessageType:     MsgStarted,
		ReindexType:     reindexType,
		WriterID:        writerID,
		Timestamp:       time.Now(),
		HeartbeatTimestamp: time.Now(),
	}
	return l.write(entry)
}

// Release writes the terminal record for an acquisition and, for a local
// lock, releases the advisory flock. A terminal record frees the index
// for the next acquirer regardless of heartbeat age.
func (l *Logger) Release(ctx context.Context, targetIndex, aliasIndex, dataset, datasetVersion, writerID string, reindexType ReindexType, success bool) error {
	msg := MsgCompleted
	if !success {
		msg = MsgFailed
	}
	entry := LogEntry{
		ID:              ulid.Make().String(),
		AliasIndex:      aliasIndex,
		Index:           targetIndex,
		Dataset:         dataset,
		DatasetVersion:  datasetVersion,
		SoftwareVersion: l.softwareVersion,
		MessageType:     msg,
		ReindexType:     reindexType,
		WriterID:        writerID,
		Timestamp:       time.Now(),
	}
	if err := l.write(entry); err != nil {
		return err
	}
	if l.localLock != nil {
		_ = l.localLock.Unlock()
	}
	return nil
}

// RecordRollover appends an INDEX_ALIAS_ROLLOVER_COMPLETE record after a
// successful alias swap.
func (l *Logger) RecordRollover(ctx context.Context, targetIndex, aliasIndex, dataset, datasetVersion, writerID string) error {
	entry := LogEntry{
		ID:              ulid.Make().String(),
		AliasIndex:      aliasIndex,
		Index:           targetIndex,
		Dataset:         dataset,
		DatasetVersion:  datasetVersion,
		SoftwareVersion: l.softwareVersion,
		MessageType:     MsgRolloverDone,
		WriterID:        writerID,
		Timestamp:       time.Now(),
	}
	return l.write(entry)
}

// IsLocked reports whether targetIndex currently has an active
// tentative-or-started lock.
func (l *Logger) IsLocked(ctx context.Context, targetIndex string) (bool, error) {
	latest, ok, err := l.latest(ctx, targetIndex)
	if err != nil {
		return false, err
	}
	return ok && latest.Locked(time.Now()), nil
}

func (l *Logger) write(e LogEntry) error {
	if err := l.store.IndexRaw(l.indexName, e.ID, e.toWire()); err != nil {
		return fmt.Errorf("write audit log entry: %w", err)
	}
	return nil
}

func (l *Logger) latest(ctx context.Context, targetIndex string) (LogEntry, bool, error) {
	recent, err := l.recent(ctx, targetIndex, 1)
	if err != nil {
		return LogEntry{}, false, err
	}
	if len(recent) == 0 {
		return LogEntry{}, false, nil
	}
	return recent[0], true, nil
}

// recent returns up to n audit-log entries for targetIndex, newest first.
func (l *Logger) recent(ctx context.Context, targetIndex string, n int) ([]LogEntry, error) {
	q := query.NewTermQuery(targetIndex)
	q.SetField("index")
	res, err := l.store.SearchRaw(ctx, l.indexName, q, n, []string{"-timestamp"})
	if err != nil {
		if apierr.KindOf(err) == apierr.KindIndexNotReady {
			return nil, nil
		}
		return nil, err
	}
	entries := make([]LogEntry, 0, len(res.Hits))
	for _, hit := range res.Hits {
		entries = append(entries, fromFields(hit.ID, hit.Fields))
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}
