package indexer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentryscreen/sentryscreen/internal/audit"
	"github.com/sentryscreen/sentryscreen/internal/catalog"
	"github.com/sentryscreen/sentryscreen/internal/delta"
	"github.com/sentryscreen/sentryscreen/internal/indexstore"
)

func entitiesServer(t *testing.T, lines []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Join(lines, "\n")))
	}))
}

func putinLine() string {
	b, _ := json.Marshal(map[string]any{
		"id":     "Q7747",
		"schema": "Person",
		"properties": map[string]any{
			"name": []any{"Vladimir Putin"},
		},
	})
	return string(b)
}

func newTestCoordinator(t *testing.T, entitiesURL string) (*Coordinator, *indexstore.Store) {
	t.Helper()
	store := indexstore.New("")
	logger, err := audit.NewLogger(store, "sentryscreen-entities-audit-log", "test-1.0", "")
	require.NoError(t, err)

	fetcher := delta.NewFetcher(false)

	coordinator := NewCoordinator(CoordinatorConfig{
		Prefix:          "sentryscreen",
		SoftwarePrefix:  "v",
		SoftwareVersion: "test-1.0",
		WriterID:        "writer-a",
		Store:           store,
		Audit:           logger,
		Fetcher:         fetcher,
	})
	return coordinator, store
}

func TestConverge_FullIngestionCreatesAndAliases(t *testing.T) {
	srv := entitiesServer(t, []string{putinLine()})
	defer srv.Close()

	coordinator, store := newTestCoordinator(t, srv.URL)
	ds := catalog.Dataset{
		Name:        "default",
		EntitiesURL: srv.URL,
		Load:        true,
		LastExport:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	result, err := coordinator.Converge(context.Background(), ds, "")
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 1, result.DocsWritten)

	alias := indexstore.Alias("sentryscreen")
	members := store.AliasMembers(alias)
	require.Len(t, members, 1)
	assert.Equal(t, result.IndexName, members[0])
}

func TestConverge_SkipsWhenAlreadyAliased(t *testing.T) {
	srv := entitiesServer(t, []string{putinLine()})
	defer srv.Close()

	coordinator, _ := newTestCoordinator(t, srv.URL)
	ds := catalog.Dataset{
		Name:        "default",
		EntitiesURL: srv.URL,
		Load:        true,
		LastExport:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	first, err := coordinator.Converge(context.Background(), ds, "")
	require.NoError(t, err)
	require.False(t, first.Skipped)

	second, err := coordinator.Converge(context.Background(), ds, first.Version)
	require.NoError(t, err)
	assert.True(t, second.Skipped)
}

func TestConverge_SkipsUnloadedDataset(t *testing.T) {
	coordinator, _ := newTestCoordinator(t, "")
	ds := catalog.Dataset{Name: "default", Load: false}

	result, err := coordinator.Converge(context.Background(), ds, "")
	require.NoError(t, err)
	assert.True(t, result.Skipped)
}

func TestConverge_SecondWriterBlockedWhileLockHeld(t *testing.T) {
	srv := entitiesServer(t, []string{putinLine()})
	defer srv.Close()

	store := indexstore.New("")
	logger, err := audit.NewLogger(store, "sentryscreen-entities-audit-log", "test-1.0", "")
	require.NoError(t, err)

	ds := catalog.Dataset{
		Name:        "default",
		EntitiesURL: srv.URL,
		Load:        true,
		LastExport:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	targetIndex := indexstore.IndexName("sentryscreen", "default", "v", ds.Version())
	acquired, _, err := logger.AcquireLock(context.Background(), targetIndex, indexstore.Alias("sentryscreen"), ds.Name, ds.Version(), "other-writer", audit.ReindexFull)
	require.NoError(t, err)
	require.True(t, acquired)

	coordinator := NewCoordinator(CoordinatorConfig{
		Prefix:          "sentryscreen",
		SoftwarePrefix:  "v",
		SoftwareVersion: "test-1.0",
		WriterID:        "writer-a",
		Store:           store,
		Audit:           logger,
		Fetcher:         delta.NewFetcher(false),
	})

	result, err := coordinator.Converge(context.Background(), ds, "")
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Contains(t, result.SkipReason, "lock held")
}
