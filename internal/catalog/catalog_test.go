package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentryscreen/sentryscreen/internal/apierr"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const simpleManifest = `
datasets:
  - name: default
    title: Default dataset
    last_export: "2024-01-15T10:00:00Z"
    entities_url: https://example.com/entities.json
    sources: [eu_fsf, us_ofac]
  - name: skipped
    load: false
`

func TestCatalog_LoadsManifest(t *testing.T) {
	cat, err := New(writeManifest(t, simpleManifest))
	require.NoError(t, err)

	assert.Equal(t, []string{"default", "skipped"}, cat.Names())

	ds, err := cat.Get("default")
	require.NoError(t, err)
	assert.Equal(t, "Default dataset", ds.Title)
	assert.True(t, ds.Load)
	assert.Equal(t, []string{"eu_fsf", "us_ofac"}, ds.SourceNames)
	assert.True(t, ds.IsComposite())
	assert.Equal(t, "20240115100000", ds.Version())

	skipped, err := cat.Get("skipped")
	require.NoError(t, err)
	assert.False(t, skipped.Load)
	assert.False(t, skipped.IsComposite())
}

func TestCatalog_GetUnknownIsNotFound(t *testing.T) {
	cat, err := New(writeManifest(t, simpleManifest))
	require.NoError(t, err)

	_, err = cat.Get("nope")
	require.Error(t, err)
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))
}

func TestManifest_ResolveExternal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"datasets": []map[string]any{
				{
					"name":        "sanctions",
					"title":       "Consolidated Sanctions",
					"last_export": "2024-03-01T00:00:00Z",
					"sources":     []string{"eu_fsf"},
					"externals":   []string{"wd_peps"},
					"resources": []map[string]string{
						{"path": "entities.ftm.json", "url": "https://example.com/sanctions.json"},
						{"path": "entities.delta.json", "url": "https://example.com/sanctions.delta.json"},
					},
				},
			},
		})
	}))
	defer srv.Close()

	manifest := `
external:
  url: ` + srv.URL + `
  type: opensanctions
datasets:
  - name: local
    entities_url: https://example.com/local.json
`
	cat, err := New(writeManifest(t, manifest), WithHTTPClient(srv.Client()), WithTimeout(5*time.Second))
	require.NoError(t, err)

	assert.Equal(t, []string{"local", "sanctions"}, cat.Names())

	ds, err := cat.Get("sanctions")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/sanctions.json", ds.EntitiesURL)
	assert.Equal(t, "https://example.com/sanctions.delta.json", ds.DeltaURL)
	assert.Equal(t, []string{"eu_fsf", "wd_peps"}, ds.SourceNames)
}

func TestManifest_UnsupportedExternalType(t *testing.T) {
	manifest := `
external:
  url: https://example.com/index.json
  type: mystery
`
	_, err := New(writeManifest(t, manifest))
	require.Error(t, err)
}
