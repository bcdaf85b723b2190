// Package delta implements the updater's decision rules: given a dataset
// and the version currently aliased, decide whether a base-to-target
// transition can replay a sequence of delta files or needs a full
// rebuild, then stream the ADD/MOD/DEL operations that realize it. Ops
// are exposed as a range-over-func iterator so the indexer can consume
// them without buffering the whole stream in memory.
package delta

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/sentryscreen/sentryscreen/internal/catalog"
)

// Op tags a single change record in the delta/full stream.
type Op string

const (
	OpAdd Op = "ADD"
	OpMod Op = "MOD"
	OpDel Op = "DEL"
)

// Plan is the result of applying the decision rules: either a single
// full ingestion from the dataset's entities URL, or an ordered
// sequence of delta URLs to replay, plus the version the dataset will be
// at once the plan completes.
type Plan struct {
	Dataset   catalog.Dataset
	Full      bool
	DeltaURLs []string
	Target    string
}

// Empty reports whether this plan is a delta plan with nothing to do —
// needs_update's "no delta URLs and target == base" case.
func (p *Plan) Empty(baseVersion string) bool {
	return !p.Full && len(p.DeltaURLs) == 0 && p.Target == baseVersion
}

// NeedsUpdate is false when the dataset is not loaded, has no entities
// URL, or the plan is empty.
func NeedsUpdate(ds catalog.Dataset, baseVersion string, p *Plan) bool {
	if !ds.Load || ds.EntitiesURL == "" {
		return false
	}
	return !p.Empty(baseVersion)
}

// Fetcher builds Plans and streams their ops over HTTP.
type Fetcher struct {
	HTTPClient   *http.Client
	Timeout      time.Duration
	Logger       *slog.Logger
	DeltaEnabled bool
}

// NewFetcher returns a Fetcher with sane defaults; DeltaEnabled mirrors
// the DELTA_UPDATES setting.
func NewFetcher(deltaEnabled bool) *Fetcher {
	return &Fetcher{
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		Timeout:      30 * time.Second,
		Logger:       slog.Default(),
		DeltaEnabled: deltaEnabled,
	}
}

// deltaIndexDoc is the JSON shape fetched from a dataset's delta_url: a
// map from version string to the NDJSON stream URL for that version's
// changes.
type deltaIndexDoc map[string]string

// Plan applies the four update decision rules, in order.
func (f *Fetcher) Plan(ds catalog.Dataset, baseVersion string, forceFull bool) (*Plan, error) {
	target := ds.Version()

	// Rule 1: force_full, no delta_url, or deltas globally disabled.
	if forceFull || ds.DeltaURL == "" || !f.DeltaEnabled {
		return &Plan{Dataset: ds, Full: true, Target: target}, nil
	}

	// Rule 2: no base version recorded yet.
	if baseVersion == "" {
		return &Plan{Dataset: ds, Full: true, Target: target}, nil
	}

	// Rule 3/4: fetch the delta index and decide coverage.
	idx, err := f.fetchDeltaIndex(ds.DeltaURL)
	if err != nil {
		f.Logger.Warn("delta index fetch failed, falling back to full ingestion",
			"dataset", ds.Name, "error", err)
		return &Plan{Dataset: ds, Full: true, Target: target}, nil
	}
	versions := make([]string, 0, len(idx))
	for v := range idx {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	if len(versions) == 0 || baseVersion < versions[0] {
		return &Plan{Dataset: ds, Full: true, Target: target}, nil
	}

	var urls []string
	maxVersion := versions[0]
	for _, v := range versions {
		if v > baseVersion && v <= target {
			urls = append(urls, idx[v])
		}
		if v > maxVersion {
			maxVersion = v
		}
	}
	return &Plan{Dataset: ds, Full: false, DeltaURLs: urls, Target: maxVersion}, nil
}

func (f *Fetcher) fetchDeltaIndex(url string) (deltaIndexDoc, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build delta index request: %w", err)
	}
	resp, err := f.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch delta index: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("delta index fetch: status %d", resp.StatusCode)
	}
	var idx deltaIndexDoc
	if err := json.NewDecoder(resp.Body).Decode(&idx); err != nil {
		return nil, fmt.Errorf("decode delta index: %w", err)
	}
	return idx, nil
}

func (f *Fetcher) httpClient() *http.Client {
	if f.HTTPClient != nil {
		return f.HTTPClient
	}
	return &http.Client{Timeout: f.Timeout}
}
