// Package config loads sentryscreen's runtime configuration: a typed
// Config struct filled from a YAML file, then a layer of
// environment-variable overrides, then a Validate() pass before the
// server starts serving.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete sentryscreen runtime configuration.
type Config struct {
	// Prefix names the deployment (INDEX_NAME): the alias is
	// "{prefix}-entities" and each dataset index is
	// "{prefix}-entities-{dataset}-{index_version}{version}".
	Prefix string `yaml:"index_name"`

	// SoftwarePrefix is the 3-character code bumped on mapping-breaking
	// changes (INDEX_VERSION).
	SoftwarePrefix string `yaml:"index_version"`

	// IndexURL/IndexUsername/IndexPassword/IndexType describe the backing
	// search cluster (INDEX_URL, INDEX_USERNAME/PASSWORD, INDEX_TYPE).
	// sentryscreen embeds blevesearch/bleve/v2 in place of a remote
	// Elasticsearch/OpenSearch cluster, so these fields are accepted and
	// surfaced for operational parity but do not select a client driver.
	IndexURL      string `yaml:"index_url"`
	IndexUsername string `yaml:"index_username"`
	IndexPassword string `yaml:"index_password"`
	IndexType     string `yaml:"index_type"`

	// DataDir roots the embedded index store on disk. Empty means every
	// index lives in memory only (indexstore.New's bleve.NewMemOnly mode).
	DataDir string `yaml:"data_dir"`

	// Manifest is the filesystem path to the dataset manifest (MANIFEST).
	Manifest string `yaml:"manifest"`

	// UpdateToken authorizes POST /updatez (UPDATE_TOKEN).
	UpdateToken string `yaml:"update_token"`

	// AutoReindex enables the background Scheduler loop (AUTO_REINDEX).
	AutoReindex bool `yaml:"auto_reindex"`

	// DeltaUpdates enables delta-stream ingestion instead of always doing
	// a full rebuild (DELTA_UPDATES).
	DeltaUpdates bool `yaml:"delta_updates"`

	// MatchFuzzy enables AUTO fuzziness on free-text and match queries by
	// default (MATCH_FUZZY).
	MatchFuzzy bool `yaml:"match_fuzzy"`

	// MatchPage is the default /search page size (MATCH_PAGE).
	MatchPage int `yaml:"match_page"`

	// MaxMatches is the default and the hard cap for the /match result
	// `limit` (MAX_MATCHES). /search caps its `limit` at a fixed 500.
	MaxMatches int `yaml:"max_matches"`

	// MaxBatch is the maximum number of queries a single /match request
	// may carry (MAX_BATCH).
	MaxBatch int `yaml:"max_batch"`

	// MatchCandidates is the candidate-pool multiplier applied to a
	// requested limit before scoring trims it down (MATCH_CANDIDATES,
	// query.CandidatePoolSize's multiplier).
	MatchCandidates int `yaml:"match_candidates"`

	// ScoreThreshold is the default score at/above which a result is
	// flagged `match = true` (SCORE_THRESHOLD).
	ScoreThreshold float64 `yaml:"score_threshold"`

	// ScoreCutoff is the default score at or below which a result is
	// dropped entirely (SCORE_CUTOFF).
	ScoreCutoff float64 `yaml:"score_cutoff"`

	// QueryConcurrency bounds the number of candidate-generation queries a
	// single /match batch may run concurrently (QUERY_CONCURRENCY).
	QueryConcurrency int64 `yaml:"query_concurrency"`

	// Crontab is an external cron expression documenting when an operator
	// expects /updatez to be triggered out-of-process. sentryscreen also
	// accepts the "@every <duration>" shorthand here to drive its own
	// internal Scheduler interval directly; anything else falls back to
	// AutoReindexInterval.
	Crontab string `yaml:"crontab"`

	// HTTPProxy is the outbound proxy used for dataset/delta fetches
	// (HTTP_PROXY), applied via http.ProxyURL in the catalog/delta HTTP
	// clients.
	HTTPProxy string `yaml:"http_proxy"`

	// AutoReindexInterval is the Scheduler's fallback tick interval when
	// Crontab doesn't parse as an "@every" shorthand.
	AutoReindexInterval string `yaml:"auto_reindex_interval"`

	// Port is the HTTP listen port.
	Port int `yaml:"port"`

	// LogLevel is the slog level name (debug/info/warn/error).
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() *Config {
	return &Config{
		Prefix:              "sentryscreen",
		SoftwarePrefix:      "001",
		IndexType:           "opensearch",
		DataDir:             "",
		Manifest:            "manifest.yml",
		AutoReindex:         true,
		DeltaUpdates:        true,
		MatchFuzzy:          true,
		MatchPage:           20,
		MaxMatches:          500,
		MaxBatch:            100,
		MatchCandidates:     10,
		ScoreThreshold:      0.7,
		ScoreCutoff:         0.5,
		QueryConcurrency:    50,
		AutoReindexInterval: "1h",
		Port:                8080,
		LogLevel:            "info",
	}
}

// Load reads path (if it exists) as YAML over the defaults, then applies
// environment-variable overrides, then validates the result. A missing
// file is not an error: defaults plus environment are enough to run.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides layers the environment variables on top of the
// file-loaded config; the environment is the highest-priority layer.
func applyEnvOverrides(cfg *Config) {
	str(&cfg.IndexURL, "INDEX_URL")
	str(&cfg.IndexUsername, "INDEX_USERNAME")
	str(&cfg.IndexPassword, "INDEX_PASSWORD")
	str(&cfg.IndexType, "INDEX_TYPE")
	str(&cfg.Prefix, "INDEX_NAME")
	str(&cfg.SoftwarePrefix, "INDEX_VERSION")
	str(&cfg.Manifest, "MANIFEST")
	str(&cfg.UpdateToken, "UPDATE_TOKEN")
	str(&cfg.Crontab, "CRONTAB")
	str(&cfg.HTTPProxy, "HTTP_PROXY")

	boolean(&cfg.AutoReindex, "AUTO_REINDEX")
	boolean(&cfg.DeltaUpdates, "DELTA_UPDATES")
	boolean(&cfg.MatchFuzzy, "MATCH_FUZZY")

	integer(&cfg.MatchPage, "MATCH_PAGE")
	integer(&cfg.MaxMatches, "MAX_MATCHES")
	integer(&cfg.MaxBatch, "MAX_BATCH")
	integer(&cfg.MatchCandidates, "MATCH_CANDIDATES")
	integer64(&cfg.QueryConcurrency, "QUERY_CONCURRENCY")

	float(&cfg.ScoreThreshold, "SCORE_THRESHOLD")
	float(&cfg.ScoreCutoff, "SCORE_CUTOFF")
}

func str(dst *string, env string) {
	if v, ok := os.LookupEnv(env); ok && v != "" {
		*dst = v
	}
}

func boolean(dst *bool, env string) {
	if v, ok := os.LookupEnv(env); ok && v != "" {
		*dst = strings.EqualFold(v, "true") || v == "1"
	}
}

func integer(dst *int, env string) {
	if v, ok := os.LookupEnv(env); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func integer64(dst *int64, env string) {
	if v, ok := os.LookupEnv(env); ok && v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func float(dst *float64, env string) {
	if v, ok := os.LookupEnv(env); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

// Validate checks the invariants the rest of the module assumes hold.
func (c *Config) Validate() error {
	if c.Prefix == "" {
		return fmt.Errorf("index_name must not be empty")
	}
	if len(c.SoftwarePrefix) != 3 {
		return fmt.Errorf("index_version must be exactly 3 characters, got %q", c.SoftwarePrefix)
	}
	if c.IndexType != "elasticsearch" && c.IndexType != "opensearch" {
		return fmt.Errorf("index_type must be elasticsearch or opensearch, got %q", c.IndexType)
	}
	if c.Manifest == "" {
		return fmt.Errorf("manifest must not be empty")
	}
	if c.MaxBatch <= 0 {
		return fmt.Errorf("max_batch must be positive, got %d", c.MaxBatch)
	}
	if c.MaxMatches <= 0 {
		return fmt.Errorf("max_matches must be positive, got %d", c.MaxMatches)
	}
	if c.MatchPage <= 0 || c.MatchPage > c.MaxMatches {
		return fmt.Errorf("match_page must be in (0, max_matches], got %d", c.MatchPage)
	}
	if c.ScoreThreshold < 0 || c.ScoreThreshold > 1 {
		return fmt.Errorf("score_threshold must be in [0,1], got %f", c.ScoreThreshold)
	}
	if c.ScoreCutoff < 0 || c.ScoreCutoff > c.ScoreThreshold {
		return fmt.Errorf("score_cutoff must be in [0, score_threshold], got %f", c.ScoreCutoff)
	}
	if c.QueryConcurrency <= 0 {
		return fmt.Errorf("query_concurrency must be positive, got %d", c.QueryConcurrency)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	return nil
}

// ReindexInterval resolves Crontab's "@every <duration>" shorthand, or
// falls back to AutoReindexInterval, for the Scheduler's tick period.
func (c *Config) ReindexInterval() string {
	if strings.HasPrefix(c.Crontab, "@every ") {
		return strings.TrimPrefix(c.Crontab, "@every ")
	}
	return c.AutoReindexInterval
}
