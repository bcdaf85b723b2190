// Package reconcile implements the OpenRefine reconciliation protocol
// over the entity index: a service manifest for discovery and a batched
// query endpoint. Queries ride the same candidate-generation and scoring
// pipeline the batch matcher uses; this package only translates between
// the reconciliation wire shapes and match.Request/match.Response.
package reconcile

import (
	"context"
	"fmt"
	"sort"

	"github.com/sentryscreen/sentryscreen/internal/apierr"
	"github.com/sentryscreen/sentryscreen/internal/catalog"
	"github.com/sentryscreen/sentryscreen/internal/entity"
	"github.com/sentryscreen/sentryscreen/internal/match"
	"github.com/sentryscreen/sentryscreen/internal/query"
	"github.com/sentryscreen/sentryscreen/internal/scoring"
)

// Query is one named reconciliation query: free text plus an optional
// type (schema) constraint and property hints.
type Query struct {
	Query      string     `json:"query"`
	Type       string     `json:"type"`
	Limit      int        `json:"limit"`
	Properties []Property `json:"properties"`
}

// Property is a pid/value hint attached to a reconciliation query. V is
// left loosely typed because clients send strings, numbers, lists, and
// {"id": ...} objects interchangeably.
type Property struct {
	PID string `json:"pid"`
	V   any    `json:"v"`
}

// TypeRef names an entity schema in protocol responses.
type TypeRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Candidate is a single scored reconciliation result. Score is on the
// protocol's 0-100 scale.
type Candidate struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Score float64   `json:"score"`
	Match bool      `json:"match"`
	Type  []TypeRef `json:"type"`
}

// QueryResult is the per-key result envelope.
type QueryResult struct {
	Result []Candidate `json:"result"`
}

// Manifest is the service discovery document returned on GET. Only the
// fields tabular clients actually read are included.
type Manifest struct {
	Versions        []string     `json:"versions"`
	Name            string       `json:"name"`
	IdentifierSpace string       `json:"identifierSpace"`
	SchemaSpace     string       `json:"schemaSpace"`
	View            ManifestView `json:"view"`
	DefaultTypes    []TypeRef    `json:"defaultTypes"`
}

// ManifestView tells clients how to turn a result id into a URL.
type ManifestView struct {
	URL string `json:"url"`
}

// Service answers reconciliation requests for one deployment.
type Service struct {
	router    *match.Router
	alias     string
	limit     int
	threshold float64
	cutoff    float64
}

// NewService wires a Service onto the shared match router. limit caps
// per-query results; threshold and cutoff are the deployment's scoring
// defaults.
func NewService(router *match.Router, alias string, limit int, threshold, cutoff float64) *Service {
	if limit <= 0 {
		limit = 10
	}
	return &Service{router: router, alias: alias, limit: limit, threshold: threshold, cutoff: cutoff}
}

// Manifest builds the discovery document for one dataset.
func (s *Service) Manifest(ds catalog.Dataset, baseURL string) Manifest {
	return Manifest{
		Versions:        []string{"0.2"},
		Name:            fmt.Sprintf("sentryscreen (%s)", ds.Name),
		IdentifierSpace: baseURL + "/entities/",
		SchemaSpace:     baseURL + "/schemata/",
		View:            ManifestView{URL: baseURL + "/entities/{{id}}"},
		DefaultTypes: []TypeRef{
			{ID: "Person", Name: "Person"},
			{ID: "Organization", Name: "Organization"},
			{ID: "Company", Name: "Company"},
			{ID: "Vessel", Name: "Vessel"},
		},
	}
}

// Run executes a batch of named reconciliation queries against ds,
// returning per-key results. An unknown type in any query fails the
// whole batch, matching the matcher's batch-level schema validation.
func (s *Service) Run(ctx context.Context, ds catalog.Dataset, queries map[string]Query) (map[string]QueryResult, error) {
	examples := make([]match.Example, 0, len(queries))
	limits := make(map[string]int, len(queries))

	keys := make([]string, 0, len(queries))
	for key := range queries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	maxLimit := 0
	for _, key := range keys {
		rq := queries[key]
		ex, err := toExample(rq)
		if err != nil {
			return nil, apierr.Invalid(fmt.Sprintf("query %q: %v", key, err))
		}
		limit := rq.Limit
		if limit <= 0 || limit > s.limit {
			limit = s.limit
		}
		limits[key] = limit
		if limit > maxLimit {
			maxLimit = limit
		}
		examples = append(examples, match.Example{Key: key, Entity: ex})
	}

	// Reconciliation queries are overwhelmingly name-only, so the pure
	// name comparator scores them better than the multi-feature default,
	// which caps a name-only match at its name weight.
	result, err := s.router.Run(ctx, match.Request{
		Alias:     s.alias,
		Examples:  examples,
		Algorithm: scoring.NameBased{}.Name(),
		Limit:     maxLimit,
		Threshold: s.threshold,
		Cutoff:    s.cutoff,
		Filters:   query.Filters{Datasets: ds.SourceNames},
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string]QueryResult, len(queries))
	for key, resp := range result.Responses {
		qr := QueryResult{Result: []Candidate{}}
		for _, m := range resp.Results {
			if len(qr.Result) >= limits[key] {
				break
			}
			qr.Result = append(qr.Result, Candidate{
				ID:    m.Entity.ID,
				Name:  caption(m.Entity),
				Score: m.Score * 100,
				Match: m.Match,
				Type:  []TypeRef{{ID: m.Entity.Schema, Name: m.Entity.Schema}},
			})
		}
		out[key] = qr
	}
	return out, nil
}

// toExample converts one reconciliation query into a query-by-example
// entity: the free text becomes a name, the pid hints become property
// values, and a missing type defaults to the taxonomy root.
func toExample(rq Query) (*entity.Entity, error) {
	schema := rq.Type
	if schema == "" {
		schema = "Thing"
	}
	props := map[string][]string{}
	if rq.Query != "" {
		props["name"] = []string{rq.Query}
	}
	for _, p := range rq.Properties {
		if p.PID == "" {
			continue
		}
		props[p.PID] = append(props[p.PID], flatten(p.V)...)
	}
	return entity.FromExample(schema, props)
}

// flatten extracts string values from a loosely typed property hint.
func flatten(v any) []string {
	switch val := v.(type) {
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	case float64:
		return []string{fmt.Sprintf("%v", val)}
	case map[string]any:
		if id, ok := val["id"].(string); ok {
			return []string{id}
		}
		if name, ok := val["name"].(string); ok {
			return []string{name}
		}
	case []any:
		var out []string
		for _, item := range val {
			out = append(out, flatten(item)...)
		}
		return out
	}
	return nil
}

func caption(e *entity.Entity) string {
	if e.Caption != "" {
		return e.Caption
	}
	if names := e.Get("name"); len(names) > 0 {
		return names[0]
	}
	return e.ID
}
