// Package match implements the batch query-by-example matcher: fan out
// candidate-generation queries for a batch of named example entities,
// score every candidate in-process, and trim results to
// threshold/cutoff/limit policies. The fan-out is bounded by a
// semaphore.Weighted rather than a fixed errgroup parallelism so one
// QUERY_CONCURRENCY gate is shared across a whole batch.
package match

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/sentryscreen/sentryscreen/internal/apierr"
	"github.com/sentryscreen/sentryscreen/internal/entity"
	"github.com/sentryscreen/sentryscreen/internal/indexstore"
	"github.com/sentryscreen/sentryscreen/internal/query"
	"github.com/sentryscreen/sentryscreen/internal/scoring"
)

// Example is a single named query entity in a /match batch request body.
type Example struct {
	Key    string
	Entity *entity.Entity
}

// Request carries every parameter a /match call accepts.
type Request struct {
	Alias          string
	Examples       []Example
	Algorithm      string
	ScoringConfig  scoring.Config
	Limit          int
	Threshold      float64
	Cutoff         float64
	CandidateLimit int
	Filters        query.Filters
}

// MatchedEntity is a single scored candidate returned for one example.
type MatchedEntity struct {
	Entity   *entity.Entity
	Score    float64
	Features map[string]float64
	Match    bool
}

// Response is one example key's results.
type Response struct {
	Status  string
	Query   *entity.Entity
	Results []MatchedEntity
	Total   uint64
}

// BatchResult is the complete /match response payload.
type BatchResult struct {
	Responses map[string]Response
	Algorithm string
	Limit     int
}

// Router fans a batch of examples out to candidate generation plus
// scoring, bounding concurrent candidate-generation queries with a
// semaphore shared across the whole batch.
type Router struct {
	store *indexstore.Store
	sem   *semaphore.Weighted
}

// NewRouter builds a Router. concurrency is QUERY_CONCURRENCY (default
// 50).
func NewRouter(store *indexstore.Store, concurrency int64) *Router {
	if concurrency <= 0 {
		concurrency = 50
	}
	return &Router{store: store, sem: semaphore.NewWeighted(concurrency)}
}

// Run executes the fan-out: one candidate-generation query plus scoring
// pass per example, bounded by the router's semaphore. Results are
// collected by key, not by completion order. Batch-size validation is
// the HTTP handler's job; Run only ever sees an in-range request.
func (r *Router) Run(ctx context.Context, req Request) (*BatchResult, error) {
	algo, ok := scoring.Lookup(req.Algorithm)
	if !ok {
		return nil, apierr.Invalid(fmt.Sprintf("unknown algorithm %q", req.Algorithm))
	}

	responses := make([]Response, len(req.Examples))
	g, gctx := errgroup.WithContext(ctx)

	for i, ex := range req.Examples {
		i, ex := i, ex
		g.Go(func() error {
			if err := r.sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer r.sem.Release(1)

			resp, err := r.runOne(gctx, req, ex, algo)
			if err != nil {
				if apierr.KindOf(err) == apierr.KindIndexNotReady {
					responses[i] = Response{Status: "error", Query: ex.Entity}
					return nil
				}
				return fmt.Errorf("match %q: %w", ex.Key, err)
			}
			responses[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]Response, len(req.Examples))
	for i, ex := range req.Examples {
		out[ex.Key] = responses[i]
	}
	return &BatchResult{Responses: out, Algorithm: algo.Name(), Limit: req.Limit}, nil
}

func (r *Router) runOne(ctx context.Context, req Request, ex Example, algo scoring.Algorithm) (Response, error) {
	filters := req.Filters
	filters.ExcludeIDs = append(append([]string{}, filters.ExcludeIDs...), excludeForEntity(ex.Entity)...)

	q := query.EntityQuery(filters, ex.Entity)
	size := req.CandidateLimit
	if size <= 0 {
		size = query.CandidatePoolSize(req.Limit, 1000, query.DefaultCandidatesMultiplier)
	}

	result, err := r.store.Search(ctx, req.Alias, q, indexstore.SearchOptions{Size: size})
	if err != nil {
		return Response{}, err
	}

	var scored []MatchedEntity
	for _, hit := range result.Hits {
		cand, _, err := indexstore.EntityFromFields(hit.Fields)
		if err != nil || cand == nil {
			continue
		}
		if excluded(cand, filters.ExcludeIDs) {
			continue
		}

		res := algo.Compare(ex.Entity, cand, req.ScoringConfig)
		if res.Score <= req.Cutoff {
			continue
		}
		scored = append(scored, MatchedEntity{
			Entity:   cand,
			Score:    res.Score,
			Features: res.Features,
			Match:    res.Score >= req.Threshold,
		})
		// Cooperative yield after every candidate comparison so a large
		// batch doesn't starve other in-flight requests.
		runtime.Gosched()
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if req.Limit > 0 && len(scored) > req.Limit {
		scored = scored[:req.Limit]
	}

	return Response{
		Status:  "ok",
		Query:   ex.Entity,
		Results: scored,
		Total:   result.Total,
	}, nil
}

// excludeForEntity returns extra exclusion ids for one example, appended
// to the batch-wide Filters.ExcludeIDs; it returns none. Kept as a hook
// point in case a future caller wants per-example exclusions distinct
// from the batch-wide exclude_entity_ids list.
func excludeForEntity(*entity.Entity) []string { return nil }

// excluded reports whether cand's canonical id or any of its referents
// appears in ids.
func excluded(cand *entity.Entity, ids []string) bool {
	for _, id := range ids {
		if cand.HasReferent(id) {
			return true
		}
	}
	return false
}
