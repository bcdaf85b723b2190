package indexstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/blevesearch/bleve/v2"
	bleveSearch "github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"
	"golang.org/x/sync/errgroup"

	"github.com/sentryscreen/sentryscreen/internal/apierr"
)

// SearchOptions carries the paging/sort/facet parameters a query builder
// assembles.
type SearchOptions struct {
	From    int
	Size    int
	Sort    []string // bleve SearchRequest sort strings, e.g. "-last_seen"
	Facets  []string
}

// SearchResult is the merged result of fanning a query out across every
// member of an alias.
type SearchResult struct {
	Total uint64
	Hits  []*bleveSearch.DocumentMatch
	Facets bleveSearch.FacetResults
}

// Search runs q against every index backing alias concurrently (an
// alias can back more than one dataset's versioned index), merging and
// re-sorting the per-member hits into a single ranked result.
func (s *Store) Search(ctx context.Context, alias string, q query.Query, opts SearchOptions) (*SearchResult, error) {
	members := s.AliasMembers(alias)
	if len(members) == 0 {
		return nil, apierr.IndexNotReady(fmt.Sprintf("alias %q has no members", alias), nil)
	}

	fetchSize := opts.From + opts.Size
	if fetchSize <= 0 {
		fetchSize = 10
	}

	results := make([]*bleve.SearchResult, len(members))
	g, gctx := errgroup.WithContext(ctx)
	for i, member := range members {
		i, member := i, member
		g.Go(func() error {
			idx, err := s.index(member)
			if err != nil {
				return err
			}
			req := bleve.NewSearchRequest(q)
			req.From = 0
			req.Size = fetchSize
			req.Fields = []string{"*"}
			if len(opts.Sort) > 0 {
				req.SortBy(opts.Sort)
			}
			for _, facet := range opts.Facets {
				req.AddFacet(facet, bleve.NewFacetRequest(facet, 50))
			}
			res, err := idx.SearchInContext(gctx, req)
			if err != nil {
				return fmt.Errorf("search %s: %w", member, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := &SearchResult{Facets: bleveSearch.FacetResults{}}
	var hits bleveSearch.DocumentMatchCollection
	for _, res := range results {
		merged.Total += res.Total
		hits = append(hits, res.Hits...)
		for name, fr := range res.Facets {
			merged.Facets[name] = mergeFacet(merged.Facets[name], fr)
		}
	}
	mergeSort(hits, opts.Sort)

	from := opts.From
	if from > len(hits) {
		from = len(hits)
	}
	end := from + opts.Size
	if opts.Size <= 0 || end > len(hits) {
		end = len(hits)
	}
	merged.Hits = hits[from:end]
	return merged, nil
}

// mergeSort orders the concatenated per-member hit lists by the
// requested sort order. Each member already sorted its own hits (and
// populated DocumentMatch.Sort) via SortBy, so a stable sort with the
// same comparator is a k-way merge honoring field sorts, with score as
// the fallback when no sort was requested.
func mergeSort(hits bleveSearch.DocumentMatchCollection, sortBy []string) {
	if len(sortBy) == 0 {
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
		return
	}
	so := bleveSearch.ParseSortOrderStrings(sortBy)
	cachedScoring := so.CacheIsScore()
	cachedDesc := so.CacheDescending()
	sort.SliceStable(hits, func(i, j int) bool {
		return so.Compare(cachedScoring, cachedDesc, hits[i], hits[j]) < 0
	})
}

// mergeFacet combines per-member facet counts. Bucket-level merging
// across shards needs term-by-term reconciliation that bleve's public
// API doesn't expose for externally fanned-out indices (only its own
// internal multi-index alias does this); as a pragmatic approximation
// for the common case of one dominant member per alias, the member with
// the larger total wins outright rather than attempting a partial merge
// that could silently double-count terms present in more than one
// member.
func mergeFacet(into, from *bleveSearch.FacetResult) *bleveSearch.FacetResult {
	if into == nil {
		return from
	}
	if from == nil {
		return into
	}
	if from.Total > into.Total {
		return from
	}
	return into
}
