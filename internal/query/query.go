// Package query builds bleve query.Query trees for the two access
// patterns the service serves: free-text search with filters, and
// candidate generation for an example entity. Every query shape shares
// one filter envelope (datasets, schema subtree, per-field terms,
// id exclusions) so filter semantics cannot drift between endpoints.
package query

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sentryscreen/sentryscreen/internal/entity"
	"github.com/sentryscreen/sentryscreen/internal/indexstore"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// DefaultCandidatesMultiplier is the default factor applied to a
// requested result limit to size the candidate pool.
const DefaultCandidatesMultiplier = 10

// matchableCache memoizes schema -> matchable descendant set lookups;
// Descendants walks the whole lattice on every call and this sits on the
// request path.
var matchableCache, _ = lru.New[string, []string](256)

// Filters is the shared filter envelope every query (full-text or
// candidate generation) is built inside: terms on datasets, terms on the
// schema subtree, per-field term filters, and id exclusions.
type Filters struct {
	Datasets        []string
	ExcludeDatasets []string
	Schema          string
	SchemaExpand    bool // widen Schema to its matchable descendants, not just itself
	ExcludeSchemas  []string
	FieldFilters    map[string][]string
	ExcludeIDs      []string
}

// filterQuery builds the filter clauses shared by every query shape.
func filterQuery(f Filters) []query.Query {
	var filters []query.Query

	if len(f.Datasets) > 0 {
		filters = append(filters, termsQuery(indexstore.FieldDatasets, f.Datasets))
	}
	for _, ds := range f.ExcludeDatasets {
		filters = append(filters, mustNotTerm(indexstore.FieldDatasets, ds))
	}

	if f.Schema != "" {
		schemas := []string{f.Schema}
		if f.SchemaExpand {
			schemas = descendants(f.Schema)
		}
		filters = append(filters, termsQuery(indexstore.FieldSchema, schemas))
	}
	for _, schema := range f.ExcludeSchemas {
		filters = append(filters, mustNotTerm(indexstore.FieldSchema, schema))
	}

	for field, values := range f.FieldFilters {
		if len(values) == 0 {
			continue
		}
		filters = append(filters, termsQuery(field, values))
	}

	for _, id := range f.ExcludeIDs {
		mnq := bleve.NewMatchQuery(id)
		mnq.SetField(indexstore.FieldID)
		not := bleve.NewBooleanQuery()
		not.AddMustNot(mnq)
		canonicalExclude := bleve.NewTermQuery(id)
		canonicalExclude.SetField(indexstore.FieldCanonicalID)
		mustNotCanonical := bleve.NewBooleanQuery()
		mustNotCanonical.AddMustNot(canonicalExclude)
		filters = append(filters, not, mustNotCanonical)
	}

	return filters
}

// mustNotTerm builds a single-clause bool query excluding field==value,
// the same shape filterQuery already uses for ExcludeIDs.
func mustNotTerm(field, value string) query.Query {
	t := bleve.NewTermQuery(value)
	t.SetField(field)
	b := bleve.NewBooleanQuery()
	b.AddMustNot(t)
	return b
}

func descendants(schema string) []string {
	if cached, ok := matchableCache.Get(schema); ok {
		return cached
	}
	d := entity.Descendants(schema)
	matchableCache.Add(schema, d)
	return d
}

// termsQuery builds an OR-of-term clause over a keyword field (the
// equivalent of an Elasticsearch terms filter) — a disjunction of exact
// TermQuery clauses since bleve has no native multi-value term query.
func termsQuery(field string, values []string) query.Query {
	if len(values) == 1 {
		t := bleve.NewTermQuery(values[0])
		t.SetField(field)
		return t
	}
	disjuncts := make([]query.Query, 0, len(values))
	for _, v := range values {
		t := bleve.NewTermQuery(v)
		t.SetField(field)
		disjuncts = append(disjuncts, t)
	}
	dq := bleve.NewDisjunctionQuery(disjuncts...)
	dq.SetMin(1)
	return dq
}

// TextSearchOptions configures the full-text search shape.
type TextSearchOptions struct {
	Q     string
	Fuzzy bool
}

// TextQuery builds the full-text search query: a bool envelope of
// Filters plus a single should clause matching q against names^3 and
// text, defaulting to an AND operator between q's terms, with AUTO
// fuzziness when Fuzzy is set.
func TextQuery(f Filters, opts TextSearchOptions) (query.Query, error) {
	filters := filterQuery(f)

	if strings.TrimSpace(opts.Q) == "" {
		if len(filters) == 0 {
			return bleve.NewMatchAllQuery(), nil
		}
		return wrapFilters(filters, nil), nil
	}

	nameMatch := bleve.NewMatchQuery(opts.Q)
	nameMatch.SetField(indexstore.FieldNames)
	nameMatch.SetBoost(3)
	nameMatch.Operator = query.MatchQueryOperatorAnd
	if opts.Fuzzy {
		nameMatch.Fuzziness = autoFuzziness(opts.Q)
	}

	textMatch := bleve.NewMatchQuery(opts.Q)
	textMatch.SetField(indexstore.FieldText)
	textMatch.Operator = query.MatchQueryOperatorAnd
	if opts.Fuzzy {
		textMatch.Fuzziness = autoFuzziness(opts.Q)
	}

	should := bleve.NewDisjunctionQuery(nameMatch, textMatch)
	should.SetMin(1)

	return wrapFilters(filters, should), nil
}

// autoFuzziness picks an edit distance with Elasticsearch's AUTO
// thresholds: 0 up to 2 characters, 1 up to 5, 2 beyond. The length is
// that of the whole trimmed query string, not of each term, and the one
// distance applies to every term.
func autoFuzziness(q string) int {
	n := len(strings.TrimSpace(q))
	switch {
	case n <= 2:
		return 0
	case n <= 5:
		return 1
	default:
		return 2
	}
}

// PrefixQuery builds the prefix-suggest query: a phrase match on names.
// Elasticsearch's match_phrase_prefix with slop has no bleve equivalent
// exposed on MatchPhraseQuery, so this approximates it with an ordered
// phrase match; it does not complete a partial last token.
// PrefixTermQuery builds a separate pure prefix query for that case.
func PrefixQuery(f Filters, prefix string) query.Query {
	filters := filterQuery(f)
	mpp := bleve.NewMatchPhraseQuery(prefix)
	mpp.SetField(indexstore.FieldNames)
	return wrapFilters(filters, mpp)
}

// PrefixTermQuery builds a pure prefix query against names for
// short/partial-token suggest, using bleve's native PrefixQuery.
func PrefixTermQuery(f Filters, prefix string) query.Query {
	filters := filterQuery(f)
	pq := bleve.NewPrefixQuery(strings.ToLower(prefix))
	pq.SetField(indexstore.FieldNames)
	return wrapFilters(filters, pq)
}

func wrapFilters(filters []query.Query, should query.Query) query.Query {
	if len(filters) == 0 && should == nil {
		return bleve.NewMatchAllQuery()
	}
	b := bleve.NewBooleanQuery()
	for _, f := range filters {
		b.AddMust(f)
	}
	if should != nil {
		b.AddMust(should)
	}
	if len(filters) == 0 && should != nil {
		return should
	}
	return b
}

// ParseSorts turns repeated "field:asc|desc" strings into bleve
// SearchRequest sort strings, always appending "-_score" (score
// descending) as the final tiebreak key, with bleve's "-field" prefix
// meaning descending.
func ParseSorts(raw []string) []string {
	out := make([]string, 0, len(raw)+1)
	for _, r := range raw {
		field, dir, _ := strings.Cut(r, ":")
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if strings.EqualFold(dir, "desc") {
			out = append(out, "-"+field)
		} else {
			out = append(out, field)
		}
	}
	out = append(out, "-_score")
	return out
}

// CandidatePoolSize computes the candidate pool as
// max(20, min(maxResults, limit * multiplier)).
func CandidatePoolSize(limit, maxResults, multiplier int) int {
	if multiplier <= 0 {
		multiplier = DefaultCandidatesMultiplier
	}
	size := limit * multiplier
	if size > maxResults {
		size = maxResults
	}
	if size < 20 {
		size = 20
	}
	return size
}

// ErrInvalidQuery marks a query-building failure the HTTP layer must map
// to a 400, not a 500.
type ErrInvalidQuery struct {
	Reason string
}

func (e *ErrInvalidQuery) Error() string {
	return fmt.Sprintf("invalid query: %s", e.Reason)
}
