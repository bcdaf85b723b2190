package query

import (
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/sentryscreen/sentryscreen/internal/entity"
)

// maxDistinctNames is the threshold past which per-name match clauses
// are collapsed into a single concatenated clause to avoid exceeding the
// backend's boolean clause limit.
const maxDistinctNames = 4

// EntityQuery builds the candidate-generation query for an example
// entity: per-property-type match clauses combined as a should under the
// shared filter envelope, with a minimum of one matching clause.
func EntityQuery(f Filters, e *entity.Entity) query.Query {
	filters := filterQuery(f)

	names := distinctNormalizedNames(e)
	var should []query.Query
	if len(names) > 0 {
		should = append(should, namesClause(names)...)
	}

	props := entity.Properties(e.Schema)
	for prop, vals := range e.Properties {
		pt, ok := props[prop]
		if !ok || pt == entity.PropName {
			continue
		}
		for _, v := range vals {
			if v.Raw == "" {
				continue
			}
			switch {
			case pt.IsFreeText():
				m := bleve.NewMatchQuery(v.Raw)
				m.SetField(pt.Group())
				should = append(should, m)
			case pt.Group() != "":
				t := bleve.NewTermQuery(v.Raw)
				t.SetField(pt.Group())
				should = append(should, t)
			default:
				mp := bleve.NewMatchPhraseQuery(v.Raw)
				mp.SetField("text")
				should = append(should, mp)
			}
		}
	}

	if len(should) == 0 {
		return wrapFilters(filters, nil)
	}
	disjunction := bleve.NewDisjunctionQuery(should...)
	disjunction.SetMin(1)
	return wrapFilters(filters, disjunction)
}

// namesClause builds the name-matching should clauses: one high-boost
// AUTO-fuzzy match per name when there are few distinct names, or a
// single concatenated match otherwise.
func namesClause(names []string) []query.Query {
	if len(names) <= maxDistinctNames {
		clauses := make([]query.Query, 0, len(names))
		for _, n := range names {
			m := bleve.NewMatchQuery(n)
			m.SetField("names")
			m.SetBoost(3)
			m.Fuzziness = autoFuzziness(n)
			clauses = append(clauses, m)
		}
		return clauses
	}
	m := bleve.NewMatchQuery(strings.Join(names, " "))
	m.SetField("names")
	m.SetBoost(3)
	return []query.Query{m}
}

// distinctNormalizedNames collects every name-typed property value,
// normalized and deduplicated, across the entity.
func distinctNormalizedNames(e *entity.Entity) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range e.GetTypeValues(entity.PropName) {
		norm := entity.SafeString(v)
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		out = append(out, norm)
	}
	sort.Strings(out)
	return out
}
