package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/blevesearch/bleve/v2"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/sentryscreen/sentryscreen/internal/apierr"
	"github.com/sentryscreen/sentryscreen/internal/indexstore"
	"github.com/sentryscreen/sentryscreen/internal/query"
)

const (
	maxSearchLimit  = 500
	maxSearchOffset = 9499
)

type searchResponseEntity struct {
	entityDTO
	Score float64 `json:"score"`
}

type searchResponse struct {
	Results []searchResponseEntity  `json:"results"`
	Total   uint64                  `json:"total"`
	Facets  map[string]facetResult  `json:"facets,omitempty"`
}

type facetResult struct {
	Values map[string]int `json:"values"`
}

// search implements GET /search/{dataset}.
func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	ds, err := h.resolveDataset(datasetParam(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}

	q := r.URL.Query()

	limit, offset, err := parsePaging(q)
	if err != nil {
		WriteProblem(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	filters := query.Filters{
		Datasets:        ds.SourceNames,
		ExcludeDatasets: q["exclude_dataset"],
		Schema:          q.Get("schema"),
		SchemaExpand:    true,
		ExcludeSchemas:  q["exclude_schema"],
		FieldFilters:    map[string][]string{},
	}
	if vals := q["countries"]; len(vals) > 0 {
		filters.FieldFilters["countries"] = vals
	}
	if vals := q["topics"]; len(vals) > 0 {
		filters.FieldFilters["topics"] = vals
	}

	fuzzy := parseBool(q.Get("fuzzy"), h.d.Config.MatchFuzzy)
	base, err := query.TextQuery(filters, query.TextSearchOptions{Q: q.Get("q"), Fuzzy: fuzzy})
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}

	built, err := applySearchExtras(base, q)
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}

	opts := indexstore.SearchOptions{
		From:   offset,
		Size:   limit,
		Sort:   query.ParseSorts(q["sort"]),
		Facets: q["facets"],
	}

	alias := h.d.alias()
	result, err := h.d.Store.Search(r.Context(), alias, built, opts)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	resp := searchResponse{Total: result.Total}
	for _, hit := range result.Hits {
		e, _, err := indexstore.EntityFromFields(hit.Fields)
		if err != nil || e == nil {
			continue
		}
		resp.Results = append(resp.Results, searchResponseEntity{entityDTO: toDTO(e), Score: float64(hit.Score)})
	}
	if len(result.Facets) > 0 {
		resp.Facets = map[string]facetResult{}
		for name, fr := range result.Facets {
			values := map[string]int{}
			if fr != nil && fr.Terms != nil {
				for _, term := range *fr.Terms {
					values[term.Term] = term.Count
				}
			}
			resp.Facets[name] = facetResult{Values: values}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// applySearchExtras layers the two filters TextQuery's Filters envelope
// doesn't express (a date-range and a boolean-field equality) onto the
// base query: changed_since, which for /search filters against
// last_seen, and target.
func applySearchExtras(base bleveQuery.Query, q map[string][]string) (bleveQuery.Query, error) {
	var extra []bleveQuery.Query

	if raw := first(q["changed_since"]); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, &query.ErrInvalidQuery{Reason: "changed_since must be RFC3339"}
		}
		dr := bleve.NewDateRangeQuery(t, time.Time{})
		dr.SetField(indexstore.FieldLastSeen)
		extra = append(extra, dr)
	}

	if raw := first(q["target"]); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, &query.ErrInvalidQuery{Reason: "target must be a boolean"}
		}
		bq := bleve.NewBoolFieldQuery(b)
		bq.SetField(indexstore.FieldTarget)
		extra = append(extra, bq)
	}

	if len(extra) == 0 {
		return base, nil
	}
	conj := bleve.NewConjunctionQuery(append([]bleveQuery.Query{base}, extra...)...)
	return conj, nil
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

func parseBool(raw string, fallback bool) bool {
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return b
}

// parsePaging validates limit/offset against the paging bounds (limit
// max 500, offset max 9499), returning a 422-worthy error for
// out-of-range paging.
func parsePaging(q map[string][]string) (limit, offset int, err error) {
	limit = 20
	offset = 0

	if raw := first(q["limit"]); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, apierr.Invalid("limit must be an integer")
		}
	}
	if limit <= 0 || limit > maxSearchLimit {
		return 0, 0, apierr.Invalid("limit out of range")
	}

	if raw := first(q["offset"]); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, apierr.Invalid("offset must be an integer")
		}
	}
	if offset < 0 || offset > maxSearchOffset {
		return 0, 0, apierr.Invalid("offset out of range")
	}
	return limit, offset, nil
}
