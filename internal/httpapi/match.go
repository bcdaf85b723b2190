package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sentryscreen/sentryscreen/internal/apierr"
	"github.com/sentryscreen/sentryscreen/internal/entity"
	matchpkg "github.com/sentryscreen/sentryscreen/internal/match"
	"github.com/sentryscreen/sentryscreen/internal/query"
	"github.com/sentryscreen/sentryscreen/internal/scoring"
)

// matchQueryBody is one entry of the request body's "queries" map: a
// schema tag plus property values.
type matchQueryBody struct {
	Schema     string              `json:"schema"`
	Properties map[string][]string `json:"properties"`
}

type matchRequestBody struct {
	Queries map[string]matchQueryBody `json:"queries"`
	Weights map[string]float64        `json:"weights"`
}

type matchResultEntity struct {
	entityDTO
	Score    float64            `json:"score"`
	Features map[string]float64 `json:"features"`
	Match    bool               `json:"match"`
}

type matchResponseEntry struct {
	Status  string              `json:"status"`
	Query   entityDTO           `json:"query"`
	Results []matchResultEntity `json:"results"`
	Total   uint64              `json:"total"`
}

type matchResponseBody struct {
	Responses map[string]matchResponseEntry `json:"responses"`
	Matcher   string                        `json:"matcher"`
	Limit     int                           `json:"limit"`
}

// match implements POST /match/{dataset}.
func (h *handlers) match(w http.ResponseWriter, r *http.Request) {
	ds, err := h.resolveDataset(datasetParam(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var body matchRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteProblem(w, r, http.StatusUnprocessableEntity, "malformed request body")
		return
	}
	if len(body.Queries) == 0 {
		WriteProblem(w, r, http.StatusBadRequest, "queries must not be empty")
		return
	}
	if len(body.Queries) > h.d.Config.MaxBatch {
		WriteProblem(w, r, http.StatusBadRequest, "batch exceeds max_batch")
		return
	}

	examples := make([]matchpkg.Example, 0, len(body.Queries))
	for key, qb := range body.Queries {
		e, err := entity.FromExample(qb.Schema, qb.Properties)
		if err != nil {
			WriteProblem(w, r, http.StatusBadRequest, "invalid schema in query "+key+": "+err.Error())
			return
		}
		examples = append(examples, matchpkg.Example{Key: key, Entity: e})
	}

	q := r.URL.Query()
	limit := intParam(q.Get("limit"), h.d.Config.MaxMatches)
	if limit > h.d.Config.MaxMatches {
		limit = h.d.Config.MaxMatches
	}
	threshold := floatParam(q.Get("threshold"), h.d.Config.ScoreThreshold)
	cutoff := floatParam(q.Get("cutoff"), h.d.Config.ScoreCutoff)
	algorithm := q.Get("algorithm")
	if algorithm == "" {
		algorithm = scoring.DefaultAlgorithm
	}

	filters := query.Filters{
		Datasets:        ds.SourceNames,
		ExcludeDatasets: q["exclude_dataset"],
		Schema:          q.Get("schema"),
		ExcludeSchemas:  q["exclude_schema"],
		ExcludeIDs:      q["exclude_entity_ids"],
		FieldFilters:    map[string][]string{},
	}
	if vals := q["topics"]; len(vals) > 0 {
		filters.FieldFilters["topics"] = vals
	}

	result, err := h.d.Router.Run(r.Context(), matchpkg.Request{
		Alias:         h.d.alias(),
		Examples:      examples,
		Algorithm:     algorithm,
		ScoringConfig: scoring.Config{Weights: body.Weights},
		Limit:         limit,
		Threshold:     threshold,
		Cutoff:        cutoff,
		Filters:       filters,
	})
	if err != nil {
		if apierr.KindOf(err) == apierr.KindInvalid {
			WriteProblem(w, r, http.StatusBadRequest, err.Error())
			return
		}
		WriteError(w, r, err)
		return
	}

	resp := matchResponseBody{Responses: map[string]matchResponseEntry{}, Matcher: result.Algorithm, Limit: result.Limit}
	for key, mr := range result.Responses {
		entry := matchResponseEntry{Status: mr.Status, Query: toDTO(mr.Query), Total: mr.Total}
		for _, res := range mr.Results {
			entry.Results = append(entry.Results, matchResultEntity{
				entityDTO: toDTO(res.Entity), Score: res.Score, Features: res.Features, Match: res.Match,
			})
		}
		resp.Responses[key] = entry
	}
	writeJSON(w, http.StatusOK, resp)
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func floatParam(raw string, fallback float64) float64 {
	if raw == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return f
}
