package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sentryscreen/sentryscreen/internal/apierr"
	"github.com/sentryscreen/sentryscreen/internal/reconcile"
)

// reconcileService builds the per-request reconciliation facade over the
// shared match router; the service itself is stateless so constructing it
// per request costs nothing.
func (h *handlers) reconcileService() *reconcile.Service {
	return reconcile.NewService(
		h.d.Router,
		h.d.alias(),
		h.d.Config.MatchPage,
		h.d.Config.ScoreThreshold,
		h.d.Config.ScoreCutoff,
	)
}

// reconcileManifest implements GET /reconcile/{dataset}: the service
// discovery document tabular clients fetch before issuing queries.
func (h *handlers) reconcileManifest(w http.ResponseWriter, r *http.Request) {
	ds, err := h.resolveDataset(datasetParam(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.reconcileService().Manifest(ds, baseURL(r)))
}

// reconcileQuery implements POST /reconcile/{dataset}. Clients send the
// batch either as a form field "queries" holding a JSON object (the
// OpenRefine convention) or as a raw JSON body.
func (h *handlers) reconcileQuery(w http.ResponseWriter, r *http.Request) {
	ds, err := h.resolveDataset(datasetParam(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}

	queries, err := parseReconcileQueries(r)
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if len(queries) == 0 {
		WriteProblem(w, r, http.StatusBadRequest, "queries must not be empty")
		return
	}
	if len(queries) > h.d.Config.MaxBatch {
		WriteProblem(w, r, http.StatusBadRequest, "batch exceeds max_batch")
		return
	}

	results, err := h.reconcileService().Run(r.Context(), ds, queries)
	if err != nil {
		if apierr.KindOf(err) == apierr.KindInvalid {
			WriteProblem(w, r, http.StatusBadRequest, err.Error())
			return
		}
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func parseReconcileQueries(r *http.Request) (map[string]reconcile.Query, error) {
	var raw string
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			return nil, apierr.Invalid("malformed form body")
		}
		raw = r.PostFormValue("queries")
		if raw == "" {
			return nil, apierr.Invalid("queries form field is required")
		}
	}

	queries := map[string]reconcile.Query{}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &queries); err != nil {
			return nil, apierr.Invalid("queries field is not valid JSON")
		}
		return queries, nil
	}
	if err := json.NewDecoder(r.Body).Decode(&queries); err != nil {
		return nil, apierr.Invalid("request body is not a valid queries object")
	}
	return queries, nil
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
