package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// healthzBody is the liveness payload. /healthz is 200 always, so it
// carries no readiness signal.
type healthzBody struct {
	Status string `json:"status"`
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthzBody{Status: "ok"})
}

type readyzBody struct {
	Ready       bool              `json:"ready"`
	OpenIndices int               `json:"open_indices"`
	Alias       string            `json:"alias"`
	Datasets    map[string]string `json:"datasets,omitempty"`
}

// readyz reports readiness. bleve has no cluster-health concept, so
// readiness means the global alias currently has at least one member;
// the alias is empty only before the first successful convergence.
func (h *handlers) readyz(w http.ResponseWriter, r *http.Request) {
	alias := h.d.alias()
	members := h.d.Store.AliasMembers(alias)
	health := h.d.Store.Health()

	body := readyzBody{Ready: health.Ready && len(members) > 0, OpenIndices: health.OpenIndices, Alias: alias}
	if h.d.State != nil {
		if states, err := h.d.State.All(r.Context()); err == nil && len(states) > 0 {
			body.Datasets = make(map[string]string, len(states))
			for _, st := range states {
				body.Datasets[st.Dataset] = st.Version
			}
		}
	}
	status := http.StatusOK
	if !body.Ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, body)
}

// updatez triggers a single dataset's convergence on demand. Auth is
// enforced by the UpdateAuth middleware wrapping this route.
func (h *handlers) updatez(w http.ResponseWriter, r *http.Request) {
	dataset := r.URL.Query().Get("dataset")
	if dataset == "" {
		WriteProblem(w, r, http.StatusBadRequest, "dataset query parameter is required")
		return
	}
	sync, _ := strconv.ParseBool(r.URL.Query().Get("sync"))

	result, err := h.d.Scheduler.Trigger(r.Context(), dataset, sync)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func datasetParam(r *http.Request) string { return chi.URLParam(r, "dataset") }
