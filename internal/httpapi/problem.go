// Package httpapi wires the service's HTTP surface over go-chi/chi:
// GET /search/{dataset}, POST /match/{dataset},
// GET /entities/{id}[/adjacent[/{prop}]], the reconciliation endpoints,
// /healthz, /readyz, and /updatez.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sentryscreen/sentryscreen/internal/apierr"
)

// Problem is an RFC 7807 Problem Details response body, returned on
// every 4xx/5xx.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

var problemTitles = map[int]string{
	http.StatusBadRequest:          "Bad Request",
	http.StatusNotFound:            "Not Found",
	http.StatusUnprocessableEntity: "Unprocessable Entity",
	http.StatusServiceUnavailable:  "Service Unavailable",
	http.StatusForbidden:           "Forbidden",
	http.StatusInternalServerError: "Internal Server Error",
}

// WriteProblem writes an RFC 7807 response, always under
// application/problem+json, always carrying the request's x-trace-id
// alongside it.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	title, ok := problemTitles[status]
	if !ok {
		title = http.StatusText(status)
	}
	p := Problem{
		Type:     "https://sentryscreen.dev/errors/" + slugifyStatus(status),
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

func slugifyStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad-request"
	case http.StatusNotFound:
		return "not-found"
	case http.StatusUnprocessableEntity:
		return "validation-error"
	case http.StatusServiceUnavailable:
		return "service-unavailable"
	case http.StatusForbidden:
		return "forbidden"
	default:
		return "internal-error"
	}
}

// WriteError maps an error kind to its status code and writes the
// Problem Details body: NotFound -> 404, IndexNotReady -> 503,
// Invalid -> 400, anything else -> 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	switch apierr.KindOf(err) {
	case apierr.KindNotFound:
		WriteProblem(w, r, http.StatusNotFound, err.Error())
	case apierr.KindIndexNotReady:
		WriteProblem(w, r, http.StatusServiceUnavailable, err.Error())
	case apierr.KindInvalid:
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
	default:
		slog.Error("unhandled request error", "error", err, "path", r.URL.Path)
		WriteProblem(w, r, http.StatusInternalServerError, "internal error")
	}
}

// writeJSON encodes v as the success response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
