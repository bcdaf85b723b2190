package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// traceVendorCode is the fixed local vendor code appended to an outbound
// W3C tracestate header.
const traceVendorCode = "sentryscreen"

type traceCtxKey struct{}

// TraceID extracts the trace id a handler should log alongside its other
// request fields.
func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceCtxKey{}).(string)
	return id
}

// TraceMiddleware puts an x-trace-id header on every response and
// handles W3C trace-context: a valid inbound traceparent's trace id is
// reused, otherwise a fresh one is generated, and traceparent/tracestate
// are emitted outbound.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID, parentSpan := parseTraceparent(r.Header.Get("traceparent"))
		if traceID == "" {
			traceID = strings.ReplaceAll(uuid.NewString(), "-", "")
		}
		spanID := newSpanID()

		ctx := context.WithValue(r.Context(), traceCtxKey{}, traceID)
		r = r.WithContext(ctx)

		w.Header().Set("x-trace-id", traceID)
		w.Header().Set("traceparent", "00-"+traceID+"-"+spanID+"-01")
		w.Header().Set("tracestate", traceVendorCode+"="+firstNonEmpty(parentSpan, spanID))

		next.ServeHTTP(w, r)
	})
}

// parseTraceparent extracts the trace id and parent span id from an
// inbound W3C traceparent header ("version-traceid-spanid-flags"),
// returning empty strings for anything malformed so the caller falls
// back to generating a fresh trace.
func parseTraceparent(h string) (traceID, spanID string) {
	parts := strings.Split(h, "-")
	if len(parts) != 4 {
		return "", ""
	}
	if len(parts[1]) != 32 || len(parts[2]) != 16 {
		return "", ""
	}
	return parts[1], parts[2]
}

func newSpanID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
