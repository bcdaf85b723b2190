package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sentryscreen/sentryscreen/internal/apierr"
	"github.com/sentryscreen/sentryscreen/internal/nested"
)

type entityResponse struct {
	entityDTO
	Properties map[string][]propertyValue `json:"properties_nested,omitempty"`
}

// propertyValue carries a nested entity-typed property value alongside
// its raw referenced id, letting clients walk one hop without a second
// request.
type propertyValue struct {
	ID     string    `json:"id"`
	Entity entityDTO `json:"entity"`
}

// getEntity implements GET /entities/{id}: a referent id redirects (302)
// to its canonical id; otherwise the entity is returned, nested one edge
// deep unless nested=false.
func (h *handlers) getEntity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	resolver := nested.NewResolver(h.d.Store, h.d.alias())

	e, canonicalID, err := resolver.Get(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if e == nil && canonicalID != "" {
		http.Redirect(w, r, "/entities/"+canonicalID, http.StatusFound)
		return
	}
	if e == nil {
		WriteError(w, r, apierr.NotFound("entity not found"))
		return
	}

	nestedFlag := parseBool(r.URL.Query().Get("nested"), true)
	fetched, err := resolver.Resolve(r.Context(), e, nestedFlag)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	resp := entityResponse{entityDTO: toDTO(e)}
	if nestedFlag && len(fetched.Outgoing) > 0 {
		resp.Properties = map[string][]propertyValue{}
		for prop, ids := range fetched.Outgoing {
			for _, refID := range ids {
				pv := propertyValue{ID: refID}
				if ref, ok := fetched.Entities[refID]; ok {
					pv.Entity = toDTO(ref)
				}
				resp.Properties[prop] = append(resp.Properties[prop], pv)
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type adjacentResponse struct {
	Property string      `json:"property"`
	Total    int         `json:"total"`
	Offset   int         `json:"offset"`
	Limit    int         `json:"limit"`
	Results  []entityDTO `json:"results"`
}

// adjacent implements GET /entities/{id}/adjacent[/{prop}]: the same
// one-edge neighborhood as getEntity, paginated per property. With no
// {prop}, every outgoing property's first page is returned.
func (h *handlers) adjacent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	prop := chi.URLParam(r, "prop")
	resolver := nested.NewResolver(h.d.Store, h.d.alias())

	e, canonicalID, err := resolver.Get(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if e == nil && canonicalID != "" {
		http.Redirect(w, r, "/entities/"+canonicalID+"/adjacent", http.StatusFound)
		return
	}
	if e == nil {
		WriteError(w, r, apierr.NotFound("entity not found"))
		return
	}

	fetched, err := resolver.Resolve(r.Context(), e, true)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	q := r.URL.Query()
	limit := intParam(q.Get("limit"), 20)
	offset := intParam(q.Get("offset"), 0)

	if prop == "" {
		out := map[string]adjacentResponse{}
		for p := range fetched.Outgoing {
			page, _ := nested.Adjacent(fetched, p, offset, limit)
			out[p] = toAdjacentResponse(page)
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	page, ok := nested.Adjacent(fetched, prop, offset, limit)
	if !ok {
		WriteError(w, r, apierr.NotFound("unknown adjacency property "+prop))
		return
	}
	writeJSON(w, http.StatusOK, toAdjacentResponse(page))
}

func toAdjacentResponse(page nested.AdjacentPage) adjacentResponse {
	out := adjacentResponse{Property: page.Property, Total: page.Total, Offset: page.Offset, Limit: page.Limit}
	for _, e := range page.Entities {
		out.Results = append(out.Results, toDTO(e))
	}
	return out
}
