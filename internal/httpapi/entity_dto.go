package httpapi

import "github.com/sentryscreen/sentryscreen/internal/entity"

// entityDTO is the JSON shape returned to clients for a single entity,
// built straight off entity.Entity rather than its private index-wire
// counterpart (internal/indexstore's wireEntity), since the latter is
// unexported and this package sits on the serving side of that
// round-trip, not the indexing side.
type entityDTO struct {
	ID         string              `json:"id"`
	Schema     string              `json:"schema"`
	Caption    string              `json:"caption,omitempty"`
	Properties map[string][]string `json:"properties"`
	Datasets   []string            `json:"datasets,omitempty"`
	Referents  []string            `json:"referents,omitempty"`
	Target     bool                `json:"target"`
	FirstSeen  string              `json:"first_seen,omitempty"`
	LastSeen   string              `json:"last_seen,omitempty"`
	LastChange string              `json:"last_change,omitempty"`
}

const rfc3339 = "2006-01-02T15:04:05Z07:00"

func toDTO(e *entity.Entity) entityDTO {
	if e == nil {
		return entityDTO{}
	}
	props := make(map[string][]string, len(e.Properties))
	for prop, vals := range e.Properties {
		for _, v := range vals {
			switch {
			case v.Raw != "":
				props[prop] = append(props[prop], v.Raw)
			case v.Ref != "":
				props[prop] = append(props[prop], v.Ref)
			}
		}
	}
	dto := entityDTO{
		ID: e.ID, Schema: e.Schema, Caption: e.Caption,
		Properties: props, Datasets: e.Datasets, Referents: e.Referents,
		Target: e.Target,
	}
	if !e.FirstSeen.IsZero() {
		dto.FirstSeen = e.FirstSeen.UTC().Format(rfc3339)
	}
	if !e.LastSeen.IsZero() {
		dto.LastSeen = e.LastSeen.UTC().Format(rfc3339)
	}
	if !e.LastChange.IsZero() {
		dto.LastChange = e.LastChange.UTC().Format(rfc3339)
	}
	return dto
}
