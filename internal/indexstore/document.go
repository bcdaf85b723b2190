package indexstore

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sentryscreen/sentryscreen/internal/entity"
)

// BuildDocument synthesizes the sidecar index document for e: the entity
// plus names/name_parts/name_phonetic/name_symbols, per-type-group copy
// fields, and a free-text catch-all, with the entity body kept verbatim
// (as JSON) so serving doesn't need to re-synthesize it from the index.
func BuildDocument(e *entity.Entity) (map[string]any, error) {
	names := entity.EntityNames(e)
	var nameParts []string
	var phonetics []string
	for _, n := range names {
		nameParts = append(nameParts, strings.Fields(n)...)
		phonetics = append(phonetics, entity.PhoneticTokens(n)...)
	}

	groups := map[string][]string{}
	var text []string
	var entityRefs []string
	text = append(text, names...)

	for prop, values := range e.Properties {
		pt, ok := entity.PropertyTypeOf(e.Schema, prop)
		if !ok {
			continue
		}
		for _, v := range values {
			if pt == entity.PropEntity && v.Ref != "" {
				entityRefs = append(entityRefs, v.Ref)
				continue
			}
			if v.Raw == "" {
				continue
			}
			text = append(text, v.Raw)
			switch pt {
			case entity.PropDate:
				groups["dates"] = append(groups["dates"], entity.ExpandDate(v.Raw)...)
			case entity.PropCountry:
				groups["countries"] = append(groups["countries"], strings.ToLower(v.Raw))
			case entity.PropIdentifier:
				groups["identifiers"] = append(groups["identifiers"], v.Raw)
			case entity.PropPhone:
				groups["phones"] = append(groups["phones"], v.Raw)
			case entity.PropTopic:
				groups["topics"] = append(groups["topics"], v.Raw)
			case entity.PropAddress:
				groups["addresses"] = append(groups["addresses"], v.Raw)
			}
		}
	}

	entityJSON, err := json.Marshal(entityWire(e))
	if err != nil {
		return nil, err
	}

	doc := map[string]any{
		FieldID:          e.ID,
		FieldSchema:      e.Schema,
		FieldDatasets:    e.Datasets,
		FieldReferents:   e.Referents,
		FieldTarget:      e.Target,
		FieldLastChange:  e.LastChange,
		FieldLastSeen:    e.LastSeen,
		"first_seen":     e.FirstSeen,
		FieldNames:       strings.Join(names, " "),
		FieldNameParts:   strings.Join(nameParts, " "),
		FieldNamePhonetic: phonetics,
		FieldNameSymbols: entity.Symbols(e),
		FieldText:        strings.Join(text, " "),
		FieldEntityJSON:  string(entityJSON),
	}
	for group, vals := range groups {
		doc[group] = vals
	}
	if len(entityRefs) > 0 {
		doc[FieldEntityRefs] = entityRefs
	}
	return doc, nil
}

// ReferentStub builds the minimal redirect document upserted for every
// referent ID of an entity: its sole field is canonical_id, so a lookup
// by referent ID resolves to the canonical document.
func ReferentStub(canonicalID string) map[string]any {
	return map[string]any{FieldCanonicalID: canonicalID}
}

// wireEntity is the JSON shape stored verbatim in FieldEntityJSON, the
// same shape entity.FromJSON parses.
type wireEntity struct {
	ID         string              `json:"id"`
	Schema     string              `json:"schema"`
	Caption    string              `json:"caption,omitempty"`
	Properties map[string][]string `json:"properties"`
	Datasets   []string            `json:"datasets"`
	Referents  []string            `json:"referents,omitempty"`
	Target     bool                `json:"target"`
	FirstSeen  string              `json:"first_seen,omitempty"`
	LastSeen   string              `json:"last_seen,omitempty"`
	LastChange string              `json:"last_change,omitempty"`
}

func entityWire(e *entity.Entity) wireEntity {
	props := make(map[string][]string, len(e.Properties))
	for prop, vals := range e.Properties {
		for _, v := range vals {
			if v.Raw != "" {
				props[prop] = append(props[prop], v.Raw)
			} else if v.Ref != "" {
				props[prop] = append(props[prop], v.Ref)
			}
		}
	}
	w := wireEntity{
		ID: e.ID, Schema: e.Schema, Caption: e.Caption,
		Properties: props, Datasets: e.Datasets, Referents: e.Referents,
		Target: e.Target,
	}
	if !e.FirstSeen.IsZero() {
		w.FirstSeen = e.FirstSeen.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	if !e.LastSeen.IsZero() {
		w.LastSeen = e.LastSeen.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	if !e.LastChange.IsZero() {
		w.LastChange = e.LastChange.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return w
}

// EntityFromFields turns a search hit's stored fields back into an
// *entity.Entity, or reports canonicalID != "" when fields is a referent
// stub and the caller should redirect.
func EntityFromFields(fields map[string]any) (e *entity.Entity, canonicalID string, err error) {
	if cid, ok := fields[FieldCanonicalID].(string); ok && cid != "" {
		if raw, ok := fields[FieldEntityJSON].(string); !ok || raw == "" {
			return nil, cid, nil
		}
	}
	raw, ok := fields[FieldEntityJSON].(string)
	if !ok || raw == "" {
		return nil, "", fmt.Errorf("document missing entity body")
	}
	e, err = ParseEntityJSON(raw)
	return e, "", err
}

// ParseEntityJSON reverses BuildDocument's FieldEntityJSON back into an
// *entity.Entity, used when serving a fetched document.
func ParseEntityJSON(raw string) (*entity.Entity, error) {
	var w wireEntity
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return nil, err
	}
	data := map[string]any{
		"id": w.ID, "schema": w.Schema, "caption": w.Caption,
		"target": w.Target, "first_seen": w.FirstSeen,
		"last_seen": w.LastSeen, "last_change": w.LastChange,
	}
	props := map[string]any{}
	for k, vs := range w.Properties {
		list := make([]any, len(vs))
		for i, v := range vs {
			list[i] = v
		}
		props[k] = list
	}
	data["properties"] = props
	datasets := make([]any, len(w.Datasets))
	for i, d := range w.Datasets {
		datasets[i] = d
	}
	data["datasets"] = datasets
	referents := make([]any, len(w.Referents))
	for i, r := range w.Referents {
		referents[i] = r
	}
	data["referents"] = referents
	return entity.FromJSON(data)
}
