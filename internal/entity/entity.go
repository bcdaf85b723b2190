// Package entity implements the typed entity model and the name analyzer:
// a schema-tagged property bag with dataset membership, referents, and
// the searchable name/phonetic/symbol sidecar fields synthesized from it
// at index time.
package entity

import (
	"fmt"
	"time"
)

// Value is a single property value. Name-typed and free-text properties
// carry Raw only; entity-typed properties carry Ref (the referenced
// entity's ID) and, once resolved by the nested-fetch resolver, Nested.
type Value struct {
	Raw    string
	Ref    string
	Nested *Entity
}

func StringValue(s string) Value { return Value{Raw: s} }

// Entity is a typed record: a stable ID, a schema tag from the taxonomy
// in schema.go, multivalued properties, set membership in one or more
// datasets, referent IDs that collapsed into this canonical ID, a target
// flag, and the three lifecycle timestamps.
type Entity struct {
	ID         string
	Schema     string
	Caption    string
	Properties map[string][]Value
	Datasets   []string
	Referents  []string
	Target     bool
	FirstSeen  time.Time
	LastSeen   time.Time
	LastChange time.Time
}

// New creates an empty entity of the given schema, with an empty
// (non-nil) Properties map.
func New(id, schema string) *Entity {
	return &Entity{ID: id, Schema: schema, Properties: map[string][]Value{}}
}

// Add appends a value to a property. Values are always lists; property
// membership in the schema is validated by callers like FromExample.
func (e *Entity) Add(prop string, v Value) {
	e.Properties[prop] = append(e.Properties[prop], v)
}

// Get returns the raw string values of a property, skipping entity
// references that have not (or cannot) be resolved to a literal.
func (e *Entity) Get(prop string) []string {
	vals := e.Properties[prop]
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v.Raw != "" {
			out = append(out, v.Raw)
		}
	}
	return out
}

// GetTypeValues returns every value (resolved across every property
// carrying the given type) - used by the name analyzer and the OFAC-style
// scorer, which both compare by *type*, not by specific property name.
func (e *Entity) GetTypeValues(t PropertyType) []string {
	var out []string
	for prop, vals := range e.Properties {
		pt, ok := PropertyTypeOf(e.Schema, prop)
		if !ok || pt != t {
			continue
		}
		for _, v := range vals {
			if v.Raw != "" {
				out = append(out, v.Raw)
			}
		}
	}
	return out
}

// HasReferent reports whether id equals this entity's canonical ID or any
// of its referents; exclude_entity_ids filtering checks both.
func (e *Entity) HasReferent(id string) bool {
	if e.ID == id {
		return true
	}
	for _, r := range e.Referents {
		if r == id {
			return true
		}
	}
	return false
}

// FromJSON builds an Entity from its wire format: {id, schema,
// properties, datasets, referents, target, first_seen, last_seen,
// last_change, caption?}.
func FromJSON(data map[string]any) (*Entity, error) {
	id, _ := data["id"].(string)
	schema, _ := data["schema"].(string)
	if id == "" || schema == "" {
		return nil, fmt.Errorf("entity missing id or schema")
	}
	e := New(id, schema)
	if caption, ok := data["caption"].(string); ok {
		e.Caption = caption
	}
	if props, ok := data["properties"].(map[string]any); ok {
		for prop, raw := range props {
			list, ok := raw.([]any)
			if !ok {
				continue
			}
			for _, item := range list {
				switch v := item.(type) {
				case string:
					e.Add(prop, StringValue(v))
				case map[string]any:
					if refID, ok := v["id"].(string); ok {
						e.Add(prop, Value{Ref: refID})
					}
				}
			}
		}
	}
	for _, d := range toStringSlice(data["datasets"]) {
		e.Datasets = append(e.Datasets, d)
	}
	for _, r := range toStringSlice(data["referents"]) {
		e.Referents = append(e.Referents, r)
	}
	if t, ok := data["target"].(bool); ok {
		e.Target = t
	}
	e.FirstSeen = parseTimestamp(data["first_seen"])
	e.LastSeen = parseTimestamp(data["last_seen"])
	e.LastChange = parseTimestamp(data["last_change"])
	return e, nil
}

func toStringSlice(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func parseTimestamp(v any) time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	return time.Time{}
}

// FromExample builds an entity from a /match or /reconcile query example.
// An unknown schema rejects the example; unknown properties are skipped
// rather than rejected, since screening clients routinely send extra
// fields.
func FromExample(schema string, properties map[string][]string) (*Entity, error) {
	if !Exists(schema) {
		return nil, fmt.Errorf("unknown schema %q", schema)
	}
	valid := Properties(schema)
	e := New("example", schema)
	for prop, values := range properties {
		if _, ok := valid[prop]; !ok {
			continue
		}
		for _, v := range values {
			if v != "" {
				e.Add(prop, StringValue(v))
			}
		}
	}
	return e, nil
}
