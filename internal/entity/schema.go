package entity

// Package-level schema taxonomy: a small is-a lattice used to widen or
// narrow search filters. A full deployment would load this from a
// FollowTheMoney-style model file; this is a compact, hand-maintained
// subset covering the schemata exercised by the scoring algorithms and
// the test fixtures.

// SchemaKind groups schemata for analyzer behavior (honorific stripping,
// legal-form substitution).
type SchemaKind int

const (
	KindOther SchemaKind = iota
	KindPerson
	KindOrganization
)

type schemaDef struct {
	parent     string
	kind       SchemaKind
	matchable  bool
	edge       bool
	properties map[string]PropertyType
}

// PropertyType is the FollowTheMoney-style type tag for a property; it
// decides how the query builder and indexer treat a value (name text,
// date, country, identifier, free text, entity reference).
type PropertyType string

const (
	PropName       PropertyType = "name"
	PropCountry    PropertyType = "country"
	PropDate       PropertyType = "date"
	PropIdentifier PropertyType = "identifier"
	PropPhone      PropertyType = "phone"
	PropAddress    PropertyType = "address"
	PropText       PropertyType = "text"
	PropEntity     PropertyType = "entity"
	PropTopic      PropertyType = "topic"
)

// Group returns the copy-to index group field for a property type, or ""
// if values of this type fall through to the generic "text" catch-all.
func (p PropertyType) Group() string {
	switch p {
	case PropCountry:
		return "countries"
	case PropDate:
		return "dates"
	case PropIdentifier:
		return "identifiers"
	case PropPhone:
		return "phones"
	case PropTopic:
		return "topics"
	case PropName:
		return "names"
	default:
		return ""
	}
}

// IsFreeText reports whether a property's values should be matched with a
// fuzzy/analyzed match clause rather than a term filter.
func (p PropertyType) IsFreeText() bool {
	return p == PropAddress
}

var schemata = map[string]schemaDef{
	"Thing": {
		kind: KindOther,
		properties: map[string]PropertyType{
			"name":    PropName,
			"country": PropCountry,
			"topics":  PropTopic,
		},
	},
	"LegalEntity": {
		parent: "Thing",
		kind:   KindOrganization,
		properties: map[string]PropertyType{
			"name":               PropName,
			"alias":              PropName,
			"previousName":       PropName,
			"weakAlias":          PropName,
			"country":            PropCountry,
			"jurisdiction":       PropCountry,
			"address":            PropAddress,
			"registrationNumber": PropIdentifier,
			"idNumber":           PropIdentifier,
			"phone":              PropPhone,
			"incorporationDate":  PropDate,
			"topics":             PropTopic,
		},
	},
	"Person": {
		parent: "LegalEntity",
		kind:   KindPerson, matchable: true,
		properties: map[string]PropertyType{
			"name":        PropName,
			"alias":       PropName,
			"birthDate":   PropDate,
			"deathDate":   PropDate,
			"nationality": PropCountry,
			"country":     PropCountry,
			"address":     PropAddress,
			"idNumber":    PropIdentifier,
			"passportNumber": PropIdentifier,
			"phone":       PropPhone,
			"topics":      PropTopic,
		},
	},
	"Organization": {
		parent: "LegalEntity", matchable: true,
	},
	"Company": {
		parent: "Organization", kind: KindOrganization, matchable: true,
		properties: map[string]PropertyType{
			"jurisdiction":       PropCountry,
			"registrationNumber": PropIdentifier,
			"incorporationDate":  PropDate,
		},
	},
	"Vessel": {
		parent: "Thing", kind: KindOrganization, matchable: true,
		properties: map[string]PropertyType{
			"name":      PropName,
			"flag":      PropCountry,
			"imoNumber": PropIdentifier,
			"mmsi":      PropIdentifier,
			"callSign":  PropIdentifier,
			"buildDate": PropDate,
		},
	},
	"Address": {
		parent: "Thing", kind: KindOther, matchable: true,
		properties: map[string]PropertyType{
			"full":    PropAddress,
			"country": PropCountry,
		},
	},
	"Sanction": {
		parent: "Thing", kind: KindOther, edge: true,
		properties: map[string]PropertyType{
			"entity":    PropEntity,
			"authority": PropText,
			"program":   PropText,
			"startDate": PropDate,
			"endDate":   PropDate,
		},
	},
	"Payment": {
		parent: "Thing", kind: KindOther, edge: true,
		properties: map[string]PropertyType{
			"payer":    PropEntity,
			"payee":    PropEntity,
			"amount":   PropText,
			"currency": PropText,
			"date":     PropDate,
		},
	},
}

// IsA reports whether schema is schema itself or a descendant of ancestor
// in the lattice, used to widen schema filters.
func IsA(schema, ancestor string) bool {
	for s := schema; s != ""; {
		if s == ancestor {
			return true
		}
		def, ok := schemata[s]
		if !ok {
			return false
		}
		s = def.parent
	}
	return false
}

// Descendants returns schema plus every schema that IsA(s, schema).
func Descendants(schema string) []string {
	var out []string
	for s := range schemata {
		if IsA(s, schema) {
			out = append(out, s)
		}
	}
	return out
}

// Kind returns the analyzer behavior class for a schema.
func Kind(schema string) SchemaKind {
	for s := schema; s != ""; {
		def, ok := schemata[s]
		if !ok {
			return KindOther
		}
		if def.kind != KindOther {
			return def.kind
		}
		s = def.parent
	}
	return KindOther
}

// Matchable reports whether a schema is a valid target for the matcher.
func Matchable(schema string) bool {
	def, ok := schemata[schema]
	return ok && def.matchable
}

// Edge reports whether a schema is an "edge" schema (Sanction, Payment)
// which nested-fetch must not recurse past.
func Edge(schema string) bool {
	def, ok := schemata[schema]
	return ok && def.edge
}

// PropertyTypeOf looks up the type tag of a property on a schema,
// searching up the parent chain.
func PropertyTypeOf(schema, prop string) (PropertyType, bool) {
	for s := schema; s != ""; {
		def, ok := schemata[s]
		if !ok {
			return "", false
		}
		if t, ok := def.properties[prop]; ok {
			return t, true
		}
		s = def.parent
	}
	return "", false
}

// Exists reports whether schema is a known schema name.
func Exists(schema string) bool {
	_, ok := schemata[schema]
	return ok
}

// Properties returns the full set of property names valid for schema
// (including inherited ones), used to validate example entities at
// /match and /reconcile time.
func Properties(schema string) map[string]PropertyType {
	out := map[string]PropertyType{}
	chain := []string{}
	for s := schema; s != ""; {
		def, ok := schemata[s]
		if !ok {
			break
		}
		chain = append(chain, s)
		s = def.parent
	}
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range schemata[chain[i]].properties {
			out[k] = v
		}
	}
	return out
}
