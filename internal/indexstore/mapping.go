// Package indexstore is the thin abstraction over the search backend:
// create/clone/delete/alias/rollover/bulk-index/search/refresh/health.
// It embeds blevesearch/bleve/v2 as the indexer; bleve has no native
// cross-process alias, so Store implements the alias/rollover contract
// itself as an in-memory, mutex-guarded member list that is read and
// swapped atomically, with search fan-out across members done with an
// errgroup.
package indexstore

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Field names synthesized onto every indexed document: names,
// name_parts, name_phonetic, name_symbols, the type-group copy fields,
// and the text catch-all.
const (
	FieldNames        = "names"
	FieldNameParts    = "name_parts"
	FieldNamePhonetic = "name_phonetic"
	FieldNameSymbols  = "name_symbols"
	FieldText         = "text"
	FieldSchema       = "schema"
	FieldDatasets     = "datasets"
	FieldID           = "id"
	FieldReferents    = "referents"
	FieldTarget       = "target"
	FieldLastChange   = "last_change"
	FieldLastSeen     = "last_seen"
	FieldCanonicalID  = "canonical_id"
	FieldEntityJSON   = "entity"
	// FieldEntityRefs holds every entity-typed property's referenced IDs,
	// regardless of property name, so the nested-fetch resolver can find
	// "incoming references" to a given entity with a single term query
	// instead of one query per known property.
	FieldEntityRefs = "entity_refs"
)

// buildMapping constructs the bleve index mapping used by every entity
// index: keyword fields for exact term filters (schema, datasets,
// type-group copy fields, canonical_id), analyzed text fields for full
// text and name matching.
func buildMapping() *mapping.IndexMappingImpl {
	m := bleve.NewIndexMapping()
	m.DefaultAnalyzer = "standard"
	m.DefaultMapping = entityDocumentMapping()
	return m
}

func entityDocumentMapping() *mapping.DocumentMapping {
	doc := bleve.NewDocumentMapping()

	keyword := bleve.NewTextFieldMapping()
	keyword.Analyzer = "keyword"
	keyword.Store = true
	keyword.IncludeInAll = false

	text := bleve.NewTextFieldMapping()
	text.Analyzer = "standard"
	text.Store = true

	stored := bleve.NewTextFieldMapping()
	stored.Index = false
	stored.Store = true
	stored.IncludeInAll = false

	dateField := bleve.NewDateTimeFieldMapping()
	dateField.Store = true

	boolField := bleve.NewBooleanFieldMapping()
	boolField.Store = true

	doc.AddFieldMappingsAt(FieldID, keyword)
	doc.AddFieldMappingsAt(FieldSchema, keyword)
	doc.AddFieldMappingsAt(FieldDatasets, keyword)
	doc.AddFieldMappingsAt(FieldReferents, keyword)
	doc.AddFieldMappingsAt(FieldCanonicalID, keyword)
	doc.AddFieldMappingsAt(FieldEntityRefs, keyword)
	doc.AddFieldMappingsAt("countries", keyword)
	doc.AddFieldMappingsAt("dates", keyword)
	doc.AddFieldMappingsAt("identifiers", keyword)
	doc.AddFieldMappingsAt("phones", keyword)
	doc.AddFieldMappingsAt("topics", keyword)
	doc.AddFieldMappingsAt(FieldNamePhonetic, keyword)
	doc.AddFieldMappingsAt(FieldNameSymbols, keyword)

	doc.AddFieldMappingsAt(FieldNames, text)
	doc.AddFieldMappingsAt(FieldNameParts, text)
	doc.AddFieldMappingsAt(FieldText, text)
	doc.AddFieldMappingsAt("addresses", text)

	doc.AddFieldMappingsAt(FieldTarget, boolField)
	doc.AddFieldMappingsAt(FieldLastChange, dateField)
	doc.AddFieldMappingsAt(FieldLastSeen, dateField)
	doc.AddFieldMappingsAt("first_seen", dateField)

	doc.AddFieldMappingsAt(FieldEntityJSON, stored)

	return doc
}

// AuditMapping builds the mapping for the audit-log index: every field
// is keyword-exact so term filters on index/dataset/message_type behave
// as equality checks rather than analyzed text matches.
func AuditMapping() *mapping.IndexMappingImpl {
	m := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()

	keyword := bleve.NewTextFieldMapping()
	keyword.Analyzer = "keyword"
	keyword.Store = true
	keyword.IncludeInAll = false

	numeric := bleve.NewNumericFieldMapping()
	numeric.Store = true

	for _, f := range []string{
		"alias_index", "index", "dataset", "dataset_version",
		"software_version", "message_type", "reindex_type", "writer_id",
	} {
		doc.AddFieldMappingsAt(f, keyword)
	}
	for _, f := range []string{"timestamp", "heartbeat_timestamp"} {
		doc.AddFieldMappingsAt(f, numeric)
	}

	m.DefaultMapping = doc
	return m
}
