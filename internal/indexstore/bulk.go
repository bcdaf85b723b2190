package indexstore

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"

	"github.com/sentryscreen/sentryscreen/internal/apierr"
	"github.com/sentryscreen/sentryscreen/internal/entity"
)

// BulkIndex upserts docs keyed by ID into the named index in a single
// batch, the unit of work the indexer calls once per ~1000-op chunk.
func (s *Store) BulkIndex(name string, entities []*entity.Entity) error {
	if len(entities) == 0 {
		return nil
	}
	if s.IsReadOnly(name) {
		return apierr.Internal(fmt.Sprintf("index %q is read-only (clone in progress)", name), nil)
	}
	idx, err := s.index(name)
	if err != nil {
		return err
	}
	batch := idx.NewBatch()
	for _, e := range entities {
		doc, err := BuildDocument(e)
		if err != nil {
			return fmt.Errorf("build document for %s: %w", e.ID, err)
		}
		if err := batch.Index(e.ID, doc); err != nil {
			return fmt.Errorf("stage document %s: %w", e.ID, err)
		}
		for _, referent := range e.Referents {
			if err := batch.Index(referent, ReferentStub(e.ID)); err != nil {
				return fmt.Errorf("stage referent stub %s: %w", referent, err)
			}
		}
	}
	return idx.Batch(batch)
}

// BulkDelete removes documents (and their referent stubs are left to
// expire naturally — a delete only ever targets a canonical ID in the
// op stream) by ID in a single batch.
func (s *Store) BulkDelete(name string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if s.IsReadOnly(name) {
		return apierr.Internal(fmt.Sprintf("index %q is read-only (clone in progress)", name), nil)
	}
	idx, err := s.index(name)
	if err != nil {
		return err
	}
	batch := idx.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	return idx.Batch(batch)
}

// Get fetches a single document's stored fields by ID from one named
// index (a referent stub document carries only FieldCanonicalID); the
// nested-fetch resolver does not use it and searches the alias instead.
// Implemented as a docID-scoped
// search with every stored field requested, the same scroll technique
// Clone uses, rather than the low-level segment document API.
func (s *Store) Get(name, id string) (map[string]any, bool, error) {
	idx, err := s.index(name)
	if err != nil {
		return nil, false, err
	}
	req := bleve.NewSearchRequest(bleve.NewDocIDQuery([]string{id}))
	req.Size = 1
	req.Fields = []string{"*"}
	result, err := idx.Search(req)
	if err != nil {
		return nil, false, fmt.Errorf("fetch document %s: %w", id, err)
	}
	if len(result.Hits) == 0 {
		return nil, false, nil
	}
	return result.Hits[0].Fields, true, nil
}
