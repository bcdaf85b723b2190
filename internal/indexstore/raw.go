package indexstore

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// IndexRaw upserts a single arbitrary document into a named index,
// bypassing the entity BuildDocument synthesis. Used by internal/audit
// to store lifecycle/lock documents in the audit-log index.
func (s *Store) IndexRaw(indexName, id string, doc any) error {
	idx, err := s.index(indexName)
	if err != nil {
		return err
	}
	if err := idx.Index(id, doc); err != nil {
		return fmt.Errorf("index document %s: %w", id, err)
	}
	return nil
}

// SearchRaw runs q against a single named index (not an alias fan-out),
// the shape internal/audit needs to read back recent lock records.
func (s *Store) SearchRaw(ctx context.Context, indexName string, q query.Query, size int, sortBy []string) (*bleve.SearchResult, error) {
	idx, err := s.index(indexName)
	if err != nil {
		return nil, err
	}
	req := bleve.NewSearchRequest(q)
	req.Size = size
	req.Fields = []string{"*"}
	if len(sortBy) > 0 {
		req.SortBy(sortBy)
	}
	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", indexName, err)
	}
	return res, nil
}
