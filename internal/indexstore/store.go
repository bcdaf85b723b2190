package indexstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/sentryscreen/sentryscreen/internal/apierr"
)

// Store is the index provider: it owns a set
// of named bleve indices on disk and the alias membership that maps a
// logical alias name (e.g. "sentryscreen-entities") onto the subset of
// versioned indices currently serving reads.
type Store struct {
	dataDir string

	mu       sync.RWMutex
	indices  map[string]bleve.Index
	aliases  map[string][]string // alias name -> ordered member index names
	readOnly map[string]bool     // index name -> true while being cloned from
}

// New returns a Store rooted at dataDir. An empty dataDir means every
// index is created in-memory (bleve.NewMemOnly), the mode the tests
// use.
func New(dataDir string) *Store {
	return &Store{
		dataDir:  dataDir,
		indices:  map[string]bleve.Index{},
		aliases:  map[string][]string{},
		readOnly: map[string]bool{},
	}
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dataDir, name)
}

// Create builds a fresh, empty index with the entity mapping, the build
// source for a full reindex.
func (s *Store) Create(name string) error {
	return s.CreateWithMapping(name, buildMapping())
}

// CreateWithMapping is Create with an explicit index mapping, used by
// internal/audit to lay out the single-shard audit-log index with its
// own (keyword-only) field mapping instead of the entity mapping.
func (s *Store) CreateWithMapping(name string, m *mapping.IndexMappingImpl) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indices[name]; ok {
		return nil
	}
	idx, err := s.openOrCreate(name, m)
	if err != nil {
		return err
	}
	s.indices[name] = idx
	return nil
}

func (s *Store) openOrCreate(name string, m *mapping.IndexMappingImpl) (bleve.Index, error) {
	if s.dataDir == "" {
		return bleve.NewMemOnly(m)
	}
	path := s.path(name)
	if _, err := os.Stat(path); err == nil {
		return bleve.Open(path)
	}
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	return bleve.New(path, m)
}

// Exists reports whether a named index has been created (or opened)
// already.
func (s *Store) Exists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indices[name]
	return ok
}

// Clone copies every document from src into a newly created index dst,
// the build source for an incremental reindex. The source is marked
// read-only for the duration and restored after.
// Rather than assume bleve's on-disk layout, Clone re-indexes src's
// documents into dst via a scroll-and-bulk copy, which is safe across
// both disk-backed and in-memory indices.
func (s *Store) Clone(src, dst string) error {
	s.mu.Lock()
	srcIdx, ok := s.indices[src]
	if !ok {
		s.mu.Unlock()
		return apierr.NotFound(fmt.Sprintf("source index %q not found", src))
	}
	s.readOnly[src] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.readOnly, src)
		s.mu.Unlock()
	}()

	if err := s.Create(dst); err != nil {
		return fmt.Errorf("create clone target: %w", err)
	}
	s.mu.RLock()
	dstIdx := s.indices[dst]
	s.mu.RUnlock()

	count, err := srcIdx.DocCount()
	if err != nil {
		return fmt.Errorf("count source docs: %w", err)
	}
	if count == 0 {
		return nil
	}

	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = int(count)
	req.Fields = []string{"*"}
	result, err := srcIdx.Search(req)
	if err != nil {
		return fmt.Errorf("scan source index: %w", err)
	}

	batch := dstIdx.NewBatch()
	for _, hit := range result.Hits {
		if err := batch.Index(hit.ID, hit.Fields); err != nil {
			return fmt.Errorf("stage clone doc %s: %w", hit.ID, err)
		}
	}
	return dstIdx.Batch(batch)
}

// Delete closes and removes a named index entirely, the cleanup path for
// a partial index after a failed run.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indices[name]
	if !ok {
		return nil
	}
	_ = idx.Close()
	delete(s.indices, name)
	delete(s.readOnly, name)
	if s.dataDir != "" {
		if err := os.RemoveAll(s.path(name)); err != nil {
			return fmt.Errorf("remove index directory: %w", err)
		}
	}
	return nil
}

// Refresh makes recently bulk-indexed documents visible to search.
// bleve's Batch/Index calls commit synchronously, so unlike a remote
// OpenSearch/Elasticsearch refresh this only validates that the index
// exists; it is kept as an explicit step for interface symmetry.
func (s *Store) Refresh(name string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.indices[name]; !ok {
		return apierr.NotFound(fmt.Sprintf("index %q not found", name))
	}
	return nil
}

// IsReadOnly reports whether name is currently the source of an
// in-progress Clone.
func (s *Store) IsReadOnly(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readOnly[name]
}

// Health reports liveness/readiness data for /healthz and /readyz:
// whether the store is reachable and how many indices are open.
type Health struct {
	Ready      bool
	OpenIndices int
}

func (s *Store) Health() Health {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Health{Ready: true, OpenIndices: len(s.indices)}
}

func (s *Store) index(name string) (bleve.Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indices[name]
	if !ok {
		return nil, apierr.IndexNotReady(fmt.Sprintf("index %q not ready", name), nil)
	}
	return idx, nil
}
