package indexstore

import "strings"

// AliasMembers returns the versioned index names currently backing
// alias, in stable order.
func (s *Store) AliasMembers(alias string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.aliases[alias]...)
}

// Rollover atomically swaps alias's members for a single dataset: every
// existing member whose name has matchPrefix is removed and newMember is
// added, in one lock-held operation, so a concurrent reader calling
// AliasMembers never observes a state with zero members for a dataset
// that already had one.
func (s *Store) Rollover(alias, matchPrefix, newMember string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.aliases[alias]
	kept := make([]string, 0, len(existing)+1)
	for _, m := range existing {
		if strings.HasPrefix(m, matchPrefix) {
			continue
		}
		kept = append(kept, m)
	}
	kept = append(kept, newMember)
	s.aliases[alias] = kept
}

// RemoveFromAlias drops a single member from an alias, leaving every
// other member in place.
func (s *Store) RemoveFromAlias(alias, member string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.aliases[alias]
	kept := make([]string, 0, len(existing))
	for _, m := range existing {
		if m != member {
			kept = append(kept, m)
		}
	}
	s.aliases[alias] = kept
}

// HasDatasetMember reports whether alias already has a member matching
// matchPrefix, used by the indexer to decide a dataset is already
// current.
func (s *Store) HasDatasetMember(alias, matchPrefix string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.aliases[alias] {
		if strings.HasPrefix(m, matchPrefix) {
			return m, true
		}
	}
	return "", false
}
