package entity

import (
	"fmt"
	"strings"
)

// Symbols are the compact blocking keys emitted alongside an entity's raw
// names: a NAME: symbol per normalized name, a SYMBOL: class for tokens
// with a known equivalence class, and an ORGCLS: class for detected legal
// forms. They are folded into the index's "name_symbols" field so a
// candidate-generation query can match on any of them without
// reprocessing the candidate at query time.
const (
	symbolName   = "NAME"
	symbolClass  = "SYMBOL"
	symbolOrgCls = "ORGCLS"
	// minSymbolRune drops very short tokens whose blocking keys would
	// match almost everything.
	minSymbolRune = 3
)

// IsMatchableSymbol reports whether a token carries enough signal to be
// worth emitting as a blocking symbol.
func IsMatchableSymbol(token string) bool {
	count := 0
	for range token {
		count++
	}
	return count >= minSymbolRune
}

// Symbols computes the full set of blocking-key strings for an entity,
// used both at index time (stored in the "name_symbols" field) and by
// candidate-generation queries.
func Symbols(e *Entity) []string {
	kind := Kind(e.Schema)
	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	for _, name := range EntityNames(e) {
		norm := PreprocessName(name, kind)
		if norm == "" {
			continue
		}
		add(fmt.Sprintf("%s:%s", symbolName, norm))

		for _, token := range strings.Fields(strings.ToLower(name)) {
			token = strings.Trim(token, ".,")
			if cls, ok := symbolEquivalence[token]; ok && IsMatchableSymbol(token) {
				add(fmt.Sprintf("%s:%s", symbolClass, cls))
			}
			if kind == KindOrganization {
				if cls, ok := orgClassTable[token]; ok {
					add(fmt.Sprintf("%s:%s", symbolOrgCls, cls))
				}
			}
		}
	}

	return out
}
