package entity

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// honorifics are stripped from the front of person names before indexing
// and comparison; titles such as "Mr" or "Dr" otherwise dilute
// name-similarity scores.
var honorifics = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "miss": true, "dr": true,
	"prof": true, "professor": true, "sir": true, "madam": true,
	"capt": true, "col": true, "gen": true, "rev": true, "hon": true,
}

// squashSpaces collapses runs of whitespace to a single space and trims
// the ends.
func squashSpaces(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
			}
			lastSpace = true
			continue
		}
		lastSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// SafeString NFC-normalizes, trims, squashes internal whitespace, and
// returns "" for values that are entirely punctuation/whitespace, so
// empty tokens never reach the index. Composing first means a
// decomposed "é" (e + combining accent) and its precomposed form index
// and compare identically.
func SafeString(s string) string {
	s = squashSpaces(norm.NFC.String(s))
	hasLetterOrDigit := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			hasLetterOrDigit = true
			break
		}
	}
	if !hasLetterOrDigit {
		return ""
	}
	return s
}

// PreprocessName NFC-normalizes, lowercases, strips a leading honorific
// (for Person schemata) or a trailing legal form (for Organization
// schemata), and squashes whitespace: the normalization applied before
// any name comparison or phonetic coding.
func PreprocessName(name string, kind SchemaKind) string {
	name = strings.ToLower(squashSpaces(norm.NFC.String(name)))
	tokens := strings.Fields(name)
	if len(tokens) == 0 {
		return ""
	}
	switch kind {
	case KindPerson:
		first := strings.TrimRight(tokens[0], ".")
		if honorifics[first] {
			tokens = tokens[1:]
		}
	case KindOrganization:
		last := len(tokens) - 1
		if last >= 0 {
			trimmed := strings.TrimRight(tokens[last], ".,")
			if _, ok := orgClassTable[trimmed]; ok {
				tokens = tokens[:last]
			}
		}
	}
	return strings.Join(tokens, " ")
}

// EntityNames collects every name-typed property value on an entity: the
// main name plus aliases, weak aliases and previous names. Used by both
// the indexer and the name-based scorer.
func EntityNames(e *Entity) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range e.GetTypeValues(PropName) {
		v = SafeString(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// PickNames chooses up to limit representative names from a larger set,
// preferring the longest distinct forms, so a single entity with dozens
// of aliases doesn't blow out a name-query clause.
func PickNames(names []string, limit int) []string {
	if len(names) <= limit {
		return names
	}
	sorted := append([]string(nil), names...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && len(sorted[j]) > len(sorted[j-1]); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return sorted[:limit]
}
