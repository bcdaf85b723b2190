package entity

import (
	"strings"
	"unicode"
)

// Phonetic is a small, dependency-free phonetic coder used by the
// name-based scoring algorithm, which pairs Jaro-Winkler with a
// Soundex-family code so names that are spelled differently but sound
// alike still contribute to a match score.
//
// The coding rules are a simplified Soundex: keep the first letter,
// map the rest to digit classes, collapse adjacent duplicates, drop
// vowels/h/w/y, and pad/truncate to four characters.
func Phonetic(name string) string {
	name = strings.ToLower(PreprocessName(name, KindOther))
	letters := make([]rune, 0, len(name))
	for _, r := range name {
		if r >= 'a' && r <= 'z' {
			letters = append(letters, r)
		}
	}
	if len(letters) == 0 {
		return ""
	}

	code := make([]rune, 0, 4)
	code = append(code, toUpperASCII(letters[0]))
	lastClass := soundexClass(letters[0])

	for _, r := range letters[1:] {
		class := soundexClass(r)
		if class != 0 && class != lastClass {
			code = append(code, rune('0'+class))
		}
		if r != 'h' && r != 'w' {
			lastClass = class
		}
		if len(code) >= 4 {
			break
		}
	}
	for len(code) < 4 {
		code = append(code, '0')
	}
	return string(code[:4])
}

func toUpperASCII(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}

// soundexClass returns the Soundex digit class for a consonant, 0 for
// vowels and the silent letters h/w/y.
func soundexClass(r rune) int {
	switch r {
	case 'b', 'f', 'p', 'v':
		return 1
	case 'c', 'g', 'j', 'k', 'q', 's', 'x', 'z':
		return 2
	case 'd', 't':
		return 3
	case 'l':
		return 4
	case 'm', 'n':
		return 5
	case 'r':
		return 6
	default:
		return 0
	}
}

// PhoneticTokens codes every whitespace-separated token in name, used to
// compare multi-word names token-by-token rather than as one long blob.
// Single-letter and punctuation-only tokens (initials, separators) are
// skipped; their codes would collide with everything.
func PhoneticTokens(name string) []string {
	tokens := strings.Fields(strings.ToLower(name))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		alnum := 0
		for _, r := range t {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				alnum++
			}
		}
		if alnum < 2 {
			continue
		}
		if c := Phonetic(t); c != "" {
			out = append(out, c)
		}
	}
	return out
}
