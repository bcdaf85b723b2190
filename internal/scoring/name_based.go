package scoring

import (
	"github.com/sentryscreen/sentryscreen/internal/entity"
)

// NameBased is the `name-based` algorithm: a Jaro-Winkler plus phonetic
// name comparator in the OFAC style. It scores purely on the
// best-matching name pair across every name-typed property value on
// each side.
type NameBased struct{}

func (NameBased) Name() string { return "name-based" }

func (NameBased) Compare(query, candidate *entity.Entity, cfg Config) Result {
	queryNames := query.GetTypeValues(entity.PropName)
	candidateNames := candidate.GetTypeValues(entity.PropName)

	best := bestNamePair(queryNames, candidateNames)
	phoneticBonus := bestPhoneticOverlap(queryNames, candidateNames)

	jwWeight := cfg.weight("jaro_winkler", 0.8)
	phoneticWeight := cfg.weight("phonetic_match", 0.2)

	score := clamp01(jwWeight*best + phoneticWeight*phoneticBonus)

	return Result{
		Score: score,
		Features: map[string]float64{
			"jaro_winkler":   best,
			"phonetic_match": phoneticBonus,
		},
	}
}

// bestNamePair returns the maximum Jaro-Winkler similarity across every
// (query name, candidate name) pair, 0 if either side has no names.
func bestNamePair(a, b []string) float64 {
	best := 0.0
	for _, x := range a {
		for _, y := range b {
			if s := JaroWinkler(normalizeForCompare(x), normalizeForCompare(y)); s > best {
				best = s
			}
		}
	}
	return best
}

// bestPhoneticOverlap scores 1.0 when any phonetic token from a name on
// one side matches a phonetic token on the other, 0 otherwise: a flat
// sounds-alike bonus rather than a graded score.
func bestPhoneticOverlap(a, b []string) float64 {
	codes := map[string]bool{}
	for _, x := range a {
		for _, c := range entity.PhoneticTokens(x) {
			codes[c] = true
		}
	}
	for _, y := range b {
		for _, c := range entity.PhoneticTokens(y) {
			if codes[c] {
				return 1
			}
		}
	}
	return 0
}

func normalizeForCompare(s string) string {
	return entity.SafeString(s)
}
