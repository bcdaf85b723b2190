package scoring

import (
	"github.com/sentryscreen/sentryscreen/internal/entity"
)

// LogicBased is the `logic-based` algorithm: a regression-style
// multi-feature comparator combining name similarity with
// country/date/identifier overlap features. Each feature contributes a
// weighted share of the final score; a feature with no comparable data
// on either side contributes 0 rather than being excluded, so missing
// data never inflates the score.
type LogicBased struct{}

func (LogicBased) Name() string { return "logic-based" }

func (LogicBased) Compare(query, candidate *entity.Entity, cfg Config) Result {
	nameScore := bestNamePair(
		query.GetTypeValues(entity.PropName),
		candidate.GetTypeValues(entity.PropName),
	)
	countryScore := setOverlap(
		query.GetTypeValues(entity.PropCountry),
		candidate.GetTypeValues(entity.PropCountry),
	)
	dateScore := dateOverlapScore(
		query.GetTypeValues(entity.PropDate),
		candidate.GetTypeValues(entity.PropDate),
	)
	identifierScore := setOverlap(
		query.GetTypeValues(entity.PropIdentifier),
		candidate.GetTypeValues(entity.PropIdentifier),
	)

	nameWeight := cfg.weight("name", 0.6)
	countryWeight := cfg.weight("country", 0.1)
	dateWeight := cfg.weight("date", 0.15)
	identifierWeight := cfg.weight("identifier", 0.15)

	score := clamp01(
		nameWeight*nameScore +
			countryWeight*countryScore +
			dateWeight*dateScore +
			identifierWeight*identifierScore,
	)

	return Result{
		Score: score,
		Features: map[string]float64{
			"name":       nameScore,
			"country":    countryScore,
			"date":       dateScore,
			"identifier": identifierScore,
		},
	}
}

// setOverlap scores 1 when any value on one side exactly matches a
// value on the other (case-insensitive), 0 otherwise; used for
// countries and identifiers, which are exact-match typed values rather
// than fuzzy text.
func setOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := map[string]bool{}
	for _, x := range a {
		set[entity.SafeString(x)] = true
	}
	for _, y := range b {
		if set[entity.SafeString(y)] {
			return 1
		}
	}
	return 0
}

// dateOverlapScore scores 1 for an exact date match, 0.5 when the years
// agree but the full date doesn't (birth years are frequently recorded
// with partial precision across sanctions sources), 0 otherwise.
func dateOverlapScore(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	best := 0.0
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return 1
			}
			if len(x) >= 4 && len(y) >= 4 && x[:4] == y[:4] {
				if best < 0.5 {
					best = 0.5
				}
			}
		}
	}
	return best
}
