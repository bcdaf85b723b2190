// Package scoring implements the candidate comparators: name-based
// (Jaro-Winkler plus phonetic name comparison) and logic-based (a
// regression-style multi-feature comparator).
package scoring

import (
	"github.com/sentryscreen/sentryscreen/internal/entity"
)

// Config carries the tunables a Compare call needs: the request's
// per-feature weight overrides.
type Config struct {
	// Weights overrides a feature's contribution to the final score;
	// missing keys fall back to the algorithm's built-in default.
	Weights map[string]float64
}

func (c Config) weight(feature string, fallback float64) float64 {
	if c.Weights == nil {
		return fallback
	}
	if w, ok := c.Weights[feature]; ok {
		return w
	}
	return fallback
}

// Result is a single comparison outcome: a score in [0,1] plus the
// per-feature contributions behind it.
type Result struct {
	Score    float64
	Features map[string]float64
}

// Algorithm compares a query entity against a candidate entity.
type Algorithm interface {
	Name() string
	Compare(query, candidate *entity.Entity, cfg Config) Result
}

// Algorithms is the enumerated enabled set the matcher validates the
// request's algorithm name against; anything else is rejected as
// invalid.
var Algorithms = map[string]Algorithm{
	"name-based":  NameBased{},
	"logic-based": LogicBased{},
}

// DefaultAlgorithm is used when the request omits an algorithm name.
const DefaultAlgorithm = "logic-based"

// Lookup resolves an algorithm name, reporting ok=false for anything not
// in Algorithms.
func Lookup(name string) (Algorithm, bool) {
	if name == "" {
		name = DefaultAlgorithm
	}
	a, ok := Algorithms[name]
	return a, ok
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
