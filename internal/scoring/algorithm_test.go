package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentryscreen/sentryscreen/internal/entity"
)

func putinEntity() *entity.Entity {
	e := entity.New("Q7747", "Person")
	e.Add("name", entity.StringValue("Vladimir Putin"))
	e.Add("birthDate", entity.StringValue("1952-10-07"))
	e.Add("country", entity.StringValue("ru"))
	return e
}

func TestJaroWinkler_IdenticalStringsScoreOne(t *testing.T) {
	assert.Equal(t, 1.0, JaroWinkler("putin", "putin"))
}

func TestJaroWinkler_DisjointStringsScoreZero(t *testing.T) {
	assert.Equal(t, 0.0, JaroWinkler("abc", "xyz"))
}

func TestJaroWinkler_PrefixBoost(t *testing.T) {
	close := JaroWinkler("martha", "marhta")
	assert.True(t, close > 0.9, "expected high similarity for transposed pair, got %f", close)
}

func TestNameBased_ExactNameMatchScoresHigh(t *testing.T) {
	query := putinEntity()
	candidate := putinEntity()
	result := NameBased{}.Compare(query, candidate, Config{})
	assert.True(t, result.Score > 0.9)
	assert.Contains(t, result.Features, "jaro_winkler")
}

func TestNameBased_NoSharedNamesScoresLow(t *testing.T) {
	query := putinEntity()
	other := entity.New("Q2", "Person")
	other.Add("name", entity.StringValue("Someone Else Entirely"))
	result := NameBased{}.Compare(query, other, Config{})
	assert.True(t, result.Score < 0.5)
}

func TestLogicBased_MatchesAcrossFeatures(t *testing.T) {
	query := putinEntity()
	candidate := putinEntity()
	result := LogicBased{}.Compare(query, candidate, Config{})
	// name 0.6 + country 0.1 + date 0.15; no identifiers on either side
	assert.InDelta(t, 0.85, result.Score, 1e-9)
	assert.Equal(t, 1.0, result.Features["country"])
	assert.Equal(t, 1.0, result.Features["date"])
}

func TestLogicBased_WeightsOverrideDefaults(t *testing.T) {
	query := putinEntity()
	candidate := putinEntity()
	result := LogicBased{}.Compare(query, candidate, Config{Weights: map[string]float64{"name": 1, "country": 0, "date": 0, "identifier": 0}})
	assert.InDelta(t, result.Features["name"], result.Score, 0.01)
}

func TestLookup_DefaultAlgorithm(t *testing.T) {
	algo, ok := Lookup("")
	require.True(t, ok)
	assert.Equal(t, DefaultAlgorithm, algo.Name())
}

func TestLookup_UnknownAlgorithmRejected(t *testing.T) {
	_, ok := Lookup("not-a-real-algorithm")
	assert.False(t, ok)
}
