package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentryscreen/sentryscreen/internal/entity"
)

func TestTextQuery_EmptyQWithFiltersOnly(t *testing.T) {
	q, err := TextQuery(Filters{Datasets: []string{"default"}}, TextSearchOptions{})
	require.NoError(t, err)
	assert.NotNil(t, q)
}

func TestTextQuery_WithTerm(t *testing.T) {
	q, err := TextQuery(Filters{Schema: "Person"}, TextSearchOptions{Q: "vladimir putin", Fuzzy: true})
	require.NoError(t, err)
	assert.NotNil(t, q)
}

func TestParseSorts_AppendsScoreLast(t *testing.T) {
	sorts := ParseSorts([]string{"last_seen:desc", "name:asc"})
	require.Len(t, sorts, 3)
	assert.Equal(t, "-last_seen", sorts[0])
	assert.Equal(t, "name", sorts[1])
	assert.Equal(t, "-_score", sorts[2])
}

func TestCandidatePoolSize_ClampsToMinimum(t *testing.T) {
	assert.Equal(t, 20, CandidatePoolSize(1, 500, 10))
}

func TestCandidatePoolSize_ClampsToMax(t *testing.T) {
	assert.Equal(t, 100, CandidatePoolSize(1000, 100, 10))
}

func TestCandidatePoolSize_DefaultMultiplier(t *testing.T) {
	assert.Equal(t, 50, CandidatePoolSize(5, 500, 0))
}

func TestEntityQuery_FewNamesPerNameClause(t *testing.T) {
	e := entity.New("Q1", "Person")
	e.Add("name", entity.StringValue("Vladimir Putin"))
	e.Add("birthDate", entity.StringValue("1952-10-07"))
	e.Add("country", entity.StringValue("ru"))

	q := EntityQuery(Filters{}, e)
	assert.NotNil(t, q)
}

func TestEntityQuery_ManyNamesConcatenated(t *testing.T) {
	e := entity.New("Q1", "Person")
	for i := 0; i < 6; i++ {
		e.Add("alias", entity.StringValue(string(rune('A'+i))+" Alias Name"))
	}

	names := distinctNormalizedNames(e)
	require.True(t, len(names) > maxDistinctNames)

	clauses := namesClause(names)
	assert.Len(t, clauses, 1)
}

func TestFilterQuery_ExcludeEntityIDs(t *testing.T) {
	filters := filterQuery(Filters{ExcludeIDs: []string{"Q1"}})
	assert.NotEmpty(t, filters)
}
