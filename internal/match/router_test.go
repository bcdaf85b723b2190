package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentryscreen/sentryscreen/internal/entity"
	"github.com/sentryscreen/sentryscreen/internal/indexstore"
	"github.com/sentryscreen/sentryscreen/internal/query"
)

func seedPutin(t *testing.T, store *indexstore.Store, index string) {
	t.Helper()
	require.NoError(t, store.Create(index))
	e := entity.New("Q7747", "Person")
	e.Add("name", entity.StringValue("Vladimir Putin"))
	e.Add("birthDate", entity.StringValue("1952-10-07"))
	e.Add("country", entity.StringValue("ru"))
	e.Referents = []string{"gb-hmt-14196"}
	require.NoError(t, store.BulkIndex(index, []*entity.Entity{e}))
	require.NoError(t, store.Refresh(index))
}

func newTestStore(t *testing.T) (*indexstore.Store, string) {
	t.Helper()
	store := indexstore.New("")
	alias := indexstore.Alias("sentryscreen")
	index := indexstore.IndexName("sentryscreen", "default", "v", "1")
	seedPutin(t, store, index)
	store.Rollover(alias, indexstore.DatasetMemberPrefix("sentryscreen", "default"), index)
	return store, alias
}

func TestRouter_MatchesByName(t *testing.T) {
	store, alias := newTestStore(t)
	router := NewRouter(store, 10)

	example, err := entity.FromExample("Person", map[string][]string{
		"name":      {"Vladimir Putin"},
		"birthDate": {"1952"},
		"country":   {"ru"},
	})
	require.NoError(t, err)

	result, err := router.Run(context.Background(), Request{
		Alias:     alias,
		Examples:  []Example{{Key: "vv", Entity: example}},
		Algorithm: "name-based",
		Limit:     10,
		Threshold: 0.7,
		Cutoff:    0.5,
		Filters:   query.Filters{},
	})
	require.NoError(t, err)

	resp := result.Responses["vv"]
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Q7747", resp.Results[0].Entity.ID)
	assert.Greater(t, resp.Results[0].Score, 0.70)
	assert.True(t, resp.Results[0].Match)
}

func TestRouter_ExcludeEntityIDs(t *testing.T) {
	store, alias := newTestStore(t)
	router := NewRouter(store, 10)

	example, err := entity.FromExample("Person", map[string][]string{
		"name": {"Vladimir Putin"},
	})
	require.NoError(t, err)

	result, err := router.Run(context.Background(), Request{
		Alias:     alias,
		Examples:  []Example{{Key: "vv", Entity: example}},
		Algorithm: "name-based",
		Limit:     10,
		Threshold: 0.7,
		Cutoff:    0.5,
		Filters:   query.Filters{ExcludeIDs: []string{"gb-hmt-14196"}},
	})
	require.NoError(t, err)

	resp := result.Responses["vv"]
	assert.Empty(t, resp.Results)
}

func TestRouter_UnknownAlgorithm(t *testing.T) {
	store, alias := newTestStore(t)
	router := NewRouter(store, 10)

	example, err := entity.FromExample("Person", map[string][]string{"name": {"Jane Doe"}})
	require.NoError(t, err)

	_, err = router.Run(context.Background(), Request{
		Alias:     alias,
		Examples:  []Example{{Key: "x", Entity: example}},
		Algorithm: "neural-net",
	})
	require.Error(t, err)
}
