package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentryscreen/sentryscreen/internal/catalog"
	"github.com/sentryscreen/sentryscreen/internal/entity"
	"github.com/sentryscreen/sentryscreen/internal/indexstore"
	"github.com/sentryscreen/sentryscreen/internal/match"
)

func newTestService(t *testing.T) (*Service, catalog.Dataset) {
	t.Helper()
	store := indexstore.New("")
	alias := indexstore.Alias("sentryscreen")
	index := indexstore.IndexName("sentryscreen", "default", "v", "1")
	require.NoError(t, store.Create(index))

	e := entity.New("Q7747", "Person")
	e.Caption = "Vladimir Putin"
	e.Add("name", entity.StringValue("Vladimir Putin"))
	e.Datasets = []string{"eu_fsf"}
	require.NoError(t, store.BulkIndex(index, []*entity.Entity{e}))
	require.NoError(t, store.Refresh(index))
	store.Rollover(alias, indexstore.DatasetMemberPrefix("sentryscreen", "default"), index)

	router := match.NewRouter(store, 10)
	svc := NewService(router, alias, 10, 0.7, 0.3)
	ds := catalog.Dataset{Name: "default", SourceNames: []string{"eu_fsf"}}
	return svc, ds
}

func TestService_Manifest(t *testing.T) {
	svc, ds := newTestService(t)

	m := svc.Manifest(ds, "http://localhost:8080")
	assert.Equal(t, []string{"0.2"}, m.Versions)
	assert.Contains(t, m.Name, "default")
	assert.Equal(t, "http://localhost:8080/entities/{{id}}", m.View.URL)
	assert.NotEmpty(t, m.DefaultTypes)
}

func TestService_Run(t *testing.T) {
	svc, ds := newTestService(t)

	results, err := svc.Run(context.Background(), ds, map[string]Query{
		"q0": {Query: "Vladimir Putin", Type: "Person", Limit: 5},
	})
	require.NoError(t, err)

	qr := results["q0"]
	require.NotEmpty(t, qr.Result)
	top := qr.Result[0]
	assert.Equal(t, "Q7747", top.ID)
	assert.Equal(t, "Vladimir Putin", top.Name)
	assert.Greater(t, top.Score, 70.0)
	assert.True(t, top.Match)
	assert.Equal(t, "Person", top.Type[0].ID)
}

func TestService_RunDefaultsTypeToRoot(t *testing.T) {
	svc, ds := newTestService(t)

	results, err := svc.Run(context.Background(), ds, map[string]Query{
		"q0": {Query: "Vladimir Putin"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, results["q0"].Result)
}

func TestService_RunUnknownTypeFailsBatch(t *testing.T) {
	svc, ds := newTestService(t)

	_, err := svc.Run(context.Background(), ds, map[string]Query{
		"q0": {Query: "anything", Type: "Robot"},
	})
	require.Error(t, err)
}

func TestService_PropertyHints(t *testing.T) {
	ex, err := toExample(Query{
		Query: "Gazprom",
		Type:  "Company",
		Properties: []Property{
			{PID: "jurisdiction", V: "ru"},
			{PID: "registrationNumber", V: []any{"12345", "67890"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ru"}, ex.Get("jurisdiction"))
	assert.ElementsMatch(t, []string{"12345", "67890"}, ex.Get("registrationNumber"))
}
