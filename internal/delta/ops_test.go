package delta

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentryscreen/sentryscreen/internal/catalog"
)

func TestOps_FullIngestion(t *testing.T) {
	ndjson := strings.Join([]string{
		`{"id":"e1","schema":"Person","properties":{"name":["A"]}}`,
		`{"id":"e2","schema":"Person","properties":{"name":["B"]}}`,
	}, "\n")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, ndjson)
	}))
	defer srv.Close()

	f := NewFetcher(true)
	plan := &Plan{Full: true, Dataset: catalog.Dataset{EntitiesURL: srv.URL}}

	var recs []Record
	for rec, err := range f.Ops(context.Background(), plan) {
		require.NoError(t, err)
		recs = append(recs, rec)
	}
	require.Len(t, recs, 2)
	assert.Equal(t, OpAdd, recs[0].Op)
	assert.Equal(t, "e1", recs[0].Entity.ID)
	assert.Equal(t, "e2", recs[1].Entity.ID)
}

func TestOps_DeltaReplayOrder(t *testing.T) {
	srv1 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"op":"ADD","entity":{"id":"e1","schema":"Person","properties":{"name":["A"]}}}`+"\n")
	}))
	defer srv1.Close()
	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Join([]string{
			`{"op":"MOD","entity":{"id":"e1","schema":"Person","properties":{"name":["A2"]}}}`,
			`{"op":"DEL","entity":{"id":"e2"}}`,
		}, "\n"))
	}))
	defer srv2.Close()

	f := NewFetcher(true)
	plan := &Plan{Full: false, DeltaURLs: []string{srv1.URL, srv2.URL}}

	var recs []Record
	for rec, err := range f.Ops(context.Background(), plan) {
		require.NoError(t, err)
		recs = append(recs, rec)
	}
	require.Len(t, recs, 3)
	assert.Equal(t, OpAdd, recs[0].Op)
	assert.Equal(t, OpMod, recs[1].Op)
	assert.Equal(t, OpDel, recs[2].Op)
	assert.Equal(t, "e2", recs[2].Entity.ID)
}
