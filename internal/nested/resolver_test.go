package nested

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentryscreen/sentryscreen/internal/apierr"
	"github.com/sentryscreen/sentryscreen/internal/entity"
	"github.com/sentryscreen/sentryscreen/internal/indexstore"
)

// seedGraph indexes a small graph: a person, a sanction edge pointing at
// the person, and a referent id that collapsed into the person.
func seedGraph(t *testing.T) (*indexstore.Store, string) {
	t.Helper()
	store := indexstore.New("")
	alias := indexstore.Alias("sentryscreen")
	index := indexstore.IndexName("sentryscreen", "default", "v", "1")
	require.NoError(t, store.Create(index))

	person := entity.New("Q7747", "Person")
	person.Add("name", entity.StringValue("Vladimir Putin"))
	person.Referents = []string{"gb-hmt-14196"}

	sanction := entity.New("s1", "Sanction")
	sanction.Add("entity", entity.Value{Ref: "Q7747"})
	sanction.Add("authority", entity.StringValue("EU Council"))

	require.NoError(t, store.BulkIndex(index, []*entity.Entity{person, sanction}))
	require.NoError(t, store.Refresh(index))
	store.Rollover(alias, indexstore.DatasetMemberPrefix("sentryscreen", "default"), index)
	return store, alias
}

func TestResolver_Get(t *testing.T) {
	store, alias := seedGraph(t)
	r := NewResolver(store, alias)

	e, canonical, err := r.Get(context.Background(), "Q7747")
	require.NoError(t, err)
	assert.Empty(t, canonical)
	assert.Equal(t, "Q7747", e.ID)
}

func TestResolver_GetByReferentRedirects(t *testing.T) {
	store, alias := seedGraph(t)
	r := NewResolver(store, alias)

	e, canonical, err := r.Get(context.Background(), "gb-hmt-14196")
	require.NoError(t, err)
	assert.Nil(t, e)
	assert.Equal(t, "Q7747", canonical)
}

func TestResolver_GetUnknownIsNotFound(t *testing.T) {
	store, alias := seedGraph(t)
	r := NewResolver(store, alias)

	_, _, err := r.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))
}

func TestResolver_ResolveExpandsBothDirections(t *testing.T) {
	store, alias := seedGraph(t)
	r := NewResolver(store, alias)

	sanction, _, err := r.Get(context.Background(), "s1")
	require.NoError(t, err)

	fetched, err := r.Resolve(context.Background(), sanction, true)
	require.NoError(t, err)

	// outgoing: s1 --entity--> Q7747
	assert.Equal(t, []string{"Q7747"}, fetched.Outgoing["entity"])
	assert.Contains(t, fetched.Entities, "Q7747")

	// and from the person's side, s1 is an incoming reference
	person := fetched.Entities["Q7747"]
	back, err := r.Resolve(context.Background(), person, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, back.Incoming)
}

func TestResolver_IncomingEdgeExpandsFarSide(t *testing.T) {
	store := indexstore.New("")
	alias := indexstore.Alias("sentryscreen")
	index := indexstore.IndexName("sentryscreen", "default", "v", "1")
	require.NoError(t, store.Create(index))

	alice := entity.New("p-alice", "Person")
	alice.Add("name", entity.StringValue("Alice Orlova"))
	bob := entity.New("p-bob", "Person")
	bob.Add("name", entity.StringValue("Bob Volkov"))

	payment := entity.New("pay-1", "Payment")
	payment.Add("payer", entity.Value{Ref: "p-alice"})
	payment.Add("payee", entity.Value{Ref: "p-bob"})
	payment.Add("amount", entity.StringValue("1000000"))

	require.NoError(t, store.BulkIndex(index, []*entity.Entity{alice, bob, payment}))
	require.NoError(t, store.Refresh(index))
	store.Rollover(alias, indexstore.DatasetMemberPrefix("sentryscreen", "default"), index)

	r := NewResolver(store, alias)
	root, _, err := r.Get(context.Background(), "p-alice")
	require.NoError(t, err)

	fetched, err := r.Resolve(context.Background(), root, true)
	require.NoError(t, err)

	// the payment is an incoming edge, and its far side (the payee) is
	// fetched one hop further through it
	assert.Equal(t, []string{"pay-1"}, fetched.Incoming)
	assert.Contains(t, fetched.Entities, "pay-1")
	assert.Contains(t, fetched.Entities, "p-bob")

	// bob is not expanded any further: only the three seeded entities
	// plus nothing else appear
	assert.Len(t, fetched.Entities, 3)
}

func TestResolver_ResolveNestedFalseSkipsExpansion(t *testing.T) {
	store, alias := seedGraph(t)
	r := NewResolver(store, alias)

	sanction, _, err := r.Get(context.Background(), "s1")
	require.NoError(t, err)

	fetched, err := r.Resolve(context.Background(), sanction, false)
	require.NoError(t, err)
	assert.Len(t, fetched.Entities, 1)
	assert.Empty(t, fetched.Outgoing)
}

func TestAdjacent_Paginates(t *testing.T) {
	fetched := &Fetched{
		Entities: map[string]*entity.Entity{
			"a": entity.New("a", "Person"),
			"b": entity.New("b", "Person"),
			"c": entity.New("c", "Person"),
		},
		Outgoing: map[string][]string{"entity": {"a", "b", "c"}},
	}

	page, ok := Adjacent(fetched, "entity", 1, 1)
	require.True(t, ok)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Entities, 1)
	assert.Equal(t, "b", page.Entities[0].ID)

	// offset past the end yields an empty page, not an error
	page, ok = Adjacent(fetched, "entity", 10, 1)
	require.True(t, ok)
	assert.Empty(t, page.Entities)

	_, ok = Adjacent(fetched, "unknown", 0, 10)
	assert.False(t, ok)
}
