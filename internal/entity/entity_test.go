package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromJSON(t *testing.T) {
	e, err := FromJSON(map[string]any{
		"id":     "Q7747",
		"schema": "Person",
		"properties": map[string]any{
			"name":      []any{"Vladimir Putin"},
			"birthDate": []any{"1952-10-07"},
		},
		"datasets":    []any{"eu_fsf"},
		"referents":   []any{"gb-hmt-14196"},
		"target":      true,
		"first_seen":  "2020-01-01T00:00:00Z",
		"last_seen":   "2024-06-01",
		"last_change": "2023-05-01T12:00:00",
	})
	require.NoError(t, err)

	assert.Equal(t, "Q7747", e.ID)
	assert.Equal(t, "Person", e.Schema)
	assert.Equal(t, []string{"Vladimir Putin"}, e.Get("name"))
	assert.Equal(t, []string{"eu_fsf"}, e.Datasets)
	assert.Equal(t, []string{"gb-hmt-14196"}, e.Referents)
	assert.True(t, e.Target)
	assert.Equal(t, 2020, e.FirstSeen.Year())
	assert.Equal(t, 2024, e.LastSeen.Year())
	assert.Equal(t, 2023, e.LastChange.Year())
}

func TestFromJSON_MissingIDFails(t *testing.T) {
	_, err := FromJSON(map[string]any{"schema": "Person"})
	require.Error(t, err)
}

func TestFromJSON_EntityReferences(t *testing.T) {
	e, err := FromJSON(map[string]any{
		"id":     "s1",
		"schema": "Sanction",
		"properties": map[string]any{
			"entity": []any{map[string]any{"id": "Q7747"}},
		},
	})
	require.NoError(t, err)
	require.Len(t, e.Properties["entity"], 1)
	assert.Equal(t, "Q7747", e.Properties["entity"][0].Ref)
}

func TestFromExample(t *testing.T) {
	e, err := FromExample("Person", map[string][]string{
		"name":      {"Vladimir Putin"},
		"birthDate": {"1952"},
		"nonsense":  {"dropped"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Vladimir Putin"}, e.Get("name"))
	assert.Empty(t, e.Get("nonsense"))
}

func TestFromExample_UnknownSchema(t *testing.T) {
	_, err := FromExample("Robot", map[string][]string{"name": {"x"}})
	require.Error(t, err)
}

func TestHasReferent(t *testing.T) {
	e := New("Q7747", "Person")
	e.Referents = []string{"gb-hmt-14196"}

	assert.True(t, e.HasReferent("Q7747"))
	assert.True(t, e.HasReferent("gb-hmt-14196"))
	assert.False(t, e.HasReferent("other"))
}

func TestGetTypeValues(t *testing.T) {
	e := New("p", "Person")
	e.Add("name", StringValue("Vladimir Putin"))
	e.Add("alias", StringValue("V. Putin"))
	e.Add("birthDate", StringValue("1952"))

	assert.ElementsMatch(t, []string{"Vladimir Putin", "V. Putin"}, e.GetTypeValues(PropName))
	assert.Equal(t, []string{"1952"}, e.GetTypeValues(PropDate))
}
