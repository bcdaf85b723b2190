package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSquashSpaces(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Vladimir   Putin ", "Vladimir Putin"},
		{"one\t\ntwo", "one two"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, squashSpaces(tt.in))
	}
}

func TestSafeString(t *testing.T) {
	assert.Equal(t, "Putin", SafeString(" Putin "))
	assert.Equal(t, "", SafeString("---"))
	assert.Equal(t, "", SafeString("  . , "))
	assert.Equal(t, "a-1", SafeString("a-1"))
}

func TestSafeString_ComposesUnicode(t *testing.T) {
	// decomposed e + combining acute accent collapses to the
	// precomposed form
	decomposed := "Vale\u0301rie"
	assert.Equal(t, "Val\u00e9rie", SafeString(decomposed))
}

func TestPreprocessName_ComposesUnicode(t *testing.T) {
	decomposed := "Rene\u0301 Mu\u0308ller"
	composed := "Ren\u00e9 M\u00fcller"
	assert.Equal(t, PreprocessName(composed, KindPerson), PreprocessName(decomposed, KindPerson))
	assert.Equal(t, "ren\u00e9 m\u00fcller", PreprocessName(decomposed, KindPerson))
}

func TestPreprocessName(t *testing.T) {
	tests := []struct {
		name string
		kind SchemaKind
		want string
	}{
		{"Mr. Vladimir Putin", KindPerson, "vladimir putin"},
		{"Dr Angela Merkel", KindPerson, "angela merkel"},
		{"Vladimir Putin", KindPerson, "vladimir putin"},
		{"Gazprom Bank OOO", KindOrganization, "gazprom bank"},
		{"Acme Holdings Ltd.", KindOrganization, "acme holdings"},
		{"Siemens GmbH", KindOrganization, "siemens"},
		{"Plain Name", KindOther, "plain name"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PreprocessName(tt.name, tt.kind), tt.name)
	}
}

func TestEntityNames_DeduplicatesAcrossProperties(t *testing.T) {
	e := New("x1", "Person")
	e.Add("name", StringValue("Vladimir Putin"))
	e.Add("alias", StringValue("Vladimir Putin"))
	e.Add("alias", StringValue("V. Putin"))
	e.Add("alias", StringValue("   "))

	names := EntityNames(e)
	assert.ElementsMatch(t, []string{"Vladimir Putin", "V. Putin"}, names)
}

func TestPickNames_PrefersLongestForms(t *testing.T) {
	names := []string{"VP", "Vladimir Putin", "Vladimir Vladimirovich Putin", "Putin"}
	picked := PickNames(names, 2)
	assert.Equal(t, []string{"Vladimir Vladimirovich Putin", "Vladimir Putin"}, picked)

	// under the limit, input is returned as-is
	assert.Equal(t, names, PickNames(names, 10))
}
