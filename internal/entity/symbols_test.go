package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymbols_OrganizationLegalFormAndEquivalence(t *testing.T) {
	e := New("ru-gazprombank", "Company")
	e.Add("name", StringValue("Gazprom Bank OOO"))

	syms := Symbols(e)
	assert.Contains(t, syms, "ORGCLS:LLC")
	assert.Contains(t, syms, "SYMBOL:BANK")
	assert.Contains(t, syms, "NAME:gazprom bank")
}

func TestSymbols_TransliteratedEquivalence(t *testing.T) {
	a := New("a", "Company")
	a.Add("name", StringValue("Gazprom Banka"))
	b := New("b", "Company")
	b.Add("name", StringValue("Газпром Банк"))

	assert.Contains(t, Symbols(a), "SYMBOL:BANK")
	assert.Contains(t, Symbols(b), "SYMBOL:BANK")
}

func TestSymbols_PersonHasNoOrgClass(t *testing.T) {
	e := New("p", "Person")
	e.Add("name", StringValue("Mr Ivan Ooo"))

	for _, s := range Symbols(e) {
		assert.NotContains(t, s, "ORGCLS:")
	}
}

func TestSymbols_Deduplicates(t *testing.T) {
	e := New("c", "Company")
	e.Add("name", StringValue("Alpha Bank OOO"))
	e.Add("alias", StringValue("Alfa Bank LLC"))

	count := 0
	for _, s := range Symbols(e) {
		if s == "SYMBOL:BANK" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestIsMatchableSymbol(t *testing.T) {
	assert.False(t, IsMatchableSymbol("ab"))
	assert.True(t, IsMatchableSymbol("abc"))
	assert.True(t, IsMatchableSymbol("банк"))
}
