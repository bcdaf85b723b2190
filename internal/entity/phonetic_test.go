package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhonetic(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Putin", "P350"},
		{"Vladimir", "V435"},
		{"", ""},
		{"---", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Phonetic(tt.in), tt.in)
	}
}

func TestPhonetic_SpellingVariantsShareCode(t *testing.T) {
	assert.Equal(t, Phonetic("Putin"), Phonetic("Poutine"))
	assert.Equal(t, Phonetic("Smith"), Phonetic("Smyth"))
}

func TestPhoneticTokens(t *testing.T) {
	codes := PhoneticTokens("Vladimir Putin")
	assert.Equal(t, []string{"V435", "P350"}, codes)
}

func TestPhoneticTokens_SkipsInitialsAndPunctuation(t *testing.T) {
	codes := PhoneticTokens("V. Putin")
	assert.Equal(t, []string{"P350"}, codes)

	assert.Empty(t, PhoneticTokens("- . !"))
}
