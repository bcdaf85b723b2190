package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandDate(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"2023-01-01", []string{"2023-01-01", "2023-01", "2023"}},
		{"1952-10", []string{"1952-10", "1952"}},
		{"1952", []string{"1952"}},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExpandDate(tt.in), tt.in)
	}
}

func TestPrecision(t *testing.T) {
	assert.Equal(t, PrecisionDay, Precision("1952-10-07"))
	assert.Equal(t, PrecisionMonth, Precision("1952-10"))
	assert.Equal(t, PrecisionYear, Precision("1952"))
	assert.Equal(t, PrecisionNone, Precision(""))
}

func TestDatesOverlap(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"1952", "1952-10-07", true},
		{"1952-10", "1952-10-07", true},
		{"1952-10-07", "1952-10-07", true},
		{"1953", "1952-10-07", false},
		{"1952-11", "1952-10-07", false},
		{"", "1952", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DatesOverlap(tt.a, tt.b), "%s vs %s", tt.a, tt.b)
	}
}
