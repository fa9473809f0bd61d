package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryConstants(t *testing.T) {
	assert.Equal(t, "byperson", string(CategoryByPerson))
	assert.Equal(t, "bytitle", string(CategoryByTitle))
	assert.Equal(t, "byterm", string(CategoryByTerm))
	assert.Len(t, Categories(), 3)
}

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		input    string
		expected Category
	}{
		{"byperson", CategoryByPerson},
		{"bytitle", CategoryByTitle},
		{"byterm", CategoryByTerm},
		{"BYPERSON", CategoryByPerson},
		{"  ByTitle\n", CategoryByTitle},
		{"nonsense", CategoryByTerm},
		{"", CategoryByTerm},
		{"by person", CategoryByTerm},
		{"person", CategoryByTerm},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := NormalizeCategory(tt.input)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, got, NormalizeCategory(string(got)))
		})
	}
}

func TestInterpretation_Normalized(t *testing.T) {
	raw := NewInterpretation("ByPerson", "David Deutsch", "guest")
	norm := raw.Normalized()

	assert.Equal(t, CategoryByPerson, norm.Category)
	assert.Equal(t, "David Deutsch", norm.Query)
	assert.Equal(t, Category("ByPerson"), raw.Category)

	odd := NewInterpretation("episodes", "x", "").Normalized()
	assert.Equal(t, CategoryByTerm, odd.Category)
}
