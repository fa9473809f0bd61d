package domain

import "strings"

// Category is the search taxonomy a query is classified into
type Category string

const (
	CategoryByPerson Category = "byperson"
	CategoryByTitle  Category = "bytitle"
	CategoryByTerm   Category = "byterm"
)

// Categories lists the valid categories in display order
func Categories() []Category {
	return []Category{CategoryByPerson, CategoryByTitle, CategoryByTerm}
}

// IsValid checks if the category is one of the fixed taxonomy values
func (c Category) IsValid() bool {
	switch c {
	case CategoryByPerson, CategoryByTitle, CategoryByTerm:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// NormalizeCategory maps any reported category onto the taxonomy.
// Unknown values, including the empty string, become byterm.
func NormalizeCategory(raw string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if c.IsValid() {
		return c
	}
	return CategoryByTerm
}
