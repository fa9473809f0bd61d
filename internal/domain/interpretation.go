package domain

// Interpretation is the structured classification of a natural-language
// podcast query. Category may hold an unrecognized value until Normalized
// is applied.
type Interpretation struct {
	Category    Category `json:"category"`
	Query       string   `json:"query"`
	Explanation string   `json:"explanation"`
}

// NewInterpretation creates a new Interpretation instance
func NewInterpretation(category, query, explanation string) Interpretation {
	return Interpretation{
		Category:    Category(category),
		Query:       query,
		Explanation: explanation,
	}
}

// Normalized returns a copy with the category reconciled to the taxonomy
func (i Interpretation) Normalized() Interpretation {
	i.Category = NormalizeCategory(string(i.Category))
	return i
}
