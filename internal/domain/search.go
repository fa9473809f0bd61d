package domain

// Defaults applied to search records built from loosely typed payloads
const (
	UnknownTitle         = "Unknown"
	UnknownAuthor        = "Unknown"
	MaxDescriptionLength = 200
	DefaultMaxResults    = 20
)

// SearchRecord is one podcast feed returned by the search service
type SearchRecord struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	Description  string `json:"description"`
	EpisodeCount int    `json:"episode_count"`
	Artwork      string `json:"artwork,omitempty"`
	URL          string `json:"url"`
	Language     string `json:"language,omitempty"`
}

// SearchOutcome is the mapped result of one search call
type SearchOutcome struct {
	Category Category       `json:"category"`
	Query    string         `json:"query"`
	Records  []SearchRecord `json:"records"`
	Total    int            `json:"total"`
}
