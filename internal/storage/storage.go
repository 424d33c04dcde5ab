package storage

import "time"

// BookSummary is the 3-field projection of a catalog record that is kept
// in the interaction log. Full catalog records are transient.
type BookSummary struct {
	Title      string   `json:"title"`
	Authors    []string `json:"authors"`
	Categories []string `json:"categories"`
}

// Record is one logged search/recommendation interaction.
// Records are appended in chronological order and are immutable; the only
// removal path is RewriteExcluding.
type Record struct {
	Timestamp  time.Time     `json:"timestamp"`
	UserID     string        `json:"user_id"`
	Query      string        `json:"query"`
	Command    string        `json:"command"`
	BooksFound int           `json:"books_found"`
	Books      []BookSummary `json:"books"`
	AIResponse string        `json:"ai_response,omitempty"`
}

// Recorder abstracts persistence of interaction records.
// Implementations can be file-based, database, etc.
// LoadAll should return records in append order, skipping entries it
// cannot decode. RewriteExcluding must preserve undecodable entries
// verbatim. Implementations must be safe for concurrent use.
type Recorder interface {
	Append(rec Record) error
	LoadAll() ([]Record, error)
	RewriteExcluding(match func(Record) bool) (int, error)
}
