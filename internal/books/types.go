package books

// Sentinels substituted when a catalog source omits a field.
const (
	UnknownTitle  = "Unknown Title"
	UnknownAuthor = "Unknown Author"
)

// Book is the common shape both catalog sources are normalized to.
// It is transient: only a title/authors/categories projection is persisted.
type Book struct {
	ID            string
	Title         string
	Authors       []string
	Description   string
	PublishedDate string
	Categories    []string
	Thumbnail     string
	PreviewLink   string
}

// Params are structured search parameters extracted from a free-text
// request. GeneralQuery is always populated by the normalizer.
type Params struct {
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	Genre        string `json:"genre,omitempty"`
	GeneralQuery string `json:"general_query"`
}
