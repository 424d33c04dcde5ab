package books

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
)

const DefaultOpenLibraryBaseURL = "https://openlibrary.org"

// OpenLibrarySource is the fallback catalog. It takes a plain-text query
// rather than structured params.
type OpenLibrarySource struct {
	baseURL string
	client  *http.Client
}

func NewOpenLibrarySource(baseURL string, timeout time.Duration) *OpenLibrarySource {
	if baseURL == "" {
		baseURL = DefaultOpenLibraryBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenLibrarySource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type openLibraryDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
	Subject          []string `json:"subject"`
	CoverID          int64    `json:"cover_i"`
}

type openLibraryResponse struct {
	Docs []openLibraryDoc `json:"docs"`
}

func (o *OpenLibrarySource) Search(ctx context.Context, query string) ([]Book, error) {
	u := fmt.Sprintf("%s/search.json?q=%s&limit=%d", o.baseURL, url.QueryEscape(query), maxResults)
	var parsed openLibraryResponse
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
			if err != nil {
				return err
			}
			resp, err := o.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("unexpected status %d", resp.StatusCode)
			}
			parsed = openLibraryResponse{}
			return json.NewDecoder(resp.Body).Decode(&parsed)
		},
		retry.Context(ctx),
		retry.Attempts(2),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("open library search: %w", err)
	}
	out := make([]Book, 0, len(parsed.Docs))
	for _, doc := range parsed.Docs {
		out = append(out, fromDoc(doc))
	}
	return out, nil
}

func fromDoc(doc openLibraryDoc) Book {
	b := Book{ID: doc.Key, Title: UnknownTitle, Authors: []string{UnknownAuthor}, Categories: []string{}}
	if doc.Title != "" {
		b.Title = doc.Title
	}
	if len(doc.AuthorName) > 0 {
		b.Authors = doc.AuthorName
	}
	if doc.FirstPublishYear != 0 {
		b.PublishedDate = fmt.Sprintf("%d", doc.FirstPublishYear)
	}
	if len(doc.Subject) > 0 {
		b.Categories = doc.Subject
	}
	if doc.CoverID != 0 {
		b.Thumbnail = fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-M.jpg", doc.CoverID)
	}
	if doc.Key != "" {
		b.PreviewLink = "https://openlibrary.org" + doc.Key
	}
	return b
}
