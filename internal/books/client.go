package books

import (
	"context"
	"log"
	"strings"
)

type primarySource interface {
	Search(ctx context.Context, p Params) ([]Book, error)
}

type fallbackSource interface {
	Search(ctx context.Context, query string) ([]Book, error)
}

// Client merges the two catalog sources: Google Books first, Open Library
// when the primary comes back empty or errors.
type Client struct {
	primary  primarySource
	fallback fallbackSource
}

func NewClient(primary *GoogleSource, fallback *OpenLibrarySource) *Client {
	return &Client{primary: primary, fallback: fallback}
}

// Search returns the primary results when there are any. Otherwise it runs
// the fallback with a plain-text query. A fallback failure is swallowed to
// an empty result set; the primary's error propagates only when the
// fallback failed too, so a transient outage never aborts a command
// without the fallback having been tried.
func (c *Client) Search(ctx context.Context, p Params) ([]Book, error) {
	found, err := c.primary.Search(ctx, p)
	if err == nil && len(found) > 0 {
		return found, nil
	}
	if err != nil {
		log.Printf("primary catalog failed, trying fallback: %v", err)
	}

	fb, ferr := c.fallback.Search(ctx, fallbackQuery(p))
	if ferr != nil {
		log.Printf("fallback catalog failed: %v", ferr)
		if err != nil {
			return nil, err
		}
		return []Book{}, nil
	}
	return fb, nil
}

func fallbackQuery(p Params) string {
	if p.GeneralQuery != "" {
		return p.GeneralQuery
	}
	return strings.TrimSpace(p.Title + " " + p.Author)
}
