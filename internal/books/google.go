package books

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	gbooks "google.golang.org/api/books/v1"
	"google.golang.org/api/option"
)

const maxResults = 10

// GoogleSource queries the Google Books volumes API, the primary catalog.
type GoogleSource struct {
	svc *gbooks.Service
}

// NewGoogleSource builds the primary catalog client. An empty apiKey runs
// unauthenticated (lower quota); baseURL overrides the endpoint for tests.
func NewGoogleSource(ctx context.Context, apiKey, baseURL string) (*GoogleSource, error) {
	var opts []option.ClientOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	} else {
		opts = append(opts, option.WithoutAuthentication())
	}
	if baseURL != "" {
		opts = append(opts, option.WithEndpoint(baseURL))
	}
	svc, err := gbooks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to init google books service: %w", err)
	}
	return &GoogleSource{svc: svc}, nil
}

// buildQuery assembles field-scoped clauses from whichever params are set.
func buildQuery(p Params) string {
	var b strings.Builder
	if p.Title != "" {
		b.WriteString("intitle:" + p.Title + " ")
	}
	if p.Author != "" {
		b.WriteString("inauthor:" + p.Author + " ")
	}
	if p.Genre != "" {
		b.WriteString("subject:" + p.Genre + " ")
	}
	if p.GeneralQuery != "" {
		b.WriteString(p.GeneralQuery)
	}
	q := strings.TrimSpace(b.String())
	if q == "" {
		q = "bestseller books"
	}
	return q
}

func (g *GoogleSource) Search(ctx context.Context, p Params) ([]Book, error) {
	// Random result window so repeated identical queries vary.
	start := rand.Intn(11)
	vols, err := g.svc.Volumes.List(buildQuery(p)).
		MaxResults(maxResults).
		StartIndex(int64(start)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("google books search: %w", err)
	}
	out := make([]Book, 0, len(vols.Items))
	for _, item := range vols.Items {
		out = append(out, fromVolume(item))
	}
	return out, nil
}

func fromVolume(v *gbooks.Volume) Book {
	b := Book{ID: v.Id, Title: UnknownTitle, Authors: []string{UnknownAuthor}, Categories: []string{}}
	info := v.VolumeInfo
	if info == nil {
		return b
	}
	if info.Title != "" {
		b.Title = info.Title
	}
	if len(info.Authors) > 0 {
		b.Authors = info.Authors
	}
	b.Description = info.Description
	if b.Description == "" {
		b.Description = "No description available"
	}
	b.PublishedDate = info.PublishedDate
	if len(info.Categories) > 0 {
		b.Categories = info.Categories
	}
	if info.ImageLinks != nil {
		b.Thumbnail = info.ImageLinks.Thumbnail
	}
	b.PreviewLink = info.PreviewLink
	return b
}
