// Package gateway fetches pages of articles for the practice loop.
package gateway

import (
	"context"
	"fmt"

	"github.com/verte-zerg/newstype/internal/model"
)

// PageSize is the number of articles a full page holds.
const PageSize = 10

// Request selects one page of articles.
type Request struct {
	Category string
	Country  string
	Offset   int
	APIKey   string
}

// Page is a flat list of prepared articles plus the provider quota, if reported.
type Page struct {
	Articles  []model.Article
	Available int
	Quota     *model.Quota
}

// Fetcher retrieves pages of articles.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (Page, error)
}

// StatusError is a failed response carrying an HTTP status.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("news request failed with status %d", e.StatusCode)
	}
	return e.Message
}

func preparePage(articles []model.Article, quota *model.Quota) Page {
	out := make([]model.Article, 0, len(articles))
	for _, a := range articles {
		a.Text = PrepareText(a.Title, a.Text)
		out = append(out, a)
	}
	return Page{Articles: out, Available: len(out), Quota: quota}
}
