package gateway

import (
	"context"
	"errors"

	"github.com/verte-zerg/newstype/internal/worldnews"
)

// Direct calls the provider in-process.
type Direct struct {
	Client *worldnews.Client
}

// NewDirect wraps a provider client.
func NewDirect(client *worldnews.Client) *Direct {
	return &Direct{Client: client}
}

// Fetch implements Fetcher.
func (d *Direct) Fetch(ctx context.Context, req Request) (Page, error) {
	res, err := d.Client.Fetch(ctx, req.APIKey, worldnews.Query{
		Category: req.Category,
		Country:  req.Country,
		Offset:   req.Offset,
	})
	if err != nil {
		var apiErr *worldnews.APIError
		if errors.As(err, &apiErr) {
			return Page{}, &StatusError{StatusCode: apiErr.StatusCode, Message: apiErr.Error()}
		}
		return Page{}, err
	}
	return preparePage(res.Articles, res.Quota), nil
}
