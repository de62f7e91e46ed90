package worldnews

import (
	"encoding/json"
	"fmt"

	"github.com/verte-zerg/newstype/internal/model"
)

// response holds either the nested top-news shape or the flat search shape.
type response struct {
	top  []topGroup
	flat []model.Article
}

type topGroup struct {
	News []model.Article `json:"news"`
}

func (r *response) UnmarshalJSON(data []byte) error {
	var raw struct {
		TopNews *[]topGroup     `json:"top_news"`
		News    *[]model.Article `json:"news"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.TopNews != nil:
		r.top = *raw.TopNews
	case raw.News != nil:
		r.flat = *raw.News
	default:
		return fmt.Errorf("response has neither top_news nor news")
	}
	return nil
}

// articles flattens top-news groups in order.
func (r response) articles() []model.Article {
	if r.top == nil {
		return r.flat
	}
	var out []model.Article
	for _, g := range r.top {
		out = append(out, g.News...)
	}
	return out
}
