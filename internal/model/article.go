package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Placeholder article IDs installed when a fetch yields nothing typeable.
const (
	NoNewsID     = "no-news"
	FetchErrorID = "error"
)

// ArticleID identifies an article. The provider sends numbers, placeholders use strings.
type ArticleID string

// UnmarshalJSON accepts both JSON numbers and strings.
func (id *ArticleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ArticleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid article id %s: %w", data, err)
	}
	*id = ArticleID(n.String())
	return nil
}

// Article is a single news article. Text holds the typeable content once prepared.
type Article struct {
	ID            ArticleID `json:"id"`
	Title         string    `json:"title"`
	Text          string    `json:"text"`
	URL           string    `json:"url"`
	PublishDate   string    `json:"publish_date"`
	Image         string    `json:"image,omitempty"`
	Author        string    `json:"author,omitempty"`
	Authors       []string  `json:"authors,omitempty"`
	SourceCountry string    `json:"source_country,omitempty"`
	Language      string    `json:"language,omitempty"`
	Summary       string    `json:"summary,omitempty"`
	Sentiment     *float64  `json:"sentiment,omitempty"`
}

// IsPlaceholder reports whether the article was synthesized locally.
func (a Article) IsPlaceholder() bool {
	return a.ID == NoNewsID || a.ID == FetchErrorID
}

// Quota is the provider's budget snapshot reported after each call.
type Quota struct {
	Requested float64 `json:"request"`
	Used      float64 `json:"used"`
	Remaining float64 `json:"left"`
}

// Exhausted reports whether no calls are left in the current period.
func (q Quota) Exhausted() bool {
	return q.Remaining <= 0
}

// Categories lists the supported news categories in display order.
var Categories = []string{"top", "politics", "sports", "business", "technology", "entertainment"}

// Country describes a supported source country.
type Country struct {
	Code     string
	Name     string
	Language string
}

// Countries lists the supported source countries.
var Countries = []Country{
	{Code: "us", Name: "US (English)", Language: "en"},
	{Code: "ca", Name: "Canada (French)", Language: "fr"},
}

// ValidCategory reports whether name is a supported category.
func ValidCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// LookupCountry returns the country for a code.
func LookupCountry(code string) (Country, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, c := range Countries {
		if c.Code == code {
			return c, true
		}
	}
	return Country{}, false
}

// LanguageFor returns the article language requested for a country.
func LanguageFor(code string) string {
	if c, ok := LookupCountry(code); ok {
		return c.Language
	}
	return "en"
}
