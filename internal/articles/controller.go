// Package articles keeps per-category article lists, reading position and
// pagination, and gates fetches on the API key and the provider quota.
package articles

import (
	"context"
	"fmt"
	"sync"

	"github.com/verte-zerg/newstype/internal/gateway"
	"github.com/verte-zerg/newstype/internal/model"
)

// PageSize is the page length that signals more articles may exist.
const PageSize = gateway.PageSize

// State is the lifecycle of one category feed.
type State int

const (
	Empty State = iota
	Loading
	Ready
	Error
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Error:
		return "error"
	default:
		return "empty"
	}
}

type feed struct {
	articles []model.Article
	index    int
	offset   int
	hasMore  bool
	state    State
	inFlight uint64
}

// Pending is a fetch that has been started but not completed.
type Pending struct {
	token    uint64
	category string
	reset    bool
	req      gateway.Request
}

// Category returns the category the fetch was started for.
func (p *Pending) Category() string { return p.category }

// Reset reports whether the fetch replaces the category's articles.
func (p *Pending) Reset() bool { return p.reset }

// Options configures a Controller.
type Options struct {
	Category string
	Country  string
	APIKey   string
	// KeyOptional lets fetches run without a stored key (offline samples).
	KeyOptional bool
}

// Controller owns the article cache. It is safe for concurrent use.
type Controller struct {
	mu          sync.Mutex
	fetcher     gateway.Fetcher
	category    string
	country     string
	apiKey      string
	keyOptional bool
	feeds       map[string]*feed
	quota       *model.Quota
	banner      string
	promptOpen  bool
	promptMsg   string
	nextToken   uint64
}

// New returns a controller fetching through fetcher.
func New(fetcher gateway.Fetcher, opts Options) (*Controller, error) {
	category := opts.Category
	if category == "" {
		category = "top"
	}
	if !model.ValidCategory(category) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	country := opts.Country
	if country == "" {
		country = "us"
	}
	if _, ok := model.LookupCountry(country); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCountry, country)
	}
	return &Controller{
		fetcher:     fetcher,
		category:    category,
		country:     country,
		apiKey:      opts.APIKey,
		keyOptional: opts.KeyOptional,
		feeds:       make(map[string]*feed),
	}, nil
}

// SetCredential stores the API key and closes the prompt.
func (c *Controller) SetCredential(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = key
	c.promptOpen = false
	c.promptMsg = ""
}

// HasCredential reports whether fetches can run.
func (c *Controller) HasCredential() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apiKey != "" || c.keyOptional
}

// OpenCredentialPrompt asks for a new key without an upstream message.
func (c *Controller) OpenCredentialPrompt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.promptOpen = true
	c.promptMsg = ""
	c.banner = ""
}

// CloseCredentialPrompt dismisses the prompt. It stays open while no key is
// available, and reports whether it closed.
func (c *Controller) CloseCredentialPrompt() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.apiKey == "" && !c.keyOptional {
		return false
	}
	c.promptOpen = false
	c.promptMsg = ""
	return true
}

// SelectCategory switches category. When the category has no cached
// articles a reset fetch is started; otherwise the reading position rewinds.
func (c *Controller) SelectCategory(name string) (*Pending, error) {
	if !model.ValidCategory(name) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.category = name
	return c.reuseOrFetchLocked()
}

// SelectCountry switches source country, with the same cache rule as SelectCategory.
func (c *Controller) SelectCountry(code string) (*Pending, error) {
	country, ok := model.LookupCountry(code)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCountry, code)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.country = country.Code
	return c.reuseOrFetchLocked()
}

func (c *Controller) reuseOrFetchLocked() (*Pending, error) {
	f := c.feedLocked(c.category)
	if len(f.articles) == 0 {
		return c.beginLocked(c.category, true)
	}
	f.index = 0
	return nil, nil
}

// BeginFetch starts a fetch for the current category. The caller runs it
// with Run, or with the fetcher and Complete.
func (c *Controller) BeginFetch(reset bool) (*Pending, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.beginLocked(c.category, reset)
}

// Refresh starts a reset fetch for the current category.
func (c *Controller) Refresh() (*Pending, error) {
	return c.BeginFetch(true)
}

func (c *Controller) beginLocked(category string, reset bool) (*Pending, error) {
	if c.apiKey == "" && !c.keyOptional {
		c.promptOpen = true
		c.promptMsg = ""
		c.banner = ""
		return nil, ErrCredentialMissing
	}
	f := c.feedLocked(category)
	if f.inFlight != 0 {
		return nil, ErrFetchInFlight
	}
	if c.quota != nil && c.quota.Exhausted() {
		if !c.promptOpen {
			c.banner = QuotaMessage
		}
		return nil, ErrQuotaExceeded
	}
	if reset {
		f.offset = 0
		f.index = 0
		f.hasMore = true
	}
	c.nextToken++
	f.inFlight = c.nextToken
	f.state = Loading
	c.banner = ""
	return &Pending{
		token:    c.nextToken,
		category: category,
		reset:    reset,
		req: gateway.Request{
			Category: category,
			Country:  c.country,
			Offset:   f.offset,
			APIKey:   c.apiKey,
		},
	}, nil
}

// Run performs a started fetch and applies the result.
func (c *Controller) Run(ctx context.Context, p *Pending) error {
	page, err := c.fetcher.Fetch(ctx, p.req)
	return c.Complete(p, page, err)
}

// FetchPage starts and runs a fetch for the current category.
func (c *Controller) FetchPage(ctx context.Context, reset bool) error {
	p, err := c.BeginFetch(reset)
	if err != nil {
		return err
	}
	return c.Run(ctx, p)
}

// Complete applies the outcome of p. The category always ends up with
// displayable content after a reset fetch. The returned error is
// informational; its effects are already reflected in Banner and
// CredentialPrompt.
func (c *Controller) Complete(p *Pending, page gateway.Page, fetchErr error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.feeds[p.category]
	if f == nil || f.inFlight != p.token {
		return nil
	}
	f.inFlight = 0

	if fetchErr != nil {
		return c.failLocked(f, p, fetchErr)
	}

	if page.Quota != nil {
		q := *page.Quota
		c.quota = &q
	}
	n := len(page.Articles)
	switch {
	case n > 0 && (p.reset || onlyPlaceholder(f.articles)):
		f.articles = append([]model.Article(nil), page.Articles...)
		f.offset += n
		f.hasMore = n >= PageSize
	case n > 0:
		f.articles = append(f.articles, page.Articles...)
		f.offset += n
		f.hasMore = n >= PageSize
	default:
		if p.reset {
			f.articles = []model.Article{noNewsArticle()}
		}
		f.hasMore = false
	}
	f.state = Ready
	return nil
}

func (c *Controller) failLocked(f *feed, p *Pending, fetchErr error) error {
	var err error
	if msg, ok := credentialRejection(fetchErr); ok {
		c.promptOpen = true
		c.promptMsg = msg
		c.banner = ""
		err = &CredentialError{Message: msg, Err: fetchErr}
	} else {
		if !c.promptOpen {
			c.banner = FailMessage
			if quotaRejection(fetchErr) {
				c.banner = QuotaMessage
			}
		}
		err = &FetchError{Category: p.category, Err: fetchErr}
	}
	if p.reset {
		f.articles = []model.Article{errorArticle()}
		f.index = 0
		f.state = Error
	} else if len(f.articles) > 0 {
		f.state = Ready
	} else {
		f.state = Error
	}
	return err
}

// Advance moves to the next article. At the last cached article it starts
// a fetch for the next page when one may exist and wraps the index using
// the length known now, so the first article can repeat while the fetch runs.
func (c *Controller) Advance() (*Pending, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.feedLocked(c.category)
	n := len(f.articles)
	if f.index < n-1 {
		f.index++
		return nil, nil
	}
	var (
		p   *Pending
		err error
	)
	if f.hasMore {
		p, err = c.beginLocked(c.category, false)
	}
	f.index = (f.index + 1) % max(n, 1)
	return p, err
}

func (c *Controller) feedLocked(category string) *feed {
	f, ok := c.feeds[category]
	if !ok {
		f = &feed{hasMore: true}
		c.feeds[category] = f
	}
	return f
}

// Current returns the article at the reading position.
func (c *Controller) Current() (model.Article, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.feeds[c.category]
	if f == nil || f.index >= len(f.articles) {
		return model.Article{}, false
	}
	return f.articles[f.index], true
}

// Index returns the reading position in the current category.
func (c *Controller) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f := c.feeds[c.category]; f != nil {
		return f.index
	}
	return 0
}

// Count returns the number of cached articles in the current category.
func (c *Controller) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f := c.feeds[c.category]; f != nil {
		return len(f.articles)
	}
	return 0
}

// Offset returns the next page offset for the current category.
func (c *Controller) Offset() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f := c.feeds[c.category]; f != nil {
		return f.offset
	}
	return 0
}

func (c *Controller) Category() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.category
}

func (c *Controller) Country() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.country
}

// Quota returns a copy of the last reported quota, or nil.
func (c *Controller) Quota() *model.Quota {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.quota == nil {
		return nil
	}
	q := *c.quota
	return &q
}

// QuotaExhausted reports whether the last known quota has nothing left.
func (c *Controller) QuotaExhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quota != nil && c.quota.Exhausted()
}

// Loading reports whether the current category has a fetch in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.feeds[c.category]
	return f != nil && f.inFlight != 0
}

// HasMore reports whether another page may exist for the current category.
func (c *Controller) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.feeds[c.category]
	return f == nil || f.hasMore
}

// State returns the current category's feed state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f := c.feeds[c.category]; f != nil {
		return f.state
	}
	return Empty
}

// Banner returns the generic error message, empty when none.
func (c *Controller) Banner() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.banner
}

// CredentialPrompt reports whether the key prompt is open and the upstream
// message to show in it.
func (c *Controller) CredentialPrompt() (bool, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.promptOpen, c.promptMsg
}

func onlyPlaceholder(list []model.Article) bool {
	return len(list) == 1 && list[0].IsPlaceholder()
}

// Placeholders carry final typing text, like articles from a Fetcher.
func placeholder(id model.ArticleID, title, body string) model.Article {
	return model.Article{ID: id, Title: title, Text: gateway.PrepareText(title, body)}
}

func noNewsArticle() model.Article {
	return placeholder(model.NoNewsID, "No news available",
		"No news available at the moment. Please try another category or refresh.")
}

func errorArticle() model.Article {
	return placeholder(model.FetchErrorID, "Error loading news", FailMessage)
}
