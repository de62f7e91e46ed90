package articles

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/verte-zerg/newstype/internal/gateway"
	"github.com/verte-zerg/newstype/internal/model"
)

type fakeFetcher struct {
	calls []gateway.Request
	pages []gateway.Page
	errs  []error
}

func (f *fakeFetcher) Fetch(ctx context.Context, req gateway.Request) (gateway.Page, error) {
	i := len(f.calls)
	f.calls = append(f.calls, req)
	var page gateway.Page
	var err error
	if i < len(f.pages) {
		page = f.pages[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return page, err
}

func makeArticles(start, n int) []model.Article {
	out := make([]model.Article, 0, n)
	for i := 0; i < n; i++ {
		id := strconv.Itoa(start + i)
		out = append(out, model.Article{ID: model.ArticleID(id), Title: "t" + id, Text: "text " + id})
	}
	return out
}

func newController(t *testing.T, f gateway.Fetcher, category string) *Controller {
	t.Helper()
	c, err := New(f, Options{Category: category, Country: "us", APIKey: "key"})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return c
}

func TestFetchPageReplacesOnReset(t *testing.T) {
	f := &fakeFetcher{pages: []gateway.Page{
		{Articles: makeArticles(1, 10), Quota: &model.Quota{Requested: 1, Used: 1, Remaining: 99}},
		{Articles: makeArticles(11, 3)},
		{Articles: makeArticles(21, 2)},
	}}
	c := newController(t, f, "sports")
	if err := c.FetchPage(context.Background(), true); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if c.Count() != 10 || !c.HasMore() || c.Offset() != 10 || c.State() != Ready {
		t.Fatalf("unexpected state count=%d more=%v offset=%d", c.Count(), c.HasMore(), c.Offset())
	}
	if q := c.Quota(); q == nil || q.Remaining != 99 {
		t.Fatalf("expected quota to be stored, got %+v", q)
	}
	if err := c.FetchPage(context.Background(), false); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if c.Count() != 13 || c.HasMore() || c.Offset() != 13 {
		t.Fatalf("expected appended short page, count=%d more=%v offset=%d", c.Count(), c.HasMore(), c.Offset())
	}
	if f.calls[1].Offset != 10 || f.calls[1].Category != "sports" || f.calls[1].APIKey != "key" {
		t.Fatalf("unexpected second request %+v", f.calls[1])
	}
	if q := c.Quota(); q == nil || q.Remaining != 99 {
		t.Fatalf("expected quota kept when page has none, got %+v", q)
	}
	if err := c.FetchPage(context.Background(), true); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if c.Count() != 2 || c.Offset() != 2 || f.calls[2].Offset != 0 {
		t.Fatalf("expected replaced cache, count=%d offset=%d", c.Count(), c.Offset())
	}
}

func TestAdvanceWrapsWithoutMore(t *testing.T) {
	f := &fakeFetcher{pages: []gateway.Page{{Articles: makeArticles(1, 3)}}}
	c := newController(t, f, "business")
	if err := c.FetchPage(context.Background(), true); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	for i := 0; i < 2; i++ {
		if p, err := c.Advance(); p != nil || err != nil {
			t.Fatalf("unexpected fetch on advance: %v %v", p, err)
		}
	}
	if c.Index() != 2 {
		t.Fatalf("expected index 2, got %d", c.Index())
	}
	p, err := c.Advance()
	if p != nil || err != nil {
		t.Fatalf("expected no fetch without more articles")
	}
	if c.Index() != 0 {
		t.Fatalf("expected wrap to 0, got %d", c.Index())
	}
	if len(f.calls) != 1 {
		t.Fatalf("expected one request, got %d", len(f.calls))
	}
}

func TestAdvanceAtEndFetchesAndWraps(t *testing.T) {
	f := &fakeFetcher{pages: []gateway.Page{
		{Articles: makeArticles(1, 10)},
		{Articles: makeArticles(11, 10)},
	}}
	c := newController(t, f, "technology")
	if err := c.FetchPage(context.Background(), true); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	for i := 0; i < 9; i++ {
		_, _ = c.Advance()
	}
	p, err := c.Advance()
	if err != nil || p == nil {
		t.Fatalf("expected next page fetch, got %v %v", p, err)
	}
	if c.Index() != 0 {
		t.Fatalf("expected index to wrap while fetching, got %d", c.Index())
	}
	if !c.Loading() {
		t.Fatalf("expected loading while fetch pending")
	}
	if err := c.Run(context.Background(), p); err != nil {
		t.Fatalf("run: %v", err)
	}
	if c.Count() != 20 || c.Index() != 0 || c.Loading() {
		t.Fatalf("unexpected state count=%d index=%d", c.Count(), c.Index())
	}
}

func TestZeroResultsOnResetInstallsPlaceholder(t *testing.T) {
	f := &fakeFetcher{pages: []gateway.Page{{}}}
	c := newController(t, f, "politics")
	if err := c.FetchPage(context.Background(), true); err != nil {
		t.Fatalf("expected empty result to be a soft condition, got %v", err)
	}
	a, ok := c.Current()
	if !ok || c.Count() != 1 || a.ID != model.NoNewsID {
		t.Fatalf("expected single no-news placeholder, got %+v", a)
	}
	if !strings.HasPrefix(a.Text, a.Title+"\n") {
		t.Fatalf("expected prepared placeholder text, got %q", a.Text)
	}
	if c.HasMore() || c.Banner() != "" {
		t.Fatalf("expected no more pages and no banner")
	}
}

func TestZeroResultsOnAppendStopsPaging(t *testing.T) {
	f := &fakeFetcher{pages: []gateway.Page{{Articles: makeArticles(1, 10)}, {}}}
	c := newController(t, f, "sports")
	_ = c.FetchPage(context.Background(), true)
	if err := c.FetchPage(context.Background(), false); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if c.Count() != 10 || c.HasMore() {
		t.Fatalf("expected cache kept and paging stopped")
	}
}

func TestQuotaExceededMakesNoRequest(t *testing.T) {
	f := &fakeFetcher{pages: []gateway.Page{{Articles: makeArticles(1, 2), Quota: &model.Quota{Used: 10, Remaining: 0}}}}
	c := newController(t, f, "top")
	if err := c.FetchPage(context.Background(), true); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	err := c.FetchPage(context.Background(), true)
	if !errors.Is(err, ErrQuotaExceeded) || Classify(err) != KindQuotaExceeded {
		t.Fatalf("expected quota exceeded, got %v", err)
	}
	if len(f.calls) != 1 {
		t.Fatalf("expected no network request, got %d calls", len(f.calls))
	}
	if c.Banner() != QuotaMessage || !c.QuotaExhausted() {
		t.Fatalf("expected quota banner, got %q", c.Banner())
	}
	if c.Count() != 2 {
		t.Fatalf("expected cache untouched, got %d", c.Count())
	}
}

func TestMissingCredentialOpensPrompt(t *testing.T) {
	f := &fakeFetcher{}
	c, err := New(f, Options{Category: "top", Country: "us"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	err = c.FetchPage(context.Background(), true)
	if Classify(err) != KindCredentialMissing {
		t.Fatalf("expected credential missing, got %v", err)
	}
	open, msg := c.CredentialPrompt()
	if !open || msg != "" || c.Banner() != "" {
		t.Fatalf("expected bare prompt without banner, open=%v msg=%q banner=%q", open, msg, c.Banner())
	}
	if len(f.calls) != 0 {
		t.Fatalf("expected no request")
	}
	if c.CloseCredentialPrompt() {
		t.Fatalf("prompt must stay open without a key")
	}
	c.SetCredential("abc")
	if open, _ := c.CredentialPrompt(); open || !c.HasCredential() {
		t.Fatalf("expected prompt closed after key set")
	}
	c.OpenCredentialPrompt()
	if !c.CloseCredentialPrompt() {
		t.Fatalf("expected prompt to close once a key exists")
	}
}

func TestKeyOptionalSkipsPrompt(t *testing.T) {
	f := &fakeFetcher{pages: []gateway.Page{{Articles: makeArticles(1, 1)}}}
	c, err := New(f, Options{KeyOptional: true})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := c.FetchPage(context.Background(), true); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if c.Category() != "top" || c.Country() != "us" {
		t.Fatalf("unexpected defaults %s %s", c.Category(), c.Country())
	}
}

func TestRejectedCredentialSuppressesBanner(t *testing.T) {
	f := &fakeFetcher{errs: []error{&gateway.StatusError{StatusCode: http.StatusUnauthorized, Message: "Invalid API key"}}}
	c := newController(t, f, "top")
	err := c.FetchPage(context.Background(), true)
	if Classify(err) != KindCredentialRejected {
		t.Fatalf("expected credential rejected, got %v", err)
	}
	open, msg := c.CredentialPrompt()
	if !open || msg != "Invalid API key" {
		t.Fatalf("expected prompt with upstream message, got %v %q", open, msg)
	}
	if c.Banner() != "" {
		t.Fatalf("expected no banner alongside prompt, got %q", c.Banner())
	}
	if a, _ := c.Current(); a.ID != model.FetchErrorID {
		t.Fatalf("expected error placeholder, got %+v", a)
	}
}

func TestErrorMentioningKeyIsCredentialFailure(t *testing.T) {
	f := &fakeFetcher{errs: []error{fmt.Errorf("upstream: your API key has expired")}}
	c := newController(t, f, "top")
	if err := c.FetchPage(context.Background(), true); Classify(err) != KindCredentialRejected {
		t.Fatalf("expected credential rejected, got %v", err)
	}
}

func TestNetworkFailureOnResetInstallsErrorPlaceholder(t *testing.T) {
	f := &fakeFetcher{errs: []error{errors.New("connection refused")}}
	c := newController(t, f, "entertainment")
	err := c.FetchPage(context.Background(), true)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) || fetchErr.Category != "entertainment" {
		t.Fatalf("expected fetch error, got %v", err)
	}
	a, ok := c.Current()
	if !ok || c.Count() != 1 || a.ID != model.FetchErrorID {
		t.Fatalf("expected error placeholder, got %+v", a)
	}
	if a.Text != a.Title+"\n"+FailMessage {
		t.Fatalf("expected prepared placeholder text, got %q", a.Text)
	}
	if c.Banner() != FailMessage || c.State() != Error {
		t.Fatalf("expected banner and error state, got %q %s", c.Banner(), c.State())
	}
	if open, _ := c.CredentialPrompt(); open {
		t.Fatalf("expected prompt closed for generic failure")
	}
}

func TestFailureOnAppendKeepsCache(t *testing.T) {
	f := &fakeFetcher{
		pages: []gateway.Page{{Articles: makeArticles(1, 10)}},
		errs:  []error{nil, errors.New("timeout")},
	}
	c := newController(t, f, "sports")
	_ = c.FetchPage(context.Background(), true)
	if err := c.FetchPage(context.Background(), false); err == nil {
		t.Fatalf("expected error")
	}
	if c.Count() != 10 || c.State() != Ready || c.Banner() != FailMessage {
		t.Fatalf("expected cache kept with banner, count=%d state=%s", c.Count(), c.State())
	}
}

func TestPlaceholderReplacedByLaterPage(t *testing.T) {
	f := &fakeFetcher{
		pages: []gateway.Page{{}, {Articles: makeArticles(1, 2)}},
		errs:  []error{errors.New("down")},
	}
	c := newController(t, f, "sports")
	_ = c.FetchPage(context.Background(), true)
	p, err := c.Advance()
	if err != nil || p == nil {
		t.Fatalf("expected fetch from error placeholder, got %v", err)
	}
	if err := c.Run(context.Background(), p); err != nil {
		t.Fatalf("run: %v", err)
	}
	if c.Count() != 2 {
		t.Fatalf("expected placeholder replaced, got %d articles", c.Count())
	}
	if c.Banner() != "" {
		t.Fatalf("expected banner cleared by new fetch")
	}
}

func TestSingleFlightGuard(t *testing.T) {
	f := &fakeFetcher{pages: []gateway.Page{{Articles: makeArticles(1, 1)}}}
	c := newController(t, f, "top")
	p, err := c.BeginFetch(true)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := c.Refresh(); !errors.Is(err, ErrFetchInFlight) || Classify(err) != KindInFlight {
		t.Fatalf("expected in-flight rejection, got %v", err)
	}
	if err := c.Run(context.Background(), p); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := c.Refresh(); err != nil {
		t.Fatalf("expected fetch allowed after completion, got %v", err)
	}
}

func TestSelectCategoryReusesCache(t *testing.T) {
	f := &fakeFetcher{pages: []gateway.Page{
		{Articles: makeArticles(1, 3)},
		{Articles: makeArticles(10, 2)},
	}}
	c := newController(t, f, "top")
	_ = c.FetchPage(context.Background(), true)
	_, _ = c.Advance()

	p, err := c.SelectCategory("sports")
	if err != nil || p == nil {
		t.Fatalf("expected fetch for empty category, got %v", err)
	}
	if p.Category() != "sports" || !p.Reset() {
		t.Fatalf("unexpected pending %+v", p)
	}
	if err := c.Run(context.Background(), p); err != nil {
		t.Fatalf("run: %v", err)
	}

	p, err = c.SelectCategory("top")
	if p != nil || err != nil {
		t.Fatalf("expected cache reuse, got %v %v", p, err)
	}
	if c.Index() != 0 || c.Count() != 3 {
		t.Fatalf("expected rewound cached feed, index=%d count=%d", c.Index(), c.Count())
	}
	if len(f.calls) != 2 {
		t.Fatalf("expected two requests, got %d", len(f.calls))
	}
}

func TestSelectCountryUsesNewCountry(t *testing.T) {
	f := &fakeFetcher{pages: []gateway.Page{{Articles: makeArticles(1, 1)}}}
	c := newController(t, f, "top")
	p, err := c.SelectCountry("CA")
	if err != nil || p == nil {
		t.Fatalf("expected fetch for empty cache, got %v", err)
	}
	if err := c.Run(context.Background(), p); err != nil {
		t.Fatalf("run: %v", err)
	}
	if f.calls[0].Country != "ca" || c.Country() != "ca" {
		t.Fatalf("expected canada request, got %+v", f.calls[0])
	}
	if _, err := c.SelectCountry("fr"); !errors.Is(err, ErrUnknownCountry) {
		t.Fatalf("expected unknown country, got %v", err)
	}
	if _, err := c.SelectCategory("weather"); Classify(err) != KindInvalid {
		t.Fatalf("expected invalid category, got %v", err)
	}
}

func TestPendingAppliesToOriginCategory(t *testing.T) {
	f := &fakeFetcher{pages: []gateway.Page{{Articles: makeArticles(1, 4)}}}
	c := newController(t, f, "top")
	p, err := c.BeginFetch(true)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	page, fetchErr := f.Fetch(context.Background(), gateway.Request{})
	if _, err := c.SelectCategory("politics"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := c.Complete(p, page, fetchErr); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if c.Count() != 0 {
		t.Fatalf("expected politics to stay empty, got %d", c.Count())
	}
	if _, err := c.SelectCategory("top"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if c.Count() != 4 {
		t.Fatalf("expected top to hold fetched articles, got %d", c.Count())
	}
}
