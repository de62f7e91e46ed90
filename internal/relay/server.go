// Package relay serves news pages to newstype clients, holding the
// provider call, the server-side API key and an optional response cache.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/verte-zerg/newstype/internal/gateway"
	"github.com/verte-zerg/newstype/internal/model"
	"github.com/verte-zerg/newstype/internal/worldnews"
)

// EnvAPIKey names the environment variable holding the server key.
const EnvAPIKey = "WORLD_NEWS_API_KEY"

// Error messages returned to clients.
const (
	msgMissingKey  = "API key is missing. Send X-Api-Key or set WORLD_NEWS_API_KEY on the relay."
	msgRejectedKey = "API key rejected by the news provider"
	msgQuota       = "API quota exceeded. Please try again later."
	msgFailed      = "Failed to fetch news"
)

// Provider fetches one page from the upstream news API.
type Provider interface {
	Fetch(ctx context.Context, apiKey string, q worldnews.Query) (worldnews.Result, error)
}

// Options configures a Server.
type Options struct {
	APIKey   string
	Cache    Cache
	CacheTTL time.Duration
	Logger   *log.Logger
}

// Server answers GET /api/news.
type Server struct {
	provider Provider
	apiKey   string
	cache    Cache
	ttl      time.Duration
	logger   *log.Logger
}

// New returns a relay server in front of provider.
func New(provider Provider, opts Options) *Server {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		provider: provider,
		apiKey:   opts.APIKey,
		cache:    opts.Cache,
		ttl:      ttl,
		logger:   logger,
	}
}

// Handler returns the HTTP routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/news", s.handleNews)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	return s.logRequests(mux)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("relay listening", "addr", addr, "cache", s.cache != nil)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("relay shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

type newsQuery struct {
	category string
	country  string
	offset   int
}

func (q newsQuery) cacheKey() string {
	return fmt.Sprintf("news:%s:%s:%d", q.category, q.country, q.offset)
}

func parseQuery(r *http.Request) (newsQuery, error) {
	values := r.URL.Query()
	q := newsQuery{
		category: strings.ToLower(strings.TrimSpace(values.Get("category"))),
		country:  strings.ToLower(strings.TrimSpace(values.Get("country"))),
	}
	if q.category == "" {
		q.category = "top"
	}
	if q.country == "" {
		q.country = "us"
	}
	if !model.ValidCategory(q.category) {
		return newsQuery{}, fmt.Errorf("unknown category %q", q.category)
	}
	if _, ok := model.LookupCountry(q.country); !ok {
		return newsQuery{}, fmt.Errorf("unknown country %q", q.country)
	}
	if raw := values.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return newsQuery{}, fmt.Errorf("invalid offset %q", raw)
		}
		q.offset = offset
	}
	if q.category == "top" {
		q.offset = 0
	}
	return q, nil
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, gateway.Envelope{Error: "method not allowed"})
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, gateway.Envelope{Error: err.Error()})
		return
	}
	apiKey := strings.TrimSpace(r.Header.Get(gateway.APIKeyHeader))
	if apiKey == "" {
		apiKey = s.apiKey
	}
	if apiKey == "" {
		writeJSON(w, http.StatusUnauthorized, gateway.Envelope{Error: msgMissingKey})
		return
	}
	// Client keys are only checked upstream, so they never read the cache.
	useCache := apiKey == s.apiKey

	ctx := r.Context()
	if useCache {
		if data, ok := s.cached(ctx, q); ok {
			w.Header().Set("X-Cache", "HIT")
			writeJSON(w, http.StatusOK, gateway.Envelope{Data: data})
			return
		}
	}

	res, err := s.provider.Fetch(ctx, apiKey, worldnews.Query{
		Category: q.category,
		Country:  q.country,
		Offset:   q.offset,
	})
	if err != nil {
		status, msg := mapProviderError(err)
		s.logger.Warn("provider request failed", "category", q.category, "country", q.country, "status", status, "err", err)
		writeJSON(w, status, gateway.Envelope{Error: msg})
		return
	}

	news := res.Articles
	if news == nil {
		news = []model.Article{}
	}
	data := &gateway.EnvelopeData{News: news, Available: len(news)}
	if useCache {
		s.store(ctx, q, data)
	}
	w.Header().Set("X-Cache", "MISS")
	writeJSON(w, http.StatusOK, gateway.Envelope{Data: data, Quota: res.Quota})
}

// cached returns a stored page. Cached pages carry no quota since the
// snapshot would be stale.
func (s *Server) cached(ctx context.Context, q newsQuery) (*gateway.EnvelopeData, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, ok, err := s.cache.Get(ctx, q.cacheKey())
	if err != nil {
		s.logger.Warn("cache read failed", "key", q.cacheKey(), "err", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var data gateway.EnvelopeData
	if err := json.Unmarshal(raw, &data); err != nil {
		s.logger.Warn("cache entry unreadable", "key", q.cacheKey(), "err", err)
		return nil, false
	}
	return &data, true
}

func (s *Server) store(ctx context.Context, q newsQuery, data *gateway.EnvelopeData) {
	if s.cache == nil || len(data.News) == 0 {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		s.logger.Warn("cache encode failed", "err", err)
		return
	}
	if err := s.cache.Set(ctx, q.cacheKey(), raw, s.ttl); err != nil {
		s.logger.Warn("cache write failed", "key", q.cacheKey(), "err", err)
	}
}

func mapProviderError(err error) (int, string) {
	var apiErr *worldnews.APIError
	if !errors.As(err, &apiErr) {
		return http.StatusBadGateway, msgFailed
	}
	switch apiErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		if apiErr.Message != "" {
			return apiErr.StatusCode, msgRejectedKey + ": " + apiErr.Message
		}
		return apiErr.StatusCode, msgRejectedKey
	case http.StatusPaymentRequired, http.StatusTooManyRequests:
		return http.StatusTooManyRequests, msgQuota
	default:
		return http.StatusBadGateway, msgFailed
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort write; the client may have gone away.
		_ = err
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"category", r.URL.Query().Get("category"),
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}
