package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/newstype/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "newstype.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return st
}

func session(category string, ended time.Time, wpm int) model.SessionStats {
	return model.SessionStats{
		StartedAt:  ended.Add(-time.Minute),
		EndedAt:    ended,
		Category:   category,
		Country:    "us",
		ArticleID:  "42",
		ArticleURL: "https://example.com/42",
		Chars:      300,
		Errors:     6,
		WPM:        wpm,
		Accuracy:   98,
		DurationMs: 60000,
	}
}

func TestInsertAndListSessions(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	id1, err := st.InsertSession(ctx, session("top", base, 40), []model.CharStats{
		{Char: "a", Correct: 10, Incorrect: 1, LatencySumMs: 1000, LatencyCount: 10},
		{Char: "b", Correct: 5, LatencySumMs: 600, LatencyCount: 5},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	id2, err := st.InsertSession(ctx, session("sports", base.Add(time.Hour), 50), []model.CharStats{
		{Char: "a", Correct: 4, Incorrect: 2, LatencySumMs: 400, LatencyCount: 4},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := st.InsertSession(ctx, session("top", base.Add(2*time.Hour), 60), nil); err != nil {
		t.Fatalf("insert: %v", err)
	}

	all, err := st.ListSessions(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].SessionID != id1 || all[2].WPM != 60 {
		t.Fatalf("unexpected sessions %+v", all)
	}
	if !all[0].EndedAt.Equal(base) || all[0].Category != "top" || all[0].Accuracy != 98 {
		t.Fatalf("unexpected first session %+v", all[0])
	}

	top, err := st.ListSessions(ctx, model.StatsConfig{Category: "top"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 top sessions, got %d", len(top))
	}

	last, err := st.ListSessions(ctx, model.StatsConfig{Last: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(last) != 2 || last[0].SessionID != id2 || last[1].WPM != 60 {
		t.Fatalf("expected two most recent sessions oldest first, got %+v", last)
	}

	since := base.Add(90 * time.Minute)
	recent, err := st.ListSessions(ctx, model.StatsConfig{Since: &since})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 session since cutoff, got %d", len(recent))
	}

	aggs, err := st.ListCharAggregatesForSessions(ctx, []int64{id1, id2})
	if err != nil {
		t.Fatalf("aggregates: %v", err)
	}
	if len(aggs) != 2 || aggs[0].Char != "a" || aggs[0].Correct != 14 || aggs[0].Incorrect != 3 || aggs[0].LatencyCount != 14 {
		t.Fatalf("unexpected aggregates %+v", aggs)
	}
	if none, err := st.ListCharAggregatesForSessions(ctx, nil); err != nil || none != nil {
		t.Fatalf("expected nil aggregates for no sessions")
	}
}

func TestKeyValue(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	if _, ok, err := st.Get(ctx, "apiKey"); err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}
	if err := st.Set(ctx, "apiKey", "first"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := st.Set(ctx, "apiKey", "second"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := st.Get(ctx, "apiKey")
	if err != nil || !ok || v != "second" {
		t.Fatalf("expected overwritten value, got %q %v %v", v, ok, err)
	}
	if err := st.Delete(ctx, "apiKey"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := st.Delete(ctx, "apiKey"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if _, ok, _ := st.Get(ctx, "apiKey"); ok {
		t.Fatalf("expected key removed")
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "newstype.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := st.Set(ctx, "typingStreak", "3"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	st, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() {
		_ = st.Close()
	}()
	if v, ok, err := st.Get(ctx, "typingStreak"); err != nil || !ok || v != "3" {
		t.Fatalf("expected persisted value, got %q %v %v", v, ok, err)
	}
}
