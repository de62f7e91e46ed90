package streak

import (
	"context"
	"testing"
	"time"
)

type memKV map[string]string

func (m memKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m memKV) Set(ctx context.Context, key, value string) error {
	m[key] = value
	return nil
}

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.Local)
}

func TestApplyFirstVisit(t *testing.T) {
	rec := Apply(Record{}, day(2024, 5, 1, 9))
	if rec.Days != 1 || !rec.LastVisit.Equal(day(2024, 5, 1, 0)) {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestApplySameDay(t *testing.T) {
	prev := Record{Days: 4, LastVisit: day(2024, 5, 1, 0)}
	rec := Apply(prev, day(2024, 5, 1, 23))
	if rec.Days != 4 {
		t.Fatalf("expected unchanged streak, got %d", rec.Days)
	}
}

func TestApplyNextDay(t *testing.T) {
	prev := Record{Days: 4, LastVisit: day(2024, 2, 28, 0)}
	rec := Apply(prev, day(2024, 2, 29, 1))
	if rec.Days != 5 {
		t.Fatalf("expected streak 5, got %d", rec.Days)
	}
}

func TestApplyGapResets(t *testing.T) {
	prev := Record{Days: 9, LastVisit: day(2024, 5, 1, 0)}
	rec := Apply(prev, day(2024, 5, 3, 8))
	if rec.Days != 1 || !rec.LastVisit.Equal(day(2024, 5, 3, 0)) {
		t.Fatalf("expected reset streak, got %+v", rec)
	}
}

func TestVisitPersists(t *testing.T) {
	ctx := context.Background()
	kv := memKV{}

	rec, changed, err := Visit(ctx, kv, day(2024, 12, 31, 10))
	if err != nil || !changed || rec.Days != 1 {
		t.Fatalf("unexpected first visit %+v %v %v", rec, changed, err)
	}
	if kv[StreakKey] != "1" || kv[LastVisitKey] != "2024-12-31" {
		t.Fatalf("unexpected stored values %v", kv)
	}

	rec, changed, err = Visit(ctx, kv, day(2024, 12, 31, 22))
	if err != nil || changed || rec.Days != 1 {
		t.Fatalf("unexpected same-day visit %+v %v %v", rec, changed, err)
	}

	rec, changed, err = Visit(ctx, kv, day(2025, 1, 1, 7))
	if err != nil || !changed || rec.Days != 2 {
		t.Fatalf("unexpected next-day visit %+v %v %v", rec, changed, err)
	}
	if kv[LastVisitKey] != "2025-01-01" {
		t.Fatalf("unexpected last visit %q", kv[LastVisitKey])
	}
}

func TestLoadIgnoresGarbage(t *testing.T) {
	kv := memKV{StreakKey: "many", LastVisitKey: "yesterday"}
	rec, err := Load(context.Background(), kv)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec.Days != 0 || !rec.LastVisit.IsZero() {
		t.Fatalf("expected zero record, got %+v", rec)
	}
}
