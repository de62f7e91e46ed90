// Package streak tracks consecutive days of practice.
package streak

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Local storage keys.
const (
	StreakKey    = "typingStreak"
	LastVisitKey = "lastVisitDate"
)

// DateLayout is the stored calendar date format.
const DateLayout = "2006-01-02"

// Record is the stored streak state. A zero LastVisit means no visit yet.
type Record struct {
	Days      int
	LastVisit time.Time
}

// KV is the local key-value storage.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Apply returns the record after a visit on today. Only the calendar date
// of today matters.
func Apply(rec Record, today time.Time) Record {
	day := dateOf(today)
	if rec.LastVisit.IsZero() || rec.Days <= 0 {
		return Record{Days: 1, LastVisit: day}
	}
	last := dateOf(rec.LastVisit)
	switch {
	case day.Equal(last):
		return Record{Days: rec.Days, LastVisit: last}
	case day.Equal(last.AddDate(0, 0, 1)):
		return Record{Days: rec.Days + 1, LastVisit: day}
	default:
		return Record{Days: 1, LastVisit: day}
	}
}

// Load reads the stored record. Missing or unreadable values load as zero.
func Load(ctx context.Context, kv KV) (Record, error) {
	var rec Record
	raw, ok, err := kv.Get(ctx, StreakKey)
	if err != nil {
		return Record{}, fmt.Errorf("load streak: %w", err)
	}
	if ok {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			rec.Days = n
		}
	}
	raw, ok, err = kv.Get(ctx, LastVisitKey)
	if err != nil {
		return Record{}, fmt.Errorf("load last visit: %w", err)
	}
	if ok {
		if t, err := time.ParseInLocation(DateLayout, raw, time.Local); err == nil {
			rec.LastVisit = t
		}
	}
	return rec, nil
}

// Save writes rec.
func Save(ctx context.Context, kv KV, rec Record) error {
	if err := kv.Set(ctx, StreakKey, strconv.Itoa(rec.Days)); err != nil {
		return fmt.Errorf("save streak: %w", err)
	}
	if err := kv.Set(ctx, LastVisitKey, rec.LastVisit.Format(DateLayout)); err != nil {
		return fmt.Errorf("save last visit: %w", err)
	}
	return nil
}

// Visit records a visit at now and returns the new record. changed is false
// for a repeat visit on the same day.
func Visit(ctx context.Context, kv KV, now time.Time) (rec Record, changed bool, err error) {
	prev, err := Load(ctx, kv)
	if err != nil {
		return Record{}, false, err
	}
	rec = Apply(prev, now)
	if rec.Days == prev.Days && rec.LastVisit.Equal(prev.LastVisit) {
		return rec, false, nil
	}
	if err := Save(ctx, kv, rec); err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
