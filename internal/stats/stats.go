// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/newstype/internal/model"
)

const sparkChars = " .:-=+*#%@"

// SessionMetrics computes WPM, CPM, and accuracy from matched characters,
// errors and duration. Accuracy is a fraction in [0, 1].
func SessionMetrics(chars, errors int, durationMs int64) (wpm, cpm, accuracy float64) {
	if chars > 0 {
		accuracy = math.Max(0, float64(chars-errors)/float64(chars))
	}
	if durationMs <= 0 {
		return 0, 0, accuracy
	}
	minutes := float64(durationMs) / 60000.0
	wpm = (float64(chars) / 5.0) / minutes
	cpm = float64(chars) / minutes
	return wpm, cpm, accuracy
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Totals sums matched characters, errors and time over sessions.
type Totals struct {
	Sessions   int
	Chars      int
	Errors     int
	DurationMs int64
}

// Sum adds up sessions.
func Sum(sessions []model.SessionAggregate) Totals {
	t := Totals{Sessions: len(sessions)}
	for _, s := range sessions {
		t.Chars += s.Chars
		t.Errors += s.Errors
		t.DurationMs += s.DurationMs
	}
	return t
}

// Add includes one more session.
func (t *Totals) Add(s model.SessionStats) {
	t.Sessions++
	t.Chars += s.Chars
	t.Errors += s.Errors
	t.DurationMs += s.DurationMs
}

// Metrics returns pooled WPM and accuracy for the totals.
func (t Totals) Metrics() (wpm, accuracy float64) {
	wpm, _, accuracy = SessionMetrics(t.Chars, t.Errors, t.DurationMs)
	return wpm, accuracy
}

// RenderSummary prints a summary for sessions.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	var totalWPM, totalAcc float64
	bestWPM := 0
	wpms := make([]float64, len(sessions))
	for i, s := range sessions {
		totalWPM += float64(s.WPM)
		totalAcc += float64(s.Accuracy)
		bestWPM = max(bestWPM, s.WPM)
		wpms[i] = float64(s.WPM)
	}
	count := float64(len(sessions))
	totals := Sum(sessions)
	pooledWPM, pooledAcc := totals.Metrics()

	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", len(sessions)),
		fmt.Sprintf("Avg WPM: %.1f", totalWPM/count),
		fmt.Sprintf("Best WPM: %d", bestWPM),
		fmt.Sprintf("Avg Accuracy: %.1f%%", totalAcc/count),
		fmt.Sprintf("Overall: %.1f WPM · %.1f%%", pooledWPM, pooledAcc*100),
		fmt.Sprintf("Characters typed: %d", totals.Chars),
		fmt.Sprintf("Time typing: %s", time.Duration(totals.DurationMs)*time.Millisecond),
	}
	if len(wpms) > 1 {
		lines = append(lines, fmt.Sprintf("WPM trend: %s", Sparkline(MovingAverage(wpms, 3))))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderCategoryTable prints per-category averages.
func RenderCategoryTable(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		return nil
	}
	byCategory := map[string][]model.SessionAggregate{}
	for _, s := range sessions {
		byCategory[s.Category] = append(byCategory[s.Category], s)
	}
	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	sort.Strings(names)

	if _, err := fmt.Fprintln(w, "By Category"); err != nil {
		return err
	}
	headers := []string{"Category", "Sessions", "WPM", "Accuracy"}
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		wpm, acc := Sum(byCategory[name]).Metrics()
		rows = append(rows, []string{
			name,
			fmt.Sprintf("%d", len(byCategory[name])),
			fmt.Sprintf("%.1f", wpm),
			fmt.Sprintf("%.1f%%", acc*100),
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderCharTable prints per-character aggregates, weakest first. A
// positive limit keeps only that many rows.
func RenderCharTable(w io.Writer, aggs []model.CharAggregate, limit int) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No character stats found.")
		return err
	}
	type row struct {
		char      string
		acc       float64
		latency   float64
		correct   int
		incorrect int
	}
	rows := make([]row, 0, len(aggs))
	for _, agg := range aggs {
		lat := 0.0
		if agg.LatencyCount > 0 {
			lat = float64(agg.LatencySumMs) / float64(agg.LatencyCount)
		}
		rows = append(rows, row{
			char:      CharLabel(agg.Char),
			acc:       accuracy(agg),
			latency:   lat,
			correct:   agg.Correct,
			incorrect: agg.Incorrect,
		})
	}
	// Sort by lowest accuracy.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].acc == rows[j].acc {
			return rows[i].char < rows[j].char
		}
		return rows[i].acc < rows[j].acc
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	if _, err := fmt.Fprintln(w, "Per-Character"); err != nil {
		return err
	}

	headers := []string{"Char", "Accuracy", "Avg Latency (ms)", "Correct", "Incorrect"}
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, []string{
			r.char,
			fmt.Sprintf("%.2f%%", r.acc*100),
			fmt.Sprintf("%.1f", r.latency),
			fmt.Sprintf("%d", r.correct),
			fmt.Sprintf("%d", r.incorrect),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true}
	lines := formatTable(headers, tableRows, rightAlign)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// CharLabel names whitespace characters for display.
func CharLabel(ch string) string {
	switch ch {
	case " ":
		return "<space>"
	case "\n":
		return "<enter>"
	default:
		return ch
	}
}
