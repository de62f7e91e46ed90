package stats

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/verte-zerg/newstype/internal/model"
)

func TestSessionMetrics(t *testing.T) {
	wpm, cpm, acc := SessionMetrics(300, 30, 60000)
	if wpm != 60 || cpm != 300 || math.Abs(acc-0.9) > 1e-9 {
		t.Fatalf("unexpected metrics %v %v %v", wpm, cpm, acc)
	}
	if _, _, acc := SessionMetrics(2, 10, 1000); acc != 0 {
		t.Fatalf("expected accuracy clamped at 0, got %v", acc)
	}
	if wpm, _, _ := SessionMetrics(10, 0, 0); wpm != 0 {
		t.Fatalf("expected 0 wpm without duration, got %v", wpm)
	}
}

func TestTotalsAdd(t *testing.T) {
	totals := Sum([]model.SessionAggregate{{Chars: 100, Errors: 10, DurationMs: 30000}})
	totals.Add(model.SessionStats{Chars: 200, Errors: 20, DurationMs: 30000})
	wpm, acc := totals.Metrics()
	if totals.Sessions != 2 || wpm != 60 || math.Abs(acc-0.9) > 1e-9 {
		t.Fatalf("unexpected totals %+v wpm=%v acc=%v", totals, wpm, acc)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{1, 1, 1}); got != "+++" {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
	got := Sparkline([]float64{0, 10})
	if got != " @" {
		t.Fatalf("unexpected sparkline %q", got)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected average %v", got)
		}
	}
}

func TestRenderCharTableLimit(t *testing.T) {
	var buf bytes.Buffer
	aggs := []model.CharAggregate{
		{Char: "a", Correct: 9, Incorrect: 1},
		{Char: " ", Correct: 1, Incorrect: 1},
		{Char: "\n", Correct: 4},
	}
	if err := RenderCharTable(&buf, aggs, 2); err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected title, header and 2 rows, got %q", lines)
	}
	if !strings.HasPrefix(lines[2], "<space>") {
		t.Fatalf("expected weakest char first, got %q", lines[2])
	}
}

func TestSelectWeakChars(t *testing.T) {
	aggs := []model.CharAggregate{
		{Char: "A", Correct: 5, Incorrect: 5},
		{Char: "b", Correct: 8, Incorrect: 2},
		{Char: "c", Correct: 10, Incorrect: 0},
		{Char: "d", Correct: 0, Incorrect: 1},
	}
	weak := SelectWeakChars(aggs, 1, 3, 0.95)
	if len(weak) != 1 {
		t.Fatalf("expected 1 weak char, got %v", weak)
	}
	if _, ok := weak['a']; !ok {
		t.Fatalf("expected folded 'a' to be weakest, got %v", weak)
	}
	all := SelectWeakChars(aggs, 0, 3, 0.95)
	if len(all) != 2 {
		t.Fatalf("expected a and b, got %v", all)
	}
}
