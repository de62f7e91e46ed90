package typing

import (
	"math"
	"time"
)

// CharsPerWord is the standard word length used for WPM.
const CharsPerWord = 5

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// WPM returns words per minute, measured up to the end time or now.
func WPM(s State, now time.Time) int {
	if s.StartedAt.IsZero() {
		return 0
	}
	end := now
	if s.Finished() {
		end = s.EndedAt
	}
	minutes := end.Sub(s.StartedAt).Minutes()
	if minutes <= 0 {
		return 0
	}
	words := float64(s.Index) / CharsPerWord
	return int(math.Round(words / minutes))
}

// Accuracy returns the percentage of correct keystrokes, clamped at zero.
// Errors can outnumber typed characters since repeated misses at one
// position all count.
func Accuracy(s State) int {
	if s.Index == 0 {
		return 100
	}
	acc := math.Round(float64(s.Index-s.Errors) / float64(s.Index) * 100)
	if acc < 0 {
		return 0
	}
	return int(acc)
}

// Progress returns the completed share of a target of length n, in percent.
// Callers must guard n == 0.
func Progress(s State, n int) float64 {
	return float64(s.Index) / float64(n) * 100
}
