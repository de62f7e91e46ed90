package tui

import (
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	scrollDuration = 300 * time.Millisecond
	frameInterval  = 16 * time.Millisecond
)

type scrollFrameMsg struct {
	gen uint64
	at  time.Time
}

// scroller animates the text viewport offset in lines. Starting a new
// animation bumps the generation so frames of the old one are dropped.
type scroller struct {
	offset float64
	from   float64
	to     float64
	start  time.Time
	gen    uint64
	active bool
}

func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// centerTarget returns the first visible line that centres line in a
// viewport of height rows, clamped to the content.
func centerTarget(line, total, height int) int {
	if height <= 0 || total <= height {
		return 0
	}
	target := line - height/2
	return min(max(target, 0), total-height)
}

// scrollTo starts an animation towards target. It returns a frame command,
// or nil when the viewport is already there.
func (s *scroller) scrollTo(target int, now time.Time) tea.Cmd {
	to := float64(target)
	if s.active && s.to == to {
		return nil
	}
	if !s.active && math.Abs(s.offset-to) < 0.5 {
		s.offset = to
		return nil
	}
	s.gen++
	s.from = s.offset
	s.to = to
	s.start = now
	s.active = true
	return s.frame()
}

// jump moves without animation and cancels any running one.
func (s *scroller) jump(target int) {
	s.gen++
	s.offset = float64(target)
	s.to = s.offset
	s.active = false
}

// step advances the animation for a frame message. It returns the next
// frame command while the animation runs.
func (s *scroller) step(msg scrollFrameMsg) tea.Cmd {
	if msg.gen != s.gen || !s.active {
		return nil
	}
	t := float64(msg.at.Sub(s.start)) / float64(scrollDuration)
	if t >= 1 {
		s.offset = s.to
		s.active = false
		return nil
	}
	if t < 0 {
		t = 0
	}
	s.offset = s.from + (s.to-s.from)*easeInOutCubic(t)
	return s.frame()
}

func (s *scroller) frame() tea.Cmd {
	gen := s.gen
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return scrollFrameMsg{gen: gen, at: t}
	})
}

// line returns the current top line.
func (s *scroller) line() int {
	return int(math.Round(s.offset))
}
