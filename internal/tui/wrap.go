package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/newstype/internal/typing"
)

const newlineGlyph = '↵'

type runeTone int

const (
	tonePending runeTone = iota
	toneWord
	toneCursor
	toneErrorCursor
	toneTyped
)

func (t runeTone) style() lipgloss.Style {
	switch t {
	case toneWord:
		return currentWordStyle
	case toneCursor:
		return cursorStyle
	case toneErrorCursor:
		return errorCursorStyle
	case toneTyped:
		return typedStyle
	default:
		return pendingStyle
	}
}

type styledRune struct {
	s         string
	tone      runeTone
	width     int
	idx       int
	isSpace   bool
	hardBreak bool
}

// buildStyledRunes styles target against the matcher state. Runes before
// the index are typed, the rune at the index is the cursor and the rest are
// pending; the word under the cursor is tinted.
func buildStyledRunes(target []rune, st typing.State) []styledRune {
	words := findWords(target)
	cursor := -1
	if st.Index < len(target) && !st.Finished() {
		cursor = st.Index
	}
	currentWord := wordForCursor(words, cursor)

	out := make([]styledRune, 0, len(target))
	for i, r := range target {
		displayed := r
		if r == '\n' {
			displayed = newlineGlyph
		}
		tone := tonePending
		switch {
		case i < st.Index:
			tone = toneTyped
		case i == cursor && st.CurrentError:
			tone = toneErrorCursor
		case i == cursor:
			tone = toneCursor
		case currentWord != nil && i >= currentWord.start && i < currentWord.end:
			tone = toneWord
		}
		out = append(out, styledRune{
			s:         tone.style().Render(string(displayed)),
			tone:      tone,
			width:     runewidth.RuneWidth(displayed),
			idx:       i,
			isSpace:   r == ' ',
			hardBreak: r == '\n',
		})
	}
	return out
}

type wordRange struct {
	start int
	end   int
}

func isSeparator(r rune) bool {
	return r == ' ' || r == '\n'
}

func findWords(target []rune) []wordRange {
	words := []wordRange{}
	start := -1
	for i, r := range target {
		if isSeparator(r) {
			if start != -1 {
				words = append(words, wordRange{start: start, end: i})
				start = -1
			}
			continue
		}
		if start == -1 {
			start = i
		}
	}
	if start != -1 {
		words = append(words, wordRange{start: start, end: len(target)})
	}
	return words
}

func wordForCursor(words []wordRange, cursor int) *wordRange {
	if len(words) == 0 || cursor < 0 {
		return nil
	}
	for i, w := range words {
		if cursor >= w.start && cursor < w.end {
			return &words[i]
		}
		if cursor < w.start {
			return &words[i]
		}
	}
	return nil
}

// wrapStyledRunes splits runes into display lines no wider than width,
// breaking after spaces where possible and always after a newline.
// Spaces stay at the end of the line they close so the cursor can sit on them.
func wrapStyledRunes(runes []styledRune, width int) [][]styledRune {
	var lines [][]styledRune
	line := []styledRune{}
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if width > 0 && lineWidth+item.width > width && len(line) > 0 && !item.isSpace {
			if lastSpaceIdx >= 0 && lastSpaceIdx < len(line)-1 {
				lines = append(lines, line[:lastSpaceIdx+1])
				line = append([]styledRune{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				lines = append(lines, line)
				line = []styledRune{}
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
		if item.hardBreak {
			lines = append(lines, line)
			line = []styledRune{}
			lineWidth = 0
			lastSpaceIdx = -1
		}
	}
	if len(line) > 0 || len(lines) == 0 {
		lines = append(lines, line)
	}
	return lines
}

// cursorLine returns the line holding rune index idx, or the last line.
func cursorLine(lines [][]styledRune, idx int) int {
	for n, line := range lines {
		if len(line) == 0 {
			continue
		}
		if idx >= line[0].idx && idx <= line[len(line)-1].idx {
			return n
		}
	}
	return max(len(lines)-1, 0)
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

func renderLines(lines [][]styledRune) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = renderStyledRunes(line)
	}
	return out
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
