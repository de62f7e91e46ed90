package tui

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/newstype/internal/typing"
)

const (
	keyBackspace = "backspace"
	keyShift     = "shift"
	keyEnter     = "enter"
	keySpace     = "space"
)

var keyboardRows = [][]string{
	{"q", "w", "e", "r", "t", "y", "u", "i", "o", "p", keyBackspace},
	{"a", "s", "d", "f", "g", "h", "j", "k", "l"},
	{keyShift, "z", "x", "c", "v", "b", "n", "m", keyEnter},
	{keySpace},
}

var keyLabels = map[string]string{
	keyBackspace: "⌫",
	keyShift:     "shift",
	keyEnter:     "enter",
	keySpace:     strings.Repeat(" ", 24),
}

// keyboardView is what the on-screen keyboard shows for one frame.
type keyboardView struct {
	expected map[string]bool
	pressed  string
	wrong    bool
	weak     map[rune]struct{}
}

// expectedKeys maps the rune under the cursor to the keys that produce it.
func expectedKeys(r rune) map[string]bool {
	switch {
	case r == '\n':
		return map[string]bool{keyEnter: true}
	case r == ' ':
		return map[string]bool{keySpace: true}
	case unicode.IsUpper(r):
		return map[string]bool{string(unicode.ToLower(r)): true, keyShift: true}
	default:
		return map[string]bool{string(typing.Normalize(r)): true}
	}
}

// pressedKey maps the engine's last key label onto a keyboard key.
func pressedKey(last string) string {
	switch last {
	case "":
		return ""
	case "Backspace":
		return keyBackspace
	case "Enter":
		return keyEnter
	case " ":
		return keySpace
	}
	runes := []rune(last)
	if len(runes) != 1 {
		return ""
	}
	return string(unicode.ToLower(runes[0]))
}

func newKeyboardView(session *typing.Session, weak map[rune]struct{}) keyboardView {
	st := session.State()
	view := keyboardView{
		pressed: pressedKey(st.LastKey),
		wrong:   st.CurrentError && st.LastKey != "Backspace",
		weak:    weak,
	}
	if r, ok := session.Expected(); ok && !st.Finished() {
		view.expected = expectedKeys(r)
	}
	return view
}

type keyTone int

const (
	keyIdle keyTone = iota
	keyWeak
	keyExpected
	keyPressed
	keyWrong
)

func (t keyTone) style() lipgloss.Style {
	switch t {
	case keyWeak:
		return keyWeakStyle
	case keyExpected:
		return keyExpectedStyle
	case keyPressed:
		return keyPressedStyle
	case keyWrong:
		return keyWrongStyle
	default:
		return keyStyle
	}
}

// toneFor ranks a wrong press over the expected key, and both over the
// weak-key tint.
func (v keyboardView) toneFor(key string) keyTone {
	switch {
	case key == v.pressed && v.wrong:
		return keyWrong
	case v.expected[key]:
		return keyExpected
	case key == v.pressed:
		return keyPressed
	}
	if rs := []rune(key); len(rs) == 1 {
		if _, ok := v.weak[rs[0]]; ok {
			return keyWeak
		}
	}
	return keyIdle
}

func (v keyboardView) render() string {
	rows := make([]string, 0, len(keyboardRows))
	for _, row := range keyboardRows {
		keys := make([]string, 0, len(row))
		for _, key := range row {
			label, ok := keyLabels[key]
			if !ok {
				label = key
			}
			keys = append(keys, v.toneFor(key).style().Render(label))
		}
		rows = append(rows, strings.Join(keys, " "))
	}
	return lipgloss.JoinVertical(lipgloss.Center, rows...)
}
