package typing

// Session binds a target text, its state and a clock.
type Session struct {
	target []rune
	state  State
	clock  Clock
}

// NewSession starts a session for text. A nil clock uses the wall clock.
func NewSession(text string, clock Clock) *Session {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Session{target: []rune(text), clock: clock}
}

// Press applies a key event.
func (s *Session) Press(k Key) {
	s.state = Step(s.state, s.target, k, s.clock.Now())
}

// Reset discards progress on the current text.
func (s *Session) Reset() {
	s.state = Reset()
}

// Finish forces the session to end now.
func (s *Session) Finish() {
	s.state = Finish(s.state, s.clock.Now())
}

// SetText replaces the target text and resets progress.
func (s *Session) SetText(text string) {
	s.target = []rune(text)
	s.state = Reset()
}

// Text returns the target text.
func (s *Session) Text() string { return string(s.target) }

// Target returns the target runes. Callers must not modify them.
func (s *Session) Target() []rune { return s.target }

// State returns the current state.
func (s *Session) State() State { return s.state }

// Expected returns the rune at the cursor, if any remain.
func (s *Session) Expected() (rune, bool) {
	if s.state.Index >= len(s.target) {
		return 0, false
	}
	return s.target[s.state.Index], true
}

// WPM returns live words per minute.
func (s *Session) WPM() int { return WPM(s.state, s.clock.Now()) }

// Accuracy returns live accuracy.
func (s *Session) Accuracy() int { return Accuracy(s.state) }

// Progress returns completion in percent, zero for an empty target.
func (s *Session) Progress() float64 {
	if len(s.target) == 0 {
		return 0
	}
	return Progress(s.state, len(s.target))
}
