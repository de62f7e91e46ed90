package typing

import "time"

// KeyKind classifies a key event.
type KeyKind int

const (
	// KeyRune is a single printable character.
	KeyRune KeyKind = iota
	// KeyEnter is the return key.
	KeyEnter
	// KeyBackspace is the backspace key.
	KeyBackspace
	// KeyNamed is any other non-printable key (arrows, F-keys, ...).
	KeyNamed
)

// Key is one discrete key event.
type Key struct {
	Kind KeyKind
	Rune rune
	Name string
	Ctrl bool
	Alt  bool
	Meta bool
}

// RuneKey builds a printable key event.
func RuneKey(r rune) Key { return Key{Kind: KeyRune, Rune: r} }

// EnterKey builds an enter key event.
func EnterKey() Key { return Key{Kind: KeyEnter, Name: "Enter"} }

// BackspaceKey builds a backspace key event.
func BackspaceKey() Key { return Key{Kind: KeyBackspace, Name: "Backspace"} }

// NamedKey builds a non-printable key event.
func NamedKey(name string) Key { return Key{Kind: KeyNamed, Name: name} }

// Label returns the key as shown on the on-screen keyboard.
func (k Key) Label() string {
	if k.Kind == KeyRune {
		return string(k.Rune)
	}
	return k.Name
}

// Status is the lifecycle phase of a session.
type Status int

const (
	NotStarted Status = iota
	InProgress
	Finished
)

func (s Status) String() string {
	switch s {
	case InProgress:
		return "in progress"
	case Finished:
		return "finished"
	default:
		return "not started"
	}
}

// State is the matcher state for one attempt at a target text.
// Zero StartedAt/EndedAt mean unset.
type State struct {
	Index        int
	Errors       int
	CurrentError bool
	StartedAt    time.Time
	EndedAt      time.Time
	LastKey      string
}

// Finished reports whether the session has an end time.
func (s State) Finished() bool {
	return !s.EndedAt.IsZero()
}

// Status derives the lifecycle phase.
func (s State) Status() Status {
	switch {
	case s.Finished():
		return Finished
	case s.StartedAt.IsZero():
		return NotStarted
	default:
		return InProgress
	}
}

// Step applies one key event to s against target and returns the next state.
// Typing is forward-only: backspace is recorded for display but never moves
// the index back or forgives an error.
func Step(s State, target []rune, k Key, now time.Time) State {
	if k.Ctrl || k.Alt || k.Meta {
		return s
	}
	if k.Kind == KeyBackspace {
		s.LastKey = "Backspace"
		return s
	}
	if s.Finished() || s.Index >= len(target) {
		return s
	}
	expected := target[s.Index]
	switch k.Kind {
	case KeyEnter:
		if expected == '\n' {
			return correct(s, target, "Enter", now)
		}
		return incorrect(s, "Enter", now)
	case KeyRune:
		if Normalize(k.Rune) == Normalize(expected) {
			return correct(s, target, string(k.Rune), now)
		}
		return incorrect(s, string(k.Rune), now)
	default:
		return s
	}
}

// Reset returns the initial state.
func Reset() State {
	return State{}
}

// Finish forces completion without requiring the whole text to be typed.
func Finish(s State, now time.Time) State {
	s.EndedAt = now
	return s
}

func correct(s State, target []rune, key string, now time.Time) State {
	s.Index++
	s.CurrentError = false
	s.LastKey = key
	if s.StartedAt.IsZero() {
		s.StartedAt = now
	}
	if s.Index == len(target) {
		s.EndedAt = now
	}
	return s
}

func incorrect(s State, key string, now time.Time) State {
	s.Errors++
	s.CurrentError = true
	s.LastKey = key
	if s.StartedAt.IsZero() {
		s.StartedAt = now
	}
	return s
}
