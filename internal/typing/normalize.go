// Package typing implements the keystroke matcher and its live metrics.
package typing

// Normalize folds quote lookalikes onto their ASCII forms so that a plain
// quote typed on a keyboard matches typographic quotes in article text.
func Normalize(r rune) rune {
	switch r {
	case '\'', '‘', '’', '‚', '‛', '′', '‹', '›':
		return '\''
	case '"', '“', '”', '„', '‟', '″', '«', '»':
		return '"'
	default:
		return r
	}
}
