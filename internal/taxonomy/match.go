package taxonomy

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold prepares text for accent-insensitive comparison: canonical
// decomposition, combining marks removed, đ/Đ mapped to d/D, then lowercased.
// "Ăn sáng" folds to "an sang".
func Fold(s string) string {
	// transform.Chain keeps state, so a fresh chain is built per call.
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Map(mapStroke),
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

func mapStroke(r rune) rune {
	switch r {
	case 'đ':
		return 'd'
	case 'Đ':
		return 'D'
	}
	return r
}

// Matches reports whether candidate contains query, ignoring case and accents.
func Matches(candidate, query string) bool {
	return containsFolded(Fold(candidate), Fold(query))
}

func containsFolded(folded, query string) bool {
	return query == "" || strings.Contains(folded, query)
}
