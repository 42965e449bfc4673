package auth

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/tendant/turnaplay-teams/pkg/domain"
)

// MaxTeamNameLength is the longest team name accepted, in characters.
const MaxTeamNameLength = 100

var stripTags = bluemonday.StrictPolicy()

// SanitizeTeamName strips markup and control characters from a team name,
// collapses runs of whitespace and enforces the length bounds.
func SanitizeTeamName(name string) (string, error) {
	name = removeControlChars(name)

	// StrictPolicy drops every tag and escapes what remains; names are stored
	// as plain text, so undo the escaping.
	name = html.UnescapeString(stripTags.Sanitize(name))
	name = strings.Join(strings.Fields(name), " ")

	if n := utf8.RuneCountInString(name); n == 0 || n > MaxTeamNameLength {
		return "", domain.ErrInvalidTeamName
	}
	return name, nil
}

// removeControlChars removes every control character, including newlines.
func removeControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\t' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
