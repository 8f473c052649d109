package commands

import (
	"errors"
	"unicode"
)

var errUnterminatedQuote = errors.New("unterminated quote")

// splitShellWords splits a shell line into words. Single and double quotes
// group words and keep inner whitespace; a backslash escapes the next rune
// outside single quotes.
func splitShellWords(s string) ([]string, error) {
	var (
		out      []string
		cur      []rune
		inSingle bool
		inDouble bool
		escaped  bool
		quoted   bool // an empty pair of quotes still yields a word
	)

	flush := func() {
		if len(cur) == 0 && !quoted {
			return
		}
		out = append(out, string(cur))
		cur = cur[:0]
		quoted = false
	}

	for _, r := range s {
		switch {
		case escaped:
			cur = append(cur, r)
			escaped = false
		case r == '\\' && !inSingle:
			escaped = true
		case r == '\'' && !inDouble:
			inSingle = !inSingle
			quoted = true
		case r == '"' && !inSingle:
			inDouble = !inDouble
			quoted = true
		case !inSingle && !inDouble && unicode.IsSpace(r):
			flush()
		default:
			cur = append(cur, r)
		}
	}

	if inSingle || inDouble {
		return nil, errUnterminatedQuote
	}
	if escaped {
		cur = append(cur, '\\')
	}
	flush()
	return out, nil
}
