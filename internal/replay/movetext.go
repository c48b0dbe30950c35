package replay

import (
	"strings"
	"unicode"
)

// moveTextError points at the token that broke the move-text structure.
type moveTextError struct {
	index int
	token string
}

// splitMoveText extracts the SAN tokens of the main line. Tag pairs,
// comments, variations, NAGs, move numbers, annotation glyphs and the
// result terminator are dropped.
func splitMoveText(pgn string) ([]string, *moveTextError) {
	var (
		moves []string
		word  strings.Builder
		runes = []rune(pgn)
	)

	flush := func() bool {
		if word.Len() == 0 {
			return false
		}
		tok := word.String()
		word.Reset()
		if isResultToken(tok) {
			return true
		}
		if san := normalizeSAN(tok); san != "" {
			moves = append(moves, san)
		}
		return false
	}

	lineStart := true
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\n':
			if flush() {
				return moves, nil
			}
			lineStart = true
			continue
		case lineStart && r == '%':
			i = skipLine(runes, i)
			lineStart = true
			continue
		case unicode.IsSpace(r):
			if flush() {
				return moves, nil
			}
		case r == '[':
			if flush() {
				return moves, nil
			}
			end, ok := skipTag(runes, i)
			if !ok {
				return nil, &moveTextError{index: len(moves), token: "["}
			}
			i = end
		case r == '{':
			if flush() {
				return moves, nil
			}
			end := indexFrom(runes, i+1, '}')
			if end < 0 {
				return nil, &moveTextError{index: len(moves), token: "{"}
			}
			i = end
		case r == ';':
			if flush() {
				return moves, nil
			}
			i = skipLine(runes, i)
			lineStart = true
			continue
		case r == '(':
			if flush() {
				return moves, nil
			}
			end, ok := skipVariation(runes, i)
			if !ok {
				return nil, &moveTextError{index: len(moves), token: "("}
			}
			i = end
		case r == ')' || r == '}' || r == ']':
			return nil, &moveTextError{index: len(moves), token: string(r)}
		default:
			word.WriteRune(r)
		}
		lineStart = false
	}
	flush()
	return moves, nil
}

func normalizeSAN(tok string) string {
	if strings.HasPrefix(tok, "$") {
		return ""
	}
	// "12." / "12..." / "12.e4"
	i := 0
	for i < len(tok) && tok[i] >= '0' && tok[i] <= '9' {
		i++
	}
	if i > 0 && i < len(tok) && tok[i] == '.' {
		tok = strings.TrimLeft(tok[i:], ".")
	} else if i == len(tok) {
		return ""
	}
	tok = strings.TrimLeft(tok, ".")
	tok = strings.TrimSuffix(tok, "e.p.")
	tok = strings.TrimRight(tok, "!?")
	switch tok {
	case "0-0":
		tok = "O-O"
	case "0-0-0":
		tok = "O-O-O"
	case "0-0+", "0-0#":
		tok = "O-O" + tok[3:]
	case "0-0-0+", "0-0-0#":
		tok = "O-O-O" + tok[5:]
	}
	return tok
}

func isResultToken(tok string) bool {
	switch tok {
	case "1-0", "0-1", "1/2-1/2", "½-½", "*":
		return true
	}
	return false
}

func indexFrom(runes []rune, start int, target rune) int {
	for i := start; i < len(runes); i++ {
		if runes[i] == target {
			return i
		}
	}
	return -1
}

func skipLine(runes []rune, start int) int {
	end := indexFrom(runes, start, '\n')
	if end < 0 {
		return len(runes)
	}
	return end
}

// skipTag handles quoted values containing ']'.
func skipTag(runes []rune, start int) (int, bool) {
	inQuote := false
	for i := start + 1; i < len(runes); i++ {
		switch runes[i] {
		case '\\':
			if inQuote {
				i++
			}
		case '"':
			inQuote = !inQuote
		case ']':
			if !inQuote {
				return i, true
			}
		}
	}
	return 0, false
}

// skipVariation consumes a possibly nested RAV, including comments inside it.
func skipVariation(runes []rune, start int) (int, bool) {
	depth := 0
	for i := start; i < len(runes); i++ {
		switch runes[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, true
			}
		case '{':
			end := indexFrom(runes, i+1, '}')
			if end < 0 {
				return 0, false
			}
			i = end
		case ';':
			i = skipLine(runes, i)
		}
	}
	return 0, false
}
