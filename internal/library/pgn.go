package library

import (
	"fmt"
	"strings"
	"time"

	"github.com/park285/cheese-review/internal/domain"
)

// Tags are the PGN tag pairs of one game, keyed by tag name.
type Tags map[string]string

// ParseTags reads the leading [Name "value"] section of a PGN. Parsing
// stops at the first line that is not a tag pair.
func ParseTags(pgn string) Tags {
	tags := make(Tags)
	for _, line := range strings.Split(pgn, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
			break
		}
		body := strings.TrimSpace(line[1 : len(line)-1])
		name, rest, ok := strings.Cut(body, " ")
		if !ok {
			continue
		}
		value := strings.TrimSpace(rest)
		if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			value = value[1 : len(value)-1]
		}
		tags[name] = strings.ReplaceAll(value, `\"`, `"`)
	}
	return tags
}

// SplitGames cuts a multi-game PGN file into single games. A new game
// starts at a tag line that follows move-text.
func SplitGames(text string) []string {
	var games []string
	var cur strings.Builder
	inMoves := false
	flush := func() {
		if g := strings.TrimSpace(cur.String()); g != "" {
			games = append(games, g)
		}
		cur.Reset()
		inMoves = false
	}
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		isTag := strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")
		if isTag && inMoves {
			flush()
		}
		if trimmed != "" && !isTag {
			inMoves = true
		}
		cur.WriteString(line)
		cur.WriteString("\n")
	}
	flush()
	return games
}

// Date parses the Date tag; "????" parts make it unknown.
func (t Tags) Date() time.Time {
	raw := strings.TrimSpace(t["Date"])
	if raw == "" {
		raw = strings.TrimSpace(t["UTCDate"])
	}
	d, err := time.Parse("2006.01.02", raw)
	if err != nil {
		return time.Time{}
	}
	return d
}

func (t Tags) Rating(name string) int {
	var v int
	if _, err := fmt.Sscanf(strings.TrimSpace(t[name]), "%d", &v); err != nil {
		return 0
	}
	return v
}

// ExportPGN renders the record with a tag section built from its
// metadata, followed by the stored move-text.
func ExportPGN(g *domain.GameRecord) string {
	if g == nil {
		return ""
	}
	var b strings.Builder
	date := "????.??.??"
	if !g.Date.IsZero() {
		date = fmt.Sprintf("%04d.%02d.%02d", g.Date.Year(), int(g.Date.Month()), g.Date.Day())
	}
	site := string(g.Source)
	if g.URL != "" {
		site = g.URL
	}
	b.WriteString("[Event \"Review\"]\n")
	b.WriteString(fmt.Sprintf("[Site \"%s\"]\n", sanitizePGN(site)))
	b.WriteString(fmt.Sprintf("[Date \"%s\"]\n", date))
	b.WriteString(fmt.Sprintf("[White \"%s\"]\n", sanitizePGN(g.Players.White)))
	b.WriteString(fmt.Sprintf("[Black \"%s\"]\n", sanitizePGN(g.Players.Black)))
	if g.WhiteRating > 0 {
		b.WriteString(fmt.Sprintf("[WhiteElo \"%d\"]\n", g.WhiteRating))
	}
	if g.BlackRating > 0 {
		b.WriteString(fmt.Sprintf("[BlackElo \"%d\"]\n", g.BlackRating))
	}
	if strings.TrimSpace(g.TimeControl) != "" {
		b.WriteString(fmt.Sprintf("[TimeControl \"%s\"]\n", sanitizePGN(g.TimeControl)))
	}
	b.WriteString(fmt.Sprintf("[Result \"%s\"]\n\n", g.Result.PGN()))
	b.WriteString(strings.TrimSpace(stripTags(g.PGN)))
	b.WriteString("\n")
	return b.String()
}

func stripTags(pgn string) string {
	lines := strings.Split(pgn, "\n")
	i := 0
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "[") {
			break
		}
	}
	return strings.Join(lines[i:], "\n")
}

func sanitizePGN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
