package reviewpresenter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/park285/cheese-review/internal/chess"
	"github.com/park285/cheese-review/internal/library"
	"github.com/park285/cheese-review/internal/msgcat"
	"github.com/park285/cheese-review/internal/replay"
	"github.com/park285/cheese-review/pkg/reviewdto"
)

const (
	dateLayout        = "2006-01-02"
	movesPerLine      = 6
	continuationLimit = 6
)

// Formatter renders review DTOs into plain-text blocks using the message
// catalog.
type Formatter struct {
	cat *msgcat.Catalog
}

func NewFormatter(cat *msgcat.Catalog) *Formatter {
	return &Formatter{cat: cat}
}

func (f *Formatter) text(key string, data any) string {
	if f == nil || f.cat == nil {
		return key
	}
	return f.cat.Text(key, data)
}

func (f *Formatter) Help() string {
	return strings.TrimRight(f.text("help", nil), "\n")
}

// View renders the header, the current move and the progress line.
func (f *Formatter) View(v *reviewdto.ReviewView) string {
	if v == nil || (v.TotalPlies == 0 && v.GameID == "") {
		return f.text("review.no_game", nil)
	}
	var sb strings.Builder
	date := ""
	if !v.Date.IsZero() {
		date = v.Date.Format(dateLayout)
	}
	sb.WriteString(f.text("review.header", map[string]any{"Title": v.Title, "Date": date}))
	sb.WriteString("\n")
	if v.Opening != "" {
		sb.WriteString(f.text("review.opening", map[string]any{"Opening": v.Opening}))
		sb.WriteString("\n")
	}

	if v.AtStart() || v.LastMove == nil {
		sb.WriteString(f.text("review.position.start", nil))
	} else {
		sb.WriteString(f.text("review.position.ply", map[string]any{
			"Number": v.LastMove.Index/2 + 1,
			"Black":  v.LastMove.Index%2 == 1,
			"SAN":    v.LastMove.SAN,
		}))
	}
	terminal := v.Status != "" && v.Status != string(chess.TerminalNone)
	if v.InCheck && !terminal {
		sb.WriteString(" | ")
		sb.WriteString(f.text("review.check", nil))
	}
	if key := "review.status." + v.Status; terminal && f.cat != nil && f.cat.Has(key) {
		sb.WriteString(" | ")
		sb.WriteString(f.text(key, nil))
	}
	sb.WriteString("\n")
	sb.WriteString(f.text("review.progress", map[string]any{
		"Ply":         v.Cursor + 1,
		"Total":       v.TotalPlies,
		"Orientation": v.Orientation,
	}))
	if v.AtEnd() && v.Result != "" {
		sb.WriteString("\n")
		sb.WriteString(f.text("review.result."+v.Result, nil))
	}
	return sb.String()
}

// Moves renders the numbered move list and brackets the current ply.
func (f *Formatter) Moves(v *reviewdto.ReviewView) string {
	if v == nil || len(v.Moves) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, pair := range v.Moves {
		if i > 0 {
			if i%movesPerLine == 0 {
				sb.WriteString("\n")
			} else {
				sb.WriteString(" ")
			}
		}
		sb.WriteString(fmt.Sprintf("%d.", pair.Number))
		sb.WriteString(formatMove(pair.White, v.Cursor))
		if pair.Black != nil {
			sb.WriteString(" ")
			sb.WriteString(formatMove(pair.Black, v.Cursor))
		}
	}
	return sb.String()
}

func formatMove(m *reviewdto.Move, cursor int) string {
	if m == nil {
		return ""
	}
	if m.Index == cursor {
		return "[" + m.SAN + "]"
	}
	return m.SAN
}

func (f *Formatter) Analysis(a *reviewdto.Analysis) string {
	if a == nil {
		return f.text("analysis.pending", nil)
	}
	if a.Err != "" {
		return f.text("analysis.unavailable", nil)
	}
	var sb strings.Builder
	sb.WriteString(f.text("analysis.score", map[string]any{
		"Score":  FormatScore(a.Score, a.Mate),
		"Depth":  a.Depth,
		"Engine": a.Engine,
	}))
	for i, line := range a.Lines {
		cont := line.Continuation
		if len(cont) > continuationLimit {
			cont = cont[:continuationLimit]
		}
		sb.WriteString("\n")
		sb.WriteString(f.text("analysis.line", map[string]any{
			"Rank":         i + 1,
			"Move":         line.Move,
			"Score":        FormatScore(line.Score, line.Mate),
			"Continuation": strings.Join(cont, " "),
		}))
	}
	return sb.String()
}

// FormatScore renders a pawn score as "+0.35" or a forced mate as "#3"
// ("#-3" when Black mates).
func FormatScore(score float64, mate int) string {
	if mate != 0 {
		return fmt.Sprintf("#%d", mate)
	}
	return fmt.Sprintf("%+.2f", score)
}

func (f *Formatter) Library(games []reviewdto.GameSummary) string {
	if len(games) == 0 {
		return f.text("library.empty", nil)
	}
	rows := make([]string, 0, len(games))
	for _, g := range games {
		date := "????-??-??"
		if !g.Date.IsZero() {
			date = g.Date.Format(dateLayout)
		}
		rows = append(rows, f.text("library.row", map[string]any{
			"ID":     g.ID,
			"Date":   date,
			"Title":  g.Title,
			"Result": f.text("review.result."+g.Result, nil),
			"Source": g.Source,
		}))
	}
	return strings.Join(rows, "\n")
}

func (f *Formatter) Imported(s reviewdto.ImportSummary) string {
	return f.text("library.imported", map[string]any{
		"Count":      s.Imported,
		"Duplicates": s.Duplicates,
		"Invalid":    s.Invalid,
	})
}

func (f *Formatter) Deleted(id string) string {
	return f.text("library.deleted", map[string]any{"ID": id})
}

// Error maps known failures to catalog text; anything else is printed as is.
func (f *Formatter) Error(err error, gameID string) string {
	var invalid *replay.InvalidGameRecordError
	var outOfRange *replay.OutOfRangeIndexError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &invalid):
		return f.text("error.invalid_game", map[string]any{"Ply": invalid.PlyIndex + 1, "Move": invalid.MoveText})
	case errors.As(err, &outOfRange):
		return f.text("error.out_of_range", map[string]any{"Index": outOfRange.Index, "Total": outOfRange.Len})
	case errors.Is(err, library.ErrGameNotFound):
		return f.text("error.not_found", map[string]any{"ID": gameID})
	default:
		return err.Error()
	}
}
