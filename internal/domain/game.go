package domain

import (
	"strings"
	"time"
)

// Platform identifies where a game record came from.
type Platform string

const (
	PlatformChessCom Platform = "chess.com"
	PlatformLichess  Platform = "lichess"
	PlatformManual   Platform = "manual"
)

// ParsePlatform normalizes user input; unknown values map to manual.
func ParsePlatform(s string) Platform {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "chess.com", "chesscom", "chess_com":
		return PlatformChessCom
	case "lichess", "lichess.org":
		return PlatformLichess
	default:
		return PlatformManual
	}
}

// Result is the final outcome recorded for a game.
type Result string

const (
	ResultWhiteWins Result = "white-wins"
	ResultBlackWins Result = "black-wins"
	ResultDraw      Result = "draw"
	ResultUnknown   Result = "unknown"
)

// ResultFromPGN maps a PGN result token ("1-0", "0-1", "1/2-1/2", "*").
func ResultFromPGN(token string) Result {
	switch strings.TrimSpace(token) {
	case "1-0":
		return ResultWhiteWins
	case "0-1":
		return ResultBlackWins
	case "1/2-1/2", "½-½":
		return ResultDraw
	default:
		return ResultUnknown
	}
}

// PGN returns the PGN terminator for the result.
func (r Result) PGN() string {
	switch r {
	case ResultWhiteWins:
		return "1-0"
	case ResultBlackWins:
		return "0-1"
	case ResultDraw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

type Players struct {
	White string
	Black string
}

// GameRecord is one imported game. Records are values: nothing mutates
// a record after import.
type GameRecord struct {
	ID          string
	Owner       string
	Source      Platform
	Players     Players
	WhiteRating int
	BlackRating int
	Date        time.Time
	Result      Result
	TimeControl string
	URL         string
	PGN         string
	ImportedAt  time.Time
}

// Empty reports whether the record carries no move-text.
func (g *GameRecord) Empty() bool {
	return g == nil || strings.TrimSpace(g.PGN) == ""
}

// Title renders "White vs Black" with placeholders for missing names.
func (g *GameRecord) Title() string {
	if g == nil {
		return ""
	}
	white := strings.TrimSpace(g.Players.White)
	if white == "" {
		white = "?"
	}
	black := strings.TrimSpace(g.Players.Black)
	if black == "" {
		black = "?"
	}
	return white + " vs " + black
}
