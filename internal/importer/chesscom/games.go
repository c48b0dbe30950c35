package chesscom

import (
	"time"

	"github.com/park285/cheese-review/internal/domain"
	"github.com/park285/cheese-review/internal/library"
)

type monthlyArchive struct {
	Games []Game `json:"games"`
}

type Player struct {
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	// Result is chess.com's per-side code: win, checkmated, agreed,
	// timeout, resigned, stalemate, repetition, ...
	Result string `json:"result"`
}

// Game is one entry of a monthly archive.
type Game struct {
	UUID        string `json:"uuid"`
	URL         string `json:"url"`
	PGN         string `json:"pgn"`
	TimeControl string `json:"time_control"`
	TimeClass   string `json:"time_class"`
	Rules       string `json:"rules"`
	Rated       bool   `json:"rated"`
	StartTime   int64  `json:"start_time"`
	EndTime     int64  `json:"end_time"`
	White       Player `json:"white"`
	Black       Player `json:"black"`
}

var drawCodes = map[string]bool{
	"agreed":             true,
	"repetition":         true,
	"stalemate":          true,
	"insufficient":       true,
	"50move":             true,
	"timevsinsufficient": true,
}

// Result maps the per-side codes onto a game result.
func (g Game) Result() domain.Result {
	switch {
	case g.White.Result == "win":
		return domain.ResultWhiteWins
	case g.Black.Result == "win":
		return domain.ResultBlackWins
	case drawCodes[g.White.Result] || drawCodes[g.Black.Result]:
		return domain.ResultDraw
	default:
		return domain.ResultUnknown
	}
}

// Standard reports whether the game uses the normal rules; variants
// cannot be replayed.
func (g Game) Standard() bool {
	return g.Rules == "" || g.Rules == "chess"
}

func (g Game) EndedAt() time.Time {
	if g.EndTime == 0 {
		return time.Time{}
	}
	return time.Unix(g.EndTime, 0).UTC()
}

// ImportRequest converts the archive entry for the library.
func (g Game) ImportRequest(owner string) library.ImportRequest {
	return library.ImportRequest{
		Owner:       owner,
		Source:      domain.PlatformChessCom,
		PGN:         g.PGN,
		Players:     domain.Players{White: g.White.Username, Black: g.Black.Username},
		WhiteRating: g.White.Rating,
		BlackRating: g.Black.Rating,
		Date:        g.EndedAt(),
		Result:      g.Result(),
		TimeControl: g.TimeControl,
		URL:         g.URL,
	}
}

// ImportRequests converts every standard-rules game and drops variants.
func ImportRequests(owner string, games []Game) []library.ImportRequest {
	out := make([]library.ImportRequest, 0, len(games))
	for _, g := range games {
		if !g.Standard() {
			continue
		}
		out = append(out, g.ImportRequest(owner))
	}
	return out
}
