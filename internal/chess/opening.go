package chess

import (
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"
)

// Opening is an ECO classification.
type Opening struct {
	Code  string
	Title string
}

var (
	ecoOnce sync.Once
	ecoBook *opening.BookECO
)

// ClassifyOpening names the most specific ECO opening on the path of
// uciMoves from the standard start. Replay stops at the first move that
// does not apply.
func ClassifyOpening(uciMoves []string) (Opening, bool) {
	if len(uciMoves) == 0 {
		return Opening{}, false
	}
	game := nchess.NewGame()
	for _, text := range uciMoves {
		mv, err := nchess.UCINotation{}.Decode(game.Position(), text)
		if err != nil {
			break
		}
		if err := game.Move(mv, nil); err != nil {
			break
		}
	}
	ecoOnce.Do(func() { ecoBook = opening.NewBookECO() })
	if ecoBook == nil {
		return Opening{}, false
	}
	eco := ecoBook.Find(game.Moves())
	if eco == nil {
		return Opening{}, false
	}
	return Opening{Code: eco.Code(), Title: eco.Title()}, true
}
