package replay

import (
	"github.com/park285/cheese-review/internal/chess"
	"github.com/park285/cheese-review/internal/domain"
)

// Side is the colour to move.
type Side string

const (
	White Side = "white"
	Black Side = "black"
)

func sideOf(pos chess.Position) Side {
	if pos.WhiteToMove() {
		return White
	}
	return Black
}

// Ply is one half-move of the replayed main line.
type Ply struct {
	Index      int
	SideToMove Side
	SAN        string
	UCI        string
	Check      bool
	Position   chess.Position
}

// MoveNumber is the 1-based full-move number the ply belongs to.
func (p Ply) MoveNumber() int { return p.Index/2 + 1 }

// State is a replayed game plus a cursor. Plies are computed once by
// Build; only the Controller moves the cursor.
type State struct {
	game    *domain.GameRecord
	initial chess.Position
	plies   []Ply
	keys    []string // repetition key per ply
	cursor  int
}

// Build replays the game's move-text from the standard start. The whole
// move-text must replay; the first rejected move fails the build.
func Build(rules chess.RulesEngine, game *domain.GameRecord) (*State, error) {
	if rules == nil {
		return nil, ErrNoRules
	}
	st := &State{
		game:    game,
		initial: rules.StartingPosition(),
		cursor:  -1,
	}
	if game.Empty() {
		return st, nil
	}

	sans, syntaxErr := splitMoveText(game.PGN)
	if syntaxErr != nil {
		return nil, &InvalidGameRecordError{
			GameID:   game.ID,
			PlyIndex: syntaxErr.index,
			MoveText: syntaxErr.token,
			Err:      ErrMalformedMoveText,
		}
	}

	pos := st.initial
	plies := make([]Ply, 0, len(sans))
	keys := make([]string, 0, len(sans))
	for i, san := range sans {
		applied, err := rules.ApplySAN(pos, san)
		if err != nil {
			return nil, &InvalidGameRecordError{
				GameID:   game.ID,
				PlyIndex: i,
				MoveText: san,
				Err:      err,
			}
		}
		plies = append(plies, Ply{
			Index:      i,
			SideToMove: sideOf(pos),
			SAN:        applied.SAN,
			UCI:        applied.UCI,
			Check:      applied.Check,
			Position:   applied.Position,
		})
		keys = append(keys, applied.Position.Key())
		pos = applied.Position
	}
	st.plies = plies
	st.keys = keys
	return st, nil
}

func (s *State) Game() *domain.GameRecord { return s.game }

func (s *State) Initial() chess.Position { return s.initial }

func (s *State) Len() int { return len(s.plies) }

func (s *State) Cursor() int { return s.cursor }

// Plies returns a copy of the ply sequence.
func (s *State) Plies() []Ply {
	return append([]Ply(nil), s.plies...)
}

// PositionAt returns the position after ply index, or the initial
// position for -1.
func (s *State) PositionAt(index int) (chess.Position, bool) {
	if index == -1 {
		return s.initial, true
	}
	if index < -1 || index >= len(s.plies) {
		return "", false
	}
	return s.plies[index].Position, true
}

// CurrentPosition is derived from the cursor; it is never stored.
func (s *State) CurrentPosition() chess.Position {
	pos, _ := s.PositionAt(s.cursor)
	return pos
}

// UCIMoves lists the moves leading to the cursor in coordinate notation.
func (s *State) UCIMoves() []string {
	out := make([]string, 0, s.cursor+1)
	for i := 0; i <= s.cursor && i < len(s.plies); i++ {
		out = append(out, s.plies[i].UCI)
	}
	return out
}

// repetitions counts how often the current position occurred on the way
// to the cursor, the current one included.
func (s *State) repetitions() int {
	if s.cursor < 0 || s.cursor >= len(s.keys) {
		return 1
	}
	key := s.keys[s.cursor]
	count := 0
	if s.initial.Key() == key {
		count++
	}
	for i := 0; i <= s.cursor; i++ {
		if s.keys[i] == key {
			count++
		}
	}
	return count
}
