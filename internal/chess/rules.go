package chess

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// Position is a FEN snapshot: placement, side to move, castling rights,
// en-passant square and both move counters.
type Position string

// StartFEN is the standard initial position.
const StartFEN Position = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Key drops the move counters so transpositions compare equal. The
// en-passant square only counts when an en-passant capture is legal.
func (p Position) Key() string {
	fields := strings.Fields(string(p))
	if len(fields) > 4 {
		fields = fields[:4]
	}
	if len(fields) == 4 && fields[3] != "-" && !enPassantCapturable(p, fields[3]) {
		fields[3] = "-"
	}
	return strings.Join(fields, " ")
}

// enPassantCapturable reports whether a pawn of the side to move can
// legally land on ep. No pawn reaches that square by a push.
func enPassantCapturable(p Position, ep string) bool {
	game, err := gameAt(p)
	if err != nil {
		return false
	}
	before := game.Position()
	for _, mv := range game.ValidMoves() {
		if mv.S2().String() != ep {
			continue
		}
		san := nchess.AlgebraicNotation{}.Encode(before, mv)
		if san != "" && san[0] >= 'a' && san[0] <= 'h' {
			return true
		}
	}
	return false
}

// WhiteToMove reports the side-to-move field.
func (p Position) WhiteToMove() bool {
	fields := strings.Fields(string(p))
	return len(fields) < 2 || fields[1] != "b"
}

// Terminal classifies a position that ends the game.
type Terminal string

const (
	TerminalNone                 Terminal = "none"
	TerminalCheckmate            Terminal = "checkmate"
	TerminalStalemate            Terminal = "stalemate"
	TerminalRepetition           Terminal = "draw-by-repetition"
	TerminalInsufficientMaterial Terminal = "draw-by-insufficient-material"
	TerminalOtherDraw            Terminal = "other-draw"
)

// IsDraw reports whether the classification is one of the draws.
func (t Terminal) IsDraw() bool {
	switch t {
	case TerminalStalemate, TerminalRepetition, TerminalInsufficientMaterial, TerminalOtherDraw:
		return true
	}
	return false
}

var (
	ErrIllegalMove     = errors.New("illegal move")
	ErrInvalidPosition = errors.New("invalid position")
	ErrInvalidSquare   = errors.New("invalid square")
)

// MoveError is returned when a move cannot be applied to a position.
type MoveError struct {
	Position Position
	Move     string
	Err      error
}

func (e *MoveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("move %q rejected: %v", e.Move, e.Err)
	}
	return fmt.Sprintf("move %q rejected", e.Move)
}

func (e *MoveError) Unwrap() error { return e.Err }

// AppliedMove is the outcome of one legal move.
type AppliedMove struct {
	SAN      string
	UCI      string
	Check    bool
	Position Position
}

// RulesEngine validates and applies moves. Callers never re-derive
// chess rules themselves.
type RulesEngine interface {
	StartingPosition() Position
	ApplyMove(pos Position, move string) (AppliedMove, error)
	ApplySAN(pos Position, san string) (AppliedMove, error)
	LegalMoves(pos Position, from string) ([]string, error)
	Terminal(pos Position) Terminal
}

// Rules implements RulesEngine on top of corentings/chess.
type Rules struct{}

func NewRules() *Rules { return &Rules{} }

func (r *Rules) StartingPosition() Position {
	return Position(nchess.NewGame().FEN())
}

// ApplyMove accepts SAN and falls back to UCI coordinates.
func (r *Rules) ApplyMove(pos Position, move string) (AppliedMove, error) {
	return r.apply(pos, move, true)
}

// ApplySAN accepts standard algebraic notation only. A stated check or
// mate suffix must match the move.
func (r *Rules) ApplySAN(pos Position, san string) (AppliedMove, error) {
	return r.apply(pos, san, false)
}

func (r *Rules) apply(pos Position, move string, allowUCI bool) (AppliedMove, error) {
	game, err := gameAt(pos)
	if err != nil {
		return AppliedMove{}, &MoveError{Position: pos, Move: move, Err: err}
	}
	text := strings.TrimSpace(move)
	if text == "" {
		return AppliedMove{}, &MoveError{Position: pos, Move: move, Err: ErrIllegalMove}
	}

	before := game.Position()
	mv, derr := nchess.AlgebraicNotation{}.Decode(before, text)
	if derr != nil {
		if !allowUCI {
			return AppliedMove{}, &MoveError{Position: pos, Move: move, Err: fmt.Errorf("%w: %v", ErrIllegalMove, derr)}
		}
		uciMove, uerr := nchess.UCINotation{}.Decode(before, strings.ToLower(text))
		if uerr != nil {
			return AppliedMove{}, &MoveError{Position: pos, Move: move, Err: fmt.Errorf("%w: %v", ErrIllegalMove, derr)}
		}
		mv = uciMove
	}
	san := nchess.AlgebraicNotation{}.Encode(before, mv)
	if !allowUCI && !suffixMatches(text, san) {
		return AppliedMove{}, &MoveError{Position: pos, Move: move, Err: fmt.Errorf("%w: suffix does not match %s", ErrIllegalMove, san)}
	}
	if err := game.Move(mv, nil); err != nil {
		return AppliedMove{}, &MoveError{Position: pos, Move: move, Err: fmt.Errorf("%w: %v", ErrIllegalMove, err)}
	}

	return AppliedMove{
		SAN:      san,
		UCI:      nchess.UCINotation{}.Encode(before, mv),
		Check:    mv.HasTag(nchess.Check),
		Position: Position(game.FEN()),
	}, nil
}

// suffixMatches checks a written "+" or "#" against the encoded move.
// An omitted suffix is accepted; "+" on a mating move is too.
func suffixMatches(written, encoded string) bool {
	written = strings.TrimRight(written, "!?")
	switch {
	case strings.HasSuffix(written, "#"):
		return strings.HasSuffix(encoded, "#")
	case strings.HasSuffix(written, "+"):
		return strings.HasSuffix(encoded, "+") || strings.HasSuffix(encoded, "#")
	}
	return true
}

// LegalMoves lists destination squares, optionally scoped to one origin.
func (r *Rules) LegalMoves(pos Position, from string) ([]string, error) {
	game, err := gameAt(pos)
	if err != nil {
		return nil, err
	}
	from = strings.ToLower(strings.TrimSpace(from))
	if from != "" && !validSquare(from) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSquare, from)
	}

	seen := make(map[string]struct{})
	for _, mv := range game.ValidMoves() {
		if from != "" && mv.S1().String() != from {
			continue
		}
		seen[mv.S2().String()] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for sq := range seen {
		out = append(out, sq)
	}
	sort.Strings(out)
	return out, nil
}

// Terminal classifies a single position. Repetition needs history and is
// left to the caller.
func (r *Rules) Terminal(pos Position) Terminal {
	game, err := gameAt(pos)
	if err != nil {
		return TerminalNone
	}
	switch game.Method() {
	case nchess.Checkmate:
		return TerminalCheckmate
	case nchess.Stalemate:
		return TerminalStalemate
	case nchess.InsufficientMaterial:
		return TerminalInsufficientMaterial
	case nchess.SeventyFiveMoveRule, nchess.FivefoldRepetition:
		return TerminalOtherDraw
	}
	for _, m := range game.EligibleDraws() {
		if m == nchess.FiftyMoveRule {
			return TerminalOtherDraw
		}
	}
	return TerminalNone
}

func gameAt(pos Position) (*nchess.Game, error) {
	opt, err := nchess.FEN(string(pos))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	return nchess.NewGame(opt), nil
}

func validSquare(s string) bool {
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8'
}
