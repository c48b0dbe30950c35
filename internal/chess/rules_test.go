package chess

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStartingPosition(t *testing.T) {
	r := NewRules()
	if got := r.StartingPosition(); got != StartFEN {
		t.Fatalf("start=%q want %q", got, StartFEN)
	}
	if !StartFEN.WhiteToMove() {
		t.Fatalf("white moves first")
	}
}

func TestApplyMoveSANAndUCI(t *testing.T) {
	r := NewRules()
	applied, err := r.ApplyMove(StartFEN, "e4")
	if err != nil {
		t.Fatalf("ApplyMove e4: %v", err)
	}
	if applied.SAN != "e4" || applied.UCI != "e2e4" {
		t.Fatalf("unexpected notation: %+v", applied)
	}
	if applied.Position.WhiteToMove() {
		t.Fatalf("black should be to move after e4")
	}

	reply, err := r.ApplyMove(applied.Position, "e7e5")
	if err != nil {
		t.Fatalf("ApplyMove e7e5: %v", err)
	}
	if reply.SAN != "e5" {
		t.Fatalf("uci input should be re-encoded as SAN, got %q", reply.SAN)
	}
}

func TestApplySANStrict(t *testing.T) {
	r := NewRules()
	if _, err := r.ApplySAN(StartFEN, "e2e4"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("coordinates must be rejected, got %v", err)
	}
	if _, err := r.ApplySAN(StartFEN, "Nf3+"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("false check suffix must be rejected, got %v", err)
	}
	applied, err := r.ApplySAN(StartFEN, "Nf3")
	if err != nil {
		t.Fatalf("ApplySAN Nf3: %v", err)
	}
	if applied.SAN != "Nf3" || applied.UCI != "g1f3" {
		t.Fatalf("unexpected notation: %+v", applied)
	}
}

func TestApplyMoveRejectsIllegal(t *testing.T) {
	r := NewRules()
	for _, mv := range []string{"Ke2", "Ke9", "", "e5"} {
		_, err := r.ApplyMove(StartFEN, mv)
		if err == nil {
			t.Fatalf("expected %q to be rejected", mv)
		}
		var moveErr *MoveError
		if !errors.As(err, &moveErr) {
			t.Fatalf("expected MoveError, got %T", err)
		}
		if !errors.Is(err, ErrIllegalMove) {
			t.Fatalf("expected ErrIllegalMove for %q, got %v", mv, err)
		}
	}
}

func TestApplyMoveInvalidPosition(t *testing.T) {
	_, err := NewRules().ApplyMove(Position("not a fen"), "e4")
	if !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("expected ErrInvalidPosition, got %v", err)
	}
}

func TestLegalMovesFromSquare(t *testing.T) {
	r := NewRules()
	got, err := r.LegalMoves(StartFEN, "g1")
	if err != nil {
		t.Fatalf("LegalMoves: %v", err)
	}
	if diff := cmp.Diff([]string{"f3", "h3"}, got); diff != "" {
		t.Fatalf("knight destinations (-want +got):\n%s", diff)
	}
	all, err := r.LegalMoves(StartFEN, "")
	if err != nil {
		t.Fatalf("LegalMoves all: %v", err)
	}
	if len(all) != 16 {
		t.Fatalf("expected 16 distinct destinations from the start, got %d (%v)", len(all), all)
	}
	if _, err := r.LegalMoves(StartFEN, "z9"); !errors.Is(err, ErrInvalidSquare) {
		t.Fatalf("expected ErrInvalidSquare, got %v", err)
	}
}

func TestTerminalClassification(t *testing.T) {
	r := NewRules()
	cases := []struct {
		name string
		fen  Position
		want Terminal
	}{
		{"start", StartFEN, TerminalNone},
		{"fools mate", "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3", TerminalCheckmate},
		{"stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", TerminalStalemate},
		{"bare kings", "8/8/4k3/8/8/4K3/8/8 w - - 0 1", TerminalInsufficientMaterial},
		{"fifty moves", "8/8/4k3/8/8/4K3/4R3/8 w - - 100 80", TerminalOtherDraw},
	}
	for _, tc := range cases {
		if got := r.Terminal(tc.fen); got != tc.want {
			t.Fatalf("%s: got %s want %s", tc.name, got, tc.want)
		}
	}
}

func TestCheckFlag(t *testing.T) {
	r := NewRules()
	pos := StartFEN
	var last AppliedMove
	for _, mv := range []string{"e4", "f5", "Qh5+"} {
		applied, err := r.ApplyMove(pos, mv)
		if err != nil {
			t.Fatalf("ApplyMove %s: %v", mv, err)
		}
		pos, last = applied.Position, applied
	}
	if !last.Check || last.SAN != "Qh5+" {
		t.Fatalf("expected checking move, got %+v", last)
	}
}

func TestPositionKey(t *testing.T) {
	a := Position("8/8/4k3/8/8/4K3/8/8 w - - 0 1")
	b := Position("8/8/4k3/8/8/4K3/8/8 w - - 7 12")
	if a.Key() != b.Key() {
		t.Fatalf("keys should ignore move counters")
	}
}

func TestPositionKeyEnPassant(t *testing.T) {
	tests := []struct {
		name string
		pos  Position
		want string
	}{
		{
			name: "double push without capture",
			pos:  "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
			want: "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq -",
		},
		{
			name: "capture available",
			pos:  "rnbqkbnr/1pp1pppp/p7/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 3",
			want: "rnbqkbnr/1pp1pppp/p7/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6",
		},
		{
			name: "capturing pawn pinned",
			pos:  "8/8/8/K2pP2r/8/8/8/7k w - d6 0 1",
			want: "8/8/8/K2pP2r/8/8/8/7k w - -",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.pos.Key(); got != tc.want {
				t.Fatalf("Key()=%q want %q", got, tc.want)
			}
		})
	}
}
