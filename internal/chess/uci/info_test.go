package uci

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParseInfoMultiPV(t *testing.T) {
	slot, pv, ok := parseInfo("info depth 18 seldepth 24 multipv 2 score cp -35 nodes 1000 pv e7e5 g1f3 b8c6")
	if !ok {
		t.Fatalf("expected line to parse")
	}
	want := PV{Move: "e7e5", CP: -35, Depth: 18, Moves: []string{"e7e5", "g1f3", "b8c6"}}
	if slot != 2 {
		t.Fatalf("slot=%d", slot)
	}
	if diff := cmp.Diff(want, pv); diff != "" {
		t.Fatalf("pv mismatch (-want +got):\n%s", diff)
	}
}

func TestParseInfoMate(t *testing.T) {
	_, pv, ok := parseInfo("info depth 5 score mate -2 pv g2g4 d8h4")
	if !ok || pv.Mate != -2 || pv.CP != -MateScoreCP {
		t.Fatalf("mate parse: ok=%v pv=%+v", ok, pv)
	}
}

func TestParseInfoIgnoresNonPVLines(t *testing.T) {
	for _, line := range []string{
		"info depth 3 currmove e2e4 currmovenumber 1",
		"info string NNUE evaluation using nn.nnue pv",
		"info depth 0 score mate 0",
		"info depth 4 pv",
		"bestmove e2e4",
		"",
	} {
		if _, _, ok := parseInfo(line); ok {
			t.Fatalf("line %q should be ignored", line)
		}
	}
}

func TestParseBestMove(t *testing.T) {
	tests := []struct {
		line string
		best string
		done bool
	}{
		{"bestmove e2e4 ponder e7e5", "e2e4", true},
		{"bestmove (none)", "", true},
		{"bestmove", "", true},
		{"info depth 1 pv e2e4", "", false},
	}
	for _, tt := range tests {
		best, done := parseBestMove(tt.line)
		if best != tt.best || done != tt.done {
			t.Fatalf("parseBestMove(%q)=%q,%v want %q,%v", tt.line, best, done, tt.best, tt.done)
		}
	}
}

func TestSortPVsOrdersBySlot(t *testing.T) {
	got := sortPVs(map[int]PV{3: {Move: "c"}, 1: {Move: "a"}, 2: {Move: "b"}})
	if len(got) != 3 || got[0].Move != "a" || got[2].Move != "c" {
		t.Fatalf("order=%+v", got)
	}
	if sortPVs(nil) != nil {
		t.Fatalf("empty map should give nil")
	}
}

func TestSearchCommands(t *testing.T) {
	cmds, err := Search{Moves: []string{"e2e4", "e7e5"}, Depth: 12, MoveTime: 500 * time.Millisecond}.commands()
	if err != nil {
		t.Fatalf("commands: %v", err)
	}
	want := []string{"position startpos moves e2e4 e7e5", "go depth 12 movetime 500"}
	if diff := cmp.Diff(want, cmds); diff != "" {
		t.Fatalf("commands (-want +got):\n%s", diff)
	}

	cmds, err = Search{FEN: "8/8/8/8/8/8/8/K1k5 w - - 0 1", Depth: 1}.commands()
	if err != nil || cmds[0] != "position fen 8/8/8/8/8/8/8/K1k5 w - - 0 1" {
		t.Fatalf("fen command=%q err=%v", cmds, err)
	}
	if _, err := (Search{}).commands(); err == nil {
		t.Fatalf("expected error without limits")
	}
}
