package chess

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func fakeEngine(t *testing.T, goReply string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script engine")
	}
	script := `#!/bin/sh
while read -r line; do
  case "$line" in
    uci) echo "uciok" ;;
    isready) echo "readyok" ;;
    go*) printf '` + goReply + `' ;;
    quit) exit 0 ;;
  esac
done
`
	path := filepath.Join(t.TempDir(), "engine.sh")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake engine: %v", err)
	}
	return path
}

func TestEngineAnalyzeLines(t *testing.T) {
	path := fakeEngine(t, `info depth 10 multipv 1 score cp 31 pv g1f3 d7d5\ninfo depth 10 multipv 2 score mate 3 pv d1h5\nbestmove g1f3\n`)
	eng, err := NewEngine(EngineConfig{BinaryPath: path, Capacity: 1})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer eng.Close()

	res, err := eng.Analyze(context.Background(), AnalyzeRequest{Position: StartFEN, Depth: 10, Lines: 2})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.BestMove != "g1f3" || len(res.Lines) != 2 {
		t.Fatalf("result=%+v", res)
	}
	if res.Lines[0].EvalCP != 31 || res.Lines[1].Mate != 3 || res.Lines[1].Depth != 10 {
		t.Fatalf("lines=%+v", res.Lines)
	}
}

func TestEngineAnalyzeNoMoves(t *testing.T) {
	path := fakeEngine(t, `info depth 0 score mate 0\nbestmove (none)\n`)
	eng, err := NewEngine(EngineConfig{BinaryPath: path, Capacity: 1})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer eng.Close()

	_, err = eng.Analyze(context.Background(), AnalyzeRequest{Position: "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"})
	if !errors.Is(err, ErrEngineNoLines) {
		t.Fatalf("want ErrEngineNoLines, got %v", err)
	}
}
