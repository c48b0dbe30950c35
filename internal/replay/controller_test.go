package replay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/park285/cheese-review/internal/chess"
	"github.com/park285/cheese-review/internal/domain"
)

type notification struct {
	pos    chess.Position
	cursor int
}

func newTestController(t *testing.T, rules chess.RulesEngine) (*Controller, *[]notification) {
	t.Helper()
	if rules == nil {
		rules = chess.NewRules()
	}
	c, err := NewController(rules, nil)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	var seen []notification
	c.Subscribe(func(pos chess.Position, cursor int) {
		seen = append(seen, notification{pos: pos, cursor: cursor})
	})
	return c, &seen
}

func loadGame(t *testing.T, c *Controller, pgn string) {
	t.Helper()
	if err := c.Load(game("g", pgn)); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestControllerStartsEmpty(t *testing.T) {
	c, seen := newTestController(t, nil)
	if c.Cursor() != -1 || c.CurrentPosition() != chess.StartFEN {
		t.Fatalf("cursor=%d pos=%q", c.Cursor(), c.CurrentPosition())
	}
	if c.GoToNext() || c.GoToEnd() || c.GoToPrevious() || c.GoToStart() {
		t.Fatalf("navigation on an empty game must be a no-op")
	}
	if len(*seen) != 0 {
		t.Fatalf("no-ops must not notify, got %v", *seen)
	}
}

func TestOpeningWalkthrough(t *testing.T) {
	c, _ := newTestController(t, nil)
	loadGame(t, c, "1. e4 e5 2. Nf3 Nc6")
	if n := len(c.Plies()); n != 4 {
		t.Fatalf("plies=%d want 4", n)
	}
	c.GoToStart()
	if c.CurrentPosition() != chess.StartFEN {
		t.Fatalf("start pos=%q", c.CurrentPosition())
	}
	c.GoToNext()
	c.GoToNext()
	c.GoToNext()
	c.GoToPrevious()
	if c.Cursor() != 1 {
		t.Fatalf("cursor=%d want 1", c.Cursor())
	}
	const afterE4E5 = chess.Position("rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2")
	if c.CurrentPosition() != afterE4E5 {
		t.Fatalf("pos=%q want %q", c.CurrentPosition(), afterE4E5)
	}
	err := c.JumpTo(5)
	if !errors.Is(err, ErrOutOfRangeIndex) {
		t.Fatalf("JumpTo(5)=%v want ErrOutOfRangeIndex", err)
	}
	if c.Cursor() != 1 || c.CurrentPosition() != afterE4E5 {
		t.Fatalf("failed jump moved cursor to %d", c.Cursor())
	}
}

func TestLoadNotifiesStart(t *testing.T) {
	c, seen := newTestController(t, nil)
	loadGame(t, c, "1. e4 e5")
	if len(*seen) != 1 || (*seen)[0].cursor != -1 || (*seen)[0].pos != chess.StartFEN {
		t.Fatalf("load notifications=%v", *seen)
	}
	if c.Game() == nil || c.Game().ID != "g" {
		t.Fatalf("game not committed")
	}
}

func TestNavigationRoundTrip(t *testing.T) {
	c, seen := newTestController(t, nil)
	loadGame(t, c, "1. e4 e5 2. Nf3 Nc6")
	*seen = nil
	plies := c.Plies()

	for i := 0; i < len(plies); i++ {
		if !c.GoToNext() {
			t.Fatalf("GoToNext #%d did not move", i)
		}
	}
	if c.GoToNext() {
		t.Fatalf("GoToNext at end must be a no-op")
	}
	if c.Cursor() != len(plies)-1 || c.CurrentPosition() != plies[len(plies)-1].Position {
		t.Fatalf("cursor=%d pos=%q", c.Cursor(), c.CurrentPosition())
	}
	for i := 0; i < len(plies); i++ {
		c.GoToPrevious()
	}
	if c.Cursor() != -1 || c.CurrentPosition() != chess.StartFEN {
		t.Fatalf("back at start: cursor=%d pos=%q", c.Cursor(), c.CurrentPosition())
	}
	if c.GoToPrevious() {
		t.Fatalf("GoToPrevious at start must be a no-op")
	}

	want := []int{0, 1, 2, 3, 2, 1, 0, -1}
	if len(*seen) != len(want) {
		t.Fatalf("notifications=%v", *seen)
	}
	for i, n := range *seen {
		if n.cursor != want[i] {
			t.Fatalf("notification %d cursor=%d want %d", i, n.cursor, want[i])
		}
		wantPos := chess.StartFEN
		if n.cursor >= 0 {
			wantPos = plies[n.cursor].Position
		}
		if n.pos != wantPos {
			t.Fatalf("notification %d pos=%q want %q", i, n.pos, wantPos)
		}
	}
}

func TestStartAndEnd(t *testing.T) {
	c, seen := newTestController(t, nil)
	loadGame(t, c, "1. d4 d5 2. c4")
	*seen = nil
	if !c.GoToEnd() || c.Cursor() != 2 {
		t.Fatalf("GoToEnd cursor=%d", c.Cursor())
	}
	if c.GoToEnd() {
		t.Fatalf("second GoToEnd must be a no-op")
	}
	if !c.GoToStart() || c.Cursor() != -1 {
		t.Fatalf("GoToStart cursor=%d", c.Cursor())
	}
	if len(*seen) != 2 {
		t.Fatalf("notifications=%v", *seen)
	}
}

func TestJumpTo(t *testing.T) {
	c, seen := newTestController(t, nil)
	loadGame(t, c, "1. e4 e5 2. Nf3 Nc6")
	*seen = nil

	if err := c.JumpTo(2); err != nil {
		t.Fatalf("JumpTo(2): %v", err)
	}
	if c.Cursor() != 2 || c.CurrentPosition() != c.Plies()[2].Position {
		t.Fatalf("cursor=%d", c.Cursor())
	}
	if err := c.JumpTo(2); err != nil {
		t.Fatalf("JumpTo same index: %v", err)
	}
	if len(*seen) != 1 {
		t.Fatalf("jump to the current index must not notify: %v", *seen)
	}

	for _, idx := range []int{-2, 4, 99} {
		err := c.JumpTo(idx)
		if !errors.Is(err, ErrOutOfRangeIndex) {
			t.Fatalf("JumpTo(%d) err=%v", idx, err)
		}
		var oor *OutOfRangeIndexError
		if !errors.As(err, &oor) || oor.Index != idx || oor.Len != 4 {
			t.Fatalf("JumpTo(%d) detail=%+v", idx, oor)
		}
	}
	if c.Cursor() != 2 || len(*seen) != 1 {
		t.Fatalf("failed jumps must not mutate: cursor=%d seen=%d", c.Cursor(), len(*seen))
	}

	if err := c.JumpTo(-1); err != nil || c.CurrentPosition() != chess.StartFEN {
		t.Fatalf("JumpTo(-1): %v", err)
	}
}

func TestFailedLoadKeepsState(t *testing.T) {
	c, seen := newTestController(t, nil)
	loadGame(t, c, "1. e4 e5 2. Nf3 Nc6")
	if err := c.JumpTo(3); err != nil {
		t.Fatalf("JumpTo: %v", err)
	}
	before := c.CurrentPosition()
	count := len(*seen)

	err := c.Load(game("bad", "1. e4 e5 2. Ke2 Ke9"))
	var inv *InvalidGameRecordError
	if !errors.As(err, &inv) || inv.PlyIndex != 3 {
		t.Fatalf("want invalid record at ply 3, got %v", err)
	}
	if c.Game().ID != "g" || c.Cursor() != 3 || c.CurrentPosition() != before {
		t.Fatalf("previous state must survive a failed load")
	}
	if len(*seen) != count {
		t.Fatalf("failed load must not notify")
	}
}

func TestFlipLeavesReplayAlone(t *testing.T) {
	c, seen := newTestController(t, nil)
	loadGame(t, c, "1. e4 e5")
	c.GoToNext()
	count := len(*seen)
	if c.Flip() != BlackAtBottom || c.Orientation() != BlackAtBottom {
		t.Fatalf("flip did not toggle")
	}
	if c.Flip() != WhiteAtBottom {
		t.Fatalf("second flip should restore")
	}
	if c.Cursor() != 0 || len(*seen) != count {
		t.Fatalf("flip must not move or notify")
	}
}

func TestStatusAndCheck(t *testing.T) {
	c, _ := newTestController(t, nil)
	loadGame(t, c, "1. f3 e5 2. g4 Qh4#")
	if c.Status() != chess.TerminalNone || c.InCheck() {
		t.Fatalf("start is not terminal")
	}
	c.GoToEnd()
	if c.Status() != chess.TerminalCheckmate {
		t.Fatalf("status=%s", c.Status())
	}
	if !c.InCheck() {
		t.Fatalf("mated side is in check")
	}

	loadGame(t, c, "1. Nf3 Nf6 2. Ng1 Ng8 3. Nf3 Nf6 4. Ng1 Ng8")
	c.GoToEnd()
	if c.Status() != chess.TerminalRepetition {
		t.Fatalf("status=%s want repetition", c.Status())
	}
	if err := c.JumpTo(3); err != nil {
		t.Fatalf("JumpTo: %v", err)
	}
	if c.Status() != chess.TerminalNone {
		t.Fatalf("twofold is not a draw, got %s", c.Status())
	}

	// First occurrence follows a double push, so its FEN carries e3.
	loadGame(t, c, "1. e4 Nf6 2. Nf3 Ng8 3. Ng1 Nf6 4. Nf3 Ng8 5. Ng1")
	c.GoToEnd()
	if c.Status() != chess.TerminalRepetition {
		t.Fatalf("status=%s want repetition after double push", c.Status())
	}
}

func TestViewMatchesAccessors(t *testing.T) {
	c, _ := newTestController(t, nil)
	loadGame(t, c, "1. f3 e5 2. g4 Qh4#")
	c.Flip()
	c.GoToEnd()
	v := c.View()
	if v.Cursor != 3 || v.Position != c.CurrentPosition() || len(v.Plies) != 4 {
		t.Fatalf("view=%+v", v)
	}
	if v.Orientation != BlackAtBottom || v.Status != chess.TerminalCheckmate || !v.InCheck() {
		t.Fatalf("view orientation=%s status=%s check=%v", v.Orientation, v.Status, v.InCheck())
	}
	if v.Game == nil || v.Game.ID != "g" {
		t.Fatalf("view game=%v", v.Game)
	}
}

func TestLegalMovesAtCursor(t *testing.T) {
	c, _ := newTestController(t, nil)
	loadGame(t, c, "1. e4 e5")
	c.GoToEnd()
	got, err := c.LegalMoves("f1")
	if err != nil {
		t.Fatalf("LegalMoves: %v", err)
	}
	want := []string{"a6", "b5", "c4", "d3", "e2"}
	if len(got) != len(want) {
		t.Fatalf("bishop moves=%v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("bishop moves=%v", got)
		}
	}
}

func TestMovePairsFromController(t *testing.T) {
	c, _ := newTestController(t, nil)
	loadGame(t, c, "1. e4 e5 2. Nf3")
	pairs := c.MovePairs()
	if len(pairs) != 2 || pairs[1].Black != nil {
		t.Fatalf("pairs=%+v", pairs)
	}
}

// gatedRules blocks ApplySAN on one move until released.
type gatedRules struct {
	*chess.Rules
	move    string
	entered chan struct{}
	release chan struct{}
}

func (g *gatedRules) ApplySAN(pos chess.Position, move string) (chess.AppliedMove, error) {
	if move == g.move {
		close(g.entered)
		<-g.release
	}
	return g.Rules.ApplySAN(pos, move)
}

func TestLoadAsyncLastLoadWins(t *testing.T) {
	rules := &gatedRules{
		Rules:   chess.NewRules(),
		move:    "d4",
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	c, seen := newTestController(t, rules)
	ctx := context.Background()

	first := c.LoadAsync(ctx, game("g1", "1. d4 d5"))
	<-rules.entered
	second := c.LoadAsync(ctx, game("g2", "1. e4 e5"))
	if err := waitErr(t, second); err != nil {
		t.Fatalf("second load: %v", err)
	}
	close(rules.release)
	if err := waitErr(t, first); !errors.Is(err, ErrStaleLoad) {
		t.Fatalf("first load should be stale, got %v", err)
	}

	if c.Game().ID != "g2" {
		t.Fatalf("game=%s want g2", c.Game().ID)
	}
	if plies := c.Plies(); len(plies) != 2 || plies[0].SAN != "e4" {
		t.Fatalf("plies=%+v", plies)
	}
	if len(*seen) != 1 {
		t.Fatalf("only the winning load notifies, got %v", *seen)
	}
}

func TestLoadAsyncCancelled(t *testing.T) {
	c, _ := newTestController(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := waitErr(t, c.LoadAsync(ctx, game("g", "1. e4")))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if c.Game() != nil {
		t.Fatalf("cancelled load must not commit")
	}
}

func TestLoadAsyncInvalid(t *testing.T) {
	c, _ := newTestController(t, nil)
	err := waitErr(t, c.LoadAsync(context.Background(), &domain.GameRecord{ID: "x", PGN: "1. e5"}))
	if !errors.Is(err, ErrInvalidGameRecord) {
		t.Fatalf("want invalid record, got %v", err)
	}
}

func waitErr(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(5 * time.Second):
		t.Fatalf("load did not finish")
		return nil
	}
}
