package replay

import (
	"context"
	"sync"

	"github.com/park285/cheese-review/internal/chess"
	"github.com/park285/cheese-review/internal/domain"
	"go.uber.org/zap"
)

// Notifier receives every committed position change. It runs
// synchronously while the controller is held and must not call back
// into the controller.
type Notifier func(pos chess.Position, cursor int)

// Controller owns the current State and is the only place its cursor
// moves.
type Controller struct {
	rules  chess.RulesEngine
	logger *zap.Logger

	mu          sync.Mutex
	state       *State
	notify      Notifier
	orientation Orientation
	generation  uint64
}

func NewController(rules chess.RulesEngine, logger *zap.Logger) (*Controller, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	empty, err := Build(rules, nil)
	if err != nil {
		return nil, err
	}
	return &Controller{rules: rules, logger: logger, state: empty}, nil
}

// Subscribe installs the single subscriber, replacing any previous one.
// A nil fn removes it.
func (c *Controller) Subscribe(fn Notifier) {
	c.mu.Lock()
	c.notify = fn
	c.mu.Unlock()
}

// Load replays game and swaps it in. On failure the previous state stays.
func (c *Controller) Load(game *domain.GameRecord) error {
	gen := c.nextGeneration()
	st, err := Build(c.rules, game)
	if err != nil {
		c.logLoadFailure(game, err)
		return err
	}
	return c.commit(gen, st)
}

// LoadAsync replays game on its own goroutine. Only the most recently
// issued load may commit; an older one that finishes later reports
// ErrStaleLoad and leaves the state alone.
func (c *Controller) LoadAsync(ctx context.Context, game *domain.GameRecord) <-chan error {
	gen := c.nextGeneration()
	done := make(chan error, 1)
	go func() {
		defer close(done)
		st, err := Build(c.rules, game)
		if err != nil {
			c.logLoadFailure(game, err)
			done <- err
			return
		}
		if err := ctx.Err(); err != nil {
			done <- err
			return
		}
		done <- c.commit(gen, st)
	}()
	return done
}

func (c *Controller) nextGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	return c.generation
}

func (c *Controller) commit(gen uint64, st *State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		c.logger.Debug("replay_load_stale",
			zap.Uint64("generation", gen),
			zap.Uint64("latest", c.generation),
		)
		return ErrStaleLoad
	}
	c.state = st
	gameID := ""
	if st.game != nil {
		gameID = st.game.ID
	}
	c.logger.Info("replay_loaded",
		zap.String("game_id", gameID),
		zap.Int("plies", len(st.plies)),
	)
	c.emitLocked()
	return nil
}

func (c *Controller) logLoadFailure(game *domain.GameRecord, err error) {
	gameID := ""
	if game != nil {
		gameID = game.ID
	}
	c.logger.Warn("replay_load_failed", zap.String("game_id", gameID), zap.Error(err))
}

func (c *Controller) GoToStart() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setCursorLocked(-1)
}

// GoToEnd moves to the last ply; with no plies it behaves like GoToStart.
func (c *Controller) GoToEnd() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setCursorLocked(len(c.state.plies) - 1)
}

func (c *Controller) GoToPrevious() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	target := c.state.cursor - 1
	if target < -1 {
		target = -1
	}
	return c.setCursorLocked(target)
}

func (c *Controller) GoToNext() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	target := c.state.cursor + 1
	if last := len(c.state.plies) - 1; target > last {
		target = last
	}
	return c.setCursorLocked(target)
}

// JumpTo moves to index, which must lie in [-1, len-1].
func (c *Controller) JumpTo(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < -1 || index >= len(c.state.plies) {
		return &OutOfRangeIndexError{Index: index, Len: len(c.state.plies)}
	}
	c.setCursorLocked(index)
	return nil
}

func (c *Controller) setCursorLocked(target int) bool {
	if target == c.state.cursor {
		return false
	}
	c.state.cursor = target
	c.logger.Debug("replay_cursor", zap.Int("cursor", target))
	c.emitLocked()
	return true
}

func (c *Controller) emitLocked() {
	if c.notify != nil {
		c.notify(c.state.CurrentPosition(), c.state.cursor)
	}
}

// Flip toggles the board orientation; the replay is untouched.
func (c *Controller) Flip() Orientation {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orientation = c.orientation.Flip()
	return c.orientation
}

func (c *Controller) Orientation() Orientation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orientation
}

func (c *Controller) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.cursor
}

func (c *Controller) CurrentPosition() chess.Position {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.CurrentPosition()
}

func (c *Controller) Game() *domain.GameRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.game
}

func (c *Controller) Plies() []Ply {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Plies()
}

func (c *Controller) MovePairs() []MovePair {
	return Pairs(c.Plies())
}

// UCIMoves lists the moves up to the cursor, for engines that want
// "position startpos moves ...".
func (c *Controller) UCIMoves() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.UCIMoves()
}

// Status classifies the current position, threefold repetition included.
func (c *Controller) Status() chess.Terminal {
	c.mu.Lock()
	pos := c.state.CurrentPosition()
	reps := c.state.repetitions()
	c.mu.Unlock()
	return c.classify(pos, reps)
}

func (c *Controller) classify(pos chess.Position, reps int) chess.Terminal {
	if t := c.rules.Terminal(pos); t != chess.TerminalNone {
		return t
	}
	if reps >= 3 {
		return chess.TerminalRepetition
	}
	return chess.TerminalNone
}

// View is a consistent read of the controller taken under one lock.
type View struct {
	Game        *domain.GameRecord
	Plies       []Ply
	Cursor      int
	Position    chess.Position
	Orientation Orientation
	Status      chess.Terminal
}

// InCheck reports whether the side to move at the cursor is in check.
func (v View) InCheck() bool {
	return v.Cursor >= 0 && v.Cursor < len(v.Plies) && v.Plies[v.Cursor].Check
}

func (c *Controller) View() View {
	c.mu.Lock()
	v := View{
		Game:        c.state.game,
		Plies:       c.state.Plies(),
		Cursor:      c.state.cursor,
		Position:    c.state.CurrentPosition(),
		Orientation: c.orientation,
	}
	reps := c.state.repetitions()
	c.mu.Unlock()
	v.Status = c.classify(v.Position, reps)
	return v
}

// InCheck reports whether the side to move at the cursor is in check.
func (c *Controller) InCheck() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.cursor < 0 {
		return false
	}
	return c.state.plies[c.state.cursor].Check
}

// LegalMoves lists destination squares in the current position.
func (c *Controller) LegalMoves(from string) ([]string, error) {
	return c.rules.LegalMoves(c.CurrentPosition(), from)
}
