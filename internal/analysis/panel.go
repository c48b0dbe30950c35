package analysis

import (
	"context"
	"errors"
	"sync"

	"github.com/park285/cheese-review/internal/chess"
	"go.uber.org/zap"
)

// Snapshot is what the panel shows for one position.
type Snapshot struct {
	Position chess.Position
	Cursor   int
	Eval     Evaluation
	Err      error
}

// Panel follows navigation: each position change starts one evaluation
// and cancels the previous one. Only the newest result is published.
type Panel struct {
	provider Provider
	publish  func(Snapshot)
	logger   *zap.Logger

	pubMu   sync.Mutex
	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	latest  Snapshot
	hasLast bool
	closed  bool
	wg      sync.WaitGroup
	base    context.Context
}

func NewPanel(ctx context.Context, provider Provider, publish func(Snapshot), logger *zap.Logger) *Panel {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publish == nil {
		publish = func(Snapshot) {}
	}
	return &Panel{provider: provider, publish: publish, logger: logger, base: ctx}
}

// OnPosition matches replay.Notifier. It never blocks on the provider.
// After Close it is a no-op.
func (p *Panel) OnPosition(pos chess.Position, cursor int) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.seq++
	seq := p.seq
	ctx, cancel := context.WithCancel(p.base)
	p.cancel = cancel
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		defer cancel()
		eval, err := p.provider.Evaluate(ctx, Request{Position: pos})
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return
		}

		// pubMu keeps publish calls in seq order.
		p.pubMu.Lock()
		defer p.pubMu.Unlock()
		p.mu.Lock()
		if seq != p.seq {
			p.mu.Unlock()
			p.logger.Debug("analysis_dropped", zap.Int("cursor", cursor))
			return
		}
		snap := Snapshot{Position: pos, Cursor: cursor, Eval: eval, Err: err}
		p.latest = snap
		p.hasLast = true
		p.mu.Unlock()

		if err != nil {
			p.logger.Warn("analysis_failed", zap.String("fen", string(pos)), zap.Error(err))
		}
		p.publish(snap)
	}()
}

// Latest returns the most recent published snapshot.
func (p *Panel) Latest() (Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest, p.hasLast
}

// Close cancels the in-flight evaluation and waits for workers to exit.
func (p *Panel) Close() {
	p.mu.Lock()
	p.closed = true
	if p.cancel != nil {
		p.cancel()
	}
	p.seq++
	p.mu.Unlock()
	p.wg.Wait()
}
