package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/park285/cheese-review/internal/chess"
	"go.uber.org/zap"
)

// Analyzer is the slice of *chess.Engine the provider needs.
type Analyzer interface {
	Analyze(ctx context.Context, req chess.AnalyzeRequest) (chess.AnalyzeResult, error)
}

type EngineOptions struct {
	Depth   int
	Lines   int
	Timeout time.Duration
	Name    string
}

// EngineProvider scores positions with a UCI engine and renders the
// principal variations in SAN.
type EngineProvider struct {
	analyzer Analyzer
	rules    chess.RulesEngine
	opts     EngineOptions
	logger   *zap.Logger
}

func NewEngineProvider(analyzer Analyzer, rules chess.RulesEngine, opts EngineOptions, logger *zap.Logger) *EngineProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Lines <= 0 {
		opts.Lines = 3
	}
	if opts.Name == "" {
		opts.Name = "stockfish"
	}
	return &EngineProvider{analyzer: analyzer, rules: rules, opts: opts, logger: logger}
}

func (p *EngineProvider) Evaluate(ctx context.Context, req Request) (Evaluation, error) {
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	res, err := p.analyzer.Analyze(ctx, chess.AnalyzeRequest{
		Position: req.Position,
		Depth:    p.opts.Depth,
		Lines:    p.opts.Lines,
	})
	if errors.Is(err, chess.ErrEngineNoLines) {
		return Evaluation{}, fmt.Errorf("%w: %v", ErrNoAnalysis, err)
	}
	if err != nil {
		return Evaluation{}, fmt.Errorf("engine analyze: %w", err)
	}
	if len(res.Lines) == 0 {
		return Evaluation{}, ErrNoAnalysis
	}

	sign := 1.0
	if !req.Position.WhiteToMove() {
		sign = -1.0
	}

	eval := Evaluation{Engine: p.opts.Name}
	for _, el := range res.Lines {
		line := Line{
			Move:  p.toSAN(req.Position, el.Move),
			Score: sign * float64(el.EvalCP) / 100,
			Mate:  int(sign) * el.Mate,
		}
		line.Continuation = p.continuation(req.Position, el.Principal)
		eval.Lines = append(eval.Lines, line)
		if el.Depth > eval.Depth {
			eval.Depth = el.Depth
		}
	}
	eval.Score = eval.Lines[0].Score
	eval.Mate = eval.Lines[0].Mate
	eval.BestMove = eval.Lines[0].Move
	if res.BestMove != "" {
		eval.BestMove = p.toSAN(req.Position, res.BestMove)
	}
	return eval, nil
}

func (p *EngineProvider) toSAN(pos chess.Position, uciMove string) string {
	applied, err := p.rules.ApplyMove(pos, uciMove)
	if err != nil {
		return uciMove
	}
	return applied.SAN
}

// continuation renders the moves after the first as SAN, stopping at the
// first move the rules engine refuses.
func (p *EngineProvider) continuation(pos chess.Position, pv []string) []string {
	if len(pv) < 2 {
		return nil
	}
	out := make([]string, 0, len(pv)-1)
	for i, mv := range pv {
		applied, err := p.rules.ApplyMove(pos, mv)
		if err != nil {
			p.logger.Debug("analysis_pv_truncated", zap.String("move", mv), zap.Error(err))
			break
		}
		if i > 0 {
			out = append(out, applied.SAN)
		}
		pos = applied.Position
	}
	return out
}
