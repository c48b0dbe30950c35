package chess

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/park285/cheese-review/internal/chess/uci"
	"go.uber.org/zap"
)

const (
	defaultEngineHashMB = 64
	defaultEngineDepth  = 14
	maxEngineLines      = 8
)

var ErrEngineNoLines = errors.New("engine returned no lines")

type EngineConfig struct {
	BinaryPath string
	Threads    int
	HashMB     int
	// Capacity bounds engine processes per line count.
	Capacity int
	Logger   *zap.Logger
}

// Engine runs multi-line searches on a pool of UCI processes.
type Engine struct {
	pool    *uci.Pool
	threads int
	hashMB  int
	logger  *zap.Logger
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := uci.NewPool(uci.PoolConfig{
		BinaryPath: cfg.BinaryPath,
		Capacity:   cfg.Capacity,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	hash := cfg.HashMB
	if hash <= 0 {
		hash = defaultEngineHashMB
	}
	return &Engine{pool: pool, threads: cfg.Threads, hashMB: hash, logger: logger}, nil
}

type AnalyzeRequest struct {
	Position Position
	// Moves are appended to Position in UCI notation.
	Moves    []string
	Depth    int
	MoveTime time.Duration
	Lines    int
}

// EngineLine is one principal variation, scored for the side to move.
type EngineLine struct {
	Move      string
	EvalCP    int
	Mate      int
	Depth     int
	Principal []string
}

type AnalyzeResult struct {
	Lines    []EngineLine
	BestMove string
	Duration time.Duration
}

func (e *Engine) Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResult, error) {
	lines := min(max(req.Lines, 1), maxEngineLines)
	search := uci.Search{
		FEN:      string(req.Position),
		Moves:    req.Moves,
		Depth:    req.Depth,
		MoveTime: req.MoveTime,
	}
	if search.Depth <= 0 && search.MoveTime <= 0 {
		search.Depth = defaultEngineDepth
	}

	var (
		report uci.Report
		took   time.Duration
	)
	opt := uci.Options{Threads: e.threads, HashMB: e.hashMB, MultiPV: lines}
	err := e.pool.Do(ctx, opt, func(proc *uci.Process) error {
		if err := proc.NewGame(ctx); err != nil {
			return err
		}
		start := time.Now()
		r, err := proc.Analyse(ctx, search)
		took = time.Since(start)
		report = r
		return err
	})
	if err != nil {
		return AnalyzeResult{}, fmt.Errorf("analyze: %w", err)
	}

	out := make([]EngineLine, 0, len(report.PVs))
	for _, pv := range report.PVs {
		out = append(out, EngineLine{
			Move:      pv.Move,
			EvalCP:    pv.CP,
			Mate:      pv.Mate,
			Depth:     pv.Depth,
			Principal: pv.Moves,
		})
	}
	if len(out) == 0 && report.BestMove == "" {
		// Mate or stalemate on the board: nothing to search.
		return AnalyzeResult{Duration: took}, ErrEngineNoLines
	}
	e.logger.Debug("engine_analyzed",
		zap.String("fen", string(req.Position)),
		zap.Int("lines", len(out)),
		zap.String("best", report.BestMove),
		zap.Duration("took", took),
	)
	return AnalyzeResult{Lines: out, BestMove: report.BestMove, Duration: took}, nil
}

func (e *Engine) Close() error {
	if e.pool == nil {
		return nil
	}
	return e.pool.Close()
}
