// Package chessbuilder wires the review components from configuration.
package chessbuilder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/park285/cheese-review/internal/analysis"
	"github.com/park285/cheese-review/internal/chess"
	"github.com/park285/cheese-review/internal/config"
	"github.com/park285/cheese-review/internal/importer/chesscom"
	"github.com/park285/cheese-review/internal/library"
	"github.com/park285/cheese-review/internal/msgcat"
	"github.com/park285/cheese-review/internal/render"
	"github.com/park285/cheese-review/internal/replay"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Deps struct {
	Rules    *chess.Rules
	Library  *library.Service
	Analysis analysis.Provider
	Renderer render.BoardRenderer
	Catalog  *msgcat.Catalog
	ChessCom *chesscom.Client

	logger *zap.Logger
	engine *chess.Engine
	db     *sql.DB
	rdb    *redis.Client
}

// New builds every dependency. Postgres, redis and stockfish are optional:
// without DATABASE_URL games live in memory, without STOCKFISH_PATH the
// static provider answers, and without REDIS_URL nothing is cached.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Deps{Rules: chess.NewRules(), logger: logger}
	if err := d.build(ctx, cfg); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

func (d *Deps) build(ctx context.Context, cfg *config.AppConfig) error {
	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return fmt.Errorf("init messages: %w", err)
	}
	d.Catalog = cat

	// Library
	repo := library.NewMemoryRepository()
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := library.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		d.db = db
		if repo, err = library.NewPostgresRepository(ctx, db); err != nil {
			return err
		}
	}
	if d.Library, err = library.NewService(repo, d.Rules, d.logger.Named("library")); err != nil {
		return err
	}

	// Analysis
	var provider analysis.Provider = analysis.NewStaticProvider()
	namespace := "static"
	if strings.TrimSpace(cfg.StockfishPath) != "" {
		engine, err := chess.NewEngine(chess.EngineConfig{
			BinaryPath: cfg.StockfishPath,
			Logger:     d.logger.Named("engine"),
		})
		if err != nil {
			return fmt.Errorf("init engine: %w", err)
		}
		d.engine = engine
		provider = analysis.NewEngineProvider(engine, d.Rules, analysis.EngineOptions{
			Depth:   cfg.AnalysisDepth,
			Lines:   cfg.AnalysisLines,
			Timeout: cfg.AnalysisTimeout,
		}, d.logger.Named("analysis"))
		namespace = fmt.Sprintf("stockfish:d%d:l%d", cfg.AnalysisDepth, cfg.AnalysisLines)
	}
	if strings.TrimSpace(cfg.RedisURL) != "" {
		rdb, err := analysis.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		d.rdb = rdb
		provider = analysis.NewCachedProvider(provider, rdb, analysis.CacheOptions{
			TTL:       cfg.AnalysisCacheTTL,
			Namespace: namespace,
		}, d.logger.Named("analysis_cache"))
	}
	d.Analysis = provider

	d.Renderer = render.NewBoardRenderer(0)
	d.ChessCom = chesscom.NewClient(cfg.ChessComBaseURL, chesscom.WithLogger(d.logger.Named("chesscom")))
	return nil
}

// NewController returns an empty replay view bound to the shared rules.
func (d *Deps) NewController() (*replay.Controller, error) {
	return replay.NewController(d.Rules, d.logger.Named("replay"))
}

func (d *Deps) Close() error {
	var errs []error
	if d.engine != nil {
		errs = append(errs, d.engine.Close())
	}
	if d.rdb != nil {
		errs = append(errs, d.rdb.Close())
	}
	if d.db != nil {
		errs = append(errs, d.db.Close())
	}
	return errors.Join(errs...)
}
