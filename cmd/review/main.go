package main

import (
	"bufio"
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/park285/cheese-review/internal/adapter/reviewpresenter"
	"github.com/park285/cheese-review/internal/chessbuilder"
	appcfg "github.com/park285/cheese-review/internal/config"
	"github.com/park285/cheese-review/internal/obslog"
	"go.uber.org/zap"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()
	logger := obslog.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := chessbuilder.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("init failed", zap.Error(err))
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Warn("close failed", zap.Error(err))
		}
	}()

	out := &syncWriter{w: os.Stdout}
	presenter := reviewpresenter.NewPresenter(out, saveImageTo(cfg.RenderDir))
	s, err := newSession(ctx, deps, cfg, presenter, logger)
	if err != nil {
		logger.Fatal("session init failed", zap.Error(err))
	}
	defer s.Close()

	// One-shot mode: "review import games.pgn".
	if args := os.Args[1:]; len(args) > 0 {
		s.Handle(strings.Join(args, " "))
		return
	}

	_ = presenter.Text(s.formatter.Help())
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil || s.Handle(scanner.Text()) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("stdin read failed", zap.Error(err))
	}
}

// saveImageTo writes board images under dir; an empty dir disables images.
func saveImageTo(dir string) func(name string, png []byte) error {
	if strings.TrimSpace(dir) == "" {
		return nil
	}
	return func(name string, png []byte) error {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dir, name), png, 0o644)
	}
}
