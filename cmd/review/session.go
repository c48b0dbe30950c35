package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/park285/cheese-review/internal/adapter/reviewpresenter"
	"github.com/park285/cheese-review/internal/analysis"
	"github.com/park285/cheese-review/internal/chessbuilder"
	appcfg "github.com/park285/cheese-review/internal/config"
	"github.com/park285/cheese-review/internal/domain"
	"github.com/park285/cheese-review/internal/importer/chesscom"
	"github.com/park285/cheese-review/internal/library"
	"github.com/park285/cheese-review/internal/render"
	"github.com/park285/cheese-review/internal/replay"
	"github.com/park285/cheese-review/pkg/reviewdto"
	"go.uber.org/zap"
)

// session is one interactive review: a replay view, its analysis panel
// and the library of the configured owner.
type session struct {
	ctx       context.Context
	deps      *chessbuilder.Deps
	ctrl      *replay.Controller
	panel     *analysis.Panel
	formatter *reviewpresenter.Formatter
	presenter *reviewpresenter.Presenter
	logger    *zap.Logger

	owner     string
	months    int
	renderDir string
}

func newSession(ctx context.Context, deps *chessbuilder.Deps, cfg *appcfg.AppConfig, presenter *reviewpresenter.Presenter, logger *zap.Logger) (*session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctrl, err := deps.NewController()
	if err != nil {
		return nil, err
	}
	s := &session{
		ctx:       ctx,
		deps:      deps,
		ctrl:      ctrl,
		formatter: reviewpresenter.NewFormatter(deps.Catalog),
		presenter: presenter,
		logger:    logger,
		owner:     cfg.Owner,
		months:    cfg.ChessComMonths,
		renderDir: cfg.RenderDir,
	}
	s.panel = analysis.NewPanel(ctx, deps.Analysis, s.publishAnalysis, logger.Named("panel"))
	ctrl.Subscribe(s.panel.OnPosition)
	return s, nil
}

func (s *session) Close() {
	s.panel.Close()
}

func (s *session) publishAnalysis(snap analysis.Snapshot) {
	_ = s.presenter.Text(s.formatter.Analysis(reviewpresenter.ToDTOAnalysis(snap)))
}

// Handle runs one command line and reports whether the session should end.
func (s *session) Handle(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	var err error
	switch cmd {
	case "q", "quit", "exit":
		return true
	case "h", "help", "?":
		err = s.presenter.Text(s.formatter.Help())
	case "n", "next":
		s.navigate(s.ctrl.GoToNext)
	case "p", "prev", "previous":
		s.navigate(s.ctrl.GoToPrevious)
	case "s", "start":
		s.navigate(s.ctrl.GoToStart)
	case "e", "end":
		s.navigate(s.ctrl.GoToEnd)
	case "j", "jump":
		err = s.jump(args)
	case "f", "flip":
		s.ctrl.Flip()
		err = s.show()
	case "m", "moves":
		err = s.presenter.Text(s.formatter.Moves(reviewpresenter.ToDTOView(s.ctrl.View())))
	case "a", "analysis":
		err = s.showAnalysis()
	case "legal":
		err = s.legal(args)
	case "r", "render":
		err = s.render(args)
	case "list", "ls":
		err = s.list()
	case "load":
		err = s.load(args)
	case "import":
		err = s.importFiles(args)
	case "fetch":
		err = s.fetch(args)
	case "delete", "rm":
		err = s.delete(args)
	default:
		err = s.presenter.Text(fmt.Sprintf("unknown command %q, try \"help\"", cmd))
	}
	if err != nil {
		s.reportError(err, strings.Join(args, " "))
	}
	return false
}

func (s *session) reportError(err error, gameID string) {
	s.logger.Debug("command_failed", zap.Error(err))
	_ = s.presenter.Text(s.formatter.Error(err, gameID))
}

// navigate applies one move of the cursor; at a bound nothing is shown.
func (s *session) navigate(step func() bool) {
	if !step() {
		return
	}
	if err := s.show(); err != nil {
		s.reportError(err, "")
	}
}

func (s *session) jump(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: j <ply>")
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("ply must be a number: %q", args[0])
	}
	if err := s.ctrl.JumpTo(index); err != nil {
		return err
	}
	return s.show()
}

// show prints the current view and, when a render dir is set, the board.
func (s *session) show() error {
	view := reviewpresenter.ToDTOView(s.ctrl.View())
	if s.renderDir != "" {
		img, err := s.renderView(view)
		if err != nil {
			return err
		}
		view.BoardImage = img
	}
	return s.presenter.Board(s.formatter.View(view), view)
}

func (s *session) renderView(view *reviewdto.ReviewView) ([]byte, error) {
	opts := render.Options{
		Orientation: s.ctrl.Orientation(),
		Check:       view.InCheck,
		Title:       view.Title,
	}
	if view.LastMove != nil && len(view.LastMove.UCI) >= 4 {
		opts.LastMove = &render.Highlight{From: view.LastMove.UCI[:2], To: view.LastMove.UCI[2:4]}
		opts.Caption = view.LastMove.SAN
	}
	return s.deps.Renderer.RenderPNG(s.ctx, s.ctrl.CurrentPosition(), opts)
}

func (s *session) render(args []string) error {
	view := reviewpresenter.ToDTOView(s.ctrl.View())
	img, err := s.renderView(view)
	if err != nil {
		return err
	}
	path := reviewpresenter.ImageName(view)
	if len(args) > 0 {
		path = args[0]
	}
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return err
	}
	return s.presenter.Text("wrote " + path)
}

func (s *session) showAnalysis() error {
	snap, ok := s.panel.Latest()
	if !ok || snap.Cursor != s.ctrl.Cursor() {
		return s.presenter.Text(s.formatter.Analysis(nil))
	}
	return s.presenter.Text(s.formatter.Analysis(reviewpresenter.ToDTOAnalysis(snap)))
}

func (s *session) legal(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: legal <square>")
	}
	moves, err := s.ctrl.LegalMoves(args[0])
	if err != nil {
		return err
	}
	return s.presenter.Text(strings.Join(moves, " "))
}

func (s *session) list() error {
	games, err := s.deps.Library.List(s.ctx, s.owner, library.Filter{})
	if err != nil {
		return err
	}
	return s.presenter.Text(s.formatter.Library(reviewpresenter.ToDTOSummaries(games)))
}

func (s *session) load(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: load <id>")
	}
	game, err := s.deps.Library.Get(s.ctx, s.owner, args[0])
	if err != nil {
		return err
	}
	return s.open(game)
}

// open loads the game off the command goroutine; a newer load wins.
func (s *session) open(game *domain.GameRecord) error {
	if err := <-s.ctrl.LoadAsync(s.ctx, game); err != nil {
		return err
	}
	return s.show()
}

func (s *session) importFiles(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: import <pgn-file>...")
	}
	var reqs []library.ImportRequest
	for _, path := range args {
		raw, err := readFile(path)
		if err != nil {
			return err
		}
		for _, pgn := range library.SplitGames(raw) {
			reqs = append(reqs, library.ImportRequest{Owner: s.owner, Source: domain.PlatformManual, PGN: pgn})
		}
	}
	return s.importAll(reqs)
}

func (s *session) fetch(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: fetch <chess.com user>")
	}
	games, err := s.deps.ChessCom.RecentGames(s.ctx, args[0], s.months)
	if err != nil {
		return err
	}
	return s.importAll(chesscom.ImportRequests(s.owner, games))
}

func (s *session) importAll(reqs []library.ImportRequest) error {
	sum, err := s.deps.Library.ImportAll(s.ctx, reqs)
	if perr := s.presenter.Text(s.formatter.Imported(reviewpresenter.ToDTOImportSummary(sum))); perr != nil {
		return perr
	}
	if err != nil {
		return err
	}
	if len(sum.Imported) == 1 {
		return s.open(sum.Imported[0])
	}
	return nil
}

func (s *session) delete(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: delete <id>")
	}
	if err := s.deps.Library.Delete(s.ctx, s.owner, args[0]); err != nil {
		return err
	}
	if g := s.ctrl.Game(); g != nil && g.ID == args[0] {
		if err := s.ctrl.Load(nil); err != nil {
			return err
		}
	}
	return s.presenter.Text(s.formatter.Deleted(args[0]))
}

func readFile(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

// syncWriter serialises writes from the command loop and analysis
// goroutines.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}
