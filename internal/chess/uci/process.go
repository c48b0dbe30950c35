// Package uci drives UCI chess engines (stockfish) as child processes.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	handshakeTimeout = 4 * time.Second
	stopGrace        = 2 * time.Second
)

var ErrProcessExited = errors.New("engine process exited")

// Options are fixed for the lifetime of a process.
type Options struct {
	Threads int
	HashMB  int
	MultiPV int
}

func (o Options) key() string {
	return fmt.Sprintf("thr=%d|hash=%d|multipv=%d", o.Threads, o.HashMB, o.MultiPV)
}

func (o Options) validate() error {
	if o.HashMB <= 0 {
		return fmt.Errorf("hash size must be > 0: %d", o.HashMB)
	}
	if o.MultiPV <= 0 {
		return fmt.Errorf("multipv must be > 0: %d", o.MultiPV)
	}
	return nil
}

// Search describes one "go" command. FEN "" means the standard start.
type Search struct {
	FEN      string
	Moves    []string
	Depth    int
	MoveTime time.Duration
}

func (s Search) commands() ([]string, error) {
	var pos strings.Builder
	if fen := strings.TrimSpace(s.FEN); fen == "" || fen == "startpos" {
		pos.WriteString("position startpos")
	} else {
		pos.WriteString("position fen ")
		pos.WriteString(fen)
	}
	if len(s.Moves) > 0 {
		pos.WriteString(" moves ")
		pos.WriteString(strings.Join(s.Moves, " "))
	}

	goCmd := []string{"go"}
	if s.Depth > 0 {
		goCmd = append(goCmd, "depth", strconv.Itoa(s.Depth))
	}
	if ms := s.MoveTime.Milliseconds(); ms > 0 {
		goCmd = append(goCmd, "movetime", strconv.FormatInt(ms, 10))
	}
	if len(goCmd) == 1 {
		return nil, fmt.Errorf("search needs a depth or a move time")
	}
	return []string{pos.String(), strings.Join(goCmd, " ")}, nil
}

// Report is what the engine said before "bestmove". PVs are ordered by
// multipv slot. BestMove is empty when the side to move has no moves.
type Report struct {
	PVs      []PV
	BestMove string
}

// Process is one running engine. A single goroutine reads stdout for the
// whole process lifetime; lines arrive on p.lines.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	lines  chan string
	done   chan struct{}
	opt    Options
	logger *zap.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// Start launches the binary and completes the uci/isready handshake with
// opt applied.
func Start(ctx context.Context, binaryPath string, opt Options, logger *zap.Logger) (*Process, error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cmd := exec.Command(binaryPath)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start engine: %w", err)
	}

	p := &Process{
		cmd:    cmd,
		stdin:  stdin,
		lines:  make(chan string, 64),
		done:   make(chan struct{}),
		opt:    opt,
		logger: logger,
	}
	go p.readLoop(stdout)

	if err := p.handshake(ctx); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

func (p *Process) readLoop(stdout io.Reader) {
	defer close(p.lines)
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case p.lines <- strings.TrimSpace(scanner.Text()):
		case <-p.done:
			return
		}
	}
}

func (p *Process) handshake(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()

	if err := p.send("uci"); err != nil {
		return err
	}
	if err := p.expect(ctx, "uciok"); err != nil {
		return fmt.Errorf("wait uciok: %w", err)
	}
	threads := p.opt.Threads
	if threads <= 0 {
		threads = 1
	}
	if err := p.send(
		"setoption name Threads value "+strconv.Itoa(threads),
		"setoption name Hash value "+strconv.Itoa(p.opt.HashMB),
		"setoption name MultiPV value "+strconv.Itoa(p.opt.MultiPV),
		"setoption name Ponder value false",
	); err != nil {
		return err
	}
	return p.Ready(ctx)
}

// Ready round-trips isready/readyok.
func (p *Process) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()
	if err := p.send("isready"); err != nil {
		return err
	}
	if err := p.expect(ctx, "readyok"); err != nil {
		return fmt.Errorf("wait readyok: %w", err)
	}
	return nil
}

// NewGame clears the engine's hash between unrelated positions.
func (p *Process) NewGame(ctx context.Context) error {
	if err := p.send("ucinewgame"); err != nil {
		return err
	}
	return p.Ready(ctx)
}

// Analyse runs one search. When ctx ends first the search is stopped and
// drained so the process can be reused; the ctx error is returned.
func (p *Process) Analyse(ctx context.Context, s Search) (Report, error) {
	cmds, err := s.commands()
	if err != nil {
		return Report{}, err
	}
	if err := p.send(cmds...); err != nil {
		return Report{}, err
	}

	pvs := make(map[int]PV)
	for {
		select {
		case <-ctx.Done():
			if derr := p.stop(); derr != nil {
				return Report{}, errors.Join(ctx.Err(), derr)
			}
			return Report{}, ctx.Err()
		case line, ok := <-p.lines:
			if !ok {
				return Report{}, ErrProcessExited
			}
			if best, done := parseBestMove(line); done {
				return Report{PVs: sortPVs(pvs), BestMove: best}, nil
			}
			if slot, pv, ok := parseInfo(line); ok {
				pvs[slot] = pv
			}
		}
	}
}

// stop ends a running search and waits for its bestmove.
func (p *Process) stop() error {
	if err := p.send("stop"); err != nil {
		return err
	}
	timer := time.NewTimer(stopGrace)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			return fmt.Errorf("engine ignored stop")
		case line, ok := <-p.lines:
			if !ok {
				return ErrProcessExited
			}
			if _, done := parseBestMove(line); done {
				return nil
			}
		}
	}
}

func (p *Process) send(cmds ...string) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	for _, c := range cmds {
		if _, err := io.WriteString(p.stdin, c+"\n"); err != nil {
			return fmt.Errorf("send %q: %w", strings.Fields(c)[0], err)
		}
	}
	return nil
}

func (p *Process) expect(ctx context.Context, token string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-p.lines:
			if !ok {
				return ErrProcessExited
			}
			if line == token {
				return nil
			}
		}
	}
}

// Close asks the engine to quit and reaps it.
func (p *Process) Close() error {
	p.closeOnce.Do(func() {
		defer close(p.done)
		_ = p.send("quit")
		_ = p.stdin.Close()
		done := make(chan error, 1)
		go func() { done <- p.cmd.Wait() }()
		select {
		case err := <-done:
			p.closeErr = err
		case <-time.After(stopGrace):
			p.logger.Warn("uci_quit_timeout", zap.Int("pid", p.cmd.Process.Pid))
			_ = p.cmd.Process.Kill()
			p.closeErr = <-done
		}
	})
	return p.closeErr
}
