package uci

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

type PoolConfig struct {
	BinaryPath string
	// Capacity bounds live processes per distinct Options.
	Capacity int
	Logger   *zap.Logger
}

// Pool keeps warm engine processes per Options. Processes are borrowed
// through Do.
type Pool struct {
	binaryPath string
	capacity   int
	logger     *zap.Logger

	mu     sync.Mutex
	groups map[string]*group
	closed bool
}

// group is the set of processes sharing one Options. slots holds one
// token per process that may exist; idle holds started processes.
type group struct {
	opt   Options
	slots chan struct{}
	idle  chan *Process
}

func NewPool(cfg PoolConfig) (*Pool, error) {
	if cfg.BinaryPath == "" {
		return nil, fmt.Errorf("binary path required")
	}
	if _, err := os.Stat(cfg.BinaryPath); err != nil {
		return nil, fmt.Errorf("engine binary check: %w", err)
	}
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = min(max(runtime.NumCPU(), 2), 4)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		binaryPath: cfg.BinaryPath,
		capacity:   capacity,
		logger:     logger,
		groups:     make(map[string]*group),
	}, nil
}

var ErrPoolClosed = errors.New("engine pool closed")

// Do runs fn on a process configured with opt, starting one if the group
// has room and waiting otherwise. A process that fn fails on is closed
// instead of returned to the pool.
func (p *Pool) Do(ctx context.Context, opt Options, fn func(*Process) error) error {
	g, err := p.group(opt)
	if err != nil {
		return err
	}
	proc, err := p.borrow(ctx, g)
	if err != nil {
		return err
	}
	if err := fn(proc); err != nil {
		p.retire(g, proc)
		return err
	}
	if p.isClosed() {
		p.retire(g, proc)
		return nil
	}
	select {
	case g.idle <- proc:
	default:
		p.retire(g, proc)
	}
	return nil
}

func (p *Pool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Pool) group(opt Options) (*group, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPoolClosed
	}
	key := opt.key()
	g, ok := p.groups[key]
	if !ok {
		g = &group{
			opt:   opt,
			slots: make(chan struct{}, p.capacity),
			idle:  make(chan *Process, p.capacity),
		}
		p.groups[key] = g
	}
	return g, nil
}

func (p *Pool) borrow(ctx context.Context, g *group) (*Process, error) {
	for {
		select {
		case proc := <-g.idle:
			if err := proc.Ready(ctx); err != nil {
				p.logger.Debug("uci_process_stale", zap.Error(err))
				p.retire(g, proc)
				continue
			}
			return proc, nil
		default:
		}

		select {
		case proc := <-g.idle:
			if err := proc.Ready(ctx); err != nil {
				p.logger.Debug("uci_process_stale", zap.Error(err))
				p.retire(g, proc)
				continue
			}
			return proc, nil
		case g.slots <- struct{}{}:
			proc, err := Start(ctx, p.binaryPath, g.opt, p.logger)
			if err != nil {
				<-g.slots
				return nil, err
			}
			p.logger.Debug("uci_process_started", zap.String("options", g.opt.key()))
			return proc, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (p *Pool) retire(g *group, proc *Process) {
	if err := proc.Close(); err != nil {
		p.logger.Debug("uci_process_close", zap.Error(err))
	}
	<-g.slots
}

// Close stops idle processes. Processes borrowed at the time are closed
// when they come back.
func (p *Pool) Close() error {
	p.mu.Lock()
	p.closed = true
	groups := p.groups
	p.groups = make(map[string]*group)
	p.mu.Unlock()

	var errs []error
	for _, g := range groups {
		for drained := false; !drained; {
			select {
			case proc := <-g.idle:
				errs = append(errs, proc.Close())
				<-g.slots
			default:
				drained = true
			}
		}
	}
	return errors.Join(errs...)
}
