package repository

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	apperrors "chess_review/internal/errors"
)

// LocalEngine runs a UCI engine as a child process and talks to it over
// stdin/stdout.
type LocalEngine struct {
	cmd  *exec.Cmd
	conn *pipeConn

	reapOnce sync.Once
	exited   chan struct{}
}

const engineExitTimeout = 2 * time.Second

func NewLocalEngine(ctx context.Context, path string, args []string, timeout time.Duration, log *zap.SugaredLogger) (*LocalEngine, error) {
	e, err := StartEngineProcess(path, args, log)
	if err != nil {
		return nil, err
	}
	if err := e.conn.handshake(ctx, timeout); err != nil {
		_ = e.Close()
		return nil, err
	}
	log.Infow("engine started", "path", path, "pid", e.cmd.Process.Pid)
	return e, nil
}

// StartEngineProcess spawns the engine without talking to it. The caller is
// responsible for the UCI handshake.
func StartEngineProcess(path string, args []string, log *zap.SugaredLogger) (*LocalEngine, error) {
	cmd := exec.Command(path, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start engine %s: %w", path, err)
	}
	return &LocalEngine{
		cmd:    cmd,
		conn:   newPipeConn(stdout, stdin, log),
		exited: make(chan struct{}),
	}, nil
}

func (e *LocalEngine) Send(ctx context.Context, line string) error {
	return e.conn.Send(ctx, line)
}

func (e *LocalEngine) Listen(handler func(line string)) {
	e.conn.Listen(handler)
}

// Done is closed once the engine's stdout has been fully read.
func (e *LocalEngine) Done() <-chan struct{} {
	return e.conn.done
}

// Exited is closed once the child process has been reaped after Close.
func (e *LocalEngine) Exited() <-chan struct{} {
	return e.exited
}

// Close shuts stdin and reaps the process in the background. It does not
// wait for the listener, whose handler may be waiting on the caller.
func (e *LocalEngine) Close() error {
	err := e.conn.Close()
	e.reapOnce.Do(func() { go e.reap() })
	return err
}

// reap lets the listener drain stdout before Wait closes the pipe under it.
func (e *LocalEngine) reap() {
	defer close(e.exited)
	kill := time.NewTimer(engineExitTimeout)
	defer kill.Stop()

	if e.conn.listening.Load() {
		select {
		case <-e.conn.done:
		case <-kill.C:
			_ = e.cmd.Process.Kill()
			<-e.conn.done
		}
	}

	waited := make(chan struct{})
	go func() {
		_ = e.cmd.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-kill.C:
		_ = e.cmd.Process.Kill()
		<-waited
	}
}

// pipeConn is the line protocol over a reader/writer pair. Writes are
// serialized; reads happen in a single listener goroutine.
type pipeConn struct {
	mu      sync.Mutex
	w       *bufio.Writer
	wc      io.Closer
	scanner *bufio.Scanner
	log     *zap.SugaredLogger

	closed     atomic.Bool
	listening  atomic.Bool
	listenOnce sync.Once
	done       chan struct{}
}

func newPipeConn(r io.Reader, w io.WriteCloser, log *zap.SugaredLogger) *pipeConn {
	return &pipeConn{
		w:       bufio.NewWriter(w),
		wc:      w,
		scanner: bufio.NewScanner(r),
		log:     log,
		done:    make(chan struct{}),
	}
}

func (c *pipeConn) handshake(ctx context.Context, timeout time.Duration) error {
	return handshake(ctx, timeout,
		func(line string) error { return c.Send(ctx, line) },
		func() (string, error) {
			if c.scanner.Scan() {
				return c.scanner.Text(), nil
			}
			if err := c.scanner.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		},
	)
}

func (c *pipeConn) Send(ctx context.Context, line string) error {
	if c.closed.Load() {
		return apperrors.ErrEngineClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.w.WriteString(line + "\n"); err != nil {
		return err
	}
	return c.w.Flush()
}

func (c *pipeConn) Listen(handler func(line string)) {
	c.listenOnce.Do(func() {
		c.listening.Store(true)
		go func() {
			defer close(c.done)
			for c.scanner.Scan() {
				if c.closed.Load() {
					continue
				}
				handler(c.scanner.Text())
			}
			if err := c.scanner.Err(); err != nil && !c.closed.Load() {
				c.log.Errorw("engine output read failed", "error", err)
			}
		}()
	})
}

func (c *pipeConn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wc.Close()
}
