package repository

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	apperrors "chess_review/internal/errors"
)

const DefaultHandshakeTimeout = 5 * time.Second

// handshake runs "uci"/"uciok" then "isready"/"readyok" over any line transport.
func handshake(ctx context.Context, timeout time.Duration, send func(string) error, next func() (string, error)) error {
	if timeout <= 0 {
		timeout = DefaultHandshakeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- exchange(send, next)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %w", apperrors.ErrEngineHandshake, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", apperrors.ErrEngineHandshake, ctx.Err())
	}
}

func exchange(send func(string) error, next func() (string, error)) error {
	steps := []struct{ cmd, want string }{
		{"uci", "uciok"},
		{"isready", "readyok"},
	}
	for _, step := range steps {
		if err := send(step.cmd); err != nil {
			return fmt.Errorf("send %s: %w", step.cmd, err)
		}
		if err := waitFor(next, step.want); err != nil {
			return err
		}
	}
	return nil
}

func waitFor(next func() (string, error), want string) error {
	for {
		line, err := next()
		if err != nil {
			if err == io.EOF {
				return fmt.Errorf("engine exited before %s", want)
			}
			return err
		}
		if strings.TrimSpace(line) == want {
			return nil
		}
	}
}
