package repository

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"chess_review/internal/usecase/analysis"
)

// LocalDialer starts a fresh engine process for every game.
type LocalDialer struct {
	Path    string
	Args    []string
	Timeout time.Duration
	Log     *zap.SugaredLogger
}

func (d LocalDialer) Dial(ctx context.Context) (analysis.Transport, error) {
	return NewLocalEngine(ctx, d.Path, d.Args, d.Timeout, d.Log)
}

// RemoteDialer opens one bridge stream per game over a shared connection.
type RemoteDialer struct {
	Conn    grpc.ClientConnInterface
	Timeout time.Duration
	Log     *zap.SugaredLogger
}

func (d RemoteDialer) Dial(ctx context.Context) (analysis.Transport, error) {
	return NewRemoteEngine(ctx, d.Conn, d.Timeout, d.Log)
}
