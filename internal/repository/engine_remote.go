package repository

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	apperrors "chess_review/internal/errors"
	"chess_review/microservices/rpc"
)

// RemoteEngine speaks UCI through the engine bridge microservice.
type RemoteEngine struct {
	mu     sync.Mutex
	stream rpc.LinesClient
	cancel context.CancelFunc
	log    *zap.SugaredLogger

	closed     atomic.Bool
	listenOnce sync.Once
	done       chan struct{}
}

func NewRemoteEngine(ctx context.Context, cc grpc.ClientConnInterface, timeout time.Duration, log *zap.SugaredLogger) (*RemoteEngine, error) {
	streamCtx, cancel := context.WithCancel(context.Background())
	stream, err := rpc.NewEngineBridgeClient(cc).Lines(streamCtx)
	if err != nil {
		cancel()
		return nil, err
	}

	e := &RemoteEngine{stream: stream, cancel: cancel, log: log, done: make(chan struct{})}
	err = handshake(ctx, timeout,
		func(line string) error { return e.Send(ctx, line) },
		func() (string, error) {
			m, err := stream.Recv()
			if err != nil {
				return "", err
			}
			return m.GetValue(), nil
		},
	)
	if err != nil {
		_ = e.Close()
		return nil, err
	}
	return e, nil
}

func (e *RemoteEngine) Send(ctx context.Context, line string) error {
	if e.closed.Load() {
		return apperrors.ErrEngineClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stream.Send(wrapperspb.String(line))
}

func (e *RemoteEngine) Listen(handler func(line string)) {
	e.listenOnce.Do(func() {
		go func() {
			defer close(e.done)
			for {
				m, err := e.stream.Recv()
				if err != nil {
					if !errors.Is(err, io.EOF) && status.Code(err) != codes.Canceled && !e.closed.Load() {
						e.log.Errorw("engine bridge stream failed", "error", err)
					}
					return
				}
				if e.closed.Load() {
					continue
				}
				handler(m.GetValue())
			}
		}()
	})
}

func (e *RemoteEngine) Done() <-chan struct{} {
	return e.done
}

func (e *RemoteEngine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	e.mu.Lock()
	err := e.stream.CloseSend()
	e.mu.Unlock()
	e.cancel()
	return err
}
