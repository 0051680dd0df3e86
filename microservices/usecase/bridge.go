package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"chess_review/microservices/repository"
	"chess_review/microservices/rpc"
)

type ProcessSpawner interface {
	Spawn(ctx context.Context) (repository.Process, error)
}

// BridgeUseCase serves one engine process per Lines stream.
type BridgeUseCase struct {
	spawner ProcessSpawner
	log     *zap.SugaredLogger
}

func NewBridgeUseCase(spawner ProcessSpawner, log *zap.SugaredLogger) *BridgeUseCase {
	return &BridgeUseCase{
		spawner: spawner,
		log:     log,
	}
}

func (b *BridgeUseCase) Lines(stream rpc.LinesServer) error {
	ctx := stream.Context()
	proc, err := b.spawner.Spawn(ctx)
	if err != nil {
		return fmt.Errorf("spawn engine: %w", err)
	}

	sendErr := make(chan error, 1)
	proc.Listen(func(line string) {
		if err := stream.Send(wrapperspb.String(line)); err != nil {
			select {
			case sendErr <- err:
			default:
			}
		}
	})

	recvErr := make(chan error, 1)
	go func() {
		for {
			m, err := stream.Recv()
			if err != nil {
				recvErr <- err
				return
			}
			if err := proc.Send(ctx, m.GetValue()); err != nil {
				recvErr <- err
				return
			}
		}
	}()

	var result error
	select {
	case err := <-recvErr:
		if !errors.Is(err, io.EOF) {
			result = err
		}
	case err := <-sendErr:
		result = err
	case <-proc.Done():
		b.log.Info("engine exited")
	case <-ctx.Done():
	}

	if err := proc.Close(); err != nil {
		b.log.Warnw("engine close", "error", err)
	}
	<-proc.Done()
	return result
}
