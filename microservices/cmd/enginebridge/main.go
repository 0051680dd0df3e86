package main

import (
	"context"
	"net"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"chess_review/internal/bootstrap"
	"chess_review/microservices/repository"
	"chess_review/microservices/rpc"
	"chess_review/microservices/usecase"
)

func main() {
	logger := NewLogger()
	defer logger.Sync()

	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Errorw("Failed to setup configuration", "error", err)
		return
	}

	lis, err := net.Listen("tcp", ":"+cfg.EngineBridgePort)
	if err != nil {
		logger.Fatalw("cant listen port", "port", cfg.EngineBridgePort, "error", err)
	}

	server := grpc.NewServer()
	spawner := repository.NewEngineSpawner(cfg, logger)
	rpc.RegisterEngineBridgeServer(server, usecase.NewBridgeUseCase(spawner, logger))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("starting engine bridge at :%s", cfg.EngineBridgePort)
		return server.Serve(lis)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Received shutdown signal")
		stopped := make(chan struct{})
		go func() {
			server.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(5 * time.Second):
			server.Stop()
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Errorw("engine bridge stopped", "error", err)
	}
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}

	return logger.Sugar()
}
