package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"chess_review/internal/adapters"
	"chess_review/internal/bootstrap"
	gameDelivery "chess_review/internal/delivery/game"
	ownMiddleware "chess_review/internal/middleware"
	"chess_review/internal/repository"
	"chess_review/internal/rules"
	gameuc "chess_review/internal/usecase/game"
)

type mainDeliveryHandler struct {
	game *gameDelivery.GameHandler
}

// closer releases a resource opened in main.
type closer func(ctx context.Context) error

func main() {
	logger := NewLogger()
	defer logger.Sync()

	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Errorw("Failed to setup configuration", "error", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := initEvalStore(ctx, logger, cfg)
	if err != nil {
		logger.Fatalw("Failed to init eval store", "store", cfg.EvalStore, "error", err)
	}
	defer closeStore(context.Background())

	dialer, closeDialer, err := initEngineDialer(logger, cfg)
	if err != nil {
		logger.Fatalw("Failed to init engine", "mode", cfg.EngineMode, "error", err)
	}
	defer closeDialer(context.Background())

	gameUC := gameuc.NewGameUseCase(rules.NewAdapter(), dialer, store, gameuc.Options{Depth: cfg.EngineDepth}, logger)
	defer gameUC.Close()

	handlers := &mainDeliveryHandler{game: gameDelivery.NewGameHandler(logger, gameUC)}
	r := chi.NewRouter()
	handlers.Router(r, cfg.IsLocalCors)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Server is running on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Received shutdown signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Errorw("Server stopped", "error", err)
	}
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}

func (h *mainDeliveryHandler) Router(r *chi.Mux, isLocalCors bool) {
	if isLocalCors {
		r.Use(ownMiddleware.CORS)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
	h.game.Routes(r)
}

func initEvalStore(ctx context.Context, log *zap.SugaredLogger, cfg *bootstrap.Config) (gameuc.EvalStore, closer, error) {
	switch cfg.EvalStore {
	case bootstrap.EvalStoreRedis:
		redisAdapter := adapters.NewAdapterRedis(cfg, log)
		if err := redisAdapter.Init(ctx); err != nil {
			return nil, nil, err
		}
		return repository.NewRedisEvalCache(redisAdapter.GetClient(), cfg.EvalCacheTTL(), log), redisAdapter.Close, nil
	case bootstrap.EvalStoreMongo:
		mongoAdapter := adapters.NewAdapterMongo(cfg, log)
		if err := mongoAdapter.Init(ctx); err != nil {
			return nil, nil, err
		}
		return repository.NewMongoEvalArchive(mongoAdapter.Database, log), mongoAdapter.Close, nil
	}
	log.Info("Eval store disabled")
	return repository.NoopEvalStore{}, func(context.Context) error { return nil }, nil
}

func initEngineDialer(log *zap.SugaredLogger, cfg *bootstrap.Config) (gameuc.EngineDialer, closer, error) {
	if cfg.EngineMode == bootstrap.EngineModeRemote {
		conn, err := grpc.NewClient(cfg.EngineBridgeAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, nil, err
		}
		log.Infow("Using remote engine bridge", "addr", cfg.EngineBridgeAddr)
		dialer := repository.RemoteDialer{Conn: conn, Timeout: cfg.HandshakeTimeout(), Log: log}
		return dialer, func(context.Context) error { return conn.Close() }, nil
	}
	log.Infow("Using local engine", "path", cfg.EnginePath)
	dialer := repository.LocalDialer{Path: cfg.EnginePath, Args: cfg.EngineArgList(), Timeout: cfg.HandshakeTimeout(), Log: log}
	return dialer, func(context.Context) error { return nil }, nil
}
