package repository

import (
	"context"

	"go.uber.org/zap"

	"chess_review/internal/bootstrap"
	engine "chess_review/internal/repository"
)

// Process is a raw engine process. The bridge forwards lines both ways without
// interpreting them, so no handshake happens here.
type Process interface {
	Send(ctx context.Context, line string) error
	Listen(handler func(line string))
	Done() <-chan struct{}
	Close() error
}

type EngineSpawner struct {
	path string
	args []string
	log  *zap.SugaredLogger
}

func NewEngineSpawner(cfg *bootstrap.Config, log *zap.SugaredLogger) *EngineSpawner {
	return &EngineSpawner{
		path: cfg.EnginePath,
		args: cfg.EngineArgList(),
		log:  log,
	}
}

func (s *EngineSpawner) Spawn(_ context.Context) (Process, error) {
	p, err := engine.StartEngineProcess(s.path, s.args, s.log)
	if err != nil {
		return nil, err
	}
	s.log.Infow("engine process spawned", "path", s.path)
	return p, nil
}
