package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chess_review/internal/domain/game"
	apperrors "chess_review/internal/errors"
	"chess_review/internal/usecase/analysis"
	"chess_review/internal/usecase/timeline"
)

const (
	EventState = "state"
	EventEval  = "eval"
	EventEnded = "ended"
)

type Rules interface {
	timeline.Rules
	Status(pos game.Position) game.Status
}

type EngineDialer interface {
	Dial(ctx context.Context) (analysis.Transport, error)
}

type EvalStore interface {
	Load(ctx context.Context, fen string) (analysis.CachedEval, bool, error)
	Save(ctx context.Context, eval analysis.CachedEval) error
}

// Event is pushed to subscribers of a game.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type Listener func(Event)

type Options struct {
	Depth int
	// StoreTimeout bounds every eval store call made in the background.
	StoreTimeout time.Duration
}

type GameUseCase struct {
	rules  Rules
	dialer EngineDialer
	store  EvalStore
	opts   Options
	log    *zap.SugaredLogger

	mu     sync.RWMutex
	boards map[string]*Board

	background sync.WaitGroup
}

func NewGameUseCase(rules Rules, dialer EngineDialer, store EvalStore, opts Options, log *zap.SugaredLogger) *GameUseCase {
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 3 * time.Second
	}
	return &GameUseCase{
		rules:  rules,
		dialer: dialer,
		store:  store,
		opts:   opts,
		log:    log,
		boards: make(map[string]*Board),
	}
}

// NewGame opens a board with its own engine connection and starts analysing
// the initial position.
func (g *GameUseCase) NewGame(ctx context.Context) (game.GameCreateResponse, error) {
	b := &Board{
		id:          uuid.New().String(),
		uc:          g,
		timeline:    timeline.New(g.rules),
		subscribers: make(map[int]Listener),
	}

	b.mu.Lock()
	if _, err := b.replaceSessionLocked(ctx); err != nil {
		b.mu.Unlock()
		return game.GameCreateResponse{}, err
	}
	b.analyzeLocked(ctx)
	state := b.stateLocked()
	b.mu.Unlock()

	g.mu.Lock()
	g.boards[b.id] = b
	g.mu.Unlock()

	g.log.Infow("game created", "game_id", b.id)
	return game.GameCreateResponse{GameID: b.id, State: state}, nil
}

func (g *GameUseCase) board(id string) (*Board, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	b, ok := g.boards[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrGameNotFound, id)
	}
	return b, nil
}

func (g *GameUseCase) State(id string) (game.GameState, error) {
	b, err := g.board(id)
	if err != nil {
		return game.GameState{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked(), b.broken
}

// AttemptMove plays a move at the live point. Rejected moves leave the board
// untouched; the returned state still carries feedback for the user.
func (g *GameUseCase) AttemptMove(ctx context.Context, id string, req game.MoveRequest) (game.GameState, error) {
	return g.mutate(ctx, id, func(b *Board) (bool, error) {
		move, err := b.timeline.AttemptMove(req)
		switch {
		case err == nil:
			b.feedback = "valid move: " + string(move)
			return true, nil
		case errors.Is(err, apperrors.ErrNotLive):
			b.feedback = "go to the latest move to play"
		case errors.Is(err, apperrors.ErrCorruptHistory):
		default:
			b.feedback = "illegal move"
		}
		return false, err
	})
}

func (g *GameUseCase) StepBack(ctx context.Context, id string) (game.GameState, error) {
	return g.mutate(ctx, id, func(b *Board) (bool, error) {
		before := b.timeline.ViewIndex()
		b.timeline.StepBack()
		return b.timeline.ViewIndex() != before, nil
	})
}

func (g *GameUseCase) StepForward(ctx context.Context, id string) (game.GameState, error) {
	return g.mutate(ctx, id, func(b *Board) (bool, error) {
		before := b.timeline.ViewIndex()
		b.timeline.StepForward()
		return b.timeline.ViewIndex() != before, nil
	})
}

func (g *GameUseCase) SeekTo(ctx context.Context, id string, index int) (game.GameState, error) {
	return g.mutate(ctx, id, func(b *Board) (bool, error) {
		before := b.timeline.ViewIndex()
		b.timeline.SeekTo(index)
		return b.timeline.ViewIndex() != before, nil
	})
}

// DeleteLastMove drops the final move. The view only moves when it pointed
// past the new end, but analysis restarts either way so no result for the
// removed line can surface.
func (g *GameUseCase) DeleteLastMove(ctx context.Context, id string) (game.GameState, error) {
	return g.mutate(ctx, id, func(b *Board) (bool, error) {
		if b.timeline.Len() == 0 {
			return false, nil
		}
		b.timeline.DeleteLastMove()
		b.feedback = ""
		return true, nil
	})
}

// Reset starts a new game on the same board. The old engine connection is
// torn down and a fresh one is dialed, which also recovers a board whose
// engine failed.
func (g *GameUseCase) Reset(ctx context.Context, id string) (game.GameState, error) {
	b, err := g.board(id)
	if err != nil {
		return game.GameState{}, err
	}

	b.mu.Lock()
	b.timeline.Reset()
	b.broken = nil
	b.feedback = ""
	old, dialErr := b.replaceSessionLocked(ctx)
	if dialErr != nil {
		g.log.Warnw("engine redial failed", "game_id", id, "error", dialErr)
		b.feedback = "chess engine unavailable"
	}
	b.analyzeLocked(ctx)
	state := b.stateLocked()
	b.broadcast(Event{Type: EventState, Payload: state})
	b.mu.Unlock()

	b.closeSession(old)
	return state, dialErr
}

// EndGame closes the engine and forgets the board.
func (g *GameUseCase) EndGame(id string) error {
	g.mu.Lock()
	b, ok := g.boards[id]
	delete(g.boards, id)
	g.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrGameNotFound, id)
	}

	b.mu.Lock()
	b.generation++
	session := b.session
	b.session = nil
	b.broadcast(Event{Type: EventEnded})
	b.mu.Unlock()

	b.closeSession(session)
	g.log.Infow("game ended", "game_id", id)
	return nil
}

// Subscribe registers l for state and evaluation events of game id.
func (g *GameUseCase) Subscribe(id string, l Listener) (func(), error) {
	b, err := g.board(id)
	if err != nil {
		return nil, err
	}
	return b.subscribe(l), nil
}

// Close ends every game and waits for pending store writes.
func (g *GameUseCase) Close() {
	g.mu.RLock()
	ids := make([]string, 0, len(g.boards))
	for id := range g.boards {
		ids = append(ids, id)
	}
	g.mu.RUnlock()

	for _, id := range ids {
		_ = g.EndGame(id)
	}
	g.background.Wait()
}

func (g *GameUseCase) mutate(ctx context.Context, id string, op func(b *Board) (bool, error)) (game.GameState, error) {
	b, err := g.board(id)
	if err != nil {
		return game.GameState{}, err
	}

	b.mu.Lock()
	if b.broken != nil {
		state := b.stateLocked()
		b.mu.Unlock()
		return state, b.broken
	}
	changed, err := op(b)
	if errors.Is(err, apperrors.ErrCorruptHistory) {
		b.markBrokenLocked(err)
	}
	if changed {
		b.analyzeLocked(ctx)
	}
	if b.broken != nil {
		err = b.broken
	}
	state := b.stateLocked()
	b.broadcast(Event{Type: EventState, Payload: state})
	b.mu.Unlock()

	return state, err
}

func (g *GameUseCase) goBackground(fn func(ctx context.Context)) {
	g.background.Add(1)
	go func() {
		defer g.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), g.opts.StoreTimeout)
		defer cancel()
		fn(ctx)
	}()
}
