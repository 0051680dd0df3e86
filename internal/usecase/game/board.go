package game

import (
	"context"
	"fmt"
	"sync"

	"chess_review/internal/domain/game"
	apperrors "chess_review/internal/errors"
	"chess_review/internal/usecase/analysis"
	"chess_review/internal/usecase/timeline"
)

// Board is one game session. mu serializes every timeline call and every
// event sent to subscribers, so an evaluation is only pushed while its
// position is still the one on display.
type Board struct {
	id string
	uc *GameUseCase

	mu       sync.Mutex
	timeline *timeline.Timeline
	session  *analysis.Session
	// generation changes whenever session is replaced or dropped. Updates
	// from an older session carry an older generation and are ignored.
	generation int
	feedback   string
	broken     error
	position   game.Position

	subMu       sync.Mutex
	subscribers map[int]Listener
	nextSub     int
}

// replaceSessionLocked dials a fresh engine and installs a new analysis
// session on it. The previous session is returned so the caller can close it
// after releasing mu. On dial failure the board is left without a session.
func (b *Board) replaceSessionLocked(ctx context.Context) (*analysis.Session, error) {
	old := b.session
	b.session = nil
	b.generation++
	gen := b.generation

	transport, err := b.uc.dialer.Dial(ctx)
	if err != nil {
		return old, fmt.Errorf("%w: %w", apperrors.ErrEngineUnavailable, err)
	}
	b.session = analysis.NewSession(transport, analysis.SessionOptions{
		Depth:    b.uc.opts.Depth,
		OnUpdate: func(u analysis.Update) { b.onAnalysis(gen, u) },
	}, b.uc.log.With("game_id", b.id))
	return old, nil
}

func (b *Board) closeSession(s *analysis.Session) {
	if s == nil {
		return
	}
	if err := s.Close(); err != nil {
		b.uc.log.Warnw("engine close failed", "game_id", b.id, "error", err)
	}
}

func (b *Board) markBrokenLocked(err error) {
	if b.broken == nil {
		b.uc.log.Errorw("move history is corrupt", "game_id", b.id, "error", err)
	}
	b.broken = err
	b.feedback = "move history is corrupt"
}

// analyzeLocked points the engine at the viewed position under a new epoch,
// then looks the position up in the eval store. A cached result only lands if
// the epoch is still current when the lookup returns.
func (b *Board) analyzeLocked(ctx context.Context) {
	pos, err := b.timeline.CurrentPosition()
	if err != nil {
		b.markBrokenLocked(err)
		return
	}
	b.position = pos

	session := b.session
	if session == nil {
		return
	}
	epoch, err := session.OnPositionChanged(ctx, pos, b.timeline.ViewIndex())
	if err != nil {
		b.uc.log.Warnw("analysis request failed", "game_id", b.id, "error", err)
		return
	}

	store := b.uc.store
	b.uc.goBackground(func(ctx context.Context) {
		cached, ok, err := store.Load(ctx, pos.FEN)
		if err != nil {
			b.uc.log.Warnw("eval store lookup failed", "fen", pos.FEN, "error", err)
			return
		}
		if ok {
			session.Seed(epoch, cached)
		}
	})
}

// onAnalysis runs on the engine reader goroutine, after the session has
// released its own lock. The epoch is checked again under mu because the
// view may have moved on in between.
func (b *Board) onAnalysis(gen int, u analysis.Update) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.generation || b.session == nil || u.Epoch != b.session.Current() {
		return
	}
	b.broadcast(Event{Type: EventEval, Payload: evaluationView(u)})

	if !u.Final || u.Cached {
		return
	}
	store := b.uc.store
	b.uc.goBackground(func(ctx context.Context) {
		if err := store.Save(ctx, analysis.CachedFromUpdate(u)); err != nil {
			b.uc.log.Warnw("eval store save failed", "fen", u.Position.FEN, "error", err)
		}
	})
}

func (b *Board) stateLocked() game.GameState {
	moves := b.timeline.Moves()
	state := game.GameState{
		GameID:    b.id,
		Moves:     moves,
		Rows:      game.Rows(moves),
		ViewIndex: b.timeline.ViewIndex(),
		Live:      b.timeline.IsLive(),
		Feedback:  b.feedback,
		Status:    game.StatusOngoing,
	}
	if b.broken != nil {
		return state
	}

	state.FEN = b.position.FEN
	state.SideToMove = b.position.SideToMove
	state.Status = b.uc.rules.Status(b.position)
	if b.session == nil {
		return state
	}
	state.Epoch = b.session.Current().Seq
	if u, ok := b.session.Latest(); ok {
		view := evaluationView(u)
		state.Evaluation = &view
	}
	return state
}

func evaluationView(u analysis.Update) game.EvaluationView {
	return game.EvaluationView{
		Epoch:     u.Epoch.Seq,
		ViewIndex: u.Epoch.ViewIndex,
		FEN:       u.Position.FEN,
		Kind:      string(u.Evaluation.Kind),
		Pawns:     u.Evaluation.Pawns,
		Mate:      u.Evaluation.Mate,
		Text:      u.Evaluation.String(),
		Depth:     u.Depth,
		Final:     u.Final,
	}
}

func (b *Board) subscribe(l Listener) func() {
	b.subMu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subscribers[id] = l
	b.subMu.Unlock()

	return func() {
		b.subMu.Lock()
		delete(b.subscribers, id)
		b.subMu.Unlock()
	}
}

// broadcast must be called with mu held. Listeners must not block.
func (b *Board) broadcast(e Event) {
	b.subMu.Lock()
	listeners := make([]Listener, 0, len(b.subscribers))
	for _, l := range b.subscribers {
		listeners = append(listeners, l)
	}
	b.subMu.Unlock()

	for _, l := range listeners {
		l(e)
	}
}
