package analysis

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"chess_review/internal/domain/game"
	apperrors "chess_review/internal/errors"
)

const DefaultDepth = 18

// Transport is one connection to a UCI engine. Lines written with Send go to
// the engine; lines the engine prints are handed to the Listen handler from a
// goroutine owned by the transport.
type Transport interface {
	Send(ctx context.Context, line string) error
	Listen(handler func(line string))
	Close() error
}

// Epoch identifies one analysis request. Seq grows on every position change,
// so two requests for the same view index never compare equal.
type Epoch struct {
	Seq       uint64 `json:"seq"`
	ViewIndex int    `json:"view_index"`
}

type Request struct {
	Position game.Position
	Epoch    Epoch
}

type Result struct {
	Epoch Epoch
	Score Score
	Depth int
	PV    []string
	Final bool
	// Cached marks a result replayed from an evaluation store.
	Cached bool
}

// Update is a non-stale result, already normalized for display.
type Update struct {
	Epoch      Epoch
	Position   game.Position
	Score      Score
	Evaluation Evaluation
	Depth      int
	PV         []string
	Final      bool
	Cached     bool
}

type UpdateFunc func(Update)

type State int

const (
	Idle State = iota
	Requesting
)

func (s State) String() string {
	if s == Requesting {
		return "requesting"
	}
	return "idle"
}

type SessionOptions struct {
	Depth    int
	OnUpdate UpdateFunc
}

// Session drives one engine connection. Only results tagged with the current
// epoch reach OnUpdate; everything else is dropped on receipt.
type Session struct {
	sendMu    sync.Mutex
	transport Transport

	mu       sync.Mutex
	log      *zap.SugaredLogger
	depth    int
	onUpdate UpdateFunc
	seq      uint64
	request  Request
	state    State
	searches []Epoch
	latest   *Update
	closed   bool
}

func NewSession(transport Transport, opts SessionOptions, log *zap.SugaredLogger) *Session {
	if opts.Depth <= 0 {
		opts.Depth = DefaultDepth
	}
	s := &Session{
		transport: transport,
		log:       log,
		depth:     opts.Depth,
		onUpdate:  opts.OnUpdate,
	}
	transport.Listen(s.OnEngineOutput)
	return s
}

// OnPositionChanged starts analysis of pos under a fresh epoch. A search that
// is still running is told to stop; its remaining output is attributed to its
// own epoch and discarded.
func (s *Session) OnPositionChanged(ctx context.Context, pos game.Position, viewIndex int) (Epoch, error) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Epoch{}, apperrors.ErrEngineClosed
	}
	s.seq++
	epoch := Epoch{Seq: s.seq, ViewIndex: viewIndex}
	running := len(s.searches) > 0
	s.request = Request{Position: pos, Epoch: epoch}
	s.state = Requesting
	s.latest = nil
	s.searches = append(s.searches, epoch)
	s.mu.Unlock()

	lines := make([]string, 0, 3)
	if running {
		lines = append(lines, "stop")
	}
	lines = append(lines, "position fen "+pos.FEN, fmt.Sprintf("go depth %d", s.depth))
	for _, line := range lines {
		if err := s.transport.Send(ctx, line); err != nil {
			s.log.Errorw("engine send failed", "line", line, "error", err)
			s.fail()
			return epoch, fmt.Errorf("send %q: %w", line, err)
		}
	}
	s.log.Debugw("analysis requested", "seq", epoch.Seq, "view_index", viewIndex, "fen", pos.FEN)
	return epoch, nil
}

// NewGame tells the engine a new game starts. Any running search is stopped
// and the current epoch is retired.
func (s *Session) NewGame(ctx context.Context) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return apperrors.ErrEngineClosed
	}
	running := len(s.searches) > 0
	s.seq++
	s.request = Request{Epoch: Epoch{Seq: s.seq}}
	s.latest = nil
	s.mu.Unlock()

	if running {
		if err := s.transport.Send(ctx, "stop"); err != nil {
			s.fail()
			return fmt.Errorf("send stop: %w", err)
		}
	}
	if err := s.transport.Send(ctx, "ucinewgame"); err != nil {
		s.fail()
		return fmt.Errorf("send ucinewgame: %w", err)
	}
	return nil
}

// OnEngineOutput consumes one engine line. Info lines are tagged with the
// epoch of the search that printed them: the oldest search that has not yet
// reported bestmove.
func (s *Session) OnEngineOutput(line string) {
	s.mu.Lock()
	if s.closed || len(s.searches) == 0 {
		s.mu.Unlock()
		return
	}

	if _, ok := ParseBestMove(line); ok {
		finished := s.searches[0]
		s.searches = s.searches[1:]
		if len(s.searches) == 0 {
			s.state = Idle
		}
		var final *Update
		if finished == s.request.Epoch && s.latest != nil && !s.latest.Final {
			u := *s.latest
			u.Final = true
			s.latest = &u
			final = &u
		}
		s.mu.Unlock()
		if final != nil {
			s.publish(*final)
		}
		return
	}

	info, ok := ParseInfo(line)
	if !ok {
		s.mu.Unlock()
		return
	}
	res := Result{Epoch: s.searches[0], Score: info.Score, Depth: info.Depth, PV: info.PV}
	u, ok := s.acceptLocked(res)
	s.mu.Unlock()
	if ok {
		s.publish(u)
	}
}

// Deliver applies a tagged result. It reports false when the result was
// dropped because its epoch is not current or it is shallower than what is
// already shown.
func (s *Session) Deliver(res Result) bool {
	s.mu.Lock()
	u, ok := s.acceptLocked(res)
	s.mu.Unlock()
	if ok {
		s.publish(u)
	}
	return ok
}

// Seed shows a previously computed score for the current epoch.
func (s *Session) Seed(epoch Epoch, cached CachedEval) bool {
	return s.Deliver(Result{Epoch: epoch, Score: cached.Score, Depth: cached.Depth, PV: cached.PV, Final: true, Cached: true})
}

func (s *Session) acceptLocked(res Result) (Update, bool) {
	if s.closed || res.Epoch != s.request.Epoch {
		s.log.Debugw("stale analysis dropped", "result_seq", res.Epoch.Seq, "current_seq", s.request.Epoch.Seq)
		return Update{}, false
	}
	if s.latest != nil && res.Depth < s.latest.Depth {
		return Update{}, false
	}
	u := Update{
		Epoch:      res.Epoch,
		Position:   s.request.Position,
		Score:      res.Score,
		Evaluation: Normalize(res.Score, s.request.Position.SideToMove),
		Depth:      res.Depth,
		PV:         res.PV,
		Final:      res.Final,
		Cached:     res.Cached,
	}
	s.latest = &u
	return u, true
}

func (s *Session) publish(u Update) {
	if s.onUpdate != nil {
		s.onUpdate(u)
	}
}

func (s *Session) Latest() (Update, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil || s.latest.Epoch != s.request.Epoch {
		return Update{}, false
	}
	return *s.latest, true
}

func (s *Session) Current() Epoch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.request.Epoch
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close quits the engine. Output that arrives afterwards is ignored.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.state = Idle
	s.searches = nil
	s.latest = nil
	s.mu.Unlock()

	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	_ = s.transport.Send(context.Background(), "quit")
	return s.transport.Close()
}

func (s *Session) fail() {
	s.mu.Lock()
	s.closed = true
	s.state = Idle
	s.searches = nil
	s.mu.Unlock()
	_ = s.transport.Close()
}
