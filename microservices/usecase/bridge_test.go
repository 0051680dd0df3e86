package usecase

import (
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	engine "chess_review/internal/repository"
	"chess_review/microservices/repository"
	"chess_review/microservices/rpc"
)

// scriptedEngine answers the handshake and every "go" with one info line and
// a bestmove.
type scriptedEngine struct {
	mu        sync.Mutex
	handler   func(string)
	received  []string
	done      chan struct{}
	closeOnce sync.Once
}

func newScriptedEngine() *scriptedEngine {
	return &scriptedEngine{done: make(chan struct{})}
}

func (e *scriptedEngine) Send(_ context.Context, line string) error {
	e.mu.Lock()
	e.received = append(e.received, line)
	handler := e.handler
	e.mu.Unlock()

	switch {
	case line == "uci":
		handler("id name scripted")
		handler("uciok")
	case line == "isready":
		handler("readyok")
	case strings.HasPrefix(line, "go"):
		handler("info depth 1 score cp 25 pv e2e4")
		handler("bestmove e2e4")
	case line == "quit":
		e.Close()
	}
	return nil
}

func (e *scriptedEngine) Listen(handler func(string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler = handler
}

func (e *scriptedEngine) Done() <-chan struct{} {
	return e.done
}

func (e *scriptedEngine) Close() error {
	e.closeOnce.Do(func() { close(e.done) })
	return nil
}

func (e *scriptedEngine) lines() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.received...)
}

type singleSpawner struct {
	proc *scriptedEngine
}

func (s singleSpawner) Spawn(context.Context) (repository.Process, error) {
	return s.proc, nil
}

func startBridge(t *testing.T, proc *scriptedEngine) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 16)
	server := grpc.NewServer()
	rpc.RegisterEngineBridgeServer(server, NewBridgeUseCase(singleSpawner{proc: proc}, zaptest.NewLogger(t).Sugar()))
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestBridgeForwardsLinesBothWays(t *testing.T) {
	proc := newScriptedEngine()
	conn := startBridge(t, proc)
	log := zaptest.NewLogger(t).Sugar()

	remote, err := engine.NewRemoteEngine(context.Background(), conn, time.Second, log)
	require.NoError(t, err)

	got := make(chan string, 8)
	remote.Listen(func(line string) { got <- line })

	require.NoError(t, remote.Send(context.Background(), "position startpos"))
	require.NoError(t, remote.Send(context.Background(), "go depth 1"))

	assert.Equal(t, "info depth 1 score cp 25 pv e2e4", <-got)
	assert.Equal(t, "bestmove e2e4", <-got)
	assert.Equal(t, []string{"uci", "isready", "position startpos", "go depth 1"}, proc.lines())

	require.NoError(t, remote.Close())
	select {
	case <-proc.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("engine process not closed after client hung up")
	}
}

func TestBridgeStopsOnQuit(t *testing.T) {
	proc := newScriptedEngine()
	conn := startBridge(t, proc)

	remote, err := engine.NewRemoteEngine(context.Background(), conn, time.Second, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	remote.Listen(func(string) {})

	require.NoError(t, remote.Send(context.Background(), "quit"))
	select {
	case <-remote.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("stream still open after engine quit")
	}
	require.NoError(t, remote.Close())
}
