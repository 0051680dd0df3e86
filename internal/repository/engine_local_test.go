package repository

import (
	"context"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const shellEngine = `while read line; do
  case "$line" in
    uci) echo "id name shell"; echo uciok ;;
    isready) echo readyok ;;
    go*) echo "info depth 1 score cp 10"; echo "bestmove e2e4" ;;
    quit) exit 0 ;;
  esac
done`

func startShellEngine(t *testing.T) *LocalEngine {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	e, err := NewLocalEngine(context.Background(), sh, []string{"-c", shellEngine}, time.Second, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	return e
}

func TestLocalEngineDrainsOutputBeforeExit(t *testing.T) {
	e := startShellEngine(t)

	var mu sync.Mutex
	var lines []string
	e.Listen(func(line string) {
		mu.Lock()
		lines = append(lines, line)
		mu.Unlock()
	})
	require.NoError(t, e.Send(context.Background(), "go depth 1"))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(lines) == 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, e.Send(context.Background(), "quit"))
	require.NoError(t, e.Close())

	select {
	case <-e.Exited():
	case <-time.After(3 * time.Second):
		t.Fatal("engine process was not reaped")
	}
	select {
	case <-e.Done():
	default:
		t.Fatal("process reaped before stdout was drained")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"info depth 1 score cp 10", "bestmove e2e4"}, lines)
}

func TestLocalEngineCloseDoesNotWaitForBusyListener(t *testing.T) {
	e := startShellEngine(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	e.Listen(func(string) {
		once.Do(func() { close(entered) })
		<-release
	})
	require.NoError(t, e.Send(context.Background(), "go depth 1"))
	<-entered

	closed := make(chan error, 1)
	go func() { closed <- e.Close() }()
	select {
	case err := <-closed:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Close blocked on the listener")
	}

	close(release)
	select {
	case <-e.Exited():
	case <-time.After(3 * time.Second):
		t.Fatal("engine process was not reaped")
	}
	select {
	case <-e.Done():
	default:
		t.Fatal("process reaped before stdout was drained")
	}
}
