package repository

import (
	"bufio"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	apperrors "chess_review/internal/errors"
)

// fakeEngineIO wires a pipeConn to an in-memory engine: stdin is read by the
// test through engineIn, stdout is written by the test through engineOut.
func fakeEngineIO(t *testing.T) (*pipeConn, *bufio.Scanner, *io.PipeWriter) {
	t.Helper()
	stdinR, stdinW := io.Pipe()
	stdoutR, stdoutW := io.Pipe()
	t.Cleanup(func() {
		_ = stdinR.Close()
		_ = stdoutW.Close()
	})
	conn := newPipeConn(stdoutR, stdinW, zaptest.NewLogger(t).Sugar())
	return conn, bufio.NewScanner(stdinR), stdoutW
}

func respond(t *testing.T, in *bufio.Scanner, out io.Writer, replies map[string][]string) {
	t.Helper()
	go func() {
		for in.Scan() {
			for _, reply := range replies[in.Text()] {
				if _, err := io.WriteString(out, reply+"\n"); err != nil {
					return
				}
			}
		}
	}()
}

func TestHandshakeSucceeds(t *testing.T) {
	conn, in, out := fakeEngineIO(t)
	respond(t, in, out, map[string][]string{
		"uci":     {"id name Fake", "option name Hash type spin", "uciok"},
		"isready": {"readyok"},
	})

	require.NoError(t, conn.handshake(context.Background(), time.Second))
}

func TestHandshakeTimesOut(t *testing.T) {
	conn, in, out := fakeEngineIO(t)
	respond(t, in, out, map[string][]string{"uci": {"id name Mute"}})

	err := conn.handshake(context.Background(), 50*time.Millisecond)
	assert.ErrorIs(t, err, apperrors.ErrEngineHandshake)
}

func TestHandshakeEngineExits(t *testing.T) {
	conn, in, out := fakeEngineIO(t)
	go func() {
		in.Scan()
		_ = out.Close()
	}()

	err := conn.handshake(context.Background(), time.Second)
	assert.ErrorIs(t, err, apperrors.ErrEngineHandshake)
	assert.ErrorContains(t, err, "uciok")
}

func TestPipeConnListenAndClose(t *testing.T) {
	conn, in, out := fakeEngineIO(t)
	respond(t, in, out, map[string][]string{
		"go depth 2": {"info depth 1 score cp 12", "info depth 2 score cp 15", "bestmove e2e4"},
	})

	got := make(chan string, 4)
	conn.Listen(func(line string) { got <- line })
	require.NoError(t, conn.Send(context.Background(), "go depth 2"))

	assert.Equal(t, "info depth 1 score cp 12", <-got)
	assert.Equal(t, "info depth 2 score cp 15", <-got)
	assert.Equal(t, "bestmove e2e4", <-got)

	require.NoError(t, conn.Close())
	assert.ErrorIs(t, conn.Send(context.Background(), "isready"), apperrors.ErrEngineClosed)

	_ = out.Close()
	select {
	case <-conn.done:
	case <-time.After(time.Second):
		t.Fatal("listener did not stop after engine output closed")
	}
}
