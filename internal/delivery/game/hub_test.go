package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	gameuc "chess_review/internal/usecase/game"
)

func TestWSClientLogsDroppedEvents(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	client := newWSClient(zap.New(core).Sugar())

	for i := 0; i < wsSendBuffer; i++ {
		client.sendJSON(gameuc.Event{Type: gameuc.EventEval})
	}
	assert.Zero(t, logs.Len())

	client.sendJSON(gameuc.Event{Type: gameuc.EventState})
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "websocket send buffer full, event dropped", entry.Message)
	assert.Equal(t, string(gameuc.EventState), entry.ContextMap()["type"])
	assert.Len(t, client.send, wsSendBuffer)
}

func TestWSClientClosesOnEnded(t *testing.T) {
	client := newWSClient(zap.NewNop().Sugar())
	client.sendJSON(gameuc.Event{Type: gameuc.EventEnded})
	client.sendJSON(gameuc.Event{Type: gameuc.EventState})

	_, ok := <-client.send
	assert.True(t, ok)
	_, ok = <-client.send
	assert.False(t, ok)
}
