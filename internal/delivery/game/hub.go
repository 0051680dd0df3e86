package game

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	gameuc "chess_review/internal/usecase/game"
)

const (
	wsIdlePingInterval = 30 * time.Second
	wsSendBuffer       = 32
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsClient is one websocket subscriber. Events that do not fit in the send
// buffer are dropped and logged; the next state message carries everything anyway.
type wsClient struct {
	mu      sync.Mutex
	send    chan []byte
	closed  bool
	dropped int
	log     *zap.SugaredLogger
}

func newWSClient(log *zap.SugaredLogger) *wsClient {
	return &wsClient{send: make(chan []byte, wsSendBuffer), log: log}
}

func (c *wsClient) sendJSON(e gameuc.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.dropped++
		c.log.Warnw("websocket send buffer full, event dropped", "type", e.Type, "dropped", c.dropped)
	}
	if e.Type == gameuc.EventEnded {
		c.closeLocked()
	}
}

func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *wsClient) closeLocked() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (g *GameHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	state, err := g.gameUC.State(id)
	if err != nil {
		g.writeError(w, state, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warnw("websocket upgrade failed", "game_id", id, "error", err)
		return
	}
	defer conn.Close()

	client := newWSClient(g.log.With("game_id", id))
	unsubscribe, err := g.gameUC.Subscribe(id, client.sendJSON)
	if err != nil {
		return
	}
	defer unsubscribe()
	if current, err := g.gameUC.State(id); err == nil {
		state = current
	}
	client.sendJSON(gameuc.Event{Type: gameuc.EventState, Payload: state})

	go func() {
		// The client never sends anything useful; reading only detects hangups.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				client.close()
				return
			}
		}
	}()

	if err := writeWSWithHeartbeat(conn, client.send); err != nil {
		g.log.Debugw("websocket closed", "game_id", id, "error", err)
	}
}

func writeWSWithHeartbeat(conn *websocket.Conn, send <-chan []byte) error {
	ticker := time.NewTicker(wsIdlePingInterval)
	defer ticker.Stop()
	lastWrite := time.Now()
	pingPayload, _ := json.Marshal(gameuc.Event{Type: "ping"})

	for {
		select {
		case msg, ok := <-send:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return nil
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
			lastWrite = time.Now()
		case <-ticker.C:
			if time.Since(lastWrite) < wsIdlePingInterval {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, pingPayload); err != nil {
				return err
			}
			lastWrite = time.Now()
		}
	}
}
