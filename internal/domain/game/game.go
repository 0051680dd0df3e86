package game

// Side is the player to move.
type Side string

const (
	White Side = "white"
	Black Side = "black"
)

func (s Side) Opponent() Side {
	if s == White {
		return Black
	}
	return White
}

// Position is a board snapshot. It is derived by replay and passed by value.
type Position struct {
	FEN        string `json:"fen"`
	SideToMove Side   `json:"side_to_move"`
}

// Status of a position as far as the UI cares.
type Status string

const (
	StatusOngoing   Status = "ongoing"
	StatusCheck     Status = "check"
	StatusCheckmate Status = "checkmate"
	StatusStalemate Status = "stalemate"
	StatusDraw      Status = "draw"
)

// EvaluationView names the position it belongs to, so a client can match it
// against the state it is showing.
// @name Evaluation
type EvaluationView struct {
	Epoch     uint64  `json:"epoch"`
	ViewIndex int     `json:"view_index"`
	FEN       string  `json:"fen"`
	Kind      string  `json:"kind"`
	Pawns     float64 `json:"pawns,omitempty"`
	Mate      int     `json:"mate,omitempty"`
	Text      string  `json:"text"`
	Depth     int     `json:"depth"`
	Final     bool    `json:"final"`
}

// @name GameState
type GameState struct {
	GameID     string          `json:"game_id"`
	FEN        string          `json:"fen"`
	SideToMove Side            `json:"side_to_move"`
	Moves      []Move          `json:"moves"`
	Rows       []MoveRow       `json:"rows"`
	ViewIndex  int             `json:"view_index"`
	Epoch      uint64          `json:"epoch"`
	Live       bool            `json:"live"`
	Status     Status          `json:"status"`
	Evaluation *EvaluationView `json:"evaluation,omitempty"`
	Feedback   string          `json:"feedback,omitempty"`
}

// @name GameCreateResponse
type GameCreateResponse struct {
	GameID string    `json:"game_id"`
	State  GameState `json:"state"`
}

// @name SeekRequest
type SeekRequest struct {
	Index int `json:"index"`
}
