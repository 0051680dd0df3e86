package analysis

import "time"

// CachedEval is a finished search stored by position. Scores stay in the
// side-to-move perspective of FEN.
type CachedEval struct {
	FEN       string    `json:"fen" bson:"fen"`
	Score     Score     `json:"score" bson:"score"`
	Depth     int       `json:"depth" bson:"depth"`
	PV        []string  `json:"pv,omitempty" bson:"pv,omitempty"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func CachedFromUpdate(u Update) CachedEval {
	return CachedEval{
		FEN:       u.Position.FEN,
		Score:     u.Score,
		Depth:     u.Depth,
		PV:        u.PV,
		UpdatedAt: time.Now().UTC(),
	}
}
