package store

import (
	"time"

	"github.com/brensch/greedysnek/engine"
	"github.com/brensch/greedysnek/game"
)

// DecisionRow is one engine decision as served to a host.
//
// Move and Direction use the engine codes: 0=Up, 1=Left, 2=Down, 3=Right.
type DecisionRow struct {
	SessionID     string `parquet:"session_id,dict"`
	Round         int32  `parquet:"round"`
	N             int32  `parquet:"n"`
	OpponentCount int32  `parquet:"opponent_count"`
	Mode          int32  `parquet:"mode"`
	Dead          bool   `parquet:"dead"`
	Move          int32  `parquet:"move"`

	BodyX []int32 `parquet:"body_x"`
	BodyY []int32 `parquet:"body_y"`
	FoodX []int32 `parquet:"food_x"`
	FoodY []int32 `parquet:"food_y"`

	OwnScore   float32          `parquet:"own_score"`
	Directions []DirectionScore `parquet:"directions"`
	Opponents  []OpponentRow    `parquet:"opponents"`

	LatencyUs  int64 `parquet:"latency_us"`
	RecordedNs int64 `parquet:"recorded_ns"`
}

type DirectionScore struct {
	Direction  int32   `parquet:"direction"`
	Rejected   string  `parquet:"rejected,dict"`
	Food       float32 `parquet:"food"`
	Survival   float32 `parquet:"survival"`
	Aggression float32 `parquet:"aggression"`
	Total      float32 `parquet:"total"`
	Area       int32   `parquet:"area"`
}

type OpponentRow struct {
	Slot  int32   `parquet:"slot"`
	ID    int32   `parquet:"id"`
	HeadX int32   `parquet:"head_x"`
	HeadY int32   `parquet:"head_y"`
	Score float32 `parquet:"score"`
}

// NewDecisionRow flattens a decision and the snapshot it was made from.
func NewDecisionRow(sessionID string, snap game.Snapshot, d engine.Decision, latency time.Duration) DecisionRow {
	row := DecisionRow{
		SessionID:     sessionID,
		Round:         int32(snap.Round),
		N:             int32(snap.N),
		OpponentCount: int32(snap.OpponentCount),
		Mode:          int32(d.Mode),
		Dead:          d.Dead,
		Move:          int32(d.Move),
		OwnScore:      float32(d.OwnScore),
		LatencyUs:     latency.Microseconds(),
		RecordedNs:    time.Now().UnixNano(),
	}
	row.BodyX, row.BodyY = splitXY(snap.Me)
	row.FoodX, row.FoodY = splitXY(snap.Food)

	if !d.Dead {
		row.Directions = make([]DirectionScore, 0, len(d.Evaluations))
		for _, ev := range d.Evaluations {
			row.Directions = append(row.Directions, DirectionScore{
				Direction:  int32(ev.Direction),
				Rejected:   string(ev.Rejected),
				Food:       float32(ev.Food),
				Survival:   float32(ev.Survival),
				Aggression: float32(ev.Aggression),
				Total:      float32(ev.Total),
				Area:       int32(ev.Area),
			})
		}
	}
	for _, o := range d.Opponents {
		row.Opponents = append(row.Opponents, OpponentRow{
			Slot:  int32(o.Slot),
			ID:    int32(o.ID),
			HeadX: int32(o.Head.X),
			HeadY: int32(o.Head.Y),
			Score: float32(o.Score),
		})
	}
	return row
}

// GameResultRow is one seat of one finished simulated game.
type GameResultRow struct {
	GameID    string `parquet:"game_id,dict"`
	Seed      int64  `parquet:"seed"`
	BoardSize int32  `parquet:"board_size"`
	Snakes    int32  `parquet:"snakes"`
	Rounds    int32  `parquet:"rounds"`

	Seat   int32   `parquet:"seat"`
	Bot    string  `parquet:"bot,dict"`
	Score  int32   `parquet:"score"`
	Alive  bool    `parquet:"alive"`
	TimeMs float64 `parquet:"time_ms"`
	Rank   int32   `parquet:"rank"`
	Winner bool    `parquet:"winner"`
}

// TurnRow is a full board at one round of a simulated game, for replay.
type TurnRow struct {
	GameID string      `parquet:"game_id,dict"`
	Round  int32       `parquet:"round"`
	N      int32       `parquet:"n"`
	FoodX  []int32     `parquet:"food_x"`
	FoodY  []int32     `parquet:"food_y"`
	Snakes []TurnSnake `parquet:"snakes"`
}

type TurnSnake struct {
	Seat  int32   `parquet:"seat"`
	Alive bool    `parquet:"alive"`
	Score int32   `parquet:"score"`
	BodyX []int32 `parquet:"body_x"`
	BodyY []int32 `parquet:"body_y"`
	// Move is the move submitted this round, -1 when dead.
	Move int32 `parquet:"move"`
}

// NewTurnRow captures state together with the moves about to be applied.
func NewTurnRow(gameID string, state *game.GameState, moves map[string]game.Direction) TurnRow {
	row := TurnRow{
		GameID: gameID,
		Round:  int32(state.Round),
		N:      int32(state.Size),
	}
	row.FoodX, row.FoodY = splitXY(state.Food)
	for i, s := range state.Snakes {
		ts := TurnSnake{Seat: int32(i), Alive: s.Alive, Score: int32(s.Score), Move: -1}
		ts.BodyX, ts.BodyY = splitXY(s.Body)
		if m, ok := moves[s.Id]; ok && s.Alive {
			ts.Move = int32(m)
		}
		row.Snakes = append(row.Snakes, ts)
	}
	return row
}

func splitXY(pts []game.Point) ([]int32, []int32) {
	xs := make([]int32, len(pts))
	ys := make([]int32, len(pts))
	for i, p := range pts {
		xs[i] = int32(p.X)
		ys[i] = int32(p.Y)
	}
	return xs, ys
}
