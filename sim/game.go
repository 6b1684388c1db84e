// Package sim plays local games between bots on the host's rules: an n×n
// board, fixed-length snakes, a fixed amount of food and a round limit.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brensch/greedysnek/game"
	"github.com/brensch/greedysnek/logging"
	"github.com/brensch/greedysnek/rules"
	"github.com/brensch/greedysnek/store"
)

type Settings struct {
	BoardSize   int
	Snakes      int
	SnakeLength int
	Food        int
	MaxRounds   int
	// Shuffle reorders every seat's opponent slots each round.
	Shuffle bool
	// RecordTurns keeps a TurnRow per round in the result.
	RecordTurns bool
}

func (s Settings) Validate() error {
	if s.Snakes != 2 && s.Snakes != 4 {
		return fmt.Errorf("snakes=%d must be 2 or 4", s.Snakes)
	}
	if s.SnakeLength < 1 {
		return fmt.Errorf("snake length %d", s.SnakeLength)
	}
	if s.BoardSize < s.SnakeLength+1 {
		return fmt.Errorf("board %d too small for snakes of length %d", s.BoardSize, s.SnakeLength)
	}
	if s.BoardSize > game.MaxBoardSize {
		return fmt.Errorf("board %d: %w", s.BoardSize, game.ErrBoardSize)
	}
	if s.MaxRounds < 1 {
		return fmt.Errorf("max rounds %d", s.MaxRounds)
	}
	return nil
}

// Spawn lays snakes along the board edges, one per corner, head first.
func Spawn(n, length, seats int) [][]game.Point {
	bodies := make([][]game.Point, seats)
	for seat := 0; seat < seats; seat++ {
		body := make([]game.Point, length)
		for i := 0; i < length; i++ {
			// i counts from the head; k from the corner.
			k := length - i
			switch seat {
			case 0:
				body[i] = game.Point{X: 1, Y: k}
			case 1:
				body[i] = game.Point{X: n, Y: n - k + 1}
			case 2:
				body[i] = game.Point{X: k, Y: n}
			case 3:
				body[i] = game.Point{X: n - k + 1, Y: 1}
			}
		}
		bodies[seat] = body
	}
	return bodies
}

// NewState builds round 0 with food placed from rng.
func NewState(s Settings, rng *rand.Rand) *game.GameState {
	state := &game.GameState{Size: s.BoardSize}
	for i, body := range Spawn(s.BoardSize, s.SnakeLength, s.Snakes) {
		state.Snakes = append(state.Snakes, game.Snake{
			Id:    "seat" + strconv.Itoa(i),
			Body:  body,
			Alive: true,
		})
	}
	rules.ApplyFoodSettings(state, rng, rules.FoodSettings{MinimumFood: s.Food})
	return state
}

type SeatResult struct {
	Bot    string
	Score  int
	Alive  bool
	Time   time.Duration
	Errors int
	Rank   int
}

type Result struct {
	GameID string
	Seed   int64
	Rounds int
	Seats  []SeatResult
	Turns  []store.TurnRow
}

// Winner is the seat ranked first.
func (r Result) Winner() int {
	for i, s := range r.Seats {
		if s.Rank == 1 {
			return i
		}
	}
	return -1
}

// Rows flattens the result for storage.
func (r Result) Rows(s Settings) []store.GameResultRow {
	rows := make([]store.GameResultRow, len(r.Seats))
	for i, seat := range r.Seats {
		rows[i] = store.GameResultRow{
			GameID:    r.GameID,
			Seed:      r.Seed,
			BoardSize: int32(s.BoardSize),
			Snakes:    int32(s.Snakes),
			Rounds:    int32(r.Rounds),
			Seat:      int32(i),
			Bot:       seat.Bot,
			Score:     int32(seat.Score),
			Alive:     seat.Alive,
			TimeMs:    float64(seat.Time.Microseconds()) / 1000,
			Rank:      int32(seat.Rank),
			Winner:    seat.Rank == 1,
		}
	}
	return rows
}

// rank orders seats by score, highest first, then by time spent deciding,
// lowest first, and writes 1-based ranks.
func rank(seats []SeatResult) {
	order := make([]int, len(seats))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		sa, sb := seats[order[a]], seats[order[b]]
		if sa.Score != sb.Score {
			return sa.Score > sb.Score
		}
		return sa.Time < sb.Time
	})
	for r, i := range order {
		seats[i].Rank = r + 1
	}
}

// opponentOrder lists every seat except you, shuffled when rng is non-nil.
func opponentOrder(seats, you int, rng *rand.Rand) []int {
	order := make([]int, 0, seats-1)
	for i := 0; i < seats; i++ {
		if i != you {
			order = append(order, i)
		}
	}
	if rng != nil {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	return order
}

// Play runs one game to completion. bots are indexed by seat. onRound, if set,
// sees the state after every round.
func Play(ctx context.Context, s Settings, seed int64, bots []Bot, log *slog.Logger, onRound func(*game.GameState)) (Result, error) {
	if err := s.Validate(); err != nil {
		return Result{}, err
	}
	if len(bots) != s.Snakes {
		return Result{}, fmt.Errorf("%d bots for %d seats", len(bots), s.Snakes)
	}
	if log == nil {
		log = logging.Discard()
	}

	rng := rand.New(rand.NewSource(seed))
	var shuffle *rand.Rand
	if s.Shuffle {
		shuffle = rand.New(rand.NewSource(seed ^ 0x5eed))
	}
	step := rules.StepSettings{
		MaxLength: s.SnakeLength,
		Food:      rules.FoodSettings{MinimumFood: s.Food},
	}

	res := Result{
		GameID: uuid.NewString(),
		Seed:   seed,
		Seats:  make([]SeatResult, s.Snakes),
	}
	for i, b := range bots {
		res.Seats[i].Bot = b.Name()
	}
	log = log.With("game_id", res.GameID, "seed", seed)

	state := NewState(s, rng)
	for !rules.IsGameOver(state, s.MaxRounds) {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		moves := make(map[string]game.Direction, len(state.Snakes))
		var mu sync.Mutex
		var wg sync.WaitGroup
		for seat := range state.Snakes {
			if !state.Snakes[seat].Alive {
				continue
			}
			snap := state.SnapshotFor(seat, s.Snakes-1, opponentOrder(s.Snakes, seat, shuffle))

			wg.Add(1)
			go func(seat int, snap game.Snapshot) {
				defer wg.Done()
				start := time.Now()
				move, err := bots[seat].Move(ctx, snap)
				took := time.Since(start)

				mu.Lock()
				defer mu.Unlock()
				res.Seats[seat].Time += took
				if err != nil {
					res.Seats[seat].Errors++
					log.Warn("bot move failed", "seat", seat, "round", state.Round, "err", err)
					move = game.Up
				}
				moves[state.Snakes[seat].Id] = move
			}(seat, snap)
		}
		wg.Wait()

		if s.RecordTurns {
			res.Turns = append(res.Turns, store.NewTurnRow(res.GameID, state, moves))
		}
		state = rules.NextRound(state, moves, rng, step)
		if onRound != nil {
			onRound(state)
		}
	}

	res.Rounds = state.Round
	for i, sn := range state.Snakes {
		res.Seats[i].Score = sn.Score
		res.Seats[i].Alive = sn.Alive
	}
	rank(res.Seats)
	log.Debug("game finished", "rounds", res.Rounds, "winner", res.Winner())
	return res, nil
}
