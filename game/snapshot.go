package game

import (
	"errors"
	"fmt"
)

// SlotCoords is the number of coordinates held by one fixed-width snake block.
const SlotCoords = 4

// Sentinel fills unused coordinate slots on the wire.
const Sentinel = -1

// MaxBoardSize is the largest board edge accepted from a host.
const MaxBoardSize = 64

var (
	ErrBoardSize = errors.New("board size out of range")
	ErrOddCoords = errors.New("coordinate list has odd length")
	ErrSlotWidth = errors.New("opponent block is not a whole slot")
)

// Wire is the flat integer encoding of one round, as sent by the game host.
//
// my_snake holds up to SlotCoords (x,y) pairs, head first; the first pair with
// a component below 1 ends the body. other_snakes is a concatenation of
// 2*SlotCoords-int blocks using the same convention. foods is a list of pairs
// without a sentinel; pairs with a component below 1 are skipped.
type Wire struct {
	N           int   `json:"n"`
	MySnake     []int `json:"my_snake"`
	SnakeNum    int   `json:"snake_num"`
	OtherSnakes []int `json:"other_snakes"`
	FoodNum     int   `json:"food_num"`
	Foods       []int `json:"foods"`
	Round       int   `json:"round"`
}

// Snapshot is the parsed view of a Wire round.
type Snapshot struct {
	N int
	// Me is the controlled snake, head first. Empty means dead.
	Me []Point
	// OpponentCount is the host's snake_num: the mode indicator.
	OpponentCount int
	// Opponents is indexed by transient slot; an empty body is an absent snake.
	Opponents [][]Point
	Food      []Point
	Round     int
}

// Validate reports structural problems that Parse would silently tolerate.
func (w Wire) Validate() error {
	if w.N <= 0 || w.N > MaxBoardSize {
		return fmt.Errorf("%w: n=%d max=%d", ErrBoardSize, w.N, MaxBoardSize)
	}
	if len(w.MySnake)%2 != 0 {
		return fmt.Errorf("my_snake: %w", ErrOddCoords)
	}
	if len(w.Foods)%2 != 0 {
		return fmt.Errorf("foods: %w", ErrOddCoords)
	}
	if len(w.OtherSnakes)%(2*SlotCoords) != 0 {
		return fmt.Errorf("other_snakes len=%d: %w", len(w.OtherSnakes), ErrSlotWidth)
	}
	return nil
}

// Parse decodes the wire arrays. Trailing partial pairs or blocks are ignored.
func (w Wire) Parse() Snapshot {
	s := Snapshot{
		N:             w.N,
		Me:            parseBody(w.MySnake),
		OpponentCount: w.SnakeNum,
		Round:         w.Round,
	}

	slots := len(w.OtherSnakes) / (2 * SlotCoords)
	s.Opponents = make([][]Point, slots)
	for i := 0; i < slots; i++ {
		start := i * 2 * SlotCoords
		s.Opponents[i] = parseBody(w.OtherSnakes[start : start+2*SlotCoords])
	}

	for i := 0; i+1 < len(w.Foods); i += 2 {
		p := Point{X: w.Foods[i], Y: w.Foods[i+1]}
		if p.Valid() {
			s.Food = append(s.Food, p)
		}
	}
	return s
}

func parseBody(raw []int) []Point {
	body := make([]Point, 0, SlotCoords)
	for i := 0; i < SlotCoords && 2*i+1 < len(raw); i++ {
		p := Point{X: raw[2*i], Y: raw[2*i+1]}
		if !p.Valid() {
			break
		}
		body = append(body, p)
	}
	return body
}

// Wire encodes the snapshot back into the host's flat format. Bodies longer
// than SlotCoords are truncated.
func (s Snapshot) Wire() Wire {
	w := Wire{
		N:           s.N,
		MySnake:     encodeBody(s.Me),
		SnakeNum:    s.OpponentCount,
		OtherSnakes: make([]int, 0, len(s.Opponents)*2*SlotCoords),
		FoodNum:     len(s.Food),
		Foods:       make([]int, 0, 2*len(s.Food)),
		Round:       s.Round,
	}
	for _, body := range s.Opponents {
		w.OtherSnakes = append(w.OtherSnakes, encodeBody(body)...)
	}
	for _, f := range s.Food {
		w.Foods = append(w.Foods, f.X, f.Y)
	}
	return w
}

func encodeBody(body []Point) []int {
	out := make([]int, 2*SlotCoords)
	for i := 0; i < SlotCoords; i++ {
		if i < len(body) {
			out[2*i] = body[i].X
			out[2*i+1] = body[i].Y
			continue
		}
		out[2*i] = Sentinel
		out[2*i+1] = Sentinel
	}
	return out
}

// Alive returns the opponents present this round, in slot order.
func (s Snapshot) Alive() [][]Point {
	out := make([][]Point, 0, len(s.Opponents))
	for _, b := range s.Opponents {
		if len(b) > 0 {
			out = append(out, b)
		}
	}
	return out
}
