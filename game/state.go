package game

import "strings"

// Snake is one participant of a simulated game.
type Snake struct {
	Id    string
	Body  []Point
	Alive bool
	// Score counts food eaten.
	Score int
}

// GameState is the full board used by the local simulator. The engine never
// sees it directly: each seat gets a Snapshot built by SnapshotFor.
type GameState struct {
	Size   int
	Snakes []Snake
	Food   []Point
	Round  int
}

// Clone performs a deep copy of the game state.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}

	out := &GameState{
		Size:  s.Size,
		Round: s.Round,
	}

	if len(s.Food) > 0 {
		out.Food = make([]Point, len(s.Food))
		copy(out.Food, s.Food)
	}

	if len(s.Snakes) > 0 {
		out.Snakes = make([]Snake, len(s.Snakes))
		for i := range s.Snakes {
			out.Snakes[i] = Snake{Id: s.Snakes[i].Id, Alive: s.Snakes[i].Alive, Score: s.Snakes[i].Score}
			if len(s.Snakes[i].Body) > 0 {
				out.Snakes[i].Body = make([]Point, len(s.Snakes[i].Body))
				copy(out.Snakes[i].Body, s.Snakes[i].Body)
			}
		}
	}

	return out
}

// Living returns the number of snakes still on the board.
func (s *GameState) Living() int {
	n := 0
	for _, sn := range s.Snakes {
		if sn.Alive {
			n++
		}
	}
	return n
}

// Index returns the position of the snake with the given id, or -1.
func (s *GameState) Index(id string) int {
	for i := range s.Snakes {
		if s.Snakes[i].Id == id {
			return i
		}
	}
	return -1
}

// SnapshotFor builds the round as seen by seat `you`. Opponent slots follow
// order (indices into Snakes, `you` excluded); a nil order keeps board order.
// Dead opponents still occupy a slot with an empty body.
func (s *GameState) SnapshotFor(you int, opponentCount int, order []int) Snapshot {
	snap := Snapshot{
		N:             s.Size,
		OpponentCount: opponentCount,
		Round:         s.Round,
	}
	if you >= 0 && you < len(s.Snakes) && s.Snakes[you].Alive {
		snap.Me = append([]Point(nil), s.Snakes[you].Body...)
	}

	if order == nil {
		order = make([]int, 0, len(s.Snakes))
		for i := range s.Snakes {
			order = append(order, i)
		}
	}
	for _, i := range order {
		if i == you || i < 0 || i >= len(s.Snakes) {
			continue
		}
		var body []Point
		if s.Snakes[i].Alive {
			body = append(body, s.Snakes[i].Body...)
		}
		snap.Opponents = append(snap.Opponents, body)
	}

	if len(s.Food) > 0 {
		snap.Food = append([]Point(nil), s.Food...)
	}
	return snap
}

// Render draws an n×n board top row first. Heads are uppercase letters, bodies
// lowercase, food '*', empty '.'.
func Render(n int, food []Point, bodies ...[]Point) string {
	if n <= 0 || n > 40 {
		return ""
	}
	rows := make([][]byte, n)
	for y := range rows {
		rows[y] = []byte(strings.Repeat(".", n))
	}
	put := func(p Point, c byte) {
		if InBounds(p, n) {
			rows[p.Y-1][p.X-1] = c
		}
	}
	for _, f := range food {
		put(f, '*')
	}
	for i, body := range bodies {
		sym := byte('a' + i%26)
		for j := len(body) - 1; j >= 0; j-- {
			if j == 0 {
				put(body[j], sym-32)
			} else {
				put(body[j], sym)
			}
		}
	}
	var b strings.Builder
	for y := n - 1; y >= 0; y-- {
		b.Write(rows[y])
		b.WriteByte('\n')
	}
	return b.String()
}
