// Package game defines the board model shared by the decision engine, the
// simulator and the transports.
//
// Coordinates are 1-indexed: a board of size n spans [1,n] on both axes, with
// y growing upwards.
package game

// Point is a board coordinate.
type Point struct {
	X int
	Y int
}

// Add returns p shifted by the offset of d.
func (p Point) Add(d Direction) Point {
	o := d.Offset()
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

// Valid reports whether both components clear the sentinel range.
func (p Point) Valid() bool {
	return p.X >= 1 && p.Y >= 1
}

// InBounds reports whether p lies on an n×n board.
func InBounds(p Point, n int) bool {
	return p.X >= 1 && p.X <= n && p.Y >= 1 && p.Y <= n
}

// Manhattan returns |a.X-b.X| + |a.Y-b.Y|.
func Manhattan(a, b Point) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// Contains reports whether p is one of pts.
func Contains(pts []Point, p Point) bool {
	for _, q := range pts {
		if q == p {
			return true
		}
	}
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Direction is a move code as it appears on the wire.
type Direction int

const (
	Up    Direction = 0
	Left  Direction = 1
	Down  Direction = 2
	Right Direction = 3
)

// Directions lists the moves in evaluation order.
var Directions = [4]Direction{Up, Left, Down, Right}

var offsets = [4]Point{
	Up:    {X: 0, Y: 1},
	Left:  {X: -1, Y: 0},
	Down:  {X: 0, Y: -1},
	Right: {X: 1, Y: 0},
}

// Offset returns the unit step for d. Unknown codes map to a zero step.
func (d Direction) Offset() Point {
	if d < Up || d > Right {
		return Point{}
	}
	return offsets[d]
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Left:
		return "left"
	case Down:
		return "down"
	case Right:
		return "right"
	default:
		return "up"
	}
}

// ParseDirection accepts the lowercase names produced by String.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "up":
		return Up, true
	case "left":
		return Left, true
	case "down":
		return Down, true
	case "right":
		return Right, true
	}
	return Up, false
}
