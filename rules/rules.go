// Package rules holds board rules shared by the engine and the simulator:
// occupancy maps, move legality and body advancement.
package rules

import (
	"github.com/brensch/greedysnek/game"
)

// Rejection explains why a candidate move was excluded. The zero value means
// the move is allowed.
type Rejection string

const (
	Allowed  Rejection = ""
	Wall     Rejection = "wall"
	Occupied Rejection = "occupied"
)

// DangerMap marks every segment of every snake, heads included, as unsafe.
// Tails are not special-cased here; CheckMove handles the own-tail exception.
func DangerMap(n int, me []game.Point, opponents [][]game.Point) *game.Grid {
	danger := game.NewGrid(n)
	for _, body := range opponents {
		danger.SetAll(body)
	}
	danger.SetAll(me)
	return danger
}

// CheckMove decides whether the controlled snake may step onto candidate.
//
// An unsafe cell is still allowed when it is our own tail, no food sits on it
// and the body is longer than one segment: the tail moves away on a
// non-growing move.
func CheckMove(n int, danger *game.Grid, candidate game.Point, me []game.Point, food []game.Point) Rejection {
	if !game.InBounds(candidate, n) {
		return Wall
	}
	if !danger.Blocked(candidate) {
		return Allowed
	}
	if len(me) > 1 && candidate == me[len(me)-1] && !game.Contains(food, candidate) {
		return Allowed
	}
	return Occupied
}

// Advance returns the body after moving its head onto head. Landing on food
// keeps every segment (growth); otherwise the tail segment is dropped.
func Advance(body []game.Point, head game.Point, food []game.Point) []game.Point {
	out := make([]game.Point, 0, len(body)+1)
	out = append(out, head)
	out = append(out, body...)
	if !game.Contains(food, head) && len(out) > 1 {
		out = out[:len(out)-1]
	}
	return out
}

// LegalMoves returns the directions CheckMove accepts for the snapshot's
// controlled snake, in evaluation order.
func LegalMoves(snap game.Snapshot) []game.Direction {
	if len(snap.Me) == 0 {
		return []game.Direction{}
	}
	danger := DangerMap(snap.N, snap.Me, snap.Opponents)
	head := snap.Me[0]
	moves := []game.Direction{}
	for _, d := range game.Directions {
		if CheckMove(snap.N, danger, head.Add(d), snap.Me, snap.Food) == Allowed {
			moves = append(moves, d)
		}
	}
	return moves
}
