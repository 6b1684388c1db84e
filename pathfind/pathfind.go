// Package pathfind is a breadth-first shortest path search for single-target
// snakes. It knows nothing about opponents beyond a static barrier list.
package pathfind

import (
	"github.com/brensch/greedysnek/game"
)

// BoardSize is the board the greedy helpers assume.
const BoardSize = 8

// Unreachable is returned by GreedyMoveBarriers when no path exists.
const Unreachable = -1

// Obstacles builds the static obstacle grid for body: every segment except the
// head and the tail, plus barriers. Off-board barriers are ignored.
func Obstacles(n int, body []game.Point, barriers []game.Point) *game.Grid {
	g := game.NewGrid(n)
	if len(body) > 2 {
		g.SetAll(body[1 : len(body)-1])
	}
	g.SetAll(barriers)
	return g
}

type node struct {
	p      game.Point
	parent int
	// first is the direction taken out of the start cell.
	first game.Direction
	depth int
}

// search expands from start in Up, Left, Down, Right order and returns the
// node that reached goal, or false.
func search(n int, start, goal game.Point, obstacles *game.Grid) (node, bool) {
	if !game.InBounds(start, n) {
		return node{}, false
	}
	visited := game.NewGrid(n)
	visited.Set(start)
	queue := []node{{p: start, parent: -1, first: game.Up}}
	for i := 0; i < len(queue); i++ {
		cur := queue[i]
		if cur.p == goal {
			return cur, true
		}
		for _, d := range game.Directions {
			next := cur.p.Add(d)
			if !game.InBounds(next, n) || obstacles.Blocked(next) || visited.Blocked(next) {
				continue
			}
			visited.Set(next)
			first := cur.first
			if cur.parent < 0 {
				first = d
			}
			queue = append(queue, node{p: next, parent: i, first: first, depth: cur.depth + 1})
		}
	}
	return node{}, false
}

// NextStep returns the first move of a shortest path from start to goal.
// A goal equal to start yields Up.
func NextStep(n int, start, goal game.Point, obstacles *game.Grid) (game.Direction, bool) {
	end, ok := search(n, start, goal, obstacles)
	if !ok {
		return game.Up, false
	}
	return end.first, true
}

// Distance is the length of a shortest path, or -1 when goal is unreachable.
func Distance(n int, start, goal game.Point, obstacles *game.Grid) int {
	end, ok := search(n, start, goal, obstacles)
	if !ok {
		return -1
	}
	return end.depth
}

// GreedyMove heads for food on the default board using body as the only
// obstacle. When food cannot be reached it falls back to the first in-bounds
// direction that is not an obstacle, then to Up.
func GreedyMove(body []game.Point, food game.Point) game.Direction {
	if len(body) == 0 {
		return game.Up
	}
	obstacles := Obstacles(BoardSize, body, nil)
	if d, ok := NextStep(BoardSize, body[0], food, obstacles); ok {
		return d
	}
	return FirstOpen(BoardSize, body[0], obstacles)
}

// GreedyMoveBarriers is GreedyMove with extra static barriers. It returns
// Unreachable instead of falling back.
func GreedyMoveBarriers(body []game.Point, food game.Point, barriers []game.Point) int {
	if len(body) == 0 {
		return Unreachable
	}
	obstacles := Obstacles(BoardSize, body, barriers)
	d, ok := NextStep(BoardSize, body[0], food, obstacles)
	if !ok {
		return Unreachable
	}
	return int(d)
}

// FirstOpen returns the first direction from head that stays on the board and
// avoids obstacles, or Up.
func FirstOpen(n int, head game.Point, obstacles *game.Grid) game.Direction {
	for _, d := range game.Directions {
		next := head.Add(d)
		if game.InBounds(next, n) && !obstacles.Blocked(next) {
			return d
		}
	}
	return game.Up
}
