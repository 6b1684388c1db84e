// Package space measures reachable area on the board.
package space

import "github.com/brensch/greedysnek/game"

// FreeSpace counts the cells reachable from seed through 4-connected moves
// that stay on the board and avoid obstacles. The seed itself is counted.
// A seed that is off the board or already blocked yields 0.
func FreeSpace(seed game.Point, obstacles *game.Grid) int {
	if obstacles == nil || obstacles.Blocked(seed) {
		return 0
	}

	visited := game.NewGrid(obstacles.Size())
	visited.Set(seed)
	stack := []game.Point{seed}
	area := 0

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		area++

		for _, d := range game.Directions {
			next := cur.Add(d)
			if obstacles.Blocked(next) || visited.Blocked(next) {
				continue
			}
			visited.Set(next)
			stack = append(stack, next)
		}
	}
	return area
}
