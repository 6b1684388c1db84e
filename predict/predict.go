// Package predict extrapolates opponent heads from their recent trajectory to
// flag food an opponent is likely to reach first.
package predict

import (
	"math"

	"github.com/brensch/greedysnek/game"
)

// ContestRadius is the predicted distance at which food counts as contested.
const ContestRadius = 2

// Unreached is the distance reported for food no prediction covers.
const Unreached = math.MaxInt

// Track is one opponent's trajectory, oldest sample first. The last sample is
// the current head.
type Track []game.Point

// Next predicts the head one step ahead as head + (newest - oldest). Tracks
// shorter than two samples have no prediction.
func (t Track) Next() (game.Point, bool) {
	if len(t) < 2 {
		return game.Point{}, false
	}
	first, last := t[0], t[len(t)-1]
	return game.Point{
		X: last.X + (last.X - first.X),
		Y: last.Y + (last.Y - first.Y),
	}, true
}

// Contest holds per-food results, parallel to the food slice given to Foods.
type Contest struct {
	Contested []bool
	// MinDist is the smallest predicted opponent distance to each food, or
	// Unreached.
	MinDist []int
}

// Foods scores every food against every predictable opponent.
func Foods(food []game.Point, tracks []Track, radius int) Contest {
	c := Contest{
		Contested: make([]bool, len(food)),
		MinDist:   make([]int, len(food)),
	}
	for i := range c.MinDist {
		c.MinDist[i] = Unreached
	}

	for _, tr := range tracks {
		predicted, ok := tr.Next()
		if !ok {
			continue
		}
		for i, f := range food {
			d := game.Manhattan(predicted, f)
			if d < c.MinDist[i] {
				c.MinDist[i] = d
			}
			if d <= radius {
				c.Contested[i] = true
			}
		}
	}
	return c
}
