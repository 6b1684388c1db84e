package engine

import (
	"math"

	"github.com/brensch/greedysnek/game"
	"github.com/brensch/greedysnek/predict"
	"github.com/brensch/greedysnek/space"
)

// opponent is one live opponent as seen by the scorers.
type opponent struct {
	id    int
	body  []game.Point
	score float64
}

func (o opponent) head() game.Point { return o.body[0] }

// foodScore rewards eating outright, otherwise pulls towards the nearest food
// and penalises food an opponent is predicted to reach first.
func foodScore(cfg FoodConfig, center [2]float64, cand game.Point, food []game.Point, contest predict.Contest, eat bool) float64 {
	if eat {
		return cfg.Eat
	}
	if len(food) == 0 {
		return 0
	}

	score := 0.0
	minDist := math.MaxInt
	for i, f := range food {
		dist := game.Manhattan(cand, f)
		if dist < minDist {
			minDist = dist
		}

		bonus := 0.0
		centerDist := math.Abs(float64(f.X)-center[0]) + math.Abs(float64(f.Y)-center[1])
		if centerDist < cfg.CenterRadius {
			bonus = cfg.CenterBonus
		}

		switch {
		case i < len(contest.Contested) && contest.Contested[i]:
			score += -cfg.ContestedFactor*float64(dist) + bonus
		case i < len(contest.MinDist) && contest.MinDist[i] < dist:
			score += -float64(dist) + bonus
		}
	}
	return score - float64(minDist)
}

// survivalScore measures the space left around cand once the move is made.
// The obstacle set is every opponent body plus the simulated new body behind
// its head; the head is where the fill starts.
func survivalScore(cfg SurvivalConfig, n int, cand game.Point, newBody []game.Point, opponents []opponent) (float64, int) {
	obstacles := game.NewGrid(n)
	for _, o := range opponents {
		obstacles.SetAll(o.body)
	}
	if len(newBody) > 1 {
		obstacles.SetAll(newBody[1:])
	}

	area := space.FreeSpace(cand, obstacles)
	if area < len(newBody) {
		return cfg.Trapped, area
	}
	return cfg.Scale * math.Sqrt(float64(area)), area
}

// aggressionScore adds the trade and trap opportunities against every
// opponent within range of cand.
func aggressionScore(cfg AggressionConfig, cand game.Point, ownScore float64, opponents []opponent, danger *game.Grid, fourWay bool) float64 {
	score := 0.0

	tradeBonus := cfg.TradeBonusDefault
	if fourWay {
		tradeBonus = cfg.TradeBonusFour
	}
	for _, o := range opponents {
		if ownScore <= o.score {
			continue
		}
		if game.Manhattan(cand, o.head()) <= cfg.TradeRange && !danger.Blocked(cand) {
			score += tradeBonus
		}
	}

	for _, o := range opponents {
		dist := game.Manhattan(cand, o.head())
		if dist > cfg.TrapRange {
			continue
		}
		obstacles := danger.Clone()
		obstacles.Set(cand)
		if cfg.TrapSeedExempt {
			obstacles.Clear(o.head())
		}
		area := space.FreeSpace(o.head(), obstacles)
		if area >= cfg.TrapThreshold {
			continue
		}
		// A zero distance would mean sharing a cell with the opponent's head,
		// which the legality check already rules out; floor it anyway.
		div := dist
		if div < cfg.MinTrapDistance {
			div = cfg.MinTrapDistance
		}
		score += float64(cfg.TrapThreshold-area) / float64(div)
	}
	return score
}
