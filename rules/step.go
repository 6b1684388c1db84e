package rules

import (
	"math/rand"

	"github.com/brensch/greedysnek/game"
)

// StepSettings controls the simulated game's transition.
type StepSettings struct {
	// MaxLength caps growth; eating at the cap scores without growing.
	MaxLength int
	Food      FoodSettings
}

// DefaultStepSettings matches the host game: four-segment snakes.
var DefaultStepSettings = StepSettings{MaxLength: game.SlotCoords, Food: DefaultFoodSettings}

// NextRound advances the game state with moves for all living snakes.
// A living snake without a move dies. rng may be nil for deterministic food.
func NextRound(state *game.GameState, moves map[string]game.Direction, rng *rand.Rand, settings StepSettings) *game.GameState {
	newState := state.Clone()
	newState.Round++

	// 1. Calculate new heads
	newHeads := make(map[string]game.Point)
	for i := range newState.Snakes {
		s := &newState.Snakes[i]
		if !s.Alive || len(s.Body) == 0 {
			continue
		}
		move, ok := moves[s.Id]
		if !ok {
			continue
		}
		newHeads[s.Id] = s.Body[0].Add(move)
	}

	// 2. Resolve food
	eatenFood := make(map[int]bool)
	snakeAte := make(map[string]bool)
	for id, head := range newHeads {
		for i, f := range newState.Food {
			if f == head {
				eatenFood[i] = true
				snakeAte[id] = true
			}
		}
	}
	remainingFood := make([]game.Point, 0, len(newState.Food))
	for i, f := range newState.Food {
		if !eatenFood[i] {
			remainingFood = append(remainingFood, f)
		}
	}
	newState.Food = remainingFood

	// 3. Move bodies
	dead := make(map[string]bool)
	for i := range newState.Snakes {
		s := &newState.Snakes[i]
		if !s.Alive {
			continue
		}
		head, ok := newHeads[s.Id]
		if !ok {
			dead[s.Id] = true
			continue
		}
		body := make([]game.Point, 0, len(s.Body)+1)
		body = append(body, head)
		body = append(body, s.Body...)
		grow := snakeAte[s.Id] && (settings.MaxLength <= 0 || len(s.Body) < settings.MaxLength)
		if !grow {
			body = body[:len(body)-1]
		}
		if snakeAte[s.Id] {
			s.Score++
		}
		s.Body = body
	}

	// 4. Collisions against post-move bodies
	for _, s := range newState.Snakes {
		if !s.Alive || dead[s.Id] {
			continue
		}
		head := s.Body[0]
		if !game.InBounds(head, newState.Size) {
			dead[s.Id] = true
			continue
		}
		for _, other := range newState.Snakes {
			if !other.Alive || len(other.Body) == 0 {
				continue
			}
			for i, p := range other.Body {
				if i == 0 {
					continue
				}
				if p == head {
					dead[s.Id] = true
				}
			}
		}
	}

	// Head-to-head: longer survives, equal lengths both die.
	for i := 0; i < len(newState.Snakes); i++ {
		s1 := newState.Snakes[i]
		if !s1.Alive || len(s1.Body) == 0 {
			continue
		}
		for j := i + 1; j < len(newState.Snakes); j++ {
			s2 := newState.Snakes[j]
			if !s2.Alive || len(s2.Body) == 0 {
				continue
			}
			if s1.Body[0] != s2.Body[0] {
				continue
			}
			switch {
			case len(s1.Body) > len(s2.Body):
				dead[s2.Id] = true
			case len(s2.Body) > len(s1.Body):
				dead[s1.Id] = true
			default:
				dead[s1.Id] = true
				dead[s2.Id] = true
			}
		}
	}

	for i := range newState.Snakes {
		if dead[newState.Snakes[i].Id] {
			newState.Snakes[i].Alive = false
			newState.Snakes[i].Body = nil
		}
	}

	applyFoodRules(newState, rng, settings.Food, 0x524F554E44) // "ROUND"
	return newState
}

// IsGameOver reports whether no snake is left or the round limit is reached.
// maxRounds <= 0 disables the limit.
func IsGameOver(state *game.GameState, maxRounds int) bool {
	if state.Living() == 0 {
		return true
	}
	return maxRounds > 0 && state.Round >= maxRounds
}
