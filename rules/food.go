package rules

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand"

	"github.com/brensch/greedysnek/game"
)

// FoodSettings controls food spawning in the simulator:
// - MinimumFood: keep at least this many food items on the board after each round
// - FoodSpawnChance: percentage chance (0-100) to spawn one extra food each round
//
// The host game keeps a fixed number of food items, so the default tops the
// board back up to MinimumFood and never spawns extras.
//
// Callers pass an RNG for seeded games, or nil for a deterministic
// pseudo-random placement derived from the board itself (tests).
type FoodSettings struct {
	MinimumFood     int
	FoodSpawnChance int
}

var DefaultFoodSettings = FoodSettings{MinimumFood: 5, FoodSpawnChance: 0}

func applyFoodRules(state *game.GameState, rng *rand.Rand, settings FoodSettings, salt uint64) {
	if state == nil || state.Size <= 0 {
		return
	}
	if settings.MinimumFood < 0 {
		settings.MinimumFood = 0
	}
	if settings.FoodSpawnChance < 0 {
		settings.FoodSpawnChance = 0
	}
	if settings.FoodSpawnChance > 100 {
		settings.FoodSpawnChance = 100
	}

	deficit := settings.MinimumFood - len(state.Food)
	if deficit < 0 {
		deficit = 0
	}

	spawnExtra := false
	if settings.FoodSpawnChance > 0 {
		if rng != nil {
			spawnExtra = rng.Intn(100) < settings.FoodSpawnChance
		} else {
			spawnExtra = int(boardHash(state, salt)%100) < settings.FoodSpawnChance
		}
	}

	toSpawn := deficit
	if spawnExtra {
		toSpawn++
	}
	if toSpawn == 0 {
		return
	}

	if rng == nil {
		seed := int64(boardHash(state, salt))
		if seed == 0 {
			seed = 1
		}
		rng = rand.New(rand.NewSource(seed))
	}

	occupied := make(map[game.Point]struct{}, state.Size*state.Size)
	for _, s := range state.Snakes {
		if !s.Alive {
			continue
		}
		for _, p := range s.Body {
			occupied[p] = struct{}{}
		}
	}
	for _, f := range state.Food {
		occupied[f] = struct{}{}
	}

	available := make([]game.Point, 0, state.Size*state.Size)
	for y := 1; y <= state.Size; y++ {
		for x := 1; x <= state.Size; x++ {
			p := game.Point{X: x, Y: y}
			if _, ok := occupied[p]; ok {
				continue
			}
			available = append(available, p)
		}
	}

	for i := 0; i < toSpawn && len(available) > 0; i++ {
		j := rng.Intn(len(available))
		state.Food = append(state.Food, available[j])
		available[j] = available[len(available)-1]
		available = available[:len(available)-1]
	}
}

// ApplyFoodSettings tops up food on an existing state, e.g. at game start.
func ApplyFoodSettings(state *game.GameState, rng *rand.Rand, settings FoodSettings) {
	applyFoodRules(state, rng, settings, 0x464F4F445F494E49) // "FOOD_INI"
}

// boardHash mixes round, board size, salt and snake heads.
func boardHash(state *game.GameState, salt uint64) uint64 {
	h := fnv.New64a()
	var buf [8]byte

	binary.LittleEndian.PutUint64(buf[:], uint64(state.Size))
	_, _ = h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(state.Round))
	_, _ = h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], salt)
	_, _ = h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(len(state.Food)))
	_, _ = h.Write(buf[:])

	for _, s := range state.Snakes {
		if !s.Alive || len(s.Body) == 0 {
			continue
		}
		_, _ = h.Write([]byte(s.Id))
		head := s.Body[0]
		binary.LittleEndian.PutUint64(buf[:], (uint64(uint32(head.X))<<32)|uint64(uint32(head.Y)))
		_, _ = h.Write(buf[:])
	}

	return h.Sum64()
}
