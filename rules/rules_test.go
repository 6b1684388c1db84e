package rules

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/brensch/greedysnek/game"
)

func dumpState(state *game.GameState) string {
	if state == nil {
		return "<nil state>"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Round=%d Size=%d\n", state.Round, state.Size)
	fmt.Fprintf(&b, "Food(%d):", len(state.Food))
	for _, f := range state.Food {
		fmt.Fprintf(&b, " (%d,%d)", f.X, f.Y)
	}
	b.WriteString("\n")

	snakes := make([]game.Snake, len(state.Snakes))
	copy(snakes, state.Snakes)
	sort.Slice(snakes, func(i, j int) bool { return snakes[i].Id < snakes[j].Id })
	bodies := make([][]game.Point, 0, len(snakes))
	for _, s := range snakes {
		fmt.Fprintf(&b, "Snake %s Alive=%v Score=%d Body:", s.Id, s.Alive, s.Score)
		for _, p := range s.Body {
			fmt.Fprintf(&b, " (%d,%d)", p.X, p.Y)
		}
		b.WriteString("\n")
		bodies = append(bodies, s.Body)
	}
	b.WriteString(game.Render(state.Size, state.Food, bodies...))
	return b.String()
}

func logNextRound(t *testing.T, name string, before *game.GameState, moves map[string]game.Direction, after *game.GameState) {
	t.Helper()
	ids := make([]string, 0, len(moves))
	for id := range moves {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var mv strings.Builder
	mv.WriteString("Moves:")
	for _, id := range ids {
		fmt.Fprintf(&mv, " %s=%s", id, moves[id])
	}
	mv.WriteByte('\n')
	t.Logf("=== %s ===\nBefore:\n%s%sAfter:\n%s", name, dumpState(before), mv.String(), dumpState(after))
}

var noFood = StepSettings{MaxLength: 4, Food: FoodSettings{MinimumFood: 0, FoodSpawnChance: 0}}

func TestDangerMap_MarksEverySegment(t *testing.T) {
	me := []game.Point{{X: 2, Y: 2}, {X: 2, Y: 1}}
	opp := [][]game.Point{{{X: 4, Y: 4}, {X: 4, Y: 3}, {X: 4, Y: 2}}, nil}
	danger := DangerMap(5, me, opp)

	if danger.Count() != 5 {
		t.Fatalf("marked=%d want=5", danger.Count())
	}
	for _, p := range append(append([]game.Point{}, me...), opp[0]...) {
		if !danger.Blocked(p) {
			t.Fatalf("%v not marked", p)
		}
	}
}

func TestCheckMove_TailFollowing(t *testing.T) {
	// Snake curled so that its tail is adjacent to its head.
	me := []game.Point{{X: 2, Y: 2}, {X: 2, Y: 3}, {X: 3, Y: 3}, {X: 3, Y: 2}}
	danger := DangerMap(5, me, nil)
	tail := game.Point{X: 3, Y: 2}

	if got := CheckMove(5, danger, tail, me, nil); got != Allowed {
		t.Fatalf("tail move rejected: %q", got)
	}
	if got := CheckMove(5, danger, tail, me, []game.Point{tail}); got != Occupied {
		t.Fatalf("tail with food: got %q want %q", got, Occupied)
	}
	if got := CheckMove(5, danger, game.Point{X: 2, Y: 3}, me, nil); got != Occupied {
		t.Fatalf("neck: got %q want %q", got, Occupied)
	}
	if got := CheckMove(5, danger, game.Point{X: 0, Y: 2}, me, nil); got != Wall {
		t.Fatalf("wall: got %q want %q", got, Wall)
	}

	single := []game.Point{{X: 1, Y: 1}}
	if got := CheckMove(5, DangerMap(5, single, nil), single[0], single, nil); got != Occupied {
		t.Fatalf("length-one snake may not re-enter its own cell: %q", got)
	}
}

func TestAdvance(t *testing.T) {
	body := []game.Point{{X: 3, Y: 3}, {X: 3, Y: 2}, {X: 3, Y: 1}}

	moved := Advance(body, game.Point{X: 3, Y: 4}, nil)
	want := []game.Point{{X: 3, Y: 4}, {X: 3, Y: 3}, {X: 3, Y: 2}}
	if fmt.Sprint(moved) != fmt.Sprint(want) {
		t.Fatalf("moved=%v want=%v", moved, want)
	}

	grown := Advance(body, game.Point{X: 3, Y: 4}, []game.Point{{X: 3, Y: 4}})
	want = []game.Point{{X: 3, Y: 4}, {X: 3, Y: 3}, {X: 3, Y: 2}, {X: 3, Y: 1}}
	if fmt.Sprint(grown) != fmt.Sprint(want) {
		t.Fatalf("grown=%v want=%v", grown, want)
	}
	if len(body) != 3 {
		t.Fatalf("input body mutated: %v", body)
	}
}

func TestLegalMoves(t *testing.T) {
	snap := game.Snapshot{
		N:  3,
		Me: []game.Point{{X: 1, Y: 1}, {X: 2, Y: 1}},
		Opponents: [][]game.Point{
			{{X: 1, Y: 2}},
		},
	}
	got := LegalMoves(snap)
	// Up is an opponent, Left and Down are walls, Right is our tail.
	if len(got) != 1 || got[0] != game.Right {
		t.Fatalf("legal=%v want=[right]", got)
	}
	if moves := LegalMoves(game.Snapshot{N: 3}); len(moves) != 0 {
		t.Fatalf("dead snake legal=%v", moves)
	}
}

func TestNextRound_NormalMove_NoFood(t *testing.T) {
	before := &game.GameState{
		Size: 7,
		Snakes: []game.Snake{{
			Id:    "me",
			Alive: true,
			Body:  []game.Point{{X: 3, Y: 3}, {X: 3, Y: 2}, {X: 3, Y: 1}},
		}},
	}
	moves := map[string]game.Direction{"me": game.Up}

	after := NextRound(before, moves, nil, noFood)
	logNextRound(t, "NextRound normal move", before, moves, after)

	got := after.Snakes[0].Body
	want := []game.Point{{X: 3, Y: 4}, {X: 3, Y: 3}, {X: 3, Y: 2}}
	if len(got) != len(want) {
		t.Fatalf("body len=%d want=%d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("body[%d]=%v want=%v", i, got[i], want[i])
		}
	}
	if after.Round != 1 {
		t.Fatalf("round=%d want=1", after.Round)
	}
}

func TestNextRound_EatFood_GrowsUntilCap(t *testing.T) {
	before := &game.GameState{
		Size: 7,
		Snakes: []game.Snake{
			{Id: "short", Alive: true, Body: []game.Point{{X: 1, Y: 1}, {X: 2, Y: 1}}},
			{Id: "full", Alive: true, Body: []game.Point{{X: 5, Y: 5}, {X: 5, Y: 4}, {X: 5, Y: 3}, {X: 5, Y: 2}}},
		},
		Food: []game.Point{{X: 1, Y: 2}, {X: 5, Y: 6}},
	}
	moves := map[string]game.Direction{"short": game.Up, "full": game.Up}

	after := NextRound(before, moves, nil, noFood)
	logNextRound(t, "NextRound eat food", before, moves, after)

	short, full := after.Snakes[0], after.Snakes[1]
	if len(short.Body) != 3 || short.Score != 1 {
		t.Fatalf("short len=%d score=%d want=3,1", len(short.Body), short.Score)
	}
	if len(full.Body) != 4 || full.Score != 1 {
		t.Fatalf("full len=%d score=%d want=4,1", len(full.Body), full.Score)
	}
	if len(after.Food) != 0 {
		t.Fatalf("food len=%d want=0", len(after.Food))
	}
}

func TestNextRound_Deaths(t *testing.T) {
	before := &game.GameState{
		Size: 5,
		Snakes: []game.Snake{
			{Id: "wall", Alive: true, Body: []game.Point{{X: 1, Y: 5}, {X: 1, Y: 4}}},
			{Id: "h1", Alive: true, Body: []game.Point{{X: 2, Y: 2}, {X: 1, Y: 2}}},
			{Id: "h2", Alive: true, Body: []game.Point{{X: 4, Y: 2}, {X: 5, Y: 2}}},
			{Id: "idle", Alive: true, Body: []game.Point{{X: 5, Y: 5}}},
		},
	}
	moves := map[string]game.Direction{"wall": game.Up, "h1": game.Right, "h2": game.Left}

	after := NextRound(before, moves, nil, noFood)
	logNextRound(t, "NextRound deaths", before, moves, after)

	for _, s := range after.Snakes {
		if s.Alive {
			t.Fatalf("snake %s should be dead", s.Id)
		}
		if len(s.Body) != 0 {
			t.Fatalf("dead snake %s keeps body %v", s.Id, s.Body)
		}
	}
	if !IsGameOver(after, 0) {
		t.Fatalf("expected game over with no snakes alive")
	}
}

func TestNextRound_BodyCollision(t *testing.T) {
	before := &game.GameState{
		Size: 5,
		Snakes: []game.Snake{
			{Id: "a", Alive: true, Body: []game.Point{{X: 2, Y: 3}, {X: 1, Y: 3}}},
			{Id: "b", Alive: true, Body: []game.Point{{X: 3, Y: 4}, {X: 3, Y: 3}, {X: 3, Y: 2}}},
		},
	}
	moves := map[string]game.Direction{"a": game.Right, "b": game.Up}

	after := NextRound(before, moves, nil, noFood)
	logNextRound(t, "NextRound body collision", before, moves, after)

	if after.Snakes[0].Alive {
		t.Fatalf("a should die running into b's body")
	}
	if !after.Snakes[1].Alive {
		t.Fatalf("b should survive")
	}
}

func TestFood_MinimumFoodIsEnforced(t *testing.T) {
	before := &game.GameState{
		Size:   5,
		Snakes: []game.Snake{{Id: "me", Alive: true, Body: []game.Point{{X: 2, Y: 2}, {X: 2, Y: 1}}}},
	}
	moves := map[string]game.Direction{"me": game.Up}

	after := NextRound(before, moves, nil, StepSettings{MaxLength: 4, Food: FoodSettings{MinimumFood: 3}})
	logNextRound(t, "Food minimum enforced", before, moves, after)

	if len(after.Food) != 3 {
		t.Fatalf("food len=%d want=3", len(after.Food))
	}
	for _, f := range after.Food {
		if game.Contains(after.Snakes[0].Body, f) {
			t.Fatalf("food spawned on snake at %v", f)
		}
		if !game.InBounds(f, after.Size) {
			t.Fatalf("food off board at %v", f)
		}
	}
}

func TestFood_SpawnChanceCanAddExtra(t *testing.T) {
	before := &game.GameState{
		Size:   5,
		Snakes: []game.Snake{{Id: "me", Alive: true, Body: []game.Point{{X: 2, Y: 2}}}},
		Food:   []game.Point{{X: 5, Y: 5}},
	}
	moves := map[string]game.Direction{"me": game.Up}

	after := NextRound(before, moves, nil, StepSettings{MaxLength: 4, Food: FoodSettings{MinimumFood: 0, FoodSpawnChance: 100}})
	logNextRound(t, "Food spawn chance", before, moves, after)

	if len(after.Food) != 2 {
		t.Fatalf("food len=%d want=2", len(after.Food))
	}
}
