package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/brensch/greedysnek/game"
	"github.com/brensch/greedysnek/predict"
	"github.com/brensch/greedysnek/rules"
)

func pts(xy ...int) []game.Point {
	out := make([]game.Point, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		out = append(out, game.Point{X: xy[i], Y: xy[i+1]})
	}
	return out
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession(Default())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func dumpSnapshot(t *testing.T, snap game.Snapshot) {
	t.Helper()
	bodies := append([][]game.Point{snap.Me}, snap.Opponents...)
	t.Logf("round %d\n%s", snap.Round, game.Render(snap.N, snap.Food, bodies...))
}

func TestNewSessionRejectsUnknownStrategy(t *testing.T) {
	cfg := Default()
	cfg.IdentityStrategy = "hungarian"
	if _, err := NewSession(cfg); !errors.Is(err, ErrUnknownStrategy) {
		t.Fatalf("err=%v want ErrUnknownStrategy", err)
	}

	cfg = Default()
	cfg.TrajectoryLimit = 1
	if _, err := NewSession(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err=%v want ErrInvalidConfig", err)
	}
}

func TestDecideEatScoresFlat(t *testing.T) {
	s := newTestSession(t)
	snap := game.Snapshot{
		N:             5,
		Me:            pts(3, 3, 3, 2, 3, 1),
		OpponentCount: 1,
		Food:          pts(3, 4, 1, 5),
	}
	dumpSnapshot(t, snap)

	d := s.Decide(snap)
	up := d.Evaluations[game.Up]
	if !up.Legal() {
		t.Fatalf("up rejected: %s", up.Rejected)
	}
	if up.Food != 100 {
		t.Fatalf("food score got=%v want=100", up.Food)
	}
}

func TestDecideTrappedCandidate(t *testing.T) {
	s := newTestSession(t)
	snap := game.Snapshot{
		N:             5,
		Me:            pts(2, 1, 3, 1, 4, 1),
		OpponentCount: 1,
		Opponents:     [][]game.Point{pts(1, 2, 2, 2, 3, 2, 4, 2)},
	}
	dumpSnapshot(t, snap)

	d := s.Decide(snap)
	if d.Move != game.Left {
		t.Fatalf("move got=%v want=left", d.Move)
	}
	left := d.Best()
	if left.Area != 1 {
		t.Fatalf("area got=%d want=1", left.Area)
	}
	if left.Survival != -100 {
		t.Fatalf("survival got=%v want=-100", left.Survival)
	}
	// trap term against the adjacent head: (3-0)/1
	if left.Aggression != 3 {
		t.Fatalf("aggression got=%v want=3", left.Aggression)
	}
	if want := -100.0*3 + 3; left.Total != want {
		t.Fatalf("total got=%v want=%v", left.Total, want)
	}
	for _, dir := range []game.Direction{game.Up, game.Down, game.Right} {
		if d.Evaluations[dir].Legal() {
			t.Fatalf("%v should be rejected", dir)
		}
	}
}

func TestDecideFollowsOwnTail(t *testing.T) {
	s := newTestSession(t)
	snap := game.Snapshot{
		N:             3,
		Me:            pts(1, 1, 2, 1, 2, 2, 1, 2),
		OpponentCount: 1,
	}
	dumpSnapshot(t, snap)

	d := s.Decide(snap)
	if d.Move != game.Up {
		t.Fatalf("move got=%v want=up", d.Move)
	}
	if !d.Evaluations[game.Up].Legal() {
		t.Fatalf("tail cell rejected: %s", d.Evaluations[game.Up].Rejected)
	}
	if got := d.Evaluations[game.Right].Rejected; got != rules.Occupied {
		t.Fatalf("right got=%q want=occupied", got)
	}

	// Food on the tail means the tail stays put.
	s = newTestSession(t)
	snap.Food = pts(1, 2)
	d = s.Decide(snap)
	if d.Evaluations[game.Up].Legal() {
		t.Fatalf("tail with food should be rejected")
	}
}

func TestDecideNoLegalMoveIsUp(t *testing.T) {
	s := newTestSession(t)
	snap := game.Snapshot{
		N:             2,
		Me:            pts(1, 1),
		OpponentCount: 1,
		Opponents:     [][]game.Point{pts(1, 2, 2, 2, 2, 1)},
	}
	dumpSnapshot(t, snap)

	d := s.Decide(snap)
	if d.Move != game.Up {
		t.Fatalf("move got=%v want=up", d.Move)
	}
	for _, ev := range d.Evaluations {
		if ev.Legal() {
			t.Fatalf("%v unexpectedly legal", ev.Direction)
		}
	}
	if s.Rounds() != 1 {
		t.Fatalf("rounds got=%d want=1", s.Rounds())
	}
}

func TestDecideDeadLeavesStateAlone(t *testing.T) {
	s := newTestSession(t)

	d := s.Decide(game.Snapshot{N: 5, OpponentCount: 3, Food: pts(2, 2)})
	if !d.Dead || d.Move != game.Up {
		t.Fatalf("got=%+v want dead up", d)
	}
	if s.Phase() != Unlatched || s.Mode() != 0 || s.Rounds() != 0 || len(s.LastFood()) != 0 {
		t.Fatalf("dead round touched state: phase=%v mode=%d rounds=%d", s.Phase(), s.Mode(), s.Rounds())
	}

	s.Decide(game.Snapshot{N: 5, Me: pts(3, 3), OpponentCount: 1})
	if s.Phase() != Latched || s.Mode() != 1 {
		t.Fatalf("phase=%v mode=%d want latched 1", s.Phase(), s.Mode())
	}
}

func TestModeLatchesOnFirstLiveRound(t *testing.T) {
	s := newTestSession(t)
	if s.Phase() != Unlatched {
		t.Fatalf("new session phase=%v", s.Phase())
	}

	s.Decide(game.Snapshot{N: 8, Me: pts(4, 4, 4, 3), OpponentCount: 3})
	s.Decide(game.Snapshot{N: 8, Me: pts(4, 5, 4, 4), OpponentCount: 1, Round: 1})

	if s.Mode() != ModeFour {
		t.Fatalf("mode got=%d want=%d", s.Mode(), ModeFour)
	}
	if !s.fourWay() {
		t.Fatalf("expected four-way weighting")
	}
	if c := s.center(); c != [2]float64{4.5, 4.5} {
		t.Fatalf("center got=%v", c)
	}
}

func TestIdentityAndScoresAcrossRounds(t *testing.T) {
	s := newTestSession(t)

	a1 := pts(5, 5, 5, 4, 5, 3, 5, 2)
	b1 := pts(8, 8, 8, 7, 8, 6, 8, 5)
	r1 := game.Snapshot{
		N:             8,
		Me:            pts(1, 1, 1, 2, 1, 3, 1, 4),
		OpponentCount: 2,
		Opponents:     [][]game.Point{a1, b1},
		Food:          pts(6, 5, 2, 1),
	}
	dumpSnapshot(t, r1)
	d := s.Decide(r1)
	if d.OwnScore != 0 {
		t.Fatalf("round 1 own score=%v", d.OwnScore)
	}
	if d.Opponents[0].ID != 0 || d.Opponents[1].ID != 1 {
		t.Fatalf("round 1 ids=%+v", d.Opponents)
	}

	// Slots swap, A eats last round's food and so do we.
	a2 := pts(6, 5, 5, 5, 5, 4, 5, 3)
	b2 := pts(7, 8, 8, 8, 8, 7, 8, 6)
	r2 := game.Snapshot{
		N:             8,
		Me:            pts(2, 1, 1, 1, 1, 2, 1, 3),
		OpponentCount: 2,
		Opponents:     [][]game.Point{b2, a2},
		Food:          pts(2, 8),
		Round:         1,
	}
	dumpSnapshot(t, r2)
	d = s.Decide(r2)
	if d.Opponents[0].ID != 1 || d.Opponents[1].ID != 0 {
		t.Fatalf("round 2 ids=%+v want [1 0]", d.Opponents)
	}
	if d.Opponents[1].Score != 1 || d.Opponents[0].Score != 0 {
		t.Fatalf("round 2 scores=%+v", d.Opponents)
	}
	if d.OwnScore != 1 {
		t.Fatalf("own score got=%v want=1", d.OwnScore)
	}
	r, ok := s.Ledger().Record(0)
	if !ok || len(r.Trajectory) != 2 || r.Trajectory[1] != (game.Point{X: 6, Y: 5}) {
		t.Fatalf("trajectory of A=%+v", r)
	}

	// A dies, an unrelated snake takes its slot.
	b3 := pts(6, 8, 7, 8, 8, 8, 8, 7)
	c3 := pts(3, 3, 3, 4, 3, 5, 3, 6)
	r3 := game.Snapshot{
		N:             8,
		Me:            pts(3, 1, 2, 1, 1, 1, 1, 2),
		OpponentCount: 2,
		Opponents:     [][]game.Point{b3, c3},
		Food:          pts(2, 8),
		Round:         2,
	}
	d = s.Decide(r3)
	if d.Opponents[0].ID != 1 || d.Opponents[1].ID != 2 {
		t.Fatalf("round 3 ids=%+v want [1 2]", d.Opponents)
	}
	if _, ok := s.Ledger().Record(0); ok {
		t.Fatalf("dead opponent still tracked")
	}
	if s.Ledger().Len() != 2 {
		t.Fatalf("ledger len=%d want=2", s.Ledger().Len())
	}
	if s.OwnScore() != 1 {
		t.Fatalf("own score got=%v want=1", s.OwnScore())
	}
}

func TestFoodScoreTerms(t *testing.T) {
	cfg := Default().Food
	contest := predict.Contest{
		Contested: []bool{true, false},
		MinDist:   []int{1, 1},
	}
	// (3,3): contested, d=4, near the center: -12+10.
	// (5,5): lost race, d=8: -8.
	// nearest pull: -4.
	got := foodScore(cfg, cfg.CenterDuel, game.Point{X: 1, Y: 1}, pts(3, 3, 5, 5), contest, false)
	if got != -14 {
		t.Fatalf("food score got=%v want=-14", got)
	}

	if got := foodScore(cfg, cfg.CenterDuel, game.Point{X: 1, Y: 1}, nil, predict.Contest{}, false); got != 0 {
		t.Fatalf("no food got=%v want=0", got)
	}
}

func TestSurvivalScoreOpenBoard(t *testing.T) {
	cfg := Default().Survival
	body := pts(2, 2, 2, 1)
	got, area := survivalScore(cfg, 3, game.Point{X: 2, Y: 2}, body, nil)
	if area != 8 {
		t.Fatalf("area got=%d want=8", area)
	}
	if want := 50 * math.Sqrt(8); got != want {
		t.Fatalf("survival got=%v want=%v", got, want)
	}
}

func TestAggressionTradeAndTrap(t *testing.T) {
	cfg := Default().Aggression
	me := pts(3, 2, 3, 1)
	opp := opponent{id: 0, body: pts(4, 4, 5, 4, 6, 4), score: 1}
	danger := rules.DangerMap(8, me, [][]game.Point{opp.body})
	cand := game.Point{X: 3, Y: 3}

	got := aggressionScore(cfg, cand, 2, []opponent{opp}, danger, false)
	if got != 1000+1.5 {
		t.Fatalf("duel got=%v want=1001.5", got)
	}
	got = aggressionScore(cfg, cand, 2, []opponent{opp}, danger, true)
	if got != 100+1.5 {
		t.Fatalf("four-way got=%v want=101.5", got)
	}
	// Equal scores: no trade, only the trap term remains.
	got = aggressionScore(cfg, cand, 1, []opponent{opp}, danger, false)
	if got != 1.5 {
		t.Fatalf("no trade got=%v want=1.5", got)
	}
}

func TestDecideWeightsFollowModeAndSnakeNum(t *testing.T) {
	me := pts(2, 1, 3, 1, 4, 1)
	a := pts(1, 2, 2, 2, 3, 2, 4, 2)
	b := pts(5, 5, 5, 4)
	duel := game.Snapshot{N: 5, Me: me, OpponentCount: 1, Opponents: [][]game.Point{a}}
	duelPair := game.Snapshot{N: 5, Me: me, OpponentCount: 2, Opponents: [][]game.Point{a, b}, Round: 1}

	fourMe := pts(4, 4, 4, 3, 4, 2)
	corners := [][]game.Point{pts(1, 8, 2, 8, 3, 8), pts(8, 8, 8, 7, 8, 6), pts(8, 1, 7, 1, 6, 1)}
	four := game.Snapshot{N: 8, Me: fourMe, OpponentCount: 3, Opponents: corners}
	fourPair := game.Snapshot{N: 8, Me: fourMe, OpponentCount: 2, Opponents: corners[:2], Round: 1}

	cases := []struct {
		name   string
		rounds []game.Snapshot
		mode   int
		ws, wa float64
	}{
		{"duel", []game.Snapshot{duel}, ModeDuel, 3, 1},
		{"duel latched then two opponents", []game.Snapshot{duel, duelPair}, ModeDuel, 3, 3},
		{"four", []game.Snapshot{four}, ModeFour, 10, 1},
		{"four latched then two opponents", []game.Snapshot{four, fourPair}, ModeFour, 10, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSession(t)
			var d Decision
			for _, snap := range tc.rounds {
				d = s.Decide(snap)
			}
			if d.Mode != tc.mode {
				t.Fatalf("mode got=%d want=%d", d.Mode, tc.mode)
			}
			legal := 0
			for _, ev := range d.Evaluations {
				if !ev.Legal() {
					continue
				}
				legal++
				if want := ev.Food + ev.Survival*tc.ws + ev.Aggression*tc.wa; ev.Total != want {
					t.Fatalf("%v total got=%v want=%v (food=%v survival=%v aggression=%v)",
						ev.Direction, ev.Total, want, ev.Food, ev.Survival, ev.Aggression)
				}
			}
			if legal == 0 {
				t.Fatalf("no legal direction to check")
			}
		})
	}
}

func TestDecideTieKeepsEarlierDirection(t *testing.T) {
	s := newTestSession(t)
	// Up is the neck and Down is the wall; Left and Right mirror each other.
	snap := game.Snapshot{
		N:             5,
		Me:            pts(3, 1, 3, 2, 3, 3),
		OpponentCount: 1,
	}
	dumpSnapshot(t, snap)

	d := s.Decide(snap)
	left, right := d.Evaluations[game.Left], d.Evaluations[game.Right]
	if !left.Legal() || !right.Legal() {
		t.Fatalf("left=%q right=%q", left.Rejected, right.Rejected)
	}
	if left.Total != right.Total {
		t.Fatalf("mirrored totals differ: left=%v right=%v", left.Total, right.Total)
	}
	if d.Move != game.Left {
		t.Fatalf("move got=%v want=left", d.Move)
	}
}

func TestLastFoodIsACopy(t *testing.T) {
	s := newTestSession(t)
	s.Decide(game.Snapshot{N: 5, Me: pts(3, 3), OpponentCount: 1, Food: pts(1, 1)})

	held := s.LastFood()
	held[0] = game.Point{X: 5, Y: 5}
	if got := s.LastFood(); got[0] != (game.Point{X: 1, Y: 1}) {
		t.Fatalf("session food changed through caller slice: %v", got)
	}

	held = s.LastFood()
	s.Decide(game.Snapshot{N: 5, Me: pts(3, 4, 3, 3), OpponentCount: 1, Food: pts(2, 2), Round: 1})
	if held[0] != (game.Point{X: 1, Y: 1}) {
		t.Fatalf("held food rewritten by next round: %v", held)
	}
}

func TestDecideOversizedBoardDoesNotPanic(t *testing.T) {
	s := newTestSession(t)
	d := s.Decide(game.Snapshot{N: 1 << 32, Me: pts(1, 1), OpponentCount: 1})
	if d.Dead || !d.Best().Legal() {
		t.Fatalf("got=%+v", d)
	}
}
