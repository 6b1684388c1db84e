package ledger

import (
	"testing"

	"github.com/brensch/greedysnek/game"
)

func TestObserve_TrimsTrajectoryToLimit(t *testing.T) {
	l := New(0)
	for y := 1; y <= 8; y++ {
		l.Observe([]int{4}, []game.Point{{X: 2, Y: y}})
		r, ok := l.Record(4)
		if !ok {
			t.Fatalf("round %d: record missing", y)
		}
		if len(r.Trajectory) > TrajectoryLimit {
			t.Fatalf("round %d: trajectory len=%d exceeds %d", y, len(r.Trajectory), TrajectoryLimit)
		}
	}
	r, _ := l.Record(4)
	if r.Trajectory[0] != (game.Point{X: 2, Y: 4}) {
		t.Fatalf("oldest=%v want=(2,4)", r.Trajectory[0])
	}
	if head, _ := r.Head(); head != (game.Point{X: 2, Y: 8}) {
		t.Fatalf("head=%v want=(2,8)", head)
	}
}

func TestObserve_DropsAbsentOpponents(t *testing.T) {
	l := New(0)
	l.Observe([]int{0, 1}, []game.Point{{X: 1, Y: 1}, {X: 5, Y: 5}})
	l.Credit([]int{0, 1}, []game.Point{{X: 1, Y: 1}, {X: 5, Y: 5}}, []game.Point{{X: 5, Y: 5}})
	if l.Score(1) != 1 {
		t.Fatalf("score(1)=%v want=1", l.Score(1))
	}

	l.Observe([]int{0}, []game.Point{{X: 1, Y: 2}})
	if _, ok := l.Record(1); ok {
		t.Fatalf("record 1 should be dropped")
	}
	if l.Score(1) != 0 {
		t.Fatalf("dropped score=%v want=0", l.Score(1))
	}
	if ids := l.IDs(); len(ids) != 1 || ids[0] != 0 {
		t.Fatalf("ids=%v want=[0]", ids)
	}
}

func TestCredit_ScoresAreCumulative(t *testing.T) {
	l := New(0)
	food := []game.Point{{X: 3, Y: 3}}

	l.Observe([]int{2}, []game.Point{{X: 3, Y: 3}})
	l.Credit([]int{2}, []game.Point{{X: 3, Y: 3}}, food)
	l.Observe([]int{2}, []game.Point{{X: 3, Y: 4}})
	l.Credit([]int{2}, []game.Point{{X: 3, Y: 4}}, food)
	l.Observe([]int{2}, []game.Point{{X: 3, Y: 3}})
	l.Credit([]int{2}, []game.Point{{X: 3, Y: 3}}, food)

	if got := l.Score(2); got != 2 {
		t.Fatalf("score=%v want=2", got)
	}

	if got := l.CreditOwn(game.Point{X: 3, Y: 3}, food); got != 1 {
		t.Fatalf("own=%v want=1", got)
	}
	if got := l.CreditOwn(game.Point{X: 1, Y: 1}, food); got != 1 {
		t.Fatalf("own=%v want=1", got)
	}
	if l.OwnScore() != 1 {
		t.Fatalf("own score=%v want=1", l.OwnScore())
	}
}
