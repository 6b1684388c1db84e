// Package ledger keeps per-opponent head trajectories and food scores for one
// game session, plus the controlled snake's own food score.
package ledger

import (
	"sort"

	"github.com/brensch/greedysnek/game"
)

// TrajectoryLimit is the number of recent heads kept per opponent.
const TrajectoryLimit = 5

// Record is the history kept for one stable opponent id.
type Record struct {
	Trajectory []game.Point
	// Score is the number of rounds the opponent's head landed on last
	// round's food. It never decreases.
	Score float64
}

// Head returns the most recent trajectory sample.
func (r *Record) Head() (game.Point, bool) {
	if r == nil || len(r.Trajectory) == 0 {
		return game.Point{}, false
	}
	return r.Trajectory[len(r.Trajectory)-1], true
}

type Ledger struct {
	limit   int
	records map[int]*Record
	own     float64
}

// New returns an empty ledger keeping limit samples per trajectory; limit <= 0
// uses TrajectoryLimit.
func New(limit int) *Ledger {
	if limit <= 0 {
		limit = TrajectoryLimit
	}
	return &Ledger{limit: limit, records: make(map[int]*Record)}
}

// Observe records this round's heads. ids and heads are parallel. Opponents
// whose id is missing are treated as dead and their record is dropped.
func (l *Ledger) Observe(ids []int, heads []game.Point) {
	present := make(map[int]bool, len(ids))
	for i, id := range ids {
		if i >= len(heads) {
			break
		}
		present[id] = true
		r, ok := l.records[id]
		if !ok {
			r = &Record{}
			l.records[id] = r
		}
		r.Trajectory = append(r.Trajectory, heads[i])
		if len(r.Trajectory) > l.limit {
			r.Trajectory = append(r.Trajectory[:0], r.Trajectory[len(r.Trajectory)-l.limit:]...)
		}
	}
	for id := range l.records {
		if !present[id] {
			delete(l.records, id)
		}
	}
}

// FoodHit is 1 when head is one of lastFood, else 0.
func FoodHit(head game.Point, lastFood []game.Point) float64 {
	if game.Contains(lastFood, head) {
		return 1
	}
	return 0
}

// Credit adds this round's food hit to each present opponent. Ids without a
// record are ignored, so Observe must run first.
func (l *Ledger) Credit(ids []int, heads []game.Point, lastFood []game.Point) {
	for i, id := range ids {
		if i >= len(heads) {
			break
		}
		if r, ok := l.records[id]; ok {
			r.Score += FoodHit(heads[i], lastFood)
		}
	}
}

// CreditOwn adds the controlled snake's food hit and returns its new total.
func (l *Ledger) CreditOwn(head game.Point, lastFood []game.Point) float64 {
	l.own += FoodHit(head, lastFood)
	return l.own
}

// OwnScore is the controlled snake's cumulative food score.
func (l *Ledger) OwnScore() float64 { return l.own }

// Score returns an opponent's cumulative score, 0 for unknown ids.
func (l *Ledger) Score(id int) float64 {
	if r, ok := l.records[id]; ok {
		return r.Score
	}
	return 0
}

// Record returns the live record for id.
func (l *Ledger) Record(id int) (*Record, bool) {
	r, ok := l.records[id]
	return r, ok
}

// IDs returns the tracked ids in ascending order.
func (l *Ledger) IDs() []int {
	ids := make([]int, 0, len(l.records))
	for id := range l.records {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Len is the number of live opponents tracked.
func (l *Ledger) Len() int { return len(l.records) }
