// Package tracker assigns stable identities to opponents whose per-round slot
// index is not guaranteed to stay the same.
//
// Identity is inferred from body overlap between consecutive rounds: a snake
// moves one cell per round, so most of its body is shared with where it was
// last round.
package tracker

import (
	"github.com/brensch/greedysnek/game"
)

// MinOverlap is the number of shared cells required to carry an id forward.
const MinOverlap = 3

// Entry is one opponent remembered from the previous round.
type Entry struct {
	ID   int
	Body []game.Point
}

// Matcher maps this round's bodies onto previous entries. It returns, for each
// current body, the index into prev it continues, or -1 for a new opponent.
// No prev index may be returned twice.
type Matcher interface {
	Match(prev []Entry, current [][]game.Point) []int
}

// Greedy walks current bodies in slot order and gives each the unconsumed
// previous entry with the largest overlap, provided the overlap reaches
// MinOverlap. Ties go to the earlier previous entry.
//
// The result depends on slot order and is not a globally optimal assignment:
// an early body can take an entry that a later body overlapped more.
type Greedy struct {
	MinOverlap int
}

func (g Greedy) Match(prev []Entry, current [][]game.Point) []int {
	threshold := g.MinOverlap
	if threshold <= 0 {
		threshold = MinOverlap
	}

	used := make([]bool, len(prev))
	out := make([]int, len(current))
	for i, body := range current {
		best, bestCount := -1, 0
		for j, p := range prev {
			if used[j] {
				continue
			}
			count := Overlap(body, p.Body)
			if count >= threshold && count > bestCount {
				best, bestCount = j, count
			}
		}
		out[i] = best
		if best >= 0 {
			used[best] = true
		}
	}
	return out
}

// Overlap returns the number of distinct cells shared by a and b.
func Overlap(a, b []game.Point) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inB := make(map[game.Point]struct{}, len(b))
	for _, p := range b {
		inB[p] = struct{}{}
	}
	seen := make(map[game.Point]struct{}, len(a))
	n := 0
	for _, p := range a {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		if _, ok := inB[p]; ok {
			n++
		}
	}
	return n
}

// Tracker remembers last round's identities and issues new ones. Ids increase
// monotonically and are never handed out twice in one session.
type Tracker struct {
	matcher Matcher
	prev    []Entry
	nextID  int
}

// New returns a tracker using m, or Greedy when m is nil.
func New(m Matcher) *Tracker {
	if m == nil {
		m = Greedy{MinOverlap: MinOverlap}
	}
	return &Tracker{matcher: m}
}

// Assign returns one stable id per current body (present opponents only, in
// slot order) and replaces the remembered round with this one.
func (t *Tracker) Assign(current [][]game.Point) []int {
	match := t.matcher.Match(t.prev, current)

	ids := make([]int, len(current))
	taken := make(map[int]bool, len(current))
	for i := range current {
		j := -1
		if i < len(match) {
			j = match[i]
		}
		if j >= 0 && j < len(t.prev) && !taken[t.prev[j].ID] {
			ids[i] = t.prev[j].ID
			taken[ids[i]] = true
			continue
		}
		ids[i] = t.nextID
		t.nextID++
	}

	next := make([]Entry, len(current))
	for i, body := range current {
		next[i] = Entry{ID: ids[i], Body: append([]game.Point(nil), body...)}
	}
	t.prev = next
	return ids
}

// Previous returns the entries remembered from the last Assign.
func (t *Tracker) Previous() []Entry {
	return t.prev
}

// NextID is the id the next unmatched opponent will receive.
func (t *Tracker) NextID() int {
	return t.nextID
}
