// Package engine picks one move per round for the controlled snake.
//
// A Session carries everything remembered between rounds of one game: the
// identity tracker, the per-opponent ledger, last round's food and the latched
// game mode. Sessions are not safe for concurrent use; callers that share one
// across goroutines must serialize Decide.
package engine

import (
	"io"
	"log/slog"
	"slices"

	"github.com/brensch/greedysnek/game"
	"github.com/brensch/greedysnek/ledger"
	"github.com/brensch/greedysnek/predict"
	"github.com/brensch/greedysnek/rules"
	"github.com/brensch/greedysnek/tracker"
)

// Phase is the session state machine. A session starts Unlatched and moves to
// Latched on its first live round; there is no way back.
type Phase int

const (
	Unlatched Phase = iota
	Latched
)

func (p Phase) String() string {
	if p == Latched {
		return "latched"
	}
	return "unlatched"
}

// Mode values as reported by the host's opponent count.
const (
	ModeDuel = 1
	ModeFour = 3
)

// Evaluation is the breakdown for one direction.
type Evaluation struct {
	Direction  game.Direction  `json:"direction"`
	Candidate  game.Point      `json:"candidate"`
	Rejected   rules.Rejection `json:"rejected,omitempty"`
	Food       float64         `json:"food"`
	Survival   float64         `json:"survival"`
	Aggression float64         `json:"aggression"`
	Total      float64         `json:"total"`
	Area       int             `json:"area"`
}

// Legal reports whether the direction was scored at all.
func (e Evaluation) Legal() bool { return e.Rejected == rules.Allowed }

// OpponentView is an opponent as the session saw it this round.
type OpponentView struct {
	Slot  int        `json:"slot"`
	ID    int        `json:"id"`
	Head  game.Point `json:"head"`
	Score float64    `json:"score"`
}

// Decision is the result of one round.
type Decision struct {
	Move  game.Direction `json:"move"`
	Round int            `json:"round"`
	// Dead is set when the controlled snake had no body; nothing else is
	// filled in and the session state was left untouched.
	Dead        bool           `json:"dead"`
	Mode        int            `json:"mode"`
	Evaluations [4]Evaluation  `json:"evaluations"`
	OwnScore    float64        `json:"own_score"`
	Opponents   []OpponentView `json:"opponents"`
}

// Best returns the evaluation of the chosen move.
func (d Decision) Best() Evaluation {
	return d.Evaluations[d.Move]
}

type Option func(*Session)

// WithLogger sends per-round debug output to l.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMatcher overrides the identity matcher chosen by the config.
func WithMatcher(m tracker.Matcher) Option {
	return func(s *Session) {
		if m != nil {
			s.matcher = m
		}
	}
}

type Session struct {
	cfg     Config
	log     *slog.Logger
	matcher tracker.Matcher

	phase    Phase
	mode     int
	tracker  *tracker.Tracker
	ledger   *ledger.Ledger
	lastFood []game.Point
	rounds   int
}

// NewSession validates cfg and returns a fresh session.
func NewSession(cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m, err := cfg.matcher()
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:     cfg,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		matcher: m,
		ledger:  ledger.New(cfg.TrajectoryLimit),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tracker = tracker.New(s.matcher)
	return s, nil
}

func (s *Session) Phase() Phase { return s.phase }

// Mode is the latched opponent count, 0 before the first live round.
func (s *Session) Mode() int { return s.mode }

func (s *Session) OwnScore() float64 { return s.ledger.OwnScore() }

// Rounds counts live rounds decided so far.
func (s *Session) Rounds() int { return s.rounds }

// Ledger exposes the opponent records. Callers must not mutate it.
func (s *Session) Ledger() *ledger.Ledger { return s.ledger }

// LastFood is the food set remembered from the previous live round.
func (s *Session) LastFood() []game.Point { return slices.Clone(s.lastFood) }

// latch performs the one-time Unlatched to Latched transition.
func (s *Session) latch(opponentCount int) {
	if s.phase != Unlatched {
		return
	}
	s.mode = opponentCount
	s.phase = Latched
	s.log.Debug("mode latched", "mode", opponentCount)
}

func (s *Session) fourWay() bool { return s.mode == ModeFour }

func (s *Session) center() [2]float64 {
	switch s.mode {
	case ModeDuel:
		return s.cfg.Food.CenterDuel
	case ModeFour:
		return s.cfg.Food.CenterFour
	default:
		return s.cfg.Food.CenterDefault
	}
}

// Decide runs one round and returns the chosen move.
func (s *Session) Decide(snap game.Snapshot) Decision {
	// A dead round never latches the mode.
	if len(snap.Me) == 0 {
		s.log.Debug("own snake dead", "round", snap.Round)
		return Decision{Move: game.Up, Round: snap.Round, Dead: true, Mode: s.mode}
	}

	s.latch(snap.OpponentCount)

	bodies := snap.Alive()
	ids := s.tracker.Assign(bodies)
	heads := make([]game.Point, len(bodies))
	for i, b := range bodies {
		heads[i] = b[0]
	}
	s.ledger.Observe(ids, heads)

	lastFood := s.lastFood
	if len(lastFood) == 0 {
		lastFood = snap.Food
	}
	s.ledger.Credit(ids, heads, lastFood)
	ownScore := s.ledger.CreditOwn(snap.Me[0], lastFood)

	tracks := make([]predict.Track, 0, len(ids))
	opponents := make([]opponent, len(bodies))
	views := make([]OpponentView, len(bodies))
	for i, id := range ids {
		if r, ok := s.ledger.Record(id); ok {
			tracks = append(tracks, predict.Track(r.Trajectory))
		}
		opponents[i] = opponent{id: id, body: bodies[i], score: s.ledger.Score(id)}
		views[i] = OpponentView{Slot: i, ID: id, Head: heads[i], Score: opponents[i].score}
	}
	contest := predict.Foods(snap.Food, tracks, s.cfg.ContestRadius)
	danger := rules.DangerMap(snap.N, snap.Me, bodies)

	survivalWeight := s.cfg.Survival.WeightDefault
	if s.fourWay() {
		survivalWeight = s.cfg.Survival.WeightFour
	}
	aggressionWeight := s.cfg.Aggression.WeightDefault
	if snap.OpponentCount == s.cfg.Aggression.BoostOpponents {
		aggressionWeight = s.cfg.Aggression.WeightBoost
	}

	d := Decision{
		Move:      game.Up,
		Round:     snap.Round,
		Mode:      s.mode,
		OwnScore:  ownScore,
		Opponents: views,
	}
	head := snap.Me[0]
	found := false
	for _, dir := range game.Directions {
		cand := head.Add(dir)
		ev := Evaluation{Direction: dir, Candidate: cand}
		ev.Rejected = rules.CheckMove(snap.N, danger, cand, snap.Me, snap.Food)
		if ev.Rejected != rules.Allowed {
			d.Evaluations[dir] = ev
			s.log.Debug("direction rejected", "round", snap.Round, "dir", dir.String(), "reason", string(ev.Rejected))
			continue
		}

		newBody := rules.Advance(snap.Me, cand, snap.Food)
		eat := game.Contains(snap.Food, cand)
		ev.Food = foodScore(s.cfg.Food, s.center(), cand, snap.Food, contest, eat)
		ev.Survival, ev.Area = survivalScore(s.cfg.Survival, snap.N, cand, newBody, opponents)
		ev.Aggression = aggressionScore(s.cfg.Aggression, cand, ownScore, opponents, danger, s.fourWay())
		ev.Total = ev.Food*s.cfg.FoodWeight + ev.Survival*survivalWeight + ev.Aggression*aggressionWeight
		d.Evaluations[dir] = ev

		s.log.Debug("direction scored",
			"round", snap.Round,
			"dir", dir.String(),
			"food", ev.Food,
			"survival", ev.Survival,
			"area", ev.Area,
			"aggression", ev.Aggression,
			"total", ev.Total,
		)

		if !found || ev.Total > d.Evaluations[d.Move].Total {
			d.Move = dir
			found = true
		}
	}

	s.lastFood = append(s.lastFood[:0], snap.Food...)
	s.rounds++

	s.log.Debug("decision",
		"round", snap.Round,
		"move", d.Move.String(),
		"legal", found,
		"own_score", ownScore,
		"opponents", len(bodies),
	)
	return d
}
