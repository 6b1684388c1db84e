package engine

import (
	"errors"
	"fmt"

	"github.com/brensch/greedysnek/ledger"
	"github.com/brensch/greedysnek/predict"
	"github.com/brensch/greedysnek/tracker"
)

var (
	ErrUnknownStrategy = errors.New("unknown identity strategy")
	ErrInvalidConfig   = errors.New("invalid engine config")
)

// StrategyGreedy is the slot-order greedy overlap matcher.
const StrategyGreedy = "greedy"

// Config holds every tunable of the scoring engine. Default returns the
// values the engine was tuned with.
type Config struct {
	IdentityStrategy string  `yaml:"identity_strategy"`
	MinOverlap       int     `yaml:"min_overlap"`
	TrajectoryLimit  int     `yaml:"trajectory_limit"`
	ContestRadius    int     `yaml:"contest_radius"`
	FoodWeight       float64 `yaml:"food_weight"`

	Food       FoodConfig       `yaml:"food"`
	Survival   SurvivalConfig   `yaml:"survival"`
	Aggression AggressionConfig `yaml:"aggression"`
}

type FoodConfig struct {
	Eat             float64 `yaml:"eat"`
	CenterBonus     float64 `yaml:"center_bonus"`
	CenterRadius    float64 `yaml:"center_radius"`
	ContestedFactor float64 `yaml:"contested_factor"`
	// Centers are (x, y) pairs picked by the latched mode.
	CenterDuel    [2]float64 `yaml:"center_duel"`
	CenterFour    [2]float64 `yaml:"center_four"`
	CenterDefault [2]float64 `yaml:"center_default"`
}

type SurvivalConfig struct {
	Trapped       float64 `yaml:"trapped"`
	Scale         float64 `yaml:"scale"`
	WeightFour    float64 `yaml:"weight_four"`
	WeightDefault float64 `yaml:"weight_default"`
}

type AggressionConfig struct {
	TradeRange        int     `yaml:"trade_range"`
	TradeBonusFour    float64 `yaml:"trade_bonus_four"`
	TradeBonusDefault float64 `yaml:"trade_bonus_default"`
	TrapRange         int     `yaml:"trap_range"`
	TrapThreshold     int     `yaml:"trap_threshold"`
	// TrapSeedExempt clears the opponent's own head before measuring its
	// space. Off by default: the head is part of the danger map, so the
	// measured area is 0 and the trap term becomes a pure proximity bonus.
	TrapSeedExempt bool `yaml:"trap_seed_exempt"`
	// MinTrapDistance floors the trap term's divisor.
	MinTrapDistance int `yaml:"min_trap_distance"`
	// BoostOpponents is the per-call snake_num that switches WeightBoost on.
	BoostOpponents int     `yaml:"boost_opponents"`
	WeightBoost    float64 `yaml:"weight_boost"`
	WeightDefault  float64 `yaml:"weight_default"`
}

func Default() Config {
	return Config{
		IdentityStrategy: StrategyGreedy,
		MinOverlap:       tracker.MinOverlap,
		TrajectoryLimit:  ledger.TrajectoryLimit,
		ContestRadius:    predict.ContestRadius,
		FoodWeight:       1,
		Food: FoodConfig{
			Eat:             100,
			CenterBonus:     10,
			CenterRadius:    1.5,
			ContestedFactor: 3,
			CenterDuel:      [2]float64{2.5, 2.5},
			CenterFour:      [2]float64{4.5, 4.5},
			CenterDefault:   [2]float64{2.5, 2.5},
		},
		Survival: SurvivalConfig{
			Trapped:       -100,
			Scale:         50,
			WeightFour:    10,
			WeightDefault: 3,
		},
		Aggression: AggressionConfig{
			TradeRange:        2,
			TradeBonusFour:    100,
			TradeBonusDefault: 1000,
			TrapRange:         2,
			TrapThreshold:     3,
			MinTrapDistance:   1,
			BoostOpponents:    2,
			WeightBoost:       3,
			WeightDefault:     1,
		},
	}
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if _, err := c.matcher(); err != nil {
		return err
	}
	if c.TrajectoryLimit < 2 {
		return fmt.Errorf("%w: trajectory_limit=%d must be at least 2", ErrInvalidConfig, c.TrajectoryLimit)
	}
	if c.MinOverlap < 1 {
		return fmt.Errorf("%w: min_overlap=%d", ErrInvalidConfig, c.MinOverlap)
	}
	if c.Aggression.MinTrapDistance < 1 {
		return fmt.Errorf("%w: min_trap_distance=%d", ErrInvalidConfig, c.Aggression.MinTrapDistance)
	}
	return nil
}

func (c Config) matcher() (tracker.Matcher, error) {
	switch c.IdentityStrategy {
	case "", StrategyGreedy:
		return tracker.Greedy{MinOverlap: c.MinOverlap}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, c.IdentityStrategy)
	}
}
