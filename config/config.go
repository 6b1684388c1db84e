// Package config loads the YAML configuration shared by the binaries and the
// environment helpers they use for flag defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/brensch/greedysnek/engine"
	"github.com/brensch/greedysnek/logging"
)

var ErrInvalid = errors.New("invalid config")

type File struct {
	Engine engine.Config   `yaml:"engine"`
	Server Server          `yaml:"server"`
	Sim    Sim             `yaml:"sim"`
	Log    logging.Options `yaml:"log"`
	Store  Store           `yaml:"store"`
}

type Server struct {
	Addr       string        `yaml:"addr"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	SweepEvery time.Duration `yaml:"sweep_every"`
	// Record turns on parquet decision logs under Store.Dir.
	Record bool `yaml:"record"`
}

type Sim struct {
	Games       int   `yaml:"games"`
	Snakes      int   `yaml:"snakes"`
	BoardSize   int   `yaml:"board_size"`
	SnakeLength int   `yaml:"snake_length"`
	Food        int   `yaml:"food"`
	MaxRounds   int   `yaml:"max_rounds"`
	Seed        int64 `yaml:"seed"`
	// Shuffle reorders opponent slots every round.
	Shuffle bool `yaml:"shuffle"`
	// Bots names one bot kind per seat: engine, greedy or remote.
	Bots      []string `yaml:"bots"`
	RemoteURL string   `yaml:"remote_url"`
	Workers   int      `yaml:"workers"`
}

type Store struct {
	Dir        string        `yaml:"dir"`
	FlushRows  int           `yaml:"flush_rows"`
	FlushEvery time.Duration `yaml:"flush_every"`
}

// Duel and four-way board presets.
var (
	DuelSim = Sim{Snakes: 2, BoardSize: 5, SnakeLength: 4, Food: 5, MaxRounds: 50}
	FourSim = Sim{Snakes: 4, BoardSize: 8, SnakeLength: 4, Food: 10, MaxRounds: 100}
)

func Default() File {
	sim := DuelSim
	sim.Games = 100
	sim.Seed = 1
	sim.Bots = []string{"engine", "greedy"}
	sim.Workers = 4
	sim.RemoteURL = "ws://localhost:8000/ws"

	return File{
		Engine: engine.Default(),
		Server: Server{
			Addr:       ":8000",
			SessionTTL: 10 * time.Minute,
			SweepEvery: time.Minute,
		},
		Sim: sim,
		Log: logging.Options{Format: logging.FormatPretty, Level: "info"},
		Store: Store{
			Dir:        "data",
			FlushRows:  10000,
			FlushEvery: time.Minute,
		},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value.
func Load(path string) (File, error) {
	f := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &f); err != nil {
		return f, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return f, fmt.Errorf("config %s: %w", path, err)
	}
	return f, nil
}

// LoadOrDefault loads path, or returns the defaults when path is empty.
func LoadOrDefault(path string) (File, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

func (f File) Validate() error {
	if err := f.Engine.Validate(); err != nil {
		return err
	}
	if err := f.Sim.Validate(); err != nil {
		return err
	}
	if f.Server.SessionTTL < 0 {
		return fmt.Errorf("%w: server.session_ttl=%s", ErrInvalid, f.Server.SessionTTL)
	}
	if f.Store.FlushRows < 0 {
		return fmt.Errorf("%w: store.flush_rows=%d", ErrInvalid, f.Store.FlushRows)
	}
	return nil
}

func (s Sim) Validate() error {
	switch {
	case s.BoardSize <= 0:
		return fmt.Errorf("%w: sim.board_size=%d", ErrInvalid, s.BoardSize)
	case s.Snakes != 2 && s.Snakes != 4:
		return fmt.Errorf("%w: sim.snakes=%d must be 2 or 4", ErrInvalid, s.Snakes)
	case s.SnakeLength < 1:
		return fmt.Errorf("%w: sim.snake_length=%d", ErrInvalid, s.SnakeLength)
	case s.MaxRounds < 1:
		return fmt.Errorf("%w: sim.max_rounds=%d", ErrInvalid, s.MaxRounds)
	case s.Food < 0:
		return fmt.Errorf("%w: sim.food=%d", ErrInvalid, s.Food)
	case len(s.Bots) > s.Snakes:
		return fmt.Errorf("%w: %d bots for %d seats", ErrInvalid, len(s.Bots), s.Snakes)
	}
	return nil
}

// SeatBots returns one bot kind per seat; seats without one play greedy.
func (s Sim) SeatBots() []string {
	bots := make([]string, s.Snakes)
	for i := range bots {
		bots[i] = "greedy"
		if i < len(s.Bots) && s.Bots[i] != "" {
			bots[i] = s.Bots[i]
		}
	}
	return bots
}
