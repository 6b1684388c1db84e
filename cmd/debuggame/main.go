// Command debuggame plays one seeded game with the engine in seat 0, prints
// every round with the engine's per-direction scores and writes the replay to
// parquet.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brensch/greedysnek/config"
	"github.com/brensch/greedysnek/engine"
	"github.com/brensch/greedysnek/game"
	"github.com/brensch/greedysnek/logging"
	"github.com/brensch/greedysnek/sim"
	"github.com/brensch/greedysnek/store"
)

// explainBot is an engine seat that keeps its last decision for printing.
type explainBot struct {
	session *engine.Session
	last    engine.Decision
}

func (b *explainBot) Name() string { return sim.BotEngine }

func (b *explainBot) Move(_ context.Context, snap game.Snapshot) (game.Direction, error) {
	b.last = b.session.Decide(snap)
	return b.last.Move, nil
}

func (b *explainBot) Close() error { return nil }

func main() {
	configPath := flag.String("config", config.EnvOr("CONFIG", ""), "YAML config file; defaults apply when empty")
	seed := flag.Int64("seed", 1, "Game seed")
	four := flag.Bool("four", false, "Play the four-snake preset instead of the duel")
	opponent := flag.String("opponent", sim.BotGreedy, "Bot kind for every other seat")
	outDir := flag.String("out-dir", "debug_games", "Output directory for the replay")
	verbose := flag.Bool("v", false, "Log engine internals at debug level")
	flag.Parse()

	if err := run(*configPath, *seed, *four, *opponent, *outDir, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, "debuggame:", err)
		os.Exit(1)
	}
}

func run(configPath string, seed int64, four bool, opponent, outDir string, verbose bool) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	preset := config.DuelSim
	if four {
		preset = config.FourSim
	}
	settings := sim.Settings{
		BoardSize:   preset.BoardSize,
		Snakes:      preset.Snakes,
		SnakeLength: preset.SnakeLength,
		Food:        preset.Food,
		MaxRounds:   preset.MaxRounds,
		Shuffle:     true,
		RecordTurns: true,
	}

	logOpts := cfg.Log
	if verbose {
		logOpts.Level = "debug"
	}
	log, err := logging.New(os.Stderr, logOpts)
	if err != nil {
		return err
	}

	session, err := engine.NewSession(cfg.Engine, engine.WithLogger(log.WithGroup("engine")))
	if err != nil {
		return err
	}
	me := &explainBot{session: session}
	bots := []sim.Bot{me}
	botCfg := sim.BotConfig{Engine: cfg.Engine, RemoteURL: cfg.Sim.RemoteURL}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	for len(bots) < settings.Snakes {
		b, err := botCfg.New(ctx, opponent)
		if err != nil {
			return err
		}
		defer b.Close()
		bots = append(bots, b)
	}

	onRound := func(state *game.GameState) {
		bodies := make([][]game.Point, 0, len(state.Snakes))
		for _, s := range state.Snakes {
			if s.Alive {
				bodies = append(bodies, s.Body)
			}
		}
		if !state.Snakes[0].Alive {
			fmt.Printf("round %d  engine dead\n", state.Round)
		} else {
			fmt.Printf("round %d  engine move %s\n", state.Round, me.last.Move)
			for _, ev := range me.last.Evaluations {
				if !ev.Legal() {
					fmt.Printf("  %-5s rejected (%s)\n", ev.Direction, ev.Rejected)
					continue
				}
				fmt.Printf("  %-5s food=%8.2f survival=%8.2f aggression=%8.2f total=%9.2f area=%d\n",
					ev.Direction, ev.Food, ev.Survival, ev.Aggression, ev.Total, ev.Area)
			}
		}
		fmt.Println(indent(game.Render(state.Size, state.Food, bodies...)))
	}

	res, err := sim.Play(ctx, settings, seed, bots, log, onRound)
	if err != nil {
		return err
	}

	path, err := store.WriteTurnsParquetAtomic(outDir, res.Turns)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("  game %s: %d rounds, winner seat %d\n", res.GameID, res.Rounds, res.Winner())
	for i, s := range res.Seats {
		fmt.Printf("  seat %d %-7s score=%d alive=%v rank=%d\n", i, s.Bot, s.Score, s.Alive, s.Rank)
	}
	fmt.Printf("  replay: %s\n", path)
	fmt.Println("═══════════════════════════════════════════════════════════════")
	return nil
}

func indent(s string) string {
	return "    " + strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n    ")
}
