// Command snakesim plays batches of local games between bots and writes the
// results to parquet.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/greedysnek/config"
	"github.com/brensch/greedysnek/logging"
	"github.com/brensch/greedysnek/sim"
	"github.com/brensch/greedysnek/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "snakesim:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", config.EnvOr("CONFIG", ""), "YAML config file; defaults apply when empty")
	mode := flag.String("mode", config.EnvOr("MODE", ""), "Board preset: duel or four; overrides the config's board settings")
	games := flag.Int("games", config.EnvInt("GAMES", 0), "Games to play, overrides sim.games")
	workers := flag.Int("workers", config.EnvInt("WORKERS", 0), "Parallel games, overrides sim.workers")
	seed := flag.Int64("seed", config.EnvInt64("SEED", 0), "First seed, overrides sim.seed")
	bots := flag.String("bots", config.EnvOr("BOTS", ""), "Comma-separated bot per seat: engine, greedy, remote")
	remote := flag.String("remote", config.EnvOr("REMOTE_URL", ""), "Websocket URL for remote bots")
	outDir := flag.String("out-dir", config.EnvOr("OUT_DIR", ""), "Result parquet directory, overrides store.dir")
	gamesPerFlush := flag.Int("games-per-flush", config.EnvInt("GAMES_PER_FLUSH", 100), "Games buffered per parquet flush")
	seedLogPath := flag.String("seed-log", config.EnvOr("SEED_LOG", ""), "Append-only log of finished seeds; reruns skip them")
	recordTurns := flag.Bool("record-turns", config.EnvBool("RECORD_TURNS", false), "Also write every round of every game")
	shuffle := flag.Bool("shuffle", config.EnvBool("SHUFFLE", false), "Shuffle opponent slots every round")
	noTUI := flag.Bool("no-tui", config.EnvBool("NO_TUI", false), "Log progress instead of showing the dashboard")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		return err
	}
	switch *mode {
	case "":
	case "duel", "four":
		preset := config.DuelSim
		if *mode == "four" {
			preset = config.FourSim
		}
		cfg.Sim.Snakes = preset.Snakes
		cfg.Sim.BoardSize = preset.BoardSize
		cfg.Sim.SnakeLength = preset.SnakeLength
		cfg.Sim.Food = preset.Food
		cfg.Sim.MaxRounds = preset.MaxRounds
	default:
		return fmt.Errorf("unknown mode %q", *mode)
	}
	if *games > 0 {
		cfg.Sim.Games = *games
	}
	if *workers > 0 {
		cfg.Sim.Workers = *workers
	}
	if *seed != 0 {
		cfg.Sim.Seed = *seed
	}
	if *bots != "" {
		cfg.Sim.Bots = strings.Split(*bots, ",")
	}
	if *remote != "" {
		cfg.Sim.RemoteURL = *remote
	}
	if *outDir != "" {
		cfg.Store.Dir = *outDir
	}
	if *shuffle {
		cfg.Sim.Shuffle = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// The dashboard owns the terminal, so logs go to a file next to the results.
	logOut := io.Writer(os.Stderr)
	if !*noTUI {
		if err := os.MkdirAll(cfg.Store.Dir, 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(filepath.Join(cfg.Store.Dir, "snakesim.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}
	log, err := logging.New(logOut, cfg.Log)
	if err != nil {
		return err
	}

	var seedLog *store.SeedLog
	if *seedLogPath != "" {
		seedLog, err = store.OpenSeedLog(*seedLogPath)
		if err != nil {
			return err
		}
		defer seedLog.Close()
		log.Info("seed log opened", "path", *seedLogPath, "done", seedLog.Count())
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	seats := cfg.Sim.SeatBots()
	updates := make(chan sim.Update, cfg.Sim.Workers*4)
	opts := sim.RunOptions{
		Settings: sim.Settings{
			BoardSize:   cfg.Sim.BoardSize,
			Snakes:      cfg.Sim.Snakes,
			SnakeLength: cfg.Sim.SnakeLength,
			Food:        cfg.Sim.Food,
			MaxRounds:   cfg.Sim.MaxRounds,
			Shuffle:     cfg.Sim.Shuffle,
			RecordTurns: *recordTurns,
		},
		Games:   cfg.Sim.Games,
		Seed:    cfg.Sim.Seed,
		Workers: cfg.Sim.Workers,
		Bots:    seats,
		BotConfig: sim.BotConfig{
			Engine:    cfg.Engine,
			RemoteURL: cfg.Sim.RemoteURL,
			Logger:    log.WithGroup("bot"),
		},
		OutDir:        cfg.Store.Dir,
		GamesPerFlush: *gamesPerFlush,
		SeedLog:       seedLog,
		Logger:        log,
		Updates:       updates,
	}
	log.Info("starting simulation",
		"games", cfg.Sim.Games,
		"workers", cfg.Sim.Workers,
		"board", cfg.Sim.BoardSize,
		"bots", strings.Join(seats, ","),
		"out_dir", cfg.Store.Dir,
	)

	type outcome struct {
		sum sim.Summary
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		sum, err := sim.Run(ctx, opts)
		done <- outcome{sum, err}
	}()

	var out outcome
	if *noTUI {
		out = logProgress(ctx, log, updates, done)
	} else {
		p := tea.NewProgram(newModel(seats, cfg.Sim.Games, updates), tea.WithAltScreen())
		finished := make(chan outcome, 1)
		go func() {
			o := <-done
			finished <- o
			p.Send(doneMsg{})
		}()
		if _, err := p.Run(); err != nil {
			cancel()
			return err
		}
		// Quitting the dashboard early cancels the run; wait for the final flush.
		cancel()
		out = <-finished
	}

	printSummary(os.Stdout, out.sum)
	return out.err
}

func logProgress[T any](ctx context.Context, log *slog.Logger, updates <-chan sim.Update, done <-chan T) T {
	start := time.Now()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	games := 0
	for {
		select {
		case out := <-done:
			return out
		case u := <-updates:
			games++
			winner := u.Result.Winner()
			log.Info("game finished",
				"worker", u.Worker,
				"seed", u.Result.Seed,
				"rounds", u.Result.Rounds,
				"winner", winner,
				"winner_bot", u.Result.Seats[winner].Bot,
			)
		case <-ticker.C:
			elapsed := time.Since(start).Seconds()
			log.Info("progress",
				"games", games,
				"games_per_sec", float64(games)/elapsed,
				"rounds_per_sec", float64(sim.RoundsPlayed.Load())/elapsed,
			)
		case <-ctx.Done():
			return <-done
		}
	}
}

func printSummary(w io.Writer, sum sim.Summary) {
	fmt.Fprintf(w, "games=%d skipped=%d rounds=%d files=%d\n", sum.Games, sum.Skipped, sum.Rounds, len(sum.Files))
	for i, s := range sum.Seats {
		fmt.Fprintf(w, "seat %d %-7s wins=%-5d avg_score=%-6.2f avg_time=%-10s errors=%d\n",
			i, s.Bot, s.Wins, s.AvgScore(sum.Games), s.AvgTime(sum.Games).Round(time.Microsecond), s.Errors)
	}
}
