package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brensch/greedysnek/game"
	"github.com/brensch/greedysnek/logging"
	"github.com/brensch/greedysnek/store"
)

// Update is sent once per finished game.
type Update struct {
	Worker int
	Result Result
}

type RunOptions struct {
	Settings Settings
	Games    int
	// Seed of the first game; game i uses Seed+i.
	Seed    int64
	Workers int
	// Bots names the bot kind per seat.
	Bots      []string
	BotConfig BotConfig

	// OutDir receives game result parquet batches; empty disables writing.
	OutDir        string
	GamesPerFlush int
	// SeedLog, when set, skips seeds already recorded and records new ones
	// once their results are on disk.
	SeedLog *store.SeedLog

	Logger  *slog.Logger
	Updates chan<- Update
}

type SeatSummary struct {
	Bot        string
	Wins       int
	TotalScore int
	TotalTime  time.Duration
	Errors     int
}

func (s SeatSummary) AvgScore(games int) float64 {
	if games == 0 {
		return 0
	}
	return float64(s.TotalScore) / float64(games)
}

func (s SeatSummary) AvgTime(games int) time.Duration {
	if games == 0 {
		return 0
	}
	return s.TotalTime / time.Duration(games)
}

type Summary struct {
	Games   int
	Skipped int
	Rounds  int64
	Seats   []SeatSummary
	Files   []string
}

func (s *Summary) add(r Result) {
	s.Games++
	s.Rounds += int64(r.Rounds)
	for i, seat := range r.Seats {
		s.Seats[i].TotalScore += seat.Score
		s.Seats[i].TotalTime += seat.Time
		s.Seats[i].Errors += seat.Errors
		if seat.Rank == 1 {
			s.Seats[i].Wins++
		}
	}
}

// RoundsPlayed counts rounds across every game this process has run.
var RoundsPlayed atomic.Int64

// Run plays opts.Games games across opts.Workers workers and returns the
// aggregate. Cancelling ctx stops handing out new games; finished results are
// still flushed.
func Run(ctx context.Context, opts RunOptions) (Summary, error) {
	if err := opts.Settings.Validate(); err != nil {
		return Summary{}, err
	}
	if len(opts.Bots) != opts.Settings.Snakes {
		return Summary{}, fmt.Errorf("%d bots for %d seats", len(opts.Bots), opts.Settings.Snakes)
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	sum := Summary{Seats: make([]SeatSummary, len(opts.Bots))}
	for i, b := range opts.Bots {
		sum.Seats[i].Bot = b
	}

	seeds := make(chan int64)
	results := make(chan Result, workers)
	var skipped atomic.Int64

	go func() {
		defer close(seeds)
		for i := 0; i < opts.Games; i++ {
			seed := opts.Seed + int64(i)
			if opts.SeedLog != nil && opts.SeedLog.Has(seed) {
				skipped.Add(1)
				continue
			}
			select {
			case <-ctx.Done():
				return
			case seeds <- seed:
			}
		}
	}()

	var wg sync.WaitGroup
	var errMu sync.Mutex
	var firstErr error
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for seed := range seeds {
				res, err := playSeed(ctx, opts, seed, log)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						log.Warn("game aborted", "worker", worker, "seed", seed, "err", err)
						errMu.Lock()
						if firstErr == nil {
							firstErr = err
						}
						errMu.Unlock()
					}
					continue
				}
				results <- res
				if opts.Updates != nil {
					select {
					case opts.Updates <- Update{Worker: worker, Result: res}:
					default:
					}
				}
			}
		}(w)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	flushEvery := opts.GamesPerFlush
	if flushEvery <= 0 {
		flushEvery = 100
	}
	var pending []store.GameResultRow
	var pendingSeeds []int64
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		path, err := store.WriteGamesParquetAtomic(opts.OutDir, pending)
		if err != nil {
			return err
		}
		log.Info("results flushed", "path", path, "games", len(pendingSeeds), "rows", len(pending))
		sum.Files = append(sum.Files, path)
		if opts.SeedLog != nil {
			if err := opts.SeedLog.AddMany(pendingSeeds); err != nil {
				return err
			}
		}
		pending = pending[:0]
		pendingSeeds = pendingSeeds[:0]
		return nil
	}

	var flushErr error
	for res := range results {
		sum.add(res)
		if opts.OutDir == "" {
			continue
		}
		pending = append(pending, res.Rows(opts.Settings)...)
		pendingSeeds = append(pendingSeeds, res.Seed)
		if len(pendingSeeds) >= flushEvery && flushErr == nil {
			flushErr = flush()
		}
		if opts.Settings.RecordTurns && len(res.Turns) > 0 && flushErr == nil {
			if _, err := store.WriteTurnsParquetAtomic(opts.OutDir, res.Turns); err != nil {
				flushErr = err
			}
		}
	}
	if flushErr == nil {
		flushErr = flush()
	}

	sum.Skipped = int(skipped.Load())
	if flushErr != nil {
		return sum, fmt.Errorf("write results: %w", flushErr)
	}
	return sum, firstErr
}

func playSeed(ctx context.Context, opts RunOptions, seed int64, log *slog.Logger) (Result, error) {
	bots := make([]Bot, 0, len(opts.Bots))
	defer func() {
		for _, b := range bots {
			b.Close()
		}
	}()
	for _, kind := range opts.Bots {
		b, err := opts.BotConfig.New(ctx, kind)
		if err != nil {
			return Result{}, err
		}
		bots = append(bots, b)
	}
	return Play(ctx, opts.Settings, seed, bots, log, func(_ *game.GameState) {
		RoundsPlayed.Add(1)
	})
}
