// Command decisionstats summarises recorded decisions and simulator results.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/brensch/greedysnek/config"
	"github.com/brensch/greedysnek/stats"
)

func main() {
	dirs := flag.String("dirs", config.EnvOr("DATA_DIRS", "data"), "Comma-separated directories to scan for parquet shards")
	top := flag.Int("top", config.EnvInt("TOP", 10), "Sessions to list")
	timeout := flag.Duration("timeout", config.EnvDuration("TIMEOUT", time.Minute), "Query timeout")
	flag.Parse()

	if err := run(os.Stdout, strings.Split(*dirs, ","), *top, *timeout); err != nil {
		fmt.Fprintln(os.Stderr, "decisionstats:", err)
		os.Exit(1)
	}
}

func run(w io.Writer, roots []string, top int, timeout time.Duration) error {
	db, err := stats.Open(roots...)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	r, err := db.Report(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "shards: decisions=%d games=%d\n\n", db.Decisions, db.Games)

	fmt.Fprintln(w, "moves:")
	for _, m := range r.Moves {
		fmt.Fprintf(w, "  %-6s %d\n", m.Move, m.Count)
	}

	fmt.Fprintln(w, "\nmean scores of legal directions:")
	for _, d := range r.Totals {
		fmt.Fprintf(w, "  %-6s n=%-8d food=%-9.2f survival=%-9.2f aggression=%-9.2f total=%.2f\n",
			d.Direction, d.Legal, d.Food, d.Survival, d.Aggression, d.Total)
	}

	l := r.Latency
	fmt.Fprintf(w, "\nlatency: n=%d mean=%s p50=%s p99=%s max=%s\n", l.Count, l.Mean, l.P50, l.P99, l.Max)

	fmt.Fprintf(w, "\nsessions: %d\n", len(r.Sessions))
	for i, s := range r.Sessions {
		if i >= top {
			break
		}
		fmt.Fprintf(w, "  %-36s rounds=%-5d dead=%-5d score=%-5.0f mean=%s\n",
			s.SessionID, s.Rounds, s.DeadRounds, s.FinalScore, s.MeanRound)
	}

	if len(r.Bots) > 0 {
		fmt.Fprintln(w, "\nbots:")
		for _, b := range r.Bots {
			fmt.Fprintf(w, "  %-7s games=%-6d wins=%-6d rate=%.3f survived=%-6d score=%.2f time=%.2fms\n",
				b.Bot, b.Games, b.Wins, b.WinRate(), b.Survived, b.MeanScore, b.MeanTimeMs)
		}
	}
	return nil
}
