package stats

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brensch/greedysnek/game"
	"github.com/brensch/greedysnek/store"
)

func writeFixtures(t *testing.T, dir string) {
	t.Helper()
	w, err := store.NewDecisionWriter(filepath.Join(dir, "decisions"), 0)
	if err != nil {
		t.Fatalf("writer: %v", err)
	}
	rows := []store.DecisionRow{
		{
			SessionID: "a", Round: 0, N: 5, Move: int32(game.Up), LatencyUs: 100,
			Directions: []store.DirectionScore{
				{Direction: int32(game.Up), Food: 1, Total: 10},
				{Direction: int32(game.Right), Rejected: "wall"},
			},
		},
		{
			SessionID: "a", Round: 1, N: 5, Move: int32(game.Right), LatencyUs: 300, OwnScore: 1,
			Directions: []store.DirectionScore{
				{Direction: int32(game.Up), Food: 3, Total: 20},
				{Direction: int32(game.Right), Total: 6},
			},
		},
		{SessionID: "b", Round: 4, N: 5, Dead: true, LatencyUs: 200},
	}
	if err := w.Write(rows...); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	games := []store.GameResultRow{
		{GameID: "g1", Seat: 0, Bot: "engine", Score: 4, Alive: true, TimeMs: 2, Rank: 1, Winner: true},
		{GameID: "g1", Seat: 1, Bot: "greedy", Score: 2, TimeMs: 1, Rank: 2},
		{GameID: "g2", Seat: 0, Bot: "engine", Score: 6, Alive: true, TimeMs: 4, Rank: 1, Winner: true},
		{GameID: "g2", Seat: 1, Bot: "greedy", Score: 6, Alive: true, TimeMs: 1, Rank: 2},
	}
	if _, err := store.WriteGamesParquetAtomic(filepath.Join(dir, "sim"), games); err != nil {
		t.Fatalf("games: %v", err)
	}

	// A half-written shard must never be read.
	tmp := filepath.Join(dir, "decisions", "tmp")
	if err := os.MkdirAll(tmp, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmp, "decisions_partial.parquet.tmp"), []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmp, "decisions_partial.parquet"), []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReport(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)

	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
	if db.Decisions != 1 || db.Games != 1 {
		t.Fatalf("shards decisions=%d games=%d", db.Decisions, db.Games)
	}

	r, err := db.Report(context.Background())
	if err != nil {
		t.Fatalf("Report: %v", err)
	}

	if len(r.Moves) != 2 || r.Moves[0] != (MoveCount{game.Up, 1}) || r.Moves[1] != (MoveCount{game.Right, 1}) {
		t.Fatalf("moves=%+v", r.Moves)
	}

	if len(r.Sessions) != 2 {
		t.Fatalf("sessions=%+v", r.Sessions)
	}
	if a := r.Sessions[0]; a.SessionID != "a" || a.Rounds != 2 || a.DeadRounds != 0 || a.FinalScore != 1 || a.MeanRound != 200*time.Microsecond {
		t.Fatalf("session a=%+v", a)
	}
	if b := r.Sessions[1]; b.SessionID != "b" || b.DeadRounds != 1 {
		t.Fatalf("session b=%+v", b)
	}

	if len(r.Totals) != 2 {
		t.Fatalf("totals=%+v", r.Totals)
	}
	if up := r.Totals[0]; up.Direction != game.Up || up.Legal != 2 || up.Total != 15 || up.Food != 2 {
		t.Fatalf("up=%+v", up)
	}
	if right := r.Totals[1]; right.Direction != game.Right || right.Legal != 1 || right.Total != 6 {
		t.Fatalf("right=%+v", right)
	}

	if r.Latency.Count != 3 || r.Latency.Mean != 200*time.Microsecond || r.Latency.Max != 300*time.Microsecond {
		t.Fatalf("latency=%+v", r.Latency)
	}

	if len(r.Bots) != 2 {
		t.Fatalf("bots=%+v", r.Bots)
	}
	if e := r.Bots[0]; e.Bot != "engine" || e.Games != 2 || e.Wins != 2 || e.MeanScore != 5 || e.WinRate() != 1 {
		t.Fatalf("engine=%+v", e)
	}
	if g := r.Bots[1]; g.Bot != "greedy" || g.Wins != 0 || g.Survived != 1 {
		t.Fatalf("greedy=%+v", g)
	}
}

func TestReportEmpty(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	r, err := db.Report(context.Background())
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if len(r.Moves) != 0 || len(r.Sessions) != 0 || len(r.Bots) != 0 || r.Latency.Count != 0 {
		t.Fatalf("report=%+v", r)
	}
}
