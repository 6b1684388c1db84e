// Package stats queries recorded decisions and simulator results with DuckDB.
//
// Open scans the given roots for parquet shards written by the store package
// and exposes them as two views, decisions and games. Shards still under a
// tmp/ directory are skipped.
package stats

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/brensch/greedysnek/game"
)

const (
	decisionPrefix = "decisions_"
	gamePrefix     = "games_"
)

const emptyDecisions = `CREATE OR REPLACE VIEW decisions AS
	SELECT * FROM (
		SELECT
			NULL::VARCHAR AS session_id,
			NULL::INTEGER AS round,
			NULL::INTEGER AS n,
			NULL::INTEGER AS opponent_count,
			NULL::INTEGER AS mode,
			NULL::BOOLEAN AS dead,
			NULL::INTEGER AS move,
			NULL::REAL AS own_score,
			NULL::STRUCT(
				direction INTEGER,
				rejected VARCHAR,
				food REAL,
				survival REAL,
				aggression REAL,
				total REAL,
				area INTEGER
			)[] AS directions,
			NULL::BIGINT AS latency_us,
			NULL::BIGINT AS recorded_ns
	) WHERE 1=0`

const emptyGames = `CREATE OR REPLACE VIEW games AS
	SELECT * FROM (
		SELECT
			NULL::VARCHAR AS game_id,
			NULL::BIGINT AS seed,
			NULL::INTEGER AS board_size,
			NULL::INTEGER AS snakes,
			NULL::INTEGER AS rounds,
			NULL::INTEGER AS seat,
			NULL::VARCHAR AS bot,
			NULL::INTEGER AS score,
			NULL::BOOLEAN AS alive,
			NULL::DOUBLE AS time_ms,
			NULL::INTEGER AS rank,
			NULL::BOOLEAN AS winner
	) WHERE 1=0`

type DB struct {
	db        *sql.DB
	Decisions int
	Games     int
}

// Open builds an in-memory DuckDB with views over every shard under roots.
func Open(roots ...string) (*DB, error) {
	decisions, games, err := findShards(roots)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, err
	}
	_, _ = db.Exec("PRAGMA threads=4")

	if err := createView(db, "decisions", decisions, emptyDecisions); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := createView(db, "games", games, emptyGames); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db: db, Decisions: len(decisions), Games: len(games)}, nil
}

func (d *DB) Close() error { return d.db.Close() }

func createView(db *sql.DB, name string, files []string, empty string) error {
	if len(files) == 0 {
		if _, err := db.Exec(empty); err != nil {
			return fmt.Errorf("create empty %s view: %w", name, err)
		}
		return nil
	}
	arr := make([]string, 0, len(files))
	for _, p := range files {
		arr = append(arr, "'"+escapeSQLString(p)+"'")
	}
	sqlText := "CREATE OR REPLACE VIEW " + name + " AS SELECT * FROM read_parquet([" +
		strings.Join(arr, ",") + "], union_by_name=true)"
	if _, err := db.Exec(sqlText); err != nil {
		return fmt.Errorf("create %s view: %w", name, err)
	}
	return nil
}

// findShards walks roots and sorts parquet files by the writer that made them.
func findShards(roots []string) (decisions, games []string, err error) {
	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if d.Name() == "tmp" {
					return filepath.SkipDir
				}
				return nil
			}
			name := d.Name()
			if !strings.HasSuffix(name, ".parquet") {
				return nil
			}
			switch {
			case strings.HasPrefix(name, decisionPrefix):
				decisions = append(decisions, path)
			case strings.HasPrefix(name, gamePrefix):
				games = append(games, path)
			}
			return nil
		})
		if err != nil {
			return nil, nil, fmt.Errorf("scan %s: %w", root, err)
		}
	}
	sort.Strings(decisions)
	sort.Strings(games)
	return decisions, games, nil
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

type MoveCount struct {
	Move  game.Direction
	Count int64
}

// MoveDistribution counts chosen moves over live rounds.
func (d *DB) MoveDistribution(ctx context.Context) ([]MoveCount, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT move, COUNT(*) FROM decisions
		WHERE NOT dead GROUP BY move ORDER BY move`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MoveCount
	for rows.Next() {
		var move int
		var mc MoveCount
		if err := rows.Scan(&move, &mc.Count); err != nil {
			return nil, err
		}
		mc.Move = game.Direction(move)
		out = append(out, mc)
	}
	return out, rows.Err()
}

type SessionSummary struct {
	SessionID  string
	Rounds     int64
	DeadRounds int64
	FinalScore float64
	MeanRound  time.Duration
}

// Sessions summarises every recorded session, busiest first.
func (d *DB) Sessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT
			session_id,
			COUNT(*) AS rounds,
			COUNT(*) FILTER (WHERE dead) AS dead_rounds,
			COALESCE(MAX(own_score), 0)::DOUBLE AS final_score,
			COALESCE(AVG(latency_us), 0)::DOUBLE AS mean_us
		FROM decisions
		GROUP BY session_id
		ORDER BY rounds DESC, session_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var s SessionSummary
		var meanUs float64
		if err := rows.Scan(&s.SessionID, &s.Rounds, &s.DeadRounds, &s.FinalScore, &meanUs); err != nil {
			return nil, err
		}
		s.MeanRound = time.Duration(meanUs * float64(time.Microsecond))
		out = append(out, s)
	}
	return out, rows.Err()
}

type DirectionMeans struct {
	Direction  game.Direction
	Legal      int64
	Food       float64
	Survival   float64
	Aggression float64
	Total      float64
}

// MeanTotals averages the sub-scores of every legal evaluated direction.
func (d *DB) MeanTotals(ctx context.Context) ([]DirectionMeans, error) {
	rows, err := d.db.QueryContext(ctx, `WITH evals AS (
			SELECT unnest(directions) AS e FROM decisions WHERE NOT dead
		)
		SELECT
			e.direction,
			COUNT(*),
			AVG(e.food)::DOUBLE,
			AVG(e.survival)::DOUBLE,
			AVG(e.aggression)::DOUBLE,
			AVG(e.total)::DOUBLE
		FROM evals
		WHERE e.rejected = ''
		GROUP BY e.direction
		ORDER BY e.direction`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DirectionMeans
	for rows.Next() {
		var dir int
		var m DirectionMeans
		if err := rows.Scan(&dir, &m.Legal, &m.Food, &m.Survival, &m.Aggression, &m.Total); err != nil {
			return nil, err
		}
		m.Direction = game.Direction(dir)
		out = append(out, m)
	}
	return out, rows.Err()
}

type Latency struct {
	Count int64
	Mean  time.Duration
	P50   time.Duration
	P99   time.Duration
	Max   time.Duration
}

// DecisionLatency summarises time spent inside Decide.
func (d *DB) DecisionLatency(ctx context.Context) (Latency, error) {
	var l Latency
	var mean, p50, p99 float64
	var maxUs int64
	err := d.db.QueryRowContext(ctx, `SELECT
			COUNT(*),
			COALESCE(AVG(latency_us), 0)::DOUBLE,
			COALESCE(quantile_cont(latency_us, 0.5), 0)::DOUBLE,
			COALESCE(quantile_cont(latency_us, 0.99), 0)::DOUBLE,
			COALESCE(MAX(latency_us), 0)::BIGINT
		FROM decisions`).Scan(&l.Count, &mean, &p50, &p99, &maxUs)
	if err != nil {
		return Latency{}, err
	}
	us := func(v float64) time.Duration { return time.Duration(v * float64(time.Microsecond)) }
	l.Mean, l.P50, l.P99 = us(mean), us(p50), us(p99)
	l.Max = time.Duration(maxUs) * time.Microsecond
	return l, nil
}

type BotSummary struct {
	Bot        string
	Games      int64
	Wins       int64
	Survived   int64
	MeanScore  float64
	MeanTimeMs float64
}

func (b BotSummary) WinRate() float64 {
	if b.Games == 0 {
		return 0
	}
	return float64(b.Wins) / float64(b.Games)
}

// WinsByBot ranks bots by wins across all simulated games.
func (d *DB) WinsByBot(ctx context.Context) ([]BotSummary, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT
			bot,
			COUNT(*) AS games,
			COUNT(*) FILTER (WHERE winner) AS wins,
			COUNT(*) FILTER (WHERE alive) AS survived,
			AVG(score)::DOUBLE,
			AVG(time_ms)::DOUBLE
		FROM games
		GROUP BY bot
		ORDER BY wins DESC, bot`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BotSummary
	for rows.Next() {
		var b BotSummary
		if err := rows.Scan(&b.Bot, &b.Games, &b.Wins, &b.Survived, &b.MeanScore, &b.MeanTimeMs); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Report gathers every summary in one pass.
type Report struct {
	Moves    []MoveCount
	Sessions []SessionSummary
	Totals   []DirectionMeans
	Latency  Latency
	Bots     []BotSummary
}

func (d *DB) Report(ctx context.Context) (Report, error) {
	var r Report
	var err error
	if r.Moves, err = d.MoveDistribution(ctx); err != nil {
		return r, fmt.Errorf("move distribution: %w", err)
	}
	if r.Sessions, err = d.Sessions(ctx); err != nil {
		return r, fmt.Errorf("sessions: %w", err)
	}
	if r.Totals, err = d.MeanTotals(ctx); err != nil {
		return r, fmt.Errorf("mean totals: %w", err)
	}
	if r.Latency, err = d.DecisionLatency(ctx); err != nil {
		return r, fmt.Errorf("latency: %w", err)
	}
	if r.Bots, err = d.WinsByBot(ctx); err != nil {
		return r, fmt.Errorf("wins by bot: %w", err)
	}
	return r, nil
}
