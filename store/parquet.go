package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

const (
	SchemaDecision   = "decision_v1"
	SchemaGameResult = "game_result_v1"
	SchemaTurn       = "sim_turn_v1"
)

// fileName is unique per call even when two batches land in the same
// nanosecond.
func fileName(prefix string) string {
	return fmt.Sprintf("%s_%d_%s.parquet", prefix, time.Now().UnixNano(), uuid.NewString()[:8])
}

func writerOptions(schema string) []parquet.WriterOption {
	return []parquet.WriterOption{
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", schema),
	}
}

// writeAtomic writes rows into outDir/tmp and then moves the file into
// outDir, so readers globbing outDir never see a partial file.
func writeAtomic[T any](outDir, prefix, schema string, rows []T) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmpDir := filepath.Join(outDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	name := fileName(prefix)
	finalPath := filepath.Join(outDir, name)
	tmpPath := filepath.Join(tmpDir, name+".tmp")
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows, writerOptions(schema)...); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}
	return finalPath, nil
}

// WriteGamesParquetAtomic writes one batch of game results to outDir.
func WriteGamesParquetAtomic(outDir string, rows []GameResultRow) (string, error) {
	return writeAtomic(outDir, "games", SchemaGameResult, rows)
}

// WriteTurnsParquetAtomic writes the replay of one or more games to outDir.
func WriteTurnsParquetAtomic(outDir string, rows []TurnRow) (string, error) {
	return writeAtomic(outDir, "turns", SchemaTurn, rows)
}

func ReadDecisions(path string) ([]DecisionRow, error) {
	return parquet.ReadFile[DecisionRow](path)
}

func ReadGames(path string) ([]GameResultRow, error) {
	return parquet.ReadFile[GameResultRow](path)
}

func ReadTurns(path string) ([]TurnRow, error) {
	return parquet.ReadFile[TurnRow](path)
}
