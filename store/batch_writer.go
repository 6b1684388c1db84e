package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"
)

var ErrClosed = errors.New("writer is closed")

// batch is one parquet file being written under tmp/.
type batch[T any] struct {
	tmpPath string
	outPath string
	file    *os.File
	writer  *parquet.GenericWriter[T]
	rows    int
	opened  time.Time
}

func openBatch[T any](outDir, prefix, schema string) (*batch[T], error) {
	tmpDir := filepath.Join(outDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("create tmp dir: %w", err)
	}

	name := fileName(prefix)
	tmpPath := filepath.Join(tmpDir, name)
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open tmp parquet: %w", err)
	}

	return &batch[T]{
		tmpPath: tmpPath,
		outPath: filepath.Join(outDir, name),
		file:    f,
		writer:  parquet.NewGenericWriter[T](f, writerOptions(schema)...),
		opened:  time.Now(),
	}, nil
}

// finalize closes the file and moves it out of tmp/. Empty batches are
// removed and report an empty path.
func (b *batch[T]) finalize() (string, int, error) {
	closeErr := b.writer.Close()
	_ = b.file.Sync()
	fileErr := b.file.Close()
	if closeErr != nil {
		_ = os.Remove(b.tmpPath)
		return "", 0, fmt.Errorf("close parquet writer: %w", closeErr)
	}
	if fileErr != nil {
		_ = os.Remove(b.tmpPath)
		return "", 0, fmt.Errorf("close parquet file: %w", fileErr)
	}

	if b.rows == 0 {
		_ = os.Remove(b.tmpPath)
		return "", 0, nil
	}
	if err := os.Rename(b.tmpPath, b.outPath); err != nil {
		return "", 0, fmt.Errorf("rename parquet: %w", err)
	}
	return b.outPath, b.rows, nil
}

// BatchWriter appends rows to a rolling parquet file and publishes it once it
// holds maxRows rows, or on Flush and Close. Safe for concurrent use.
type BatchWriter[T any] struct {
	mu      sync.Mutex
	outDir  string
	prefix  string
	schema  string
	maxRows int

	cur    *batch[T]
	closed bool

	files int
	rows  int
}

// NewBatchWriter writes to outDir. maxRows <= 0 never rolls on size.
func NewBatchWriter[T any](outDir, prefix, schema string, maxRows int) (*BatchWriter[T], error) {
	if outDir == "" {
		return nil, fmt.Errorf("outDir is required")
	}
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		absOut = outDir
	}
	if err := os.MkdirAll(absOut, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &BatchWriter[T]{
		outDir:  absOut,
		prefix:  prefix,
		schema:  schema,
		maxRows: maxRows,
	}, nil
}

// NewDecisionWriter is the writer used for engine decision logs.
func NewDecisionWriter(outDir string, maxRows int) (*BatchWriter[DecisionRow], error) {
	return NewBatchWriter[DecisionRow](outDir, "decisions", SchemaDecision, maxRows)
}

func (w *BatchWriter[T]) Dir() string { return w.outDir }

// Stats returns the number of files published and rows written in total.
func (w *BatchWriter[T]) Stats() (files, rows int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files, w.rows
}

// Buffered is the number of rows waiting in the unpublished file.
func (w *BatchWriter[T]) Buffered() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cur == nil {
		return 0
	}
	return w.cur.rows
}

func (w *BatchWriter[T]) Write(rows ...T) error {
	if len(rows) == 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}

	if w.cur == nil {
		b, err := openBatch[T](w.outDir, w.prefix, w.schema)
		if err != nil {
			return err
		}
		w.cur = b
	}
	if _, err := w.cur.writer.Write(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	w.cur.rows += len(rows)
	w.rows += len(rows)

	if w.maxRows > 0 && w.cur.rows >= w.maxRows {
		_, err := w.flushLocked()
		return err
	}
	return nil
}

// Flush publishes the current file, if it has rows, and returns its path.
func (w *BatchWriter[T]) Flush() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return "", ErrClosed
	}
	return w.flushLocked()
}

// FlushOlderThan publishes the current file when it was opened more than age
// ago. Used by periodic flush loops.
func (w *BatchWriter[T]) FlushOlderThan(age time.Duration) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return "", ErrClosed
	}
	if w.cur == nil || time.Since(w.cur.opened) < age {
		return "", nil
	}
	return w.flushLocked()
}

func (w *BatchWriter[T]) flushLocked() (string, error) {
	if w.cur == nil {
		return "", nil
	}
	b := w.cur
	w.cur = nil
	path, _, err := b.finalize()
	if err != nil {
		return "", err
	}
	if path != "" {
		w.files++
	}
	return path, nil
}

// Close publishes any buffered rows. Further writes return ErrClosed.
func (w *BatchWriter[T]) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	_, err := w.flushLocked()
	w.closed = true
	return err
}
