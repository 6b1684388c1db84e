package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// SeedLog is an append-only record of simulator seeds whose games have been
// written, one decimal seed per line. A rerun of the simulator consults it to
// skip finished games. Unparseable lines are ignored, so a torn final write
// only costs that one game.
type SeedLog struct {
	mu   sync.RWMutex
	path string
	file *os.File
	done map[int64]struct{}
}

func OpenSeedLog(path string) (*SeedLog, error) {
	if path == "" {
		return nil, fmt.Errorf("seed log path is required")
	}

	done := make(map[int64]struct{})
	if f, err := os.Open(path); err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			seed, err := strconv.ParseInt(strings.TrimSpace(scanner.Text()), 10, 64)
			if err != nil {
				continue
			}
			done[seed] = struct{}{}
		}
		_ = f.Close()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create seed log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open seed log: %w", err)
	}
	return &SeedLog{path: path, file: file, done: done}, nil
}

func (l *SeedLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *SeedLog) Has(seed int64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.done[seed]
	return ok
}

func (l *SeedLog) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.done)
}

// AddMany appends the seeds not yet present and syncs once.
func (l *SeedLog) AddMany(seeds []int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return ErrClosed
	}

	var b strings.Builder
	fresh := make([]int64, 0, len(seeds))
	seen := make(map[int64]bool, len(seeds))
	for _, s := range seeds {
		if _, ok := l.done[s]; ok || seen[s] {
			continue
		}
		seen[s] = true
		b.WriteString(strconv.FormatInt(s, 10))
		b.WriteByte('\n')
		fresh = append(fresh, s)
	}
	if len(fresh) == 0 {
		return nil
	}
	if _, err := l.file.WriteString(b.String()); err != nil {
		return fmt.Errorf("append seed log: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync seed log: %w", err)
	}
	for _, s := range fresh {
		l.done[s] = struct{}{}
	}
	return nil
}
