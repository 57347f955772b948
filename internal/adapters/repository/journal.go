package repository

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/evkarev/dailywish/internal/core/domain"
)

var _ domain.GrantJournal = (*FileGrantJournal)(nil)

// FileGrantJournal appends grant events to a JSONL file, one event per
// line. Partial or garbled lines (a crash mid-append) are skipped on read
// so the rest of the journal stays usable.
type FileGrantJournal struct {
	path string
	mu   sync.Mutex
}

func NewFileGrantJournal(path string) (*FileGrantJournal, error) {
	if path == "" {
		return nil, errors.New("empty journal path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("grant journal: create dir: %w", err)
		}
	}
	return &FileGrantJournal{path: path}, nil
}

func (j *FileGrantJournal) Append(ctx context.Context, event domain.GrantEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("grant journal: open: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(&event); err != nil {
		return fmt.Errorf("grant journal: append: %w", err)
	}
	return nil
}

func (j *FileGrantJournal) Tail(ctx context.Context, n int) ([]domain.GrantEvent, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("grant journal: open: %w", err)
	}
	defer f.Close()

	var events []domain.GrantEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event domain.GrantEvent
		if err := json.Unmarshal(line, &event); err != nil {
			log.Printf("grant journal: skipping unreadable line: %v", err)
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("grant journal: read: %w", err)
	}

	if n > 0 && len(events) > n {
		events = events[len(events)-n:]
	}
	return events, nil
}
