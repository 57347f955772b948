package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/evkarev/dailywish/internal/core/domain"
)

var _ domain.RecordRepository = (*FileRepository)(nil)

// FileRepository persists the whole user store as one JSON document keyed
// by decimal user id. Every mutation re-reads and rewrites the full
// document; fine for the expected scale (a handful of users), documented
// as the ceiling. The postgres backend is the keyed alternative.
//
// Writes go through a temp file in the same directory plus rename, so an
// interrupted process never leaves a half-written document behind.
type FileRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileRepository(path string) (*FileRepository, error) {
	if path == "" {
		return nil, errors.New("empty store path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("file repository: create data dir: %w", err)
		}
	}
	return &FileRepository{path: path}, nil
}

// document keeps records as raw JSON so one unparseable record does not
// take the rest of the store down with it, and rewrites preserve records
// this process never touched (corrupt ones included) byte for byte.
type document map[string]json.RawMessage

func recordKey(id domain.UserID) string {
	return strconv.FormatInt(int64(id), 10)
}

func (r *FileRepository) load() (document, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return document{}, nil
		}
		return nil, fmt.Errorf("file repository: read %s: %w", r.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return document{}, nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrStoreCorrupt, r.path, err)
	}
	return doc, nil
}

func (r *FileRepository) writeAtomic(doc document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("file repository: marshal store: %w", err)
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, "wish-store-*.tmp")
	if err != nil {
		return fmt.Errorf("file repository: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("file repository: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("file repository: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("file repository: replace store: %w", err)
	}
	return nil
}

func (r *FileRepository) GetByID(ctx context.Context, id domain.UserID) (*domain.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}

	raw, ok := doc[recordKey(id)]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	var record domain.UserRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("%w: user %d: %v", domain.ErrRecordCorrupt, id, err)
	}
	return &record, nil
}

func (r *FileRepository) Upsert(ctx context.Context, id domain.UserID, record *domain.UserRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("file repository: marshal record for user %d: %w", id, err)
	}
	doc[recordKey(id)] = raw

	return r.writeAtomic(doc)
}

func (r *FileRepository) List(ctx context.Context) (map[domain.UserID]*domain.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}

	out := make(map[domain.UserID]*domain.UserRecord, len(doc))
	for key, raw := range doc {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			log.Printf("file repository: skipping record with bad key %q: %v", key, err)
			continue
		}
		var record domain.UserRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			log.Printf("file repository: skipping corrupt record for user %s: %v", key, err)
			continue
		}
		out[domain.UserID(id)] = &record
	}
	return out, nil
}
