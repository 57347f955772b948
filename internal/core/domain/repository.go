package domain

import (
	"context"
	"errors"
)

var (
	ErrRecordNotFound = errors.New("user record not found")

	// ErrStoreCorrupt means the persisted document as a whole cannot be
	// parsed. It must be propagated, never papered over with an empty
	// store, so no data is silently lost.
	ErrStoreCorrupt = errors.New("user store is corrupt")

	// ErrRecordCorrupt means one user's stored record cannot be parsed.
	// Only that user's requests fail; the rest of the store stays usable.
	ErrRecordCorrupt = errors.New("user record is corrupt")
)

type RecordRepository interface {
	// GetByID retrieves one record. Returns ErrRecordNotFound for a user
	// never seen before; callers start such users from NewUserRecord
	// without persisting anything.
	GetByID(ctx context.Context, id UserID) (*UserRecord, error)

	// Upsert persists the record for id atomically: either the whole
	// update is observable afterwards or the previous state is intact.
	Upsert(ctx context.Context, id UserID, record *UserRecord) error

	// List returns every parseable record keyed by user id. Corrupt
	// records are skipped, not destroyed.
	List(ctx context.Context) (map[UserID]*UserRecord, error)
}
