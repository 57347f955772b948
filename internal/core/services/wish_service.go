package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/evkarev/dailywish/internal/core/domain"
)

const lockStripes = 64

// WishService runs the full grant lifecycle for one request:
// load record, evaluate eligibility, persist on grant, journal the event.
type WishService struct {
	repo    domain.RecordRepository
	catalog *domain.Catalog
	journal domain.GrantJournal
	loc     *time.Location
	ownerID domain.UserID

	// The store is a single shared document, so the load-evaluate-save
	// sequence for a given user must be serialized. Stripes keep unrelated
	// users from blocking each other more than necessary.
	locks [lockStripes]sync.Mutex
}

func NewWishService(repo domain.RecordRepository, catalog *domain.Catalog, journal domain.GrantJournal, loc *time.Location, ownerID domain.UserID) *WishService {
	if loc == nil {
		loc = time.Local
	}
	return &WishService{
		repo:    repo,
		catalog: catalog,
		journal: journal,
		loc:     loc,
		ownerID: ownerID,
	}
}

type GrantInput struct {
	UserID domain.UserID

	// At is the event timestamp supplied by the transport; zero means now.
	At time.Time
}

// UserStats is a read-only view of one user's state.
type UserStats struct {
	Record       *domain.UserRecord `json:"record"`
	ClaimedToday bool               `json:"claimed_today"`
	UntilReset   time.Duration      `json:"until_reset_ns"`
}

func (s *WishService) lockFor(id domain.UserID) *sync.Mutex {
	return &s.locks[uint64(id)%lockStripes]
}

// Grant evaluates and, when eligible, issues the wish of the day.
//
// On a denial nothing is written. On a grant the updated record is
// persisted before the decision is returned; a failed persist discards the
// in-memory update and reports the error so the user is never granted
// without durable state (and never double-granted by a silent retry).
func (s *WishService) Grant(ctx context.Context, input GrantInput) (domain.Decision, error) {
	now := input.At
	if now.IsZero() {
		now = time.Now()
	}

	mu := s.lockFor(input.UserID)
	mu.Lock()
	defer mu.Unlock()

	record, err := s.loadRecord(ctx, input.UserID)
	if err != nil {
		return domain.Decision{}, err
	}

	exempt := s.ownerID != 0 && input.UserID == s.ownerID
	wish := s.catalog.ForDate(domain.DateOf(now, s.loc))

	decision := domain.Evaluate(record, wish, now, s.loc, exempt)
	if !decision.Granted {
		return decision, nil
	}

	if err := s.repo.Upsert(ctx, input.UserID, decision.Record); err != nil {
		return domain.Decision{}, fmt.Errorf("wish service: persist grant for user %d: %w", input.UserID, err)
	}

	if s.journal != nil {
		event := domain.GrantEvent{
			ID:        uuid.NewString(),
			UserID:    input.UserID,
			Wish:      decision.Wish,
			Streak:    decision.Streak,
			Total:     decision.Total,
			Exempt:    exempt,
			GrantedAt: now,
		}
		// The grant is already durable; a journal failure is an operator
		// problem, not a user-facing one.
		if err := s.journal.Append(ctx, event); err != nil {
			log.Printf("wish service: journal append failed for user %d: %v", input.UserID, err)
		}
	}

	return decision, nil
}

// Stats returns the user's current counters without mutating anything.
func (s *WishService) Stats(ctx context.Context, id domain.UserID, at time.Time) (*UserStats, error) {
	if at.IsZero() {
		at = time.Now()
	}

	record, err := s.loadRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	claimed := record.LastGrantAt != nil &&
		domain.DateOf(*record.LastGrantAt, s.loc) == domain.DateOf(at, s.loc)

	return &UserStats{
		Record:       record,
		ClaimedToday: claimed,
		UntilReset:   domain.UntilReset(at, s.loc),
	}, nil
}

// ListRecords exposes the whole store for the admin surface.
func (s *WishService) ListRecords(ctx context.Context) (map[domain.UserID]*domain.UserRecord, error) {
	return s.repo.List(ctx)
}

func (s *WishService) loadRecord(ctx context.Context, id domain.UserID) (*domain.UserRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		// First sight of this user; nothing is persisted until a grant.
		return domain.NewUserRecord(), nil
	case err != nil:
		return nil, err
	}
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("%w: user %d: %v", domain.ErrRecordCorrupt, id, err)
	}
	return record, nil
}
