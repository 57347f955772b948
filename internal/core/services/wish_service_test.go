package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evkarev/dailywish/internal/core/domain"
	"github.com/evkarev/dailywish/internal/core/services"
)

type MockRepo struct {
	store         map[domain.UserID]*domain.UserRecord
	simulateError error
	upsertCalls   int
}

func NewMockRepo() *MockRepo {
	return &MockRepo{
		store: make(map[domain.UserID]*domain.UserRecord),
	}
}

func (m *MockRepo) GetByID(ctx context.Context, id domain.UserID) (*domain.UserRecord, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	rec, ok := m.store[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return rec.Clone(), nil
}

func (m *MockRepo) Upsert(ctx context.Context, id domain.UserID, rec *domain.UserRecord) error {
	m.upsertCalls++
	if m.simulateError != nil {
		return m.simulateError
	}
	m.store[id] = rec.Clone()
	return nil
}

func (m *MockRepo) List(ctx context.Context) (map[domain.UserID]*domain.UserRecord, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	out := make(map[domain.UserID]*domain.UserRecord, len(m.store))
	for id, rec := range m.store {
		out[id] = rec.Clone()
	}
	return out, nil
}

type MockJournal struct {
	events        []domain.GrantEvent
	simulateError error
}

func (m *MockJournal) Append(ctx context.Context, ev domain.GrantEvent) error {
	if m.simulateError != nil {
		return m.simulateError
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *MockJournal) Tail(ctx context.Context, n int) ([]domain.GrantEvent, error) {
	if n > len(m.events) {
		n = len(m.events)
	}
	return m.events[len(m.events)-n:], nil
}

const ownerID domain.UserID = 128055849

func newTestService(repo domain.RecordRepository, journal domain.GrantJournal) *services.WishService {
	catalog := domain.DefaultCatalog()
	return services.NewWishService(repo, catalog, journal, time.UTC, ownerID)
}

func at(day, hour, minute int) time.Time {
	return time.Date(2024, time.January, day, hour, minute, 0, 0, time.UTC)
}

func TestGrantLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepo()
	journal := &MockJournal{}
	svc := newTestService(repo, journal)

	const user domain.UserID = 42

	t.Run("First grant persists a fresh record", func(t *testing.T) {
		dec, err := svc.Grant(ctx, services.GrantInput{UserID: user, At: at(10, 9, 0)})
		require.NoError(t, err)
		assert.True(t, dec.Granted)
		assert.Equal(t, 1, dec.Streak)
		assert.Equal(t, 1, dec.Total)

		stored, err := repo.GetByID(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.TotalGranted)
		assert.Equal(t, dec.Wish, stored.LastGrantWish)
	})

	t.Run("Second call the same day is denied and persists nothing", func(t *testing.T) {
		callsBefore := repo.upsertCalls

		dec, err := svc.Grant(ctx, services.GrantInput{UserID: user, At: at(10, 20, 20)})
		require.NoError(t, err)
		assert.False(t, dec.Granted)
		assert.Equal(t, 1, dec.Streak)
		assert.Equal(t, 1, dec.Total)
		assert.Equal(t, 3*time.Hour+40*time.Minute, dec.Remaining)
		assert.Equal(t, callsBefore, repo.upsertCalls)
	})

	t.Run("Next day continues the streak", func(t *testing.T) {
		dec, err := svc.Grant(ctx, services.GrantInput{UserID: user, At: at(11, 8, 0)})
		require.NoError(t, err)
		assert.True(t, dec.Granted)
		assert.Equal(t, 2, dec.Streak)
		assert.Equal(t, 2, dec.Total)
	})

	t.Run("Gap resets the streak", func(t *testing.T) {
		dec, err := svc.Grant(ctx, services.GrantInput{UserID: user, At: at(13, 8, 0)})
		require.NoError(t, err)
		assert.True(t, dec.Granted)
		assert.Equal(t, 1, dec.Streak)
		assert.Equal(t, 3, dec.Total)
	})

	t.Run("Journal saw every grant", func(t *testing.T) {
		require.Len(t, journal.events, 3)
		assert.Equal(t, user, journal.events[0].UserID)
		assert.Equal(t, 3, journal.events[2].Total)
		assert.NotEmpty(t, journal.events[0].ID)
		assert.NotEqual(t, journal.events[0].ID, journal.events[1].ID)
	})
}

func TestGrantOwnerExemption(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepo()
	svc := newTestService(repo, nil)

	first, err := svc.Grant(ctx, services.GrantInput{UserID: ownerID, At: at(13, 9, 0)})
	require.NoError(t, err)
	assert.True(t, first.Granted)
	assert.Equal(t, 1, first.Total)

	second, err := svc.Grant(ctx, services.GrantInput{UserID: ownerID, At: at(13, 9, 5)})
	require.NoError(t, err)
	assert.True(t, second.Granted, "owner must bypass the daily limit")
	assert.Equal(t, 2, second.Total)
}

func TestGrantPersistFailureDiscardsMutation(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepo()
	svc := newTestService(repo, nil)

	repo.simulateError = errors.New("disk full")

	_, err := svc.Grant(ctx, services.GrantInput{UserID: 7, At: at(10, 9, 0)})
	require.Error(t, err)

	// After the failure is cleared the user is still eligible: the failed
	// grant left no trace, so no double-grant accounting either.
	repo.simulateError = nil
	dec, err := svc.Grant(ctx, services.GrantInput{UserID: 7, At: at(10, 9, 1)})
	require.NoError(t, err)
	assert.True(t, dec.Granted)
	assert.Equal(t, 1, dec.Total)
}

func TestGrantCorruptRecord(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepo()
	repo.store[9] = &domain.UserRecord{Streak: -3}
	svc := newTestService(repo, nil)

	_, err := svc.Grant(ctx, services.GrantInput{UserID: 9, At: at(10, 9, 0)})
	assert.ErrorIs(t, err, domain.ErrRecordCorrupt)

	// Other users are unaffected.
	dec, err := svc.Grant(ctx, services.GrantInput{UserID: 10, At: at(10, 9, 0)})
	require.NoError(t, err)
	assert.True(t, dec.Granted)
}

func TestGrantJournalFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepo()
	journal := &MockJournal{simulateError: errors.New("journal unwritable")}
	svc := newTestService(repo, journal)

	dec, err := svc.Grant(ctx, services.GrantInput{UserID: 3, At: at(10, 9, 0)})
	require.NoError(t, err)
	assert.True(t, dec.Granted)

	stored, err := repo.GetByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TotalGranted)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepo()
	svc := newTestService(repo, nil)

	t.Run("Unknown user gets zero stats without a write", func(t *testing.T) {
		stats, err := svc.Stats(ctx, 55, at(10, 12, 0))
		require.NoError(t, err)
		assert.False(t, stats.ClaimedToday)
		assert.Equal(t, 0, stats.Record.TotalGranted)
		assert.Zero(t, repo.upsertCalls)
	})

	t.Run("Claimed today after a grant", func(t *testing.T) {
		_, err := svc.Grant(ctx, services.GrantInput{UserID: 55, At: at(10, 9, 0)})
		require.NoError(t, err)

		stats, err := svc.Stats(ctx, 55, at(10, 12, 0))
		require.NoError(t, err)
		assert.True(t, stats.ClaimedToday)
		assert.Equal(t, 12*time.Hour, stats.UntilReset)

		nextDay, err := svc.Stats(ctx, 55, at(11, 6, 0))
		require.NoError(t, err)
		assert.False(t, nextDay.ClaimedToday)
	})
}
