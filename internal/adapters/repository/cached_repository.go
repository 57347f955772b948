package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/evkarev/dailywish/internal/core/domain"
)

var _ domain.RecordRepository = (*CachedRecordRepository)(nil)

const recordCacheTTL = 10 * time.Minute

// CachedRecordRepository is a read-through cache in front of another
// record repository. Useful over the postgres backend; pointless (but
// harmless) over the file one. Cache failures degrade to the underlying
// store, never to an error.
type CachedRecordRepository struct {
	next  domain.RecordRepository
	cache *redis.Client
}

func NewCachedRecordRepository(next domain.RecordRepository, cache *redis.Client) *CachedRecordRepository {
	return &CachedRecordRepository{
		next:  next,
		cache: cache,
	}
}

func (r *CachedRecordRepository) cacheKey(id domain.UserID) string {
	return fmt.Sprintf("wish_record:%d", id)
}

func (r *CachedRecordRepository) GetByID(ctx context.Context, id domain.UserID) (*domain.UserRecord, error) {
	key := r.cacheKey(id)

	val, err := r.cache.Get(ctx, key).Result()
	if err == nil {
		var record domain.UserRecord
		if err := json.Unmarshal([]byte(val), &record); err == nil {
			return &record, nil
		}
		log.Printf("[CACHE] corrupted entry for user %d, dropping key", id)
		r.cache.Del(ctx, key)
	} else if err != redis.Nil {
		log.Printf("[CACHE] redis read error: %v", err)
	}

	record, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(record); err == nil {
		if setErr := r.cache.Set(ctx, key, data, recordCacheTTL).Err(); setErr != nil {
			log.Printf("[CACHE] redis set error: %v", setErr)
		}
	}

	return record, nil
}

func (r *CachedRecordRepository) Upsert(ctx context.Context, id domain.UserID, record *domain.UserRecord) error {
	if err := r.next.Upsert(ctx, id, record); err != nil {
		return err
	}
	if err := r.cache.Del(ctx, r.cacheKey(id)).Err(); err != nil {
		log.Printf("[CACHE] failed to invalidate user %d: %v", id, err)
	}
	return nil
}

func (r *CachedRecordRepository) List(ctx context.Context) (map[domain.UserID]*domain.UserRecord, error) {
	// Listing is an admin operation; always hit the source of truth.
	return r.next.List(ctx)
}
