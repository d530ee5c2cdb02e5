package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"paystack-checkout/internal/models"
)

const redisHashKey = "transactions"

// RedisStore keeps every record as a JSON field of a single hash, so HSET on
// an existing reference replaces it.
type RedisStore struct {
	rdb *redis.Client
	key string
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, key: redisHashKey}
}

func (s *RedisStore) Get(ctx context.Context, reference string) (models.TransactionRecord, bool, error) {
	raw, err := s.rdb.HGet(ctx, s.key, reference).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.TransactionRecord{}, false, nil
	}
	if err != nil {
		return models.TransactionRecord{}, false, fmt.Errorf("failed to read transaction %s: %w", reference, err)
	}

	var rec models.TransactionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return models.TransactionRecord{}, false, fmt.Errorf("failed to decode transaction %s: %w", reference, err)
	}
	return rec, true, nil
}

func (s *RedisStore) Upsert(ctx context.Context, rec models.TransactionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode transaction %s: %w", rec.Reference, err)
	}
	if err := s.rdb.HSet(ctx, s.key, rec.Reference, data).Err(); err != nil {
		return fmt.Errorf("failed to write transaction %s: %w", rec.Reference, err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]models.TransactionRecord, error) {
	all, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	out := make([]models.TransactionRecord, 0, len(all))
	for ref, raw := range all {
		var rec models.TransactionRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode transaction %s: %w", ref, err)
		}
		out = append(out, rec)
	}

	sortByRecordedAt(out)
	return out, nil
}
