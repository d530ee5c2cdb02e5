// Package store keeps TransactionRecords keyed by gateway reference.
// Every implementation is last-write-wins on Upsert.
package store

import (
	"context"
	"errors"
	"sort"

	"paystack-checkout/internal/models"
)

type TransactionStore interface {
	Get(ctx context.Context, reference string) (models.TransactionRecord, bool, error)
	Upsert(ctx context.Context, rec models.TransactionRecord) error
	List(ctx context.Context) ([]models.TransactionRecord, error)
}

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// ErrUnknownDriver is returned by callers selecting a store by name.
var ErrUnknownDriver = errors.New("unknown transaction store driver")

func sortByRecordedAt(recs []models.TransactionRecord) {
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].RecordedAt.Before(recs[j].RecordedAt)
	})
}
