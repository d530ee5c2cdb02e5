package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paystack-checkout/internal/models"
)

// runContract checks the behaviour every TransactionStore must share.
func runContract(t *testing.T, s TransactionStore) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("missing reference", func(t *testing.T) {
		_, ok, err := s.Get(ctx, "ref-missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("redelivery overwrites", func(t *testing.T) {
		first := models.TransactionRecord{
			Reference:     "ref-dup",
			Amount:        decimal.RequireFromString("50"),
			CustomerEmail: "first@example.com",
			Status:        "success",
			RecordedAt:    base,
		}
		second := first
		second.CustomerEmail = "second@example.com"
		second.Amount = decimal.RequireFromString("75.5")
		second.RecordedAt = base.Add(time.Minute)

		require.NoError(t, s.Upsert(ctx, first))
		require.NoError(t, s.Upsert(ctx, second))

		got, ok, err := s.Get(ctx, "ref-dup")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "second@example.com", got.CustomerEmail)
		assert.True(t, got.Amount.Equal(second.Amount), "amount %s", got.Amount)
		assert.True(t, got.RecordedAt.Equal(second.RecordedAt))

		all, err := s.List(ctx)
		require.NoError(t, err)
		count := 0
		for _, rec := range all {
			if rec.Reference == "ref-dup" {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})

	t.Run("list returns every reference", func(t *testing.T) {
		for i, ref := range []string{"ref-a", "ref-b", "ref-c"} {
			require.NoError(t, s.Upsert(ctx, models.TransactionRecord{
				Reference:     ref,
				Amount:        decimal.NewFromInt(int64(i + 1)),
				CustomerEmail: "payer@example.com",
				Status:        "success",
				RecordedAt:    base.Add(time.Duration(i+2) * time.Minute),
			}))
		}

		all, err := s.List(ctx)
		require.NoError(t, err)
		refs := make([]string, 0, len(all))
		for _, rec := range all {
			refs = append(refs, rec.Reference)
		}
		assert.Subset(t, refs, []string{"ref-a", "ref-b", "ref-c", "ref-dup"})
	})
}
