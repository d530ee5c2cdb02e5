package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"paystack-checkout/internal/models"
)

const schema = `CREATE TABLE IF NOT EXISTS transactions (
	reference      TEXT PRIMARY KEY,
	amount         NUMERIC(18, 2) NOT NULL,
	customer_email TEXT NOT NULL,
	status         TEXT NOT NULL,
	currency       TEXT NOT NULL DEFAULT '',
	channel        TEXT NOT NULL DEFAULT '',
	recorded_at    TIMESTAMPTZ NOT NULL
)`

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the transactions table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create transactions table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, reference string) (models.TransactionRecord, bool, error) {
	row := s.pool.QueryRow(ctx, `SELECT reference, amount::text, customer_email, status, currency, channel, recorded_at
		FROM transactions WHERE reference = $1`, reference)

	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.TransactionRecord{}, false, nil
	}
	if err != nil {
		return models.TransactionRecord{}, false, fmt.Errorf("failed to read transaction %s: %w", reference, err)
	}
	return rec, true, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, rec models.TransactionRecord) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO transactions (reference, amount, customer_email, status, currency, channel, recorded_at)
		VALUES ($1, $2::numeric, $3, $4, $5, $6, $7)
		ON CONFLICT (reference) DO UPDATE SET amount=$2::numeric, customer_email=$3, status=$4, currency=$5, channel=$6, recorded_at=$7`,
		rec.Reference, rec.Amount.String(), rec.CustomerEmail, rec.Status, rec.Currency, rec.Channel, rec.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to write transaction %s: %w", rec.Reference, err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.TransactionRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT reference, amount::text, customer_email, status, currency, channel, recorded_at
		FROM transactions ORDER BY recorded_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]models.TransactionRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecord(row pgx.Row) (models.TransactionRecord, error) {
	var (
		rec    models.TransactionRecord
		amount string
	)
	if err := row.Scan(&rec.Reference, &amount, &rec.CustomerEmail, &rec.Status, &rec.Currency, &rec.Channel, &rec.RecordedAt); err != nil {
		return models.TransactionRecord{}, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return models.TransactionRecord{}, fmt.Errorf("bad amount %q: %w", amount, err)
	}
	rec.Amount = d
	return rec, nil
}
