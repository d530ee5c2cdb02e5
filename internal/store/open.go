package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"paystack-checkout/internal/config"
)

// Open builds the store named by cfg.Driver. The returned close function
// releases any connections and is never nil.
func Open(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (TransactionStore, func(), error) {
	switch cfg.Driver {
	case "", DriverMemory:
		log.Info("using in-memory transaction store")
		return NewMemoryStore(), func() {}, nil

	case DriverRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		log.Info("using redis transaction store", zap.String("addr", cfg.RedisAddr))
		return NewRedisStore(rdb), func() { _ = rdb.Close() }, nil

	case DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		pg := NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info("using postgres transaction store")
		return pg, pool.Close, nil
	}

	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
}
