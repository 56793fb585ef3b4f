// Package cached decorates a SnapshotStore with a Redis read-through cache.
// Snapshots are immutable once written, so cached documents never go stale;
// only a date's "latest" resolution can move, and writes invalidate it.
package cached

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/Stuuu223/myquanttool/internal/domain/snapshot"
	"github.com/Stuuu223/myquanttool/internal/store"
)

const keyPrefix = "myquant:snap:"

// Store wraps an inner SnapshotStore with Redis caching.
type Store struct {
	inner store.SnapshotStore
	rdb   *redis.Client
	ttl   time.Duration
}

// New creates the cache decorator. ttl bounds how long a cached document
// lives; exact-key entries could live forever but a TTL keeps memory sane.
func New(inner store.SnapshotStore, rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{inner: inner, rdb: rdb, ttl: ttl}
}

// NewClient builds a Redis client with the pool and timeout settings used
// across this repo.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

// WriteSnapshot writes through and invalidates the date's latest-resolution
// entries. Cache failures degrade to uncached reads, never failed writes.
func (s *Store) WriteSnapshot(ctx context.Context, snap *snapshot.MarketSnapshot) error {
	if err := s.inner.WriteSnapshot(ctx, snap); err != nil {
		return err
	}
	key := snap.Key()
	invalidate := []string{
		cacheKey(key.TradeDate, key.ScanTime, key.Mode),
		cacheKey(key.TradeDate, "", key.Mode),
		cacheKey(key.TradeDate, "", ""),
	}
	if err := s.rdb.Del(ctx, invalidate...).Err(); err != nil {
		log.Warn().Err(err).Str("key", key.String()).Msg("cache invalidation failed")
	}
	return nil
}

// ReadSnapshot serves from cache when possible, falling through to the
// inner store and populating on miss.
func (s *Store) ReadSnapshot(ctx context.Context, tradeDate, scanTime string, mode snapshot.Mode) (*snapshot.MarketSnapshot, error) {
	ck := cacheKey(tradeDate, scanTime, mode)

	if data, err := s.rdb.Get(ctx, ck).Bytes(); err == nil {
		var snap snapshot.MarketSnapshot
		if uerr := json.Unmarshal(data, &snap); uerr == nil {
			return &snap, nil
		}
		log.Warn().Str("cache_key", ck).Msg("corrupt cache entry, falling through")
	} else if err != redis.Nil {
		log.Warn().Err(err).Str("cache_key", ck).Msg("cache read failed, falling through")
	}

	snap, err := s.inner.ReadSnapshot(ctx, tradeDate, scanTime, mode)
	if err != nil {
		return nil, err
	}

	if data, merr := json.Marshal(snap); merr == nil {
		if serr := s.rdb.Set(ctx, ck, data, s.ttl).Err(); serr != nil {
			log.Warn().Err(serr).Str("cache_key", ck).Msg("cache populate failed")
		}
	}
	return snap, nil
}

// ListSnapshots is not cached; listings are cheap directory walks and the
// result changes with every write.
func (s *Store) ListSnapshots(ctx context.Context, dr store.DateRange) ([]snapshot.Key, error) {
	return s.inner.ListSnapshots(ctx, dr)
}

func cacheKey(tradeDate, scanTime string, mode snapshot.Mode) string {
	return fmt.Sprintf("%s%s:%s:%s", keyPrefix, tradeDate, scanTime, mode)
}
