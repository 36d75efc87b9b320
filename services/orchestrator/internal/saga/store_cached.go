package saga

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"kafka-ecommerce/shared/pkg/cache"
)

// CachedStore layers a redis read-through cache over another store. Writes
// go to the backing store first, then refresh the cache; cache failures are
// logged and otherwise ignored.
type CachedStore struct {
	inner Store
	cache *cache.Cache
	log   zerolog.Logger
}

func NewCachedStore(inner Store, c *cache.Cache, log zerolog.Logger) *CachedStore {
	return &CachedStore{inner: inner, cache: c, log: log}
}

func cacheKey(orderID string) string { return "saga:" + orderID }

func (s *CachedStore) Get(ctx context.Context, orderID string) (*Saga, error) {
	raw, ok, err := s.cache.GetString(ctx, cacheKey(orderID))
	if err != nil {
		s.log.Warn().Err(err).Str("order_id", orderID).Msg("saga cache read failed")
	} else if ok {
		var saga Saga
		if err := json.Unmarshal([]byte(raw), &saga); err == nil {
			return &saga, nil
		}
		s.log.Warn().Str("order_id", orderID).Msg("dropping corrupt saga cache entry")
		_ = s.cache.Delete(ctx, cacheKey(orderID))
	}

	saga, err := s.inner.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, saga)
	return saga, nil
}

func (s *CachedStore) Put(ctx context.Context, saga *Saga) error {
	if err := s.inner.Put(ctx, saga); err != nil {
		return err
	}
	s.fill(ctx, saga)
	return nil
}

func (s *CachedStore) List(ctx context.Context) ([]*Saga, error) {
	return s.inner.List(ctx)
}

func (s *CachedStore) ByState(ctx context.Context, state State) ([]*Saga, error) {
	return s.inner.ByState(ctx, state)
}

func (s *CachedStore) fill(ctx context.Context, saga *Saga) {
	body, err := json.Marshal(saga)
	if err != nil {
		return
	}
	if err := s.cache.SetString(ctx, cacheKey(saga.OrderID), string(body)); err != nil {
		s.log.Warn().Err(err).Str("order_id", saga.OrderID).Msg("saga cache write failed")
	}
}
