package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/DealSyte/commissions-calculator/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache for contract records. Writes go to the primary store; a new contract
// is then cached, a state update invalidates the cached record. Reads check
// Redis first then fall back to the primary. The processed-deal ledger is
// not cached.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Writes (write to primary, then cache on create, invalidate on update) ---

func (s *CachedStore) CreateContract(ctx context.Context, rec *model.ContractRecord) error {
	if err := s.primary.CreateContract(ctx, rec); err != nil {
		return err
	}
	s.cacheContract(ctx, rec)
	return nil
}

func (s *CachedStore) UpdateContractState(ctx context.Context, id string, state model.ContractState) error {
	if err := s.primary.UpdateContractState(ctx, id, state); err != nil {
		return err
	}
	// Invalidate cache; next read will re-populate.
	s.rdb.Del(ctx, contractKey(id))
	return nil
}

func (s *CachedStore) InsertProcessedDeal(ctx context.Context, rec *model.ProcessedDeal) error {
	return s.primary.InsertProcessedDeal(ctx, rec)
}

// --- Read-through ---

func (s *CachedStore) GetContract(ctx context.Context, id string) (*model.ContractRecord, error) {
	if data, err := s.rdb.Get(ctx, contractKey(id)).Bytes(); err == nil {
		var rec model.ContractRecord
		if err := json.Unmarshal(data, &rec); err == nil {
			return &rec, nil
		}
		// Corrupt cache entry; fall back to primary.
		s.rdb.Del(ctx, contractKey(id))
	}

	rec, err := s.primary.GetContract(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheContract(ctx, rec)
	return rec, nil
}

func (s *CachedStore) ListContracts(ctx context.Context) ([]model.ContractRecord, error) {
	return s.primary.ListContracts(ctx)
}

func (s *CachedStore) ListProcessedDeals(ctx context.Context, contractID string) ([]model.ProcessedDeal, error) {
	return s.primary.ListProcessedDeals(ctx, contractID)
}

func (s *CachedStore) cacheContract(ctx context.Context, rec *model.ContractRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	s.rdb.Set(ctx, contractKey(rec.ID), data, s.ttl)
}

func contractKey(id string) string {
	return fmt.Sprintf("contract:%s", id)
}
