package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/DealSyte/commissions-calculator/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing and
// development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu        sync.RWMutex
	contracts map[string]*model.ContractRecord
	ledger    []model.ProcessedDeal
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		contracts: make(map[string]*model.ContractRecord),
	}
}

func (s *MemoryStore) CreateContract(_ context.Context, rec *model.ContractRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contracts[rec.ID]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, rec.ID)
	}

	// Store a copy to avoid external mutation.
	cp := copyRecord(rec)
	s.contracts[rec.ID] = &cp
	return nil
}

func (s *MemoryStore) GetContract(_ context.Context, id string) (*model.ContractRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.contracts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	cp := copyRecord(rec)
	return &cp, nil
}

func (s *MemoryStore) ListContracts(_ context.Context) ([]model.ContractRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ContractRecord, 0, len(s.contracts))
	for _, rec := range s.contracts {
		out = append(out, copyRecord(rec))
	}
	return out, nil
}

func (s *MemoryStore) UpdateContractState(_ context.Context, id string, state model.ContractState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.contracts[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	rec.State = state.Clone()
	return nil
}

func (s *MemoryStore) InsertProcessedDeal(_ context.Context, rec *model.ProcessedDeal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledger = append(s.ledger, *rec)
	return nil
}

func (s *MemoryStore) ListProcessedDeals(_ context.Context, contractID string) ([]model.ProcessedDeal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.ProcessedDeal
	for _, entry := range s.ledger {
		if entry.ContractID == contractID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func copyRecord(rec *model.ContractRecord) model.ContractRecord {
	cp := *rec
	cp.State = rec.State.Clone()
	cp.Config.LehmanTiers = make([]model.LehmanTier, len(rec.Config.LehmanTiers))
	copy(cp.Config.LehmanTiers, rec.Config.LehmanTiers)
	return cp
}
