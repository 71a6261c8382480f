// Package store defines the persistence interface for the commissions
// calculator's contract registry. Implementations include PostgreSQL
// (source of truth), Redis (read-through cache), and in-memory (for
// testing and development).
//
// The engine itself is purely functional; the store persists registered
// contract configurations, their evolving state between deals, and the
// immutable ledger of processed deals.
package store

import (
	"context"
	"errors"

	"github.com/DealSyte/commissions-calculator/internal/model"
)

var (
	// ErrNotFound is returned when a contract id is not registered.
	ErrNotFound = errors.New("store: contract not found")

	// ErrAlreadyExists is returned when registering a duplicate contract id.
	ErrAlreadyExists = errors.New("store: contract already exists")
)

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer.
type Store interface {
	// --- Contract registry ---

	// CreateContract registers a new contract with its opening state.
	CreateContract(ctx context.Context, rec *model.ContractRecord) error

	// GetContract retrieves a registered contract by id.
	GetContract(ctx context.Context, id string) (*model.ContractRecord, error)

	// ListContracts returns all registered contracts.
	ListContracts(ctx context.Context) ([]model.ContractRecord, error)

	// UpdateContractState persists the successor state after a deal.
	UpdateContractState(ctx context.Context, id string, state model.ContractState) error

	// --- Immutable processed-deal ledger ---

	// InsertProcessedDeal appends an immutable processed-deal record.
	InsertProcessedDeal(ctx context.Context, rec *model.ProcessedDeal) error

	// ListProcessedDeals returns all processed deals for a contract,
	// oldest first.
	ListProcessedDeals(ctx context.Context, contractID string) ([]model.ProcessedDeal, error)
}
