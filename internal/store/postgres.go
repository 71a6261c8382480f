package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/DealSyte/commissions-calculator/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// Contract configuration and state are stored as JSONB; ledger amounts are
// stored as NUMERIC for exact decimal precision.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateContract(ctx context.Context, rec *model.ContractRecord) error {
	config, err := json.Marshal(rec.Config)
	if err != nil {
		return fmt.Errorf("marshal contract config: %w", err)
	}
	state, err := json.Marshal(rec.State)
	if err != nil {
		return fmt.Errorf("marshal contract state: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO contracts (id, config, state, created_at)
		 VALUES ($1, $2::JSONB, $3::JSONB, $4)
		 ON CONFLICT (id) DO NOTHING`,
		rec.ID, string(config), string(state), rec.CreatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, rec.ID)
	}
	return nil
}

func (s *PostgresStore) GetContract(ctx context.Context, id string) (*model.ContractRecord, error) {
	rec := model.ContractRecord{ID: id}
	var config, state []byte

	err := s.pool.QueryRow(ctx,
		`SELECT config, state, created_at FROM contracts WHERE id = $1`,
		id,
	).Scan(&config, &state, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(config, &rec.Config); err != nil {
		return nil, fmt.Errorf("unmarshal contract config: %w", err)
	}
	if err := json.Unmarshal(state, &rec.State); err != nil {
		return nil, fmt.Errorf("unmarshal contract state: %w", err)
	}
	return &rec, nil
}

func (s *PostgresStore) ListContracts(ctx context.Context) ([]model.ContractRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, config, state, created_at FROM contracts ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ContractRecord
	for rows.Next() {
		var rec model.ContractRecord
		var config, state []byte
		if err := rows.Scan(&rec.ID, &config, &state, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(config, &rec.Config); err != nil {
			return nil, fmt.Errorf("unmarshal contract config: %w", err)
		}
		if err := json.Unmarshal(state, &rec.State); err != nil {
			return nil, fmt.Errorf("unmarshal contract state: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateContractState(ctx context.Context, id string, state model.ContractState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal contract state: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE contracts SET state = $2::JSONB WHERE id = $1`,
		id, string(payload),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *PostgresStore) InsertProcessedDeal(ctx context.Context, rec *model.ProcessedDeal) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO processed_deals
		   (id, contract_id, deal_name, deal_date, success_fees, debt_collected,
		    advance_fees_created, finalis_commissions, net_payout, processed_at)
		 VALUES ($1, $2, $3, $4, $5::NUMERIC, $6::NUMERIC, $7::NUMERIC, $8::NUMERIC, $9::NUMERIC, $10)`,
		rec.ID, rec.ContractID, rec.DealName, rec.DealDate,
		rec.SuccessFees.String(), rec.DebtCollected.String(),
		rec.AdvanceFeesCreated.String(), rec.FinalisCommissions.String(),
		rec.NetPayout.String(), rec.ProcessedAt,
	)
	return err
}

func (s *PostgresStore) ListProcessedDeals(ctx context.Context, contractID string) ([]model.ProcessedDeal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, contract_id, deal_name, deal_date, success_fees, debt_collected,
		        advance_fees_created, finalis_commissions, net_payout, processed_at
		 FROM processed_deals WHERE contract_id = $1 ORDER BY processed_at`,
		contractID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ProcessedDeal
	for rows.Next() {
		var rec model.ProcessedDeal
		var successFees, debtCollected, advance, commissions, payout string
		if err := rows.Scan(&rec.ID, &rec.ContractID, &rec.DealName, &rec.DealDate,
			&successFees, &debtCollected, &advance, &commissions, &payout,
			&rec.ProcessedAt); err != nil {
			return nil, err
		}
		if rec.SuccessFees, err = decimal.NewFromString(successFees); err != nil {
			return nil, fmt.Errorf("parse success_fees: %w", err)
		}
		if rec.DebtCollected, err = decimal.NewFromString(debtCollected); err != nil {
			return nil, fmt.Errorf("parse debt_collected: %w", err)
		}
		if rec.AdvanceFeesCreated, err = decimal.NewFromString(advance); err != nil {
			return nil, fmt.Errorf("parse advance_fees_created: %w", err)
		}
		if rec.FinalisCommissions, err = decimal.NewFromString(commissions); err != nil {
			return nil, fmt.Errorf("parse finalis_commissions: %w", err)
		}
		if rec.NetPayout, err = decimal.NewFromString(payout); err != nil {
			return nil, fmt.Errorf("parse net_payout: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
