// Package deal provides the HTTP handlers for running deals through the
// commissions engine: a stateless processing endpoint and a stateful
// contract registry where the service loads the stored state, invokes the
// engine, and persists the successor state.
//
// All monetary values use shopspring/decimal — never float64 for money.
// Logs carry deal names and contract ids only, never amounts.
package deal

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/DealSyte/commissions-calculator/internal/engine"
	"github.com/DealSyte/commissions-calculator/internal/metrics"
	"github.com/DealSyte/commissions-calculator/internal/model"
	"github.com/DealSyte/commissions-calculator/internal/store"
)

// Service handles deal processing operations. Uses a mutex to serialize
// registry deal processing (single-instance); the stateless endpoint needs
// no serialization because the engine shares nothing across calls.
type Service struct {
	store     store.Store
	processor *engine.Processor
	mu        sync.Mutex
	wsHub     *WSHub // optional WebSocket hub for deal_processed broadcasts
}

// NewService creates a new deal service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(st store.Store, hub *WSHub) *Service {
	return &Service{
		store:     st,
		processor: engine.NewProcessor(),
		wsHub:     hub,
	}
}

// --- Request/Response types ---

// CreateContractRequest is the JSON body for contract registration.
type CreateContractRequest struct {
	ContractID string              `json:"contract_id"` // optional; generated when empty
	Contract   model.Contract      `json:"contract"`
	State      model.ContractState `json:"state"`
}

// ProcessDealRequest is the JSON body for POST /contracts/{id}/deals.
type ProcessDealRequest struct {
	Deal model.Deal `json:"deal"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Status string `json:"status"`
}

// --- HTTP Handlers ---

// ProcessDeal handles POST /api/v1/deals/process — the stateless surface.
// The body carries deal, contract, and state; the caller persists the
// returned successor state.
func (s *Service) ProcessDeal(w http.ResponseWriter, r *http.Request) {
	var in model.DealInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeValidationError(w, "invalid request body: "+err.Error())
		return
	}

	result, err := s.runEngine(&in)
	if err != nil {
		writeEngineError(w, err, in.Deal.Name)
		return
	}

	slog.Info("deal processed", "deal", in.Deal.Name, "contract_year", result.DealSummary.ContractYear)
	writeJSON(w, http.StatusOK, result)
}

// CreateContract handles POST /api/v1/contracts
func (s *Service) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req CreateContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid request body: "+err.Error())
		return
	}

	id := req.ContractID
	if id == "" {
		id = uuid.New().String()
	}

	rec := &model.ContractRecord{
		ID:        id,
		Config:    req.Contract,
		State:     req.State,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.CreateContract(r.Context(), rec); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			writeError(w, err.Error(), http.StatusConflict)
			return
		}
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("contract registered", "id", id, "rate_type", req.Contract.RateType,
		"payg", req.Contract.IsPayAsYouGo)

	writeJSON(w, http.StatusCreated, rec)
}

// GetContract handles GET /api/v1/contracts/{contractID}
func (s *Service) GetContract(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "contractID")

	rec, err := s.store.GetContract(r.Context(), id)
	if err != nil {
		writeError(w, "contract not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListContracts handles GET /api/v1/contracts
func (s *Service) ListContracts(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.ListContracts(r.Context())
	if err != nil {
		writeError(w, "failed to list contracts", http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []model.ContractRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// ProcessContractDeal handles POST /api/v1/contracts/{contractID}/deals
// Loads the stored state, runs the engine, persists the successor state,
// and appends an immutable ledger record.
func (s *Service) ProcessContractDeal(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "contractID")

	var req ProcessDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid request body: "+err.Error())
		return
	}

	ctx := r.Context()

	// Serialize state read-modify-write per instance.
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.store.GetContract(ctx, contractID)
	if err != nil {
		writeError(w, "contract not found: "+contractID, http.StatusNotFound)
		return
	}

	in := model.DealInput{Deal: req.Deal, Contract: rec.Config, State: rec.State}
	result, err := s.runEngine(&in)
	if err != nil {
		writeEngineError(w, err, req.Deal.Name)
		return
	}

	successor, err := successorState(result)
	if err != nil {
		writeError(w, "internal error: malformed successor state", http.StatusInternalServerError)
		return
	}
	if err := s.store.UpdateContractState(ctx, contractID, successor); err != nil {
		writeError(w, "failed to persist contract state", http.StatusInternalServerError)
		return
	}

	entry, err := ledgerEntry(contractID, result)
	if err != nil {
		writeError(w, "internal error: malformed ledger amounts", http.StatusInternalServerError)
		return
	}
	if err := s.store.InsertProcessedDeal(ctx, entry); err != nil {
		writeError(w, "failed to record processed deal", http.StatusInternalServerError)
		return
	}

	slog.Info("contract deal processed",
		"deal_id", entry.ID,
		"contract", contractID,
		"deal", req.Deal.Name,
		"entered_commissions_mode", result.StateChanges.EnteredCommissionsMode,
	)
	if result.StateChanges.EnteredCommissionsMode {
		metrics.CommissionsModeEntries.Inc()
	}

	// Broadcast the processed deal via WebSocket.
	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:        "deal_processed",
			DealID:      entry.ID,
			ContractID:  contractID,
			DealName:    req.Deal.Name,
			NetPayout:   result.Calculations.NetPayout,
			Commissions: result.Calculations.FinalisCommissions,
			ProcessedAt: entry.ProcessedAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, result)
}

// ListContractDeals handles GET /api/v1/contracts/{contractID}/deals
func (s *Service) ListContractDeals(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "contractID")

	entries, err := s.store.ListProcessedDeals(r.Context(), contractID)
	if err != nil {
		writeError(w, "failed to list processed deals", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []model.ProcessedDeal{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// runEngine invokes the processor with metrics around it.
func (s *Service) runEngine(in *model.DealInput) (*model.DealResult, error) {
	start := time.Now()
	result, err := s.processor.Process(*in)
	metrics.ProcessingLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		if engine.IsValidation(err) {
			metrics.ValidationFailures.Inc()
		}
		return nil, err
	}

	mode := "standard"
	if in.Contract.IsPayAsYouGo {
		mode = "payg"
	}
	metrics.DealsProcessed.WithLabelValues(mode).Inc()
	return result, nil
}

// successorState folds the engine's result document back into a
// ContractState for persistence.
func successorState(result *model.DealResult) (model.ContractState, error) {
	updated := result.UpdatedContractState

	credit, err := decimal.NewFromString(updated.CurrentCredit)
	if err != nil {
		return model.ContractState{}, err
	}
	debt, err := decimal.NewFromString(updated.CurrentDebt)
	if err != nil {
		return model.ContractState{}, err
	}
	paidYear, err := decimal.NewFromString(updated.TotalPaidThisContractYear)
	if err != nil {
		return model.ContractState{}, err
	}
	paidAll, err := decimal.NewFromString(updated.TotalPaidAllTime)
	if err != nil {
		return model.ContractState{}, err
	}
	paygAccum, err := decimal.NewFromString(updated.PaygCommissionsAccumulated)
	if err != nil {
		return model.ContractState{}, err
	}
	deferredScalar, err := decimal.NewFromString(updated.DeferredSubscriptionFee)
	if err != nil {
		return model.ContractState{}, err
	}

	payments := make([]model.FuturePayment, 0, len(result.UpdatedFuturePayments))
	for _, p := range result.UpdatedFuturePayments {
		due, err := decimal.NewFromString(p.AmountDue)
		if err != nil {
			return model.ContractState{}, err
		}
		paid, err := decimal.NewFromString(p.AmountPaid)
		if err != nil {
			return model.ContractState{}, err
		}
		payments = append(payments, model.FuturePayment{
			PaymentID:  p.PaymentID,
			DueDate:    p.DueDate,
			AmountDue:  due,
			AmountPaid: paid,
		})
	}

	return model.ContractState{
		CurrentCredit:              credit,
		CurrentDebt:                debt,
		IsInCommissionsMode:        updated.IsInCommissionsMode,
		FuturePayments:             payments,
		DeferredSchedule:           updated.DeferredSchedule,
		DeferredSubscriptionFee:    deferredScalar,
		TotalPaidThisContractYear:  paidYear,
		TotalPaidAllTime:           paidAll,
		PaygCommissionsAccumulated: paygAccum,
	}, nil
}

// ledgerEntry builds the immutable processed-deal record.
func ledgerEntry(contractID string, result *model.DealResult) (*model.ProcessedDeal, error) {
	successFees, err := decimal.NewFromString(result.DealSummary.SuccessFees)
	if err != nil {
		return nil, err
	}
	debtCollected, err := decimal.NewFromString(result.Calculations.DebtCollected)
	if err != nil {
		return nil, err
	}
	advance, err := decimal.NewFromString(result.Calculations.AdvanceFeesCreated)
	if err != nil {
		return nil, err
	}
	commissions, err := decimal.NewFromString(result.Calculations.FinalisCommissions)
	if err != nil {
		return nil, err
	}
	payout, err := decimal.NewFromString(result.Calculations.NetPayout)
	if err != nil {
		return nil, err
	}

	return &model.ProcessedDeal{
		ID:                 uuid.New().String(),
		ContractID:         contractID,
		DealName:           result.DealSummary.DealName,
		DealDate:           result.DealSummary.DealDate,
		SuccessFees:        successFees,
		DebtCollected:      debtCollected,
		AdvanceFeesCreated: advance,
		FinalisCommissions: commissions,
		NetPayout:          payout,
		ProcessedAt:        time.Now().UTC(),
	}, nil
}

// --- Response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, errorResponse{Error: msg, Status: "failed"})
}

func writeValidationError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Status: "validation_failed"})
}

// writeEngineError maps engine failures onto the transport surface:
// validation errors are 400 with status validation_failed, invariant
// violations are 500 with status failed. Error texts can name amounts, so
// the log carries only the rejected field or the failure kind.
func writeEngineError(w http.ResponseWriter, err error, dealName string) {
	var ve *engine.ValidationError
	if errors.As(err, &ve) {
		slog.Warn("deal rejected", "deal", dealName, "field", ve.Field)
		writeValidationError(w, err.Error())
		return
	}
	slog.Error("deal processing failed", "deal", dealName, "err", engine.ErrInternal)
	writeError(w, err.Error(), http.StatusInternalServerError)
}
