package deal_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/DealSyte/commissions-calculator/internal/deal"
	"github.com/DealSyte/commissions-calculator/internal/model"
	"github.com/DealSyte/commissions-calculator/internal/store"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func dp(f float64) *decimal.Decimal {
	v := decimal.NewFromFloat(f)
	return &v
}

// newTestEnv creates a test Service with in-memory store and chi router.
func newTestEnv(t *testing.T) (*store.MemoryStore, chi.Router) {
	t.Helper()
	ms := store.NewMemoryStore()
	svc := deal.NewService(ms, nil)

	r := chi.NewRouter()
	r.Post("/api/v1/deals/process", svc.ProcessDeal)
	r.Post("/api/v1/contracts", svc.CreateContract)
	r.Get("/api/v1/contracts/{contractID}", svc.GetContract)
	r.Post("/api/v1/contracts/{contractID}/deals", svc.ProcessContractDeal)
	r.Get("/api/v1/contracts/{contractID}/deals", svc.ListContractDeals)

	return ms, r
}

// seedContract registers a fixed-rate contract directly in the store.
func seedContract(t *testing.T, ms *store.MemoryStore, id string, rate float64, state model.ContractState) {
	t.Helper()
	rec := &model.ContractRecord{
		ID: id,
		Config: model.Contract{
			RateType:  model.RateTypeFixed,
			FixedRate: dp(rate),
		},
		State:     state,
		CreatedAt: time.Now().UTC(),
	}
	if err := ms.CreateContract(context.Background(), rec); err != nil {
		t.Fatalf("failed to seed contract: %v", err)
	}
}

func post(t *testing.T, router chi.Router, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func testDeal(successFees float64) model.Deal {
	return model.Deal{
		Name:        "Acme Acquisition",
		SuccessFees: d(successFees),
		DealDate:    "2025-06-15",
	}
}

// --- Stateless processing ---

func TestProcessDeal_OK(t *testing.T) {
	_, router := newTestEnv(t)

	w := post(t, router, "/api/v1/deals/process", model.DealInput{
		Deal: testDeal(500000),
		Contract: model.Contract{
			RateType:  model.RateTypeFixed,
			FixedRate: dp(0.05),
		},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp model.DealResult
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Calculations.ImpliedTotal != "25000.00" {
		t.Errorf("expected implied_total 25000.00, got %s", resp.Calculations.ImpliedTotal)
	}
	if resp.Calculations.FinalisCommissions != "25000.00" {
		t.Errorf("expected finalis_commissions 25000.00, got %s", resp.Calculations.FinalisCommissions)
	}
}

func TestProcessDeal_NumericStringsAccepted(t *testing.T) {
	_, router := newTestEnv(t)

	// Amounts as strings, rates as floats, as mixed clients send them.
	body := map[string]any{
		"deal": map[string]any{
			"deal_name":                "String Amounts",
			"success_fees":             "250000.50",
			"deal_date":                "2025-06-15",
			"is_distribution_fee_true": false,
			"is_sourcing_fee_true":     false,
			"is_deal_exempt":           false,
		},
		"contract": map[string]any{
			"rate_type":  "fixed",
			"fixed_rate": 0.04,
			"accumulated_success_fees_before_this_deal": 0,
		},
		"state": map[string]any{},
	}

	w := post(t, router, "/api/v1/deals/process", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp model.DealResult
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Calculations.ImpliedTotal != "10000.02" {
		t.Errorf("expected implied_total 10000.02, got %s", resp.Calculations.ImpliedTotal)
	}
}

func TestProcessDeal_ValidationFailure(t *testing.T) {
	_, router := newTestEnv(t)

	in := model.DealInput{
		Deal: testDeal(-5),
		Contract: model.Contract{
			RateType:  model.RateTypeFixed,
			FixedRate: dp(0.05),
		},
	}
	w := post(t, router, "/api/v1/deals/process", in)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["status"] != "validation_failed" {
		t.Errorf("expected status validation_failed, got %q", resp["status"])
	}
	if resp["error"] == "" {
		t.Error("expected a human-readable error message")
	}
}

// --- Contract registry ---

func TestCreateContract_DuplicateConflict(t *testing.T) {
	ms, router := newTestEnv(t)
	seedContract(t, ms, "c-1", 0.05, model.ContractState{})

	w := post(t, router, "/api/v1/contracts", deal.CreateContractRequest{
		ContractID: "c-1",
		Contract:   model.Contract{RateType: model.RateTypeFixed, FixedRate: dp(0.05)},
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestProcessContractDeal_PersistsSuccessorState(t *testing.T) {
	ms, router := newTestEnv(t)
	seedContract(t, ms, "c-1", 0.05, model.ContractState{
		CurrentDebt: d(10000),
	})

	w := post(t, router, "/api/v1/contracts/c-1/deals", deal.ProcessDealRequest{
		Deal: testDeal(100000),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	rec, err := ms.GetContract(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("contract vanished: %v", err)
	}
	if !rec.State.CurrentDebt.IsZero() {
		t.Errorf("expected debt fully collected, got %s", rec.State.CurrentDebt)
	}
	// 10000 collected converts to credit; implied 5000 consumed half of it.
	if !rec.State.CurrentCredit.Equal(d(5000)) {
		t.Errorf("expected credit 5000, got %s", rec.State.CurrentCredit)
	}

	deals, err := ms.ListProcessedDeals(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("failed to list deals: %v", err)
	}
	if len(deals) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(deals))
	}
	if deals[0].DealName != "Acme Acquisition" {
		t.Errorf("unexpected ledger deal name %q", deals[0].DealName)
	}
	if !deals[0].DebtCollected.Equal(d(10000)) {
		t.Errorf("expected ledger debt_collected 10000, got %s", deals[0].DebtCollected)
	}
}

func TestProcessContractDeal_SequentialDealsAccumulate(t *testing.T) {
	ms, router := newTestEnv(t)
	seedContract(t, ms, "c-2", 0.05, model.ContractState{})

	for i := 0; i < 2; i++ {
		w := post(t, router, "/api/v1/contracts/c-2/deals", deal.ProcessDealRequest{
			Deal: testDeal(100000),
		})
		if w.Code != http.StatusOK {
			t.Fatalf("deal %d: expected 200, got %d", i, w.Code)
		}
	}

	rec, _ := ms.GetContract(context.Background(), "c-2")
	// Two deals at 5000 commissions each.
	if !rec.State.TotalPaidAllTime.Equal(d(10000)) {
		t.Errorf("expected total_paid_all_time 10000, got %s", rec.State.TotalPaidAllTime)
	}
	if !rec.State.IsInCommissionsMode {
		t.Error("expected contract in commissions mode after charged commissions")
	}
}

func TestProcessContractDeal_UnknownContract(t *testing.T) {
	_, router := newTestEnv(t)
	w := post(t, router, "/api/v1/contracts/nope/deals", deal.ProcessDealRequest{
		Deal: testDeal(100000),
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestProcessContractDeal_ValidationDoesNotTouchState(t *testing.T) {
	ms, router := newTestEnv(t)
	seedContract(t, ms, "c-3", 0.05, model.ContractState{CurrentDebt: d(500)})

	w := post(t, router, "/api/v1/contracts/c-3/deals", deal.ProcessDealRequest{
		Deal: testDeal(-1),
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	rec, _ := ms.GetContract(context.Background(), "c-3")
	if !rec.State.CurrentDebt.Equal(d(500)) {
		t.Errorf("state must be untouched on rejection, got debt %s", rec.State.CurrentDebt)
	}
	deals, _ := ms.ListProcessedDeals(context.Background(), "c-3")
	if len(deals) != 0 {
		t.Errorf("no ledger entry expected on rejection, got %d", len(deals))
	}
}
