// Package model defines the core domain types shared across the commissions
// calculator. All monetary values use shopspring/decimal — never float64 for
// money. Rates are decimals in [0, 1].
//
// Input numbers may arrive as JSON integers, floats, or numeric strings;
// decimal.Decimal's unmarshalling accepts all three and preserves exact
// base-10 values.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rate type discriminators for Contract.RateType.
const (
	RateTypeFixed  = "fixed"
	RateTypeLehman = "lehman"
)

// Cost cap discriminators for Contract.CostCapType.
const (
	CostCapAnnual = "annual"
	CostCapTotal  = "total"
)

// Deal is the single M&A transaction being processed. Immutable per call.
type Deal struct {
	Name              string          `json:"deal_name"`
	SuccessFees       decimal.Decimal `json:"success_fees"`
	DealDate          string          `json:"deal_date"` // YYYY-MM-DD
	IsDistributionFee bool            `json:"is_distribution_fee_true"`
	IsSourcingFee     bool            `json:"is_sourcing_fee_true"`
	IsDealExempt      bool            `json:"is_deal_exempt"`

	ExternalRetainer      decimal.Decimal `json:"external_retainer"`
	HasExternalRetainer   bool            `json:"has_external_retainer"`
	IncludeRetainerInFees *bool           `json:"include_retainer_in_fees,omitempty"`

	HasFinraFee *bool `json:"has_finra_fee,omitempty"` // nil = true

	HasPreferredRate bool             `json:"has_preferred_rate"`
	PreferredRate    *decimal.Decimal `json:"preferred_rate,omitempty"`
}

// FinraFeeApplies reports whether the FINRA/SIPC fee applies. Defaults to
// true when the field is absent from the request.
func (d *Deal) FinraFeeApplies() bool {
	return d.HasFinraFee == nil || *d.HasFinraFee
}

// RetainerBase returns the amount every fee and implied-cost calculation is
// based on: success fees plus the external retainer when the retainer is
// included in fees, plain success fees otherwise.
func (d *Deal) RetainerBase() decimal.Decimal {
	if d.HasExternalRetainer && d.IncludeRetainerInFees != nil && *d.IncludeRetainerInFees {
		return d.SuccessFees.Add(d.ExternalRetainer)
	}
	return d.SuccessFees
}

// LehmanTier is one band of a progressive rate schedule. Upper bound nil
// means the tier is open-ended. Ranges are half-open [lower, upper).
type LehmanTier struct {
	LowerBound decimal.Decimal  `json:"lower_bound"`
	UpperBound *decimal.Decimal `json:"upper_bound"` // nil = infinity
	Rate       decimal.Decimal  `json:"rate"`
}

// Contract is the contract configuration. Immutable per call.
type Contract struct {
	RateType               string           `json:"rate_type"` // "fixed" or "lehman"
	FixedRate              *decimal.Decimal `json:"fixed_rate,omitempty"`
	LehmanTiers            []LehmanTier     `json:"lehman_tiers,omitempty"`
	AccumulatedSuccessFees decimal.Decimal  `json:"accumulated_success_fees_before_this_deal"`
	ContractStartDate      string           `json:"contract_start_date,omitempty"`
	IsPayAsYouGo           bool             `json:"is_pay_as_you_go"`
	AnnualSubscription     decimal.Decimal  `json:"annual_subscription"`
	CostCapType            string           `json:"cost_cap_type,omitempty"` // "annual", "total", or ""
	CostCapAmount          *decimal.Decimal `json:"cost_cap_amount,omitempty"`
}

// HasCostCap reports whether a cost cap is configured.
func (c *Contract) HasCostCap() bool {
	return c.CostCapType != "" && c.CostCapAmount != nil
}

// FuturePayment is one scheduled future subscription payment.
type FuturePayment struct {
	PaymentID  string          `json:"payment_id"`
	DueDate    string          `json:"due_date"` // YYYY-MM-DD
	AmountDue  decimal.Decimal `json:"amount_due"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
}

// AmountOwed is the unpaid remainder of the payment.
func (p *FuturePayment) AmountOwed() decimal.Decimal {
	return p.AmountDue.Sub(p.AmountPaid)
}

// DeferredEntry is a subscription fee deferred to a specific contract year
// (1-based ordinal).
type DeferredEntry struct {
	Year   int             `json:"year"`
	Amount decimal.Decimal `json:"amount"`
}

// ContractState is the evolving per-contract state. The engine consumes the
// input state and produces the successor; the caller persists it.
type ContractState struct {
	CurrentCredit       decimal.Decimal `json:"current_credit"`
	CurrentDebt         decimal.Decimal `json:"current_debt"`
	IsInCommissionsMode bool            `json:"is_in_commissions_mode"`
	FuturePayments      []FuturePayment `json:"future_subscription_fees"`
	DeferredSchedule    []DeferredEntry `json:"deferred_schedule,omitempty"`
	// DeferredSubscriptionFee is the legacy single-amount deferral, used
	// only when DeferredSchedule is empty.
	DeferredSubscriptionFee    decimal.Decimal `json:"deferred_subscription_fee"`
	TotalPaidThisContractYear  decimal.Decimal `json:"total_paid_this_contract_year"`
	TotalPaidAllTime           decimal.Decimal `json:"total_paid_all_time"`
	PaygCommissionsAccumulated decimal.Decimal `json:"payg_commissions_accumulated"`
}

// Clone deep-copies the state so pipeline mutations never alias the
// caller's structures.
func (s *ContractState) Clone() ContractState {
	out := *s
	out.FuturePayments = make([]FuturePayment, len(s.FuturePayments))
	copy(out.FuturePayments, s.FuturePayments)
	out.DeferredSchedule = make([]DeferredEntry, len(s.DeferredSchedule))
	copy(out.DeferredSchedule, s.DeferredSchedule)
	return out
}

// DealInput is the complete input for one engine invocation.
type DealInput struct {
	Deal     Deal          `json:"deal"`
	Contract Contract      `json:"contract"`
	State    ContractState `json:"state"`
}

// --- Result document ---
//
// Monetary outputs are serialized as base-10 strings with exactly two
// fractional digits (half-up) to preserve precision across JSON; booleans
// and integers remain native.

// DealSummary echoes the processed deal.
type DealSummary struct {
	DealName     string `json:"deal_name"`
	SuccessFees  string `json:"success_fees"`
	DealDate     string `json:"deal_date"`
	ContractYear int    `json:"contract_year"`
}

// Calculations is the detailed fee/commission breakdown.
type Calculations struct {
	FinraFee                 string `json:"finra_fee"`
	DistributionFee          string `json:"distribution_fee"`
	SourcingFee              string `json:"sourcing_fee"`
	ImpliedTotal             string `json:"implied_total"`
	DebtCollected            string `json:"debt_collected"`
	CreditUsed               string `json:"credit_used"`
	ImpliedAfterCredit       string `json:"implied_after_credit"`
	AdvanceFeesCreated       string `json:"advance_fees_created"`
	ImpliedAfterSubscription string `json:"implied_after_subscription"`
	FinalisCommissions       string `json:"finalis_commissions"`
	AmountNotChargedDueToCap string `json:"amount_not_charged_due_to_cap"`
	NetPayout                string `json:"net_payout"`
}

// StateChanges summarizes how this deal moved the contract state.
type StateChanges struct {
	DebtCollected          string `json:"debt_collected"`
	DebtRemaining          string `json:"debt_remaining"`
	CreditGenerated        string `json:"credit_generated"`
	CreditUsed             string `json:"credit_used"`
	CreditRemaining        string `json:"credit_remaining"`
	EnteredCommissionsMode bool   `json:"entered_commissions_mode"`
	IsNowInCommissionsMode bool   `json:"is_now_in_commissions_mode"`
}

// UpdatedPayment is one entry of the post-mutation payment list.
type UpdatedPayment struct {
	PaymentID       string `json:"payment_id"`
	DueDate         string `json:"due_date"`
	AmountDue       string `json:"amount_due"`
	AmountPaid      string `json:"amount_paid"`
	AmountRemaining string `json:"amount_remaining"`
}

// UpdatedContractState is the successor state for the caller to persist.
type UpdatedContractState struct {
	CurrentCredit              string          `json:"current_credit"`
	CurrentDebt                string          `json:"current_debt"`
	IsInCommissionsMode        bool            `json:"is_in_commissions_mode"`
	TotalPaidThisContractYear  string          `json:"total_paid_this_contract_year"`
	TotalPaidAllTime           string          `json:"total_paid_all_time"`
	AccumulatedSuccessFees     string          `json:"accumulated_success_fees"`
	PaygCommissionsAccumulated string          `json:"payg_commissions_accumulated"`
	DeferredSubscriptionFee    string          `json:"deferred_subscription_fee"`
	DeferredSchedule           []DeferredEntry `json:"deferred_schedule,omitempty"`
}

// PaygTracking is the PAYG-only ARR coverage block.
// FinalisCommissionsThisDeal is excess only; the ARR contribution is
// reported separately and must be added to obtain the total charge.
type PaygTracking struct {
	ArrTarget                  string  `json:"arr_target"`
	ArrContributionThisDeal    string  `json:"arr_contribution_this_deal"`
	FinalisCommissionsThisDeal string  `json:"finalis_commissions_this_deal"`
	CommissionsAccumulated     string  `json:"commissions_accumulated"`
	RemainingToCoverArr        string  `json:"remaining_to_cover_arr"`
	ArrCoveragePercentage      float64 `json:"arr_coverage_percentage"`
}

// DealResult is the full result document returned by the engine.
type DealResult struct {
	DealSummary           DealSummary          `json:"deal_summary"`
	Calculations          Calculations         `json:"calculations"`
	StateChanges          StateChanges         `json:"state_changes"`
	UpdatedFuturePayments []UpdatedPayment     `json:"updated_future_payments"`
	UpdatedContractState  UpdatedContractState `json:"updated_contract_state"`
	PaygTracking          *PaygTracking        `json:"payg_tracking,omitempty"`
}

// --- Registry records ---

// ContractRecord is a registered contract: configuration plus its current
// state, persisted between deals.
type ContractRecord struct {
	ID        string        `json:"id" db:"id"`
	Config    Contract      `json:"config" db:"config"`
	State     ContractState `json:"state" db:"state"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}

// ProcessedDeal is an immutable ledger record of one engine invocation
// against a registered contract. Once created, these are never modified
// or deleted.
type ProcessedDeal struct {
	ID                 string          `json:"id" db:"id"`
	ContractID         string          `json:"contract_id" db:"contract_id"`
	DealName           string          `json:"deal_name" db:"deal_name"`
	DealDate           string          `json:"deal_date" db:"deal_date"`
	SuccessFees        decimal.Decimal `json:"success_fees" db:"success_fees"`
	DebtCollected      decimal.Decimal `json:"debt_collected" db:"debt_collected"`
	AdvanceFeesCreated decimal.Decimal `json:"advance_fees_created" db:"advance_fees_created"`
	FinalisCommissions decimal.Decimal `json:"finalis_commissions" db:"finalis_commissions"`
	NetPayout          decimal.Decimal `json:"net_payout" db:"net_payout"`
	ProcessedAt        time.Time       `json:"processed_at" db:"processed_at"`
}
