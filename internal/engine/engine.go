// Package engine implements the deterministic deal-processing pipeline: a
// single M&A transaction is evaluated against a contract configuration and
// its evolving state, producing a fee/commission breakdown, the successor
// contract state, and the net payout owed to the broker.
//
// The pipeline runs nine stages in strict order: validation, fixed fees,
// implied cost, debt collection, credit application, subscription
// prepayment, commission determination, cost-cap enforcement, and payout
// assembly. Each stage is a pure function that takes the processing context
// by value and returns the successor context, so the ordering invariant is
// visible in the call chain rather than hidden in shared mutation.
//
// The engine is purely functional with respect to its caller: inputs are
// deep-copied, nothing is shared across invocations, and the caller
// persists the returned state. All monetary values use shopspring/decimal —
// never float64 for money. Intermediate arithmetic keeps full precision;
// half-up rounding to two fractional digits happens only at emission.
package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/DealSyte/commissions-calculator/internal/model"
)

const dateLayout = "2006-01-02"

// procContext carries the immutable inputs and every intermediate the
// stages accumulate. It is created per call and owned by exactly one stage
// at a time.
type procContext struct {
	deal     model.Deal
	contract model.Contract
	initial  model.ContractState // caller's state, deep-copied, never mutated

	contractYear int

	// Fee stage.
	finraFee        decimal.Decimal
	distributionFee decimal.Decimal
	sourcingFee     decimal.Decimal
	impliedTotal    decimal.Decimal

	// Debt stage.
	regularCollected  decimal.Decimal
	deferredCollected decimal.Decimal
	debtCollected     decimal.Decimal
	debtRemaining     decimal.Decimal
	deferredSchedule  []model.DeferredEntry // successor schedule
	deferredScalar    decimal.Decimal       // successor legacy scalar
	creditGenerated   decimal.Decimal
	creditBalance     decimal.Decimal // prior credit + generated

	// Credit stage.
	creditUsed         decimal.Decimal
	creditRemaining    decimal.Decimal
	impliedAfterCredit decimal.Decimal

	// Subscription stage.
	payments                 []model.FuturePayment // successor payment list
	advanceFeesCreated       decimal.Decimal
	impliedAfterSubscription decimal.Decimal

	// Commission + cost-cap stages.
	finalisCommissions       decimal.Decimal
	arrContribution          decimal.Decimal
	amountNotChargedDueToCap decimal.Decimal
	enteredCommissionsMode   bool
	nowInCommissionsMode     bool
	paygAccumulated          decimal.Decimal // successor ARR bucket

	// Payout stage.
	netPayout         decimal.Decimal
	totalPaidThisYear decimal.Decimal
	totalPaidAllTime  decimal.Decimal
}

// Processor runs the pipeline. It is stateless and safe for concurrent use;
// simultaneous invocations share nothing.
type Processor struct{}

// NewProcessor creates a deal processor.
func NewProcessor() *Processor {
	return &Processor{}
}

// Process runs one deal through the complete pipeline. It returns a
// ValidationError for malformed input and wraps ErrInternal if a stage
// violates an arithmetic invariant on validated input. Identical inputs
// produce identical results.
func (p *Processor) Process(in model.DealInput) (*model.DealResult, error) {
	if err := validate(&in); err != nil {
		return nil, err
	}

	ctx := newContext(in)
	ctx, err := computeFees(ctx)
	if err != nil {
		return nil, err
	}
	ctx = collectDebt(ctx)
	ctx = applyCredit(ctx)
	ctx = applySubscription(ctx)
	ctx = computeCommissions(ctx)
	ctx = enforceCostCap(ctx)
	ctx = assemblePayout(ctx)

	return buildResult(ctx)
}

// newContext deep-copies the input and derives the contract year. Dates are
// already validated.
func newContext(in model.DealInput) procContext {
	state := in.State.Clone()
	year := 1
	if in.Contract.ContractStartDate != "" {
		year = contractYear(in.Contract.ContractStartDate, in.Deal.DealDate)
	}
	return procContext{
		deal:             in.Deal,
		contract:         in.Contract,
		initial:          state,
		contractYear:     year,
		deferredSchedule: state.DeferredSchedule,
		deferredScalar:   state.DeferredSubscriptionFee,
		payments:         state.FuturePayments,
	}
}

// contractYear computes the 1-based 365-day contract year ordinal for the
// deal date. Year 1 = days 0–364. The 365-day slice is a product rule; it
// deliberately ignores leap years.
func contractYear(startDate, dealDate string) int {
	start, _ := time.Parse(dateLayout, startDate)
	deal, _ := time.Parse(dateLayout, dealDate)
	days := int(deal.Sub(start).Hours() / 24)
	return floorDiv(days, 365) + 1
}

// floorDiv divides rounding toward negative infinity, so deals dated before
// the contract start land in non-positive year ordinals instead of year 1.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// clampZero floors a monetary value at zero.
func clampZero(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}

// minDecimal returns the smaller of a and b.
func minDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
