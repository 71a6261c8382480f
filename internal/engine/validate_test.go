package engine

import (
	"testing"

	"github.com/DealSyte/commissions-calculator/internal/model"
)

func validInput() model.DealInput {
	return model.DealInput{
		Deal:     baseDeal(100000),
		Contract: fixedContract(0.05),
	}
}

func wantValidationError(t *testing.T, in model.DealInput, field string) {
	t.Helper()
	_, err := NewProcessor().Process(in)
	if err == nil {
		t.Fatalf("expected validation error on %s", field)
	}
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	if ve.Field != field {
		t.Errorf("expected field %q, got %q (%s)", field, ve.Field, ve.Reason)
	}
}

func TestValidInputPasses(t *testing.T) {
	if _, err := NewProcessor().Process(validInput()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRejectsNonPositiveSuccessFees(t *testing.T) {
	in := validInput()
	in.Deal.SuccessFees = d(0)
	wantValidationError(t, in, "deal.success_fees")

	in.Deal.SuccessFees = d(-100)
	wantValidationError(t, in, "deal.success_fees")
}

func TestRejectsMissingDealName(t *testing.T) {
	in := validInput()
	in.Deal.Name = ""
	wantValidationError(t, in, "deal.deal_name")
}

func TestRejectsBadDealDate(t *testing.T) {
	in := validInput()
	in.Deal.DealDate = "15/06/2025"
	wantValidationError(t, in, "deal.deal_date")

	in.Deal.DealDate = ""
	wantValidationError(t, in, "deal.deal_date")
}

func TestRejectsBadContractStartDate(t *testing.T) {
	in := validInput()
	in.Contract.ContractStartDate = "not-a-date"
	wantValidationError(t, in, "contract.contract_start_date")
}

func TestRejectsRetainerWithoutInclusionFlag(t *testing.T) {
	in := validInput()
	in.Deal.HasExternalRetainer = true
	in.Deal.ExternalRetainer = d(50000)
	wantValidationError(t, in, "deal.include_retainer_in_fees")
}

func TestRejectsNegativeRetainer(t *testing.T) {
	in := validInput()
	in.Deal.ExternalRetainer = d(-1)
	wantValidationError(t, in, "deal.external_retainer")
}

func TestRejectsPreferredRateOutOfRange(t *testing.T) {
	in := validInput()
	in.Deal.HasPreferredRate = true
	in.Deal.PreferredRate = dp(1.5)
	wantValidationError(t, in, "deal.preferred_rate")

	in.Deal.PreferredRate = nil
	wantValidationError(t, in, "deal.preferred_rate")
}

func TestRejectsUnknownRateType(t *testing.T) {
	in := validInput()
	in.Contract.RateType = "hourly"
	wantValidationError(t, in, "contract.rate_type")
}

func TestRejectsFixedWithoutRate(t *testing.T) {
	in := validInput()
	in.Contract.FixedRate = nil
	wantValidationError(t, in, "contract.fixed_rate")
}

func TestRejectsFixedRateOutOfRange(t *testing.T) {
	in := validInput()
	in.Contract.FixedRate = dp(1.01)
	wantValidationError(t, in, "contract.fixed_rate")
}

func TestRejectsLehmanWithoutTiers(t *testing.T) {
	in := validInput()
	in.Contract = model.Contract{RateType: model.RateTypeLehman}
	wantValidationError(t, in, "contract.lehman_tiers")
}

func TestRejectsLehmanTierRateOutOfRange(t *testing.T) {
	in := validInput()
	in.Contract = model.Contract{
		RateType: model.RateTypeLehman,
		LehmanTiers: []model.LehmanTier{
			{LowerBound: d(0), Rate: d(0.05)},
			{LowerBound: d(1000000), Rate: d(2)},
		},
	}
	wantValidationError(t, in, "contract.lehman_tiers[1].rate")
}

func TestRejectsNegativeState(t *testing.T) {
	in := validInput()
	in.State.CurrentCredit = d(-1)
	wantValidationError(t, in, "state.current_credit")

	in = validInput()
	in.State.CurrentDebt = d(-1)
	wantValidationError(t, in, "state.current_debt")
}

func TestRejectsOverpaidPayment(t *testing.T) {
	in := validInput()
	in.State.FuturePayments = []model.FuturePayment{
		{PaymentID: "p1", DueDate: "2025-07-01", AmountDue: d(100), AmountPaid: d(200)},
	}
	wantValidationError(t, in, "state.future_subscription_fees[0].amount_paid")
}

func TestRejectsBadPaymentDueDate(t *testing.T) {
	in := validInput()
	in.State.FuturePayments = []model.FuturePayment{
		{PaymentID: "p1", DueDate: "July 1", AmountDue: d(100), AmountPaid: d(0)},
	}
	wantValidationError(t, in, "state.future_subscription_fees[0].due_date")
}

func TestRejectsPaygWithCredit(t *testing.T) {
	in := validInput()
	in.Contract.IsPayAsYouGo = true
	in.State.CurrentCredit = d(100)
	wantValidationError(t, in, "state.current_credit")
}

func TestRejectsPaygWithFuturePayments(t *testing.T) {
	in := validInput()
	in.Contract.IsPayAsYouGo = true
	in.State.FuturePayments = []model.FuturePayment{
		{PaymentID: "p1", DueDate: "2025-07-01", AmountDue: d(100), AmountPaid: d(0)},
	}
	wantValidationError(t, in, "state.future_subscription_fees")
}

func TestRejectsCostCapWithoutAmount(t *testing.T) {
	in := validInput()
	in.Contract.CostCapType = model.CostCapAnnual
	wantValidationError(t, in, "contract.cost_cap_amount")
}

func TestRejectsUnknownCostCapType(t *testing.T) {
	in := validInput()
	in.Contract.CostCapType = "monthly"
	in.Contract.CostCapAmount = dp(1000)
	wantValidationError(t, in, "contract.cost_cap_type")
}
