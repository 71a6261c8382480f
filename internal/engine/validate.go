package engine

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DealSyte/commissions-calculator/internal/model"
)

var one = decimal.NewFromInt(1)

// validate rejects malformed input before any arithmetic begins. Every rule
// surfaces as a single ValidationError naming the field and reason.
func validate(in *model.DealInput) error {
	if err := validateDeal(&in.Deal); err != nil {
		return err
	}
	if err := validateContract(&in.Contract); err != nil {
		return err
	}
	if err := validateState(&in.State); err != nil {
		return err
	}
	return validatePayg(&in.Contract, &in.State)
}

func validateDeal(deal *model.Deal) error {
	if deal.Name == "" {
		return validationErrorf("deal.deal_name", "is required")
	}
	if !deal.SuccessFees.IsPositive() {
		return validationErrorf("deal.success_fees", "must be positive, got %s", deal.SuccessFees)
	}
	if err := validateDate("deal.deal_date", deal.DealDate, true); err != nil {
		return err
	}
	if deal.ExternalRetainer.IsNegative() {
		return validationErrorf("deal.external_retainer", "cannot be negative, got %s", deal.ExternalRetainer)
	}
	if deal.HasExternalRetainer {
		if deal.IncludeRetainerInFees == nil {
			return validationErrorf("deal.include_retainer_in_fees",
				"must be explicitly set when has_external_retainer is true")
		}
		if !deal.ExternalRetainer.IsPositive() {
			return validationErrorf("deal.external_retainer",
				"must be positive when has_external_retainer is true, got %s", deal.ExternalRetainer)
		}
	}
	if deal.HasPreferredRate {
		if deal.PreferredRate == nil {
			return validationErrorf("deal.preferred_rate", "is required when has_preferred_rate is true")
		}
		if err := validateRate("deal.preferred_rate", *deal.PreferredRate); err != nil {
			return err
		}
	}
	return nil
}

func validateContract(contract *model.Contract) error {
	switch contract.RateType {
	case model.RateTypeFixed:
		if contract.FixedRate == nil {
			return validationErrorf("contract.fixed_rate", "is required when rate_type is %q", model.RateTypeFixed)
		}
		if err := validateRate("contract.fixed_rate", *contract.FixedRate); err != nil {
			return err
		}
	case model.RateTypeLehman:
		if len(contract.LehmanTiers) == 0 {
			return validationErrorf("contract.lehman_tiers", "must be non-empty when rate_type is %q", model.RateTypeLehman)
		}
		for i, tier := range contract.LehmanTiers {
			if err := validateRate(tierField(i), tier.Rate); err != nil {
				return err
			}
		}
	default:
		return validationErrorf("contract.rate_type", "must be %q or %q, got %q",
			model.RateTypeFixed, model.RateTypeLehman, contract.RateType)
	}

	if contract.AccumulatedSuccessFees.IsNegative() {
		return validationErrorf("contract.accumulated_success_fees_before_this_deal",
			"cannot be negative, got %s", contract.AccumulatedSuccessFees)
	}
	if err := validateDate("contract.contract_start_date", contract.ContractStartDate, false); err != nil {
		return err
	}
	if contract.AnnualSubscription.IsNegative() {
		return validationErrorf("contract.annual_subscription", "cannot be negative, got %s", contract.AnnualSubscription)
	}

	if contract.CostCapType != "" {
		if contract.CostCapType != model.CostCapAnnual && contract.CostCapType != model.CostCapTotal {
			return validationErrorf("contract.cost_cap_type", "must be %q or %q, got %q",
				model.CostCapAnnual, model.CostCapTotal, contract.CostCapType)
		}
		if contract.CostCapAmount == nil {
			return validationErrorf("contract.cost_cap_amount", "is required when cost_cap_type is set")
		}
		if contract.CostCapAmount.IsNegative() {
			return validationErrorf("contract.cost_cap_amount", "cannot be negative, got %s", contract.CostCapAmount)
		}
	}
	return nil
}

func validateState(state *model.ContractState) error {
	if state.CurrentCredit.IsNegative() {
		return validationErrorf("state.current_credit", "cannot be negative, got %s", state.CurrentCredit)
	}
	if state.CurrentDebt.IsNegative() {
		return validationErrorf("state.current_debt", "cannot be negative, got %s", state.CurrentDebt)
	}
	if state.DeferredSubscriptionFee.IsNegative() {
		return validationErrorf("state.deferred_subscription_fee", "cannot be negative, got %s", state.DeferredSubscriptionFee)
	}
	for i, p := range state.FuturePayments {
		field := paymentField(i)
		if p.AmountDue.IsNegative() {
			return validationErrorf(field+".amount_due", "cannot be negative, got %s", p.AmountDue)
		}
		if p.AmountPaid.IsNegative() {
			return validationErrorf(field+".amount_paid", "cannot be negative, got %s", p.AmountPaid)
		}
		if p.AmountPaid.GreaterThan(p.AmountDue) {
			return validationErrorf(field+".amount_paid", "cannot exceed amount_due (%s > %s)", p.AmountPaid, p.AmountDue)
		}
		if err := validateDate(field+".due_date", p.DueDate, true); err != nil {
			return err
		}
	}
	for i, e := range state.DeferredSchedule {
		if e.Amount.IsNegative() {
			return validationErrorf(deferredField(i), "cannot be negative, got %s", e.Amount)
		}
	}
	return nil
}

// validatePayg enforces the Pay-As-You-Go entry invariants: no credit and no
// prepaid subscription schedule.
func validatePayg(contract *model.Contract, state *model.ContractState) error {
	if !contract.IsPayAsYouGo {
		return nil
	}
	if state.CurrentCredit.IsPositive() {
		return validationErrorf("state.current_credit",
			"pay-as-you-go contracts cannot carry credit, got %s", state.CurrentCredit)
	}
	if len(state.FuturePayments) > 0 {
		return validationErrorf("state.future_subscription_fees",
			"pay-as-you-go contracts cannot have future subscription fees")
	}
	return nil
}

func validateRate(field string, rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(one) {
		return validationErrorf(field, "must be between 0 and 1, got %s", rate)
	}
	return nil
}

func validateDate(field, value string, required bool) error {
	if value == "" {
		if required {
			return validationErrorf(field, "is required")
		}
		return nil
	}
	if _, err := time.Parse(dateLayout, value); err != nil {
		return validationErrorf(field, "must be an ISO date (YYYY-MM-DD), got %q", value)
	}
	return nil
}

func tierField(i int) string {
	return "contract.lehman_tiers[" + strconv.Itoa(i) + "].rate"
}

func paymentField(i int) string {
	return "state.future_subscription_fees[" + strconv.Itoa(i) + "]"
}

func deferredField(i int) string {
	return "state.deferred_schedule[" + strconv.Itoa(i) + "].amount"
}
