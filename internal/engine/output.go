package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/DealSyte/commissions-calculator/internal/model"
)

var hundred = decimal.NewFromInt(100)

// buildResult quantizes every monetary field to two fractional digits
// (half-up) and assembles the result document. This is the only place in
// the pipeline where rounding happens.
func buildResult(c procContext) (*model.DealResult, error) {
	if err := checkInvariants(c); err != nil {
		return nil, err
	}

	result := &model.DealResult{
		DealSummary: model.DealSummary{
			DealName:     c.deal.Name,
			SuccessFees:  money(c.deal.SuccessFees),
			DealDate:     c.deal.DealDate,
			ContractYear: c.contractYear,
		},
		Calculations: model.Calculations{
			FinraFee:                 money(c.finraFee),
			DistributionFee:          money(c.distributionFee),
			SourcingFee:              money(c.sourcingFee),
			ImpliedTotal:             money(c.impliedTotal),
			DebtCollected:            money(c.debtCollected),
			CreditUsed:               money(c.creditUsed),
			ImpliedAfterCredit:       money(c.impliedAfterCredit),
			AdvanceFeesCreated:       money(c.advanceFeesCreated),
			ImpliedAfterSubscription: money(c.impliedAfterSubscription),
			FinalisCommissions:       money(c.finalisCommissions),
			AmountNotChargedDueToCap: money(c.amountNotChargedDueToCap),
			NetPayout:                money(c.netPayout),
		},
		StateChanges: model.StateChanges{
			DebtCollected:          money(c.debtCollected),
			DebtRemaining:          money(c.debtRemaining),
			CreditGenerated:        money(c.creditGenerated),
			CreditUsed:             money(c.creditUsed),
			CreditRemaining:        money(c.creditRemaining),
			EnteredCommissionsMode: c.enteredCommissionsMode,
			IsNowInCommissionsMode: c.nowInCommissionsMode,
		},
		UpdatedFuturePayments: updatedPayments(c.payments),
		UpdatedContractState: model.UpdatedContractState{
			CurrentCredit:              money(c.creditRemaining),
			CurrentDebt:                money(c.debtRemaining),
			IsInCommissionsMode:        c.nowInCommissionsMode,
			TotalPaidThisContractYear:  money(c.totalPaidThisYear),
			TotalPaidAllTime:           money(c.totalPaidAllTime),
			AccumulatedSuccessFees:     money(c.contract.AccumulatedSuccessFees.Add(c.deal.SuccessFees)),
			PaygCommissionsAccumulated: money(c.paygAccumulated),
			DeferredSubscriptionFee:    money(c.deferredScalar),
			DeferredSchedule:           quantizedSchedule(c.deferredSchedule),
		},
	}

	if c.contract.IsPayAsYouGo {
		result.PaygTracking = buildPaygTracking(c)
	}
	return result, nil
}

// buildPaygTracking reports ARR coverage. finalis_commissions_this_deal is
// the excess past the ARR target only; the ARR contribution is a separate
// field.
func buildPaygTracking(c procContext) *model.PaygTracking {
	arr := c.contract.AnnualSubscription
	coverage := 0.0
	if arr.IsPositive() {
		coverage = c.paygAccumulated.Div(arr).Mul(hundred).Round(2).InexactFloat64()
	}
	return &model.PaygTracking{
		ArrTarget:                  money(arr),
		ArrContributionThisDeal:    money(c.arrContribution),
		FinalisCommissionsThisDeal: money(c.finalisCommissions),
		CommissionsAccumulated:     money(c.paygAccumulated),
		RemainingToCoverArr:        money(clampZero(arr.Sub(c.paygAccumulated))),
		ArrCoveragePercentage:      coverage,
	}
}

func updatedPayments(payments []model.FuturePayment) []model.UpdatedPayment {
	out := make([]model.UpdatedPayment, 0, len(payments))
	for _, p := range payments {
		out = append(out, model.UpdatedPayment{
			PaymentID:       p.PaymentID,
			DueDate:         p.DueDate,
			AmountDue:       money(p.AmountDue),
			AmountPaid:      money(p.AmountPaid),
			AmountRemaining: money(p.AmountOwed()),
		})
	}
	return out
}

func quantizedSchedule(schedule []model.DeferredEntry) []model.DeferredEntry {
	if len(schedule) == 0 {
		return nil
	}
	out := make([]model.DeferredEntry, len(schedule))
	for i, e := range schedule {
		out[i] = model.DeferredEntry{Year: e.Year, Amount: e.Amount.Round(2)}
	}
	return out
}

// checkInvariants guards the emission boundary: no stage may have produced
// a negative monetary value, payments must stay within their due amounts,
// and the implied chain must be monotone non-increasing.
func checkInvariants(c procContext) error {
	monetary := map[string]decimal.Decimal{
		"finra_fee":                  c.finraFee,
		"distribution_fee":           c.distributionFee,
		"sourcing_fee":               c.sourcingFee,
		"implied_total":              c.impliedTotal,
		"debt_collected":             c.debtCollected,
		"debt_remaining":             c.debtRemaining,
		"credit_generated":           c.creditGenerated,
		"credit_used":                c.creditUsed,
		"credit_remaining":           c.creditRemaining,
		"implied_after_credit":       c.impliedAfterCredit,
		"advance_fees_created":       c.advanceFeesCreated,
		"implied_after_subscription": c.impliedAfterSubscription,
		"finalis_commissions":        c.finalisCommissions,
		"arr_contribution":           c.arrContribution,
		"amount_not_charged":         c.amountNotChargedDueToCap,
		"net_payout":                 c.netPayout,
	}
	for field, v := range monetary {
		if v.IsNegative() {
			return fmt.Errorf("%w: %s is negative (%s)", ErrInternal, field, v)
		}
	}
	for _, p := range c.payments {
		if p.AmountPaid.GreaterThan(p.AmountDue) {
			return fmt.Errorf("%w: payment %s overpaid (%s > %s)",
				ErrInternal, p.PaymentID, p.AmountPaid, p.AmountDue)
		}
	}
	if c.impliedAfterCredit.GreaterThan(c.impliedTotal) ||
		c.impliedAfterSubscription.GreaterThan(c.impliedAfterCredit) {
		return fmt.Errorf("%w: implied chain is not monotone", ErrInternal)
	}
	return nil
}

// money quantizes to two fractional digits, rounding half-up.
func money(v decimal.Decimal) string {
	return v.StringFixed(2)
}
