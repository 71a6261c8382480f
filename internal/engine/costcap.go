package engine

import "github.com/DealSyte/commissions-calculator/internal/model"

// enforceCostCap clamps the chargeable total against the configured annual
// or lifetime ceiling. The cap covers commissions plus the PAYG ARR
// contribution; advance subscription prepayments commit against the cap
// first and are never reduced, and fixed service fees are outside the cap
// entirely.
//
// PAYG reduction order is excess commissions first, then the ARR
// contribution. When the cap truncates ARR coverage, the contract does not
// enter commissions mode even though commissions were computed.
func enforceCostCap(c procContext) procContext {
	if !c.contract.HasCostCap() {
		return c
	}

	paidSoFar := c.initial.TotalPaidAllTime
	if c.contract.CostCapType == model.CostCapAnnual {
		paidSoFar = c.initial.TotalPaidThisContractYear
	}
	available := clampZero(c.contract.CostCapAmount.Sub(paidSoFar))

	chargeable := c.arrContribution.Add(c.finalisCommissions)
	if c.advanceFeesCreated.Add(chargeable).LessThanOrEqual(available) {
		return c
	}

	spaceForFinalis := clampZero(available.Sub(c.advanceFeesCreated))
	arrAfterCap := minDecimal(c.arrContribution, spaceForFinalis)
	excessAfterCap := minDecimal(c.finalisCommissions, spaceForFinalis.Sub(arrAfterCap))

	c.amountNotChargedDueToCap = clampZero(chargeable.Sub(arrAfterCap).Sub(excessAfterCap))

	if c.contract.IsPayAsYouGo {
		c.paygAccumulated = c.initial.PaygCommissionsAccumulated.Add(arrAfterCap)
		if arrAfterCap.LessThan(c.arrContribution) {
			// ARR coverage was truncated by the cap.
			c.enteredCommissionsMode = false
			c.nowInCommissionsMode = c.initial.IsInCommissionsMode
		}
	}

	c.arrContribution = arrAfterCap
	c.finalisCommissions = excessAfterCap
	return c
}
