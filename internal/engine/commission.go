package engine

import "github.com/shopspring/decimal"

// computeCommissions classifies the residual implied cost.
//
// Standard contracts: whatever implied cost survives credit and subscription
// prepayment is Finalis commission; a positive residual means the contract
// has graduated past subscription prepayment into commissions mode.
//
// PAYG contracts: implied cost first fills the annual-subscription (ARR)
// bucket; only the excess past the ARR target is commission. Commissions
// mode starts once the accumulated bucket reaches the target, exact hits
// included.
func computeCommissions(c procContext) procContext {
	if c.contract.IsPayAsYouGo {
		return computePaygCommissions(c)
	}

	c.finalisCommissions = c.impliedAfterSubscription
	positive := c.finalisCommissions.IsPositive()
	c.enteredCommissionsMode = positive && !c.initial.IsInCommissionsMode
	c.nowInCommissionsMode = c.initial.IsInCommissionsMode || positive
	c.paygAccumulated = c.initial.PaygCommissionsAccumulated
	return c
}

func computePaygCommissions(c procContext) procContext {
	arr := c.contract.AnnualSubscription
	accumulated := c.initial.PaygCommissionsAccumulated

	if c.initial.IsInCommissionsMode || accumulated.GreaterThanOrEqual(arr) {
		// ARR already covered; all implied is commission.
		c.arrContribution = decimal.Zero
		c.finalisCommissions = c.impliedTotal
		c.enteredCommissionsMode = !c.initial.IsInCommissionsMode
		c.nowInCommissionsMode = true
		c.paygAccumulated = accumulated
		return c
	}

	remainingArr := arr.Sub(accumulated)
	c.arrContribution = minDecimal(c.impliedTotal, remainingArr)
	c.finalisCommissions = c.impliedTotal.Sub(c.arrContribution)
	c.paygAccumulated = accumulated.Add(c.arrContribution)

	covered := c.paygAccumulated.GreaterThanOrEqual(arr)
	c.enteredCommissionsMode = covered
	c.nowInCommissionsMode = covered
	return c
}
