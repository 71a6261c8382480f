package engine

// assemblePayout computes the net payout owed to the broker and rolls the
// cumulative payment counters forward.
//
// Net payout is the deal's success fees minus every deduction: service fees,
// collected debt, advance subscription prepayments, commissions, and (for
// PAYG) the ARR contribution. The result is clamped at zero defensively;
// validated inputs cannot drive it negative except when deductions exceed
// the gross, which the clamp absorbs.
func assemblePayout(c procContext) procContext {
	net := c.deal.SuccessFees.
		Sub(c.finraFee).
		Sub(c.distributionFee).
		Sub(c.sourcingFee).
		Sub(c.debtCollected).
		Sub(c.advanceFeesCreated).
		Sub(c.finalisCommissions).
		Sub(c.arrContribution)
	c.netPayout = clampZero(net)

	charged := c.advanceFeesCreated.Add(c.finalisCommissions).Add(c.arrContribution)
	c.totalPaidThisYear = c.initial.TotalPaidThisContractYear.Add(charged)
	c.totalPaidAllTime = c.initial.TotalPaidAllTime.Add(charged)
	return c
}
