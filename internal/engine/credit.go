package engine

import "github.com/shopspring/decimal"

// applyCredit offsets the implied cost with the credit balance (prior credit
// plus credit generated by this deal's debt collection).
//
// PAYG contracts have no credit system. Once a standard contract is in
// commissions mode, credit is no longer applied; generated credit still
// accrues to the balance.
func applyCredit(c procContext) procContext {
	if c.contract.IsPayAsYouGo {
		c.creditUsed = decimal.Zero
		c.creditRemaining = decimal.Zero
		c.impliedAfterCredit = c.impliedTotal
		return c
	}
	if c.initial.IsInCommissionsMode {
		c.creditUsed = decimal.Zero
		c.creditRemaining = c.creditBalance
		c.impliedAfterCredit = c.impliedTotal
		return c
	}

	c.creditUsed = minDecimal(c.creditBalance, c.impliedTotal)
	c.creditRemaining = c.creditBalance.Sub(c.creditUsed)
	c.impliedAfterCredit = c.impliedTotal.Sub(c.creditUsed)
	return c
}
