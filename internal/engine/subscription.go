package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// applySubscription force-prepays future scheduled subscription payments
// from the implied cost remaining after credit. Payments are settled in due
// date order (stable for equal dates) until either the payments are fully
// paid or the implied remainder runs out.
//
// PAYG contracts carry no subscription schedule; the stage passes the
// implied cost through unchanged.
func applySubscription(c procContext) procContext {
	if c.contract.IsPayAsYouGo {
		c.advanceFeesCreated = decimal.Zero
		c.impliedAfterSubscription = c.impliedAfterCredit
		return c
	}

	sort.SliceStable(c.payments, func(i, j int) bool {
		return c.payments[i].DueDate < c.payments[j].DueDate
	})

	available := c.impliedAfterCredit
	for i := range c.payments {
		if !available.IsPositive() {
			break
		}
		take := minDecimal(c.payments[i].AmountOwed(), available)
		if !take.IsPositive() {
			continue
		}
		c.payments[i].AmountPaid = c.payments[i].AmountPaid.Add(take)
		available = available.Sub(take)
		c.advanceFeesCreated = c.advanceFeesCreated.Add(take)
	}

	c.impliedAfterSubscription = available
	return c
}
