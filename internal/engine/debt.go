package engine

import "github.com/shopspring/decimal"

// collectDebt collects outstanding amounts out of the deal's gross, bounded
// by success fees (the external retainer never flows through the engine).
// Regular debt is collected first, then the deferred subscription amount for
// the current contract year.
//
// On standard contracts the full collected amount converts to credit at
// 100%, regular and deferred alike. PAYG contracts have no credit system.
func collectDebt(c procContext) procContext {
	available := c.deal.SuccessFees

	c.regularCollected = minDecimal(c.initial.CurrentDebt, available)
	c.debtRemaining = c.initial.CurrentDebt.Sub(c.regularCollected)

	applicable, legacy := applicableDeferred(c)
	c.deferredCollected = minDecimal(applicable, available.Sub(c.regularCollected))
	c = settleDeferred(c, legacy)

	c.debtCollected = c.regularCollected.Add(c.deferredCollected)

	if c.contract.IsPayAsYouGo {
		c.creditGenerated = decimal.Zero
	} else {
		c.creditGenerated = c.debtCollected
	}
	c.creditBalance = c.initial.CurrentCredit.Add(c.creditGenerated)
	return c
}

// applicableDeferred returns the deferred amount collectible this contract
// year and whether it came from the legacy scalar. The per-year schedule
// takes precedence; the legacy deferred_subscription_fee scalar is only
// consulted when the schedule is empty. Deals with no contract start date
// have no deferred collection.
func applicableDeferred(c procContext) (decimal.Decimal, bool) {
	if c.contract.ContractStartDate == "" {
		return decimal.Zero, false
	}
	if len(c.deferredSchedule) > 0 {
		for _, entry := range c.deferredSchedule {
			if entry.Year == c.contractYear {
				return entry.Amount, false
			}
		}
		return decimal.Zero, false
	}
	return c.deferredScalar, true
}

// settleDeferred writes the collected deferral back into the successor
// state: schedule entries are decremented and removed once zero; the legacy
// scalar is reduced in place.
func settleDeferred(c procContext, legacy bool) procContext {
	if c.deferredCollected.IsZero() {
		return c
	}
	if legacy {
		c.deferredScalar = clampZero(c.deferredScalar.Sub(c.deferredCollected))
		return c
	}
	schedule := c.deferredSchedule[:0]
	for _, entry := range c.deferredSchedule {
		if entry.Year == c.contractYear {
			entry.Amount = clampZero(entry.Amount.Sub(c.deferredCollected))
			if entry.Amount.IsZero() {
				continue
			}
		}
		schedule = append(schedule, entry)
	}
	c.deferredSchedule = schedule
	return c
}
