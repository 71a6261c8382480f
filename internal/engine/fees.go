package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/DealSyte/commissions-calculator/internal/rateschedule"
)

// Regulatory and service fee rates.
var (
	// finraRate is the FINRA/SIPC pass-through rate (0.4732%).
	finraRate = decimal.NewFromFloat(0.004732)

	// distributionRate applies when the deal was distributed through the
	// platform network.
	distributionRate = decimal.NewFromFloat(0.10)

	// sourcingRate applies when the counterparty was sourced through the
	// platform network.
	sourcingRate = decimal.NewFromFloat(0.10)
)

// computeFees runs the fixed-fee and implied-cost stages. All amounts are
// computed on the retainer base: success fees plus the external retainer
// when the retainer is included in fees. Service fees are subtracted from
// the broker's gross at payout; they never feed debt or credit.
func computeFees(c procContext) (procContext, error) {
	base := c.deal.RetainerBase()

	if c.deal.FinraFeeApplies() {
		c.finraFee = base.Mul(finraRate)
	}
	if c.deal.IsDistributionFee {
		c.distributionFee = base.Mul(distributionRate)
	}
	if c.deal.IsSourcingFee {
		c.sourcingFee = base.Mul(sourcingRate)
	}

	schedule, err := rateschedule.For(&c.deal, &c.contract)
	if err != nil {
		// Validation guarantees a usable rate configuration; reaching
		// this is a bug.
		return c, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	c.impliedTotal = schedule.Implied(base)
	return c, nil
}
