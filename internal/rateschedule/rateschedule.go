// Package rateschedule implements the implied-cost rate schedules used to
// price broker-dealer deals: a deal-level preferred-rate override, the flat
// exempt rate, a contract fixed rate, and progressive Lehman tiers.
//
// The four kinds form a closed set behind the Schedule interface; selection
// priority is preferred > exempt > lehman > fixed, with the first match
// winning. All monetary values use shopspring/decimal — never float64 for
// money. No rounding happens here; callers quantize at emission.
package rateschedule

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/DealSyte/commissions-calculator/internal/model"
)

var (
	// ErrNoApplicableRate is returned when neither a deal override nor a
	// usable contract rate configuration is present.
	ErrNoApplicableRate = errors.New("rateschedule: no applicable rate configuration")
)

// ExemptRate is the flat rate applied to exempt deals (1.5%).
var ExemptRate = decimal.NewFromFloat(0.015)

// Schedule computes the implied broker-dealer cost for a fee basis.
type Schedule interface {
	// Implied returns the implied cost for the given basis at full
	// precision.
	Implied(basis decimal.Decimal) decimal.Decimal
}

// Flat charges a single rate on the whole basis. Used for the preferred-rate
// override, the exempt rate, and fixed-rate contracts.
type Flat struct {
	Rate decimal.Decimal
}

// Implied returns basis * rate.
func (f Flat) Implied(basis decimal.Decimal) decimal.Decimal {
	return basis.Mul(f.Rate)
}

// Lehman charges progressive tier rates over cumulative deal volume. The
// traversal starts at the contract's accumulated success fees, so a deal is
// priced by the bands its volume actually lands in.
type Lehman struct {
	Tiers []model.LehmanTier

	// Accumulated is the cumulative success-fee volume before this deal;
	// it positions the traversal cursor.
	Accumulated decimal.Decimal
}

// Implied walks the tiers in order, consuming the basis band by band.
//
// Tiers are half-open [lower, upper); a nil upper bound is open-ended. Gaps
// between tiers are jumped without consuming basis. Volume past the last
// tier accrues at rate 0 — tier tables are expected to end with an
// open-ended terminal tier.
func (l Lehman) Implied(basis decimal.Decimal) decimal.Decimal {
	cursor := l.Accumulated
	remaining := basis
	implied := decimal.Zero

	for _, tier := range l.Tiers {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		// Tier already exhausted by history.
		if tier.UpperBound != nil && cursor.GreaterThanOrEqual(*tier.UpperBound) {
			continue
		}
		// Gap-jump: position the cursor at the tier start.
		if cursor.LessThan(tier.LowerBound) {
			cursor = tier.LowerBound
		}

		take := remaining
		if tier.UpperBound != nil {
			capacity := tier.UpperBound.Sub(cursor)
			if capacity.LessThan(take) {
				take = capacity
			}
		}
		if take.LessThanOrEqual(decimal.Zero) {
			continue
		}

		implied = implied.Add(take.Mul(tier.Rate))
		cursor = cursor.Add(take)
		remaining = remaining.Sub(take)
	}

	return implied
}

// For selects the schedule for a deal/contract pair by priority:
//
//  1. Deal preferred rate override
//  2. Deal exempt flat rate
//  3. Lehman progressive tiers
//  4. Contract fixed rate
func For(deal *model.Deal, contract *model.Contract) (Schedule, error) {
	if deal.HasPreferredRate && deal.PreferredRate != nil {
		return Flat{Rate: *deal.PreferredRate}, nil
	}
	if deal.IsDealExempt {
		return Flat{Rate: ExemptRate}, nil
	}
	if contract.RateType == model.RateTypeLehman && len(contract.LehmanTiers) > 0 {
		return Lehman{
			Tiers:       contract.LehmanTiers,
			Accumulated: contract.AccumulatedSuccessFees,
		}, nil
	}
	if contract.FixedRate != nil {
		return Flat{Rate: *contract.FixedRate}, nil
	}
	return nil, ErrNoApplicableRate
}
