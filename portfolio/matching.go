package portfolio

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/apperrors"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/util"
)

// UK identification rules are an ordered priority list: a disposal matches
// same-day acquisitions first, then the section 104 pool. Each rule is a
// strategy consuming from a shared remaining-quantity counter, so the
// priority order stays auditable and testable in isolation.

type matchPortion struct {
	Quantity decimal.Decimal
	CostGBP  decimal.Decimal
}

type matchStrategy interface {
	name() string
	available() decimal.Decimal
	// take consumes up to remaining units from this rule's lot, returning
	// the matched quantity and its allowable cost.
	take(remaining decimal.Decimal) matchPortion
}

// dayPot aggregates one calendar day's acquisitions for one security, at
// their actual (not pooled) cost. Whatever same-day matching leaves behind
// is rolled into the pool at the end of the day.
type dayPot struct {
	Quantity decimal.Decimal
	CostGBP  decimal.Decimal
}

type sameDayStrategy struct {
	pot *dayPot
}

func (s *sameDayStrategy) name() string { return "same-day" }

func (s *sameDayStrategy) available() decimal.Decimal { return s.pot.Quantity }

func (s *sameDayStrategy) take(remaining decimal.Decimal) matchPortion {
	if s.pot.Quantity.IsZero() || !remaining.IsPositive() {
		return matchPortion{Quantity: decimal.Zero, CostGBP: decimal.Zero}
	}
	qty := decimal.Min(remaining, s.pot.Quantity)
	var cost decimal.Decimal
	if qty.Equal(s.pot.Quantity) {
		cost = s.pot.CostGBP
	} else {
		cost = s.pot.CostGBP.Mul(qty).Div(s.pot.Quantity)
	}
	s.pot.Quantity = s.pot.Quantity.Sub(qty)
	s.pot.CostGBP = s.pot.CostGBP.Sub(cost)
	return matchPortion{Quantity: qty, CostGBP: cost}
}

type poolStrategy struct {
	status *SecurityStatus
}

func (s *poolStrategy) name() string { return "pool" }

func (s *poolStrategy) available() decimal.Decimal { return s.status.Quantity }

// take removes units at the pooled average cost. The average cost of the
// remaining position is unchanged; only the totals shrink.
func (s *poolStrategy) take(remaining decimal.Decimal) matchPortion {
	if s.status.Quantity.IsZero() || !remaining.IsPositive() {
		return matchPortion{Quantity: decimal.Zero, CostGBP: decimal.Zero}
	}
	qty := decimal.Min(remaining, s.status.Quantity)
	var cost decimal.Decimal
	if qty.Equal(s.status.Quantity) {
		cost = s.status.TotalCostGBP
	} else {
		cost = s.status.PerUnitCost().Mul(qty)
	}
	s.status.Quantity = s.status.Quantity.Sub(qty)
	s.status.TotalCostGBP = s.status.TotalCostGBP.Sub(cost)

	util.Assertf(!s.status.Quantity.IsNegative(),
		"pool quantity for %s went negative (%s)", s.status.Security, s.status.Quantity)
	util.Assertf(!s.status.TotalCostGBP.IsNegative(),
		"pool cost for %s went negative (%s)", s.status.Security, s.status.TotalCostGBP)

	return matchPortion{Quantity: qty, CostGBP: cost}
}

// matchDisposal applies the strategies in order against the sell's quantity
// and assembles the single aggregated Disposal record. Availability is
// checked up front so an oversell consumes nothing.
func matchDisposal(
	sell *Tx, proceedsGBP decimal.Decimal, strategies []matchStrategy,
) (*Disposal, error) {

	totalAvailable := decimal.Zero
	for _, s := range strategies {
		totalAvailable = totalAvailable.Add(s.available())
	}
	if sell.Quantity.GreaterThan(totalAvailable) {
		return nil, fmt.Errorf(
			"%w: sell of %s units of %s on %s is more than the current holdings (%s)",
			apperrors.ErrOversell, sell.Quantity, sell.Security, sell.Date, totalAvailable)
	}

	remaining := sell.Quantity
	totalCost := decimal.Zero
	quantityByRule := make(map[string]decimal.Decimal, len(strategies))
	for _, s := range strategies {
		if !remaining.IsPositive() {
			break
		}
		portion := s.take(remaining)
		remaining = remaining.Sub(portion.Quantity)
		totalCost = totalCost.Add(portion.CostGBP)
		quantityByRule[s.name()] = portion.Quantity
	}
	util.Assertf(remaining.IsZero(),
		"disposal of %s on %s left %s units unmatched after all rules",
		sell.Security, sell.Date, remaining)

	return &Disposal{
		Date:            sell.Date,
		Security:        sell.Security,
		SecurityName:    sell.SecurityName,
		Quantity:        sell.Quantity,
		ProceedsGBP:     proceedsGBP,
		CostGBP:         totalCost,
		GainGBP:         proceedsGBP.Sub(totalCost),
		SameDayQuantity: zeroIfNil(quantityByRule["same-day"]),
		PoolQuantity:    zeroIfNil(quantityByRule["pool"]),
		Row:             sell.Row,
	}, nil
}

func zeroIfNil(d decimal.Decimal) decimal.Decimal {
	// A decimal's zero value has a nil internal pointer; normalize it so
	// comparisons and JSON output are consistent.
	return d.Add(decimal.Zero)
}
