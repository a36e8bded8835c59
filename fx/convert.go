package fx

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/date"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/util"
)

var ErrMissingRate = errors.New("missing exchange rate")

// Converter resolves GBP values for foreign amounts. Source may be nil, in
// which case every foreign amount must carry its own rate.
type Converter struct {
	Source RateSource
}

func NewConverter(source RateSource) *Converter {
	return &Converter{Source: source}
}

// ToGBP converts amount in the given currency on the given date.
// A supplied per-transaction rate is authoritative: it preserves parity with
// the broker's own statement, and no lookup happens. With no supplied rate
// and no source rate the conversion fails outright. Silently assuming 1:1
// would corrupt every downstream figure, so that is never done.
func (c *Converter) ToGBP(
	amount decimal.Decimal, currency Currency, d date.Date,
	suppliedRate util.Optional[decimal.Decimal]) (decimal.Decimal, error) {

	if currency == GBP || currency == DEFAULT_CURRENCY {
		return amount, nil
	}
	if suppliedRate.Present() {
		rate := suppliedRate.MustGet()
		if !rate.IsPositive() {
			return decimal.Zero, fmt.Errorf(
				"invalid exchange rate %s for %s on %s", rate, currency, d)
		}
		return amount.Mul(rate), nil
	}
	if c.Source != nil {
		if rate, ok := c.Source.Rate(currency, d); ok {
			return amount.Mul(rate), nil
		}
	}
	return decimal.Zero, fmt.Errorf("%w for %s on %s", ErrMissingRate, currency, d)
}
