package fx

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/date"
)

type Currency string

const (
	GBP Currency = "GBP"
	USD Currency = "USD"
	EUR Currency = "EUR"

	DEFAULT_CURRENCY Currency = ""
)

// DailyRate is a currency -> GBP multiplier observed on a single day.
type DailyRate struct {
	Date date.Date
	Rate decimal.Decimal
}

func (r DailyRate) String() string {
	return fmt.Sprintf("%s : %s", r.Date, r.Rate)
}

// RateSource resolves a currency -> GBP rate for a given day. Used as the
// fallback when a broker row does not carry its own exchange rate.
type RateSource interface {
	Rate(currency Currency, d date.Date) (decimal.Decimal, bool)
}
