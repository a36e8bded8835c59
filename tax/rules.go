package tax

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/date"
)

type Residency string

const (
	ResidencyEnglandWalesNI Residency = "englandWalesNI"
	ResidencyScotland       Residency = "scotland"
)

// YearRules captures everything about a tax year that the liability
// calculation needs. Rules are always passed explicitly: there is no
// ambient "current year" state, so the engine stays pure across years.
type YearRules struct {
	AnnualExemptAmount decimal.Decimal

	// CGT on shares has two flat rates, keyed by whether the gain falls
	// inside the remaining basic rate band.
	CGTBasicRate  decimal.Decimal
	CGTHigherRate decimal.Decimal

	PersonalAllowance decimal.Decimal
	// Income above this tapers the personal allowance by £1 per £2.
	PersonalAllowanceTaperThreshold decimal.Decimal
	// Width of the basic rate band, measured on taxable income.
	BasicRateLimit decimal.Decimal
	// Total income above this pays the additional dividend rate.
	AdditionalRateThreshold decimal.Decimal

	DividendAllowance      decimal.Decimal
	DividendBasicRate      decimal.Decimal
	DividendHigherRate     decimal.Decimal
	DividendAdditionalRate decimal.Decimal
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Published HMRC figures, keyed by the tax year's starting calendar year.
// Scottish income tax bands differ, but CGT and dividend tax both use the
// UK-wide bands regardless of residency, so the same rules apply to both
// residency values.
var rulesByStartYear = map[int]YearRules{
	2021: {
		AnnualExemptAmount:              d("12300"),
		CGTBasicRate:                    d("0.10"),
		CGTHigherRate:                   d("0.20"),
		PersonalAllowance:               d("12570"),
		PersonalAllowanceTaperThreshold: d("100000"),
		BasicRateLimit:                  d("37700"),
		AdditionalRateThreshold:         d("150000"),
		DividendAllowance:               d("2000"),
		DividendBasicRate:               d("0.075"),
		DividendHigherRate:              d("0.325"),
		DividendAdditionalRate:          d("0.381"),
	},
	2022: {
		AnnualExemptAmount:              d("12300"),
		CGTBasicRate:                    d("0.10"),
		CGTHigherRate:                   d("0.20"),
		PersonalAllowance:               d("12570"),
		PersonalAllowanceTaperThreshold: d("100000"),
		BasicRateLimit:                  d("37700"),
		AdditionalRateThreshold:         d("150000"),
		DividendAllowance:               d("2000"),
		DividendBasicRate:               d("0.0875"),
		DividendHigherRate:              d("0.3375"),
		DividendAdditionalRate:          d("0.3935"),
	},
	2023: {
		AnnualExemptAmount:              d("6000"),
		CGTBasicRate:                    d("0.10"),
		CGTHigherRate:                   d("0.20"),
		PersonalAllowance:               d("12570"),
		PersonalAllowanceTaperThreshold: d("100000"),
		BasicRateLimit:                  d("37700"),
		AdditionalRateThreshold:         d("125140"),
		DividendAllowance:               d("1000"),
		DividendBasicRate:               d("0.0875"),
		DividendHigherRate:              d("0.3375"),
		DividendAdditionalRate:          d("0.3935"),
	},
	2024: {
		AnnualExemptAmount:              d("3000"),
		CGTBasicRate:                    d("0.10"),
		CGTHigherRate:                   d("0.20"),
		PersonalAllowance:               d("12570"),
		PersonalAllowanceTaperThreshold: d("100000"),
		BasicRateLimit:                  d("37700"),
		AdditionalRateThreshold:         d("125140"),
		DividendAllowance:               d("500"),
		DividendBasicRate:               d("0.0875"),
		DividendHigherRate:              d("0.3375"),
		DividendAdditionalRate:          d("0.3935"),
	},
}

// RulesFor looks up the rules for a tax year and residency.
func RulesFor(year date.TaxYear, residency Residency) (YearRules, error) {
	switch residency {
	case ResidencyEnglandWalesNI, ResidencyScotland:
	default:
		return YearRules{}, fmt.Errorf("unrecognized residency '%s'", residency)
	}
	rules, ok := rulesByStartYear[year.StartYear]
	if !ok {
		return YearRules{}, fmt.Errorf("no tax rules available for tax year %s", year)
	}
	return rules, nil
}
