package tax

import (
	"github.com/shopspring/decimal"

	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/date"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/portfolio"
)

// Config is the personal-details side of a calculation request.
type Config struct {
	Year      date.TaxYear
	Residency Residency
	// Carried from the request contract; no rules year in the table has an
	// age-dependent allowance, so it does not affect the result.
	DateOfBirth          date.Date
	OtherTaxableIncome   decimal.Decimal
	CharitableDonations  decimal.Decimal
	CarriedForwardLosses decimal.Decimal
}

// LiabilityReport is the final calculation output. All monetary figures are
// GBP, rounded to pence (round-half-to-even) at construction; it is never
// mutated afterwards. shopspring decimals marshal as JSON strings, so no
// binary float representation leaks to the caller.
type LiabilityReport struct {
	TaxYear   string    `json:"taxYear"`
	Residency Residency `json:"residency"`

	TotalProceeds       decimal.Decimal `json:"totalProceedsGBP"`
	TotalAllowableCosts decimal.Decimal `json:"totalAllowableCostsGBP"`
	TotalGains          decimal.Decimal `json:"totalGainsGBP"`
	TotalLosses         decimal.Decimal `json:"totalLossesGBP"`
	NetGain             decimal.Decimal `json:"netGainGBP"`

	LossesBroughtForwardUsed decimal.Decimal `json:"lossesBroughtForwardUsedGBP"`
	AnnualExemptAmountUsed   decimal.Decimal `json:"annualExemptAmountUsedGBP"`
	TaxableGain              decimal.Decimal `json:"taxableGainGBP"`
	GainAtBasicRate          decimal.Decimal `json:"gainAtBasicRateGBP"`
	GainAtHigherRate         decimal.Decimal `json:"gainAtHigherRateGBP"`
	CGTDue                   decimal.Decimal `json:"cgtDueGBP"`
	LossesCarriedForward     decimal.Decimal `json:"lossesCarriedForwardGBP"`

	DividendIncomeGross   decimal.Decimal `json:"dividendIncomeGrossGBP"`
	DividendWithholding   decimal.Decimal `json:"dividendWithholdingGBP"`
	DividendIncome        decimal.Decimal `json:"dividendIncomeGBP"`
	DividendAllowanceUsed decimal.Decimal `json:"dividendAllowanceUsedGBP"`
	TaxableDividendIncome decimal.Decimal `json:"taxableDividendIncomeGBP"`
	DividendTaxDue        decimal.Decimal `json:"dividendTaxDueGBP"`

	TotalTaxLiability decimal.Decimal `json:"totalTaxLiabilityGBP"`
	PortfolioValue    decimal.Decimal `json:"portfolioValueGBP"`

	Holdings  []*portfolio.Holding        `json:"holdings"`
	Disposals []*portfolio.Disposal       `json:"disposals"`
	Dividends []*portfolio.DividendRecord `json:"dividends"`
}

func max0(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}

func round(v decimal.Decimal) decimal.Decimal {
	return v.RoundBank(2)
}

// bandSlices splits the interval [lo, hi) of the taxable-income axis across
// the basic, higher and additional bands.
func bandSlices(lo, hi, basicTop, additionalBottom decimal.Decimal) (basic, higher, additional decimal.Decimal) {
	basic = max0(decimal.Min(hi, basicTop).Sub(lo))
	higher = max0(decimal.Min(hi, additionalBottom).Sub(decimal.Max(lo, basicTop)))
	additional = max0(hi.Sub(decimal.Max(lo, additionalBottom)))
	return
}

// ComputeLiability applies a tax year's rules to the ledger output. Only
// disposals and dividends falling inside the configured year count toward
// liability (the full history was still replayed, so the pool is correct).
// The result is deterministic for identical inputs.
func ComputeLiability(
	replay *portfolio.ReplayResult,
	dividends []*portfolio.DividendRecord,
	cfg Config,
) (*LiabilityReport, error) {

	rules, err := RulesFor(cfg.Year, cfg.Residency)
	if err != nil {
		return nil, err
	}

	// Totals accumulate from the full-precision replay output; the
	// per-disposal copies kept on the report are rounded independently, so
	// rounding error never compounds across many small transactions.
	totalProceeds := decimal.Zero
	totalCosts := decimal.Zero
	gains := decimal.Zero
	losses := decimal.Zero
	var yearDisposals []*portfolio.Disposal
	for _, disp := range replay.Disposals {
		if !cfg.Year.Contains(disp.Date) {
			continue
		}
		totalProceeds = totalProceeds.Add(disp.ProceedsGBP)
		totalCosts = totalCosts.Add(disp.CostGBP)
		if disp.GainGBP.IsNegative() {
			losses = losses.Add(disp.GainGBP.Neg())
		} else {
			gains = gains.Add(disp.GainGBP)
		}
		yearDisposals = append(yearDisposals, roundedDisposal(disp))
	}
	netGain := gains.Sub(losses)

	// Loss relief: current-year losses net against gains first. A net loss
	// year charges nothing and the whole loss carries forward on top of any
	// unused brought-forward amount. Brought-forward losses only ever
	// reduce gains down to the exempt amount; relief below that would be
	// wasted.
	broughtForward := max0(cfg.CarriedForwardLosses)
	bfUsed := decimal.Zero
	aeaUsed := decimal.Zero
	taxableGain := decimal.Zero
	lossesCarried := decimal.Zero
	if netGain.IsNegative() {
		lossesCarried = netGain.Neg().Add(broughtForward)
	} else {
		bfUsed = decimal.Min(broughtForward, max0(netGain.Sub(rules.AnnualExemptAmount)))
		afterLosses := netGain.Sub(bfUsed)
		aeaUsed = decimal.Min(rules.AnnualExemptAmount, afterLosses)
		taxableGain = afterLosses.Sub(aeaUsed)
		lossesCarried = broughtForward.Sub(bfUsed)
	}

	// Band geometry, on the taxable-income axis (income after the personal
	// allowance). Gift aid donations extend the basic band by the
	// grossed-up amount.
	otherIncome := max0(cfg.OtherTaxableIncome)
	allowance := rules.PersonalAllowance
	if otherIncome.GreaterThan(rules.PersonalAllowanceTaperThreshold) {
		taper := otherIncome.Sub(rules.PersonalAllowanceTaperThreshold).DivRound(decimal.NewFromInt(2), 10)
		allowance = max0(allowance.Sub(taper))
	}
	taxableIncome := max0(otherIncome.Sub(allowance))
	basicTop := rules.BasicRateLimit
	if cfg.CharitableDonations.IsPositive() {
		basicTop = basicTop.Add(cfg.CharitableDonations.Div(d("0.8")))
	}
	additionalBottom := decimal.Max(basicTop, rules.AdditionalRateThreshold.Sub(allowance))

	// Dividend income stacks on top of other income. The allowance is a
	// zero-rate band, not a deduction: covered dividends still occupy band
	// width. Taxable dividend income is the amount net of withholding.
	divIncomeGross := decimal.Zero
	divWithholding := decimal.Zero
	var yearDividends []*portfolio.DividendRecord
	for _, div := range dividends {
		if !cfg.Year.Contains(div.Date) {
			continue
		}
		divIncomeGross = divIncomeGross.Add(div.GrossGBP)
		divWithholding = divWithholding.Add(div.WithholdingGBP)
		yearDividends = append(yearDividends, roundedDividend(div))
	}
	divIncome := divIncomeGross.Sub(divWithholding)
	divAllowanceUsed := decimal.Min(rules.DividendAllowance, divIncome)
	taxableDividends := divIncome.Sub(divAllowanceUsed)

	divTaxedLo := taxableIncome.Add(divAllowanceUsed)
	divTaxedHi := taxableIncome.Add(divIncome)
	divBasic, divHigher, divAdditional := bandSlices(
		divTaxedLo, divTaxedHi, basicTop, additionalBottom)
	dividendTax := divBasic.Mul(rules.DividendBasicRate).
		Add(divHigher.Mul(rules.DividendHigherRate)).
		Add(divAdditional.Mul(rules.DividendAdditionalRate))

	// Gains sit above all income, dividends included. CGT has no
	// additional rate: anything beyond the basic band pays the higher rate.
	gainLo := taxableIncome.Add(divIncome)
	gainAtBasic := max0(decimal.Min(gainLo.Add(taxableGain), basicTop).Sub(gainLo))
	gainAtHigher := taxableGain.Sub(gainAtBasic)
	cgtDue := gainAtBasic.Mul(rules.CGTBasicRate).
		Add(gainAtHigher.Mul(rules.CGTHigherRate))

	portfolioValue := decimal.Zero
	holdings := make([]*portfolio.Holding, 0, len(replay.Holdings))
	for _, h := range replay.Holdings {
		holdings = append(holdings, roundedHolding(h))
		portfolioValue = portfolioValue.Add(h.TotalCostGBP)
	}

	if yearDisposals == nil {
		yearDisposals = []*portfolio.Disposal{}
	}
	if yearDividends == nil {
		yearDividends = []*portfolio.DividendRecord{}
	}

	return &LiabilityReport{
		TaxYear:   cfg.Year.String(),
		Residency: cfg.Residency,

		TotalProceeds:       round(totalProceeds),
		TotalAllowableCosts: round(totalCosts),
		TotalGains:          round(gains),
		TotalLosses:         round(losses),
		NetGain:             round(netGain),

		LossesBroughtForwardUsed: round(bfUsed),
		AnnualExemptAmountUsed:   round(aeaUsed),
		TaxableGain:              round(taxableGain),
		GainAtBasicRate:          round(gainAtBasic),
		GainAtHigherRate:         round(gainAtHigher),
		CGTDue:                   round(cgtDue),
		LossesCarriedForward:     round(lossesCarried),

		DividendIncomeGross:   round(divIncomeGross),
		DividendWithholding:   round(divWithholding),
		DividendIncome:        round(divIncome),
		DividendAllowanceUsed: round(divAllowanceUsed),
		TaxableDividendIncome: round(taxableDividends),
		DividendTaxDue:        round(dividendTax),

		TotalTaxLiability: round(cgtDue.Add(dividendTax)),
		PortfolioValue:    round(portfolioValue),

		Holdings:  holdings,
		Disposals: yearDisposals,
		Dividends: yearDividends,
	}, nil
}

// Rounding happens only here, at the presentation boundary; internal
// accumulation stays at full precision.

func roundedDisposal(d *portfolio.Disposal) *portfolio.Disposal {
	out := *d
	out.ProceedsGBP = round(d.ProceedsGBP)
	out.CostGBP = round(d.CostGBP)
	out.GainGBP = round(d.GainGBP)
	return &out
}

func roundedDividend(d *portfolio.DividendRecord) *portfolio.DividendRecord {
	out := *d
	out.GrossGBP = round(d.GrossGBP)
	out.WithholdingGBP = round(d.WithholdingGBP)
	out.NetGBP = round(d.NetGBP)
	return &out
}

func roundedHolding(h *portfolio.Holding) *portfolio.Holding {
	out := *h
	out.TotalCostGBP = round(h.TotalCostGBP)
	out.AvgCostGBP = round(h.AvgCostGBP)
	return &out
}
