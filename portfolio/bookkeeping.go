package portfolio

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/apperrors"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/fx"
)

// ReplayResult is the outcome of replaying all transactions through the
// holdings ledger: every matched disposal plus the surviving positions.
type ReplayResult struct {
	Disposals []*Disposal
	Holdings  []*Holding
}

// ReplayTxs replays transactions in ascending date order (ties broken by
// original file order) through a per-security pooled-cost ledger.
// Validation problems are collected per row rather than aborting on the
// first, so the caller can report them all at once.
func ReplayTxs(txs []*Tx, conv *fx.Converter) (*ReplayResult, []apperrors.RowError) {
	sorted := make([]*Tx, len(txs))
	copy(sorted, txs)
	SortTxs(sorted)

	txsBySec := SplitTxsBySecurity(sorted)
	securities := make([]string, 0, len(txsBySec))
	for sec := range txsBySec {
		securities = append(securities, sec)
	}
	sort.Strings(securities)

	var errs []apperrors.RowError
	result := &ReplayResult{}
	for _, sec := range securities {
		disposals, status, secErrs := replaySecurity(sec, txsBySec[sec], conv)
		result.Disposals = append(result.Disposals, disposals...)
		errs = append(errs, secErrs...)
		if !status.Quantity.IsZero() {
			result.Holdings = append(result.Holdings, &Holding{
				Security:     status.Security,
				SecurityName: status.SecurityName,
				Quantity:     status.Quantity,
				TotalCostGBP: status.TotalCostGBP,
				AvgCostGBP:   status.PerUnitCost(),
			})
		}
	}

	// Disposals across securities in chronological order for the report.
	sort.SliceStable(result.Disposals, func(i, j int) bool {
		if !result.Disposals[i].Date.Equal(result.Disposals[j].Date) {
			return result.Disposals[i].Date.Before(result.Disposals[j].Date)
		}
		return result.Disposals[i].Row < result.Disposals[j].Row
	})
	return result, errs
}

// replaySecurity walks one security's transactions a calendar day at a
// time. Within a day: corporate actions apply to the pool, then the day's
// acquisitions aggregate into a same-day pot, then each sell matches
// same-day first and pool second, and finally any unmatched same-day
// acquisitions enter the pool at weighted average cost. Grouping by day is
// what gives the same-day rule priority even when the export lists a buy
// after the sell it covers.
func replaySecurity(
	security string, secTxs []*Tx, conv *fx.Converter,
) ([]*Disposal, *SecurityStatus, []apperrors.RowError) {

	status := NewEmptySecurityStatus(security)
	var disposals []*Disposal
	var errs []apperrors.RowError

	for i := 0; i < len(secTxs); {
		j := i + 1
		for j < len(secTxs) && secTxs[j].Date.Equal(secTxs[i].Date) {
			j++
		}
		day := secTxs[i:j]
		i = j

		for _, tx := range day {
			if tx.SecurityName != "" {
				status.SecurityName = tx.SecurityName
			}
			if tx.Action == CORPORATE_ACTION {
				// A split/consolidation scales units by the ratio; the total
				// cost basis is invariant, so per-unit cost adjusts inversely.
				status.Quantity = status.Quantity.Mul(tx.Quantity)
			}
		}

		pot := &dayPot{Quantity: decimal.Zero, CostGBP: decimal.Zero}
		for _, tx := range day {
			if tx.Action != BUY {
				continue
			}
			grossGBP, err := conv.ToGBP(
				tx.Quantity.Mul(tx.Price), tx.Currency, tx.Date, tx.ExchangeRate)
			if err != nil {
				errs = append(errs, apperrors.Validationf(tx.Row, "%v", err))
				continue
			}
			commGBP, err := conv.ToGBP(tx.Commission, tx.Currency, tx.Date, tx.ExchangeRate)
			if err != nil {
				errs = append(errs, apperrors.Validationf(tx.Row, "%v", err))
				continue
			}
			pot.Quantity = pot.Quantity.Add(tx.Quantity)
			pot.CostGBP = pot.CostGBP.Add(grossGBP).Add(commGBP)
		}

		for _, tx := range day {
			if tx.Action != SELL {
				continue
			}
			grossGBP, err := conv.ToGBP(
				tx.Quantity.Mul(tx.Price), tx.Currency, tx.Date, tx.ExchangeRate)
			if err != nil {
				errs = append(errs, apperrors.Validationf(tx.Row, "%v", err))
				continue
			}
			commGBP, err := conv.ToGBP(tx.Commission, tx.Currency, tx.Date, tx.ExchangeRate)
			if err != nil {
				errs = append(errs, apperrors.Validationf(tx.Row, "%v", err))
				continue
			}
			proceeds := grossGBP.Sub(commGBP)

			disp, err := matchDisposal(tx, proceeds, []matchStrategy{
				&sameDayStrategy{pot: pot},
				&poolStrategy{status: status},
			})
			if err != nil {
				errs = append(errs, apperrors.Validationf(tx.Row, "%v", err))
				continue
			}
			disposals = append(disposals, disp)
		}

		// Same-day acquisitions not consumed by same-day matching join the
		// pool; the weighted average updates implicitly via the totals.
		status.Quantity = status.Quantity.Add(pot.Quantity)
		status.TotalCostGBP = status.TotalCostGBP.Add(pot.CostGBP)
	}

	return disposals, status, errs
}
