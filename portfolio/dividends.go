package portfolio

import (
	"sort"

	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/apperrors"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/date"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/fx"
)

type dividendKey struct {
	security string
	date     date.Date
}

// AggregateDividends groups DIVIDEND transactions by (security, payment
// date) and converts gross and withholding to GBP. Output order is payment
// date then security, so repeated aggregation over the same input is
// byte-identical.
func AggregateDividends(txs []*Tx, conv *fx.Converter) ([]*DividendRecord, []apperrors.RowError) {
	var errs []apperrors.RowError
	byKey := make(map[dividendKey]*DividendRecord)
	var keys []dividendKey

	for _, tx := range txs {
		if tx.Action != DIVIDEND {
			continue
		}
		grossGBP, err := conv.ToGBP(tx.GrossAmount, tx.Currency, tx.Date, tx.ExchangeRate)
		if err != nil {
			errs = append(errs, apperrors.Validationf(tx.Row, "%v", err))
			continue
		}
		withholdingGBP, err := conv.ToGBP(tx.WithholdingTax, tx.Currency, tx.Date, tx.ExchangeRate)
		if err != nil {
			errs = append(errs, apperrors.Validationf(tx.Row, "%v", err))
			continue
		}

		key := dividendKey{security: tx.Security, date: tx.Date}
		rec, ok := byKey[key]
		if !ok {
			rec = &DividendRecord{
				Date: tx.Date, Security: tx.Security, SecurityName: tx.SecurityName}
			byKey[key] = rec
			keys = append(keys, key)
		}
		rec.GrossGBP = rec.GrossGBP.Add(grossGBP)
		rec.WithholdingGBP = rec.WithholdingGBP.Add(withholdingGBP)
	}

	sort.SliceStable(keys, func(i, j int) bool {
		if !keys[i].date.Equal(keys[j].date) {
			return keys[i].date.Before(keys[j].date)
		}
		return keys[i].security < keys[j].security
	})

	records := make([]*DividendRecord, 0, len(keys))
	for _, key := range keys {
		rec := byKey[key]
		rec.NetGBP = rec.GrossGBP.Sub(rec.WithholdingGBP)
		records = append(records, rec)
	}
	return records, errs
}
