package portfolio

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/date"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/fx"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/util"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func rqDecEq(t *testing.T, exp string, actual decimal.Decimal) {
	t.Helper()
	require.True(t, actual.Equal(dec(exp)), "expected %s, got %s", exp, actual)
}

func mkDate(day int) date.Date {
	return date.New(2023, time.June, 1).AddDays(day - 1)
}

type txOpts struct {
	commission  string
	currency    fx.Currency
	rate        string
	row         int
	gross       string
	withholding string
}

func mkTx(action TxAction, day int, security, qty, price string, opts txOpts) *Tx {
	tx := DefaultTx(opts.row)
	tx.Security = security
	tx.Date = mkDate(day)
	tx.Action = action
	if qty != "" {
		tx.Quantity = dec(qty)
	}
	if price != "" {
		tx.Price = dec(price)
	}
	tx.Currency = fx.GBP
	if opts.currency != "" {
		tx.Currency = opts.currency
	}
	if opts.commission != "" {
		tx.Commission = dec(opts.commission)
	}
	if opts.rate != "" {
		tx.ExchangeRate = util.NewOptional(dec(opts.rate))
	}
	if opts.gross != "" {
		tx.GrossAmount = dec(opts.gross)
	}
	if opts.withholding != "" {
		tx.WithholdingTax = dec(opts.withholding)
	}
	return tx
}

func gbpConverter() *fx.Converter {
	return fx.NewConverter(nil)
}
