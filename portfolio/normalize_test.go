package portfolio

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/apperrors"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/fx"
)

func rowsFromCsv(t *testing.T, in string) []RawRow {
	rows, errs := ReadCsvRows(strings.NewReader(in))
	require.Empty(t, errs)
	return rows
}

func TestNormalizeBasic(t *testing.T) {
	rq := require.New(t)

	rows := rowsFromCsv(t, `Date,Security,Name,Action,Quantity,Price,Currency,Commission,Exchange Rate
2023-06-14,aapl,Apple Inc,Buy,100,150.00,USD,1.00,0.8012
2023-07-20,AAPL,,Sell,40,155.00,usd,0.50,
`)
	txs, errs := Normalize(rows, nil)
	rq.Empty(errs)
	rq.Len(txs, 2)

	buy := txs[0]
	rq.Equal("AAPL", buy.Security)
	rq.Equal("Apple Inc", buy.SecurityName)
	rq.Equal(BUY, buy.Action)
	rq.Equal("2023-06-14", buy.Date.String())
	rqDecEq(t, "100", buy.Quantity)
	rqDecEq(t, "150.00", buy.Price)
	rq.Equal(fx.USD, buy.Currency)
	rqDecEq(t, "1.00", buy.Commission)
	rq.True(buy.ExchangeRate.Present())
	rqDecEq(t, "0.8012", buy.ExchangeRate.MustGet())
	rq.Equal(1, buy.Row)

	sell := txs[1]
	rq.Equal(SELL, sell.Action)
	rq.Equal(fx.USD, sell.Currency)
	rq.False(sell.ExchangeRate.Present())
	rq.Equal(2, sell.Row)
}

func TestNormalizeHeaderAliases(t *testing.T) {
	rq := require.New(t)

	rows := rowsFromCsv(t, `Trade Date,Ticker,Type,Shares,Price per Share,CCY,Fees
14/06/2023,VOD,Bought,250,0.72,GBP,1.50
`)
	txs, errs := Normalize(rows, nil)
	rq.Empty(errs)
	rq.Len(txs, 1)
	rq.Equal("VOD", txs[0].Security)
	rq.Equal(BUY, txs[0].Action)
	rq.Equal("2023-06-14", txs[0].Date.String())
	rqDecEq(t, "250", txs[0].Quantity)
	rq.Equal(fx.GBP, txs[0].Currency)
}

func TestNormalizeCustomMapping(t *testing.T) {
	rq := require.New(t)

	rows := rowsFromCsv(t, `when,what,doing,howmany,price,currency
2023-06-14,VOD,Buy,10,0.72,GBP
`)
	mapping := DefaultFieldMapping()
	mapping[FieldDate] = []string{"when"}
	mapping[FieldSecurity] = []string{"what"}
	mapping[FieldAction] = []string{"doing"}
	mapping[FieldQuantity] = []string{"howmany"}

	txs, errs := Normalize(rows, mapping)
	rq.Empty(errs)
	rq.Len(txs, 1)
	rqDecEq(t, "10", txs[0].Quantity)
}

func TestNormalizeMissingRequiredColumn(t *testing.T) {
	rq := require.New(t)

	rows := rowsFromCsv(t, `Security,Action,Quantity
AAPL,Buy,100
`)
	txs, errs := Normalize(rows, nil)
	rq.Nil(txs)
	rq.Len(errs, 2)
	rq.Contains(errs[0].Message, "missing required column 'date'")
	rq.Equal(apperrors.ErrNoValidTransactions.Error(), errs[1].Message)
}

func TestNormalizeCollectsRowErrors(t *testing.T) {
	rq := require.New(t)

	rows := rowsFromCsv(t, `Date,Security,Action,Quantity,Price,Currency
2023-06-14,AAPL,Buy,100,150.00,USD
not-a-date,AAPL,Buy,100,150.00,USD
2023-06-16,AAPL,Hold,100,150.00,USD
2023-06-17,AAPL,Sell,-5,150.00,USD
2023-06-18,AAPL,Sell,5,150.00,
2023-06-19,MSFT,Buy,10,320.00,USD
`)
	txs, errs := Normalize(rows, nil)

	// Good rows survive; each bad row is reported at its position.
	rq.Len(txs, 2)
	rq.Equal(1, txs[0].Row)
	rq.Equal(6, txs[1].Row)

	rq.Len(errs, 4)
	rq.Equal(2, errs[0].Row)
	rq.Equal(3, errs[1].Row)
	rq.Contains(errs[1].Message, "unrecognized action")
	rq.Equal(4, errs[2].Row)
	rq.Contains(errs[2].Message, "quantity must be positive")
	rq.Equal(5, errs[3].Row)
	rq.Contains(errs[3].Message, "no currency")
}

func TestNormalizeNoValidRowsIsTerminal(t *testing.T) {
	rq := require.New(t)

	rows := rowsFromCsv(t, `Date,Security,Action
not-a-date,AAPL,Buy
`)
	txs, errs := Normalize(rows, nil)
	rq.Nil(txs)
	rq.NotEmpty(errs)
	last := errs[len(errs)-1]
	rq.Equal(apperrors.ErrNoValidTransactions.Error(), last.Message)

	// An empty file is terminal too.
	txs, errs = Normalize(nil, nil)
	rq.Nil(txs)
	rq.Len(errs, 1)
	rq.Equal(apperrors.ErrNoValidTransactions.Error(), errs[0].Message)
}

func TestNormalizeActionAliases(t *testing.T) {
	rq := require.New(t)

	for alias, exp := range map[string]TxAction{
		"Buy": BUY, "BOUGHT": BUY, "purchase": BUY,
		"Sell": SELL, "sold": SELL, "Sale": SELL,
		"Dividend": DIVIDEND, "DIV": DIVIDEND,
		"Corporate Action": CORPORATE_ACTION, "Split": CORPORATE_ACTION,
	} {
		tx := DefaultTx(1)
		rq.Nil(parseTxAction(alias, tx), "alias %s", alias)
		rq.Equal(exp, tx.Action, "alias %s", alias)
	}
}

func TestCheckTxSanity(t *testing.T) {
	rq := require.New(t)

	base := func() *Tx {
		tx := DefaultTx(1)
		tx.Security = "AAPL"
		rq.Nil(parseTxDate("2023-06-14", tx))
		return tx
	}

	tx := base()
	tx.Action = CORPORATE_ACTION
	tx.Quantity = decimal.RequireFromString("2")
	rq.Nil(checkTxSanity(tx))
	tx.Quantity = decimal.Zero
	rq.NotNil(checkTxSanity(tx))

	tx = base()
	tx.Action = DIVIDEND
	tx.Currency = fx.USD
	tx.GrossAmount = decimal.RequireFromString("24")
	rq.Nil(checkTxSanity(tx))
	tx.WithholdingTax = decimal.RequireFromString("-1")
	rq.NotNil(checkTxSanity(tx))

	tx = base()
	tx.Action = BUY
	tx.Quantity = decimal.RequireFromString("10")
	tx.Currency = fx.GBP
	tx.Commission = decimal.RequireFromString("-1")
	rq.NotNil(checkTxSanity(tx))
}
