package portfolio

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/apperrors"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/date"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/fx"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/util"
)

// Canonical transaction fields.
const (
	FieldDate         = "date"
	FieldSecurity     = "security"
	FieldName         = "name"
	FieldAction       = "action"
	FieldQuantity     = "quantity"
	FieldPrice        = "price"
	FieldCurrency     = "currency"
	FieldCommission   = "commission"
	FieldExchangeRate = "exchange rate"
	FieldGrossAmount  = "gross amount"
	FieldWithholding  = "withholding tax"
)

// FieldMapping resolves broker header variation: canonical field ->
// acceptable column names, in priority order. Broker-specific mappings can
// extend or replace the default.
type FieldMapping map[string][]string

func DefaultFieldMapping() FieldMapping {
	return FieldMapping{
		FieldDate:         {"date", "trade date", "settlement date"},
		FieldSecurity:     {"security", "symbol", "ticker", "instrument", "isin"},
		FieldName:         {"name", "security name", "description", "product"},
		FieldAction:       {"action", "type", "transaction", "transaction type", "activity"},
		FieldQuantity:     {"quantity", "shares", "units", "no. of shares"},
		FieldPrice:        {"price", "amount/share", "price/share", "unit price", "price per share"},
		FieldCurrency:     {"currency", "ccy", "currency code"},
		FieldCommission:   {"commission", "fees", "charges", "fee"},
		FieldExchangeRate: {"exchange rate", "fx rate", "rate", "exchange"},
		FieldGrossAmount:  {"gross amount", "amount", "gross", "total"},
		FieldWithholding:  {"withholding tax", "tax withheld", "withholding", "tax"},
	}
}

// Columns the mapping must resolve for any input to be usable at all.
// Everything else is validated per-action on each row.
var requiredFields = []string{FieldDate, FieldSecurity, FieldAction}

// Fixed parse order keeps error output deterministic across runs.
var allFields = []string{
	FieldDate, FieldSecurity, FieldName, FieldAction, FieldQuantity,
	FieldPrice, FieldCurrency, FieldCommission, FieldExchangeRate,
	FieldGrossAmount, FieldWithholding,
}

type fieldParser func(string, *Tx) error

var fieldParserMap = map[string]fieldParser{
	FieldDate:         parseTxDate,
	FieldSecurity:     parseTxSecurity,
	FieldName:         parseTxName,
	FieldAction:       parseTxAction,
	FieldQuantity:     parseTxQuantity,
	FieldPrice:        parseTxPrice,
	FieldCurrency:     parseTxCurrency,
	FieldCommission:   parseTxCommission,
	FieldExchangeRate: parseTxExchangeRate,
	FieldGrossAmount:  parseTxGrossAmount,
	FieldWithholding:  parseTxWithholding,
}

func DefaultTx(row int) *Tx {
	return &Tx{
		Action: NO_ACTION, Currency: fx.DEFAULT_CURRENCY,
		Quantity: decimal.Zero, Price: decimal.Zero, Commission: decimal.Zero,
		GrossAmount: decimal.Zero, WithholdingTax: decimal.Zero,
		Row: row,
	}
}

// Normalize converts raw rows to canonical transactions. Rejected rows are
// reported with their source position and do not abort the pass, so the
// caller sees every problem at once. Zero valid rows is terminal.
func Normalize(rows []RawRow, mapping FieldMapping) ([]*Tx, []apperrors.RowError) {
	if mapping == nil {
		mapping = DefaultFieldMapping()
	}

	var errs []apperrors.RowError

	// Resolve the mapping against the columns actually present.
	seenColumns := util.NewSet[string]()
	for _, row := range rows {
		for col := range row.Cells {
			seenColumns.Add(col)
		}
	}
	columnForField := make(map[string]string)
	for field, candidates := range mapping {
		for _, cand := range candidates {
			if seenColumns.Has(cand) {
				columnForField[field] = cand
				break
			}
		}
	}
	for _, field := range requiredFields {
		if _, ok := columnForField[field]; ok {
			continue
		}
		if len(rows) > 0 {
			errs = append(errs, apperrors.Validationf(0,
				"missing required column '%s'", field))
		}
	}
	if len(errs) > 0 {
		errs = append(errs, apperrors.Validationf(0,
			"%s", apperrors.ErrNoValidTransactions.Error()))
		return nil, errs
	}

	txs := make([]*Tx, 0, len(rows))
	for _, row := range rows {
		tx := DefaultTx(row.Row)
		rowOk := true
		for _, field := range allFields {
			col, ok := columnForField[field]
			if !ok {
				continue
			}
			cell, ok := row.Cells[col]
			if !ok || cell == "" {
				continue
			}
			if err := fieldParserMap[field](cell, tx); err != nil {
				errs = append(errs, apperrors.Parsef(row.Row, "%v", err))
				rowOk = false
			}
		}
		if !rowOk {
			continue
		}
		if err := checkTxSanity(tx); err != nil {
			errs = append(errs, apperrors.Validationf(row.Row, "%v", err))
			continue
		}
		txs = append(txs, tx)
	}

	if len(txs) == 0 {
		errs = append(errs, apperrors.Validationf(0,
			"%s", apperrors.ErrNoValidTransactions.Error()))
		return nil, errs
	}
	return txs, errs
}

// checkTxSanity enforces the per-action domain rules on a parsed row.
func checkTxSanity(tx *Tx) error {
	if tx.Security == "" {
		return fmt.Errorf("transaction has no security")
	}
	if tx.Date.IsZero() {
		return fmt.Errorf("transaction has no date")
	}
	if tx.Action == NO_ACTION {
		return fmt.Errorf("transaction has no action (Buy, Sell, Dividend, CorporateAction)")
	}
	if tx.Commission.IsNegative() {
		return fmt.Errorf("negative commission %s", tx.Commission)
	}
	if rate := tx.ExchangeRate; rate.Present() && !rate.MustGet().IsPositive() {
		return fmt.Errorf("exchange rate must be positive, got %s", rate.MustGet())
	}

	switch tx.Action {
	case BUY, SELL:
		if !tx.Quantity.IsPositive() {
			return fmt.Errorf("%s quantity must be positive, got %s", tx.Action, tx.Quantity)
		}
		if tx.Price.IsNegative() {
			return fmt.Errorf("%s price must not be negative, got %s", tx.Action, tx.Price)
		}
		if tx.Currency == fx.DEFAULT_CURRENCY {
			return fmt.Errorf("%s transaction has no currency", tx.Action)
		}
	case CORPORATE_ACTION:
		if !tx.Quantity.IsPositive() {
			return fmt.Errorf("corporate action ratio must be positive, got %s", tx.Quantity)
		}
	case DIVIDEND:
		if tx.GrossAmount.IsNegative() {
			return fmt.Errorf("dividend gross amount must not be negative, got %s", tx.GrossAmount)
		}
		if tx.WithholdingTax.IsNegative() {
			return fmt.Errorf("negative withholding tax %s", tx.WithholdingTax)
		}
		if tx.Currency == fx.DEFAULT_CURRENCY {
			return fmt.Errorf("dividend transaction has no currency")
		}
	}
	return nil
}

func parseTxDate(data string, tx *Tx) error {
	d, err := date.ParseAny(data)
	if err != nil {
		return err
	}
	tx.Date = d
	return nil
}

func parseTxSecurity(data string, tx *Tx) error {
	tx.Security = strings.ToUpper(strings.TrimSpace(data))
	return nil
}

func parseTxName(data string, tx *Tx) error {
	tx.SecurityName = strings.TrimSpace(data)
	return nil
}

var actionAliases = map[string]TxAction{
	"buy":              BUY,
	"bought":           BUY,
	"purchase":         BUY,
	"sell":             SELL,
	"sold":             SELL,
	"sale":             SELL,
	"dividend":         DIVIDEND,
	"div":              DIVIDEND,
	"corporate action": CORPORATE_ACTION,
	"corporateaction":  CORPORATE_ACTION,
	"split":            CORPORATE_ACTION,
}

func parseTxAction(data string, tx *Tx) error {
	action, ok := actionAliases[strings.TrimSpace(strings.ToLower(data))]
	if !ok {
		return fmt.Errorf("unrecognized action '%s'", data)
	}
	tx.Action = action
	return nil
}

func parseTxQuantity(data string, tx *Tx) error {
	q, err := decimal.NewFromString(data)
	if err != nil {
		return fmt.Errorf("error parsing quantity: %v", err)
	}
	tx.Quantity = q
	return nil
}

func parseTxPrice(data string, tx *Tx) error {
	p, err := decimal.NewFromString(data)
	if err != nil {
		return fmt.Errorf("error parsing price: %v", err)
	}
	tx.Price = p
	return nil
}

func parseTxCurrency(data string, tx *Tx) error {
	tx.Currency = fx.Currency(strings.ToUpper(strings.TrimSpace(data)))
	return nil
}

func parseTxCommission(data string, tx *Tx) error {
	c, err := decimal.NewFromString(data)
	if err != nil {
		return fmt.Errorf("error parsing commission: %v", err)
	}
	tx.Commission = c
	return nil
}

func parseTxExchangeRate(data string, tx *Tx) error {
	rate, err := decimal.NewFromString(data)
	if err != nil {
		return fmt.Errorf("error parsing exchange rate: %v", err)
	}
	tx.ExchangeRate = util.NewOptional(rate)
	return nil
}

func parseTxGrossAmount(data string, tx *Tx) error {
	amt, err := decimal.NewFromString(data)
	if err != nil {
		return fmt.Errorf("error parsing gross amount: %v", err)
	}
	tx.GrossAmount = amt
	return nil
}

func parseTxWithholding(data string, tx *Tx) error {
	w, err := decimal.NewFromString(data)
	if err != nil {
		return fmt.Errorf("error parsing withholding tax: %v", err)
	}
	tx.WithholdingTax = w
	return nil
}
