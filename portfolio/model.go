package portfolio

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/date"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/fx"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/util"
)

type TxAction int

const (
	NO_ACTION TxAction = iota
	BUY
	SELL
	DIVIDEND
	CORPORATE_ACTION
)

func (a TxAction) String() string {
	switch a {
	case BUY:
		return "Buy"
	case SELL:
		return "Sell"
	case DIVIDEND:
		return "Dividend"
	case CORPORATE_ACTION:
		return "CorporateAction"
	}
	return "-"
}

// Tx is one canonical ledger event, normalized from a broker export row.
type Tx struct {
	Security     string
	SecurityName string
	Date         date.Date
	Action       TxAction

	// Units for BUY/SELL; the split ratio (new units per old unit) for
	// CORPORATE_ACTION. May be fractional.
	Quantity decimal.Decimal
	// Per-unit price in the transaction currency.
	Price      decimal.Decimal
	Currency   fx.Currency
	Commission decimal.Decimal
	// Transaction-currency -> GBP multiplier at the transaction date, when
	// the broker statement carries one.
	ExchangeRate util.Optional[decimal.Decimal]

	// DIVIDEND only.
	GrossAmount    decimal.Decimal
	WithholdingTax decimal.Decimal

	// 1-based position in the source file, for error reporting.
	Row int
}

// SecurityStatus is the pooled position for one security: total units held
// and the pooled (section 104 style average) cost basis in GBP.
type SecurityStatus struct {
	Security     string
	SecurityName string
	Quantity     decimal.Decimal
	TotalCostGBP decimal.Decimal
}

func NewEmptySecurityStatus(security string) *SecurityStatus {
	return &SecurityStatus{
		Security: security, Quantity: decimal.Zero, TotalCostGBP: decimal.Zero}
}

func (s *SecurityStatus) PerUnitCost() decimal.Decimal {
	if s.Quantity.IsZero() {
		return decimal.Zero
	}
	return s.TotalCostGBP.Div(s.Quantity)
}

// Disposal is the matched result of one SELL. Same-day and pool portions are
// aggregated into a single record, with the split retained for audit.
type Disposal struct {
	Date         date.Date       `json:"date"`
	Security     string          `json:"security"`
	SecurityName string          `json:"securityName,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	ProceedsGBP  decimal.Decimal `json:"proceedsGBP"`
	CostGBP      decimal.Decimal `json:"costBasisGBP"`
	GainGBP      decimal.Decimal `json:"gainOrLossGBP"`

	SameDayQuantity decimal.Decimal `json:"sameDayQuantity"`
	PoolQuantity    decimal.Decimal `json:"poolQuantity"`

	Row int `json:"-"`
}

type DividendRecord struct {
	Date           date.Date       `json:"paymentDate"`
	Security       string          `json:"security"`
	SecurityName   string          `json:"securityName,omitempty"`
	GrossGBP       decimal.Decimal `json:"grossAmountGBP"`
	WithholdingGBP decimal.Decimal `json:"withholdingTaxGBP"`
	NetGBP         decimal.Decimal `json:"netAmountGBP"`
}

// Holding is a report row for a surviving position.
type Holding struct {
	Security     string          `json:"security"`
	SecurityName string          `json:"securityName,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	TotalCostGBP decimal.Decimal `json:"totalCostGBP"`
	AvgCostGBP   decimal.Decimal `json:"averageCostGBP"`
}

// SortTxs orders transactions by ascending date. The sort is stable so ties
// keep their original file order, which makes replay deterministic.
func SortTxs(txs []*Tx) []*Tx {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.Before(txs[j].Date)
	})
	return txs
}

func SplitTxsBySecurity(txs []*Tx) map[string][]*Tx {
	txsBySec := make(map[string][]*Tx)
	for _, tx := range txs {
		txsBySec[tx.Security] = append(txsBySec[tx.Security], tx)
	}
	return txsBySec
}
