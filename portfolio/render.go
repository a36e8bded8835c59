package portfolio

import (
	"fmt"
	"io"

	tw "github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
)

type _PrintHelper struct {
	PrintAllDecimals bool
}

func (h _PrintHelper) CurrStr(val decimal.Decimal) string {
	if h.PrintAllDecimals {
		return val.String()
	}
	return val.StringFixed(2)
}

func (h _PrintHelper) PoundStr(val decimal.Decimal) string {
	return "£" + h.CurrStr(val)
}

func (h _PrintHelper) PlusMinusPound(val decimal.Decimal) string {
	if val.IsNegative() {
		return fmt.Sprintf("-£%s", h.CurrStr(val.Neg()))
	}
	return fmt.Sprintf("+£%s", h.CurrStr(val))
}

func newRenderTable(w io.Writer, header []string) *tw.Table {
	table := tw.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetRowLine(true)
	return table
}

// RenderHoldings prints the surviving positions table.
func RenderHoldings(w io.Writer, holdings []*Holding) {
	ph := _PrintHelper{}
	table := newRenderTable(w, []string{
		"Security", "Quantity", "Total Cost", "Avg Cost/Unit"})
	for _, h := range holdings {
		table.Append([]string{
			h.Security,
			h.Quantity.String(),
			ph.PoundStr(h.TotalCostGBP),
			ph.PoundStr(h.AvgCostGBP),
		})
	}
	table.Render()
}

// RenderDisposals prints the matched disposals, including the same-day vs
// pool split so a figure can be traced back to the rule that produced it.
func RenderDisposals(w io.Writer, disposals []*Disposal) {
	ph := _PrintHelper{}
	table := newRenderTable(w, []string{
		"Date", "Security", "Quantity", "Proceeds", "Cost Basis",
		"Gain (Loss)", "Same-Day", "Pool"})
	total := decimal.Zero
	for _, d := range disposals {
		table.Append([]string{
			d.Date.String(),
			d.Security,
			d.Quantity.String(),
			ph.PoundStr(d.ProceedsGBP),
			ph.PoundStr(d.CostGBP),
			ph.PlusMinusPound(d.GainGBP),
			d.SameDayQuantity.String(),
			d.PoolQuantity.String(),
		})
		total = total.Add(d.GainGBP)
	}
	table.SetFooter([]string{"", "", "", "", "Total", ph.PlusMinusPound(total), "", ""})
	table.Render()
}

// RenderDividends prints the aggregated dividend income table.
func RenderDividends(w io.Writer, dividends []*DividendRecord) {
	ph := _PrintHelper{}
	table := newRenderTable(w, []string{
		"Payment Date", "Security", "Gross", "Withholding", "Net"})
	for _, d := range dividends {
		table.Append([]string{
			d.Date.String(),
			d.Security,
			ph.PoundStr(d.GrossGBP),
			ph.PoundStr(d.WithholdingGBP),
			ph.PoundStr(d.NetGBP),
		})
	}
	table.Render()
}
