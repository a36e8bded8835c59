package fx

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/date"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/log"
)

// Markets close on weekends and holidays, so a historical table has gaps.
// HMRC guidance allows the most recent published rate; we look back at most
// this many days before giving up.
const maxRateLookbackDays = 7

// RateTable is an in-memory history of daily currency -> GBP rates.
// Implements RateSource.
type RateTable struct {
	rates map[Currency]map[date.Date]decimal.Decimal
}

func NewRateTable() *RateTable {
	return &RateTable{rates: make(map[Currency]map[date.Date]decimal.Decimal)}
}

func (t *RateTable) Add(currency Currency, r DailyRate) {
	byDate, ok := t.rates[currency]
	if !ok {
		byDate = make(map[date.Date]decimal.Decimal)
		t.rates[currency] = byDate
	}
	byDate[r.Date] = r.Rate
}

// Rate returns the rate on d, falling back to the closest preceding
// trading day.
func (t *RateTable) Rate(currency Currency, d date.Date) (decimal.Decimal, bool) {
	// A nil table is a valid empty source.
	if t == nil {
		return decimal.Zero, false
	}
	byDate, ok := t.rates[currency]
	if !ok {
		return decimal.Zero, false
	}
	for i := 0; i <= maxRateLookbackDays; i++ {
		if rate, ok := byDate[d.AddDays(-i)]; ok {
			return rate, true
		}
	}
	return decimal.Zero, false
}

// LoadRatesCsv reads rows of the form: date,currency,gbp-rate
// A leading header row is skipped if present.
func LoadRatesCsv(r io.Reader) (*RateTable, error) {
	csvR := csv.NewReader(r)
	csvR.FieldsPerRecord = 3
	records, err := csvR.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse rates CSV: %w", err)
	}

	table := NewRateTable()
	for i, record := range records {
		d, err := date.Parse(date.DefaultFormat, record[0])
		if err != nil {
			if i == 0 {
				// Header
				continue
			}
			return nil, fmt.Errorf("rates CSV line %d: unable to parse date: %w", i+1, err)
		}
		rate, err := decimal.NewFromString(record[2])
		if err != nil {
			return nil, fmt.Errorf("rates CSV line %d: unable to parse rate: %w", i+1, err)
		}
		table.Add(Currency(strings.ToUpper(record[1])), DailyRate{d, rate})
	}
	return table, nil
}

// jsonRates maps currency -> date string -> rate string, eg.
// {"USD": {"2023-06-01": "0.8012"}}
type jsonRates map[string]map[string]string

// LoadRatesJson reads a currency-keyed rate history document.
func LoadRatesJson(r io.Reader) (*RateTable, error) {
	var doc jsonRates
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse rates JSON: %w", err)
	}

	table := NewRateTable()
	for curr, byDate := range doc {
		for dateStr, rateStr := range byDate {
			d, err := date.Parse(date.DefaultFormat, dateStr)
			if err != nil {
				return nil, fmt.Errorf("rates JSON %s: unable to parse date: %w", curr, err)
			}
			rate, err := decimal.NewFromString(rateStr)
			if err != nil {
				return nil, fmt.Errorf("rates JSON %s/%s: unable to parse rate: %w", curr, dateStr, err)
			}
			table.Add(Currency(strings.ToUpper(curr)), DailyRate{d, rate})
		}
	}
	return table, nil
}

// LoadRatesFile loads a rate history by extension (.json or .csv).
// An empty path yields a nil table, meaning per-row rates are required.
func LoadRatesFile(path string) (*RateTable, error) {
	if path == "" {
		return nil, nil
	}
	fp, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rates file %s: %w", path, err)
	}
	defer fp.Close()

	log.L.Info("Loading historical exchange rates", "path", path)
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return LoadRatesJson(fp)
	}
	return LoadRatesCsv(fp)
}
