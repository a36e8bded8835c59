package portfolio

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/apperrors"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/date"
)

// RawRow is one pre-parsed broker export row: header-keyed cells plus the
// 1-based position in the source file. CSV and QFX inputs both reduce to
// this shape before normalization, so format differences never reach the
// calculation core.
type RawRow struct {
	Cells map[string]string `json:"cells"`
	Row   int               `json:"row"`
}

type FileFormat int

const (
	FormatCsv FileFormat = iota
	FormatQfx
)

// DetectFormat keys off content, not file name: QFX/OFX payloads start with
// an OFX header or tag, everything else is treated as delimited text.
func DetectFormat(data []byte) FileFormat {
	head := strings.ToUpper(string(data[:min(len(data), 512)]))
	if strings.Contains(head, "OFXHEADER") || strings.Contains(head, "<OFX") {
		return FormatQfx
	}
	return FormatCsv
}

// ReadRows parses a raw file payload into rows for normalization.
func ReadRows(data []byte) ([]RawRow, []apperrors.RowError) {
	if DetectFormat(data) == FormatQfx {
		return ReadQfxRows(bytes.NewReader(data))
	}
	return ReadCsvRows(bytes.NewReader(data))
}

// ReadCsvRows reads a header row plus data rows. Header names are
// lower-cased and trimmed; mapping them onto canonical fields happens in
// Normalize.
func ReadCsvRows(r io.Reader) ([]RawRow, []apperrors.RowError) {
	csvR := csv.NewReader(r)
	csvR.FieldsPerRecord = -1
	csvR.TrimLeadingSpace = true
	records, err := csvR.ReadAll()
	if err != nil {
		return nil, []apperrors.RowError{
			apperrors.Parsef(0, "failed to parse CSV: %v", err)}
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := make([]string, len(records[0]))
	for i, col := range records[0] {
		header[i] = strings.TrimSpace(strings.ToLower(col))
	}

	var errs []apperrors.RowError
	rows := make([]RawRow, 0, len(records)-1)
	for i, record := range records[1:] {
		rowNum := i + 1
		if len(record) > len(header) {
			errs = append(errs, apperrors.Parsef(rowNum,
				"row has %d fields but the header has %d", len(record), len(header)))
			continue
		}
		cells := make(map[string]string, len(record))
		for j, col := range record {
			cells[header[j]] = strings.TrimSpace(col)
		}
		rows = append(rows, RawRow{Cells: cells, Row: rowNum})
	}
	return rows, errs
}

// QFX (OFX SGML) support. Tags are either aggregates (<INVBUY>...</INVBUY>)
// or leaves (<UNITS>100, no closing tag). Only investment transaction and
// income aggregates are extracted; everything else is skipped.

type qfxToken struct {
	tag   string
	value string
	close bool
}

func qfxTokens(r io.Reader) ([]qfxToken, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text := string(data)

	var tokens []qfxToken
	for {
		open := strings.IndexByte(text, '<')
		if open < 0 {
			break
		}
		end := strings.IndexByte(text[open:], '>')
		if end < 0 {
			return nil, fmt.Errorf("unterminated tag at offset %d", open)
		}
		tag := text[open+1 : open+end]
		text = text[open+end+1:]

		closing := strings.HasPrefix(tag, "/")
		tag = strings.ToUpper(strings.TrimPrefix(tag, "/"))

		value := text
		if next := strings.IndexByte(text, '<'); next >= 0 {
			value = text[:next]
		}
		tokens = append(tokens, qfxToken{
			tag: tag, value: strings.TrimSpace(value), close: closing})
	}
	return tokens, nil
}

var qfxActionForAggregate = map[string]string{
	"INVBUY":    "buy",
	"BUYSTOCK":  "buy",
	"INVSELL":   "sell",
	"SELLSTOCK": "sell",
	"INCOME":    "dividend",
}

// ReadQfxRows extracts investment transactions from a QFX document and
// presents them as rows with canonical headers, so they flow through the
// same Normalize path as CSV.
func ReadQfxRows(r io.Reader) ([]RawRow, []apperrors.RowError) {
	tokens, err := qfxTokens(r)
	if err != nil {
		return nil, []apperrors.RowError{
			apperrors.Parsef(0, "failed to parse QFX: %v", err)}
	}

	var errs []apperrors.RowError
	var rows []RawRow
	rowNum := 0

	var cells map[string]string
	var action string
	openAggregate := ""

	flush := func() {
		if cells == nil {
			return
		}
		rowNum++
		cells["action"] = action
		if action == "dividend" {
			// INCOME aggregates carry a TOTAL, not units and price.
			delete(cells, "quantity")
			delete(cells, "price")
		}
		rows = append(rows, RawRow{Cells: cells, Row: rowNum})
		cells = nil
	}

	for _, tok := range tokens {
		if act, ok := qfxActionForAggregate[tok.tag]; ok {
			if tok.close {
				if tok.tag == openAggregate {
					flush()
					openAggregate = ""
				}
				continue
			}
			// BUYSTOCK wraps INVBUY (and SELLSTOCK wraps INVSELL); keep
			// filling the already-open row rather than starting another.
			// Any other aggregate opening here means the previous one was
			// never closed, so its row is flushed before starting fresh.
			if cells != nil {
				if (openAggregate == "BUYSTOCK" && tok.tag == "INVBUY") ||
					(openAggregate == "SELLSTOCK" && tok.tag == "INVSELL") {
					continue
				}
				flush()
			}
			cells = make(map[string]string)
			action = act
			openAggregate = tok.tag
			continue
		}
		if cells == nil || tok.close {
			continue
		}

		switch tok.tag {
		case "DTTRADE", "DTPOSTED":
			if d, err := parseQfxDate(tok.value); err != nil {
				errs = append(errs, apperrors.Parsef(rowNum+1, "QFX: %v", err))
			} else {
				cells["date"] = d.String()
			}
		case "TICKER":
			cells["security"] = strings.ToUpper(tok.value)
		case "UNIQUEID":
			if _, ok := cells["security"]; !ok {
				cells["security"] = strings.ToUpper(tok.value)
			}
		case "SECNAME":
			cells["name"] = tok.value
		case "UNITS":
			cells["quantity"] = strings.TrimPrefix(tok.value, "-")
		case "UNITPRICE":
			cells["price"] = tok.value
		case "COMMISSION", "FEES":
			cells["commission"] = tok.value
		case "CURSYM", "ORIGCURSYM":
			cells["currency"] = strings.ToUpper(tok.value)
		case "CURRATE":
			cells["exchange rate"] = tok.value
		case "TOTAL":
			cells["gross amount"] = strings.TrimPrefix(tok.value, "-")
		case "WITHHOLDING":
			cells["withholding tax"] = tok.value
		}
	}
	// An unterminated trailing aggregate still yields its row.
	flush()

	return rows, errs
}

// QFX datetimes look like 20230614120000.000[-5:EST]; only the date part
// matters for same-day grouping.
func parseQfxDate(value string) (date.Date, error) {
	if len(value) < 8 {
		return date.Date{}, fmt.Errorf("unparseable date '%s'", value)
	}
	return date.Parse("20060102", value[:8])
}
