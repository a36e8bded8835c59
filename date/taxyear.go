package date

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// UK tax years run 6 April to the following 5 April.
type TaxYear struct {
	// The calendar year in which the tax year begins. Eg. 2023 for 2023/24.
	StartYear int
}

// ParseTaxYear accepts "2023/24", "2023-24", "2023/2024" and "2023".
func ParseTaxYear(s string) (TaxYear, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TaxYear{}, fmt.Errorf("tax year is required")
	}
	sep := ""
	if strings.Contains(s, "/") {
		sep = "/"
	} else if strings.Contains(s, "-") {
		sep = "-"
	}

	startStr := s
	endStr := ""
	if sep != "" {
		parts := strings.SplitN(s, sep, 2)
		startStr, endStr = parts[0], parts[1]
	}

	start, err := strconv.Atoi(startStr)
	if err != nil || start < 1900 || start > 2200 {
		return TaxYear{}, fmt.Errorf("invalid tax year '%s'", s)
	}

	if endStr != "" {
		end, err := strconv.Atoi(endStr)
		if err != nil {
			return TaxYear{}, fmt.Errorf("invalid tax year '%s'", s)
		}
		// Accept both two and four digit end years, but they must name the
		// year immediately after the start.
		if end < 100 {
			end += (start / 100) * 100
			if end < start {
				end += 100
			}
		}
		if end != start+1 {
			return TaxYear{}, fmt.Errorf("invalid tax year '%s': must span consecutive years", s)
		}
	}
	return TaxYear{StartYear: start}, nil
}

func (y TaxYear) Start() Date {
	return New(uint32(y.StartYear), time.April, 6)
}

func (y TaxYear) End() Date {
	return New(uint32(y.StartYear+1), time.April, 5)
}

func (y TaxYear) Contains(d Date) bool {
	return !d.Before(y.Start()) && !d.After(y.End())
}

// TaxYearOf returns the tax year a date falls in.
func TaxYearOf(d Date) TaxYear {
	y := d.Year()
	if d.Before(New(uint32(y), time.April, 6)) {
		y--
	}
	return TaxYear{StartYear: y}
}

func (y TaxYear) String() string {
	return fmt.Sprintf("%d/%02d", y.StartYear, (y.StartYear+1)%100)
}
