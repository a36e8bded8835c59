package date

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTaxYear(t *testing.T) {
	rq := require.New(t)

	for _, in := range []string{"2023/24", "2023-24", "2023/2024", "2023", " 2023/24 "} {
		y, err := ParseTaxYear(in)
		rq.Nil(err, "input %s", in)
		rq.Equal(2023, y.StartYear, "input %s", in)
	}

	for _, in := range []string{"", "banana", "2023/25", "2023/2025", "1776", "2023/banana"} {
		_, err := ParseTaxYear(in)
		rq.NotNil(err, "input %s", in)
	}
}

func TestTaxYearBoundaries(t *testing.T) {
	rq := require.New(t)

	y := TaxYear{StartYear: 2023}
	rq.True(y.Start().Equal(New(2023, time.April, 6)))
	rq.True(y.End().Equal(New(2024, time.April, 5)))

	rq.False(y.Contains(New(2023, time.April, 5)))
	rq.True(y.Contains(New(2023, time.April, 6)))
	rq.True(y.Contains(New(2023, time.December, 25)))
	rq.True(y.Contains(New(2024, time.April, 5)))
	rq.False(y.Contains(New(2024, time.April, 6)))

	rq.Equal("2023/24", y.String())
	rq.Equal("1999/00", TaxYear{StartYear: 1999}.String())
}

func TestTaxYearOf(t *testing.T) {
	rq := require.New(t)

	rq.Equal(2022, TaxYearOf(New(2023, time.April, 5)).StartYear)
	rq.Equal(2023, TaxYearOf(New(2023, time.April, 6)).StartYear)
	rq.Equal(2023, TaxYearOf(New(2024, time.January, 1)).StartYear)
}
