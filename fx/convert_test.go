package fx

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/date"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/util"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func rqDecEq(t *testing.T, exp string, actual decimal.Decimal) {
	require.True(t, actual.Equal(dec(exp)), "expected %s, got %s", exp, actual)
}

func mkDate(day int) date.Date {
	return date.New(2023, time.June, uint32(day))
}

func noRate() util.Optional[decimal.Decimal] {
	return util.Optional[decimal.Decimal]{}
}

func TestToGBPPassthrough(t *testing.T) {
	conv := NewConverter(nil)

	got, err := conv.ToGBP(dec("123.45"), GBP, mkDate(1), noRate())
	require.Nil(t, err)
	rqDecEq(t, "123.45", got)

	got, err = conv.ToGBP(dec("123.45"), DEFAULT_CURRENCY, mkDate(1), noRate())
	require.Nil(t, err)
	rqDecEq(t, "123.45", got)
}

func TestToGBPSuppliedRate(t *testing.T) {
	rq := require.New(t)
	conv := NewConverter(nil)

	got, err := conv.ToGBP(dec("100"), USD, mkDate(1), util.NewOptional(dec("0.8012")))
	rq.Nil(err)
	rqDecEq(t, "80.12", got)

	// A supplied rate wins over the source table.
	table := NewRateTable()
	table.Add(USD, DailyRate{mkDate(1), dec("0.5")})
	conv = NewConverter(table)
	got, err = conv.ToGBP(dec("100"), USD, mkDate(1), util.NewOptional(dec("0.8012")))
	rq.Nil(err)
	rqDecEq(t, "80.12", got)

	_, err = conv.ToGBP(dec("100"), USD, mkDate(1), util.NewOptional(dec("0")))
	rq.NotNil(err)
	_, err = conv.ToGBP(dec("100"), USD, mkDate(1), util.NewOptional(dec("-1.2")))
	rq.NotNil(err)
}

func TestToGBPSourceLookback(t *testing.T) {
	rq := require.New(t)

	table := NewRateTable()
	table.Add(USD, DailyRate{mkDate(9), dec("0.79")})
	conv := NewConverter(table)

	// Exact date.
	got, err := conv.ToGBP(dec("10"), USD, mkDate(9), noRate())
	rq.Nil(err)
	rqDecEq(t, "7.9", got)

	// Weekend/holiday gap falls back to the latest preceding rate.
	got, err = conv.ToGBP(dec("10"), USD, mkDate(11), noRate())
	rq.Nil(err)
	rqDecEq(t, "7.9", got)

	// Too far past the last published rate.
	_, err = conv.ToGBP(dec("10"), USD, mkDate(20), noRate())
	rq.NotNil(err)
	rq.ErrorIs(err, ErrMissingRate)
}

func TestToGBPMissingRate(t *testing.T) {
	rq := require.New(t)

	conv := NewConverter(nil)
	_, err := conv.ToGBP(dec("100"), USD, mkDate(1), noRate())
	rq.NotNil(err)
	rq.ErrorIs(err, ErrMissingRate)

	// A nil table behaves like no source at all.
	conv = NewConverter((*RateTable)(nil))
	_, err = conv.ToGBP(dec("100"), EUR, mkDate(1), noRate())
	rq.ErrorIs(err, ErrMissingRate)
}
