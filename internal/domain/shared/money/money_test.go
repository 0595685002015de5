package money

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRoundsHalfUp(t *testing.T) {
	cases := map[string]int64{
		"150":     15000,
		"150.5":   15050,
		"33.00":   3300,
		"19.994":  1999,
		"19.995":  2000,
		".5":      50,
		"-2.345":  -235,
		"+0.01":   1,
		"1000000": 100000000,
	}
	for in, want := range cases {
		m, err := Parse(in, "eur")
		require.NoError(t, err, in)
		require.Equal(t, want, m.Amount, in)
		require.Equal(t, "EUR", m.Currency)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", ".", "abc", "1,50", "1e3", "--1"} {
		_, err := Parse(in, "EUR")
		require.ErrorIs(t, err, ErrInvalidAmount, in)
	}
	_, err := Parse("10", "EURO")
	require.ErrorIs(t, err, ErrInvalidCurrency)
}

func applied(t *testing.T, m Money, r Rate) int64 {
	t.Helper()
	got, err := m.ApplyRate(r)
	require.NoError(t, err)
	return got.Amount
}

func TestApplyRateRoundsOnce(t *testing.T) {
	ten := MustRate(0.10)
	require.Equal(t, int64(7500), applied(t, Must(75000, "EUR"), ten))
	// 3 nights at 33.35 with 7% tax: 100.05 * 0.07 = 7.0035
	require.Equal(t, int64(700), applied(t, Must(10005, "EUR"), MustRate(0.07)))
	// 0.05 * 0.10 = 0.005 rounds up
	require.Equal(t, int64(1), applied(t, Must(5, "EUR"), ten))
	require.Equal(t, int64(0), applied(t, Must(4, "EUR"), ten))
}

func TestArithmeticReportsOverflow(t *testing.T) {
	huge, err := Parse("50000000000000000", "EUR")
	require.NoError(t, err)

	_, err = huge.Multiply(2)
	require.ErrorIs(t, err, ErrOverflow)

	_, err = Must(math.MaxInt64, "EUR").ApplyRate(MustRate(2))
	require.ErrorIs(t, err, ErrOverflow)

	_, err = Must(math.MaxInt64, "EUR").Add(Must(1, "EUR"))
	require.ErrorIs(t, err, ErrOverflow)

	_, err = Must(math.MinInt64, "EUR").Sub(Must(1, "EUR"))
	require.ErrorIs(t, err, ErrOverflow)

	subtotal, err := Must(15000, "EUR").Multiply(5)
	require.NoError(t, err)
	require.Equal(t, int64(75000), subtotal.Amount)
}

func TestDecimal(t *testing.T) {
	require.Equal(t, "825.00", Must(82500, "EUR").Decimal())
	require.Equal(t, "0.07", Must(7, "EUR").Decimal())
	require.Equal(t, "-1.05", Must(-105, "EUR").Decimal())
}

func TestAddRequiresSameCurrency(t *testing.T) {
	_, err := Must(1, "EUR").Add(Must(1, "USD"))
	require.ErrorIs(t, err, ErrCurrencyMismatch)
	sum, err := Must(1, "EUR").Add(Must(2, "EUR"))
	require.NoError(t, err)
	require.Equal(t, int64(3), sum.Amount)
}

func TestParseRate(t *testing.T) {
	r, err := ParseRate("0.10")
	require.NoError(t, err)
	require.Equal(t, int64(100000), r.PPM)

	r, err = ParseRate("21%")
	require.NoError(t, err)
	require.Equal(t, int64(210000), r.PPM)

	_, err = ParseRate("-0.1")
	require.ErrorIs(t, err, ErrInvalidRate)
}
