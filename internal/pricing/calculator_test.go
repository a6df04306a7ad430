package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wieeerzbickim/community-feast/internal/domain"
)

func rate(t *testing.T, raw string) decimal.Decimal {
	t.Helper()

	r, err := ParseRate(raw)
	require.NoError(t, err)
	return r
}

func TestSplit_ExactRecomposition(t *testing.T) {
	cases := []struct {
		name       string
		price      int64
		rate       string
		commission int64
	}{
		{"ten percent of 10.00", 1000, "10", 100},
		{"twelve percent of 100.00", 10000, "12", 1200},
		{"rounds half up", 999, "15", 150},  // 149.85 -> 150
		{"rounds down", 1001, "33", 330},    // 330.33 -> 330
		{"fractional rate", 1000, "2.5", 25},
		{"one cent", 1, "50", 1}, // 0.5 -> 1
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := Split(tc.price, rate(t, tc.rate))
			require.NoError(t, err)

			require.Equal(t, tc.commission, b.Commission)
			require.Equal(t, tc.price-tc.commission, b.Earnings)
			require.Equal(t, tc.price, b.Commission+b.Earnings)
		})
	}
}

func TestSplit_ZeroRate(t *testing.T) {
	b, err := Split(1000, rate(t, "0"))
	require.NoError(t, err)

	require.Equal(t, int64(0), b.Commission)
	require.Equal(t, int64(1000), b.Earnings)
}

func TestSplit_FullRate(t *testing.T) {
	b, err := Split(1000, rate(t, "100"))
	require.NoError(t, err)

	require.Equal(t, int64(1000), b.Commission)
	require.Equal(t, int64(0), b.Earnings)
}

func TestSplit_ZeroPrice(t *testing.T) {
	b, err := Split(0, rate(t, "12"))
	require.NoError(t, err)

	require.Equal(t, int64(0), b.Commission)
	require.Equal(t, int64(0), b.Earnings)
}

func TestSplit_NegativePrice(t *testing.T) {
	_, err := Split(-1, rate(t, "10"))
	require.ErrorIs(t, err, domain.ErrInvalidPrice)
}

func TestSplit_RateOutOfRange(t *testing.T) {
	_, err := Split(1000, decimal.NewFromInt(-1))
	require.ErrorIs(t, err, domain.ErrInvalidCommission)

	_, err = Split(1000, decimal.NewFromInt(101))
	require.ErrorIs(t, err, domain.ErrInvalidCommission)
}

func TestParseRate(t *testing.T) {
	_, err := ParseRate("12.5")
	require.NoError(t, err)

	_, err = ParseRate("-3")
	require.ErrorIs(t, err, domain.ErrInvalidCommission)

	_, err = ParseRate("100.01")
	require.ErrorIs(t, err, domain.ErrInvalidCommission)

	_, err = ParseRate("abc")
	require.ErrorIs(t, err, domain.ErrInvalidCommission)
}
