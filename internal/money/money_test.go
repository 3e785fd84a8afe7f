package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCents(t *testing.T) {
	cases := map[string]int64{
		"$1,234.56":  123456,
		"USD 12.00":  1200,
		"7":          700,
		"(4.50)":     -450,
		"-3.10":      -310,
		"€ 0.99":     99,
		"1,000,000":  100000000,
		"$108.50 ":   10850,
		"19.999":     2000,
	}
	for in, want := range cases {
		got, err := ParseCents(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseCentsRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "1.2.3"} {
		_, err := ParseCents(in)
		assert.ErrorIs(t, err, ErrInvalidAmount, in)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "108.50", Format(10850))
	assert.Equal(t, "0.05", Format(5))
	assert.Equal(t, "$1200.00", FormatUSD(120000))
	assert.Equal(t, "-$3.00", FormatUSD(-300))
}

func TestMulQuantity(t *testing.T) {
	assert.Equal(t, int64(1000), MulQuantity(500, 2))
	assert.Equal(t, int64(375), MulQuantity(250, 1.5))
	assert.Equal(t, int64(333), MulQuantity(999, 0.3333))
}

func TestWithin(t *testing.T) {
	assert.True(t, Within(10850, 10860, 10))
	assert.False(t, Within(10850, 10861, 10))
	assert.Equal(t, int64(5), Abs(-5))
}
