package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCentsRoundTrip(t *testing.T) {
	assert.True(t, FromCents(1250).Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, int64(1250), ToCents(decimal.RequireFromString("12.50")))
	assert.Equal(t, int64(1000), ToCents(decimal.RequireFromString("9.995")))
	assert.Equal(t, int64(0), ToCents(decimal.Zero))
}

func TestShipping(t *testing.T) {
	cases := []struct {
		items string
		want  string
	}{
		{"0", "4.99"},
		{"29.99", "4.99"},
		{"30", "4.99"},
		{"30.01", "0"},
		{"120", "0"},
	}
	for _, tc := range cases {
		got := Shipping(decimal.RequireFromString(tc.items))
		assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "items=%s got=%s", tc.items, got)
	}
}

func TestLineTotal(t *testing.T) {
	got := LineTotal(decimal.RequireFromString("12.90"), 3)
	assert.True(t, got.Equal(decimal.RequireFromString("38.7")))
}
