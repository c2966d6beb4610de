package pricing

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indyhub/exchange-backend/pkg/db/models"
)

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	require.NoError(t, err)
	return d
}

func TestSellPrice(t *testing.T) {
	cases := []struct {
		name     string
		ref      string
		pct      string
		base     string
		expected string
	}{
		{"no markup", "100.00", "0", "0", "100.00"},
		{"percent only", "100.00", "10", "0", "110.00"},
		{"base only", "100.00", "0", "5.50", "105.50"},
		{"percent and base", "250.00", "7.5", "12.25", "281.00"},
		{"rounds to isk cents", "33.33", "3", "0", "34.33"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := MarkupConfig{
				SellMarkupPercent: dec(t, tc.pct),
				SellMarkupBase:    dec(t, tc.base),
			}
			got := SellPrice(dec(t, tc.ref), cfg)
			assert.True(t, got.Equal(dec(t, tc.expected)), "got %s want %s", got, tc.expected)
		})
	}
}

func TestBuyPrice(t *testing.T) {
	cases := []struct {
		name     string
		ref      string
		pct      string
		base     string
		expected string
	}{
		{"no markup", "100.00", "0", "0", "100.00"},
		{"percent only", "100.00", "10", "0", "90.00"},
		{"base only", "100.00", "0", "5.50", "94.50"},
		{"floored at zero", "10.00", "50", "20.00", "0.00"},
		{"exactly zero", "40.00", "50", "20.00", "0.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := MarkupConfig{
				BuyMarkupPercent: dec(t, tc.pct),
				BuyMarkupBase:    dec(t, tc.base),
			}
			got := BuyPrice(dec(t, tc.ref), cfg)
			assert.True(t, got.Equal(dec(t, tc.expected)), "got %s want %s", got, tc.expected)
		})
	}
}

// The operator never loses ISK on coherent reference prices (buy <= sell):
// members always pay at least the reference buy price and are paid at most
// the reference sell price.
func TestOperatorMarginInvariant(t *testing.T) {
	references := []struct{ buy, sell string }{
		{"0.00", "0.00"},
		{"1.00", "1.10"},
		{"99.50", "101.25"},
		{"1000000.00", "1250000.00"},
		{"5.00", "5.00"},
	}
	markups := []struct{ pct, base string }{
		{"0", "0"},
		{"5", "0"},
		{"0", "10.00"},
		{"12.5", "3.75"},
		{"100", "50.00"},
	}

	for _, ref := range references {
		for _, m := range markups {
			name := fmt.Sprintf("ref=%s/%s markup=%s+%s", ref.buy, ref.sell, m.pct, m.base)
			t.Run(name, func(t *testing.T) {
				cfg := MarkupConfig{
					SellMarkupPercent: dec(t, m.pct),
					SellMarkupBase:    dec(t, m.base),
					BuyMarkupPercent:  dec(t, m.pct),
					BuyMarkupBase:     dec(t, m.base),
				}
				memberBuy, memberSell := MemberPrices(dec(t, ref.buy), dec(t, ref.sell), cfg)

				assert.True(t, memberSell.GreaterThanOrEqual(dec(t, ref.buy)),
					"member sell %s below reference buy %s", memberSell, ref.buy)
				assert.True(t, memberBuy.LessThanOrEqual(dec(t, ref.sell)),
					"member buy %s above reference sell %s", memberBuy, ref.sell)
				assert.False(t, memberBuy.IsNegative())
			})
		}
	}
}

func TestFromExchangeConfig(t *testing.T) {
	cfg := models.ExchangeConfig{
		SellMarkupPercent: dec(t, "10"),
		SellMarkupBase:    dec(t, "1.00"),
		BuyMarkupPercent:  dec(t, "5"),
		BuyMarkupBase:     dec(t, "0.50"),
	}
	markup := FromExchangeConfig(cfg)
	assert.True(t, markup.SellMarkupPercent.Equal(dec(t, "10")))
	assert.True(t, markup.SellMarkupBase.Equal(dec(t, "1.00")))
	assert.True(t, markup.BuyMarkupPercent.Equal(dec(t, "5")))
	assert.True(t, markup.BuyMarkupBase.Equal(dec(t, "0.50")))
}
