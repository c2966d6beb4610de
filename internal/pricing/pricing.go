package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/indyhub/exchange-backend/pkg/db/models"
)

var hundred = decimal.NewFromInt(100)

// MarkupConfig carries the markup knobs for one corporation. Callers load it
// from the exchange config and pass it per call; nothing in this package
// reads ambient state.
type MarkupConfig struct {
	SellMarkupPercent decimal.Decimal
	SellMarkupBase    decimal.Decimal
	BuyMarkupPercent  decimal.Decimal
	BuyMarkupBase     decimal.Decimal
}

// FromExchangeConfig extracts the markup knobs from a config row.
func FromExchangeConfig(cfg models.ExchangeConfig) MarkupConfig {
	return MarkupConfig{
		SellMarkupPercent: cfg.SellMarkupPercent,
		SellMarkupBase:    cfg.SellMarkupBase,
		BuyMarkupPercent:  cfg.BuyMarkupPercent,
		BuyMarkupBase:     cfg.BuyMarkupBase,
	}
}

// SellPrice derives the member-facing sell price (pool sells to member) from
// the reference sell price: reference × (1 + pct/100) + base, ISK-rounded.
func SellPrice(referenceSell decimal.Decimal, cfg MarkupConfig) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(cfg.SellMarkupPercent.Div(hundred))
	return referenceSell.Mul(factor).Add(cfg.SellMarkupBase).Round(2)
}

// BuyPrice derives the member-facing buy price (pool buys from member) from
// the reference buy price: reference × (1 − pct/100) − base, floored at zero.
func BuyPrice(referenceBuy decimal.Decimal, cfg MarkupConfig) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(cfg.BuyMarkupPercent.Div(hundred))
	price := referenceBuy.Mul(factor).Sub(cfg.BuyMarkupBase).Round(2)
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}

// MemberPrices derives both member-facing prices from the Jita references.
func MemberPrices(jitaBuy, jitaSell decimal.Decimal, cfg MarkupConfig) (buy, sell decimal.Decimal) {
	return BuyPrice(jitaBuy, cfg), SellPrice(jitaSell, cfg)
}
