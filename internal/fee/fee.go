// Package fee computes the platform's buyer-protection fee and shipping
// costs. Everything here is pure; values keep full decimal precision and are
// rounded only when converted to gateway minor units.
package fee

import "github.com/shopspring/decimal"

var (
	protectionRate  = decimal.NewFromFloat(0.05)
	protectionFixed = decimal.NewFromFloat(0.70)

	defaultShipping = decimal.NewFromFloat(5.00)

	// Shipping prices by provider label. Unrecognized labels fall back to
	// defaultShipping instead of erroring so a renamed carrier never blocks
	// checkout.
	shippingCosts = map[string]decimal.Decimal{
		"Mondial Relay":    decimal.NewFromFloat(3.99),
		"Home Delivery":    decimal.NewFromFloat(6.99),
		"UPS Access Point": decimal.NewFromFloat(4.50),
	}
)

// Breakdown is the priced-out view of a single purchase.
type Breakdown struct {
	Price         decimal.Decimal `json:"price"`
	ProtectionFee decimal.Decimal `json:"protectionFee"`
	ShippingCost  decimal.Decimal `json:"shippingCost"`
	Total         decimal.Decimal `json:"total"`
}

// ProtectionFee returns the buyer-protection fee for a price: 5% plus a fixed
// 0.70.
func ProtectionFee(price decimal.Decimal) decimal.Decimal {
	return price.Mul(protectionRate).Add(protectionFixed)
}

// ShippingCost returns the cost for a shipping provider, falling back to the
// default for unknown providers.
func ShippingCost(provider string) decimal.Decimal {
	if c, ok := shippingCosts[provider]; ok {
		return c
	}
	return defaultShipping
}

// Total returns price + protection fee + shipping.
func Total(price decimal.Decimal, provider string) decimal.Decimal {
	return price.Add(ProtectionFee(price)).Add(ShippingCost(provider))
}

// Quote prices out a purchase at the given effective price.
func Quote(price decimal.Decimal, provider string) Breakdown {
	pf := ProtectionFee(price)
	sc := ShippingCost(provider)
	return Breakdown{
		Price:         price,
		ProtectionFee: pf,
		ShippingCost:  sc,
		Total:         price.Add(pf).Add(sc),
	}
}
