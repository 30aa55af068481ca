package cart

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/prostore-backend/pkg/types"
)

var (
	freeShippingThreshold = decimal.NewFromInt(100)
	flatShipping          = decimal.NewFromInt(10)
	taxRate               = decimal.RequireFromString("0.15")
)

// Prices are the derived cart totals, each rounded to cents.
type Prices struct {
	ItemsPrice    decimal.Decimal
	ShippingPrice decimal.Decimal
	TaxPrice      decimal.Decimal
	TotalPrice    decimal.Decimal
}

// CalcPrice derives the totals from the line items. Shipping is free once
// the items total is strictly above 100.
func CalcPrice(items types.CartItems) Prices {
	itemsPrice := decimal.Zero
	for _, item := range items {
		itemsPrice = itemsPrice.Add(round2(item.Price.Mul(decimal.NewFromInt(int64(item.Qty)))))
	}
	itemsPrice = round2(itemsPrice)

	shipping := flatShipping
	if itemsPrice.GreaterThan(freeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := round2(taxRate.Mul(itemsPrice))

	return Prices{
		ItemsPrice:    itemsPrice,
		ShippingPrice: round2(shipping),
		TaxPrice:      tax,
		TotalPrice:    round2(itemsPrice.Add(tax).Add(shipping)),
	}
}

// round2 rounds half away from zero to two decimals.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
