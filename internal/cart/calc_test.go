package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/prostore-backend/pkg/types"
)

func line(price string, qty int) types.CartItem {
	return types.CartItem{ProductID: uuid.New(), Name: "x", Slug: "x", Image: "/x.jpg", Price: decimal.RequireFromString(price), Qty: qty}
}

func fixed(p Prices) [4]string {
	return [4]string{
		p.ItemsPrice.StringFixed(2),
		p.ShippingPrice.StringFixed(2),
		p.TaxPrice.StringFixed(2),
		p.TotalPrice.StringFixed(2),
	}
}

func TestCalcPrice(t *testing.T) {
	cases := []struct {
		name  string
		items types.CartItems
		want  [4]string
	}{
		{"empty", nil, [4]string{"0.00", "10.00", "0.00", "10.00"}},
		{"single line", types.CartItems{line("20.00", 1)}, [4]string{"20.00", "10.00", "3.00", "33.00"}},
		{"exactly one hundred still ships", types.CartItems{line("50.00", 2)}, [4]string{"100.00", "10.00", "15.00", "125.00"}},
		{"above one hundred ships free", types.CartItems{line("100.01", 1)}, [4]string{"100.01", "0.00", "15.00", "115.01"}},
		{"line rounding", types.CartItems{line("19.99", 3), line("0.335", 1)}, [4]string{"60.31", "10.00", "9.05", "79.36"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, fixed(CalcPrice(tc.items)))
		})
	}
}

func TestCalcPriceTotalsAddUp(t *testing.T) {
	for qty := 1; qty <= 12; qty++ {
		p := CalcPrice(types.CartItems{line("9.37", qty), line("12.5", 1)})
		sum := p.ItemsPrice.Add(p.ShippingPrice).Add(p.TaxPrice)
		require.True(t, p.TotalPrice.Equal(sum), "qty %d", qty)
		require.True(t, p.TaxPrice.Equal(p.ItemsPrice.Mul(decimal.RequireFromString("0.15")).Round(2)))
	}
}
