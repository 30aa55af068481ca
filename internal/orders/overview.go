package orders

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/prostore-backend/pkg/errors"
)

// Overview gathers the admin dashboard figures.
func (s *service) Overview(ctx context.Context) (*Overview, error) {
	ordersCount, err := s.repo.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}
	productsCount, err := count(ctx, s.products)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count products")
	}
	usersCount, err := count(ctx, s.userCounter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count users")
	}
	total, err := s.repo.TotalSales(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum sales")
	}

	now := s.now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(salesWindow - 1), 0)
	rows, err := s.repo.SalesSince(ctx, start)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sales")
	}

	latest, err := s.repo.Latest(ctx, latestSalesLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load latest sales")
	}
	recent := make([]LatestSale, 0, len(latest))
	for _, o := range latest {
		sale := LatestSale{ID: o.ID, TotalPrice: o.TotalPrice.StringFixed(2), CreatedAt: o.CreatedAt}
		if o.User != nil {
			sale.UserName = o.User.Name
		}
		recent = append(recent, sale)
	}

	return &Overview{
		OrdersCount:   ordersCount,
		ProductsCount: productsCount,
		UsersCount:    usersCount,
		TotalSales:    total.StringFixed(2),
		SalesData:     monthlySales(rows),
		LatestSales:   recent,
	}, nil
}

// monthlySales buckets rows by calendar month in the order they first
// appear. Rows are expected oldest first.
func monthlySales(rows []SaleRow) []MonthSales {
	out := make([]MonthSales, 0)
	index := make(map[string]int)
	sums := make([]decimal.Decimal, 0)
	for _, row := range rows {
		key := row.CreatedAt.UTC().Format("01/06")
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, MonthSales{Month: key})
			sums = append(sums, decimal.Zero)
		}
		sums[i] = sums[i].Add(row.TotalPrice)
	}
	for i := range out {
		out[i].TotalSales = sums[i].StringFixed(2)
	}
	return out
}

func count(ctx context.Context, c counter) (int64, error) {
	if c == nil {
		return 0, nil
	}
	return c.Count(ctx)
}
