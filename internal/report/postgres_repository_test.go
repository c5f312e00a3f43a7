package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasirku/kasir/internal/access"
	"github.com/kasirku/kasir/internal/database/dbtest"
	"github.com/kasirku/kasir/internal/product"
	"github.com/kasirku/kasir/internal/report"
	"github.com/kasirku/kasir/internal/sale"
)

func TestReports_ScopedToStore(t *testing.T) {
	pool := dbtest.Setup(t)
	f := dbtest.Seed(t, pool, "alpha")
	ctx := context.Background()

	products := product.NewRepository(pool)
	sales := sale.NewRepository(pool)

	checkout := func(storeID string, price int64, qty int) {
		t.Helper()
		store := f.StoreID
		if storeID == "branch" {
			store = f.OtherStore
		}
		p := &product.Product{
			TenantID: f.TenantID, TokoID: store, SKU: storeID + "-" + time.Now().Format("150405.000000"),
			Name: "Roti", Unit: "pcs", Price: price, Cost: price / 2, Stock: 100,
		}
		require.NoError(t, products.Create(ctx, p))
		_, err := sales.Create(ctx, sale.Checkout{
			TenantID: f.TenantID, TokoID: store, CashierID: f.CashierID,
			Lines: []sale.Line{{ProductID: p.ID, Quantity: qty}}, Paid: price * int64(qty),
			PaymentMethod: sale.PaymentCash,
		})
		require.NoError(t, err)
	}

	checkout("main", 10000, 2)
	checkout("branch", 5000, 1)

	period, err := report.NewPeriod(nil, nil, time.Now().Add(time.Minute))
	require.NoError(t, err)

	repo := report.NewRepository(pool)

	cashier := access.Resolve(access.Principal{TenantID: f.TenantID.String(), Level: 4, TokoID: f.StoreID.String()}, access.Params{})
	s, err := repo.Summary(ctx, cashier, period)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Transactions)
	assert.Equal(t, int64(20000), s.Revenue)
	assert.Equal(t, int64(10000), s.CostOfGoods)
	assert.Equal(t, int64(10000), s.GrossProfit)

	admin := access.Resolve(access.Principal{TenantID: f.TenantID.String(), Level: 2}, access.Params{})
	s, err = repo.Summary(ctx, admin, period)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Transactions)
	assert.Equal(t, int64(25000), s.Revenue)

	days, err := repo.Daily(ctx, admin, period)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, 2, days[0].Transactions)

	top, err := repo.TopProducts(ctx, admin, period, 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, 2, top[0].Quantity)
}
