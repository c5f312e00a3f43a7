package sale_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasirku/kasir/internal/access"
	"github.com/kasirku/kasir/internal/database/dbtest"
	"github.com/kasirku/kasir/internal/inventory"
	"github.com/kasirku/kasir/internal/product"
	"github.com/kasirku/kasir/internal/sale"
)

func seedProduct(t *testing.T, pool *pgxpool.Pool, f dbtest.Fixture, sku string, price int64, stock int) uuid.UUID {
	t.Helper()
	p := &product.Product{
		TenantID: f.TenantID, TokoID: f.StoreID, SKU: sku, Name: "Produk " + sku,
		Unit: "pcs", Price: price, Cost: price / 2, Stock: stock,
	}
	require.NoError(t, product.NewRepository(pool).Create(context.Background(), p))
	return p.ID
}

func cashierScope(f dbtest.Fixture) access.Scope {
	return access.Resolve(access.Principal{
		TenantID: f.TenantID.String(), Level: 4, TokoID: f.StoreID.String(),
	}, access.Params{})
}

func TestCreate_DecrementsStockAndRecordsMovements(t *testing.T) {
	pool := dbtest.Setup(t)
	f := dbtest.Seed(t, pool, "alpha")
	ctx := context.Background()

	teh := seedProduct(t, pool, f, "TEH", 4000, 10)
	kopi := seedProduct(t, pool, f, "KOPI", 6000, 5)

	repo := sale.NewRepository(pool)
	s, err := repo.Create(ctx, sale.Checkout{
		TenantID: f.TenantID, TokoID: f.StoreID, CashierID: f.CashierID,
		Lines:         []sale.Line{{ProductID: teh, Quantity: 3}, {ProductID: kopi, Quantity: 1}},
		Discount:      1000,
		Paid:          20000,
		PaymentMethod: sale.PaymentCash,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(18000), s.Subtotal)
	assert.Equal(t, int64(17000), s.Total)
	assert.Equal(t, int64(3000), s.Change)
	assert.Len(t, s.Items, 2)

	p, err := product.NewRepository(pool).GetByID(ctx, cashierScope(f), teh)
	require.NoError(t, err)
	assert.Equal(t, 7, p.Stock)

	movements, total, err := inventory.NewRepository(pool).ListMovements(ctx, cashierScope(f), inventory.MovementFilter{Reason: inventory.ReasonSale})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, m := range movements {
		require.NotNil(t, m.ReferenceID)
		assert.Equal(t, s.ID, *m.ReferenceID)
	}

	got, err := repo.GetByID(ctx, cashierScope(f), s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.InvoiceNo, got.InvoiceNo)
	assert.Len(t, got.Items, 2)
}

func TestCreate_InsufficientStockRollsBack(t *testing.T) {
	pool := dbtest.Setup(t)
	f := dbtest.Seed(t, pool, "alpha")
	ctx := context.Background()

	teh := seedProduct(t, pool, f, "TEH", 4000, 10)
	kopi := seedProduct(t, pool, f, "KOPI", 6000, 1)

	_, err := sale.NewRepository(pool).Create(ctx, sale.Checkout{
		TenantID: f.TenantID, TokoID: f.StoreID, CashierID: f.CashierID,
		Lines:         []sale.Line{{ProductID: teh, Quantity: 2}, {ProductID: kopi, Quantity: 2}},
		Paid:          100000,
		PaymentMethod: sale.PaymentCash,
	})
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

	p, err := product.NewRepository(pool).GetByID(ctx, cashierScope(f), teh)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock, "first line must be rolled back")

	_, total, err := sale.NewRepository(pool).List(ctx, cashierScope(f), sale.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCreate_ProductOfOtherStore(t *testing.T) {
	pool := dbtest.Setup(t)
	a := dbtest.Seed(t, pool, "alpha")
	b := dbtest.Seed(t, pool, "beta")

	foreign := seedProduct(t, pool, b, "TEH", 4000, 10)

	_, err := sale.NewRepository(pool).Create(context.Background(), sale.Checkout{
		TenantID: a.TenantID, TokoID: a.StoreID, CashierID: a.CashierID,
		Lines:         []sale.Line{{ProductID: foreign, Quantity: 1}},
		Paid:          4000,
		PaymentMethod: sale.PaymentCash,
	})
	assert.ErrorIs(t, err, product.ErrProductNotFound)
}

func TestGetByID_OutOfScope(t *testing.T) {
	pool := dbtest.Setup(t)
	a := dbtest.Seed(t, pool, "alpha")
	teh := seedProduct(t, pool, a, "TEH", 4000, 10)

	s, err := sale.NewRepository(pool).Create(context.Background(), sale.Checkout{
		TenantID: a.TenantID, TokoID: a.StoreID, CashierID: a.CashierID,
		Lines:         []sale.Line{{ProductID: teh, Quantity: 1}},
		Paid:          4000,
		PaymentMethod: sale.PaymentQRIS,
	})
	require.NoError(t, err)

	branch := access.Resolve(access.Principal{
		TenantID: a.TenantID.String(), Level: 4, TokoID: a.OtherStore.String(),
	}, access.Params{})
	_, err = sale.NewRepository(pool).GetByID(context.Background(), branch, s.ID)
	assert.ErrorIs(t, err, sale.ErrSaleNotFound)
}
