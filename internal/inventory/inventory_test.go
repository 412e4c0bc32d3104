package inventory

import (
	"context"
	"database/sql"
	"testing"

	"fourmen-shop/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	skus     map[string]*domain.Sku
	reserved map[uuid.UUID]bool // true once released
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		skus: map[string]*domain.Sku{
			"4MEN-TEE-BLACK-L": {SKU: "4MEN-TEE-BLACK-L", SPU: "4MEN-TEE", Price: 125000, Quantity: 10},
			"4MEN-CAP-NAVY":    {SKU: "4MEN-CAP-NAVY", SPU: "4MEN-CAP", Price: 90000, Quantity: 3},
		},
		reserved: map[uuid.UUID]bool{},
	}
}

func (f *fakeCatalog) CreateProduct(ctx context.Context, tx *sql.Tx, p *domain.Product) error {
	return nil
}

func (f *fakeCatalog) CreateSku(ctx context.Context, tx *sql.Tx, s *domain.Sku) error {
	return nil
}

func (f *fakeCatalog) FindSku(ctx context.Context, sku string) (*domain.Sku, error) {
	return f.skus[sku], nil
}

func (f *fakeCatalog) AdjustStock(ctx context.Context, tx *sql.Tx, sku string, delta int) error {
	s, ok := f.skus[sku]
	if !ok {
		return domain.ErrSkuNotFound
	}
	if s.Quantity+delta < 0 {
		return domain.ErrInsufficientStock
	}
	s.Quantity += delta
	return nil
}

func (f *fakeCatalog) BeginReservation(ctx context.Context, tx *sql.Tx, orderID uuid.UUID) (bool, error) {
	if _, exists := f.reserved[orderID]; exists {
		return false, nil
	}
	f.reserved[orderID] = false
	return true, nil
}

func (f *fakeCatalog) ReleaseReservation(ctx context.Context, tx *sql.Tx, orderID uuid.UUID) (bool, error) {
	released, exists := f.reserved[orderID]
	if !exists || released {
		return false, nil
	}
	f.reserved[orderID] = true
	return true, nil
}

var testItems = []domain.OrderItem{
	{SPU: "4MEN-TEE", SKU: "4MEN-TEE-BLACK-L", Quantity: 2},
	{SPU: "4MEN-CAP", SKU: "4MEN-CAP-NAVY", Quantity: 1},
}

func TestPriceOrder(t *testing.T) {
	svc := NewService(newFakeCatalog())

	total, err := svc.PriceOrder(context.Background(), testItems)
	require.NoError(t, err)
	assert.Equal(t, int64(2*125000+90000), total)
}

func TestPriceOrderUnknownSku(t *testing.T) {
	svc := NewService(newFakeCatalog())

	_, err := svc.PriceOrder(context.Background(), []domain.OrderItem{
		{SPU: "4MEN-TEE", SKU: "NOPE", Quantity: 1},
	})
	assert.ErrorIs(t, err, domain.ErrSkuNotFound)
}

func TestReserveIsIdempotentPerOrder(t *testing.T) {
	catalog := newFakeCatalog()
	svc := NewService(catalog)
	orderID := uuid.New()
	ctx := context.Background()

	require.NoError(t, svc.Reserve(ctx, nil, orderID, testItems))
	assert.Equal(t, 8, catalog.skus["4MEN-TEE-BLACK-L"].Quantity)
	assert.Equal(t, 2, catalog.skus["4MEN-CAP-NAVY"].Quantity)

	// Second reserve for the same order must not decrement again.
	require.NoError(t, svc.Reserve(ctx, nil, orderID, testItems))
	assert.Equal(t, 8, catalog.skus["4MEN-TEE-BLACK-L"].Quantity)
	assert.Equal(t, 2, catalog.skus["4MEN-CAP-NAVY"].Quantity)
}

func TestReserveInsufficientStock(t *testing.T) {
	catalog := newFakeCatalog()
	svc := NewService(catalog)

	err := svc.Reserve(context.Background(), nil, uuid.New(), []domain.OrderItem{
		{SPU: "4MEN-CAP", SKU: "4MEN-CAP-NAVY", Quantity: 5},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestReleaseRestocksExactlyOnce(t *testing.T) {
	catalog := newFakeCatalog()
	svc := NewService(catalog)
	orderID := uuid.New()
	ctx := context.Background()

	require.NoError(t, svc.Reserve(ctx, nil, orderID, testItems))
	require.NoError(t, svc.Release(ctx, nil, orderID, testItems))
	assert.Equal(t, 10, catalog.skus["4MEN-TEE-BLACK-L"].Quantity)
	assert.Equal(t, 3, catalog.skus["4MEN-CAP-NAVY"].Quantity)

	// A duplicate release must not restock twice.
	require.NoError(t, svc.Release(ctx, nil, orderID, testItems))
	assert.Equal(t, 10, catalog.skus["4MEN-TEE-BLACK-L"].Quantity)
	assert.Equal(t, 3, catalog.skus["4MEN-CAP-NAVY"].Quantity)
}

func TestReleaseWithoutReservationIsNoop(t *testing.T) {
	catalog := newFakeCatalog()
	svc := NewService(catalog)

	require.NoError(t, svc.Release(context.Background(), nil, uuid.New(), testItems))
	assert.Equal(t, 10, catalog.skus["4MEN-TEE-BLACK-L"].Quantity)
}
