package repo

import (
	"context"
	"database/sql"
	"time"

	"fourmen-shop/internal/domain"

	"github.com/google/uuid"
)

type CatalogRepo interface {
	CreateProduct(ctx context.Context, tx *sql.Tx, product *domain.Product) error
	CreateSku(ctx context.Context, tx *sql.Tx, sku *domain.Sku) error
	FindSku(ctx context.Context, sku string) (*domain.Sku, error)
	// AdjustStock changes a SKU's quantity and its product's aggregate
	// in_stock by delta. A negative delta that would drive the quantity
	// below zero returns domain.ErrInsufficientStock.
	AdjustStock(ctx context.Context, tx *sql.Tx, sku string, delta int) error
	// BeginReservation records that stock was reserved for the order.
	// Returns false if a reservation already exists, which is the
	// idempotency guard for retried order-creation events.
	BeginReservation(ctx context.Context, tx *sql.Tx, orderID uuid.UUID) (bool, error)
	// ReleaseReservation marks the order's reservation released.
	// Returns false if there is nothing to release, so a release is
	// applied at most once.
	ReleaseReservation(ctx context.Context, tx *sql.Tx, orderID uuid.UUID) (bool, error)
}

type catalogRepo struct {
	db *sql.DB
}

func NewCatalogRepo(db *sql.DB) CatalogRepo {
	return &catalogRepo{db: db}
}

func (r *catalogRepo) CreateProduct(ctx context.Context, tx *sql.Tx, product *domain.Product) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO products (spu, name, brand, in_stock) VALUES ($1, $2, $3, $4)`,
		product.SPU, product.Name, product.Brand, product.InStock,
	)
	return err
}

func (r *catalogRepo) CreateSku(ctx context.Context, tx *sql.Tx, sku *domain.Sku) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO skus (sku, spu, price, quantity) VALUES ($1, $2, $3, $4)`,
		sku.SKU, sku.SPU, sku.Price, sku.Quantity,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE products SET in_stock = in_stock + $1 WHERE spu = $2`,
		sku.Quantity, sku.SPU,
	)
	return err
}

func (r *catalogRepo) FindSku(ctx context.Context, sku string) (*domain.Sku, error) {
	var s domain.Sku
	err := r.db.QueryRowContext(ctx,
		`SELECT sku, spu, price, quantity FROM skus WHERE sku = $1`, sku,
	).Scan(&s.SKU, &s.SPU, &s.Price, &s.Quantity)
	if err == sql.ErrNoRows {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *catalogRepo) AdjustStock(ctx context.Context, tx *sql.Tx, sku string, delta int) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE skus SET quantity = quantity + $1 WHERE sku = $2 AND quantity + $1 >= 0`,
		delta, sku,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		existing, err := r.FindSku(ctx, sku)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrSkuNotFound
		}
		return domain.ErrInsufficientStock
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE products SET in_stock = in_stock + $1
		 WHERE spu = (SELECT spu FROM skus WHERE sku = $2)`,
		delta, sku,
	)
	return err
}

func (r *catalogRepo) BeginReservation(ctx context.Context, tx *sql.Tx, orderID uuid.UUID) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO stock_reservations (order_id, released, created_at)
		 VALUES ($1, FALSE, $2)
		 ON CONFLICT (order_id) DO NOTHING`,
		orderID, time.Now(),
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *catalogRepo) ReleaseReservation(ctx context.Context, tx *sql.Tx, orderID uuid.UUID) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE stock_reservations
		 SET released = TRUE, released_at = now()
		 WHERE order_id = $1 AND released = FALSE`,
		orderID,
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
