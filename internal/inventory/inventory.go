// Package inventory is the stock collaborator: it prices line items
// and holds the reserve/release lifecycle for an order's stock.
package inventory

import (
	"context"
	"database/sql"
	"fmt"

	"fourmen-shop/internal/domain"
	"fourmen-shop/internal/repo"

	"github.com/google/uuid"
)

type Service interface {
	// PriceOrder sums price*quantity over the line items.
	PriceOrder(ctx context.Context, items []domain.OrderItem) (int64, error)

	// Reserve decrements stock for every line item inside tx. Calling
	// it again for the same order is a no-op: the reservation row is
	// the idempotency guard.
	Reserve(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, items []domain.OrderItem) error

	// Release restocks the order's line items inside tx. At most one
	// release ever applies, and only after a reservation.
	Release(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, items []domain.OrderItem) error
}

type service struct {
	catalog repo.CatalogRepo
}

func NewService(catalog repo.CatalogRepo) Service {
	return &service{catalog: catalog}
}

func (s *service) PriceOrder(ctx context.Context, items []domain.OrderItem) (int64, error) {
	var total int64
	for _, item := range items {
		sku, err := s.catalog.FindSku(ctx, item.SKU)
		if err != nil {
			return 0, err
		}
		if sku == nil {
			return 0, fmt.Errorf("%w: %s", domain.ErrSkuNotFound, item.SKU)
		}
		total += sku.Price * int64(item.Quantity)
	}
	return total, nil
}

func (s *service) Reserve(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, items []domain.OrderItem) error {
	reserved, err := s.catalog.BeginReservation(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if !reserved {
		return nil // already reserved for this order
	}

	for _, item := range items {
		if err := s.catalog.AdjustStock(ctx, tx, item.SKU, -item.Quantity); err != nil {
			return fmt.Errorf("reserve %s: %w", item.SKU, err)
		}
	}
	return nil
}

func (s *service) Release(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, items []domain.OrderItem) error {
	released, err := s.catalog.ReleaseReservation(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if !released {
		return nil // never reserved, or already released
	}

	for _, item := range items {
		if err := s.catalog.AdjustStock(ctx, tx, item.SKU, item.Quantity); err != nil {
			return fmt.Errorf("restock %s: %w", item.SKU, err)
		}
	}
	return nil
}
