package worker

import (
	"context"
	"database/sql"
	"log"
	"time"

	"fourmen-shop/internal/domain"
	"fourmen-shop/internal/inventory"
	"fourmen-shop/internal/repo"
)

const sweepBatchSize = 100

// Sweeper fails pending orders whose callback never arrived and puts
// their reserved stock back. It is the manual-reconciliation backstop:
// it only touches orders the conditional transition still sees as
// PENDING, so it can never overwrite a terminal state.
type Sweeper struct {
	db        *sql.DB
	orderRepo repo.OrderRepo
	inventory inventory.Service
	interval  time.Duration
	cutoff    time.Duration
}

func NewSweeper(
	db *sql.DB,
	orderRepo repo.OrderRepo,
	inventory inventory.Service,
	interval time.Duration,
	cutoff time.Duration,
) *Sweeper {
	return &Sweeper{
		db:        db,
		orderRepo: orderRepo,
		inventory: inventory,
		interval:  interval,
		cutoff:    cutoff,
	}
}

func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.Println("stuck-order sweeper started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.process(ctx); err != nil {
				log.Printf("sweep failed: %v", err)
			}
		}
	}
}

func (w *Sweeper) process(ctx context.Context) error {
	stuck, err := w.orderRepo.FindStuckOrders(ctx, w.cutoff, sweepBatchSize)
	if err != nil {
		return err
	}
	if len(stuck) == 0 {
		return nil
	}

	log.Printf("found %d stuck orders", len(stuck))

	for i := range stuck {
		if err := w.expire(ctx, &stuck[i]); err != nil {
			log.Printf("failed to expire order %s: %v", stuck[i].ID, err)
			continue // leave it for the next sweep
		}
	}
	return nil
}

func (w *Sweeper) expire(ctx context.Context, order *domain.Order) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	applied, err := w.orderRepo.Transition(ctx, tx, order.ID, domain.OrderFailed)
	if err != nil {
		return err
	}
	if !applied {
		return nil // a callback beat us to it
	}

	if err := w.inventory.Release(ctx, tx, order.ID, order.Items); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	log.Printf("expired abandoned order %s -> FAILED", order.ID)
	return nil
}
