package repo

import (
	"context"
	"database/sql"
	"time"

	"fourmen-shop/internal/domain"

	"github.com/google/uuid"
)

type OrderRepo interface {
	CreateOrder(ctx context.Context, tx *sql.Tx, order *domain.Order) error
	FindById(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindByTxnRef(ctx context.Context, txnRef string) (*domain.Order, error)
	// FindPendingByUser returns the most recently created pending order
	// for the buyer, or nil.
	FindPendingByUser(ctx context.Context, userID string) (*domain.Order, error)
	// Transition applies a terminal status to a pending order. Returns
	// false when the order is no longer pending: the single conditional
	// UPDATE is what makes duplicate callbacks safe.
	Transition(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, target domain.OrderStatus) (bool, error)
	FindStuckOrders(ctx context.Context, olderThan time.Duration, limit int) ([]domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	RevenueByMonth(ctx context.Context, year int, month time.Month) (int64, error)
}

type orderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepo {
	return &orderRepo{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *orderRepo) exec(tx *sql.Tx) execer {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *orderRepo) CreateOrder(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, total_price, payment_method, txn_ref, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		order.ID, order.UserID, order.TotalPrice, order.PaymentMethod,
		order.TxnRef, order.Status, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return err
	}

	for _, item := range order.Items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, spu, sku, quantity) VALUES ($1, $2, $3, $4)`,
			order.ID, item.SPU, item.SKU, item.Quantity,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

const orderColumns = `id, user_id, total_price, payment_method, txn_ref, status, created_at, updated_at`

func (r *orderRepo) FindById(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return r.scanOrder(ctx, row)
}

func (r *orderRepo) FindByTxnRef(ctx context.Context, txnRef string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE txn_ref = $1`, txnRef)
	return r.scanOrder(ctx, row)
}

func (r *orderRepo) FindPendingByUser(ctx context.Context, userID string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE user_id = $1 AND status = $2
		 ORDER BY created_at DESC
		 LIMIT 1`, userID, domain.OrderPending)
	return r.scanOrder(ctx, row)
}

func (r *orderRepo) scanOrder(ctx context.Context, row *sql.Row) (*domain.Order, error) {
	var order domain.Order
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.TotalPrice,
		&order.PaymentMethod,
		&order.TxnRef,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

func (r *orderRepo) loadItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT spu, sku, quantity FROM order_items WHERE order_id = $1 ORDER BY sku`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.SPU, &item.SKU, &item.Quantity); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *orderRepo) Transition(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, target domain.OrderStatus) (bool, error) {
	res, err := r.exec(tx).ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = now()
		 WHERE id = $2 AND status = $3`,
		target, orderID, domain.OrderPending,
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

func (r *orderRepo) FindStuckOrders(ctx context.Context, olderThan time.Duration, limit int) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE status = $1 AND updated_at < $2
		 ORDER BY updated_at
		 LIMIT $3`,
		domain.OrderPending, time.Now().Add(-olderThan), limit,
	)
	if err != nil {
		return nil, err
	}
	return r.collectOrders(ctx, rows)
}

func (r *orderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE user_id = $1
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return r.collectOrders(ctx, rows)
}

func (r *orderRepo) collectOrders(ctx context.Context, rows *sql.Rows) ([]domain.Order, error) {
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.TotalPrice,
			&order.PaymentMethod,
			&order.TxnRef,
			&order.Status,
			&order.CreatedAt,
			&order.UpdatedAt,
		); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := r.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (r *orderRepo) RevenueByMonth(ctx context.Context, year int, month time.Month) (int64, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	var revenue int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_price), 0) FROM orders
		 WHERE status = $1 AND created_at >= $2 AND created_at < $3`,
		domain.OrderPaid, start, end,
	).Scan(&revenue)
	return revenue, err
}
