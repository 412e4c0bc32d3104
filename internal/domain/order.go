package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderPending OrderStatus = "PENDING"
	OrderPaid    OrderStatus = "PAID"
	OrderFailed  OrderStatus = "FAILED"
)

// Terminal reports whether the status must never be overwritten.
func (s OrderStatus) Terminal() bool {
	return s == OrderPaid || s == OrderFailed
}

type OrderItem struct {
	SPU      string
	SKU      string
	Quantity int
}

// Order is the payment record for a checkout attempt. TotalPrice is in
// whole dong (VND has no subunit). TxnRef is the vnp_TxnRef assigned
// when the redirect URL is built and is the join key for callbacks.
type Order struct {
	ID            uuid.UUID
	UserID        string
	Items         []OrderItem
	TotalPrice    int64
	PaymentMethod string
	TxnRef        string
	Status        OrderStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
