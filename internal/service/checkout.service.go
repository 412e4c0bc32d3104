package service

import (
	"context"
	"database/sql"
	"time"

	"fourmen-shop/internal/domain"
	"fourmen-shop/internal/inventory"
	"fourmen-shop/internal/repo"
	"fourmen-shop/internal/vnpay"

	"github.com/google/uuid"
)

const PaymentMethodVNPay = "vnpay"

type CheckoutRequest struct {
	UserID        string
	Items         []domain.OrderItem
	PaymentMethod string
	BankCode      string
	ClientIP      string
}

type CheckoutResult struct {
	Order      *domain.Order
	PaymentURL string
}

type CheckoutService interface {
	// Checkout creates a pending order, reserves stock for it, and for
	// VNPay orders returns the signed redirect URL. The order is
	// committed before the URL is handed out, so the callback always
	// has a row to reconcile against.
	Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error)
	OrdersByUser(ctx context.Context, userID string) ([]domain.Order, error)
	Revenue(ctx context.Context, year int, month time.Month) (int64, error)
}

type checkoutService struct {
	db        *sql.DB
	orderRepo repo.OrderRepo
	inventory inventory.Service
	signer    *vnpay.Signer
}

func NewCheckoutService(
	db *sql.DB,
	orderRepo repo.OrderRepo,
	inventory inventory.Service,
	signer *vnpay.Signer,
) CheckoutService {
	return &checkoutService{
		db:        db,
		orderRepo: orderRepo,
		inventory: inventory,
		signer:    signer,
	}
}

func (s *checkoutService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if verr := ValidateCheckout(req); verr != nil {
		return nil, verr
	}

	total, err := s.inventory.PriceOrder(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order := &domain.Order{
		ID:            uuid.New(),
		UserID:        req.UserID,
		Items:         req.Items,
		TotalPrice:    total,
		PaymentMethod: req.PaymentMethod,
		TxnRef:        uuid.NewString(),
		Status:        domain.OrderPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return nil, err
	}
	if err := s.inventory.Reserve(ctx, tx, order.ID, order.Items); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	result := &CheckoutResult{Order: order}
	if req.PaymentMethod == PaymentMethodVNPay {
		url, err := s.signer.Build(vnpay.PaymentRequest{
			TxnRef:    order.TxnRef,
			UserID:    order.UserID,
			Amount:    order.TotalPrice,
			IPAddr:    req.ClientIP,
			BankCode:  req.BankCode,
			CreatedAt: now,
		})
		if err != nil {
			return nil, err
		}
		result.PaymentURL = url
	}
	return result, nil
}

func (s *checkoutService) OrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}

func (s *checkoutService) Revenue(ctx context.Context, year int, month time.Month) (int64, error) {
	return s.orderRepo.RevenueByMonth(ctx, year, month)
}
