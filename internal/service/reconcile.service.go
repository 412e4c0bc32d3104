package service

import (
	"context"
	"database/sql"
	"log"
	"strings"

	"fourmen-shop/internal/domain"
	"fourmen-shop/internal/inventory"
	"fourmen-shop/internal/repo"
	"fourmen-shop/internal/vnpay"

	"github.com/google/uuid"
)

type ReconcileResult string

const (
	// ReconcileRejected: the callback did not pass signature
	// verification, nothing was touched.
	ReconcileRejected ReconcileResult = "REJECTED"
	// ReconcileApplied: the order moved from PENDING to a terminal
	// state.
	ReconcileApplied ReconcileResult = "APPLIED"
	// ReconcileAlreadyApplied: the order was already in the callback's
	// target state; the duplicate is a no-op.
	ReconcileAlreadyApplied ReconcileResult = "ALREADY_APPLIED"
	// ReconcileConflict: the callback disagrees with an existing
	// terminal state, which is preserved.
	ReconcileConflict ReconcileResult = "CONFLICT"
)

type ReconcileOutcome struct {
	Result  ReconcileResult
	OrderID uuid.UUID
	Status  domain.OrderStatus
}

// Paid reports whether the order ended up PAID, whichever callback got
// there first.
func (o *ReconcileOutcome) Paid() bool {
	return o.Status == domain.OrderPaid &&
		(o.Result == ReconcileApplied || o.Result == ReconcileAlreadyApplied)
}

type Reconciler interface {
	// Reconcile maps a verified callback to its order and applies the
	// terminal transition. It refuses to act unless verification
	// passed. Returns domain.ErrOrderNotFound when no order matches
	// the callback's join key.
	Reconcile(ctx context.Context, payload map[string]string, verification vnpay.VerificationResult) (*ReconcileOutcome, error)
}

type reconciler struct {
	db        *sql.DB
	orderRepo repo.OrderRepo
	inventory inventory.Service
}

func NewReconciler(db *sql.DB, orderRepo repo.OrderRepo, inventory inventory.Service) Reconciler {
	return &reconciler{db: db, orderRepo: orderRepo, inventory: inventory}
}

func (s *reconciler) Reconcile(ctx context.Context, payload map[string]string, verification vnpay.VerificationResult) (*ReconcileOutcome, error) {
	if verification != vnpay.SignatureValid {
		log.Printf("reconcile: rejected callback with %s signature, txn_ref=%q",
			verification, payload[vnpay.ParamTxnRef])
		return &ReconcileOutcome{Result: ReconcileRejected}, nil
	}

	order, err := s.lookup(ctx, payload)
	if err != nil {
		return nil, err
	}

	target := domain.OrderFailed
	if payload[vnpay.ParamResponseCode] == vnpay.ResponseCodeSuccess {
		target = domain.OrderPaid
	}

	if order.Status.Terminal() {
		return s.terminalOutcome(order, target), nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	applied, err := s.orderRepo.Transition(ctx, tx, order.ID, target)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Lost the race against a concurrent callback. Re-read and
		// classify against whatever won.
		fresh, err := s.orderRepo.FindById(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		if fresh == nil {
			return nil, domain.ErrOrderNotFound
		}
		return s.terminalOutcome(fresh, target), nil
	}

	if target == domain.OrderFailed {
		if err := s.inventory.Release(ctx, tx, order.ID, order.Items); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Printf("reconcile: order %s -> %s (txn_ref=%s)", order.ID, target, order.TxnRef)
	return &ReconcileOutcome{Result: ReconcileApplied, OrderID: order.ID, Status: target}, nil
}

// lookup joins the callback to its order by vnp_TxnRef. The legacy
// order-info prefix convention is kept as a fallback join and as a
// cross-check on the buyer.
func (s *reconciler) lookup(ctx context.Context, payload map[string]string) (*domain.Order, error) {
	txnRef := vnpay.DecodeValue(payload[vnpay.ParamTxnRef])
	buyer, hasBuyer := RecoverBuyerID(vnpay.DecodeValue(payload[vnpay.ParamOrderInfo]))

	var order *domain.Order
	var err error
	if txnRef != "" {
		order, err = s.orderRepo.FindByTxnRef(ctx, txnRef)
		if err != nil {
			return nil, err
		}
	}
	if order == nil && hasBuyer {
		order, err = s.orderRepo.FindPendingByUser(ctx, buyer)
		if err != nil {
			return nil, err
		}
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}

	if hasBuyer && order.UserID != buyer {
		log.Printf("reconcile: buyer mismatch on order %s: order info says %q, order has %q",
			order.ID, buyer, order.UserID)
	}
	return order, nil
}

func (s *reconciler) terminalOutcome(order *domain.Order, target domain.OrderStatus) *ReconcileOutcome {
	outcome := &ReconcileOutcome{OrderID: order.ID, Status: order.Status}
	if order.Status == target {
		outcome.Result = ReconcileAlreadyApplied
		return outcome
	}
	outcome.Result = ReconcileConflict
	log.Printf("reconcile: conflicting callback for order %s: is %s, callback wants %s",
		order.ID, order.Status, target)
	return outcome
}

// RecoverBuyerID strips the fixed order-info prefix to recover the
// buyer identifier. Reports false when the prefix is absent.
func RecoverBuyerID(orderInfo string) (string, bool) {
	if !strings.HasPrefix(orderInfo, vnpay.OrderInfoPrefix) {
		return "", false
	}
	return strings.TrimPrefix(orderInfo, vnpay.OrderInfoPrefix), true
}
