package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"fourmen-shop/internal/domain"
	"fourmen-shop/internal/vnpay"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOrderRepo serves terminal-state classification tests; paths that
// open a transaction are covered by the integration tests.
type fakeOrderRepo struct {
	byTxnRef map[string]*domain.Order
	byUser   map[string]*domain.Order
}

func (f *fakeOrderRepo) CreateOrder(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	return nil
}

func (f *fakeOrderRepo) FindById(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	for _, o := range f.byTxnRef {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderRepo) FindByTxnRef(ctx context.Context, txnRef string) (*domain.Order, error) {
	return f.byTxnRef[txnRef], nil
}

func (f *fakeOrderRepo) FindPendingByUser(ctx context.Context, userID string) (*domain.Order, error) {
	return f.byUser[userID], nil
}

func (f *fakeOrderRepo) Transition(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, target domain.OrderStatus) (bool, error) {
	return false, nil
}

func (f *fakeOrderRepo) FindStuckOrders(ctx context.Context, olderThan time.Duration, limit int) ([]domain.Order, error) {
	return nil, nil
}

func (f *fakeOrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return nil, nil
}

func (f *fakeOrderRepo) RevenueByMonth(ctx context.Context, year int, month time.Month) (int64, error) {
	return 0, nil
}

func terminalOrder(status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		ID:     uuid.New(),
		UserID: "abc123",
		TxnRef: "txn-1",
		Status: status,
	}
}

func successPayload(txnRef string) map[string]string {
	return map[string]string{
		vnpay.ParamTxnRef:       txnRef,
		vnpay.ParamOrderInfo:    "4MENabc123",
		vnpay.ParamResponseCode: vnpay.ResponseCodeSuccess,
	}
}

func TestReconcileRejectsUnverifiedCallback(t *testing.T) {
	r := NewReconciler(nil, &fakeOrderRepo{}, nil)

	outcome, err := r.Reconcile(context.Background(), successPayload("txn-1"), vnpay.SignatureInvalid)
	require.NoError(t, err)
	assert.Equal(t, ReconcileRejected, outcome.Result)
	assert.False(t, outcome.Paid())
}

func TestReconcileOrderNotFound(t *testing.T) {
	r := NewReconciler(nil, &fakeOrderRepo{byTxnRef: map[string]*domain.Order{}}, nil)

	_, err := r.Reconcile(context.Background(), successPayload("unknown"), vnpay.SignatureValid)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestReconcileDuplicateSameOutcomeIsNoop(t *testing.T) {
	order := terminalOrder(domain.OrderPaid)
	r := NewReconciler(nil, &fakeOrderRepo{byTxnRef: map[string]*domain.Order{"txn-1": order}}, nil)

	outcome, err := r.Reconcile(context.Background(), successPayload("txn-1"), vnpay.SignatureValid)
	require.NoError(t, err)
	assert.Equal(t, ReconcileAlreadyApplied, outcome.Result)
	assert.Equal(t, domain.OrderPaid, outcome.Status)
	assert.True(t, outcome.Paid())
}

func TestReconcileConflictPreservesTerminalState(t *testing.T) {
	order := terminalOrder(domain.OrderPaid)
	r := NewReconciler(nil, &fakeOrderRepo{byTxnRef: map[string]*domain.Order{"txn-1": order}}, nil)

	payload := successPayload("txn-1")
	payload[vnpay.ParamResponseCode] = "24" // customer cancelled

	outcome, err := r.Reconcile(context.Background(), payload, vnpay.SignatureValid)
	require.NoError(t, err)
	assert.Equal(t, ReconcileConflict, outcome.Result)
	assert.Equal(t, domain.OrderPaid, outcome.Status, "paid order must stay paid")
	assert.Equal(t, domain.OrderPaid, order.Status)
}

func TestReconcileFallsBackToBuyerLookup(t *testing.T) {
	order := terminalOrder(domain.OrderFailed)
	r := NewReconciler(nil, &fakeOrderRepo{
		byTxnRef: map[string]*domain.Order{},
		byUser:   map[string]*domain.Order{"abc123": order},
	}, nil)

	payload := successPayload("")
	delete(payload, vnpay.ParamTxnRef)
	payload[vnpay.ParamResponseCode] = "24"

	outcome, err := r.Reconcile(context.Background(), payload, vnpay.SignatureValid)
	require.NoError(t, err)
	assert.Equal(t, ReconcileAlreadyApplied, outcome.Result)
	assert.Equal(t, order.ID, outcome.OrderID)
}

func TestRecoverBuyerID(t *testing.T) {
	buyer, ok := RecoverBuyerID("4MENabc123")
	require.True(t, ok)
	assert.Equal(t, "abc123", buyer)

	_, ok = RecoverBuyerID("abc123")
	assert.False(t, ok)

	buyer, ok = RecoverBuyerID("4MEN")
	require.True(t, ok)
	assert.Equal(t, "", buyer)
}
