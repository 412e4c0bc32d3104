// Package api contains the HTTP handlers and routing for the shop
// backend.
package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"fourmen-shop/internal/database"
	"fourmen-shop/internal/domain"
	"fourmen-shop/internal/service"
	"fourmen-shop/internal/vnpay"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	checkout   service.CheckoutService
	reconciler service.Reconciler
	signer     *vnpay.Signer
	db         database.Service
	resultURL  string
}

func NewHandler(
	checkout service.CheckoutService,
	reconciler service.Reconciler,
	signer *vnpay.Signer,
	db database.Service,
	resultURL string,
) *Handler {
	return &Handler{
		checkout:   checkout,
		reconciler: reconciler,
		signer:     signer,
		db:         db,
		resultURL:  resultURL,
	}
}

type checkoutItem struct {
	SPU      string `json:"spu"`
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

type checkoutRequest struct {
	UserID        string         `json:"userId"`
	Items         []checkoutItem `json:"items"`
	PaymentMethod string         `json:"paymentMethod"`
	BankCode      string         `json:"bankCode"`
}

type checkoutResponse struct {
	OrderID    string `json:"orderId"`
	TxnRef     string `json:"txnRef"`
	TotalPrice int64  `json:"totalPrice"`
	Status     string `json:"status"`
	PaymentURL string `json:"paymentUrl,omitempty"`
}

type errorResponse struct {
	Error  string               `json:"error"`
	Fields []service.FieldError `json:"fields,omitempty"`
}

// CreateCheckout handles POST /api/v1/checkout.
func (h *Handler) CreateCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	items := make([]domain.OrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = domain.OrderItem{SPU: item.SPU, SKU: item.SKU, Quantity: item.Quantity}
	}

	result, err := h.checkout.Checkout(c.Request.Context(), service.CheckoutRequest{
		UserID:        req.UserID,
		Items:         items,
		PaymentMethod: req.PaymentMethod,
		BankCode:      req.BankCode,
		ClientIP:      c.ClientIP(),
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, checkoutResponse{
		OrderID:    result.Order.ID.String(),
		TxnRef:     result.Order.TxnRef,
		TotalPrice: result.Order.TotalPrice,
		Status:     string(result.Order.Status),
		PaymentURL: result.PaymentURL,
	})
}

// VNPayReturn handles GET /payment/vnpay-return, the gateway callback.
// It always answers with a redirect to the result landing page: the
// gateway retries on non-success responses, and a bad signature is not
// a reason to make it retry. Storage failures are the one exception,
// surfaced as 500 so the gateway retry is the recovery path.
func (h *Handler) VNPayReturn(c *gin.Context) {
	payload := vnpay.PayloadFromQuery(c.Request.URL.RawQuery)
	verification := h.signer.Verify(payload)

	outcome, err := h.reconciler.Reconcile(c.Request.Context(), payload, verification)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			log.Printf("vnpay-return: no order for callback txn_ref=%q", payload[vnpay.ParamTxnRef])
			h.redirectResult(c, false)
			return
		}
		log.Printf("vnpay-return: reconcile error: %v", err)
		c.String(http.StatusInternalServerError, "reconciliation failed")
		return
	}

	h.redirectResult(c, outcome.Paid())
}

func (h *Handler) redirectResult(c *gin.Context, paid bool) {
	status := "failed"
	if paid {
		status = "success"
	}
	c.Redirect(http.StatusFound, h.resultURL+"?status="+status)
}

// ListPayments handles GET /api/v1/payments/:userId.
func (h *Handler) ListPayments(c *gin.Context) {
	orders, err := h.checkout.OrdersByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	resp := make([]checkoutResponse, len(orders))
	for i, order := range orders {
		resp[i] = checkoutResponse{
			OrderID:    order.ID.String(),
			TxnRef:     order.TxnRef,
			TotalPrice: order.TotalPrice,
			Status:     string(order.Status),
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Revenue handles GET /api/v1/revenue/:month for the current year.
func (h *Handler) Revenue(c *gin.Context) {
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "month must be 1-12"})
		return
	}

	revenue, err := h.checkout.Revenue(c.Request.Context(), time.Now().Year(), time.Month(month))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"month": month, "revenue": revenue})
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.db.Health())
}

func handleServiceError(c *gin.Context, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: verr.Fields})
		return
	}

	switch {
	case errors.Is(err, domain.ErrSkuNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInsufficientStock):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		log.Printf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
