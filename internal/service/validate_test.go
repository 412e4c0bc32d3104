package service

import (
	"testing"

	"fourmen-shop/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCheckout(t *testing.T) {
	valid := CheckoutRequest{
		UserID:        "abc123",
		PaymentMethod: PaymentMethodVNPay,
		Items: []domain.OrderItem{
			{SPU: "4MEN-TEE", SKU: "4MEN-TEE-BLACK-L", Quantity: 2},
		},
	}
	assert.Nil(t, ValidateCheckout(valid))

	tests := []struct {
		name   string
		mutate func(*CheckoutRequest)
		field  string
	}{
		{"missing user", func(r *CheckoutRequest) { r.UserID = "" }, "userId"},
		{"missing method", func(r *CheckoutRequest) { r.PaymentMethod = "" }, "paymentMethod"},
		{"no items", func(r *CheckoutRequest) { r.Items = nil }, "items"},
		{"missing spu", func(r *CheckoutRequest) { r.Items[0].SPU = "" }, "items[0].spu"},
		{"missing sku", func(r *CheckoutRequest) { r.Items[0].SKU = "" }, "items[0].sku"},
		{"zero quantity", func(r *CheckoutRequest) { r.Items[0].Quantity = 0 }, "items[0].quantity"},
		{"negative quantity", func(r *CheckoutRequest) { r.Items[0].Quantity = -1 }, "items[0].quantity"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			req.Items = append([]domain.OrderItem(nil), valid.Items...)
			tc.mutate(&req)

			verr := ValidateCheckout(req)
			require.NotNil(t, verr)

			var fields []string
			for _, f := range verr.Fields {
				fields = append(fields, f.Field)
			}
			assert.Contains(t, fields, tc.field)
			assert.Contains(t, verr.Error(), tc.field)
		})
	}
}

func TestValidateCheckoutCollectsAllFields(t *testing.T) {
	verr := ValidateCheckout(CheckoutRequest{})
	require.NotNil(t, verr)
	assert.Len(t, verr.Fields, 3) // userId, paymentMethod, items
}
