package service

import (
	"fmt"
	"strings"
)

// FieldError names the request field that failed validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every failed field for one request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ValidateCheckout checks a checkout request at the boundary, before
// any order is constructed. Returns nil when the request is valid.
func ValidateCheckout(req CheckoutRequest) *ValidationError {
	var fields []FieldError

	if req.UserID == "" {
		fields = append(fields, FieldError{"userId", "required"})
	}
	if req.PaymentMethod == "" {
		fields = append(fields, FieldError{"paymentMethod", "required"})
	}
	if len(req.Items) == 0 {
		fields = append(fields, FieldError{"items", "at least one line item required"})
	}
	for i, item := range req.Items {
		if item.SPU == "" {
			fields = append(fields, FieldError{fmt.Sprintf("items[%d].spu", i), "required"})
		}
		if item.SKU == "" {
			fields = append(fields, FieldError{fmt.Sprintf("items[%d].sku", i), "required"})
		}
		if item.Quantity <= 0 {
			fields = append(fields, FieldError{fmt.Sprintf("items[%d].quantity", i), "must be positive"})
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
