package domain

import "errors"

var (
	// ErrOrderNotFound is returned when no pending order matches a
	// callback's join key. Surfaced to operators, never retried.
	ErrOrderNotFound = errors.New("order not found")

	// ErrSkuNotFound is returned by the inventory collaborator for an
	// unknown SKU reference.
	ErrSkuNotFound = errors.New("sku not found")

	// ErrInsufficientStock is returned when a reservation would drive
	// a SKU quantity negative.
	ErrInsufficientStock = errors.New("insufficient stock")
)
