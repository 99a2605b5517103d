package ledger

import "errors"

var (
	// ErrInvalidQuantity is returned for zero or negative quantities.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrExcessReturnQuantity is returned when a sales return asks for more
	// pieces than remain returnable on the bill line.
	ErrExcessReturnQuantity = errors.New("return quantity exceeds quantity sold")

	// ErrInsufficientStock is returned when a decrement would take a batch below zero.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidGSTRate is returned for negative GST rates.
	ErrInvalidGSTRate = errors.New("gst rate cannot be negative")

	// ErrBatchKeyMismatch is returned when the batch handed to ResolveBatch
	// does not belong to the line's (medicine, batch number) key.
	ErrBatchKeyMismatch = errors.New("batch does not match line key")
)
