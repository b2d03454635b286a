// Package billing implements the money side of a batch: pricing, the payment
// ledger, and the three-slot bill shape every batch presents.
package billing

import "errors"

var (
	// ErrPartyResolution means a bill's payer or payee could not be matched to
	// a batch party by name. Surfaced to the caller, never retried here.
	ErrPartyResolution = errors.New("billing: cannot resolve payer/payee party")

	// ErrInvalidPaymentAmount means a payment amount was non-positive or not a
	// number. Callers must reject before reaching the ledger.
	ErrInvalidPaymentAmount = errors.New("billing: payment amount must be positive")

	// ErrMissingBill means an operation that needs a real bill was attempted
	// against a synthetic placeholder slot; force-generate the bill first.
	ErrMissingBill = errors.New("billing: bill has not been generated for this slot")

	// ErrNegativePrice means a unit price below zero reached the pricing
	// engine; negative inputs must be rejected upstream.
	ErrNegativePrice = errors.New("billing: unit price must not be negative")

	// ErrNoActiveRate means no active exchange rate exists for the requested
	// ordered currency pair.
	ErrNoActiveRate = errors.New("billing: no active exchange rate for currency pair")
)
