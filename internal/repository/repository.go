// internal/repository/repository.go
package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vanlogix/tribill/internal/domain"
)

// ShipmentRepository reads shipment rows. Shipments are created upstream and
// are read-only to this service.
type ShipmentRepository interface {
	GetByBatch(ctx context.Context, batchID string) ([]domain.Shipment, error)
}

// InspectionRepository reads stage re-measurements for a batch's shipments.
type InspectionRepository interface {
	GetByBatch(ctx context.Context, batchID string) ([]domain.Inspection, error)
}

// BatchRepository reads and updates finance batches. Deletion is always soft.
type BatchRepository interface {
	GetByID(ctx context.Context, id string) (*domain.FinanceBatch, error)
	UpdateUnitPrices(ctx context.Context, id string, a, b, c decimal.Decimal) error
	UpdateWeightMode(ctx context.Context, id string, billType domain.BillType, mode domain.WeightMode) error
	SoftDelete(ctx context.Context, id string) error
}

// BillRepository persists bills and their payments. UpdatePricing writes
// (unit_price, total_weight, total_amount) atomically so a bill can never be
// observed with a new price and a stale amount.
type BillRepository interface {
	GetByID(ctx context.Context, id string) (*domain.FinanceBill, error)
	GetByBatch(ctx context.Context, batchID string) ([]domain.FinanceBill, error)
	Create(ctx context.Context, bill *domain.FinanceBill) error
	UpdatePricing(ctx context.Context, id string, unitPrice decimal.Decimal, totalWeight float64, amount decimal.Decimal) error
	UpdateStatus(ctx context.Context, id string, status domain.BillStatus, paidAmount decimal.Decimal) error
	Delete(ctx context.Context, id string) error

	AddPayment(ctx context.Context, payment *domain.FinancePayment) error
	DeletePayment(ctx context.Context, billID, paymentID string) error
	GetPayments(ctx context.Context, billID string) ([]domain.FinancePayment, error)
}

// RateRepository reads the active exchange rate for an ordered currency pair
// and rotates it append-only: updating deactivates the prior row rather than
// mutating it.
type RateRepository interface {
	GetActive(ctx context.Context, base, target domain.Currency) (*domain.ExchangeRate, error)
	Rotate(ctx context.Context, rate *domain.ExchangeRate) error
}
