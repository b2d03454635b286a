package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vanlogix/tribill/internal/billing"
	"github.com/vanlogix/tribill/internal/domain"
)

// In-memory repository fakes. Each one guards its map with a mutex so the
// resync ordering tests can hammer the service from several goroutines.

type memBatchRepo struct {
	mu      sync.Mutex
	batches map[string]domain.FinanceBatch
}

func newMemBatchRepo(batches ...domain.FinanceBatch) *memBatchRepo {
	r := &memBatchRepo{batches: make(map[string]domain.FinanceBatch)}
	for _, b := range batches {
		r.batches[b.ID] = b
	}
	return r
}

func (r *memBatchRepo) GetByID(ctx context.Context, id string) (*domain.FinanceBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[id]
	if !ok {
		return nil, fmt.Errorf("batch %s not found", id)
	}
	return &b, nil
}

func (r *memBatchRepo) UpdateUnitPrices(ctx context.Context, id string, a, b, c decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[id]
	if !ok || batch.DeletedAt != nil {
		return fmt.Errorf("batch %s not found or cancelled", id)
	}
	batch.UnitPriceA, batch.UnitPriceB, batch.UnitPriceC = a, b, c
	r.batches[id] = batch
	return nil
}

func (r *memBatchRepo) UpdateWeightMode(ctx context.Context, id string, billType domain.BillType, mode domain.WeightMode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[id]
	if !ok || batch.DeletedAt != nil {
		return fmt.Errorf("batch %s not found or cancelled", id)
	}
	switch billType {
	case domain.BillSenderToAdmin:
		batch.WeightModeA = mode
	case domain.BillAdminToTransit:
		batch.WeightModeB = mode
	case domain.BillSenderToReceiver:
		batch.WeightModeC = mode
	default:
		return fmt.Errorf("unknown bill type %q", billType)
	}
	r.batches[id] = batch
	return nil
}

func (r *memBatchRepo) SoftDelete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[id]
	if !ok || batch.DeletedAt != nil {
		return fmt.Errorf("batch %s not found or already cancelled", id)
	}
	now := time.Now()
	batch.Status = domain.BatchCancelled
	batch.DeletedAt = &now
	r.batches[id] = batch
	return nil
}

type memBillRepo struct {
	mu       sync.Mutex
	bills    map[string]domain.FinanceBill
	payments map[string][]domain.FinancePayment
}

func newMemBillRepo(bills ...domain.FinanceBill) *memBillRepo {
	r := &memBillRepo{
		bills:    make(map[string]domain.FinanceBill),
		payments: make(map[string][]domain.FinancePayment),
	}
	for _, b := range bills {
		r.bills[b.ID] = b
	}
	return r
}

func (r *memBillRepo) GetByID(ctx context.Context, id string) (*domain.FinanceBill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bills[id]
	if !ok {
		return nil, fmt.Errorf("bill %s not found", id)
	}
	b.Payments = append([]domain.FinancePayment(nil), r.payments[id]...)
	return &b, nil
}

func (r *memBillRepo) GetByBatch(ctx context.Context, batchID string) ([]domain.FinanceBill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.FinanceBill
	for _, t := range domain.BillTypes() {
		for _, b := range r.bills {
			if b.BatchID == batchID && b.Type == t {
				b.Payments = append([]domain.FinancePayment(nil), r.payments[b.ID]...)
				out = append(out, b)
			}
		}
	}
	return out, nil
}

func (r *memBillRepo) Create(ctx context.Context, bill *domain.FinanceBill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bills[bill.ID]; ok {
		return fmt.Errorf("bill %s already exists", bill.ID)
	}
	r.bills[bill.ID] = *bill
	return nil
}

func (r *memBillRepo) UpdatePricing(ctx context.Context, id string, unitPrice decimal.Decimal, totalWeight float64, amount decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bills[id]
	if !ok {
		return fmt.Errorf("bill %s not found", id)
	}
	b.UnitPrice, b.TotalWeight, b.Amount = unitPrice, totalWeight, amount
	r.bills[id] = b
	return nil
}

func (r *memBillRepo) UpdateStatus(ctx context.Context, id string, status domain.BillStatus, paidAmount decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bills[id]
	if !ok {
		return fmt.Errorf("bill %s not found", id)
	}
	b.Status, b.PaidAmount = status, paidAmount
	r.bills[id] = b
	return nil
}

func (r *memBillRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bills[id]; !ok {
		return fmt.Errorf("bill %s not found", id)
	}
	delete(r.bills, id)
	delete(r.payments, id)
	return nil
}

func (r *memBillRepo) AddPayment(ctx context.Context, payment *domain.FinancePayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bills[payment.BillID]; !ok {
		return fmt.Errorf("bill %s not found", payment.BillID)
	}
	r.payments[payment.BillID] = append(r.payments[payment.BillID], *payment)
	return nil
}

func (r *memBillRepo) DeletePayment(ctx context.Context, billID, paymentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.payments[billID]
	for i, p := range list {
		if p.ID == paymentID {
			r.payments[billID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("payment %s not found on bill %s", paymentID, billID)
}

func (r *memBillRepo) GetPayments(ctx context.Context, billID string) ([]domain.FinancePayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.FinancePayment(nil), r.payments[billID]...), nil
}

type memShipmentRepo struct {
	shipments map[string][]domain.Shipment
}

func newMemShipmentRepo() *memShipmentRepo {
	return &memShipmentRepo{shipments: make(map[string][]domain.Shipment)}
}

func (r *memShipmentRepo) GetByBatch(ctx context.Context, batchID string) ([]domain.Shipment, error) {
	return r.shipments[batchID], nil
}

type memInspectionRepo struct {
	inspections map[string][]domain.Inspection
}

func newMemInspectionRepo() *memInspectionRepo {
	return &memInspectionRepo{inspections: make(map[string][]domain.Inspection)}
}

func (r *memInspectionRepo) GetByBatch(ctx context.Context, batchID string) ([]domain.Inspection, error) {
	return r.inspections[batchID], nil
}

type memRateRepo struct {
	mu    sync.Mutex
	rates map[string]domain.ExchangeRate // "BASE/TARGET" -> active rate
}

func newMemRateRepo(rates ...domain.ExchangeRate) *memRateRepo {
	r := &memRateRepo{rates: make(map[string]domain.ExchangeRate)}
	for _, rate := range rates {
		r.rates[string(rate.BaseCurrency)+"/"+string(rate.TargetCurrency)] = rate
	}
	return r
}

func (r *memRateRepo) GetActive(ctx context.Context, base, target domain.Currency) (*domain.ExchangeRate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rate, ok := r.rates[string(base)+"/"+string(target)]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", billing.ErrNoActiveRate, base, target)
	}
	return &rate, nil
}

func (r *memRateRepo) Rotate(ctx context.Context, rate *domain.ExchangeRate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rates[string(rate.BaseCurrency)+"/"+string(rate.TargetCurrency)] = *rate
	return nil
}
