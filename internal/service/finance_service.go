// internal/service/finance_service.go
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vanlogix/tribill/internal/billing"
	"github.com/vanlogix/tribill/internal/cache"
	"github.com/vanlogix/tribill/internal/domain"
	"github.com/vanlogix/tribill/internal/freight"
	"github.com/vanlogix/tribill/internal/repository"
)

// BatchFinance is the authoritative view of a batch's money state: the batch,
// its three bill slots, per-stage weight stats, and the pending totals per
// currency. Revision orders views of the same batch; a higher revision always
// supersedes a lower one.
type BatchFinance struct {
	Batch         domain.FinanceBatch                 `json:"batch"`
	Slots         []billing.BillSlot                  `json:"slots"`
	Stages        map[domain.Stage]domain.WeightStats `json:"stages"`
	PendingTotals map[domain.Currency]decimal.Decimal `json:"pending_totals"`
	Revision      uint64                              `json:"revision"`
}

// FinanceService drives every bill/payment mutation. The contract is uniform:
// write through the store, then re-read full batch state and answer with the
// re-read. An optimistic value shown by a caller is reconciled against that
// re-read, never the other way around.
type FinanceService struct {
	batches     repository.BatchRepository
	bills       repository.BillRepository
	shipments   repository.ShipmentRepository
	inspections repository.InspectionRepository
	rates       repository.RateRepository
	rateCache   cache.ActiveRateCache

	mu       sync.Mutex
	nextRev  uint64
	applied  map[string]uint64 // batch id -> last applied revision
	snapshot map[string]*BatchFinance
}

func NewFinanceService(
	batches repository.BatchRepository,
	bills repository.BillRepository,
	shipments repository.ShipmentRepository,
	inspections repository.InspectionRepository,
	rates repository.RateRepository,
	rateCache cache.ActiveRateCache,
) *FinanceService {
	return &FinanceService{
		batches:     batches,
		bills:       bills,
		shipments:   shipments,
		inspections: inspections,
		rates:       rates,
		rateCache:   rateCache,
		applied:     make(map[string]uint64),
		snapshot:    make(map[string]*BatchFinance),
	}
}

// GetBatchFinance reads authoritative batch state.
func (s *FinanceService) GetBatchFinance(ctx context.Context, batchID string) (*BatchFinance, error) {
	return s.resync(ctx, batchID, s.beginRevision())
}

// UpdateBillPrice changes one bill's unit price and recomputes its amount from
// the snapshot weight. Weight never changes here.
func (s *FinanceService) UpdateBillPrice(ctx context.Context, billID string, unitPrice decimal.Decimal) (*BatchFinance, error) {
	if billing.IsMissingID(billID) {
		return nil, billing.ErrMissingBill
	}
	if unitPrice.IsNegative() {
		return nil, billing.ErrNegativePrice
	}
	rev := s.beginRevision()

	bill, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if err := billing.Reprice(bill, unitPrice); err != nil {
		return nil, err
	}
	if err := s.bills.UpdatePricing(ctx, bill.ID, bill.UnitPrice, bill.TotalWeight, bill.Amount); err != nil {
		return nil, err
	}

	return s.resync(ctx, bill.BatchID, rev)
}

// UpdateBatchPrices cascades a batch's three unit prices onto its bills. Every
// existing bill is recomputed from its own snapshot weight with its new price;
// on partial failure the caller still receives (via the returned error path)
// nothing optimistic, and the next read shows whatever actually landed.
func (s *FinanceService) UpdateBatchPrices(ctx context.Context, batchID string, a, b, c decimal.Decimal) (*BatchFinance, error) {
	for _, p := range []decimal.Decimal{a, b, c} {
		if p.IsNegative() {
			return nil, billing.ErrNegativePrice
		}
	}
	rev := s.beginRevision()

	if err := s.batches.UpdateUnitPrices(ctx, batchID, a, b, c); err != nil {
		return nil, err
	}

	prices := map[domain.BillType]decimal.Decimal{
		domain.BillSenderToAdmin:    a,
		domain.BillAdminToTransit:   b,
		domain.BillSenderToReceiver: c,
	}

	bills, err := s.bills.GetByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	for i := range bills {
		bill := bills[i]
		price := prices[bill.Type]
		if bill.UnitPrice.Equal(price) {
			continue
		}
		if err := billing.Reprice(&bill, price); err != nil {
			return nil, err
		}
		if err := s.bills.UpdatePricing(ctx, bill.ID, bill.UnitPrice, bill.TotalWeight, bill.Amount); err != nil {
			return nil, fmt.Errorf("price cascade stopped at bill %s: %w", bill.Type, err)
		}
	}

	return s.resync(ctx, batchID, rev)
}

// UpdateWeightMode switches which weight figure feeds one bill slot and
// re-snapshots that bill's weight from current stage stats, then recomputes
// the amount at the unchanged price.
func (s *FinanceService) UpdateWeightMode(ctx context.Context, batchID string, billType domain.BillType, mode domain.WeightMode) (*BatchFinance, error) {
	rev := s.beginRevision()

	if err := s.batches.UpdateWeightMode(ctx, batchID, billType, mode); err != nil {
		return nil, err
	}

	bills, err := s.bills.GetByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	for i := range bills {
		if bills[i].Type != billType {
			continue
		}
		stats, err := s.stageStats(ctx, batchID, billing.StageForBill(billType))
		if err != nil {
			return nil, err
		}
		bill := bills[i]
		if err := billing.Reweigh(&bill, stats, mode); err != nil {
			return nil, err
		}
		if err := s.bills.UpdatePricing(ctx, bill.ID, bill.UnitPrice, bill.TotalWeight, bill.Amount); err != nil {
			return nil, err
		}
	}

	return s.resync(ctx, batchID, rev)
}

// PaymentInput is one payment as entered by an operator. Currency may differ
// from the bill's; a foreign-currency payment is converted at the active rate
// and recorded in the bill's currency.
type PaymentInput struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  domain.Currency `json:"currency"`
	Method    string          `json:"method"`
	Reference string          `json:"reference"`
}

// AddPayment appends a payment to a bill and re-derives its status.
func (s *FinanceService) AddPayment(ctx context.Context, billID string, input PaymentInput) (*BatchFinance, error) {
	if billing.IsMissingID(billID) {
		return nil, billing.ErrMissingBill
	}
	rev := s.beginRevision()

	bill, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}

	var payment domain.FinancePayment
	if input.Currency != "" && input.Currency != bill.Currency {
		rate, err := s.activeRate(ctx, input.Currency, bill.Currency)
		if err != nil {
			return nil, err
		}
		payment, err = billing.ConvertPayment(*bill, input.Amount, *rate, input.Method, input.Reference)
		if err != nil {
			return nil, err
		}
	} else {
		payment, err = billing.NewPayment(*bill, input.Amount, input.Method, input.Reference)
		if err != nil {
			return nil, err
		}
	}

	if err := s.bills.AddPayment(ctx, &payment); err != nil {
		return nil, err
	}
	if err := s.rederiveStatus(ctx, billID); err != nil {
		return nil, err
	}

	return s.resync(ctx, bill.BatchID, rev)
}

// DeletePayment hard-removes a payment and re-derives the bill status.
func (s *FinanceService) DeletePayment(ctx context.Context, billID, paymentID string) (*BatchFinance, error) {
	if billing.IsMissingID(billID) {
		return nil, billing.ErrMissingBill
	}
	rev := s.beginRevision()

	bill, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if err := s.bills.DeletePayment(ctx, billID, paymentID); err != nil {
		return nil, err
	}
	if err := s.rederiveStatus(ctx, billID); err != nil {
		return nil, err
	}

	return s.resync(ctx, bill.BatchID, rev)
}

// ForceGenerateBill creates the bill for a slot that has none, resolving
// payer and payee from the batch's party assignments.
func (s *FinanceService) ForceGenerateBill(ctx context.Context, batchID string, billType domain.BillType) (*BatchFinance, error) {
	rev := s.beginRevision()

	batch, err := s.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}

	existing, err := s.bills.GetByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	for _, b := range existing {
		if b.Type == billType {
			return nil, fmt.Errorf("bill %s already exists for batch %s", billType, batch.BatchCode)
		}
	}

	payer, payee, err := billing.ResolveParties(*batch, billType)
	if err != nil {
		return nil, err
	}

	stats, err := s.stageStats(ctx, batchID, billing.StageForBill(billType))
	if err != nil {
		return nil, err
	}

	mode := billing.WeightModeFor(*batch, billType)
	weight := freight.WeightForMode(stats, mode)
	price := billing.UnitPriceFor(*batch, billType)
	amount, err := billing.PriceBill(weight, price)
	if err != nil {
		return nil, err
	}

	bill := &domain.FinanceBill{
		ID:          uuid.NewString(),
		BatchID:     batchID,
		Type:        billType,
		Currency:    domain.BillCurrency(billType),
		Status:      domain.BillPending,
		Payer:       payer,
		Payee:       payee,
		UnitPrice:   price,
		TotalWeight: weight,
		Amount:      amount,
		PaidAmount:  decimal.Zero,
	}
	if err := s.bills.Create(ctx, bill); err != nil {
		return nil, err
	}

	return s.resync(ctx, batchID, rev)
}

// DeleteBill removes a bill entirely; the slot reads back as missing. Deleting
// an already-missing slot is a no-op by construction.
func (s *FinanceService) DeleteBill(ctx context.Context, billID string) (*BatchFinance, error) {
	if billing.IsMissingID(billID) {
		return nil, billing.ErrMissingBill
	}
	rev := s.beginRevision()

	bill, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if err := s.bills.Delete(ctx, billID); err != nil {
		return nil, err
	}

	return s.resync(ctx, bill.BatchID, rev)
}

// CancelBatch soft-deletes a batch. Its bills remain queryable.
func (s *FinanceService) CancelBatch(ctx context.Context, batchID string) (*BatchFinance, error) {
	rev := s.beginRevision()

	if err := s.batches.SoftDelete(ctx, batchID); err != nil {
		return nil, err
	}

	return s.resync(ctx, batchID, rev)
}

// RotateRate appends a new active exchange rate for a pair, deactivating the
// prior one, and invalidates the cache so the next conversion sees it.
func (s *FinanceService) RotateRate(ctx context.Context, base, target domain.Currency, rate decimal.Decimal) (*domain.ExchangeRate, error) {
	if !rate.IsPositive() {
		return nil, fmt.Errorf("exchange rate must be positive, got %s", rate)
	}

	row := &domain.ExchangeRate{
		ID:             uuid.NewString(),
		BaseCurrency:   base,
		TargetCurrency: target,
		Rate:           rate,
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.rates.Rotate(ctx, row); err != nil {
		return nil, err
	}
	if err := s.rateCache.Invalidate(ctx, base, target); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate rate cache")
	}

	return row, nil
}

// ActiveRate reads the active rate for a pair, through the cache.
func (s *FinanceService) ActiveRate(ctx context.Context, base, target domain.Currency) (*domain.ExchangeRate, error) {
	return s.activeRate(ctx, base, target)
}

func (s *FinanceService) activeRate(ctx context.Context, base, target domain.Currency) (*domain.ExchangeRate, error) {
	if rate, ok, err := s.rateCache.Get(ctx, base, target); err != nil {
		log.Warn().Err(err).Msg("rate cache read failed")
	} else if ok {
		return rate, nil
	}

	rate, err := s.rates.GetActive(ctx, base, target)
	if err != nil {
		return nil, err
	}
	if err := s.rateCache.Set(ctx, rate); err != nil {
		log.Warn().Err(err).Msg("rate cache write failed")
	}

	return rate, nil
}

// rederiveStatus recomputes a bill's status and paid total from its current
// payment list and persists both.
func (s *FinanceService) rederiveStatus(ctx context.Context, billID string) error {
	bill, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return err
	}

	paid := billing.PaidTotal(*bill)
	return s.bills.UpdateStatus(ctx, billID, billing.DeriveStatus(*bill), paid)
}

// stageStats computes live stats for one stage, degrading to the batch's
// stored aggregates when no shipment rows exist.
func (s *FinanceService) stageStats(ctx context.Context, batchID string, stage domain.Stage) (domain.WeightStats, error) {
	shipments, err := s.shipments.GetByBatch(ctx, batchID)
	if err != nil {
		return domain.WeightStats{}, err
	}
	if len(shipments) == 0 {
		batch, err := s.batches.GetByID(ctx, batchID)
		if err != nil {
			return domain.WeightStats{}, err
		}
		return freight.BatchFallbackStats(*batch, stage), nil
	}

	inspections, err := s.inspections.GetByBatch(ctx, batchID)
	if err != nil {
		return domain.WeightStats{}, err
	}

	return freight.AggregateStage(shipments, inspections, stage).Stats, nil
}

// beginRevision stamps a mutation (or read) with its place in call-initiation
// order. The matching resync only publishes if nothing newer has published
// first, so a slow re-read can never clobber fresher state.
func (s *FinanceService) beginRevision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRev++

	return s.nextRev
}

// resync performs the authoritative re-read after a mutation.
func (s *FinanceService) resync(ctx context.Context, batchID string, rev uint64) (*BatchFinance, error) {
	batch, err := s.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	bills, err := s.bills.GetByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	stages := make(map[domain.Stage]domain.WeightStats, 3)
	for _, stage := range []domain.Stage{domain.StageSender, domain.StageTransit, domain.StageReceiver} {
		stats, err := s.stageStats(ctx, batchID, stage)
		if err != nil {
			return nil, err
		}
		stages[stage] = stats
	}

	slots := billing.ResolveSlots(*batch, bills)
	view := &BatchFinance{
		Batch:         *batch,
		Slots:         slots,
		Stages:        stages,
		PendingTotals: billing.PendingTotals(slots),
		Revision:      rev,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rev < s.applied[batchID] {
		// A newer mutation already published its re-read; this one is stale.
		// The caller still gets a consistent view, it just is not cached.
		if cached, ok := s.snapshot[batchID]; ok {
			return cached, nil
		}
		return view, nil
	}
	s.applied[batchID] = rev
	s.snapshot[batchID] = view

	return view, nil
}

// Snapshot returns the last published view of a batch, if any. Callers use it
// for optimistic display only; every mutation answers with a fresh re-read.
func (s *FinanceService) Snapshot(batchID string) (*BatchFinance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	view, ok := s.snapshot[batchID]

	return view, ok
}
