package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanlogix/tribill/internal/billing"
	"github.com/vanlogix/tribill/internal/cache"
	"github.com/vanlogix/tribill/internal/domain"
)

type fixture struct {
	batches *memBatchRepo
	bills   *memBillRepo
	svc     *FinanceService
}

func newFixture(batch domain.FinanceBatch, bills ...domain.FinanceBill) *fixture {
	batchRepo := newMemBatchRepo(batch)
	billRepo := newMemBillRepo(bills...)
	svc := NewFinanceService(
		batchRepo,
		billRepo,
		newMemShipmentRepo(),
		newMemInspectionRepo(),
		newMemRateRepo(domain.ExchangeRate{
			BaseCurrency:   domain.CurrencyCNY,
			TargetCurrency: domain.CurrencyVND,
			Rate:           decimal.NewFromInt(3750),
			IsActive:       true,
		}),
		cache.NewNoopRateCache(),
	)
	return &fixture{batches: batchRepo, bills: billRepo, svc: svc}
}

func fullBatch() domain.FinanceBatch {
	return domain.FinanceBatch{
		ID:           "batch-1",
		BatchCode:    "B-2026-001",
		SenderName:   "Sender Co",
		AdminName:    "Admin Co",
		TransitName:  "Transit Co",
		ReceiverName: "Receiver Co",
		Status:       domain.BatchInTransit,
		SenderWeight: 1000, SenderVolume: 4.2,
		TransitWeight: 980, TransitVolume: 4.1,
		ReceiverWeight: 975, ReceiverVolume: 4.0,
		UnitPriceA: decimal.NewFromInt(50000),
		UnitPriceB: decimal.NewFromInt(40000),
		UnitPriceC: decimal.NewFromInt(15),
	}
}

func billA() domain.FinanceBill {
	return domain.FinanceBill{
		ID: "a-1", BatchID: "batch-1", Type: domain.BillSenderToAdmin,
		Currency: domain.CurrencyVND, Status: domain.BillPending,
		Payer: "Sender Co", Payee: "Admin Co",
		UnitPrice: decimal.NewFromInt(50000), TotalWeight: 1000,
		Amount: decimal.NewFromInt(50_000_000), PaidAmount: decimal.Zero,
	}
}

func billB() domain.FinanceBill {
	return domain.FinanceBill{
		ID: "b-1", BatchID: "batch-1", Type: domain.BillAdminToTransit,
		Currency: domain.CurrencyVND, Status: domain.BillPending,
		Payer: "Admin Co", Payee: "Transit Co",
		UnitPrice: decimal.NewFromInt(40000), TotalWeight: 1000,
		Amount: decimal.NewFromInt(40_000_000), PaidAmount: decimal.Zero,
	}
}

func TestGetBatchFinance_SynthesizesMissingSlots(t *testing.T) {
	f := newFixture(fullBatch(), billA())

	view, err := f.svc.GetBatchFinance(context.Background(), "batch-1")
	require.NoError(t, err)
	require.Len(t, view.Slots, 3)

	assert.False(t, view.Slots[0].Missing)
	assert.True(t, view.Slots[1].Missing)
	assert.Equal(t, "missing-ADMIN_TO_TRANSIT-batch-1", view.Slots[1].Bill.ID)
	assert.True(t, view.Slots[2].Missing)

	// Only the real pending bill contributes to pending totals.
	assert.True(t, view.PendingTotals[domain.CurrencyVND].Equal(decimal.NewFromInt(50_000_000)))
	_, hasCNY := view.PendingTotals[domain.CurrencyCNY]
	assert.False(t, hasCNY)
}

func TestUpdateBillPrice_RecomputesFromSnapshot(t *testing.T) {
	f := newFixture(fullBatch(), billA())

	view, err := f.svc.UpdateBillPrice(context.Background(), "a-1", decimal.NewFromInt(60000))
	require.NoError(t, err)

	got := view.Slots[0].Bill
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(60_000_000)), "amount = %s", got.Amount)
	assert.Equal(t, 1000.0, got.TotalWeight, "snapshot weight must survive repricing")
}

func TestUpdateBillPrice_RejectsPlaceholderAndNegative(t *testing.T) {
	f := newFixture(fullBatch(), billA())

	_, err := f.svc.UpdateBillPrice(context.Background(), "missing-ADMIN_TO_TRANSIT-batch-1", decimal.NewFromInt(10))
	assert.ErrorIs(t, err, billing.ErrMissingBill)

	_, err = f.svc.UpdateBillPrice(context.Background(), "a-1", decimal.NewFromInt(-10))
	assert.ErrorIs(t, err, billing.ErrNegativePrice)
}

func TestUpdateBatchPrices_Cascade(t *testing.T) {
	f := newFixture(fullBatch(), billA(), billB())

	// A moves 50000 -> 55000; B and C prices unchanged.
	view, err := f.svc.UpdateBatchPrices(context.Background(), "batch-1",
		decimal.NewFromInt(55000), decimal.NewFromInt(40000), decimal.NewFromInt(15))
	require.NoError(t, err)

	assert.True(t, view.Batch.UnitPriceA.Equal(decimal.NewFromInt(55000)))
	assert.True(t, view.Slots[0].Bill.Amount.Equal(decimal.NewFromInt(55_000_000)), "billA amount = %s", view.Slots[0].Bill.Amount)
	assert.True(t, view.Slots[1].Bill.Amount.Equal(decimal.NewFromInt(40_000_000)), "billB amount unchanged")
	assert.True(t, view.Slots[2].Missing, "no bill C to cascade into")
}

func TestUpdateWeightMode_ResnapshotsFromStageStats(t *testing.T) {
	f := newFixture(fullBatch(), billA())

	// No shipment rows: stage stats degrade to the stored sender aggregate
	// (1000 actual/chargeable, 0 volumetric).
	view, err := f.svc.UpdateWeightMode(context.Background(), "batch-1", domain.BillSenderToAdmin, domain.ModeVolumetric)
	require.NoError(t, err)

	assert.Equal(t, domain.ModeVolumetric, view.Batch.WeightModeA)
	got := view.Slots[0].Bill
	assert.Equal(t, 0.0, got.TotalWeight, "volumetric fallback weight is zero")
	assert.True(t, got.Amount.IsZero())
}

func TestAddPayment_DerivesStatus(t *testing.T) {
	f := newFixture(fullBatch(), billA())
	ctx := context.Background()

	view, err := f.svc.AddPayment(ctx, "a-1", PaymentInput{
		Amount: decimal.NewFromInt(20_000_000), Method: "bank_transfer", Reference: "T-1",
	})
	require.NoError(t, err)

	got := view.Slots[0].Bill
	assert.Equal(t, domain.BillPartiallyPaid, got.Status)
	assert.True(t, got.PaidAmount.Equal(decimal.NewFromInt(20_000_000)))
	require.Len(t, got.Payments, 1)

	view, err = f.svc.AddPayment(ctx, "a-1", PaymentInput{
		Amount: decimal.NewFromInt(30_000_000), Method: "bank_transfer", Reference: "T-2",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.BillPaid, view.Slots[0].Bill.Status)
}

func TestAddPayment_DualCurrencyConversion(t *testing.T) {
	f := newFixture(fullBatch(), billA())

	view, err := f.svc.AddPayment(context.Background(), "a-1", PaymentInput{
		Amount:   decimal.NewFromInt(100),
		Currency: domain.CurrencyCNY,
		Method:   "wechat",
	})
	require.NoError(t, err)

	payments := view.Slots[0].Bill.Payments
	require.Len(t, payments, 1)
	// 100 CNY at the active 3750 rate lands as 375000 VND.
	assert.True(t, payments[0].Amount.Equal(decimal.NewFromInt(375_000)), "converted = %s", payments[0].Amount)
	assert.Contains(t, payments[0].ReferenceNo, "3750")
}

func TestAddPayment_OnPlaceholderSlot(t *testing.T) {
	f := newFixture(fullBatch(), billA())

	_, err := f.svc.AddPayment(context.Background(), "missing-ADMIN_TO_TRANSIT-batch-1", PaymentInput{
		Amount: decimal.NewFromInt(100),
	})
	assert.ErrorIs(t, err, billing.ErrMissingBill)
}

func TestAddPayment_InvalidAmount(t *testing.T) {
	f := newFixture(fullBatch(), billA())

	_, err := f.svc.AddPayment(context.Background(), "a-1", PaymentInput{Amount: decimal.Zero})
	assert.ErrorIs(t, err, billing.ErrInvalidPaymentAmount)
}

func TestDeletePayment_RederivesStatus(t *testing.T) {
	f := newFixture(fullBatch(), billA())
	ctx := context.Background()

	view, err := f.svc.AddPayment(ctx, "a-1", PaymentInput{Amount: decimal.NewFromInt(50_000_000)})
	require.NoError(t, err)
	assert.Equal(t, domain.BillPaid, view.Slots[0].Bill.Status)
	paymentID := view.Slots[0].Bill.Payments[0].ID

	view, err = f.svc.DeletePayment(ctx, "a-1", paymentID)
	require.NoError(t, err)
	assert.Equal(t, domain.BillPending, view.Slots[0].Bill.Status)
	assert.True(t, view.Slots[0].Bill.PaidAmount.IsZero())
	assert.Empty(t, view.Slots[0].Bill.Payments)
}

func TestForceGenerateBill(t *testing.T) {
	f := newFixture(fullBatch(), billA())

	view, err := f.svc.ForceGenerateBill(context.Background(), "batch-1", domain.BillAdminToTransit)
	require.NoError(t, err)

	slot := view.Slots[1]
	require.False(t, slot.Missing)
	assert.Equal(t, "Admin Co", slot.Bill.Payer)
	assert.Equal(t, "Transit Co", slot.Bill.Payee)
	assert.Equal(t, domain.CurrencyVND, slot.Bill.Currency)
	// Chargeable-mode default over the transit fallback aggregate (980) at
	// unit price 40000.
	assert.Equal(t, 980.0, slot.Bill.TotalWeight)
	assert.True(t, slot.Bill.Amount.Equal(decimal.NewFromInt(39_200_000)), "amount = %s", slot.Bill.Amount)
}

func TestForceGenerateBill_PartyResolutionFailure(t *testing.T) {
	batch := fullBatch()
	batch.TransitName = ""
	f := newFixture(batch, billA())

	_, err := f.svc.ForceGenerateBill(context.Background(), "batch-1", domain.BillAdminToTransit)
	assert.ErrorIs(t, err, billing.ErrPartyResolution)
}

func TestForceGenerateBill_AlreadyExists(t *testing.T) {
	f := newFixture(fullBatch(), billA())

	_, err := f.svc.ForceGenerateBill(context.Background(), "batch-1", domain.BillSenderToAdmin)
	assert.Error(t, err)
}

func TestDeleteBill_SlotRevertsToMissing(t *testing.T) {
	f := newFixture(fullBatch(), billA())

	view, err := f.svc.DeleteBill(context.Background(), "a-1")
	require.NoError(t, err)

	assert.True(t, view.Slots[0].Missing)
	assert.Equal(t, "missing-SENDER_TO_ADMIN-batch-1", view.Slots[0].Bill.ID)
}

func TestCancelBatch_BillsSurvive(t *testing.T) {
	f := newFixture(fullBatch(), billA(), billB())

	view, err := f.svc.CancelBatch(context.Background(), "batch-1")
	require.NoError(t, err)

	assert.Equal(t, domain.BatchCancelled, view.Batch.Status)
	assert.NotNil(t, view.Batch.DeletedAt)
	assert.False(t, view.Slots[0].Missing, "bills must survive batch cancellation")
	assert.False(t, view.Slots[1].Missing)
}

func TestRotateRate_NewRateUsedForConversion(t *testing.T) {
	f := newFixture(fullBatch(), billA())
	ctx := context.Background()

	_, err := f.svc.RotateRate(ctx, domain.CurrencyCNY, domain.CurrencyVND, decimal.NewFromInt(3800))
	require.NoError(t, err)

	view, err := f.svc.AddPayment(ctx, "a-1", PaymentInput{
		Amount:   decimal.NewFromInt(100),
		Currency: domain.CurrencyCNY,
	})
	require.NoError(t, err)
	assert.True(t, view.Slots[0].Bill.Payments[0].Amount.Equal(decimal.NewFromInt(380_000)))
}

func TestResync_StaleRevisionDoesNotClobber(t *testing.T) {
	f := newFixture(fullBatch(), billA())
	ctx := context.Background()

	oldRev := f.svc.beginRevision()
	newRev := f.svc.beginRevision()

	// The newer mutation publishes first.
	viewNew, err := f.svc.resync(ctx, "batch-1", newRev)
	require.NoError(t, err)

	// A slow resync from the older call must not overwrite the snapshot; the
	// caller gets the already-published newer view back.
	viewOld, err := f.svc.resync(ctx, "batch-1", oldRev)
	require.NoError(t, err)
	assert.Equal(t, viewNew.Revision, viewOld.Revision)

	cached, ok := f.svc.Snapshot("batch-1")
	require.True(t, ok)
	assert.Equal(t, newRev, cached.Revision)
}
