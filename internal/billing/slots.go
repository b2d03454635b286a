package billing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vanlogix/tribill/internal/domain"
)

// BillSlot is one of a batch's three bill positions. Missing marks a slot whose
// bill has not been generated yet; its Bill is a synthetic zero-amount
// placeholder carrying the "missing-" sentinel id for callers that key on it.
// Placeholders are never persisted and never payable.
type BillSlot struct {
	Type    domain.BillType    `json:"type"`
	Missing bool               `json:"missing"`
	Bill    domain.FinanceBill `json:"bill"`
}

// MissingBillID is the sentinel id a placeholder slot carries on the wire.
func MissingBillID(t domain.BillType, batchID string) string {
	return fmt.Sprintf("missing-%s-%s", t, batchID)
}

// IsMissingID reports whether an id arriving over the wire names a placeholder
// rather than a persisted bill. Internal code branches on BillSlot.Missing;
// this check exists only for the API boundary, where all it has is the id.
func IsMissingID(id string) bool {
	return strings.HasPrefix(id, "missing-")
}

// StageForBill maps a settlement leg onto the stage whose weight figures feed
// it: the sender leg bills sender-stage weight, the transit leg bills the
// re-measured transit weight, the receiver leg bills the checked weight.
func StageForBill(t domain.BillType) domain.Stage {
	switch t {
	case domain.BillAdminToTransit:
		return domain.StageTransit
	case domain.BillSenderToReceiver:
		return domain.StageReceiver
	default:
		return domain.StageSender
	}
}

// ResolveSlots arranges a batch's persisted bills into the fixed A/B/C shape,
// synthesizing a placeholder for every slot without a record. Callers always
// receive exactly three slots.
func ResolveSlots(batch domain.FinanceBatch, bills []domain.FinanceBill) []BillSlot {
	byType := make(map[domain.BillType]domain.FinanceBill, len(bills))
	for _, b := range bills {
		byType[b.Type] = b
	}

	slots := make([]BillSlot, 0, 3)
	for _, t := range domain.BillTypes() {
		if bill, ok := byType[t]; ok {
			slots = append(slots, BillSlot{Type: t, Bill: bill})
			continue
		}
		slots = append(slots, BillSlot{
			Type:    t,
			Missing: true,
			Bill: domain.FinanceBill{
				ID:       MissingBillID(t, batch.ID),
				BatchID:  batch.ID,
				Type:     t,
				Currency: domain.BillCurrency(t),
				Status:   domain.BillPending,
				Amount:   decimal.Zero,
			},
		})
	}

	return slots
}

// PendingTotals sums the unpaid remainder per currency across real pending and
// partially paid bills. Placeholder slots are skipped: a bill that does not
// exist is not a payable.
func PendingTotals(slots []BillSlot) map[domain.Currency]decimal.Decimal {
	totals := make(map[domain.Currency]decimal.Decimal)
	for _, slot := range slots {
		if slot.Missing {
			continue
		}
		if slot.Bill.Status == domain.BillPaid {
			continue
		}
		cur := slot.Bill.Currency
		prev, ok := totals[cur]
		if !ok {
			prev = decimal.Zero
		}
		totals[cur] = prev.Add(Remaining(slot.Bill))
	}

	return totals
}

// ResolveParties maps a bill type onto payer and payee names from the batch's
// role assignments. Force-generating a bill needs both.
func ResolveParties(batch domain.FinanceBatch, t domain.BillType) (payer, payee string, err error) {
	switch t {
	case domain.BillSenderToAdmin:
		payer, payee = batch.SenderName, batch.AdminName
	case domain.BillAdminToTransit:
		payer, payee = batch.AdminName, batch.TransitName
	case domain.BillSenderToReceiver:
		payer, payee = batch.SenderName, batch.ReceiverName
	default:
		return "", "", fmt.Errorf("%w: unknown bill type %q", ErrPartyResolution, t)
	}

	if payer == "" || payee == "" {
		return "", "", fmt.Errorf("%w: bill %s on batch %s", ErrPartyResolution, t, batch.BatchCode)
	}

	return payer, payee, nil
}

// UnitPriceFor returns the batch-level unit price for a bill slot.
func UnitPriceFor(batch domain.FinanceBatch, t domain.BillType) decimal.Decimal {
	switch t {
	case domain.BillSenderToAdmin:
		return batch.UnitPriceA
	case domain.BillAdminToTransit:
		return batch.UnitPriceB
	default:
		return batch.UnitPriceC
	}
}

// WeightModeFor returns the batch-level billing-weight mode for a bill slot.
func WeightModeFor(batch domain.FinanceBatch, t domain.BillType) domain.WeightMode {
	switch t {
	case domain.BillSenderToAdmin:
		return batch.WeightModeA
	case domain.BillAdminToTransit:
		return batch.WeightModeB
	default:
		return batch.WeightModeC
	}
}
