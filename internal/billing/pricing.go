package billing

import (
	"github.com/shopspring/decimal"

	"github.com/vanlogix/tribill/internal/domain"
	"github.com/vanlogix/tribill/internal/freight"
)

// PriceBill derives a bill amount from its snapshot weight and unit price.
// Both inputs must be non-negative; the weight was validated at snapshot time
// and prices are validated at the API boundary, so a negative here is a caller
// bug, not bad user data.
func PriceBill(totalWeight float64, unitPrice decimal.Decimal) (decimal.Decimal, error) {
	if totalWeight < 0 || unitPrice.IsNegative() {
		return decimal.Zero, ErrNegativePrice
	}

	return decimal.NewFromFloat(totalWeight).Mul(unitPrice), nil
}

// Reprice recomputes a bill's amount from its already-recorded snapshot weight
// with a new unit price. The weight never changes; only price is mutable.
func Reprice(bill *domain.FinanceBill, unitPrice decimal.Decimal) error {
	amount, err := PriceBill(bill.TotalWeight, unitPrice)
	if err != nil {
		return err
	}

	bill.UnitPrice = unitPrice
	bill.Amount = amount

	return nil
}

// Reweigh re-snapshots a bill's weight after its billing-weight mode changed,
// then recomputes the amount at the current price. This is the one sanctioned
// way a bill's TotalWeight moves after creation.
func Reweigh(bill *domain.FinanceBill, stats domain.WeightStats, mode domain.WeightMode) error {
	weight := freight.WeightForMode(stats, mode)
	amount, err := PriceBill(weight, bill.UnitPrice)
	if err != nil {
		return err
	}

	bill.TotalWeight = weight
	bill.Amount = amount

	return nil
}
