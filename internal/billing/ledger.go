package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vanlogix/tribill/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// NewPayment validates and builds a payment against a bill, in the bill's own
// currency. Existing payments are never touched; the ledger is append-only and
// removal is an explicit separate operation.
func NewPayment(bill domain.FinanceBill, amount decimal.Decimal, method, reference string) (domain.FinancePayment, error) {
	if !amount.IsPositive() {
		return domain.FinancePayment{}, fmt.Errorf("%w: got %s", ErrInvalidPaymentAmount, amount)
	}

	return domain.FinancePayment{
		ID:            uuid.NewString(),
		BillID:        bill.ID,
		Amount:        amount,
		PaymentDate:   time.Now().UTC(),
		PaymentMethod: method,
		ReferenceNo:   reference,
	}, nil
}

// ConvertPayment builds a payment entered in a foreign currency against the
// bill's currency at the given rate, e.g. a CNY payment on a VND bill. The
// converted amount is rounded to whole units and the rate is baked into the
// reference so the record stays accurate after the rate rotates.
func ConvertPayment(bill domain.FinanceBill, input decimal.Decimal, rate domain.ExchangeRate, method, reference string) (domain.FinancePayment, error) {
	if !input.IsPositive() {
		return domain.FinancePayment{}, fmt.Errorf("%w: got %s", ErrInvalidPaymentAmount, input)
	}

	converted := input.Mul(rate.Rate).Round(0)
	ref := fmt.Sprintf("%s [%s %s @ %s %s/%s]",
		reference, input, rate.BaseCurrency, rate.Rate, rate.TargetCurrency, rate.BaseCurrency)

	return NewPayment(bill, converted, method, ref)
}

// PaidTotal sums a bill's payments. Overpayment is representable here; the
// confirmation layer is where an operator is stopped from exceeding the amount.
func PaidTotal(bill domain.FinanceBill) decimal.Decimal {
	total := decimal.Zero
	for _, p := range bill.Payments {
		total = total.Add(p.Amount)
	}

	return total
}

// Remaining is amount minus payments. It can go negative on overpayment and
// downstream arithmetic must not assume otherwise.
func Remaining(bill domain.FinanceBill) decimal.Decimal {
	return bill.Amount.Sub(PaidTotal(bill))
}

// DeriveStatus maps the payment total onto the bill lifecycle. Overdue is an
// externally assigned status: it is kept while nothing is paid, and gives way
// to partially_paid/paid as soon as money lands.
func DeriveStatus(bill domain.FinanceBill) domain.BillStatus {
	paid := PaidTotal(bill)
	switch {
	case paid.IsZero():
		if bill.Status == domain.BillOverdue {
			return domain.BillOverdue
		}
		return domain.BillPending
	case paid.GreaterThanOrEqual(bill.Amount):
		return domain.BillPaid
	default:
		return domain.BillPartiallyPaid
	}
}

// Progress is the paid percentage, clamped at 100 because conversion rounding
// can push the paid total fractionally over the amount.
func Progress(bill domain.FinanceBill) decimal.Decimal {
	if !bill.Amount.IsPositive() {
		return decimal.Zero
	}

	pct := PaidTotal(bill).Div(bill.Amount).Mul(hundred)
	if pct.GreaterThan(hundred) {
		return hundred
	}

	return pct
}
