// internal/repository/postgres/bill_repository.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/vanlogix/tribill/internal/domain"
)

type billRepository struct {
	db *DB
}

func NewBillRepository(db *DB) *billRepository {
	return &billRepository{db: db}
}

const billColumns = `
	id, batch_id, type, currency, status, payer, payee,
	unit_price, total_weight, amount, paid_amount,
	created_at, updated_at
`

func (r *billRepository) GetByID(ctx context.Context, id string) (*domain.FinanceBill, error) {
	query := `SELECT ` + billColumns + ` FROM finance_bills WHERE id = $1`

	var bill domain.FinanceBill
	if err := sqlx.GetContext(ctx, r.db, &bill, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bill %s not found: %w", id, err)
		}
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}

	payments, err := r.GetPayments(ctx, bill.ID)
	if err != nil {
		return nil, err
	}
	bill.Payments = payments

	return &bill, nil
}

func (r *billRepository) GetByBatch(ctx context.Context, batchID string) ([]domain.FinanceBill, error) {
	query := `SELECT ` + billColumns + ` FROM finance_bills WHERE batch_id = $1 ORDER BY type`

	var bills []domain.FinanceBill
	if err := sqlx.SelectContext(ctx, r.db, &bills, query, batchID); err != nil {
		return nil, fmt.Errorf("failed to get bills for batch: %w", err)
	}

	for i := range bills {
		payments, err := r.GetPayments(ctx, bills[i].ID)
		if err != nil {
			return nil, err
		}
		bills[i].Payments = payments
	}

	return bills, nil
}

func (r *billRepository) Create(ctx context.Context, bill *domain.FinanceBill) error {
	query := `
		INSERT INTO finance_bills (
			id, batch_id, type, currency, status, payer, payee,
			unit_price, total_weight, amount, paid_amount, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	`

	_, err := r.db.ExecContext(ctx, query,
		bill.ID, bill.BatchID, bill.Type, bill.Currency, bill.Status,
		bill.Payer, bill.Payee, bill.UnitPrice, bill.TotalWeight,
		bill.Amount, bill.PaidAmount,
	)
	if err != nil {
		return fmt.Errorf("failed to create bill: %w", err)
	}

	return nil
}

// UpdatePricing writes unit price, snapshot weight and amount in one statement
// so readers never observe a new price alongside a stale amount.
func (r *billRepository) UpdatePricing(ctx context.Context, id string, unitPrice decimal.Decimal, totalWeight float64, amount decimal.Decimal) error {
	query := `
		UPDATE finance_bills
		SET unit_price = $2, total_weight = $3, amount = $4, updated_at = NOW()
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, unitPrice, totalWeight, amount)
	if err != nil {
		return fmt.Errorf("failed to update bill pricing: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("bill %s not found", id)
	}

	return nil
}

func (r *billRepository) UpdateStatus(ctx context.Context, id string, status domain.BillStatus, paidAmount decimal.Decimal) error {
	query := `
		UPDATE finance_bills
		SET status = $2, paid_amount = $3, updated_at = NOW()
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, status, paidAmount)
	if err != nil {
		return fmt.Errorf("failed to update bill status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("bill %s not found", id)
	}

	return nil
}

// Delete removes a bill and its payments entirely. The slot reverts to a
// synthetic placeholder on the next read.
func (r *billRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM finance_payments WHERE bill_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete bill payments: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM finance_bills WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete bill: %w", err)
		}
		return nil
	})
}

func (r *billRepository) AddPayment(ctx context.Context, payment *domain.FinancePayment) error {
	query := `
		INSERT INTO finance_payments (
			id, bill_id, amount, payment_date, payment_method, reference_no, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`

	_, err := r.db.ExecContext(ctx, query,
		payment.ID, payment.BillID, payment.Amount,
		payment.PaymentDate, payment.PaymentMethod, payment.ReferenceNo,
	)
	if err != nil {
		return fmt.Errorf("failed to add payment: %w", err)
	}

	return nil
}

func (r *billRepository) DeletePayment(ctx context.Context, billID, paymentID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM finance_payments WHERE id = $1 AND bill_id = $2`, paymentID, billID)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("payment %s not found on bill %s", paymentID, billID)
	}

	return nil
}

func (r *billRepository) GetPayments(ctx context.Context, billID string) ([]domain.FinancePayment, error) {
	query := `
		SELECT id, bill_id, amount, payment_date,
		       COALESCE(payment_method, '') AS payment_method,
		       COALESCE(reference_no, '') AS reference_no,
		       created_at
		FROM finance_payments
		WHERE bill_id = $1
		ORDER BY payment_date, created_at
	`

	var payments []domain.FinancePayment
	if err := sqlx.SelectContext(ctx, r.db, &payments, query, billID); err != nil {
		return nil, fmt.Errorf("failed to get payments: %w", err)
	}

	return payments, nil
}
