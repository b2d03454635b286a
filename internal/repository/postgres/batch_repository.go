// internal/repository/postgres/batch_repository.go
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

type batchRepository struct {
	db *DB
}

func NewBatchRepository(db *DB) *batchRepository {
	return &batchRepository{db: db}
}

func (r *batchRepository) GetByID(ctx context.Context, id string) (*domain.FinanceBatch, error) {
	query := `
		SELECT
			id, batch_code, sender_name, admin_name, transit_name, receiver_name,
			status,
			sender_weight, sender_volume,
			transit_weight, transit_volume,
			receiver_weight, receiver_volume,
			unit_price_a, unit_price_b, unit_price_c,
			COALESCE(weight_mode_a, 'chargeable') AS weight_mode_a,
			COALESCE(weight_mode_b, 'chargeable') AS weight_mode_b,
			COALESCE(weight_mode_c, 'chargeable') AS weight_mode_c,
			created_at, updated_at, deleted_at
		FROM finance_batches
		WHERE id = $1
	`

	var batch domain.FinanceBatch
	if err := sqlx.GetContext(ctx, r.db, &batch, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("batch %s not found: %w", id, err)
		}
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}

	return &batch, nil
}

func (r *batchRepository) UpdateUnitPrices(ctx context.Context, id string, a, b, c decimal.Decimal) error {
	query := `
		UPDATE finance_batches
		SET unit_price_a = $2, unit_price_b = $3, unit_price_c = $4, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	res, err := r.db.ExecContext(ctx, query, id, a, b, c)
	if err != nil {
		return fmt.Errorf("failed to update unit prices: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("batch %s not found or cancelled", id)
	}

	return nil
}

func (r *batchRepository) UpdateWeightMode(ctx context.Context, id string, billType domain.BillType, mode domain.WeightMode) error {
	var column string
	switch billType {
	case domain.BillSenderToAdmin:
		column = "weight_mode_a"
	case domain.BillAdminToTransit:
		column = "weight_mode_b"
	case domain.BillSenderToReceiver:
		column = "weight_mode_c"
	default:
		return fmt.Errorf("unknown bill type %q", billType)
	}

	query := fmt.Sprintf(`
		UPDATE finance_batches
		SET %s = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, column)

	res, err := r.db.ExecContext(ctx, query, id, mode)
	if err != nil {
		return fmt.Errorf("failed to update weight mode: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("batch %s not found or cancelled", id)
	}

	return nil
}

// SoftDelete cancels a batch. Bills stay untouched for historical reporting.
func (r *batchRepository) SoftDelete(ctx context.Context, id string) error {
	query := `
		UPDATE finance_batches
		SET status = $2, deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	res, err := r.db.ExecContext(ctx, query, id, domain.BatchCancelled)
	if err != nil {
		return fmt.Errorf("failed to cancel batch: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("batch %s not found or already cancelled", id)
	}

	return nil
}
