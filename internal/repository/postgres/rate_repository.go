// internal/repository/postgres/rate_repository.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vanlogix/tribill/internal/billing"
	"github.com/vanlogix/tribill/internal/domain"
)

type rateRepository struct {
	db *DB
}

func NewRateRepository(db *DB) *rateRepository {
	return &rateRepository{db: db}
}

func (r *rateRepository) GetActive(ctx context.Context, base, target domain.Currency) (*domain.ExchangeRate, error) {
	query := `
		SELECT id, base_currency, target_currency, rate, is_active, created_at
		FROM exchange_rates
		WHERE base_currency = $1 AND target_currency = $2 AND is_active
	`

	var rate domain.ExchangeRate
	if err := sqlx.GetContext(ctx, r.db, &rate, query, base, target); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s/%s", billing.ErrNoActiveRate, base, target)
		}
		return nil, fmt.Errorf("failed to get active rate: %w", err)
	}

	return &rate, nil
}

// Rotate deactivates the currently active row for the pair and inserts the new
// one, in one transaction. History rows are never mutated or removed.
func (r *rateRepository) Rotate(ctx context.Context, rate *domain.ExchangeRate) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE exchange_rates
			SET is_active = FALSE
			WHERE base_currency = $1 AND target_currency = $2 AND is_active
		`, rate.BaseCurrency, rate.TargetCurrency)
		if err != nil {
			return fmt.Errorf("failed to deactivate prior rate: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO exchange_rates (id, base_currency, target_currency, rate, is_active, created_at)
			VALUES ($1, $2, $3, $4, TRUE, NOW())
		`, rate.ID, rate.BaseCurrency, rate.TargetCurrency, rate.Rate)
		if err != nil {
			return fmt.Errorf("failed to insert rate: %w", err)
		}

		return nil
	})
}
