// internal/repository/postgres/shipment_repository.go
package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vanlogix/tribill/internal/domain"
)

type shipmentRepository struct {
	db *DB
}

func NewShipmentRepository(db *DB) *shipmentRepository {
	return &shipmentRepository{db: db}
}

func (r *shipmentRepository) GetByBatch(ctx context.Context, batchID string) ([]domain.Shipment, error) {
	query := `
		SELECT
			id, batch_id, tracking_no,
			COALESCE(package_tag, '') AS package_tag,
			COALESCE(parent_shipment_id, '') AS parent_shipment_id,
			COALESCE(weight, '') AS weight,
			COALESCE(length, '') AS length,
			COALESCE(width, '') AS width,
			COALESCE(height, '') AS height,
			created_at, updated_at
		FROM shipments
		WHERE batch_id = $1
		ORDER BY tracking_no
	`

	var shipments []domain.Shipment
	if err := sqlx.SelectContext(ctx, r.db, &shipments, query, batchID); err != nil {
		return nil, fmt.Errorf("failed to get shipments for batch: %w", err)
	}

	return shipments, nil
}

type inspectionRepository struct {
	db *DB
}

func NewInspectionRepository(db *DB) *inspectionRepository {
	return &inspectionRepository{db: db}
}

func (r *inspectionRepository) GetByBatch(ctx context.Context, batchID string) ([]domain.Inspection, error) {
	// Legacy inspection rows carry no shipment_id and are associated only via
	// the shipment id appearing in notes, so the batch join goes through
	// either link.
	query := `
		SELECT
			i.id,
			COALESCE(i.shipment_id, '') AS shipment_id,
			COALESCE(i.notes, '') AS notes,
			i.transit_weight, i.transit_length, i.transit_width, i.transit_height,
			i.check_weight, i.check_length, i.check_width, i.check_height,
			i.created_at
		FROM inspections i
		WHERE i.shipment_id IN (SELECT id FROM shipments WHERE batch_id = $1)
		   OR EXISTS (
				SELECT 1 FROM shipments s
				WHERE s.batch_id = $1 AND i.shipment_id IS NULL AND i.notes LIKE '%' || s.id || '%'
		   )
		ORDER BY i.created_at
	`

	var inspections []domain.Inspection
	if err := sqlx.SelectContext(ctx, r.db, &inspections, query, batchID); err != nil {
		return nil, fmt.Errorf("failed to get inspections for batch: %w", err)
	}

	return inspections, nil
}
