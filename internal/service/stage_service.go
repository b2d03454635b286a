// internal/service/stage_service.go
package service

import (
	"context"

	"github.com/vanlogix/tribill/internal/domain"
	"github.com/vanlogix/tribill/internal/freight"
	"github.com/vanlogix/tribill/internal/repository"
)

// StageService serves per-stage weight summaries and line-item lists. Both come
// from one aggregation pass so they cannot drift apart.
type StageService struct {
	batches     repository.BatchRepository
	shipments   repository.ShipmentRepository
	inspections repository.InspectionRepository
}

func NewStageService(
	batches repository.BatchRepository,
	shipments repository.ShipmentRepository,
	inspections repository.InspectionRepository,
) *StageService {
	return &StageService{
		batches:     batches,
		shipments:   shipments,
		inspections: inspections,
	}
}

// StageSummary aggregates one stage of a batch from live shipment and
// inspection rows. When the batch has no shipment rows the stats degrade to
// the batch's stored aggregates with an empty detail list.
func (s *StageService) StageSummary(ctx context.Context, batchID string, stage domain.Stage) (*freight.StageSummary, error) {
	shipments, err := s.shipments.GetByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	if len(shipments) == 0 {
		batch, err := s.batches.GetByID(ctx, batchID)
		if err != nil {
			return nil, err
		}
		return &freight.StageSummary{
			Stats:        freight.BatchFallbackStats(*batch, stage),
			DetailedList: []domain.Shipment{},
		}, nil
	}

	inspections, err := s.inspections.GetByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	summary := freight.AggregateStage(shipments, inspections, stage)
	return &summary, nil
}
