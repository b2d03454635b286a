package freight

import (
	"strings"

	"github.com/vanlogix/tribill/internal/domain"
)

// StageSummary is the result of aggregating one stage: batch totals plus the
// exact filtered list they were computed from, so summary and line-item views
// can never drift apart.
type StageSummary struct {
	Stats        domain.WeightStats `json:"stats"`
	DetailedList []domain.Shipment  `json:"detailed_list"`
}

// AggregateStage filters a batch's shipments to the ones counted at the given
// stage, applies each one's inspection override, and sums the weight figures.
func AggregateStage(shipments []domain.Shipment, inspections []domain.Inspection, stage domain.Stage) StageSummary {
	admitted := make([]domain.Shipment, 0, len(shipments))
	for _, sh := range shipments {
		if domain.StageAdmits(stage, sh.PackageTag) {
			admitted = append(admitted, sh)
		}
	}
	admitted = dedupLinked(admitted)

	index := indexInspections(inspections)

	summary := StageSummary{DetailedList: admitted}
	for _, sh := range admitted {
		fig := ComputeShipmentWeights(sh, index.match(sh.ID), stage)
		summary.Stats.ActualWeight += fig.ActualWeight
		summary.Stats.VolumetricWeight += fig.VolumetricWeight
		summary.Stats.ChargeableWeight += fig.ChargeableWeight
		summary.Stats.Volume += fig.Volume
	}

	return summary
}

// BatchFallbackStats degrades to the batch's stored aggregates when no shipment
// list is available. Volumetric weight is not persisted per stage, so it is
// reported as zero; callers treat this as a lower-fidelity read, not an error.
func BatchFallbackStats(batch domain.FinanceBatch, stage domain.Stage) domain.WeightStats {
	var weight, volume float64
	switch stage {
	case domain.StageSender:
		weight, volume = batch.SenderWeight, batch.SenderVolume
	case domain.StageTransit:
		weight, volume = batch.TransitWeight, batch.TransitVolume
	case domain.StageReceiver:
		weight, volume = batch.ReceiverWeight, batch.ReceiverVolume
	}

	return domain.WeightStats{
		ActualWeight:     weight,
		ChargeableWeight: weight,
		Volume:           volume,
	}
}

// dedupLinked drops a shipment whose parent is also admitted in the same list.
// The parent is the physical unit; counting both parent and child would double
// count when a split child was later merged under a tag the stage admits.
func dedupLinked(list []domain.Shipment) []domain.Shipment {
	present := make(map[string]bool, len(list))
	for _, sh := range list {
		present[sh.ID] = true
	}

	out := list[:0]
	for _, sh := range list {
		if sh.ParentShipmentID != "" && present[sh.ParentShipmentID] {
			continue
		}
		out = append(out, sh)
	}

	return out
}

type inspectionIndex struct {
	byShipment map[string]*domain.Inspection
	legacy     []domain.Inspection
}

// indexInspections builds a shipment-id lookup. When several inspections
// reference the same shipment the most recent wins. Rows without a shipment id
// fall back to the legacy convention of the shipment id appearing in notes.
func indexInspections(inspections []domain.Inspection) inspectionIndex {
	idx := inspectionIndex{byShipment: make(map[string]*domain.Inspection, len(inspections))}
	for i := range inspections {
		insp := &inspections[i]
		if insp.ShipmentID == "" {
			idx.legacy = append(idx.legacy, *insp)
			continue
		}
		prev, ok := idx.byShipment[insp.ShipmentID]
		if !ok || insp.CreatedAt.After(prev.CreatedAt) {
			idx.byShipment[insp.ShipmentID] = insp
		}
	}

	return idx
}

func (idx inspectionIndex) match(shipmentID string) *domain.Inspection {
	if insp, ok := idx.byShipment[shipmentID]; ok {
		return insp
	}
	if shipmentID == "" {
		return nil
	}
	for i := range idx.legacy {
		if strings.Contains(idx.legacy[i].Notes, shipmentID) {
			return &idx.legacy[i]
		}
	}

	return nil
}
