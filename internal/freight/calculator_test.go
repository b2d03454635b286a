package freight

import (
	"math"
	"testing"

	"github.com/vanlogix/tribill/internal/domain"
)

func fptr(v float64) *float64 { return &v }

func TestComputeShipmentWeights_Basic(t *testing.T) {
	// 5 kg actual, 40x30x20 cm package
	sh := domain.Shipment{Weight: "5", Length: "40", Width: "30", Height: "20"}

	fig := ComputeShipmentWeights(sh, nil, domain.StageSender)

	if fig.ActualWeight != 5 {
		t.Errorf("actual weight = %v, want 5", fig.ActualWeight)
	}
	if fig.VolumetricWeight != 4 {
		t.Errorf("volumetric weight = %v, want 4", fig.VolumetricWeight)
	}
	if fig.ChargeableWeight != 5 {
		t.Errorf("chargeable weight = %v, want 5", fig.ChargeableWeight)
	}
	if math.Abs(fig.Volume-0.024) > 1e-9 {
		t.Errorf("volume = %v, want 0.024", fig.Volume)
	}
}

func TestComputeShipmentWeights_VolumetricDominates(t *testing.T) {
	// Light but bulky: volumetric 10 beats actual 2
	sh := domain.Shipment{Weight: "2", Length: "50", Width: "40", Height: "30"}

	fig := ComputeShipmentWeights(sh, nil, domain.StageSender)

	if fig.VolumetricWeight != 10 {
		t.Errorf("volumetric weight = %v, want 10", fig.VolumetricWeight)
	}
	if fig.ChargeableWeight != 10 {
		t.Errorf("chargeable weight = %v, want 10", fig.ChargeableWeight)
	}
}

func TestComputeShipmentWeights_MalformedInput(t *testing.T) {
	tests := []struct {
		name     string
		shipment domain.Shipment
	}{
		{"empty fields", domain.Shipment{}},
		{"garbage text", domain.Shipment{Weight: "abc", Length: "x", Width: "?", Height: "-"}},
		{"partial", domain.Shipment{Weight: "3.5", Length: "", Width: "20", Height: "oops"}},
		{"negative", domain.Shipment{Weight: "-5", Length: "-40", Width: "30", Height: "20"}},
		{"whitespace", domain.Shipment{Weight: "  ", Length: "\t", Width: " 10 ", Height: "5"}},
		{"non-finite", domain.Shipment{Weight: "NaN", Length: "Inf", Width: "10", Height: "10"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, stage := range []domain.Stage{domain.StageSender, domain.StageTransit, domain.StageReceiver} {
				fig := ComputeShipmentWeights(tt.shipment, nil, stage)
				for label, v := range map[string]float64{
					"actual":     fig.ActualWeight,
					"volumetric": fig.VolumetricWeight,
					"chargeable": fig.ChargeableWeight,
					"volume":     fig.Volume,
				} {
					if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
						t.Errorf("stage %s: %s weight = %v, want finite non-negative", stage, label, v)
					}
				}
			}
		})
	}
}

func TestComputeShipmentWeights_ChargeableDominance(t *testing.T) {
	shipments := []domain.Shipment{
		{Weight: "5", Length: "40", Width: "30", Height: "20"},
		{Weight: "1", Length: "100", Width: "100", Height: "100"},
		{Weight: "0", Length: "0", Width: "0", Height: "0"},
		{Weight: "bogus", Length: "10", Width: "10", Height: "10"},
	}

	for i, sh := range shipments {
		fig := ComputeShipmentWeights(sh, nil, domain.StageSender)
		want := math.Max(fig.ActualWeight, fig.VolumetricWeight)
		if fig.ChargeableWeight != want {
			t.Errorf("shipment %d: chargeable = %v, want max(actual, volumetric) = %v", i, fig.ChargeableWeight, want)
		}
	}
}

func TestComputeShipmentWeights_InspectionOverride(t *testing.T) {
	sh := domain.Shipment{Weight: "10", Length: "40", Width: "30", Height: "20"}
	insp := &domain.Inspection{
		TransitWeight: fptr(12),
		CheckWeight:   fptr(9),
		CheckLength:   fptr(50),
	}

	// Sender stage ignores the inspection entirely.
	sender := ComputeShipmentWeights(sh, insp, domain.StageSender)
	if sender.ActualWeight != 10 {
		t.Errorf("sender actual = %v, want 10", sender.ActualWeight)
	}

	// Transit overrides only the fields the inspection defines.
	transit := ComputeShipmentWeights(sh, insp, domain.StageTransit)
	if transit.ActualWeight != 12 {
		t.Errorf("transit actual = %v, want 12", transit.ActualWeight)
	}
	if transit.VolumetricWeight != 4 {
		t.Errorf("transit volumetric = %v, want 4 (dimensions not overridden)", transit.VolumetricWeight)
	}

	// Receiver uses the check_* fields, again per-field.
	receiver := ComputeShipmentWeights(sh, insp, domain.StageReceiver)
	if receiver.ActualWeight != 9 {
		t.Errorf("receiver actual = %v, want 9", receiver.ActualWeight)
	}
	wantVol := 50.0 * 30 * 20 / 6000
	if receiver.VolumetricWeight != wantVol {
		t.Errorf("receiver volumetric = %v, want %v", receiver.VolumetricWeight, wantVol)
	}
}

func TestWeightForMode(t *testing.T) {
	stats := domain.WeightStats{ActualWeight: 10, VolumetricWeight: 14, ChargeableWeight: 14}

	if got := WeightForMode(stats, domain.ModeActual); got != 10 {
		t.Errorf("actual mode = %v, want 10", got)
	}
	if got := WeightForMode(stats, domain.ModeVolumetric); got != 14 {
		t.Errorf("volumetric mode = %v, want 14", got)
	}
	if got := WeightForMode(stats, domain.ModeChargeable); got != 14 {
		t.Errorf("chargeable mode = %v, want 14", got)
	}
	if got := WeightForMode(stats, ""); got != 14 {
		t.Errorf("empty mode = %v, want chargeable fallback 14", got)
	}
}
