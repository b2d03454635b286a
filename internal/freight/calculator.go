// Package freight holds the pure weight computations: per-shipment chargeable
// weight and per-stage aggregation. Nothing here touches a store.
package freight

import (
	"math"
	"strconv"
	"strings"

	"github.com/vanlogix/tribill/internal/domain"
)

// volumetricDivisor is the industry air-freight divisor for dimensional weight.
const volumetricDivisor = 6000

// WeightFigures is the per-shipment result of the chargeable-weight calculation.
type WeightFigures struct {
	ActualWeight     float64
	VolumetricWeight float64
	ChargeableWeight float64
	Volume           float64
}

// ComputeShipmentWeights converts a shipment's raw measurements, optionally
// overridden per-field by a stage inspection, into its weight figures.
//
// Malformed or missing measurements coerce to zero rather than failing:
// shipment data comes from manual entry and external import and is frequently
// partial, so an understated figure beats no figure. The function never returns
// NaN or Inf.
func ComputeShipmentWeights(sh domain.Shipment, insp *domain.Inspection, stage domain.Stage) WeightFigures {
	weight := parseMeasure(sh.Weight)
	length := parseMeasure(sh.Length)
	width := parseMeasure(sh.Width)
	height := parseMeasure(sh.Height)

	// Inspections re-measure at transit and receiver only; the sender stage
	// always uses the raw values. Each field overrides independently.
	if insp != nil && stage != domain.StageSender {
		var w, l, wd, h *float64
		switch stage {
		case domain.StageTransit:
			w, l, wd, h = insp.TransitWeight, insp.TransitLength, insp.TransitWidth, insp.TransitHeight
		case domain.StageReceiver:
			w, l, wd, h = insp.CheckWeight, insp.CheckLength, insp.CheckWidth, insp.CheckHeight
		}
		weight = override(weight, w)
		length = override(length, l)
		width = override(width, wd)
		height = override(height, h)
	}

	dims := length * width * height
	volumetric := dims / volumetricDivisor

	return WeightFigures{
		ActualWeight:     weight,
		VolumetricWeight: volumetric,
		ChargeableWeight: math.Max(weight, volumetric),
		Volume:           dims / 1_000_000,
	}
}

// WeightForMode picks the figure a billing-weight mode refers to. An empty or
// unknown mode falls back to chargeable, the carrier default.
func WeightForMode(stats domain.WeightStats, mode domain.WeightMode) float64 {
	switch mode {
	case domain.ModeActual:
		return stats.ActualWeight
	case domain.ModeVolumetric:
		return stats.VolumetricWeight
	default:
		return stats.ChargeableWeight
	}
}

func override(current float64, v *float64) float64 {
	if v == nil {
		return current
	}

	return sanitize(*v)
}

// parseMeasure coerces a raw measurement to a usable float. Blank, malformed,
// negative and non-finite values all become zero.
func parseMeasure(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}

	return sanitize(v)
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}

	return v
}
