// internal/domain/models.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Shipment represents one parcel as recorded upstream. The raw measurements are
// kept as the operator entered them; values may be blank or malformed and are
// coerced at calculation time, never at read time.
type Shipment struct {
	ID               string     `json:"id" db:"id"`
	BatchID          string     `json:"batch_id" db:"batch_id"`
	TrackingNo       string     `json:"tracking_no" db:"tracking_no"`
	PackageTag       PackageTag `json:"package_tag" db:"package_tag"`
	ParentShipmentID string     `json:"parent_shipment_id" db:"parent_shipment_id"`
	Weight           string     `json:"weight" db:"weight"`
	Length           string     `json:"length" db:"length"`
	Width            string     `json:"width" db:"width"`
	Height           string     `json:"height" db:"height"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// Inspection is a stage-specific re-measurement of a shipment. ShipmentID is the
// authoritative link; Notes keeps the legacy convention of embedding the shipment
// id in free text and is only consulted when ShipmentID is empty.
type Inspection struct {
	ID            string    `json:"id" db:"id"`
	ShipmentID    string    `json:"shipment_id" db:"shipment_id"`
	Notes         string    `json:"notes" db:"notes"`
	TransitWeight *float64  `json:"transit_weight" db:"transit_weight"`
	TransitLength *float64  `json:"transit_length" db:"transit_length"`
	TransitWidth  *float64  `json:"transit_width" db:"transit_width"`
	TransitHeight *float64  `json:"transit_height" db:"transit_height"`
	CheckWeight   *float64  `json:"check_weight" db:"check_weight"`
	CheckLength   *float64  `json:"check_length" db:"check_length"`
	CheckWidth    *float64  `json:"check_width" db:"check_width"`
	CheckHeight   *float64  `json:"check_height" db:"check_height"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// WeightStats holds the aggregate figures for one stage of a batch.
type WeightStats struct {
	ActualWeight     float64 `json:"actual_weight"`
	VolumetricWeight float64 `json:"volumetric_weight"`
	ChargeableWeight float64 `json:"chargeable_weight"`
	Volume           float64 `json:"volume"`
}

// FinanceBatch is one logistics batch with its per-stage aggregates, the three
// party names, and the three unit prices driving bills A, B and C.
type FinanceBatch struct {
	ID             string      `json:"id" db:"id"`
	BatchCode      string      `json:"batch_code" db:"batch_code"`
	SenderName     string      `json:"sender_name" db:"sender_name"`
	AdminName      string      `json:"admin_name" db:"admin_name"`
	TransitName    string      `json:"transit_name" db:"transit_name"`
	ReceiverName   string      `json:"receiver_name" db:"receiver_name"`
	Status         BatchStatus `json:"status" db:"status"`
	SenderWeight   float64     `json:"sender_weight" db:"sender_weight"`
	SenderVolume   float64     `json:"sender_volume" db:"sender_volume"`
	TransitWeight  float64     `json:"transit_weight" db:"transit_weight"`
	TransitVolume  float64     `json:"transit_volume" db:"transit_volume"`
	ReceiverWeight float64     `json:"receiver_weight" db:"receiver_weight"`
	ReceiverVolume float64     `json:"receiver_volume" db:"receiver_volume"`

	UnitPriceA decimal.Decimal `json:"unit_price_a" db:"unit_price_a"`
	UnitPriceB decimal.Decimal `json:"unit_price_b" db:"unit_price_b"`
	UnitPriceC decimal.Decimal `json:"unit_price_c" db:"unit_price_c"`

	WeightModeA WeightMode `json:"weight_mode_a" db:"weight_mode_a"`
	WeightModeB WeightMode `json:"weight_mode_b" db:"weight_mode_b"`
	WeightModeC WeightMode `json:"weight_mode_c" db:"weight_mode_c"`

	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at" db:"deleted_at"`
}

// FinanceBill is one leg of the tri-party settlement. Amount is persisted, not
// derived on read: TotalWeight is snapshotted when the bill is created and only
// price or weight-mode changes recompute Amount from it.
type FinanceBill struct {
	ID          string          `json:"id" db:"id"`
	BatchID     string          `json:"batch_id" db:"batch_id"`
	Type        BillType        `json:"type" db:"type"`
	Currency    Currency        `json:"currency" db:"currency"`
	Status      BillStatus      `json:"status" db:"status"`
	Payer       string          `json:"payer" db:"payer"`
	Payee       string          `json:"payee" db:"payee"`
	UnitPrice   decimal.Decimal `json:"unit_price" db:"unit_price"`
	TotalWeight float64         `json:"total_weight" db:"total_weight"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount" db:"paid_amount"`
	Payments    []FinancePayment `json:"payments" db:"-"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// FinancePayment is one partial payment against a bill. Amount is always in the
// bill's currency; for converted payments ReferenceNo carries the locked rate.
type FinancePayment struct {
	ID            string          `json:"id" db:"id"`
	BillID        string          `json:"bill_id" db:"bill_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	PaymentDate   time.Time       `json:"payment_date" db:"payment_date"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`
	ReferenceNo   string          `json:"reference_no" db:"reference_no"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// ExchangeRate is one row of the append-only rate history. Exactly one row per
// ordered currency pair has IsActive set.
type ExchangeRate struct {
	ID             string          `json:"id" db:"id"`
	BaseCurrency   Currency        `json:"base_currency" db:"base_currency"`
	TargetCurrency Currency        `json:"target_currency" db:"target_currency"`
	Rate           decimal.Decimal `json:"rate" db:"rate"`
	IsActive       bool            `json:"is_active" db:"is_active"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}
