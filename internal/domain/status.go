package domain

import "strings"

// Stage identifies which leg of the journey a measurement belongs to.
type Stage string

const (
	StageSender   Stage = "sender"
	StageTransit  Stage = "transit"
	StageReceiver Stage = "receiver"
)

// ParseStage returns the stage for a given label (case-insensitive).
func ParseStage(label string) (Stage, bool) {
	switch Stage(strings.ToLower(label)) {
	case StageSender:
		return StageSender, true
	case StageTransit:
		return StageTransit, true
	case StageReceiver:
		return StageReceiver, true
	}

	return "", false
}

// PackageTag classifies a shipment record as a standalone, merged or split unit.
type PackageTag string

const (
	TagStandard    PackageTag = "standard"
	TagMergedChild PackageTag = "merged_child"
	TagSplitParent PackageTag = "split_parent"
	TagSplitChild  PackageTag = "split_child"
	TagMergeParent PackageTag = "merge_parent"
)

var senderTags = map[PackageTag]bool{
	TagStandard:    true,
	TagMergedChild: true,
	TagSplitParent: true,
	"":             true,
}

var transitReceiverTags = map[PackageTag]bool{
	TagStandard:    true,
	TagSplitChild:  true,
	TagMergeParent: true,
	"":             true,
}

// StageAdmits reports whether a shipment with the given tag is counted at the
// given stage. The two sets are chosen so each physical unit is counted exactly
// once per stage: the sender sees originals, transit and receiver see the
// post-split/post-merge units.
func StageAdmits(stage Stage, tag PackageTag) bool {
	if stage == StageSender {
		return senderTags[tag]
	}

	return transitReceiverTags[tag]
}

// WeightMode selects which weight figure feeds a bill's pricing.
type WeightMode string

const (
	ModeActual     WeightMode = "actual"
	ModeVolumetric WeightMode = "volumetric"
	ModeChargeable WeightMode = "chargeable"
)

// ParseWeightMode returns the mode for a given label (case-insensitive).
func ParseWeightMode(label string) (WeightMode, bool) {
	switch WeightMode(strings.ToLower(label)) {
	case ModeActual:
		return ModeActual, true
	case ModeVolumetric:
		return ModeVolumetric, true
	case ModeChargeable:
		return ModeChargeable, true
	}

	return "", false
}

// BillType identifies one leg of the tri-party settlement.
type BillType string

const (
	BillSenderToAdmin    BillType = "SENDER_TO_ADMIN"    // bill A, VND
	BillAdminToTransit   BillType = "ADMIN_TO_TRANSIT"   // bill B, VND
	BillSenderToReceiver BillType = "SENDER_TO_RECEIVER" // bill C, CNY
)

// BillTypes lists the three slots every batch carries, in A/B/C order.
func BillTypes() []BillType {
	return []BillType{BillSenderToAdmin, BillAdminToTransit, BillSenderToReceiver}
}

// Currency is an ISO 4217 code.
type Currency string

const (
	CurrencyVND Currency = "VND"
	CurrencyCNY Currency = "CNY"
)

// BillCurrency returns the settlement currency for a bill type.
func BillCurrency(t BillType) Currency {
	if t == BillSenderToReceiver {
		return CurrencyCNY
	}

	return CurrencyVND
}

// BillStatus is the payment lifecycle of one bill. Overdue is assigned
// externally and never derived from payments.
type BillStatus string

const (
	BillPending       BillStatus = "pending"
	BillPartiallyPaid BillStatus = "partially_paid"
	BillPaid          BillStatus = "paid"
	BillOverdue       BillStatus = "overdue"
)

// BatchStatus is the batch lifecycle. Cancellation is a soft delete; bills are
// kept for historical reporting.
type BatchStatus string

const (
	BatchCreated   BatchStatus = "created"
	BatchSealed    BatchStatus = "sealed"
	BatchInTransit BatchStatus = "in_transit"
	BatchInspected BatchStatus = "inspected"
	BatchReceived  BatchStatus = "received"
	BatchCompleted BatchStatus = "completed"
	BatchCancelled BatchStatus = "cancelled"
)
