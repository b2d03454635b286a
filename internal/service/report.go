// internal/service/report.go
package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/vanlogix/tribill/internal/billing"
	"github.com/vanlogix/tribill/internal/storage"
)

// ReportService renders a batch's settlement state to CSV and archives it in
// object storage for the finance team.
type ReportService struct {
	finance *FinanceService
	archive storage.ReportArchive
}

func NewReportService(finance *FinanceService, archive storage.ReportArchive) *ReportService {
	return &ReportService{finance: finance, archive: archive}
}

// ExportSettlement writes the settlement report for a batch and returns the
// object key it was archived under.
func (s *ReportService) ExportSettlement(ctx context.Context, batchID string) (string, error) {
	if s.archive == nil {
		return "", fmt.Errorf("report archive is not configured")
	}

	view, err := s.finance.GetBatchFinance(ctx, batchID)
	if err != nil {
		return "", err
	}

	data, err := renderSettlementCSV(view)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("reports/%s/settlement-%s.csv",
		view.Batch.BatchCode, time.Now().UTC().Format("20060102T150405Z"))
	if err := s.archive.Upload(ctx, key, "text/csv", data); err != nil {
		return "", err
	}

	return key, nil
}

func renderSettlementCSV(view *BatchFinance) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"batch_code", "bill_type", "bill_id", "status", "currency",
		"payer", "payee", "unit_price", "total_weight", "amount",
		"paid", "remaining", "payments",
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write report header: %w", err)
	}

	for _, slot := range view.Slots {
		bill := slot.Bill
		row := []string{
			view.Batch.BatchCode,
			string(slot.Type),
			bill.ID,
			string(bill.Status),
			string(bill.Currency),
			bill.Payer,
			bill.Payee,
			bill.UnitPrice.String(),
			fmt.Sprintf("%.3f", bill.TotalWeight),
			bill.Amount.String(),
			billing.PaidTotal(bill).String(),
			billing.Remaining(bill).String(),
			fmt.Sprintf("%d", len(bill.Payments)),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write report row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	return buf.Bytes(), nil
}
