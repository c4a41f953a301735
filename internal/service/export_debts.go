package service

import (
	"context"
	"fmt"
	"time"

	"agrovet-ledger/internal/domain"
	"agrovet-ledger/internal/repository"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

type DebtColumn struct {
	Header string
	Value  func(d domain.Debt) any
}

var debtExportColumns = map[string]DebtColumn{
	"id": {
		Header: "ID",
		Value:  func(d domain.Debt) any { return d.ID },
	},
	"client_id": {
		Header: "ID del cliente",
		Value:  func(d domain.Debt) any { return d.ClientID },
	},
	"client_identity_number": {
		Header: "Cédula",
		Value:  func(d domain.Debt) any { return d.ClientIdentityNumber },
	},
	"total_amount": {
		Header: "Monto total",
		Value:  func(d domain.Debt) any { return d.TotalAmount.InexactFloat64() },
	},
	"outstanding_amount": {
		Header: "Saldo pendiente",
		Value:  func(d domain.Debt) any { return d.OutstandingAmount.InexactFloat64() },
	},
	"description": {
		Header: "Descripción",
		Value:  func(d domain.Debt) any { return d.Description },
	},
	"status": {
		Header: "Estado",
		Value:  func(d domain.Debt) any { return string(d.Status) },
	},
	"created_at": {
		Header: "Fecha de creación",
		Value:  func(d domain.Debt) any { return d.CreatedAt.Format("2006-01-02 15:04:05") },
	},
	"due_at": {
		Header: "Fecha de vencimiento",
		Value:  func(d domain.Debt) any { return d.DueAt.Format("2006-01-02 15:04:05") },
	},
}

var defaultDebtExportFields = []string{
	"id", "client_identity_number", "total_amount", "outstanding_amount", "status", "due_at",
}

// StartDebtsExport registers the export and generates the report in the
// background; callers poll /export/{id} or listen on the hub.
func (s *ExportService) StartDebtsExport(ctx context.Context, selected []string, filter repository.DebtsFilter, requestedBy int64) (string, error) {
	if len(selected) == 0 {
		selected = defaultDebtExportFields
	}

	exportID := fmt.Sprintf("exports:%s", uuid.NewString())

	status := &ExportStatus{
		Key:         exportID,
		Type:        "debts",
		RequestedBy: requestedBy,
		Filters:     debtsFilterMap(filter, selected),
		Progress:    0,
		Created:     time.Now(),
	}
	_ = s.saveStatus(ctx, status)

	go s.runDebtsExport(context.Background(), status, selected, filter)

	return exportID, nil
}

func (s *ExportService) runDebtsExport(ctx context.Context, status *ExportStatus, selected []string, filter repository.DebtsFilter) {
	debts, err := s.debts.List(ctx, filter)
	if err != nil {
		s.fail(ctx, status, fmt.Errorf("failed to load debts: %w", err))
		return
	}

	var cols []DebtColumn
	for _, key := range selected {
		if col, ok := debtExportColumns[key]; ok {
			cols = append(cols, col)
		}
	}
	if len(cols) == 0 {
		s.fail(ctx, status, fmt.Errorf("no exportable fields selected"))
		return
	}

	headers := make([]string, len(cols))
	for i, col := range cols {
		headers[i] = col.Header
	}

	sheet := "Deudas"
	f := newWorkbook(sheet, headers)

	total := len(debts)
	for i, d := range debts {
		for colIdx, col := range cols {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, i+2)
			_ = f.SetCellValue(sheet, cell, col.Value(d))
		}
		if (i+1)%exportChunkSize == 0 || i == total-1 {
			s.reportProgress(ctx, status, rowProgress(i, total), "generating")
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.fail(ctx, status, fmt.Errorf("failed to write workbook: %w", err))
		return
	}

	fileName := fmt.Sprintf("deudas_%s.xlsx", time.Now().Format("20060102_150405"))
	s.finalize(ctx, status, fileName, buf.Bytes())
}

func debtsFilterMap(f repository.DebtsFilter, fields []string) map[string]any {
	m := map[string]any{"fields": fields}
	if f.ClientID != nil {
		m["client_id"] = *f.ClientID
	} else {
		m["client_id"] = nil
	}
	if f.Status != nil {
		m["status"] = string(*f.Status)
	} else {
		m["status"] = nil
	}
	return m
}
