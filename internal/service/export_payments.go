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

type PaymentColumn struct {
	Header string
	Value  func(p domain.Payment) any
}

var paymentExportColumns = map[string]PaymentColumn{
	"id": {
		Header: "ID",
		Value:  func(p domain.Payment) any { return p.ID },
	},
	"debt_id": {
		Header: "ID de la deuda",
		Value:  func(p domain.Payment) any { return p.DebtID },
	},
	"amount": {
		Header: "Monto",
		Value:  func(p domain.Payment) any { return p.Amount.InexactFloat64() },
	},
	"method": {
		Header: "Método de pago",
		Value:  func(p domain.Payment) any { return p.Method },
	},
	"notes": {
		Header: "Notas",
		Value:  func(p domain.Payment) any { return p.Notes },
	},
	"paid_at": {
		Header: "Fecha de pago",
		Value:  func(p domain.Payment) any { return p.PaidAt.Format("2006-01-02 15:04:05") },
	},
}

var defaultPaymentExportFields = []string{"id", "debt_id", "amount", "method", "paid_at"}

func (s *ExportService) StartPaymentsExport(ctx context.Context, selected []string, filter repository.PaymentsFilter, requestedBy int64) (string, error) {
	if len(selected) == 0 {
		selected = defaultPaymentExportFields
	}

	exportID := fmt.Sprintf("exports:%s", uuid.NewString())

	status := &ExportStatus{
		Key:         exportID,
		Type:        "payments",
		RequestedBy: requestedBy,
		Filters:     paymentsFilterMap(filter, selected),
		Progress:    0,
		Created:     time.Now(),
	}
	_ = s.saveStatus(ctx, status)

	go s.runPaymentsExport(context.Background(), status, selected, filter)

	return exportID, nil
}

func (s *ExportService) runPaymentsExport(ctx context.Context, status *ExportStatus, selected []string, filter repository.PaymentsFilter) {
	payments, err := s.payments.List(ctx, filter)
	if err != nil {
		s.fail(ctx, status, fmt.Errorf("failed to load payments: %w", err))
		return
	}

	var cols []PaymentColumn
	for _, key := range selected {
		if col, ok := paymentExportColumns[key]; ok {
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

	sheet := "Pagos"
	f := newWorkbook(sheet, headers)

	total := len(payments)
	for i, p := range payments {
		for colIdx, col := range cols {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, i+2)
			_ = f.SetCellValue(sheet, cell, col.Value(p))
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

	fileName := fmt.Sprintf("pagos_%s.xlsx", time.Now().Format("20060102_150405"))
	s.finalize(ctx, status, fileName, buf.Bytes())
}

func paymentsFilterMap(f repository.PaymentsFilter, fields []string) map[string]any {
	m := map[string]any{"fields": fields}
	if f.DebtID != nil {
		m["debt_id"] = *f.DebtID
	} else {
		m["debt_id"] = nil
	}
	if f.Method != nil {
		m["method"] = *f.Method
	} else {
		m["method"] = nil
	}
	return m
}
