package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"agrovet-ledger/internal/domain"
	"agrovet-ledger/internal/repository"
	"agrovet-ledger/internal/service"

	"github.com/shopspring/decimal"
)

type CreateDebtRequest struct {
	ClientID             int64           `json:"client_id"`
	ClientIdentityNumber string          `json:"client_identity_number"`
	TotalSaleAmount      decimal.Decimal `json:"total_sale_amount"`
	// pointer so an omitted field is not mistaken for an explicit zero
	OutstandingAmount    *decimal.Decimal `json:"outstanding_amount"`
	InitialPaymentAmount decimal.Decimal  `json:"initial_payment_amount"`
	Description          string           `json:"description"`
}

func ParseCreateDebtRequest(r *http.Request) (service.CreateDebtInput, error) {
	var req CreateDebtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return service.CreateDebtInput{}, &domain.ValidationError{Field: "body", Message: "invalid JSON"}
	}
	return service.CreateDebtInput{
		ClientID:             req.ClientID,
		ClientIdentityNumber: req.ClientIdentityNumber,
		TotalSaleAmount:      req.TotalSaleAmount,
		OutstandingAmount:    req.OutstandingAmount,
		InitialPaymentAmount: req.InitialPaymentAmount,
		Description:          req.Description,
	}, nil
}

type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
	Notes  string          `json:"notes"`
}

func ParseRecordPaymentRequest(r *http.Request, debtID int64) (service.RecordPaymentInput, error) {
	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return service.RecordPaymentInput{}, &domain.ValidationError{Field: "body", Message: "invalid JSON"}
	}
	return service.RecordPaymentInput{
		DebtID: debtID,
		Amount: req.Amount,
		Method: req.Method,
		Notes:  req.Notes,
	}, nil
}

// ExportRequest covers both debt and payment exports; irrelevant filters are
// simply ignored by the respective endpoint.
type ExportRequest struct {
	Fields      []string `json:"fields"`
	ClientID    *int64   `json:"client_id,omitempty"`
	Status      *string  `json:"status,omitempty"`
	DebtID      *int64   `json:"debt_id,omitempty"`
	Method      *string  `json:"method,omitempty"`
	RequestedBy int64    `json:"requested_by"`
}

func ParseExportRequest(r *http.Request) (*ExportRequest, error) {
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		return nil, &domain.ValidationError{Field: "body", Message: "invalid JSON"}
	}
	return &req, nil
}

func (req *ExportRequest) ToDebtsFilter() repository.DebtsFilter {
	f := repository.DebtsFilter{}
	if req.ClientID != nil {
		f.ClientID = req.ClientID
	}
	if req.Status != nil && *req.Status != "" {
		st := domain.DebtStatus(*req.Status)
		f.Status = &st
	}
	return f
}

func (req *ExportRequest) ToPaymentsFilter() repository.PaymentsFilter {
	f := repository.PaymentsFilter{}
	if req.DebtID != nil {
		f.DebtID = req.DebtID
	}
	if req.Method != nil && *req.Method != "" {
		f.Method = req.Method
	}
	return f
}

// ParseSubscriberID identifies a websocket subscriber from the query string.
func ParseSubscriberID(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("subscriber_id")
	if raw == "" {
		return 0, &domain.ValidationError{Field: "subscriber_id", Message: "subscriber_id is required"}
	}
	return parseID(raw, "subscriber_id")
}

// parseID pulls a positive int64 out of a path or query value.
func parseID(raw, field string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &domain.ValidationError{Field: field, Message: field + " must be a positive integer"}
	}
	return id, nil
}
