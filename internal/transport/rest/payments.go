package rest

import (
	"net/http"
	"time"

	"agrovet-ledger/internal/domain"
	"agrovet-ledger/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type paymentResponse struct {
	ID     int64           `json:"id"`
	DebtID int64           `json:"debt_id"`
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
	Notes  string          `json:"notes,omitempty"`
	PaidAt time.Time       `json:"paid_at"`
}

func toPaymentResponses(payments []domain.Payment) []paymentResponse {
	out := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, paymentResponse{
			ID:     p.ID,
			DebtID: p.DebtID,
			Amount: p.Amount,
			Method: p.Method,
			Notes:  p.Notes,
			PaidAt: p.PaidAt,
		})
	}
	return out
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	debtID, err := parseID(chi.URLParam(r, "debt_id"), "debt_id")
	if err != nil {
		DomainError(w, err)
		return
	}

	in, err := ParseRecordPaymentRequest(r, debtID)
	if err != nil {
		DomainError(w, err)
		return
	}

	receipt, err := h.ledger.RecordPayment(r.Context(), in)
	if err != nil {
		DomainError(w, err)
		return
	}

	Success(w, "Pago registrado", map[string]any{
		"debt_id":                receipt.DebtID,
		"amount_paid":            receipt.AmountPaid,
		"new_outstanding_amount": receipt.NewOutstandingAmount,
		"new_status":             string(receipt.NewStatus),
	})
}

func (h *Handler) listDebtPayments(w http.ResponseWriter, r *http.Request) {
	debtID, err := parseID(chi.URLParam(r, "debt_id"), "debt_id")
	if err != nil {
		DomainError(w, err)
		return
	}

	payments, err := h.payments.ListPayments(r.Context(), repository.PaymentsFilter{DebtID: &debtID})
	if err != nil {
		DomainError(w, err)
		return
	}
	Success(w, "", toPaymentResponses(payments))
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	filter := repository.PaymentsFilter{}

	if raw := r.URL.Query().Get("debt_id"); raw != "" {
		debtID, err := parseID(raw, "debt_id")
		if err != nil {
			DomainError(w, err)
			return
		}
		filter.DebtID = &debtID
	}
	if method := r.URL.Query().Get("method"); method != "" {
		filter.Method = &method
	}

	payments, err := h.payments.ListPayments(r.Context(), filter)
	if err != nil {
		DomainError(w, err)
		return
	}
	Success(w, "", toPaymentResponses(payments))
}
