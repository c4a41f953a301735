package rest

import (
	"net/http"
	"time"

	"agrovet-ledger/internal/domain"
	"agrovet-ledger/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type debtResponse struct {
	ID                   int64           `json:"id"`
	ClientID             int64           `json:"client_id"`
	ClientIdentityNumber string          `json:"client_identity_number"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	OutstandingAmount    decimal.Decimal `json:"outstanding_amount"`
	Description          string          `json:"description"`
	Status               string          `json:"status"`
	CreatedAt            time.Time       `json:"created_at"`
	DueAt                time.Time       `json:"due_at"`
}

func toDebtResponse(d domain.Debt) debtResponse {
	return debtResponse{
		ID:                   d.ID,
		ClientID:             d.ClientID,
		ClientIdentityNumber: d.ClientIdentityNumber,
		TotalAmount:          d.TotalAmount,
		OutstandingAmount:    d.OutstandingAmount,
		Description:          d.Description,
		Status:               string(d.Status),
		CreatedAt:            d.CreatedAt,
		DueAt:                d.DueAt,
	}
}

func (h *Handler) createDebt(w http.ResponseWriter, r *http.Request) {
	in, err := ParseCreateDebtRequest(r)
	if err != nil {
		DomainError(w, err)
		return
	}

	debtID, err := h.ledger.CreateDebt(r.Context(), in)
	if err != nil {
		DomainError(w, err)
		return
	}

	SuccessCreated(w, "Deuda registrada", map[string]any{
		"debt_id": debtID,
	})
}

func (h *Handler) listDebts(w http.ResponseWriter, r *http.Request) {
	filter := repository.DebtsFilter{}

	if raw := r.URL.Query().Get("client_id"); raw != "" {
		clientID, err := parseID(raw, "client_id")
		if err != nil {
			DomainError(w, err)
			return
		}
		filter.ClientID = &clientID
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := domain.DebtStatus(raw)
		filter.Status = &st
	}

	debts, err := h.ledger.ListDebts(r.Context(), filter)
	if err != nil {
		DomainError(w, err)
		return
	}

	out := make([]debtResponse, 0, len(debts))
	for _, d := range debts {
		out = append(out, toDebtResponse(d))
	}
	Success(w, "", out)
}

func (h *Handler) getDebt(w http.ResponseWriter, r *http.Request) {
	debtID, err := parseID(chi.URLParam(r, "debt_id"), "debt_id")
	if err != nil {
		DomainError(w, err)
		return
	}

	d, err := h.ledger.GetDebt(r.Context(), debtID)
	if err != nil {
		DomainError(w, err)
		return
	}
	Success(w, "", toDebtResponse(d))
}

func (h *Handler) clientSummary(w http.ResponseWriter, r *http.Request) {
	clientID, err := parseID(r.URL.Query().Get("client_id"), "client_id")
	if err != nil {
		DomainError(w, err)
		return
	}

	summary, err := h.ledger.GetClientSummary(r.Context(), clientID)
	if err != nil {
		DomainError(w, err)
		return
	}
	Success(w, "", summary)
}
