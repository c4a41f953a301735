package rest

import (
	"context"
	"net/http"
	"time"

	"agrovet-ledger/internal/domain"
	"agrovet-ledger/internal/repository"
	"agrovet-ledger/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Ledger interface {
	CreateDebt(ctx context.Context, in service.CreateDebtInput) (int64, error)
	RecordPayment(ctx context.Context, in service.RecordPaymentInput) (service.PaymentReceipt, error)
	GetDebt(ctx context.Context, debtID int64) (domain.Debt, error)
	ListDebts(ctx context.Context, f repository.DebtsFilter) ([]domain.Debt, error)
	GetClientSummary(ctx context.Context, clientID int64) (service.ClientSummary, error)
}

type PaymentLister interface {
	ListPayments(ctx context.Context, f repository.PaymentsFilter) ([]domain.Payment, error)
}

type Exporter interface {
	StartDebtsExport(ctx context.Context, selected []string, filter repository.DebtsFilter, requestedBy int64) (string, error)
	StartPaymentsExport(ctx context.Context, selected []string, filter repository.PaymentsFilter, requestedBy int64) (string, error)
	GetExports(ctx context.Context) ([]service.ExportStatus, error)
	GetExport(ctx context.Context, exportID string) (service.ExportStatus, error)
}

type Handler struct {
	ledger   Ledger
	payments PaymentLister
	exports  Exporter
}

func NewHandler(ledger Ledger, payments PaymentLister, exports Exporter) *Handler {
	return &Handler{
		ledger:   ledger,
		payments: payments,
		exports:  exports,
	}
}

func (h *Handler) InitRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		Success(w, "ok", nil)
	})

	r.Route("/debts", func(r chi.Router) {
		r.Post("/", h.createDebt)
		r.Get("/", h.listDebts)
		r.Get("/summary", h.clientSummary)
		r.Get("/{debt_id}", h.getDebt)
		r.Post("/{debt_id}/payments", h.recordPayment)
		r.Get("/{debt_id}/payments", h.listDebtPayments)
	})

	r.Get("/payments", h.listPayments)

	r.Route("/export", func(r chi.Router) {
		r.Get("/", h.listExports)
		r.Get("/{export_id}", h.getExport)
		r.Post("/debts", h.exportDebts)
		r.Post("/payments", h.exportPayments)
	})

	return r
}
