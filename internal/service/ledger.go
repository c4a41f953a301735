package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"agrovet-ledger/internal/domain"
	"agrovet-ledger/internal/repository"

	"github.com/shopspring/decimal"
)

type DebtRepository interface {
	Create(ctx context.Context, d domain.Debt, initial *domain.Payment) (int64, error)
	GetByID(ctx context.Context, id int64) (domain.Debt, error)
	List(ctx context.Context, f repository.DebtsFilter) ([]domain.Debt, error)
	RecordPayment(ctx context.Context, debtID int64, apply func(domain.Debt) (domain.Debt, domain.Payment, error)) (domain.Debt, domain.Payment, error)
	OutstandingSummary(ctx context.Context, clientID int64) (int64, decimal.Decimal, error)
}

// SummaryCache is the slice of the redis client the ledger needs for the
// per-client summary.
type SummaryCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// LedgerNotifier pushes ledger events to connected clients.
type LedgerNotifier interface {
	NotifyPaymentRecorded(ctx context.Context, clientID, debtID int64, amount, outstanding decimal.Decimal) error
	NotifyDebtSettled(ctx context.Context, clientID, debtID int64) error
}

const (
	summaryTTL       = 5 * time.Minute
	defaultTxTimeout = 10 * time.Second
)

type LedgerService struct {
	repo      DebtRepository
	cache     SummaryCache
	notifier  LedgerNotifier
	txTimeout time.Duration
}

func NewLedgerService(repo DebtRepository, cache SummaryCache, notifier LedgerNotifier, txTimeout time.Duration) *LedgerService {
	if txTimeout <= 0 {
		txTimeout = defaultTxTimeout
	}
	return &LedgerService{
		repo:      repo,
		cache:     cache,
		notifier:  notifier,
		txTimeout: txTimeout,
	}
}

type CreateDebtInput struct {
	ClientID             int64
	ClientIdentityNumber string
	TotalSaleAmount      decimal.Decimal
	// nil means the caller left it out and the full total is owed. An
	// explicit zero is rejected: a fully covered sale is not a debt.
	OutstandingAmount    *decimal.Decimal
	InitialPaymentAmount decimal.Decimal
	Description          string
}

func (in CreateDebtInput) validate() error {
	if in.ClientID <= 0 {
		return &domain.ValidationError{Field: "client_id", Message: "client_id is required"}
	}
	if in.ClientIdentityNumber == "" {
		return &domain.ValidationError{Field: "client_identity_number", Message: "client_identity_number is required"}
	}
	if !in.TotalSaleAmount.IsPositive() {
		return &domain.ValidationError{Field: "total_sale_amount", Message: "total_sale_amount must be a positive number"}
	}
	if in.InitialPaymentAmount.IsNegative() {
		return &domain.ValidationError{Field: "initial_payment_amount", Message: "initial_payment_amount cannot be negative"}
	}
	if in.OutstandingAmount != nil {
		if !in.OutstandingAmount.IsPositive() || in.OutstandingAmount.GreaterThan(in.TotalSaleAmount) {
			return &domain.ValidationError{Field: "outstanding_amount", Message: "outstanding_amount must be greater than 0 and at most total_sale_amount"}
		}
	}
	return nil
}

// CreateDebt registers the debt left over from an under-paid sale. When the
// sale included a partial payment, that payment row is written in the same
// transaction as the debt.
func (s *LedgerService) CreateDebt(ctx context.Context, in CreateDebtInput) (int64, error) {
	if err := in.validate(); err != nil {
		return 0, err
	}

	outstanding := in.TotalSaleAmount
	if in.OutstandingAmount != nil {
		outstanding = *in.OutstandingAmount
	}

	now := time.Now().UTC()
	debt := domain.NewDebt(
		in.ClientID,
		in.ClientIdentityNumber,
		in.TotalSaleAmount,
		outstanding,
		in.Description,
		now,
	)

	var initial *domain.Payment
	if in.InitialPaymentAmount.IsPositive() {
		initial = &domain.Payment{
			Amount: in.InitialPaymentAmount,
			Method: "Efectivo",
			Notes:  domain.InitialPaymentNote,
			PaidAt: now,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	debtID, err := s.repo.Create(ctx, debt, initial)
	if err != nil {
		return 0, s.mapStoreErr(err)
	}

	s.invalidateSummary(ctx, in.ClientID)
	return debtID, nil
}

type RecordPaymentInput struct {
	DebtID int64
	Amount decimal.Decimal
	Method string
	Notes  string
}

// PaymentReceipt is the post-commit snapshot returned to the caller.
type PaymentReceipt struct {
	DebtID               int64
	AmountPaid           decimal.Decimal
	NewOutstandingAmount decimal.Decimal
	NewStatus            domain.DebtStatus
}

// RecordPayment appends a payment to a debt and moves the balance inside a
// single locked transaction, so two concurrent payments against the same debt
// serialize and neither deduction is lost.
func (s *LedgerService) RecordPayment(ctx context.Context, in RecordPaymentInput) (PaymentReceipt, error) {
	if in.DebtID <= 0 {
		return PaymentReceipt{}, &domain.ValidationError{Field: "debt_id", Message: "debt_id is required"}
	}
	if !in.Amount.IsPositive() {
		return PaymentReceipt{}, &domain.ValidationError{Field: "amount", Message: "amount must be a positive number"}
	}
	if in.Method == "" {
		return PaymentReceipt{}, &domain.ValidationError{Field: "method", Message: "method is required"}
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var event domain.PaymentEvent
	updated, payment, err := s.repo.RecordPayment(ctx, in.DebtID, func(current domain.Debt) (domain.Debt, domain.Payment, error) {
		next, ev, err := domain.ApplyPayment(current, in.Amount)
		if err != nil {
			return domain.Debt{}, domain.Payment{}, err
		}
		event = ev
		return next, domain.Payment{
			Amount: in.Amount,
			Method: in.Method,
			Notes:  in.Notes,
			PaidAt: time.Now().UTC(),
		}, nil
	})
	if err != nil {
		return PaymentReceipt{}, s.mapStoreErr(err)
	}

	s.invalidateSummary(ctx, updated.ClientID)
	s.publish(ctx, updated, payment, event)

	return PaymentReceipt{
		DebtID:               updated.ID,
		AmountPaid:           payment.Amount,
		NewOutstandingAmount: updated.OutstandingAmount,
		NewStatus:            updated.Status,
	}, nil
}

func (s *LedgerService) GetDebt(ctx context.Context, debtID int64) (domain.Debt, error) {
	if debtID <= 0 {
		return domain.Debt{}, &domain.ValidationError{Field: "debt_id", Message: "debt_id is required"}
	}
	d, err := s.repo.GetByID(ctx, debtID)
	if err != nil {
		return domain.Debt{}, s.mapStoreErr(err)
	}
	return d, nil
}

func (s *LedgerService) ListDebts(ctx context.Context, f repository.DebtsFilter) ([]domain.Debt, error) {
	debts, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	return debts, nil
}

// ClientSummary is the cached aggregate of a client's open debts.
type ClientSummary struct {
	ClientID         int64           `json:"client_id"`
	DebtCount        int64           `json:"debt_count"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
}

func summaryKey(clientID int64) string {
	return fmt.Sprintf("client_summary:%d", clientID)
}

// GetClientSummary answers "how much does this client owe" from a short-lived
// redis memo, falling through to the store on a miss.
func (s *LedgerService) GetClientSummary(ctx context.Context, clientID int64) (ClientSummary, error) {
	if clientID <= 0 {
		return ClientSummary{}, &domain.ValidationError{Field: "client_id", Message: "client_id is required"}
	}

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, summaryKey(clientID)); err == nil {
			var cached ClientSummary
			if err := json.Unmarshal([]byte(data), &cached); err == nil {
				return cached, nil
			}
		}
	}

	count, total, err := s.repo.OutstandingSummary(ctx, clientID)
	if err != nil {
		return ClientSummary{}, s.mapStoreErr(err)
	}

	summary := ClientSummary{ClientID: clientID, DebtCount: count, TotalOutstanding: total}

	if s.cache != nil {
		if data, err := json.Marshal(summary); err == nil {
			if err := s.cache.Set(ctx, summaryKey(clientID), string(data), summaryTTL); err != nil {
				log.Printf("[LEDGER] summary cache set failed for client %d: %v", clientID, err)
			}
		}
	}
	return summary, nil
}

func (s *LedgerService) invalidateSummary(ctx context.Context, clientID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, summaryKey(clientID)); err != nil {
		log.Printf("[LEDGER] summary cache invalidation failed for client %d: %v", clientID, err)
	}
}

func (s *LedgerService) publish(ctx context.Context, d domain.Debt, p domain.Payment, event domain.PaymentEvent) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyPaymentRecorded(ctx, d.ClientID, d.ID, p.Amount, d.OutstandingAmount); err != nil {
		log.Printf("[LEDGER] payment notification failed for debt %d: %v", d.ID, err)
	}
	if event == domain.EventDebtSettled {
		if err := s.notifier.NotifyDebtSettled(ctx, d.ClientID, d.ID); err != nil {
			log.Printf("[LEDGER] settlement notification failed for debt %d: %v", d.ID, err)
		}
	}
}

// mapStoreErr gives deadline hits their own identity so transport can answer
// 504 instead of a generic 500. Domain errors pass through untouched.
func (s *LedgerService) mapStoreErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrTransactionTimeout, err)
	}
	return err
}
