package service

import (
	"context"

	"agrovet-ledger/internal/domain"
	"agrovet-ledger/internal/repository"
)

type PaymentRepository interface {
	List(ctx context.Context, f repository.PaymentsFilter) ([]domain.Payment, error)
}

// PaymentService is the read side of the ledger: the append-only payment log.
type PaymentService struct {
	repo PaymentRepository
}

func NewPaymentService(repo PaymentRepository) *PaymentService {
	return &PaymentService{repo: repo}
}

func (s *PaymentService) ListPayments(ctx context.Context, f repository.PaymentsFilter) ([]domain.Payment, error) {
	return s.repo.List(ctx, f)
}
