package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DebtStatus string

const (
	DebtStatusPending DebtStatus = "Pending"
	DebtStatusPaid    DebtStatus = "Paid"
)

// DueTermMonths is how long a client has to settle a debt, counted from creation.
const DueTermMonths = 2

const defaultDescription = "Deuda por venta"

type Debt struct {
	ID                   int64
	ClientID             int64
	ClientIdentityNumber string

	TotalAmount       decimal.Decimal
	OutstandingAmount decimal.Decimal

	Description string
	Status      DebtStatus

	CreatedAt time.Time
	DueAt     time.Time
}

// PaymentEvent describes what accepting a payment did to its debt.
type PaymentEvent string

const (
	EventBalanceReduced PaymentEvent = "balance_reduced"
	EventDebtSettled    PaymentEvent = "debt_settled"
)

// NewDebt builds a pending debt. The outstanding amount is caller-supplied
// (the point of sale knows how much of the sale was covered up front); a
// zero value falls back to the full total.
func NewDebt(clientID int64, identityNumber string, total, outstanding decimal.Decimal, description string, now time.Time) Debt {
	if outstanding.IsZero() {
		outstanding = total
	}
	if description == "" {
		description = defaultDescription
	}
	return Debt{
		ClientID:             clientID,
		ClientIdentityNumber: identityNumber,
		TotalAmount:          total,
		OutstandingAmount:    outstanding,
		Description:          description,
		Status:               DebtStatusPending,
		CreatedAt:            now,
		DueAt:                now.AddDate(0, DueTermMonths, 0),
	}
}

// ApplyPayment is the pure Pending→Paid transition. It returns the debt as it
// must look after accepting amount, plus the event the caller should publish.
// It never touches storage, so the state machine is testable on its own.
//
// A payment larger than the balance is accepted and the result floored at
// zero; callers that want strict rejection must check before applying.
func ApplyPayment(d Debt, amount decimal.Decimal) (Debt, PaymentEvent, error) {
	if !amount.IsPositive() {
		return d, "", &ValidationError{Field: "amount", Message: "amount must be a positive number"}
	}
	if d.Status == DebtStatusPaid {
		return d, "", ErrDebtAlreadySettled
	}

	newOutstanding := d.OutstandingAmount.Sub(amount)
	if newOutstanding.IsNegative() {
		newOutstanding = decimal.Zero
	}

	d.OutstandingAmount = newOutstanding
	event := EventBalanceReduced
	if newOutstanding.IsZero() {
		d.Status = DebtStatusPaid
		event = EventDebtSettled
	}
	return d, event, nil
}
