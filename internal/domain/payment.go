package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InitialPaymentNote tags the payment recorded at the point of sale together
// with the debt itself.
const InitialPaymentNote = "Abono inicial registrado en la venta"

type Payment struct {
	ID     int64
	DebtID int64

	Amount decimal.Decimal
	Method string
	Notes  string

	PaidAt time.Time
}
