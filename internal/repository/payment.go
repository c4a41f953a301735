package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"agrovet-ledger/internal/domain"
)

type PaymentsFilter struct {
	DebtID   *int64
	Method   *string
	PaidFrom *time.Time
	PaidTo   *time.Time
}

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// List returns payments ascending by id, which is the order they were
// accepted in.
func (r *PaymentRepository) List(ctx context.Context, f PaymentsFilter) ([]domain.Payment, error) {
	base := `SELECT id, debt_id, amount, method, notes, paid_at FROM pagos_deuda`

	where := []string{"1=1"}
	args := []any{}
	i := 1

	if f.DebtID != nil {
		where = append(where, fmt.Sprintf("debt_id = $%d", i))
		args = append(args, *f.DebtID)
		i++
	}
	if f.Method != nil && *f.Method != "" {
		where = append(where, fmt.Sprintf("method = $%d", i))
		args = append(args, *f.Method)
		i++
	}
	if f.PaidFrom != nil {
		where = append(where, fmt.Sprintf("paid_at >= $%d", i))
		args = append(args, *f.PaidFrom)
		i++
	}
	if f.PaidTo != nil {
		where = append(where, fmt.Sprintf("paid_at <= $%d", i))
		args = append(args, *f.PaidTo)
		i++
	}

	query := base + " WHERE " + strings.Join(where, " AND ") + " ORDER BY id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.DebtID, &p.Amount, &p.Method, &p.Notes, &p.PaidAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
