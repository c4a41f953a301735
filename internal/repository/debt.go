package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"agrovet-ledger/internal/domain"

	"github.com/shopspring/decimal"
)

type DebtsFilter struct {
	ClientID *int64
	Status   *domain.DebtStatus
}

type DebtRepository struct {
	db *sql.DB
}

func NewDebtRepository(db *sql.DB) *DebtRepository {
	return &DebtRepository{db: db}
}

const debtColumns = `id, client_id, client_identity_number, total_amount, outstanding_amount, description, status, created_at, due_at`

// Create inserts the debt and, when initial is non-nil, its point-of-sale
// payment in one transaction. A debt is never observable without its initial
// payment.
func (r *DebtRepository) Create(ctx context.Context, d domain.Debt, initial *domain.Payment) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin create debt tx: %w", err)
	}
	defer tx.Rollback()

	var debtID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO deudas (client_id, client_identity_number, total_amount, outstanding_amount, description, status, created_at, due_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		d.ClientID,
		d.ClientIdentityNumber,
		d.TotalAmount,
		d.OutstandingAmount,
		d.Description,
		d.Status,
		d.CreatedAt,
		d.DueAt,
	).Scan(&debtID)
	if err != nil {
		return 0, fmt.Errorf("insert debt: %w", err)
	}

	if initial != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO pagos_deuda (debt_id, amount, method, notes, paid_at)
			VALUES ($1, $2, $3, $4, $5)`,
			debtID,
			initial.Amount,
			initial.Method,
			initial.Notes,
			initial.PaidAt,
		)
		if err != nil {
			return 0, fmt.Errorf("insert initial payment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create debt tx: %w", err)
	}
	return debtID, nil
}

func (r *DebtRepository) GetByID(ctx context.Context, id int64) (domain.Debt, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+debtColumns+` FROM deudas WHERE id = $1`, id)

	d, err := scanDebt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Debt{}, domain.ErrDebtNotFound
	}
	if err != nil {
		return domain.Debt{}, fmt.Errorf("select debt %d: %w", id, err)
	}
	return d, nil
}

func (r *DebtRepository) List(ctx context.Context, f DebtsFilter) ([]domain.Debt, error) {
	base := `SELECT ` + debtColumns + ` FROM deudas`

	where := []string{"1=1"}
	args := []any{}
	i := 1

	if f.ClientID != nil {
		where = append(where, fmt.Sprintf("client_id = $%d", i))
		args = append(args, *f.ClientID)
		i++
	}
	if f.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", i))
		args = append(args, *f.Status)
		i++
	}

	query := base + " WHERE " + strings.Join(where, " AND ") + " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	defer rows.Close()

	var out []domain.Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// RecordPayment runs apply against the debt row under an exclusive lock.
// The SELECT ... FOR UPDATE serializes concurrent payments on the same debt:
// the second caller blocks until the first commits, then sees the committed
// balance. The payment insert and the balance update commit together or not
// at all.
func (r *DebtRepository) RecordPayment(
	ctx context.Context,
	debtID int64,
	apply func(domain.Debt) (domain.Debt, domain.Payment, error),
) (domain.Debt, domain.Payment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Debt{}, domain.Payment{}, fmt.Errorf("begin payment tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+debtColumns+` FROM deudas WHERE id = $1 FOR UPDATE`, debtID)

	current, err := scanDebt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Debt{}, domain.Payment{}, domain.ErrDebtNotFound
	}
	if err != nil {
		return domain.Debt{}, domain.Payment{}, fmt.Errorf("lock debt %d: %w", debtID, err)
	}

	updated, payment, err := apply(current)
	if err != nil {
		return domain.Debt{}, domain.Payment{}, err
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO pagos_deuda (debt_id, amount, method, notes, paid_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		debtID,
		payment.Amount,
		payment.Method,
		payment.Notes,
		payment.PaidAt,
	).Scan(&payment.ID)
	if err != nil {
		return domain.Debt{}, domain.Payment{}, fmt.Errorf("insert payment: %w", err)
	}
	payment.DebtID = debtID

	_, err = tx.ExecContext(ctx,
		`UPDATE deudas SET outstanding_amount = $1, status = $2 WHERE id = $3`,
		updated.OutstandingAmount, updated.Status, debtID)
	if err != nil {
		return domain.Debt{}, domain.Payment{}, fmt.Errorf("update debt balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Debt{}, domain.Payment{}, fmt.Errorf("commit payment tx: %w", err)
	}
	return updated, payment, nil
}

// OutstandingSummary aggregates a client's open debts.
func (r *DebtRepository) OutstandingSummary(ctx context.Context, clientID int64) (int64, decimal.Decimal, error) {
	var (
		count sql.NullInt64
		total decimal.NullDecimal
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(outstanding_amount), 0)
		FROM deudas
		WHERE client_id = $1 AND status = $2`,
		clientID, domain.DebtStatusPending,
	).Scan(&count, &total)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("summarize client %d: %w", clientID, err)
	}
	return count.Int64, total.Decimal, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDebt(row rowScanner) (domain.Debt, error) {
	var d domain.Debt
	err := row.Scan(
		&d.ID,
		&d.ClientID,
		&d.ClientIdentityNumber,
		&d.TotalAmount,
		&d.OutstandingAmount,
		&d.Description,
		&d.Status,
		&d.CreatedAt,
		&d.DueAt,
	)
	return d, err
}
