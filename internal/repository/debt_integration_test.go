package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"agrovet-ledger/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// startLedgerDB runs a throwaway postgres container with the ledger schema
// applied. Requires a reachable Docker daemon; skipped in short mode.
func startLedgerDB(t *testing.T) *sql.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping container-based test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "ledger",
			"POSTGRES_PASSWORD": "ledger",
			"POSTGRES_DB":       "ledger_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf(
		"host=%s port=%d user=ledger password=ledger dbname=ledger_test sslmode=disable",
		host, port.Int(),
	)
	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// the ready log can precede the server accepting TCP connections
	deadline := time.Now().Add(30 * time.Second)
	for {
		if err = db.Ping(); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("postgres never became reachable: %v", err)
		}
		time.Sleep(250 * time.Millisecond)
	}

	applySchema(t, db)
	return db
}

func applySchema(t *testing.T, db *sql.DB) {
	t.Helper()

	raw, err := os.ReadFile("../../schema.sql")
	require.NoError(t, err)

	for _, stmt := range strings.Split(string(raw), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("schema statement failed: %v\n%s", err, stmt)
		}
	}
}

func seedPendingDebt(t *testing.T, repo *DebtRepository, total, outstanding string) int64 {
	t.Helper()

	now := time.Now().UTC()
	id, err := repo.Create(context.Background(), domain.Debt{
		ClientID:             7,
		ClientIdentityNumber: "1102334455",
		TotalAmount:          dec(total),
		OutstandingAmount:    dec(outstanding),
		Description:          "Deuda por venta",
		Status:               domain.DebtStatusPending,
		CreatedAt:            now,
		DueAt:                now.AddDate(0, 2, 0),
	}, nil)
	require.NoError(t, err)
	return id
}

func TestRecordPayment_RollsBackWhenBalanceUpdateFails(t *testing.T) {
	db := startLedgerDB(t)
	repo := NewDebtRepository(db)
	debtID := seedPendingDebt(t, repo, "100", "100")

	// The returned balance breaks the outstanding <= total constraint, so
	// the UPDATE fails after the payment row was already inserted. The
	// transaction must roll back as a whole.
	_, _, err := repo.RecordPayment(context.Background(), debtID, func(current domain.Debt) (domain.Debt, domain.Payment, error) {
		current.OutstandingAmount = current.TotalAmount.Add(dec("1"))
		return current, domain.Payment{
			Amount: dec("40"),
			Method: "Efectivo",
			PaidAt: time.Now().UTC(),
		}, nil
	})
	require.Error(t, err)

	var payments int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM pagos_deuda WHERE debt_id = $1`, debtID,
	).Scan(&payments))
	assert.Equal(t, 0, payments, "payment row must not survive the failed balance update")

	after, err := repo.GetByID(context.Background(), debtID)
	require.NoError(t, err)
	assert.True(t, after.OutstandingAmount.Equal(dec("100")), "balance untouched after rollback")
	assert.Equal(t, domain.DebtStatusPending, after.Status)
}

func TestRecordPayment_ConcurrentPaymentsSerialize(t *testing.T) {
	db := startLedgerDB(t)
	repo := NewDebtRepository(db)
	debtID := seedPendingDebt(t, repo, "100", "100")

	apply := func(amount decimal.Decimal) func(domain.Debt) (domain.Debt, domain.Payment, error) {
		return func(current domain.Debt) (domain.Debt, domain.Payment, error) {
			next, _, err := domain.ApplyPayment(current, amount)
			if err != nil {
				return domain.Debt{}, domain.Payment{}, err
			}
			return next, domain.Payment{
				Amount: amount,
				Method: "Efectivo",
				PaidAt: time.Now().UTC(),
			}, nil
		}
	}

	// 70 and 60 against 100: whichever transaction lands second must see
	// the committed balance of the first, not the opening 100. If the row
	// lock failed to serialize them, one deduction would be lost and the
	// final balance would read 30 or 40.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, amount := range []decimal.Decimal{dec("70"), dec("60")} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, errs[i] = repo.RecordPayment(context.Background(), debtID, apply(amount))
		}()
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	after, err := repo.GetByID(context.Background(), debtID)
	require.NoError(t, err)
	assert.True(t, after.OutstandingAmount.IsZero(), "both deductions applied, floored at zero")
	assert.Equal(t, domain.DebtStatusPaid, after.Status)

	var rows int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM pagos_deuda WHERE debt_id = $1`, debtID,
	).Scan(&rows))
	assert.Equal(t, 2, rows, "each payment recorded exactly once")
}
