package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("payments: not found")
	// ErrDuplicateMonth — уникальный индекс по (contractor_id, year, month)
	// для оплаченных строк не пропустил вставку. Так ловятся конкурентные
	// повторные доставки вебхука.
	ErrDuplicateMonth = errors.New("payments: month already paid")
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const paymentCols = `id, contractor_id, year, month, amount, paid_at,
	stripe_payment_intent_id, stripe_session_id, created_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	if err := row.Scan(
		&p.ID,
		&p.ContractorID,
		&p.Year,
		&p.Month,
		&p.Amount,
		&p.PaidAt,
		&p.StripePaymentIntentID,
		&p.StripeSessionID,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) ListByContractor(ctx context.Context, contractorID uuid.UUID) ([]Payment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+paymentCols+` FROM payments
		 WHERE contractor_id = $1
		 ORDER BY year DESC, month DESC`, contractorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// ExistsBySessionID: событие с этим checkout-сессией уже разнесено по леджеру.
// session_id служит ключом идемпотентности при повторной доставке.
func (r *Repo) ExistsBySessionID(ctx context.Context, sessionID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM payments WHERE stripe_session_id = $1)`,
		sessionID,
	).Scan(&exists)
	return exists, err
}

// InsertPaid пишет все строки одного события в одной транзакции:
// либо оплачены все выбранные месяцы, либо ни один. Нарушение уникальности
// оплаченного месяца откатывает транзакцию целиком.
func (r *Repo) InsertPaid(ctx context.Context, rows []Payment) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const q = `
		INSERT INTO payments (contractor_id, year, month, amount, paid_at,
			stripe_payment_intent_id, stripe_session_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`
	for i := range rows {
		p := &rows[i]
		if _, err := tx.Exec(ctx, q,
			p.ContractorID, p.Year, p.Month, p.Amount, p.PaidAt,
			p.StripePaymentIntentID, p.StripeSessionID,
		); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrDuplicateMonth
			}
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *Repo) GetLedgerRow(ctx context.Context, id uuid.UUID) (*LedgerRow, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT p.id, p.contractor_id, p.year, p.month, p.amount, p.paid_at,
		       p.stripe_payment_intent_id, p.stripe_session_id, p.created_at,
		       c.name, c.parking_number
		FROM payments p
		JOIN contractors c ON c.id = p.contractor_id
		WHERE p.id = $1`, id)

	var lr LedgerRow
	if err := row.Scan(
		&lr.ID,
		&lr.ContractorID,
		&lr.Year,
		&lr.Month,
		&lr.Amount,
		&lr.PaidAt,
		&lr.StripePaymentIntentID,
		&lr.StripeSessionID,
		&lr.CreatedAt,
		&lr.ContractorName,
		&lr.ParkingNumber,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &lr, nil
}

func (r *Repo) ListLedger(ctx context.Context) ([]LedgerRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.contractor_id, p.year, p.month, p.amount, p.paid_at,
		       p.stripe_payment_intent_id, p.stripe_session_id, p.created_at,
		       c.name, c.parking_number
		FROM payments p
		JOIN contractors c ON c.id = p.contractor_id
		ORDER BY c.parking_number, p.year, p.month`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LedgerRow
	for rows.Next() {
		var lr LedgerRow
		if err := rows.Scan(
			&lr.ID,
			&lr.ContractorID,
			&lr.Year,
			&lr.Month,
			&lr.Amount,
			&lr.PaidAt,
			&lr.StripePaymentIntentID,
			&lr.StripeSessionID,
			&lr.CreatedAt,
			&lr.ContractorName,
			&lr.ParkingNumber,
		); err != nil {
			return nil, err
		}
		out = append(out, lr)
	}
	return out, rows.Err()
}
