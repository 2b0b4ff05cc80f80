package contractors

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/parking-rent/internal/domain/billing"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const contractorCols = `id, name, parking_number,
	contract_start_year, contract_start_month,
	contract_end_year, contract_end_month,
	monthly_fee, created_at, updated_at`

func scanContractor(row pgx.Row) (*Contractor, error) {
	var c Contractor
	var endYear, endMonth *int
	if err := row.Scan(
		&c.ID,
		&c.Name,
		&c.ParkingNumber,
		&c.ContractStart.Year,
		&c.ContractStart.Month,
		&endYear,
		&endMonth,
		&c.MonthlyFee,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if endYear != nil && endMonth != nil {
		c.ContractEnd = &billing.YearMonth{Year: *endYear, Month: *endMonth}
	}
	return &c, nil
}

func endColumns(end *billing.YearMonth) (endYear, endMonth *int) {
	if end != nil {
		endYear, endMonth = &end.Year, &end.Month
	}
	return
}

func (r *Repo) Create(ctx context.Context, c *Contractor) (*Contractor, error) {
	endYear, endMonth := endColumns(c.ContractEnd)
	row := r.pool.QueryRow(ctx, `
		INSERT INTO contractors (name, parking_number,
			contract_start_year, contract_start_month,
			contract_end_year, contract_end_month, monthly_fee)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING `+contractorCols,
		c.Name, c.ParkingNumber,
		c.ContractStart.Year, c.ContractStart.Month,
		endYear, endMonth, c.MonthlyFee,
	)
	return scanContractor(row)
}

func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*Contractor, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+contractorCols+` FROM contractors WHERE id = $1`, id)
	c, err := scanContractor(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *Repo) List(ctx context.Context) ([]Contractor, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+contractorCols+` FROM contractors ORDER BY parking_number, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Contractor
	for rows.Next() {
		c, err := scanContractor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *Repo) ListByParkingNumber(ctx context.Context, parkingNumber string) ([]Contractor, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+contractorCols+` FROM contractors WHERE parking_number = $1`, parkingNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Contractor
	for rows.Next() {
		c, err := scanContractor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Update перезаписывает изменяемые поля целиком; слияние делает сервис.
func (r *Repo) Update(ctx context.Context, c *Contractor) (*Contractor, error) {
	endYear, endMonth := endColumns(c.ContractEnd)
	row := r.pool.QueryRow(ctx, `
		UPDATE contractors
		SET name = $2,
		    parking_number = $3,
		    contract_end_year = $4,
		    contract_end_month = $5,
		    monthly_fee = $6,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+contractorCols,
		c.ID, c.Name, c.ParkingNumber, endYear, endMonth, c.MonthlyFee,
	)
	updated, err := scanContractor(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return updated, nil
}

func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contractors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// HasPaidPayments: есть ли у контрагента оплаченные строки в леджере.
func (r *Repo) HasPaidPayments(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM payments WHERE contractor_id = $1 AND paid_at IS NOT NULL)`,
		id,
	).Scan(&exists)
	return exists, err
}
