package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spendtrack/spendtrack/internal/shared"
)

// Repository defines account data access.
type Repository interface {
	Create(ctx context.Context, input CreateAccountInput) (Account, error)
	Get(ctx context.Context, id int64) (Account, error)
	ListByUser(ctx context.Context, userID int64) ([]Account, error)
	Update(ctx context.Context, id int64, input UpdateAccountInput) (Account, error)
	Delete(ctx context.Context, id int64) error

	MatchSource
}

var _ Repository = (*pgRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const accountColumns = `id, user_id, name, type, last4, balance_estimate, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Last4, &a.BalanceEstimate, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *pgRepository) Create(ctx context.Context, input CreateAccountInput) (Account, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO accounts (user_id, name, type, last4)
VALUES ($1,$2,$3,$4) RETURNING `+accountColumns, input.UserID, input.Name, input.Type, input.Last4)
	return scanAccount(row)
}

func (r *pgRepository) Get(ctx context.Context, id int64) (Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.WrapNotFound("account")
		}
		return Account{}, err
	}
	return a, nil
}

func (r *pgRepository) ListByUser(ctx context.Context, userID int64) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE user_id=$1 ORDER BY id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *pgRepository) Update(ctx context.Context, id int64, input UpdateAccountInput) (Account, error) {
	row := r.pool.QueryRow(ctx, `UPDATE accounts SET name=$2, type=$3, last4=$4, updated_at=NOW()
WHERE id=$1 RETURNING `+accountColumns, id, input.Name, input.Type, input.Last4)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.WrapNotFound("account")
		}
		return Account{}, err
	}
	return a, nil
}

func (r *pgRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.WrapNotFound("account")
	}
	return nil
}

func (r *pgRepository) FindByUserAndLast4(ctx context.Context, userID int64, last4 string) (*Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts
WHERE user_id=$1 AND last4=$2 ORDER BY id ASC LIMIT 1`, userID, last4))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *pgRepository) FindFirstByUser(ctx context.Context, userID int64) (*Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts
WHERE user_id=$1 ORDER BY id ASC LIMIT 1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}
