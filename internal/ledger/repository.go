package ledger

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/spendtrack/spendtrack/internal/accounts"
	"github.com/spendtrack/spendtrack/internal/categories"
	"github.com/spendtrack/spendtrack/internal/platform/db"
	"github.com/spendtrack/spendtrack/internal/shared"
)

// Repository defines ledger data access.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error

	Get(ctx context.Context, id int64) (Entry, error)
	List(ctx context.Context, userID int64, req ListRequest) ([]Entry, int, error)
}

// TxRepository exposes operations available within a transaction. It
// carries the account and category lookups the writer needs so the entry
// insert, the balance delta and the status bookkeeping commit as one unit.
type TxRepository interface {
	InsertEntry(ctx context.Context, e Entry) (Entry, error)
	GetEntryForUpdate(ctx context.Context, id int64) (Entry, error)
	UpdateEntry(ctx context.Context, e Entry) error
	DeleteEntry(ctx context.Context, id int64) error

	// ApplyBalanceDelta adjusts the account balance with a single atomic
	// UPDATE; no read-modify-write happens in application code.
	ApplyBalanceDelta(ctx context.Context, accountID int64, delta decimal.Decimal) error

	GetAccount(ctx context.Context, id int64) (accounts.Account, error)
	GetCategory(ctx context.Context, id int64) (categories.Category, error)
	FindGlobalCategory(ctx context.Context, name string) (*categories.Category, error)
	FindFirstByUser(ctx context.Context, userID int64) (*accounts.Account, error)
}

var (
	_ Repository   = (*pgRepository)(nil)
	_ TxRepository = (*pgTxRepository)(nil)
)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTxRepository{tx: tx})
	})
}

const entryColumns = `t.id, t.user_id, t.account_id, t.category_id, COALESCE(c.name,''), t.merchant, t.amount, t.currency, t.type, t.source, t.txn_date, t.created_at`

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.UserID, &e.AccountID, &e.CategoryID, &e.CategoryName,
		&e.Merchant, &e.Amount, &e.Currency, &e.Type, &e.Source, &e.TxnDate, &e.CreatedAt)
	return e, err
}

func (r *pgRepository) Get(ctx context.Context, id int64) (Entry, error) {
	e, err := scanEntry(r.pool.QueryRow(ctx, `SELECT `+entryColumns+`
FROM transactions t LEFT JOIN categories c ON c.id = t.category_id WHERE t.id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, shared.WrapNotFound("transaction")
		}
		return Entry{}, err
	}
	return e, nil
}

func (r *pgRepository) List(ctx context.Context, userID int64, req ListRequest) ([]Entry, int, error) {
	page := shared.NewPagination(req.Page, req.PerPage, 0)

	var total int
	var rows pgx.Rows
	var err error
	if req.CategoryID != nil {
		if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE user_id=$1 AND category_id=$2`,
			userID, *req.CategoryID).Scan(&total); err != nil {
			return nil, 0, err
		}
		rows, err = r.pool.Query(ctx, `SELECT `+entryColumns+`
FROM transactions t LEFT JOIN categories c ON c.id = t.category_id
WHERE t.user_id=$1 AND t.category_id=$2 ORDER BY t.txn_date DESC, t.id DESC LIMIT $3 OFFSET $4`,
			userID, *req.CategoryID, page.PerPage, page.Offset())
	} else {
		if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE user_id=$1`, userID).Scan(&total); err != nil {
			return nil, 0, err
		}
		rows, err = r.pool.Query(ctx, `SELECT `+entryColumns+`
FROM transactions t LEFT JOIN categories c ON c.id = t.category_id
WHERE t.user_id=$1 ORDER BY t.txn_date DESC, t.id DESC LIMIT $2 OFFSET $3`,
			userID, page.PerPage, page.Offset())
	}
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

type pgTxRepository struct {
	tx pgx.Tx
}

func (r *pgTxRepository) InsertEntry(ctx context.Context, e Entry) (Entry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO transactions
(user_id, account_id, category_id, merchant, amount, currency, type, source, txn_date)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id, created_at`,
		e.UserID, e.AccountID, e.CategoryID, e.Merchant, e.Amount, e.Currency, e.Type, e.Source, e.TxnDate)
	if err := row.Scan(&e.ID, &e.CreatedAt); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (r *pgTxRepository) GetEntryForUpdate(ctx context.Context, id int64) (Entry, error) {
	var e Entry
	err := r.tx.QueryRow(ctx, `SELECT id, user_id, account_id, category_id, merchant, amount, currency, type, source, txn_date, created_at
FROM transactions WHERE id=$1 FOR UPDATE`, id).
		Scan(&e.ID, &e.UserID, &e.AccountID, &e.CategoryID, &e.Merchant, &e.Amount, &e.Currency, &e.Type, &e.Source, &e.TxnDate, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, shared.WrapNotFound("transaction")
		}
		return Entry{}, err
	}
	return e, nil
}

func (r *pgTxRepository) UpdateEntry(ctx context.Context, e Entry) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE transactions
SET merchant=$2, amount=$3, currency=$4, type=$5, category_id=$6, source=$7 WHERE id=$1`,
		e.ID, e.Merchant, e.Amount, e.Currency, e.Type, e.CategoryID, e.Source)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.WrapNotFound("transaction")
	}
	return nil
}

func (r *pgTxRepository) DeleteEntry(ctx context.Context, id int64) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM transactions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.WrapNotFound("transaction")
	}
	return nil
}

func (r *pgTxRepository) ApplyBalanceDelta(ctx context.Context, accountID int64, delta decimal.Decimal) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE accounts
SET balance_estimate = balance_estimate + $2, updated_at = NOW() WHERE id=$1`, accountID, delta)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.WrapNotFound("account")
	}
	return nil
}

// Account and category lookups are duplicated from their home repositories
// so they run on this transaction's connection.

func (r *pgTxRepository) GetAccount(ctx context.Context, id int64) (accounts.Account, error) {
	var a accounts.Account
	err := r.tx.QueryRow(ctx, `SELECT id, user_id, name, type, last4, balance_estimate, created_at, updated_at
FROM accounts WHERE id=$1`, id).
		Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Last4, &a.BalanceEstimate, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accounts.Account{}, shared.WrapNotFound("account")
		}
		return accounts.Account{}, err
	}
	return a, nil
}

func (r *pgTxRepository) GetCategory(ctx context.Context, id int64) (categories.Category, error) {
	var c categories.Category
	err := r.tx.QueryRow(ctx, `SELECT id, user_id, name, COALESCE(parent,''), created_at FROM categories WHERE id=$1`, id).
		Scan(&c.ID, &c.UserID, &c.Name, &c.Parent, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return categories.Category{}, shared.WrapNotFound("category")
		}
		return categories.Category{}, err
	}
	c.Global = c.UserID == nil
	return c, nil
}

func (r *pgTxRepository) FindGlobalCategory(ctx context.Context, name string) (*categories.Category, error) {
	var c categories.Category
	err := r.tx.QueryRow(ctx, `SELECT id, user_id, name, COALESCE(parent,''), created_at FROM categories
WHERE name=$1 AND user_id IS NULL LIMIT 1`, name).
		Scan(&c.ID, &c.UserID, &c.Name, &c.Parent, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.Global = true
	return &c, nil
}

func (r *pgTxRepository) FindFirstByUser(ctx context.Context, userID int64) (*accounts.Account, error) {
	var a accounts.Account
	err := r.tx.QueryRow(ctx, `SELECT id, user_id, name, type, last4, balance_estimate, created_at, updated_at
FROM accounts WHERE user_id=$1 ORDER BY id ASC LIMIT 1`, userID).
		Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Last4, &a.BalanceEstimate, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}
