package proposals

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/spendtrack/spendtrack/internal/accounts"
	"github.com/spendtrack/spendtrack/internal/categories"
	"github.com/spendtrack/spendtrack/internal/ledger"
	"github.com/spendtrack/spendtrack/internal/platform/db"
	"github.com/spendtrack/spendtrack/internal/shared"
)

// Repository defines proposal data access.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error

	Insert(ctx context.Context, p Proposal) (Proposal, error)
	Get(ctx context.Context, id int64) (Proposal, error)
	ListPendingByUser(ctx context.Context, userID int64) ([]Proposal, error)
}

// TxRepository exposes the operations a proposal response needs inside a
// single transaction: the row lock and status flip on the proposal, plus
// the ledger insert and balance adjustment the acceptance produces. The
// account and category lookups run on the same connection so the matcher
// sees a consistent snapshot.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (Proposal, error)
	// MarkResponded flips a PENDING proposal to the given terminal status.
	// It reports false when the proposal was no longer pending.
	MarkResponded(ctx context.Context, id int64, status Status, at time.Time) (bool, error)

	InsertEntry(ctx context.Context, e ledger.Entry) (ledger.Entry, error)
	ApplyBalanceDelta(ctx context.Context, accountID int64, delta decimal.Decimal) error
	FindGlobalCategory(ctx context.Context, name string) (*categories.Category, error)

	accounts.MatchSource
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

const proposalColumns = `id, user_id, merchant, amount, currency, account_hint, raw_payload, display_text, source, status, created_at, responded_at`

func scanProposal(row pgx.Row) (Proposal, error) {
	var p Proposal
	err := row.Scan(&p.ID, &p.UserID, &p.Merchant, &p.Amount, &p.Currency, &p.AccountHint,
		&p.RawPayload, &p.DisplayText, &p.Source, &p.Status, &p.CreatedAt, &p.RespondedAt)
	return p, err
}

func (r *pgRepository) Insert(ctx context.Context, p Proposal) (Proposal, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO proposals
(user_id, merchant, amount, currency, account_hint, raw_payload, display_text, source, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id, created_at`,
		p.UserID, p.Merchant, p.Amount, p.Currency, p.AccountHint, p.RawPayload, p.DisplayText, p.Source, p.Status)
	if err := row.Scan(&p.ID, &p.CreatedAt); err != nil {
		return Proposal{}, err
	}
	return p, nil
}

func (r *pgRepository) Get(ctx context.Context, id int64) (Proposal, error) {
	p, err := scanProposal(r.pool.QueryRow(ctx, `SELECT `+proposalColumns+` FROM proposals WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Proposal{}, shared.WrapNotFound("proposal")
		}
		return Proposal{}, err
	}
	return p, nil
}

func (r *pgRepository) ListPendingByUser(ctx context.Context, userID int64) ([]Proposal, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+proposalColumns+` FROM proposals
WHERE user_id=$1 AND status=$2 ORDER BY created_at DESC, id DESC`, userID, StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type pgTxRepository struct {
	tx pgx.Tx
}

func (r *pgTxRepository) GetForUpdate(ctx context.Context, id int64) (Proposal, error) {
	p, err := scanProposal(r.tx.QueryRow(ctx, `SELECT `+proposalColumns+` FROM proposals WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Proposal{}, shared.WrapNotFound("proposal")
		}
		return Proposal{}, err
	}
	return p, nil
}

func (r *pgTxRepository) MarkResponded(ctx context.Context, id int64, status Status, at time.Time) (bool, error) {
	cmd, err := r.tx.Exec(ctx, `UPDATE proposals SET status=$2, responded_at=$3
WHERE id=$1 AND status=$4`, id, status, at, StatusPending)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *pgTxRepository) InsertEntry(ctx context.Context, e ledger.Entry) (ledger.Entry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO transactions
(user_id, account_id, category_id, merchant, amount, currency, type, source, txn_date)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id, created_at`,
		e.UserID, e.AccountID, e.CategoryID, e.Merchant, e.Amount, e.Currency, e.Type, e.Source, e.TxnDate)
	if err := row.Scan(&e.ID, &e.CreatedAt); err != nil {
		return ledger.Entry{}, err
	}
	return e, nil
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

func (r *pgTxRepository) FindByUserAndLast4(ctx context.Context, userID int64, last4 string) (*accounts.Account, error) {
	var a accounts.Account
	err := r.tx.QueryRow(ctx, `SELECT id, user_id, name, type, last4, balance_estimate, created_at, updated_at
FROM accounts WHERE user_id=$1 AND last4=$2 ORDER BY id ASC LIMIT 1`, userID, last4).
		Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Last4, &a.BalanceEstimate, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
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
