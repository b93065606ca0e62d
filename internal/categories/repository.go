package categories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spendtrack/spendtrack/internal/shared"
)

// Repository defines category data access.
type Repository interface {
	Create(ctx context.Context, input CreateCategoryInput) (Category, error)
	Get(ctx context.Context, id int64) (Category, error)
	ListVisible(ctx context.Context, userID int64) ([]Category, error)
	Update(ctx context.Context, id int64, input UpdateCategoryInput) (Category, error)
	Delete(ctx context.Context, id int64) error
	FindGlobalByName(ctx context.Context, name string) (*Category, error)
}

var _ Repository = (*pgRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const categoryColumns = `id, user_id, name, COALESCE(parent,''), created_at`

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Parent, &c.CreatedAt); err != nil {
		return Category{}, err
	}
	c.Global = c.UserID == nil
	return c, nil
}

func (r *pgRepository) Create(ctx context.Context, input CreateCategoryInput) (Category, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO categories (user_id, name, parent)
VALUES ($1,$2,NULLIF($3,'')) RETURNING `+categoryColumns, input.UserID, input.Name, input.Parent)
	return scanCategory(row)
}

func (r *pgRepository) Get(ctx context.Context, id int64) (Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, shared.WrapNotFound("category")
		}
		return Category{}, err
	}
	return c, nil
}

// ListVisible returns the user's categories plus the global ones.
func (r *pgRepository) ListVisible(ctx context.Context, userID int64) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories
WHERE user_id=$1 OR user_id IS NULL ORDER BY user_id NULLS FIRST, name ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *pgRepository) Update(ctx context.Context, id int64, input UpdateCategoryInput) (Category, error) {
	row := r.pool.QueryRow(ctx, `UPDATE categories SET name=$2, parent=NULLIF($3,'')
WHERE id=$1 RETURNING `+categoryColumns, id, input.Name, input.Parent)
	c, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, shared.WrapNotFound("category")
		}
		return Category{}, err
	}
	return c, nil
}

func (r *pgRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.WrapNotFound("category")
	}
	return nil
}

func (r *pgRepository) FindGlobalByName(ctx context.Context, name string) (*Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories
WHERE name=$1 AND user_id IS NULL LIMIT 1`, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
