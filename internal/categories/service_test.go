package categories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spendtrack/spendtrack/internal/shared"
)

type memoryRepo struct {
	cats   map[int64]Category
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{cats: make(map[int64]Category)}
}

func (r *memoryRepo) add(c Category) Category {
	r.nextID++
	c.ID = r.nextID
	c.Global = c.UserID == nil
	r.cats[c.ID] = c
	return c
}

func (r *memoryRepo) Create(ctx context.Context, input CreateCategoryInput) (Category, error) {
	return r.add(Category{UserID: &input.UserID, Name: input.Name, Parent: input.Parent}), nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Category, error) {
	c, ok := r.cats[id]
	if !ok {
		return Category{}, shared.WrapNotFound("category")
	}
	return c, nil
}

func (r *memoryRepo) ListVisible(ctx context.Context, userID int64) ([]Category, error) {
	var out []Category
	for _, c := range r.cats {
		if c.UserID == nil || *c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, input UpdateCategoryInput) (Category, error) {
	c, ok := r.cats[id]
	if !ok {
		return Category{}, shared.WrapNotFound("category")
	}
	c.Name = input.Name
	c.Parent = input.Parent
	r.cats[id] = c
	return c, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.cats[id]; !ok {
		return shared.WrapNotFound("category")
	}
	delete(r.cats, id)
	return nil
}

func (r *memoryRepo) FindGlobalByName(ctx context.Context, name string) (*Category, error) {
	for _, c := range r.cats {
		if c.UserID == nil && c.Name == name {
			return &c, nil
		}
	}
	return nil, nil
}

func ptr[T any](v T) *T { return &v }

func TestGetAllowsGlobalReads(t *testing.T) {
	repo := newMemoryRepo()
	global := repo.add(Category{Name: DefaultName})

	svc := NewService(repo)
	c, err := svc.Get(context.Background(), 1, global.ID)
	require.NoError(t, err)
	require.True(t, c.Global)
}

func TestGetForeignCategoryIsNotFound(t *testing.T) {
	repo := newMemoryRepo()
	other := repo.add(Category{UserID: ptr(int64(2)), Name: "Coffee"})

	svc := NewService(repo)
	_, err := svc.Get(context.Background(), 1, other.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGlobalCategoriesAreReadOnly(t *testing.T) {
	repo := newMemoryRepo()
	global := repo.add(Category{Name: DefaultName})

	svc := NewService(repo)
	_, err := svc.Update(context.Background(), 1, global.ID, UpdateCategoryInput{Name: "Renamed"})
	require.ErrorIs(t, err, shared.ErrNotFound)

	err = svc.Delete(context.Background(), 1, global.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateOwnCategory(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateCategoryInput{UserID: 1, Name: "Coffee"})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), 1, created.ID, UpdateCategoryInput{Name: "Drinks", Parent: "Food"})
	require.NoError(t, err)
	require.Equal(t, "Drinks", updated.Name)
	require.Equal(t, "Food", updated.Parent)
}

func TestListIncludesGlobalsAndOwn(t *testing.T) {
	repo := newMemoryRepo()
	repo.add(Category{Name: DefaultName})
	repo.add(Category{UserID: ptr(int64(1)), Name: "Coffee"})
	repo.add(Category{UserID: ptr(int64(2)), Name: "Other"})

	svc := NewService(repo)
	out, err := svc.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, out, 2)
}
