package ledger

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/spendtrack/spendtrack/internal/accounts"
	"github.com/spendtrack/spendtrack/internal/categories"
	"github.com/spendtrack/spendtrack/internal/shared"
)

type memoryRepo struct {
	entries  map[int64]Entry
	accounts []accounts.Account
	cats     map[int64]categories.Category
	globals  map[string]categories.Category
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	def := categories.Category{ID: 99, Name: categories.DefaultName, Global: true}
	return &memoryRepo{
		entries: make(map[int64]Entry),
		cats:    map[int64]categories.Category{def.ID: def},
		globals: map[string]categories.Category{def.Name: def},
	}
}

func (r *memoryRepo) addAccount(a accounts.Account) accounts.Account {
	r.nextID++
	a.ID = r.nextID
	r.accounts = append(r.accounts, a)
	return a
}

func (r *memoryRepo) addCategory(c categories.Category) categories.Category {
	r.nextID++
	c.ID = r.nextID
	r.cats[c.ID] = c
	return c
}

func (r *memoryRepo) accountByID(id int64) *accounts.Account {
	for i := range r.accounts {
		if r.accounts[i].ID == id {
			return &r.accounts[i]
		}
	}
	return nil
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Entry, error) {
	e, ok := r.entries[id]
	if !ok {
		return Entry{}, shared.WrapNotFound("transaction")
	}
	return e, nil
}

func (r *memoryRepo) List(ctx context.Context, userID int64, req ListRequest) ([]Entry, int, error) {
	var all []Entry
	for _, e := range r.entries {
		if e.UserID != userID {
			continue
		}
		if req.CategoryID != nil && e.CategoryID != *req.CategoryID {
			continue
		}
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].TxnDate.Equal(all[j].TxnDate) {
			return all[i].TxnDate.After(all[j].TxnDate)
		}
		return all[i].ID > all[j].ID
	})
	total := len(all)
	page := shared.NewPagination(req.Page, req.PerPage, total)
	offset := page.Offset()
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + page.PerPage
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (tx *memoryTx) InsertEntry(ctx context.Context, e Entry) (Entry, error) {
	tx.repo.nextID++
	e.ID = tx.repo.nextID
	e.CreatedAt = time.Now()
	tx.repo.entries[e.ID] = e
	return e, nil
}

func (tx *memoryTx) GetEntryForUpdate(ctx context.Context, id int64) (Entry, error) {
	return tx.repo.Get(ctx, id)
}

func (tx *memoryTx) UpdateEntry(ctx context.Context, e Entry) error {
	if _, ok := tx.repo.entries[e.ID]; !ok {
		return shared.WrapNotFound("transaction")
	}
	tx.repo.entries[e.ID] = e
	return nil
}

func (tx *memoryTx) DeleteEntry(ctx context.Context, id int64) error {
	if _, ok := tx.repo.entries[id]; !ok {
		return shared.WrapNotFound("transaction")
	}
	delete(tx.repo.entries, id)
	return nil
}

func (tx *memoryTx) ApplyBalanceDelta(ctx context.Context, accountID int64, delta decimal.Decimal) error {
	acct := tx.repo.accountByID(accountID)
	if acct == nil {
		return shared.WrapNotFound("account")
	}
	acct.BalanceEstimate = acct.BalanceEstimate.Add(delta)
	return nil
}

func (tx *memoryTx) GetAccount(ctx context.Context, id int64) (accounts.Account, error) {
	acct := tx.repo.accountByID(id)
	if acct == nil {
		return accounts.Account{}, shared.WrapNotFound("account")
	}
	return *acct, nil
}

func (tx *memoryTx) GetCategory(ctx context.Context, id int64) (categories.Category, error) {
	c, ok := tx.repo.cats[id]
	if !ok {
		return categories.Category{}, shared.WrapNotFound("category")
	}
	return c, nil
}

func (tx *memoryTx) FindGlobalCategory(ctx context.Context, name string) (*categories.Category, error) {
	if c, ok := tx.repo.globals[name]; ok {
		return &c, nil
	}
	return nil, nil
}

func (tx *memoryTx) FindFirstByUser(ctx context.Context, userID int64) (*accounts.Account, error) {
	for i := range tx.repo.accounts {
		if tx.repo.accounts[i].UserID == userID {
			return &tx.repo.accounts[i], nil
		}
	}
	return nil, nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCreateDebitAdjustsBalance(t *testing.T) {
	repo := newMemoryRepo()
	acct := repo.addAccount(accounts.Account{UserID: 1, Name: "Default Cash", BalanceEstimate: dec("100")})

	svc := NewService(repo)
	entry, err := svc.Create(context.Background(), WriteInput{
		UserID:   1,
		Merchant: "Grocer",
		Amount:   dec("12.75"),
		Type:     TypeDebit,
	})
	require.NoError(t, err)
	require.NotNil(t, entry.AccountID)
	require.Equal(t, acct.ID, *entry.AccountID)
	require.Equal(t, int64(99), entry.CategoryID)
	require.True(t, repo.accountByID(acct.ID).BalanceEstimate.Equal(dec("87.25")))
}

func TestCreateCreditAdjustsBalance(t *testing.T) {
	repo := newMemoryRepo()
	acct := repo.addAccount(accounts.Account{UserID: 1, Name: "Default Cash", BalanceEstimate: dec("100")})

	svc := NewService(repo)
	_, err := svc.Create(context.Background(), WriteInput{
		UserID:   1,
		Merchant: "Refund",
		Amount:   dec("30"),
		Type:     TypeCredit,
	})
	require.NoError(t, err)
	require.True(t, repo.accountByID(acct.ID).BalanceEstimate.Equal(dec("130")))
}

func TestCreateWithExplicitForeignAccountIsNotFound(t *testing.T) {
	repo := newMemoryRepo()
	other := repo.addAccount(accounts.Account{UserID: 2, Name: "Other"})

	svc := NewService(repo)
	_, err := svc.Create(context.Background(), WriteInput{
		UserID:    1,
		AccountID: &other.ID,
		Merchant:  "Grocer",
		Amount:    dec("5"),
		Type:      TypeDebit,
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateWithoutAccountsRecordsDetachedEntry(t *testing.T) {
	repo := newMemoryRepo()

	svc := NewService(repo)
	entry, err := svc.Create(context.Background(), WriteInput{
		UserID:   1,
		Merchant: "Street Food",
		Amount:   dec("3"),
		Type:     TypeDebit,
	})
	require.NoError(t, err)
	require.Nil(t, entry.AccountID)
}

func TestCreateMissingDefaultCategory(t *testing.T) {
	repo := newMemoryRepo()
	repo.globals = map[string]categories.Category{}
	repo.addAccount(accounts.Account{UserID: 1, Name: "Default Cash"})

	svc := NewService(repo)
	_, err := svc.Create(context.Background(), WriteInput{
		UserID:   1,
		Merchant: "Grocer",
		Amount:   dec("5"),
		Type:     TypeDebit,
	})
	require.ErrorIs(t, err, ErrDefaultCategoryMissing)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), WriteInput{
		UserID:   1,
		Merchant: "",
		Amount:   dec("-1"),
		Currency: "NOPE",
		Type:     EntryType("SIDEWAYS"),
	})
	ve, ok := shared.AsValidationError(err)
	require.True(t, ok)
	require.Contains(t, ve.Fields, "merchant")
	require.Contains(t, ve.Fields, "amount")
	require.Contains(t, ve.Fields, "currency")
	require.Contains(t, ve.Fields, "type")
}

func TestUpdateReversesAndReapplies(t *testing.T) {
	repo := newMemoryRepo()
	acct := repo.addAccount(accounts.Account{UserID: 1, Name: "Default Cash", BalanceEstimate: dec("100")})

	svc := NewService(repo)
	entry, err := svc.Create(context.Background(), WriteInput{
		UserID:   1,
		Merchant: "Grocer",
		Amount:   dec("20"),
		Type:     TypeDebit,
	})
	require.NoError(t, err)
	require.True(t, repo.accountByID(acct.ID).BalanceEstimate.Equal(dec("80")))

	updated, err := svc.Update(context.Background(), 1, entry.ID, UpdateInput{
		Merchant: "Grocer",
		Amount:   dec("35"),
		Type:     TypeDebit,
	})
	require.NoError(t, err)
	require.True(t, updated.Amount.Equal(dec("35")))
	require.True(t, repo.accountByID(acct.ID).BalanceEstimate.Equal(dec("65")))

	// Flipping the direction swings the balance by both amounts.
	_, err = svc.Update(context.Background(), 1, entry.ID, UpdateInput{
		Merchant: "Grocer",
		Amount:   dec("35"),
		Type:     TypeCredit,
	})
	require.NoError(t, err)
	require.True(t, repo.accountByID(acct.ID).BalanceEstimate.Equal(dec("135")))
}

func TestUpdateKeepsCategoryWhenOmitted(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(accounts.Account{UserID: 1, Name: "Default Cash"})
	custom := repo.addCategory(categories.Category{Name: "Coffee", UserID: ptr(int64(1))})

	svc := NewService(repo)
	entry, err := svc.Create(context.Background(), WriteInput{
		UserID:     1,
		CategoryID: &custom.ID,
		Merchant:   "Blue Bottle",
		Amount:     dec("4"),
		Type:       TypeDebit,
	})
	require.NoError(t, err)
	require.Equal(t, custom.ID, entry.CategoryID)

	updated, err := svc.Update(context.Background(), 1, entry.ID, UpdateInput{
		Merchant: "Blue Bottle",
		Amount:   dec("5"),
		Type:     TypeDebit,
	})
	require.NoError(t, err)
	require.Equal(t, custom.ID, updated.CategoryID)
}

func TestDeleteReversesBalance(t *testing.T) {
	repo := newMemoryRepo()
	acct := repo.addAccount(accounts.Account{UserID: 1, Name: "Default Cash", BalanceEstimate: dec("100")})

	svc := NewService(repo)
	entry, err := svc.Create(context.Background(), WriteInput{
		UserID:   1,
		Merchant: "Grocer",
		Amount:   dec("40"),
		Type:     TypeDebit,
	})
	require.NoError(t, err)
	require.True(t, repo.accountByID(acct.ID).BalanceEstimate.Equal(dec("60")))

	require.NoError(t, svc.Delete(context.Background(), 1, entry.ID))
	require.True(t, repo.accountByID(acct.ID).BalanceEstimate.Equal(dec("100")))

	_, err = svc.Get(context.Background(), 1, entry.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetForeignEntryIsNotFound(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(accounts.Account{UserID: 2, Name: "Other"})

	svc := NewService(repo)
	entry, err := svc.Create(context.Background(), WriteInput{
		UserID:   2,
		Merchant: "Grocer",
		Amount:   dec("5"),
		Type:     TypeDebit,
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), 1, entry.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListFiltersAndPaginates(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(accounts.Account{UserID: 1, Name: "Default Cash"})
	coffee := repo.addCategory(categories.Category{Name: "Coffee", UserID: ptr(int64(1))})

	svc := NewService(repo)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		catID := &coffee.ID
		if i%2 == 1 {
			catID = nil
		}
		_, err := svc.Create(context.Background(), WriteInput{
			UserID:     1,
			CategoryID: catID,
			Merchant:   "Shop",
			Amount:     dec("1"),
			Type:       TypeDebit,
			TxnDate:    base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	entries, page, err := svc.List(context.Background(), 1, ListRequest{Page: 1, PerPage: 2})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, 5, page.Total)
	require.True(t, entries[0].TxnDate.After(entries[1].TxnDate))

	filtered, page, err := svc.List(context.Background(), 1, ListRequest{CategoryID: &coffee.ID})
	require.NoError(t, err)
	require.Len(t, filtered, 3)
	require.Equal(t, 3, page.Total)
}

func ptr[T any](v T) *T { return &v }
