package ledger

import (
	"context"
	"errors"
	"time"

	"golang.org/x/text/currency"

	"github.com/spendtrack/spendtrack/internal/categories"
	"github.com/spendtrack/spendtrack/internal/shared"
)

// ErrDefaultCategoryMissing signals the global fallback category is absent.
// This is a deployment defect, surfaced as an internal error, never as a
// user-facing retryable failure.
var ErrDefaultCategoryMissing = errors.New("ledger: default category missing")

const maxMerchantLen = 255

// Service is the ledger writer: it creates entries and keeps each
// account's balance estimate consistent with the sum of entry effects.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// WithNow overrides the clock, used by tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create persists a ledger entry and adjusts the resolved account's
// balance in the same transaction. With no explicit account the user's
// first account is used; with no account at all the entry is recorded
// without a balance mutation.
func (s *Service) Create(ctx context.Context, input WriteInput) (Entry, error) {
	if err := validateWrite(input); err != nil {
		return Entry{}, err
	}
	if input.TxnDate.IsZero() {
		input.TxnDate = s.now()
	}

	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		accountID, err := s.resolveAccount(ctx, tx, input)
		if err != nil {
			return err
		}
		categoryID, err := resolveCategory(ctx, tx, input.UserID, input.CategoryID)
		if err != nil {
			return err
		}
		inserted, err := tx.InsertEntry(ctx, Entry{
			UserID:     input.UserID,
			AccountID:  accountID,
			CategoryID: categoryID,
			Merchant:   input.Merchant,
			Amount:     input.Amount,
			Currency:   input.Currency,
			Type:       input.Type,
			Source:     input.Source,
			TxnDate:    input.TxnDate,
		})
		if err != nil {
			return err
		}
		if accountID != nil {
			if err := tx.ApplyBalanceDelta(ctx, *accountID, Effect(input.Type, input.Amount)); err != nil {
				return err
			}
		}
		entry = inserted
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Get returns an entry owned by the user.
func (s *Service) Get(ctx context.Context, userID, id int64) (Entry, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if e.UserID != userID {
		return Entry{}, shared.WrapNotFound("transaction")
	}
	return e, nil
}

// List returns a page of the user's entries, newest first.
func (s *Service) List(ctx context.Context, userID int64, req ListRequest) ([]Entry, shared.Pagination, error) {
	entries, total, err := s.repo.List(ctx, userID, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return entries, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// Update applies a corrective edit: the prior balance effect is reversed
// and the new one applied inside the same transaction, so the account
// never drifts from the sum of its entries.
func (s *Service) Update(ctx context.Context, userID, id int64, input UpdateInput) (Entry, error) {
	if err := validateUpdate(input); err != nil {
		return Entry{}, err
	}

	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.UserID != userID {
			return shared.WrapNotFound("transaction")
		}

		categoryID := current.CategoryID
		if input.CategoryID != nil {
			resolved, err := resolveCategory(ctx, tx, userID, input.CategoryID)
			if err != nil {
				return err
			}
			categoryID = resolved
		}

		if current.AccountID != nil {
			if err := tx.ApplyBalanceDelta(ctx, *current.AccountID, Effect(current.Type, current.Amount).Neg()); err != nil {
				return err
			}
		}

		current.Merchant = input.Merchant
		current.Amount = input.Amount
		current.Currency = input.Currency
		current.Type = input.Type
		current.CategoryID = categoryID
		if input.Source != "" {
			current.Source = input.Source
		}
		if err := tx.UpdateEntry(ctx, current); err != nil {
			return err
		}

		if current.AccountID != nil {
			if err := tx.ApplyBalanceDelta(ctx, *current.AccountID, Effect(current.Type, current.Amount)); err != nil {
				return err
			}
		}
		entry = current
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Delete removes an entry, reversing its balance effect first.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.UserID != userID {
			return shared.WrapNotFound("transaction")
		}
		if current.AccountID != nil {
			if err := tx.ApplyBalanceDelta(ctx, *current.AccountID, Effect(current.Type, current.Amount).Neg()); err != nil {
				return err
			}
		}
		return tx.DeleteEntry(ctx, id)
	})
}

func (s *Service) resolveAccount(ctx context.Context, tx TxRepository, input WriteInput) (*int64, error) {
	if input.AccountID != nil {
		acct, err := tx.GetAccount(ctx, *input.AccountID)
		if err != nil {
			return nil, err
		}
		if acct.UserID != input.UserID {
			return nil, shared.WrapNotFound("account")
		}
		return &acct.ID, nil
	}
	acct, err := tx.FindFirstByUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, nil
	}
	return &acct.ID, nil
}

func resolveCategory(ctx context.Context, tx TxRepository, userID int64, categoryID *int64) (int64, error) {
	if categoryID != nil {
		c, err := tx.GetCategory(ctx, *categoryID)
		if err != nil {
			return 0, err
		}
		if c.UserID != nil && *c.UserID != userID {
			return 0, shared.WrapNotFound("category")
		}
		return c.ID, nil
	}
	def, err := tx.FindGlobalCategory(ctx, categories.DefaultName)
	if err != nil {
		return 0, err
	}
	if def == nil {
		return 0, ErrDefaultCategoryMissing
	}
	return def.ID, nil
}

func validateWrite(input WriteInput) error {
	fields := make(map[string]string)
	if input.Merchant == "" {
		fields["merchant"] = "required"
	}
	if len(input.Merchant) > maxMerchantLen {
		fields["merchant"] = "too long"
	}
	if !input.Amount.IsPositive() {
		fields["amount"] = "must be positive"
	}
	if !input.Type.Valid() {
		fields["type"] = "must be DEBIT or CREDIT"
	}
	if input.Currency != "" {
		if _, err := currency.ParseISO(input.Currency); err != nil {
			fields["currency"] = "not an ISO 4217 code"
		}
	}
	if len(fields) > 0 {
		return &shared.ValidationError{Fields: fields}
	}
	return nil
}

func validateUpdate(input UpdateInput) error {
	return validateWrite(WriteInput{
		Merchant: input.Merchant,
		Amount:   input.Amount,
		Currency: input.Currency,
		Type:     input.Type,
	})
}
