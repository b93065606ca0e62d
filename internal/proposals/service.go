package proposals

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spendtrack/spendtrack/internal/accounts"
	"github.com/spendtrack/spendtrack/internal/categories"
	"github.com/spendtrack/spendtrack/internal/ledger"
	"github.com/spendtrack/spendtrack/internal/shared"
)

// Service implements the proposal decision flow. Accepting a proposal
// resolves an account from the hint, writes a debit ledger entry and
// adjusts the account balance, all committed atomically with the status
// transition. The row lock on the proposal serializes racing responses.
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

// ListPending returns the user's open proposals, newest first.
func (s *Service) ListPending(ctx context.Context, userID int64) ([]Proposal, error) {
	return s.repo.ListPendingByUser(ctx, userID)
}

// Get returns a proposal owned by the user, whatever its status.
func (s *Service) Get(ctx context.Context, userID, id int64) (Proposal, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Proposal{}, err
	}
	if p.UserID != userID {
		return Proposal{}, shared.WrapNotFound("proposal")
	}
	return p, nil
}

// Accept converts a pending proposal into a ledger entry. A proposal
// belonging to another user is reported as not found, never as
// forbidden, so ids cannot be probed. A proposal that already left
// PENDING yields ErrAlreadyHandled.
func (s *Service) Accept(ctx context.Context, userID, id int64) (AcceptResult, error) {
	var result AcceptResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := s.lockPending(ctx, tx, userID, id)
		if err != nil {
			return err
		}

		acct, err := accounts.NewMatcher(tx).Resolve(ctx, userID, p.AccountHint)
		if err != nil {
			return err
		}

		def, err := tx.FindGlobalCategory(ctx, categories.DefaultName)
		if err != nil {
			return err
		}
		if def == nil {
			return ledger.ErrDefaultCategoryMissing
		}

		amount := decimal.Zero
		if p.Amount != nil {
			amount = *p.Amount
		}

		now := s.now()
		entry := ledger.Entry{
			UserID:     userID,
			CategoryID: def.ID,
			Merchant:   p.Merchant,
			Amount:     amount,
			Currency:   p.Currency,
			Type:       ledger.TypeDebit,
			Source:     p.Source,
			TxnDate:    now,
		}
		if acct != nil {
			entry.AccountID = &acct.ID
		}
		entry, err = tx.InsertEntry(ctx, entry)
		if err != nil {
			return err
		}
		if acct != nil {
			if err := tx.ApplyBalanceDelta(ctx, acct.ID, ledger.Effect(ledger.TypeDebit, amount)); err != nil {
				return err
			}
		}

		ok, err := tx.MarkResponded(ctx, id, StatusAccepted, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyHandled
		}

		p.Status = StatusAccepted
		p.RespondedAt = &now
		result = AcceptResult{Proposal: p, EntryID: entry.ID}
		return nil
	})
	if err != nil {
		return AcceptResult{}, err
	}
	return result, nil
}

// Reject marks a pending proposal rejected. No ledger entry is written
// and no balance moves.
func (s *Service) Reject(ctx context.Context, userID, id int64) (Proposal, error) {
	var out Proposal
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := s.lockPending(ctx, tx, userID, id)
		if err != nil {
			return err
		}

		now := s.now()
		ok, err := tx.MarkResponded(ctx, id, StatusRejected, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyHandled
		}

		p.Status = StatusRejected
		p.RespondedAt = &now
		out = p
		return nil
	})
	if err != nil {
		return Proposal{}, err
	}
	return out, nil
}

func (s *Service) lockPending(ctx context.Context, tx TxRepository, userID, id int64) (Proposal, error) {
	p, err := tx.GetForUpdate(ctx, id)
	if err != nil {
		return Proposal{}, err
	}
	if p.UserID != userID {
		return Proposal{}, shared.WrapNotFound("proposal")
	}
	if p.Status != StatusPending {
		return Proposal{}, ErrAlreadyHandled
	}
	return p, nil
}
