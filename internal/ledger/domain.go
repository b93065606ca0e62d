package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType enumerates the two signed directions of a ledger entry.
type EntryType string

const (
	TypeDebit  EntryType = "DEBIT"
	TypeCredit EntryType = "CREDIT"
)

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	return t == TypeDebit || t == TypeCredit
}

// Effect returns the signed delta an entry applies to its account's
// balance estimate: debit subtracts, credit adds.
func Effect(t EntryType, amount decimal.Decimal) decimal.Decimal {
	if t == TypeCredit {
		return amount
	}
	return amount.Neg()
}

// Entry is an immutable recorded transaction. AccountID is nil when no
// account could be resolved; CategoryID is never zero.
type Entry struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"-"`
	AccountID    *int64          `json:"accountId,omitempty"`
	CategoryID   int64           `json:"categoryId"`
	CategoryName string          `json:"categoryName,omitempty"`
	Merchant     string          `json:"merchant"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency,omitempty"`
	Type         EntryType       `json:"type"`
	Source       string          `json:"source,omitempty"`
	TxnDate      time.Time       `json:"txnDate"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// WriteInput describes a ledger write. A nil AccountID falls back to the
// user's first account; a nil CategoryID falls back to the global default.
type WriteInput struct {
	UserID     int64
	AccountID  *int64
	CategoryID *int64
	Merchant   string
	Amount     decimal.Decimal
	Currency   string
	Type       EntryType
	Source     string
	TxnDate    time.Time
}

// UpdateInput describes a corrective edit. A nil CategoryID keeps the
// entry's existing category.
type UpdateInput struct {
	Merchant   string
	Amount     decimal.Decimal
	Currency   string
	Type       EntryType
	CategoryID *int64
	Source     string
}

// ListRequest filters and paginates the user's ledger.
type ListRequest struct {
	Page       int
	PerPage    int
	CategoryID *int64
}
