package accounts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account model. BalanceEstimate is a locally derived running total owned
// by the ledger writer; account CRUD never mutates it.
type Account struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"-"`
	Name            string          `json:"name"`
	Type            string          `json:"type"`
	Last4           string          `json:"last4,omitempty"`
	BalanceEstimate decimal.Decimal `json:"balanceEstimate"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// CreateAccountInput for opening a new account.
type CreateAccountInput struct {
	UserID int64
	Name   string
	Type   string
	Last4  string
}

// UpdateAccountInput for renaming or re-tagging an account.
type UpdateAccountInput struct {
	Name  string
	Type  string
	Last4 string
}
