package proposals

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spendtrack/spendtrack/internal/shared"
)

// Status tracks a proposal through its lifecycle. A proposal leaves
// PENDING exactly once; ACCEPTED and REJECTED are terminal.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
)

// ErrAlreadyHandled is returned when a response targets a proposal that
// has already been accepted or rejected. It maps to HTTP 409.
var ErrAlreadyHandled = fmt.Errorf("proposal already handled: %w", shared.ErrConflict)

// Proposal is a suggested transaction awaiting the user's decision.
// Amount is nil when the upstream signal carried no parseable amount.
type Proposal struct {
	ID          int64            `json:"id"`
	UserID      int64            `json:"-"`
	Merchant    string           `json:"merchant"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Currency    string           `json:"currency,omitempty"`
	AccountHint string           `json:"accountHint,omitempty"`
	RawPayload  string           `json:"rawPayload,omitempty"`
	DisplayText string           `json:"displayText"`
	Source      string           `json:"source,omitempty"`
	Status      Status           `json:"status"`
	CreatedAt   time.Time        `json:"createdAt"`
	RespondedAt *time.Time       `json:"respondedAt,omitempty"`
}

// AcceptResult reports the outcome of accepting a proposal: the terminal
// proposal plus the ledger entry id it produced.
type AcceptResult struct {
	Proposal Proposal `json:"proposal"`
	EntryID  int64    `json:"entryId"`
}
