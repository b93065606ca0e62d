package ingest

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/spendtrack/spendtrack/internal/proposals"
	"github.com/spendtrack/spendtrack/internal/shared"
)

// Signal is a raw spend notification from any upstream channel: a bank
// webhook, an SMS relay, a Kafka feed. Every field except UserID is
// optional; sparse signals still become proposals so the user can fill
// in the gaps at acceptance time. An unparseable amount upstream arrives
// as nil and is rendered as zero. RawPayload keeps the unprocessed
// upstream text alongside the parsed fields.
type Signal struct {
	UserID      int64
	Merchant    string
	Amount      *decimal.Decimal
	Currency    string
	AccountHint string
	RawPayload  string
	Source      string
}

// ProposalStore is the persistence surface the gateway needs.
type ProposalStore interface {
	Insert(ctx context.Context, p proposals.Proposal) (proposals.Proposal, error)
}

// Gateway turns signals into pending proposals. It never writes to the
// ledger; only an explicit acceptance does.
type Gateway struct {
	store ProposalStore
}

// NewGateway constructs a Gateway.
func NewGateway(store ProposalStore) *Gateway {
	return &Gateway{store: store}
}

// Submit validates a signal and records it as a pending proposal.
func (g *Gateway) Submit(ctx context.Context, sig Signal) (proposals.Proposal, error) {
	if err := validateSignal(sig); err != nil {
		return proposals.Proposal{}, err
	}
	return g.store.Insert(ctx, proposals.Proposal{
		UserID:      sig.UserID,
		Merchant:    sig.Merchant,
		Amount:      sig.Amount,
		Currency:    sig.Currency,
		AccountHint: sig.AccountHint,
		RawPayload:  sig.RawPayload,
		DisplayText: displayText(sig),
		Source:      sig.Source,
		Status:      proposals.StatusPending,
	})
}

func displayText(sig Signal) string {
	amount := "0"
	if sig.Amount != nil {
		amount = sig.Amount.String()
	}
	return fmt.Sprintf("Add %s for %s?", amount, sig.Merchant)
}

func validateSignal(sig Signal) error {
	fields := make(map[string]string)
	if sig.Amount != nil && sig.Amount.IsNegative() {
		fields["amount"] = "must not be negative"
	}
	if sig.Currency != "" {
		if _, err := currency.ParseISO(sig.Currency); err != nil {
			fields["currency"] = "not an ISO 4217 code"
		}
	}
	if len(fields) > 0 {
		return &shared.ValidationError{Fields: fields}
	}
	return nil
}
