package ingest

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/spendtrack/spendtrack/internal/proposals"
	"github.com/spendtrack/spendtrack/internal/shared"
)

type memoryStore struct {
	inserted []proposals.Proposal
}

func (s *memoryStore) Insert(ctx context.Context, p proposals.Proposal) (proposals.Proposal, error) {
	p.ID = int64(len(s.inserted) + 1)
	s.inserted = append(s.inserted, p)
	return p, nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestSubmitBuildsPendingProposal(t *testing.T) {
	store := &memoryStore{}
	g := NewGateway(store)

	amount := dec("25.50")
	p, err := g.Submit(context.Background(), Signal{
		UserID:      1,
		Merchant:    "Blue Bottle",
		Amount:      &amount,
		Currency:    "USD",
		AccountHint: "card ending 4321",
		RawPayload:  "Spent INR 25.50 at Blue Bottle on card ending 4321",
		Source:      "sms",
	})
	require.NoError(t, err)
	require.Equal(t, proposals.StatusPending, p.Status)
	require.Equal(t, "Add 25.5 for Blue Bottle?", p.DisplayText)
	require.Equal(t, "card ending 4321", p.AccountHint)
	require.Equal(t, "Spent INR 25.50 at Blue Bottle on card ending 4321", p.RawPayload)
	require.Len(t, store.inserted, 1)
}

func TestSubmitAcceptsSparseSignal(t *testing.T) {
	store := &memoryStore{}
	g := NewGateway(store)

	p, err := g.Submit(context.Background(), Signal{
		UserID:      1,
		AccountHint: "ending 4321",
	})
	require.NoError(t, err)
	require.Equal(t, proposals.StatusPending, p.Status)
	require.Empty(t, p.Merchant)
	require.Len(t, store.inserted, 1)
}

func TestSubmitWithoutAmountRendersZero(t *testing.T) {
	g := NewGateway(&memoryStore{})

	p, err := g.Submit(context.Background(), Signal{
		UserID:   1,
		Merchant: "Kiosk",
	})
	require.NoError(t, err)
	require.Nil(t, p.Amount)
	require.Equal(t, "Add 0 for Kiosk?", p.DisplayText)
}

func TestSubmitValidation(t *testing.T) {
	g := NewGateway(&memoryStore{})

	neg := dec("-3")
	_, err := g.Submit(context.Background(), Signal{
		UserID:   1,
		Amount:   &neg,
		Currency: "NOPE",
	})
	ve, ok := shared.AsValidationError(err)
	require.True(t, ok)
	require.Contains(t, ve.Fields, "amount")
	require.Contains(t, ve.Fields, "currency")
	require.NotContains(t, ve.Fields, "merchant")
}
