package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubSource struct {
	accounts []Account
}

func (s *stubSource) FindByUserAndLast4(ctx context.Context, userID int64, last4 string) (*Account, error) {
	for i := range s.accounts {
		if s.accounts[i].UserID == userID && s.accounts[i].Last4 == last4 {
			return &s.accounts[i], nil
		}
	}
	return nil, nil
}

func (s *stubSource) FindFirstByUser(ctx context.Context, userID int64) (*Account, error) {
	for i := range s.accounts {
		if s.accounts[i].UserID == userID {
			return &s.accounts[i], nil
		}
	}
	return nil, nil
}

func TestMatcherPrefersDigitRun(t *testing.T) {
	m := NewMatcher(&stubSource{accounts: []Account{
		{ID: 1, UserID: 1, Name: "Default Cash"},
		{ID: 2, UserID: 1, Name: "Visa", Last4: "4321"},
	}})

	acct, err := m.Resolve(context.Background(), 1, "card ending 4321")
	require.NoError(t, err)
	require.NotNil(t, acct)
	require.Equal(t, int64(2), acct.ID)
}

func TestMatcherUsesFirstDigitRunOnly(t *testing.T) {
	m := NewMatcher(&stubSource{accounts: []Account{
		{ID: 1, UserID: 1, Name: "Default Cash"},
		{ID: 2, UserID: 1, Name: "Visa", Last4: "9876"},
	}})

	// "123" matches nothing, so resolution falls back to the first account
	// rather than trying later digit runs.
	acct, err := m.Resolve(context.Background(), 1, "acct 123 or 9876")
	require.NoError(t, err)
	require.NotNil(t, acct)
	require.Equal(t, int64(1), acct.ID)
}

func TestMatcherFallsBackWithoutDigits(t *testing.T) {
	m := NewMatcher(&stubSource{accounts: []Account{
		{ID: 7, UserID: 1, Name: "Default Cash"},
	}})

	acct, err := m.Resolve(context.Background(), 1, "my main card")
	require.NoError(t, err)
	require.NotNil(t, acct)
	require.Equal(t, int64(7), acct.ID)
}

func TestMatcherNoAccounts(t *testing.T) {
	m := NewMatcher(&stubSource{})

	acct, err := m.Resolve(context.Background(), 1, "card ending 4321")
	require.NoError(t, err)
	require.Nil(t, acct)
}

func TestMatcherIgnoresOtherUsers(t *testing.T) {
	m := NewMatcher(&stubSource{accounts: []Account{
		{ID: 3, UserID: 2, Name: "Visa", Last4: "4321"},
	}})

	acct, err := m.Resolve(context.Background(), 1, "ending 4321")
	require.NoError(t, err)
	require.Nil(t, acct)
}
