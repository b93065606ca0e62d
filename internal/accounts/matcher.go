package accounts

import (
	"context"
	"regexp"
)

// MatchSource is the minimal lookup surface the matcher needs. Both the
// standalone account repository and transactional repositories in other
// modules implement it, so resolution can run inside an open transaction.
type MatchSource interface {
	FindByUserAndLast4(ctx context.Context, userID int64, last4 string) (*Account, error)
	FindFirstByUser(ctx context.Context, userID int64) (*Account, error)
}

var digitRun = regexp.MustCompile(`\d{3,4}`)

// Matcher resolves a free-text hint to one of the user's accounts.
type Matcher struct {
	src MatchSource
}

// NewMatcher constructs a Matcher over the given lookup source.
func NewMatcher(src MatchSource) *Matcher {
	return &Matcher{src: src}
}

// Resolve applies the hint heuristic: the first run of 3-4 consecutive
// digits is matched against the user's stored last4 tags; failing that,
// any account of the user is used. Returns nil when the user owns no
// accounts. An unmatched hint is never an error.
func (m *Matcher) Resolve(ctx context.Context, userID int64, hint string) (*Account, error) {
	if digits := digitRun.FindString(hint); digits != "" {
		acct, err := m.src.FindByUserAndLast4(ctx, userID, digits)
		if err != nil {
			return nil, err
		}
		if acct != nil {
			return acct, nil
		}
	}
	return m.src.FindFirstByUser(ctx, userID)
}
