package categories

import "time"

// DefaultName is the global fallback category assigned to ledger entries
// created without an explicit category. Its absence at ledger-write time
// is a fatal configuration error, not a user-facing one.
const DefaultName = "Uncategorized"

// Category is either global (UserID nil) or user-scoped.
type Category struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"-"`
	Name      string    `json:"name"`
	Parent    string    `json:"parent,omitempty"`
	Global    bool      `json:"global"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateCategoryInput for user-scoped categories.
type CreateCategoryInput struct {
	UserID int64
	Name   string
	Parent string
}

// UpdateCategoryInput renames a user-scoped category.
type UpdateCategoryInput struct {
	Name   string
	Parent string
}
