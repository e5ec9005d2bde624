package ports

import "context"

// AccountPort updates account profiles.
type AccountPort interface {
	// UpdateProfile sets the username and display name of userID.
	UpdateProfile(ctx context.Context, userID, username, displayName string) error
}

// BankrollPort grants the starting chip stack that lets a new player pay table entry fees.
type BankrollPort interface {
	// GrantStarterChipsOnce credits amount the first time it is called for userID.
	// Returns granted=false when the chips were already granted.
	GrantStarterChipsOnce(ctx context.Context, userID string, amount int64, metadata map[string]interface{}) (bool, error)
}
