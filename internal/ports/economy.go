package ports

import "context"

// WalletUpdate represents a single currency change for a user.
// Negative amounts debit the wallet.
type WalletUpdate struct {
	UserID   string
	Amount   int64
	Metadata map[string]interface{}
}

// EconomyPort defines the interface for managing game currency.
type EconomyPort interface {
	// GetBalance retrieves the current chip balance for a user.
	GetBalance(ctx context.Context, userID string) (int64, error)

	// UpdateBalances applies wallet changes in order and stops at the first failure.
	// Used for entry-fee debits at hand start and reward payouts at game end.
	UpdateBalances(ctx context.Context, updates []WalletUpdate) error
}

// EntryFeeStore remembers which users paid the entry fee for a lobby so each pair is debited once.
type EntryFeeStore interface {
	// ClaimEntryFee records transactionID as userID's fee for lobbyID.
	// When a fee is already recorded it returns claimed=false and the recorded transaction id.
	ClaimEntryFee(ctx context.Context, lobbyID, userID, transactionID string) (existing string, claimed bool, err error)

	// ReleaseEntryFee drops the record so the next game in the lobby charges again.
	ReleaseEntryFee(ctx context.Context, lobbyID, userID string) error
}
