package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"euchre/internal/domain"
	"euchre/internal/ports"

	"github.com/google/uuid"
)

var (
	ErrNotConfigured = errors.New("ledger service not configured")
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrMissingUser   = errors.New("user id is required")
	ErrMissingLobby  = errors.New("lobby id is required")
)

const (
	reasonEntryFee = "entry_fee"
	reasonReward   = "game_reward"
)

// BalanceCheck is the advisory answer to "can this player afford the table".
type BalanceCheck struct {
	HasSufficientBalance bool  `json:"has_sufficient_balance"`
	CurrentBalance       int64 `json:"current_balance"`
}

// Transaction describes one wallet movement made by this service.
type Transaction struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	LobbyID   string    `json:"lobby_id"`
	Amount    int64     `json:"amount"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// EntryFeeReceipt reports the outcome of an entry-fee debit.
type EntryFeeReceipt struct {
	Success bool  `json:"success"`
	Balance int64 `json:"balance"`
	// AlreadyPaid is set when the fee for this lobby was taken earlier; nothing is debited.
	AlreadyPaid bool         `json:"already_paid,omitempty"`
	Transaction *Transaction `json:"transaction,omitempty"`
}

// Service wraps the economy port with the table's check-balance, entry-fee and payout rules.
type Service struct {
	economy ports.EconomyPort
	fees    ports.EntryFeeStore
	now     func() time.Time
	newID   func() string
}

// NewService constructs a ledger service over economy.
func NewService(economy ports.EconomyPort) *Service {
	return &Service{
		economy: economy,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// WithEntryFeeStore makes DeductEntryFee charge each (lobby, user) pair at most once.
func (s *Service) WithEntryFeeStore(store ports.EntryFeeStore) *Service {
	s.fees = store
	return s
}

// CheckBalance reports whether userID holds at least amount. The answer is advisory;
// only DeductEntryFee moves chips.
func (s *Service) CheckBalance(ctx context.Context, userID string, amount int64) (BalanceCheck, error) {
	if s == nil || s.economy == nil {
		return BalanceCheck{}, ErrNotConfigured
	}
	if userID == "" {
		return BalanceCheck{}, ErrMissingUser
	}
	if amount < 0 {
		return BalanceCheck{}, ErrInvalidAmount
	}

	balance, err := s.economy.GetBalance(ctx, userID)
	if err != nil {
		return BalanceCheck{}, fmt.Errorf("failed to read balance: %w", err)
	}
	return BalanceCheck{HasSufficientBalance: balance >= amount, CurrentBalance: balance}, nil
}

// DeductEntryFee debits fee from userID for lobbyID.
// An insufficient balance yields Success=false without an error; port failures return an error.
func (s *Service) DeductEntryFee(ctx context.Context, userID, lobbyID string, fee int64) (EntryFeeReceipt, error) {
	if s == nil || s.economy == nil {
		return EntryFeeReceipt{}, ErrNotConfigured
	}
	if userID == "" {
		return EntryFeeReceipt{}, ErrMissingUser
	}
	if lobbyID == "" {
		return EntryFeeReceipt{}, ErrMissingLobby
	}
	if fee <= 0 {
		return EntryFeeReceipt{}, ErrInvalidAmount
	}

	tx := &Transaction{
		ID:        s.newID(),
		UserID:    userID,
		LobbyID:   lobbyID,
		Amount:    -fee,
		Reason:    reasonEntryFee,
		CreatedAt: s.now().UTC(),
	}

	if s.fees != nil {
		existing, claimed, err := s.fees.ClaimEntryFee(ctx, lobbyID, userID, tx.ID)
		if err != nil {
			return EntryFeeReceipt{}, fmt.Errorf("failed to record entry fee: %w", err)
		}
		if !claimed {
			balance, err := s.economy.GetBalance(ctx, userID)
			if err != nil {
				return EntryFeeReceipt{}, fmt.Errorf("failed to read balance: %w", err)
			}
			tx.ID = existing
			return EntryFeeReceipt{Success: true, Balance: balance, AlreadyPaid: true, Transaction: tx}, nil
		}
	}

	balance, err := s.economy.GetBalance(ctx, userID)
	if err != nil {
		return EntryFeeReceipt{}, s.release(ctx, lobbyID, userID, fmt.Errorf("failed to read balance: %w", err))
	}
	if balance < fee {
		return EntryFeeReceipt{Success: false, Balance: balance}, s.release(ctx, lobbyID, userID, nil)
	}

	update := ports.WalletUpdate{UserID: userID, Amount: tx.Amount, Metadata: tx.metadata()}
	if err := s.economy.UpdateBalances(ctx, []ports.WalletUpdate{update}); err != nil {
		return EntryFeeReceipt{Success: false, Balance: balance}, s.release(ctx, lobbyID, userID, fmt.Errorf("failed to deduct entry fee: %w", err))
	}

	return EntryFeeReceipt{Success: true, Balance: balance - fee, Transaction: tx}, nil
}

// release undoes a fee claim for a debit that did not happen and returns cause
// joined with any release failure.
func (s *Service) release(ctx context.Context, lobbyID, userID string, cause error) error {
	if s.fees == nil {
		return cause
	}
	if err := s.fees.ReleaseEntryFee(ctx, lobbyID, userID); err != nil {
		return errors.Join(cause, fmt.Errorf("failed to release entry fee claim: %w", err))
	}
	return cause
}

// ClearEntryFees forgets the fees userIDs paid for lobbyID once the game they covered is over.
func (s *Service) ClearEntryFees(ctx context.Context, lobbyID string, userIDs []string) error {
	if s == nil || s.fees == nil {
		return nil
	}
	var errs []error
	for _, userID := range userIDs {
		if err := s.fees.ReleaseEntryFee(ctx, lobbyID, userID); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", userID, err))
		}
	}
	return errors.Join(errs...)
}

// CreditReward splits the result's reward between the winning seats. An odd chip goes to
// the team's first seat. payable filters out seats that hold no wallet (bots). A tie pays nothing.
func (s *Service) CreditReward(ctx context.Context, lobbyID string, result domain.GameResult, seats [domain.SeatCount]string, payable func(userID string) bool) ([]Transaction, error) {
	if s == nil || s.economy == nil {
		return nil, ErrNotConfigured
	}
	winner, ok := result.WinningTeam()
	if !ok || result.Reward <= 0 {
		return nil, nil
	}

	share := result.Reward / int64(len(winner.Seats))
	remainder := result.Reward % int64(len(winner.Seats))
	var (
		txs     []Transaction
		updates []ports.WalletUpdate
	)
	for i, seat := range winner.Seats {
		amount := share
		if i == 0 {
			amount += remainder
		}
		userID := seats[seat]
		if userID == "" || (payable != nil && !payable(userID)) {
			continue
		}
		tx := Transaction{
			ID:        s.newID(),
			UserID:    userID,
			LobbyID:   lobbyID,
			Amount:    amount,
			Reason:    reasonReward,
			CreatedAt: s.now().UTC(),
		}
		txs = append(txs, tx)
		updates = append(updates, ports.WalletUpdate{UserID: userID, Amount: amount, Metadata: tx.metadata()})
	}
	if len(updates) == 0 {
		return nil, nil
	}
	if err := s.economy.UpdateBalances(ctx, updates); err != nil {
		return nil, fmt.Errorf("failed to credit reward: %w", err)
	}
	return txs, nil
}

func (t *Transaction) metadata() map[string]interface{} {
	return map[string]interface{}{
		"transaction_id": t.ID,
		"lobby_id":       t.LobbyID,
		"reason":         t.Reason,
	}
}
