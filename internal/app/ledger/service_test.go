package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"euchre/internal/domain"
	"euchre/internal/ports"
)

type fakeEconomy struct {
	balances  map[string]int64
	getErr    error
	updateErr error
	updates   []ports.WalletUpdate
}

func newFakeEconomy(balances map[string]int64) *fakeEconomy {
	return &fakeEconomy{balances: balances}
}

func (f *fakeEconomy) GetBalance(ctx context.Context, userID string) (int64, error) {
	if f.getErr != nil {
		return 0, f.getErr
	}
	return f.balances[userID], nil
}

func (f *fakeEconomy) UpdateBalances(ctx context.Context, updates []ports.WalletUpdate) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	for _, u := range updates {
		f.balances[u.UserID] += u.Amount
		f.updates = append(f.updates, u)
	}
	return nil
}

// memoryFeeStore records claims in a map keyed by lobby and user.
type memoryFeeStore struct {
	claims     map[string]string
	claimErr   error
	releaseErr error
	released   []string
}

func newMemoryFeeStore() *memoryFeeStore {
	return &memoryFeeStore{claims: make(map[string]string)}
}

func (m *memoryFeeStore) ClaimEntryFee(ctx context.Context, lobbyID, userID, transactionID string) (string, bool, error) {
	if m.claimErr != nil {
		return "", false, m.claimErr
	}
	key := lobbyID + "/" + userID
	if existing, ok := m.claims[key]; ok {
		return existing, false, nil
	}
	m.claims[key] = transactionID
	return transactionID, true, nil
}

func (m *memoryFeeStore) ReleaseEntryFee(ctx context.Context, lobbyID, userID string) error {
	if m.releaseErr != nil {
		return m.releaseErr
	}
	key := lobbyID + "/" + userID
	delete(m.claims, key)
	m.released = append(m.released, key)
	return nil
}

func newTestService(economy ports.EconomyPort) *Service {
	s := NewService(economy)
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("tx-%d", n)
	}
	return s
}

func TestCheckBalance(t *testing.T) {
	economy := newFakeEconomy(map[string]int64{"u1": 500})
	s := newTestService(economy)

	tests := []struct {
		name   string
		amount int64
		want   bool
	}{
		{"below", 100, true},
		{"exact", 500, true},
		{"above", 501, false},
		{"zero", 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.CheckBalance(context.Background(), "u1", tc.amount)
			if err != nil {
				t.Fatalf("CheckBalance returned error: %v", err)
			}
			if got.HasSufficientBalance != tc.want {
				t.Errorf("HasSufficientBalance = %v, want %v", got.HasSufficientBalance, tc.want)
			}
			if got.CurrentBalance != 500 {
				t.Errorf("CurrentBalance = %d, want 500", got.CurrentBalance)
			}
		})
	}
	if len(economy.updates) != 0 {
		t.Fatalf("CheckBalance must not move chips, got %d updates", len(economy.updates))
	}
}

func TestCheckBalance_Errors(t *testing.T) {
	s := newTestService(newFakeEconomy(map[string]int64{}))
	if _, err := s.CheckBalance(context.Background(), "", 10); !errors.Is(err, ErrMissingUser) {
		t.Errorf("expected ErrMissingUser, got %v", err)
	}
	if _, err := s.CheckBalance(context.Background(), "u1", -1); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}

	boom := errors.New("storage down")
	failing := newFakeEconomy(map[string]int64{})
	failing.getErr = boom
	if _, err := newTestService(failing).CheckBalance(context.Background(), "u1", 10); !errors.Is(err, boom) {
		t.Errorf("expected wrapped port error, got %v", err)
	}

	var unset *Service
	if _, err := unset.CheckBalance(context.Background(), "u1", 10); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestDeductEntryFee_Success(t *testing.T) {
	economy := newFakeEconomy(map[string]int64{"u1": 1000})
	s := newTestService(economy)

	receipt, err := s.DeductEntryFee(context.Background(), "u1", "lobby-1", 250)
	if err != nil {
		t.Fatalf("DeductEntryFee returned error: %v", err)
	}
	if !receipt.Success {
		t.Fatal("expected success")
	}
	if receipt.Balance != 750 || economy.balances["u1"] != 750 {
		t.Fatalf("expected balance 750, got receipt=%d wallet=%d", receipt.Balance, economy.balances["u1"])
	}
	if receipt.Transaction == nil {
		t.Fatal("expected a transaction")
	}
	tx := receipt.Transaction
	if tx.ID != "tx-1" || tx.Amount != -250 || tx.LobbyID != "lobby-1" || tx.Reason != reasonEntryFee {
		t.Fatalf("unexpected transaction %+v", tx)
	}
	if got := economy.updates[0].Metadata["transaction_id"]; got != "tx-1" {
		t.Fatalf("wallet metadata transaction_id = %v", got)
	}
}

func TestDeductEntryFee_InsufficientBalance(t *testing.T) {
	economy := newFakeEconomy(map[string]int64{"u1": 100})
	s := newTestService(economy)

	receipt, err := s.DeductEntryFee(context.Background(), "u1", "lobby-1", 250)
	if err != nil {
		t.Fatalf("insufficient balance should not be an error: %v", err)
	}
	if receipt.Success || receipt.Transaction != nil {
		t.Fatalf("expected failed receipt, got %+v", receipt)
	}
	if receipt.Balance != 100 || len(economy.updates) != 0 {
		t.Fatalf("wallet should be untouched, balance=%d updates=%d", receipt.Balance, len(economy.updates))
	}
}

func TestDeductEntryFee_Errors(t *testing.T) {
	s := newTestService(newFakeEconomy(map[string]int64{"u1": 100}))
	tests := []struct {
		name    string
		user    string
		lobby   string
		fee     int64
		wantErr error
	}{
		{"missing user", "", "l", 10, ErrMissingUser},
		{"missing lobby", "u1", "", 10, ErrMissingLobby},
		{"zero fee", "u1", "l", 0, ErrInvalidAmount},
		{"negative fee", "u1", "l", -5, ErrInvalidAmount},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.DeductEntryFee(context.Background(), tc.user, tc.lobby, tc.fee); !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	boom := errors.New("write conflict")
	failing := newFakeEconomy(map[string]int64{"u1": 100})
	failing.updateErr = boom
	receipt, err := newTestService(failing).DeductEntryFee(context.Background(), "u1", "l", 10)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped update error, got %v", err)
	}
	if receipt.Success {
		t.Fatal("failed debit must not report success")
	}
}

func TestDeductEntryFee_ChargesLobbyOnce(t *testing.T) {
	economy := newFakeEconomy(map[string]int64{"u1": 1000})
	store := newMemoryFeeStore()
	s := newTestService(economy).WithEntryFeeStore(store)

	first, err := s.DeductEntryFee(context.Background(), "u1", "lobby-1", 100)
	if err != nil || !first.Success || first.AlreadyPaid {
		t.Fatalf("first debit: receipt=%+v err=%v", first, err)
	}
	second, err := s.DeductEntryFee(context.Background(), "u1", "lobby-1", 100)
	if err != nil {
		t.Fatalf("second debit returned error: %v", err)
	}
	if !second.Success || !second.AlreadyPaid || second.Balance != 900 {
		t.Fatalf("expected already-paid receipt at 900, got %+v", second)
	}
	if second.Transaction == nil || second.Transaction.ID != first.Transaction.ID {
		t.Fatalf("expected the original transaction %q, got %+v", first.Transaction.ID, second.Transaction)
	}
	if economy.balances["u1"] != 900 || len(economy.updates) != 1 {
		t.Fatalf("expected one debit, balance=%d updates=%d", economy.balances["u1"], len(economy.updates))
	}

	if _, err := s.DeductEntryFee(context.Background(), "u1", "lobby-2", 100); err != nil {
		t.Fatalf("other lobby: %v", err)
	}
	if economy.balances["u1"] != 800 {
		t.Fatalf("a different lobby charges again, got %d", economy.balances["u1"])
	}

	if err := s.ClearEntryFees(context.Background(), "lobby-1", []string{"u1"}); err != nil {
		t.Fatalf("ClearEntryFees: %v", err)
	}
	again, err := s.DeductEntryFee(context.Background(), "u1", "lobby-1", 100)
	if err != nil || again.AlreadyPaid || economy.balances["u1"] != 700 {
		t.Fatalf("cleared lobby should charge the next game: receipt=%+v err=%v balance=%d", again, err, economy.balances["u1"])
	}
}

func TestDeductEntryFee_ReleasesClaimWithoutDebit(t *testing.T) {
	economy := newFakeEconomy(map[string]int64{"u1": 50})
	store := newMemoryFeeStore()
	s := newTestService(economy).WithEntryFeeStore(store)

	receipt, err := s.DeductEntryFee(context.Background(), "u1", "lobby-1", 100)
	if err != nil || receipt.Success {
		t.Fatalf("expected insufficient balance, got receipt=%+v err=%v", receipt, err)
	}
	if len(store.claims) != 0 {
		t.Fatalf("claim must be released after a refused debit: %v", store.claims)
	}

	boom := errors.New("write conflict")
	economy.balances["u1"] = 500
	economy.updateErr = boom
	if _, err := s.DeductEntryFee(context.Background(), "u1", "lobby-1", 100); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped update error, got %v", err)
	}
	if len(store.claims) != 0 {
		t.Fatalf("claim must be released after a failed debit: %v", store.claims)
	}

	economy.updateErr = nil
	store.claimErr = errors.New("storage down")
	if _, err := s.DeductEntryFee(context.Background(), "u1", "lobby-1", 100); !errors.Is(err, store.claimErr) {
		t.Fatalf("expected claim error, got %v", err)
	}
	if economy.balances["u1"] != 500 {
		t.Fatalf("no debit without a claim, got %d", economy.balances["u1"])
	}
}

func TestClearEntryFees_WithoutStore(t *testing.T) {
	s := newTestService(newFakeEconomy(map[string]int64{}))
	if err := s.ClearEntryFees(context.Background(), "lobby-1", []string{"u1"}); err != nil {
		t.Fatalf("ClearEntryFees without a store: %v", err)
	}
}

func finishedResult(scoreA, scoreB int, reward int64) domain.GameResult {
	teams, _ := domain.AssembleTeams(-1)
	teams[domain.TeamA].AddPoints(scoreA)
	teams[domain.TeamB].AddPoints(scoreB)
	return domain.Finalize(teams[domain.TeamA], teams[domain.TeamB], reward)
}

func TestCreditReward_SplitsBetweenWinners(t *testing.T) {
	economy := newFakeEconomy(map[string]int64{})
	s := newTestService(economy)
	seats := [domain.SeatCount]string{"a0", "b1", "a2", "b3"}

	txs, err := s.CreditReward(context.Background(), "lobby-1", finishedResult(10, 6, 400), seats, nil)
	if err != nil {
		t.Fatalf("CreditReward returned error: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 payouts, got %d", len(txs))
	}
	if economy.balances["a0"] != 200 || economy.balances["a2"] != 200 {
		t.Fatalf("unexpected balances %+v", economy.balances)
	}
	if economy.balances["b1"] != 0 || economy.balances["b3"] != 0 {
		t.Fatalf("losers must not be paid: %+v", economy.balances)
	}
}

func TestCreditReward_SkipsBots(t *testing.T) {
	economy := newFakeEconomy(map[string]int64{})
	s := newTestService(economy)
	seats := [domain.SeatCount]string{"a0", "bot-1", "bot-2", "b3"}
	isHuman := func(id string) bool { return !strings.HasPrefix(id, "bot-") }

	txs, err := s.CreditReward(context.Background(), "lobby-1", finishedResult(11, 3, 400), seats, isHuman)
	if err != nil {
		t.Fatalf("CreditReward returned error: %v", err)
	}
	if len(txs) != 1 || txs[0].UserID != "a0" || txs[0].Amount != 200 {
		t.Fatalf("expected single payout of 200 to a0, got %+v", txs)
	}
}

func TestCreditReward_OddPotRemainderToFirstSeat(t *testing.T) {
	economy := newFakeEconomy(map[string]int64{})
	s := newTestService(economy)
	seats := [domain.SeatCount]string{"a0", "b1", "a2", "b3"}

	if _, err := s.CreditReward(context.Background(), "lobby-1", finishedResult(10, 2, 401), seats, nil); err != nil {
		t.Fatalf("CreditReward returned error: %v", err)
	}
	if economy.balances["a0"] != 201 || economy.balances["a2"] != 200 {
		t.Fatalf("expected 201/200 split, got %+v", economy.balances)
	}
}

func TestCreditReward_TiePaysNothing(t *testing.T) {
	economy := newFakeEconomy(map[string]int64{})
	s := newTestService(economy)
	seats := [domain.SeatCount]string{"a0", "b1", "a2", "b3"}

	txs, err := s.CreditReward(context.Background(), "lobby-1", finishedResult(10, 10, 400), seats, nil)
	if err != nil {
		t.Fatalf("CreditReward returned error: %v", err)
	}
	if len(txs) != 0 || len(economy.updates) != 0 {
		t.Fatalf("tie must not pay out, got %+v", txs)
	}
}
