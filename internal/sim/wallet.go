package sim

import (
	"context"
	"sync"

	"euchre/internal/ports"
)

// memoryWallet is an in-process chip store for offline runs.
type memoryWallet struct {
	mu       sync.Mutex
	balances map[string]int64
}

func newMemoryWallet(userIDs []string, starting int64) *memoryWallet {
	w := &memoryWallet{balances: make(map[string]int64, len(userIDs))}
	for _, id := range userIDs {
		w.balances[id] = starting
	}
	return w
}

func (w *memoryWallet) GetBalance(ctx context.Context, userID string) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balances[userID], nil
}

func (w *memoryWallet) UpdateBalances(ctx context.Context, updates []ports.WalletUpdate) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, u := range updates {
		w.balances[u.UserID] += u.Amount
	}
	return nil
}

func (w *memoryWallet) snapshot() map[string]int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]int64, len(w.balances))
	for k, v := range w.balances {
		out[k] = v
	}
	return out
}

var _ ports.EconomyPort = (*memoryWallet)(nil)
