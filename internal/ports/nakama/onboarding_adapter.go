package nakama

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"euchre/internal/ports"

	"github.com/goccy/go-json"
	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	bankrollCollection = "onboarding"
	bankrollKey        = "starter_chips_v1"
)

// onboardingModule is the slice of runtime.NakamaModule new-account setup needs.
type onboardingModule interface {
	AccountUpdateId(ctx context.Context, userID, username string, metadata map[string]interface{}, displayName, timezone, location, langTag, avatarUrl string) error
	MultiUpdate(ctx context.Context, accountUpdates []*runtime.AccountUpdate, storageWrites []*runtime.StorageWrite, storageDeletes []*runtime.StorageDelete, walletUpdates []*runtime.WalletUpdate, updateLedger bool) ([]*api.StorageObjectAck, []*runtime.WalletUpdateResult, error)
}

// NakamaOnboardingAdapter implements ports.AccountPort and ports.BankrollPort.
type NakamaOnboardingAdapter struct {
	nk  onboardingModule
	now func() time.Time
}

func NewNakamaOnboardingAdapter(nk onboardingModule) *NakamaOnboardingAdapter {
	return &NakamaOnboardingAdapter{nk: nk, now: time.Now}
}

// UpdateProfile sets username and display name. Metadata, avatar, language and timezone are left untouched.
func (a *NakamaOnboardingAdapter) UpdateProfile(ctx context.Context, userID, username, displayName string) error {
	if userID == "" {
		return fmt.Errorf("userID is required")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if err := a.nk.AccountUpdateId(ctx, userID, username, nil, strings.TrimSpace(displayName), "", "", "", ""); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// GrantStarterChipsOnce credits amount chips together with a storage marker in one MultiUpdate.
// The marker is written with version "*", so a repeat grant is rejected and reported as false.
func (a *NakamaOnboardingAdapter) GrantStarterChipsOnce(ctx context.Context, userID string, amount int64, metadata map[string]interface{}) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("userID is required")
	}
	if amount <= 0 {
		return false, fmt.Errorf("amount must be positive")
	}

	value, err := json.Marshal(map[string]interface{}{
		"amount":     amount,
		"granted_at": a.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return false, fmt.Errorf("failed to marshal starter chips marker: %w", err)
	}

	storageWrites := []*runtime.StorageWrite{{
		Collection:      bankrollCollection,
		Key:             bankrollKey,
		UserID:          userID,
		Value:           string(value),
		Version:         "*",
		PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
		PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
	}}
	walletUpdates := []*runtime.WalletUpdate{{
		UserID:    userID,
		Changeset: map[string]int64{WalletCurrency: amount},
		Metadata:  metadata,
	}}

	if _, _, err := a.nk.MultiUpdate(ctx, nil, storageWrites, nil, walletUpdates, true); err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return false, nil
		}
		return false, fmt.Errorf("failed to grant starter chips: %w", err)
	}
	return true, nil
}

var (
	_ ports.AccountPort  = (*NakamaOnboardingAdapter)(nil)
	_ ports.BankrollPort = (*NakamaOnboardingAdapter)(nil)
)
