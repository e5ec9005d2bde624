package nakama

import (
	"context"
	"errors"
	"fmt"
	"time"

	"euchre/internal/ports"

	"github.com/goccy/go-json"
	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/tidwall/gjson"
)

const entryFeeCollection = "entry_fees"

// entryFeeModule is the slice of runtime.NakamaModule the fee records need.
type entryFeeModule interface {
	StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error)
	StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error)
	StorageDelete(ctx context.Context, deletes []*runtime.StorageDelete) error
}

// NakamaEntryFeeAdapter implements ports.EntryFeeStore with one storage object per
// (lobby, user), keyed by the lobby id and owned by the user.
type NakamaEntryFeeAdapter struct {
	nk  entryFeeModule
	now func() time.Time
}

func NewNakamaEntryFeeAdapter(nk entryFeeModule) *NakamaEntryFeeAdapter {
	return &NakamaEntryFeeAdapter{nk: nk, now: time.Now}
}

// ClaimEntryFee writes the record with version "*". A rejected write means the fee was
// already recorded; the stored transaction id is read back and returned.
func (a *NakamaEntryFeeAdapter) ClaimEntryFee(ctx context.Context, lobbyID, userID, transactionID string) (string, bool, error) {
	value, err := json.Marshal(map[string]interface{}{
		"transaction_id": transactionID,
		"lobby_id":       lobbyID,
		"paid_at":        a.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to marshal entry fee record: %w", err)
	}

	_, err = a.nk.StorageWrite(ctx, []*runtime.StorageWrite{{
		Collection:      entryFeeCollection,
		Key:             lobbyID,
		UserID:          userID,
		Value:           string(value),
		Version:         "*",
		PermissionRead:  runtime.STORAGE_PERMISSION_OWNER_READ,
		PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
	}})
	if err == nil {
		return transactionID, true, nil
	}
	if !errors.Is(err, runtime.ErrStorageRejectedVersion) {
		return "", false, fmt.Errorf("failed to write entry fee record: %w", err)
	}

	objects, err := a.nk.StorageRead(ctx, []*runtime.StorageRead{{
		Collection: entryFeeCollection,
		Key:        lobbyID,
		UserID:     userID,
	}})
	if err != nil {
		return "", false, fmt.Errorf("failed to read entry fee record: %w", err)
	}
	if len(objects) == 0 {
		return "", false, fmt.Errorf("entry fee record for %s in %s vanished", userID, lobbyID)
	}
	return gjson.Get(objects[0].GetValue(), "transaction_id").String(), false, nil
}

func (a *NakamaEntryFeeAdapter) ReleaseEntryFee(ctx context.Context, lobbyID, userID string) error {
	err := a.nk.StorageDelete(ctx, []*runtime.StorageDelete{{
		Collection: entryFeeCollection,
		Key:        lobbyID,
		UserID:     userID,
	}})
	if err != nil {
		return fmt.Errorf("failed to delete entry fee record: %w", err)
	}
	return nil
}

var _ ports.EntryFeeStore = (*NakamaEntryFeeAdapter)(nil)
