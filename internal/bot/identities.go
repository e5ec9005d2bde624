package bot

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/heroiclabs/nakama-common/runtime"
)

// FallbackPrefix marks generated bot ids used when no identity pool is loaded.
const FallbackPrefix = "bot-"

type BotIdentity struct {
	DeviceID    string `json:"device_id"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Difficulty  string `json:"difficulty"` // "easy", "standard", "smart"
	AvatarIndex int    `json:"avatar_index"`
}

type registry struct {
	mu         sync.RWMutex
	identities []BotIdentity
	byID       map[string]BotIdentity
}

var (
	bots          = &registry{byID: make(map[string]BotIdentity)}
	loadOnce      sync.Once
	provisionOnce sync.Once
	loadErr       error
)

// LoadIdentities loads the bot profiles from the given path once.
func LoadIdentities(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read bot identities: %w", err)
			return
		}
		var identities []BotIdentity
		if err := json.Unmarshal(data, &identities); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal bot identities: %w", err)
			return
		}
		bots.set(identities)
	})
	return loadErr
}

func (r *registry) set(identities []BotIdentity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.identities = identities
	r.byID = make(map[string]BotIdentity, len(identities))
	for _, identity := range identities {
		if identity.UserID != "" {
			r.byID[identity.UserID] = identity
		}
	}
}

func (r *registry) put(index int, identity BotIdentity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.identities[index] = identity
	r.byID[identity.UserID] = identity
}

// ProvisionBots makes sure every identity with a device id has a Nakama account tagged is_bot.
// Failures are logged per bot; the pool keeps the bots that did provision.
func ProvisionBots(ctx context.Context, nk runtime.NakamaModule, logger runtime.Logger) {
	provisionOnce.Do(func() {
		bots.mu.RLock()
		pending := append([]BotIdentity(nil), bots.identities...)
		bots.mu.RUnlock()

		for i, identity := range pending {
			if identity.DeviceID == "" {
				continue
			}

			userID, username, _, err := nk.AuthenticateDevice(ctx, identity.DeviceID, identity.Username, true)
			if err != nil {
				logger.Error("ProvisionBots: Failed to authenticate bot %s: %v", identity.Username, err)
				continue
			}
			identity.UserID = userID
			identity.Username = username

			metadata := map[string]interface{}{
				"is_bot":       true,
				"difficulty":   identity.Difficulty,
				"avatar_index": identity.AvatarIndex,
			}
			if err := nk.AccountUpdateId(ctx, userID, identity.Username, metadata, identity.DisplayName, "", "", "", ""); err != nil {
				logger.Warn("ProvisionBots: Failed to update bot account %s: %v", userID, err)
			}

			bots.put(i, identity)
			logger.Info("ProvisionBots: Bot %s (%s) is ready. Difficulty: %s", identity.DisplayName, userID, identity.Difficulty)
		}
	})
}

// GetBotConfig returns the identity for a bot id.
func GetBotConfig(userID string) (BotIdentity, bool) {
	bots.mu.RLock()
	defer bots.mu.RUnlock()
	identity, ok := bots.byID[userID]
	return identity, ok
}

// GetBotDisplayName returns the display name for a bot id, or "" if not a pooled bot.
func GetBotDisplayName(userID string) string {
	identity, ok := GetBotConfig(userID)
	if !ok {
		return ""
	}
	if identity.DisplayName != "" {
		return identity.DisplayName
	}
	return identity.Username
}

// GetBotIdentity returns an identity for a bot by index (mod pool size).
// Only provisioned identities are used; without any it generates one under FallbackPrefix.
func GetBotIdentity(index int) BotIdentity {
	bots.mu.RLock()
	defer bots.mu.RUnlock()
	ready := make([]BotIdentity, 0, len(bots.identities))
	for _, identity := range bots.identities {
		if identity.UserID != "" {
			ready = append(ready, identity)
		}
	}
	if len(ready) == 0 {
		return BotIdentity{
			UserID:      fmt.Sprintf("%s%d", FallbackPrefix, index),
			Username:    fmt.Sprintf("%s%d", FallbackPrefix, index),
			DisplayName: fmt.Sprintf("AI Player %d", index),
			Difficulty:  "standard",
		}
	}
	return ready[index%len(ready)]
}

// IsBot reports whether the user id belongs to the bot pool or is a generated bot id.
func IsBot(userID string) bool {
	if userID == "" {
		return false
	}
	if strings.HasPrefix(userID, FallbackPrefix) {
		return true
	}
	_, ok := GetBotConfig(userID)
	return ok
}
