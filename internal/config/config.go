package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// TableTier is one stake level a table can be opened at.
type TableTier struct {
	ID       string `mapstructure:"id"`
	EntryFee int64  `mapstructure:"entry_fee"`
	// Pot is the reward paid to the winning partnership.
	Pot int64 `mapstructure:"pot"`
}

type GameConfig struct {
	DefaultTier string      `mapstructure:"default_tier"`
	Tiers       []TableTier `mapstructure:"tiers"`
	PointsToWin int         `mapstructure:"points_to_win"`
	// TurnDurationSeconds is how long a human may hold the turn before the table moves for them. 0 disables it.
	TurnDurationSeconds int `mapstructure:"turn_duration_seconds"`
	// BotAutoFillDelaySeconds is how long a table with humans waits before bots take the empty seats.
	BotAutoFillDelaySeconds int   `mapstructure:"bot_auto_fill_delay_seconds"`
	StarterChips            int64 `mapstructure:"starter_chips"`
	// ReplicaWaitMillis bounds how long a client waits for a replicated record.
	ReplicaWaitMillis int `mapstructure:"replica_wait_millis"`
}

const envPrefix = "EUCHRE"

var fallbackTier = TableTier{ID: "casual", EntryFee: 100, Pot: 400}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from path once.
// EUCHRE_* environment variables override file values (EUCHRE_POINTS_TO_WIN, ...).
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		c, err := Read(path)
		if err != nil {
			loadErr = err
			return
		}
		cfg = c
	})
	return loadErr
}

// Read parses path without touching the global configuration.
func Read(path string) (*GameConfig, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read game config: %w", err)
		}
	}

	var c GameConfig
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("default_tier", fallbackTier.ID)
	v.SetDefault("points_to_win", 10)
	v.SetDefault("turn_duration_seconds", 30)
	v.SetDefault("bot_auto_fill_delay_seconds", 5)
	v.SetDefault("starter_chips", 5000)
	v.SetDefault("replica_wait_millis", 2000)
}

// Validate rejects values the table cannot run with.
func (c *GameConfig) Validate() error {
	if c.PointsToWin <= 0 {
		return fmt.Errorf("points_to_win must be positive, got %d", c.PointsToWin)
	}
	if c.TurnDurationSeconds < 0 {
		return fmt.Errorf("turn_duration_seconds must not be negative, got %d", c.TurnDurationSeconds)
	}
	seen := make(map[string]bool, len(c.Tiers))
	for _, t := range c.Tiers {
		if t.ID == "" {
			return fmt.Errorf("tier without id")
		}
		if seen[t.ID] {
			return fmt.Errorf("duplicate tier %q", t.ID)
		}
		seen[t.ID] = true
		if t.EntryFee < 0 || t.Pot < 0 {
			return fmt.Errorf("tier %q: negative entry fee or pot", t.ID)
		}
	}
	return nil
}

// Tier returns the tier with id, falling back to the default tier.
func (c *GameConfig) Tier(id string) TableTier {
	if c == nil {
		return fallbackTier
	}
	target := id
	if target == "" {
		target = c.DefaultTier
	}
	for _, t := range c.Tiers {
		if t.ID == target {
			return t
		}
	}
	for _, t := range c.Tiers {
		if t.ID == c.DefaultTier {
			return t
		}
	}
	return fallbackTier
}

// GetGameConfig returns the global game configuration, nil before LoadGameConfig succeeds.
func GetGameConfig() *GameConfig {
	return cfg
}

// GetTier resolves a tier against the global configuration.
func GetTier(id string) TableTier {
	return cfg.Tier(id)
}

// GetPointsToWin returns the configured target score, or 10 when unloaded.
func GetPointsToWin() int {
	if cfg == nil {
		return 10
	}
	return cfg.PointsToWin
}

// GetTurnDurationSeconds returns the configured turn limit, or 30 when unloaded.
func GetTurnDurationSeconds() int {
	if cfg == nil {
		return 30
	}
	return cfg.TurnDurationSeconds
}
