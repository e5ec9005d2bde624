package bot

import (
	"fmt"
)

// NewBrain creates a new AI brain based on the specified level.
func NewBrain(level BotLevel) (Brain, error) {
	switch level {
	case BotLevelEasy:
		return &StandardBot{Tuning: EasyTuning}, nil
	case BotLevelStandard:
		return &StandardBot{Tuning: DefaultTuning}, nil
	case BotLevelSmart:
		return &StandardBot{Tuning: SmartTuning, Memory: NewMemory()}, nil
	default:
		return nil, fmt.Errorf("unknown bot level: %d", level)
	}
}

// NewAgent builds an agent for a bot user id using the difficulty from its identity.
func NewAgent(userID string) (*Agent, error) {
	identity, ok := GetBotConfig(userID)
	level := BotLevelStandard
	if ok {
		level = LevelFor(identity.Difficulty)
	}
	brain, err := NewBrain(level)
	if err != nil {
		return nil, err
	}
	name := GetBotDisplayName(userID)
	if name == "" {
		name = userID
	}
	return &Agent{ID: userID, Name: name, Strategy: brain}, nil
}
