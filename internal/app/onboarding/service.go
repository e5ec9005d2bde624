package onboarding

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"euchre/internal/ports"
)

// DefaultStarterChips is the bankroll granted when no amount is configured.
const DefaultStarterChips int64 = 5000

// Result captures non-fatal onboarding outcomes.
type Result struct {
	DisplayName string
	// ProfileUpdateErr is set when the profile update failed but onboarding continued.
	ProfileUpdateErr error
	ChipsGranted     bool
}

// Service seats a new account at the tables: a table name and a starting bankroll.
type Service struct {
	accounts     ports.AccountPort
	bankroll     ports.BankrollPort
	starterChips int64
	rng          *rand.Rand
}

// NewService constructs an onboarding service.
// starterChips <= 0 falls back to DefaultStarterChips; rng may be nil.
func NewService(accounts ports.AccountPort, bankroll ports.BankrollPort, starterChips int64, rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if starterChips <= 0 {
		starterChips = DefaultStarterChips
	}
	return &Service{
		accounts:     accounts,
		bankroll:     bankroll,
		starterChips: starterChips,
		rng:          rng,
	}
}

// OnboardNewUser names the account and grants starter chips once.
// Profile failures are reported in Result; a failed chip grant is returned as an error.
func (s *Service) OnboardNewUser(ctx context.Context, userID string) (Result, error) {
	if s.accounts == nil || s.bankroll == nil {
		return Result{}, fmt.Errorf("onboarding service not configured")
	}

	result := Result{DisplayName: s.tableName()}
	if err := s.accounts.UpdateProfile(ctx, userID, result.DisplayName, result.DisplayName); err != nil {
		result.ProfileUpdateErr = err
	}

	granted, err := s.bankroll.GrantStarterChipsOnce(ctx, userID, s.starterChips, map[string]interface{}{
		"reason": "starter_chips",
	})
	if err != nil {
		return result, fmt.Errorf("failed to grant starter chips: %w", err)
	}
	result.ChipsGranted = granted

	return result, nil
}

func (s *Service) tableName() string {
	adjectives := []string{"Lucky", "Bold", "Sly", "Loner", "Sharp", "Steady", "Quick", "Canny"}
	nouns := []string{"Bower", "Dealer", "Maker", "Trumper", "Partner", "Euchrer", "Sweeper", "Caller"}

	adj := adjectives[s.rng.Intn(len(adjectives))]
	noun := nouns[s.rng.Intn(len(nouns))]
	num := s.rng.Intn(900) + 100

	return fmt.Sprintf("%s%s%d", adj, noun, num)
}
