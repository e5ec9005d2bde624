package bot

import (
	"math/rand"
	"testing"

	"euchre/internal/app"
	"euchre/internal/domain"
)

func card(s domain.Suit, r domain.Rank) domain.Card {
	return domain.MustCard(s, r)
}

func biddingGame(dealer int, upcard domain.Card, round int, hands [domain.SeatCount][]domain.Card) *domain.Game {
	g := &domain.Game{
		Phase:    domain.PhaseBidding,
		Dealer:   dealer,
		Upcard:   upcard,
		BidRound: round,
		Trump:    domain.TrumpSelection{ChoosingSeat: -1, Suit: domain.SuitNone},
	}
	for i := range g.Players {
		g.Players[i] = &domain.Player{UserID: "p", Seat: i, Hand: hands[i]}
	}
	return g
}

func TestHandStrength_Ordering(t *testing.T) {
	strong := []domain.Card{
		card(domain.SuitSpades, domain.RankJack), card(domain.SuitClubs, domain.RankJack), card(domain.SuitSpades, domain.RankAce),
		card(domain.SuitHearts, domain.RankAce), card(domain.SuitSpades, domain.RankNine),
	}
	weak := []domain.Card{
		card(domain.SuitHearts, domain.RankNine), card(domain.SuitHearts, domain.RankTen), card(domain.SuitDiamonds, domain.RankQueen),
		card(domain.SuitClubs, domain.RankTen), card(domain.SuitSpades, domain.RankNine),
	}
	if HandStrength(strong, domain.SuitSpades) <= HandStrength(weak, domain.SuitSpades) {
		t.Fatalf("expected strong hand to outscore weak hand")
	}
	// Left bower counts as trump.
	if got := HandStrength([]domain.Card{card(domain.SuitClubs, domain.RankJack)}, domain.SuitSpades); got != 14 {
		t.Fatalf("left bower strength = %d, want 14", got)
	}
}

func TestBid_OrdersUpStrongHand(t *testing.T) {
	hands := [domain.SeatCount][]domain.Card{}
	hands[1] = []domain.Card{
		card(domain.SuitHearts, domain.RankJack), card(domain.SuitDiamonds, domain.RankJack), card(domain.SuitHearts, domain.RankAce),
		card(domain.SuitClubs, domain.RankAce), card(domain.SuitSpades, domain.RankNine),
	}
	g := biddingGame(0, card(domain.SuitHearts, domain.RankNine), 1, hands)
	b := &StandardBot{Tuning: DefaultTuning}

	move, err := b.CalculateMove(g, g.Players[1])
	if err != nil {
		t.Fatalf("CalculateMove: %v", err)
	}
	if move.Kind != MoveBid || move.Choice != domain.ChoiceOrderUp || move.Suit != domain.SuitHearts {
		t.Fatalf("expected order up hearts, got %+v", move)
	}
}

func TestBid_PassesWeakHand(t *testing.T) {
	hands := [domain.SeatCount][]domain.Card{}
	hands[1] = []domain.Card{
		card(domain.SuitSpades, domain.RankNine), card(domain.SuitSpades, domain.RankTen), card(domain.SuitClubs, domain.RankQueen),
		card(domain.SuitClubs, domain.RankNine), card(domain.SuitDiamonds, domain.RankTen),
	}
	g := biddingGame(0, card(domain.SuitHearts, domain.RankNine), 1, hands)

	move, err := (&StandardBot{Tuning: DefaultTuning}).CalculateMove(g, g.Players[1])
	if err != nil {
		t.Fatalf("CalculateMove: %v", err)
	}
	if move.Choice != domain.ChoicePass {
		t.Fatalf("expected pass, got %+v", move)
	}
}

func TestBid_SecondRoundNamesOtherSuit(t *testing.T) {
	hands := [domain.SeatCount][]domain.Card{}
	hands[2] = []domain.Card{
		card(domain.SuitSpades, domain.RankJack), card(domain.SuitClubs, domain.RankJack), card(domain.SuitSpades, domain.RankAce),
		card(domain.SuitSpades, domain.RankKing), card(domain.SuitHearts, domain.RankAce),
	}
	// Upcard was a spade, so spades cannot be named.
	g := biddingGame(0, card(domain.SuitSpades, domain.RankNine), 2, hands)

	move, err := (&StandardBot{Tuning: DefaultTuning}).CalculateMove(g, g.Players[2])
	if err != nil {
		t.Fatalf("CalculateMove: %v", err)
	}
	if move.Choice == domain.ChoiceNameSuit && move.Suit == domain.SuitSpades {
		t.Fatalf("named the turned-down suit: %+v", move)
	}
}

func TestDiscard_DropsWeakSingleton(t *testing.T) {
	g := &domain.Game{
		Phase:  domain.PhaseDiscard,
		Dealer: 0,
		Trump:  domain.TrumpSelection{ChoosingSeat: 1, Suit: domain.SuitHearts, Choice: domain.ChoiceOrderUp},
	}
	hand := []domain.Card{
		card(domain.SuitHearts, domain.RankJack), card(domain.SuitHearts, domain.RankNine), card(domain.SuitClubs, domain.RankAce),
		card(domain.SuitSpades, domain.RankTen), card(domain.SuitClubs, domain.RankTen), card(domain.SuitDiamonds, domain.RankJack),
	}
	g.Players[0] = &domain.Player{Seat: 0, Hand: hand}

	move, err := (&StandardBot{Tuning: DefaultTuning}).CalculateMove(g, g.Players[0])
	if err != nil {
		t.Fatalf("CalculateMove: %v", err)
	}
	if move.Kind != MoveDiscard || !move.Card.Equal(card(domain.SuitSpades, domain.RankTen)) {
		t.Fatalf("expected discard of 10♠, got %+v", move)
	}
}

func playingGame(trump domain.Suit, maker int, plays []domain.Play, hand []domain.Card, seat int) *domain.Game {
	g := &domain.Game{
		Phase: domain.PhasePlaying,
		Trump: domain.TrumpSelection{ChoosingSeat: maker, Suit: trump, Choice: domain.ChoiceOrderUp},
		Trick: domain.NewTrick(trump, domain.SeatCount),
	}
	for _, p := range plays {
		_ = g.Trick.Add(p.Seat, p.Card)
	}
	for i := range g.Players {
		g.Players[i] = &domain.Player{Seat: i}
	}
	g.Players[seat].Hand = hand
	g.CurrentTurn = seat
	return g
}

func TestPlay_FollowsWithCheapestWinner(t *testing.T) {
	hand := []domain.Card{card(domain.SuitClubs, domain.RankAce), card(domain.SuitClubs, domain.RankKing), card(domain.SuitClubs, domain.RankNine), card(domain.SuitHearts, domain.RankNine)}
	plays := []domain.Play{{Seat: 0, Card: card(domain.SuitClubs, domain.RankQueen)}}
	g := playingGame(domain.SuitHearts, 0, plays, hand, 1)

	move, err := (&StandardBot{Tuning: DefaultTuning}).CalculateMove(g, g.Players[1])
	if err != nil {
		t.Fatalf("CalculateMove: %v", err)
	}
	if !move.Card.Equal(card(domain.SuitClubs, domain.RankKing)) {
		t.Fatalf("expected K♣, got %v", move.Card)
	}
}

func TestPlay_CoversPartner(t *testing.T) {
	hand := []domain.Card{card(domain.SuitClubs, domain.RankAce), card(domain.SuitClubs, domain.RankNine)}
	plays := []domain.Play{
		{Seat: 0, Card: card(domain.SuitClubs, domain.RankKing)},
		{Seat: 1, Card: card(domain.SuitClubs, domain.RankTen)},
	}
	g := playingGame(domain.SuitHearts, 0, plays, hand, 2)

	move, err := (&StandardBot{Tuning: DefaultTuning}).CalculateMove(g, g.Players[2])
	if err != nil {
		t.Fatalf("CalculateMove: %v", err)
	}
	if !move.Card.Equal(card(domain.SuitClubs, domain.RankNine)) {
		t.Fatalf("expected 9♣ under partner, got %v", move.Card)
	}
}

func TestPlay_TrumpsWhenVoid(t *testing.T) {
	hand := []domain.Card{card(domain.SuitHearts, domain.RankNine), card(domain.SuitHearts, domain.RankAce), card(domain.SuitSpades, domain.RankTen)}
	plays := []domain.Play{{Seat: 1, Card: card(domain.SuitClubs, domain.RankAce)}}
	g := playingGame(domain.SuitHearts, 0, plays, hand, 2)

	move, err := (&StandardBot{Tuning: DefaultTuning}).CalculateMove(g, g.Players[2])
	if err != nil {
		t.Fatalf("CalculateMove: %v", err)
	}
	if !move.Card.Equal(card(domain.SuitHearts, domain.RankNine)) {
		t.Fatalf("expected low trump 9♥, got %v", move.Card)
	}
}

func TestLead_RightBowerForMakers(t *testing.T) {
	hand := []domain.Card{card(domain.SuitSpades, domain.RankJack), card(domain.SuitHearts, domain.RankAce), card(domain.SuitDiamonds, domain.RankNine)}
	g := playingGame(domain.SuitSpades, 0, nil, hand, 2)

	move, err := (&StandardBot{Tuning: DefaultTuning}).CalculateMove(g, g.Players[2])
	if err != nil {
		t.Fatalf("CalculateMove: %v", err)
	}
	if !move.Card.Equal(card(domain.SuitSpades, domain.RankJack)) {
		t.Fatalf("expected J♠ lead, got %v", move.Card)
	}
}

func TestLead_DefendersLeadAce(t *testing.T) {
	hand := []domain.Card{card(domain.SuitSpades, domain.RankJack), card(domain.SuitHearts, domain.RankAce), card(domain.SuitDiamonds, domain.RankNine)}
	g := playingGame(domain.SuitSpades, 0, nil, hand, 1)

	move, err := (&StandardBot{Tuning: DefaultTuning}).CalculateMove(g, g.Players[1])
	if err != nil {
		t.Fatalf("CalculateMove: %v", err)
	}
	if !move.Card.Equal(card(domain.SuitHearts, domain.RankAce)) {
		t.Fatalf("expected A♥ lead, got %v", move.Card)
	}
}

func TestMemory_IsBoss(t *testing.T) {
	m := NewMemory()
	ace := card(domain.SuitSpades, domain.RankAce)
	if m.IsBoss(ace, domain.SuitSpades) {
		t.Fatal("ace of trump is not boss while both bowers are unseen")
	}
	m.MarkPlayed(card(domain.SuitSpades, domain.RankJack))
	m.UpdateHand([]domain.Card{ace, card(domain.SuitClubs, domain.RankJack)})
	if !m.IsBoss(ace, domain.SuitSpades) {
		t.Fatal("ace of trump should be boss once the bowers are accounted for")
	}

	m.Observe(app.Event{Kind: app.EventBiddingStarted})
	if m.DeckStatus[card(domain.SuitSpades, domain.RankJack).Index()] != StatusUnknown {
		t.Fatal("bidding start should reset memory")
	}
}

func TestMemory_TracksEverySuit(t *testing.T) {
	m := NewMemory()
	hand := []domain.Card{
		card(domain.SuitSpades, domain.RankNine), card(domain.SuitSpades, domain.RankAce),
		card(domain.SuitHearts, domain.RankNine), card(domain.SuitClubs, domain.RankJack),
	}
	m.UpdateHand(hand)
	m.MarkPlayed(card(domain.SuitSpades, domain.RankKing), card(domain.SuitDiamonds, domain.RankAce))

	for _, c := range hand {
		if m.DeckStatus[c.Index()] != StatusMine {
			t.Fatalf("%v should be marked as held", c)
		}
	}
	if m.DeckStatus[card(domain.SuitSpades, domain.RankKing).Index()] != StatusPlayed {
		t.Fatal("K♠ should be marked as played")
	}

	// Cards leaving the hand go back to unknown unless they were played.
	m.UpdateHand(hand[:1])
	if m.DeckStatus[card(domain.SuitSpades, domain.RankAce).Index()] != StatusUnknown {
		t.Fatal("A♠ left the hand and should be unknown")
	}
}

func TestSmartBot_LeadsWithSpadesInHand(t *testing.T) {
	hand := []domain.Card{
		card(domain.SuitSpades, domain.RankJack), card(domain.SuitSpades, domain.RankAce),
		card(domain.SuitClubs, domain.RankJack), card(domain.SuitHearts, domain.RankNine),
	}
	g := playingGame(domain.SuitSpades, 0, nil, hand, 0)

	brain, err := NewBrain(BotLevelSmart)
	if err != nil {
		t.Fatalf("NewBrain: %v", err)
	}
	move, err := brain.CalculateMove(g, g.Players[0])
	if err != nil {
		t.Fatalf("CalculateMove: %v", err)
	}
	if !move.Card.Equal(card(domain.SuitSpades, domain.RankJack)) {
		t.Fatalf("expected the boss J♠ lead, got %v", move.Card)
	}
}

func TestFallbackMove(t *testing.T) {
	hand := []domain.Card{card(domain.SuitHearts, domain.RankNine), card(domain.SuitClubs, domain.RankTen), card(domain.SuitClubs, domain.RankAce)}

	bidding := biddingGame(0, card(domain.SuitHearts, domain.RankAce), 2, [domain.SeatCount][]domain.Card{1: hand})
	if move, ok := FallbackMove(bidding, 1); !ok || move.Kind != MoveBid || move.Choice != domain.ChoicePass {
		t.Fatalf("expected pass while bidding, got %+v ok=%v", move, ok)
	}

	discard := &domain.Game{Phase: domain.PhaseDiscard}
	discard.Players[0] = &domain.Player{Seat: 0, Hand: hand}
	if move, ok := FallbackMove(discard, 0); !ok || move.Kind != MoveDiscard || !move.Card.Equal(hand[0]) {
		t.Fatalf("expected discard of the first card, got %+v ok=%v", move, ok)
	}

	plays := []domain.Play{{Seat: 0, Card: card(domain.SuitClubs, domain.RankKing)}}
	playing := playingGame(domain.SuitSpades, 0, plays, hand, 1)
	if move, ok := FallbackMove(playing, 1); !ok || move.Kind != MovePlay || !move.Card.Equal(card(domain.SuitClubs, domain.RankTen)) {
		t.Fatalf("expected the first club, got %+v ok=%v", move, ok)
	}

	if _, ok := FallbackMove(&domain.Game{Phase: domain.PhaseEnded}, 0); ok {
		t.Fatal("no action once the game has ended")
	}
	if _, ok := FallbackMove(nil, 0); ok {
		t.Fatal("no action without a game")
	}
}

func TestNewBrain_Levels(t *testing.T) {
	for _, level := range []BotLevel{BotLevelEasy, BotLevelStandard, BotLevelSmart} {
		if _, err := NewBrain(level); err != nil {
			t.Fatalf("NewBrain(%d): %v", level, err)
		}
	}
	if _, err := NewBrain(BotLevel(99)); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestIsBot_FallbackIdentity(t *testing.T) {
	id := GetBotIdentity(3)
	if !IsBot(id.UserID) {
		t.Fatalf("generated identity %q not recognised as bot", id.UserID)
	}
	if IsBot("user-123") || IsBot("") {
		t.Fatal("human ids must not be bots")
	}
}

func TestAgents_PlayFullGame(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		svc := app.NewService(rand.New(rand.NewSource(seed)))
		seats := []string{"bot-0", "bot-1", "bot-2", "bot-3"}
		game, _, err := svc.StartGame(seats, app.GameOptions{Dealer: 0, PointsToWin: 10, Reward: 400})
		if err != nil {
			t.Fatalf("StartGame: %v", err)
		}

		agents := make([]*Agent, len(seats))
		for i, id := range seats {
			level := BotLevel(i % 3)
			brain, err := NewBrain(level)
			if err != nil {
				t.Fatalf("NewBrain: %v", err)
			}
			agents[i] = &Agent{ID: id, Name: id, Strategy: brain}
		}

		for steps := 0; game.Phase != domain.PhaseEnded; steps++ {
			if steps > 5000 {
				t.Fatalf("seed %d: game did not finish", seed)
			}
			if game.Phase == domain.PhaseAborted {
				t.Fatalf("seed %d: hand aborted", seed)
			}
			seat := game.CurrentTurn
			move, err := agents[seat].Play(game)
			if err != nil {
				t.Fatalf("seed %d: seat %d move: %v", seed, seat, err)
			}
			events, err := Apply(svc, game, seat, move)
			if err != nil {
				t.Fatalf("seed %d: seat %d apply %+v: %v", seed, seat, move, err)
			}
			for _, ev := range events {
				for _, a := range agents {
					a.OnGameEvent(ev)
				}
			}
		}

		if game.Result == nil || game.Result.Winner == domain.WinnerNone {
			t.Fatalf("seed %d: expected a winner, got %+v", seed, game.Result)
		}
	}
}
