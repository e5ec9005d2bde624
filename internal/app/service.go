package app

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"euchre/internal/domain"
)

// Service contains euchre use-cases operating on domain state.
// A Service is owned by one match and called only from its loop.
type Service struct {
	rng *rand.Rand
}

// NewService constructs a Service with provided rng or a time-seeded default.
func NewService(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng}
}

var (
	ErrNotBidding     = errors.New("hand not in bidding phase")
	ErrNotDiscarding  = errors.New("hand not waiting for a discard")
	ErrNotPlaying     = errors.New("hand not in playing phase")
	ErrTooFewPlayers  = errors.New("not enough players to start")
	ErrUnknownPlayer  = errors.New("player not found")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrNotDealer      = errors.New("only the dealer may discard")
	ErrIllegalBid     = errors.New("bid not allowed in this round")
	ErrCardNotInHand  = errors.New("card not in hand")
	ErrMustFollowSuit = errors.New("must follow the lead suit")
	ErrSittingOut     = errors.New("player sits out this hand")
)

// GameOptions configures a new game.
type GameOptions struct {
	Dealer      int
	PointsToWin int
	// Reward is the pot recorded on the final result. It is supplied by the ledger, not computed here.
	Reward int64
}

// StartGame seats four players, forms the two partnerships and deals the first hand.
// It expects the seat order as user IDs; every seat must be filled.
func (s *Service) StartGame(seats []string, opts GameOptions) (*domain.Game, []Event, error) {
	if len(seats) != domain.SeatCount {
		return nil, nil, ErrTooFewPlayers
	}
	game := &domain.Game{
		Phase:       domain.PhaseLobby,
		PointsToWin: opts.PointsToWin,
		Dealer:      opts.Dealer,
	}
	if game.PointsToWin <= 0 {
		game.PointsToWin = DefaultPointsToWin
	}
	if game.Dealer < 0 || game.Dealer >= domain.SeatCount {
		return nil, nil, fmt.Errorf("dealer seat %d: %w", opts.Dealer, domain.ErrIndex)
	}

	for i, userID := range seats {
		if userID == "" {
			return nil, nil, ErrTooFewPlayers
		}
		game.Players[i] = &domain.Player{UserID: userID, Seat: i}
	}

	// The authoritative server observes from no seat.
	teams, err := domain.AssembleTeams(-1)
	if err != nil {
		return nil, nil, err
	}
	game.Teams = teams
	game.Reward = opts.Reward

	events, err := s.dealHand(game)
	if err != nil {
		return nil, nil, err
	}
	return game, events, nil
}

func (s *Service) dealHand(game *domain.Game) ([]Event, error) {
	deck := domain.ShuffledDeck(s.rng)
	deal, err := domain.DealHand(deck, game.Dealer)
	if err != nil {
		return nil, err
	}

	game.HandNumber++
	game.Phase = domain.PhaseBidding
	game.Upcard = deal.Upcard()
	game.Kitty = deal.Kitty
	game.BidRound = 1
	game.Passes = 0
	game.Trump = domain.TrumpSelection{ChoosingSeat: -1, Suit: domain.SuitNone, Choice: domain.ChoicePass}
	game.Trick = nil
	game.TricksWon = [2]int{}
	game.TricksPlayed = 0
	game.CurrentTurn = (game.Dealer + 1) % domain.SeatCount

	events := make([]Event, 0, domain.SeatCount+1)
	for seat, pl := range game.Players {
		pl.Hand = deal.Hands[seat]
		pl.SittingOut = false
		domain.SortHand(pl.Hand)
		events = append(events, Event{
			Kind:       EventHandDealt,
			Payload:    HandDealtPayload{Seat: seat, Hand: append([]domain.Card(nil), pl.Hand...)},
			Recipients: []string{pl.UserID},
		})
	}

	events = append(events, Event{
		Kind: EventBiddingStarted,
		Payload: BiddingStartedPayload{
			HandNumber:    game.HandNumber,
			Dealer:        game.Dealer,
			Upcard:        game.Upcard,
			FirstTurnSeat: game.CurrentTurn,
		},
	})
	return events, nil
}

// Bid records a pass, an order-up (round one) or a named suit (round two) from seat.
func (s *Service) Bid(game *domain.Game, seat int, choice domain.ChoiceCode, suit domain.Suit, alone bool) ([]Event, error) {
	if game.Phase != domain.PhaseBidding {
		return nil, ErrNotBidding
	}
	if err := s.checkTurn(game, seat); err != nil {
		return nil, err
	}

	switch choice {
	case domain.ChoicePass:
		return s.pass(game, seat)
	case domain.ChoiceOrderUp:
		if game.BidRound != 1 {
			return nil, ErrIllegalBid
		}
		suit = game.Upcard.Suit
	case domain.ChoiceNameSuit:
		if game.BidRound != 2 || !suit.Valid() || suit == game.Upcard.Suit {
			return nil, ErrIllegalBid
		}
	default:
		return nil, ErrIllegalBid
	}

	game.Trump = domain.TrumpSelection{ChoosingSeat: seat, Suit: suit, Choice: choice, Alone: alone}
	events := []Event{{
		Kind:    EventBidMade,
		Payload: BidMadePayload{Seat: seat, Round: game.BidRound, Choice: choice, Suit: suit, Alone: alone, NextTurnSeat: -1},
	}}

	if alone {
		game.Players[domain.PartnerOf(seat)].SittingOut = true
	}

	dealer := game.Players[game.Dealer]
	if choice == domain.ChoiceOrderUp && !dealer.SittingOut {
		dealer.Hand = append(dealer.Hand, game.Upcard)
		game.Phase = domain.PhaseDiscard
		game.CurrentTurn = game.Dealer
		events = append(events, Event{
			Kind:       EventHandDealt,
			Payload:    HandDealtPayload{Seat: game.Dealer, Hand: append([]domain.Card(nil), dealer.Hand...)},
			Recipients: []string{dealer.UserID},
		})
		return events, nil
	}

	return append(events, s.startPlay(game)...), nil
}

func (s *Service) pass(game *domain.Game, seat int) ([]Event, error) {
	game.Passes++
	next := (seat + 1) % domain.SeatCount
	if game.Passes == domain.SeatCount {
		game.Passes = 0
		next = (game.Dealer + 1) % domain.SeatCount
		if game.BidRound == 2 {
			// Nobody named trump: the deal moves on.
			game.Dealer = (game.Dealer + 1) % domain.SeatCount
			events := []Event{
				{Kind: EventBidMade, Payload: BidMadePayload{Seat: seat, Round: 2, Choice: domain.ChoicePass, NextTurnSeat: -1}},
				{Kind: EventMisdeal, Payload: MisdealPayload{Dealer: game.Dealer}},
			}
			dealt, err := s.dealHand(game)
			if err != nil {
				return nil, err
			}
			return append(events, dealt...), nil
		}
		game.BidRound = 2
	}

	game.CurrentTurn = next
	return []Event{{
		Kind:    EventBidMade,
		Payload: BidMadePayload{Seat: seat, Round: game.BidRound, Choice: domain.ChoicePass, NextTurnSeat: next},
	}}, nil
}

// Discard removes one card from the dealer's hand after trump was ordered up.
func (s *Service) Discard(game *domain.Game, seat int, card domain.Card) ([]Event, error) {
	if game.Phase != domain.PhaseDiscard {
		return nil, ErrNotDiscarding
	}
	if seat != game.Dealer {
		return nil, ErrNotDealer
	}
	pl := game.Players[seat]
	if !domain.ContainsCard(pl.Hand, card) {
		return nil, ErrCardNotInHand
	}
	pl.Hand = domain.RemoveCards(pl.Hand, []domain.Card{card})
	game.Kitty = append(game.Kitty, card)

	events := []Event{{
		Kind:       EventHandDealt,
		Payload:    HandDealtPayload{Seat: seat, Hand: append([]domain.Card(nil), pl.Hand...)},
		Recipients: []string{pl.UserID},
	}}
	return append(events, s.startPlay(game)...), nil
}

func (s *Service) startPlay(game *domain.Game) []Event {
	game.Phase = domain.PhasePlaying
	game.CurrentTurn = game.NextActiveSeat(game.Dealer)
	game.Trick = domain.NewTrick(game.Trump.Suit, game.ActiveSeats())

	return []Event{{
		Kind: EventTrumpSelected,
		Payload: TrumpSelectedPayload{
			Trump:         game.Trump.Record(),
			Alone:         game.Trump.Alone,
			Teams:         domain.TeamRecords(game),
			FirstTurnSeat: game.CurrentTurn,
		},
	}}
}

// PlayCard plays one card into the current trick, resolving and scoring as tricks and hands complete.
// A tied trick aborts the hand and returns an error wrapping domain.ErrConsistency.
func (s *Service) PlayCard(game *domain.Game, seat int, card domain.Card) ([]Event, error) {
	if game.Phase != domain.PhasePlaying {
		return nil, ErrNotPlaying
	}
	if err := s.checkTurn(game, seat); err != nil {
		return nil, err
	}
	pl := game.Players[seat]
	if !domain.ContainsCard(pl.Hand, card) {
		return nil, ErrCardNotInHand
	}
	if !domain.ContainsCard(domain.LegalPlays(pl.Hand, game.Trick.Lead, game.Trump.Suit), card) {
		return nil, ErrMustFollowSuit
	}

	if err := game.Trick.Add(seat, card); err != nil {
		return nil, err
	}
	pl.Hand = domain.RemoveCards(pl.Hand, []domain.Card{card})

	if !game.Trick.Complete() {
		game.CurrentTurn = game.NextActiveSeat(seat)
		return []Event{{
			Kind:    EventCardPlayed,
			Payload: CardPlayedPayload{Seat: seat, Card: card, NextTurnSeat: game.CurrentTurn},
		}}, nil
	}

	events := []Event{{
		Kind:    EventCardPlayed,
		Payload: CardPlayedPayload{Seat: seat, Card: card, NextTurnSeat: -1},
	}}

	winner, err := game.Trick.Winner()
	if err != nil {
		return append(events, s.abort(game, err)), fmt.Errorf("resolve trick: %w", err)
	}

	team := domain.TeamOf(winner.Seat)
	game.TricksWon[team]++
	game.TricksPlayed++
	events = append(events, Event{
		Kind: EventTrickWon,
		Payload: TrickWonPayload{
			Seat:      winner.Seat,
			Team:      team,
			Cards:     game.Trick.Cards(),
			TricksWon: game.TricksWon,
		},
	})

	if game.TricksPlayed < domain.HandSize {
		game.Trick = domain.NewTrick(game.Trump.Suit, game.ActiveSeats())
		game.CurrentTurn = winner.Seat
		return events, nil
	}

	scored, err := s.scoreHand(game)
	if err != nil {
		return append(events, s.abort(game, err)), err
	}
	return append(events, scored...), nil
}

func (s *Service) scoreHand(game *domain.Game) ([]Event, error) {
	if !game.Trump.Made() {
		return nil, fmt.Errorf("score hand without trump: %w", domain.ErrConsistency)
	}
	makers := domain.TeamOf(game.Trump.ChoosingSeat)
	defenders := 1 - makers
	taken := game.TricksWon[makers]

	payload := HandScoredPayload{Makers: makers, TricksWon: game.TricksWon}
	switch {
	case taken == domain.HandSize && game.Trump.Alone:
		payload.Scorer, payload.Points = makers, pointsMakersMarchSolo
	case taken == domain.HandSize:
		payload.Scorer, payload.Points = makers, pointsMakersMarch
	case taken >= tricksToMake:
		payload.Scorer, payload.Points = makers, pointsMakersTook3
	default:
		payload.Scorer, payload.Points, payload.Euchred = defenders, pointsEuchre, true
	}
	game.Teams[payload.Scorer].AddPoints(payload.Points)
	payload.Teams = domain.TeamRecords(game)

	events := []Event{{Kind: EventHandScored, Payload: payload}}

	if game.Teams[domain.TeamA].Score >= game.PointsToWin || game.Teams[domain.TeamB].Score >= game.PointsToWin {
		result := domain.Finalize(game.Teams[domain.TeamA], game.Teams[domain.TeamB], game.Reward)
		game.Result = &result
		game.Phase = domain.PhaseEnded
		game.Trick = nil
		return append(events, Event{Kind: EventGameEnded, Payload: GameEndedPayload{Result: result}}), nil
	}

	game.Dealer = (game.Dealer + 1) % domain.SeatCount
	dealt, err := s.dealHand(game)
	if err != nil {
		return nil, err
	}
	return append(events, dealt...), nil
}

func (s *Service) abort(game *domain.Game, cause error) Event {
	game.Phase = domain.PhaseAborted
	game.Trick = nil
	return Event{Kind: EventHandAborted, Payload: HandAbortedPayload{Reason: cause.Error()}}
}

func (s *Service) checkTurn(game *domain.Game, seat int) error {
	if seat < 0 || seat >= domain.SeatCount || game.Players[seat] == nil {
		return ErrUnknownPlayer
	}
	if game.Players[seat].SittingOut {
		return ErrSittingOut
	}
	if game.CurrentTurn != seat {
		return ErrNotYourTurn
	}
	return nil
}
