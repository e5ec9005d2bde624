// Package sim plays bot-only games offline, sending every event through the
// wire codec and reading the replicated records back the way a client would.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"euchre/internal/app"
	"euchre/internal/app/ledger"
	"euchre/internal/bot"
	"euchre/internal/config"
	"euchre/internal/domain"
	"euchre/internal/ports/nakama"

	"github.com/rs/zerolog"
)

// ErrReplicaDiverged is returned when a decoded record disagrees with the authoritative game.
var ErrReplicaDiverged = errors.New("replicated record differs from game state")

const maxStepsPerGame = 10000

// Options configures a simulation run.
type Options struct {
	Seed         int64
	Games        int
	PointsToWin  int
	Tier         config.TableTier
	Levels       [domain.SeatCount]bot.BotLevel
	StarterChips int64
	ReplicaWait  time.Duration
}

// GameSummary describes one finished game.
type GameSummary struct {
	Game     int
	Dealer   int
	Hands    int
	Misdeals int
	Euchres  int
	Alone    int
	Result   domain.GameResult
}

// Report is the outcome of a run.
type Report struct {
	Games    []GameSummary
	Seats    [domain.SeatCount]string
	Balances map[string]int64
}

// Wins counts the games won by team.
func (r Report) Wins(team domain.TeamID) int {
	n := 0
	for _, g := range r.Games {
		if w, ok := g.Result.WinningTeam(); ok && w.ID == team {
			n++
		}
	}
	return n
}

// Runner drives bots through app.Service.
type Runner struct {
	opts   Options
	svc    *app.Service
	wallet *memoryWallet
	ledger *ledger.Service
	seats  [domain.SeatCount]string
	log    zerolog.Logger
}

// NewRunner builds a runner; zero options fall back to the table defaults.
func NewRunner(opts Options, log zerolog.Logger) *Runner {
	if opts.Games <= 0 {
		opts.Games = 1
	}
	if opts.PointsToWin <= 0 {
		opts.PointsToWin = app.DefaultPointsToWin
	}
	if opts.Tier.ID == "" {
		opts.Tier = config.GetTier("")
	}
	if opts.ReplicaWait <= 0 {
		opts.ReplicaWait = 2 * time.Second
	}

	var seats [domain.SeatCount]string
	for i := range seats {
		seats[i] = fmt.Sprintf("%s%d", bot.FallbackPrefix, i)
	}
	wallet := newMemoryWallet(seats[:], opts.StarterChips)

	return &Runner{
		opts:   opts,
		svc:    app.NewService(rand.New(rand.NewSource(opts.Seed))),
		wallet: wallet,
		ledger: ledger.NewService(wallet),
		seats:  seats,
		log:    log,
	}
}

// Run plays the configured number of games, rotating the first dealer between games.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	report := Report{Seats: r.seats}
	for n := 1; n <= r.opts.Games; n++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		summary, err := r.playGame(ctx, n, (n-1)%domain.SeatCount)
		if err != nil {
			return report, fmt.Errorf("game %d: %w", n, err)
		}
		report.Games = append(report.Games, summary)
	}
	report.Balances = r.wallet.snapshot()
	return report, nil
}

func (r *Runner) newAgents() ([domain.SeatCount]*bot.Agent, error) {
	var agents [domain.SeatCount]*bot.Agent
	for i, id := range r.seats {
		brain, err := bot.NewBrain(r.opts.Levels[i])
		if err != nil {
			return agents, err
		}
		agents[i] = &bot.Agent{ID: id, Name: id, Strategy: brain}
	}
	return agents, nil
}

func (r *Runner) playGame(ctx context.Context, n, dealer int) (GameSummary, error) {
	summary := GameSummary{Game: n, Dealer: dealer}
	lobbyID := fmt.Sprintf("sim-%d", n)
	log := r.log.With().Int("game", n).Logger()

	for _, id := range r.seats {
		receipt, err := r.ledger.DeductEntryFee(ctx, id, lobbyID, r.opts.Tier.EntryFee)
		if err != nil && !errors.Is(err, ledger.ErrInvalidAmount) {
			return summary, err
		}
		if err == nil && !receipt.Success {
			log.Warn().Str("seat", id).Int64("balance", receipt.Balance).Msg("entry fee not covered")
		}
	}

	agents, err := r.newAgents()
	if err != nil {
		return summary, err
	}

	m := newMirror(log)
	m.start()
	defer m.stop()

	game, events, err := r.svc.StartGame(r.seats[:], app.GameOptions{
		Dealer:      dealer,
		PointsToWin: r.opts.PointsToWin,
		Reward:      r.opts.Tier.Pot,
	})
	if err != nil {
		return summary, err
	}

	tracker := &handTracker{}
	if err := r.deliver(ctx, m, agents, tracker, &summary, events); err != nil {
		return summary, err
	}

	for steps := 0; game.Phase != domain.PhaseEnded; steps++ {
		if steps > maxStepsPerGame {
			return summary, fmt.Errorf("no result after %d moves", maxStepsPerGame)
		}
		if game.Phase == domain.PhaseAborted {
			return summary, fmt.Errorf("hand %d aborted", game.HandNumber)
		}
		seat := game.CurrentTurn
		move, err := agents[seat].PlayAtSeat(game, seat)
		if err != nil {
			return summary, fmt.Errorf("seat %d: %w", seat, err)
		}
		events, err := bot.Apply(r.svc, game, seat, move)
		if derr := r.deliver(ctx, m, agents, tracker, &summary, events); derr != nil {
			return summary, derr
		}
		if err != nil {
			return summary, fmt.Errorf("seat %d move %+v: %w", seat, move, err)
		}
	}

	summary.Result = *game.Result
	txs, err := r.ledger.CreditReward(ctx, lobbyID, summary.Result, r.seats, nil)
	if err != nil {
		return summary, err
	}
	log.Info().
		Str("winner", summary.Result.Winner.String()).
		Int("score_a", summary.Result.TeamA.Score).
		Int("score_b", summary.Result.TeamB.Score).
		Int("hands", summary.Hands).
		Int("payouts", len(txs)).
		Msg("game finished")
	return summary, nil
}

// handTracker follows hand boundaries in event order.
type handTracker struct {
	hand   int
	scored int
}

// deliver hands events to the bots, sends their wire form to the mirror and
// checks every replicated record against the authoritative payload.
func (r *Runner) deliver(ctx context.Context, m *mirror, agents [domain.SeatCount]*bot.Agent, tracker *handTracker, summary *GameSummary, events []app.Event) error {
	for _, ev := range events {
		for _, a := range agents {
			a.OnGameEvent(ev)
		}

		opCode, data, err := nakama.EncodeEvent(ev)
		if err != nil {
			return err
		}
		select {
		case m.in <- wireMessage{opCode: opCode, data: data}:
		case <-ctx.Done():
			return ctx.Err()
		}

		switch p := ev.Payload.(type) {
		case app.BiddingStartedPayload:
			tracker.hand = p.HandNumber
		case app.MisdealPayload:
			summary.Misdeals++
		case app.TrumpSelectedPayload:
			if p.Alone {
				summary.Alone++
			}
			got, err := m.trumps.Await(ctx, tracker.hand, r.opts.ReplicaWait)
			if err != nil {
				return fmt.Errorf("trump record for hand %d: %w", tracker.hand, err)
			}
			if got != p.Trump {
				return fmt.Errorf("hand %d trump %+v, replicated %+v: %w", tracker.hand, p.Trump, got, ErrReplicaDiverged)
			}
		case app.HandScoredPayload:
			summary.Hands++
			if p.Euchred {
				summary.Euchres++
			}
			tracker.scored++
			got, err := m.teams.Await(ctx, tracker.scored, r.opts.ReplicaWait)
			if err != nil {
				return fmt.Errorf("team records for hand %d: %w", tracker.scored, err)
			}
			if got != p.Teams {
				return fmt.Errorf("hand %d teams %+v, replicated %+v: %w", tracker.scored, p.Teams, got, ErrReplicaDiverged)
			}
			a, err := domain.TeamFromRecord(domain.TeamA, got[domain.TeamA], -1)
			if err != nil {
				return err
			}
			b, err := domain.TeamFromRecord(domain.TeamB, got[domain.TeamB], -1)
			if err != nil {
				return err
			}
			r.log.Debug().
				Int("hand", tracker.scored).
				Str("scorer", p.Scorer.String()).
				Int("points", p.Points).
				Int("score_a", a.Score).
				Int("score_b", b.Score).
				Msg("hand scored")
		}
	}
	return nil
}
