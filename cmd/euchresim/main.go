// Command euchresim plays bot-only euchre games offline and prints the results.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"euchre/internal/app/onboarding"
	"euchre/internal/bot"
	"euchre/internal/config"
	"euchre/internal/domain"
	"euchre/internal/sim"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type flags struct {
	configPath string
	seed       int64
	games      int
	points     int
	tier       string
	levels     string
	verbose    bool
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:          "euchresim",
		Short:        "Simulate bot-only euchre games",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVar(&f.configPath, "config", "data/game_config.json", "game config file")
	cmd.Flags().Int64Var(&f.seed, "seed", time.Now().UnixNano(), "shuffle seed")
	cmd.Flags().IntVar(&f.games, "games", 10, "number of games to play")
	cmd.Flags().IntVar(&f.points, "points", 0, "points to win (0 uses the config)")
	cmd.Flags().StringVar(&f.tier, "tier", "", "table tier id (empty uses the default tier)")
	cmd.Flags().StringVar(&f.levels, "levels", "standard,standard,standard,standard", "bot level per seat: easy, standard or smart")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "log every hand")
	return cmd
}

func parseLevels(s string) ([domain.SeatCount]bot.BotLevel, error) {
	var levels [domain.SeatCount]bot.BotLevel
	parts := strings.Split(s, ",")
	if len(parts) != domain.SeatCount {
		return levels, fmt.Errorf("need %d levels, got %d", domain.SeatCount, len(parts))
	}
	for i, p := range parts {
		levels[i] = bot.LevelFor(strings.TrimSpace(p))
	}
	return levels, nil
}

func run(ctx context.Context, f *flags) error {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if f.verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if err := config.LoadGameConfig(f.configPath); err != nil {
		log.Warn().Err(err).Str("path", f.configPath).Msg("using built-in game config")
	}
	cfg := config.GetGameConfig()

	levels, err := parseLevels(f.levels)
	if err != nil {
		return err
	}

	opts := sim.Options{
		Seed:         f.seed,
		Games:        f.games,
		PointsToWin:  f.points,
		Tier:         config.GetTier(f.tier),
		Levels:       levels,
		StarterChips: onboarding.DefaultStarterChips,
	}
	if cfg != nil {
		if opts.PointsToWin <= 0 {
			opts.PointsToWin = cfg.PointsToWin
		}
		if cfg.StarterChips > 0 {
			opts.StarterChips = cfg.StarterChips
		}
		opts.ReplicaWait = time.Duration(cfg.ReplicaWaitMillis) * time.Millisecond
	}

	log.Info().Int64("seed", f.seed).Int("games", opts.Games).Str("tier", opts.Tier.ID).Msg("starting simulation")

	report, err := sim.NewRunner(opts, log.Logger).Run(ctx)
	if len(report.Games) > 0 {
		printReport(report, levels)
	}
	if err != nil {
		log.Error().Err(err).Msg("simulation stopped")
		return err
	}
	return nil
}

func printReport(report sim.Report, levels [domain.SeatCount]bot.BotLevel) {
	games := pterm.TableData{{"Game", "Dealer", "Winner", "Team A", "Team B", "Hands", "Misdeals", "Euchres", "Alone"}}
	for _, g := range report.Games {
		games = append(games, []string{
			fmt.Sprint(g.Game),
			fmt.Sprint(g.Dealer),
			g.Result.Winner.String(),
			fmt.Sprint(g.Result.TeamA.Score),
			fmt.Sprint(g.Result.TeamB.Score),
			fmt.Sprint(g.Hands),
			fmt.Sprint(g.Misdeals),
			fmt.Sprint(g.Euchres),
			fmt.Sprint(g.Alone),
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(games).Render()

	seats := pterm.TableData{{"Seat", "Bot", "Level", "Team", "Chips"}}
	for i, id := range report.Seats {
		seats = append(seats, []string{
			fmt.Sprint(i),
			id,
			levelName(levels[i]),
			domain.TeamOf(i).String(),
			fmt.Sprint(report.Balances[id]),
		})
	}
	pterm.Println()
	_ = pterm.DefaultTable.WithHasHeader().WithData(seats).Render()

	pterm.Println()
	pterm.Info.Printfln("Team A won %d, team B won %d of %d games", report.Wins(domain.TeamA), report.Wins(domain.TeamB), len(report.Games))
}

func levelName(l bot.BotLevel) string {
	switch l {
	case bot.BotLevelEasy:
		return "easy"
	case bot.BotLevelSmart:
		return "smart"
	default:
		return "standard"
	}
}
