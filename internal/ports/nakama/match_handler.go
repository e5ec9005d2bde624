package nakama

import (
	"context"
	"database/sql"
	"math/rand"
	"time"

	"euchre/internal/app"
	"euchre/internal/app/ledger"
	"euchre/internal/bot"
	"euchre/internal/config"
	"euchre/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/spf13/cast"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
// Only the match loop touches it, so the game and team scores have a single writer.
type MatchState struct {
	Seats       [domain.SeatCount]string    `json:"seats"`      // user ids, "" is an empty seat
	OwnerSeat   int                         `json:"owner_seat"` // seat allowed to start the game
	NextDealer  int                         `json:"next_dealer"`
	Tick        int64                       `json:"tick"`
	Tier        config.TableTier            `json:"tier"`
	PointsToWin int                         `json:"points_to_win"`
	Presences   map[string]runtime.Presence `json:"-"`
	App         *app.Service                `json:"-"`
	Game        *domain.Game                `json:"-"` // nil while in the lobby
	Ledger      *ledger.Service             `json:"-"`
	// EntryFees maps user id to the transaction id of the fee paid for the current game.
	EntryFees map[string]string `json:"-"`

	// TurnDuration is how many ticks a human may hold the turn. 0 disables the timer.
	TurnDuration    int   `json:"turn_duration"`
	TurnStartedTick int64 `json:"turn_started_tick"`

	BotsEnabled          bool                  `json:"bots_enabled"`
	BotMinDelay          int                   `json:"bot_min_delay"`
	BotMaxDelay          int                   `json:"bot_max_delay"`
	BotAutoFillDelay     int                   `json:"bot_auto_fill_delay"`
	BotWaitUntil         int64                 `json:"bot_wait_until"`
	LastSinglePlayerTick int64                 `json:"last_single_player_tick"`
	Bots                 map[string]*bot.Agent `json:"-"`

	rng *rand.Rand
}

func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetOccupiedSeatCount() int {
	return domain.SeatCount - ms.GetOpenSeatsCount()
}

func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" && !bot.IsBot(seat) {
			count++
		}
	}
	return count
}

func (ms *MatchState) seatOf(userID string) int {
	for i, seat := range ms.Seats {
		if seat == userID {
			return i
		}
	}
	return -1
}

// isHumanSeat reports whether the seat index belongs to a human player.
func isHumanSeat(seats []string, seatIndex int) bool {
	if seatIndex < 0 || seatIndex >= len(seats) {
		return false
	}
	userID := seats[seatIndex]
	return userID != "" && !bot.IsBot(userID)
}

// findFirstHumanSeat returns the first seat index with a human occupant or -1 if none exist.
func findFirstHumanSeat(seats []string) int {
	for i := range seats {
		if isHumanSeat(seats, i) {
			return i
		}
	}
	return -1
}

func isHuman(userID string) bool {
	return userID != "" && !bot.IsBot(userID)
}

type matchHandler struct{}

func newMatchHandler() *matchHandler {
	return &matchHandler{}
}

// newMatchState builds the lobby state for a table at tier. rng drives both the deal and
// the bot delays; nil seeds one from the clock.
func newMatchState(tier config.TableTier, economy *ledger.Service, rng *rand.Rand) *MatchState {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &MatchState{
		Tick:             time.Now().Unix(),
		Tier:             tier,
		PointsToWin:      config.GetPointsToWin(),
		TurnDuration:     config.GetTurnDurationSeconds(),
		Presences:        make(map[string]runtime.Presence),
		App:              app.NewService(rng),
		rng:              rng,
		Ledger:           economy,
		EntryFees:        make(map[string]string),
		OwnerSeat:        -1,
		Bots:             make(map[string]*bot.Agent),
		BotMinDelay:      1,
		BotMaxDelay:      3,
		BotAutoFillDelay: 5,
	}
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	if err := config.LoadGameConfig(gameConfigPath); err != nil {
		logger.Warn("MatchInit: Could not load game config: %v", err)
	}

	tier := config.GetTier(cast.ToString(params["tier"]))
	state := newMatchState(tier, newLedger(nk), nil)
	if cfg := config.GetGameConfig(); cfg != nil && cfg.BotAutoFillDelaySeconds > 0 {
		state.BotAutoFillDelay = cfg.BotAutoFillDelaySeconds
	}

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	applyBotEnv(state, env)

	label, err := matchLabel(state)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	logger.Info("MatchInit: Table opened at tier %s (fee %d, pot %d)", tier.ID, tier.EntryFee, tier.Pot)
	tickRate := 1
	return state, tickRate, label
}

// applyBotEnv reads the bot runtime env; unparsable or non-positive values keep the defaults.
func applyBotEnv(state *MatchState, env map[string]string) {
	if val, ok := env[envBotsEnabled]; ok {
		state.BotsEnabled = cast.ToBool(val)
	}
	if i := cast.ToInt(env[envBotMinDelay]); i > 0 {
		state.BotMinDelay = i
	}
	if i := cast.ToInt(env[envBotMaxDelay]); i > 0 {
		state.BotMaxDelay = i
	}
	if i := cast.ToInt(env[envBotAutoFillDelay]); i > 0 {
		state.BotAutoFillDelay = i
	}
	if state.BotMaxDelay < state.BotMinDelay {
		state.BotMaxDelay = state.BotMinDelay
	}
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// Returning players always get back in.
	if matchState.seatOf(presence.GetUserId()) >= 0 {
		return state, true, ""
	}
	if matchState.Game != nil {
		return state, false, "Game in progress"
	}

	// A full lobby still admits a human when a bot can give up its seat.
	if matchState.GetOpenSeatsCount() == 0 {
		for _, seat := range matchState.Seats {
			if bot.IsBot(seat) {
				return state, true, ""
			}
		}
		return state, false, "Match full"
	}

	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		matchState.Presences[userID] = p

		if matchState.seatOf(userID) >= 0 {
			logger.Debug("MatchJoin: User %s reconnected.", userID)
			continue
		}

		assigned := false
		for i, seatUserID := range matchState.Seats {
			if seatUserID == "" {
				matchState.Seats[i] = userID
				assigned = true
				break
			}
		}
		if !assigned && matchState.Game == nil {
			for i, seatUserID := range matchState.Seats {
				if bot.IsBot(seatUserID) {
					logger.Info("MatchJoin: Replacing bot %s with human %s in seat %d", seatUserID, userID, i)
					delete(matchState.Bots, seatUserID)
					matchState.Seats[i] = userID
					assigned = true
					break
				}
			}
		}
		if !assigned {
			logger.Warn("MatchJoin: User %s joined but no seat (empty or bot) was available.", userID)
		}
	}

	if !isHumanSeat(matchState.Seats[:], matchState.OwnerSeat) {
		matchState.OwnerSeat = findFirstHumanSeat(matchState.Seats[:])
		if matchState.OwnerSeat >= 0 {
			logger.Debug("MatchJoin: Owner set to human seat %d.", matchState.OwnerSeat)
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger)

	return matchState
}

// MatchLeave frees the seats of leaving players. During a game a bot takes the seat over
// when bots are enabled; otherwise the game is abandoned.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)

		seat := matchState.seatOf(userID)
		if seat < 0 {
			continue
		}

		if matchState.Game == nil {
			matchState.Seats[seat] = ""
			logger.Debug("MatchLeave: User %s left, seat %d freed.", userID, seat)
			continue
		}

		if matchState.BotsEnabled {
			agent := mh.seatBot(matchState, seat, logger)
			matchState.Game.Players[seat].UserID = agent.ID
			logger.Info("MatchLeave: User %s left mid-game, bot %s takes seat %d.", userID, agent.ID, seat)
			continue
		}

		logger.Info("MatchLeave: User %s left mid-game, abandoning the game.", userID)
		matchState.Seats[seat] = ""
		mh.dispatchEvents(ctx, matchState, dispatcher, logger, []app.Event{{
			Kind:    app.EventHandAborted,
			Payload: app.HandAbortedPayload{Reason: "player left"},
		}})
		matchState.Game = nil
	}

	matchState.OwnerSeat = findFirstHumanSeat(matchState.Seats[:])
	if matchState.OwnerSeat < 0 {
		logger.Info("MatchLeave: Terminating match with no humans.")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger)

	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartGame:
			mh.handleStartGame(ctx, matchState, dispatcher, logger, msg)
		case OpBid:
			mh.handleBid(ctx, matchState, dispatcher, logger, msg)
		case OpDiscard:
			mh.handleDiscard(ctx, matchState, dispatcher, logger, msg)
		case OpPlayCard:
			mh.handlePlayCard(ctx, matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	mh.enforceTurnTimer(ctx, matchState, dispatcher, logger)
	if matchState.BotsEnabled {
		mh.processBots(ctx, matchState, dispatcher, logger)
	}

	return matchState
}

// awaitingMove reports whether the game is waiting on the seat to act.
func awaitingMove(game *domain.Game) bool {
	if game == nil {
		return false
	}
	switch game.Phase {
	case domain.PhaseBidding, domain.PhaseDiscard, domain.PhasePlaying:
		return true
	default:
		return false
	}
}

// enforceTurnTimer moves for a human who has held the turn for TurnDuration ticks.
func (mh *matchHandler) enforceTurnTimer(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.TurnDuration <= 0 || !awaitingMove(state.Game) {
		return
	}
	seat := state.Game.CurrentTurn
	userID := state.Seats[seat]
	if !isHuman(userID) {
		return
	}
	if state.Tick-state.TurnStartedTick < int64(state.TurnDuration) {
		return
	}

	logger.Info("enforceTurnTimer: User %s (seat %d) ran out of time, playing for them.", userID, seat)
	brain, _ := bot.NewBrain(bot.BotLevelStandard)
	mh.actForSeat(ctx, state, dispatcher, logger, seat, &bot.Agent{ID: userID, Name: userID, Strategy: brain})
}

// seatBot puts a bot agent into seat and returns it.
func (mh *matchHandler) seatBot(state *MatchState, seat int, logger runtime.Logger) *bot.Agent {
	identity := bot.GetBotIdentity(seat)
	agent, err := bot.NewAgent(identity.UserID)
	if err != nil {
		logger.Error("seatBot: Failed to create bot agent for %s: %v", identity.UserID, err)
		brain, _ := bot.NewBrain(bot.BotLevelStandard)
		agent = &bot.Agent{ID: identity.UserID, Name: identity.DisplayName, Strategy: brain}
	}
	state.Seats[seat] = agent.ID
	state.Bots[agent.ID] = agent
	return agent
}

func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	// Fill the lobby once the humans have waited long enough.
	if state.Game == nil {
		if state.GetHumanPlayerCount() == 0 || state.GetOpenSeatsCount() == 0 {
			state.LastSinglePlayerTick = 0
			return
		}
		if state.LastSinglePlayerTick == 0 {
			state.LastSinglePlayerTick = state.Tick
			logger.Debug("processBots: Open seats detected, starting auto-fill timer.")
		}
		if state.Tick-state.LastSinglePlayerTick < int64(state.BotAutoFillDelay) {
			return
		}
		for i, seat := range state.Seats {
			if seat == "" {
				agent := mh.seatBot(state, i, logger)
				logger.Info("processBots: Added bot %s (%s) to seat %d", agent.Name, agent.ID, i)
			}
		}
		state.LastSinglePlayerTick = 0
		mh.updateLabel(state, dispatcher, logger)
		mh.broadcastMatchState(state, dispatcher, logger)
		return
	}

	if !awaitingMove(state.Game) {
		return
	}

	currentTurn := state.Game.CurrentTurn
	currentUserID := state.Seats[currentTurn]
	if !bot.IsBot(currentUserID) {
		state.BotWaitUntil = 0
		return
	}

	if state.BotWaitUntil == 0 {
		delay := state.rng.Intn(state.BotMaxDelay-state.BotMinDelay+1) + state.BotMinDelay
		state.BotWaitUntil = state.Tick + int64(delay)
		logger.Debug("processBots: Bot %s (seat %d) will act at tick %d (current %d)", currentUserID, currentTurn, state.BotWaitUntil, state.Tick)
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	agent, exists := state.Bots[currentUserID]
	if !exists {
		agent = mh.seatBot(state, currentTurn, logger)
	}

	mh.actForSeat(ctx, state, dispatcher, logger, currentTurn, agent)
}

// actForSeat applies agent's move for seat. When the move cannot be computed or is
// rejected, the first legal action is played instead so the table keeps moving.
func (mh *matchHandler) actForSeat(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, seat int, agent *bot.Agent) {
	move, err := agent.PlayAtSeat(state.Game, seat)
	if err == nil {
		var events []app.Event
		events, err = bot.Apply(state.App, state.Game, seat, move)
		mh.dispatchEvents(ctx, state, dispatcher, logger, events)
		if err == nil {
			return
		}
		if domain.IsFatalToHand(err) {
			logger.Error("actForSeat: Move %+v for seat %d aborted the hand: %v", move, seat, err)
			return
		}
	}
	logger.Warn("actForSeat: %s (seat %d) move %+v failed: %v. Playing the first legal action.", agent.ID, seat, move, err)

	if !awaitingMove(state.Game) || state.Game.CurrentTurn != seat {
		return
	}
	fallback, ok := bot.FallbackMove(state.Game, seat)
	if !ok {
		logger.Error("actForSeat: No legal action for seat %d in phase %s.", seat, state.Game.Phase)
		return
	}
	events, err := bot.Apply(state.App, state.Game, seat, fallback)
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	if err != nil {
		logger.Error("actForSeat: Fallback %+v for seat %d rejected: %v", fallback, seat, err)
	}
}

func (mh *matchHandler) broadcastMatchState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	players := make([]interface{}, 0, domain.SeatCount)
	for i, userID := range state.Seats {
		if userID == "" {
			continue
		}

		displayName := userID
		if p, exists := state.Presences[userID]; exists {
			displayName = p.GetUsername()
		} else if name := bot.GetBotDisplayName(userID); name != "" {
			displayName = name
		} else if agent, ok := state.Bots[userID]; ok {
			displayName = agent.Name
		}

		cardsRemaining := 0
		if state.Game != nil && state.Game.Players[i] != nil {
			cardsRemaining = len(state.Game.Players[i].Hand)
		}

		players = append(players, map[string]interface{}{
			"user_id":         userID,
			"seat":            i,
			"team":            int(domain.TeamOf(i)),
			"is_owner":        i == state.OwnerSeat,
			"is_bot":          bot.IsBot(userID),
			"cards_remaining": cardsRemaining,
			"display_name":    displayName,
		})
	}

	seats := make([]interface{}, len(state.Seats))
	for i, s := range state.Seats {
		seats[i] = s
	}
	fields := map[string]interface{}{
		"seats":      seats,
		"owner_seat": state.OwnerSeat,
		"tick":       state.Tick,
		"tier":       state.Tier.ID,
		"entry_fee":  state.Tier.EntryFee,
		"pot":        state.Tier.Pot,
		"players":    players,
	}
	if state.Game != nil {
		fields["teams"] = teamRecordsValue(domain.TeamRecords(state.Game))
	}

	data, err := marshalFields(fields)
	if err != nil {
		logger.Error("broadcastMatchState: Failed to marshal snapshot: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpMatchState, data, nil, nil, true); err != nil {
		logger.Warn("broadcastMatchState: Broadcast failed: %v", err)
	}
}

func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSeat := state.seatOf(senderID)

	logger.Info("StartGame: Request received from %s (seat=%d, owner_seat=%d, occupied=%d)", senderID, senderSeat, state.OwnerSeat, state.GetOccupiedSeatCount())

	if state.Game != nil {
		logger.Warn("StartGame: Game already running.")
		return
	}
	if senderSeat != state.OwnerSeat {
		logger.Warn("StartGame: User %s tried to start game but is not owner (owner_seat=%d)", senderID, state.OwnerSeat)
		return
	}
	if occupied := state.GetOccupiedSeatCount(); occupied < app.PlayersToStartGame {
		logger.Warn("StartGame: Cannot start with %d players. Need %d.", occupied, app.PlayersToStartGame)
		mh.sendError(state, dispatcher, logger, senderID, 400, app.ErrTooFewPlayers.Error())
		return
	}

	mh.collectEntryFees(ctx, state, logger)

	game, events, err := state.App.StartGame(state.Seats[:], app.GameOptions{
		Dealer:      state.NextDealer,
		PointsToWin: state.PointsToWin,
		Reward:      state.Tier.Pot,
	})
	if err != nil {
		logger.Error("StartGame: Failed to start game: %v", err)
		return
	}
	state.Game = game

	mh.updateLabel(state, dispatcher, logger)
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)

	logger.Info("StartGame: Game started at tier %s, dealer seat %d.", state.Tier.ID, game.Dealer)
}

// matchLobbyID is the lobby id entry fees and payouts are recorded under.
func matchLobbyID(ctx context.Context) string {
	if matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string); matchID != "" {
		return matchID
	}
	return "local"
}

// collectEntryFees charges every human at the table, skipping those who already paid this
// lobby through the deduct_entry_fee RPC. A failed debit is logged and the game starts anyway.
func (mh *matchHandler) collectEntryFees(ctx context.Context, state *MatchState, logger runtime.Logger) {
	state.EntryFees = make(map[string]string)
	if state.Ledger == nil || state.Tier.EntryFee <= 0 {
		return
	}
	matchID := matchLobbyID(ctx)

	for _, userID := range state.Seats {
		if !isHuman(userID) {
			continue
		}
		receipt, err := state.Ledger.DeductEntryFee(ctx, userID, matchID, state.Tier.EntryFee)
		switch {
		case err != nil:
			logger.Warn("collectEntryFees: Entry fee for %s failed: %v", userID, err)
		case !receipt.Success:
			logger.Warn("collectEntryFees: %s cannot cover entry fee %d (balance %d)", userID, state.Tier.EntryFee, receipt.Balance)
		default:
			if receipt.AlreadyPaid {
				logger.Debug("collectEntryFees: %s already paid (tx %s)", userID, receipt.Transaction.ID)
			}
			state.EntryFees[userID] = receipt.Transaction.ID
		}
	}
}

// clearEntryFees drops the fee records of the finished game so the next game charges again.
func (mh *matchHandler) clearEntryFees(ctx context.Context, state *MatchState, logger runtime.Logger) {
	if len(state.EntryFees) == 0 {
		return
	}
	users := make([]string, 0, len(state.EntryFees))
	for userID := range state.EntryFees {
		users = append(users, userID)
	}
	if err := state.Ledger.ClearEntryFees(ctx, matchLobbyID(ctx), users); err != nil {
		logger.Warn("clearEntryFees: %v", err)
	}
	state.EntryFees = make(map[string]string)
}

// senderSeat resolves the seat of a message sender for an in-game action.
func (mh *matchHandler) senderSeat(state *MatchState, msg runtime.MatchData, op string, logger runtime.Logger) (int, bool) {
	if state.Game == nil {
		logger.Warn("%s: Game not started.", op)
		return -1, false
	}
	seat := state.seatOf(msg.GetUserId())
	if seat < 0 {
		logger.Warn("%s: User %s has no seat.", op, msg.GetUserId())
		return -1, false
	}
	return seat, true
}

func (mh *matchHandler) handleBid(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	seat, ok := mh.senderSeat(state, msg, "handleBid", logger)
	if !ok {
		return
	}
	req, err := decodeBidRequest(msg.GetData())
	if err != nil {
		logger.Warn("handleBid: Invalid payload from %s: %v", msg.GetUserId(), err)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), 400, "invalid bid payload")
		return
	}

	events, err := state.App.Bid(state.Game, seat, req.Choice, req.Suit, req.Alone)
	mh.reply(ctx, state, dispatcher, logger, msg.GetUserId(), "handleBid", events, err)
}

func (mh *matchHandler) handleDiscard(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	seat, ok := mh.senderSeat(state, msg, "handleDiscard", logger)
	if !ok {
		return
	}
	card, err := decodeCardRequest(msg.GetData())
	if err != nil {
		logger.Warn("handleDiscard: Invalid payload from %s: %v", msg.GetUserId(), err)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), 400, err.Error())
		return
	}

	events, err := state.App.Discard(state.Game, seat, card)
	mh.reply(ctx, state, dispatcher, logger, msg.GetUserId(), "handleDiscard", events, err)
}

func (mh *matchHandler) handlePlayCard(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	seat, ok := mh.senderSeat(state, msg, "handlePlayCard", logger)
	if !ok {
		return
	}
	card, err := decodeCardRequest(msg.GetData())
	if err != nil {
		logger.Warn("handlePlayCard: Invalid payload from %s: %v", msg.GetUserId(), err)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), 400, err.Error())
		return
	}

	events, err := state.App.PlayCard(state.Game, seat, card)
	if err != nil && !domain.IsFatalToHand(err) {
		logger.Warn("handlePlayCard: User %s (seat %d) failed to play %v: %v. Hand: %v", msg.GetUserId(), seat, card, err, state.Game.Players[seat].Hand)
	}
	mh.reply(ctx, state, dispatcher, logger, msg.GetUserId(), "handlePlayCard", events, err)
}

// reply dispatches events and reports err to the sender. Errors that abort the hand are logged as errors.
func (mh *matchHandler) reply(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID, op string, events []app.Event, err error) {
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	if err == nil {
		return
	}
	code := 400
	if domain.IsFatalToHand(err) {
		code = 500
		logger.Error("%s: Hand aborted: %v", op, err)
	} else {
		logger.Warn("%s: User %s action rejected: %v", op, userID, err)
	}
	mh.sendError(state, dispatcher, logger, userID, code, err.Error())
}

// dispatchEvents sends app events to clients, lets bots observe them and settles finished games.
func (mh *matchHandler) dispatchEvents(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	if len(events) > 0 {
		state.TurnStartedTick = state.Tick
	}
	for _, ev := range events {
		for _, agent := range state.Bots {
			agent.OnGameEvent(ev)
		}

		mh.broadcastEvent(state, dispatcher, logger, ev)

		switch ev.Kind {
		case app.EventGameEnded:
			p := ev.Payload.(app.GameEndedPayload)
			mh.settle(ctx, state, logger, p.Result)
			mh.clearEntryFees(ctx, state, logger)
			state.NextDealer = (state.NextDealer + 1) % domain.SeatCount
			state.Game = nil
			mh.updateLabel(state, dispatcher, logger)
		case app.EventHandAborted:
			mh.clearEntryFees(ctx, state, logger)
			state.Game = nil
			mh.updateLabel(state, dispatcher, logger)
		}
	}
}

// settle pays the pot to the winning partnership's humans.
func (mh *matchHandler) settle(ctx context.Context, state *MatchState, logger runtime.Logger, result domain.GameResult) {
	if state.Ledger == nil {
		return
	}
	txs, err := state.Ledger.CreditReward(ctx, matchLobbyID(ctx), result, state.Seats, isHuman)
	if err != nil {
		logger.Error("settle: Failed to credit reward: %v", err)
		return
	}
	if result.Winner == domain.WinnerNone {
		logger.Info("settle: Game tied %d-%d, no payout.", result.TeamA.Score, result.TeamB.Score)
		return
	}
	logger.Info("settle: Team %s won %d-%d, paid %d players.", result.Winner, result.TeamA.Score, result.TeamB.Score, len(txs))
}

func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	opCode, data, err := EncodeEvent(ev)
	if err != nil {
		logger.Error("broadcastEvent: %v", err)
		return
	}

	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}
		// Private events for absent players (bots) must not fall back to a broadcast.
		if len(recipients) == 0 {
			return
		}
	}

	if err := dispatcher.BroadcastMessage(opCode, data, recipients, nil, true); err != nil {
		logger.Warn("broadcastEvent: Broadcast of %s failed: %v", ev.Kind, err)
	}
}

// sendError sends a game_error message to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("sendError: Presence for %s not found", userID)
		return
	}
	data, err := marshalFields(map[string]interface{}{"code": code, "message": message})
	if err != nil {
		logger.Error("sendError: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpGameError, data, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Warn("sendError: Broadcast failed: %v", err)
	}
}

func matchLabel(state *MatchState) (string, error) {
	phase := "lobby"
	if state.Game != nil {
		phase = "playing"
	}
	label, err := structpb.NewStruct(map[string]interface{}{
		MatchLabelKeyOpenSeats: state.GetOpenSeatsCount(),
		"state":                phase,
		"game":                 GameLabel,
		"tier":                 state.Tier.ID,
	})
	if err != nil {
		return "", err
	}
	b, err := protojson.MarshalOptions{EmitUnpopulated: true}.Marshal(label)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := matchLabel(state)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated with %d grace seconds", graceSeconds)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}

var _ runtime.Match = (*matchHandler)(nil)
