package games

import (
	"context"
	"github.com/google/uuid"
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/event"
	"github.com/lefinal/masc-match/fsm"
	"github.com/lefinal/masc-match/messages"
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/player"
	"github.com/lefinal/masc-match/portal"
	"go.uber.org/zap"
	"math/rand"
	"time"
)

// saveResultTimeout is the timeout for persisting match results.
const saveResultTimeout = 10 * time.Second

// Base implements Rule with the shared phase logic. The mode-specific parts are
// provided by a Mode.
type Base struct {
	logger   *zap.Logger
	room     Room
	deps     Deps
	mode     Mode
	gameMode model.GameMode
	machine  *fsm.Machine[State, Trigger]
	random   *rand.Rand
	// matchID is generated when preparing starts.
	matchID uuid.UUID
	// matchStart is set when the first round state is entered.
	matchStart time.Time
	// roundTime only advances in round states and is reset when a match
	// starts.
	roundTime time.Duration
	// phaseTime is reset on every transition and prepare phase change.
	phaseTime    time.Duration
	preparePhase PreparePhase
	// blockPlaying disables scoring until blockRemaining elapsed.
	blockPlaying   bool
	blockRemaining time.Duration
}

func newBase(room Room, deps Deps, gameMode model.GameMode) *Base {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	random := deps.Random
	if random == nil {
		random = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	logger := deps.Logger.Named("rule").With(
		zap.Any("channel_id", room.ChannelID()),
		zap.Any("room_id", room.ID()),
		zap.Any("game_mode", gameMode))
	b := &Base{
		logger:   logger,
		room:     room,
		deps:     deps,
		gameMode: gameMode,
		random:   random,
	}
	b.machine = fsm.New[State, Trigger](logger, StateWaiting)
	return b
}

// configure wires the state machine.
func (b *Base) configure() {
	b.machine.Configure(StateWaiting).
		PermitIf(TriggerStartPrepare, StatePreparing, b.canStart).
		OnEntry(func(_ fsm.Transition[State, Trigger]) {
			b.resetMatch()
		})
	b.machine.Configure(StatePreparing).
		PermitIf(TriggerStartGame, StateFirstHalf, b.mode.HasHalves).
		PermitIf(TriggerStartGame, StateFullGame, func() bool { return !b.mode.HasHalves() }).
		Permit(TriggerEndGame, StateWaiting).
		OnEntry(func(_ fsm.Transition[State, Trigger]) {
			b.startPreparing()
		})
	b.machine.Configure(StatePlaying).
		Permit(TriggerEndGame, StateWaiting)
	b.machine.Configure(StateFullGame).
		SubstateOf(StatePlaying).
		Permit(TriggerStartResult, StateEnteringResult).
		OnEntryFrom(TriggerStartGame, func(_ fsm.Transition[State, Trigger]) {
			b.startMatch()
		})
	b.machine.Configure(StateFirstHalf).
		SubstateOf(StatePlaying).
		Permit(TriggerStartHalfTime, StateEnteringHalfTime).
		Permit(TriggerStartResult, StateEnteringResult).
		OnEntryFrom(TriggerStartGame, func(_ fsm.Transition[State, Trigger]) {
			b.startMatch()
		})
	b.machine.Configure(StateEnteringHalfTime).
		SubstateOf(StatePlaying).
		Permit(TriggerStartHalfTime, StateHalfTime).
		Permit(TriggerStartResult, StateEnteringResult).
		OnEntry(func(_ fsm.Transition[State, Trigger]) {
			b.broadcastCountdown(StateHalfTime, b.deps.Timing.EnteringHalfTime)
		})
	b.machine.Configure(StateHalfTime).
		SubstateOf(StatePlaying).
		Permit(TriggerStartSecondHalf, StateSecondHalf).
		Permit(TriggerStartResult, StateEnteringResult).
		OnEntry(func(_ fsm.Transition[State, Trigger]) {
			b.broadcastCountdown(StateSecondHalf, b.deps.Timing.HalfTime)
		})
	b.machine.Configure(StateSecondHalf).
		SubstateOf(StatePlaying).
		Permit(TriggerStartResult, StateEnteringResult).
		OnEntry(func(_ fsm.Transition[State, Trigger]) {
			b.reviveActive()
		})
	b.machine.Configure(StateEnteringResult).
		SubstateOf(StatePlaying).
		Permit(TriggerStartResult, StateResult).
		OnEntry(func(_ fsm.Transition[State, Trigger]) {
			b.broadcastCountdown(StateResult, b.deps.Timing.EnteringResult)
		})
	b.machine.Configure(StateResult).
		SubstateOf(StatePlaying).
		OnEntry(func(_ fsm.Transition[State, Trigger]) {
			b.processResult()
		})
	b.machine.OnTransitioned(b.onTransitioned)
}

// Mode returns the game mode.
func (b *Base) Mode() model.GameMode {
	return b.gameMode
}

// Initialize allocates the teams of the mode and resets the match state.
func (b *Base) Initialize() error {
	for _, spec := range b.mode.Teams(b.room.Options()) {
		err := b.room.Roster().AddTeam(spec.ID, spec.PlayerLimit, spec.SpectatorLimit)
		if err != nil {
			return errors.Wrap(err, "add team", errors.Details{"team": spec.ID.String()})
		}
	}
	b.resetMatch()
	return nil
}

// Cleanup removes all teams.
func (b *Base) Cleanup() {
	b.room.Roster().Clear()
}

// State returns the current state.
func (b *Base) State() State {
	return b.machine.State()
}

// IsInState checks the current state including parent states.
func (b *Base) IsInState(state State) bool {
	return b.machine.IsInState(state)
}

// IsPlaying checks whether a match is running.
func (b *Base) IsPlaying() bool {
	return b.machine.IsInState(StatePlaying)
}

// CanFire checks whether the trigger is currently permitted.
func (b *Base) CanFire(trigger Trigger) bool {
	return b.machine.CanFire(trigger)
}

// Fire the trigger.
func (b *Base) Fire(trigger Trigger) error {
	return b.machine.Fire(trigger)
}

// NewRecord creates a record of the mode.
func (b *Base) NewRecord() player.Record {
	return b.mode.NewRecord()
}

// PreparePhase returns the current sub-phase while preparing.
func (b *Base) PreparePhase() PreparePhase {
	return b.preparePhase
}

// RoundTime returns the elapsed round time.
func (b *Base) RoundTime() time.Duration {
	return b.roundTime
}

// IsBlocked describes whether playing is currently blocked.
func (b *Base) IsBlocked() bool {
	return b.blockPlaying
}

// TeamScores returns the scores of all teams.
func (b *Base) TeamScores() []messages.TeamScore {
	teams := b.room.Roster().Teams()
	scores := make([]messages.TeamScore, 0, len(teams))
	for _, info := range teams {
		scores = append(scores, messages.TeamScore{
			Team:  info.ID,
			Score: info.Score,
		})
	}
	return scores
}

// isRoundState checks whether the state is one where the match is actually
// played.
func isRoundState(state State) bool {
	return state == StateFullGame || state == StateFirstHalf || state == StateSecondHalf
}

// scoringEnabled checks whether scoring events mutate records and scores.
func (b *Base) scoringEnabled() bool {
	return isRoundState(b.State()) && !b.blockPlaying
}

// Update advances the timers and fires triggers for timed phases and limits.
func (b *Base) Update(elapsed time.Duration) {
	state := b.State()
	b.phaseTime += elapsed
	if isRoundState(state) {
		b.roundTime += elapsed
	}
	switch {
	case state == StatePreparing:
		b.updatePreparing()
	case b.machine.IsInState(StatePlaying):
		b.accumulatePlayTime(elapsed)
		b.updatePlaying(state, elapsed)
	}
}

// updatePreparing progresses through the prepare phases.
func (b *Base) updatePreparing() {
	if b.preparePhase == PreparePhaseLoading {
		playing := b.playingParticipants()
		if len(playing) == 0 {
			b.fire(TriggerEndGame)
			return
		}
		allLoaded := true
		for _, p := range playing {
			if !p.IsLoaded {
				allLoaded = false
				break
			}
		}
		if !allLoaded {
			if b.phaseTime < b.deps.Timing.Loading {
				return
			}
			b.ejectUnloaded(playing)
			if len(b.playingParticipants()) == 0 {
				b.fire(TriggerEndGame)
				return
			}
		}
		b.setPreparePhase(PreparePhaseCountdown)
		b.broadcastCountdown(StatePlaying, b.deps.Timing.Countdown)
	}
	if b.preparePhase == PreparePhaseCountdown {
		if b.phaseTime < b.deps.Timing.Countdown {
			return
		}
		b.setPreparePhase(PreparePhaseReadyToStart)
	}
	if b.preparePhase == PreparePhaseReadyToStart {
		b.fire(TriggerStartGame)
	}
}

// ejectUnloaded removes all given participants that did not finish loading in
// time from the room.
func (b *Base) ejectUnloaded(playing []*player.Participant) {
	for _, p := range playing {
		if p.IsLoaded {
			continue
		}
		b.logger.Info("loading timeout", zap.Any("player_id", p.ID()))
		b.room.Eject(p.ID(), model.LeaveReasonLoadingTimeout)
	}
}

func (b *Base) setPreparePhase(phase PreparePhase) {
	b.preparePhase = phase
	b.phaseTime = 0
	b.room.Broadcast(messages.Message{
		MessageType: messages.MessageTypePreparePhase,
		Content:     messages.MessagePreparePhase{Phase: string(phase)},
	})
}

// updatePlaying handles timed phases and limits while playing.
func (b *Base) updatePlaying(state State, elapsed time.Duration) {
	timing := b.deps.Timing
	switch state {
	case StateEnteringHalfTime:
		if b.phaseTime >= timing.EnteringHalfTime {
			b.fire(TriggerStartHalfTime)
		}
	case StateHalfTime:
		if b.phaseTime >= timing.HalfTime {
			b.fire(TriggerStartSecondHalf)
		}
	case StateEnteringResult:
		if b.phaseTime >= timing.EnteringResult {
			b.fire(TriggerStartResult)
		}
	case StateResult:
		if b.phaseTime >= timing.ResultDisplay {
			b.fire(TriggerEndGame)
		}
	case StateFullGame, StateFirstHalf, StateSecondHalf:
		if b.blockPlaying {
			b.blockRemaining -= elapsed
			if b.blockRemaining <= 0 {
				b.blockPlaying = false
				b.blockRemaining = 0
				b.mode.OnUnblock()
			}
		} else {
			b.mode.Tick(elapsed)
		}
		if b.State() != state {
			return
		}
		b.checkLimits(state)
	}
}

// checkLimits checks score, time and player limits. Each check is skipped if a
// previous one already changed the state.
func (b *Base) checkLimits(state State) {
	options := b.room.Options()
	if options.ScoreLimit > 0 && b.mode.ScoreLimitReached(options.ScoreLimit) {
		b.logger.Debug("score limit reached")
		b.fire(TriggerStartResult)
	}
	if b.State() != state {
		return
	}
	if options.TimeLimit > 0 {
		if state == StateFirstHalf && b.roundTime >= options.TimeLimit/2 {
			b.fire(TriggerStartHalfTime)
		} else if state != StateFirstHalf && b.roundTime >= options.TimeLimit {
			b.logger.Debug("time limit reached")
			b.fire(TriggerStartResult)
		}
	}
	if b.State() != state {
		return
	}
	if !b.mode.EnoughPlayers() {
		b.logger.Debug("not enough players")
		b.fire(TriggerStartResult)
	}
}

// fire the trigger and log errors. Errors are expected for duplicate events.
func (b *Base) fire(trigger Trigger) {
	err := b.machine.Fire(trigger)
	if err != nil {
		b.logger.Debug("fire trigger failed", zap.Any("trigger", trigger), zap.Error(err))
	}
}

// accumulatePlayTime adds the elapsed time to all active participants.
func (b *Base) accumulatePlayTime(elapsed time.Duration) {
	for _, p := range b.room.Participants() {
		if p.IsActive() {
			p.PlayTime += elapsed
		}
	}
}

// block scoring for the given duration.
func (b *Base) block(d time.Duration) {
	b.blockPlaying = true
	b.blockRemaining = d
}

// canStart is the guard for starting to prepare a match. Friendly rooms may
// always start. Otherwise, each team needs at least one playing member that is
// ready or the master.
func (b *Base) canStart() bool {
	if b.room.Options().IsFriendly {
		return true
	}
	master := b.room.Master()
	participants := b.room.Participants()
	for _, info := range b.room.Roster().Teams() {
		if info.PlayerLimit == 0 {
			continue
		}
		found := false
		for _, p := range participants {
			if p.Team == info.ID && p.IsPlaying() && (p.IsReady || p.ID() == master) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// everyTeamHasActivePlayers checks whether each team with player capacity has
// at least one active participant. In friendly rooms, one active participant
// overall suffices.
func (b *Base) everyTeamHasActivePlayers() bool {
	active := make(map[model.TeamID]int)
	total := 0
	for _, p := range b.room.Participants() {
		if p.IsActive() {
			active[p.Team]++
			total++
		}
	}
	if b.room.Options().IsFriendly {
		return total > 0
	}
	for _, info := range b.room.Roster().Teams() {
		if info.PlayerLimit > 0 && active[info.ID] == 0 {
			return false
		}
	}
	return true
}

// playingParticipants returns all participants in playing mode.
func (b *Base) playingParticipants() []*player.Participant {
	all := b.room.Participants()
	playing := make([]*player.Participant, 0, len(all))
	for _, p := range all {
		if p.IsPlaying() {
			playing = append(playing, p)
		}
	}
	return playing
}

// activeParticipants returns all participants that actively play the match.
func (b *Base) activeParticipants() []*player.Participant {
	all := b.room.Participants()
	active := make([]*player.Participant, 0, len(all))
	for _, p := range all {
		if p.IsActive() {
			active = append(active, p)
		}
	}
	return active
}

// resetMatch resets all participants, records and scores.
func (b *Base) resetMatch() {
	b.roundTime = 0
	b.phaseTime = 0
	b.preparePhase = ""
	b.blockPlaying = false
	b.blockRemaining = 0
	b.room.Roster().ResetScores()
	for _, p := range b.room.Participants() {
		p.ResetForMatch(b.mode.NewRecord())
	}
}

// startPreparing sets up a new match.
func (b *Base) startPreparing() {
	b.matchID = uuid.New()
	b.roundTime = 0
	for _, p := range b.room.Participants() {
		p.ResetForMatch(b.mode.NewRecord())
		if p.IsPlaying() {
			p.State = model.PlayerStateWaiting
		} else {
			p.State = model.PlayerStateSpectating
		}
	}
	b.setPreparePhase(PreparePhaseLoading)
}

// startMatch starts the first round state.
func (b *Base) startMatch() {
	b.matchStart = time.Now()
	b.roundTime = 0
	b.room.Roster().ResetScores()
	for _, p := range b.room.Participants() {
		if p.IsPlaying() && p.IsLoaded {
			p.State = model.PlayerStateAlive
		}
	}
	b.broadcastBriefing(false)
}

// reviveActive sets all active participants alive.
func (b *Base) reviveActive() {
	for _, p := range b.activeParticipants() {
		if b.mode.CanRespawn(p) {
			p.State = model.PlayerStateAlive
		}
	}
}

// onTransitioned broadcasts the new state.
func (b *Base) onTransitioned(t fsm.Transition[State, Trigger]) {
	b.phaseTime = 0
	b.logger.Debug("transitioned",
		zap.Any("trigger", t.Trigger),
		zap.Any("source", t.Source),
		zap.Any("destination", t.Destination))
	b.mode.OnTransition(t)
	b.room.Broadcast(messages.Message{
		MessageType: messages.MessageTypeGameState,
		Content: messages.MessageGameState{
			State:   string(t.Destination),
			Trigger: string(t.Trigger),
			Teams:   b.TeamScores(),
		},
	})
	if isRoundState(t.Destination) {
		b.broadcastStatus()
	}
	b.publish(TopicRoomStateChanged, event.RoomStateChangedEvent{
		Channel: b.room.ChannelID(),
		Room:    b.room.ID(),
		Mode:    b.gameMode,
		State:   string(t.Destination),
		Trigger: string(t.Trigger),
		Members: len(b.room.Participants()),
	})
}

// publish the payload in the background if a publisher is set.
func (b *Base) publish(topic portal.Topic, payload interface{}) {
	if b.deps.Publisher == nil {
		return
	}
	go b.deps.Publisher.Publish(context.Background(), topic, payload)
}

func (b *Base) broadcastCountdown(forState State, d time.Duration) {
	b.room.Broadcast(messages.Message{
		MessageType: messages.MessageTypeCountdown,
		Content: messages.MessageCountdown{
			For:         string(forState),
			RemainingMS: d.Milliseconds(),
		},
	})
}

// statusMessage creates the mode status message or returns false if the mode
// has no status.
func (b *Base) statusMessage() (messages.Message, bool) {
	status := b.mode.Status()
	if status == nil {
		return messages.Message{}, false
	}
	return messages.Message{
		MessageType: messages.MessageTypeModeStatus,
		Content: messages.MessageModeStatus{
			Mode:   b.gameMode,
			Status: status,
		},
	}, true
}

// broadcastStatus broadcasts the mode status if the mode has one.
func (b *Base) broadcastStatus() {
	if message, ok := b.statusMessage(); ok {
		b.room.Broadcast(message)
	}
}

func (b *Base) broadcastBriefing(isResult bool) {
	briefing := b.Briefing()
	data, err := briefing.MarshalBinary()
	if err != nil {
		errors.Log(b.logger, errors.Wrap(err, "marshal briefing", nil))
		return
	}
	b.room.Broadcast(messages.Message{
		MessageType: messages.MessageTypeBriefing,
		Content: messages.MessageBriefing{
			IsResult: isResult,
			Data:     data,
		},
	})
}

// OnLoadingCompleted marks the participant as loaded. Members that intrude a
// running match are set alive and receive the current mode status.
func (b *Base) OnLoadingCompleted(playerID model.PlayerID) error {
	p, ok := b.room.Participant(playerID)
	if !ok {
		return errors.NewDesyncError(errors.KindUnknownPlayer, "unknown player",
			errors.Details{"player_id": playerID})
	}
	if !p.IsPlaying() {
		return errors.NewInvalidStateError(errors.KindNotPlaying, "spectators do not load", nil)
	}
	state := b.State()
	switch {
	case state == StatePreparing:
		if p.IsLoaded {
			return nil
		}
		p.IsLoaded = true
		b.room.Broadcast(messages.Message{
			MessageType: messages.MessageTypePlayerLoaded,
			Content:     messages.MessagePlayer{Player: p.ID()},
		})
		return nil
	case b.IsPlaying():
		if p.IsLoaded {
			return nil
		}
		p.IsLoaded = true
		p.State = model.PlayerStateAlive
		b.onIntrudeCompleted(p)
		return nil
	}
	return errors.NewInvalidStateError(errors.KindNotPlaying, "no match in progress",
		errors.Details{"state": string(state)})
}

// onIntrudeCompleted sends the current match state to a participant that
// joined a running match.
func (b *Base) onIntrudeCompleted(p *player.Participant) {
	b.logger.Debug("intrude completed", zap.Any("player_id", p.ID()))
	b.room.Broadcast(messages.Message{
		MessageType: messages.MessageTypePlayerLoaded,
		Content:     messages.MessagePlayer{Player: p.ID()},
	})
	p.Send(messages.Message{
		MessageType: messages.MessageTypeGameState,
		Content: messages.MessageGameState{
			State: string(b.State()),
			Teams: b.TeamScores(),
		},
	})
	if message, ok := b.statusMessage(); ok {
		p.Send(message)
	}
}

// OnRoomJoinCompleted sends the mode status to the participant if a match is
// running.
func (b *Base) OnRoomJoinCompleted(p *player.Participant) {
	if !b.IsPlaying() {
		return
	}
	if message, ok := b.statusMessage(); ok {
		p.Send(message)
	}
}

// OnLeave forwards leaves during a match to the mode.
func (b *Base) OnLeave(p *player.Participant) {
	if !b.IsPlaying() {
		return
	}
	b.mode.OnLeave(p)
}

// processResult computes the outcome of the match and hands it to all
// collaborators.
func (b *Base) processResult() {
	options := b.room.Options()
	briefing := b.Briefing()
	result := event.MatchResult{
		MatchID:    b.matchID,
		Channel:    b.room.ChannelID(),
		Room:       b.room.ID(),
		Mode:       b.gameMode,
		Map:        options.Map,
		Start:      b.matchStart,
		End:        time.Now(),
		WinnerTeam: briefing.WinnerTeam(),
		NoStats:    options.NoStats,
	}
	for _, t := range briefing.Teams {
		result.Teams = append(result.Teams, event.MatchTeamResult{Team: t.Team, Score: t.Score})
	}
	placements := make(map[model.PlayerID]int)
	for _, bp := range briefing.Players {
		placements[bp.Player] = bp.Placement
	}
	for _, p := range b.activeParticipants() {
		won, decided := briefing.Outcome(p.ID())
		score := p.Record.TotalScore()
		experience := 0
		if b.deps.Catalog != nil {
			experience = b.deps.Catalog.Experience(b.gameMode, p.PlayTime, score, won)
		}
		if options.IsBurning {
			experience *= 2
		}
		p.ExperienceGained = experience
		p.DurabilityLoss = int(p.PlayTime / time.Minute)
		if !options.NoStats {
			p.RecordMatch(won, decided)
			p.AddExperience(experience)
		}
		stats := p.Stats()
		p.Send(messages.Message{
			MessageType: messages.MessageTypePlayerStats,
			Content: messages.MessagePlayerStats{
				Won:            won,
				Experience:     experience,
				DurabilityLoss: p.DurabilityLoss,
				Wins:           stats.Wins,
				Losses:         stats.Losses,
			},
		})
		base := p.Record.Base()
		result.Players = append(result.Players, event.MatchPlayerResult{
			Player:         p.ID(),
			Nickname:       p.Nickname(),
			Team:           p.Team,
			Score:          score,
			Kills:          base.Kills,
			Deaths:         base.Deaths,
			Assists:        base.Assists,
			Placement:      placements[p.ID()],
			Won:            won,
			Decided:        decided,
			Experience:     experience,
			DurabilityLoss: p.DurabilityLoss,
			PlayTime:       p.PlayTime,
		})
	}
	b.logger.Info("match result",
		zap.String("match_id", b.matchID.String()),
		zap.Any("winner_team", result.WinnerTeam),
		zap.Int("players", len(result.Players)))
	b.broadcastBriefing(true)
	b.publish(TopicMatchResult, result)
	if options.NoStats || b.deps.Results == nil {
		return
	}
	go func(results ResultStore, logger *zap.Logger) {
		ctx, cancel := context.WithTimeout(context.Background(), saveResultTimeout)
		defer cancel()
		err := results.SaveMatchResult(ctx, result)
		if err != nil {
			errors.Log(logger, errors.Wrap(err, "save match result", errors.Details{"match_id": result.MatchID.String()}))
		}
	}(b.deps.Results, b.logger)
}
