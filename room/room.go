// Package room provides the Room aggregate that owns the team roster, game
// rule and vote-kick arbiter of a match, and the per-channel Registry.
package room

import (
	"context"
	"fmt"
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/event"
	"github.com/lefinal/masc-match/games"
	"github.com/lefinal/masc-match/messages"
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/player"
	"github.com/lefinal/masc-match/portal"
	"github.com/lefinal/masc-match/team"
	"github.com/lefinal/masc-match/votekick"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// TopicRoomDisposed is used for publishing event.RoomDisposedEvent.
const TopicRoomDisposed portal.Topic = "lefinal/masc-match/rooms/disposed"

// maxSlots is the count of available per-room slots. model.SlotNone is never
// assigned.
const maxSlots = int(model.SlotNone)

// Catalog validates room options and provides experience tables.
type Catalog interface {
	games.ExperienceCatalog
	// ValidateRoomOptions checks the options and the map and mode combination.
	ValidateRoomOptions(options model.RoomOptions) error
	// ResolveRandomMap replaces model.MapRandom with an actual map.
	ResolveRandomMap(options model.RoomOptions, random *rand.Rand) (model.RoomOptions, error)
}

// Lobby is notified about room changes and players that left a room. Lobby
// methods are called while the room is locked and must not call back into the
// room.
type Lobby interface {
	// RoomUpdated is called when the public info of a room changed.
	RoomUpdated(info messages.RoomInfo)
	// RoomRemoved is called after the room was disposed.
	RoomRemoved(roomID model.RoomID)
	// ReturnedFromRoom is called after a player left a room.
	ReturnedFromRoom(p *player.Player)
}

type nopLobby struct{}

func (nopLobby) RoomUpdated(_ messages.RoomInfo) {}

func (nopLobby) RoomRemoved(_ model.RoomID) {}

func (nopLobby) ReturnedFromRoom(_ *player.Player) {}

// Deps are the collaborators of rooms.
type Deps struct {
	Logger    *zap.Logger
	Timing    games.Timing
	Catalog   Catalog
	Results   games.ResultStore
	Publisher games.Publisher
}

// Room is a match instance with its own members, team roster, game rule and
// vote-kick arbiter. All operations, scoring events and updates are
// serialized. A player is a member of at most one room at a time.
type Room struct {
	logger    *zap.Logger
	id        model.RoomID
	channelID model.ChannelID
	deps      Deps
	lobby     Lobby
	onDispose func(r *Room)
	random    *rand.Rand
	roster    *team.Roster
	disposed  *atomic.Bool
	// opMutex serializes operations, scoring events and updates. It locks all
	// following fields.
	opMutex sync.Mutex
	arbiter *votekick.Arbiter
	// kicked holds players that were kicked and may not rejoin.
	kicked map[model.PlayerID]struct{}
	// pendingRules is set while rules are changing.
	pendingRules      *model.RoomOptions
	ruleChangeElapsed time.Duration
	// infoChanged is set by operations that change the public info. The lobby
	// is notified when the operation completes.
	infoChanged bool
	// m locks the following fields for readers outside of opMutex. Writers must
	// hold opMutex as well.
	m       sync.RWMutex
	options model.RoomOptions
	rule    games.Rule
	members map[model.PlayerID]*player.Participant
	master  model.PlayerID
	host    model.PlayerID
	// eventsMutex locks events.
	eventsMutex sync.Mutex
	// events holds scoring events that are applied at the start of the next
	// update.
	events []scoringEvent
}

// newRoom creates a new room with the given options that are expected to be
// validated and resolved.
func newRoom(id model.RoomID, channelID model.ChannelID, options model.RoomOptions, deps Deps, lobby Lobby,
	seed int64, onDispose func(r *Room)) (*Room, error) {
	if lobby == nil {
		lobby = nopLobby{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	r := &Room{
		logger: deps.Logger.Named("room").With(
			zap.Any("channel_id", channelID),
			zap.Any("room_id", id)),
		id:        id,
		channelID: channelID,
		deps:      deps,
		lobby:     lobby,
		onDispose: onDispose,
		random:    rand.New(rand.NewSource(seed)),
		roster:    team.NewRoster(),
		disposed:  atomic.NewBool(false),
		arbiter:   votekick.New(deps.Timing.VoteKickWindow),
		kicked:    make(map[model.PlayerID]struct{}),
		options:   options,
		members:   make(map[model.PlayerID]*player.Participant),
	}
	rule, err := r.newRule()
	if err != nil {
		return nil, errors.Wrap(err, "new rule", nil)
	}
	err = rule.Initialize()
	if err != nil {
		return nil, errors.Wrap(err, "initialize rule", nil)
	}
	r.rule = rule
	return r, nil
}

// newRule creates a rule for the current options.
func (r *Room) newRule() (games.Rule, error) {
	return games.New(&ruleRoom{room: r}, games.Deps{
		Logger:    r.deps.Logger,
		Timing:    r.deps.Timing,
		Catalog:   r.deps.Catalog,
		Results:   r.deps.Results,
		Publisher: r.deps.Publisher,
		Random:    r.random,
	})
}

// ID returns the room id which is unique within the channel.
func (r *Room) ID() model.RoomID {
	return r.id
}

// ChannelID returns the id of the channel the room belongs to.
func (r *Room) ChannelID() model.ChannelID {
	return r.channelID
}

// Options returns the current options.
func (r *Room) Options() model.RoomOptions {
	r.m.RLock()
	defer r.m.RUnlock()
	return r.options
}

// Master returns the current master.
func (r *Room) Master() model.PlayerID {
	r.m.RLock()
	defer r.m.RUnlock()
	return r.master
}

// Host returns the current host.
func (r *Room) Host() model.PlayerID {
	r.m.RLock()
	defer r.m.RUnlock()
	return r.host
}

// MemberCount returns the count of members.
func (r *Room) MemberCount() int {
	r.m.RLock()
	defer r.m.RUnlock()
	return len(r.members)
}

// HasMember checks whether the player is a member.
func (r *Room) HasMember(playerID model.PlayerID) bool {
	r.m.RLock()
	defer r.m.RUnlock()
	_, ok := r.members[playerID]
	return ok
}

// IsDisposed checks whether the room was disposed because all members left.
func (r *Room) IsDisposed() bool {
	return r.disposed.Load()
}

// State returns the state of the active game rule.
func (r *Room) State() games.State {
	r.m.RLock()
	rule := r.rule
	r.m.RUnlock()
	return rule.State()
}

// Info returns the public room info.
func (r *Room) Info() messages.RoomInfo {
	r.m.RLock()
	options := r.options
	rule := r.rule
	master := r.master
	r.m.RUnlock()
	return messages.RoomInfo{
		ID:             r.id,
		Name:           options.Name,
		Mode:           options.Mode,
		Map:            options.Map,
		ScoreLimit:     options.ScoreLimit,
		TimeLimitMS:    options.TimeLimit.Milliseconds(),
		PlayerLimit:    options.PlayerLimit,
		SpectatorLimit: options.SpectatorLimit,
		PlayerCount:    r.roster.PlayingCount(),
		SpectatorCount: r.roster.SpectatorCount(),
		HasPassword:    options.HasPassword(),
		IsFriendly:     options.IsFriendly,
		IsBurning:      options.IsBurning,
		NoIntrusion:    options.NoIntrusion,
		State:          string(rule.State()),
		IsActive:       rule.IsPlaying(),
		Master:         master,
	}
}

// isJoinable checks whether the room might accept the given player without a
// password. Used for quick-join.
func (r *Room) isJoinable(mode model.GameMode) bool {
	if r.IsDisposed() {
		return false
	}
	r.m.RLock()
	options := r.options
	rule := r.rule
	memberCount := len(r.members)
	r.m.RUnlock()
	if options.HasPassword() || memberCount >= options.Capacity() {
		return false
	}
	if mode != "" && options.Mode != mode {
		return false
	}
	if options.NoIntrusion && rule.State() != games.StateWaiting {
		return false
	}
	return r.roster.PlayingCount() < options.PlayerLimit
}

var errRoomDisposed = errors.NewResourceNotFoundError("room disposed", nil)

// do runs the operation serialized with all other operations and updates.
// Afterwards, empty rooms are disposed and the lobby is notified about changes.
func (r *Room) do(op func() error) error {
	r.opMutex.Lock()
	defer r.opMutex.Unlock()
	if r.disposed.Load() {
		return errRoomDisposed
	}
	err := op()
	r.completeOp()
	return err
}

// completeOp disposes the room if it is empty or notifies the lobby if the
// info changed. opMutex must be locked.
func (r *Room) completeOp() {
	if len(r.participants()) == 0 {
		r.dispose()
		return
	}
	if r.infoChanged {
		r.infoChanged = false
		r.lobby.RoomUpdated(r.Info())
	}
}

// dispose the room. opMutex must be locked.
func (r *Room) dispose() {
	if !r.disposed.CAS(false, true) {
		return
	}
	r.logger.Debug("dispose room")
	r.rule.Cleanup()
	r.arbiter.Reset()
	if r.onDispose != nil {
		r.onDispose(r)
	}
	r.lobby.RoomRemoved(r.id)
	if r.deps.Publisher != nil {
		go r.deps.Publisher.Publish(context.Background(), TopicRoomDisposed, event.RoomDisposedEvent{
			Channel: r.channelID,
			Room:    r.id,
		})
	}
}

// participants returns all members ordered by slot.
func (r *Room) participants() []*player.Participant {
	r.m.RLock()
	defer r.m.RUnlock()
	participants := make([]*player.Participant, 0, len(r.members))
	for _, p := range r.members {
		participants = append(participants, p)
	}
	sort.Slice(participants, func(i, j int) bool {
		return participants[i].Slot < participants[j].Slot
	})
	return participants
}

// member returns the member with the given id.
func (r *Room) member(playerID model.PlayerID) (*player.Participant, bool) {
	r.m.RLock()
	defer r.m.RUnlock()
	p, ok := r.members[playerID]
	return p, ok
}

// requireMember returns the member with the given id or an error if the player
// is no member.
func (r *Room) requireMember(playerID model.PlayerID) (*player.Participant, error) {
	p, ok := r.member(playerID)
	if !ok {
		return nil, errors.NewInvalidStateError(errors.KindNotInRoom, "not in room",
			errors.Details{"player_id": playerID, "room_id": r.id})
	}
	return p, nil
}

// requireMaster returns the member with the given id or an error if the player
// is not the master.
func (r *Room) requireMaster(playerID model.PlayerID) (*player.Participant, error) {
	p, err := r.requireMember(playerID)
	if err != nil {
		return nil, err
	}
	if r.Master() != playerID {
		return nil, errors.NewForbiddenError(errors.KindNotMaster, "only the master may do this",
			errors.Details{"player_id": playerID})
	}
	return p, nil
}

// requireWaiting returns an error if a match is running.
func (r *Room) requireWaiting() error {
	if state := r.rule.State(); state != games.StateWaiting {
		return errors.NewInvalidStateError(errors.KindMatchInProgress, "match in progress",
			errors.Details{"state": string(state)})
	}
	return nil
}

// broadcast the message to all members.
func (r *Room) broadcast(message messages.Message) {
	for _, p := range r.participants() {
		p.Send(message)
	}
}

// broadcastExcept broadcasts the message to all members except the given one.
func (r *Room) broadcastExcept(message messages.Message, except model.PlayerID) {
	for _, p := range r.participants() {
		if p.ID() != except {
			p.Send(message)
		}
	}
}

// freeSlot returns the lowest unused slot.
func (r *Room) freeSlot() (model.SlotID, bool) {
	used := make(map[model.SlotID]struct{})
	for _, p := range r.participants() {
		used[p.Slot] = struct{}{}
	}
	for slot := 0; slot < maxSlots; slot++ {
		if _, ok := used[model.SlotID(slot)]; !ok {
			return model.SlotID(slot), true
		}
	}
	return 0, false
}

// Join the player into the room. Players that were kicked or provide a wrong
// password are rejected unless they are elevated. If no playing slot is left,
// the player joins as spectator.
func (r *Room) Join(p *player.Player, password string) error {
	return r.do(func() error {
		return r.join(p, password)
	})
}

func (r *Room) join(p *player.Player, password string) error {
	playerID := p.ID()
	if _, ok := r.member(playerID); ok {
		return errors.NewInvalidStateError(errors.KindAlreadyInRoom, "already in room",
			errors.Details{"player_id": playerID})
	}
	elevated := p.SecurityLevel().IsElevated()
	if _, ok := r.kicked[playerID]; ok && !elevated {
		return errors.NewAccessDeniedError(errors.KindKicked, "kicked from room",
			errors.Details{"player_id": playerID})
	}
	options := r.Options()
	if options.HasPassword() && password != options.Password && !elevated {
		return errors.NewAccessDeniedError(errors.KindWrongPassword, "wrong password", nil)
	}
	if r.MemberCount() >= options.Capacity() {
		return errors.NewCapacityError(errors.KindRoomFull, "room full",
			errors.Details{"capacity": options.Capacity()})
	}
	matchRunning := r.rule.State() != games.StateWaiting
	mode := model.PlayerModeNormal
	if matchRunning && options.NoIntrusion {
		if r.roster.SpectatorCount() >= options.SpectatorLimit {
			return errors.NewInvalidStateError(errors.KindMatchInProgress, "match in progress and intrusion disabled", nil)
		}
		mode = model.PlayerModeSpectate
	}
	slot, ok := r.freeSlot()
	if !ok {
		return errors.NewCapacityError(errors.KindRoomFull, "no slot left", nil)
	}
	if !p.EnterRoom(r.id) {
		return errors.NewInvalidStateError(errors.KindAlreadyInRoom, "already in another room",
			errors.Details{"player_id": playerID})
	}
	teamID, err := r.roster.Join(playerID, mode, model.TeamNone)
	if err != nil && mode == model.PlayerModeNormal {
		mode = model.PlayerModeSpectate
		teamID, err = r.roster.Join(playerID, mode, model.TeamNone)
	}
	if err != nil {
		p.ExitRoom(r.id)
		return errors.Wrap(err, "join roster", nil)
	}
	participant := player.NewParticipant(p, slot)
	participant.Team = teamID
	participant.Mode = mode
	participant.Record = r.rule.NewRecord()
	if matchRunning {
		if mode == model.PlayerModeNormal {
			participant.State = model.PlayerStateWaiting
		} else {
			participant.State = model.PlayerStateSpectating
		}
	}
	r.m.Lock()
	r.members[playerID] = participant
	if _, ok := r.members[r.master]; !ok {
		r.master = playerID
	}
	if _, ok := r.members[r.host]; !ok {
		r.host = playerID
	}
	host := r.host
	r.m.Unlock()
	r.infoChanged = true
	r.logger.Debug("player joined", zap.Any("player_id", playerID), zap.Any("slot", slot),
		zap.Any("team", teamID), zap.Any("mode", mode))
	participant.Send(messages.Message{
		MessageType: messages.MessageTypeRoomJoined,
		Content: messages.MessageRoomJoined{
			Room:    r.Info(),
			Slot:    slot,
			Members: r.memberList(),
			Host:    host,
			Teams:   r.rule.TeamScores(),
		},
	})
	r.broadcastExcept(messages.Message{
		MessageType: messages.MessageTypeMemberJoined,
		Content:     participant.Member(),
	}, playerID)
	return nil
}

// memberList returns all members as messages.RoomMember.
func (r *Room) memberList() []messages.RoomMember {
	participants := r.participants()
	members := make([]messages.RoomMember, 0, len(participants))
	for _, p := range participants {
		members = append(members, p.Member())
	}
	return members
}

// Leave removes the player from the room. It is a no-op if the player is no
// member. The room is disposed if no members remain.
func (r *Room) Leave(playerID model.PlayerID, reason model.LeaveReason) {
	_ = r.do(func() error {
		r.leave(playerID, reason)
		return nil
	})
}

// leave removes the member. It returns false if the player is no member.
// opMutex must be locked.
func (r *Room) leave(playerID model.PlayerID, reason model.LeaveReason) bool {
	r.m.Lock()
	p, ok := r.members[playerID]
	if !ok {
		r.m.Unlock()
		return false
	}
	delete(r.members, playerID)
	r.m.Unlock()
	r.roster.Remove(playerID)
	p.ExitRoom(r.id)
	r.infoChanged = true
	r.logger.Debug("player left", zap.Any("player_id", playerID), zap.Any("reason", reason))
	r.rule.OnLeave(p)
	p.Send(messages.Message{
		MessageType: messages.MessageTypeRoomLeft,
		Content: messages.MessageRoomLeft{
			Room:   r.id,
			Reason: reason,
		},
	})
	r.broadcast(messages.Message{
		MessageType: messages.MessageTypeMemberLeft,
		Content: messages.MessageMemberLeft{
			Player: playerID,
			Reason: reason,
		},
	})
	if r.Master() == playerID {
		r.electMaster()
	}
	if r.Host() == playerID {
		r.electHost()
	}
	r.lobby.ReturnedFromRoom(p.Player)
	return true
}

// electionCandidate returns the connected member with the lowest latency. Ties
// are decided by the lower player id.
func (r *Room) electionCandidate() (model.PlayerID, bool) {
	var best *player.Participant
	for _, p := range r.participants() {
		if !p.IsConnected() {
			continue
		}
		if best == nil || p.Latency() < best.Latency() ||
			(p.Latency() == best.Latency() && p.ID() < best.ID()) {
			best = p
		}
	}
	if best == nil {
		return 0, false
	}
	return best.ID(), true
}

// electMaster selects a new master and broadcasts it.
func (r *Room) electMaster() {
	candidate, ok := r.electionCandidate()
	if !ok {
		return
	}
	r.setMaster(candidate)
}

func (r *Room) setMaster(playerID model.PlayerID) {
	r.m.Lock()
	changed := r.master != playerID
	r.master = playerID
	r.m.Unlock()
	if !changed {
		return
	}
	r.infoChanged = true
	if p, ok := r.member(playerID); ok {
		// Cleared as canStart treats the master as ready anyway.
		p.IsReady = false
	}
	r.logger.Debug("master changed", zap.Any("player_id", playerID))
	r.broadcast(messages.Message{
		MessageType: messages.MessageTypeMasterChanged,
		Content:     messages.MessagePlayer{Player: playerID},
	})
}

// electHost selects a new host and broadcasts it.
func (r *Room) electHost() {
	candidate, ok := r.electionCandidate()
	if !ok {
		return
	}
	r.m.Lock()
	changed := r.host != candidate
	r.host = candidate
	r.m.Unlock()
	if !changed {
		return
	}
	r.logger.Debug("host changed", zap.Any("player_id", candidate))
	r.broadcast(messages.Message{
		MessageType: messages.MessageTypeHostChanged,
		Content:     messages.MessagePlayer{Player: candidate},
	})
}

// Update advances the room by the given elapsed time. Panics are recovered
// and logged so that other rooms are not affected.
func (r *Room) Update(elapsed time.Duration) {
	if r.disposed.Load() {
		return
	}
	r.opMutex.Lock()
	defer r.opMutex.Unlock()
	if r.disposed.Load() {
		return
	}
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				errors.Log(r.logger, errors.NewInternalError("room update panicked",
					errors.Details{"panic": fmt.Sprint(rec)}))
			}
		}()
		r.update(elapsed)
	}()
	r.completeOp()
}

func (r *Room) update(elapsed time.Duration) {
	r.processEvents()
	r.reelectDisconnected()
	r.promoteSpectator()
	r.updateConnecting(elapsed)
	r.updateRuleChange(elapsed)
	r.updateVoteKick(elapsed)
	r.rule.Update(elapsed)
}

// reelectDisconnected re-elects master and host if they disconnected.
func (r *Room) reelectDisconnected() {
	if p, ok := r.member(r.Master()); !ok || !p.IsConnected() {
		r.electMaster()
	}
	if p, ok := r.member(r.Host()); !ok || !p.IsConnected() {
		r.electHost()
	}
}

// promoteSpectator promotes the spectator with the lowest slot to playing if
// no playing members are left. This only happens while no match is running.
func (r *Room) promoteSpectator() {
	if r.rule.State() != games.StateWaiting || r.roster.PlayingCount() > 0 {
		return
	}
	for _, p := range r.participants() {
		if p.IsPlaying() {
			continue
		}
		teamID, err := r.roster.ChangeMode(p.ID(), model.PlayerModeNormal)
		if err != nil {
			continue
		}
		p.Team = teamID
		p.Mode = model.PlayerModeNormal
		p.State = model.PlayerStateLobby
		r.infoChanged = true
		r.logger.Debug("promoted spectator", zap.Any("player_id", p.ID()))
		r.broadcastTeamChanged(p)
		return
	}
}

// updateConnecting removes members that did not confirm their join in time.
func (r *Room) updateConnecting(elapsed time.Duration) {
	for _, p := range r.participants() {
		if !p.IsConnecting {
			continue
		}
		p.ConnectingTime += elapsed
		if p.ConnectingTime >= r.deps.Timing.StuckJoin {
			r.logger.Info("stuck join", zap.Any("player_id", p.ID()))
			r.leave(p.ID(), model.LeaveReasonStuckJoin)
		}
	}
}

func (r *Room) broadcastTeamChanged(p *player.Participant) {
	r.broadcast(messages.Message{
		MessageType: messages.MessageTypeTeamChanged,
		Content: messages.MessageTeamChanged{
			Player: p.ID(),
			Team:   p.Team,
			Mode:   p.Mode,
		},
	})
}

// ConfirmJoin is called when the member finished connecting to the room peers.
func (r *Room) ConfirmJoin(playerID model.PlayerID) error {
	return r.do(func() error {
		p, err := r.requireMember(playerID)
		if err != nil {
			return err
		}
		if !p.IsConnecting {
			return nil
		}
		p.IsConnecting = false
		r.rule.OnRoomJoinCompleted(p)
		return nil
	})
}

// LoadingCompleted is called when the member finished loading the map.
func (r *Room) LoadingCompleted(playerID model.PlayerID) error {
	return r.do(func() error {
		if _, err := r.requireMember(playerID); err != nil {
			return err
		}
		return r.rule.OnLoadingCompleted(playerID)
	})
}

// BeginRound starts preparing a match. Only the master may begin.
func (r *Room) BeginRound(playerID model.PlayerID) error {
	return r.do(func() error {
		if _, err := r.requireMaster(playerID); err != nil {
			return err
		}
		if r.pendingRules != nil {
			return errors.NewInvalidStateError(errors.KindRuleChangePending, "rules are changing", nil)
		}
		err := r.rule.Fire(games.TriggerStartPrepare)
		if err != nil {
			return errors.Wrap(err, "start prepare", nil)
		}
		if !r.Options().IsFriendly {
			r.balanceTeams()
		}
		r.infoChanged = true
		return nil
	})
}

// balanceTeams evens out the playing member counts of the teams and broadcasts
// each move.
func (r *Room) balanceTeams() {
	for _, move := range r.roster.Balance() {
		p, ok := r.member(move.Player)
		if !ok {
			continue
		}
		p.Team = move.To
		r.logger.Debug("balanced team", zap.Any("player_id", move.Player),
			zap.Any("from", move.From), zap.Any("to", move.To))
		r.broadcastTeamChanged(p)
	}
}

// ChangeReadyStatus toggles the ready-state of a non-master member.
func (r *Room) ChangeReadyStatus(playerID model.PlayerID) error {
	return r.do(func() error {
		p, err := r.requireMember(playerID)
		if err != nil {
			return err
		}
		if r.Master() == playerID {
			return errors.NewForbiddenError(errors.KindMasterCannotReady, "master cannot change ready-state", nil)
		}
		if err = r.requireWaiting(); err != nil {
			return err
		}
		if !p.IsPlaying() {
			return errors.NewInvalidStateError(errors.KindNotPlaying, "spectators cannot be ready", nil)
		}
		p.IsReady = !p.IsReady
		r.broadcast(messages.Message{
			MessageType: messages.MessageTypeReadyChanged,
			Content: messages.MessageReadyChanged{
				Player:  playerID,
				IsReady: p.IsReady,
			},
		})
		return nil
	})
}

// ChangeTeam moves the member to the given team while no match is running.
func (r *Room) ChangeTeam(playerID model.PlayerID, teamID model.TeamID) error {
	return r.do(func() error {
		p, err := r.requireMember(playerID)
		if err != nil {
			return err
		}
		if err = r.requireWaiting(); err != nil {
			return err
		}
		err = r.roster.ChangeTeam(playerID, teamID)
		if err != nil {
			return errors.Wrap(err, "change team", nil)
		}
		p.Team = teamID
		r.broadcastTeamChanged(p)
		return nil
	})
}

// ChangeMode switches the member between playing and spectating while no match
// is running.
func (r *Room) ChangeMode(playerID model.PlayerID, mode model.PlayerGameMode) error {
	return r.do(func() error {
		p, err := r.requireMember(playerID)
		if err != nil {
			return err
		}
		if err = r.requireWaiting(); err != nil {
			return err
		}
		teamID, err := r.roster.ChangeMode(playerID, mode)
		if err != nil {
			return errors.Wrap(err, "change mode", nil)
		}
		p.Team = teamID
		p.Mode = mode
		if mode == model.PlayerModeSpectate {
			p.IsReady = false
		}
		r.infoChanged = true
		r.broadcastTeamChanged(p)
		return nil
	})
}

// Kick removes the target and prevents rejoining. Only the master may kick.
// Elevated targets cannot be kicked.
func (r *Room) Kick(playerID model.PlayerID, targetID model.PlayerID) error {
	return r.do(func() error {
		if _, err := r.requireMaster(playerID); err != nil {
			return err
		}
		if playerID == targetID {
			return errors.NewBadRequestError(errors.KindSelfTarget, "cannot kick yourself", nil)
		}
		target, err := r.requireMember(targetID)
		if err != nil {
			return err
		}
		if target.SecurityLevel().IsElevated() {
			return errors.NewForbiddenError(errors.KindTargetElevated, "cannot kick elevated player",
				errors.Details{"target": targetID})
		}
		r.kicked[targetID] = struct{}{}
		r.leave(targetID, model.LeaveReasonKicked)
		return nil
	})
}

// TransferMaster makes the target the new master. Only the master may
// transfer.
func (r *Room) TransferMaster(playerID model.PlayerID, targetID model.PlayerID) error {
	return r.do(func() error {
		if _, err := r.requireMaster(playerID); err != nil {
			return err
		}
		if _, err := r.requireMember(targetID); err != nil {
			return err
		}
		r.setMaster(targetID)
		return nil
	})
}
