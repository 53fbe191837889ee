package room

import (
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/games"
	"github.com/lefinal/masc-match/messages"
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/player"
	"github.com/lefinal/masc-match/resource"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"sync"
	"testing"
	"time"
)

// lobbyStub records lobby notifications.
type lobbyStub struct {
	m        sync.Mutex
	updated  []messages.RoomInfo
	removed  []model.RoomID
	returned []model.PlayerID
}

func (l *lobbyStub) RoomUpdated(info messages.RoomInfo) {
	l.m.Lock()
	defer l.m.Unlock()
	l.updated = append(l.updated, info)
}

func (l *lobbyStub) RoomRemoved(roomID model.RoomID) {
	l.m.Lock()
	defer l.m.Unlock()
	l.removed = append(l.removed, roomID)
}

func (l *lobbyStub) ReturnedFromRoom(p *player.Player) {
	l.m.Lock()
	defer l.m.Unlock()
	l.returned = append(l.returned, p.ID())
}

// roomSuite provides a registry with helpers for creating players and rooms.
type roomSuite struct {
	suite.Suite
	timing   games.Timing
	lobby    *lobbyStub
	registry *Registry
	sessions map[model.PlayerID]*player.SessionMock
}

func (suite *roomSuite) SetupTest() {
	catalog, err := resource.Load()
	suite.Require().NoError(err, "load catalog should not fail")
	suite.timing = games.DefaultTiming()
	suite.lobby = &lobbyStub{}
	suite.sessions = make(map[model.PlayerID]*player.SessionMock)
	suite.registry = NewRegistry(zap.NewNop(), 1, 4, Deps{
		Logger:  zap.NewNop(),
		Timing:  suite.timing,
		Catalog: catalog,
	}, suite.lobby)
}

func (suite *roomSuite) player(id model.PlayerID) *player.Player {
	return suite.playerWithLevel(id, model.SecurityLevelUser)
}

func (suite *roomSuite) playerWithLevel(id model.PlayerID, level model.SecurityLevel) *player.Player {
	session := &player.SessionMock{}
	suite.sessions[id] = session
	return player.New(player.Identity{
		ID:            id,
		Nickname:      "player",
		SecurityLevel: level,
	}, session)
}

func (suite *roomSuite) options(playerLimit int, spectatorLimit int) model.RoomOptions {
	return model.RoomOptions{
		Name:           "test",
		Mode:           model.GameModeDeathmatch,
		Map:            "harbor",
		PlayerLimit:    playerLimit,
		SpectatorLimit: spectatorLimit,
	}
}

func (suite *roomSuite) create(master *player.Player, options model.RoomOptions) *Room {
	room, err := suite.registry.Create(master, options)
	suite.Require().NoError(err, "create should not fail")
	return room
}

// join players with the given ids and confirm their joins.
func (suite *roomSuite) join(room *Room, ids ...model.PlayerID) map[model.PlayerID]*player.Player {
	players := make(map[model.PlayerID]*player.Player)
	for _, id := range ids {
		p := suite.player(id)
		suite.Require().NoError(room.Join(p, ""), "join should not fail")
		suite.Require().NoError(room.ConfirmJoin(id), "confirm join should not fail")
		players[id] = p
	}
	return players
}

// RoomSuite tests Room.
type RoomSuite struct {
	roomSuite
	master *player.Player
	room   *Room
}

func (suite *RoomSuite) SetupTest() {
	suite.roomSuite.SetupTest()
	suite.master = suite.player(1)
	suite.room = suite.create(suite.master, suite.options(4, 2))
	suite.Require().NoError(suite.room.ConfirmJoin(1))
}

func (suite *RoomSuite) TestCreatorIsMasterAndHost() {
	suite.Equal(model.RoomID(1), suite.room.ID())
	suite.Equal(model.PlayerID(1), suite.room.Master())
	suite.Equal(model.PlayerID(1), suite.room.Host())
	suite.Len(suite.sessions[1].SentOfType(messages.MessageTypeRoomJoined), 1)
	roomID, ok := suite.master.Room()
	suite.True(ok)
	suite.Equal(suite.room.ID(), roomID)
}

func (suite *RoomSuite) TestCapacity() {
	suite.join(suite.room, 2, 3, 4, 5, 6)
	err := suite.room.Join(suite.player(7), "")
	suite.True(errors.Is(err, errors.KindRoomFull), "should fail with room full")
	suite.Equal(6, suite.room.MemberCount())
	info := suite.room.Info()
	suite.Equal(4, info.PlayerCount)
	suite.Equal(2, info.SpectatorCount)
}

func (suite *RoomSuite) TestJoinAsSpectatorWhenPlayersFull() {
	suite.join(suite.room, 2, 3, 4, 5)
	p, ok := suite.room.member(5)
	suite.Require().True(ok)
	suite.Equal(model.PlayerModeSpectate, p.Mode)
}

func (suite *RoomSuite) TestJoinTwice() {
	err := suite.room.Join(suite.master, "")
	suite.True(errors.Is(err, errors.KindAlreadyInRoom))
}

func (suite *RoomSuite) TestJoinSecondRoom() {
	p := suite.join(suite.room, 2)[2]
	other := suite.create(suite.player(10), suite.options(4, 0))
	err := other.Join(p, "")
	suite.True(errors.Is(err, errors.KindAlreadyInRoom), "should fail because already in a room")
	suite.Equal(1, other.MemberCount())
}

func (suite *RoomSuite) TestMemberJoinedBroadcast() {
	suite.join(suite.room, 2)
	suite.Len(suite.sessions[1].SentOfType(messages.MessageTypeMemberJoined), 1)
	suite.Empty(suite.sessions[2].SentOfType(messages.MessageTypeMemberJoined), "joining player gets room-joined")
	suite.NotEmpty(suite.lobby.updated, "lobby should be notified")
}

func (suite *RoomSuite) TestWrongPassword() {
	options := suite.options(4, 0)
	options.Password = "secret"
	room := suite.create(suite.player(10), options)
	err := room.Join(suite.player(11), "wrong")
	suite.True(errors.Is(err, errors.KindWrongPassword))
	suite.NoError(room.Join(suite.player(12), "secret"))
	suite.NoError(room.Join(suite.playerWithLevel(13, model.SecurityLevelModerator), ""), "elevated should bypass")
}

func (suite *RoomSuite) TestLeaveIsIdempotent() {
	suite.join(suite.room, 2)
	suite.room.Leave(2, model.LeaveReasonLeft)
	suite.room.Leave(2, model.LeaveReasonLeft)
	suite.Equal(1, suite.room.MemberCount())
	suite.Len(suite.sessions[2].SentOfType(messages.MessageTypeRoomLeft), 1)
	suite.Len(suite.sessions[1].SentOfType(messages.MessageTypeMemberLeft), 1)
	suite.Contains(suite.lobby.returned, model.PlayerID(2))
}

func (suite *RoomSuite) TestDisposeWhenEmpty() {
	suite.room.Leave(1, model.LeaveReasonLeft)
	suite.True(suite.room.IsDisposed())
	suite.Equal(0, suite.registry.Count())
	suite.Equal([]model.RoomID{1}, suite.lobby.removed)
	_, ok := suite.master.Room()
	suite.False(ok, "back-reference should be cleared")
	err := suite.room.Join(suite.player(2), "")
	suite.True(errors.Is(err, errors.KindResourceNotFound), "disposed room should reject joins")
	// Ids are reused.
	room := suite.create(suite.player(3), suite.options(2, 0))
	suite.Equal(model.RoomID(1), room.ID())
}

func (suite *RoomSuite) TestMasterReelectionByLatency() {
	players := suite.join(suite.room, 2, 3, 4)
	players[2].SetLatency(80 * time.Millisecond)
	players[3].SetLatency(20 * time.Millisecond)
	players[4].SetLatency(20 * time.Millisecond)
	suite.room.Leave(1, model.LeaveReasonLeft)
	suite.Equal(model.PlayerID(3), suite.room.Master(), "lowest latency with lowest id should win")
	suite.Equal(model.PlayerID(3), suite.room.Host())
	suite.Len(suite.sessions[2].SentOfType(messages.MessageTypeMasterChanged), 1)
}

func (suite *RoomSuite) TestReelectDisconnectedMaster() {
	suite.join(suite.room, 2)
	suite.master.Disconnect()
	suite.room.Update(time.Millisecond)
	suite.Equal(model.PlayerID(2), suite.room.Master())
	suite.Equal(model.PlayerID(2), suite.room.Host())
}

func (suite *RoomSuite) TestTransferMaster() {
	suite.join(suite.room, 2)
	err := suite.room.TransferMaster(2, 1)
	suite.True(errors.Is(err, errors.KindNotMaster))
	suite.Require().NoError(suite.room.TransferMaster(1, 2))
	suite.Equal(model.PlayerID(2), suite.room.Master())
}

func (suite *RoomSuite) TestKickPreventsRejoin() {
	players := suite.join(suite.room, 2)
	err := suite.room.Kick(2, 1)
	suite.True(errors.Is(err, errors.KindNotMaster), "only master may kick")
	suite.Require().NoError(suite.room.Kick(1, 2))
	suite.False(suite.room.HasMember(2))
	left := suite.sessions[2].SentOfType(messages.MessageTypeRoomLeft)
	suite.Require().Len(left, 1)
	suite.Equal(model.LeaveReasonKicked, left[0].Content.(messages.MessageRoomLeft).Reason)
	err = suite.room.Join(players[2], "")
	suite.True(errors.Is(err, errors.KindKicked), "kicked player should not rejoin")
}

func (suite *RoomSuite) TestKickElevated() {
	moderator := suite.playerWithLevel(2, model.SecurityLevelModerator)
	suite.Require().NoError(suite.room.Join(moderator, ""))
	err := suite.room.Kick(1, 2)
	suite.True(errors.Is(err, errors.KindTargetElevated))
	suite.Equal(errors.ResultTargetElevated, errors.ResultCodeOf(err))
	suite.True(suite.room.HasMember(2))
}

func (suite *RoomSuite) TestReadyStatus() {
	suite.join(suite.room, 2)
	err := suite.room.ChangeReadyStatus(1)
	suite.True(errors.Is(err, errors.KindMasterCannotReady))
	suite.Require().NoError(suite.room.ChangeReadyStatus(2))
	p, _ := suite.room.member(2)
	suite.True(p.IsReady)
	suite.Len(suite.sessions[1].SentOfType(messages.MessageTypeReadyChanged), 1)
}

func (suite *RoomSuite) TestReadyStatusAsSpectator() {
	suite.join(suite.room, 2)
	suite.Require().NoError(suite.room.ChangeMode(2, model.PlayerModeSpectate))
	err := suite.room.ChangeReadyStatus(2)
	suite.True(errors.Is(err, errors.KindNotPlaying))
}

func (suite *RoomSuite) TestBeginRound() {
	suite.join(suite.room, 2)
	err := suite.room.BeginRound(2)
	suite.True(errors.Is(err, errors.KindNotMaster))
	err = suite.room.BeginRound(1)
	suite.True(errors.Is(err, errors.KindGuardNotSatisfied), "beta team has nobody ready")
	suite.Equal(games.StateWaiting, suite.room.State())
	suite.Require().NoError(suite.room.ChangeReadyStatus(2))
	suite.Require().NoError(suite.room.BeginRound(1))
	suite.Equal(games.StatePreparing, suite.room.State())
	err = suite.room.ChangeTeam(2, model.TeamAlpha)
	suite.True(errors.Is(err, errors.KindMatchInProgress), "teams are locked during a match")
}

func (suite *RoomSuite) TestBeginRoundBalancesTeams() {
	room := suite.create(suite.player(10), suite.options(8, 0))
	suite.Require().NoError(room.ConfirmJoin(10))
	suite.join(room, 11, 12, 13)
	suite.Require().NoError(room.ChangeTeam(13, model.TeamAlpha))
	suite.Require().NoError(room.ChangeReadyStatus(11))
	suite.Require().NoError(room.BeginRound(10))
	p, _ := room.member(13)
	suite.Equal(model.TeamBeta, p.Team, "most recently joined should be moved")
	changed := suite.sessions[11].SentOfType(messages.MessageTypeTeamChanged)
	suite.Require().NotEmpty(changed)
	last := changed[len(changed)-1].Content.(messages.MessageTeamChanged)
	suite.Equal(model.PlayerID(13), last.Player)
	suite.Equal(model.TeamBeta, last.Team)
}

func (suite *RoomSuite) TestBeginRoundFriendlyKeepsTeams() {
	options := suite.options(4, 0)
	options.IsFriendly = true
	room := suite.create(suite.player(10), options)
	suite.Require().NoError(room.ConfirmJoin(10))
	suite.join(room, 11)
	suite.Require().NoError(room.ChangeTeam(11, model.TeamAlpha))
	suite.Require().NoError(room.BeginRound(10))
	p, _ := room.member(11)
	suite.Equal(model.TeamAlpha, p.Team)
}

func (suite *RoomSuite) TestNoIntrusionJoinsAsSpectator() {
	options := suite.options(4, 2)
	options.IsFriendly = true
	options.NoIntrusion = true
	room := suite.create(suite.player(10), options)
	suite.Require().NoError(room.BeginRound(10))
	suite.Require().NoError(room.Join(suite.player(11), ""))
	p, ok := room.member(11)
	suite.Require().True(ok)
	suite.Equal(model.PlayerModeSpectate, p.Mode)
	suite.Equal(model.PlayerStateSpectating, p.State)
}

func (suite *RoomSuite) TestIntrusion() {
	options := suite.options(4, 2)
	options.IsFriendly = true
	room := suite.create(suite.player(10), options)
	suite.Require().NoError(room.BeginRound(10))
	suite.Require().NoError(room.Join(suite.player(11), ""))
	p, ok := room.member(11)
	suite.Require().True(ok)
	suite.Equal(model.PlayerModeNormal, p.Mode)
	suite.Equal(model.PlayerStateWaiting, p.State)
}

func (suite *RoomSuite) TestStuckJoin() {
	suite.Require().NoError(suite.room.Join(suite.player(2), ""))
	suite.room.Update(suite.timing.StuckJoin - time.Second)
	suite.True(suite.room.HasMember(2))
	suite.room.Update(time.Second)
	suite.False(suite.room.HasMember(2), "should remove member that is stuck joining")
	suite.True(suite.room.HasMember(1), "confirmed member should stay")
	left := suite.sessions[2].SentOfType(messages.MessageTypeRoomLeft)
	suite.Require().Len(left, 1)
	suite.Equal(model.LeaveReasonStuckJoin, left[0].Content.(messages.MessageRoomLeft).Reason)
}

func (suite *RoomSuite) TestSpectatorPromotion() {
	room := suite.create(suite.player(10), suite.options(1, 1))
	suite.Require().NoError(room.ConfirmJoin(10))
	suite.join(room, 11)
	p, _ := room.member(11)
	suite.Require().Equal(model.PlayerModeSpectate, p.Mode)
	room.Leave(10, model.LeaveReasonLeft)
	room.Update(time.Millisecond)
	suite.Equal(model.PlayerModeNormal, p.Mode, "should promote spectator")
	suite.Equal(1, room.Info().PlayerCount)
	suite.Equal(model.PlayerID(11), room.Master())
}

func (suite *RoomSuite) TestVoteKick() {
	players := suite.join(suite.room, 2, 3, 4)
	suite.Require().NoError(suite.room.StartVoteKick(1, 4, model.KickReasonAFK))
	err := suite.room.StartVoteKick(2, 3, model.KickReasonAFK)
	suite.True(errors.Is(err, errors.KindVoteInProgress))
	suite.Require().NoError(suite.room.VoteKick(2, true))
	suite.Require().NoError(suite.room.VoteKick(3, true))
	suite.Len(suite.sessions[4].SentOfType(messages.MessageTypeVoteKickTally), 3)
	suite.room.Update(suite.timing.VoteKickWindow)
	suite.False(suite.room.HasMember(4), "majority should kick")
	left := suite.sessions[4].SentOfType(messages.MessageTypeRoomLeft)
	suite.Require().Len(left, 1)
	suite.Equal(model.LeaveReasonVoteKicked, left[0].Content.(messages.MessageRoomLeft).Reason)
	err = suite.room.Join(players[4], "")
	suite.True(errors.Is(err, errors.KindKicked))
}

func (suite *RoomSuite) TestVoteKickWithoutMajority() {
	suite.join(suite.room, 2, 3, 4)
	suite.Require().NoError(suite.room.StartVoteKick(1, 4, model.KickReasonAFK))
	suite.Require().NoError(suite.room.VoteKick(2, true))
	suite.Require().NoError(suite.room.VoteKick(3, false))
	suite.room.Update(suite.timing.VoteKickWindow)
	suite.True(suite.room.HasMember(4), "should stay without majority")
	ended := suite.sessions[1].SentOfType(messages.MessageTypeVoteKickEnded)
	suite.Require().Len(ended, 1)
	suite.False(ended[0].Content.(messages.MessageVoteKickEnded).Kicked)
	suite.NoError(suite.room.StartVoteKick(2, 3, model.KickReasonOther), "should be able to start again")
}

func (suite *RoomSuite) TestVoteKickTargetLeaves() {
	suite.join(suite.room, 2, 3)
	suite.Require().NoError(suite.room.StartVoteKick(1, 3, model.KickReasonAFK))
	suite.room.Leave(3, model.LeaveReasonLeft)
	suite.room.Update(time.Millisecond)
	ended := suite.sessions[1].SentOfType(messages.MessageTypeVoteKickEnded)
	suite.Require().Len(ended, 1)
	suite.True(ended[0].Content.(messages.MessageVoteKickEnded).Cancelled)
}

func (suite *RoomSuite) TestChangeRules() {
	suite.join(suite.room, 2)
	options := suite.options(8, 2)
	options.Mode = model.GameModeTouchdown
	err := suite.room.ChangeRules(2, options)
	suite.True(errors.Is(err, errors.KindNotMaster))
	suite.Require().NoError(suite.room.ChangeRules(1, options))
	suite.True(suite.room.IsChangingRules())
	err = suite.room.ChangeRules(1, options)
	suite.True(errors.Is(err, errors.KindRuleChangePending))
	err = suite.room.BeginRound(1)
	suite.True(errors.Is(err, errors.KindRuleChangePending))
	suite.Len(suite.sessions[2].SentOfType(messages.MessageTypeRulesChanging), 1)
	suite.room.Update(suite.timing.RuleChangeGrace - time.Millisecond)
	suite.Equal(model.GameModeDeathmatch, suite.room.Options().Mode, "should wait for grace window")
	suite.room.Update(time.Millisecond)
	suite.Equal(model.GameModeTouchdown, suite.room.Options().Mode)
	suite.False(suite.room.IsChangingRules())
	suite.Len(suite.sessions[2].SentOfType(messages.MessageTypeRulesChanged), 1)
	suite.Equal(2, suite.room.Info().PlayerCount, "members should keep playing")
}

func (suite *RoomSuite) TestChangeRulesBelowMembers() {
	suite.join(suite.room, 2, 3)
	err := suite.room.ChangeRules(1, suite.options(2, 0))
	suite.True(errors.Is(err, errors.KindPlayerLimitBelowMembers))
}

func (suite *RoomSuite) TestChangeRulesInvalidMap() {
	options := suite.options(4, 0)
	options.Map = "moon"
	err := suite.room.ChangeRules(1, options)
	suite.True(errors.Is(err, errors.KindInvalidMap))
	suite.False(suite.room.IsChangingRules())
}

func (suite *RoomSuite) TestChangeRulesPlayerLimitIgnoresSpectatorSlots() {
	suite.join(suite.room, 2, 3)
	err := suite.room.ChangeRules(1, suite.options(2, 1))
	suite.True(errors.Is(err, errors.KindPlayerLimitBelowMembers), "spectator slots should not count")
	suite.False(suite.room.IsChangingRules())
}

func (suite *RoomSuite) TestChangeRulesToFewerPlayers() {
	suite.join(suite.room, 2, 3)
	suite.Require().NoError(suite.room.ChangeRules(1, suite.options(3, 0)))
	suite.room.Update(suite.timing.RuleChangeGrace)
	suite.Equal(3, suite.room.MemberCount())
	info := suite.room.Info()
	suite.Equal(3, info.PlayerCount)
	suite.Equal(0, info.SpectatorCount)
}

func (suite *RoomSuite) TestScoringEventFromNonMember() {
	err := suite.room.ReportKill(99, games.Kill{Killer: 0, Victim: 1, Assist: model.SlotNone})
	suite.True(errors.Is(err, errors.KindNotInRoom))
}

func (suite *RoomSuite) TestScoringEventRejectedWhileWaiting() {
	suite.join(suite.room, 2)
	suite.Require().NoError(suite.room.ReportKill(1, games.Kill{Killer: 0, Victim: 1, Assist: model.SlotNone}))
	suite.Empty(suite.sessions[1].SentOfType(messages.MessageTypeResult), "should be applied on update")
	suite.room.Update(time.Millisecond)
	results := suite.sessions[1].SentOfType(messages.MessageTypeResult)
	suite.Require().Len(results, 1)
	result := results[0].Content.(messages.MessageResult)
	suite.Equal(messages.MessageTypeScoreKill, result.Request)
	suite.NotEqual(errors.ResultOK, result.Code)
}

func (suite *RoomSuite) TestConcurrentJoins() {
	var wg sync.WaitGroup
	players := make([]*player.Player, 0)
	for i := 2; i < 20; i++ {
		players = append(players, suite.player(model.PlayerID(i)))
	}
	for _, p := range players {
		wg.Add(1)
		go func(p *player.Player) {
			defer wg.Done()
			_ = suite.room.Join(p, "")
		}(p)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			suite.room.Update(time.Millisecond)
		}
	}()
	wg.Wait()
	suite.Equal(6, suite.room.MemberCount(), "should not exceed capacity")
	inRoom := 0
	for _, p := range players {
		if _, ok := p.Room(); ok {
			inRoom++
		}
	}
	suite.Equal(5, inRoom, "back-references should match membership")
}

func TestRoom(t *testing.T) {
	suite.Run(t, new(RoomSuite))
}
