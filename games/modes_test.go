package games

import (
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/player"
	"github.com/stretchr/testify/suite"
	"testing"
	"time"
)

// modeSuite provides a started match with the given count of players.
type modeSuite struct {
	suite.Suite
	rule    *Base
	room    *roomStub
	players []*player.Participant
}

func (suite *modeSuite) start(options model.RoomOptions, playerCount int) {
	suite.rule, suite.room = newTestRule(options)
	suite.players = nil
	for id := model.PlayerID(1); id <= model.PlayerID(playerCount); id++ {
		p := suite.room.join(id)
		p.IsReady = true
		suite.players = append(suite.players, p)
	}
	suite.Require().NoError(startMatch(suite.rule, suite.room), "should start match")
	suite.Require().True(isRoundState(suite.rule.State()), "should be in round state")
}

// host returns the reporter that is authoritative for all events.
func (suite *modeSuite) host() model.PlayerID {
	return suite.room.Host()
}

func (suite *modeSuite) kill(killer *player.Participant, victim *player.Participant) {
	err := suite.rule.OnScoreKill(suite.host(), Kill{Killer: killer.Slot, Victim: victim.Slot, Assist: model.SlotNone})
	suite.Require().NoError(err, "kill should not fail")
}

// TouchdownSuite tests touchdown scoring and blocking.
type TouchdownSuite struct {
	modeSuite
}

func (suite *TouchdownSuite) SetupTest() {
	suite.start(testOptions(model.GameModeTouchdown), 4)
}

func (suite *TouchdownSuite) TestStartsWithFirstHalf() {
	suite.Equal(StateFirstHalf, suite.rule.State())
}

func (suite *TouchdownSuite) TestTouchdownBlocks() {
	scorer := suite.players[0]
	suite.Require().NoError(suite.rule.OnScoreObjective(scorer.ID(), scorer.Slot, ObjectiveTouchdown))
	suite.Equal(1, suite.room.roster.Score(scorer.Team), "should score for team")
	suite.Equal(10, scorer.Record.TotalScore())
	suite.True(suite.rule.IsBlocked(), "should block")
	// Kills while blocked are not counted.
	suite.kill(suite.players[1], suite.players[0])
	suite.Equal(0, suite.players[1].Record.Base().Kills, "should not count while blocked")
	suite.rule.Update(suite.rule.deps.Timing.TouchdownBlock)
	suite.False(suite.rule.IsBlocked(), "should unblock")
	suite.Equal(model.PlayerStateAlive, suite.players[0].State, "should revive on unblock")
}

func (suite *TouchdownSuite) TestUnknownObjective() {
	err := suite.rule.OnScoreObjective(suite.host(), 0, ObjectiveCapture)
	suite.True(errors.Is(err, errors.KindUnknownObjective), "should fail with unknown objective")
}

func (suite *TouchdownSuite) TestDeadParticipantCannotScore() {
	suite.kill(suite.players[1], suite.players[0])
	err := suite.rule.OnScoreObjective(suite.host(), 0, ObjectiveTouchdown)
	suite.True(errors.Is(err, errors.KindSlotMismatch), "should fail with slot mismatch")
}

func (suite *TouchdownSuite) TestStatus() {
	status, ok := suite.rule.mode.Status().(touchdownStatus)
	suite.Require().True(ok, "should return touchdown status")
	suite.False(status.Blocked)
	suite.Len(status.Teams, 2)
}

func TestTouchdown(t *testing.T) {
	suite.Run(t, new(TouchdownSuite))
}

// BattleRoyalSuite tests eliminations.
type BattleRoyalSuite struct {
	modeSuite
}

func (suite *BattleRoyalSuite) SetupTest() {
	suite.start(testOptions(model.GameModeBattleRoyal), 3)
}

func (suite *BattleRoyalSuite) TestSingleNeutralTeam() {
	for _, p := range suite.players {
		suite.Equal(model.TeamNeutral, p.Team)
	}
}

func (suite *BattleRoyalSuite) TestEliminatedCannotRespawn() {
	suite.kill(suite.players[0], suite.players[1])
	err := suite.rule.OnRespawn(suite.players[1].ID(), suite.players[1].Slot)
	suite.True(errors.Is(err, errors.KindEliminated), "should fail with eliminated")
	suite.Equal(model.PlayerStateDead, suite.players[1].State)
}

func (suite *BattleRoyalSuite) TestLastSurvivorWins() {
	suite.kill(suite.players[0], suite.players[1])
	suite.rule.Update(time.Millisecond)
	suite.Equal(StateFullGame, suite.rule.State(), "two survivors should continue")
	suite.kill(suite.players[0], suite.players[2])
	suite.rule.Update(time.Millisecond)
	suite.Require().Equal(StateEnteringResult, suite.rule.State(), "last survivor should end match")
	briefing := suite.rule.Briefing()
	winner, ok := briefing.WinnerPlayer()
	suite.Require().True(ok, "should have winner")
	suite.Equal(suite.players[0].ID(), winner)
	placements := make(map[model.PlayerID]int)
	for _, p := range briefing.Players {
		placements[p.Player] = p.Placement
	}
	suite.Equal(1, placements[1])
	suite.Equal(2, placements[3], "last eliminated should be second")
	suite.Equal(3, placements[2], "first eliminated should be last")
	won, decided := briefing.Outcome(2)
	suite.False(won)
	suite.True(decided)
}

func (suite *BattleRoyalSuite) TestSuicideEliminates() {
	suite.Require().NoError(suite.rule.OnScoreSuicide(suite.host(), suite.players[2].Slot))
	suite.Equal(2, suite.rule.mode.(*battleRoyal).survivors())
}

func TestBattleRoyal(t *testing.T) {
	suite.Run(t, new(BattleRoyalSuite))
}

// ChaserSuite tests chaser sub-rounds.
type ChaserSuite struct {
	modeSuite
	mode *chaser
}

func (suite *ChaserSuite) SetupTest() {
	suite.start(testOptions(model.GameModeChaser), 3)
	suite.mode = suite.rule.mode.(*chaser)
}

// chaserAndOther returns the current chaser and any other participant.
func (suite *ChaserSuite) chaserAndOther() (*player.Participant, *player.Participant) {
	suite.Require().True(suite.mode.hasChaser, "should have chaser")
	var chaserP, other *player.Participant
	for _, p := range suite.players {
		if p.ID() == suite.mode.chaser {
			chaserP = p
		} else if other == nil {
			other = p
		}
	}
	suite.Require().NotNil(chaserP)
	suite.Require().NotNil(other)
	return chaserP, other
}

func (suite *ChaserSuite) TestChaserSelectedOnStart() {
	suite.True(suite.mode.hasChaser)
	suite.Equal(1, suite.mode.subRounds)
	status, ok := suite.mode.Status().(chaserStatus)
	suite.Require().True(ok)
	suite.Equal(suite.mode.chaser, status.Chaser)
}

func (suite *ChaserSuite) TestKillingChaserEndsSubRound() {
	chaserP, other := suite.chaserAndOther()
	suite.kill(other, chaserP)
	suite.True(suite.rule.IsBlocked(), "should block between sub-rounds")
	suite.False(suite.mode.hasChaser)
	suite.Equal(1, other.Record.(*chaserRecord).ChaserKilled)
	err := suite.rule.OnRespawn(suite.host(), chaserP.Slot)
	suite.True(errors.Is(err, errors.KindEliminated), "should not respawn within sub-round")
	suite.rule.Update(suite.rule.deps.Timing.SubRoundPause)
	suite.False(suite.rule.IsBlocked(), "should unblock")
	suite.True(suite.mode.hasChaser, "should select new chaser")
	suite.Equal(2, suite.mode.subRounds)
	suite.Equal(model.PlayerStateAlive, chaserP.State, "should revive with new sub-round")
}

func (suite *ChaserSuite) TestSurvivingSubRound() {
	chaserP, _ := suite.chaserAndOther()
	suite.rule.Update(suite.rule.deps.Timing.SubRound)
	suite.True(suite.rule.IsBlocked(), "should end sub-round")
	for _, p := range suite.players {
		survived := p.Record.(*chaserRecord).Survived
		if p == chaserP {
			suite.Equal(0, survived, "chaser should not survive")
		} else {
			suite.Equal(1, survived, "non-chaser should survive")
		}
	}
}

func TestChaser(t *testing.T) {
	suite.Run(t, new(ChaserSuite))
}

// CaptainSuite tests captain sub-rounds.
type CaptainSuite struct {
	modeSuite
	mode *captain
}

func (suite *CaptainSuite) SetupTest() {
	suite.start(testOptions(model.GameModeCaptain), 4)
	suite.mode = suite.rule.mode.(*captain)
}

func (suite *CaptainSuite) TestCaptainsSelected() {
	suite.Len(suite.mode.captains, 2, "each team should have captain")
}

func (suite *CaptainSuite) TestKillingEnemyCaptainScores() {
	captainID := suite.mode.captains[model.TeamBeta]
	victim, ok := suite.room.Participant(captainID)
	suite.Require().True(ok)
	killer := suite.players[0]
	suite.Require().Equal(model.TeamAlpha, killer.Team)
	suite.kill(killer, victim)
	suite.Equal(1, suite.room.roster.Score(model.TeamAlpha))
	suite.Equal(1, killer.Record.(*captainRecord).CaptainKills)
	suite.True(suite.rule.IsBlocked(), "should end sub-round")
	suite.rule.Update(suite.rule.deps.Timing.SubRoundPause)
	suite.Len(suite.mode.captains, 2, "should select new captains")
}

func (suite *CaptainSuite) TestCaptainSuicideScoresForOtherTeam() {
	captainID := suite.mode.captains[model.TeamAlpha]
	p, ok := suite.room.Participant(captainID)
	suite.Require().True(ok)
	suite.Require().NoError(suite.rule.OnScoreSuicide(suite.host(), p.Slot))
	suite.Equal(1, suite.room.roster.Score(model.TeamBeta))
	suite.Equal(0, suite.room.roster.Score(model.TeamAlpha))
}

func (suite *CaptainSuite) TestCaptainTeamKilledScoresForOtherTeam() {
	captainID := suite.mode.captains[model.TeamAlpha]
	victim, ok := suite.room.Participant(captainID)
	suite.Require().True(ok)
	var mate *player.Participant
	for _, p := range suite.players {
		if p.Team == model.TeamAlpha && p.ID() != captainID {
			mate = p
		}
	}
	suite.Require().NotNil(mate, "captain should have team mate")
	suite.Require().NoError(suite.rule.OnScoreTeamKill(suite.host(), Kill{
		Killer: mate.Slot,
		Victim: victim.Slot,
		Assist: model.SlotNone,
	}))
	suite.Equal(1, suite.room.roster.Score(model.TeamBeta))
	suite.Equal(0, suite.room.roster.Score(model.TeamAlpha))
	suite.True(suite.rule.IsBlocked(), "should end sub-round")
	suite.Empty(suite.mode.captains)
}

func (suite *CaptainSuite) TestSubRoundTimeout() {
	suite.rule.Update(suite.rule.deps.Timing.SubRound)
	suite.True(suite.rule.IsBlocked(), "should end sub-round as draw")
	suite.Equal(0, suite.room.roster.Score(model.TeamAlpha))
	suite.Equal(0, suite.room.roster.Score(model.TeamBeta))
}

func TestCaptain(t *testing.T) {
	suite.Run(t, new(CaptainSuite))
}

// SiegeSuite tests attacker restrictions.
type SiegeSuite struct {
	modeSuite
}

func (suite *SiegeSuite) SetupTest() {
	options := testOptions(model.GameModeSiege)
	options.TimeLimit = 10 * time.Minute
	suite.start(options, 4)
}

func (suite *SiegeSuite) TestDefenderCannotCapture() {
	defender := suite.players[1]
	suite.Require().Equal(model.TeamBeta, defender.Team)
	err := suite.rule.OnScoreObjective(suite.host(), defender.Slot, ObjectiveCapture)
	suite.True(errors.Is(err, errors.KindNotAuthoritative), "should fail for defender")
	suite.Equal(0, suite.room.roster.Score(model.TeamBeta))
}

func (suite *SiegeSuite) TestAttackerCaptures() {
	attacker := suite.players[0]
	suite.Require().NoError(suite.rule.OnScoreObjective(suite.host(), attacker.Slot, ObjectiveCapture))
	suite.Equal(1, suite.room.roster.Score(model.TeamAlpha))
	suite.True(suite.rule.IsBlocked())
}

func (suite *SiegeSuite) TestAttackerSwapsInSecondHalf() {
	timing := suite.rule.deps.Timing
	suite.rule.Update(5 * time.Minute)
	suite.rule.Update(timing.EnteringHalfTime)
	suite.rule.Update(timing.HalfTime)
	suite.Require().Equal(StateSecondHalf, suite.rule.State())
	err := suite.rule.OnScoreObjective(suite.host(), suite.players[0].Slot, ObjectiveCapture)
	suite.True(errors.Is(err, errors.KindNotAuthoritative), "alpha should defend in second half")
	suite.NoError(suite.rule.OnScoreObjective(suite.host(), suite.players[1].Slot, ObjectiveCapture))
}

func TestSiege(t *testing.T) {
	suite.Run(t, new(SiegeSuite))
}

// PracticeSuite tests practice without winner.
type PracticeSuite struct {
	modeSuite
}

func (suite *PracticeSuite) SetupTest() {
	options := testOptions(model.GameModePractice)
	options.ScoreLimit = 1
	suite.start(options, 2)
}

func (suite *PracticeSuite) TestScoreLimitIgnored() {
	suite.Require().NoError(suite.rule.OnScoreObjective(suite.host(), 0, ObjectiveTarget))
	suite.rule.Update(time.Millisecond)
	suite.Equal(StateFullGame, suite.rule.State(), "should ignore score limit")
	suite.Equal(1, suite.players[0].Record.(*practiceRecord).Targets)
}

func (suite *PracticeSuite) TestNoWinner() {
	suite.Require().NoError(suite.rule.Fire(TriggerStartResult))
	suite.rule.Update(suite.rule.deps.Timing.EnteringResult)
	suite.Require().Equal(StateResult, suite.rule.State())
	won, decided := suite.rule.Briefing().Outcome(1)
	suite.False(won)
	suite.False(decided)
	stats := suite.players[0].Stats()
	suite.Equal(0, stats.Wins)
	suite.Equal(0, stats.Losses)
}

func TestPractice(t *testing.T) {
	suite.Run(t, new(PracticeSuite))
}

// ArcadeSuite tests cooperative stages.
type ArcadeSuite struct {
	modeSuite
}

func (suite *ArcadeSuite) SetupTest() {
	options := testOptions(model.GameModeArcade)
	options.ScoreLimit = 2
	suite.start(options, 2)
}

func (suite *ArcadeSuite) clearStage() {
	suite.Require().NoError(suite.rule.OnScoreObjective(suite.host(), 0, ObjectiveStageClear))
}

func (suite *ArcadeSuite) TestMonsters() {
	suite.Require().NoError(suite.rule.OnScoreObjective(suite.host(), 0, ObjectiveMonster))
	suite.Equal(1, suite.players[0].Record.Base().Kills)
	suite.Equal(1, suite.players[0].Record.TotalScore())
}

func (suite *ArcadeSuite) TestClearedWins() {
	suite.clearStage()
	suite.Equal(2, suite.rule.mode.(*arcade).stage())
	suite.rule.Update(suite.rule.deps.Timing.SubRoundPause)
	suite.False(suite.rule.IsBlocked())
	suite.clearStage()
	suite.rule.Update(time.Millisecond)
	suite.Require().Equal(StateEnteringResult, suite.rule.State(), "should reach score limit")
	suite.rule.Update(suite.rule.deps.Timing.EnteringResult)
	suite.Require().Equal(StateResult, suite.rule.State())
	briefing := suite.rule.Briefing()
	suite.True(briefing.Cleared)
	suite.Equal(model.TeamAlpha, briefing.WinnerTeam())
	for _, p := range suite.players {
		suite.Equal(1, p.Stats().Wins, "all players should win")
	}
}

func TestArcade(t *testing.T) {
	suite.Run(t, new(ArcadeSuite))
}
