package votekick

import (
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/model"
	"github.com/stretchr/testify/suite"
	"testing"
	"time"
)

const testWindow = 15 * time.Second

// ArbiterSuite tests Arbiter with a room of four members.
type ArbiterSuite struct {
	suite.Suite
	arbiter *Arbiter
}

func (suite *ArbiterSuite) SetupTest() {
	suite.arbiter = New(testWindow)
	suite.Require().NoError(suite.arbiter.Start(1, 4, model.KickReasonAFK))
}

func (suite *ArbiterSuite) TestStartRegistersSenderVote() {
	suite.Equal(StateExecution, suite.arbiter.State())
	suite.Equal(Tally{Votes: 1, Yes: 1}, suite.arbiter.Tally())
	target, ok := suite.arbiter.Target()
	suite.True(ok)
	suite.Equal(model.PlayerID(4), target)
}

func (suite *ArbiterSuite) TestStartWhileRunning() {
	err := suite.arbiter.Start(2, 3, model.KickReasonOther)
	suite.True(errors.Is(err, errors.KindVoteInProgress), "should fail with vote in progress")
}

func (suite *ArbiterSuite) TestStartAgainstSelf() {
	suite.arbiter.Reset()
	err := suite.arbiter.Start(2, 2, model.KickReasonOther)
	suite.True(errors.Is(err, errors.KindSelfTarget), "should fail with self target")
	suite.Equal(StateCanStart, suite.arbiter.State())
}

func (suite *ArbiterSuite) TestDuplicateVote() {
	_, err := suite.arbiter.Vote(1, false)
	suite.True(errors.Is(err, errors.KindAlreadyVoted), "sender already voted")
	_, err = suite.arbiter.Vote(2, true)
	suite.Require().NoError(err)
	_, err = suite.arbiter.Vote(2, true)
	suite.True(errors.Is(err, errors.KindAlreadyVoted), "should reject duplicate vote")
	suite.Equal(Tally{Votes: 2, Yes: 2}, suite.arbiter.Tally())
}

func (suite *ArbiterSuite) TestTargetCannotVote() {
	_, err := suite.arbiter.Vote(4, false)
	suite.True(errors.Is(err, errors.KindSelfTarget), "should reject vote from target")
}

func (suite *ArbiterSuite) TestVoteWithoutRunningVote() {
	suite.arbiter.Reset()
	_, err := suite.arbiter.Vote(2, true)
	suite.True(errors.Is(err, errors.KindNoVoteInProgress), "should fail without vote")
}

func (suite *ArbiterSuite) TestMajorityKicks() {
	_, err := suite.arbiter.Vote(2, true)
	suite.Require().NoError(err)
	tally, err := suite.arbiter.Vote(3, true)
	suite.Require().NoError(err)
	suite.Equal(Tally{Votes: 3, Yes: 3}, tally)
	verdict, ok := suite.arbiter.Update(testWindow, true, 4)
	suite.Require().True(ok, "should end after window")
	suite.True(verdict.Kicked, "should kick")
	suite.Equal(3, verdict.Majority)
	suite.Equal(model.PlayerID(4), verdict.Target)
	suite.Equal(model.KickReasonAFK, verdict.Reason)
	suite.Equal(StateCanStart, suite.arbiter.State(), "should reset")
}

func (suite *ArbiterSuite) TestNoMajority() {
	_, err := suite.arbiter.Vote(2, true)
	suite.Require().NoError(err)
	_, err = suite.arbiter.Vote(3, false)
	suite.Require().NoError(err)
	verdict, ok := suite.arbiter.Update(testWindow, true, 4)
	suite.Require().True(ok, "should end after window")
	suite.False(verdict.Kicked, "should not kick with 2 of 3 required votes")
	suite.Equal(Tally{Votes: 3, Yes: 2}, verdict.Tally)
	suite.Equal(StateCanStart, suite.arbiter.State(), "should reset")
}

func (suite *ArbiterSuite) TestWaitsForWindow() {
	_, ok := suite.arbiter.Update(testWindow-time.Second, true, 4)
	suite.False(ok, "should not end before window")
	suite.Equal(time.Second, suite.arbiter.Remaining())
	_, ok = suite.arbiter.Update(time.Second, true, 4)
	suite.True(ok, "should end after window")
}

func (suite *ArbiterSuite) TestTargetLeft() {
	verdict, ok := suite.arbiter.Update(time.Second, false, 3)
	suite.Require().True(ok, "should end")
	suite.True(verdict.Cancelled, "should cancel")
	suite.False(verdict.Kicked, "should not kick")
	suite.Equal(StateCanStart, suite.arbiter.State())
}

func (suite *ArbiterSuite) TestUpdateIdle() {
	suite.arbiter.Reset()
	_, ok := suite.arbiter.Update(testWindow, true, 4)
	suite.False(ok, "should not end without vote")
}

func TestArbiter(t *testing.T) {
	suite.Run(t, new(ArbiterSuite))
}

func TestMajority(t *testing.T) {
	tests := []struct {
		members int
		want    int
	}{
		{members: 1, want: 1},
		{members: 2, want: 2},
		{members: 3, want: 2},
		{members: 4, want: 3},
		{members: 5, want: 3},
		{members: 16, want: 9},
	}
	for _, tt := range tests {
		if got := Majority(tt.members); got != tt.want {
			t.Errorf("Majority(%d) = %d, want %d", tt.members, got, tt.want)
		}
	}
}
