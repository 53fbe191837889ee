package model

import (
	"github.com/lefinal/masc-match/errors"
	"github.com/stretchr/testify/suite"
	"testing"
	"time"
)

type RoomOptionsValidateSuite struct {
	suite.Suite
	options RoomOptions
}

func (suite *RoomOptionsValidateSuite) SetupTest() {
	suite.options = RoomOptions{
		Name:           "hello",
		Mode:           GameModeDeathmatch,
		Map:            "station",
		ScoreLimit:     20,
		TimeLimit:      10 * time.Minute,
		PlayerLimit:    8,
		SpectatorLimit: 2,
	}
}

func (suite *RoomOptionsValidateSuite) TestOK() {
	suite.NoError(suite.options.Validate(), "should not fail")
}

func (suite *RoomOptionsValidateSuite) TestMissingMap() {
	suite.options.Map = ""
	err := suite.options.Validate()
	suite.Require().Error(err, "should fail")
	suite.True(errors.Is(err, errors.KindInvalidOptions), "should return correct kind")
}

func (suite *RoomOptionsValidateSuite) TestPlayerLimitTooHigh() {
	suite.options.PlayerLimit = 17
	suite.Error(suite.options.Validate(), "should fail")
}

func (suite *RoomOptionsValidateSuite) TestZeroPlayerLimit() {
	suite.options.PlayerLimit = 0
	suite.Error(suite.options.Validate(), "should fail")
}

func (suite *RoomOptionsValidateSuite) TestNegativeScoreLimit() {
	suite.options.ScoreLimit = -1
	suite.Error(suite.options.Validate(), "should fail")
}

func (suite *RoomOptionsValidateSuite) TestUnknownMode() {
	suite.options.Mode = "hide-and-seek"
	err := suite.options.Validate()
	suite.Require().Error(err, "should fail")
	suite.True(errors.Is(err, errors.KindInvalidMode), "should return correct kind")
}

func TestRoomOptions_Validate(t *testing.T) {
	suite.Run(t, new(RoomOptionsValidateSuite))
}

func TestRoomOptions_Capacity(t *testing.T) {
	o := RoomOptions{PlayerLimit: 8, SpectatorLimit: 3}
	if got := o.Capacity(); got != 11 {
		t.Errorf("Capacity() = %d, want %d", got, 11)
	}
}

func TestTeamID_String(t *testing.T) {
	tests := []struct {
		team TeamID
		want string
	}{
		{team: TeamNone, want: "none"},
		{team: TeamAlpha, want: "alpha"},
		{team: TeamBeta, want: "beta"},
		{team: TeamNeutral, want: "neutral"},
		{team: 9, want: "team-9"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.team.String(); got != tt.want {
				t.Errorf("String() = %v, want %v", got, tt.want)
			}
		})
	}
}
