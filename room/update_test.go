package room

import (
	"github.com/lefinal/masc-match/games"
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/resource"
	"github.com/stretchr/testify/suite"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"testing"
	"time"
)

// panicCatalog panics when experience is computed.
type panicCatalog struct {
	*resource.Catalog
	calls atomic.Int32
}

func (c *panicCatalog) Experience(_ model.GameMode, _ time.Duration, _ int, _ bool) int {
	c.calls.Inc()
	panic("sad life")
}

// updatePanicSuite tests that panics in room updates stay inside the room.
type updatePanicSuite struct {
	roomSuite
	catalog *panicCatalog
}

func (suite *updatePanicSuite) SetupTest() {
	suite.roomSuite.SetupTest()
	catalog, err := resource.Load()
	suite.Require().NoError(err)
	suite.catalog = &panicCatalog{Catalog: catalog}
	suite.registry = NewRegistry(zap.NewNop(), 1, 4, Deps{
		Logger:  zap.NewNop(),
		Timing:  suite.timing,
		Catalog: suite.catalog,
	}, suite.lobby)
}

func (suite *updatePanicSuite) TestRecoversAndKeepsTicking() {
	options := suite.options(4, 0)
	options.IsFriendly = true
	options.TimeLimit = time.Minute
	panicking := suite.create(suite.player(1), options)
	suite.Require().NoError(panicking.ConfirmJoin(1))
	suite.Require().NoError(panicking.BeginRound(1))
	suite.Require().NoError(panicking.LoadingCompleted(1))
	// Member of the other room never confirms its join.
	other := suite.create(suite.player(2), suite.options(4, 0))
	// Loading, countdown, start, entering result, result and back to waiting.
	for i := 0; i < 10 && (suite.catalog.calls.Load() == 0 || panicking.State() != games.StateWaiting); i++ {
		suite.NotPanics(func() {
			suite.registry.Update(time.Hour)
		})
	}
	suite.EqualValues(1, suite.catalog.calls.Load(), "should have computed experience once")
	suite.Equal(games.StateWaiting, panicking.State(), "should return to waiting")
	suite.Equal(1, panicking.MemberCount())
	suite.False(panicking.IsDisposed())
	suite.True(other.IsDisposed(), "other room should still be updated")
}

func TestRoom_UpdatePanic(t *testing.T) {
	suite.Run(t, new(updatePanicSuite))
}
