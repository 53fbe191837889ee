package gateway

import (
	"context"
	"fmt"
	"github.com/lefinal/masc-match/channel"
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/games"
	"github.com/lefinal/masc-match/messages"
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/player"
	"github.com/lefinal/masc-match/resource"
	"github.com/lefinal/masc-match/room"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"testing"
	"time"
)

// statsStoreStub mocks StatsStore.
type statsStoreStub struct {
	mock.Mock
}

func (s *statsStoreStub) PlayerStats(ctx context.Context, playerID model.PlayerID) (player.Stats, error) {
	args := s.Called(ctx, playerID)
	return args.Get(0).(player.Stats), args.Error(1)
}

// GatewaySuite tests request handling of Gateway.
type GatewaySuite struct {
	suite.Suite
	stats    *statsStoreStub
	channels *channel.Registry
	gateway  *Gateway
}

func (suite *GatewaySuite) SetupTest() {
	catalog, err := resource.Load()
	suite.Require().NoError(err)
	suite.channels, err = channel.NewRegistry(zap.NewNop(), []channel.Config{
		{ID: 1, Name: "all", MinLevel: 0, MaxLevel: 99, PlayerLimit: 10, RoomLimit: 4},
	}, room.Deps{
		Logger:  zap.NewNop(),
		Timing:  games.DefaultTiming(),
		Catalog: catalog,
	}, 2)
	suite.Require().NoError(err)
	suite.stats = &statsStoreStub{}
	suite.stats.On("PlayerStats", mock.Anything, mock.Anything).Return(player.Stats{Wins: 3}, nil)
	suite.gateway = New(zap.NewNop(), suite.channels, suite.stats)
}

func (suite *GatewaySuite) handler() (*sessionHandler, *player.SessionMock) {
	session := &player.SessionMock{}
	return &sessionHandler{
		gateway: suite.gateway,
		logger:  zap.NewNop(),
		session: session,
	}, session
}

func request(messageType messages.MessageType, content string) []byte {
	if content == "" {
		return []byte(fmt.Sprintf(`{"message_type":%q}`, messageType))
	}
	return []byte(fmt.Sprintf(`{"message_type":%q,"content":%s}`, messageType, content))
}

// lastResult returns the last result sent to the session.
func (suite *GatewaySuite) lastResult(session *player.SessionMock) messages.MessageResult {
	results := session.SentOfType(messages.MessageTypeResult)
	suite.Require().NotEmpty(results, "should have sent result")
	return results[len(results)-1].Content.(messages.MessageResult)
}

// hello identifies a new session with the given player id and joins channel 1.
func (suite *GatewaySuite) hello(id model.PlayerID) (*sessionHandler, *player.SessionMock) {
	s, session := suite.handler()
	s.handle(context.Background(), request(messages.MessageTypeHello,
		fmt.Sprintf(`{"player_id":%d,"nickname":"player-%d","level":1}`, id, id)))
	suite.Require().Equal(errors.ResultOK, suite.lastResult(session).Code)
	s.handle(context.Background(), request(messages.MessageTypeJoinChannel, `{"channel":1}`))
	suite.Require().Equal(errors.ResultOK, suite.lastResult(session).Code)
	return s, session
}

func (suite *GatewaySuite) TestInvalidContainer() {
	s, session := suite.handler()
	s.handle(context.Background(), []byte("meow"))
	suite.Len(session.SentOfType(messages.MessageTypeError), 1)
	suite.Empty(session.SentOfType(messages.MessageTypeResult))
}

func (suite *GatewaySuite) TestRequestBeforeHello() {
	s, session := suite.handler()
	s.handle(context.Background(), request(messages.MessageTypeJoinChannel, `{"channel":1}`))
	result := suite.lastResult(session)
	suite.Equal(messages.MessageTypeJoinChannel, result.Request)
	suite.Equal(errors.ResultFailed, result.Code)
}

func (suite *GatewaySuite) TestHello() {
	s, session := suite.handler()
	s.handle(context.Background(), request(messages.MessageTypeHello, `{"player_id":7,"nickname":"cat","level":3}`))
	suite.Equal(errors.ResultOK, suite.lastResult(session).Code)
	suite.Require().NotNil(s.player)
	suite.Equal(3, s.player.Stats().Wins, "should load stats")
	welcome := session.SentOfType(messages.MessageTypeWelcome)
	suite.Require().Len(welcome, 1)
	suite.Len(welcome[0].Content.(messages.MessageWelcome).Channels, 1)
	suite.Equal(1, suite.gateway.PlayerCount())
	// Second hello on same session.
	s.handle(context.Background(), request(messages.MessageTypeHello, `{"player_id":7,"nickname":"cat"}`))
	suite.Equal(errors.ResultFailed, suite.lastResult(session).Code)
}

func (suite *GatewaySuite) TestHelloInvalid() {
	s, session := suite.handler()
	s.handle(context.Background(), request(messages.MessageTypeHello, `{"player_id":7}`))
	suite.Equal(errors.ResultFailed, suite.lastResult(session).Code)
	suite.Nil(s.player)
}

func (suite *GatewaySuite) TestHelloStatsFail() {
	suite.stats = &statsStoreStub{}
	suite.stats.On("PlayerStats", mock.Anything, mock.Anything).
		Return(player.Stats{}, errors.NewInternalError("sad life", nil))
	suite.gateway.stats = suite.stats
	s, session := suite.handler()
	s.handle(context.Background(), request(messages.MessageTypeHello, `{"player_id":7,"nickname":"cat"}`))
	result := suite.lastResult(session)
	suite.Equal(errors.ResultFailed, result.Code)
	suite.Empty(result.Message, "should not leak internal errors")
	suite.Nil(s.player)
}

func (suite *GatewaySuite) TestAlreadyOnline() {
	suite.hello(1)
	s, session := suite.handler()
	s.handle(context.Background(), request(messages.MessageTypeHello, `{"player_id":1,"nickname":"again"}`))
	suite.Equal(errors.ResultFailed, suite.lastResult(session).Code)
	suite.Nil(s.player)
}

func (suite *GatewaySuite) TestJoinUnknownChannel() {
	s, session := suite.handler()
	s.handle(context.Background(), request(messages.MessageTypeHello, `{"player_id":1,"nickname":"cat"}`))
	s.handle(context.Background(), request(messages.MessageTypeJoinChannel, `{"channel":42}`))
	suite.Equal(errors.ResultRoomNotFound, suite.lastResult(session).Code)
}

func (suite *GatewaySuite) TestLatencyIsSilent() {
	s, session := suite.hello(1)
	session.Reset()
	s.handle(context.Background(), request(messages.MessageTypeLatency, `{"latency_ms":42}`))
	suite.Empty(session.SentOfType(messages.MessageTypeResult))
	suite.Equal(42*time.Millisecond, s.player.Latency())
}

func (suite *GatewaySuite) TestRoomLifecycle() {
	master, masterSession := suite.hello(1)
	other, otherSession := suite.hello(2)
	master.handle(context.Background(), request(messages.MessageTypeCreateRoom,
		`{"options":{"name":"test","mode":"deathmatch","map":"harbor","player_limit":4}}`))
	suite.Require().Equal(errors.ResultOK, suite.lastResult(masterSession).Code)
	roomID, ok := master.player.Room()
	suite.Require().True(ok)
	master.handle(context.Background(), request(messages.MessageTypeConfirmJoin, ""))
	suite.Require().Equal(errors.ResultOK, suite.lastResult(masterSession).Code)
	// Join with wrong room.
	other.handle(context.Background(), request(messages.MessageTypeJoinRoom, `{"room":42}`))
	suite.Equal(errors.ResultRoomNotFound, suite.lastResult(otherSession).Code)
	other.handle(context.Background(), request(messages.MessageTypeJoinRoom, fmt.Sprintf(`{"room":%d}`, roomID)))
	suite.Require().Equal(errors.ResultOK, suite.lastResult(otherSession).Code)
	// Only the master may begin.
	other.handle(context.Background(), request(messages.MessageTypeBeginRound, ""))
	suite.Equal(errors.ResultNotMaster, suite.lastResult(otherSession).Code)
	other.handle(context.Background(), request(messages.MessageTypeReady, ""))
	suite.Equal(errors.ResultOK, suite.lastResult(otherSession).Code)
	master.handle(context.Background(), request(messages.MessageTypeReady, ""))
	suite.Equal(errors.ResultNotMaster, suite.lastResult(masterSession).Code, "master cannot ready")
	// Scoring while waiting is rejected asynchronously.
	otherSession.Reset()
	other.handle(context.Background(), request(messages.MessageTypeScoreSuicide, `{"slot":1}`))
	suite.Empty(otherSession.SentOfType(messages.MessageTypeResult), "scoring should be silent when queued")
	// Leave.
	other.handle(context.Background(), request(messages.MessageTypeLeaveRoom, ""))
	suite.Equal(errors.ResultOK, suite.lastResult(otherSession).Code)
	other.handle(context.Background(), request(messages.MessageTypeReady, ""))
	suite.NotEqual(errors.ResultOK, suite.lastResult(otherSession).Code, "should not be in room anymore")
}

func (suite *GatewaySuite) TestUnknownMessageType() {
	master, masterSession := suite.hello(1)
	master.handle(context.Background(), request(messages.MessageTypeCreateRoom,
		`{"options":{"mode":"deathmatch","map":"harbor","player_limit":4}}`))
	suite.Require().Equal(errors.ResultOK, suite.lastResult(masterSession).Code)
	master.handle(context.Background(), request("meow", ""))
	result := suite.lastResult(masterSession)
	suite.Equal(messages.MessageType("meow"), result.Request)
	suite.Equal(errors.ResultFailed, result.Code)
}

func (suite *GatewaySuite) TestServeDisconnects() {
	session := &player.SessionMock{}
	receive := make(chan []byte, 3)
	receive <- request(messages.MessageTypeHello, `{"player_id":1,"nickname":"cat"}`)
	receive <- request(messages.MessageTypeJoinChannel, `{"channel":1}`)
	receive <- request(messages.MessageTypeCreateRoom, `{"options":{"mode":"deathmatch","map":"harbor","player_limit":4}}`)
	close(receive)
	suite.gateway.Serve(context.Background(), session, receive)
	suite.Len(session.SentOfType(messages.MessageTypeResult), 3)
	suite.Equal(0, suite.gateway.PlayerCount(), "should unregister player")
	c, err := suite.channels.Get(1)
	suite.Require().NoError(err)
	suite.Equal(0, c.PlayerCount(), "should leave channel")
	suite.Equal(0, suite.channels.RoomCount(), "should dispose room")
}

func TestGateway(t *testing.T) {
	suite.Run(t, new(GatewaySuite))
}
