package ticksvc

import (
	"context"
	"github.com/lefinal/masc-match/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"testing"
	"time"
)

const timeout = 5 * time.Second

// updaterStub mocks Updater.
type updaterStub struct {
	mock.Mock
}

func (u *updaterStub) Update(ctx context.Context, elapsed time.Duration) error {
	return u.Called(ctx, elapsed).Error(0)
}

// tickServiceSuite tests tickService.
type tickServiceSuite struct {
	suite.Suite
	ctx     context.Context
	cancel  context.CancelFunc
	updater *updaterStub
	s       *tickService
	done    chan error
}

func (suite *tickServiceSuite) SetupTest() {
	suite.ctx, suite.cancel = context.WithTimeout(context.Background(), timeout)
	suite.updater = &updaterStub{}
	suite.s = New(zap.NewNop(), suite.updater, time.Millisecond).(*tickService)
	// Fake clock advancing by one second with each call.
	current := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	suite.s.now = func() time.Time {
		current = current.Add(time.Second)
		return current
	}
	suite.done = make(chan error)
}

func (suite *tickServiceSuite) TearDownTest() {
	suite.cancel()
}

func (suite *tickServiceSuite) run() {
	go func() {
		suite.done <- suite.s.Run(suite.ctx)
	}()
}

func (suite *tickServiceSuite) waitDone() {
	select {
	case <-time.After(timeout):
		suite.Fail("timeout", "should stop")
	case err := <-suite.done:
		suite.NoError(err, "should not fail")
	}
}

func (suite *tickServiceSuite) TestDefaultInterval() {
	s := New(zap.NewNop(), suite.updater, 0).(*tickService)
	suite.Equal(DefaultInterval, s.interval)
}

func (suite *tickServiceSuite) TestElapsed() {
	ctx, cancel := context.WithCancel(suite.ctx)
	suite.updater.On("Update", mock.Anything, time.Second).Return(nil).Run(func(_ mock.Arguments) {
		cancel()
	}).Once()
	defer suite.updater.AssertExpectations(suite.T())
	go func() {
		suite.done <- suite.s.Run(ctx)
	}()
	suite.waitDone()
}

func (suite *tickServiceSuite) TestUpdateFailKeepsTicking() {
	ctx, cancel := context.WithCancel(suite.ctx)
	suite.updater.On("Update", mock.Anything, mock.Anything).
		Return(errors.NewInternalError("sad life", nil)).Once()
	suite.updater.On("Update", mock.Anything, mock.Anything).Return(nil).Run(func(_ mock.Arguments) {
		cancel()
	}).Once()
	defer suite.updater.AssertExpectations(suite.T())
	go func() {
		suite.done <- suite.s.Run(ctx)
	}()
	suite.waitDone()
}

func (suite *tickServiceSuite) TestAborted() {
	suite.updater.On("Update", mock.Anything, mock.Anything).
		Return(errors.NewContextAbortedError("update rooms")).Once()
	defer suite.updater.AssertExpectations(suite.T())
	suite.run()
	suite.waitDone()
}

func TestTickService(t *testing.T) {
	suite.Run(t, new(tickServiceSuite))
}
