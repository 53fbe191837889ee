package portal

import (
	"context"
	"github.com/eclipse/paho.golang/paho"
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"runtime"
	"sync"
	"testing"
	"time"
)

const timeout = 5 * time.Second

func TestNewsletter_Unsubscribe(t *testing.T) {
	var wg sync.WaitGroup
	timeout, cancel := context.WithTimeout(context.Background(), timeout)
	n := &Newsletter[any]{
		unregisterFn: cancel,
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		n.Unsubscribe()
	}()
	<-timeout.Done()
	assert.Equal(t, context.Canceled, timeout.Err(), "should not time out")
}

func TestNewBase(t *testing.T) {
	_, err := NewBase(zap.New(zapcore.NewNopCore()), Config{MQTTAddr: "://no-scheme"})
	assert.True(t, errors.Is(err, errors.KindInvalidConfig), "should fail with invalid config")
	b, err := NewBase(zap.New(zapcore.NewNopCore()), Config{MQTTAddr: "mqtt://localhost:1883"})
	assert.NoError(t, err, "should not fail")
	assert.Equal(t, DefaultClientID, b.(*basePortal).config.ClientID, "should use default client id")
}

// subscribeSuite tests Subscribe.
type subscribeSuite struct {
	suite.Suite
	portal *Stub
}

func (suite *subscribeSuite) SetupTest() {
	suite.portal = &Stub{}
}

// TestParse assures that parsing into the wanted type does work as expected.
func (suite *subscribeSuite) TestParse() {
	type myStruct struct {
		A int  `json:"a"`
		B bool `json:"b"`
	}
	fromPortal := make(chan event.Event[any])
	newsletterFromPortal := &Newsletter[any]{
		unregisterFn: func() {
			suite.Fail("unsubscribed", "should not unsubscribe")
		},
		Receive: fromPortal,
	}
	suite.portal.On("Subscribe", mock.Anything, Topic("cats")).Return(newsletterFromPortal)
	defer suite.portal.AssertExpectations(suite.T())
	timeout, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	newsletter := Subscribe[myStruct](timeout, suite.portal, "cats")
	go func() {
		// Invalid payloads are dropped.
		for _, raw := range []string{`{"a": "meow"}`, `{"a": 123, "b":  true}`} {
			select {
			case <-timeout.Done():
				return
			case fromPortal <- event.Event[any]{Publish: &paho.Publish{Payload: []byte(raw)}}:
			}
		}
	}()
	select {
	case <-timeout.Done():
		suite.Fail("timeout", "should receive parsed payload")
	case got := <-newsletter.Receive:
		suite.Equal(myStruct{A: 123, B: true}, got.Payload, "should match expected payload")
	}
}

// TestAutoClose makes sure that the Newsletter.Receive channel from the
// returned Newsletter is closed when the subscription using Portal.Subscribe is
// done.
func (suite *subscribeSuite) TestAutoClose() {
	receiveFromPortal := make(chan event.Event[any])
	suite.portal.On("Subscribe", mock.Anything, Topic("cats")).Return(&Newsletter[any]{
		unregisterFn: func() {
			suite.Fail("unregistered", "should not unregister")
		},
		Receive: receiveFromPortal,
	})
	defer suite.portal.AssertExpectations(suite.T())
	timeout, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	newsletter := Subscribe[any](timeout, suite.portal, "cats")
	go func() {
		runtime.Gosched()
		close(receiveFromPortal)
	}()
	select {
	case <-timeout.Done():
		suite.Fail("timeout", "should close")
	case _, more := <-newsletter.Receive:
		suite.False(more, "should read no values from channel")
	}
}

func TestSubscribe(t *testing.T) {
	suite.Run(t, new(subscribeSuite))
}

func TestPortal_Subscribe(t *testing.T) {
	var wg sync.WaitGroup
	kiosk := &mqttKioskStub{}
	inbound := &mqttInboundRouterStub{}
	portal := &portal{
		logger: zap.New(zapcore.NewNopCore()),
		router: newRouter(zap.New(zapcore.NewNopCore()), kiosk, inbound),
	}
	handlerToRun := make(chan paho.MessageHandler)
	timeout, cancel := context.WithTimeout(context.Background(), timeout)
	kiosk.On("Subscribe", mock.Anything, mock.Anything).Return(&paho.Suback{}, nil).Once()
	wg.Add(1)
	kiosk.On("Unsubscribe", mock.Anything, mock.Anything).Return(&paho.Unsuback{}, nil).
		Run(func(_ mock.Arguments) {
			// Await unsubscribe call.
			wg.Done()
		}).Once()
	defer kiosk.AssertExpectations(t)
	inbound.On("RegisterHandler", "cats", mock.Anything).Run(func(args mock.Arguments) {
		go func() {
			select {
			case <-timeout.Done():
			case handlerToRun <- args.Get(1).(paho.MessageHandler):
			}
		}()
	})
	inbound.On("UnregisterHandler", "cats").Once()
	defer inbound.AssertExpectations(t)
	toPublish := &paho.Publish{}
	// Await handler for testing message forwarding.
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-timeout.Done():
		case handler := <-handlerToRun:
			handler(toPublish)
		}
	}()
	// Subscribe, await handler call and unsubscribe.
	wg.Add(1)
	go func() {
		defer wg.Done()
		newsletter := portal.Subscribe(timeout, "cats")
		select {
		case <-timeout.Done():
			return
		case got := <-newsletter.Receive:
			assert.Equal(t, toPublish, got.Publish, "should match expected publish")
		}
		newsletter.Unsubscribe()
	}()
	// Await all.
	go func() {
		wg.Wait()
		cancel()
	}()
	<-timeout.Done()
	assert.Equal(t, context.Canceled, timeout.Err(), "should not time out")
}

// publisherStub mocks publisher.
type publisherStub struct {
	mock.Mock
}

func (s *publisherStub) Publish(ctx context.Context, publish *paho.Publish) (*paho.PublishResponse, error) {
	args := s.Called(ctx, publish)
	var res *paho.PublishResponse
	res, _ = args.Get(0).(*paho.PublishResponse)
	return res, args.Error(1)
}

// portalPublishSuite tests portal.Publish.
type portalPublishSuite struct {
	suite.Suite
	publisher *publisherStub
	portal    *portal
}

func (suite *portalPublishSuite) SetupTest() {
	suite.publisher = &publisherStub{}
	suite.portal = &portal{
		logger:    zap.New(zapcore.NewNopCore()),
		publisher: suite.publisher,
	}
}

func (suite *portalPublishSuite) TestMarshalFail() {
	type myStruct struct {
		Ref *myStruct `json:"ref"`
	}
	selfRef := myStruct{}
	selfRef.Ref = &selfRef
	defer suite.publisher.AssertExpectations(suite.T())
	suite.NotPanics(func() {
		suite.portal.Publish(context.Background(), "cats", selfRef)
	})
}

func (suite *portalPublishSuite) TestPublishFail() {
	suite.publisher.On("Publish", mock.Anything, mock.Anything).
		Return(nil, errors.NewInternalError("sad life", nil)).Once()
	defer suite.publisher.AssertExpectations(suite.T())
	suite.NotPanics(func() {
		suite.portal.Publish(context.Background(), "cats", 123)
	})
}

func (suite *portalPublishSuite) TestNotConnected() {
	suite.portal.publisher = &connection{}
	suite.NotPanics(func() {
		suite.portal.Publish(context.Background(), "cats", 123)
	})
}

func (suite *portalPublishSuite) TestOK() {
	suite.publisher.On("Publish", mock.Anything, mock.MatchedBy(func(p *paho.Publish) bool {
		return p.Topic == "cats" && string(p.Payload) == "123"
	})).Return(&paho.PublishResponse{}, nil).Once()
	defer suite.publisher.AssertExpectations(suite.T())
	suite.portal.Publish(context.Background(), "cats", 123)
}

func TestPortal_Publish(t *testing.T) {
	suite.Run(t, new(portalPublishSuite))
}

func TestNop(t *testing.T) {
	p := NewNop(zap.New(zapcore.NewNopCore()))
	assert.NotPanics(t, func() {
		p.Publish(context.Background(), "cats", 123)
	})
	ctx, cancel := context.WithCancel(context.Background())
	newsletter := p.Subscribe(ctx, "cats")
	cancel()
	timeout, cancelTimeout := context.WithTimeout(context.Background(), timeout)
	defer cancelTimeout()
	select {
	case <-timeout.Done():
		t.Fatal("should close newsletter")
	case _, more := <-newsletter.Receive:
		assert.False(t, more, "should not receive")
	}
}
