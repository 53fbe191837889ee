// Package portal connects the server to an MQTT broker for publishing events
// and receiving typed newsletters.
package portal

import (
	"context"
	"encoding/json"
	nativeerrors "errors"
	"fmt"
	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/event"
	"go.uber.org/zap"
	"net/url"
	"sync"
	"time"
)

// DefaultClientID is the MQTT client id used when none is configured.
const DefaultClientID = "masc-match"

const mqttKeepAlive = 8

const mqttQOS = 0

// disconnectTimeout is the timeout for disconnecting from the MQTT server when
// the Base is closed.
const disconnectTimeout = 3 * time.Second

// Topic is an MQTT topic.
type Topic string

// errNotConnected is returned by the connection when no MQTT server
// connection has been established yet.
var errNotConnected = nativeerrors.New("mqtt server not connected")

// Config is the config for the Base.
type Config struct {
	// MQTTAddr is the address where the MQTT-server is found.
	MQTTAddr string
	// ClientID is the MQTT client id. If not set, DefaultClientID is used.
	ClientID string
}

// Newsletter is used with Portal.Subscribe in order to subscribe to topics.
type Newsletter[payloadT any] struct {
	unregisterFn func()
	// Receive receives when a new message for the subscribed topic was received.
	// When the Newsletter is unsubscribed, the Receive-channel will be closed.
	Receive <-chan event.Event[payloadT]
}

// Unsubscribe the Newsletter.
func (sub *Newsletter[payload]) Unsubscribe() {
	sub.unregisterFn()
}

// publisher is used for publishing MQTT events.
type publisher interface {
	Publish(ctx context.Context, publish *paho.Publish) (*paho.PublishResponse, error)
}

// Base is a wrapper for all connection related stuff for a Portal. Using the
// Base, you only need to Open the Base and then use portals via NewPortal.
type Base interface {
	// Open the connection. Stays opened until the given context.Context is done.
	Open(ctx context.Context) error
	// NewPortal creates a new Portal that uses the connection from the Base.
	NewPortal(name string) Portal
}

// Portal publishes events and subscribes to topics.
type Portal interface {
	// Subscribe returns a Newsletter for the given Topic.
	Subscribe(ctx context.Context, topic Topic) *Newsletter[any]
	// Publish the given payload to the Topic. It will catch any errors during
	// publishing and log them using the Logger. Publishing while not connected
	// drops the payload.
	Publish(ctx context.Context, topic Topic, payload interface{})
	// Logger is needed in order to provide error logging for Subscribe as generics
	// are not supported for methods in Go 1.18.
	Logger() *zap.Logger
}

type basePortal struct {
	logger *zap.Logger
	config Config
	// brokerURL is the URL of the MQTT broker.
	brokerURL *url.URL
	// mqttRouter is the paho.Router the connection dispatches to.
	mqttRouter *paho.StandardRouter
	// conn holds the current connection.
	conn *connection
	// router is responsible for registering subscription requests as well as
	// multiplexing and forwarding messages.
	router *router
}

// NewBase creates a Base with the given Config. Open it with Base.Open.
// Portals created before opening are usable right away. Their subscriptions
// are sent to the MQTT server once connected.
func NewBase(logger *zap.Logger, config Config) (Base, error) {
	// Parse URL.
	brokerURL, err := url.Parse(config.MQTTAddr)
	if err != nil {
		return nil, errors.Error{
			Code:    errors.ErrFatal,
			Kind:    errors.KindInvalidConfig,
			Err:     err,
			Message: "invalid mqtt addr",
			Details: errors.Details{"was": config.MQTTAddr},
		}
	}
	if config.ClientID == "" {
		config.ClientID = DefaultClientID
	}
	mqttRouter := paho.NewStandardRouter()
	conn := &connection{}
	return &basePortal{
		logger:     logger,
		config:     config,
		brokerURL:  brokerURL,
		mqttRouter: mqttRouter,
		conn:       conn,
		router:     newRouter(logger.Named("router"), conn, mqttRouter),
	}, nil
}

// Open the base portal and keep the connection to the MQTT server until the
// given context.Context is done.
func (p *basePortal) Open(ctx context.Context) error {
	// Establish MQTT connection.
	conn, err := autopaho.NewConnection(ctx, p.genClientConfig(ctx))
	if err != nil {
		return errors.Error{
			Code:    errors.ErrCommunication,
			Err:     err,
			Message: "create mqtt server connection",
		}
	}
	p.conn.set(conn)
	// Wait until we are done.
	<-ctx.Done()
	p.conn.set(nil)
	// Shutdown MQTT connection.
	disconnectCtx, cancelDisconnect := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancelDisconnect()
	err = conn.Disconnect(disconnectCtx)
	if err != nil {
		return errors.Error{
			Code:    errors.ErrCommunication,
			Err:     err,
			Message: "disconnect from mqtt server",
		}
	}
	return nil
}

// genClientConfig generates the autopaho.ClientConfig that is ready to launch.
func (p *basePortal) genClientConfig(lifetime context.Context) autopaho.ClientConfig {
	return autopaho.ClientConfig{
		BrokerUrls: []*url.URL{p.brokerURL},
		KeepAlive:  mqttKeepAlive,
		OnConnectionUp: func(_ *autopaho.ConnectionManager, _ *paho.Connack) {
			p.logger.Info("mqtt server connection established", zap.String("broker", p.brokerURL.String()))
			// Subscriptions do not survive reconnects with clean start.
			go p.router.resubscribeAll(lifetime)
		},
		OnConnectError: func(err error) {
			errors.Log(p.logger, errors.Error{
				Code:    errors.ErrCommunication,
				Err:     err,
				Message: "mqtt server connection failed",
			})
		},
		ClientConfig: paho.ClientConfig{
			ClientID: p.config.ClientID,
			Router:   p.mqttRouter,
			OnServerDisconnect: func(disconnect *paho.Disconnect) {
				reason := fmt.Sprintf("reason code %d", disconnect.ReasonCode)
				if disconnect.Properties != nil && disconnect.Properties.ReasonString != "" {
					reason = disconnect.Properties.ReasonString
				}
				errors.Log(p.logger, errors.Error{
					Code:    errors.ErrCommunication,
					Message: fmt.Sprintf("mqtt server requested disconnect: %s", reason),
				})
			},
			OnClientError: func(err error) {
				errors.Log(p.logger, errors.Error{
					Code:    errors.ErrCommunication,
					Err:     err,
					Message: "mqtt server connection client error",
				})
			},
		},
	}
}

// NewPortal creates a new Portal that can be used to subscribe to topics and
// events.
func (p *basePortal) NewPortal(name string) Portal {
	return &portal{
		logger:    p.logger.Named(name),
		router:    p.router,
		publisher: p.conn,
	}
}

// connection holds the current autopaho.ConnectionManager and implements
// publisher as well as mqttKiosk. Calls without connection fail with
// errNotConnected.
type connection struct {
	cm *autopaho.ConnectionManager
	// cmMutex locks cm.
	cmMutex sync.RWMutex
}

func (c *connection) set(cm *autopaho.ConnectionManager) {
	c.cmMutex.Lock()
	defer c.cmMutex.Unlock()
	c.cm = cm
}

func (c *connection) get() (*autopaho.ConnectionManager, error) {
	c.cmMutex.RLock()
	defer c.cmMutex.RUnlock()
	if c.cm == nil {
		return nil, errNotConnected
	}
	return c.cm, nil
}

func (c *connection) Publish(ctx context.Context, publish *paho.Publish) (*paho.PublishResponse, error) {
	cm, err := c.get()
	if err != nil {
		return nil, err
	}
	return cm.Publish(ctx, publish)
}

func (c *connection) Subscribe(ctx context.Context, s *paho.Subscribe) (*paho.Suback, error) {
	cm, err := c.get()
	if err != nil {
		return nil, err
	}
	return cm.Subscribe(ctx, s)
}

func (c *connection) Unsubscribe(ctx context.Context, u *paho.Unsubscribe) (*paho.Unsuback, error) {
	cm, err := c.get()
	if err != nil {
		return nil, err
	}
	return cm.Unsubscribe(ctx, u)
}

// Subscribe to the given Portal for the Topic. The returned Newsletter contains
// an already unmarshalled payload. Messages that fail to unmarshal, are
// dropped. However, the error is logged to Portal.Logger.
func Subscribe[payloadT any](ctx context.Context, portal Portal, topic Topic) *Newsletter[payloadT] {
	rawSub := portal.Subscribe(ctx, topic)
	receiveParsed := make(chan event.Event[payloadT])
	go func() {
		defer close(receiveParsed)
		for e := range rawSub.Receive {
			// Parse payload.
			var payload payloadT
			err := json.Unmarshal(e.Publish.Payload, &payload)
			if err != nil {
				errors.Log(portal.Logger(), errors.Error{
					Code:    errors.ErrBadRequest,
					Err:     err,
					Message: "parse payload",
					Details: errors.Details{
						"topic":   e.Publish.Topic,
						"payload": string(e.Publish.Payload),
					},
				})
				continue
			}
			// Forward.
			select {
			case <-ctx.Done():
				return
			case receiveParsed <- event.Event[payloadT]{
				Publish: e.Publish,
				Payload: payload,
			}:
			}
		}
	}()
	return &Newsletter[payloadT]{
		unregisterFn: rawSub.unregisterFn,
		Receive:      receiveParsed,
	}
}

// portal provides a higher-level API for Base that makes it easier to conduct
// tests, etc.
type portal struct {
	logger *zap.Logger
	// router is used for subscribing to MQTT topics via Subscribe.
	router *router
	// publisher is used for publishing MQTT messages via Publish.
	publisher publisher
}

// Subscribe for the given Topic using the portal's router.
func (p *portal) Subscribe(ctx context.Context, topic Topic) *Newsletter[any] {
	subLifetime, cancelSub := context.WithCancel(ctx)
	forward := make(chan event.Event[any])
	p.router.subscribe(subLifetime, topic, forward)
	return &Newsletter[any]{
		unregisterFn: cancelSub,
		Receive:      forward,
	}
}

// Publish the given payload to the Topic using the portal's publisher.
func (p *portal) Publish(ctx context.Context, topic Topic, payload interface{}) {
	// Marshal payload.
	payloadRaw, err := json.Marshal(payload)
	if err != nil {
		errors.Log(p.logger, errors.NewInternalErrorFromErr(err, "marshal payload for publishing", errors.Details{
			"topic": topic,
		}))
		return
	}
	// Publish.
	_, err = p.publisher.Publish(ctx, &paho.Publish{
		QoS:     mqttQOS,
		Topic:   string(topic),
		Payload: payloadRaw,
	})
	if err != nil {
		if nativeerrors.Is(err, errNotConnected) {
			p.logger.Debug("dropping publish while not connected", zap.Any("topic", topic))
			return
		}
		errors.Log(p.logger, errors.Error{
			Code:    errors.ErrCommunication,
			Err:     err,
			Message: "publish message",
			Details: errors.Details{"topic": topic},
		})
		return
	}
}

// Logger returns the portal's logger which is needed because of missing
// features regarding generics in Go 1.18.
func (p *portal) Logger() *zap.Logger {
	return p.logger
}
