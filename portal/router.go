package portal

import (
	"context"
	nativeerrors "errors"
	"github.com/eclipse/paho.golang/paho"
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/event"
	"go.uber.org/zap"
	"sync"
	"time"
)

// kioskTimeout is the timeout for subscribe and unsubscribe requests to the
// MQTT server.
const kioskTimeout = 5 * time.Second

// mqttKiosk sends subscription requests to the MQTT server.
type mqttKiosk interface {
	Subscribe(ctx context.Context, s *paho.Subscribe) (*paho.Suback, error)
	Unsubscribe(ctx context.Context, u *paho.Unsubscribe) (*paho.Unsuback, error)
}

// mqttInboundRouter abstracts paho.Router with only stuff that is needed for
// router.
type mqttInboundRouter interface {
	RegisterHandler(topic string, handler paho.MessageHandler)
	UnregisterHandler(topic string)
}

// subscription is a container for the lifetime context.Context and the channel
// to forward the received paho.Publish message to.
type subscription struct {
	lifetime context.Context
	forward  chan<- event.Event[any]
}

// registeredHandler is a container for subscriptions to serve.
type registeredHandler struct {
	// subscriptions contains all active subscriptions that are served by the
	// handler.
	subscriptions map[*subscription]struct{}
	// subscriptionsMutex locks subscriptions.
	subscriptionsMutex sync.RWMutex
}

// Handler returns a paho.MessageHandler that forwards to all subscriptions for
// the handler.
func (handler *registeredHandler) Handler() paho.MessageHandler {
	return func(publish *paho.Publish) {
		// Forward to all listeners.
		var allForwarded sync.WaitGroup
		handler.subscriptionsMutex.RLock()
		for sub := range handler.subscriptions {
			allForwarded.Add(1)
			go func(sub *subscription) {
				defer allForwarded.Done()
				select {
				case <-sub.lifetime.Done():
				case sub.forward <- event.Event[any]{Publish: publish}:
				}
			}(sub)
		}
		handler.subscriptionsMutex.RUnlock()
		allForwarded.Wait()
	}
}

// router is used for multiplexing MQTT subscriptions and forwarding received
// messages according to them. The first subscription for a topic subscribes at
// the MQTT server and the last one leaving unsubscribes.
type router struct {
	logger *zap.Logger
	// kiosk sends subscription requests to the MQTT server.
	kiosk mqttKiosk
	// inbound is the actual router that performs the matching.
	inbound mqttInboundRouter
	// registeredHandlers holds all handlers by subscribed topics.
	registeredHandlers map[Topic]*registeredHandler
	// registeredHandlersMutex locks registeredHandlers.
	registeredHandlersMutex sync.Mutex
}

func newRouter(logger *zap.Logger, kiosk mqttKiosk, inbound mqttInboundRouter) *router {
	return &router{
		logger:             logger,
		kiosk:              kiosk,
		inbound:            inbound,
		registeredHandlers: make(map[Topic]*registeredHandler),
	}
}

// subscribe for the given Topic and forward messages to the given channel until
// the context.Context is done.
func (router *router) subscribe(lifetime context.Context, topic Topic, forward chan<- event.Event[any]) {
	router.registeredHandlersMutex.Lock()
	defer router.registeredHandlersMutex.Unlock()
	// Check if already existing.
	handlerRef, ok := router.registeredHandlers[topic]
	if !ok {
		handlerRef = &registeredHandler{subscriptions: make(map[*subscription]struct{})}
		router.registeredHandlers[topic] = handlerRef
		router.inbound.RegisterHandler(string(topic), handlerRef.Handler())
		router.subscribeAtServer(lifetime, topic)
		router.logger.Debug("subscribed to topic", zap.Any("topic", topic))
	}
	// Add subscription.
	sub := &subscription{
		lifetime: lifetime,
		forward:  forward,
	}
	handlerRef.subscriptionsMutex.Lock()
	handlerRef.subscriptions[sub] = struct{}{}
	handlerRef.subscriptionsMutex.Unlock()
	// Unsubscribe when lifetime done.
	go func() {
		<-lifetime.Done()
		router.unsubscribe(topic, sub)
	}()
}

// subscribeAtServer sends a subscribe request for the Topic. Failures because
// of a missing connection are ignored as all topics are resubscribed when the
// connection comes up.
func (router *router) subscribeAtServer(ctx context.Context, topic Topic) {
	subscribeCtx, cancel := context.WithTimeout(ctx, kioskTimeout)
	defer cancel()
	_, err := router.kiosk.Subscribe(subscribeCtx, &paho.Subscribe{
		Subscriptions: map[string]paho.SubscribeOptions{
			string(topic): {QoS: mqttQOS},
		},
	})
	if err != nil && !nativeerrors.Is(err, errNotConnected) {
		errors.Log(router.logger, errors.Error{
			Code:    errors.ErrCommunication,
			Err:     err,
			Message: "subscribe at mqtt server",
			Details: errors.Details{"topic": topic},
		})
	}
}

// resubscribeAll subscribes all topics with active subscriptions at the MQTT
// server.
func (router *router) resubscribeAll(ctx context.Context) {
	router.registeredHandlersMutex.Lock()
	defer router.registeredHandlersMutex.Unlock()
	for topic := range router.registeredHandlers {
		router.subscribeAtServer(ctx, topic)
	}
}

// unsubscribe the given subscription for the Topic. Only router should call this!
func (router *router) unsubscribe(topic Topic, sub *subscription) {
	router.registeredHandlersMutex.Lock()
	defer router.registeredHandlersMutex.Unlock()
	// Get handler.
	handler, ok := router.registeredHandlers[topic]
	if !ok {
		errors.Log(router.logger, errors.NewInternalError("unsubscribe called for unknown registered handler",
			errors.Details{"topic": topic}))
		return
	}
	// Remove subscription.
	handler.subscriptionsMutex.Lock()
	defer handler.subscriptionsMutex.Unlock()
	if _, ok := handler.subscriptions[sub]; !ok {
		errors.Log(router.logger, errors.NewInternalError("unsubscribe with unknown subscription for handler",
			errors.Details{"topic": topic}))
		return
	}
	delete(handler.subscriptions, sub)
	// Check if subscriptions left as then we do not need to unregister the handler.
	if len(handler.subscriptions) > 0 {
		return
	}
	delete(router.registeredHandlers, topic)
	router.inbound.UnregisterHandler(string(topic))
	unsubscribeCtx, cancel := context.WithTimeout(context.Background(), kioskTimeout)
	defer cancel()
	_, err := router.kiosk.Unsubscribe(unsubscribeCtx, &paho.Unsubscribe{Topics: []string{string(topic)}})
	if err != nil && !nativeerrors.Is(err, errNotConnected) {
		errors.Log(router.logger, errors.Error{
			Code:    errors.ErrCommunication,
			Err:     err,
			Message: "unsubscribe at mqtt server",
			Details: errors.Details{"topic": topic},
		})
	}
}
