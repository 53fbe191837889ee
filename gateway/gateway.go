// Package gateway serves player sessions. It decodes requests, drives channel
// and room operations and answers with result codes.
package gateway

import (
	"context"
	"github.com/go-playground/validator/v10"
	"github.com/lefinal/masc-match/channel"
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/messages"
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/player"
	"github.com/lefinal/masc-match/ws"
	"go.uber.org/zap"
	"sync"
)

// StatsStore provides the persisted stats of players.
type StatsStore interface {
	PlayerStats(ctx context.Context, playerID model.PlayerID) (player.Stats, error)
}

// Gateway serves sessions and keeps track of identified players. It implements
// ws.ClientListener.
type Gateway struct {
	logger    *zap.Logger
	channels  *channel.Registry
	stats     StatsStore
	validator *validator.Validate
	// playersMutex locks players.
	playersMutex sync.Mutex
	// players holds all identified players.
	players map[model.PlayerID]*player.Player
}

// New creates a new Gateway.
func New(logger *zap.Logger, channels *channel.Registry, stats StatsStore) *Gateway {
	return &Gateway{
		logger:    logger,
		channels:  channels,
		stats:     stats,
		validator: validator.New(),
		players:   make(map[model.PlayerID]*player.Player),
	}
}

// AcceptClient serves the given ws.Client until its connection is closed.
func (g *Gateway) AcceptClient(ctx context.Context, client *ws.Client) {
	g.Serve(ctx, client, client.Receive())
}

// SayGoodbyeToClient is a no-op as cleanup is performed when Serve returns.
func (g *Gateway) SayGoodbyeToClient(_ *ws.Client) {}

// PlayerCount returns the count of identified players.
func (g *Gateway) PlayerCount() int {
	g.playersMutex.Lock()
	defer g.playersMutex.Unlock()
	return len(g.players)
}

// Serve handles all raw requests from receive until it is closed or the given
// context.Context is done. The identified player is disconnected afterwards.
func (g *Gateway) Serve(ctx context.Context, session player.Session, receive <-chan []byte) {
	s := &sessionHandler{
		gateway: g,
		logger:  g.logger,
		session: session,
	}
	defer s.goodbye()
	for {
		select {
		case <-ctx.Done():
			return
		case raw, more := <-receive:
			if !more {
				return
			}
			s.handle(ctx, raw)
		}
	}
}

// register the player as online. Only one session per player is allowed.
func (g *Gateway) register(p *player.Player) error {
	g.playersMutex.Lock()
	defer g.playersMutex.Unlock()
	if _, ok := g.players[p.ID()]; ok {
		return errors.NewAccessDeniedError(errors.KindAlreadyOnline, "player already online",
			errors.Details{"player_id": p.ID()})
	}
	g.players[p.ID()] = p
	return nil
}

func (g *Gateway) unregister(p *player.Player) {
	g.playersMutex.Lock()
	defer g.playersMutex.Unlock()
	if g.players[p.ID()] == p {
		delete(g.players, p.ID())
	}
}

// sessionHandler handles the requests of a single session.
type sessionHandler struct {
	gateway *Gateway
	logger  *zap.Logger
	session player.Session
	// player is set after a successful hello.
	player *player.Player
}

// silentRequests are only answered if they failed.
var silentRequests = map[messages.MessageType]struct{}{
	messages.MessageTypeLatency:        {},
	messages.MessageTypeScoreKill:      {},
	messages.MessageTypeScoreTeamKill:  {},
	messages.MessageTypeScoreSuicide:   {},
	messages.MessageTypeScoreHeal:      {},
	messages.MessageTypeScoreObjective: {},
	messages.MessageTypeRespawn:        {},
}

// handle the given raw request and answer with the result.
func (s *sessionHandler) handle(ctx context.Context, raw []byte) {
	container, err := messages.ParseContainer(raw)
	if err != nil {
		s.session.Send(messages.Message{
			MessageType: messages.MessageTypeError,
			Content:     messages.MessageErrorFromError(err),
		})
		return
	}
	err = s.dispatch(ctx, container)
	if err != nil {
		if errors.BlameUser(err) {
			s.logger.Debug("request rejected", zap.Any("message_type", container.MessageType), zap.Error(err))
		} else {
			errors.Log(s.logger.With(zap.Any("message_type", container.MessageType)), err)
		}
	}
	if _, silent := silentRequests[container.MessageType]; silent && err == nil {
		return
	}
	s.session.Send(messages.NewResult(container.MessageType, err))
}

// goodbye disconnects the identified player.
func (s *sessionHandler) goodbye() {
	if s.player == nil {
		return
	}
	s.player.Disconnect()
	if channelID, ok := s.player.Channel(); ok {
		c, err := s.gateway.channels.Get(channelID)
		if err == nil {
			c.Leave(s.player, model.LeaveReasonDisconnected)
		}
	}
	s.gateway.unregister(s.player)
	s.logger.Debug("player disconnected")
}
