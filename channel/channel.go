// Package channel provides lobby partitions that hold players and a room
// registry, and the Registry of all channels that drives the simulation tick.
package channel

import (
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/messages"
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/player"
	"github.com/lefinal/masc-match/room"
	"go.uber.org/zap"
	"sort"
	"sync"
	"time"
)

// Config is the configuration of a channel.
type Config struct {
	ID   model.ChannelID `json:"id" validate:"required"`
	Name string          `json:"name" validate:"required,max=32"`
	// MinLevel is the minimum player level for joining.
	MinLevel int `json:"min_level" validate:"gte=0"`
	// MaxLevel is the maximum player level for joining.
	MaxLevel int `json:"max_level" validate:"gtefield=MinLevel"`
	// PlayerLimit is the maximum count of players in the channel including the
	// ones in rooms.
	PlayerLimit int `json:"player_limit" validate:"gte=1"`
	// RoomLimit is the maximum count of rooms.
	RoomLimit int `json:"room_limit" validate:"gte=1"`
}

// Channel is a lobby partition. Players that joined the channel but no room are
// lobby players and receive room list updates. Players in a room stay members
// of the channel.
//
// Channel implements room.Lobby. Its mutex is never held while calling into
// rooms.
type Channel struct {
	logger *zap.Logger
	config Config
	rooms  *room.Registry
	// m locks players and lobby.
	m       sync.RWMutex
	players map[model.PlayerID]*player.Player
	// lobby holds the ids of players that are not in a room.
	lobby map[model.PlayerID]struct{}
}

// newChannel creates a new Channel with the given config.
func newChannel(logger *zap.Logger, config Config, deps room.Deps) *Channel {
	c := &Channel{
		logger:  logger.Named("channel").With(zap.Any("channel_id", config.ID)),
		config:  config,
		players: make(map[model.PlayerID]*player.Player),
		lobby:   make(map[model.PlayerID]struct{}),
	}
	c.rooms = room.NewRegistry(c.logger, config.ID, config.RoomLimit, deps, c)
	return c
}

// ID returns the channel id.
func (c *Channel) ID() model.ChannelID {
	return c.config.ID
}

// Rooms returns the room registry.
func (c *Channel) Rooms() *room.Registry {
	return c.rooms
}

// Info returns the public channel info.
func (c *Channel) Info() messages.ChannelInfo {
	return messages.ChannelInfo{
		ID:          c.config.ID,
		Name:        c.config.Name,
		MinLevel:    c.config.MinLevel,
		MaxLevel:    c.config.MaxLevel,
		PlayerLimit: c.config.PlayerLimit,
		PlayerCount: c.PlayerCount(),
		RoomCount:   c.rooms.Count(),
	}
}

// PlayerCount returns the count of players in the channel.
func (c *Channel) PlayerCount() int {
	c.m.RLock()
	defer c.m.RUnlock()
	return len(c.players)
}

// Players returns all players of the channel ordered by id.
func (c *Channel) Players() []*player.Player {
	c.m.RLock()
	players := make([]*player.Player, 0, len(c.players))
	for _, p := range c.players {
		players = append(players, p)
	}
	c.m.RUnlock()
	sort.Slice(players, func(i, j int) bool {
		return players[i].ID() < players[j].ID()
	})
	return players
}

// lobbyPlayers returns all players that are not in a room ordered by id.
func (c *Channel) lobbyPlayers() []*player.Player {
	c.m.RLock()
	players := make([]*player.Player, 0, len(c.lobby))
	for id := range c.lobby {
		if p, ok := c.players[id]; ok {
			players = append(players, p)
		}
	}
	c.m.RUnlock()
	sort.Slice(players, func(i, j int) bool {
		return players[i].ID() < players[j].ID()
	})
	return players
}

// HasPlayer checks whether the player is in the channel.
func (c *Channel) HasPlayer(playerID model.PlayerID) bool {
	c.m.RLock()
	defer c.m.RUnlock()
	_, ok := c.players[playerID]
	return ok
}

// Broadcast the message to all players of the channel.
func (c *Channel) Broadcast(message messages.Message) {
	for _, p := range c.Players() {
		p.Send(message)
	}
}

// broadcastLobby broadcasts the message to all lobby players.
func (c *Channel) broadcastLobby(message messages.Message, except model.PlayerID) {
	for _, p := range c.lobbyPlayers() {
		if p.ID() != except {
			p.Send(message)
		}
	}
}

func lobbyPlayer(p *player.Player) messages.LobbyPlayer {
	return messages.LobbyPlayer{
		ID:       p.ID(),
		Nickname: p.Nickname(),
		Level:    p.Level(),
	}
}

// Join the player into the channel. The level range is not enforced for
// elevated players.
func (c *Channel) Join(p *player.Player) error {
	if !p.SecurityLevel().IsElevated() && (p.Level() < c.config.MinLevel || p.Level() > c.config.MaxLevel) {
		return errors.NewAccessDeniedError(errors.KindLevelOutOfRange, "level out of range",
			errors.Details{"level": p.Level(), "min_level": c.config.MinLevel, "max_level": c.config.MaxLevel})
	}
	c.m.Lock()
	if len(c.players) >= c.config.PlayerLimit {
		c.m.Unlock()
		return errors.NewCapacityError(errors.KindChannelFull, "channel full",
			errors.Details{"player_limit": c.config.PlayerLimit})
	}
	if !p.EnterChannel(c.config.ID) {
		c.m.Unlock()
		return errors.NewInvalidStateError(errors.KindAlreadyInChannel, "already in a channel",
			errors.Details{"player_id": p.ID()})
	}
	c.players[p.ID()] = p
	c.lobby[p.ID()] = struct{}{}
	c.m.Unlock()
	c.logger.Debug("player joined", zap.Any("player_id", p.ID()))
	c.sendSnapshot(p)
	c.broadcastLobby(messages.Message{
		MessageType: messages.MessageTypeLobbyPlayerJoined,
		Content:     lobbyPlayer(p),
	}, p.ID())
	return nil
}

// sendSnapshot sends the channel info with all rooms and lobby players.
func (c *Channel) sendSnapshot(p *player.Player) {
	lobbyPlayers := c.lobbyPlayers()
	players := make([]messages.LobbyPlayer, 0, len(lobbyPlayers))
	for _, lp := range lobbyPlayers {
		players = append(players, lobbyPlayer(lp))
	}
	p.Send(messages.Message{
		MessageType: messages.MessageTypeChannelJoined,
		Content: messages.MessageChannelJoined{
			Channel: c.Info(),
			Rooms:   c.rooms.List(),
			Players: players,
		},
	})
}

// Leave removes the player from the channel. If the player is in a room, the
// room is left first. It is a no-op if the player is not in the channel.
func (c *Channel) Leave(p *player.Player, reason model.LeaveReason) {
	if !c.HasPlayer(p.ID()) {
		return
	}
	c.leaveRoom(p, reason)
	c.m.Lock()
	if _, ok := c.players[p.ID()]; !ok {
		c.m.Unlock()
		return
	}
	delete(c.players, p.ID())
	delete(c.lobby, p.ID())
	p.ExitChannel(c.config.ID)
	c.m.Unlock()
	c.logger.Debug("player left", zap.Any("player_id", p.ID()), zap.Any("reason", reason))
	p.Send(messages.Message{MessageType: messages.MessageTypeChannelLeft})
	c.broadcastLobby(messages.Message{
		MessageType: messages.MessageTypeLobbyPlayerLeft,
		Content:     messages.MessagePlayer{Player: p.ID()},
	}, p.ID())
}

// requirePlayer returns an error if the player is not in the channel.
func (c *Channel) requirePlayer(p *player.Player) error {
	if !c.HasPlayer(p.ID()) {
		return errors.NewInvalidStateError(errors.KindNotInChannel, "not in channel",
			errors.Details{"player_id": p.ID(), "channel_id": c.config.ID})
	}
	return nil
}

// enteredRoom removes the player from the lobby if it is still in the given
// room.
func (c *Channel) enteredRoom(p *player.Player, roomID model.RoomID) {
	if current, ok := p.Room(); !ok || current != roomID {
		return
	}
	c.m.Lock()
	_, inLobby := c.lobby[p.ID()]
	delete(c.lobby, p.ID())
	c.m.Unlock()
	if !inLobby {
		return
	}
	c.broadcastLobby(messages.Message{
		MessageType: messages.MessageTypeLobbyPlayerLeft,
		Content:     messages.MessagePlayer{Player: p.ID()},
	}, p.ID())
}

// CreateRoom creates a room with the player as master.
func (c *Channel) CreateRoom(p *player.Player, options model.RoomOptions) (*room.Room, error) {
	if err := c.requirePlayer(p); err != nil {
		return nil, err
	}
	r, err := c.rooms.Create(p, options)
	if err != nil {
		return nil, errors.Wrap(err, "create room", nil)
	}
	c.enteredRoom(p, r.ID())
	return r, nil
}

// JoinRoom joins the player into the room with the given id.
func (c *Channel) JoinRoom(p *player.Player, roomID model.RoomID, password string) (*room.Room, error) {
	if err := c.requirePlayer(p); err != nil {
		return nil, err
	}
	r, err := c.rooms.Get(roomID)
	if err != nil {
		return nil, errors.Wrap(err, "get room", nil)
	}
	err = r.Join(p, password)
	if err != nil {
		return nil, errors.Wrap(err, "join room", nil)
	}
	c.enteredRoom(p, r.ID())
	return r, nil
}

// QuickJoin joins the player into any room that accepts players. The mode is an
// optional filter.
func (c *Channel) QuickJoin(p *player.Player, mode model.GameMode) (*room.Room, error) {
	if err := c.requirePlayer(p); err != nil {
		return nil, err
	}
	r, err := c.rooms.QuickJoin(p, mode)
	if err != nil {
		return nil, errors.Wrap(err, "quick-join", nil)
	}
	c.enteredRoom(p, r.ID())
	return r, nil
}

// Room returns the room the player is currently in.
func (c *Channel) Room(p *player.Player) (*room.Room, error) {
	roomID, ok := p.Room()
	if !ok {
		return nil, errors.NewInvalidStateError(errors.KindNotInRoom, "not in room",
			errors.Details{"player_id": p.ID()})
	}
	r, err := c.rooms.Get(roomID)
	if err != nil {
		return nil, errors.Wrap(err, "get room", nil)
	}
	return r, nil
}

// LeaveRoom removes the player from the current room and returns it to the
// lobby.
func (c *Channel) LeaveRoom(p *player.Player) error {
	if err := c.requirePlayer(p); err != nil {
		return err
	}
	if _, ok := p.Room(); !ok {
		return errors.NewInvalidStateError(errors.KindNotInRoom, "not in room",
			errors.Details{"player_id": p.ID()})
	}
	c.leaveRoom(p, model.LeaveReasonLeft)
	return nil
}

func (c *Channel) leaveRoom(p *player.Player, reason model.LeaveReason) {
	r, err := c.Room(p)
	if err != nil {
		return
	}
	r.Leave(p.ID(), reason)
}

// Update all rooms of the channel sequentially.
func (c *Channel) Update(elapsed time.Duration) {
	c.rooms.Update(elapsed)
}

// RoomUpdated lists the room in the lobby.
func (c *Channel) RoomUpdated(info messages.RoomInfo) {
	c.broadcastLobby(messages.Message{
		MessageType: messages.MessageTypeRoomListed,
		Content:     info,
	}, 0)
}

// RoomRemoved removes the room from the lobby.
func (c *Channel) RoomRemoved(roomID model.RoomID) {
	c.broadcastLobby(messages.Message{
		MessageType: messages.MessageTypeRoomRemoved,
		Content:     messages.MessageRoomRemoved{Room: roomID},
	}, 0)
}

// ReturnedFromRoom adds the player back to the lobby if it is still in the
// channel and sends the current lobby snapshot.
func (c *Channel) ReturnedFromRoom(p *player.Player) {
	c.m.Lock()
	if _, ok := c.players[p.ID()]; !ok {
		c.m.Unlock()
		return
	}
	c.lobby[p.ID()] = struct{}{}
	c.m.Unlock()
	c.sendSnapshot(p)
	c.broadcastLobby(messages.Message{
		MessageType: messages.MessageTypeLobbyPlayerJoined,
		Content:     lobbyPlayer(p),
	}, p.ID())
}
