// Package player holds the account-level Player and its room-scoped facet
// Participant.
package player

import (
	"github.com/lefinal/masc-match/messages"
	"github.com/lefinal/masc-match/model"
	"go.uber.org/atomic"
	"sync"
	"time"
)

// Session is the network session of a player.
type Session interface {
	// Send the given message. This is fire-and-forget.
	Send(message messages.Message)
	// Close the session.
	Close()
}

// Identity holds the identity of a player as provided by the network session.
type Identity struct {
	ID            model.PlayerID
	Nickname      string
	Level         int
	SecurityLevel model.SecurityLevel
}

// Player is the account-level player. Membership in channels and rooms is
// tracked via back-references that are checked before every join.
type Player struct {
	identity Identity
	session  Session
	// latency is the last network latency sample.
	latency   *atomic.Duration
	connected *atomic.Bool
	wins      *atomic.Int32
	losses    *atomic.Int32
	matches   *atomic.Int32
	// experience is the total experience.
	experience *atomic.Int64
	// locationMutex locks channel, hasChannel, room and hasRoom.
	locationMutex sync.Mutex
	channel       model.ChannelID
	hasChannel    bool
	room          model.RoomID
	hasRoom       bool
}

// New creates a new connected Player with the given identity that uses the
// given Session.
func New(identity Identity, session Session) *Player {
	return &Player{
		identity:   identity,
		session:    session,
		latency:    atomic.NewDuration(0),
		connected:  atomic.NewBool(true),
		wins:       atomic.NewInt32(0),
		losses:     atomic.NewInt32(0),
		matches:    atomic.NewInt32(0),
		experience: atomic.NewInt64(0),
	}
}

// ID returns the player id.
func (p *Player) ID() model.PlayerID {
	return p.identity.ID
}

// Nickname returns the nickname of the player.
func (p *Player) Nickname() string {
	return p.identity.Nickname
}

// Level returns the level of the player.
func (p *Player) Level() int {
	return p.identity.Level
}

// SecurityLevel returns the security level of the player.
func (p *Player) SecurityLevel() model.SecurityLevel {
	return p.identity.SecurityLevel
}

// Identity returns the full Identity of the player.
func (p *Player) Identity() Identity {
	return p.identity
}

// Send the message via the player's Session. Messages to disconnected players
// are dropped.
func (p *Player) Send(message messages.Message) {
	if p.session == nil || !p.connected.Load() {
		return
	}
	p.session.Send(message)
}

// Latency returns the last latency sample.
func (p *Player) Latency() time.Duration {
	return p.latency.Load()
}

// SetLatency sets the latency sample.
func (p *Player) SetLatency(latency time.Duration) {
	p.latency.Store(latency)
}

// IsConnected describes whether the session of the player is still alive.
func (p *Player) IsConnected() bool {
	return p.connected.Load()
}

// Disconnect marks the player as disconnected.
func (p *Player) Disconnect() {
	p.connected.Store(false)
}

// Stats holds the win and loss counters of a player.
type Stats struct {
	Wins       int
	Losses     int
	Matches    int
	Experience int64
}

// Stats returns the current counters.
func (p *Player) Stats() Stats {
	return Stats{
		Wins:       int(p.wins.Load()),
		Losses:     int(p.losses.Load()),
		Matches:    int(p.matches.Load()),
		Experience: p.experience.Load(),
	}
}

// SetStats sets the counters, for example after loading them from
// persistence.
func (p *Player) SetStats(stats Stats) {
	p.wins.Store(int32(stats.Wins))
	p.losses.Store(int32(stats.Losses))
	p.matches.Store(int32(stats.Matches))
	p.experience.Store(stats.Experience)
}

// RecordMatch increases the match counter and the win or loss counter if the
// match had a decided outcome.
func (p *Player) RecordMatch(won bool, decided bool) {
	p.matches.Inc()
	if !decided {
		return
	}
	if won {
		p.wins.Inc()
	} else {
		p.losses.Inc()
	}
}

// AddExperience adds the given experience.
func (p *Player) AddExperience(experience int) {
	p.experience.Add(int64(experience))
}

// EnterChannel sets the channel back-reference. It returns false if the player
// is already in a channel.
func (p *Player) EnterChannel(channelID model.ChannelID) bool {
	p.locationMutex.Lock()
	defer p.locationMutex.Unlock()
	if p.hasChannel {
		return false
	}
	p.channel = channelID
	p.hasChannel = true
	return true
}

// ExitChannel clears the channel back-reference if it matches the given
// channel.
func (p *Player) ExitChannel(channelID model.ChannelID) bool {
	p.locationMutex.Lock()
	defer p.locationMutex.Unlock()
	if !p.hasChannel || p.channel != channelID {
		return false
	}
	p.hasChannel = false
	return true
}

// Channel returns the current channel.
func (p *Player) Channel() (model.ChannelID, bool) {
	p.locationMutex.Lock()
	defer p.locationMutex.Unlock()
	return p.channel, p.hasChannel
}

// EnterRoom sets the room back-reference. It returns false if the player is
// already in a room.
func (p *Player) EnterRoom(roomID model.RoomID) bool {
	p.locationMutex.Lock()
	defer p.locationMutex.Unlock()
	if p.hasRoom {
		return false
	}
	p.room = roomID
	p.hasRoom = true
	return true
}

// ExitRoom clears the room back-reference if it matches the given room.
func (p *Player) ExitRoom(roomID model.RoomID) bool {
	p.locationMutex.Lock()
	defer p.locationMutex.Unlock()
	if !p.hasRoom || p.room != roomID {
		return false
	}
	p.hasRoom = false
	return true
}

// Room returns the current room.
func (p *Player) Room() (model.RoomID, bool) {
	p.locationMutex.Lock()
	defer p.locationMutex.Unlock()
	return p.room, p.hasRoom
}
