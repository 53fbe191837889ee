package player

import (
	"github.com/lefinal/masc-match/messages"
	"github.com/lefinal/masc-match/model"
	"time"
)

// Record holds the per-match statistics of a participant. Each game mode
// provides its own implementation embedding BaseRecord.
type Record interface {
	// Base returns the counters that all modes share.
	Base() *BaseRecord
	// TotalScore computes the score of the participant.
	TotalScore() int
	// Extra returns mode-specific counters for briefings.
	Extra() map[string]int
}

// BaseRecord holds counters that are shared by all modes.
type BaseRecord struct {
	Kills     int
	Assists   int
	Deaths    int
	Suicides  int
	Heals     int
	TeamKills int
}

// Base returns the BaseRecord itself.
func (r *BaseRecord) Base() *BaseRecord {
	return r
}

// TotalScore is the default formula.
func (r *BaseRecord) TotalScore() int {
	score := r.Kills*2 + r.Assists + r.Heals - r.Suicides - r.TeamKills*2
	if score < 0 {
		return 0
	}
	return score
}

// Extra returns no additional counters.
func (r *BaseRecord) Extra() map[string]int {
	return nil
}

// Participant is the room-scoped facet of a Player. It is only mutated from
// the owning room's serialized paths.
type Participant struct {
	*Player
	Slot  model.SlotID
	Team  model.TeamID
	Mode  model.PlayerGameMode
	State model.PlayerState
	// IsReady is toggled by non-master members while waiting.
	IsReady bool
	// IsLoaded is set when the participant finished loading the map.
	IsLoaded bool
	// IsConnecting is set while the participant connects to the room peers.
	IsConnecting bool
	// ConnectingTime is the time spent connecting.
	ConnectingTime time.Duration
	// PlayTime is the time actively played in the current match.
	PlayTime time.Duration
	// Record is the mode-specific record.
	Record Record
	// ExperienceGained is the experience gained in the last match.
	ExperienceGained int
	// DurabilityLoss is the equipment durability lost in the last match.
	DurabilityLoss int
}

// NewParticipant creates a Participant for the given Player and slot.
func NewParticipant(p *Player, slot model.SlotID) *Participant {
	return &Participant{
		Player:       p,
		Slot:         slot,
		Mode:         model.PlayerModeNormal,
		State:        model.PlayerStateLobby,
		IsConnecting: true,
		Record:       &BaseRecord{},
	}
}

// IsPlaying checks whether the participant is a playing member.
func (p *Participant) IsPlaying() bool {
	return p.Mode == model.PlayerModeNormal
}

// IsActive checks whether the participant is currently playing the match.
func (p *Participant) IsActive() bool {
	return p.IsPlaying() && (p.State == model.PlayerStateAlive || p.State == model.PlayerStateDead)
}

// ResetForMatch resets the match-related state and sets the given record.
func (p *Participant) ResetForMatch(record Record) {
	p.State = model.PlayerStateLobby
	p.IsReady = false
	p.IsLoaded = false
	p.PlayTime = 0
	p.Record = record
	p.ExperienceGained = 0
	p.DurabilityLoss = 0
}

// Member returns the messages.RoomMember representation.
func (p *Participant) Member() messages.RoomMember {
	return messages.RoomMember{
		Player:   p.ID(),
		Nickname: p.Nickname(),
		Level:    p.Level(),
		Slot:     p.Slot,
		Team:     p.Team,
		Mode:     p.Mode,
		State:    p.State,
		IsReady:  p.IsReady,
	}
}
