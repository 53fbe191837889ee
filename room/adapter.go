package room

import (
	"github.com/lefinal/masc-match/messages"
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/player"
	"github.com/lefinal/masc-match/team"
)

// ruleRoom is the games.Room view of a Room. The rule is only called from
// serialized paths, so methods must not lock opMutex.
type ruleRoom struct {
	room *Room
}

func (rr *ruleRoom) ID() model.RoomID {
	return rr.room.id
}

func (rr *ruleRoom) ChannelID() model.ChannelID {
	return rr.room.channelID
}

func (rr *ruleRoom) Options() model.RoomOptions {
	return rr.room.Options()
}

func (rr *ruleRoom) Roster() *team.Roster {
	return rr.room.roster
}

func (rr *ruleRoom) Participants() []*player.Participant {
	return rr.room.participants()
}

func (rr *ruleRoom) Participant(playerID model.PlayerID) (*player.Participant, bool) {
	return rr.room.member(playerID)
}

func (rr *ruleRoom) ParticipantBySlot(slot model.SlotID) (*player.Participant, bool) {
	for _, p := range rr.room.participants() {
		if p.Slot == slot {
			return p, true
		}
	}
	return nil, false
}

func (rr *ruleRoom) Master() model.PlayerID {
	return rr.room.Master()
}

func (rr *ruleRoom) Host() model.PlayerID {
	return rr.room.Host()
}

func (rr *ruleRoom) Broadcast(message messages.Message) {
	rr.room.broadcast(message)
}

func (rr *ruleRoom) Eject(playerID model.PlayerID, reason model.LeaveReason) {
	rr.room.leave(playerID, reason)
}
