package messages

import "github.com/lefinal/masc-match/model"

// Room notification types.
const (
	// MessageTypeRoomJoined is sent to a player that joined a room. Used with
	// MessageRoomJoined.
	MessageTypeRoomJoined MessageType = "room-joined"
	// MessageTypeRoomLeft is sent to a player that left a room. Used with
	// MessageRoomLeft.
	MessageTypeRoomLeft MessageType = "room-left"
	// MessageTypeMemberJoined is used with RoomMember.
	MessageTypeMemberJoined MessageType = "member-joined"
	// MessageTypeMemberLeft is used with MessageMemberLeft.
	MessageTypeMemberLeft MessageType = "member-left"
	// MessageTypeMasterChanged is used with MessagePlayer.
	MessageTypeMasterChanged MessageType = "master-changed"
	// MessageTypeHostChanged is used with MessagePlayer.
	MessageTypeHostChanged MessageType = "host-changed"
	// MessageTypeReadyChanged is used with MessageReadyChanged.
	MessageTypeReadyChanged MessageType = "ready-changed"
	// MessageTypeTeamChanged is used with MessageTeamChanged.
	MessageTypeTeamChanged MessageType = "team-changed"
	// MessageTypeRulesChanging is used with MessageRulesChanging.
	MessageTypeRulesChanging MessageType = "rules-changing"
	// MessageTypeRulesChanged is used with RoomInfo.
	MessageTypeRulesChanged MessageType = "rules-changed"
	// MessageTypeVoteKickStarted is used with MessageVoteKickStarted.
	MessageTypeVoteKickStarted MessageType = "vote-kick-started"
	// MessageTypeVoteKickTally is used with MessageVoteKickTally.
	MessageTypeVoteKickTally MessageType = "vote-kick-tally"
	// MessageTypeVoteKickEnded is used with MessageVoteKickEnded.
	MessageTypeVoteKickEnded MessageType = "vote-kick-ended"
)

// RoomMember describes a member of a room.
type RoomMember struct {
	Player   model.PlayerID       `json:"player"`
	Nickname string               `json:"nickname"`
	Level    int                  `json:"level"`
	Slot     model.SlotID         `json:"slot"`
	Team     model.TeamID         `json:"team"`
	Mode     model.PlayerGameMode `json:"mode"`
	State    model.PlayerState    `json:"state"`
	IsReady  bool                 `json:"is_ready"`
}

// MessageRoomJoined is used with MessageTypeRoomJoined.
type MessageRoomJoined struct {
	Room    RoomInfo       `json:"room"`
	Slot    model.SlotID   `json:"slot"`
	Members []RoomMember   `json:"members"`
	Host    model.PlayerID `json:"host"`
	Teams   []TeamScore    `json:"teams"`
}

// MessageRoomLeft is used with MessageTypeRoomLeft.
type MessageRoomLeft struct {
	Room   model.RoomID      `json:"room"`
	Reason model.LeaveReason `json:"reason"`
}

// MessageMemberLeft is used with MessageTypeMemberLeft.
type MessageMemberLeft struct {
	Player model.PlayerID    `json:"player"`
	Reason model.LeaveReason `json:"reason"`
}

// MessageReadyChanged is used with MessageTypeReadyChanged.
type MessageReadyChanged struct {
	Player  model.PlayerID `json:"player"`
	IsReady bool           `json:"is_ready"`
}

// MessageTeamChanged is used with MessageTypeTeamChanged.
type MessageTeamChanged struct {
	Player model.PlayerID       `json:"player"`
	Team   model.TeamID         `json:"team"`
	Mode   model.PlayerGameMode `json:"mode"`
}

// MessageRulesChanging is used with MessageTypeRulesChanging.
type MessageRulesChanging struct {
	Options model.RoomOptions `json:"options"`
	GraceMS int64             `json:"grace_ms"`
}

// MessageVoteKickStarted is used with MessageTypeVoteKickStarted.
type MessageVoteKickStarted struct {
	Sender   model.PlayerID   `json:"sender"`
	Target   model.PlayerID   `json:"target"`
	Reason   model.KickReason `json:"reason"`
	WindowMS int64            `json:"window_ms"`
}

// MessageVoteKickTally is used with MessageTypeVoteKickTally.
type MessageVoteKickTally struct {
	Target model.PlayerID `json:"target"`
	Votes  int            `json:"votes"`
	Yes    int            `json:"yes"`
}

// MessageVoteKickEnded is used with MessageTypeVoteKickEnded.
type MessageVoteKickEnded struct {
	Target    model.PlayerID `json:"target"`
	Kicked    bool           `json:"kicked"`
	Cancelled bool           `json:"cancelled"`
	Yes       int            `json:"yes"`
	Majority  int            `json:"majority"`
}
