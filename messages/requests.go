package messages

import "github.com/lefinal/masc-match/model"

// Request message types sent by clients.
const (
	// MessageTypeHello identifies the client. Used with MessageHello.
	MessageTypeHello MessageType = "hello"
	// MessageTypeLatency reports the measured network latency. Used with
	// MessageLatency.
	MessageTypeLatency MessageType = "latency"
	// MessageTypeJoinChannel is used with MessageJoinChannel.
	MessageTypeJoinChannel  MessageType = "join-channel"
	MessageTypeLeaveChannel MessageType = "leave-channel"
	// MessageTypeCreateRoom is used with MessageCreateRoom.
	MessageTypeCreateRoom MessageType = "create-room"
	// MessageTypeJoinRoom is used with MessageJoinRoom.
	MessageTypeJoinRoom MessageType = "join-room"
	// MessageTypeQuickJoin is used with MessageQuickJoin.
	MessageTypeQuickJoin MessageType = "quick-join"
	MessageTypeLeaveRoom MessageType = "leave-room"
	// MessageTypeChangeRules is used with MessageChangeRules.
	MessageTypeChangeRules MessageType = "change-rules"
	MessageTypeBeginRound  MessageType = "begin-round"
	MessageTypeReady       MessageType = "ready"
	// MessageTypeChangeTeam is used with MessageChangeTeam.
	MessageTypeChangeTeam MessageType = "change-team"
	// MessageTypeChangeMode is used with MessageChangeMode.
	MessageTypeChangeMode MessageType = "change-mode"
	// MessageTypeConfirmJoin is sent when the client finished connecting to the
	// room peers.
	MessageTypeConfirmJoin MessageType = "confirm-join"
	// MessageTypeLoadingCompleted is sent when the client finished loading the
	// map.
	MessageTypeLoadingCompleted MessageType = "loading-completed"
	// MessageTypeKick is used with MessageTargetPlayer.
	MessageTypeKick MessageType = "kick"
	// MessageTypeTransferMaster is used with MessageTargetPlayer.
	MessageTypeTransferMaster MessageType = "transfer-master"
	// MessageTypeStartVoteKick is used with MessageStartVoteKick.
	MessageTypeStartVoteKick MessageType = "start-vote-kick"
	// MessageTypeVoteKick is used with MessageVoteKick.
	MessageTypeVoteKick MessageType = "vote-kick"
	// MessageTypeScoreKill is used with MessageScoreKill.
	MessageTypeScoreKill MessageType = "score-kill"
	// MessageTypeScoreTeamKill is used with MessageScoreKill.
	MessageTypeScoreTeamKill MessageType = "score-team-kill"
	// MessageTypeScoreSuicide is used with MessageScoreSlot.
	MessageTypeScoreSuicide MessageType = "score-suicide"
	// MessageTypeScoreHeal is used with MessageScoreHeal.
	MessageTypeScoreHeal MessageType = "score-heal"
	// MessageTypeScoreObjective is used with MessageScoreObjective.
	MessageTypeScoreObjective MessageType = "score-objective"
	// MessageTypeRespawn is used with MessageScoreSlot.
	MessageTypeRespawn MessageType = "respawn"
)

// MessageHello is used with MessageTypeHello. Authentication is performed by
// an upstream gateway, so the identity is trusted.
type MessageHello struct {
	PlayerID      model.PlayerID      `json:"player_id" validate:"required"`
	Nickname      string              `json:"nickname" validate:"required,max=32"`
	Level         int                 `json:"level" validate:"gte=0"`
	SecurityLevel model.SecurityLevel `json:"security_level"`
}

// MessageLatency is used with MessageTypeLatency.
type MessageLatency struct {
	LatencyMS int `json:"latency_ms" validate:"gte=0"`
}

// MessageJoinChannel is used with MessageTypeJoinChannel.
type MessageJoinChannel struct {
	Channel model.ChannelID `json:"channel"`
}

// MessageCreateRoom is used with MessageTypeCreateRoom.
type MessageCreateRoom struct {
	Options model.RoomOptions `json:"options"`
}

// MessageJoinRoom is used with MessageTypeJoinRoom.
type MessageJoinRoom struct {
	Room     model.RoomID `json:"room"`
	Password string       `json:"password,omitempty"`
}

// MessageQuickJoin is used with MessageTypeQuickJoin.
type MessageQuickJoin struct {
	// Mode is an optional game mode filter.
	Mode model.GameMode `json:"mode,omitempty"`
}

// MessageChangeRules is used with MessageTypeChangeRules.
type MessageChangeRules struct {
	Options model.RoomOptions `json:"options"`
}

// MessageChangeTeam is used with MessageTypeChangeTeam.
type MessageChangeTeam struct {
	Team model.TeamID `json:"team"`
}

// MessageChangeMode is used with MessageTypeChangeMode.
type MessageChangeMode struct {
	Mode model.PlayerGameMode `json:"mode"`
}

// MessageTargetPlayer is used with messages that target a player.
type MessageTargetPlayer struct {
	Player model.PlayerID `json:"player"`
}

// MessageStartVoteKick is used with MessageTypeStartVoteKick.
type MessageStartVoteKick struct {
	Target model.PlayerID   `json:"target"`
	Reason model.KickReason `json:"reason"`
}

// MessageVoteKick is used with MessageTypeVoteKick.
type MessageVoteKick struct {
	Yes bool `json:"yes"`
}

// MessageScoreKill is used with MessageTypeScoreKill and
// MessageTypeScoreTeamKill.
type MessageScoreKill struct {
	Killer model.SlotID `json:"killer"`
	Victim model.SlotID `json:"victim"`
	// Assist is model.SlotNone if nobody assisted.
	Assist model.SlotID `json:"assist"`
	Weapon int         `json:"weapon"`
}

// MessageScoreSlot is used with events that reference a single slot.
type MessageScoreSlot struct {
	Slot model.SlotID `json:"slot"`
}

// MessageScoreHeal is used with MessageTypeScoreHeal.
type MessageScoreHeal struct {
	Healer model.SlotID `json:"healer"`
	Target model.SlotID `json:"target"`
}

// MessageScoreObjective is used with MessageTypeScoreObjective.
type MessageScoreObjective struct {
	Slot      model.SlotID `json:"slot"`
	Objective string       `json:"objective"`
}
