package messages

import "github.com/lefinal/masc-match/model"

// Lobby notification types.
const (
	// MessageTypeChannelJoined is sent to a player that joined a channel. Used
	// with MessageChannelJoined.
	MessageTypeChannelJoined MessageType = "channel-joined"
	// MessageTypeChannelLeft is sent to a player that left a channel.
	MessageTypeChannelLeft MessageType = "channel-left"
	// MessageTypeLobbyPlayerJoined is used with LobbyPlayer.
	MessageTypeLobbyPlayerJoined MessageType = "lobby-player-joined"
	// MessageTypeLobbyPlayerLeft is used with MessagePlayer.
	MessageTypeLobbyPlayerLeft MessageType = "lobby-player-left"
	// MessageTypeRoomListed is sent to the lobby when a room was created or
	// changed. Used with RoomInfo.
	MessageTypeRoomListed MessageType = "room-listed"
	// MessageTypeRoomRemoved is used with MessageRoomRemoved.
	MessageTypeRoomRemoved MessageType = "room-removed"
)

// MessageWelcome is used with MessageTypeWelcome.
type MessageWelcome struct {
	PlayerID model.PlayerID `json:"player_id"`
	Channels []ChannelInfo  `json:"channels"`
}

// ChannelInfo describes a channel.
type ChannelInfo struct {
	ID          model.ChannelID `json:"id"`
	Name        string          `json:"name"`
	MinLevel    int             `json:"min_level"`
	MaxLevel    int             `json:"max_level"`
	PlayerLimit int             `json:"player_limit"`
	PlayerCount int             `json:"player_count"`
	RoomCount   int             `json:"room_count"`
}

// LobbyPlayer is a player in a channel lobby.
type LobbyPlayer struct {
	ID       model.PlayerID `json:"id"`
	Nickname string         `json:"nickname"`
	Level    int            `json:"level"`
}

// MessagePlayer references a player.
type MessagePlayer struct {
	Player model.PlayerID `json:"player"`
}

// RoomInfo describes a room for room lists.
type RoomInfo struct {
	ID          model.RoomID   `json:"id"`
	Name        string         `json:"name"`
	Mode        model.GameMode `json:"mode"`
	Map         model.MapID    `json:"map"`
	ScoreLimit  int            `json:"score_limit"`
	TimeLimitMS int64          `json:"time_limit_ms"`
	PlayerLimit int            `json:"player_limit"`
	// SpectatorLimit is the maximum count of spectators.
	SpectatorLimit int  `json:"spectator_limit"`
	PlayerCount    int  `json:"player_count"`
	SpectatorCount int  `json:"spectator_count"`
	HasPassword    bool `json:"has_password"`
	IsFriendly     bool `json:"is_friendly"`
	IsBurning      bool `json:"is_burning"`
	NoIntrusion    bool `json:"no_intrusion"`
	// State is the current game state.
	State    string         `json:"state"`
	IsActive bool           `json:"is_active"`
	Master   model.PlayerID `json:"master"`
}

// MessageChannelJoined is used with MessageTypeChannelJoined.
type MessageChannelJoined struct {
	Channel ChannelInfo   `json:"channel"`
	Rooms   []RoomInfo    `json:"rooms"`
	Players []LobbyPlayer `json:"players"`
}

// MessageRoomRemoved is used with MessageTypeRoomRemoved.
type MessageRoomRemoved struct {
	Room model.RoomID `json:"room"`
}
