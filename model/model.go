// Package model holds identifiers and enums that are shared between channels,
// rooms, teams and game rules.
package model

import "fmt"

// PlayerID identifies an account-level player.
type PlayerID uint64

// ChannelID identifies a channel.
type ChannelID uint16

// RoomID identifies a room within its channel. Ids are reused after a room has
// been disposed.
type RoomID uint16

// SlotID is the per-room peer slot of a participant.
type SlotID uint8

// SlotNone is used for events that do not reference a slot, e.g. a kill
// without an assist.
const SlotNone SlotID = 0xFF

// MapID identifies a map from the resource catalog.
type MapID string

// TeamID is the identity of a team in a room.
type TeamID uint8

const (
	// TeamNone is used for unassigned players and draws.
	TeamNone TeamID = iota
	// TeamAlpha is the first team in team modes and the only team in
	// cooperative modes.
	TeamAlpha
	// TeamBeta is the second team in team modes.
	TeamBeta
	// TeamNeutral is the single team of free-for-all modes.
	TeamNeutral
)

func (t TeamID) String() string {
	switch t {
	case TeamNone:
		return "none"
	case TeamAlpha:
		return "alpha"
	case TeamBeta:
		return "beta"
	case TeamNeutral:
		return "neutral"
	}
	return fmt.Sprintf("team-%d", uint8(t))
}

// PlayerGameMode is the mode a participant is in within a room.
type PlayerGameMode string

const (
	// PlayerModeNormal is used for playing participants.
	PlayerModeNormal PlayerGameMode = "normal"
	// PlayerModeSpectate is used for spectators.
	PlayerModeSpectate PlayerGameMode = "spectate"
)

// PlayerState is the state of a participant in a room.
type PlayerState string

const (
	// PlayerStateLobby is used while no match is running.
	PlayerStateLobby PlayerState = "lobby"
	// PlayerStateWaiting is used while the match is preparing.
	PlayerStateWaiting PlayerState = "waiting"
	// PlayerStateAlive is used for playing participants that are alive.
	PlayerStateAlive PlayerState = "alive"
	// PlayerStateDead is used for playing participants awaiting respawn.
	PlayerStateDead PlayerState = "dead"
	// PlayerStateSpectating is used for spectators during a match.
	PlayerStateSpectating PlayerState = "spectating"
)

// GameMode is the mode of a room.
type GameMode string

const (
	GameModeDeathmatch  GameMode = "deathmatch"
	GameModeTouchdown   GameMode = "touchdown"
	GameModeBattleRoyal GameMode = "battle-royal"
	GameModeChaser      GameMode = "chaser"
	GameModeCaptain     GameMode = "captain"
	GameModeSiege       GameMode = "siege"
	GameModePractice    GameMode = "practice"
	GameModeArcade      GameMode = "arcade"
)

// GameModes holds all known game modes.
var GameModes = []GameMode{
	GameModeDeathmatch,
	GameModeTouchdown,
	GameModeBattleRoyal,
	GameModeChaser,
	GameModeCaptain,
	GameModeSiege,
	GameModePractice,
	GameModeArcade,
}

// SecurityLevel is the privilege level of a player.
type SecurityLevel uint8

const (
	SecurityLevelUser SecurityLevel = iota
	SecurityLevelModerator
	SecurityLevelAdmin
)

// IsElevated checks whether the level allows bypassing kicks and channel
// level ranges.
func (l SecurityLevel) IsElevated() bool {
	return l >= SecurityLevelModerator
}

// LeaveReason describes why a player left a room.
type LeaveReason string

const (
	LeaveReasonLeft           LeaveReason = "left"
	LeaveReasonDisconnected   LeaveReason = "disconnected"
	LeaveReasonKicked         LeaveReason = "kicked"
	LeaveReasonVoteKicked     LeaveReason = "vote-kicked"
	LeaveReasonLoadingTimeout LeaveReason = "loading-timeout"
	LeaveReasonStuckJoin      LeaveReason = "stuck-join"
)

// KickReason is the reason given for starting a vote-kick.
type KickReason string

const (
	KickReasonHacking    KickReason = "hacking"
	KickReasonBadManners KickReason = "bad-manners"
	KickReasonAFK        KickReason = "afk"
	KickReasonOther      KickReason = "other"
)
