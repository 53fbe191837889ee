package event

import (
	"github.com/google/uuid"
	"github.com/lefinal/masc-match/model"
	"time"
)

// MatchResult is published and persisted when a match reached its result.
type MatchResult struct {
	// MatchID is generated when the match starts.
	MatchID uuid.UUID       `json:"match_id"`
	Channel model.ChannelID `json:"channel"`
	Room    model.RoomID    `json:"room"`
	Mode    model.GameMode  `json:"mode"`
	Map     model.MapID     `json:"map"`
	// Start is the timestamp when the match left the preparing phase.
	Start time.Time `json:"start"`
	// End is the timestamp when the result was computed.
	End time.Time `json:"end"`
	// WinnerTeam is model.TeamNone for draws and matches without winner.
	WinnerTeam model.TeamID `json:"winner_team"`
	// NoStats is set if the room was created with the no-stats flag. Stats of
	// such matches are not persisted.
	NoStats bool                `json:"no_stats"`
	Teams   []MatchTeamResult   `json:"teams"`
	Players []MatchPlayerResult `json:"players"`
}

// MatchTeamResult is the result of one team in a MatchResult.
type MatchTeamResult struct {
	Team  model.TeamID `json:"team"`
	Score int          `json:"score"`
}

// MatchPlayerResult is the result of one player in a MatchResult.
type MatchPlayerResult struct {
	Player   model.PlayerID `json:"player"`
	Nickname string         `json:"nickname"`
	Team     model.TeamID   `json:"team"`
	Score    int            `json:"score"`
	Kills    int            `json:"kills"`
	Deaths   int            `json:"deaths"`
	Assists  int            `json:"assists"`
	// Placement is set in free-for-all modes.
	Placement int  `json:"placement"`
	Won       bool `json:"won"`
	// Decided is false for matches without winner.
	Decided        bool          `json:"decided"`
	Experience     int           `json:"experience"`
	DurabilityLoss int           `json:"durability_loss"`
	PlayTime       time.Duration `json:"play_time"`
}
