package messages

import "github.com/lefinal/masc-match/model"

// Game notification types.
const (
	// MessageTypeGameState is used with MessageGameState.
	MessageTypeGameState MessageType = "game-state"
	// MessageTypePreparePhase is used with MessagePreparePhase.
	MessageTypePreparePhase MessageType = "prepare-phase"
	// MessageTypePlayerLoaded is used with MessagePlayer.
	MessageTypePlayerLoaded MessageType = "player-loaded"
	// MessageTypeCountdown is used with MessageCountdown.
	MessageTypeCountdown MessageType = "countdown"
	// MessageTypeScore is used with MessageScore.
	MessageTypeScore MessageType = "score"
	// MessageTypeRespawnAck is used with MessagePlayer.
	MessageTypeRespawnAck MessageType = "respawn-ack"
	// MessageTypeBriefing is used with MessageBriefing.
	MessageTypeBriefing MessageType = "briefing"
	// MessageTypeModeStatus is used with MessageModeStatus.
	MessageTypeModeStatus MessageType = "mode-status"
	// MessageTypePlayerStats is used with MessagePlayerStats.
	MessageTypePlayerStats MessageType = "player-stats"
)

// TeamScore is the score of a team.
type TeamScore struct {
	Team  model.TeamID `json:"team"`
	Score int          `json:"score"`
}

// MessageGameState is used with MessageTypeGameState.
type MessageGameState struct {
	State   string      `json:"state"`
	Trigger string      `json:"trigger"`
	Teams   []TeamScore `json:"teams"`
}

// MessagePreparePhase is used with MessageTypePreparePhase.
type MessagePreparePhase struct {
	Phase string `json:"phase"`
}

// MessageCountdown is used with MessageTypeCountdown.
type MessageCountdown struct {
	// For is the phase the countdown runs for.
	For         string `json:"for"`
	RemainingMS int64  `json:"remaining_ms"`
}

// ScoreKind is the kind of scoring event.
type ScoreKind string

const (
	ScoreKindKill      ScoreKind = "kill"
	ScoreKindTeamKill  ScoreKind = "team-kill"
	ScoreKindSuicide   ScoreKind = "suicide"
	ScoreKindHeal      ScoreKind = "heal"
	ScoreKindObjective ScoreKind = "objective"
)

// MessageScore is used with MessageTypeScore.
type MessageScore struct {
	Kind ScoreKind `json:"kind"`
	// Actor is the killer, healer or scorer.
	Actor model.PlayerID `json:"actor"`
	// Target is the victim or healed player.
	Target    model.PlayerID `json:"target,omitempty"`
	Assist    model.PlayerID `json:"assist,omitempty"`
	Objective string         `json:"objective,omitempty"`
	// Counted is false for events outside of scoring windows.
	Counted bool        `json:"counted"`
	Teams   []TeamScore `json:"teams"`
}

// MessageBriefing is used with MessageTypeBriefing.
type MessageBriefing struct {
	IsResult bool `json:"is_result"`
	// Data is the binary encoded briefing.
	Data []byte `json:"data"`
}

// MessageModeStatus is used with MessageTypeModeStatus for mode-specific
// status like the current chaser or the team captains.
type MessageModeStatus struct {
	Mode   model.GameMode `json:"mode"`
	Status interface{}    `json:"status"`
}

// MessagePlayerStats is used with MessageTypePlayerStats after a match.
type MessagePlayerStats struct {
	Won            bool `json:"won"`
	Experience     int  `json:"experience"`
	DurabilityLoss int  `json:"durability_loss"`
	Wins           int  `json:"wins"`
	Losses         int  `json:"losses"`
}
