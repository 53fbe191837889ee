// Package games provides the game rules for all game modes. Each rule wires
// the generic state machine from package fsm with the shared phase logic from
// Base and plugs in a mode-specific Mode for scoring and win conditions.
//
// A rule is not safe for concurrent use. The owning room serializes all calls.
package games

import (
	"context"
	"github.com/lefinal/masc-match/event"
	"github.com/lefinal/masc-match/messages"
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/player"
	"github.com/lefinal/masc-match/portal"
	"github.com/lefinal/masc-match/team"
	"go.uber.org/zap"
	"math/rand"
	"time"
)

// State is a state of the game rule state machine.
type State string

const (
	// StateWaiting is the initial state where members join and get ready.
	StateWaiting State = "waiting"
	// StatePreparing is used while members load the map and the countdown runs.
	StatePreparing State = "preparing"
	// StatePlaying is the abstract parent of all states of a running match.
	StatePlaying State = "playing"
	// StateFullGame is the round state of modes without halves.
	StateFullGame State = "full-game"
	// StateFirstHalf is the first round state of modes with halves.
	StateFirstHalf State = "first-half"
	// StateEnteringHalfTime is the grace window before half time.
	StateEnteringHalfTime State = "entering-half-time"
	// StateHalfTime is the break between both halves.
	StateHalfTime State = "half-time"
	// StateSecondHalf is the second round state of modes with halves.
	StateSecondHalf State = "second-half"
	// StateEnteringResult is the grace window before the result.
	StateEnteringResult State = "entering-result"
	// StateResult displays the result.
	StateResult State = "result"
)

// Trigger is a trigger for the game rule state machine.
type Trigger string

const (
	TriggerStartPrepare    Trigger = "start-prepare"
	TriggerStartGame       Trigger = "start-game"
	TriggerStartHalfTime   Trigger = "start-half-time"
	TriggerStartSecondHalf Trigger = "start-second-half"
	TriggerStartResult     Trigger = "start-result"
	TriggerEndGame         Trigger = "end-game"
)

// PreparePhase is the sub-phase of StatePreparing.
type PreparePhase string

const (
	PreparePhaseLoading      PreparePhase = "loading"
	PreparePhaseCountdown    PreparePhase = "countdown"
	PreparePhaseReadyToStart PreparePhase = "ready-to-start"
)

// Timing holds the durations of all timed phases.
type Timing struct {
	// Loading is the maximum time members may take for loading the map.
	Loading time.Duration
	// Countdown is the countdown before the match starts.
	Countdown time.Duration
	// EnteringHalfTime is the grace window before half time.
	EnteringHalfTime time.Duration
	// HalfTime is the duration of the half time break.
	HalfTime time.Duration
	// EnteringResult is the grace window before the result.
	EnteringResult time.Duration
	// ResultDisplay is the time the result is displayed before the room
	// returns to waiting.
	ResultDisplay time.Duration
	// VoteKickWindow is the duration of a vote-kick.
	VoteKickWindow time.Duration
	// RuleChangeGrace is the time between announcing and applying a rule
	// change.
	RuleChangeGrace time.Duration
	// StuckJoin is the time after which members that are still connecting
	// are removed from the room.
	StuckJoin time.Duration
	// TouchdownBlock is the time playing is blocked after a touchdown.
	TouchdownBlock time.Duration
	// SubRound is the duration of chaser and captain sub-rounds.
	SubRound time.Duration
	// SubRoundPause is the time playing is blocked between sub-rounds.
	SubRoundPause time.Duration
}

// DefaultTiming returns the default Timing.
func DefaultTiming() Timing {
	return Timing{
		Loading:          40 * time.Second,
		Countdown:        3 * time.Second,
		EnteringHalfTime: 3 * time.Second,
		HalfTime:         10 * time.Second,
		EnteringResult:   3 * time.Second,
		ResultDisplay:    12 * time.Second,
		VoteKickWindow:   15 * time.Second,
		RuleChangeGrace:  3 * time.Second,
		StuckJoin:        20 * time.Second,
		TouchdownBlock:   5 * time.Second,
		SubRound:         60 * time.Second,
		SubRoundPause:    3 * time.Second,
	}
}

// Topics for published events.
const (
	// TopicMatchResult is used for publishing event.MatchResult.
	TopicMatchResult portal.Topic = "lefinal/masc-match/matches/result"
	// TopicRoomStateChanged is used for publishing event.RoomStateChangedEvent.
	TopicRoomStateChanged portal.Topic = "lefinal/masc-match/rooms/state"
)

// Room is the room a rule is part of.
type Room interface {
	ID() model.RoomID
	ChannelID() model.ChannelID
	Options() model.RoomOptions
	Roster() *team.Roster
	// Participants returns all members ordered by slot.
	Participants() []*player.Participant
	Participant(playerID model.PlayerID) (*player.Participant, bool)
	ParticipantBySlot(slot model.SlotID) (*player.Participant, bool)
	// Master returns the room owner.
	Master() model.PlayerID
	// Host returns the authoritative peer.
	Host() model.PlayerID
	// Broadcast the message to all members.
	Broadcast(message messages.Message)
	// Eject the member from the room. This is called from serialized paths
	// of the room and must not block on them.
	Eject(playerID model.PlayerID, reason model.LeaveReason)
}

// ExperienceCatalog computes the experience gained in a match.
type ExperienceCatalog interface {
	Experience(mode model.GameMode, playTime time.Duration, score int, won bool) int
}

// ResultStore persists match results.
type ResultStore interface {
	SaveMatchResult(ctx context.Context, result event.MatchResult) error
}

// Publisher publishes events. Errors are handled by the Publisher.
type Publisher interface {
	Publish(ctx context.Context, topic portal.Topic, payload interface{})
}

// Deps are the collaborators of a rule.
type Deps struct {
	Logger  *zap.Logger
	Timing  Timing
	Catalog ExperienceCatalog
	// Results is optional.
	Results ResultStore
	// Publisher is optional.
	Publisher Publisher
	// Random is used for chaser and captain selection. If not set, a
	// time-seeded one is created.
	Random *rand.Rand
}

// Kill is a reported kill.
type Kill struct {
	Killer model.SlotID
	Victim model.SlotID
	// Assist is model.SlotNone if nobody assisted.
	Assist model.SlotID
	Weapon int
}

// Rule is the game rule of a room.
type Rule interface {
	// Mode returns the game mode of the rule.
	Mode() model.GameMode
	// Initialize allocates the teams in the room's team.Roster.
	Initialize() error
	// Cleanup removes the teams from the room's team.Roster.
	Cleanup()
	// Update advances timers and fires triggers for timed phases and limits.
	Update(elapsed time.Duration)
	// State returns the current State.
	State() State
	// IsInState checks the current State including parent states.
	IsInState(state State) bool
	// IsPlaying is a shortcut for IsInState(StatePlaying).
	IsPlaying() bool
	CanFire(trigger Trigger) bool
	Fire(trigger Trigger) error
	// NewRecord creates a record for a participant that (re)joined.
	NewRecord() player.Record
	// TeamScores returns the current scores ordered by team.
	TeamScores() []messages.TeamScore
	// OnScoreKill handles a kill reported by the given player.
	OnScoreKill(reporter model.PlayerID, kill Kill) error
	// OnScoreTeamKill handles a team kill reported by the given player.
	OnScoreTeamKill(reporter model.PlayerID, kill Kill) error
	// OnScoreSuicide handles a suicide reported by the given player.
	OnScoreSuicide(reporter model.PlayerID, slot model.SlotID) error
	// OnScoreHeal handles a heal reported by the given player.
	OnScoreHeal(reporter model.PlayerID, healer model.SlotID, target model.SlotID) error
	// OnScoreObjective handles a mode-specific objective like a touchdown.
	OnScoreObjective(reporter model.PlayerID, slot model.SlotID, objective string) error
	// OnRespawn handles a respawn request.
	OnRespawn(reporter model.PlayerID, slot model.SlotID) error
	// OnLoadingCompleted is called when a member finished loading the map.
	OnLoadingCompleted(playerID model.PlayerID) error
	// OnRoomJoinCompleted is called when a member confirmed joining.
	OnRoomJoinCompleted(p *player.Participant)
	// OnLeave is called when a member left the room.
	OnLeave(p *player.Participant)
	// Briefing creates the current Briefing.
	Briefing() Briefing
}
