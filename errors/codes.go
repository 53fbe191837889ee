package errors

// Code is the coarse error category. It decides how an error is logged and
// whether the requester is to blame.
type Code string

const (
	ErrAborted       Code = "aborted"
	ErrBadRequest    Code = "bad-request"
	ErrCommunication Code = "communication"
	ErrFatal         Code = "fatal"
	ErrNotFound      Code = "not-found"
	ErrInternal      Code = "internal"
	ErrUnexpected    Code = "unexpected"
	// ErrCapacity is used when a room, team or channel is full.
	ErrCapacity Code = "capacity"
	// ErrForbidden is used when a non-privileged player attempts a master-only
	// action.
	ErrForbidden Code = "forbidden"
	// ErrInvalidState is used for actions that are not valid for the current
	// state of a room or game rule.
	ErrInvalidState Code = "invalid-state"
	// ErrAccessDenied is used when a player is not allowed to enter, for example
	// because of a previous kick.
	ErrAccessDenied Code = "access-denied"
	// ErrDesync is used when an event references a player, team or slot that does
	// not match the bookkeeping of the server.
	ErrDesync Code = "desync"
)

// Kind is a more detailed classification than Code.
type Kind string

const (
	// KindAlreadyInChannel is used when a player joins a channel while already
	// being in one.
	KindAlreadyInChannel Kind = "already-in-channel"
	// KindAlreadyInRoom is used when a player joins a room or channel while
	// already being in a room.
	KindAlreadyInRoom Kind = "already-in-room"
	// KindAlreadyOnline is used when a player identifies while another session
	// of the same player is active.
	KindAlreadyOnline Kind = "already-online"
	// KindAlreadyVoted is used when a player votes twice in the same vote-kick.
	KindAlreadyVoted Kind = "already-voted"
	KindChannelFull  Kind = "channel-full"
	// KindContextAborted is used when we were currently performing an operation but
	// the context got aborted.
	KindContextAborted Kind = "context-aborted"
	KindDB             Kind = "db"
	// KindDuplicateTeam is used when a team is added to a roster twice.
	KindDuplicateTeam Kind = "duplicate-team"
	// KindEliminated is used for actions of participants that were eliminated
	// from the running match.
	KindEliminated Kind = "eliminated"
	// KindGuardNotSatisfied is used when a state machine trigger is known for the
	// current state but its guard refused the transition.
	KindGuardNotSatisfied Kind = "guard-not-satisfied"
	// KindInvalidConfig is used for invalid configuration values.
	KindInvalidConfig Kind = "invalid-config"
	// KindInvalidMap is used when a map does not exist or does not support the
	// requested mode.
	KindInvalidMap Kind = "invalid-map"
	// KindInvalidMode is used for unknown game modes.
	KindInvalidMode Kind = "invalid-mode"
	// KindInvalidOptions is used when room options fail validation.
	KindInvalidOptions Kind = "invalid-options"
	// KindKicked is used when a previously kicked player wants to rejoin.
	KindKicked Kind = "kicked"
	// KindLevelOutOfRange is used when a player does not match the level range of
	// a channel.
	KindLevelOutOfRange Kind = "level-out-of-range"
	// KindMasterCannotReady is used when the room master toggles the ready-state.
	KindMasterCannotReady Kind = "master-cannot-ready"
	// KindMatchInProgress is used for actions that are only allowed while no
	// match is running.
	KindMatchInProgress Kind = "match-in-progress"
	// KindNoRoomAvailable is used when quick-join finds no suitable room.
	KindNoRoomAvailable Kind = "no-room-available"
	// KindNoVoteInProgress is used when a vote is cast without running vote-kick.
	KindNoVoteInProgress Kind = "no-vote-in-progress"
	// KindNotAuthoritative is used when a scoring event is reported by a peer
	// that is not allowed to report it.
	KindNotAuthoritative Kind = "not-authoritative"
	// KindNotIdentified is used for requests of sessions that did not say hello
	// yet.
	KindNotIdentified Kind = "not-identified"
	// KindNotInChannel is used when a channel operation is requested by a player
	// outside the channel.
	KindNotInChannel Kind = "not-in-channel"
	// KindNotInRoom is used when a room operation is requested by a non-member.
	KindNotInRoom Kind = "not-in-room"
	// KindNotMaster is used when a master-only action is requested by someone
	// else.
	KindNotMaster Kind = "not-master"
	// KindNotPlaying is used when an action requires a running match.
	KindNotPlaying Kind = "not-playing"
	// KindPlayerLimitBelowMembers is used when rules are changed to a player
	// limit that cannot hold the current members.
	KindPlayerLimitBelowMembers Kind = "player-limit-below-members"
	KindResourceNotFound        Kind = "resource-not-found"
	// KindRoomFull is used when neither playing nor spectating capacity is left.
	KindRoomFull Kind = "room-full"
	// KindRoomLimitReached is used when a channel cannot hold more rooms.
	KindRoomLimitReached Kind = "room-limit-reached"
	// KindRuleChangePending is used when rules are changed while a change is
	// already pending.
	KindRuleChangePending Kind = "rule-change-pending"
	// KindSelfTarget is used when a player targets themselves, for example with a
	// vote-kick.
	KindSelfTarget Kind = "self-target"
	// KindShouldNotHappen is used for invariant violations.
	KindShouldNotHappen Kind = "should-not-happen"
	// KindSlotMismatch is used when an event carries a slot id that does not
	// belong to the tagged player.
	KindSlotMismatch Kind = "slot-mismatch"
	// KindTeamFull is used when a team has no capacity left for the requested
	// player mode.
	KindTeamFull Kind = "team-full"
	// KindTargetElevated is used when a moderation action targets a player with
	// an elevated security level.
	KindTargetElevated Kind = "target-elevated"
	// KindTriggerNotPermitted is used when no transition is configured for a
	// trigger in the current state.
	KindTriggerNotPermitted Kind = "trigger-not-permitted"
	// KindUnknownPlayer is used when an event references a player that is not a
	// member.
	KindUnknownPlayer Kind = "unknown-player"
	// KindUnknownTeam is used when a team is referenced that does not exist in
	// the roster.
	KindUnknownTeam Kind = "unknown-team"
	KindUnknown     Kind = "unknown"
	// KindUnknownMessageType is used for requests with unsupported message type.
	KindUnknownMessageType Kind = "unknown-message-type"
	// KindUnknownObjective is used for objectives that the game mode does not
	// know.
	KindUnknownObjective Kind = "unknown-objective"
	// KindVoteInProgress is used when a vote-kick is started while another one is
	// running.
	KindVoteInProgress Kind = "vote-in-progress"
	// KindWrongPassword is used when a room password does not match.
	KindWrongPassword Kind = "wrong-password"
)
