package errors

// ResultCode is the code that is sent back to a requester after an action.
type ResultCode string

const (
	ResultOK               ResultCode = "ok"
	ResultFailed           ResultCode = "failed"
	ResultRoomFull         ResultCode = "room-full"
	ResultTeamFull         ResultCode = "team-full"
	ResultChannelFull      ResultCode = "channel-full"
	ResultCannotStartGame  ResultCode = "cannot-start-game"
	ResultAlreadyInRoom    ResultCode = "already-in-room"
	ResultAlreadyInChannel ResultCode = "already-in-channel"
	ResultNotMaster        ResultCode = "not-master"
	ResultKicked           ResultCode = "kicked"
	ResultWrongPassword    ResultCode = "wrong-password"
	ResultMatchInProgress  ResultCode = "match-in-progress"
	ResultRoomNotFound     ResultCode = "room-not-found"
	ResultInvalidRules     ResultCode = "invalid-rules"
	ResultVoteNotPossible  ResultCode = "vote-not-possible"
	ResultDesync           ResultCode = "desync"
	ResultLevelMismatch    ResultCode = "level-mismatch"
	ResultTargetElevated   ResultCode = "target-elevated"
)

// kindResultCodes maps kinds with a dedicated result code.
var kindResultCodes = map[Kind]ResultCode{
	KindRoomFull:                ResultRoomFull,
	KindTeamFull:                ResultTeamFull,
	KindChannelFull:             ResultChannelFull,
	KindAlreadyInRoom:           ResultAlreadyInRoom,
	KindAlreadyInChannel:        ResultAlreadyInChannel,
	KindNotMaster:               ResultNotMaster,
	KindKicked:                  ResultKicked,
	KindWrongPassword:           ResultWrongPassword,
	KindMatchInProgress:         ResultMatchInProgress,
	KindGuardNotSatisfied:       ResultCannotStartGame,
	KindTriggerNotPermitted:     ResultCannotStartGame,
	KindInvalidMap:              ResultInvalidRules,
	KindInvalidMode:             ResultInvalidRules,
	KindInvalidOptions:          ResultInvalidRules,
	KindPlayerLimitBelowMembers: ResultInvalidRules,
	KindRuleChangePending:       ResultInvalidRules,
	KindVoteInProgress:          ResultVoteNotPossible,
	KindNoVoteInProgress:        ResultVoteNotPossible,
	KindAlreadyVoted:            ResultVoteNotPossible,
	KindSelfTarget:              ResultVoteNotPossible,
	KindLevelOutOfRange:         ResultLevelMismatch,
	KindNoRoomAvailable:         ResultRoomNotFound,
	KindTargetElevated:          ResultTargetElevated,
}

// codeResultCodes maps codes to fallback result codes if the kind has no
// dedicated one.
var codeResultCodes = map[Code]ResultCode{
	ErrCapacity:  ResultRoomFull,
	ErrForbidden: ResultNotMaster,
	ErrNotFound:  ResultRoomNotFound,
	ErrDesync:    ResultDesync,
}

// ResultCodeOf returns the ResultCode to send to the requester for the given
// error. A nil error results in ResultOK.
func ResultCodeOf(err error) ResultCode {
	if err == nil {
		return ResultOK
	}
	e, ok := Cast(err)
	if !ok {
		return ResultFailed
	}
	if rc, ok := kindResultCodes[e.Kind]; ok {
		return rc
	}
	if rc, ok := codeResultCodes[e.Code]; ok {
		return rc
	}
	return ResultFailed
}
