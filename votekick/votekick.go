// Package votekick resolves player-initiated votes for removing a member from a
// room.
package votekick

import (
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/model"
	"time"
)

// State is the state of an Arbiter.
type State string

const (
	// StateCanStart is the idle state in which a new vote can be started.
	StateCanStart State = "can-start"
	// StateExecution is used while votes are collected.
	StateExecution State = "execution"
	// StateEnd is used while the result is evaluated. The arbiter resets to
	// StateCanStart afterwards.
	StateEnd State = "end"
)

// Tally holds the current vote counts.
type Tally struct {
	Votes int
	Yes   int
}

// Verdict is the outcome of a vote.
type Verdict struct {
	Sender model.PlayerID
	Target model.PlayerID
	Reason model.KickReason
	Tally  Tally
	// Majority is the count of yes-votes that was required.
	Majority int
	// Kicked is set if the target needs to be removed.
	Kicked bool
	// Cancelled is set if the target left before the vote was evaluated.
	Cancelled bool
}

// Arbiter collects votes for a single vote-kick at a time. It is owned by a room
// and not safe for concurrent use.
type Arbiter struct {
	window  time.Duration
	state   State
	sender  model.PlayerID
	target  model.PlayerID
	reason  model.KickReason
	votes   map[model.PlayerID]bool
	yes     int
	elapsed time.Duration
}

// New creates an Arbiter that evaluates votes after the given window.
func New(window time.Duration) *Arbiter {
	a := &Arbiter{window: window}
	a.Reset()
	return a
}

// State returns the current state.
func (a *Arbiter) State() State {
	return a.state
}

// Target returns the target of the running vote.
func (a *Arbiter) Target() (model.PlayerID, bool) {
	if a.state != StateExecution {
		return 0, false
	}
	return a.target, true
}

// Tally returns the current vote counts.
func (a *Arbiter) Tally() Tally {
	return Tally{
		Votes: len(a.votes),
		Yes:   a.yes,
	}
}

// Remaining returns the time left until the vote is evaluated.
func (a *Arbiter) Remaining() time.Duration {
	if a.state != StateExecution {
		return 0
	}
	remaining := a.window - a.elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reset the arbiter to StateCanStart and discard all votes.
func (a *Arbiter) Reset() {
	a.state = StateCanStart
	a.sender = 0
	a.target = 0
	a.reason = ""
	a.votes = make(map[model.PlayerID]bool)
	a.yes = 0
	a.elapsed = 0
}

// Start a vote against the target. The sender's vote is registered as yes-vote.
func (a *Arbiter) Start(sender model.PlayerID, target model.PlayerID, reason model.KickReason) error {
	if a.state != StateCanStart {
		return errors.NewInvalidStateError(errors.KindVoteInProgress, "vote-kick already in progress",
			errors.Details{"target": a.target})
	}
	if sender == target {
		return errors.NewBadRequestError(errors.KindSelfTarget, "cannot start vote-kick against yourself",
			errors.Details{"sender": sender})
	}
	a.state = StateExecution
	a.sender = sender
	a.target = target
	a.reason = reason
	a.votes[sender] = true
	a.yes = 1
	a.elapsed = 0
	return nil
}

// Vote registers the vote of the given voter and returns the updated tally.
// Each voter may vote once and the target may not vote at all.
func (a *Arbiter) Vote(voter model.PlayerID, yes bool) (Tally, error) {
	if a.state != StateExecution {
		return Tally{}, errors.NewInvalidStateError(errors.KindNoVoteInProgress, "no vote-kick in progress", nil)
	}
	if voter == a.target {
		return Tally{}, errors.NewBadRequestError(errors.KindSelfTarget, "target cannot vote",
			errors.Details{"voter": voter})
	}
	if _, ok := a.votes[voter]; ok {
		return Tally{}, errors.NewBadRequestError(errors.KindAlreadyVoted, "already voted",
			errors.Details{"voter": voter})
	}
	a.votes[voter] = yes
	if yes {
		a.yes++
	}
	return a.Tally(), nil
}

// Update advances the voting window. If the target is no longer present, the
// vote is cancelled. When the window elapsed, the vote is evaluated with the
// given member count. A verdict is only returned if the vote ended.
func (a *Arbiter) Update(elapsed time.Duration, targetPresent bool, memberCount int) (Verdict, bool) {
	if a.state != StateExecution {
		return Verdict{}, false
	}
	if !targetPresent {
		verdict := a.verdict(0)
		verdict.Cancelled = true
		a.Reset()
		return verdict, true
	}
	a.elapsed += elapsed
	if a.elapsed < a.window {
		return Verdict{}, false
	}
	return a.Evaluate(memberCount), true
}

// Evaluate the running vote. The target is kicked if the yes-votes reach the
// majority of the given member count. The arbiter resets afterwards.
func (a *Arbiter) Evaluate(memberCount int) Verdict {
	a.state = StateEnd
	verdict := a.verdict(Majority(memberCount))
	verdict.Kicked = verdict.Tally.Yes >= verdict.Majority
	a.Reset()
	return verdict
}

func (a *Arbiter) verdict(majority int) Verdict {
	return Verdict{
		Sender:   a.sender,
		Target:   a.target,
		Reason:   a.reason,
		Tally:    a.Tally(),
		Majority: majority,
	}
}

// Majority returns the count of yes-votes that is required for the given member
// count.
func Majority(memberCount int) int {
	return memberCount/2 + 1
}
