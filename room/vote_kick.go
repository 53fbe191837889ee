package room

import (
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/messages"
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/votekick"
	"go.uber.org/zap"
	"time"
)

// StartVoteKick starts a vote for removing the target. The sender's vote counts
// as yes-vote.
func (r *Room) StartVoteKick(sender model.PlayerID, target model.PlayerID, reason model.KickReason) error {
	return r.do(func() error {
		if _, err := r.requireMember(sender); err != nil {
			return err
		}
		if _, err := r.requireMember(target); err != nil {
			return err
		}
		err := r.arbiter.Start(sender, target, reason)
		if err != nil {
			return errors.Wrap(err, "start vote-kick", nil)
		}
		r.logger.Debug("vote-kick started", zap.Any("sender", sender), zap.Any("target", target),
			zap.Any("reason", reason))
		r.broadcast(messages.Message{
			MessageType: messages.MessageTypeVoteKickStarted,
			Content: messages.MessageVoteKickStarted{
				Sender:   sender,
				Target:   target,
				Reason:   reason,
				WindowMS: r.deps.Timing.VoteKickWindow.Milliseconds(),
			},
		})
		r.broadcastTally(target, r.arbiter.Tally())
		return nil
	})
}

// VoteKick registers the vote of the given member for the running vote-kick.
func (r *Room) VoteKick(voter model.PlayerID, yes bool) error {
	return r.do(func() error {
		if _, err := r.requireMember(voter); err != nil {
			return err
		}
		tally, err := r.arbiter.Vote(voter, yes)
		if err != nil {
			return errors.Wrap(err, "vote", nil)
		}
		target, _ := r.arbiter.Target()
		r.broadcastTally(target, tally)
		return nil
	})
}

func (r *Room) broadcastTally(target model.PlayerID, tally votekick.Tally) {
	r.broadcast(messages.Message{
		MessageType: messages.MessageTypeVoteKickTally,
		Content: messages.MessageVoteKickTally{
			Target: target,
			Votes:  tally.Votes,
			Yes:    tally.Yes,
		},
	})
}

// updateVoteKick advances the running vote-kick and removes the target if the
// majority voted yes.
func (r *Room) updateVoteKick(elapsed time.Duration) {
	target, running := r.arbiter.Target()
	if !running {
		return
	}
	_, present := r.member(target)
	verdict, ended := r.arbiter.Update(elapsed, present, r.MemberCount())
	if !ended {
		return
	}
	r.logger.Debug("vote-kick ended", zap.Any("target", verdict.Target), zap.Bool("kicked", verdict.Kicked),
		zap.Bool("cancelled", verdict.Cancelled), zap.Int("yes", verdict.Tally.Yes),
		zap.Int("majority", verdict.Majority))
	r.broadcast(messages.Message{
		MessageType: messages.MessageTypeVoteKickEnded,
		Content: messages.MessageVoteKickEnded{
			Target:    verdict.Target,
			Kicked:    verdict.Kicked,
			Cancelled: verdict.Cancelled,
			Yes:       verdict.Tally.Yes,
			Majority:  verdict.Majority,
		},
	})
	if verdict.Kicked {
		r.kicked[verdict.Target] = struct{}{}
		r.leave(verdict.Target, model.LeaveReasonVoteKicked)
	}
}
