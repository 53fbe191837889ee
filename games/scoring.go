package games

import (
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/messages"
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/player"
)

// participantBySlot looks up the participant with the given slot.
func (b *Base) participantBySlot(slot model.SlotID) (*player.Participant, error) {
	p, ok := b.room.ParticipantBySlot(slot)
	if !ok {
		return nil, errors.NewDesyncError(errors.KindUnknownPlayer, "no participant with slot",
			errors.Details{"slot": slot})
	}
	if !p.IsPlaying() {
		return nil, errors.NewDesyncError(errors.KindSlotMismatch, "slot belongs to spectator",
			errors.Details{"slot": slot, "player_id": p.ID()})
	}
	return p, nil
}

// authorize checks whether the reporter may report an event for the given
// participants. The host is authoritative for all slots.
func (b *Base) authorize(reporter model.PlayerID, tagged ...*player.Participant) error {
	if _, ok := b.room.Participant(reporter); !ok {
		return errors.NewDesyncError(errors.KindUnknownPlayer, "reporter is no member",
			errors.Details{"reporter": reporter})
	}
	if reporter == b.room.Host() {
		return nil
	}
	for _, p := range tagged {
		if p != nil && p.ID() == reporter {
			return nil
		}
	}
	return errors.NewDesyncError(errors.KindNotAuthoritative, "reporter is not authoritative for event",
		errors.Details{"reporter": reporter})
}

// requirePlaying returns an error if no match is running.
func (b *Base) requirePlaying() error {
	if !b.IsPlaying() {
		return errors.NewInvalidStateError(errors.KindNotPlaying, "no match in progress",
			errors.Details{"state": string(b.State())})
	}
	return nil
}

func (b *Base) broadcastScore(score messages.MessageScore) {
	score.Teams = b.TeamScores()
	b.room.Broadcast(messages.Message{
		MessageType: messages.MessageTypeScore,
		Content:     score,
	})
}

// addTeamScore adds the delta to the team score. Failures are logged as they
// indicate broken bookkeeping.
func (b *Base) addTeamScore(teamID model.TeamID, delta int) {
	_, err := b.room.Roster().AddScore(teamID, delta)
	if err != nil {
		errors.Log(b.logger, errors.Wrap(err, "add team score", nil))
	}
}

// OnScoreKill handles a kill. Only the victim or the host may report it. Outside
// of scoring windows, only the victim's state is updated.
func (b *Base) OnScoreKill(reporter model.PlayerID, kill Kill) error {
	if err := b.requirePlaying(); err != nil {
		return err
	}
	if kill.Killer == kill.Victim {
		return b.OnScoreSuicide(reporter, kill.Victim)
	}
	killer, err := b.participantBySlot(kill.Killer)
	if err != nil {
		return errors.Wrap(err, "killer", nil)
	}
	victim, err := b.participantBySlot(kill.Victim)
	if err != nil {
		return errors.Wrap(err, "victim", nil)
	}
	var assist *player.Participant
	if kill.Assist != model.SlotNone && kill.Assist != kill.Killer {
		assist, err = b.participantBySlot(kill.Assist)
		if err != nil {
			return errors.Wrap(err, "assist", nil)
		}
	}
	if err = b.authorize(reporter, victim); err != nil {
		return err
	}
	if !b.mode.IsFreeForAll() && killer.Team == victim.Team {
		return errors.NewDesyncError(errors.KindSlotMismatch, "kill between team mates",
			errors.Details{"killer": kill.Killer, "victim": kill.Victim})
	}
	victim.State = model.PlayerStateDead
	counted := b.scoringEnabled()
	if counted {
		killer.Record.Base().Kills++
		victim.Record.Base().Deaths++
		if assist != nil {
			assist.Record.Base().Assists++
		}
		b.mode.OnKill(killer, victim, assist)
	}
	score := messages.MessageScore{
		Kind:    messages.ScoreKindKill,
		Actor:   killer.ID(),
		Target:  victim.ID(),
		Counted: counted,
	}
	if assist != nil {
		score.Assist = assist.ID()
	}
	b.broadcastScore(score)
	return nil
}

// OnScoreTeamKill handles a kill between team mates. Only the victim or the host
// may report it.
func (b *Base) OnScoreTeamKill(reporter model.PlayerID, kill Kill) error {
	if err := b.requirePlaying(); err != nil {
		return err
	}
	killer, err := b.participantBySlot(kill.Killer)
	if err != nil {
		return errors.Wrap(err, "killer", nil)
	}
	victim, err := b.participantBySlot(kill.Victim)
	if err != nil {
		return errors.Wrap(err, "victim", nil)
	}
	if err = b.authorize(reporter, victim); err != nil {
		return err
	}
	if killer.Team != victim.Team {
		return errors.NewDesyncError(errors.KindSlotMismatch, "team kill between different teams",
			errors.Details{"killer": kill.Killer, "victim": kill.Victim})
	}
	victim.State = model.PlayerStateDead
	counted := b.scoringEnabled()
	if counted {
		killer.Record.Base().TeamKills++
		victim.Record.Base().Deaths++
		b.mode.OnTeamKill(killer, victim)
	}
	b.broadcastScore(messages.MessageScore{
		Kind:    messages.ScoreKindTeamKill,
		Actor:   killer.ID(),
		Target:  victim.ID(),
		Counted: counted,
	})
	return nil
}

// OnScoreSuicide handles a suicide. Only the participant itself or the host may
// report it.
func (b *Base) OnScoreSuicide(reporter model.PlayerID, slot model.SlotID) error {
	if err := b.requirePlaying(); err != nil {
		return err
	}
	p, err := b.participantBySlot(slot)
	if err != nil {
		return err
	}
	if err = b.authorize(reporter, p); err != nil {
		return err
	}
	p.State = model.PlayerStateDead
	counted := b.scoringEnabled()
	if counted {
		p.Record.Base().Suicides++
		p.Record.Base().Deaths++
		b.mode.OnSuicide(p)
	}
	b.broadcastScore(messages.MessageScore{
		Kind:    messages.ScoreKindSuicide,
		Actor:   p.ID(),
		Counted: counted,
	})
	return nil
}

// OnScoreHeal handles a heal. Only the healer or the host may report it.
func (b *Base) OnScoreHeal(reporter model.PlayerID, healerSlot model.SlotID, targetSlot model.SlotID) error {
	if err := b.requirePlaying(); err != nil {
		return err
	}
	healer, err := b.participantBySlot(healerSlot)
	if err != nil {
		return errors.Wrap(err, "healer", nil)
	}
	target, err := b.participantBySlot(targetSlot)
	if err != nil {
		return errors.Wrap(err, "target", nil)
	}
	if err = b.authorize(reporter, healer); err != nil {
		return err
	}
	if target.State == model.PlayerStateDead {
		return errors.NewDesyncError(errors.KindSlotMismatch, "cannot heal dead participant",
			errors.Details{"target": targetSlot})
	}
	counted := b.scoringEnabled() && healer != target
	if counted {
		healer.Record.Base().Heals++
		b.mode.OnHeal(healer, target)
	}
	b.broadcastScore(messages.MessageScore{
		Kind:    messages.ScoreKindHeal,
		Actor:   healer.ID(),
		Target:  target.ID(),
		Counted: counted,
	})
	return nil
}

// OnScoreObjective handles a mode-specific objective. Only the scorer or the
// host may report it.
func (b *Base) OnScoreObjective(reporter model.PlayerID, slot model.SlotID, objective string) error {
	if err := b.requirePlaying(); err != nil {
		return err
	}
	p, err := b.participantBySlot(slot)
	if err != nil {
		return err
	}
	if err = b.authorize(reporter, p); err != nil {
		return err
	}
	counted := b.scoringEnabled()
	if counted {
		if p.State == model.PlayerStateDead {
			return errors.NewDesyncError(errors.KindSlotMismatch, "dead participants cannot score objectives",
				errors.Details{"slot": slot})
		}
		err = b.mode.OnObjective(p, objective)
		if err != nil {
			return errors.Wrap(err, "score objective", nil)
		}
	}
	b.broadcastScore(messages.MessageScore{
		Kind:      messages.ScoreKindObjective,
		Actor:     p.ID(),
		Objective: objective,
		Counted:   counted,
	})
	return nil
}

// OnRespawn sets a dead participant alive again. Respawns are acknowledged in
// all playing states.
func (b *Base) OnRespawn(reporter model.PlayerID, slot model.SlotID) error {
	if err := b.requirePlaying(); err != nil {
		return err
	}
	p, err := b.participantBySlot(slot)
	if err != nil {
		return err
	}
	if err = b.authorize(reporter, p); err != nil {
		return err
	}
	if p.State != model.PlayerStateDead {
		return errors.NewDesyncError(errors.KindSlotMismatch, "only dead participants respawn",
			errors.Details{"slot": slot, "state": string(p.State)})
	}
	if !b.mode.CanRespawn(p) {
		return errors.NewInvalidStateError(errors.KindEliminated, "participant was eliminated",
			errors.Details{"slot": slot})
	}
	p.State = model.PlayerStateAlive
	b.room.Broadcast(messages.Message{
		MessageType: messages.MessageTypeRespawnAck,
		Content:     messages.MessagePlayer{Player: p.ID()},
	})
	return nil
}
