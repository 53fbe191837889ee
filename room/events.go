package room

import (
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/games"
	"github.com/lefinal/masc-match/messages"
	"github.com/lefinal/masc-match/model"
	"go.uber.org/zap"
)

// scoringEvent is a reported scoring event that is applied to the rule in the
// next update.
type scoringEvent struct {
	reporter model.PlayerID
	request  messages.MessageType
	apply    func(rule games.Rule) error
}

// enqueue the event if the reporter is a member. Scoring events do not block
// on running operations.
func (r *Room) enqueue(reporter model.PlayerID, request messages.MessageType, apply func(rule games.Rule) error) error {
	if r.IsDisposed() {
		return errRoomDisposed
	}
	if _, err := r.requireMember(reporter); err != nil {
		return err
	}
	r.eventsMutex.Lock()
	defer r.eventsMutex.Unlock()
	r.events = append(r.events, scoringEvent{
		reporter: reporter,
		request:  request,
		apply:    apply,
	})
	return nil
}

// processEvents applies all queued events in the order they were reported.
// Failures are reported back to the reporter. opMutex must be locked.
func (r *Room) processEvents() {
	r.eventsMutex.Lock()
	events := r.events
	r.events = nil
	r.eventsMutex.Unlock()
	for _, e := range events {
		err := e.apply(r.rule)
		if err == nil {
			continue
		}
		if !errors.BlameUser(err) {
			errors.Log(r.logger, err)
		} else {
			r.logger.Debug("rejected scoring event", zap.Any("reporter", e.reporter),
				zap.Any("request", e.request), zap.Error(err))
		}
		if p, ok := r.member(e.reporter); ok {
			p.Send(messages.NewResult(e.request, err))
		}
	}
}

// ReportKill reports a kill. Only the host is authoritative for kills.
func (r *Room) ReportKill(reporter model.PlayerID, kill games.Kill) error {
	return r.enqueue(reporter, messages.MessageTypeScoreKill, func(rule games.Rule) error {
		return rule.OnScoreKill(reporter, kill)
	})
}

// ReportTeamKill reports a kill between members of the same team.
func (r *Room) ReportTeamKill(reporter model.PlayerID, kill games.Kill) error {
	return r.enqueue(reporter, messages.MessageTypeScoreTeamKill, func(rule games.Rule) error {
		return rule.OnScoreTeamKill(reporter, kill)
	})
}

// ReportSuicide reports a suicide of the member in the given slot.
func (r *Room) ReportSuicide(reporter model.PlayerID, slot model.SlotID) error {
	return r.enqueue(reporter, messages.MessageTypeScoreSuicide, func(rule games.Rule) error {
		return rule.OnScoreSuicide(reporter, slot)
	})
}

// ReportHeal reports a heal.
func (r *Room) ReportHeal(reporter model.PlayerID, healer model.SlotID, target model.SlotID) error {
	return r.enqueue(reporter, messages.MessageTypeScoreHeal, func(rule games.Rule) error {
		return rule.OnScoreHeal(reporter, healer, target)
	})
}

// ReportObjective reports a mode-specific objective like a touchdown.
func (r *Room) ReportObjective(reporter model.PlayerID, slot model.SlotID, objective string) error {
	return r.enqueue(reporter, messages.MessageTypeScoreObjective, func(rule games.Rule) error {
		return rule.OnScoreObjective(reporter, slot, objective)
	})
}

// Respawn requests a respawn of the member in the given slot.
func (r *Room) Respawn(reporter model.PlayerID, slot model.SlotID) error {
	return r.enqueue(reporter, messages.MessageTypeRespawn, func(rule games.Rule) error {
		return rule.OnRespawn(reporter, slot)
	})
}
