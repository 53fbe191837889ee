package room

import (
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/messages"
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/team"
	"go.uber.org/zap"
	"time"
)

// ChangeRules announces new options that are applied after the rule-change
// grace window. Only the master may change rules and only while no match is
// running.
func (r *Room) ChangeRules(playerID model.PlayerID, options model.RoomOptions) error {
	return r.do(func() error {
		if _, err := r.requireMaster(playerID); err != nil {
			return err
		}
		if err := r.requireWaiting(); err != nil {
			return err
		}
		if r.pendingRules != nil {
			return errors.NewInvalidStateError(errors.KindRuleChangePending, "rules are already changing", nil)
		}
		err := r.deps.Catalog.ValidateRoomOptions(options)
		if err != nil {
			return errors.Wrap(err, "validate options", nil)
		}
		if memberCount := r.MemberCount(); options.PlayerLimit < memberCount {
			return errors.NewBadRequestError(errors.KindPlayerLimitBelowMembers, "player limit below member count",
				errors.Details{"player_limit": options.PlayerLimit, "members": memberCount})
		}
		options, err = r.deps.Catalog.ResolveRandomMap(options, r.random)
		if err != nil {
			return errors.Wrap(err, "resolve random map", nil)
		}
		r.pendingRules = &options
		r.ruleChangeElapsed = 0
		announced := options
		announced.Password = ""
		r.logger.Debug("rules changing", zap.Any("mode", options.Mode), zap.Any("map", options.Map))
		r.broadcast(messages.Message{
			MessageType: messages.MessageTypeRulesChanging,
			Content: messages.MessageRulesChanging{
				Options: announced,
				GraceMS: r.deps.Timing.RuleChangeGrace.Milliseconds(),
			},
		})
		return nil
	})
}

// IsChangingRules checks whether a rule change is pending.
func (r *Room) IsChangingRules() bool {
	r.opMutex.Lock()
	defer r.opMutex.Unlock()
	return r.pendingRules != nil
}

// updateRuleChange applies pending rules once the grace window elapsed.
func (r *Room) updateRuleChange(elapsed time.Duration) {
	if r.pendingRules == nil {
		return
	}
	r.ruleChangeElapsed += elapsed
	if r.ruleChangeElapsed < r.deps.Timing.RuleChangeGrace {
		return
	}
	options := *r.pendingRules
	r.pendingRules = nil
	r.ruleChangeElapsed = 0
	err := r.applyRules(options)
	if err != nil {
		errors.Log(r.logger, errors.Wrap(err, "apply rules", nil))
	}
}

// applyRules replaces the rule with one for the given options and restores the
// team assignments as far as possible. On failure, the previous rule is kept.
func (r *Room) applyRules(options model.RoomOptions) error {
	assignments := r.roster.Assignments()
	oldOptions := r.Options()
	oldRule := r.rule
	r.m.Lock()
	r.options = options
	r.m.Unlock()
	newRule, err := r.newRule()
	if err != nil {
		r.m.Lock()
		r.options = oldOptions
		r.m.Unlock()
		return errors.Wrap(err, "new rule", nil)
	}
	oldRule.Cleanup()
	err = newRule.Initialize()
	if err != nil {
		newRule.Cleanup()
		r.m.Lock()
		r.options = oldOptions
		r.m.Unlock()
		if restoreErr := oldRule.Initialize(); restoreErr != nil {
			errors.Log(r.logger, errors.Wrap(restoreErr, "restore previous rule", nil))
		}
		r.restoreAssignments(assignments, false)
		return errors.Wrap(err, "initialize rule", nil)
	}
	r.m.Lock()
	r.rule = newRule
	r.m.Unlock()
	r.restoreAssignments(assignments, true)
	r.infoChanged = true
	r.logger.Debug("rules changed", zap.Any("mode", options.Mode), zap.Any("map", options.Map))
	r.broadcast(messages.Message{
		MessageType: messages.MessageTypeRulesChanged,
		Content:     r.Info(),
	})
	return nil
}

// restoreAssignments rejoins all members into the roster with their previous
// team preferred. Members that do not fit as playing members become
// spectators. Members that do not fit at all are removed.
func (r *Room) restoreAssignments(assignments map[model.PlayerID]team.Assignment, resetRecords bool) {
	for _, p := range r.participants() {
		previous, ok := assignments[p.ID()]
		mode := model.PlayerModeNormal
		preferred := model.TeamNone
		if ok {
			mode = previous.Mode
			preferred = previous.Team
		}
		teamID, err := r.roster.Join(p.ID(), mode, preferred)
		if err != nil && mode == model.PlayerModeNormal {
			mode = model.PlayerModeSpectate
			teamID, err = r.roster.Join(p.ID(), mode, model.TeamNone)
		}
		if err != nil {
			r.logger.Warn("member does not fit after rule change", zap.Any("player_id", p.ID()), zap.Error(err))
			r.leave(p.ID(), model.LeaveReasonLeft)
			continue
		}
		p.Team = teamID
		p.Mode = mode
		if mode == model.PlayerModeSpectate {
			p.IsReady = false
		}
		if resetRecords {
			p.ResetForMatch(r.rule.NewRecord())
		}
		r.broadcastTeamChanged(p)
	}
}
