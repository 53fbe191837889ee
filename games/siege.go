package games

import (
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/fsm"
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/player"
)

// ObjectiveCapture is reported when an attacker captured the objective.
const ObjectiveCapture = "capture"

type siegeRecord struct {
	player.BaseRecord
	Captures int
}

func (r *siegeRecord) TotalScore() int {
	return r.BaseRecord.TotalScore() + r.Captures*5
}

func (r *siegeRecord) Extra() map[string]int {
	return map[string]int{"captures": r.Captures}
}

// siege is played in two halves. Alpha attacks in the first half and beta in
// the second one. Only attackers may capture.
type siege struct {
	modeBase
	secondHalf bool
}

func newSiege(b *Base) *siege {
	return &siege{modeBase: modeBase{b: b}}
}

func (m *siege) Teams(options model.RoomOptions) []TeamSpec {
	return twoTeams(options)
}

func (m *siege) HasHalves() bool {
	return true
}

func (m *siege) NewRecord() player.Record {
	return &siegeRecord{}
}

// attacker returns the attacking team of the current half.
func (m *siege) attacker() model.TeamID {
	if m.secondHalf {
		return model.TeamBeta
	}
	return model.TeamAlpha
}

func (m *siege) OnTransition(t fsm.Transition[State, Trigger]) {
	switch t.Destination {
	case StateFirstHalf:
		m.secondHalf = false
	case StateSecondHalf:
		m.secondHalf = true
	}
}

func (m *siege) OnObjective(p *player.Participant, objective string) error {
	if objective != ObjectiveCapture {
		return unknownObjectiveError(objective)
	}
	if p.Team != m.attacker() {
		return errors.NewDesyncError(errors.KindNotAuthoritative, "only attackers capture",
			errors.Details{"team": p.Team.String(), "attacker": m.attacker().String()})
	}
	if record, ok := p.Record.(*siegeRecord); ok {
		record.Captures++
	}
	m.b.addTeamScore(p.Team, 1)
	m.b.block(m.b.deps.Timing.SubRoundPause)
	m.b.broadcastStatus()
	return nil
}

func (m *siege) OnUnblock() {
	m.b.reviveActive()
	m.b.broadcastStatus()
}

func (m *siege) Status() interface{} {
	return siegeStatus{
		Attacker: m.attacker(),
		Blocked:  m.b.IsBlocked(),
	}
}

type siegeStatus struct {
	Attacker model.TeamID `json:"attacker"`
	Blocked  bool         `json:"blocked"`
}
