package games

import (
	"github.com/lefinal/masc-match/messages"
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/player"
)

// ObjectiveTouchdown is reported when a participant carried the ball into the
// goal.
const ObjectiveTouchdown = "touchdown"

// touchdownRecord counts touchdowns in addition to the base counters.
type touchdownRecord struct {
	player.BaseRecord
	Touchdowns int
}

func (r *touchdownRecord) TotalScore() int {
	return r.BaseRecord.TotalScore() + r.Touchdowns*10
}

func (r *touchdownRecord) Extra() map[string]int {
	return map[string]int{"touchdowns": r.Touchdowns}
}

// touchdown is played in two halves. Touchdowns score for the team and block
// playing while the field is reset.
type touchdown struct {
	modeBase
	// lastScorer is the team that scored the last touchdown.
	lastScorer model.TeamID
}

func newTouchdown(b *Base) *touchdown {
	return &touchdown{modeBase: modeBase{b: b}}
}

func (m *touchdown) Teams(options model.RoomOptions) []TeamSpec {
	return twoTeams(options)
}

func (m *touchdown) HasHalves() bool {
	return true
}

func (m *touchdown) NewRecord() player.Record {
	return &touchdownRecord{}
}

func (m *touchdown) OnObjective(p *player.Participant, objective string) error {
	if objective != ObjectiveTouchdown {
		return unknownObjectiveError(objective)
	}
	if record, ok := p.Record.(*touchdownRecord); ok {
		record.Touchdowns++
	}
	m.lastScorer = p.Team
	m.b.addTeamScore(p.Team, 1)
	m.b.block(m.b.deps.Timing.TouchdownBlock)
	m.b.broadcastStatus()
	return nil
}

// OnUnblock resets the field after a touchdown.
func (m *touchdown) OnUnblock() {
	m.b.reviveActive()
	m.b.broadcastStatus()
}

func (m *touchdown) Status() interface{} {
	return touchdownStatus{
		Blocked:    m.b.IsBlocked(),
		LastScorer: m.lastScorer,
		Teams:      m.b.TeamScores(),
	}
}

type touchdownStatus struct {
	Blocked    bool                 `json:"blocked"`
	LastScorer model.TeamID         `json:"last_scorer"`
	Teams      []messages.TeamScore `json:"teams"`
}
