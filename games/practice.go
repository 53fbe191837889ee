package games

import (
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/player"
)

// ObjectiveTarget is reported for hit practice targets.
const ObjectiveTarget = "target"

type practiceRecord struct {
	player.BaseRecord
	Targets int
}

func (r *practiceRecord) TotalScore() int {
	return r.BaseRecord.TotalScore() + r.Targets
}

func (r *practiceRecord) Extra() map[string]int {
	return map[string]int{"targets": r.Targets}
}

// practice is played by a single team without winner. Only the time limit
// applies.
type practice struct {
	modeBase
}

func newPractice(b *Base) *practice {
	return &practice{modeBase: modeBase{b: b}}
}

func (m *practice) Teams(options model.RoomOptions) []TeamSpec {
	return singleTeam(model.TeamAlpha, options)
}

func (m *practice) NewRecord() player.Record {
	return &practiceRecord{}
}

func (m *practice) ScoreLimitReached(_ int) bool {
	return false
}

func (m *practice) OnObjective(p *player.Participant, objective string) error {
	if objective != ObjectiveTarget {
		return unknownObjectiveError(objective)
	}
	if record, ok := p.Record.(*practiceRecord); ok {
		record.Targets++
	}
	m.b.addTeamScore(p.Team, 1)
	return nil
}

func (m *practice) Brief(briefing *Briefing) {
	briefing.NoWinner = true
}
