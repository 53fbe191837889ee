package games

import (
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/player"
)

// Arcade objectives.
const (
	// ObjectiveMonster is reported for killed monsters.
	ObjectiveMonster = "monster"
	// ObjectiveStageClear is reported when the current stage was cleared.
	ObjectiveStageClear = "stage-clear"
)

type arcadeRecord struct {
	player.BaseRecord
	Monsters int
	Stages   int
}

func (r *arcadeRecord) TotalScore() int {
	return r.Monsters + r.Stages*10 + r.Heals - r.Suicides
}

func (r *arcadeRecord) Extra() map[string]int {
	return map[string]int{
		"monsters": r.Monsters,
		"stages":   r.Stages,
	}
}

// arcade is a cooperative mode. The team wins if it cleared as many stages as
// the score limit requires.
type arcade struct {
	modeBase
}

func newArcade(b *Base) *arcade {
	return &arcade{modeBase: modeBase{b: b}}
}

func (m *arcade) Teams(options model.RoomOptions) []TeamSpec {
	return singleTeam(model.TeamAlpha, options)
}

func (m *arcade) NewRecord() player.Record {
	return &arcadeRecord{}
}

func (m *arcade) OnObjective(p *player.Participant, objective string) error {
	record, _ := p.Record.(*arcadeRecord)
	switch objective {
	case ObjectiveMonster:
		p.Record.Base().Kills++
		if record != nil {
			record.Monsters++
		}
	case ObjectiveStageClear:
		if record != nil {
			record.Stages++
		}
		m.b.addTeamScore(p.Team, 1)
		m.b.block(m.b.deps.Timing.SubRoundPause)
		m.b.broadcastStatus()
	default:
		return unknownObjectiveError(objective)
	}
	return nil
}

func (m *arcade) OnUnblock() {
	m.b.reviveActive()
	m.b.broadcastStatus()
}

func (m *arcade) stage() int {
	return m.b.room.Roster().Score(model.TeamAlpha) + 1
}

func (m *arcade) Status() interface{} {
	return arcadeStatus{
		Stage:   m.stage(),
		Blocked: m.b.IsBlocked(),
	}
}

func (m *arcade) Brief(briefing *Briefing) {
	briefing.Cooperative = true
	limit := m.b.room.Options().ScoreLimit
	briefing.Cleared = limit > 0 && m.b.room.Roster().Score(model.TeamAlpha) >= limit
}

type arcadeStatus struct {
	Stage   int  `json:"stage"`
	Blocked bool `json:"blocked"`
}
