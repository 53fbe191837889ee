package games

import (
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/player"
)

// deathmatch is the classic team mode where each kill scores a point for the
// killer's team.
type deathmatch struct {
	modeBase
}

func newDeathmatch(b *Base) *deathmatch {
	return &deathmatch{modeBase: modeBase{b: b}}
}

func (m *deathmatch) Teams(options model.RoomOptions) []TeamSpec {
	return twoTeams(options)
}

func (m *deathmatch) OnKill(killer *player.Participant, _ *player.Participant, _ *player.Participant) {
	m.b.addTeamScore(killer.Team, 1)
}

// OnTeamKill takes a point from the team of the killer.
func (m *deathmatch) OnTeamKill(killer *player.Participant, _ *player.Participant) {
	m.b.addTeamScore(killer.Team, -1)
}
