package games

import (
	"github.com/lefinal/masc-match/fsm"
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/player"
)

// Keys of battle royal extras in briefings.
const (
	extraEliminated       = "eliminated"
	extraEliminationOrder = "elimination_order"
)

type battleRoyalRecord struct {
	player.BaseRecord
	Eliminated bool
	// EliminationOrder is 1 for the first eliminated participant.
	EliminationOrder int
}

func (r *battleRoyalRecord) Extra() map[string]int {
	eliminated := 0
	if r.Eliminated {
		eliminated = 1
	}
	return map[string]int{
		extraEliminated:       eliminated,
		extraEliminationOrder: r.EliminationOrder,
	}
}

// battleRoyal is a free-for-all mode without respawns. The last survivor wins.
type battleRoyal struct {
	modeBase
	eliminations int
}

func newBattleRoyal(b *Base) *battleRoyal {
	return &battleRoyal{modeBase: modeBase{b: b}}
}

func (m *battleRoyal) Teams(options model.RoomOptions) []TeamSpec {
	return singleTeam(model.TeamNeutral, options)
}

func (m *battleRoyal) IsFreeForAll() bool {
	return true
}

func (m *battleRoyal) NewRecord() player.Record {
	return &battleRoyalRecord{}
}

func (m *battleRoyal) OnTransition(t fsm.Transition[State, Trigger]) {
	if t.Trigger == TriggerStartGame {
		m.eliminations = 0
	}
}

func (m *battleRoyal) eliminate(p *player.Participant) {
	record, ok := p.Record.(*battleRoyalRecord)
	if !ok || record.Eliminated {
		return
	}
	m.eliminations++
	record.Eliminated = true
	record.EliminationOrder = m.eliminations
	m.b.broadcastStatus()
}

func (m *battleRoyal) isEliminated(p *player.Participant) bool {
	record, ok := p.Record.(*battleRoyalRecord)
	return ok && record.Eliminated
}

func (m *battleRoyal) survivors() int {
	survivors := 0
	for _, p := range m.b.activeParticipants() {
		if !m.isEliminated(p) {
			survivors++
		}
	}
	return survivors
}

func (m *battleRoyal) OnKill(_ *player.Participant, victim *player.Participant, _ *player.Participant) {
	m.eliminate(victim)
}

func (m *battleRoyal) OnSuicide(p *player.Participant) {
	m.eliminate(p)
}

func (m *battleRoyal) CanRespawn(p *player.Participant) bool {
	return !m.isEliminated(p)
}

// ScoreLimitReached checks the kills of each participant.
func (m *battleRoyal) ScoreLimitReached(limit int) bool {
	for _, p := range m.b.activeParticipants() {
		if p.Record.Base().Kills >= limit {
			return true
		}
	}
	return false
}

// EnoughPlayers requires two survivors or one in friendly rooms.
func (m *battleRoyal) EnoughPlayers() bool {
	if m.b.room.Options().IsFriendly {
		return m.survivors() > 0
	}
	return m.survivors() > 1
}

func (m *battleRoyal) Status() interface{} {
	return battleRoyalStatus{Survivors: m.survivors()}
}

// Brief places survivors first. Eliminated participants are placed in reverse
// elimination order.
func (m *battleRoyal) Brief(briefing *Briefing) {
	briefing.assignPlacements(func(a, b BriefingPlayer) bool {
		aOut, bOut := a.Extra[extraEliminated] == 1, b.Extra[extraEliminated] == 1
		if aOut != bOut {
			return !aOut
		}
		if aOut {
			return a.Extra[extraEliminationOrder] > b.Extra[extraEliminationOrder]
		}
		return byScore(a, b)
	})
}

type battleRoyalStatus struct {
	Survivors int `json:"survivors"`
}
