package games

import (
	"github.com/lefinal/masc-match/fsm"
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/player"
	"time"
)

type captainRecord struct {
	player.BaseRecord
	// CaptainKills counts killed enemy captains.
	CaptainKills int
	// CaptainRounds counts the sub-rounds played as captain.
	CaptainRounds int
}

func (r *captainRecord) TotalScore() int {
	return r.BaseRecord.TotalScore() + r.CaptainKills*5 + r.CaptainRounds
}

func (r *captainRecord) Extra() map[string]int {
	return map[string]int{
		"captain_kills":  r.CaptainKills,
		"captain_rounds": r.CaptainRounds,
	}
}

// captain is a team mode played in sub-rounds. Each team has a captain and the
// team that kills the enemy captain wins the sub-round. Participants do not
// respawn within a sub-round.
type captain struct {
	modeBase
	captains     map[model.TeamID]model.PlayerID
	subRoundTime time.Duration
}

func newCaptain(b *Base) *captain {
	return &captain{
		modeBase: modeBase{b: b},
		captains: make(map[model.TeamID]model.PlayerID),
	}
}

func (m *captain) Teams(options model.RoomOptions) []TeamSpec {
	return twoTeams(options)
}

func (m *captain) NewRecord() player.Record {
	return &captainRecord{}
}

func (m *captain) OnTransition(t fsm.Transition[State, Trigger]) {
	switch {
	case t.Trigger == TriggerStartGame:
		m.startSubRound()
	case !isRoundState(t.Destination):
		m.captains = make(map[model.TeamID]model.PlayerID)
	}
}

// selectCaptain selects a random alive captain for the team.
func (m *captain) selectCaptain(teamID model.TeamID) {
	candidates := make([]*player.Participant, 0)
	for _, p := range m.b.activeParticipants() {
		if p.Team == teamID && p.State == model.PlayerStateAlive {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		delete(m.captains, teamID)
		return
	}
	selected := candidates[m.b.random.Intn(len(candidates))]
	m.captains[teamID] = selected.ID()
	if record, ok := selected.Record.(*captainRecord); ok {
		record.CaptainRounds++
	}
}

// startSubRound revives all participants and selects new captains.
func (m *captain) startSubRound() {
	m.subRoundTime = 0
	m.captains = make(map[model.TeamID]model.PlayerID)
	for _, p := range m.b.activeParticipants() {
		p.State = model.PlayerStateAlive
	}
	for _, info := range m.b.room.Roster().Teams() {
		m.selectCaptain(info.ID)
	}
	m.b.broadcastStatus()
}

func (m *captain) endSubRound() {
	m.captains = make(map[model.TeamID]model.PlayerID)
	m.b.block(m.b.deps.Timing.SubRoundPause)
	m.b.broadcastStatus()
}

// Tick ends the sub-round as draw if no captain was killed in time.
func (m *captain) Tick(elapsed time.Duration) {
	if len(m.captains) == 0 {
		return
	}
	m.subRoundTime += elapsed
	if m.subRoundTime >= m.b.deps.Timing.SubRound {
		m.endSubRound()
	}
}

func (m *captain) OnUnblock() {
	m.startSubRound()
}

func (m *captain) isCaptain(p *player.Participant) bool {
	captainID, ok := m.captains[p.Team]
	return ok && captainID == p.ID()
}

func (m *captain) OnKill(killer *player.Participant, victim *player.Participant, _ *player.Participant) {
	if !m.isCaptain(victim) {
		return
	}
	if record, ok := killer.Record.(*captainRecord); ok {
		record.CaptainKills++
	}
	m.b.addTeamScore(killer.Team, 1)
	m.endSubRound()
}

// OnSuicide of a captain gives the sub-round to the other team.
func (m *captain) OnSuicide(p *player.Participant) {
	m.forfeit(p)
}

// OnTeamKill of a captain gives the sub-round to the other team as well.
func (m *captain) OnTeamKill(_ *player.Participant, victim *player.Participant) {
	m.forfeit(victim)
}

// forfeit ends the sub-round in favor of the other teams if the given
// participant is a captain.
func (m *captain) forfeit(p *player.Participant) {
	if !m.isCaptain(p) {
		return
	}
	for _, info := range m.b.room.Roster().Teams() {
		if info.ID != p.Team {
			m.b.addTeamScore(info.ID, 1)
		}
	}
	m.endSubRound()
}

func (m *captain) CanRespawn(_ *player.Participant) bool {
	return false
}

// OnLeave selects a new captain if the captain left.
func (m *captain) OnLeave(p *player.Participant) {
	if !m.isCaptain(p) {
		return
	}
	m.selectCaptain(p.Team)
	m.b.broadcastStatus()
}

func (m *captain) Status() interface{} {
	status := captainStatus{
		Captains:    make([]captainEntry, 0, len(m.captains)),
		RemainingMS: (m.b.deps.Timing.SubRound - m.subRoundTime).Milliseconds(),
	}
	for _, info := range m.b.room.Roster().Teams() {
		if captainID, ok := m.captains[info.ID]; ok {
			status.Captains = append(status.Captains, captainEntry{Team: info.ID, Player: captainID})
		}
	}
	return status
}

type captainEntry struct {
	Team   model.TeamID   `json:"team"`
	Player model.PlayerID `json:"player"`
}

type captainStatus struct {
	Captains    []captainEntry `json:"captains"`
	RemainingMS int64          `json:"remaining_ms"`
}
