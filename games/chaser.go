package games

import (
	"github.com/lefinal/masc-match/fsm"
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/player"
	"go.uber.org/zap"
	"time"
)

type chaserRecord struct {
	player.BaseRecord
	// ChaserKills are kills made as chaser.
	ChaserKills int
	// ChaserKilled counts how often the chaser was killed by this participant.
	ChaserKilled int
	// Survived counts the sub-rounds survived as non-chaser.
	Survived int
}

func (r *chaserRecord) TotalScore() int {
	return r.Kills + r.ChaserKills*2 + r.ChaserKilled*5 + r.Survived*3
}

func (r *chaserRecord) Extra() map[string]int {
	return map[string]int{
		"chaser_kills":  r.ChaserKills,
		"chaser_killed": r.ChaserKilled,
		"survived":      r.Survived,
	}
}

// chaser is a free-for-all mode played in sub-rounds. Each sub-round, one
// random participant becomes the chaser that hunts all others. Dead
// participants respawn with the next sub-round.
type chaser struct {
	modeBase
	chaser       model.PlayerID
	hasChaser    bool
	subRoundTime time.Duration
	subRounds    int
}

func newChaser(b *Base) *chaser {
	return &chaser{modeBase: modeBase{b: b}}
}

func (m *chaser) Teams(options model.RoomOptions) []TeamSpec {
	return singleTeam(model.TeamNeutral, options)
}

func (m *chaser) IsFreeForAll() bool {
	return true
}

func (m *chaser) NewRecord() player.Record {
	return &chaserRecord{}
}

func (m *chaser) OnTransition(t fsm.Transition[State, Trigger]) {
	switch {
	case t.Trigger == TriggerStartGame:
		m.subRounds = 0
		m.startSubRound()
	case !isRoundState(t.Destination):
		m.hasChaser = false
	}
}

// startSubRound revives all participants and selects a new chaser.
func (m *chaser) startSubRound() {
	active := m.b.activeParticipants()
	m.hasChaser = false
	m.subRoundTime = 0
	if len(active) == 0 {
		return
	}
	for _, p := range active {
		p.State = model.PlayerStateAlive
	}
	selected := active[m.b.random.Intn(len(active))]
	m.chaser = selected.ID()
	m.hasChaser = true
	m.subRounds++
	m.b.logger.Debug("chaser selected", zap.Any("player_id", m.chaser), zap.Int("sub_round", m.subRounds))
	m.b.broadcastStatus()
}

// endSubRound blocks playing for the pause between sub-rounds.
func (m *chaser) endSubRound() {
	m.hasChaser = false
	m.b.block(m.b.deps.Timing.SubRoundPause)
	m.b.broadcastStatus()
}

func (m *chaser) Tick(elapsed time.Duration) {
	if !m.hasChaser {
		return
	}
	m.subRoundTime += elapsed
	if m.subRoundTime < m.b.deps.Timing.SubRound {
		return
	}
	for _, p := range m.b.activeParticipants() {
		if p.ID() == m.chaser || p.State != model.PlayerStateAlive {
			continue
		}
		if record, ok := p.Record.(*chaserRecord); ok {
			record.Survived++
		}
	}
	m.endSubRound()
}

func (m *chaser) OnUnblock() {
	m.startSubRound()
}

func (m *chaser) OnKill(killer *player.Participant, victim *player.Participant, _ *player.Participant) {
	if !m.hasChaser {
		return
	}
	switch {
	case killer.ID() == m.chaser:
		if record, ok := killer.Record.(*chaserRecord); ok {
			record.ChaserKills++
		}
	case victim.ID() == m.chaser:
		if record, ok := killer.Record.(*chaserRecord); ok {
			record.ChaserKilled++
		}
		m.endSubRound()
	}
}

func (m *chaser) OnSuicide(p *player.Participant) {
	if m.hasChaser && p.ID() == m.chaser {
		m.endSubRound()
	}
}

// CanRespawn is always false as participants respawn with the next sub-round.
func (m *chaser) CanRespawn(_ *player.Participant) bool {
	return false
}

func (m *chaser) OnLeave(p *player.Participant) {
	if m.hasChaser && p.ID() == m.chaser && isRoundState(m.b.State()) {
		m.endSubRound()
	}
}

// ScoreLimitReached checks the total score of each participant.
func (m *chaser) ScoreLimitReached(limit int) bool {
	for _, p := range m.b.activeParticipants() {
		if p.Record.TotalScore() >= limit {
			return true
		}
	}
	return false
}

func (m *chaser) EnoughPlayers() bool {
	active := len(m.b.activeParticipants())
	if m.b.room.Options().IsFriendly {
		return active > 0
	}
	return active > 1
}

func (m *chaser) Status() interface{} {
	status := chaserStatus{
		HasChaser: m.hasChaser,
		SubRound:  m.subRounds,
	}
	if m.hasChaser {
		status.Chaser = m.chaser
		status.RemainingMS = (m.b.deps.Timing.SubRound - m.subRoundTime).Milliseconds()
	}
	return status
}

type chaserStatus struct {
	HasChaser   bool           `json:"has_chaser"`
	Chaser      model.PlayerID `json:"chaser,omitempty"`
	SubRound    int            `json:"sub_round"`
	RemainingMS int64          `json:"remaining_ms"`
}
