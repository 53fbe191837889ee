package games

import (
	"fmt"
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/fsm"
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/player"
	"time"
)

// TeamSpec describes a team to allocate for a mode.
type TeamSpec struct {
	ID             model.TeamID
	PlayerLimit    int
	SpectatorLimit int
}

// Mode holds the mode-specific parts of a rule. Scoring hooks are only called
// while scoring is enabled and after the base counters were updated.
type Mode interface {
	// Teams returns the teams to allocate for the given options.
	Teams(options model.RoomOptions) []TeamSpec
	// HasHalves describes whether the match is split into two halves.
	HasHalves() bool
	// IsFreeForAll describes whether there is a winner player instead of a
	// winner team.
	IsFreeForAll() bool
	NewRecord() player.Record
	// ScoreLimitReached checks the given score limit which is greater than
	// zero.
	ScoreLimitReached(limit int) bool
	// EnoughPlayers checks whether the match may continue.
	EnoughPlayers() bool
	OnTransition(t fsm.Transition[State, Trigger])
	// Tick is called in round states while playing is not blocked.
	Tick(elapsed time.Duration)
	// OnUnblock is called when a block set via Base.block expired.
	OnUnblock()
	OnKill(killer *player.Participant, victim *player.Participant, assist *player.Participant)
	OnTeamKill(killer *player.Participant, victim *player.Participant)
	OnSuicide(p *player.Participant)
	OnHeal(healer *player.Participant, target *player.Participant)
	OnObjective(p *player.Participant, objective string) error
	// CanRespawn checks whether the dead participant may respawn.
	CanRespawn(p *player.Participant) bool
	// OnLeave is called when a member left during a match.
	OnLeave(p *player.Participant)
	// Status returns the mode status for clients or nil if there is none.
	Status() interface{}
	// Brief adds mode-specific data to the briefing.
	Brief(briefing *Briefing)
}

// modeBase provides defaults for Mode.
type modeBase struct {
	b *Base
}

func (m modeBase) HasHalves() bool {
	return false
}

func (m modeBase) IsFreeForAll() bool {
	return false
}

func (m modeBase) NewRecord() player.Record {
	return &player.BaseRecord{}
}

func (m modeBase) ScoreLimitReached(limit int) bool {
	for _, score := range m.b.TeamScores() {
		if score.Score >= limit {
			return true
		}
	}
	return false
}

func (m modeBase) EnoughPlayers() bool {
	return m.b.everyTeamHasActivePlayers()
}

func (m modeBase) OnTransition(_ fsm.Transition[State, Trigger]) {}

func (m modeBase) Tick(_ time.Duration) {}

func (m modeBase) OnUnblock() {}

func (m modeBase) OnKill(_ *player.Participant, _ *player.Participant, _ *player.Participant) {}

func (m modeBase) OnTeamKill(_ *player.Participant, _ *player.Participant) {}

func (m modeBase) OnSuicide(_ *player.Participant) {}

func (m modeBase) OnHeal(_ *player.Participant, _ *player.Participant) {}

func (m modeBase) OnObjective(_ *player.Participant, objective string) error {
	return unknownObjectiveError(objective)
}

func (m modeBase) CanRespawn(_ *player.Participant) bool {
	return true
}

func (m modeBase) OnLeave(_ *player.Participant) {}

func (m modeBase) Status() interface{} {
	return nil
}

func (m modeBase) Brief(_ *Briefing) {}

func unknownObjectiveError(objective string) error {
	return errors.NewBadRequestError(errors.KindUnknownObjective, fmt.Sprintf("unknown objective: %s", objective),
		errors.Details{"objective": objective})
}

// twoTeams splits the limits of the options between alpha and beta. Alpha
// receives the larger half for odd limits.
func twoTeams(options model.RoomOptions) []TeamSpec {
	return []TeamSpec{
		{
			ID:             model.TeamAlpha,
			PlayerLimit:    (options.PlayerLimit + 1) / 2,
			SpectatorLimit: (options.SpectatorLimit + 1) / 2,
		},
		{
			ID:             model.TeamBeta,
			PlayerLimit:    options.PlayerLimit / 2,
			SpectatorLimit: options.SpectatorLimit / 2,
		},
	}
}

// singleTeam allocates all limits to the team with the given id.
func singleTeam(id model.TeamID, options model.RoomOptions) []TeamSpec {
	return []TeamSpec{
		{
			ID:             id,
			PlayerLimit:    options.PlayerLimit,
			SpectatorLimit: options.SpectatorLimit,
		},
	}
}
