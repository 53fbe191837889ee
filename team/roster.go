// Package team provides the Roster that tracks team membership, capacity and
// score within a room.
package team

import (
	"fmt"
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/model"
	"sort"
	"sync"
)

// Info is a snapshot of a team.
type Info struct {
	ID             model.TeamID
	PlayerLimit    int
	SpectatorLimit int
	Score          int
	Playing        []model.PlayerID
	Spectating     []model.PlayerID
}

// Count returns the count of all members.
func (info Info) Count() int {
	return len(info.Playing) + len(info.Spectating)
}

// Assignment is the team and mode of a player.
type Assignment struct {
	Team model.TeamID
	Mode model.PlayerGameMode
	// seq is the join sequence number and used for choosing players to move
	// when balancing.
	seq uint64
}

// Move describes a player that was moved to another team.
type Move struct {
	Player model.PlayerID
	From   model.TeamID
	To     model.TeamID
}

type team struct {
	id             model.TeamID
	playerLimit    int
	spectatorLimit int
	score          int
	playing        map[model.PlayerID]struct{}
	spectating     map[model.PlayerID]struct{}
}

func (t *team) members(mode model.PlayerGameMode) map[model.PlayerID]struct{} {
	if mode == model.PlayerModeSpectate {
		return t.spectating
	}
	return t.playing
}

func (t *team) limit(mode model.PlayerGameMode) int {
	if mode == model.PlayerModeSpectate {
		return t.spectatorLimit
	}
	return t.playerLimit
}

func (t *team) hasCapacity(mode model.PlayerGameMode) bool {
	return len(t.members(mode)) < t.limit(mode)
}

func (t *team) info() Info {
	info := Info{
		ID:             t.id,
		PlayerLimit:    t.playerLimit,
		SpectatorLimit: t.spectatorLimit,
		Score:          t.score,
		Playing:        make([]model.PlayerID, 0, len(t.playing)),
		Spectating:     make([]model.PlayerID, 0, len(t.spectating)),
	}
	for id := range t.playing {
		info.Playing = append(info.Playing, id)
	}
	for id := range t.spectating {
		info.Spectating = append(info.Spectating, id)
	}
	sort.Slice(info.Playing, func(i, j int) bool { return info.Playing[i] < info.Playing[j] })
	sort.Slice(info.Spectating, func(i, j int) bool { return info.Spectating[i] < info.Spectating[j] })
	return info
}

// Roster tracks team membership, capacity and score. It is safe for
// concurrent use. The playing member count of a team never exceeds its player
// limit and the spectator count never exceeds its spectator limit.
type Roster struct {
	// m locks all following fields.
	m           sync.RWMutex
	teams       map[model.TeamID]*team
	assignments map[model.PlayerID]Assignment
	nextSeq     uint64
}

// NewRoster creates a new Roster without any teams.
func NewRoster() *Roster {
	return &Roster{
		teams:       make(map[model.TeamID]*team),
		assignments: make(map[model.PlayerID]Assignment),
	}
}

// AddTeam adds a team with the given limits.
func (r *Roster) AddTeam(id model.TeamID, playerLimit int, spectatorLimit int) error {
	r.m.Lock()
	defer r.m.Unlock()
	if id == model.TeamNone {
		return errors.NewBadRequestError(errors.KindUnknownTeam, "team none cannot be added", nil)
	}
	if _, ok := r.teams[id]; ok {
		return errors.Error{
			Code:    errors.ErrInternal,
			Kind:    errors.KindDuplicateTeam,
			Message: fmt.Sprintf("duplicate team %v", id),
			Details: errors.Details{"team": id.String()},
		}
	}
	r.teams[id] = &team{
		id:             id,
		playerLimit:    playerLimit,
		spectatorLimit: spectatorLimit,
		playing:        make(map[model.PlayerID]struct{}),
		spectating:     make(map[model.PlayerID]struct{}),
	}
	return nil
}

// RemoveTeam removes the team and returns the ids of its former members which
// are now unassigned.
func (r *Roster) RemoveTeam(id model.TeamID) []model.PlayerID {
	r.m.Lock()
	defer r.m.Unlock()
	t, ok := r.teams[id]
	if !ok {
		return nil
	}
	removed := make([]model.PlayerID, 0, len(t.playing)+len(t.spectating))
	for playerID := range t.playing {
		removed = append(removed, playerID)
		delete(r.assignments, playerID)
	}
	for playerID := range t.spectating {
		removed = append(removed, playerID)
		delete(r.assignments, playerID)
	}
	delete(r.teams, id)
	return removed
}

// Clear removes all teams and assignments.
func (r *Roster) Clear() {
	r.m.Lock()
	defer r.m.Unlock()
	r.teams = make(map[model.TeamID]*team)
	r.assignments = make(map[model.PlayerID]Assignment)
}

// Teams returns snapshots of all teams ordered by id.
func (r *Roster) Teams() []Info {
	r.m.RLock()
	defer r.m.RUnlock()
	infos := make([]Info, 0, len(r.teams))
	for _, t := range r.teams {
		infos = append(infos, t.info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Team returns a snapshot of the team with the given id.
func (r *Roster) Team(id model.TeamID) (Info, bool) {
	r.m.RLock()
	defer r.m.RUnlock()
	t, ok := r.teams[id]
	if !ok {
		return Info{}, false
	}
	return t.info(), true
}

// sortedTeams returns all teams ordered by id. r must be locked.
func (r *Roster) sortedTeams() []*team {
	teams := make([]*team, 0, len(r.teams))
	for _, t := range r.teams {
		teams = append(teams, t)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].id < teams[j].id })
	return teams
}

// leastPopulated returns the team with the fewest members for the given mode
// that still has capacity. Ties are resolved by team id. r must be locked.
func (r *Roster) leastPopulated(mode model.PlayerGameMode, exclude model.TeamID) (*team, bool) {
	var chosen *team
	for _, t := range r.sortedTeams() {
		if t.id == exclude || !t.hasCapacity(mode) {
			continue
		}
		if chosen == nil || len(t.members(mode)) < len(chosen.members(mode)) {
			chosen = t
		}
	}
	return chosen, chosen != nil
}

func capacityError(mode model.PlayerGameMode, details errors.Details) error {
	if mode == model.PlayerModeSpectate {
		return errors.NewCapacityError(errors.KindRoomFull, "no spectator slot left", details)
	}
	return errors.NewCapacityError(errors.KindTeamFull, "all teams full", details)
}

// Join assigns the player to the preferred team if it has capacity for the
// mode. Otherwise, or if no team is preferred, the team with the fewest members
// for the mode is chosen.
func (r *Roster) Join(playerID model.PlayerID, mode model.PlayerGameMode, preferred model.TeamID) (model.TeamID, error) {
	r.m.Lock()
	defer r.m.Unlock()
	if _, ok := r.assignments[playerID]; ok {
		return model.TeamNone, errors.NewInvalidStateError(errors.KindAlreadyInRoom, "player already assigned to team",
			errors.Details{"player_id": playerID})
	}
	var target *team
	if t, ok := r.teams[preferred]; ok && t.hasCapacity(mode) {
		target = t
	} else if t, ok := r.leastPopulated(mode, model.TeamNone); ok {
		target = t
	} else {
		return model.TeamNone, capacityError(mode, errors.Details{"player_id": playerID, "mode": mode})
	}
	target.members(mode)[playerID] = struct{}{}
	r.nextSeq++
	r.assignments[playerID] = Assignment{
		Team: target.id,
		Mode: mode,
		seq:  r.nextSeq,
	}
	return target.id, nil
}

// ChangeTeam moves the player to the given team, keeping the mode.
func (r *Roster) ChangeTeam(playerID model.PlayerID, teamID model.TeamID) error {
	r.m.Lock()
	defer r.m.Unlock()
	assignment, ok := r.assignments[playerID]
	if !ok {
		return errors.NewDesyncError(errors.KindUnknownPlayer, "player not assigned", errors.Details{"player_id": playerID})
	}
	target, ok := r.teams[teamID]
	if !ok {
		return errors.NewBadRequestError(errors.KindUnknownTeam, "unknown team", errors.Details{"team": teamID.String()})
	}
	if assignment.Team == teamID {
		return nil
	}
	if !target.hasCapacity(assignment.Mode) {
		return capacityError(assignment.Mode, errors.Details{"player_id": playerID, "team": teamID.String()})
	}
	delete(r.teams[assignment.Team].members(assignment.Mode), playerID)
	target.members(assignment.Mode)[playerID] = struct{}{}
	assignment.Team = teamID
	r.assignments[playerID] = assignment
	return nil
}

// ChangeMode changes the mode of the player. The current team is kept if it
// has capacity for the new mode. Otherwise, the least populated team is used.
// The new team is returned.
func (r *Roster) ChangeMode(playerID model.PlayerID, mode model.PlayerGameMode) (model.TeamID, error) {
	r.m.Lock()
	defer r.m.Unlock()
	assignment, ok := r.assignments[playerID]
	if !ok {
		return model.TeamNone, errors.NewDesyncError(errors.KindUnknownPlayer, "player not assigned",
			errors.Details{"player_id": playerID})
	}
	if assignment.Mode == mode {
		return assignment.Team, nil
	}
	current := r.teams[assignment.Team]
	target := current
	if !current.hasCapacity(mode) {
		var ok bool
		target, ok = r.leastPopulated(mode, current.id)
		if !ok {
			return model.TeamNone, capacityError(mode, errors.Details{"player_id": playerID, "mode": mode})
		}
	}
	delete(current.members(assignment.Mode), playerID)
	target.members(mode)[playerID] = struct{}{}
	assignment.Team = target.id
	assignment.Mode = mode
	r.assignments[playerID] = assignment
	return target.id, nil
}

// Remove the player from its team without any capacity checks. It returns
// false if the player was not assigned.
func (r *Roster) Remove(playerID model.PlayerID) bool {
	r.m.Lock()
	defer r.m.Unlock()
	assignment, ok := r.assignments[playerID]
	if !ok {
		return false
	}
	if t, ok := r.teams[assignment.Team]; ok {
		delete(t.members(assignment.Mode), playerID)
	}
	delete(r.assignments, playerID)
	return true
}

// AssignmentOf returns the Assignment of the player.
func (r *Roster) AssignmentOf(playerID model.PlayerID) (Assignment, bool) {
	r.m.RLock()
	defer r.m.RUnlock()
	assignment, ok := r.assignments[playerID]
	return assignment, ok
}

// Assignments returns a copy of all assignments.
func (r *Roster) Assignments() map[model.PlayerID]Assignment {
	r.m.RLock()
	defer r.m.RUnlock()
	assignments := make(map[model.PlayerID]Assignment, len(r.assignments))
	for id, assignment := range r.assignments {
		assignments[id] = assignment
	}
	return assignments
}

// Count returns the count of all assigned players.
func (r *Roster) Count() int {
	r.m.RLock()
	defer r.m.RUnlock()
	return len(r.assignments)
}

// PlayingCount returns the count of all playing members.
func (r *Roster) PlayingCount() int {
	r.m.RLock()
	defer r.m.RUnlock()
	count := 0
	for _, t := range r.teams {
		count += len(t.playing)
	}
	return count
}

// SpectatorCount returns the count of all spectators.
func (r *Roster) SpectatorCount() int {
	r.m.RLock()
	defer r.m.RUnlock()
	count := 0
	for _, t := range r.teams {
		count += len(t.spectating)
	}
	return count
}

// ResetScores sets the score of all teams to zero.
func (r *Roster) ResetScores() {
	r.m.Lock()
	defer r.m.Unlock()
	for _, t := range r.teams {
		t.score = 0
	}
}

// AddScore adds the delta to the score of the given team and returns the new
// score. Scores never drop below zero.
func (r *Roster) AddScore(teamID model.TeamID, delta int) (int, error) {
	r.m.Lock()
	defer r.m.Unlock()
	t, ok := r.teams[teamID]
	if !ok {
		return 0, errors.NewDesyncError(errors.KindUnknownTeam, "unknown team", errors.Details{"team": teamID.String()})
	}
	t.score += delta
	if t.score < 0 {
		t.score = 0
	}
	return t.score, nil
}

// Score returns the score of the given team or zero if not found.
func (r *Roster) Score(teamID model.TeamID) int {
	r.m.RLock()
	defer r.m.RUnlock()
	t, ok := r.teams[teamID]
	if !ok {
		return 0
	}
	return t.score
}

// Balance moves the most recently joined playing members from the largest to
// the smallest team until the playing member counts differ by at most one.
func (r *Roster) Balance() []Move {
	r.m.Lock()
	defer r.m.Unlock()
	moves := make([]Move, 0)
	if len(r.teams) < 2 {
		return moves
	}
	for {
		teams := r.sortedTeams()
		largest, smallest := teams[0], teams[0]
		for _, t := range teams {
			if len(t.playing) > len(largest.playing) {
				largest = t
			}
			if len(t.playing) < len(smallest.playing) {
				smallest = t
			}
		}
		if len(largest.playing)-len(smallest.playing) <= 1 || !smallest.hasCapacity(model.PlayerModeNormal) {
			return moves
		}
		// Choose the most recently joined.
		var chosen model.PlayerID
		var chosenSeq uint64
		for playerID := range largest.playing {
			if seq := r.assignments[playerID].seq; seq >= chosenSeq {
				chosen, chosenSeq = playerID, seq
			}
		}
		delete(largest.playing, chosen)
		smallest.playing[chosen] = struct{}{}
		assignment := r.assignments[chosen]
		assignment.Team = smallest.id
		r.assignments[chosen] = assignment
		moves = append(moves, Move{
			Player: chosen,
			From:   largest.id,
			To:     smallest.id,
		})
	}
}
