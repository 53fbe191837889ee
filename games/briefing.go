package games

import (
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/model"
	"github.com/vmihailenco/msgpack/v5"
	"sort"
)

// Briefing is the summary of a match that is broadcast at round start and when
// the result is reached.
type Briefing struct {
	Mode    model.GameMode `msgpack:"mode"`
	MatchID string         `msgpack:"match_id"`
	// IsFreeForAll is set for modes where players instead of teams win.
	IsFreeForAll bool `msgpack:"ffa"`
	// Cooperative is set for modes where the single team wins if Cleared is
	// set.
	Cooperative bool `msgpack:"coop"`
	Cleared     bool `msgpack:"cleared"`
	// NoWinner is set for modes without winners.
	NoWinner bool             `msgpack:"no_winner"`
	Teams    []BriefingTeam   `msgpack:"teams"`
	Players  []BriefingPlayer `msgpack:"players"`
}

// BriefingTeam is a team in a Briefing.
type BriefingTeam struct {
	Team  model.TeamID `msgpack:"team"`
	Score int          `msgpack:"score"`
	// TieBreak is compared if teams have equal scores.
	TieBreak int `msgpack:"tie_break"`
}

// BriefingPlayer is a player in a Briefing.
type BriefingPlayer struct {
	Player   model.PlayerID `msgpack:"player"`
	Nickname string         `msgpack:"nickname"`
	Team     model.TeamID   `msgpack:"team"`
	Score    int            `msgpack:"score"`
	Kills    int            `msgpack:"kills"`
	Deaths   int            `msgpack:"deaths"`
	Assists  int            `msgpack:"assists"`
	Heals    int            `msgpack:"heals"`
	Suicides int            `msgpack:"suicides"`
	// Placement starts at 1 and is only set for free-for-all modes.
	Placement int            `msgpack:"placement"`
	Extra     map[string]int `msgpack:"extra,omitempty"`
}

// WinnerTeam returns the team with the highest score. Equal scores are decided
// by BriefingTeam.TieBreak. model.TeamNone is returned for draws and if there
// is no winner team.
func (b Briefing) WinnerTeam() model.TeamID {
	if b.NoWinner || b.IsFreeForAll || len(b.Teams) == 0 {
		return model.TeamNone
	}
	if b.Cooperative {
		if b.Cleared {
			return b.Teams[0].Team
		}
		return model.TeamNone
	}
	teams := append([]BriefingTeam(nil), b.Teams...)
	sort.SliceStable(teams, func(i, j int) bool {
		if teams[i].Score != teams[j].Score {
			return teams[i].Score > teams[j].Score
		}
		return teams[i].TieBreak > teams[j].TieBreak
	})
	if len(teams) > 1 && teams[0].Score == teams[1].Score && teams[0].TieBreak == teams[1].TieBreak {
		return model.TeamNone
	}
	return teams[0].Team
}

// WinnerPlayer returns the player with placement 1 in free-for-all modes.
func (b Briefing) WinnerPlayer() (model.PlayerID, bool) {
	if !b.IsFreeForAll || b.NoWinner {
		return 0, false
	}
	for _, p := range b.Players {
		if p.Placement == 1 {
			return p.ID(), true
		}
	}
	return 0, false
}

// ID returns the player id.
func (p BriefingPlayer) ID() model.PlayerID {
	return p.Player
}

// Outcome returns whether the given player won and whether the match had a
// decided outcome at all.
func (b Briefing) Outcome(playerID model.PlayerID) (won bool, decided bool) {
	if b.NoWinner {
		return false, false
	}
	if b.IsFreeForAll {
		winner, ok := b.WinnerPlayer()
		if !ok {
			return false, false
		}
		return winner == playerID, true
	}
	if b.Cooperative {
		return b.Cleared, true
	}
	winnerTeam := b.WinnerTeam()
	if winnerTeam == model.TeamNone {
		return false, false
	}
	for _, p := range b.Players {
		if p.Player == playerID {
			return p.Team == winnerTeam, true
		}
	}
	return false, true
}

// assignPlacements sorts the players using the given less function and sets
// their placements.
func (b *Briefing) assignPlacements(less func(a, b BriefingPlayer) bool) {
	sort.SliceStable(b.Players, func(i, j int) bool {
		return less(b.Players[i], b.Players[j])
	})
	for i := range b.Players {
		b.Players[i].Placement = i + 1
	}
}

// byScore orders players by score, then kills, then deaths ascending.
func byScore(a, b BriefingPlayer) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Kills != b.Kills {
		return a.Kills > b.Kills
	}
	return a.Deaths < b.Deaths
}

// briefingAlias avoids recursion through encoding.BinaryMarshaler when
// encoding with msgpack.
type briefingAlias Briefing

// MarshalBinary encodes the briefing using msgpack.
func (b Briefing) MarshalBinary() ([]byte, error) {
	data, err := msgpack.Marshal(briefingAlias(b))
	if err != nil {
		return nil, errors.NewInternalErrorFromErr(err, "marshal briefing", nil)
	}
	return data, nil
}

// UnmarshalBinary decodes a briefing encoded with MarshalBinary.
func (b *Briefing) UnmarshalBinary(data []byte) error {
	var alias briefingAlias
	err := msgpack.Unmarshal(data, &alias)
	if err != nil {
		return errors.Error{Code: errors.ErrBadRequest, Err: err, Message: "unmarshal briefing"}
	}
	*b = Briefing(alias)
	return nil
}

// Briefing creates the current briefing. Teams are taken from the roster and
// players from all active participants.
func (b *Base) Briefing() Briefing {
	briefing := Briefing{
		Mode:         b.gameMode,
		MatchID:      b.matchID.String(),
		IsFreeForAll: b.mode.IsFreeForAll(),
	}
	tieBreaks := make(map[model.TeamID]int)
	for _, p := range b.activeParticipants() {
		base := p.Record.Base()
		tieBreaks[p.Team] += base.Kills
		briefing.Players = append(briefing.Players, BriefingPlayer{
			Player:   p.ID(),
			Nickname: p.Nickname(),
			Team:     p.Team,
			Score:    p.Record.TotalScore(),
			Kills:    base.Kills,
			Deaths:   base.Deaths,
			Assists:  base.Assists,
			Heals:    base.Heals,
			Suicides: base.Suicides,
			Extra:    p.Record.Extra(),
		})
	}
	for _, info := range b.room.Roster().Teams() {
		briefing.Teams = append(briefing.Teams, BriefingTeam{
			Team:     info.ID,
			Score:    info.Score,
			TieBreak: tieBreaks[info.ID],
		})
	}
	if briefing.IsFreeForAll {
		briefing.assignPlacements(byScore)
	}
	b.mode.Brief(&briefing)
	return briefing
}
