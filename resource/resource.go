// Package resource provides the catalog of maps and experience tables that
// rooms are validated and rewarded with.
package resource

import (
	"encoding/json"
	"fmt"
	"github.com/lefinal/masc-match/embedded"
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/model"
	"math/rand"
	"sort"
	"time"
)

// Map is a playable map.
type Map struct {
	ID   model.MapID `json:"id"`
	Name string      `json:"name"`
	// Modes are the game modes the map supports.
	Modes []model.GameMode `json:"modes"`
	// PlayerLimit is the maximum player limit a room on this map may have.
	PlayerLimit int `json:"player_limit"`
}

// Supports checks whether the map can be played with the given mode.
func (m Map) Supports(mode model.GameMode) bool {
	for _, supported := range m.Modes {
		if supported == mode {
			return true
		}
	}
	return false
}

// ExperienceTable describes how experience is calculated for a game mode.
type ExperienceTable struct {
	// PerMinute is the experience for each full minute of play time.
	PerMinute int `json:"per_minute"`
	// ScorePercent is the percentage of the total score that is granted.
	ScorePercent int `json:"score_percent"`
	// WinBonus is granted to winners.
	WinBonus int `json:"win_bonus"`
	// Max caps the experience of a single match.
	Max int `json:"max"`
}

type experienceFile struct {
	Default ExperienceTable                    `json:"default"`
	Modes   map[model.GameMode]ExperienceTable `json:"modes"`
}

// Catalog holds all maps and experience tables. It is read-only after loading
// and therefore safe for concurrent use.
type Catalog struct {
	maps              map[model.MapID]Map
	defaultExperience ExperienceTable
	experience        map[model.GameMode]ExperienceTable
}

// Load the catalog from the embedded resources.
func Load() (*Catalog, error) {
	return Parse(embedded.CatalogMaps, embedded.CatalogExperience)
}

// Parse the catalog from the given JSON encoded maps and experience tables.
func Parse(rawMaps []byte, rawExperience []byte) (*Catalog, error) {
	var maps []Map
	err := json.Unmarshal(rawMaps, &maps)
	if err != nil {
		return nil, errors.NewInternalErrorFromErr(err, "parse maps", nil)
	}
	var experience experienceFile
	err = json.Unmarshal(rawExperience, &experience)
	if err != nil {
		return nil, errors.NewInternalErrorFromErr(err, "parse experience tables", nil)
	}
	c := &Catalog{
		maps:              make(map[model.MapID]Map, len(maps)),
		defaultExperience: experience.Default,
		experience:        experience.Modes,
	}
	if c.experience == nil {
		c.experience = make(map[model.GameMode]ExperienceTable)
	}
	for _, m := range maps {
		if m.ID == "" || m.ID == model.MapRandom {
			return nil, errors.NewInternalError(fmt.Sprintf("invalid map id %q", m.ID), nil)
		}
		if _, ok := c.maps[m.ID]; ok {
			return nil, errors.NewInternalError(fmt.Sprintf("duplicate map %q", m.ID), nil)
		}
		for _, mode := range m.Modes {
			if !model.IsKnownGameMode(mode) {
				return nil, errors.NewInternalError(fmt.Sprintf("map %q references unknown mode %q", m.ID, mode), nil)
			}
		}
		c.maps[m.ID] = m
	}
	return c, nil
}

// Map returns the map with the given id.
func (c *Catalog) Map(id model.MapID) (Map, bool) {
	m, ok := c.maps[id]
	return m, ok
}

// Maps returns all maps ordered by id.
func (c *Catalog) Maps() []Map {
	maps := make([]Map, 0, len(c.maps))
	for _, m := range c.maps {
		maps = append(maps, m)
	}
	sort.Slice(maps, func(i, j int) bool { return maps[i].ID < maps[j].ID })
	return maps
}

// candidates returns all maps that support the mode with the given player
// limit ordered by id.
func (c *Catalog) candidates(mode model.GameMode, playerLimit int) []Map {
	candidates := make([]Map, 0)
	for _, m := range c.Maps() {
		if m.Supports(mode) && m.PlayerLimit >= playerLimit {
			candidates = append(candidates, m)
		}
	}
	return candidates
}

// ValidateRoomOptions validates the options and checks the map and mode
// combination. model.MapRandom is accepted if any map supports the mode.
func (c *Catalog) ValidateRoomOptions(options model.RoomOptions) error {
	err := options.Validate()
	if err != nil {
		return err
	}
	if options.Map == model.MapRandom {
		if len(c.candidates(options.Mode, options.PlayerLimit)) == 0 {
			return errors.NewBadRequestError(errors.KindInvalidMap, "no map available for random selection",
				errors.Details{"mode": options.Mode, "player_limit": options.PlayerLimit})
		}
		return nil
	}
	m, ok := c.maps[options.Map]
	if !ok {
		return errors.NewBadRequestError(errors.KindInvalidMap, fmt.Sprintf("unknown map %q", options.Map),
			errors.Details{"map": options.Map})
	}
	if !m.Supports(options.Mode) {
		return errors.NewBadRequestError(errors.KindInvalidMap, "map does not support mode",
			errors.Details{"map": options.Map, "mode": options.Mode})
	}
	if options.PlayerLimit > m.PlayerLimit {
		return errors.NewBadRequestError(errors.KindInvalidMap, "player limit exceeds map limit",
			errors.Details{"map": options.Map, "player_limit": options.PlayerLimit, "map_player_limit": m.PlayerLimit})
	}
	return nil
}

// ResolveRandomMap replaces model.MapRandom with a random map that supports the
// mode and player limit. Other maps are returned unchanged.
func (c *Catalog) ResolveRandomMap(options model.RoomOptions, random *rand.Rand) (model.RoomOptions, error) {
	if options.Map != model.MapRandom {
		return options, nil
	}
	candidates := c.candidates(options.Mode, options.PlayerLimit)
	if len(candidates) == 0 {
		return options, errors.NewBadRequestError(errors.KindInvalidMap, "no map available for random selection",
			errors.Details{"mode": options.Mode, "player_limit": options.PlayerLimit})
	}
	options.Map = candidates[random.Intn(len(candidates))].ID
	return options, nil
}

// ExperienceTable returns the table for the given mode or the default one.
func (c *Catalog) ExperienceTable(mode model.GameMode) ExperienceTable {
	if table, ok := c.experience[mode]; ok {
		return table
	}
	return c.defaultExperience
}

// Experience calculates the experience for a participant. Negative scores do
// not reduce experience.
func (c *Catalog) Experience(mode model.GameMode, playTime time.Duration, score int, won bool) int {
	table := c.ExperienceTable(mode)
	experience := int(playTime/time.Minute) * table.PerMinute
	if score > 0 {
		experience += score * table.ScorePercent / 100
	}
	if won {
		experience += table.WinBonus
	}
	if table.Max > 0 && experience > table.Max {
		experience = table.Max
	}
	return experience
}
