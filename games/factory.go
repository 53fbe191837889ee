package games

import (
	"fmt"
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/model"
)

// modeFactories creates the Mode for each game mode.
var modeFactories = map[model.GameMode]func(b *Base) Mode{
	model.GameModeDeathmatch:  func(b *Base) Mode { return newDeathmatch(b) },
	model.GameModeTouchdown:   func(b *Base) Mode { return newTouchdown(b) },
	model.GameModeBattleRoyal: func(b *Base) Mode { return newBattleRoyal(b) },
	model.GameModeChaser:      func(b *Base) Mode { return newChaser(b) },
	model.GameModeCaptain:     func(b *Base) Mode { return newCaptain(b) },
	model.GameModeSiege:       func(b *Base) Mode { return newSiege(b) },
	model.GameModePractice:    func(b *Base) Mode { return newPractice(b) },
	model.GameModeArcade:      func(b *Base) Mode { return newArcade(b) },
}

// New creates the Rule for the game mode of the room's options. The rule still
// needs to be initialized via Rule.Initialize.
func New(room Room, deps Deps) (Rule, error) {
	return newRule(room, deps)
}

func newRule(room Room, deps Deps) (*Base, error) {
	gameMode := room.Options().Mode
	factory, ok := modeFactories[gameMode]
	if !ok {
		return nil, errors.NewBadRequestError(errors.KindInvalidMode, fmt.Sprintf("unknown game mode: %s", gameMode),
			errors.Details{"mode": gameMode})
	}
	b := newBase(room, deps, gameMode)
	b.mode = factory(b)
	b.configure()
	return b, nil
}
