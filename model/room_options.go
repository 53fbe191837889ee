package model

import (
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/lefinal/masc-match/errors"
	"time"
)

// MapRandom is the pseudo map that is resolved to a random map of the
// requested mode when the room is created.
const MapRandom MapID = "random"

// RoomOptions are the options a room is created or reconfigured with.
type RoomOptions struct {
	// Name is the display name of the room.
	Name string `json:"name" validate:"max=32"`
	// Mode is the game mode.
	Mode GameMode `json:"mode" validate:"required"`
	// Map is the map to play on. Resolved via the resource catalog.
	Map MapID `json:"map" validate:"required"`
	// ScoreLimit is the score one team needs in order to win. Zero disables
	// the limit.
	ScoreLimit int `json:"score_limit" validate:"gte=0,lte=1000"`
	// TimeLimit is the round time limit. For modes with halves, each half lasts
	// half of it. Zero disables the limit.
	TimeLimit time.Duration `json:"time_limit" validate:"gte=0"`
	// PlayerLimit is the maximum count of playing members.
	PlayerLimit int `json:"player_limit" validate:"gte=1,lte=16"`
	// SpectatorLimit is the maximum count of spectators.
	SpectatorLimit int `json:"spectator_limit" validate:"gte=0,lte=12"`
	// Password is an optional room password.
	Password string `json:"password,omitempty" validate:"max=16"`
	// IsFriendly rooms can always be started by the master.
	IsFriendly bool `json:"is_friendly"`
	// IsBurning doubles gained experience.
	IsBurning bool `json:"is_burning"`
	// NoStats disables win/loss counting and persistence.
	NoStats bool `json:"no_stats"`
	// NoIntrusion forbids joining matches in progress.
	NoIntrusion bool `json:"no_intrusion"`
}

// HasPassword checks whether the room requires a password.
func (o RoomOptions) HasPassword() bool {
	return o.Password != ""
}

// Capacity is the count of members a room with these options can hold.
func (o RoomOptions) Capacity() int {
	return o.PlayerLimit + o.SpectatorLimit
}

var optionsValidator = validator.New()

// Validate the options structurally. Map and mode combinations are checked by
// the resource catalog.
func (o RoomOptions) Validate() error {
	err := optionsValidator.Struct(o)
	if err != nil {
		return errors.Error{
			Code:    errors.ErrBadRequest,
			Kind:    errors.KindInvalidOptions,
			Err:     err,
			Message: "invalid room options",
		}
	}
	if !IsKnownGameMode(o.Mode) {
		return errors.NewBadRequestError(errors.KindInvalidMode, fmt.Sprintf("unknown game mode %q", o.Mode),
			errors.Details{"mode": o.Mode})
	}
	return nil
}

// IsKnownGameMode checks whether the given mode is part of GameModes.
func IsKnownGameMode(mode GameMode) bool {
	for _, m := range GameModes {
		if m == mode {
			return true
		}
	}
	return false
}
