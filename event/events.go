// Package event holds the payloads of events that are published or received
// via portal.Portal.

package event

import (
	"github.com/eclipse/paho.golang/paho"
	"github.com/gobuffalo/nulls"
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/model"
)

// Event is a received event with its parsed payload.
type Event[T any] struct {
	Publish *paho.Publish
	Payload T
}

// EmptyEvent is used for events without payload.
type EmptyEvent struct{}

// ErrorEventPayload is used for publishing errors that occurred while handling
// received events.
type ErrorEventPayload struct {
	// Code is the error code from errors.Error.
	Code string `json:"code"`
	// Kind is the error kind from errors.Error.
	Kind string `json:"kind"`
	// Message is the message from errors.Error.
	Message string `json:"message"`
	// Details are error details from errors.Error.
	Details map[string]interface{} `json:"details"`
}

// ErrorEventPayloadFromError creates a ErrorEventPayload from the given error.
func ErrorEventPayloadFromError(err error) ErrorEventPayload {
	e, _ := errors.Cast(err)
	if !errors.BlameUser(err) {
		return ErrorEventPayload{
			Code:    string(e.Code),
			Message: "internal server error",
		}
	}
	return ErrorEventPayload{
		Code:    string(e.Code),
		Kind:    string(e.Kind),
		Message: e.Message,
		Details: e.Details,
	}
}

// NoticeEvent is received for notices that should be broadcast to players.
type NoticeEvent struct {
	// Channel is the optional channel to broadcast the notice in. If not set,
	// the notice is broadcast in all channels.
	Channel nulls.Int `json:"channel"`
	// Message is the notice text.
	Message string `json:"message" validate:"required,max=256"`
}

// RoomStateChangedEvent is published when the game state of a room changes.
type RoomStateChangedEvent struct {
	Channel model.ChannelID `json:"channel"`
	Room    model.RoomID    `json:"room"`
	Mode    model.GameMode  `json:"mode"`
	State   string          `json:"state"`
	Trigger string          `json:"trigger"`
	Members int             `json:"members"`
}

// RoomDisposedEvent is published when a room was disposed.
type RoomDisposedEvent struct {
	Channel model.ChannelID `json:"channel"`
	Room    model.RoomID    `json:"room"`
}
