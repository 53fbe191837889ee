package messages

import (
	"encoding/json"
	"github.com/lefinal/masc-match/errors"
)

// ParseContainer parses the given raw message into a MessageContainer.
func ParseContainer(raw []byte) (MessageContainer, error) {
	var container MessageContainer
	err := json.Unmarshal(raw, &container)
	if err != nil {
		return MessageContainer{}, errors.Error{
			Code:    errors.ErrBadRequest,
			Err:     err,
			Message: "parse message container",
		}
	}
	if container.MessageType == "" {
		return MessageContainer{}, errors.NewBadRequestError("", "missing message type", nil)
	}
	return container, nil
}

// DecodeContent decodes the content of the given MessageContainer into the
// given type. Missing content results in the zero value.
func DecodeContent[T any](container MessageContainer) (T, error) {
	var content T
	if len(container.Content) == 0 {
		return content, nil
	}
	err := json.Unmarshal(container.Content, &content)
	if err != nil {
		return content, errors.Error{
			Code:    errors.ErrBadRequest,
			Err:     err,
			Message: "decode message content",
			Details: errors.Details{"message_type": container.MessageType},
		}
	}
	return content, nil
}
