// Package messages holds the messages that are exchanged with clients.

package messages

import (
	"encoding/json"
	"github.com/lefinal/masc-match/errors"
)

// MessageType is the type of message and serves for using the correct parsing
// method.
type MessageType string

// MessageContainer is a container for all messages that are received. It holds
// the type of the message and the still encoded content.
type MessageContainer struct {
	// MessageType is the type of the message.
	MessageType MessageType `json:"message_type"`
	// Content is the actual message content.
	Content json.RawMessage `json:"content,omitempty"`
}

// Message is an outgoing message.
type Message struct {
	// MessageType is the type of the message.
	MessageType MessageType `json:"message_type"`
	// Content is the content that will be encoded to JSON.
	Content interface{} `json:"content,omitempty"`
}

// Marshal the Message to JSON.
func (m Message) Marshal() ([]byte, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, errors.NewInternalErrorFromErr(err, "marshal message", errors.Details{"message_type": m.MessageType})
	}
	return raw, nil
}

// General message types.
const (
	// MessageTypeError is used for errors that occurred while handling a message
	// that could not be associated with a request. Used with MessageError.
	MessageTypeError MessageType = "error"
	// MessageTypeResult answers a request. Used with MessageResult.
	MessageTypeResult MessageType = "result"
	// MessageTypeWelcome is sent after a successful hello. Used with
	// MessageWelcome.
	MessageTypeWelcome MessageType = "welcome"
	// MessageTypeNotice is used for server notices. Used with MessageNotice.
	MessageTypeNotice MessageType = "notice"
)

// MessageError is used with MessageTypeError.
type MessageError struct {
	// Code is the error code from errors.Error.
	Code string `json:"code"`
	// Err is the error from errors.Error.
	Err string `json:"err"`
	// Message is the message from errors.Error.
	Message string `json:"message"`
	// Details are error details from errors.Error.
	Details map[string]interface{} `json:"details"`
}

// MessageErrorFromError creates a MessageError from the given error. Details
// are only included if the requester is to blame.
func MessageErrorFromError(err error) MessageError {
	e, _ := errors.Cast(err)
	if !errors.BlameUser(err) {
		return MessageError{
			Code:    string(e.Code),
			Message: "internal server error",
		}
	}
	return MessageError{
		Code:    string(e.Code),
		Err:     e.Error(),
		Message: e.Message,
		Details: e.Details,
	}
}

// MessageResult is used with MessageTypeResult.
type MessageResult struct {
	// Request is the type of the request that is being answered.
	Request MessageType `json:"request"`
	// Code is the result code.
	Code errors.ResultCode `json:"code"`
	// Message is an optional human-readable message for failed requests.
	Message string `json:"message,omitempty"`
}

// NewResult creates a MessageTypeResult Message for the given request and the
// error that occurred while handling it.
func NewResult(request MessageType, err error) Message {
	result := MessageResult{
		Request: request,
		Code:    errors.ResultCodeOf(err),
	}
	if err != nil && errors.BlameUser(err) {
		e, _ := errors.Cast(err)
		result.Message = e.Message
	}
	return Message{
		MessageType: MessageTypeResult,
		Content:     result,
	}
}

// MessageNotice is used with MessageTypeNotice.
type MessageNotice struct {
	// Message is the notice text.
	Message string `json:"message"`
}
