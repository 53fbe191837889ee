package player

import (
	"github.com/lefinal/masc-match/messages"
	"sync"
)

// SessionMock is a Session that records all sent messages.
type SessionMock struct {
	m      sync.Mutex
	sent   []messages.Message
	closed bool
}

// Send records the message.
func (s *SessionMock) Send(message messages.Message) {
	s.m.Lock()
	defer s.m.Unlock()
	s.sent = append(s.sent, message)
}

// Close marks the session as closed.
func (s *SessionMock) Close() {
	s.m.Lock()
	defer s.m.Unlock()
	s.closed = true
}

// Sent returns all sent messages.
func (s *SessionMock) Sent() []messages.Message {
	s.m.Lock()
	defer s.m.Unlock()
	return append([]messages.Message(nil), s.sent...)
}

// SentOfType returns all sent messages with the given type.
func (s *SessionMock) SentOfType(messageType messages.MessageType) []messages.Message {
	s.m.Lock()
	defer s.m.Unlock()
	filtered := make([]messages.Message, 0)
	for _, message := range s.sent {
		if message.MessageType == messageType {
			filtered = append(filtered, message)
		}
	}
	return filtered
}

// IsClosed describes whether Close was called.
func (s *SessionMock) IsClosed() bool {
	s.m.Lock()
	defer s.m.Unlock()
	return s.closed
}

// Reset clears all sent messages.
func (s *SessionMock) Reset() {
	s.m.Lock()
	defer s.m.Unlock()
	s.sent = nil
}
