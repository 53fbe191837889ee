package event

import (
	"github.com/gobuffalo/nulls"
	"time"
)

// LogEntry is a published warning or error of the match server.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Logger  string    `json:"logger"`
	Message string    `json:"message"`
	// Channel is set if the entry was logged in the scope of a channel.
	Channel nulls.Int `json:"channel"`
	// Room is set if the entry was logged in the scope of a room.
	Room   nulls.Int              `json:"room"`
	Fields map[string]interface{} `json:"fields,omitempty"`
}

// LogBatchEvent holds log entries that were collected within one publish
// window.
type LogBatchEvent struct {
	Entries []LogEntry `json:"entries"`
}
