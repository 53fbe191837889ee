package logging

import (
	"context"
	"go.uber.org/zap/zapcore"
	"strings"
	"time"
)

// publishBufferSize is the size of the channel for entries to publish. Entries
// are dropped when it is full.
const publishBufferSize = 256

// LogEntry is a log entry that is forwarded for publishing.
type LogEntry struct {
	Time       time.Time
	Message    string
	Level      zapcore.Level
	LoggerName string
	Fields     map[string]interface{}
}

// publishCore is a zapcore.Core that forwards entries to a channel.
type publishCore struct {
	zapcore.LevelEnabler
	ctx         context.Context
	omitLoggers []string
	fields      []zapcore.Field
	entries     chan<- LogEntry
}

// NewPublishCore creates a zapcore.Core that forwards entries with at least the
// given level to the returned channel. Entries of loggers whose names start
// with one of the given omitted ones are skipped. This avoids loops when
// publishing itself logs. The channel is closed when the given
// context.Context is done.
func NewPublishCore(ctx context.Context, level zapcore.Level, omitLoggers ...string) (zapcore.Core, <-chan LogEntry) {
	entries := make(chan LogEntry, publishBufferSize)
	out := make(chan LogEntry)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case entry := <-entries:
				select {
				case <-ctx.Done():
					return
				case out <- entry:
				}
			}
		}
	}()
	return &publishCore{
		LevelEnabler: level,
		ctx:          ctx,
		omitLoggers:  omitLoggers,
		entries:      entries,
	}, out
}

func (c *publishCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field(nil), c.fields...), fields...)
	return &clone
}

func (c *publishCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(entry.Level) || c.isOmitted(entry.LoggerName) {
		return checked
	}
	return checked.AddCore(entry, c)
}

func (c *publishCore) isOmitted(loggerName string) bool {
	for _, omit := range c.omitLoggers {
		if strings.HasPrefix(loggerName, omit) {
			return true
		}
	}
	return false
}

func (c *publishCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, field := range c.fields {
		field.AddTo(enc)
	}
	for _, field := range fields {
		field.AddTo(enc)
	}
	logEntry := LogEntry{
		Time:       entry.Time,
		Message:    entry.Message,
		Level:      entry.Level,
		LoggerName: entry.LoggerName,
		Fields:     enc.Fields,
	}
	select {
	case <-c.ctx.Done():
	case c.entries <- logEntry:
	default:
		// Drop as we must not block.
	}
	return nil
}

func (c *publishCore) Sync() error {
	return nil
}
