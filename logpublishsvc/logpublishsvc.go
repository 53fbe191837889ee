// Package logpublishsvc publishes log entries via MQTT so that operators can
// watch warnings of the match server remotely.
package logpublishsvc

import (
	"context"
	"github.com/gobuffalo/nulls"
	"github.com/lefinal/masc-match/event"
	"github.com/lefinal/masc-match/logging"
	"github.com/lefinal/masc-match/portal"
	"github.com/lefinal/masc-match/service"
	"go.uber.org/zap"
	"reflect"
	"time"
)

// topicLogBatch is the topic log batches are published to.
const topicLogBatch portal.Topic = "lefinal/masc-match/log/batch"

// collectWindow is the time entries are collected after the first one arrived.
const collectWindow = 100 * time.Millisecond

// maxBatchSize is the maximum count of entries in one batch. A full batch is
// published right away.
const maxBatchSize = 64

// Field keys that attribute entries to channels and rooms.
const (
	fieldChannelID = "channel_id"
	fieldRoomID    = "room_id"
)

// logPublishService publishes batches of log entries to the portal.
type logPublishService struct {
	logger       *zap.Logger
	portal       portal.Portal
	logEntriesIn <-chan logging.LogEntry
}

// New creates the service. Entries are read from logEntriesIn until it is
// closed.
func New(logger *zap.Logger, portal portal.Portal, logEntriesIn <-chan logging.LogEntry) service.Service {
	return &logPublishService{
		logger:       logger,
		portal:       portal,
		logEntriesIn: logEntriesIn,
	}
}

// Run the service until the given context.Context is done or the entry
// channel is closed. Entries collected so far are published before returning
// on channel close.
func (s *logPublishService) Run(ctx context.Context) error {
	if s.logEntriesIn == nil {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case entry, more := <-s.logEntriesIn:
			if !more {
				return nil
			}
			batch, more := s.collect(ctx, entry)
			if len(batch) > 0 {
				s.portal.Publish(ctx, topicLogBatch, event.LogBatchEvent{Entries: batch})
			}
			if !more {
				return nil
			}
		}
	}
}

// collect entries starting with the given one until the collect window passed
// or the batch is full. It reports false if the entry channel was closed.
func (s *logPublishService) collect(ctx context.Context, first logging.LogEntry) ([]event.LogEntry, bool) {
	batch := []event.LogEntry{entryEvent(first)}
	windowEnd := time.NewTimer(collectWindow)
	defer windowEnd.Stop()
	for len(batch) < maxBatchSize {
		select {
		case <-ctx.Done():
			return nil, true
		case <-windowEnd.C:
			return batch, true
		case entry, more := <-s.logEntriesIn:
			if !more {
				return batch, false
			}
			batch = append(batch, entryEvent(entry))
		}
	}
	return batch, true
}

// entryEvent converts the logging.LogEntry and extracts channel and room ids
// from its fields.
func entryEvent(entry logging.LogEntry) event.LogEntry {
	return event.LogEntry{
		Time:    entry.Time,
		Level:   entry.Level.String(),
		Logger:  entry.LoggerName,
		Message: entry.Message,
		Channel: intField(entry.Fields, fieldChannelID),
		Room:    intField(entry.Fields, fieldRoomID),
		Fields:  entry.Fields,
	}
}

// intField returns the integer value of the field with the given key. Named
// integer types like ids are accepted as well.
func intField(fields map[string]interface{}, key string) nulls.Int {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return nulls.Int{}
	}
	v := reflect.ValueOf(raw)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return nulls.NewInt(int(v.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return nulls.NewInt(int(v.Uint()))
	}
	return nulls.Int{}
}
