package debugstatssvc

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"testing"
	"time"
)

const timeout = 5 * time.Second

type counterStub struct{}

func (counterStub) RoomCount() int {
	return 2
}

func (counterStub) PlayerCount() int {
	return 5
}

func TestDisabled(t *testing.T) {
	s := NewService(zap.NewNop(), Config{IsEnabled: false, Interval: time.Second}, counterStub{})
	assert.NoError(t, s.Run(context.Background()), "should return immediately")
}

func TestRun(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s := NewService(zap.New(core), Config{
		IsEnabled:    true,
		Interval:     time.Millisecond,
		IncludeStack: true,
	}, counterStub{})
	done := make(chan error)
	go func() {
		done <- s.Run(ctx)
	}()
	for logs.FilterMessage("debug stats").Len() == 0 {
		select {
		case <-ctx.Done():
			t.Fatal("timeout while waiting for stats")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	require.NoError(t, <-done)
	entry := logs.FilterMessage("debug stats").All()[0]
	fields := entry.ContextMap()
	assert.EqualValues(t, 2, fields["rooms"])
	assert.EqualValues(t, 5, fields["players"])
	assert.Contains(t, fields, "stack")
}
