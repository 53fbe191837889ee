package store

import (
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/lefinal/masc-match/event"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestStatsRecord(t *testing.T) {
	tests := []struct {
		name       string
		result     event.MatchPlayerResult
		wantWins   int
		wantLosses int
	}{
		{
			name:     "won",
			result:   event.MatchPlayerResult{Player: 1, Won: true, Decided: true, Experience: 12},
			wantWins: 1,
		},
		{
			name:       "lost",
			result:     event.MatchPlayerResult{Player: 1, Decided: true},
			wantLosses: 1,
		},
		{
			name:   "undecided",
			result: event.MatchPlayerResult{Player: 1, Won: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := statsRecord(tt.result)
			assert.Equal(t, exp.Record{
				"player":          tt.result.Player,
				"wins":            tt.wantWins,
				"losses":          tt.wantLosses,
				"matches":         1,
				"experience":      tt.result.Experience,
				"durability_loss": tt.result.DurabilityLoss,
			}, got)
		})
	}
}
