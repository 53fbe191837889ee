package store

import (
	"context"
	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v4"
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/event"
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/player"
	nativeerrors "errors"
)

// SaveMatchResult persists the match, its participants and updates the stats of
// all participants in a single transaction. Results of no-stats matches are not
// persisted.
func (m *Mall) SaveMatchResult(ctx context.Context, result event.MatchResult) error {
	if result.NoStats {
		return nil
	}
	txCtx, cancelTx := context.WithCancel(ctx)
	defer cancelTx()
	tx, err := m.db.Begin(txCtx)
	if err != nil {
		return errors.NewDBTxBeginError(err)
	}
	defer m.rollbackTx(ctx, tx, "save match result")
	// Match.
	q, _, err := m.dialect.Insert("matches").Rows(goqu.Record{
		"id":          result.MatchID.String(),
		"channel":     result.Channel,
		"room":        result.Room,
		"mode":        result.Mode,
		"map":         result.Map,
		"start":       result.Start.UTC(),
		"end":         result.End.UTC(),
		"winner_team": result.WinnerTeam,
	}).ToSQL()
	if err != nil {
		return errors.NewInternalErrorFromErr(err, "match query to sql", nil)
	}
	_, err = tx.Exec(ctx, q)
	if err != nil {
		return errors.NewExecQueryError(err, "insert match", q)
	}
	if len(result.Players) > 0 {
		// Participants.
		participantRows := make([]interface{}, 0, len(result.Players))
		for _, p := range result.Players {
			participantRows = append(participantRows, goqu.Record{
				"match":           result.MatchID.String(),
				"player":          p.Player,
				"nickname":        p.Nickname,
				"team":            p.Team,
				"score":           p.Score,
				"kills":           p.Kills,
				"deaths":          p.Deaths,
				"assists":         p.Assists,
				"placement":       p.Placement,
				"won":             p.Won,
				"experience":      p.Experience,
				"durability_loss": p.DurabilityLoss,
				"play_time_ms":    p.PlayTime.Milliseconds(),
			})
		}
		q, _, err = m.dialect.Insert("match_participants").Rows(participantRows...).ToSQL()
		if err != nil {
			return errors.NewInternalErrorFromErr(err, "participants query to sql", nil)
		}
		_, err = tx.Exec(ctx, q)
		if err != nil {
			return errors.NewExecQueryError(err, "insert participants", q)
		}
		// Stats.
		for _, p := range result.Players {
			q, _, err = m.dialect.Insert("player_stats").Rows(statsRecord(p)).
				OnConflict(goqu.DoUpdate("player", goqu.Record{
					"wins":            goqu.L(`"player_stats"."wins" + "excluded"."wins"`),
					"losses":          goqu.L(`"player_stats"."losses" + "excluded"."losses"`),
					"matches":         goqu.L(`"player_stats"."matches" + "excluded"."matches"`),
					"experience":      goqu.L(`"player_stats"."experience" + "excluded"."experience"`),
					"durability_loss": goqu.L(`"player_stats"."durability_loss" + "excluded"."durability_loss"`),
				})).ToSQL()
			if err != nil {
				return errors.NewInternalErrorFromErr(err, "stats query to sql", nil)
			}
			_, err = tx.Exec(ctx, q)
			if err != nil {
				return errors.NewExecQueryError(err, "upsert stats", q)
			}
		}
	}
	err = tx.Commit(ctx)
	if err != nil {
		return errors.NewDBTxCommitError(err)
	}
	return nil
}

// statsRecord creates the stats increments for the given player result.
func statsRecord(p event.MatchPlayerResult) exp.Record {
	wins, losses := 0, 0
	if p.Decided {
		if p.Won {
			wins = 1
		} else {
			losses = 1
		}
	}
	return goqu.Record{
		"player":          p.Player,
		"wins":            wins,
		"losses":          losses,
		"matches":         1,
		"experience":      p.Experience,
		"durability_loss": p.DurabilityLoss,
	}
}

// PlayerStats retrieves the stats of the player with the given id. Players
// without any played match have zero stats.
func (m *Mall) PlayerStats(ctx context.Context, playerID model.PlayerID) (player.Stats, error) {
	q, _, err := m.dialect.From("player_stats").
		Select(goqu.C("wins"),
			goqu.C("losses"),
			goqu.C("matches"),
			goqu.C("experience")).
		Where(goqu.C("player").Eq(playerID)).ToSQL()
	if err != nil {
		return player.Stats{}, errors.NewInternalErrorFromErr(err, "query to sql", nil)
	}
	var stats player.Stats
	err = m.db.QueryRow(ctx, q).Scan(&stats.Wins,
		&stats.Losses,
		&stats.Matches,
		&stats.Experience)
	if err != nil {
		if nativeerrors.Is(err, pgx.ErrNoRows) {
			return player.Stats{}, nil
		}
		return player.Stats{}, errors.NewScanDBRowError(err, "scan row", q)
	}
	return stats, nil
}
