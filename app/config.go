package app

import (
	"encoding/json"
	"github.com/go-playground/validator/v10"
	"github.com/gobuffalo/nulls"
	"github.com/lefinal/masc-match/channel"
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/games"
	"github.com/lefinal/masc-match/logging"
	"github.com/lefinal/masc-match/webserver"
	"os"
	"time"
)

// Environment variables that override values from the config file.
const (
	envDBConn    = "MASC_MATCH_DB_CONN"
	envMQTTAddr  = "MASC_MATCH_MQTT_ADDR"
	envServeAddr = "MASC_MATCH_SERVE_ADDR"
)

// Config is the configuration needed in order to boot an App.
type Config struct {
	// DBConn is the optional connection string for the PostgreSQL database. If
	// not set, match results are not persisted.
	DBConn nulls.String `json:"db_conn"`
	// MaxDBConnections is the maximum number of database connections.
	MaxDBConnections int `json:"max_db_connections" validate:"gte=0"`
	// MQTTAddr is the optional address of the MQTT server. If not set, no events
	// are published and no notices are received.
	MQTTAddr nulls.String `json:"mqtt_addr"`
	// ServeAddr is the address, the app will listen for connections on.
	ServeAddr string `json:"serve_addr" validate:"required"`
	// Log is the logging configuration.
	Log logging.Config `json:"log"`
	// DebugStatsIntervalSec is the optional interval in seconds for logging
	// debug stats.
	DebugStatsIntervalSec nulls.Int `json:"debug_stats_interval_sec"`
	// TickIntervalMS is the interval in milliseconds for updating rooms.
	TickIntervalMS int `json:"tick_interval_ms" validate:"gte=0"`
	// UpdateConcurrency is the maximum number of rooms updated in parallel.
	UpdateConcurrency int `json:"update_concurrency" validate:"gte=0"`
	// Channels are the channels to host.
	Channels []channel.Config `json:"channels" validate:"required,min=1,dive"`
	// Timing holds optional overrides for the default games.Timing.
	Timing TimingConfig `json:"timing"`
}

// defaultUpdateConcurrency is used if Config.UpdateConcurrency is not set.
const defaultUpdateConcurrency = 8

// TimingConfig holds optional overrides for games.Timing in milliseconds.
type TimingConfig struct {
	LoadingMS          nulls.Int `json:"loading_ms"`
	CountdownMS        nulls.Int `json:"countdown_ms"`
	EnteringHalfTimeMS nulls.Int `json:"entering_half_time_ms"`
	HalfTimeMS         nulls.Int `json:"half_time_ms"`
	EnteringResultMS   nulls.Int `json:"entering_result_ms"`
	ResultDisplayMS    nulls.Int `json:"result_display_ms"`
	VoteKickWindowMS   nulls.Int `json:"vote_kick_window_ms"`
	RuleChangeGraceMS  nulls.Int `json:"rule_change_grace_ms"`
	StuckJoinMS        nulls.Int `json:"stuck_join_ms"`
	TouchdownBlockMS   nulls.Int `json:"touchdown_block_ms"`
	SubRoundMS         nulls.Int `json:"sub_round_ms"`
	SubRoundPauseMS    nulls.Int `json:"sub_round_pause_ms"`
}

// apply the overrides to the given games.Timing.
func (c TimingConfig) apply(timing games.Timing) games.Timing {
	override := func(target *time.Duration, ms nulls.Int) {
		if ms.Valid {
			*target = time.Duration(ms.Int) * time.Millisecond
		}
	}
	override(&timing.Loading, c.LoadingMS)
	override(&timing.Countdown, c.CountdownMS)
	override(&timing.EnteringHalfTime, c.EnteringHalfTimeMS)
	override(&timing.HalfTime, c.HalfTimeMS)
	override(&timing.EnteringResult, c.EnteringResultMS)
	override(&timing.ResultDisplay, c.ResultDisplayMS)
	override(&timing.VoteKickWindow, c.VoteKickWindowMS)
	override(&timing.RuleChangeGrace, c.RuleChangeGraceMS)
	override(&timing.StuckJoin, c.StuckJoinMS)
	override(&timing.TouchdownBlock, c.TouchdownBlockMS)
	override(&timing.SubRound, c.SubRoundMS)
	override(&timing.SubRoundPause, c.SubRoundPauseMS)
	return timing
}

// LoadConfig reads the Config from the JSON file at the given path. Values are
// overridden by environment variables and the result is validated.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Error{
			Code:    errors.ErrFatal,
			Kind:    errors.KindInvalidConfig,
			Err:     err,
			Message: "read config file",
			Details: errors.Details{"path": path},
		}
	}
	config, err := ParseConfig(raw, os.LookupEnv)
	if err != nil {
		return Config{}, errors.Wrap(err, "parse config", errors.Details{"path": path})
	}
	return config, nil
}

// ParseConfig parses the given JSON encoded Config, applies environment
// overrides using the given lookup function and validates it.
func ParseConfig(raw []byte, lookupEnv func(key string) (string, bool)) (Config, error) {
	config := Config{
		ServeAddr: webserver.DefaultServeAddr,
	}
	err := json.Unmarshal(raw, &config)
	if err != nil {
		return Config{}, errors.Error{
			Code:    errors.ErrFatal,
			Kind:    errors.KindInvalidConfig,
			Err:     err,
			Message: "unmarshal config",
		}
	}
	if v, ok := lookupEnv(envDBConn); ok {
		config.DBConn = nulls.NewString(v)
	}
	if v, ok := lookupEnv(envMQTTAddr); ok {
		config.MQTTAddr = nulls.NewString(v)
	}
	if v, ok := lookupEnv(envServeAddr); ok {
		config.ServeAddr = v
	}
	err = ValidateConfig(config)
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

// ValidateConfig assures that the given Config is valid.
func ValidateConfig(config Config) error {
	err := validator.New().Struct(config)
	if err != nil {
		return errors.Error{
			Code:    errors.ErrFatal,
			Kind:    errors.KindInvalidConfig,
			Err:     err,
			Message: "invalid config",
		}
	}
	return nil
}
