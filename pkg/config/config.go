// Package config loads run settings from YAML files and ORBRUN_ environment
// variables using viper
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/raykavin/orbrun/pkg/backtest"
	"github.com/raykavin/orbrun/pkg/core"
	"github.com/raykavin/orbrun/pkg/gate"
	"github.com/raykavin/orbrun/pkg/orb"
	"github.com/raykavin/orbrun/pkg/simulator"
	"github.com/spf13/viper"
)

// Constants for configuration
const (
	DefaultConfigPath = "./orbrun.yaml"
	EnvPrefix         = "ORBRUN"
)

// Config is the file layout of a run
type Config struct {
	Session    SessionConfig    `mapstructure:"session"`
	Strategy   StrategyConfig   `mapstructure:"strategy"`
	Sizing     SizingConfig     `mapstructure:"sizing"`
	Instrument InstrumentConfig `mapstructure:"instrument"`
	Context    ContextConfig    `mapstructure:"context"`
	Data       DataConfig       `mapstructure:"data"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Log        LogConfig        `mapstructure:"log"`
}

type SessionConfig struct {
	Open         string `mapstructure:"open"`
	Close        string `mapstructure:"close"`
	RangeMinutes int    `mapstructure:"range_minutes"`
}

type StrategyConfig struct {
	StopBuffer     float64 `mapstructure:"stop_buffer"`
	RiskReward     float64 `mapstructure:"risk_reward"`
	StopAnchor     string  `mapstructure:"stop_anchor"`
	EnableFakeouts bool    `mapstructure:"enable_fakeouts"`
	HoldOvernight  bool    `mapstructure:"hold_overnight"`
	MinRangePoints float64 `mapstructure:"min_range_points"`
	MaxRangePoints float64 `mapstructure:"max_range_points"`
}

type SizingConfig struct {
	Mode          string  `mapstructure:"mode"`
	Value         float64 `mapstructure:"value"`
	InitialEquity float64 `mapstructure:"initial_equity"`
}

type InstrumentConfig struct {
	Symbol     string  `mapstructure:"symbol"`
	PointValue float64 `mapstructure:"point_value"`
	MinUnit    float64 `mapstructure:"min_unit"`
	TickSize   float64 `mapstructure:"tick_size"`
}

type ContextConfig struct {
	Policy            string  `mapstructure:"policy"`
	Min1HStrength     float64 `mapstructure:"min_1h_strength"`
	MaxORBPct         float64 `mapstructure:"max_orb_pct"`
	MaxLiqDistancePct float64 `mapstructure:"max_liq_distance_pct"`
	MinVoteStrength   float64 `mapstructure:"min_vote_strength"`
	DailyThreshold    float64 `mapstructure:"daily_threshold"`
	H4Threshold       float64 `mapstructure:"h4_threshold"`
	H1Threshold       float64 `mapstructure:"h1_threshold"`
	SwingWindow       int     `mapstructure:"swing_window"`
	EqualTolerance    float64 `mapstructure:"equal_tolerance"`
	LiquidityLookback int     `mapstructure:"liquidity_lookback"`
}

// DataConfig points at one CSV file per timeframe
type DataConfig struct {
	M15             string `mapstructure:"m15"`
	H1              string `mapstructure:"h1"`
	H4              string `mapstructure:"h4"`
	D1              string `mapstructure:"d1"`
	ResampleMissing bool   `mapstructure:"resample_missing"`
}

// StorageConfig selects where trades and decisions are recorded
type StorageConfig struct {
	// Path of a buntdb file, ":memory:" keeps it in memory
	Path string `mapstructure:"path"`
	// SQLite file used instead of buntdb when set
	SQLite string `mapstructure:"sqlite"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	TimeFormat string `mapstructure:"time_format"`
	Color      bool   `mapstructure:"color"`
	JSON       bool   `mapstructure:"json"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("session.open", "07:00")
	v.SetDefault("session.close", "24:00")
	v.SetDefault("session.range_minutes", 15)

	v.SetDefault("strategy.stop_buffer", 5.0)
	v.SetDefault("strategy.risk_reward", 1.0)
	v.SetDefault("strategy.stop_anchor", "range_open")
	v.SetDefault("strategy.enable_fakeouts", false)
	v.SetDefault("strategy.hold_overnight", false)
	v.SetDefault("strategy.min_range_points", 0.0)
	v.SetDefault("strategy.max_range_points", 0.0)

	v.SetDefault("sizing.mode", "percent")
	v.SetDefault("sizing.value", 0.01)
	v.SetDefault("sizing.initial_equity", 10000.0)

	v.SetDefault("instrument.symbol", "GER40")
	v.SetDefault("instrument.point_value", 1.0)
	v.SetDefault("instrument.min_unit", 0.01)
	v.SetDefault("instrument.tick_size", 0.1)

	v.SetDefault("context.policy", "soft")
	v.SetDefault("context.min_1h_strength", 30.0)
	v.SetDefault("context.max_orb_pct", 0.004)
	v.SetDefault("context.max_liq_distance_pct", 0.005)
	v.SetDefault("context.min_vote_strength", 10.0)
	v.SetDefault("context.daily_threshold", 0.005)
	v.SetDefault("context.h4_threshold", 0.003)
	v.SetDefault("context.h1_threshold", 0.002)
	v.SetDefault("context.swing_window", 1)
	v.SetDefault("context.equal_tolerance", 0.001)
	v.SetDefault("context.liquidity_lookback", 5)

	v.SetDefault("data.m15", "data/GER40_15m.csv")
	v.SetDefault("data.h1", "data/GER40_1h.csv")
	v.SetDefault("data.h4", "data/GER40_4h.csv")
	v.SetDefault("data.d1", "data/GER40_1d.csv")
	v.SetDefault("data.resample_missing", true)

	v.SetDefault("storage.path", ":memory:")
	v.SetDefault("storage.sqlite", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.time_format", "2006-01-02 15:04:05")
	v.SetDefault("log.color", true)
	v.SetDefault("log.json", false)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Default returns the built in configuration
func Default() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads path when it exists, applies environment overrides and
// validates the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if _, err := cfg.Settings(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrConfiguration, err)
	}
	return cfg, nil
}

// WriteDefault writes the default configuration to path
func WriteDefault(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("could not create configuration directory: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("could not save default configuration: %w", err)
	}
	return nil
}

// Settings converts the file layout into engine settings
func (c *Config) Settings() (backtest.Settings, error) {
	s := backtest.DefaultSettings()

	open, err := orb.ParseClock(c.Session.Open)
	if err != nil {
		return s, fmt.Errorf("%w: session open: %v", core.ErrConfiguration, err)
	}
	closeAt, err := orb.ParseClock(c.Session.Close)
	if err != nil {
		return s, fmt.Errorf("%w: session close: %v", core.ErrConfiguration, err)
	}
	if c.Session.RangeMinutes != 15 {
		return s, core.ConfigError("range must span one 15m candle, got %d minutes", c.Session.RangeMinutes)
	}
	s.Session = orb.Session{Open: open, RangeLength: core.M15.Duration(), Close: closeAt}

	if s.Policy, err = gate.ParsePolicy(c.Context.Policy); err != nil {
		return s, fmt.Errorf("%w: %v", core.ErrConfiguration, err)
	}
	s.Thresholds = gate.Thresholds{
		Min1HStrength:     c.Context.Min1HStrength,
		MaxORBPct:         c.Context.MaxORBPct,
		MaxLiqDistancePct: c.Context.MaxLiqDistancePct,
	}

	s.Context.MinVoteStrength = c.Context.MinVoteStrength
	for tf, threshold := range map[core.Timeframe]float64{
		core.D1: c.Context.DailyThreshold,
		core.H4: c.Context.H4Threshold,
		core.H1: c.Context.H1Threshold,
	} {
		spec := s.Context.Trend[tf]
		spec.Threshold = threshold
		s.Context.Trend[tf] = spec
	}
	s.Context.Liquidity.SwingWindow = c.Context.SwingWindow
	s.Context.Liquidity.EqualTolerance = c.Context.EqualTolerance
	s.Context.Liquidity.Lookback = c.Context.LiquidityLookback

	anchor, err := simulator.ParseStopAnchor(c.Strategy.StopAnchor)
	if err != nil {
		return s, fmt.Errorf("%w: %v", core.ErrConfiguration, err)
	}
	mode, err := simulator.ParseSizingMode(c.Sizing.Mode)
	if err != nil {
		return s, fmt.Errorf("%w: %v", core.ErrConfiguration, err)
	}
	s.Simulator = simulator.Params{
		StopBuffer: c.Strategy.StopBuffer,
		RiskReward: c.Strategy.RiskReward,
		Anchor:     anchor,
		Sizing:     mode,
		RiskValue:  c.Sizing.Value,
		Instrument: core.Instrument{
			Symbol:     c.Instrument.Symbol,
			PointValue: c.Instrument.PointValue,
			MinUnit:    c.Instrument.MinUnit,
			TickSize:   c.Instrument.TickSize,
		},
		Session:       s.Session,
		HoldOvernight: c.Strategy.HoldOvernight,
	}

	s.EnableFakeouts = c.Strategy.EnableFakeouts
	s.InitialEquity = c.Sizing.InitialEquity
	s.MinRangePoints = c.Strategy.MinRangePoints
	s.MaxRangePoints = c.Strategy.MaxRangePoints

	if s.Context.Liquidity.EqualTolerance < 0 || s.Context.Liquidity.Lookback < 1 || s.Context.Liquidity.SwingWindow < 1 {
		return s, core.ConfigError("invalid liquidity settings")
	}
	return s, s.Validate()
}

// Paths returns the configured CSV files keyed by timeframe
func (d DataConfig) Paths() map[core.Timeframe]string {
	return map[core.Timeframe]string{
		core.M15: d.M15,
		core.H1:  d.H1,
		core.H4:  d.H4,
		core.D1:  d.D1,
	}
}
