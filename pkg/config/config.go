// Package config loads the engine configuration from YAML or JSON files
// and command-line overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/rishitkumar8/Railways/pkg/risk"
	"github.com/rishitkumar8/Railways/pkg/spawn"
	"github.com/rishitkumar8/Railways/pkg/world"
)

// Config is the full engine configuration.
type Config struct {
	Risk    RiskConfig    `mapstructure:"risk" yaml:"risk" json:"risk"`
	Arbiter ArbiterConfig `mapstructure:"arbiter" yaml:"arbiter" json:"arbiter"`
	Blocked BlockedConfig `mapstructure:"blocked" yaml:"blocked" json:"blocked"`
	Spawn   SpawnConfig   `mapstructure:"spawn" yaml:"spawn" json:"spawn"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server" json:"server"`
	Feed    FeedConfig    `mapstructure:"feed" yaml:"feed" json:"feed"`
	Log     LogConfig     `mapstructure:"log" yaml:"log" json:"log"`
}

type RiskConfig struct {
	SafeDistance    float64          `mapstructure:"safe_distance_m" yaml:"safe_distance_m" json:"safe_distance_m"`
	Lookahead       time.Duration    `mapstructure:"lookahead" yaml:"lookahead" json:"lookahead"`
	Threshold       float64          `mapstructure:"threshold" yaml:"threshold" json:"threshold"`
	Adhesion        float64          `mapstructure:"adhesion" yaml:"adhesion" json:"adhesion"`
	KinematicWeight float64          `mapstructure:"kinematic_weight" yaml:"kinematic_weight" json:"kinematic_weight"`
	FeedWeight      float64          `mapstructure:"feed_weight" yaml:"feed_weight" json:"feed_weight"`
	MonteCarlo      MonteCarloConfig `mapstructure:"monte_carlo" yaml:"monte_carlo" json:"monte_carlo"`
}

type MonteCarloConfig struct {
	Samples int     `mapstructure:"samples" yaml:"samples" json:"samples"`
	StdDev  float64 `mapstructure:"std_dev" yaml:"std_dev" json:"std_dev"`
	Blend   float64 `mapstructure:"blend" yaml:"blend" json:"blend"`
	Seed    uint64  `mapstructure:"seed" yaml:"seed" json:"seed"`
}

type ArbiterConfig struct {
	// Workers bounds the pair-scoring goroutines. 0 uses GOMAXPROCS.
	Workers     int           `mapstructure:"workers" yaml:"workers" json:"workers"`
	CriticalTTC time.Duration `mapstructure:"critical_ttc" yaml:"critical_ttc" json:"critical_ttc"`
}

type BlockedConfig struct {
	Policy string        `mapstructure:"policy" yaml:"policy" json:"policy"`
	TTL    time.Duration `mapstructure:"ttl" yaml:"ttl" json:"ttl"`
}

type SpawnConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Interval  time.Duration `mapstructure:"interval" yaml:"interval" json:"interval"`
	MaxTrains int           `mapstructure:"max_trains" yaml:"max_trains" json:"max_trains"`
	Seed      uint64        `mapstructure:"seed" yaml:"seed" json:"seed"`
}

type ServerConfig struct {
	Addr    string `mapstructure:"addr" yaml:"addr" json:"addr"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
}

// FeedConfig selects the external risk feed.
type FeedConfig struct {
	// Backend is "none", "memory" or "redis".
	Backend string      `mapstructure:"backend" yaml:"backend" json:"backend"`
	File    string      `mapstructure:"file" yaml:"file" json:"file"`
	Redis   RedisConfig `mapstructure:"redis" yaml:"redis" json:"redis"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr" yaml:"addr" json:"addr"`
	Password string        `mapstructure:"password" yaml:"password" json:"password"`
	DB       int           `mapstructure:"db" yaml:"db" json:"db"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix" json:"prefix"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl" json:"ttl"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Buffer int    `mapstructure:"buffer" yaml:"buffer" json:"buffer"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	p := risk.DefaultParams()
	return Config{
		Risk: RiskConfig{
			SafeDistance:    p.SafeDistance,
			Lookahead:       p.Lookahead,
			Threshold:       p.Threshold,
			Adhesion:        p.Adhesion,
			KinematicWeight: p.KinematicWeight,
			FeedWeight:      p.FeedWeight,
			MonteCarlo: MonteCarloConfig{
				Samples: p.MonteCarlo.Samples,
				StdDev:  p.MonteCarlo.StdDev,
				Blend:   p.MonteCarlo.Blend,
				Seed:    p.MonteCarlo.Seed,
			},
		},
		Arbiter: ArbiterConfig{CriticalTTC: 8 * time.Second},
		Blocked: BlockedConfig{Policy: string(world.ReleasePermanent), TTL: 5 * time.Minute},
		Spawn: SpawnConfig{
			Interval:  spawn.DefaultInterval,
			MaxTrains: spawn.DefaultMaxAgents,
			Seed:      1,
		},
		Server: ServerConfig{Addr: ":8000"},
		Feed: FeedConfig{
			Backend: "none",
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "railways:risk:", Timeout: 250 * time.Millisecond},
		},
		Log: LogConfig{Level: "info", Buffer: 2000},
	}
}

// RiskParams converts the risk section into evaluator parameters.
func (c Config) RiskParams() risk.Params {
	return risk.Params{
		SafeDistance:    c.Risk.SafeDistance,
		Lookahead:       c.Risk.Lookahead,
		Threshold:       c.Risk.Threshold,
		Adhesion:        c.Risk.Adhesion,
		KinematicWeight: c.Risk.KinematicWeight,
		FeedWeight:      c.Risk.FeedWeight,
		MonteCarlo: risk.MonteCarlo{
			Samples: c.Risk.MonteCarlo.Samples,
			StdDev:  c.Risk.MonteCarlo.StdDev,
			Blend:   c.Risk.MonteCarlo.Blend,
			Seed:    c.Risk.MonteCarlo.Seed,
		},
	}
}

// Load reads path on top of Default. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	if err := decode(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// ApplyOverrides sets dotted keys from "key=value" pairs, e.g. "risk.threshold=0.6".
func (c *Config) ApplyOverrides(pairs []string) error {
	raw := map[string]any{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return &ValidationError{Key: pair, Reason: "expected key=value"}
		}
		node := raw
		parts := strings.Split(key, ".")
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = strings.TrimSpace(value)
	}
	return decode(raw, c)
}

func decode(raw map[string]any, out *Config) error {
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		Metadata:         &md,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			secondsToDurationHook,
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return err
	}
	if len(md.Unused) > 0 {
		errs := make([]error, len(md.Unused))
		for i, k := range md.Unused {
			errs[i] = &ValidationError{Key: k, Reason: "unknown key"}
		}
		return &AggregateError{Errors: errs}
	}
	return nil
}

// secondsToDurationHook reads bare numbers as seconds.
func secondsToDurationHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return time.Duration(f * float64(time.Second)), nil
		}
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	}
	return data, nil
}
