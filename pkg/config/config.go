// Package config loads graphgen settings from a TOML file.
//
// Every section is optional. Values left out keep the defaults from
// [Default], and command-line flags override whatever the file sets.
//
//	[layout]
//	rounds = 450
//	gravity = 300.0   # whole-graph mode only
//	workers = 4
//	lin_log = true
//
//	[ego]
//	depth = 1
//	layout = true
//	scale = 3.0
//
//	[export]
//	dir = "out"
//	formats = ["json", "svg"]
//	color = "orange"
//
//	[cache]
//	ttl = "24h"
//	redis_addr = "localhost:6379"
//
//	[mongo]
//	uri = "mongodb://localhost:27017"
//
//	[server]
//	addr = ":8080"
//
// Unknown keys are rejected so that typos do not silently fall back to
// defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Traubert/nlp-tools/pkg/cache"
	apperrors "github.com/Traubert/nlp-tools/pkg/errors"
	"github.com/Traubert/nlp-tools/pkg/layout/forceatlas2"
	"github.com/Traubert/nlp-tools/pkg/pipeline"
	"github.com/Traubert/nlp-tools/pkg/sink"
	"github.com/Traubert/nlp-tools/pkg/sink/mongo"
)

// Server defaults.
const (
	DefaultAddr         = ":8080"
	DefaultMaxBodyBytes = 32 << 20
	DefaultMaxRounds    = 5000
	DefaultOutputDir    = "."
)

// Config is the full configuration file.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Ego    EgoConfig    `toml:"ego"`
	Export ExportConfig `toml:"export"`
	Cache  CacheConfig  `toml:"cache"`
	Mongo  MongoConfig  `toml:"mongo"`
	Server ServerConfig `toml:"server"`
}

// LayoutConfig holds ForceAtlas2 settings. Unset algorithm fields keep the
// node-count dependent defaults.
type LayoutConfig struct {
	Rounds  int     `toml:"rounds"`
	Gravity float64 `toml:"gravity"`
	Workers int     `toml:"workers"`

	ScalingRatio        float64  `toml:"scaling_ratio"`
	StrongGravity       bool     `toml:"strong_gravity"`
	LinLog              bool     `toml:"lin_log"`
	DissuadeHubs        bool     `toml:"dissuade_hubs"`
	EdgeWeightInfluence *float64 `toml:"edge_weight_influence"`
	JitterTolerance     float64  `toml:"jitter_tolerance"`
	BarnesHut           *bool    `toml:"barnes_hut"`
	BarnesHutTheta      float64  `toml:"barnes_hut_theta"`
	Seed                *int64   `toml:"seed"`
}

// EgoConfig holds ego sweep settings.
type EgoConfig struct {
	Depth  int     `toml:"depth"`
	Layout bool    `toml:"layout"`
	Scale  float64 `toml:"scale"`
}

// ExportConfig configures the file sink.
type ExportConfig struct {
	Dir             string   `toml:"dir"`
	Formats         []string `toml:"formats"`
	Color           string   `toml:"color"`
	Name            string   `toml:"name"`
	Weights         bool     `toml:"weights"`
	Detailed        bool     `toml:"detailed"`
	ContinueOnError bool     `toml:"continue_on_error"`
}

// CacheConfig selects and configures the layout cache. Redis is used when
// RedisAddr is set, the file cache otherwise.
type CacheConfig struct {
	Disabled      bool     `toml:"disabled"`
	Dir           string   `toml:"dir"`
	TTL           Duration `toml:"ttl"`
	Prefix        string   `toml:"prefix"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
}

// MongoConfig enables the MongoDB sink when URI is set.
type MongoConfig struct {
	URI        string   `toml:"uri"`
	Database   string   `toml:"database"`
	Collection string   `toml:"collection"`
	Timeout    Duration `toml:"timeout"`
}

// ServerConfig configures `graphgen serve`.
type ServerConfig struct {
	Addr         string `toml:"addr"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
	MaxRounds    int    `toml:"max_rounds"`
}

// Duration is a time.Duration written as a Go duration string ("90s", "24h").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Layout: LayoutConfig{
			Rounds:  pipeline.DefaultRounds,
			Gravity: pipeline.DefaultWholeGravity,
			Workers: pipeline.DefaultWorkers,
		},
		Ego: EgoConfig{
			Depth: pipeline.DefaultDepth,
			Scale: pipeline.DefaultScaleFactor,
		},
		Export: ExportConfig{
			Dir:     DefaultOutputDir,
			Formats: []string{sink.FormatJSON},
			Name:    pipeline.DefaultName,
		},
		Cache: CacheConfig{
			TTL: Duration{cache.DefaultTTL},
		},
		Mongo: MongoConfig{
			Database:   mongo.DefaultDatabase,
			Collection: mongo.DefaultCollection,
			Timeout:    Duration{mongo.DefaultTimeout},
		},
		Server: ServerConfig{
			Addr:         DefaultAddr,
			MaxBodyBytes: DefaultMaxBodyBytes,
			MaxRounds:    DefaultMaxRounds,
		},
	}
}

// Load reads the file at path on top of [Default]. An empty path returns
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, apperrors.New(apperrors.ErrCodeInvalidInput, "config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that the pipeline would otherwise reject late.
func (c Config) Validate() error {
	if err := apperrors.ValidateRounds(c.Layout.Rounds); err != nil {
		return err
	}
	for _, f := range c.Export.Formats {
		if err := apperrors.ValidateFormat(f, sink.Formats); err != nil {
			return err
		}
	}
	if c.Export.Name != "" {
		if err := apperrors.ValidateName(c.Export.Name); err != nil {
			return err
		}
	}
	if c.Server.MaxRounds < 0 || c.Server.MaxBodyBytes < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "server limits must be >= 0")
	}
	if c.Cache.TTL.Duration < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "cache ttl must be >= 0, got %s", c.Cache.TTL)
	}
	return nil
}

// PipelineOptions converts the file settings into pipeline options for the
// given mode.
func (c Config) PipelineOptions(ego bool) pipeline.Options {
	return pipeline.Options{
		Ego:                   ego,
		DoLayout:              c.Ego.Layout,
		Depth:                 c.Ego.Depth,
		Rounds:                c.Layout.Rounds,
		Gravity:               c.Layout.Gravity,
		ScaleFactor:           c.Ego.Scale,
		Layout:                c.Layout.Override(),
		Name:                  c.Export.Name,
		NodeColor:             c.Export.Color,
		ContinueOnExportError: c.Export.ContinueOnError,
		Workers:               c.Layout.Workers,
	}
}

// Override returns ForceAtlas2 options when any algorithm field is set, or
// nil to keep the node-count dependent defaults.
func (l LayoutConfig) Override() *forceatlas2.Options {
	if !l.tuned() {
		return nil
	}
	opts := forceatlas2.DefaultOptions(0)
	if l.ScalingRatio > 0 {
		opts.ScalingRatio = l.ScalingRatio
	}
	opts.StrongGravity = l.StrongGravity
	opts.LinLog = l.LinLog
	opts.OutboundAttractionDistribution = l.DissuadeHubs
	if l.EdgeWeightInfluence != nil {
		opts.EdgeWeightInfluence = *l.EdgeWeightInfluence
	}
	if l.JitterTolerance > 0 {
		opts.JitterTolerance = l.JitterTolerance
	}
	if l.BarnesHut != nil {
		opts.BarnesHut = *l.BarnesHut
	}
	if l.BarnesHutTheta > 0 {
		opts.BarnesHutTheta = l.BarnesHutTheta
	}
	if l.Seed != nil {
		opts.Seed = uint64(*l.Seed)
	}
	return &opts
}

func (l LayoutConfig) tuned() bool {
	return l.ScalingRatio > 0 || l.StrongGravity || l.LinLog || l.DissuadeHubs ||
		l.EdgeWeightInfluence != nil || l.JitterTolerance > 0 || l.BarnesHut != nil ||
		l.BarnesHutTheta > 0 || l.Seed != nil
}

// RedisConfig returns the Redis connection settings.
func (c CacheConfig) RedisConfig() cache.RedisConfig {
	return cache.RedisConfig{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

// SinkConfig returns the MongoDB sink settings.
func (c MongoConfig) SinkConfig() mongo.Config {
	return mongo.Config{
		URI:        c.URI,
		Database:   c.Database,
		Collection: c.Collection,
		Timeout:    c.Timeout.Duration,
	}
}

