/*
 * Copyright 2025 SREDiag Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. SHMSEG_LOG_LEVEL
// for log.level.
const EnvPrefix = "SHMSEG"

// Config is the complete shmseg CLI configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Segment SegmentConfig `mapstructure:"segment"`
	Connect ConnectConfig `mapstructure:"connect"`
	Watch   WatchConfig   `mapstructure:"watch"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LogConfig controls diagnostics output. Values always go to stdout.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
	// Format is "console" or "json".
	Format string `mapstructure:"format"`
	// File, when set, receives logs instead of stderr.
	File   string       `mapstructure:"file"`
	Rotate RotateConfig `mapstructure:"rotate"`
}

// RotateConfig applies to LogConfig.File.
type RotateConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// SegmentConfig controls how segments are created.
type SegmentConfig struct {
	// Mode is the octal permission of newly created objects.
	Mode string `mapstructure:"mode"`
}

// ConnectConfig controls the retry policy around connect.
type ConnectConfig struct {
	Retries  uint64        `mapstructure:"retries"`
	Interval time.Duration `mapstructure:"interval"`
}

// WatchConfig controls the watch command.
type WatchConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// MetricsConfig controls the optional HTTP endpoint of the watch command.
type MetricsConfig struct {
	// Addr serves /metrics, /live and /ready when not empty.
	Addr string `mapstructure:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
			Rotate: RotateConfig{
				MaxSizeMB:  10,
				MaxBackups: 3,
				MaxAgeDays: 7,
			},
		},
		Segment: SegmentConfig{Mode: "0666"},
		Connect: ConnectConfig{Retries: 3, Interval: 100 * time.Millisecond},
		Watch:   WatchConfig{Interval: 250 * time.Millisecond},
	}
}

// SetDefaults registers the defaults with v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.rotate.max_size_mb", d.Log.Rotate.MaxSizeMB)
	v.SetDefault("log.rotate.max_backups", d.Log.Rotate.MaxBackups)
	v.SetDefault("log.rotate.max_age_days", d.Log.Rotate.MaxAgeDays)
	v.SetDefault("log.rotate.compress", d.Log.Rotate.Compress)
	v.SetDefault("segment.mode", d.Segment.Mode)
	v.SetDefault("connect.retries", d.Connect.Retries)
	v.SetDefault("connect.interval", d.Connect.Interval)
	v.SetDefault("watch.interval", d.Watch.Interval)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
}

// Load reads the configuration out of v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	if _, err := c.Segment.FileMode(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	if c.Watch.Interval <= 0 {
		return fmt.Errorf("watch.interval must be positive, got %s", c.Watch.Interval)
	}
	return nil
}

// FileMode parses Mode as octal permission bits.
func (s SegmentConfig) FileMode() (uint32, error) {
	m, err := strconv.ParseUint(s.Mode, 8, 32)
	if err != nil || m > 0o777 {
		return 0, fmt.Errorf("segment.mode must be octal permission bits, got %q", s.Mode)
	}
	return uint32(m), nil
}

// BackOff returns the retry policy for connect.
func (c ConnectConfig) BackOff() backoff.BackOff {
	return backoff.WithMaxRetries(backoff.NewConstantBackOff(c.Interval), c.Retries)
}
