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
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	mode, err := cfg.Segment.FileMode()
	require.NoError(t, err)
	assert.Equal(t, uint32(0o666), mode)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
		{"non octal mode", func(c *Config) { c.Segment.Mode = "0689" }},
		{"mode out of range", func(c *Config) { c.Segment.Mode = "1777" }},
		{"zero watch interval", func(c *Config) { c.Watch.Interval = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	cfg.Log.Format = "JSON"
	assert.NoError(t, cfg.Validate())
}

func TestLoadAppliesOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("segment.mode", "0600")
	v.Set("connect.retries", 5)
	v.Set("watch.interval", "1s")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "0600", cfg.Segment.Mode)
	assert.Equal(t, uint64(5), cfg.Connect.Retries)
	assert.Equal(t, time.Second, cfg.Watch.Interval)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadRejectsInvalid(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("log.format", "yaml")

	_, err := Load(v)
	assert.Error(t, err)
}

func TestConnectBackOffStopsAfterRetries(t *testing.T) {
	b := ConnectConfig{Retries: 2, Interval: time.Millisecond}.BackOff()
	assert.Equal(t, time.Millisecond, b.NextBackOff())
	assert.Equal(t, time.Millisecond, b.NextBackOff())
	assert.Equal(t, backoff.Stop, b.NextBackOff())
}

func TestSessionReusesLogger(t *testing.T) {
	logger := zap.NewNop()
	cfg, s, flush, err := sessionFor(Default(), logger)
	require.NoError(t, err)
	defer flush()

	assert.Same(t, logger, s.logger)
	assert.NotNil(t, cfg)
	assert.Len(t, s.opts, 2)
}

func TestSessionRejectsBadMode(t *testing.T) {
	cfg := Default()
	cfg.Segment.Mode = "rw"
	_, _, _, err := sessionFor(cfg, zap.NewNop())
	assert.Error(t, err)
}
