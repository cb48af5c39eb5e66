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

// Package cmd implements the shmseg command line.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/srediag/shmseg/pkg/segment"
)

var rootCmd = &cobra.Command{
	Use:   "shmseg",
	Short: "Read and write named shared memory segments",
	Long: `shmseg connects to a named shared memory segment holding a single
primitive value and reads, writes or watches it. Any process using a
segment.Handle of the same size on the same name sees the same value.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringP("config", "c", "", "config file (default is $HOME/.config/shmseg/config.yaml)")
	pf.StringP("name", "n", "", "segment name")
	pf.StringP("type", "t", "uint64", "value type: "+strings.Join(typeNames(), ", "))
	pf.String("log-level", "", "log level: debug, info, warn, error")
	_ = viper.BindPFlag("config", pf.Lookup("config"))
	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
}

func initConfig() {
	SetDefaults(viper.GetViper())

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "shmseg"))
		}
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix(EnvPrefix)
	// e.g. SHMSEG_CONNECT_RETRIES for connect.retries
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// target is the segment a command operates on.
type target struct {
	name string
	vt   valueType
}

func targetFlags(cmd *cobra.Command) (target, error) {
	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		return target{}, fmt.Errorf("--name is required")
	}
	typ, _ := cmd.Flags().GetString("type")
	vt, err := lookupType(typ)
	if err != nil {
		return target{}, err
	}
	return target{name: name, vt: vt}, nil
}

// newSession loads the configuration and builds the handle options. The
// returned func flushes the session logger.
func newSession(extra ...segment.Option) (*Config, session, func(), error) {
	cfg, err := Load(viper.GetViper())
	if err != nil {
		return nil, session{}, nil, err
	}
	return sessionFor(cfg, newLogger(cfg.Log), extra...)
}

func sessionFor(cfg *Config, logger *zap.Logger, extra ...segment.Option) (*Config, session, func(), error) {
	mode, err := cfg.Segment.FileMode()
	if err != nil {
		return nil, session{}, nil, err
	}
	opts := append([]segment.Option{
		segment.WithZap(logger),
		segment.WithFileMode(os.FileMode(mode)),
	}, extra...)
	s := session{opts: opts, retry: cfg.Connect.BackOff, logger: logger}
	return cfg, s, func() { _ = logger.Sync() }, nil
}
