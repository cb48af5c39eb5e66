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

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current value of a segment",
	Args:  cobra.NoArgs,
	RunE:  runGet,
}

var setCmd = &cobra.Command{
	Use:   "set VALUE",
	Short: "Overwrite the value of a segment",
	Long: `Overwrite the value of a segment, creating it when it does not exist.
Integers accept 0x, 0o and 0b prefixes.`,
	Args: cobra.ExactArgs(1),
	RunE: runSet,
}

func init() {
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	t, err := targetFlags(cmd)
	if err != nil {
		return err
	}
	_, s, flush, err := newSession()
	if err != nil {
		return err
	}
	defer flush()

	v, err := t.vt.get(cmd.Context(), s, t.name)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), v)
	return nil
}

func runSet(cmd *cobra.Command, args []string) error {
	t, err := targetFlags(cmd)
	if err != nil {
		return err
	}
	_, s, flush, err := newSession()
	if err != nil {
		return err
	}
	defer flush()

	return t.vt.set(cmd.Context(), s, t.name, args[0])
}
