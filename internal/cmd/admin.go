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
	"os"

	"github.com/spf13/cobra"

	"github.com/srediag/shmseg/internal/shm"
	"github.com/srediag/shmseg/pkg/segment"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show where a segment lives and how large it is",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a named segment",
	Long: `Remove a named segment. Processes that are still connected keep their
mapping; the next connect on the name creates a fresh, zeroed segment.`,
	Args: cobra.NoArgs,
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(removeCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		return fmt.Errorf("--name is required")
	}
	out := cmd.OutOrStdout()

	path, err := shm.Path(name)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "name: %s\n", name)
	fmt.Fprintf(out, "path: %s\n", path)
	fi, err := os.Stat(path)
	switch {
	case err == nil:
		fmt.Fprintf(out, "size: %d bytes\n", fi.Size())
		fmt.Fprintf(out, "mode: %s\n", fi.Mode().Perm())
	case os.IsNotExist(err):
		fmt.Fprintln(out, "size: not created")
	default:
		fmt.Fprintf(out, "size: unknown (%v)\n", err)
	}
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		return fmt.Errorf("--name is required")
	}
	return segment.Remove(name)
}
