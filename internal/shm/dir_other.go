//go:build unix && !linux

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

package shm

import (
	"os"
	"path/filepath"
)

// EnvDir overrides the directory that backs named objects.
const EnvDir = "SHMSEG_DIR"

// Without /dev/shm the objects live in a private directory under the system
// temp dir; every process of the same user resolves it to the same place.
func baseDir() (string, error) {
	dir := os.Getenv(EnvDir)
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "shmseg")
	}
	return dir, os.MkdirAll(dir, 0o777)
}
