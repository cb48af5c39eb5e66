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

// Package shm contains the platform-specific binding between a segment name
// and a mapped shared memory region.
//
// Function implementations are provided in platform-specific files
// (platform_unix.go, platform_windows.go, platform_other.go).
package shm

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// maxNameLen mirrors NAME_MAX on the unix backends; Windows object names are
// allowed to be longer but we keep one rule for every platform.
const maxNameLen = 255

// DefaultMode is the permission of a newly created object.
const DefaultMode os.FileMode = 0o666

var (
	ErrInvalidName  = errors.New("invalid shared memory name")
	ErrInvalidSize  = errors.New("invalid shared memory size")
	ErrSizeMismatch = errors.New("existing shared memory object is smaller than requested")
	ErrNoSpace      = errors.New("not enough space to size shared memory object")
	ErrUnsupported  = errors.New("shared memory is not supported on this platform")
)

// Step names the connector stage an error came from.
type Step int

const (
	StepOpen Step = iota
	StepSize
	StepMap
	StepRelease
)

func (s Step) String() string {
	switch s {
	case StepOpen:
		return "open"
	case StepSize:
		return "size"
	case StepMap:
		return "map"
	case StepRelease:
		return "release"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// StepError records which step failed for which object.
type StepError struct {
	Step Step
	Name string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("shm %s %q: %v", e.Step, e.Name, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// MapOptions defines options for mapping shared memory.
type MapOptions struct {
	Name string
	Size int
	// Mode is applied only when the object is created. Zero means DefaultMode.
	Mode os.FileMode
}

// Region represents a memory-mapped shared region.
//
// A Region is owned by exactly one caller; UnmapRegion releases it and must
// not be called concurrently for the same Region.
type Region struct {
	Name    string
	Size    int
	Created bool
	Addr    []byte

	handle osHandle
}

// Released reports whether UnmapRegion has already run on r.
func (r *Region) Released() bool {
	return r == nil || r.Addr == nil
}

// normalizeName strips one leading slash, the POSIX spelling of a shared
// memory name, and rejects anything that cannot be a single path element.
func normalizeName(name string) (string, error) {
	n := strings.TrimPrefix(name, "/")
	switch {
	case n == "", n == ".", n == "..":
		return "", ErrInvalidName
	case len(n) > maxNameLen:
		return "", fmt.Errorf("%w: longer than %d bytes", ErrInvalidName, maxNameLen)
	case strings.ContainsAny(n, "/\x00"):
		return "", fmt.Errorf("%w: contains a path separator or NUL", ErrInvalidName)
	}
	return n, nil
}

func (o MapOptions) mode() os.FileMode {
	if o.Mode == 0 {
		return DefaultMode
	}
	return o.Mode
}
