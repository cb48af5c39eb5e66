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

package segment

import (
	"errors"
	"fmt"

	"github.com/srediag/shmseg/internal/shm"
)

var (
	// ErrCreation means the named object could not be opened or created.
	ErrCreation = errors.New("shared memory object could not be opened or created")
	// ErrSizing means the first owner could not size the backing store, or an
	// existing store is too small for T.
	ErrSizing = errors.New("shared memory object could not be sized")
	// ErrMapping means the object exists but could not be mapped.
	ErrMapping = errors.New("shared memory object could not be mapped")
	// ErrNotConnected is returned by accessors called on a disconnected handle.
	ErrNotConnected = errors.New("segment is not connected")
	// ErrRelease means unmap or close reported a failure.
	ErrRelease = errors.New("shared memory object could not be released")
	// ErrInvalidLayout means T is not a fixed-size plain value.
	ErrInvalidLayout = errors.New("type is not a fixed-size plain value")
	// ErrInvalidName means the name cannot identify a shared memory object.
	ErrInvalidName = shm.ErrInvalidName
)

// Error describes a failed operation on a named segment. Kind is one of the
// Err* values above; Err is the underlying cause, if any.
type Error struct {
	Op   string
	Name string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("segment %s %q: %v", e.Op, e.Name, e.Kind)
	}
	return fmt.Sprintf("segment %s %q: %v: %v", e.Op, e.Name, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// classify maps a connector failure onto the error taxonomy.
func classify(err error) (kind error, step string) {
	var se *shm.StepError
	if !errors.As(err, &se) {
		return ErrCreation, "open"
	}
	switch se.Step {
	case shm.StepSize:
		return ErrSizing, se.Step.String()
	case shm.StepMap:
		return ErrMapping, se.Step.String()
	case shm.StepRelease:
		return ErrRelease, se.Step.String()
	}
	return ErrCreation, se.Step.String()
}
