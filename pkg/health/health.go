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

// Package health exposes liveness and readiness probes for shared memory
// segments through heptiolabs/healthcheck.
package health

import (
	"errors"
	"fmt"

	"github.com/heptiolabs/healthcheck"

	"github.com/srediag/shmseg/pkg/segment"
)

// Checker is the part of a segment handle the probes need.
// *segment.Handle[T] satisfies it for every T.
type Checker interface {
	Name() string
	IsConnected() bool
}

var errNothingAttached = errors.New("no shared memory segment attached")

// ConnectedCheck fails while c is disconnected.
func ConnectedCheck(c Checker) healthcheck.Check {
	return func() error {
		if !c.IsConnected() {
			return fmt.Errorf("segment %q is not connected", c.Name())
		}
		return nil
	}
}

// AttachedCheck fails until this process holds at least one connected
// segment.
func AttachedCheck() healthcheck.Check {
	return func() error {
		if len(segment.Attached()) == 0 {
			return errNothingAttached
		}
		return nil
	}
}

// Register adds a liveness check named "segment:<name>" for each checker.
func Register(h healthcheck.Handler, checkers ...Checker) {
	for _, c := range checkers {
		h.AddLivenessCheck("segment:"+c.Name(), ConnectedCheck(c))
	}
}

// NewHandler returns a handler serving /live for the given checkers and
// /ready for the process-wide attachment state.
func NewHandler(checkers ...Checker) healthcheck.Handler {
	h := healthcheck.NewHandler()
	Register(h, checkers...)
	h.AddReadinessCheck("segments-attached", AttachedCheck())
	return h
}
