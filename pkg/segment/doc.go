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

// Package segment provides a typed handle to a named, fixed-size shared
// memory region that several processes can map at once.
//
// A Handle[T] binds a name to a value shape T. Connect opens the named object,
// creating and sizing it when this process is the first owner, and maps it.
// Every process connected to the same name with a T of the same size sees the
// same bytes.
//
// Access comes in two modes:
//
//   - Snapshot, Write and Update copy or mutate the whole value under the
//     handle's lock. They are race-free against other goroutines using the
//     same Handle.
//   - Pointer returns the mapped *T for in-place access without a copy. Nothing
//     serializes that access; the caller does.
//
// Neither mode synchronizes with other processes or with other Handles bound
// to the same name. The last writer wins; callers that need cross-process
// atomicity layer their own lock on top.
//
// Example usage:
//
//	type Telemetry struct {
//		Seq   uint64
//		Speed float64
//	}
//
//	h, err := segment.New[Telemetry]("vehicle", segment.WithZap(logger))
//	if err != nil {
//		return err
//	}
//	defer h.Close()
//	if err := h.Connect(ctx); err != nil {
//		return err
//	}
//	_ = h.Write(Telemetry{Seq: 1, Speed: 12.5})
//	v, _ := h.Snapshot()
package segment
