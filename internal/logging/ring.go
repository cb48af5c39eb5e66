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

package logging

import (
	"fmt"
	"sync"

	"github.com/Workiva/go-datastructures/queue"
)

// Entry is one recorded diagnostic line.
type Entry struct {
	Level   int
	Message string
}

// Ring keeps the most recent diagnostics in memory. When full, the oldest
// entry is dropped to make room. Capacity is rounded up to a power of two.
type Ring struct {
	mu sync.Mutex
	rb *queue.RingBuffer
}

// NewRing returns a Ring holding at least capacity entries.
func NewRing(capacity uint64) *Ring {
	if capacity == 0 {
		capacity = 1
	}
	return &Ring{rb: queue.NewRingBuffer(capacity)}
}

func (r *Ring) Errorf(format string, a ...any) { r.record(LevelError, format, a...) }
func (r *Ring) Warnf(format string, a ...any)  { r.record(LevelWarn, format, a...) }
func (r *Ring) Infof(format string, a ...any)  { r.record(LevelInfo, format, a...) }
func (r *Ring) Debugf(format string, a ...any) { r.record(LevelDebug, format, a...) }

func (r *Ring) record(level int, format string, a ...any) {
	e := Entry{Level: level, Message: fmt.Sprintf(format, a...)}

	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		ok, err := r.rb.Offer(e)
		if ok || err != nil {
			return
		}
		// full: the buffer is non-empty and we are the only consumer
		_, _ = r.rb.Get()
	}
}

// Len returns the number of entries currently held.
func (r *Ring) Len() int {
	return int(r.rb.Len())
}

// Entries drains the ring and returns its entries, oldest first.
func (r *Ring) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.rb.Len()
	out := make([]Entry, 0, n)
	for i := uint64(0); i < n; i++ {
		item, err := r.rb.Get()
		if err != nil {
			break
		}
		out = append(out, item.(Entry))
	}
	return out
}
