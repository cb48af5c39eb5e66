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

// Package registry tracks which named segments this process has attached.
package registry

import (
	"sort"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// Attachment describes the handles this process holds on one name.
type Attachment struct {
	Name string
	// Size is the largest value size among the attached handles. Handles of
	// smaller types map a prefix of the same object.
	Size    int
	Handles int
}

// Registry is safe for concurrent use.
type Registry struct {
	m cmap.ConcurrentMap[string, Attachment]
}

// Default is the process-wide registry used by segment handles.
var Default = New()

func New() *Registry {
	return &Registry{m: cmap.New[Attachment]()}
}

// Attach records one more connected handle on name and returns the new count.
func (r *Registry) Attach(name string, size int) int {
	a := r.m.Upsert(name, Attachment{Name: name, Size: size, Handles: 1},
		func(exist bool, old, fresh Attachment) Attachment {
			if !exist {
				return fresh
			}
			old.Handles++
			old.Size = max(old.Size, fresh.Size)
			return old
		})
	return a.Handles
}

// Detach drops one handle on name and returns how many remain. The entry is
// removed when the last handle goes.
func (r *Registry) Detach(name string) int {
	a := r.m.Upsert(name, Attachment{}, func(exist bool, old, _ Attachment) Attachment {
		if exist && old.Handles > 0 {
			old.Handles--
		}
		return old
	})
	if a.Handles == 0 {
		// re-checked under the shard lock: an Attach may have slipped in
		r.m.RemoveCb(name, func(_ string, cur Attachment, exists bool) bool {
			return exists && cur.Handles == 0
		})
	}
	return a.Handles
}

// Get returns the attachment for name, if any.
func (r *Registry) Get(name string) (Attachment, bool) {
	return r.m.Get(name)
}

// Len returns the number of distinct attached names.
func (r *Registry) Len() int {
	return r.m.Count()
}

// List returns every attachment sorted by name.
func (r *Registry) List() []Attachment {
	items := r.m.Items()
	out := make([]Attachment, 0, len(items))
	for _, a := range items {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
