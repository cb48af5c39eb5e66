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
	"context"
	"errors"
	"os"
	"runtime"
	"sync"
	"time"
	"unsafe"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/srediag/shmseg/internal/registry"
	"github.com/srediag/shmseg/internal/shm"
)

// State is the connection state of a Handle.
type State int32

const (
	Disconnected State = iota
	Connected
)

func (s State) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// Handle is a typed view of the named shared memory object. T must be a
// fixed-size plain value; see New.
//
// A Handle owns its mapping and OS handle exclusively and must not be copied.
// All methods are safe for concurrent use, except that memory reached through
// Pointer is not guarded.
type Handle[T any] struct {
	name string
	size int
	mode os.FileMode

	mu      sync.Mutex
	state   State
	region  *shm.Region
	data    *T
	created bool

	logger   Logger
	metrics  *Metrics
	tel      telemetry
	registry *registry.Registry
}

// New returns a disconnected handle bound to name. It does not touch the OS.
//
// T may be built from booleans, integers, floats, complex numbers, arrays and
// structs of those; anything holding a pointer, slice, string, map, channel,
// func, interface or uintptr is rejected with ErrInvalidLayout.
//
// A handle that becomes unreachable while connected is disconnected by a
// finalizer. Callers should still Close handles explicitly.
func New[T any](name string, opts ...Option) (*Handle[T], error) {
	if name == "" {
		return nil, &Error{Op: "new", Name: name, Kind: ErrInvalidName}
	}
	size, err := layoutOf[T]()
	if err != nil {
		return nil, &Error{Op: "new", Name: name, Kind: ErrInvalidLayout, Err: err}
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	h := &Handle[T]{
		name:     name,
		size:     size,
		mode:     o.mode,
		state:    Disconnected,
		logger:   o.logger,
		metrics:  o.metrics,
		tel:      newTelemetry(o.tracerProvider, o.meterProvider),
		registry: o.registry,
	}
	runtime.SetFinalizer(h, (*Handle[T]).finalize)
	return h, nil
}

// MustNew is like New but panics on error.
func MustNew[T any](name string, opts ...Option) *Handle[T] {
	h, err := New[T](name, opts...)
	if err != nil {
		panic(err)
	}
	return h
}

// Name returns the name the handle was constructed with.
func (h *Handle[T]) Name() string { return h.name }

// Size returns the size of T in bytes, which is the mapped extent.
func (h *Handle[T]) Size() int { return h.size }

// Connect opens or creates the named object and maps it. When this handle is
// the first owner of the object it also sizes it to Size bytes; an object
// that already has a size is never resized, so live content survives.
//
// Connect on a connected handle returns nil without touching the OS. On
// failure the handle stays disconnected, nothing acquired is kept, and the
// returned *Error has Kind ErrCreation, ErrSizing or ErrMapping.
//
// ctx only carries tracing; the OS calls are not cancellable.
func (h *Handle[T]) Connect(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == Connected {
		h.metrics.connect(h.name, resultNoop)
		return nil
	}

	ctx, span := h.tel.start(ctx, "Connect", h.name, h.size)
	defer span.End()

	start := time.Now()
	region, err := shm.MapRegion(shm.MapOptions{Name: h.name, Size: h.size, Mode: h.mode})
	h.tel.recordConnect(ctx, h.name, time.Since(start), err)
	if err != nil {
		kind, step := classify(err)
		h.logger.Errorf("segment %q: connect failed at %s step: %v", h.name, step, err)
		h.metrics.connect(h.name, connectResult(kind))
		span.RecordError(err)
		span.SetStatus(codes.Error, kind.Error())
		return &Error{Op: "connect", Name: h.name, Kind: kind, Err: err}
	}

	h.region = region
	h.data = (*T)(unsafe.Pointer(&region.Addr[0]))
	h.created = region.Created
	h.state = Connected
	handles := h.registry.Attach(region.Name, h.size)

	h.metrics.connect(h.name, resultConnected)
	span.SetAttributes(attribute.Bool("shm.created", region.Created))
	h.logger.Infof("segment %q: connected, size=%d created=%t handles=%d", h.name, h.size, region.Created, handles)
	return nil
}

// Disconnect unmaps the region and releases the OS handle. It is a no-op on a
// disconnected handle. The named object is not destroyed; other handles and
// processes keep their view.
//
// A failing unmap or close is logged and counted, but the handle is
// disconnected regardless and Disconnect returns nil.
func (h *Handle[T]) Disconnect(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == Disconnected {
		return nil
	}

	_, span := h.tel.start(ctx, "Disconnect", h.name, h.size)
	defer span.End()

	if err := h.release(); err != nil {
		span.RecordError(err)
	}
	return nil
}

// Close disconnects the handle. It implements io.Closer.
func (h *Handle[T]) Close() error {
	return h.Disconnect(context.Background())
}

// release must be called with h.mu held, or from the finalizer.
func (h *Handle[T]) release() error {
	region := h.region
	h.data = nil
	h.region = nil
	h.created = false
	h.state = Disconnected

	err := shm.UnmapRegion(region)
	if err != nil {
		h.logger.Warnf("segment %q: release failed, handle disconnected anyway: %v", h.name, err)
	}
	handles := h.registry.Detach(region.Name)
	h.metrics.disconnect(h.name, err != nil)
	h.logger.Infof("segment %q: disconnected, handles=%d", h.name, handles)
	if err != nil {
		return &Error{Op: "disconnect", Name: h.name, Kind: ErrRelease, Err: err}
	}
	return nil
}

func (h *Handle[T]) finalize() {
	if h.state == Connected {
		h.logger.Warnf("segment %q: handle collected while connected, releasing", h.name)
		_ = h.release()
	}
}

// IsConnected reports whether the handle is connected.
func (h *Handle[T]) IsConnected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state == Connected
}

// State returns the connection state.
func (h *Handle[T]) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Created reports whether the current connection created and sized the
// object. It is false while disconnected.
func (h *Handle[T]) Created() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.created
}

// Snapshot copies the whole value out of the region under the handle's lock.
// Writers in other processes may still tear the copy.
func (h *Handle[T]) Snapshot() (T, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var v T
	if h.state != Connected {
		return v, h.notConnected("snapshot")
	}
	v = *h.data
	h.metrics.snapshot(h.name)
	return v, nil
}

// Write overwrites the whole region with v under the handle's lock.
func (h *Handle[T]) Write(v T) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != Connected {
		return h.notConnected("write")
	}
	*h.data = v
	h.metrics.write(h.name)
	return nil
}

// Update runs fn on the mapped value under the handle's lock, for
// read-modify-write without a full copy. fn must not retain the pointer.
func (h *Handle[T]) Update(fn func(*T)) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != Connected {
		return h.notConnected("update")
	}
	fn(h.data)
	h.metrics.write(h.name)
	return nil
}

// Pointer returns the mapped value itself. Access through it bypasses the
// handle's lock; serializing it is the caller's job. The pointer is valid
// until Disconnect, and the handle must stay reachable while it is used.
func (h *Handle[T]) Pointer() (*T, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != Connected {
		return nil, h.notConnected("pointer")
	}
	return h.data, nil
}

func (h *Handle[T]) notConnected(op string) error {
	return &Error{Op: op, Name: h.name, Kind: ErrNotConnected}
}

// Attachment describes the connected handles this process holds on a name.
type Attachment = registry.Attachment

// Attached lists the segments this process is connected to, sorted by name.
func Attached() []Attachment {
	return registry.Default.List()
}

// Remove deletes the named object where the platform requires explicit
// removal (unix). Existing mappings stay valid; the next Connect on the name
// creates a fresh, zeroed object. Removing a missing object is not an error.
func Remove(name string) error {
	if err := shm.Remove(name); err != nil {
		kind, _ := classify(err)
		if errors.Is(err, shm.ErrInvalidName) {
			kind = ErrInvalidName
		}
		return &Error{Op: "remove", Name: name, Kind: kind, Err: err}
	}
	return nil
}
