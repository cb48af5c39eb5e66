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
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"
	"unsafe"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/srediag/shmseg/pkg/health"
	"github.com/srediag/shmseg/pkg/segment"
)

// valueType reads and writes one primitive value type through a segment.
type valueType interface {
	get(ctx context.Context, s session, name string) (string, error)
	set(ctx context.Context, s session, name, raw string) error
	// watch calls onOpen, when not nil, with the connected handle.
	watch(ctx context.Context, s session, name string, interval time.Duration, out io.Writer, onOpen func(health.Checker)) error
}

// session carries what every command needs to open a handle.
type session struct {
	opts   []segment.Option
	retry  func() backoff.BackOff
	logger *zap.Logger
}

type typed[T any] struct {
	parse  func(string) (T, error)
	format func(T) string
}

func (v typed[T]) open(ctx context.Context, s session, name string) (*segment.Handle[T], error) {
	h, err := segment.New[T](name, s.opts...)
	if err != nil {
		return nil, err
	}
	if err := h.ConnectWithRetry(ctx, s.retry()); err != nil {
		return nil, err
	}
	return h, nil
}

func (v typed[T]) get(ctx context.Context, s session, name string) (string, error) {
	h, err := v.open(ctx, s, name)
	if err != nil {
		return "", err
	}
	defer h.Close()

	val, err := h.Snapshot()
	if err != nil {
		return "", err
	}
	return v.format(val), nil
}

func (v typed[T]) set(ctx context.Context, s session, name, raw string) error {
	val, err := v.parse(raw)
	if err != nil {
		return fmt.Errorf("invalid value %q: %w", raw, err)
	}
	h, err := v.open(ctx, s, name)
	if err != nil {
		return err
	}
	defer h.Close()
	return h.Write(val)
}

// watch prints the value once, then again every time a poll sees its bytes
// change, until ctx is done.
func (v typed[T]) watch(ctx context.Context, s session, name string, interval time.Duration, out io.Writer, onOpen func(health.Checker)) error {
	h, err := v.open(ctx, s, name)
	if err != nil {
		return err
	}
	defer h.Close()
	if onOpen != nil {
		onOpen(h)
	}

	last, err := h.Snapshot()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, v.format(last))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			cur, err := h.Snapshot()
			if err != nil {
				return err
			}
			if !sameBits(&cur, &last) {
				fmt.Fprintln(out, v.format(cur))
				last = cur
			}
		}
	}
}

// sameBits compares the memory of two values. A NaN is unchanged when its
// payload is.
func sameBits[T any](a, b *T) bool {
	n := unsafe.Sizeof(*a)
	return bytes.Equal(
		unsafe.Slice((*byte)(unsafe.Pointer(a)), n),
		unsafe.Slice((*byte)(unsafe.Pointer(b)), n),
	)
}

func bitsOf[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero)) * 8
}

func signed[T ~int8 | ~int16 | ~int32 | ~int64]() typed[T] {
	return typed[T]{
		parse: func(s string) (T, error) {
			n, err := strconv.ParseInt(s, 0, bitsOf[T]())
			return T(n), err
		},
		format: func(v T) string { return strconv.FormatInt(int64(v), 10) },
	}
}

func unsigned[T ~uint8 | ~uint16 | ~uint32 | ~uint64]() typed[T] {
	return typed[T]{
		parse: func(s string) (T, error) {
			n, err := strconv.ParseUint(s, 0, bitsOf[T]())
			return T(n), err
		},
		format: func(v T) string { return strconv.FormatUint(uint64(v), 10) },
	}
}

func float[T ~float32 | ~float64]() typed[T] {
	return typed[T]{
		parse: func(s string) (T, error) {
			f, err := strconv.ParseFloat(s, bitsOf[T]())
			return T(f), err
		},
		format: func(v T) string { return strconv.FormatFloat(float64(v), 'g', -1, bitsOf[T]()) },
	}
}

var valueTypes = map[string]valueType{
	"int8":    signed[int8](),
	"int16":   signed[int16](),
	"int32":   signed[int32](),
	"int64":   signed[int64](),
	"uint8":   unsigned[uint8](),
	"uint16":  unsigned[uint16](),
	"uint32":  unsigned[uint32](),
	"uint64":  unsigned[uint64](),
	"float32": float[float32](),
	"float64": float[float64](),
	"bool": typed[bool]{
		parse:  strconv.ParseBool,
		format: strconv.FormatBool,
	},
}

func lookupType(name string) (valueType, error) {
	vt, ok := valueTypes[name]
	if !ok {
		return nil, fmt.Errorf("unknown type %q, want one of %v", name, typeNames())
	}
	return vt, nil
}

func typeNames() []string {
	names := make([]string, 0, len(valueTypes))
	for n := range valueTypes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
