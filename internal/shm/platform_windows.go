//go:build windows

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
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

type osHandle struct {
	mapping windows.Handle
}

// MapRegion creates or opens a named, pagefile-backed file mapping and maps a
// view of it. CreateFileMapping sizes the section atomically when it creates
// it, so first-owner sizing needs no separate step here. An existing section
// keeps its size; it is mapped whole and rejected with ErrSizeMismatch when
// the view is smaller than requested. Views are page granular, so a section
// short by less than a page is not detected.
func MapRegion(opts MapOptions) (*Region, error) {
	name, err := normalizeName(opts.Name)
	if err != nil {
		return nil, &StepError{Step: StepOpen, Name: opts.Name, Err: err}
	}
	if opts.Size <= 0 {
		return nil, &StepError{Step: StepSize, Name: name, Err: ErrInvalidSize}
	}
	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, &StepError{Step: StepOpen, Name: name, Err: fmt.Errorf("%w: %v", ErrInvalidName, err)}
	}

	size := uint64(opts.Size)
	h, err := windows.CreateFileMapping(
		windows.InvalidHandle,
		nil,
		windows.PAGE_READWRITE,
		uint32(size>>32),
		uint32(size),
		namePtr,
	)
	created := true
	if err != nil {
		if h == 0 || !errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
			if h != 0 {
				_ = windows.CloseHandle(h)
			}
			return nil, &StepError{Step: StepOpen, Name: name, Err: fmt.Errorf("CreateFileMapping: %w", err)}
		}
		created = false
	}

	access := uint32(windows.FILE_MAP_READ | windows.FILE_MAP_WRITE)
	mapLen := uintptr(opts.Size)
	if !created {
		mapLen = 0
	}
	addr, err := windows.MapViewOfFile(h, access, 0, 0, mapLen)
	if err != nil {
		_ = windows.CloseHandle(h)
		return nil, &StepError{Step: StepMap, Name: name, Err: fmt.Errorf("MapViewOfFile: %w", err)}
	}
	if !created {
		if err := checkViewSize(addr, opts.Size); err != nil {
			_ = windows.UnmapViewOfFile(addr)
			_ = windows.CloseHandle(h)
			return nil, &StepError{Step: StepSize, Name: name, Err: err}
		}
	}

	return &Region{
		Name:    name,
		Size:    opts.Size,
		Created: created,
		Addr:    unsafe.Slice((*byte)(unsafe.Pointer(addr)), opts.Size),
		handle:  osHandle{mapping: h},
	}, nil
}

func checkViewSize(addr uintptr, size int) error {
	var info windows.MemoryBasicInformation
	if err := windows.VirtualQuery(addr, &info, unsafe.Sizeof(info)); err != nil {
		return fmt.Errorf("VirtualQuery: %w", err)
	}
	if info.RegionSize < uintptr(size) {
		return fmt.Errorf("%w: view is %d bytes, want %d", ErrSizeMismatch, info.RegionSize, size)
	}
	return nil
}

// UnmapRegion unmaps the view and closes the mapping handle. The section is
// destroyed by the system when its last handle closes.
func UnmapRegion(r *Region) error {
	if r.Released() {
		return nil
	}
	var errs []error
	if err := windows.UnmapViewOfFile(uintptr(unsafe.Pointer(&r.Addr[0]))); err != nil {
		errs = append(errs, fmt.Errorf("UnmapViewOfFile: %w", err))
	}
	r.Addr = nil
	if r.handle.mapping != 0 {
		if err := windows.CloseHandle(r.handle.mapping); err != nil {
			errs = append(errs, fmt.Errorf("CloseHandle: %w", err))
		}
		r.handle.mapping = 0
	}
	if len(errs) > 0 {
		return &StepError{Step: StepRelease, Name: r.Name, Err: errors.Join(errs...)}
	}
	return nil
}

// Remove only validates the name: a pagefile-backed section has no path to
// unlink and goes away with its last handle.
func Remove(name string) error {
	if _, err := normalizeName(name); err != nil {
		return &StepError{Step: StepOpen, Name: name, Err: err}
	}
	return nil
}

// Path returns the object-manager name of the section.
func Path(name string) (string, error) {
	n, err := normalizeName(name)
	if err != nil {
		return "", err
	}
	return `Local\` + n, nil
}
