//go:build unix

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
	"path/filepath"

	"github.com/shirou/gopsutil/v3/disk"
	"golang.org/x/sys/unix"
)

type osHandle struct {
	fd int
}

// MapRegion opens or creates the named object, sizes it when this caller is
// the first owner, and maps it read/write.
//
// The first owner is detected by a zero-length backing store. Two creators
// racing on a brand new name may both observe zero and both truncate; this is
// harmless as long as they agree on the size, and is not guarded further.
func MapRegion(opts MapOptions) (*Region, error) {
	name, err := normalizeName(opts.Name)
	if err != nil {
		return nil, &StepError{Step: StepOpen, Name: opts.Name, Err: err}
	}
	if opts.Size <= 0 {
		return nil, &StepError{Step: StepSize, Name: name, Err: ErrInvalidSize}
	}
	path, err := backingPath(name)
	if err != nil {
		return nil, &StepError{Step: StepOpen, Name: name, Err: err}
	}

	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_CLOEXEC, uint32(opts.mode().Perm()))
	if err != nil {
		return nil, &StepError{Step: StepOpen, Name: name, Err: fmt.Errorf("open %s: %w", path, err)}
	}

	created, err := sizeRegion(fd, filepath.Dir(path), opts.Size)
	if err != nil {
		_ = unix.Close(fd)
		return nil, &StepError{Step: StepSize, Name: name, Err: err}
	}

	addr, err := unix.Mmap(fd, 0, opts.Size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, &StepError{Step: StepMap, Name: name, Err: fmt.Errorf("mmap: %w", err)}
	}

	return &Region{
		Name:    name,
		Size:    opts.Size,
		Created: created,
		Addr:    addr,
		handle:  osHandle{fd: fd},
	}, nil
}

func sizeRegion(fd int, dir string, size int) (bool, error) {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return false, fmt.Errorf("fstat: %w", err)
	}
	switch {
	case st.Size == 0:
		if !canCreate(uint64(size), dir) {
			return false, fmt.Errorf("%w: dir %s, size %d", ErrNoSpace, dir, size)
		}
		if err := unix.Ftruncate(fd, int64(size)); err != nil {
			return false, fmt.Errorf("ftruncate: %w", err)
		}
		return true, nil
	case st.Size < int64(size):
		return false, fmt.Errorf("%w: have %d bytes, want %d", ErrSizeMismatch, st.Size, size)
	}
	return false, nil
}

// canCreate reports whether dir has room for size more bytes. An unknown
// answer is treated as yes and left to ftruncate.
func canCreate(size uint64, dir string) bool {
	stat, err := disk.Usage(dir)
	if err != nil {
		return true
	}
	return stat.Free >= size
}

// UnmapRegion unmaps and closes the shared memory region. Both steps are
// attempted; the named object itself is left in place.
func UnmapRegion(r *Region) error {
	if r.Released() {
		return nil
	}
	var errs []error
	if err := unix.Munmap(r.Addr); err != nil {
		errs = append(errs, fmt.Errorf("munmap: %w", err))
	}
	r.Addr = nil
	if r.handle.fd >= 0 {
		if err := unix.Close(r.handle.fd); err != nil {
			errs = append(errs, fmt.Errorf("close fd %d: %w", r.handle.fd, err))
		}
		r.handle.fd = -1
	}
	if len(errs) > 0 {
		return &StepError{Step: StepRelease, Name: r.Name, Err: errors.Join(errs...)}
	}
	return nil
}

// Remove unlinks the named object. Processes that still map it keep their
// view; a later MapRegion with the same name creates a fresh object.
func Remove(name string) error {
	n, err := normalizeName(name)
	if err != nil {
		return &StepError{Step: StepOpen, Name: name, Err: err}
	}
	path, err := backingPath(n)
	if err != nil {
		return &StepError{Step: StepOpen, Name: n, Err: err}
	}
	if err := unix.Unlink(path); err != nil && !errors.Is(err, unix.ENOENT) {
		return &StepError{Step: StepRelease, Name: n, Err: fmt.Errorf("unlink %s: %w", path, err)}
	}
	return nil
}

// Path returns the file backing the named object.
func Path(name string) (string, error) {
	n, err := normalizeName(name)
	if err != nil {
		return "", err
	}
	return backingPath(n)
}

func backingPath(name string) (string, error) {
	dir, err := baseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
