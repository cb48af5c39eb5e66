//go:build !unix && !windows

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

type osHandle struct{}

// MapRegion always fails on platforms without a shared memory binding.
func MapRegion(opts MapOptions) (*Region, error) {
	return nil, &StepError{Step: StepOpen, Name: opts.Name, Err: ErrUnsupported}
}

// UnmapRegion is a no-op; MapRegion never hands out a region here.
func UnmapRegion(r *Region) error {
	return nil
}

func Remove(name string) error {
	return &StepError{Step: StepOpen, Name: name, Err: ErrUnsupported}
}

func Path(name string) (string, error) {
	return "", ErrUnsupported
}
