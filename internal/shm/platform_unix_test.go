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
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type RegionTestSuite struct {
	suite.Suite
	dir string
}

func (s *RegionTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.T().Setenv(EnvDir, s.dir)
}

func (s *RegionTestSuite) name() string {
	return "region-" + strings.ReplaceAll(s.T().Name(), "/", "-")
}

func (s *RegionTestSuite) mapRegion(name string, size int) *Region {
	r, err := MapRegion(MapOptions{Name: name, Size: size})
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = UnmapRegion(r) })
	return r
}

func (s *RegionTestSuite) TestCreateThenOpen() {
	name := s.name()
	r1 := s.mapRegion(name, 16)
	s.True(r1.Created)
	s.Len(r1.Addr, 16)
	copy(r1.Addr, "shared segment!!")

	r2 := s.mapRegion("/"+name, 16)
	s.False(r2.Created)
	s.Equal(name, r2.Name)
	s.Equal("shared segment!!", string(r2.Addr))

	r2.Addr[0] = 'S'
	s.Equal(byte('S'), r1.Addr[0])
}

func (s *RegionTestSuite) TestReopenKeepsContent() {
	name := s.name()
	r1, err := MapRegion(MapOptions{Name: name, Size: 8})
	s.Require().NoError(err)
	copy(r1.Addr, "persist!")
	s.Require().NoError(UnmapRegion(r1))

	r2 := s.mapRegion(name, 8)
	s.False(r2.Created)
	s.Equal("persist!", string(r2.Addr))
}

func (s *RegionTestSuite) TestExistingSmallerObject() {
	name := s.name()
	s.mapRegion(name, 8)

	r, err := MapRegion(MapOptions{Name: name, Size: 16})
	s.Nil(r)
	s.ErrorIs(err, ErrSizeMismatch)
	var stepErr *StepError
	s.Require().True(errors.As(err, &stepErr))
	s.Equal(StepSize, stepErr.Step)
	s.Equal(name, stepErr.Name)
}

func (s *RegionTestSuite) TestExistingLargerObject() {
	name := s.name()
	big := s.mapRegion(name, 32)
	big.Addr[3] = 42

	small := s.mapRegion(name, 4)
	s.False(small.Created)
	s.Len(small.Addr, 4)
	s.Equal(byte(42), small.Addr[3])
}

func (s *RegionTestSuite) TestInvalidNames() {
	for _, name := range []string{"", "/", "a/b", "..", "nul\x00byte", strings.Repeat("x", maxNameLen+1)} {
		r, err := MapRegion(MapOptions{Name: name, Size: 8})
		s.Nil(r, "name %q", name)
		s.ErrorIs(err, ErrInvalidName, "name %q", name)
		var stepErr *StepError
		s.Require().True(errors.As(err, &stepErr))
		s.Equal(StepOpen, stepErr.Step)
	}
}

func (s *RegionTestSuite) TestInvalidSize() {
	_, err := MapRegion(MapOptions{Name: s.name(), Size: 0})
	s.ErrorIs(err, ErrInvalidSize)
}

func (s *RegionTestSuite) TestUnmapIsIdempotent() {
	r, err := MapRegion(MapOptions{Name: s.name(), Size: 8})
	s.Require().NoError(err)
	s.False(r.Released())
	s.NoError(UnmapRegion(r))
	s.True(r.Released())
	s.NoError(UnmapRegion(r))
	s.NoError(UnmapRegion(nil))
}

func (s *RegionTestSuite) TestRemove() {
	name := s.name()
	r, err := MapRegion(MapOptions{Name: name, Size: 8})
	s.Require().NoError(err)
	copy(r.Addr, "stale!!!")
	s.Require().NoError(UnmapRegion(r))

	s.NoError(Remove(name))
	s.NoFileExists(filepath.Join(s.dir, name))
	s.NoError(Remove(name), "removing a missing object")

	fresh := s.mapRegion(name, 8)
	s.True(fresh.Created)
	s.Equal(make([]byte, 8), fresh.Addr)
}

func (s *RegionTestSuite) TestPath() {
	p, err := Path("/segment")
	s.Require().NoError(err)
	s.Equal(filepath.Join(s.dir, "segment"), p)

	_, err = Path("a/b")
	s.ErrorIs(err, ErrInvalidName)
}

func (s *RegionTestSuite) TestCanCreate() {
	s.True(canCreate(1, s.dir))
	s.False(canCreate(math.MaxUint64, s.dir))
	s.True(canCreate(math.MaxUint64, filepath.Join(s.dir, "does-not-exist")))
}

func TestRegionTestSuite(t *testing.T) {
	suite.Run(t, new(RegionTestSuite))
}
