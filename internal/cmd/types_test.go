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
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedParse(t *testing.T) {
	v := signed[int8]()

	n, err := v.parse("-128")
	require.NoError(t, err)
	assert.Equal(t, int8(-128), n)
	assert.Equal(t, "-128", v.format(n))

	n, err = v.parse("0x7f")
	require.NoError(t, err)
	assert.Equal(t, int8(127), n)

	_, err = v.parse("128")
	assert.Error(t, err)
}

func TestUnsignedParse(t *testing.T) {
	v := unsigned[uint16]()

	n, err := v.parse("0b101")
	require.NoError(t, err)
	assert.Equal(t, uint16(5), n)

	_, err = v.parse("-1")
	assert.Error(t, err)
	_, err = v.parse("65536")
	assert.Error(t, err)
}

func TestFloatFormat(t *testing.T) {
	v := float[float32]()

	f, err := v.parse("0.1")
	require.NoError(t, err)
	assert.Equal(t, "0.1", v.format(f))

	_, err = v.parse("abc")
	assert.Error(t, err)
}

func TestBitsOf(t *testing.T) {
	assert.Equal(t, 8, bitsOf[int8]())
	assert.Equal(t, 32, bitsOf[float32]())
	assert.Equal(t, 64, bitsOf[uint64]())
}

func TestLookupType(t *testing.T) {
	for _, name := range typeNames() {
		vt, err := lookupType(name)
		require.NoError(t, err, name)
		assert.NotNil(t, vt)
	}

	_, err := lookupType("complex128")
	assert.ErrorContains(t, err, "unknown type")
}

func TestTypeNamesSorted(t *testing.T) {
	names := typeNames()
	assert.Len(t, names, len(valueTypes))
	assert.True(t, sort.StringsAreSorted(names))
}
