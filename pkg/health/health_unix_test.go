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

package health

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srediag/shmseg/internal/shm"
	"github.com/srediag/shmseg/pkg/segment"
)

func TestProbesWithRealSegment(t *testing.T) {
	t.Setenv(shm.EnvDir, t.TempDir())

	h, err := segment.New[uint64]("health-probe")
	require.NoError(t, err)
	handler := NewHandler(h)

	assert.Equal(t, http.StatusServiceUnavailable, serve(handler, "/live"))

	require.NoError(t, h.Connect(context.Background()))
	assert.Equal(t, http.StatusOK, serve(handler, "/live"))
	assert.Equal(t, http.StatusOK, serve(handler, "/ready"))

	require.NoError(t, h.Close())
	assert.Equal(t, http.StatusServiceUnavailable, serve(handler, "/live"))
}
