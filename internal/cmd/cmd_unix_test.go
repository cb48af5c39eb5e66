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

package cmd

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/srediag/shmseg/internal/shm"
	"github.com/srediag/shmseg/pkg/health"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testSession(t *testing.T) session {
	t.Helper()
	t.Setenv(shm.EnvDir, t.TempDir())
	_, s, flush, err := sessionFor(Default(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(flush)
	return s
}

func TestSetThenGet(t *testing.T) {
	s := testSession(t)
	ctx := context.Background()
	vt, err := lookupType("int32")
	require.NoError(t, err)

	got, err := vt.get(ctx, s, "counter")
	require.NoError(t, err)
	assert.Equal(t, "0", got)

	require.NoError(t, vt.set(ctx, s, "counter", "-42"))
	got, err = vt.get(ctx, s, "counter")
	require.NoError(t, err)
	assert.Equal(t, "-42", got)
}

func TestSetRejectsBadValue(t *testing.T) {
	s := testSession(t)
	vt, err := lookupType("bool")
	require.NoError(t, err)

	err = vt.set(context.Background(), s, "flag", "maybe")
	assert.ErrorContains(t, err, `invalid value "maybe"`)
}

func TestGetNarrowerTypeOnWiderSegment(t *testing.T) {
	s := testSession(t)
	ctx := context.Background()
	wide, _ := lookupType("uint64")
	narrow, _ := lookupType("uint8")

	require.NoError(t, wide.set(ctx, s, "shared", "258"))
	got, err := narrow.get(ctx, s, "shared")
	require.NoError(t, err)
	// little endian: the low byte of 258
	if got != "2" {
		assert.Equal(t, "1", got, "big endian hosts see the high byte")
	}
}

func TestGetWiderTypeOnNarrowerSegmentFails(t *testing.T) {
	s := testSession(t)
	ctx := context.Background()
	narrow, _ := lookupType("uint8")
	wide, _ := lookupType("uint64")

	require.NoError(t, narrow.set(ctx, s, "small", "1"))
	_, err := wide.get(ctx, s, "small")
	assert.Error(t, err)
}

func TestWatchPrintsChanges(t *testing.T) {
	s := testSession(t)
	vt, _ := lookupType("uint32")
	require.NoError(t, vt.set(context.Background(), s, "watched", "1"))

	ctx, cancel := context.WithCancel(context.Background())
	out := &lockedBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- vt.watch(ctx, s, "watched", 5*time.Millisecond, out, nil)
	}()

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, vt.set(context.Background(), s, "watched", "2"))
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "2\n")
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, "1\n2\n", out.String())
}

func TestWatchIgnoresUnchangedNaN(t *testing.T) {
	s := testSession(t)
	vt, _ := lookupType("float64")
	require.NoError(t, vt.set(context.Background(), s, "nan", "NaN"))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	out := &lockedBuffer{}
	require.NoError(t, vt.watch(ctx, s, "nan", 5*time.Millisecond, out, nil))
	assert.Equal(t, "NaN\n", out.String())
}

func TestWatchServesSegmentLiveness(t *testing.T) {
	s := testSession(t)
	vt, _ := lookupType("uint8")

	probes := health.NewHandler()
	srv := httptest.NewServer(newMetricsServer("", prometheus.NewRegistry(), probes).Handler)
	defer srv.Close()

	status := func(path string) (int, string) {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	ctx, cancel := context.WithCancel(context.Background())
	opened := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- vt.watch(ctx, s, "live", 5*time.Millisecond, io.Discard, func(c health.Checker) {
			health.Register(probes, c)
			close(opened)
		})
	}()
	<-opened

	code, body := status("/live?full=1")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"segment:live"`)
	code, _ = status("/ready")
	assert.Equal(t, http.StatusOK, code)
	code, _ = status("/metrics")
	assert.Equal(t, http.StatusOK, code)

	cancel()
	require.NoError(t, <-done)

	code, body = status("/live?full=1")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body, "not connected")
}

func TestRootCommandSetGet(t *testing.T) {
	t.Setenv(shm.EnvDir, t.TempDir())

	run := func(args ...string) string {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs(args)
		require.NoError(t, Execute())
		return out.String()
	}

	run("set", "--name", "cli", "--type", "float64", "2.5")
	assert.Equal(t, "2.5\n", run("get", "--name", "cli", "--type", "float64"))

	info := run("info", "--name", "cli")
	assert.Contains(t, info, "size: 8 bytes")

	run("remove", "--name", "cli")
	assert.Contains(t, run("info", "--name", "cli"), "not created")
}

func TestRootCommandRequiresName(t *testing.T) {
	rootCmd.SetArgs([]string{"get", "--name", ""})
	rootCmd.SetErr(&bytes.Buffer{})
	err := Execute()
	assert.ErrorContains(t, err, "--name is required")
}
