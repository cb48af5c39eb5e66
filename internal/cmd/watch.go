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
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/srediag/shmseg/pkg/health"
	"github.com/srediag/shmseg/pkg/segment"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the value of a segment every time it changes",
	Long: `Print the value of a segment, then print it again whenever it changes,
until interrupted. With --metrics-addr, /metrics, /live and /ready are served
while watching.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Duration("interval", 0, "poll interval (default from watch.interval)")
	watchCmd.Flags().String("metrics-addr", "", "serve metrics and health on this address")
}

func runWatch(cmd *cobra.Command, args []string) error {
	t, err := targetFlags(cmd)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	cfg, s, flush, err := newSession(segment.WithMetrics(segment.NewMetrics(reg)))
	if err != nil {
		return err
	}
	defer flush()

	interval := cfg.Watch.Interval
	if d, _ := cmd.Flags().GetDuration("interval"); d > 0 {
		interval = d
	}
	addr := cfg.Metrics.Addr
	if a, _ := cmd.Flags().GetString("metrics-addr"); a != "" {
		addr = a
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var onOpen func(health.Checker)
	if addr != "" {
		probes := health.NewHandler()
		onOpen = func(c health.Checker) { health.Register(probes, c) }

		srv := newMetricsServer(addr, reg, probes)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("metrics server stopped", zap.String("addr", addr), zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	return t.vt.watch(ctx, s, t.name, interval, cmd.OutOrStdout(), onOpen)
}

func newMetricsServer(addr string, reg *prometheus.Registry, probes healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/live", probes.LiveEndpoint)
	mux.HandleFunc("/ready", probes.ReadyEndpoint)
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
