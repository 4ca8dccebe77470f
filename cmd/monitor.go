// SPDX-License-Identifier: AGPL-3.0-or-later
// smadata2 - A Go client for the SMA SMAData2 Bluetooth inverter protocol
// Copyright (C) 2023 Jacob McSwain
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgibson/smadata2/internal/metrics"
	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"
)

// newMonitorCommand returns the "monitor" verb: a lighter-weight cousin of
// download that only tracks signal strength and yield counters through
// Prometheus, with no store and no historic catch-up. It's meant for
// dashboards and alerting, not for building a production-history database.
func newMonitorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Continuously expose signal strength and yield counters as metrics",
		RunE:  runMonitor,
	}
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := setupLogger(cfg)

	shutdownTracing, err := setupTracing(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	go func() {
		if err := metrics.CreateMetricsServer(cfg); err != nil {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	m := metrics.NewMetrics()

	d := &downloader{cfg: cfg, logger: logger, metrics: m, sender: nil}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.Poll.Interval),
		gocron.NewTask(func() { d.monitorOnce(ctx) }),
	)
	if err != nil {
		return err
	}

	scheduler.Start()
	logger.Info("monitor started", "interval", cfg.Poll.Interval)
	d.monitorOnce(ctx)

	<-ctx.Done()
	logger.Info("shutting down")
	return scheduler.Shutdown()
}

// monitorOnce is download's signal/yield half with persistence left out: it
// shares ensureConnected/disconnect so a dropped transport reconnects and
// device errors are still counted in metrics. It has no alert sender, so no
// email is sent, and nothing is written to the store.
func (d *downloader) monitorOnce(ctx context.Context) {
	if err := d.ensureConnected(ctx); err != nil {
		d.logger.Error("monitor: not connected", "error", err)
		return
	}

	start := time.Now()
	signalPercent, err := d.conn.GetSignal(ctx)
	d.recordOperation("signal", err, start)
	if err != nil {
		d.logger.Error("monitor: signal read failed", "error", err)
		d.disconnect(err)
		return
	}
	d.metrics.SignalPercent.Set(signalPercent)

	start = time.Now()
	total, err := d.conn.TotalYield(ctx)
	d.recordOperation("total_yield", err, start)
	if err != nil {
		d.logger.Error("monitor: total yield read failed", "error", err)
		d.disconnect(err)
		return
	}
	d.metrics.TotalYieldWh.Set(float64(total.TotalWh))
}
