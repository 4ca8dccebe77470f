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
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgibson/smadata2/client"
	"github.com/dgibson/smadata2/internal/alert"
	"github.com/dgibson/smadata2/internal/config"
	"github.com/dgibson/smadata2/internal/metrics"
	"github.com/dgibson/smadata2/internal/smadata2"
	"github.com/dgibson/smadata2/internal/store"
	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"
)

// retryDelay is how long download backs off between reconnect attempts
// after the transport drops; the Client itself has no retry policy of its
// own, so it lives here at the CLI layer.
const retryDelay = 5 * time.Second

// newDownloadCommand returns the "download" verb: a persistent poll loop
// that keeps signal, yield, and historic samples flowing into the store,
// reconnecting after a failed poll and alerting on each device error that
// ends one.
func newDownloadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "download",
		Short: "Continuously poll the inverter and persist samples",
		RunE:  runDownload,
	}
}

func runDownload(cmd *cobra.Command, _ []string) error {
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

	s, err := store.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	sender := alert.NewSender(cfg.SMTP)

	d := &downloader{cfg: cfg, logger: logger, metrics: m, store: s, sender: sender}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.Poll.Interval),
		gocron.NewTask(func() { d.poll(ctx) }),
	)
	if err != nil {
		return err
	}

	scheduler.Start()
	logger.Info("download started", "interval", cfg.Poll.Interval)
	d.poll(ctx)

	<-ctx.Done()
	logger.Info("shutting down")
	return scheduler.Shutdown()
}

// downloader owns one reconnectable Client across the lifetime of the poll
// loop; conn is nil whenever a reconnect is pending.
type downloader struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	store   *store.Store
	sender  *alert.Sender
	conn    *client.Client
}

func (d *downloader) poll(ctx context.Context) {
	if err := d.ensureConnected(ctx); err != nil {
		d.logger.Error("poll: not connected", "error", err)
		return
	}

	if err := d.pollSignalAndYield(ctx); err != nil {
		d.logger.Error("poll: signal/yield failed", "error", err)
		d.disconnect(err)
		return
	}
	if d.cfg.Poll.HistoricCatchUp {
		if err := d.catchUpHistoric(ctx); err != nil {
			d.logger.Error("poll: historic catch-up failed", "error", err)
			d.disconnect(err)
		}
	}
}

func (d *downloader) ensureConnected(ctx context.Context) error {
	if d.conn != nil {
		return nil
	}
	c, err := dialInverter(ctx, d.cfg, d.logger)
	if err != nil {
		time.Sleep(retryDelay)
		return err
	}
	d.metrics.RecordReconnect()
	d.conn = c
	return nil
}

func (d *downloader) disconnect(cause error) {
	if d.conn != nil {
		_ = d.conn.Close()
	}
	d.conn = nil
	var devErr *smadata2.DeviceError
	if errors.As(cause, &devErr) {
		d.metrics.RecordDeviceError(fmt.Sprintf("0x%04X", devErr.Code))
		if d.sender != nil {
			if err := d.sender.Send(alert.DeviceErrorSubject(d.cfg.Inverter.Serial), devErr.Error()); err != nil && !errors.Is(err, alert.ErrAlertingDisabled) {
				d.logger.Error("failed to send device error alert", "error", err)
			}
		}
	}
}

func (d *downloader) pollSignalAndYield(ctx context.Context) error {
	start := time.Now()
	signalPercent, err := d.conn.GetSignal(ctx)
	d.recordOperation("signal", err, start)
	if err != nil {
		return err
	}
	d.metrics.SignalPercent.Set(signalPercent)

	start = time.Now()
	total, err := d.conn.TotalYield(ctx)
	d.recordOperation("total_yield", err, start)
	if err != nil {
		return err
	}
	d.metrics.TotalYieldWh.Set(float64(total.TotalWh))
	if err := d.store.AddSample(d.cfg.Inverter.Serial, total.Timestamp, config.SampleKindInverterFast, total.TotalWh); err != nil {
		return err
	}

	start = time.Now()
	daily, err := d.conn.DailyYield(ctx)
	d.recordOperation("daily_yield", err, start)
	if err != nil {
		return err
	}
	d.metrics.DailyYieldWh.Set(float64(daily.TotalWh))
	return d.store.AddSample(d.cfg.Inverter.Serial, daily.Timestamp, config.SampleKindInverterDaily, daily.TotalWh)
}

func (d *downloader) catchUpHistoric(ctx context.Context) error {
	from := d.cfg.Inverter.StartTime
	if last, err := d.store.GetLastSample(d.cfg.Inverter.Serial, config.SampleKindInverterFast); err == nil && last != nil {
		from = *last
	}
	to := time.Now()
	if !from.Before(to) {
		return nil
	}

	start := time.Now()
	samples, err := d.conn.Historic(ctx, from, to)
	d.recordOperation("historic", err, start)
	if err != nil {
		return err
	}

	if err := d.store.Begin(); err != nil {
		return err
	}
	for _, sample := range samples {
		if err := d.store.AddSample(d.cfg.Inverter.Serial, sample.Timestamp, config.SampleKindInverterFast, sample.TotalYieldWh); err != nil {
			_ = d.store.Rollback()
			return err
		}
	}
	if err := d.store.Commit(); err != nil {
		return err
	}
	d.metrics.RecordHistoricSamples("inverter_fast", len(samples))
	return nil
}

func (d *downloader) recordOperation(operation string, err error, start time.Time) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	d.metrics.RecordOperation(operation, status, time.Since(start).Seconds())
}
