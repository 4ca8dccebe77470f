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
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// newStatusCommand returns the "status" verb: a single connect/read/disconnect
// cycle reporting signal strength and yield counters, useful for checking that
// configuration and pairing are correct before running download or monitor.
func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Read signal strength and yield counters once and print them",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := setupLogger(cfg)

	c, err := dialInverter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	signal, err := c.GetSignal(ctx)
	if err != nil {
		return fmt.Errorf("reading signal: %w", err)
	}
	total, err := c.TotalYield(ctx)
	if err != nil {
		return fmt.Errorf("reading total yield: %w", err)
	}
	daily, err := c.DailyYield(ctx)
	if err != nil {
		return fmt.Errorf("reading daily yield: %w", err)
	}

	logger.Info("inverter status",
		slog.Float64("signal_percent", signal),
		slog.Uint64("total_yield_wh", uint64(total.TotalWh)),
		slog.Time("total_yield_timestamp", total.Timestamp),
		slog.Uint64("daily_yield_wh", uint64(daily.TotalWh)),
		slog.Time("daily_yield_timestamp", daily.Timestamp),
	)
	fmt.Printf("signal: %.1f%%\ntotal yield: %d Wh (as of %s)\ndaily yield: %d Wh (as of %s)\n",
		signal, total.TotalWh, total.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		daily.TotalWh, daily.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
	return nil
}
