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
	"time"

	"github.com/spf13/cobra"
)

// newSetTimeCommand returns the "settime" verb: push the host's current
// clock and timezone offset to the inverter.
func newSetTimeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "settime",
		Short: "Set the inverter's clock to the current local time",
		RunE:  runSetTime,
	}
}

func runSetTime(cmd *cobra.Command, _ []string) error {
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

	now := time.Now()
	_, offsetSeconds := now.Zone()
	tzoffset := int16(offsetSeconds / 60)

	if err := c.SetTime(ctx, now, tzoffset); err != nil {
		return fmt.Errorf("setting inverter time: %w", err)
	}
	logger.Info("inverter clock set", "time", now, "tzoffset_minutes", tzoffset)
	fmt.Println("inverter clock set")
	return nil
}
