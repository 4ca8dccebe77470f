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

	"github.com/dgibson/smadata2/internal/store"
	"github.com/spf13/cobra"
)

// newSetupDBCommand returns the "setupdb" verb: provision the sample store's
// schema without needing a live inverter connection, so deployments can run
// migrations ahead of the first download.
func newSetupDBCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "setupdb",
		Short: "Create or migrate the historic sample database",
		RunE:  runSetupDB,
	}
}

func runSetupDB(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd.Context())
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)

	s, err := store.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	logger.Info("database migrated", "driver", cfg.Database.Driver)
	fmt.Println("database ready")
	return nil
}
