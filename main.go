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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/USA-RedDragon/configulator"
	"github.com/dgibson/smadata2/cmd"
	"github.com/dgibson/smadata2/internal/config"
	"github.com/dgibson/smadata2/internal/sdk"
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := cmd.NewCommand(sdk.Version, sdk.GitCommit)

	c, err := configulator.New[config.Config]()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize configuration: %s\n", err)
		return 1
	}

	ctx := c.ToContext(context.Background())
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
