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

// Package logging wires the application's structured logger: a
// log/slog.Logger backed by lmittmann/tint for human-readable, colorized
// console output, with level selection and stream choice driven by
// configuration the way the rest of the stack does it.
package logging

import (
	"log/slog"
	"os"

	"github.com/dgibson/smadata2/internal/config"
	"github.com/lmittmann/tint"
)

// New builds and installs the process-wide default logger for the given
// level, matching warn/error output to stderr and debug/info to stdout.
func New(level config.LogLevel) *slog.Logger {
	var logger *slog.Logger
	switch level {
	case config.LogLevelDebug:
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelDebug}))
	case config.LogLevelInfo:
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelInfo}))
	case config.LogLevelWarn:
		logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelWarn}))
	case config.LogLevelError:
		logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelError}))
	default:
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelInfo}))
	}
	slog.SetDefault(logger)
	return logger
}
