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

// Package cmd is the cobra CLI surface: status, download, yieldat, settime,
// setupdb, and monitor, each loading the same config.Config from the cobra
// command's context and driving the client/internal/smadata2 stack.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/USA-RedDragon/configulator"
	"github.com/dgibson/smadata2/client"
	"github.com/dgibson/smadata2/internal/config"
	"github.com/dgibson/smadata2/internal/logging"
	"github.com/dgibson/smadata2/internal/smadata2"
	"github.com/dgibson/smadata2/internal/transport/rfcomm"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// NewCommand builds the root cobra.Command, carrying version/commit the way
// the teacher's own NewCommand does, with every protocol subcommand attached.
func NewCommand(version, commit string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "smadata2",
		Version: fmt.Sprintf("%s - %s", version, commit),
		Annotations: map[string]string{
			"version": version,
			"commit":  commit,
		},
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	cmd.AddCommand(
		newStatusCommand(),
		newDownloadCommand(),
		newYieldAtCommand(),
		newSetTimeCommand(),
		newSetupDBCommand(),
		newMonitorCommand(),
	)
	return cmd
}

// loadConfig pulls the configulator-bound Config out of the command's
// context and loads it, matching the teacher's loadConfig/LoadWithoutValidation
// shape; the caller is responsible for calling cfg.Validate() itself.
func loadConfig(ctx context.Context) (*config.Config, error) {
	c, err := configulator.FromContext[config.Config](ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get config from context: %w", err)
	}
	cfg, err := c.LoadWithoutValidation()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// setupLogger builds the process-wide slog.Logger from cfg.LogLevel and
// installs it as the slog default, the same way the teacher's setupLogger
// does for every subcommand.
func setupLogger(cfg *config.Config) *slog.Logger {
	return logging.New(cfg.LogLevel)
}

// setupTracing initializes OpenTelemetry tracing if an OTLP endpoint is
// configured; otherwise it returns a no-op cleanup, exactly as the teacher's
// setupTracing does.
func setupTracing(cfg *config.Config) (func(context.Context) error, error) {
	if cfg.Metrics.OTLPEndpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	return initTracer(cfg)
}

func initTracer(cfg *config.Config) (func(context.Context) error, error) {
	exporter, err := otlptrace.New(
		context.Background(),
		otlptracegrpc.NewClient(
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithEndpoint(cfg.Metrics.OTLPEndpoint),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	resources, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", "smadata2"),
			attribute.String("library.language", "go"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace resources: %w", err)
	}

	otel.SetTracerProvider(
		sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(resources),
		),
	)
	return exporter.Shutdown, nil
}

// parseBA parses a Bluetooth address configuration string, defaulting to the
// zero address (accepted as "pre-login" by the outer receive filter) with a
// warning when left blank rather than failing outright.
func parseBA(logger *slog.Logger, field, s string) smadata2.BA {
	if s == "" {
		logger.Warn("smadata2: no local Bluetooth address configured, falling back to the anonymous address")
		return smadata2.ZeroBA
	}
	addr, err := smadata2.ParseBA(s)
	if err != nil {
		logger.Error("smadata2: invalid Bluetooth address, falling back to the anonymous address",
			slog.String("field", field), slog.String("value", s), slog.Any("error", err))
		return smadata2.ZeroBA
	}
	return addr
}

// dialInverter opens an RFCOMM transport to cfg.Bluetooth.RemoteAddr and
// completes the HELLO/LOGON handshake, returning a ready-to-use Client.
func dialInverter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*client.Client, error) {
	remote, err := smadata2.ParseBA(cfg.Bluetooth.RemoteAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid bluetooth.remoteAddr: %w", err)
	}
	local := parseBA(logger, "bluetooth.localAddr", cfg.Bluetooth.LocalAddr)

	conn, err := rfcomm.Dial(rfcomm.Address(remote), cfg.Bluetooth.Channel)
	if err != nil {
		return nil, fmt.Errorf("dialing inverter: %w", err)
	}

	c, err := client.Connect(ctx, conn, local, remote, cfg.Inverter.Password, logger)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("connecting to inverter: %w", err)
	}
	return c, nil
}
