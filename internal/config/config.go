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

// Package config defines the configuration schema consumed by the
// smadata2 client daemon: which inverter to talk to, where to persist
// historic samples, and how to report metrics, traces, and alerts. Loading
// and flag/env binding is delegated to github.com/USA-RedDragon/configulator,
// the same loader the rest of the stack uses; this package only declares
// the schema and its defaults/validation.
package config

import "time"

// Bluetooth holds the parameters needed to reach the inverter over RFCOMM.
type Bluetooth struct {
	// RemoteAddr is the inverter's Bluetooth address, reversed-hex
	// colon-separated (e.g. "00:80:41:1A:2B:3C").
	RemoteAddr string `yaml:"remoteAddr" name:"remote-addr" description:"Inverter Bluetooth address"`
	// LocalAddr is this host's own Bluetooth address; left empty (or
	// unparseable), the all-zero anonymous address is used.
	LocalAddr string `yaml:"localAddr" name:"local-addr" description:"Local Bluetooth adapter address"`
	// Channel is the RFCOMM channel the inverter listens on.
	Channel uint8 `yaml:"channel" name:"channel" description:"RFCOMM channel number" default:"1"`
}

// Inverter holds the logical identity of the monitored device and its
// login credential.
type Inverter struct {
	// Serial is the inverter's serial number, used as part of the
	// historic-sample storage key.
	Serial uint32 `yaml:"serial" name:"serial" description:"Inverter serial number"`
	// Password is the installer password used during LOGON.
	Password string `yaml:"password" name:"password" description:"Inverter installer password" default:"0000"`
	// StartTime bounds how far back historic polling looks on first run.
	StartTime time.Time `yaml:"startTime" name:"start-time" description:"Earliest historic sample to collect on first run"`
}

// Database configures where historic samples are persisted.
type Database struct {
	Driver   DatabaseDriver `yaml:"driver" name:"db-driver" description:"Historic sample store driver" default:"sqlite"`
	DSN      string         `yaml:"dsn" name:"db-dsn" description:"Database connection string" default:"smadata2.sqlite3"`
}

// Metrics configures the Prometheus metrics HTTP endpoint.
type Metrics struct {
	Enabled      bool   `yaml:"enabled" name:"metrics-enabled" description:"Enable the Prometheus metrics endpoint"`
	Bind         string `yaml:"bind" name:"metrics-bind" description:"Metrics server bind address" default:"localhost"`
	Port         int    `yaml:"port" name:"metrics-port" description:"Metrics server port" default:"9090"`
	OTLPEndpoint string `yaml:"otlpEndpoint" name:"otlp-endpoint" description:"OTLP gRPC collector endpoint for traces"`
}

// SMTP configures device-error email alerting.
type SMTP struct {
	Enabled    bool           `yaml:"enabled" name:"smtp-enabled" description:"Enable device-error email alerts"`
	Host       string         `yaml:"host" name:"smtp-host" description:"SMTP server host"`
	Port       int            `yaml:"port" name:"smtp-port" description:"SMTP server port" default:"587"`
	Username   string         `yaml:"username" name:"smtp-username" description:"SMTP auth username"`
	Password   string         `yaml:"password" name:"smtp-password" description:"SMTP auth password"`
	AuthMethod SMTPAuthMethod `yaml:"authMethod" name:"smtp-auth-method" description:"SMTP auth method" default:"plain"`
	TLS        SMTPTLS        `yaml:"tls" name:"smtp-tls" description:"SMTP TLS mode" default:"implicit"`
	From       string         `yaml:"from" name:"smtp-from" description:"Alert email From address"`
	To         string         `yaml:"to" name:"smtp-to" description:"Alert email To address"`
}

// Poll configures the periodic background collection schedule.
type Poll struct {
	// Interval is how often GetSignal/TotalYield/DailyYield are sampled.
	Interval time.Duration `yaml:"interval" name:"poll-interval" description:"Interval between signal/yield polls" default:"5m"`
	// HistoricCatchUp enables backfilling 5-minute historic samples since
	// the last stored sample on every poll cycle.
	HistoricCatchUp bool `yaml:"historicCatchUp" name:"historic-catch-up" description:"Backfill historic samples on every poll" default:"true"`
}

// Config is the root configuration structure.
type Config struct {
	LogLevel  LogLevel  `yaml:"logLevel" name:"log-level" description:"Log verbosity" default:"info"`
	Bluetooth Bluetooth `yaml:"bluetooth"`
	Inverter  Inverter  `yaml:"inverter"`
	Database  Database  `yaml:"database"`
	Metrics   Metrics   `yaml:"metrics"`
	SMTP      SMTP      `yaml:"smtp"`
	Poll      Poll      `yaml:"poll"`
}
