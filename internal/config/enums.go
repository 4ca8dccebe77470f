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

package config

// LogLevel represents the logging level for the application.
type LogLevel string

const (
	// LogLevelDebug is the debug logging level, providing detailed information.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is the informational logging level, providing general information.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn is the warning logging level, indicating potential issues.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError is the error logging level, indicating serious issues.
	LogLevelError LogLevel = "error"
)

// DatabaseDriver represents the type of database driver used to persist
// historic samples.
type DatabaseDriver string

const (
	// DatabaseDriverSQLite is the pure-Go SQLite database driver.
	DatabaseDriverSQLite DatabaseDriver = "sqlite"
	// DatabaseDriverPostgres is the PostgreSQL database driver.
	DatabaseDriverPostgres DatabaseDriver = "postgres"
)

// SMTPAuthMethod represents the authentication method used for device-error
// email alerting.
type SMTPAuthMethod string

const (
	// SMTPAuthMethodPlain uses SASL PLAIN authentication.
	SMTPAuthMethodPlain SMTPAuthMethod = "plain"
	// SMTPAuthMethodLogin uses SASL LOGIN authentication.
	SMTPAuthMethodLogin SMTPAuthMethod = "login"
	// SMTPAuthMethodNone does not use authentication.
	SMTPAuthMethodNone SMTPAuthMethod = "none"
)

// SMTPTLS represents the TLS configuration for SMTP connections.
type SMTPTLS string

const (
	// SMTPTLSNone indicates no TLS is used.
	SMTPTLSNone SMTPTLS = "none"
	// SMTPTLSImplicit indicates that implicit TLS is used for secure connections.
	SMTPTLSImplicit SMTPTLS = "implicit"
)

// SampleKind enumerates the provenance of a stored historic sample.
type SampleKind int

const (
	// SampleKindAdhoc is a one-off reading taken outside the normal poll cadence.
	SampleKindAdhoc SampleKind = 0
	// SampleKindInverterFast is a 5-minute interval sample pulled from the inverter.
	SampleKindInverterFast SampleKind = 1
	// SampleKindInverterDaily is a daily interval sample pulled from the inverter.
	SampleKindInverterDaily SampleKind = 2
)
