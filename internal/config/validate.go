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

import "errors"

var (
	// ErrInvalidLogLevel indicates that the provided log level is not valid.
	ErrInvalidLogLevel = errors.New("invalid log level provided")
	// ErrInvalidRemoteAddr indicates the inverter Bluetooth address is missing.
	ErrInvalidRemoteAddr = errors.New("bluetooth.remoteAddr is required")
	// ErrInvalidSerial indicates the inverter serial number is missing.
	ErrInvalidSerial = errors.New("inverter.serial is required")
	// ErrInvalidDatabaseDriver indicates that the provided database driver is not valid.
	ErrInvalidDatabaseDriver = errors.New("invalid database driver provided")
	// ErrInvalidDatabaseDSN indicates the database DSN is empty.
	ErrInvalidDatabaseDSN = errors.New("database.dsn is required")
	// ErrInvalidMetricsBindAddress indicates that the provided metrics server bind address is not valid.
	ErrInvalidMetricsBindAddress = errors.New("invalid metrics server bind address provided")
	// ErrInvalidMetricsPort indicates that the provided metrics server port is not valid.
	ErrInvalidMetricsPort = errors.New("invalid metrics server port provided")
	// ErrInvalidSMTPHost indicates that the provided SMTP host is not valid.
	ErrInvalidSMTPHost = errors.New("invalid SMTP host provided")
	// ErrInvalidSMTPPort indicates that the provided SMTP port is not valid.
	ErrInvalidSMTPPort = errors.New("invalid SMTP port provided")
	// ErrInvalidSMTPAuthMethod indicates that the provided SMTP authentication method is not valid.
	ErrInvalidSMTPAuthMethod = errors.New("invalid SMTP authentication method provided")
	// ErrInvalidSMTPTLS indicates that the provided SMTP TLS setting is not valid.
	ErrInvalidSMTPTLS = errors.New("invalid SMTP TLS setting provided")
	// ErrSMTPFromRequired indicates that the 'from' address is required when SMTP is enabled.
	ErrSMTPFromRequired = errors.New("SMTP 'from' address is required when SMTP alerting is enabled")
	// ErrSMTPToRequired indicates that the 'to' address is required when SMTP is enabled.
	ErrSMTPToRequired = errors.New("SMTP 'to' address is required when SMTP alerting is enabled")
	// ErrInvalidPollInterval indicates a non-positive poll interval.
	ErrInvalidPollInterval = errors.New("poll.interval must be positive")
)

// Validate validates the Database configuration.
func (d Database) Validate() error {
	if d.Driver != DatabaseDriverSQLite && d.Driver != DatabaseDriverPostgres {
		return ErrInvalidDatabaseDriver
	}
	if d.DSN == "" {
		return ErrInvalidDatabaseDSN
	}
	return nil
}

// Validate validates the Metrics configuration.
func (m Metrics) Validate() error {
	if !m.Enabled {
		return nil
	}
	if m.Bind == "" {
		return ErrInvalidMetricsBindAddress
	}
	if m.Port <= 0 || m.Port > 65535 {
		return ErrInvalidMetricsPort
	}
	return nil
}

// Validate validates the SMTP configuration.
func (s SMTP) Validate() error {
	if !s.Enabled {
		return nil
	}
	if s.Host == "" {
		return ErrInvalidSMTPHost
	}
	if s.Port <= 0 || s.Port > 65535 {
		return ErrInvalidSMTPPort
	}
	if s.AuthMethod != SMTPAuthMethodPlain && s.AuthMethod != SMTPAuthMethodLogin && s.AuthMethod != SMTPAuthMethodNone {
		return ErrInvalidSMTPAuthMethod
	}
	if s.TLS != SMTPTLSNone && s.TLS != SMTPTLSImplicit {
		return ErrInvalidSMTPTLS
	}
	if s.From == "" {
		return ErrSMTPFromRequired
	}
	if s.To == "" {
		return ErrSMTPToRequired
	}
	return nil
}

// Validate validates the Poll configuration.
func (p Poll) Validate() error {
	if p.Interval <= 0 {
		return ErrInvalidPollInterval
	}
	return nil
}

// Validate validates the full configuration.
func (c Config) Validate() error {
	if c.LogLevel != LogLevelDebug && c.LogLevel != LogLevelInfo &&
		c.LogLevel != LogLevelWarn && c.LogLevel != LogLevelError {
		return ErrInvalidLogLevel
	}
	if c.Bluetooth.RemoteAddr == "" {
		return ErrInvalidRemoteAddr
	}
	if c.Inverter.Serial == 0 {
		return ErrInvalidSerial
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.SMTP.Validate(); err != nil {
		return err
	}
	if err := c.Poll.Validate(); err != nil {
		return err
	}
	return nil
}
