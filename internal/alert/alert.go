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

// Package alert sends device-error notifications by email, adapted from
// the stack's usual SMTP sender: github.com/emersion/go-smtp for delivery
// and github.com/emersion/go-sasl for authentication.
package alert

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgibson/smadata2/internal/config"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

var (
	ErrAlertingDisabled = errors.New("alert: SMTP alerting is disabled, but an alert was attempted")
	ErrInvalidAuthMethod = errors.New("alert: invalid SMTP auth method")
	ErrSendingEmail      = errors.New("alert: error sending email")
)

// Sender emails device-error notifications using a fixed SMTP configuration.
type Sender struct {
	cfg config.SMTP
}

// NewSender wraps cfg. Send is a no-op returning ErrAlertingDisabled when
// cfg.Enabled is false, so callers can construct a Sender unconditionally.
func NewSender(cfg config.SMTP) *Sender {
	return &Sender{cfg: cfg}
}

// Send delivers subject/body as an HTML email to the configured recipient.
func (s *Sender) Send(subject, body string) error {
	if !s.cfg.Enabled {
		return ErrAlertingDisabled
	}

	var auth sasl.Client
	switch s.cfg.AuthMethod {
	case config.SMTPAuthMethodPlain:
		auth = sasl.NewPlainClient("", s.cfg.Username, s.cfg.Password)
	case config.SMTPAuthMethodLogin:
		auth = sasl.NewLoginClient(s.cfg.Username, s.cfg.Password)
	case config.SMTPAuthMethodNone:
		auth = nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidAuthMethod, s.cfg.AuthMethod)
	}

	msg := strings.NewReader(
		fmt.Sprintf("From: %s\r\n", s.cfg.From) +
			fmt.Sprintf("To: %s\r\n", s.cfg.To) +
			fmt.Sprintf("Subject: %s\r\n", subject) +
			"Mime-Version: 1.0;\r\n" +
			"Content-Type: text/html; charset=\"UTF-8\";\r\n" +
			"Content-Transfer-Encoding: 7bit;\r\n" +
			"\r\n<html><body>" + body + "</body></html>\r\n",
	)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var err error
	if s.cfg.TLS == config.SMTPTLSImplicit {
		err = smtp.SendMailTLS(addr, auth, s.cfg.From, []string{s.cfg.To}, msg)
	} else {
		err = smtp.SendMail(addr, auth, s.cfg.From, []string{s.cfg.To}, msg)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSendingEmail, err)
	}
	return nil
}

// DeviceErrorSubject formats a consistent subject line for device-error alerts.
func DeviceErrorSubject(serial uint32) string {
	return fmt.Sprintf("Inverter %d reported a device error", serial)
}
