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

package alert_test

import (
	"errors"
	"testing"

	"github.com/dgibson/smadata2/internal/alert"
	"github.com/dgibson/smadata2/internal/config"
)

func TestSendDisabledReturnsErrAlertingDisabled(t *testing.T) {
	t.Parallel()
	s := alert.NewSender(config.SMTP{Enabled: false})
	if err := s.Send("subject", "body"); !errors.Is(err, alert.ErrAlertingDisabled) {
		t.Errorf("expected ErrAlertingDisabled, got %v", err)
	}
}

func TestSendInvalidAuthMethod(t *testing.T) {
	t.Parallel()
	s := alert.NewSender(config.SMTP{
		Enabled:    true,
		Host:       "smtp.example.com",
		Port:       587,
		AuthMethod: "bogus",
		From:       "a@b.com",
		To:         "c@d.com",
	})
	if err := s.Send("subject", "body"); !errors.Is(err, alert.ErrInvalidAuthMethod) {
		t.Errorf("expected ErrInvalidAuthMethod, got %v", err)
	}
}

func TestDeviceErrorSubject(t *testing.T) {
	t.Parallel()
	got := alert.DeviceErrorSubject(123456)
	want := "Inverter 123456 reported a device error"
	if got != want {
		t.Errorf("DeviceErrorSubject() = %q, want %q", got, want)
	}
}
