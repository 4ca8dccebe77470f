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

package client

import (
	"context"
)

// obfuscationOffset and obfuscationModulus implement the installer
// password scrambling the inverter expects during LOGON: each padded
// password byte is transformed to (byte+offset) mod modulus.
const (
	obfuscationOffset  = 0x88
	obfuscationModulus = 0xFF
	passwordFieldLen   = 12

	logonUserGroup      = 7
	logonTimeoutSeconds = 900
)

// obfuscatePassword pads password to 12 bytes with trailing zeroes and
// applies the LOGON byte transform.
func obfuscatePassword(password string) []byte {
	padded := make([]byte, passwordFieldLen)
	copy(padded, password)
	for i, b := range padded {
		padded[i] = byte((int(b) + obfuscationOffset) % obfuscationModulus)
	}
	return padded
}

// logon issues the LOGON request with the installer password (defaulting
// to DefaultPassword when empty) and waits for its reply.
func (c *Client) logon(ctx context.Context, password string) error {
	if password == "" {
		password = DefaultPassword
	}
	return withDeadlineErr(ctx, func() error {
		extra := make([]byte, 0, 8+passwordFieldLen)
		extra = append(extra, 0xAA, 0xAA, 0xBB, 0xBB, 0x00, 0x00, 0x00, 0x00)
		extra = append(extra, obfuscatePassword(password)...)

		tag, err := c.send6560Request(requestParams{
			A2: 0xA0, B1: 0x00, B2: 0x01, C1: 0x00, C2: 0x01,
			Type: 0x040C, Subtype: 0xFFFD,
			Arg1: logonUserGroup, Arg2: logonTimeoutSeconds,
			Extra: extra,
		})
		if err != nil {
			return err
		}
		_, err = c.conn.Wait6560(tag)
		return err
	})
}
