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

	"github.com/dgibson/smadata2/internal/smadata2"
)

// helloPrefix is the fixed four-byte prefix an inverter's opening HELLO
// payload must carry before the handshake can proceed.
var helloPrefix = []byte{0x00, 0x04, 0x70, 0x00}

// hello implements the handshake described for the HELLO operation: the
// inverter speaks first, the client echoes the identical payload back from
// the anonymous address, and then waits for the peer-list announcement
// that signals the handshake is complete.
func (c *Client) hello(ctx context.Context, remote smadata2.BA) error {
	return withDeadlineErr(ctx, func() error {
		payload, err := c.conn.WaitOuter(smadata2.OuterHELLO, helloPrefix)
		if err != nil {
			return err
		}

		if err := c.conn.SendOuter(smadata2.ZeroBA, remote, smadata2.OuterHELLO, payload); err != nil {
			return err
		}

		if _, err := c.conn.WaitOuter(smadata2.OuterPeerList, nil); err != nil {
			return err
		}
		return nil
	})
}
