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
	"encoding/binary"
	"fmt"

	"github.com/dgibson/smadata2/internal/smadata2"
)

// GetSignal returns the inverter's Bluetooth signal strength as a
// percentage in [0, 100].
func (c *Client) GetSignal(ctx context.Context) (float64, error) {
	ctx, span := tracer.Start(ctx, "Client.GetSignal")
	defer span.End()
	return withDeadline(ctx, func() (float64, error) {
		varID := make([]byte, 2)
		binary.LittleEndian.PutUint16(varID, uint16(smadata2.VarSignal))

		if err := c.conn.SendOuter(smadata2.ZeroBA, c.conn.Remote(), smadata2.OuterGETVAR, varID); err != nil {
			return 0, err
		}

		reply, err := c.conn.WaitOuter(smadata2.OuterVARVAL, varID)
		if err != nil {
			return 0, err
		}
		if len(reply) < 5 {
			return 0, fmt.Errorf("client: VARVAL reply too short: %d bytes", len(reply))
		}
		return float64(reply[4]) / 0xFF * 100, nil
	})
}
