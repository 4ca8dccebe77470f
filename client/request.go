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

import "github.com/dgibson/smadata2/internal/smadata2"

// requestParams carries the per-operation header fields of a 6560 request,
// LOGON included; every field not listed here (pktcount, first, response,
// error) is fixed at its zero/true default for a freshly issued request.
type requestParams struct {
	A2      byte
	B1, B2  byte
	C1, C2  byte
	Type    uint16
	Subtype uint16
	Arg1    uint32
	Arg2    uint32
	Extra   []byte
}

// send6560Request allocates a tag, builds and transmits a single-fragment
// 6560 request addressed to the broadcast SA, and returns the tag to wait
// on.
func (c *Client) send6560Request(p requestParams) (uint16, error) {
	tag := c.conn.NextTag()
	pkt := smadata2.Packet6560{
		A2:      p.A2,
		DstSA:   smadata2.BroadcastSA,
		B1:      p.B1,
		B2:      p.B2,
		SrcSA:   c.conn.LocalSA(),
		C1:      p.C1,
		C2:      p.C2,
		First:   true,
		Tag:     tag,
		Type:    p.Type,
		Subtype: p.Subtype,
		Arg1:    p.Arg1,
		Arg2:    p.Arg2,
		Extra:   p.Extra,
	}
	if err := c.conn.Send6560(pkt); err != nil {
		return 0, err
	}
	return tag, nil
}
