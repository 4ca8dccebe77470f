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
	"time"
)

const (
	setTimeType       = 0x020A
	setTimeSubtype    = 0xF000
	setTimeConstant   = 0x00236D00

	// setTimeMagic is an undocumented constant the inverter firmware
	// expects verbatim in the SET TIME payload; its meaning is unknown and
	// it is preserved as-is rather than reinterpreted.
	setTimeMagic = 0x007EFE30
)

// SetTime sets the inverter's clock to now, in the timezone offset tzoffset
// (minutes east of UTC).
func (c *Client) SetTime(ctx context.Context, now time.Time, tzoffset int16) error {
	ctx, span := tracer.Start(ctx, "Client.SetTime")
	defer span.End()
	return withDeadlineErr(ctx, func() error {
		ts := uint32(now.Unix())

		payload := make([]byte, 0, 28)
		payload = appendU32(payload, setTimeConstant)
		payload = appendU32(payload, ts)
		payload = appendU32(payload, ts)
		payload = appendU32(payload, ts)
		payload = appendU16(payload, uint16(tzoffset))
		payload = appendU16(payload, 0)
		payload = appendU32(payload, setTimeMagic)
		payload = appendU32(payload, 0x00000001)

		tag, err := c.send6560Request(requestParams{
			A2: 0xA0, Type: setTimeType, Subtype: setTimeSubtype,
			Arg1: setTimeConstant, Arg2: setTimeConstant,
			Extra: payload,
		})
		if err != nil {
			return err
		}
		_, err = c.conn.Wait6560(tag)
		return err
	})
}

func appendU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendU16(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}
