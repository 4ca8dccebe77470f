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
	"time"
)

const (
	yieldType    = 0x0200
	yieldSubtype = 0x5400

	totalYieldArg1 = 0x00260100
	totalYieldArg2 = 0x002601FF

	dailyYieldArg1 = 0x00262200
	dailyYieldArg2 = 0x002622FF
)

// Yield is a single yield-counter reading: the inverter's own timestamp
// and the cumulative energy produced up to that point.
type Yield struct {
	Timestamp time.Time
	TotalWh   uint32
}

func (c *Client) yield(ctx context.Context, arg1, arg2 uint32) (Yield, error) {
	return withDeadline(ctx, func() (Yield, error) {
		tag, err := c.send6560Request(requestParams{
			A2: 0xA0, Type: yieldType, Subtype: yieldSubtype, Arg1: arg1, Arg2: arg2,
		})
		if err != nil {
			return Yield{}, err
		}
		reply, err := c.conn.Wait6560(tag)
		if err != nil {
			return Yield{}, err
		}
		if len(reply.Extra) < 12 {
			return Yield{}, fmt.Errorf("client: yield reply too short: %d bytes", len(reply.Extra))
		}
		ts := binary.LittleEndian.Uint32(reply.Extra[4:8])
		wh := binary.LittleEndian.Uint32(reply.Extra[8:12])
		return Yield{Timestamp: time.Unix(int64(ts), 0).UTC(), TotalWh: wh}, nil
	})
}

// TotalYield returns the inverter's lifetime cumulative energy production.
func (c *Client) TotalYield(ctx context.Context) (Yield, error) {
	ctx, span := tracer.Start(ctx, "Client.TotalYield")
	defer span.End()
	return c.yield(ctx, totalYieldArg1, totalYieldArg2)
}

// DailyYield returns the inverter's cumulative energy production for the
// current day.
func (c *Client) DailyYield(ctx context.Context) (Yield, error) {
	ctx, span := tracer.Start(ctx, "Client.DailyYield")
	defer span.End()
	return c.yield(ctx, dailyYieldArg1, dailyYieldArg2)
}
