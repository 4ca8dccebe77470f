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
	historicType         = 0x0200
	historicSubtype       = 0x7000
	historicDailySubtype  = 0x7020
	historicRecordLen     = 12
	historicNoReading     = 0xFFFFFFFF
)

// Sample is one historic production record: a point-in-time reading of
// cumulative yield. The sentinel reading value is filtered out before
// Samples are returned, so every Sample here is a real reading.
type Sample struct {
	Timestamp    time.Time
	TotalYieldWh uint32
}

func (c *Client) historic(ctx context.Context, subtype uint16, from, to time.Time) ([]Sample, error) {
	return withDeadline(ctx, func() ([]Sample, error) {
		tag, err := c.send6560Request(requestParams{
			A2: 0xE0, Type: historicType, Subtype: subtype,
			Arg1: uint32(from.Unix()), Arg2: uint32(to.Unix()),
		})
		if err != nil {
			return nil, err
		}
		fragments, err := c.conn.Wait6560Multi(tag)
		if err != nil {
			return nil, err
		}

		var extra []byte
		for _, f := range fragments {
			extra = append(extra, f.Extra...)
		}

		var samples []Sample
		for i := 0; i+historicRecordLen <= len(extra); i += historicRecordLen {
			value := binary.LittleEndian.Uint32(extra[i+4 : i+8])
			if value == historicNoReading {
				continue
			}
			ts := binary.LittleEndian.Uint32(extra[i : i+4])
			samples = append(samples, Sample{
				Timestamp:    time.Unix(int64(ts), 0).UTC(),
				TotalYieldWh: value,
			})
		}
		return samples, nil
	})
}

// Historic returns 5-minute interval production samples between from and
// to (inclusive device-side bounds, both given as Unix seconds).
func (c *Client) Historic(ctx context.Context, from, to time.Time) ([]Sample, error) {
	ctx, span := tracer.Start(ctx, "Client.Historic")
	defer span.End()
	return c.historic(ctx, historicSubtype, from, to)
}

// HistoricDaily returns daily production samples between from and to.
func (c *Client) HistoricDaily(ctx context.Context, from, to time.Time) ([]Sample, error) {
	ctx, span := tracer.Start(ctx, "Client.HistoricDaily")
	defer span.End()
	return c.historic(ctx, historicDailySubtype, from, to)
}

// HistoricAt performs a live single-bucket historic query: it asks the
// inverter for samples between at and at+bucket and returns the last one in
// range, the same bucketed readout the original installer tool performs for
// a point-in-time lookup rather than a stored value. daily selects
// HistoricDaily over Historic. It returns a nil Sample, with no error, when
// the inverter reports no reading in that bucket.
func (c *Client) HistoricAt(ctx context.Context, at time.Time, bucket time.Duration, daily bool) (*Sample, error) {
	ctx, span := tracer.Start(ctx, "Client.HistoricAt")
	defer span.End()

	query := c.Historic
	if daily {
		query = c.HistoricDaily
	}
	samples, err := query(ctx, at, at.Add(bucket))
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, nil
	}
	last := samples[len(samples)-1]
	return &last, nil
}
