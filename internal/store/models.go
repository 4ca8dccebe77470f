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

package store

import (
	"time"

	"github.com/dgibson/smadata2/internal/config"
)

// Sample is one historic production reading, keyed by the inverter's serial
// number, the timestamp the inverter reported, and the kind of poll that
// produced it. The composite unique index is what makes AddSample
// idempotent: re-ingesting the same (serial, timestamp, kind) is a no-op.
type Sample struct {
	ID         uint             `gorm:"primarykey" json:"-"`
	Serial     uint32           `gorm:"uniqueIndex:idx_sample_key;not null" json:"serial"`
	Timestamp  time.Time        `gorm:"uniqueIndex:idx_sample_key;not null" json:"timestamp"`
	Kind       config.SampleKind `gorm:"uniqueIndex:idx_sample_key;not null" json:"kind"`
	TotalYield uint32           `json:"total_yield_wh"`
	CreatedAt  time.Time        `json:"-"`
}

// TableName pins the table name so it doesn't shift with struct renames.
func (Sample) TableName() string {
	return "samples"
}
