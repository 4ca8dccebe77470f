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

package store_test

import (
	"testing"
	"time"

	"github.com/dgibson/smadata2/internal/config"
	"github.com/dgibson/smadata2/internal/store"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(config.Database{Driver: config.DatabaseDriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAddSampleAndGetLastSample(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	const serial = 123456
	ts := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.AddSample(serial, ts, config.SampleKindInverterFast, 1000))

	last, err := s.GetLastSample(serial, config.SampleKindInverterFast)
	require.NoError(t, err)
	require.NotNil(t, last)
	require.True(t, last.Equal(ts))
}

func TestGetLastSampleNoneStoredReturnsNil(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	last, err := s.GetLastSample(999, config.SampleKindAdhoc)
	require.NoError(t, err)
	require.Nil(t, last)
}

func TestAddSampleIdempotentOnCompositeKey(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	const serial = 42
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.AddSample(serial, ts, config.SampleKindInverterDaily, 500))
	require.NoError(t, s.AddSample(serial, ts, config.SampleKindInverterDaily, 999))

	sample, err := s.SampleAt(serial, config.SampleKindInverterDaily, ts, time.Minute)
	require.NoError(t, err)
	require.NotNil(t, sample)
	require.Equal(t, uint32(500), sample.TotalYield)
}

func TestGetLastSampleDistinguishesKind(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	const serial = 7
	fast := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	daily := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.AddSample(serial, fast, config.SampleKindInverterFast, 10))
	require.NoError(t, s.AddSample(serial, daily, config.SampleKindInverterDaily, 20))

	lastFast, err := s.GetLastSample(serial, config.SampleKindInverterFast)
	require.NoError(t, err)
	require.NotNil(t, lastFast)
	require.True(t, lastFast.Equal(fast))
}

func TestSampleAtBucketMiss(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	const serial = 1
	ts := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.AddSample(serial, ts, config.SampleKindAdhoc, 1))

	sample, err := s.SampleAt(serial, config.SampleKindAdhoc, ts.Add(time.Hour), 5*time.Minute)
	require.NoError(t, err)
	require.Nil(t, sample)
}

func TestBeginCommitBatchesWrites(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	const serial = 55
	ts := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Begin())
	require.NoError(t, s.AddSample(serial, ts, config.SampleKindInverterFast, 100))
	require.NoError(t, s.Commit())
	// Commit with nothing open is a no-op, not an error.
	require.NoError(t, s.Commit())

	last, err := s.GetLastSample(serial, config.SampleKindInverterFast)
	require.NoError(t, err)
	require.NotNil(t, last)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	t.Parallel()
	_, err := store.Open(config.Database{Driver: "bogus", DSN: ":memory:"})
	require.Error(t, err)
}
