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

// Package store persists historic production samples so the poll loop can
// resume from its last known reading across restarts. It is the injected
// collaborator named in the core's external-interfaces contract: AddSample,
// GetLastSample, and Commit, with samples kept idempotent on the composite
// key (serial, timestamp, kind).
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgibson/smadata2/internal/config"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store wraps a gorm.DB scoped to the samples table. A Store is not safe
// for concurrent use while a transaction is open (Begin/Commit bracket a
// batch of AddSample calls); the poll loop that owns it is single-threaded
// by construction, same as the Connection it reads from.
type Store struct {
	db *gorm.DB
	tx *gorm.DB
}

// Open connects to the database named by cfg and migrates the schema.
func Open(cfg config.Database) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DatabaseDriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	case config.DatabaseDriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("store: unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("store: failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Migrate brings the schema up to date. It is also exposed as the setupdb
// CLI verb, so a store can be provisioned without a live inverter.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&Sample{}); err != nil {
		return fmt.Errorf("store: migration failed: %w", err)
	}
	return nil
}

// Begin opens a transaction that subsequent AddSample calls write through
// until Commit. Calling AddSample without a prior Begin commits immediately.
func (s *Store) Begin() error {
	if s.tx != nil {
		return errors.New("store: transaction already open")
	}
	tx := s.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("store: begin: %w", tx.Error)
	}
	s.tx = tx
	return nil
}

// Commit flushes any batch opened by Begin. It is a no-op if no transaction
// is open, so callers may call it unconditionally at operation boundaries.
func (s *Store) Commit() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit().Error
	s.tx = nil
	if err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// Rollback discards any batch opened by Begin.
func (s *Store) Rollback() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback().Error
	s.tx = nil
	if err != nil {
		return fmt.Errorf("store: rollback: %w", err)
	}
	return nil
}

func (s *Store) conn() *gorm.DB {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// AddSample records one historic reading. It is idempotent on the
// composite key (serial, timestamp, kind): re-ingesting an already-stored
// sample is a no-op rather than an error.
func (s *Store) AddSample(serial uint32, timestamp time.Time, kind config.SampleKind, totalYield uint32) error {
	sample := Sample{
		Serial:     serial,
		Timestamp:  timestamp,
		Kind:       kind,
		TotalYield: totalYield,
	}
	err := s.conn().
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "serial"}, {Name: "timestamp"}, {Name: "kind"}}, DoNothing: true}).
		Create(&sample).Error
	if err != nil {
		return fmt.Errorf("store: add sample: %w", err)
	}
	return nil
}

// GetLastSample returns the timestamp of the most recent sample of kind
// stored for serial, or nil if none has been recorded yet.
func (s *Store) GetLastSample(serial uint32, kind config.SampleKind) (*time.Time, error) {
	var sample Sample
	err := s.conn().
		Where("serial = ? AND kind = ?", serial, kind).
		Order("timestamp desc").
		First(&sample).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get last sample: %w", err)
	}
	return &sample.Timestamp, nil
}

// SampleAt returns the stored sample of kind whose timestamp falls within
// the half-open bucket [at, at+bucket), or nil if none matches. It backs the
// yieldat CLI verb's single-point lookup.
func (s *Store) SampleAt(serial uint32, kind config.SampleKind, at time.Time, bucket time.Duration) (*Sample, error) {
	var sample Sample
	err := s.conn().
		Where("serial = ? AND kind = ? AND timestamp >= ? AND timestamp < ?", serial, kind, at, at.Add(bucket)).
		Order("timestamp desc").
		First(&sample).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: sample at: %w", err)
	}
	return &sample, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return sqlDB.Close()
}
