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

// Package metrics exposes Prometheus counters, gauges, and histograms for
// the poll loop: request outcomes, signal/yield readings, and device
// errors reported by the inverter.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every collector this daemon registers.
type Metrics struct {
	OperationsTotal    *prometheus.CounterVec
	OperationDuration  *prometheus.HistogramVec
	DeviceErrorsTotal  *prometheus.CounterVec
	ReconnectsTotal    prometheus.Counter
	SignalPercent      prometheus.Gauge
	TotalYieldWh       prometheus.Gauge
	DailyYieldWh       prometheus.Gauge
	HistoricSamplesTotal *prometheus.CounterVec
}

// NewMetrics constructs and registers every collector.
func NewMetrics() *Metrics {
	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smadata2_operations_total",
			Help: "The total number of protocol operations performed",
		}, []string{"operation", "status"}),
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "smadata2_operation_duration_seconds",
			Help:    "Duration of protocol operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		DeviceErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smadata2_device_errors_total",
			Help: "The total number of non-zero device error codes returned by the inverter",
		}, []string{"code"}),
		ReconnectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smadata2_reconnects_total",
			Help: "The total number of times the client reconnected after a transport error",
		}),
		SignalPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smadata2_signal_percent",
			Help: "Last observed Bluetooth signal strength, in percent",
		}),
		TotalYieldWh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smadata2_total_yield_wh",
			Help: "Last observed lifetime cumulative energy yield, in watt-hours",
		}),
		DailyYieldWh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smadata2_daily_yield_wh",
			Help: "Last observed cumulative energy yield for the current day, in watt-hours",
		}),
		HistoricSamplesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smadata2_historic_samples_total",
			Help: "The total number of historic samples ingested",
		}, []string{"kind"}),
	}
	m.register()
	return m
}

func (m *Metrics) register() {
	prometheus.MustRegister(m.OperationsTotal)
	prometheus.MustRegister(m.OperationDuration)
	prometheus.MustRegister(m.DeviceErrorsTotal)
	prometheus.MustRegister(m.ReconnectsTotal)
	prometheus.MustRegister(m.SignalPercent)
	prometheus.MustRegister(m.TotalYieldWh)
	prometheus.MustRegister(m.DailyYieldWh)
	prometheus.MustRegister(m.HistoricSamplesTotal)
}

// RecordOperation records the outcome and latency of one operation call.
func (m *Metrics) RecordOperation(operation, status string, durationSeconds float64) {
	m.OperationsTotal.WithLabelValues(operation, status).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(durationSeconds)
}

// RecordDeviceError tallies a non-zero device error code.
func (m *Metrics) RecordDeviceError(code string) {
	m.DeviceErrorsTotal.WithLabelValues(code).Inc()
}

// RecordReconnect tallies one transport reconnect.
func (m *Metrics) RecordReconnect() {
	m.ReconnectsTotal.Inc()
}

// RecordHistoricSamples tallies ingested historic samples by kind.
func (m *Metrics) RecordHistoricSamples(kind string, count int) {
	m.HistoricSamplesTotal.WithLabelValues(kind).Add(float64(count))
}
