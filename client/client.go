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

// Package client is the high-level operations layer for talking to an SMA
// photovoltaic inverter over SMAData2: the handshake, login, and the named
// requests (signal strength, yield counters, historic production, clock
// set) built on top of internal/smadata2's wire codec and dispatch engine.
package client

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgibson/smadata2/internal/smadata2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracer emits one span per high-level operation (GetSignal, TotalYield,
// DailyYield, Historic, HistoricDaily, HistoricAt, SetTime), the same
// granularity the server handlers in this stack trace at.
var tracer trace.Tracer = otel.Tracer("smadata2/client")

// DefaultPassword is the factory default installer password SMA inverters
// ship with; most field devices never have it changed.
const DefaultPassword = "0000"

// Client is a logged-on session with a single inverter. It is not safe for
// concurrent use: like the protocol it wraps, only one request may be
// outstanding on a Client at a time.
type Client struct {
	conn   *smadata2.Connection
	remote smadata2.SA
	logger *slog.Logger
}

// Connect establishes the protocol session over transport: it performs the
// HELLO handshake and LOGON with password, and returns a ready-to-use
// Client. local is this host's own Bluetooth address; remote is the
// inverter's.
func Connect(ctx context.Context, transport smadata2.Transport, local, remote smadata2.BA, password string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn := smadata2.NewConnection(transport, local, remote, logger)

	c := &Client{conn: conn, logger: logger}

	if err := c.hello(ctx, remote); err != nil {
		return nil, fmt.Errorf("client: hello: %w", err)
	}
	if err := c.logon(ctx, password); err != nil {
		return nil, fmt.Errorf("client: logon: %w", err)
	}
	return c, nil
}

// Close releases the Client. The underlying transport is owned by the
// caller and is not closed here.
func (c *Client) Close() error {
	return nil
}

// withDeadline runs fn, returning ctx.Err() instead of fn's result if ctx
// is done first. The dispatch engine itself has no notion of context, so
// callers that need cancellation race fn against ctx.Done in a goroutine.
func withDeadline[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		val, err := fn()
		ch <- result{val, err}
	}()
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.val, r.err
	}
}

func withDeadlineErr(ctx context.Context, fn func() error) error {
	_, err := withDeadline(ctx, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
