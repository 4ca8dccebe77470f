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

package smadata2

import (
	"fmt"
	"strconv"
	"strings"
)

// BA is a Bluetooth address: six octets, rendered in reversed order as
// colon-separated uppercase hex (the least-significant byte appears last).
type BA [6]byte

// SA is an SMA-internal device address: six raw octets, rendered in
// on-the-wire order. Unlike BA, SA rendering is never reversed.
type SA [6]byte

// Reserved addresses (§3).
var (
	ZeroBA      = BA{}
	BroadcastBA = BA{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	ZeroSA      = SA{}
	BroadcastSA = SA{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

	// LocalSA is the fixed literal this client announces as its own SMA
	// address during LOGON and all subsequent 6560 traffic.
	LocalSA = SA{0x78, 0x00, 0x3F, 0x10, 0xFB, 0x39}
)

// String renders a BA as reversed-order colon-separated uppercase hex, e.g.
// a BA with bytes [00 1B C5 12 34 56] renders as "56:34:12:C5:1B:00".
func (a BA) String() string {
	return formatReversed(a[:])
}

// ParseBA parses the reversed-hex colon-separated form produced by String.
func ParseBA(s string) (BA, error) {
	var a BA
	b, err := parseReversed(s, 6)
	if err != nil {
		return a, fmt.Errorf("%w: %q: %w", ErrBadAddress, s, err)
	}
	copy(a[:], b)
	return a, nil
}

// String renders an SA in raw on-the-wire order, colon-separated uppercase
// hex. SA rendering is intentionally not reversed; it is a raw device
// identifier, not a display address.
func (a SA) String() string {
	return formatPlain(a[:])
}

// ParseSA parses the plain-order colon-separated hex form produced by
// SA.String.
func ParseSA(s string) (SA, error) {
	var a SA
	b, err := parsePlain(s, 6)
	if err != nil {
		return a, fmt.Errorf("%w: %q: %w", ErrBadAddress, s, err)
	}
	copy(a[:], b)
	return a, nil
}

func formatReversed(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[len(b)-1-i] = fmt.Sprintf("%02X", v)
	}
	return strings.Join(parts, ":")
}

func formatPlain(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%02X", v)
	}
	return strings.Join(parts, ":")
}

func parseReversed(s string, n int) ([]byte, error) {
	fields := strings.Split(s, ":")
	if len(fields) != n {
		return nil, fmt.Errorf("expected %d hex fields, got %d", n, len(fields))
	}
	out := make([]byte, n)
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			return nil, err
		}
		out[n-1-i] = byte(v)
	}
	return out, nil
}

func parsePlain(s string, n int) ([]byte, error) {
	fields := strings.Split(s, ":")
	if len(fields) != n {
		return nil, fmt.Errorf("expected %d hex fields, got %d", n, len(fields))
	}
	out := make([]byte, n)
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			return nil, err
		}
		out[i] = byte(v)
	}
	return out, nil
}
