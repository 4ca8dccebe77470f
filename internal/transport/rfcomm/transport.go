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

// Package rfcomm supplies the one external collaborator the protocol core
// declares but never implements itself: a blocking, reliable, octet-oriented
// stream reaching an SMA inverter over Bluetooth RFCOMM. Everything above
// this package talks to an internal/smadata2.Transport (an io.ReadWriter);
// Conn satisfies that interface over a raw AF_BLUETOOTH socket on Linux.
package rfcomm

import (
	"errors"
	"fmt"
	"time"
)

// DefaultChannel is the RFCOMM channel SMA inverters listen on for the
// SMAData2 service, absent any SDP discovery.
const DefaultChannel uint8 = 1

// ErrUnsupportedPlatform is returned by Dial on platforms without a native
// RFCOMM socket implementation in this package.
var ErrUnsupportedPlatform = errors.New("rfcomm: no native RFCOMM socket support on this platform")

// Address is a Bluetooth device address in wire byte order, the same
// six-octet representation internal/smadata2.BA stores internally.
type Address [6]byte

// String renders addr in the conventional reversed colon-separated hex
// form, matching internal/smadata2.BA.String.
func (addr Address) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X",
		addr[5], addr[4], addr[3], addr[2], addr[1], addr[0])
}

// dialTimeout bounds how long Dial waits for the kernel to complete the
// RFCOMM connect(2) handshake before giving up.
const dialTimeout = 30 * time.Second
