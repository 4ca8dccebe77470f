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

//go:build linux

package rfcomm

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Linux doesn't expose a bluetooth sockaddr in golang.org/x/sys/unix (unlike
// its Inet4/Inet6/Unix counterparts), so the RFCOMM address family is dialed
// with the same raw-syscall technique the pack uses for other kernel
// interfaces without typed wrappers (e.g. emergingrobotics-go-hailo's ioctl
// driver): open the socket through the exported unix.Socket/unix.Close/
// unix.Read/unix.Write helpers, and hand-pack struct sockaddr_rc for the
// connect(2) call itself.
const (
	afBluetooth   = 31
	btProtoRFCOMM = 3
)

// sockaddrRC mirrors Linux's <bluetooth/rfcomm.h> struct sockaddr_rc:
//
//	struct sockaddr_rc {
//	    sa_family_t rc_family;
//	    bdaddr_t    rc_bdaddr;
//	    uint8_t     rc_channel;
//	};
//
// bdaddr_t is six raw octets in the same byte order Address/BA already use,
// so no reversal happens when packing it here.
type sockaddrRC struct {
	Family  uint16
	BDAddr  [6]byte
	Channel uint8
}

// Conn is an open RFCOMM socket, satisfying internal/smadata2.Transport.
type Conn struct {
	fd int
}

// Dial opens an RFCOMM connection to addr on channel, the Bluetooth device
// address format the rest of the stack already works in (wire byte order,
// not the display-reversed string form).
func Dial(addr Address, channel uint8) (*Conn, error) {
	fd, err := unix.Socket(afBluetooth, unix.SOCK_STREAM, btProtoRFCOMM)
	if err != nil {
		return nil, fmt.Errorf("rfcomm: socket: %w", err)
	}

	sa := sockaddrRC{
		Family:  uint16(afBluetooth),
		BDAddr:  addr,
		Channel: channel,
	}

	done := make(chan error, 1)
	go func() {
		_, _, errno := unix.Syscall(unix.SYS_CONNECT, uintptr(fd),
			uintptr(unsafe.Pointer(&sa)), unsafe.Sizeof(sa))
		if errno != 0 {
			done <- errno
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		if err != nil {
			_ = unix.Close(fd)
			return nil, fmt.Errorf("rfcomm: connect to %s channel %d: %w", addr, channel, err)
		}
		return &Conn{fd: fd}, nil
	case <-time.After(dialTimeout):
		_ = unix.Close(fd)
		return nil, fmt.Errorf("rfcomm: connect to %s channel %d: %w", addr, channel, unix.ETIMEDOUT)
	}
}

// Read implements io.Reader, blocking until at least one byte is available.
func (c *Conn) Read(p []byte) (int, error) {
	n, err := unix.Read(c.fd, p)
	if err != nil {
		return n, fmt.Errorf("rfcomm: read: %w", err)
	}
	return n, nil
}

// Write implements io.Writer, blocking until all of p is accepted by the
// socket send buffer.
func (c *Conn) Write(p []byte) (int, error) {
	total := 0
	for total < len(p) {
		n, err := unix.Write(c.fd, p[total:])
		if err != nil {
			return total, fmt.Errorf("rfcomm: write: %w", err)
		}
		total += n
	}
	return total, nil
}

// Close releases the underlying socket.
func (c *Conn) Close() error {
	if err := unix.Close(c.fd); err != nil {
		return fmt.Errorf("rfcomm: close: %w", err)
	}
	return nil
}
