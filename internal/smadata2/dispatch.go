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

// Package smadata2 implements the SMAData2 protocol stack used to talk to
// SMA photovoltaic inverters: the outer length-prefixed envelope, the
// PPP/HDLC byte-stuffed framing with CRC-16, the inner 6560 command codec,
// and the single-threaded dispatch/wait engine that turns the resulting
// asynchronous byte stream into synchronous completions for callers.
//
// The package re-architects the original's virtual-method dispatch chain
// (rx_raw -> rx_outer -> rx_ppp -> rx_6560) as an explicit pipeline: each
// stage is a pure decode function, and a single Connection owns every
// stage plus the wait slot (§9).
package smadata2

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Transport is the octet-oriented, reliable, blocking stream the core
// requires. Bluetooth RFCOMM satisfies it in practice; any equivalent
// stream suffices, and the core never assumes more than this.
type Transport = io.ReadWriter

const rxChunkSize = 512

// Connection is the single logical task described in §3/§5: it owns the
// transport, the outer receive buffer, the per-source PPP reassembly map,
// the tag counter, and the current wait slot. Nothing about it is safe to
// share between goroutines; exactly one request may be outstanding at a
// time.
type Connection struct {
	transport Transport
	local     BA
	remote    BA
	localSA   SA

	tags        *TagAllocator
	reassembler *Reassembler
	recvBuf     []byte

	active map[PacketClass]*waitSlot
	logger *slog.Logger
}

// NewConnection wraps an already-established transport. local is this
// client's own Bluetooth address (used for the outer receive filter and as
// the source address of outgoing frames before login); remote is the
// inverter's Bluetooth address.
func NewConnection(transport Transport, local, remote BA, logger *slog.Logger) *Connection {
	if logger == nil {
		logger = slog.Default()
	}
	return &Connection{
		transport:   transport,
		local:       local,
		remote:      remote,
		localSA:     LocalSA,
		tags:        NewTagAllocator(),
		reassembler: NewReassembler(),
		active:      make(map[PacketClass]*waitSlot),
		logger:      logger,
	}
}

// Remote returns the inverter's Bluetooth address.
func (c *Connection) Remote() BA { return c.remote }

// LocalSA returns the fixed SMA address literal this client announces.
func (c *Connection) LocalSA() SA { return c.localSA }

// NextTag allocates the next 15-bit request correlation tag.
func (c *Connection) NextTag() uint16 { return c.tags.Next() }

// SendOuter encodes and writes one outer packet.
func (c *Connection) SendOuter(src, dst BA, typ OuterType, payload []byte) error {
	raw, err := EncodeOuter(src, dst, typ, payload)
	if err != nil {
		return err
	}
	if _, err := c.transport.Write(raw); err != nil {
		return fmt.Errorf("smadata2: transport write: %w", err)
	}
	return nil
}

// SendPPP wraps payload in a PPP frame for protocol and sends it as a PPP
// outer packet addressed to dst, sourced from this client's own address.
func (c *Connection) SendPPP(dst BA, protocol uint16, payload []byte) error {
	frame := EncodePPP(protocol, payload)
	return c.SendOuter(c.local, dst, OuterPPP, frame)
}

// Send6560 encodes pkt and transmits it as an SMA 6560 packet wrapped in
// PPP wrapped in an outer packet. The outer destination is always the
// Bluetooth broadcast address; the 6560 destination SA is whatever pkt.DstSA
// holds.
func (c *Connection) Send6560(pkt Packet6560) error {
	raw, err := Encode6560(pkt)
	if err != nil {
		return err
	}
	return c.SendPPP(BroadcastBA, ProtocolSMA, raw)
}

// RxOnce blocks on the transport for at least one read, then decodes as
// many outer packets as are now buffered, routing each one up the stack
// and depositing a value into any armed, matching wait slot. It returns a
// transport or framing error; both are fatal to the Connection.
func (c *Connection) RxOnce() error {
	chunk := make([]byte, rxChunkSize)
	n, err := c.transport.Read(chunk)
	if err != nil {
		return fmt.Errorf("smadata2: transport read: %w", err)
	}
	c.recvBuf = append(c.recvBuf, chunk[:n]...)

	for {
		pkt, consumed, err := TryDecodeOuter(c.recvBuf)
		if errors.Is(err, ErrNeedMore) {
			return nil
		}
		if err != nil {
			return err
		}
		c.recvBuf = c.recvBuf[consumed:]
		c.route(pkt)
	}
}

func (c *Connection) route(pkt OuterPacket) {
	c.matchRaw(pkt)

	if !AcceptOuter(pkt.Dst, c.local) {
		c.logger.Debug("smadata2: discarding outer packet for foreign destination",
			slog.String("dst", pkt.Dst.String()))
		return
	}

	c.matchOuter(pkt)

	if pkt.Type != OuterPPP && pkt.Type != OuterPPP2 {
		return
	}

	frames, err := c.reassembler.Feed(pkt.Src, pkt.Payload)
	if err != nil {
		c.logger.Warn("smadata2: PPP reassembly error", slog.String("source", pkt.Src.String()), slog.Any("error", err))
		return
	}
	for _, frame := range frames {
		c.matchPPP(pkt.Src, frame)
		if frame.Protocol != ProtocolSMA {
			continue
		}
		inner, err := Decode6560(frame.Payload)
		if err != nil {
			c.logger.Warn("smadata2: 6560 decode error", slog.Any("error", err))
			continue
		}
		c.match6560(inner)
	}
}

func (c *Connection) matchRaw(pkt OuterPacket) {
	slot := c.active[ClassRaw]
	if slot == nil || slot.matched || slot.err != nil {
		return
	}
	pred, ok := slot.predicate.(RawPredicate)
	if !ok {
		return
	}
	raw, err := EncodeOuter(pkt.Src, pkt.Dst, pkt.Type, pkt.Payload)
	if err != nil {
		return
	}
	value, matched, predErr := pred(raw)
	if predErr != nil {
		slot.err = predErr
		return
	}
	if matched {
		slot.result, slot.matched = value, true
	}
}

func (c *Connection) matchOuter(pkt OuterPacket) {
	slot := c.active[ClassOuter]
	if slot == nil || slot.matched || slot.err != nil {
		return
	}
	pred, ok := slot.predicate.(OuterPredicate)
	if !ok {
		return
	}
	value, matched, err := pred(pkt)
	if err != nil {
		slot.err = err
		return
	}
	if matched {
		slot.result, slot.matched = value, true
	}
}

func (c *Connection) matchPPP(source BA, frame Frame) {
	slot := c.active[ClassPPP]
	if slot == nil || slot.matched || slot.err != nil {
		return
	}
	pred, ok := slot.predicate.(PPPPredicate)
	if !ok {
		return
	}
	value, matched, err := pred(source, frame)
	if err != nil {
		slot.err = err
		return
	}
	if matched {
		slot.result, slot.matched = value, true
	}
}

func (c *Connection) match6560(pkt Packet6560) {
	slot := c.active[Class6560]
	if slot == nil || slot.matched || slot.err != nil {
		return
	}
	pred, ok := slot.predicate.(Inner6560Predicate)
	if !ok {
		return
	}
	value, matched, err := pred(pkt)
	if err != nil {
		slot.err = err
		return
	}
	if matched {
		slot.result, slot.matched = value, true
	}
}

// wait arms class with predicate, pumps RxOnce until the slot is resolved,
// and disarms before returning. Re-entrant waits on an already-armed class
// are a caller error.
func (c *Connection) wait(class PacketClass, predicate any) (any, error) {
	if _, armed := c.active[class]; armed {
		return nil, fmt.Errorf("%w: class %s", ErrReentrantWait, class)
	}
	slot := &waitSlot{predicate: predicate}
	c.active[class] = slot
	defer delete(c.active, class)

	for !slot.matched && slot.err == nil {
		if err := c.RxOnce(); err != nil {
			return nil, err
		}
	}
	if slot.err != nil {
		return nil, slot.err
	}
	return slot.result, nil
}

// WaitOuter blocks until an outer packet of outerType arrives whose payload
// begins with prefix (nil or empty prefix matches any payload), then
// returns its payload.
func (c *Connection) WaitOuter(outerType OuterType, prefix []byte) ([]byte, error) {
	pred := OuterPredicate(func(pkt OuterPacket) (any, bool, error) {
		if pkt.Type != outerType {
			return nil, false, nil
		}
		if len(prefix) > 0 {
			if len(pkt.Payload) < len(prefix) {
				return nil, false, nil
			}
			for i, b := range prefix {
				if pkt.Payload[i] != b {
					return nil, false, nil
				}
			}
		}
		return pkt.Payload, true, nil
	})
	value, err := c.wait(ClassOuter, pred)
	if err != nil {
		return nil, err
	}
	return value.([]byte), nil
}

// Inner6560Reply is the decoded body of a single-packet 6560 response.
type Inner6560Reply struct {
	SrcSA   SA
	Type    uint16
	Subtype uint16
	Arg1    uint32
	Arg2    uint32
	Extra   []byte
}

// Wait6560 blocks until a 6560 response with the given tag arrives. A
// non-zero device error field fails with *DeviceError; a reply that turns
// out to be part of a multi-fragment response fails with
// ErrUnexpectedMultipacket.
func (c *Connection) Wait6560(tag uint16) (Inner6560Reply, error) {
	pred := Inner6560Predicate(func(pkt Packet6560) (any, bool, error) {
		if !pkt.Response || pkt.Tag != tag {
			return nil, false, nil
		}
		if pkt.ErrorCode != 0 {
			return nil, true, &DeviceError{Code: pkt.ErrorCode}
		}
		if pkt.PktCount != 0 || !pkt.First {
			return nil, true, ErrUnexpectedMultipacket
		}
		return Inner6560Reply{
			SrcSA:   pkt.SrcSA,
			Type:    pkt.Type,
			Subtype: pkt.Subtype,
			Arg1:    pkt.Arg1,
			Arg2:    pkt.Arg2,
			Extra:   pkt.Extra,
		}, true, nil
	})
	value, err := c.wait(Class6560, pred)
	if err != nil {
		return Inner6560Reply{}, err
	}
	return value.(Inner6560Reply), nil
}

// Wait6560Multi blocks until a complete, in-order multi-fragment 6560 reply
// with the given tag has been received, then returns its fragments in
// transmission order. The first fragment must carry first=true, with
// pktcount equal to the number of fragments still to come; each subsequent
// fragment must have first=false and pktcount one less than the previous
// fragment, down to a terminal fragment with pktcount=0. Any deviation
// fails with ErrFragmentOrder.
func (c *Connection) Wait6560Multi(tag uint16) ([]Packet6560, error) {
	var fragments []Packet6560

	pred := Inner6560Predicate(func(pkt Packet6560) (any, bool, error) {
		if !pkt.Response || pkt.Tag != tag {
			return nil, false, nil
		}
		if pkt.ErrorCode != 0 {
			return nil, true, &DeviceError{Code: pkt.ErrorCode}
		}

		if len(fragments) == 0 {
			if !pkt.First {
				return nil, true, fmt.Errorf("%w: first fragment missing first flag", ErrFragmentOrder)
			}
		} else {
			prev := fragments[len(fragments)-1]
			if pkt.First {
				return nil, true, fmt.Errorf("%w: unexpected first flag on fragment %d", ErrFragmentOrder, len(fragments))
			}
			if pkt.PktCount != prev.PktCount-1 {
				return nil, true, fmt.Errorf("%w: expected pktcount %d, got %d", ErrFragmentOrder, prev.PktCount-1, pkt.PktCount)
			}
		}

		fragments = append(fragments, pkt)
		if pkt.PktCount == 0 {
			return fragments, true, nil
		}
		return nil, false, nil
	})

	value, err := c.wait(Class6560, pred)
	if err != nil {
		return nil, err
	}
	return value.([]Packet6560), nil
}
