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

import "fmt"

// OuterType is the 16-bit type tag of an outer packet.
type OuterType uint16

// Outer types (§3).
const (
	OuterPPP    OuterType = 0x01
	OuterHELLO  OuterType = 0x02
	OuterGETVAR OuterType = 0x03
	OuterVARVAL OuterType = 0x04
	OuterERROR  OuterType = 0x07
	OuterPPP2   OuterType = 0x08

	// OuterPeerList is the unnamed 0x05 outer type sent by the inverter to
	// announce its peer/address table once HELLO is done.
	OuterPeerList OuterType = 0x05
)

// VarID is a GETVAR/VARVAL variable identifier.
type VarID uint16

// VarSignal is the only variable id this client reads.
const VarSignal VarID = 0x05

// outerTypeNames is the compile-time dump table for outer types, built
// once rather than mutated at import time (§9 "global pktype table").
var outerTypeNames = map[OuterType]string{
	OuterPPP:      "PPP",
	OuterHELLO:    "HELLO",
	OuterGETVAR:   "GETVAR",
	OuterVARVAL:   "VARVAL",
	OuterERROR:    "ERROR",
	OuterPPP2:     "PPP2",
	OuterPeerList: "PEERLIST",
}

func (t OuterType) String() string {
	if name, ok := outerTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("OuterType(0x%02X)", uint16(t))
}

const (
	outerHeaderLen = 18
	outerStart     = 0x7E
	outerMaxLen    = 0x70
)

// OuterPacket is a fully decoded outer envelope.
type OuterPacket struct {
	Src     BA
	Dst     BA
	Type    OuterType
	Payload []byte
}

// EncodeOuter builds the 18-octet envelope plus payload described in §3/§4.1.
func EncodeOuter(src, dst BA, typ OuterType, payload []byte) ([]byte, error) {
	total := outerHeaderLen + len(payload)
	if total > outerMaxLen {
		return nil, fmt.Errorf("%w: %d exceeds %#x", ErrOversizePayload, total, outerMaxLen)
	}

	buf := make([]byte, total)
	buf[0] = outerStart
	buf[1] = byte(total)
	buf[2] = 0x00
	buf[3] = buf[0] ^ buf[1] ^ buf[2]
	copy(buf[4:10], src[:])
	copy(buf[10:16], dst[:])
	buf[16] = byte(typ)
	buf[17] = byte(typ >> 8)
	copy(buf[18:], payload)
	return buf, nil
}

// TryDecodeOuter peeks the first outer packet buffered in buf. It returns
// ErrNeedMore if buf does not yet hold a complete packet, leaving buf
// untouched. On success it returns the decoded packet and the number of
// bytes consumed from the front of buf.
func TryDecodeOuter(buf []byte) (OuterPacket, int, error) {
	var pkt OuterPacket

	if len(buf) < outerHeaderLen {
		return pkt, 0, ErrNeedMore
	}
	if buf[0] != outerStart {
		return pkt, 0, ErrBadStart
	}
	total := int(buf[1])
	if total > outerMaxLen || total < outerHeaderLen {
		return pkt, 0, ErrBadLength
	}
	if buf[2] != 0x00 {
		return pkt, 0, ErrBadLength
	}
	if buf[3] != buf[0]^buf[1]^buf[2] {
		return pkt, 0, ErrBadHeaderChecksum
	}
	if len(buf) < total {
		return pkt, 0, ErrNeedMore
	}

	copy(pkt.Src[:], buf[4:10])
	copy(pkt.Dst[:], buf[10:16])
	pkt.Type = OuterType(uint16(buf[16]) | uint16(buf[17])<<8)
	if total > outerHeaderLen {
		pkt.Payload = append([]byte(nil), buf[outerHeaderLen:total]...)
	}
	return pkt, total, nil
}

// AcceptOuter reports whether a received outer packet's destination means
// the local stack should process it: addressed to us, broadcast, or zero
// (pre-login / anonymous).
func AcceptOuter(dst, local BA) bool {
	return dst == local || dst == BroadcastBA || dst == ZeroBA
}
