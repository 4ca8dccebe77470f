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

package smadata2_test

import (
	"errors"
	"testing"

	"github.com/dgibson/smadata2/internal/smadata2"
	"github.com/google/go-cmp/cmp"
)

func samplePacket6560() smadata2.Packet6560 {
	return smadata2.Packet6560{
		A2:       0xA0,
		DstSA:    smadata2.BroadcastSA,
		B1:       0x00,
		B2:       0x01,
		SrcSA:    smadata2.LocalSA,
		C1:       0x00,
		C2:       0x01,
		Tag:      0x1234,
		First:    true,
		Type:     0x0200,
		Response: true,
		Subtype:  0x5400,
		Arg1:     0x00260100,
		Arg2:     0x002601FF,
		Extra:    []byte{0x01, 0x02, 0x03, 0x04},
	}
}

func TestEncodeDecode6560RoundTrip(t *testing.T) {
	t.Parallel()
	want := samplePacket6560()

	buf, err := smadata2.Encode6560(want)
	if err != nil {
		t.Fatalf("Encode6560: %v", err)
	}

	got, err := smadata2.Decode6560(buf)
	if err != nil {
		t.Fatalf("Decode6560: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode6560RejectsUnalignedExtra(t *testing.T) {
	t.Parallel()
	pkt := samplePacket6560()
	pkt.Extra = []byte{0x01, 0x02, 0x03}
	_, err := smadata2.Encode6560(pkt)
	if !errors.Is(err, smadata2.ErrInnerAlignment) {
		t.Errorf("expected ErrInnerAlignment, got %v", err)
	}
}

func TestDecode6560RejectsLengthMismatch(t *testing.T) {
	t.Parallel()
	pkt := samplePacket6560()
	buf, err := smadata2.Encode6560(pkt)
	if err != nil {
		t.Fatalf("Encode6560: %v", err)
	}
	buf[0]++ // now declares one extra 4-byte word that isn't there
	_, err = smadata2.Decode6560(buf)
	if !errors.Is(err, smadata2.ErrInnerLengthMismatch) {
		t.Errorf("expected ErrInnerLengthMismatch, got %v", err)
	}
}

func TestDecode6560RejectsTooShortPayload(t *testing.T) {
	t.Parallel()
	_, err := smadata2.Decode6560(make([]byte, 10))
	if !errors.Is(err, smadata2.ErrInnerLengthMismatch) {
		t.Errorf("expected ErrInnerLengthMismatch, got %v", err)
	}
}

func TestEncode6560PreservesNonResponseTypeBits(t *testing.T) {
	t.Parallel()
	pkt := samplePacket6560()
	pkt.Response = false
	pkt.Type = 0x040C

	buf, err := smadata2.Encode6560(pkt)
	if err != nil {
		t.Fatalf("Encode6560: %v", err)
	}
	got, err := smadata2.Decode6560(buf)
	if err != nil {
		t.Fatalf("Decode6560: %v", err)
	}
	if got.Type != 0x040C || got.Response {
		t.Errorf("got Type=0x%04X Response=%v, want Type=0x040C Response=false", got.Type, got.Response)
	}
}

func TestEncode6560WithoutFirstFlag(t *testing.T) {
	t.Parallel()
	pkt := samplePacket6560()
	pkt.First = false
	pkt.PktCount = 3

	buf, err := smadata2.Encode6560(pkt)
	if err != nil {
		t.Fatalf("Encode6560: %v", err)
	}
	got, err := smadata2.Decode6560(buf)
	if err != nil {
		t.Fatalf("Decode6560: %v", err)
	}
	if got.First {
		t.Error("expected First to be false")
	}
	if got.PktCount != 3 {
		t.Errorf("PktCount = %d, want 3", got.PktCount)
	}
}
