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

package client_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/dgibson/smadata2/client"
	"github.com/dgibson/smadata2/internal/smadata2"
)

var (
	testLocal  = smadata2.BA{0x11, 0x22, 0x33, 0x44, 0x55, 0x66}
	testRemote = smadata2.BA{0x99, 0x88, 0x77, 0x66, 0x55, 0x44}

	helloPrefix = []byte{0x00, 0x04, 0x70, 0x00}
)

// scriptedTransport feeds a fixed, pre-recorded byte stream to the Client
// and captures everything it writes. Because TagAllocator starts at 1 and
// increments once per send6560Request call, every test below can predict
// the exact tag a given request will carry and bake it into the script.
type scriptedTransport struct {
	in  *bytes.Reader
	out bytes.Buffer
}

func newScriptedTransport(script []byte) *scriptedTransport {
	return &scriptedTransport{in: bytes.NewReader(script)}
}

func (s *scriptedTransport) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s *scriptedTransport) Write(p []byte) (int, error) { return s.out.Write(p) }

func outerFrame(t *testing.T, src, dst smadata2.BA, typ smadata2.OuterType, payload []byte) []byte {
	t.Helper()
	buf, err := smadata2.EncodeOuter(src, dst, typ, payload)
	if err != nil {
		t.Fatalf("EncodeOuter: %v", err)
	}
	return buf
}

func inner6560Frame(t *testing.T, src, dst smadata2.BA, pkt smadata2.Packet6560) []byte {
	t.Helper()
	inner, err := smadata2.Encode6560(pkt)
	if err != nil {
		t.Fatalf("Encode6560: %v", err)
	}
	ppp := smadata2.EncodePPP(smadata2.ProtocolSMA, inner)
	return outerFrame(t, src, dst, smadata2.OuterPPP, ppp)
}

// handshakeScript returns the bytes a well-behaved inverter sends for the
// HELLO/LOGON sequence that every Connect call performs. The LOGON request
// is always the connection's first 6560 request, so its reply always
// carries tag 1.
func handshakeScript(t *testing.T, logonErrorCode uint16) []byte {
	t.Helper()
	hello := outerFrame(t, testRemote, testLocal, smadata2.OuterHELLO, append(append([]byte{}, helloPrefix...), 0xAA, 0xBB))
	peerList := outerFrame(t, testRemote, testLocal, smadata2.OuterPeerList, []byte{0x01})
	logonReply := inner6560Frame(t, testRemote, testLocal, smadata2.Packet6560{
		Tag: 1, First: true, Response: true, ErrorCode: logonErrorCode,
		Type: 0x040C, Subtype: 0xFFFD,
	})
	return append(append(hello, peerList...), logonReply...)
}

func connect(t *testing.T, extra []byte) *client.Client {
	t.Helper()
	script := append(handshakeScript(t, 0), extra...)
	c, err := client.Connect(context.Background(), newScriptedTransport(script), testLocal, testRemote, "secret", nil)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return c
}

func TestConnectPerformsHandshake(t *testing.T) {
	t.Parallel()
	c := connect(t, nil)
	if c == nil {
		t.Fatal("Connect returned a nil client with no error")
	}
}

func TestConnectFailsOnLogonDeviceError(t *testing.T) {
	t.Parallel()
	script := handshakeScript(t, 0x0007)
	_, err := client.Connect(context.Background(), newScriptedTransport(script), testLocal, testRemote, "secret", nil)

	var devErr *smadata2.DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("expected *DeviceError, got %v", err)
	}
	if devErr.Code != 0x0007 {
		t.Errorf("Code = 0x%04X, want 0x0007", devErr.Code)
	}
}

func TestConnectDefaultsEmptyPassword(t *testing.T) {
	t.Parallel()
	script := handshakeScript(t, 0)
	_, err := client.Connect(context.Background(), newScriptedTransport(script), testLocal, testRemote, "", nil)
	if err != nil {
		t.Fatalf("Connect with empty password: %v", err)
	}
}

func TestGetSignalParsesPercentage(t *testing.T) {
	t.Parallel()
	varID := make([]byte, 2)
	binary.LittleEndian.PutUint16(varID, uint16(smadata2.VarSignal))
	payload := append(append([]byte{}, varID...), 0x00, 0x00, 128)

	reply := outerFrame(t, testRemote, testLocal, smadata2.OuterVARVAL, payload)
	c := connect(t, reply)

	got, err := c.GetSignal(context.Background())
	if err != nil {
		t.Fatalf("GetSignal: %v", err)
	}
	want := float64(128) / 0xFF * 100
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("GetSignal = %v, want %v", got, want)
	}
}

func TestTotalYieldParsesTimestampAndTotal(t *testing.T) {
	t.Parallel()
	ts := uint32(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC).Unix())
	extra := make([]byte, 12)
	binary.LittleEndian.PutUint32(extra[4:8], ts)
	binary.LittleEndian.PutUint32(extra[8:12], 123456)

	// The handshake's LOGON request consumes tag 1, so this is the second
	// 6560 request issued on the connection and carries tag 2.
	reply := inner6560Frame(t, testRemote, testLocal, smadata2.Packet6560{
		Tag: 2, First: true, Response: true, Type: 0x0200, Subtype: 0x5400, Extra: extra,
	})
	c := connect(t, reply)

	got, err := c.TotalYield(context.Background())
	if err != nil {
		t.Fatalf("TotalYield: %v", err)
	}
	if got.TotalWh != 123456 {
		t.Errorf("TotalWh = %d, want 123456", got.TotalWh)
	}
	if !got.Timestamp.Equal(time.Unix(int64(ts), 0).UTC()) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, time.Unix(int64(ts), 0).UTC())
	}
}

func TestTotalYieldPropagatesDeviceError(t *testing.T) {
	t.Parallel()
	reply := inner6560Frame(t, testRemote, testLocal, smadata2.Packet6560{
		Tag: 2, First: true, Response: true, ErrorCode: 0x0013,
	})
	c := connect(t, reply)

	_, err := c.TotalYield(context.Background())
	var devErr *smadata2.DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("expected *DeviceError, got %v", err)
	}
}

func historicRecord(ts, value uint32) []byte {
	rec := make([]byte, 12)
	binary.LittleEndian.PutUint32(rec[0:4], ts)
	binary.LittleEndian.PutUint32(rec[4:8], value)
	return rec
}

func TestHistoricAssemblesMultiFragmentSamplesAndFiltersSentinel(t *testing.T) {
	t.Parallel()
	const noReading = 0xFFFFFFFF
	first := historicRecord(1700000000, 1000)
	noData := historicRecord(1700000300, noReading)
	last := historicRecord(1700000600, 2000)

	fragment1 := inner6560Frame(t, testRemote, testLocal, smadata2.Packet6560{
		Tag: 2, First: true, Response: true, PktCount: 1, Type: 0x0200, Subtype: 0x7000, Extra: first,
	})
	fragment2 := inner6560Frame(t, testRemote, testLocal, smadata2.Packet6560{
		Tag: 2, First: false, Response: true, PktCount: 0, Type: 0x0200, Subtype: 0x7000,
		Extra: append(append([]byte{}, noData...), last...),
	})
	c := connect(t, append(fragment1, fragment2...))

	from := time.Unix(1700000000, 0)
	to := time.Unix(1700000600, 0)
	samples, err := c.Historic(context.Background(), from, to)
	if err != nil {
		t.Fatalf("Historic: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2 (sentinel reading should be filtered)", len(samples))
	}
	if samples[0].TotalYieldWh != 1000 || samples[1].TotalYieldWh != 2000 {
		t.Errorf("unexpected sample values: %+v", samples)
	}
}

func TestHistoricAtReturnsLastSampleInBucket(t *testing.T) {
	t.Parallel()
	at := time.Unix(1700000000, 0)
	earlier := historicRecord(uint32(at.Unix()), 4100)
	record := historicRecord(uint32(at.Unix())+60, 4200)

	reply := inner6560Frame(t, testRemote, testLocal, smadata2.Packet6560{
		Tag: 2, First: true, Response: true, PktCount: 0, Type: 0x0200, Subtype: 0x7000,
		Extra: append(append([]byte{}, earlier...), record...),
	})
	c := connect(t, reply)

	sample, err := c.HistoricAt(context.Background(), at, 5*time.Minute, false)
	if err != nil {
		t.Fatalf("HistoricAt: %v", err)
	}
	if sample == nil {
		t.Fatal("HistoricAt returned a nil sample, want a match")
	}
	if sample.TotalYieldWh != 4200 {
		t.Errorf("TotalYieldWh = %d, want 4200", sample.TotalYieldWh)
	}
}

func TestHistoricAtDailyReturnsDailySample(t *testing.T) {
	t.Parallel()
	at := time.Unix(1700000000, 0)
	record := historicRecord(uint32(at.Unix()), 9000)

	reply := inner6560Frame(t, testRemote, testLocal, smadata2.Packet6560{
		Tag: 2, First: true, Response: true, PktCount: 0, Type: 0x0200, Subtype: 0x7020, Extra: record,
	})
	c := connect(t, reply)

	sample, err := c.HistoricAt(context.Background(), at, 5*time.Minute, true)
	if err != nil {
		t.Fatalf("HistoricAt: %v", err)
	}
	if sample == nil || sample.TotalYieldWh != 9000 {
		t.Errorf("HistoricAt(daily) = %+v, want TotalYieldWh 9000", sample)
	}
}

func TestHistoricAtReturnsNilWhenBucketEmpty(t *testing.T) {
	t.Parallel()
	at := time.Unix(1700000000, 0)

	reply := inner6560Frame(t, testRemote, testLocal, smadata2.Packet6560{
		Tag: 2, First: true, Response: true, PktCount: 0, Type: 0x0200, Subtype: 0x7000,
	})
	c := connect(t, reply)

	sample, err := c.HistoricAt(context.Background(), at, 5*time.Minute, false)
	if err != nil {
		t.Fatalf("HistoricAt: %v", err)
	}
	if sample != nil {
		t.Errorf("HistoricAt = %+v, want nil", sample)
	}
}

func TestSetTimeWaitsForReply(t *testing.T) {
	t.Parallel()
	reply := inner6560Frame(t, testRemote, testLocal, smadata2.Packet6560{
		Tag: 2, First: true, Response: true, Type: 0x020A, Subtype: 0xF000,
	})
	c := connect(t, reply)

	if err := c.SetTime(context.Background(), time.Now(), 60); err != nil {
		t.Fatalf("SetTime: %v", err)
	}
}

func TestConnectRespectsContextCancellation(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// blockingReadTransport makes every read inside RxOnce block until the
	// test ends; withDeadline must still return promptly because ctx is
	// already done.
	blocked := &blockingReadTransport{release: make(chan struct{})}
	defer close(blocked.release)

	_, err := client.Connect(ctx, blocked, testLocal, testRemote, "secret", nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

type blockingReadTransport struct {
	release chan struct{}
}

func (b *blockingReadTransport) Read(p []byte) (int, error) {
	<-b.release
	return 0, errors.New("transport closed")
}

func (b *blockingReadTransport) Write(p []byte) (int, error) { return len(p), nil }
