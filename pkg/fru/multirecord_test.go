// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fru

import (
	"errors"
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/u-root/scbmc/pkg/cursor"
	"github.com/u-root/scbmc/pkg/hwerr"
)

func record(t RecordType, last bool, payload ...byte) []byte {
	f := byte(0x02)
	if last {
		f |= lastRecord
	}
	h := []byte{byte(t), f, byte(len(payload)), 0 - sum(payload), 0}
	h[4] = 0 - sum(h[:4])
	return append(h, payload...)
}

// multirecordImage puts records at start, with the header pointing at
// offset×8.
func multirecordImage(offset uint8, start int, records ...[]byte) []byte {
	buf := make([]byte, 256)
	copy(buf, header(0, offset))
	for _, r := range records {
		start += copy(buf[start:], r)
	}
	return buf
}

var (
	dcOutput = []byte{0x01, 0x78, 0x00, 0x72, 0x00, 0x7e, 0x00, 0x0a, 0x00, 0x00, 0x00, 0xe8, 0x03}
	vadjLoad = []byte{0x00, 0x96, 0x00, 0x78, 0x00, 0x96, 0x00, 0x05, 0x00, 0x00, 0x00, 0xd0, 0x07}
	macID    = []byte{0xda, 0x10, 0x00, MACIDSingle, 0x00, 0x0a, 0x35, 0x00, 0x00, 0x01}
)

func TestMultirecordStopsAtLast(t *testing.T) {
	buf := multirecordImage(0x08, 0x40,
		record(DCOutputRecord, false, dcOutput...),
		record(DCLoadRecord, false, vadjLoad...),
		record(MACIDRecord, true, macID...),
		// Never reached.
		record(RecordType(0xEE), true, 0xff),
	)
	recs, err := DecodeMultirecordArea(buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(recs))
	}

	wantDC := &DCOutput{OutputNumber: 1, Nominal: 1.2, Min: 1.14, Max: 1.26, RippleNoise: 10, MaxCurrent: 1000}
	if diff := cmp.Diff(wantDC, recs[0].DC); diff != "" {
		t.Errorf("DC Output mismatch (-want +got):\n%s", diff)
	}
	if recs[0].Offset != 0x40 || recs[1].Offset != 0x40+5+13 || recs[2].Offset != 0x40+2*(5+13) {
		t.Errorf("Unexpected record offsets %#x %#x %#x", recs[0].Offset, recs[1].Offset, recs[2].Offset)
	}
	if !recs[1].DC.VoltageAdjust() {
		t.Errorf("Expected output 0 of DC Load to be the adjustable voltage")
	}
	wantMAC := &MACID{IANA: 0x0010da, Version: MACIDSingle, MACs: []net.HardwareAddr{{0x00, 0x0a, 0x35, 0x00, 0x00, 0x01}}}
	if diff := cmp.Diff(wantMAC, recs[2].MACID); diff != "" {
		t.Errorf("MAC ID mismatch (-want +got):\n%s", diff)
	}
	for i := range recs {
		if err := recs[i].VerifyChecksums(); err != nil {
			t.Errorf("Record %d: %v", i, err)
		}
	}
}

func TestMultirecordErratumOffset(t *testing.T) {
	// The header says 0x40 but the area really starts at 0x68.
	buf := multirecordImage(0x08, ErratumMultirecordOffset, record(DCLoadRecord, true, vadjLoad...))
	recs, err := DecodeMultirecordArea(buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Offset != ErratumMultirecordOffset {
		t.Fatalf("Expected one record at 0x68, got %+v", recs)
	}
	min, max, ok := VadjRange(recs)
	if !ok || min != 1.2 || max != 1.5 {
		t.Errorf("Expected Vadj range 1.2-1.5, got %v-%v (%v)", min, max, ok)
	}
}

func TestMultirecordUnknownType(t *testing.T) {
	buf := multirecordImage(0x08, 0x40,
		record(DCOutputRecord, false, dcOutput...),
		record(RecordType(0x05), true, 0x00),
	)
	_, err := DecodeMultirecordArea(buf)
	var fe *hwerr.FormatError
	if !errors.As(err, &fe) || fe.Offset != 0x40+5+13 {
		t.Errorf("Expected a format error at the second record, got %v", err)
	}
}

func TestMultirecordTruncated(t *testing.T) {
	buf := multirecordImage(0x1f, 0xf8, record(DCOutputRecord, true, dcOutput...))
	_, err := DecodeMultirecordArea(buf)
	if !errors.Is(err, hwerr.ErrFormat) || !errors.Is(err, cursor.ErrOutOfBounds) {
		t.Errorf("Expected an out of bounds format error, got %v", err)
	}

	// A record without a last flag running into the end of the image.
	buf = multirecordImage(0x08, 0x40, record(DCOutputRecord, false, dcOutput...))
	copy(buf[0x40+18:], record(DCOutputRecord, false, dcOutput...))
	buf = buf[:0x40+18+10]
	if _, err := DecodeMultirecordArea(buf); !errors.Is(err, cursor.ErrOutOfBounds) {
		t.Errorf("Expected an out of bounds error, got %v", err)
	}
}

func TestMultirecordPayloads(t *testing.T) {
	for _, tt := range []struct {
		name    string
		rec     []byte
		check   func(*Record) bool
		wantErr bool
	}{
		{
			name: "dual MAC",
			rec: record(MACIDRecord, true, 0xda, 0x10, 0x00, MACIDDual,
				1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12),
			check: func(r *Record) bool {
				return len(r.MACID.MACs) == 2 && r.MACID.MACs[1].String() == "07:08:09:0a:0b:0c"
			},
		},
		{
			name:    "unsupported MAC version",
			rec:     record(MACIDRecord, true, 0xda, 0x10, 0x00, 0x21, 1, 2, 3, 4, 5, 6),
			wantErr: true,
		},
		{
			name:    "short MAC",
			rec:     record(MACIDRecord, true, 0xda, 0x10, 0x00, MACIDSingle, 1, 2, 3),
			wantErr: true,
		},
		{
			name: "memory",
			rec:  record(MemoryRecord, true, append([]byte{0xda, 0x10, 0x00}, "DDR4\x001.2V\x00"...)...),
			check: func(r *Record) bool {
				return r.Memory.MemoryType == "DDR4" && r.Memory.VoltageSupply == "1.2V" && r.Memory.IANA == 0x10da
			},
		},
		{
			name: "VITA 57.1",
			rec:  record(VITA571Record, true, 0x12, 0xa2, 0x00, 0x01, 0x00, 160, 160, 0, 0, 10, 20),
			check: func(r *Record) bool {
				v := r.VITA571
				return v.OUI == 0x00a212 && v.SubtypeVersion == 1 && v.P1BankA == 160 && v.P1GBT == 10 && v.MaxTCKMHz == 20
			},
		},
		{
			name:    "DC Load rail out of range",
			rec:     record(DCLoadRecord, true, append([]byte{0x10}, vadjLoad[1:]...)...),
			wantErr: true,
		},
		{
			name: "DC Load rail",
			rec:  record(DCLoadRecord, true, append([]byte{0x0f}, vadjLoad[1:]...)...),
			check: func(r *Record) bool {
				return !r.DC.VoltageAdjust() && r.DC.OutputNumber == 0x0f
			},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := DecodeMultirecordArea(multirecordImage(0x08, 0x40, tt.rec))
			if tt.wantErr {
				if !errors.Is(err, hwerr.ErrFormat) {
					t.Errorf("Expected a format error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !tt.check(&recs[0]) {
				t.Errorf("Unexpected record %+v", recs[0])
			}
		})
	}
}

func TestMultirecordAbsent(t *testing.T) {
	recs, err := DecodeMultirecordArea(multirecordImage(0, 0x40))
	if err != nil || recs != nil {
		t.Errorf("Expected no records and no error, got %v, %v", recs, err)
	}
}

func TestRecordChecksumMismatch(t *testing.T) {
	buf := multirecordImage(0x08, 0x40, record(DCOutputRecord, true, dcOutput...))
	buf[0x40+5] ^= 0xff
	recs, err := DecodeMultirecordArea(buf)
	if err != nil {
		t.Fatalf("Decoding is not expected to check checksums: %v", err)
	}
	if err := recs[0].VerifyChecksums(); !errors.Is(err, hwerr.ErrFormat) {
		t.Errorf("Expected a record checksum error, got %v", err)
	}
}

func TestVadjRangeMissing(t *testing.T) {
	buf := multirecordImage(0x08, 0x40, record(DCOutputRecord, true, dcOutput...))
	recs, err := DecodeMultirecordArea(buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, ok := VadjRange(recs); ok {
		t.Errorf("Expected no Vadj range without a DC Load record")
	}
}
