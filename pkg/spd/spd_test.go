// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spd

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/u-root/scbmc/pkg/bus/bustest"
	"github.com/u-root/scbmc/pkg/hwerr"
)

const i2c = "/dev/i2c-1"

var dimm = Module{
	Name:            "DIMM1",
	Bus:             i2c,
	SPDAddress:      0x51,
	ThermalAddress:  0x19,
	ThermalRegister: 0x05,
}

func prefix(density, thermal byte) []byte {
	b := make([]byte, PrefixSize)
	b[SPD_BYTES_USED] = 0x23
	b[SPD_REVISION] = 0x11
	b[SPD_DRAM_TYPE] = DRAM_TYPE_DDR4
	b[SPD_MODULE_TYPE] = 0x82
	b[SPD_DENSITY] = density
	b[SPD_THERMAL_SENS] = thermal
	return b
}

func TestDecodeSPD(t *testing.T) {
	got, err := DecodeSPD(prefix(0x45, 0x80))
	if err != nil {
		t.Fatal(err)
	}
	want := &SPD{
		BytesUsed:     0x23,
		Revision:      0x11,
		DRAMType:      DRAM_TYPE_DDR4,
		ModuleType:    0x2,
		DensityCode:   0x5,
		DDR4:          true,
		ThermalSensor: true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SPD mismatch (-want +got):\n%s", diff)
	}
}

func TestSize(t *testing.T) {
	for code, want := range map[uint8]string{
		0: "0",
		1: "512 Mb",
		2: "1 Gb",
		3: "2 Gb",
		4: "4 Gb",
		5: "8 Gb",
		6: "16 Gb",
	} {
		s := SPD{DensityCode: code}
		if got := s.Size(); got != want {
			t.Errorf("Size code %d: expected %q, got %q", code, want, got)
		}
	}
}

func TestDecodeSPDNotDDR4(t *testing.T) {
	b := prefix(0x04, 0x00)
	b[SPD_DRAM_TYPE] = 0x0B
	got, err := DecodeSPD(b)
	if err != nil {
		t.Fatal(err)
	}
	if got.DDR4 || got.ThermalSensor {
		t.Errorf("Expected DDR3 without a sensor, got %+v", got)
	}
}

func TestDecodeSPDShort(t *testing.T) {
	if _, err := DecodeSPD(make([]byte, 15)); !errors.Is(err, hwerr.ErrFormat) {
		t.Errorf("Expected a format error, got %v", err)
	}
}

func TestDecodeTemperature(t *testing.T) {
	for _, tt := range []struct {
		b0, b1 byte
		want   float64
	}{
		{0x01, 0x90, 25},
		{0x01, 0x94, 25.25},
		// Flag bits are ignored.
		{0xe1, 0x90, 25},
		{0x1f, 0xf0, -1},
		{0x00, 0x00, 0},
	} {
		if got := DecodeTemperature(tt.b0, tt.b1); got != tt.want {
			t.Errorf("DecodeTemperature(%#02x, %#02x): expected %v, got %v", tt.b0, tt.b1, tt.want, got)
		}
	}
}

func TestControllerSPD(t *testing.T) {
	f := bustest.New(t)
	f.FakeRead(i2c, 0x51, []byte{0x00}, prefix(0x05, 0x80))

	s, err := NewController(f).SPD(dimm)
	if err != nil {
		t.Fatal(err)
	}
	if s.Size() != "8 Gb" || !s.ThermalSensor {
		t.Errorf("Unexpected SPD %+v", s)
	}
	f.Done()
}

func TestControllerTemperature(t *testing.T) {
	f := bustest.New(t)
	f.FakeRead(i2c, 0x19, []byte{0x05}, []byte{0x01, 0x90})
	f.FailRead(i2c, 0x19, []byte{0x05}, 2, errors.New("nak"))
	c := NewController(f)

	if v, err := c.Temperature(dimm); err != nil || v != 25 {
		t.Errorf("Expected 25 C, got %v (%v)", v, err)
	}
	if _, err := c.Temperature(dimm); !errors.Is(err, hwerr.ErrTransaction) {
		t.Errorf("Expected a transaction error, got %v", err)
	}
	f.Done()
}
