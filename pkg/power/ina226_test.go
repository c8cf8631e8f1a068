// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package power

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/u-root/scbmc/pkg/bus/bustest"
	"github.com/u-root/scbmc/pkg/hwerr"
)

const i2c = "/dev/i2c-4"

var (
	vccint = Sensor{Name: "VCCINT", Bus: i2c, Address: 0x40, ShuntMicroOhms: 500, PhaseMultiplier: 6}
	vcc1v8 = Sensor{Name: "VCC1V8", Bus: i2c, Address: 0x41, ShuntMicroOhms: 2000}
)

func lookup(name string) (Sensor, bool) {
	for _, s := range []Sensor{vccint, vcc1v8} {
		if s.Name == name {
			return s, true
		}
	}
	return Sensor{}, false
}

func TestConvert(t *testing.T) {
	// 400 * 2.5 uV = 1000 uV over 500 uOhm = 2 A per phase.
	got := Convert(&vccint, 400, 640)
	want := Reading{Volts: 0.8, Amps: 12}
	want.Watts = want.Volts * want.Amps
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Reading mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertNegativeShunt(t *testing.T) {
	got := Convert(&vcc1v8, 0xfff0, 1440)
	if got.Amps != 0 || got.Watts != 0 {
		t.Errorf("Expected zero current for a negative shunt voltage, got %+v", got)
	}
	if got.Volts != 1.8 {
		t.Errorf("Expected 1.8 V, got %v", got.Volts)
	}
}

func TestRead(t *testing.T) {
	f := bustest.New(t)
	f.FakeRead(i2c, 0x41, []byte{INA226_SHUNT_VOLTAGE}, []byte{0x03, 0x20})
	f.FakeRead(i2c, 0x41, []byte{INA226_BUS_VOLTAGE}, []byte{0x05, 0xa0})

	r, err := NewController(f).Read(vcc1v8)
	if err != nil {
		t.Fatal(err)
	}
	// 800 * 2.5 uV / 2000 uOhm = 1 A
	if r.Amps != 1 || r.Volts != 1.8 {
		t.Errorf("Expected 1.8 V at 1 A, got %+v", r)
	}
	f.Done()
}

func TestReadRejectsShunt(t *testing.T) {
	f := bustest.New(t)
	s := vcc1v8
	s.ShuntMicroOhms = 0
	if _, err := NewController(f).Read(s); !errors.Is(err, hwerr.ErrValidation) {
		t.Errorf("Expected a validation error, got %v", err)
	}
	if f.Opened() != 0 {
		t.Errorf("Expected no bus access, got %d opens", f.Opened())
	}
}

func TestTotal(t *testing.T) {
	f := bustest.New(t)
	f.FakeRead(i2c, 0x40, []byte{INA226_SHUNT_VOLTAGE}, []byte{0x01, 0x90})
	f.FakeRead(i2c, 0x40, []byte{INA226_BUS_VOLTAGE}, []byte{0x02, 0x80})
	f.FakeRead(i2c, 0x41, []byte{INA226_SHUNT_VOLTAGE}, []byte{0x03, 0x20})
	f.FakeRead(i2c, 0x41, []byte{INA226_BUS_VOLTAGE}, []byte{0x05, 0xa0})

	d := Domain{Name: "PL", Sensors: []string{"VCCINT", "VCC1V8"}}
	total, err := NewController(f).Total(d, lookup)
	if err != nil {
		t.Fatal(err)
	}
	want := Convert(&vccint, 400, 640).Watts + Convert(&vcc1v8, 800, 1440).Watts
	if total != want {
		t.Errorf("Expected %v W, got %v", want, total)
	}
	f.Done()
}

func TestTotalUnknownSensor(t *testing.T) {
	f := bustest.New(t)
	d := Domain{Name: "PS", Sensors: []string{"VCCAUX"}}
	if _, err := NewController(f).Total(d, lookup); !errors.Is(err, hwerr.ErrValidation) {
		t.Errorf("Expected a validation error, got %v", err)
	}
}

func TestTotalReadFailure(t *testing.T) {
	f := bustest.New(t)
	f.FailRead(i2c, 0x40, []byte{INA226_SHUNT_VOLTAGE}, 2, errors.New("nak"))

	d := Domain{Name: "PL", Sensors: []string{"VCCINT", "VCC1V8"}}
	if _, err := NewController(f).Total(d, lookup); !errors.Is(err, hwerr.ErrTransaction) {
		t.Errorf("Expected a transaction error, got %v", err)
	}
	f.Done()
}
