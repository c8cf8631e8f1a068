// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fru

import (
	"errors"
	"testing"

	"github.com/spf13/afero"

	"github.com/u-root/scbmc/pkg/bus/bustest"
	"github.com/u-root/scbmc/pkg/hwerr"
)

var errNak = errors.New("nak")

func fullImage() []byte {
	buf := make([]byte, 256)
	copy(buf, header(1, 0x08))
	copy(buf[0x08:], append([]byte{0x01, 0x08, 0x19, 0, 0, 0}, append(boardFields(), EndOfRecord)...))
	copy(buf[0x40:], record(DCLoadRecord, true, vadjLoad...))
	return buf
}

func TestReadOnboard(t *testing.T) {
	f := bustest.New(t)
	img := fullImage()
	f.FakeRead("/dev/i2c-11", 0x54, []byte{0x00, 0x00}, img)
	buf, err := Read(f, Source{Name: "onboard", Bus: "/dev/i2c-11", Address: 0x54, AddressWidth: 2})
	if err != nil {
		t.Fatal(err)
	}
	im, err := Decode(buf, false)
	if err != nil {
		t.Fatal(err)
	}
	if im.Board.ProductName != "VCK190" || len(im.Multirecord) != 1 {
		t.Errorf("Unexpected image %+v", im)
	}
	f.Done()
}

func TestReadFailureClosesTransaction(t *testing.T) {
	f := bustest.New(t)
	f.FailRead("/dev/i2c-12", 0x50, []byte{0x00}, 16, errNak)
	_, err := Read(f, Source{Name: "FMC1", Bus: "/dev/i2c-12", Address: 0x50, AddressWidth: 1, Size: 16})
	if !errors.Is(err, hwerr.ErrTransaction) {
		t.Errorf("Expected a transaction error, got %v", err)
	}
	f.Done()
}

func TestReadRejectsAddressWidth(t *testing.T) {
	f := bustest.New(t)
	_, err := Read(f, Source{Name: "bad", Bus: "/dev/i2c-0", Address: 0x50, AddressWidth: 3})
	if !errors.Is(err, hwerr.ErrValidation) {
		t.Errorf("Expected a validation error, got %v", err)
	}
	if f.Opened() != 0 {
		t.Errorf("Expected no bus access, got %d opens", f.Opened())
	}
}

func TestReadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/sys/bus/i2c/devices/11-0054/eeprom"
	if err := afero.WriteFile(fs, path, fullImage(), 0644); err != nil {
		t.Fatal(err)
	}
	buf, err := ReadFile(fs, path, 128)
	if err != nil {
		t.Fatal(err)
	}
	if len(buf) != 128 {
		t.Errorf("Expected 128 bytes, got %d", len(buf))
	}
	b, err := DecodeBoardArea(buf, false)
	if err != nil {
		t.Fatal(err)
	}
	if b.Manufacturer != "Xilinx" {
		t.Errorf("Expected Xilinx, got %q", b.Manufacturer)
	}
	if _, err := ReadFile(fs, "/missing", 128); err == nil {
		t.Errorf("Expected an error for a missing file")
	}
}

func TestList(t *testing.T) {
	f := bustest.New(t)
	sources := []Source{
		{Name: "FMC1", Bus: "/dev/i2c-12", Address: 0x50, AddressWidth: 1},
		{Name: "FMC2", Bus: "/dev/i2c-13", Address: 0x50, AddressWidth: 1},
	}
	f.FailWrite("/dev/i2c-12", 0x50, errNak, 0x00)
	f.ExpectWrite("/dev/i2c-13", 0x50, 0x00)
	f.FakeRead("/dev/i2c-13", 0x50, []byte{0x00}, fullImage())

	got, err := List(f, sources)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Source.Name != "FMC2" || got[0].Manufacturer != "Xilinx" || got[0].ProductName != "VCK190" {
		t.Errorf("Unexpected plugged cards %+v", got)
	}
	f.Done()
}
