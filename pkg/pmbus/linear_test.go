// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pmbus

import (
	"errors"
	"math"
	"testing"

	"github.com/u-root/scbmc/pkg/hwerr"
)

func TestDecodeVoutMode(t *testing.T) {
	exp := ExponentFromMode(0x18)
	if exp != -8 {
		t.Fatalf("Expected exponent -8, got %d", exp)
	}
	if v := Decode(0x64, 0x00, exp); v != 0.390625 {
		t.Errorf("Expected 0.390625 V, got %v", v)
	}
}

func TestDecodeNegative(t *testing.T) {
	if v := Decode(0x00, 0xff, -8); v != -1 {
		t.Errorf("Expected -1 V for mantissa 0xff00, got %v", v)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	for exp := -14; exp <= -1; exp++ {
		for _, w := range []uint16{0, 1, 100, 307, 12345, math.MaxInt16} {
			v := Decode(byte(w), byte(w>>8), exp)
			got, err := Encode(v, exp)
			if err != nil {
				t.Fatalf("Encode(%v, %d): %v", v, exp, err)
			}
			if got != w {
				t.Errorf("Encode(Decode(%#04x, %d)): expected %#04x got %#04x", w, exp, w, got)
			}
		}
	}
}

func TestEncodeRounds(t *testing.T) {
	for _, tt := range []struct {
		volts float64
		exp   int
		want  [2]byte
	}{
		{1.2, -8, [2]byte{0x33, 0x01}},
		{0.85, -12, [2]byte{0x9a, 0x0d}},
		{0.13, -8, [2]byte{0x21, 0x00}},
		{0, -8, [2]byte{0x00, 0x00}},
	} {
		got, err := EncodeBytes(tt.volts, tt.exp)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("EncodeBytes(%v, %d): expected % x got % x", tt.volts, tt.exp, tt.want, got)
		}
		if back := Decode(got[0], got[1], tt.exp); math.Abs(back-tt.volts) > math.Ldexp(1, tt.exp)/2 {
			t.Errorf("%v V decodes back to %v, more than half an LSB away", tt.volts, back)
		}
	}
}

func TestEncodeUnsignedWords(t *testing.T) {
	for _, w := range []uint16{0x8000, 0x8948, math.MaxUint16} {
		got, err := Encode(math.Ldexp(float64(w), -13), -13)
		if err != nil {
			t.Fatalf("Encode word %#04x: %v", w, err)
		}
		if got != w {
			t.Errorf("Expected %#04x got %#04x", w, got)
		}
	}
	// 4.29 V = 35144 * 2^-13
	got, err := EncodeBytes(3.3*1.3, -13)
	if err != nil {
		t.Fatal(err)
	}
	if got != [2]byte{0x48, 0x89} {
		t.Errorf("Expected 48 89, got % x", got)
	}
}

func TestEncodeOutOfRange(t *testing.T) {
	for _, v := range []float64{300, -200, -0.01, math.NaN(), math.Inf(1)} {
		if _, err := Encode(v, -8); !errors.Is(err, hwerr.ErrValidation) {
			t.Errorf("Encode(%v, -8): expected a validation error, got %v", v, err)
		}
	}
}

func TestQuirks(t *testing.T) {
	if exp, ok := DefaultQuirks.Exponent("IR38164"); !ok || exp != -8 {
		t.Errorf("Expected IR38164 to use a fixed -8, got %d (%v)", exp, ok)
	}
	if _, ok := DefaultQuirks.Exponent("IRPS5401"); ok {
		t.Errorf("Expected IRPS5401 to report VOUT_MODE")
	}
	q := Quirks{"X": {NoVoutMode: false, FixedExponent: -3}}
	if _, ok := q.Exponent("X"); ok {
		t.Errorf("A quirk without NoVoutMode must not fix the exponent")
	}
}
