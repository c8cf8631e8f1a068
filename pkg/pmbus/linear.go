// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pmbus reads and sets the output voltage of PMBus regulators.
//
// Voltages travel in the Linear16 format: a 16 bit little-endian mantissa
// with an exponent that the device reports in VOUT_MODE, or that
// is fixed for parts that lack that register.
package pmbus

import (
	"fmt"
	"math"

	"github.com/u-root/scbmc/pkg/hwerr"
)

// Linear16 is a decoded mantissa and exponent pair.
type Linear16 struct {
	Mantissa int16
	Exponent int
}

func (l Linear16) Volts() float64 {
	return math.Ldexp(float64(l.Mantissa), l.Exponent)
}

// Decode converts the little-endian mantissa lo, hi at exponent to volts.
func Decode(lo, hi byte, exponent int) float64 {
	return Linear16{Mantissa: int16(uint16(hi)<<8 | uint16(lo)), Exponent: exponent}.Volts()
}

// Encode returns round(volts / 2^exponent) as the 16 bit register word.
// VOUT_COMMAND and the limit registers hold unsigned words, so the whole
// 0 to 0xFFFF range is accepted and negative voltages are not.
func Encode(volts float64, exponent int) (uint16, error) {
	m := math.Round(math.Ldexp(volts, -exponent))
	if math.IsNaN(m) || m < 0 || m > math.MaxUint16 {
		return 0, &hwerr.ValidationError{
			Field: "voltage",
			Value: volts,
			Msg:   fmt.Sprintf("not representable in Linear16 at exponent %d", exponent),
		}
	}
	return uint16(m), nil
}

// EncodeBytes is Encode split into the little-endian byte pair sent on the
// bus.
func EncodeBytes(volts float64, exponent int) ([2]byte, error) {
	w, err := Encode(volts, exponent)
	if err != nil {
		return [2]byte{}, err
	}
	return [2]byte{byte(w), byte(w >> 8)}, nil
}

// ExponentFromMode converts a VOUT_MODE byte. The register reports the
// exponent biased by 32.
func ExponentFromMode(mode byte) int {
	return int(mode) - 32
}

// DefaultFixedExponent is used for regulators flagged as lacking VOUT_MODE
// that have no entry in the quirk table.
const DefaultFixedExponent = -8

// Quirk describes how a part deviates from standard exponent reporting.
type Quirk struct {
	// NoVoutMode parts do not implement VOUT_MODE and always use
	// FixedExponent.
	NoVoutMode    bool
	FixedExponent int
}

// Quirks is keyed by part name.
type Quirks map[string]Quirk

// DefaultQuirks lists the parts known to need special handling.
var DefaultQuirks = Quirks{
	"IR38164": {NoVoutMode: true, FixedExponent: -8},
}

// Exponent returns the fixed exponent of part, if it has one.
func (q Quirks) Exponent(part string) (exp int, fixed bool) {
	if k, ok := q[part]; ok && k.NoVoutMode {
		return k.FixedExponent, true
	}
	return 0, false
}
