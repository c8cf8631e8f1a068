// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pmbus

import (
	"fmt"
	"math"

	"github.com/u-root/scbmc/pkg/bus"
	"github.com/u-root/scbmc/pkg/hwerr"
	"github.com/u-root/scbmc/pkg/logger"
)

var log = logger.LogContainer.GetSimpleLogger()

const (
	PMBUS_PAGE                = 0x00
	PMBUS_OPERATION           = 0x01
	PMBUS_VOUT_MODE           = 0x20
	PMBUS_VOUT_COMMAND        = 0x21
	PMBUS_VOUT_OV_FAULT_LIMIT = 0x40
	PMBUS_VOUT_OV_WARN_LIMIT  = 0x42
	PMBUS_VOUT_UV_WARN_LIMIT  = 0x43
	PMBUS_VOUT_UV_FAULT_LIMIT = 0x44
	PMBUS_READ_VOUT           = 0x8B

	OPERATION_OFF = 0x00
	OPERATION_ON  = 0x80

	// The over-voltage limits are set this far above the new output.
	overVoltageMargin = 1.3
	// Floor of the base the over-voltage limits are computed from, so
	// that turning an output to 0 V leaves non-zero limits.
	minOverVoltageBase = 0.1

	voutModeFormatMask = 0xE0
)

// Regulator describes one PMBus regulator output.
type Regulator struct {
	Name    string
	Bus     string
	Address uint16
	Part    string
	// PageSelect is written to PAGE before any other access, nil for
	// single output parts.
	PageSelect *uint8
	// NoVoutMode marks a part without VOUT_MODE that has no quirk entry.
	NoVoutMode bool
	// SupportedVolts restricts SetVoltage to exactly these values. Empty
	// means any representable voltage is accepted.
	SupportedVolts []float64
	TypicalVolts   float64
}

func (r *Regulator) supports(v float64) bool {
	if len(r.SupportedVolts) == 0 {
		return true
	}
	for _, s := range r.SupportedVolts {
		if s == v {
			return true
		}
	}
	return false
}

type Controller struct {
	o      bus.Opener
	quirks Quirks
}

// NewController returns a controller using q to resolve exponents, or
// DefaultQuirks if q is nil.
func NewController(o bus.Opener, q Quirks) *Controller {
	if q == nil {
		q = DefaultQuirks
	}
	return &Controller{o: o, quirks: q}
}

func (c *Controller) selectPage(tx bus.Transaction, r *Regulator) error {
	if r.PageSelect == nil {
		return nil
	}
	return bus.WriteReg(tx, r.Address, PMBUS_PAGE, *r.PageSelect)
}

func (c *Controller) exponent(tx bus.Transaction, r *Regulator) (int, error) {
	if exp, ok := c.quirks.Exponent(r.Part); ok {
		return exp, nil
	}
	if r.NoVoutMode {
		return DefaultFixedExponent, nil
	}
	b, err := bus.ReadReg(tx, r.Address, PMBUS_VOUT_MODE, 1)
	if err != nil {
		return 0, err
	}
	if b[0]&voutModeFormatMask != 0 {
		return 0, hwerr.Format(PMBUS_VOUT_MODE, "%s reports non-linear VOUT_MODE 0x%02x", r.Name, b[0])
	}
	return ExponentFromMode(b[0]), nil
}

// GetVoltage reads the output voltage of r.
func (c *Controller) GetVoltage(r Regulator) (float64, error) {
	var v float64
	err := bus.Do(c.o, r.Bus, func(tx bus.Transaction) error {
		if err := c.selectPage(tx, &r); err != nil {
			return err
		}
		exp, err := c.exponent(tx, &r)
		if err != nil {
			return err
		}
		b, err := bus.ReadReg(tx, r.Address, PMBUS_READ_VOUT, 2)
		if err != nil {
			return err
		}
		v = Decode(b[0], b[1], exp)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", r.Name, err)
	}
	return v, nil
}

type step struct {
	n    int
	name string
	reg  byte
	data []byte
}

// SetVoltage changes the output of r to target. The output is turned off,
// the under-voltage limits cleared, the over-voltage limits moved above the
// target, the target programmed and the output turned back on, in that
// order. A failure part way returns a *hwerr.SequenceError and leaves the
// output in the state of the last step that succeeded.
//
// Nothing is written when target is rejected.
func (c *Controller) SetVoltage(r Regulator, target float64) error {
	if math.IsNaN(target) || math.IsInf(target, 0) || target < 0 {
		return &hwerr.ValidationError{Field: r.Name, Value: target, Msg: "not a valid output voltage"}
	}
	if !r.supports(target) {
		return &hwerr.ValidationError{
			Field: r.Name,
			Value: target,
			Msg:   fmt.Sprintf("unsupported voltage, supported are %v", r.SupportedVolts),
		}
	}

	err := bus.Do(c.o, r.Bus, func(tx bus.Transaction) error {
		if err := c.selectPage(tx, &r); err != nil {
			return err
		}
		exp, err := c.exponent(tx, &r)
		if err != nil {
			return err
		}
		ov, err := EncodeBytes(math.Max(target, minOverVoltageBase)*overVoltageMargin, exp)
		if err != nil {
			return err
		}
		cmd, err := EncodeBytes(target, exp)
		if err != nil {
			return err
		}

		log.Infof("%s: setting output to %v V (exponent %d)", r.Name, target, exp)
		for _, s := range []step{
			{1, "disable output", PMBUS_OPERATION, []byte{OPERATION_OFF}},
			{2, "clear UV fault limit", PMBUS_VOUT_UV_FAULT_LIMIT, []byte{0x00, 0x00}},
			{2, "clear UV warn limit", PMBUS_VOUT_UV_WARN_LIMIT, []byte{0x00, 0x00}},
			{3, "set OV fault limit", PMBUS_VOUT_OV_FAULT_LIMIT, ov[:]},
			{3, "set OV warn limit", PMBUS_VOUT_OV_WARN_LIMIT, ov[:]},
			{4, "set VOUT_COMMAND", PMBUS_VOUT_COMMAND, cmd[:]},
			{5, "enable output", PMBUS_OPERATION, []byte{OPERATION_ON}},
		} {
			if err := bus.WriteReg(tx, r.Address, s.reg, s.data...); err != nil {
				log.Errorf("%s: %s failed, output may be left mid-transition", r.Name, s.name)
				return &hwerr.SequenceError{Step: s.n, Name: s.name, Err: err}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", r.Name, err)
	}
	return nil
}

// RestoreDefault sets r back to its typical voltage.
func (c *Controller) RestoreDefault(r Regulator) error {
	return c.SetVoltage(r, r.TypicalVolts)
}
