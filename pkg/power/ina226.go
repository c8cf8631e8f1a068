// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package power reads INA226 current shunt monitors and sums them into
// power domains.
package power

import (
	"fmt"

	"github.com/u-root/scbmc/pkg/bus"
	"github.com/u-root/scbmc/pkg/hwerr"
	"github.com/u-root/scbmc/pkg/logger"
)

var log = logger.LogContainer.GetSimpleLogger()

const (
	INA226_SHUNT_VOLTAGE = 0x01
	INA226_BUS_VOLTAGE   = 0x02

	shuntMicroVoltsPerBit = 2.5
	busMilliVoltsPerBit   = 1.25
)

type Sensor struct {
	Name    string
	Bus     string
	Address uint16
	// ShuntMicroOhms is the shunt resistor value in µΩ.
	ShuntMicroOhms float64
	// PhaseMultiplier scales the current of a sensor that sees one phase
	// of a multi-phase regulator. Zero means 1.
	PhaseMultiplier float64
}

func (s *Sensor) phases() float64 {
	if s.PhaseMultiplier == 0 {
		return 1
	}
	return s.PhaseMultiplier
}

type Reading struct {
	Volts float64
	Amps  float64
	Watts float64
}

// Domain is a named group of sensors whose powers add up.
type Domain struct {
	Name    string
	Sensors []string
}

// Convert turns raw shunt and bus register words into a reading. Negative
// shunt voltages read as zero current.
func Convert(s *Sensor, shunt, vbus uint16) Reading {
	var uv float64
	if shunt < 0x8000 {
		uv = float64(shunt) * shuntMicroVoltsPerBit
	}
	r := Reading{
		Amps:  uv / s.ShuntMicroOhms * s.phases(),
		Volts: float64(vbus) * busMilliVoltsPerBit / 1000,
	}
	r.Watts = r.Volts * r.Amps
	return r
}

type Controller struct {
	o bus.Opener
}

func NewController(o bus.Opener) *Controller {
	return &Controller{o: o}
}

func readWord(tx bus.Transaction, addr uint16, reg byte) (uint16, error) {
	b, err := bus.ReadReg(tx, addr, reg, 2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

// Read samples the shunt and bus voltage registers of s.
func (c *Controller) Read(s Sensor) (Reading, error) {
	if !(s.ShuntMicroOhms > 0) {
		return Reading{}, &hwerr.ValidationError{Field: s.Name + " shunt", Value: s.ShuntMicroOhms, Msg: "must be positive"}
	}
	var shunt, vbus uint16
	err := bus.Do(c.o, s.Bus, func(tx bus.Transaction) error {
		var err error
		if shunt, err = readWord(tx, s.Address, INA226_SHUNT_VOLTAGE); err != nil {
			return err
		}
		vbus, err = readWord(tx, s.Address, INA226_BUS_VOLTAGE)
		return err
	})
	if err != nil {
		return Reading{}, fmt.Errorf("%s: %w", s.Name, err)
	}
	if shunt >= 0x8000 {
		log.Debugf("%s: ignoring negative shunt voltage 0x%04x", s.Name, shunt)
	}
	return Convert(&s, shunt, vbus), nil
}

// Total reads every sensor of d through lookup and sums their power.
func (c *Controller) Total(d Domain, lookup func(name string) (Sensor, bool)) (float64, error) {
	var total float64
	for _, name := range d.Sensors {
		s, ok := lookup(name)
		if !ok {
			return 0, &hwerr.ValidationError{Field: d.Name, Value: name, Msg: "unknown sensor"}
		}
		r, err := c.Read(s)
		if err != nil {
			return 0, fmt.Errorf("power domain %s: %w", d.Name, err)
		}
		total += r.Watts
	}
	return total, nil
}
