// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package transceiver reads identity and diagnostics of SFP and QSFP optical
// modules and controls their power mode.
package transceiver

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jmhodges/clock"

	"github.com/u-root/scbmc/pkg/bus"
	"github.com/u-root/scbmc/pkg/hwerr"
	"github.com/u-root/scbmc/pkg/logger"
)

var log = logger.LogContainer.GetSimpleLogger()

type Kind int

const (
	SFP Kind = iota
	QSFP
)

func (k Kind) String() string {
	switch k {
	case SFP:
		return "SFP"
	case QSFP:
		return "QSFP"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k *Kind) UnmarshalText(b []byte) error {
	switch strings.ToUpper(string(b)) {
	case "SFP":
		*k = SFP
	case "QSFP":
		*k = QSFP
	default:
		return fmt.Errorf("unknown transceiver kind %q", b)
	}
	return nil
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// DefaultPowerModeDelay separates the two SFP power mode writes. The
// devices fail back-to-back writes.
const DefaultPowerModeDelay = time.Second

type Module struct {
	Name    string
	Bus     string
	Address uint16
	Kind    Kind
	// PowerModeDelay overrides DefaultPowerModeDelay.
	PowerModeDelay time.Duration
}

func (m *Module) delay() time.Duration {
	if m.PowerModeDelay == 0 {
		return DefaultPowerModeDelay
	}
	return m.PowerModeDelay
}

// Field is a fixed-offset register range. Page 1 selects the diagnostics
// address of an SFP, one above its identity address.
type Field struct {
	Name   string
	Page   uint16
	Offset byte
	Size   int
}

type RegisterMap struct {
	Vendor      Field
	PartNumber  *Field
	Serial      Field
	Temperature Field
	Voltage     Field
	Alarms      []Field
	// PowerMode is read in one transfer and written one register at a time.
	PowerMode          Field
	PowerModeRegisters []byte
	PowerModeOverride  *Field
}

var SFPMap = RegisterMap{
	Vendor:             Field{"vendor", 0, 0x14, 16},
	Serial:             Field{"serial number", 0, 0x44, 16},
	Temperature:        Field{"temperature", 1, 0x60, 2},
	Voltage:            Field{"supply voltage", 1, 0x62, 2},
	Alarms:             []Field{{"alarm", 1, 0x70, 2}},
	PowerMode:          Field{"power mode", 1, 0x80, 2},
	PowerModeRegisters: []byte{0x80, 0x81},
}

var QSFPMap = RegisterMap{
	Vendor:      Field{"vendor", 0, 0x94, 16},
	PartNumber:  &Field{"part number", 0, 0xA8, 16},
	Serial:      Field{"serial number", 0, 0xC4, 16},
	Temperature: Field{"temperature", 0, 0x16, 2},
	Voltage:     Field{"supply voltage", 0, 0x1A, 2},
	Alarms: []Field{
		{"alarms 3-4", 0, 0x03, 2},
		{"alarms 6-7", 0, 0x06, 2},
		{"alarms 9-12", 0, 0x09, 4},
	},
	PowerMode:          Field{"power mode", 0, 0x62, 1},
	PowerModeRegisters: []byte{0x62},
	PowerModeOverride:  &Field{"power mode override", 0, 0x5D, 1},
}

func (k Kind) Map() *RegisterMap {
	if k == QSFP {
		return &QSFPMap
	}
	return &SFPMap
}

// Power mode override values.
const (
	OverrideLPModePin = 0x0
	OverrideHighPower = 0x1
	OverrideLowPower  = 0x3
)

type Alarm struct {
	Name  string
	Value uint32
}

type Info struct {
	Vendor       string
	PartNumber   string
	SerialNumber string
	// Celsius.
	Temperature float64
	// Volts.
	Voltage float64
	Alarms  []Alarm
}

// DecodeTemperature converts the signed big-endian diagnostics word, in
// 1/256 °C.
func DecodeTemperature(hi, lo byte) float64 {
	return float64(int16(uint16(hi)<<8|uint16(lo))) / 256
}

// DecodeVoltage converts the unsigned big-endian supply word, in 100 µV.
func DecodeVoltage(hi, lo byte) float64 {
	return float64(uint16(hi)<<8|uint16(lo)) * 0.0001
}

func ascii(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimRight(string(b), " ")
}

func beUint(b []byte) uint32 {
	var v uint32
	for _, x := range b {
		v = v<<8 | uint32(x)
	}
	return v
}

type Controller struct {
	o   bus.Opener
	clk clock.Clock
}

// NewController returns a controller that waits on clk, or the system clock
// if clk is nil.
func NewController(o bus.Opener, clk clock.Clock) *Controller {
	if clk == nil {
		clk = clock.New()
	}
	return &Controller{o: o, clk: clk}
}

func read(tx bus.Transaction, m *Module, f Field) ([]byte, error) {
	b, err := bus.ReadReg(tx, m.Address+f.Page, f.Offset, f.Size)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", m.Name, f.Name, err)
	}
	return b, nil
}

// Info reads the identity and diagnostics of m.
func (c *Controller) Info(m Module) (*Info, error) {
	rm := m.Kind.Map()
	info := &Info{}
	err := bus.Do(c.o, m.Bus, func(tx bus.Transaction) error {
		for _, s := range []struct {
			f   *Field
			dst *string
		}{
			{&rm.Vendor, &info.Vendor},
			{rm.PartNumber, &info.PartNumber},
			{&rm.Serial, &info.SerialNumber},
		} {
			if s.f == nil {
				continue
			}
			b, err := read(tx, &m, *s.f)
			if err != nil {
				return err
			}
			*s.dst = ascii(b)
		}

		b, err := read(tx, &m, rm.Temperature)
		if err != nil {
			return err
		}
		info.Temperature = DecodeTemperature(b[0], b[1])

		if b, err = read(tx, &m, rm.Voltage); err != nil {
			return err
		}
		info.Voltage = DecodeVoltage(b[0], b[1])

		for _, f := range rm.Alarms {
			b, err := read(tx, &m, f)
			if err != nil {
				return err
			}
			info.Alarms = append(info.Alarms, Alarm{Name: f.Name, Value: beUint(b)})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// PowerMode returns the power mode register. The two SFP registers are
// returned as one big-endian word.
func (c *Controller) PowerMode(m Module) (uint16, error) {
	f := m.Kind.Map().PowerMode
	var v uint16
	err := bus.Do(c.o, m.Bus, func(tx bus.Transaction) error {
		b, err := read(tx, &m, f)
		if err != nil {
			return err
		}
		v = uint16(beUint(b))
		return nil
	})
	return v, err
}

// SetPowerMode writes v to every power mode register of m. SFP registers
// are written with PowerModeDelay between them.
func (c *Controller) SetPowerMode(m Module, v uint) error {
	if v > 0xFF {
		return &hwerr.ValidationError{Field: m.Name + " power mode", Value: fmt.Sprintf("0x%x", v), Msg: "must fit in one byte"}
	}
	rm := m.Kind.Map()
	addr := m.Address + rm.PowerMode.Page
	return bus.Do(c.o, m.Bus, func(tx bus.Transaction) error {
		log.Infof("%s: setting power mode to 0x%02x", m.Name, v)
		for i, reg := range rm.PowerModeRegisters {
			if i > 0 {
				c.clk.Sleep(m.delay())
			}
			if err := bus.WriteReg(tx, addr, reg, byte(v)); err != nil {
				if i == 0 {
					return err
				}
				return &hwerr.SequenceError{Step: i + 1, Name: fmt.Sprintf("power mode register 0x%02x", reg), Err: err}
			}
		}
		return nil
	})
}

func overrideField(m *Module) (*Field, error) {
	f := m.Kind.Map().PowerModeOverride
	if f == nil {
		return nil, &hwerr.ValidationError{Field: m.Name, Value: m.Kind, Msg: "has no power mode override"}
	}
	return f, nil
}

// PowerModeOverride reads the QSFP low power mode override register.
func (c *Controller) PowerModeOverride(m Module) (byte, error) {
	f, err := overrideField(&m)
	if err != nil {
		return 0, err
	}
	var v byte
	err = bus.Do(c.o, m.Bus, func(tx bus.Transaction) error {
		b, err := read(tx, &m, *f)
		if err != nil {
			return err
		}
		v = b[0]
		return nil
	})
	return v, err
}

// SetPowerModeOverride accepts OverrideLPModePin, OverrideHighPower and
// OverrideLowPower.
func (c *Controller) SetPowerModeOverride(m Module, v uint) error {
	f, err := overrideField(&m)
	if err != nil {
		return err
	}
	switch v {
	case OverrideLPModePin, OverrideHighPower, OverrideLowPower:
	default:
		return &hwerr.ValidationError{Field: m.Name + " power mode override", Value: fmt.Sprintf("0x%x", v), Msg: "valid values are 0x0, 0x1 and 0x3"}
	}
	return bus.Do(c.o, m.Bus, func(tx bus.Transaction) error {
		log.Infof("%s: setting power mode override to 0x%x", m.Name, v)
		return bus.WriteReg(tx, m.Address+f.Page, f.Offset, byte(v))
	})
}
