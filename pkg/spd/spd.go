// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package spd decodes the serial presence detect prefix of a DIMM and reads
// its TSE2004 temperature sensor.
package spd

import (
	"fmt"

	"github.com/u-root/scbmc/pkg/bus"
	"github.com/u-root/scbmc/pkg/hwerr"
	"github.com/u-root/scbmc/pkg/logger"
)

var log = logger.LogContainer.GetSimpleLogger()

const (
	// PrefixSize is the part of the SPD that identifies the module.
	PrefixSize = 16

	SPD_BYTES_USED   = 0
	SPD_REVISION     = 1
	SPD_DRAM_TYPE    = 2
	SPD_MODULE_TYPE  = 3
	SPD_DENSITY      = 4
	SPD_THERMAL_SENS = 14

	DRAM_TYPE_DDR4 = 0x0C

	THERMAL_SENSOR_PRESENT = 0x80
)

// Module describes one DIMM. Zero SPDLength reads PrefixSize bytes.
type Module struct {
	Name            string
	Bus             string
	SPDAddress      uint16
	SPDRegister     uint8
	SPDLength       int
	ThermalAddress  uint16
	ThermalRegister uint8
}

type SPD struct {
	BytesUsed  uint8
	Revision   uint8
	DRAMType   uint8
	ModuleType uint8
	// DensityCode is the low nibble of the density byte.
	DensityCode   uint8
	DDR4          bool
	ThermalSensor bool
}

// Size renders the SDRAM density.
func (s *SPD) Size() string {
	switch s.DensityCode {
	case 0:
		return "0"
	case 1:
		return "512 Mb"
	}
	return fmt.Sprintf("%d Gb", 1<<(s.DensityCode-2))
}

func DecodeSPD(buf []byte) (*SPD, error) {
	if len(buf) < PrefixSize {
		return nil, hwerr.Format(len(buf), "SPD prefix is %d bytes, need %d", len(buf), PrefixSize)
	}
	return &SPD{
		BytesUsed:     buf[SPD_BYTES_USED],
		Revision:      buf[SPD_REVISION],
		DRAMType:      buf[SPD_DRAM_TYPE],
		ModuleType:    buf[SPD_MODULE_TYPE] & 0x0F,
		DensityCode:   buf[SPD_DENSITY] & 0x0F,
		DDR4:          buf[SPD_DRAM_TYPE] == DRAM_TYPE_DDR4,
		ThermalSensor: buf[SPD_THERMAL_SENS]&THERMAL_SENSOR_PRESENT != 0,
	}, nil
}

// DecodeTemperature converts the sensor word, high byte first. Bit 12 is
// the sign, bits 11:0 count 1/16 °C and the top three are flags.
func DecodeTemperature(b0, b1 byte) float64 {
	t := int16((uint16(b0)<<8 | uint16(b1)) << 3)
	return 0.125 * float64(t) / 16
}

type Controller struct {
	o bus.Opener
}

func NewController(o bus.Opener) *Controller {
	return &Controller{o: o}
}

func (c *Controller) SPD(m Module) (*SPD, error) {
	n := m.SPDLength
	if n == 0 {
		n = PrefixSize
	}
	var raw []byte
	err := bus.Do(c.o, m.Bus, func(tx bus.Transaction) error {
		var err error
		raw, err = bus.ReadReg(tx, m.SPDAddress, m.SPDRegister, n)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s SPD: %w", m.Name, err)
	}
	s, err := DecodeSPD(raw)
	if err != nil {
		return nil, fmt.Errorf("%s SPD: %w", m.Name, err)
	}
	if !s.DDR4 {
		log.Warnf("%s: DRAM type 0x%02x is not DDR4", m.Name, s.DRAMType)
	}
	return s, nil
}

// Temperature reads the thermal sensor in °C.
func (c *Controller) Temperature(m Module) (float64, error) {
	var t float64
	err := bus.Do(c.o, m.Bus, func(tx bus.Transaction) error {
		b, err := bus.ReadReg(tx, m.ThermalAddress, m.ThermalRegister, 2)
		if err != nil {
			return err
		}
		t = DecodeTemperature(b[0], b[1])
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s temperature: %w", m.Name, err)
	}
	return t, nil
}
