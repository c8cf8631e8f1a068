// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ioexp drives TCA6416A 16 bit I2C IO expanders.
//
// Registers hold one bit per pin and travel as big-endian words. Pins are
// described from the most significant used bit down, so pin i of n is bit
// n-1-i.
package ioexp

import (
	"fmt"
	"strings"

	"github.com/u-root/scbmc/pkg/bus"
	"github.com/u-root/scbmc/pkg/hwerr"
	"github.com/u-root/scbmc/pkg/logger"
)

var log = logger.LogContainer.GetSimpleLogger()

const (
	TCA6416A_INPUT     = 0x00
	TCA6416A_OUTPUT    = 0x02
	TCA6416A_DIRECTION = 0x06

	// MaxPins is the width of the TCA6416A registers.
	MaxPins = 16
)

// SupportedPart is the only expander the controller drives.
const SupportedPart = "TCA6416A"

type Direction int

const (
	Output Direction = iota
	Input
	// Unused pins are left as inputs.
	Unused
)

func (d Direction) String() string {
	switch d {
	case Output:
		return "output"
	case Input:
		return "input"
	case Unused:
		return "unused"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

func (d *Direction) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "output":
		*d = Output
	case "input":
		*d = Input
	case "unused":
		*d = Unused
	default:
		return fmt.Errorf("unknown pin direction %q", b)
	}
	return nil
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Pin struct {
	Label     string
	Direction Direction
}

type Expander struct {
	Name    string
	Bus     string
	Address uint16
	Part    string
	Pins    []Pin
}

// Validate checks that the controller can drive e.
func (e *Expander) Validate() error {
	if e.Part != SupportedPart {
		return &hwerr.ValidationError{Field: e.Name + " part", Value: e.Part, Msg: "unsupported part, expected " + SupportedPart}
	}
	if len(e.Pins) > MaxPins {
		return &hwerr.ValidationError{Field: e.Name + " pins", Value: len(e.Pins), Msg: fmt.Sprintf("at most %d", MaxPins)}
	}
	return nil
}

func (e *Expander) bit(i int) uint {
	return uint(len(e.Pins) - 1 - i)
}

// DefaultDirections is the direction register value that makes input and
// unused pins inputs and the rest outputs.
func (e *Expander) DefaultDirections() uint16 {
	var v uint16
	for _, p := range e.Pins {
		v <<= 1
		if p.Direction != Output {
			v |= 1
		}
	}
	return v
}

// State is a snapshot of the three registers.
type State struct {
	Input     uint16
	Output    uint16
	Direction uint16
}

type PinValue struct {
	Label string
	Value uint8
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

func writeWord(tx bus.Transaction, addr uint16, reg byte, v uint16) error {
	return bus.WriteReg(tx, addr, reg, byte(v>>8), byte(v))
}

// State reads the input, output and direction registers.
func (c *Controller) State(e Expander) (State, error) {
	if err := e.Validate(); err != nil {
		return State{}, err
	}
	var s State
	err := bus.Do(c.o, e.Bus, func(tx bus.Transaction) error {
		for _, r := range []struct {
			reg byte
			dst *uint16
		}{
			{TCA6416A_INPUT, &s.Input},
			{TCA6416A_OUTPUT, &s.Output},
			{TCA6416A_DIRECTION, &s.Direction},
		} {
			v, err := readWord(tx, e.Address, r.reg)
			if err != nil {
				return err
			}
			*r.dst = v
		}
		return nil
	})
	if err != nil {
		return State{}, fmt.Errorf("%s: %w", e.Name, err)
	}
	return s, nil
}

func (c *Controller) pins(e Expander, reg byte, dir Direction) ([]PinValue, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	var v uint16
	err := bus.Do(c.o, e.Bus, func(tx bus.Transaction) error {
		var err error
		v, err = readWord(tx, e.Address, reg)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name, err)
	}
	var out []PinValue
	for i, p := range e.Pins {
		if p.Direction == dir {
			out = append(out, PinValue{Label: p.Label, Value: uint8(v>>e.bit(i)) & 1})
		}
	}
	return out, nil
}

// Inputs reads the input register and returns the level of every input pin.
func (c *Controller) Inputs(e Expander) ([]PinValue, error) {
	return c.pins(e, TCA6416A_INPUT, Input)
}

// Outputs reads the output register and returns the value driven on every
// output pin.
func (c *Controller) Outputs(e Expander) ([]PinValue, error) {
	return c.pins(e, TCA6416A_OUTPUT, Output)
}

func (c *Controller) write(e Expander, reg byte, v uint16) error {
	if err := e.Validate(); err != nil {
		return err
	}
	err := bus.Do(c.o, e.Bus, func(tx bus.Transaction) error {
		return writeWord(tx, e.Address, reg, v)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", e.Name, err)
	}
	return nil
}

// SetDirection writes the direction register, a set bit makes the pin an
// input.
func (c *Controller) SetDirection(e Expander, v uint16) error {
	return c.write(e, TCA6416A_DIRECTION, v)
}

func (c *Controller) SetOutput(e Expander, v uint16) error {
	return c.write(e, TCA6416A_OUTPUT, v)
}

// Restore programs the directions of the descriptor, then drives every
// output pin low and sets the output latch of every input pin.
func (c *Controller) Restore(e Expander) error {
	if err := e.Validate(); err != nil {
		return err
	}
	dir := e.DefaultDirections()
	log.Infof("%s: restoring direction 0x%04x", e.Name, dir)
	err := bus.Do(c.o, e.Bus, func(tx bus.Transaction) error {
		if err := writeWord(tx, e.Address, TCA6416A_DIRECTION, dir); err != nil {
			return &hwerr.SequenceError{Step: 1, Name: "set direction", Err: err}
		}
		if err := writeWord(tx, e.Address, TCA6416A_OUTPUT, ^dir); err != nil {
			return &hwerr.SequenceError{Step: 2, Name: "set output", Err: err}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", e.Name, err)
	}
	return nil
}
