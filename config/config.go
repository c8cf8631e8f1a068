// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"

	"github.com/u-root/scbmc/pkg/fru"
	"github.com/u-root/scbmc/pkg/hwerr"
	"github.com/u-root/scbmc/pkg/ioexp"
	"github.com/u-root/scbmc/pkg/pmbus"
	"github.com/u-root/scbmc/pkg/power"
	"github.com/u-root/scbmc/pkg/spd"
	"github.com/u-root/scbmc/pkg/transceiver"
)

type Bus struct {
	// Retries is the number of attempts per bus operation. Less than 2
	// disables retrying.
	Retries  int           `toml:"retries"`
	RetryMin time.Duration `toml:"retry_min"`
	RetryMax time.Duration `toml:"retry_max"`
}

// Config describes one board. Descriptor tables below the top level use the
// Go field names as keys, matched without regard to case.
type Config struct {
	Board string `toml:"board"`
	Bus   Bus    `toml:"bus"`
	// OnboardEEPROM is read through EEPROMPath when that is set, which is
	// where the at24 driver exposes it once bound.
	OnboardEEPROM fru.Source           `toml:"onboard_eeprom"`
	EEPROMPath    string               `toml:"eeprom_path"`
	FMCs          []fru.Source         `toml:"fmc"`
	// EBM is the optional daughter card EEPROM, unset when Name is empty.
	EBM           fru.Source           `toml:"ebm"`
	Regulators    []pmbus.Regulator    `toml:"regulator"`
	Quirks        pmbus.Quirks         `toml:"quirks"`
	Transceivers  []transceiver.Module `toml:"transceiver"`
	DIMM          spd.Module           `toml:"dimm"`
	PowerSensors  []power.Sensor       `toml:"power_sensor"`
	PowerDomains  []power.Domain       `toml:"power_domain"`
	IOExpander    ioexp.Expander       `toml:"io_expander"`
}

func page(p uint8) *uint8 {
	return &p
}

var DefaultConfig = &Config{
	Board: "VCK190",

	Bus: Bus{Retries: 1, RetryMin: 10 * time.Millisecond, RetryMax: time.Second},

	OnboardEEPROM: fru.Source{Name: "onboard", Bus: "/dev/i2c-11", Address: 0x54, AddressWidth: 2, PCIe: true},

	// Mezzanine cards use single byte EEPROM offsets.
	FMCs: []fru.Source{
		{Name: "FMC1", Bus: "/dev/i2c-14", Address: 0x50, AddressWidth: 1},
		{Name: "FMC2", Bus: "/dev/i2c-15", Address: 0x50, AddressWidth: 1},
	},

	EBM: fru.Source{Name: "EBM", Bus: "/dev/i2c-12", Address: 0x52, AddressWidth: 1},

	Regulators: []pmbus.Regulator{
		{Name: "VCCINT", Bus: "/dev/i2c-3", Address: 0x46, Part: "IRPS5401", PageSelect: page(0), TypicalVolts: 0.8},
		{Name: "VCC_SOC", Bus: "/dev/i2c-3", Address: 0x46, Part: "IRPS5401", PageSelect: page(1), TypicalVolts: 0.8},
		{Name: "VCC_PMC", Bus: "/dev/i2c-3", Address: 0x47, Part: "IRPS5401", PageSelect: page(0), TypicalVolts: 0.78},
		{Name: "VCCO_MIO", Bus: "/dev/i2c-3", Address: 0x47, Part: "IRPS5401", PageSelect: page(3), TypicalVolts: 1.8},
		{
			Name:           "VADJ_FMC",
			Bus:            "/dev/i2c-3",
			Address:        0x42,
			Part:           "IR38164",
			SupportedVolts: []float64{0, 1.2, 1.5},
			TypicalVolts:   1.5,
		},
		{Name: "VCC1V8", Bus: "/dev/i2c-3", Address: 0x13, Part: "IR38164", TypicalVolts: 1.8},
	},

	Quirks: pmbus.DefaultQuirks,

	Transceivers: []transceiver.Module{
		{Name: "SFP0", Bus: "/dev/i2c-20", Address: 0x50, Kind: transceiver.SFP},
		{Name: "SFP1", Bus: "/dev/i2c-21", Address: 0x50, Kind: transceiver.SFP},
		{Name: "QSFP1", Bus: "/dev/i2c-22", Address: 0x50, Kind: transceiver.QSFP},
	},

	DIMM: spd.Module{
		Name:            "DIMM1",
		Bus:             "/dev/i2c-19",
		SPDAddress:      0x51,
		SPDLength:       spd.PrefixSize,
		ThermalAddress:  0x19,
		ThermalRegister: 0x05,
	},

	PowerSensors: []power.Sensor{
		{Name: "VCCINT", Bus: "/dev/i2c-4", Address: 0x40, ShuntMicroOhms: 500, PhaseMultiplier: 6},
		{Name: "VCC_SOC", Bus: "/dev/i2c-4", Address: 0x41, ShuntMicroOhms: 500},
		{Name: "VCC_PMC", Bus: "/dev/i2c-4", Address: 0x42, ShuntMicroOhms: 5000},
		{Name: "VCCO_MIO", Bus: "/dev/i2c-4", Address: 0x45, ShuntMicroOhms: 5000},
		{Name: "VCC1V8", Bus: "/dev/i2c-4", Address: 0x46, ShuntMicroOhms: 5000},
		{Name: "VADJ_FMC", Bus: "/dev/i2c-4", Address: 0x48, ShuntMicroOhms: 2000},
	},

	PowerDomains: []power.Domain{
		{Name: "PL", Sensors: []string{"VCCINT", "VADJ_FMC"}},
		{Name: "PS", Sensors: []string{"VCC_SOC", "VCC_PMC", "VCCO_MIO"}},
		{Name: "AUX", Sensors: []string{"VCC1V8"}},
	},

	IOExpander: ioexp.Expander{
		Name:    "IOEXP",
		Bus:     "/dev/i2c-0",
		Address: 0x20,
		Part:    ioexp.SupportedPart,
		Pins: []ioexp.Pin{
			{Label: "MAX6643_FANFAIL_B", Direction: ioexp.Input},
			{Label: "MAX6643_OT_B", Direction: ioexp.Input},
			{Label: "MAX6643_FULLSPD", Direction: ioexp.Output},
			{Label: "FMCP1_FMC_PRSNT_M2C_B", Direction: ioexp.Input},
			{Label: "FMCP2_FMC_PRSNT_M2C_B", Direction: ioexp.Input},
			{Label: "FMCP1_FMCP_PRSNT_M2C_B", Direction: ioexp.Input},
			{Label: "FMCP2_FMCP_PRSNT_M2C_B", Direction: ioexp.Input},
			{Label: "VCCINT_VRHOT_B", Direction: ioexp.Input},
			{Label: "8A34001_EXP_RST_B", Direction: ioexp.Output},
			{Label: "PMBUS2_INA226_ALERT", Direction: ioexp.Input},
			{Label: "PMBUS_INA226_ALERT", Direction: ioexp.Input},
			{Label: "PMBUS_ALERT", Direction: ioexp.Input},
			{Label: "NC", Direction: ioexp.Unused},
			{Label: "NC", Direction: ioexp.Unused},
			{Label: "NC", Direction: ioexp.Unused},
			{Label: "NC", Direction: ioexp.Unused},
		},
	},
}

// Load reads a TOML board description from path. Top-level keys present in
// the file replace the matching part of DefaultConfig, quirks are added to
// the default quirk table.
func Load(fs afero.Fs, path string) (*Config, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	var raw Config
	meta, err := toml.Decode(string(b), &raw)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if und := meta.Undecoded(); len(und) > 0 {
		return nil, fmt.Errorf("load config %s: unknown keys %v", path, und)
	}

	cfg := *DefaultConfig
	if meta.IsDefined("board") {
		cfg.Board = raw.Board
	}
	if meta.IsDefined("bus") {
		cfg.Bus = raw.Bus
	}
	if meta.IsDefined("onboard_eeprom") {
		cfg.OnboardEEPROM = raw.OnboardEEPROM
	}
	if meta.IsDefined("eeprom_path") {
		cfg.EEPROMPath = raw.EEPROMPath
	}
	if meta.IsDefined("fmc") {
		cfg.FMCs = raw.FMCs
	}
	if meta.IsDefined("ebm") {
		cfg.EBM = raw.EBM
	}
	if meta.IsDefined("regulator") {
		cfg.Regulators = raw.Regulators
	}
	if meta.IsDefined("quirks") {
		q := pmbus.Quirks{}
		for k, v := range DefaultConfig.Quirks {
			q[k] = v
		}
		for k, v := range raw.Quirks {
			q[k] = v
		}
		cfg.Quirks = q
	}
	if meta.IsDefined("transceiver") {
		cfg.Transceivers = raw.Transceivers
	}
	if meta.IsDefined("dimm") {
		cfg.DIMM = raw.DIMM
	}
	if meta.IsDefined("power_sensor") {
		cfg.PowerSensors = raw.PowerSensors
	}
	if meta.IsDefined("power_domain") {
		cfg.PowerDomains = raw.PowerDomains
	}
	if meta.IsDefined("io_expander") {
		cfg.IOExpander = raw.IOExpander
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return &cfg, nil
}

func invalid(field string, value interface{}, msg string) error {
	return &hwerr.ValidationError{Field: field, Value: value, Msg: msg}
}

func unique(kind string, seen map[string]bool, name string) error {
	if name == "" {
		return invalid(kind, `""`, "name is empty")
	}
	if seen[name] {
		return invalid(kind, name, "duplicate name")
	}
	seen[name] = true
	return nil
}

// Validate checks that every target can be found by name and that the
// descriptors are usable.
func (c *Config) Validate() error {
	seen := map[string]bool{}
	eeproms := append([]fru.Source{c.OnboardEEPROM}, c.FMCs...)
	if c.EBM.Name != "" {
		eeproms = append(eeproms, c.EBM)
	}
	for _, s := range eeproms {
		if err := unique("eeprom", seen, s.Name); err != nil {
			return err
		}
		if s.AddressWidth < 1 || s.AddressWidth > 2 {
			return invalid(s.Name+" address width", s.AddressWidth, "must be 1 or 2")
		}
	}

	seen = map[string]bool{}
	for _, r := range c.Regulators {
		if err := unique("regulator", seen, r.Name); err != nil {
			return err
		}
		if len(r.SupportedVolts) == 0 {
			continue
		}
		ok := false
		for _, v := range r.SupportedVolts {
			ok = ok || v == r.TypicalVolts
		}
		if !ok {
			return invalid(r.Name+" typical voltage", r.TypicalVolts, "not among the supported voltages")
		}
	}

	seen = map[string]bool{}
	for _, m := range c.Transceivers {
		if err := unique("transceiver", seen, m.Name); err != nil {
			return err
		}
	}

	seen = map[string]bool{}
	for _, s := range c.PowerSensors {
		if err := unique("power sensor", seen, s.Name); err != nil {
			return err
		}
		if !(s.ShuntMicroOhms > 0) {
			return invalid(s.Name+" shunt", s.ShuntMicroOhms, "must be positive")
		}
	}
	domains := map[string]bool{}
	for _, d := range c.PowerDomains {
		if err := unique("power domain", domains, d.Name); err != nil {
			return err
		}
		for _, s := range d.Sensors {
			if !seen[s] {
				return invalid(d.Name, s, "unknown power sensor")
			}
		}
	}

	if c.IOExpander.Name != "" {
		if err := c.IOExpander.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) Regulator(name string) (pmbus.Regulator, bool) {
	for _, r := range c.Regulators {
		if r.Name == name {
			return r, true
		}
	}
	return pmbus.Regulator{}, false
}

func (c *Config) Transceiver(name string) (transceiver.Module, bool) {
	for _, m := range c.Transceivers {
		if m.Name == name {
			return m, true
		}
	}
	return transceiver.Module{}, false
}

// EEPROM finds the on-board EEPROM, the daughter card or a mezzanine slot
// by name.
func (c *Config) EEPROM(name string) (fru.Source, bool) {
	if c.OnboardEEPROM.Name == name {
		return c.OnboardEEPROM, true
	}
	if c.EBM.Name != "" && c.EBM.Name == name {
		return c.EBM, true
	}
	for _, s := range c.FMCs {
		if s.Name == name {
			return s, true
		}
	}
	return fru.Source{}, false
}

func (c *Config) PowerSensor(name string) (power.Sensor, bool) {
	for _, s := range c.PowerSensors {
		if s.Name == name {
			return s, true
		}
	}
	return power.Sensor{}, false
}

func (c *Config) PowerDomain(name string) (power.Domain, bool) {
	for _, d := range c.PowerDomains {
		if d.Name == name {
			return d, true
		}
	}
	return power.Domain{}, false
}
