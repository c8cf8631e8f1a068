// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fru

import (
	"net"
	"time"

	"github.com/u-root/scbmc/pkg/cursor"
)

const (
	MAC0Offset = 0x80
	MAC1Offset = 0x86
)

// Summary is the short identity report of the on-board EEPROM.
type Summary struct {
	Language       uint8
	ManufacturedAt time.Time
	Manufacturer   string
	ProductName    string
	SerialNumber   string
	PartNumber     string
	Revision       string
	MAC0           net.HardwareAddr
	MAC1           net.HardwareAddr
}

// DecodeSummary reads the identity fields of the board area, skipping the
// FRU file ID whatever its length, and the two MAC addresses the on-board
// EEPROM keeps at fixed offsets.
func DecodeSummary(buf []byte) (*Summary, error) {
	start, err := boardStart(buf)
	if err != nil {
		return nil, err
	}
	c := cursor.New(buf)
	if err := c.SeekTo(start); err != nil {
		return nil, wrap(start, "board area", err)
	}
	b := &BoardArea{Offset: start}
	if err := boardPrefix(c, b); err != nil {
		return nil, err
	}
	s := &Summary{Language: b.Language, ManufacturedAt: b.ManufacturedAt}

	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"manufacturer", &s.Manufacturer},
		{"product name", &s.ProductName},
		{"serial number", &s.SerialNumber},
		{"part number", &s.PartNumber},
		{"FRU file ID", nil},
		{"revision", &s.Revision},
	} {
		data, eor, err := field(c, f.name)
		if err != nil {
			return nil, err
		}
		if eor {
			break
		}
		if f.dst != nil {
			*f.dst = text(data)
		}
	}

	for _, m := range []struct {
		off int
		dst *net.HardwareAddr
	}{
		{MAC0Offset, &s.MAC0},
		{MAC1Offset, &s.MAC1},
	} {
		if err := c.SeekTo(m.off); err != nil {
			return nil, wrap(m.off, "MAC address", err)
		}
		mac, err := c.ReadBytes(6)
		if err != nil {
			return nil, wrap(m.off, "MAC address", err)
		}
		*m.dst = net.HardwareAddr(mac)
	}
	return s, nil
}
