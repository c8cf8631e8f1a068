// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fru

import (
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/u-root/scbmc/pkg/bus"
	"github.com/u-root/scbmc/pkg/cursor"
	"github.com/u-root/scbmc/pkg/hwerr"
)

const DefaultImageSize = 256

// Source describes an EEPROM holding a FRU image.
type Source struct {
	Name    string
	Bus     string
	Address uint16
	// Size is the number of bytes read, DefaultImageSize if zero.
	Size int
	// AddressWidth is the number of offset bytes written before reading,
	// 2 for the on-board EEPROM and 1 for mezzanine cards.
	AddressWidth int
	// PCIe is set when the board area carries PCIe info and a UUID.
	PCIe bool
}

func (s *Source) size() int {
	if s.Size == 0 {
		return DefaultImageSize
	}
	return s.Size
}

// Image is a fully decoded FRU image.
type Image struct {
	Raw         []byte
	Header      CommonHeader
	Board       *BoardArea
	Multirecord []Record
}

// Decode decodes the common header, the board area and the multirecord area.
func Decode(buf []byte, pcie bool) (*Image, error) {
	h, err := DecodeCommonHeader(buf)
	if err != nil {
		return nil, err
	}
	b, err := DecodeBoardArea(buf, pcie)
	if err != nil {
		return nil, fmt.Errorf("board area: %w", err)
	}
	r, err := DecodeMultirecordArea(buf)
	if err != nil {
		return nil, fmt.Errorf("multirecord area: %w", err)
	}
	return &Image{Raw: buf, Header: h, Board: b, Multirecord: r}, nil
}

// Read reads the FRU image of src, starting at EEPROM offset 0.
func Read(o bus.Opener, src Source) ([]byte, error) {
	if src.AddressWidth < 1 || src.AddressWidth > 2 {
		return nil, &hwerr.ValidationError{Field: "address width", Value: src.AddressWidth, Msg: "must be 1 or 2"}
	}
	buf := make([]byte, src.size())
	err := bus.Do(o, src.Bus, func(tx bus.Transaction) error {
		return tx.Read(src.Address, make([]byte, src.AddressWidth), buf)
	})
	if err != nil {
		return nil, fmt.Errorf("reading %s EEPROM: %w", src.Name, err)
	}
	return buf, nil
}

// ReadFile reads up to size bytes of an image from a file such as a sysfs
// eeprom node or a saved dump.
func ReadFile(fs afero.Fs, path string, size int) ([]byte, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf, err := io.ReadAll(io.LimitReader(f, int64(size)))
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Probe reports whether a device answers at src. Mezzanine slots without a
// card fail the single offset write.
func Probe(o bus.Opener, src Source) bool {
	err := bus.Do(o, src.Bus, func(tx bus.Transaction) error {
		return tx.Write(src.Address, make([]byte, src.AddressWidth))
	})
	if err != nil {
		log.Debugf("no device at %s: %v", src.Name, err)
		return false
	}
	return true
}

// Identity returns the manufacturer and product name of the board area
// without decoding the rest of it.
func Identity(buf []byte) (manufacturer, product string, err error) {
	start, err := boardStart(buf)
	if err != nil {
		return "", "", err
	}
	c := cursor.New(buf)
	if err := c.SeekTo(start + 6); err != nil {
		return "", "", wrap(start, "board area", err)
	}
	m, eor, err := field(c, "manufacturer")
	if err != nil || eor {
		return "", "", err
	}
	p, eor, err := field(c, "product name")
	if err != nil || eor {
		return text(m), "", err
	}
	return text(m), text(p), nil
}

// Plugged is a present mezzanine card.
type Plugged struct {
	Source       Source
	Manufacturer string
	ProductName  string
}

// List probes every source and identifies the ones that answer.
func List(o bus.Opener, sources []Source) ([]Plugged, error) {
	var out []Plugged
	for _, s := range sources {
		if !Probe(o, s) {
			continue
		}
		buf, err := Read(o, s)
		if err != nil {
			return nil, err
		}
		m, p, err := Identity(buf)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Name, err)
		}
		out = append(out, Plugged{Source: s, Manufacturer: m, ProductName: p})
	}
	return out, nil
}
