// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fru

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/u-root/scbmc/pkg/cursor"
	"github.com/u-root/scbmc/pkg/hwerr"
)

const (
	// DefaultBoardOffset is used when the header does not name a board area.
	DefaultBoardOffset = 0x08
	EndOfRecord        = 0xC1
	UUIDSize           = 16

	lengthMask = 0x3F
)

// Epoch of the board area manufacturing date.
var Epoch = time.Date(1996, time.January, 1, 0, 0, 0, 0, time.UTC)

type BoardArea struct {
	// Offset of the area in the image.
	Offset         int
	Version        uint8
	Length         uint8
	Language       uint8
	ManufacturedAt time.Time
	Manufacturer   string
	ProductName    string
	SerialNumber   string
	PartNumber     string
	// FRUFileID holds the raw field. A one byte ID is a number, longer IDs
	// are text and end the area.
	FRUFileID []byte
	Revision  string
	PCIeInfo  string
	UUID      string
	// EndOffset is the position of the End-of-Record marker.
	EndOffset int
}

func (b *BoardArea) FRUFileIDString() string {
	if len(b.FRUFileID) == 1 {
		return fmt.Sprintf("%02x", b.FRUFileID[0])
	}
	return text(b.FRUFileID)
}

// ManufacturingDate converts the 3 byte little-endian minute count of the
// board area.
func ManufacturingDate(minutes uint32) time.Time {
	return Epoch.Add(time.Duration(minutes) * time.Minute)
}

// text cuts a field at the first NUL.
func text(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// field reads one Type-Length field. eor is set when the lead byte is the
// End-of-Record marker, in which case nothing else is consumed.
func field(c *cursor.Cursor, name string) (data []byte, eor bool, err error) {
	off := c.Offset()
	lead, err := c.ReadByte()
	if err != nil {
		return nil, false, wrap(off, name, err)
	}
	if lead == EndOfRecord {
		return nil, true, nil
	}
	data, err = c.ReadBytes(int(lead & lengthMask))
	if err != nil {
		return nil, false, wrap(off, name, err)
	}
	return data, false, nil
}

func boardStart(buf []byte) (int, error) {
	h, err := DecodeCommonHeader(buf)
	if err != nil {
		return 0, err
	}
	if h.BoardOffset == 0 {
		return DefaultBoardOffset, nil
	}
	return int(h.BoardOffset) * AreaUnit, nil
}

// boardPrefix reads version, length, language and the manufacturing date.
func boardPrefix(c *cursor.Cursor, b *BoardArea) error {
	pre, err := c.ReadBytes(3)
	if err != nil {
		return wrap(b.Offset, "board area header", err)
	}
	b.Version, b.Length, b.Language = pre[0], pre[1], pre[2]
	minutes, err := c.ReadUint24LE()
	if err != nil {
		return wrap(b.Offset+3, "manufacturing date", err)
	}
	b.ManufacturedAt = ManufacturingDate(minutes)
	return nil
}

// DecodeBoardArea walks the board info area. When pcie is set the area
// carries PCIe info and a UUID after the revision.
func DecodeBoardArea(buf []byte, pcie bool) (*BoardArea, error) {
	start, err := boardStart(buf)
	if err != nil {
		return nil, err
	}
	b := &BoardArea{Offset: start}
	c := cursor.New(buf)
	if err := c.SeekTo(start); err != nil {
		return nil, wrap(start, "board area", err)
	}
	if err := boardPrefix(c, b); err != nil {
		return nil, err
	}

	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"manufacturer", &b.Manufacturer},
		{"product name", &b.ProductName},
		{"serial number", &b.SerialNumber},
		{"part number", &b.PartNumber},
	} {
		data, eor, err := field(c, f.name)
		if err != nil {
			return nil, err
		}
		if eor {
			b.EndOffset = c.Offset() - 1
			return b, nil
		}
		*f.dst = text(data)
	}

	id, eor, err := field(c, "FRU file ID")
	if err != nil {
		return nil, err
	}
	if eor {
		b.EndOffset = c.Offset() - 1
		return b, nil
	}
	b.FRUFileID = id
	if len(id) != 1 {
		// A text file ID is the last field.
		if err := endOfRecord(c, b); err != nil {
			return nil, err
		}
		return b, nil
	}

	rev, eor, err := field(c, "revision")
	if err != nil {
		return nil, err
	}
	if eor {
		b.EndOffset = c.Offset() - 1
		return b, nil
	}
	b.Revision = text(rev)

	if pcie {
		info, eor, err := field(c, "PCIe info")
		if err != nil {
			return nil, err
		}
		if eor {
			b.EndOffset = c.Offset() - 1
			return b, nil
		}
		b.PCIeInfo = fmt.Sprintf("%x", info)

		off := c.Offset()
		uuid, eor, err := field(c, "UUID")
		if err != nil {
			return nil, err
		}
		if eor {
			b.EndOffset = c.Offset() - 1
			return b, nil
		}
		if len(uuid) != UUIDSize {
			return nil, hwerr.Format(off, "UUID is %d bytes, expected %d", len(uuid), UUIDSize)
		}
		b.UUID = FormatUUID(uuid)
	}

	if err := endOfRecord(c, b); err != nil {
		return nil, err
	}
	return b, nil
}

func endOfRecord(c *cursor.Cursor, b *BoardArea) error {
	off := c.Offset()
	lead, err := c.ReadByte()
	if err != nil {
		return wrap(off, "missing end-of-record", err)
	}
	if lead != EndOfRecord {
		return hwerr.Format(off, "missing end-of-record, found 0x%02x", lead)
	}
	b.EndOffset = off
	return nil
}

// FormatUUID renders 16 bytes as xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx.
func FormatUUID(u []byte) string {
	var sb strings.Builder
	for i, v := range u {
		fmt.Fprintf(&sb, "%02x", v)
		if i == 3 || i == 5 || i == 7 || i == 9 {
			sb.WriteByte('-')
		}
	}
	return sb.String()
}
