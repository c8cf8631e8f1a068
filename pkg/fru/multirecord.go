// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fru

import (
	"fmt"
	"net"

	"github.com/u-root/scbmc/pkg/cursor"
	"github.com/u-root/scbmc/pkg/hwerr"
)

type RecordType uint8

const (
	DCOutputRecord RecordType = 0x01
	DCLoadRecord   RecordType = 0x02
	MACIDRecord    RecordType = 0xD2
	MemoryRecord   RecordType = 0xD3
	VITA571Record  RecordType = 0xFA
)

const (
	RecordHeaderSize = 5
	// Some early boards have a wrong multirecord offset programmed in the
	// common header. Their multirecord area is always found here.
	ErratumMultirecordOffset = 0x68

	lastRecord = 0x80

	MACIDSingle = 0x11
	MACIDDual   = 0x31

	// DC Load output numbers up to this value are power rails. Output 0
	// is the adjustable voltage.
	maxRailOutput = 0x0F
)

func (t RecordType) String() string {
	switch t {
	case DCOutputRecord:
		return "DC Output"
	case DCLoadRecord:
		return "DC Load"
	case MACIDRecord:
		return "MAC ID"
	case MemoryRecord:
		return "Memory"
	case VITA571Record:
		return "VITA 57.1"
	}
	return fmt.Sprintf("unknown (0x%02x)", uint8(t))
}

func (t RecordType) known() bool {
	switch t {
	case DCOutputRecord, DCLoadRecord, MACIDRecord, MemoryRecord, VITA571Record:
		return true
	}
	return false
}

// Record is one multirecord entry. Exactly one of the typed bodies is set,
// selected by Type. DCOutput holds the body of both DC Output and DC Load
// records.
type Record struct {
	Offset         int
	Type           RecordType
	Format         uint8
	Length         uint8
	RecordChecksum uint8
	HeaderChecksum uint8
	Payload        []byte

	DC      *DCOutput
	MACID   *MACID
	Memory  *Memory
	VITA571 *VITA571
}

func (r *Record) Last() bool {
	return r.Format&lastRecord != 0
}

// VerifyChecksums checks the header checksum over the 5 header bytes and
// the record checksum over the payload.
func (r *Record) VerifyChecksums() error {
	h := []byte{uint8(r.Type), r.Format, r.Length, r.RecordChecksum, r.HeaderChecksum}
	if s := sum(h); s != 0 {
		return hwerr.Format(r.Offset+4, "%s record header checksum mismatch, sum 0x%02x", r.Type, s)
	}
	if s := sum(r.Payload) + r.RecordChecksum; s != 0 {
		return hwerr.Format(r.Offset+3, "%s record checksum mismatch, sum 0x%02x", r.Type, s)
	}
	return nil
}

type DCOutput struct {
	OutputNumber uint8
	// Volts.
	Nominal float64
	Min     float64
	Max     float64
	// RippleNoise is in mV, the currents in mA.
	RippleNoise uint16
	MinCurrent  uint16
	MaxCurrent  uint16
}

// VoltageAdjust reports whether a DC Load record describes the adjustable
// voltage rather than a fixed rail.
func (d *DCOutput) VoltageAdjust() bool {
	return d.OutputNumber == 0
}

type MACID struct {
	// IANA is the numeric enterprise number. The image stores it least
	// significant byte first, so Xilinx (0x0010da) is stored as da 10 00.
	IANA    uint32
	Version uint8
	MACs    []net.HardwareAddr
}

type Memory struct {
	// IANA is numeric, as in MACID.
	IANA          uint32
	MemoryType    string
	VoltageSupply string
}

type VITA571 struct {
	// OUI is numeric, decoded from its least significant byte first.
	OUI            uint32
	SubtypeVersion uint8
	ConnectorType  uint8
	P1BankA        uint8
	P1BankB        uint8
	P2BankA        uint8
	P2BankB        uint8
	P1GBT          uint8
	MaxTCKMHz      uint8
}

// DecodeMultirecordArea decodes every entry of the multirecord area up to
// and including the one flagged as last. An image whose header has no
// multirecord area yields no records.
func DecodeMultirecordArea(buf []byte) ([]Record, error) {
	h, err := DecodeCommonHeader(buf)
	if err != nil {
		return nil, err
	}
	if h.MultirecordOffset == 0 {
		return nil, nil
	}
	start := int(h.MultirecordOffset) * AreaUnit
	c := cursor.New(buf)
	if err := c.SeekTo(start); err != nil {
		return nil, wrap(start, "multirecord area", err)
	}
	if t, err := c.PeekByte(); err != nil || !RecordType(t).known() {
		log.Debugf("no multirecord entry at 0x%02x, using 0x%02x", start, ErratumMultirecordOffset)
		if err := c.SeekTo(ErratumMultirecordOffset); err != nil {
			return nil, wrap(ErratumMultirecordOffset, "multirecord area", err)
		}
	}

	var records []Record
	for {
		r, err := decodeRecord(c)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
		if r.Last() {
			return records, nil
		}
	}
}

func decodeRecord(c *cursor.Cursor) (*Record, error) {
	off := c.Offset()
	h, err := c.ReadBytes(RecordHeaderSize)
	if err != nil {
		return nil, wrap(off, "multirecord header", err)
	}
	r := &Record{
		Offset:         off,
		Type:           RecordType(h[0]),
		Format:         h[1],
		Length:         h[2],
		RecordChecksum: h[3],
		HeaderChecksum: h[4],
	}
	if !r.Type.known() {
		return nil, hwerr.Format(off, "unsupported multirecord type 0x%02x", h[0])
	}
	if r.Payload, err = c.ReadBytes(int(r.Length)); err != nil {
		return nil, wrap(off+RecordHeaderSize, fmt.Sprintf("%s record payload", r.Type), err)
	}

	p := cursor.New(r.Payload)
	base := off + RecordHeaderSize
	switch r.Type {
	case DCOutputRecord, DCLoadRecord:
		r.DC, err = decodeDC(p)
		if err == nil && r.Type == DCLoadRecord && r.DC.OutputNumber > maxRailOutput {
			return nil, hwerr.Format(base, "unsupported DC Load output number 0x%02x", r.DC.OutputNumber)
		}
	case MACIDRecord:
		r.MACID, err = decodeMACID(p, base)
	case MemoryRecord:
		r.Memory, err = decodeMemory(p)
	case VITA571Record:
		r.VITA571, err = decodeVITA(p)
	}
	if err != nil {
		return nil, wrap(base+p.Offset(), fmt.Sprintf("%s record", r.Type), err)
	}
	return r, nil
}

func centivolts(c *cursor.Cursor) (float64, error) {
	v, err := c.ReadUint16LE()
	return float64(v) / 100, err
}

func decodeDC(c *cursor.Cursor) (*DCOutput, error) {
	var d DCOutput
	var err error
	if d.OutputNumber, err = c.ReadByte(); err != nil {
		return nil, err
	}
	for _, v := range []*float64{&d.Nominal, &d.Min, &d.Max} {
		if *v, err = centivolts(c); err != nil {
			return nil, err
		}
	}
	for _, v := range []*uint16{&d.RippleNoise, &d.MinCurrent, &d.MaxCurrent} {
		if *v, err = c.ReadUint16LE(); err != nil {
			return nil, err
		}
	}
	return &d, nil
}

func decodeMACID(c *cursor.Cursor, base int) (*MACID, error) {
	var m MACID
	var err error
	if m.IANA, err = c.ReadUint24LE(); err != nil {
		return nil, err
	}
	if m.Version, err = c.ReadByte(); err != nil {
		return nil, err
	}
	n := 0
	switch m.Version {
	case MACIDSingle:
		n = 1
	case MACIDDual:
		n = 2
	default:
		return nil, hwerr.Format(base+3, "unsupported MAC ID version 0x%02x", m.Version)
	}
	for i := 0; i < n; i++ {
		b, err := c.ReadBytes(6)
		if err != nil {
			return nil, err
		}
		m.MACs = append(m.MACs, net.HardwareAddr(b))
	}
	return &m, nil
}

func decodeMemory(c *cursor.Cursor) (*Memory, error) {
	var m Memory
	var err error
	if m.IANA, err = c.ReadUint24LE(); err != nil {
		return nil, err
	}
	if m.MemoryType, err = c.ReadCString(); err != nil {
		return nil, err
	}
	if m.VoltageSupply, err = c.ReadCString(); err != nil {
		return nil, err
	}
	return &m, nil
}

func decodeVITA(c *cursor.Cursor) (*VITA571, error) {
	var v VITA571
	var err error
	if v.OUI, err = c.ReadUint24LE(); err != nil {
		return nil, err
	}
	b, err := c.ReadBytes(8)
	if err != nil {
		return nil, err
	}
	v.SubtypeVersion, v.ConnectorType = b[0], b[1]
	v.P1BankA, v.P1BankB, v.P2BankA, v.P2BankB = b[2], b[3], b[4], b[5]
	v.P1GBT, v.MaxTCKMHz = b[6], b[7]
	return &v, nil
}

// VadjRange returns the limits of the adjustable voltage, taken from the
// DC Load record for output 0. ok is false when there is no such record.
func VadjRange(records []Record) (min, max float64, ok bool) {
	for i := range records {
		r := &records[i]
		if r.Type == DCLoadRecord && r.DC != nil && r.DC.VoltageAdjust() {
			return r.DC.Min, r.DC.Max, true
		}
	}
	return 0, 0, false
}
