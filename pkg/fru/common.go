// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fru decodes FRU information stored in board and mezzanine
// EEPROMs: the common header, the board info area and the multirecord area.
//
// Decoding is permissive about checksums. Callers that care use
// CommonHeader.Verify and Record.VerifyChecksums.
package fru

import (
	"errors"

	"github.com/u-root/scbmc/pkg/cursor"
	"github.com/u-root/scbmc/pkg/hwerr"
	"github.com/u-root/scbmc/pkg/logger"
)

var log = logger.LogContainer.GetSimpleLogger()

const (
	CommonHeaderSize = 8
	// Area offsets in the common header count in multiples of 8 bytes.
	AreaUnit = 8
)

type CommonHeader struct {
	Version           uint8
	InternalUseOffset uint8
	ChassisInfoOffset uint8
	BoardOffset       uint8
	ProductInfoOffset uint8
	MultirecordOffset uint8
	Pad               uint8
	Checksum          uint8
}

// DecodeCommonHeader decodes the 8 byte header at the start of buf. Every
// area offset must point inside buf.
func DecodeCommonHeader(buf []byte) (CommonHeader, error) {
	var h CommonHeader
	b, err := cursor.New(buf).ReadBytes(CommonHeaderSize)
	if err != nil {
		return h, wrap(0, "common header", err)
	}
	h = CommonHeader{b[0], b[1], b[2], b[3], b[4], b[5], b[6], b[7]}
	for i, off := range b[1:6] {
		if int(off)*AreaUnit > len(buf) {
			return h, hwerr.Format(i+1, "area offset 0x%02x points past the %d byte image", off, len(buf))
		}
	}
	return h, nil
}

// Verify checks the header checksum: all 8 bytes sum to zero.
func (h CommonHeader) Verify() error {
	b := []byte{h.Version, h.InternalUseOffset, h.ChassisInfoOffset, h.BoardOffset,
		h.ProductInfoOffset, h.MultirecordOffset, h.Pad, h.Checksum}
	if s := sum(b); s != 0 {
		return hwerr.Format(7, "common header checksum mismatch, sum 0x%02x", s)
	}
	return nil
}

func sum(b []byte) uint8 {
	var s uint8
	for _, v := range b {
		s += v
	}
	return s
}

// wrap reports a cursor failure while decoding what at offset.
func wrap(offset int, what string, err error) error {
	var fe *hwerr.FormatError
	if errors.As(err, &fe) {
		return err
	}
	return &hwerr.FormatError{Offset: offset, Msg: what, Err: err}
}
