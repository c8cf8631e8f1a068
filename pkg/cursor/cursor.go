// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cursor provides a bounds-checked sequential reader over a byte
// buffer read from an EEPROM or register map.
//
// Every length that drives a Cursor comes from the device, so nothing is
// trusted: an access that does not fit in the buffer fails with
// ErrOutOfBounds and leaves the position untouched.
package cursor

import (
	"errors"
	"fmt"
)

var ErrOutOfBounds = errors.New("out of bounds")

type OutOfBoundsError struct {
	Offset int
	Size   int
	Len    int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("read of %d bytes at offset 0x%02x exceeds buffer length 0x%02x", e.Size, e.Offset, e.Len)
}

func (e *OutOfBoundsError) Is(target error) bool {
	return target == ErrOutOfBounds
}

type Cursor struct {
	buf []byte
	off int
}

func New(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

func (c *Cursor) check(off, n int) error {
	if n < 0 || off < 0 || off > len(c.buf) || n > len(c.buf)-off {
		return &OutOfBoundsError{Offset: off, Size: n, Len: len(c.buf)}
	}
	return nil
}

// Offset returns the current read position.
func (c *Cursor) Offset() int {
	return c.off
}

// Len returns the length of the underlying buffer.
func (c *Cursor) Len() int {
	return len(c.buf)
}

// Remaining returns the number of bytes between the position and the end.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.off
}

func (c *Cursor) PeekByte() (byte, error) {
	if err := c.check(c.off, 1); err != nil {
		return 0, err
	}
	return c.buf[c.off], nil
}

func (c *Cursor) ReadByte() (byte, error) {
	b, err := c.PeekByte()
	if err != nil {
		return 0, err
	}
	c.off++
	return b, nil
}

// ReadBytes returns a copy of the next n bytes.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if err := c.check(c.off, n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, c.buf[c.off:c.off+n])
	c.off += n
	return b, nil
}

func (c *Cursor) Skip(n int) error {
	if err := c.check(c.off, n); err != nil {
		return err
	}
	c.off += n
	return nil
}

// SeekTo moves to an absolute offset. Seeking to Len() is allowed, any read
// from there fails.
func (c *Cursor) SeekTo(off int) error {
	if err := c.check(off, 0); err != nil {
		return err
	}
	c.off = off
	return nil
}

func (c *Cursor) ReadUint16LE() (uint16, error) {
	b, err := c.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

func (c *Cursor) ReadUint16BE() (uint16, error) {
	b, err := c.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

func (c *Cursor) ReadUint24LE() (uint32, error) {
	b, err := c.ReadBytes(3)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16, nil
}

// ReadCString reads up to and including the next NUL and returns the bytes
// before it. A string running to the end of the buffer without a NUL is
// returned as is.
func (c *Cursor) ReadCString() (string, error) {
	if err := c.check(c.off, 0); err != nil {
		return "", err
	}
	for i := c.off; i < len(c.buf); i++ {
		if c.buf[i] == 0 {
			s := string(c.buf[c.off:i])
			c.off = i + 1
			return s, nil
		}
	}
	s := string(c.buf[c.off:])
	c.off = len(c.buf)
	return s, nil
}
