// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cursor

import (
	"errors"
	"testing"
)

func TestSequentialReads(t *testing.T) {
	c := New([]byte{0x01, 0x34, 0x12, 0xaa, 0xbb, 0xcc, 0x12, 0x34})
	b, err := c.ReadByte()
	if err != nil || b != 0x01 {
		t.Fatalf("ReadByte: expected 0x01, got %#x (%v)", b, err)
	}
	v, err := c.ReadUint16LE()
	if err != nil || v != 0x1234 {
		t.Fatalf("ReadUint16LE: expected 0x1234, got %#x (%v)", v, err)
	}
	w, err := c.ReadUint24LE()
	if err != nil || w != 0xccbbaa {
		t.Fatalf("ReadUint24LE: expected 0xccbbaa, got %#x (%v)", w, err)
	}
	be, err := c.ReadUint16BE()
	if err != nil || be != 0x1234 {
		t.Fatalf("ReadUint16BE: expected 0x1234, got %#x (%v)", be, err)
	}
	if c.Remaining() != 0 {
		t.Errorf("Expected no remaining bytes, got %d", c.Remaining())
	}
}

func TestOutOfBounds(t *testing.T) {
	buf := make([]byte, 4)
	c := New(buf[:2])

	if _, err := c.ReadBytes(3); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("ReadBytes(3) on 2 bytes: expected ErrOutOfBounds, got %v", err)
	}
	if c.Offset() != 0 {
		t.Errorf("Failed read moved the cursor to %d", c.Offset())
	}
	if err := c.SeekTo(3); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("SeekTo(3): expected ErrOutOfBounds, got %v", err)
	}
	if err := c.SeekTo(2); err != nil {
		t.Fatalf("SeekTo(len) should be allowed: %v", err)
	}
	if _, err := c.PeekByte(); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("PeekByte at end: expected ErrOutOfBounds, got %v", err)
	}
	if _, err := c.ReadByte(); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("ReadByte at end: expected ErrOutOfBounds, got %v", err)
	}
	if err := c.SeekTo(-1); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("SeekTo(-1): expected ErrOutOfBounds, got %v", err)
	}
	if _, err := c.ReadBytes(-1); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("ReadBytes(-1): expected ErrOutOfBounds, got %v", err)
	}

	var oob *OutOfBoundsError
	_, err := New(nil).ReadByte()
	if !errors.As(err, &oob) || oob.Len != 0 || oob.Size != 1 {
		t.Errorf("Expected OutOfBoundsError{Size: 1, Len: 0}, got %#v", err)
	}
}

func TestReadBytesCopies(t *testing.T) {
	buf := []byte{1, 2, 3}
	c := New(buf)
	b, err := c.ReadBytes(3)
	if err != nil {
		t.Fatal(err)
	}
	b[0] = 0xff
	if buf[0] != 1 {
		t.Errorf("ReadBytes returned an alias of the buffer")
	}
}

func TestReadCString(t *testing.T) {
	c := New([]byte("DDR4\x001.2V"))
	s, err := c.ReadCString()
	if err != nil || s != "DDR4" {
		t.Fatalf("expected DDR4, got %q (%v)", s, err)
	}
	s, err = c.ReadCString()
	if err != nil || s != "1.2V" {
		t.Fatalf("expected unterminated 1.2V, got %q (%v)", s, err)
	}
	s, err = c.ReadCString()
	if err != nil || s != "" {
		t.Errorf("expected empty string at end, got %q (%v)", s, err)
	}
}
