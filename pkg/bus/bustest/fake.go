// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bustest provides a scripted bus.Opener for tests.
package bustest

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/u-root/scbmc/pkg/bus"
)

var ErrUnscripted = errors.New("unscripted bus operation")

type op struct {
	write bool
	bus   string
	addr  uint16
	out   []byte
	in    []byte
	err   error
}

func opstr(o *op) string {
	if o.write {
		return fmt.Sprintf("{write %s@0x%02x % x}", o.bus, o.addr, o.out)
	}
	return fmt.Sprintf("{read %s@0x%02x % x -> %d bytes}", o.bus, o.addr, o.out, len(o.in))
}

// Fake replays a queue of expected operations. Every Read and Write is
// matched against the head of the queue and reported through t on mismatch.
type Fake struct {
	t   testing.TB
	ops []op

	// OpenErr and CloseErr are returned by every Open and Close.
	OpenErr  error
	CloseErr error

	opened int
	closed int
	writes int
	reads  int
}

func New(t testing.TB) *Fake {
	return &Fake{t: t}
}

func (f *Fake) ExpectWrite(bus string, addr uint16, out ...byte) {
	f.ops = append(f.ops, op{write: true, bus: bus, addr: addr, out: out})
}

// FailWrite expects a write of out and fails it with err.
func (f *Fake) FailWrite(bus string, addr uint16, err error, out ...byte) {
	f.ops = append(f.ops, op{write: true, bus: bus, addr: addr, out: out, err: err})
}

// FakeRead expects a read that writes out and answers with in.
func (f *Fake) FakeRead(bus string, addr uint16, out, in []byte) {
	f.ops = append(f.ops, op{bus: bus, addr: addr, out: out, in: in})
}

func (f *Fake) FailRead(bus string, addr uint16, out []byte, n int, err error) {
	f.ops = append(f.ops, op{bus: bus, addr: addr, out: out, in: make([]byte, n), err: err})
}

// Writes returns the number of writes attempted, failed ones included.
func (f *Fake) Writes() int {
	return f.writes
}

func (f *Fake) Reads() int {
	return f.reads
}

func (f *Fake) Opened() int {
	return f.opened
}

func (f *Fake) Closed() int {
	return f.closed
}

// Done reports scripted operations that never happened and transactions
// that were not closed.
func (f *Fake) Done() {
	f.t.Helper()
	for i := range f.ops {
		f.t.Errorf("Expected %s, never happened", opstr(&f.ops[i]))
	}
	if f.opened != f.closed {
		f.t.Errorf("Expected every transaction closed, opened %d closed %d", f.opened, f.closed)
	}
}

func (f *Fake) Open(name string) (bus.Transaction, error) {
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	f.opened++
	return &tx{f: f, bus: name}, nil
}

func (f *Fake) pop() (op, bool) {
	if len(f.ops) == 0 {
		return op{}, false
	}
	o := f.ops[0]
	f.ops = f.ops[1:]
	return o, true
}

type tx struct {
	f      *Fake
	bus    string
	closed bool
}

func (t *tx) Read(addr uint16, out, in []byte) error {
	f := t.f
	f.t.Helper()
	f.reads++
	o, ok := f.pop()
	if !ok {
		f.t.Errorf("Expected nothing, got read %s@0x%02x % x", t.bus, addr, out)
		return ErrUnscripted
	}
	if o.write || o.bus != t.bus || o.addr != addr || !bytes.Equal(o.out, out) || len(o.in) != len(in) {
		f.t.Errorf("Expected %s, got read %s@0x%02x % x -> %d bytes", opstr(&o), t.bus, addr, out, len(in))
		return ErrUnscripted
	}
	copy(in, o.in)
	return o.err
}

func (t *tx) Write(addr uint16, out []byte) error {
	f := t.f
	f.t.Helper()
	f.writes++
	o, ok := f.pop()
	if !ok {
		f.t.Errorf("Expected nothing, got write %s@0x%02x % x", t.bus, addr, out)
		return ErrUnscripted
	}
	if !o.write || o.bus != t.bus || o.addr != addr || !bytes.Equal(o.out, out) {
		f.t.Errorf("Expected %s, got write %s@0x%02x % x", opstr(&o), t.bus, addr, out)
		return ErrUnscripted
	}
	return o.err
}

func (t *tx) Close() error {
	if t.closed {
		t.f.t.Errorf("Transaction on %s closed twice", t.bus)
		return nil
	}
	t.closed = true
	t.f.closed++
	return t.f.CloseErr
}
