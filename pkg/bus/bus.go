// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bus describes the register-addressed bus transactions the
// decoders and controllers depend on.
//
// A Transaction is a scoped resource: it is opened for one logical
// operation, such as a register read or a short write sequence, and closed
// before that operation returns, on error paths too. Do implements that
// scoping and turns every failure into a hwerr.TransactionError.
package bus

import (
	"go.uber.org/multierr"

	"github.com/u-root/scbmc/pkg/hwerr"
	"github.com/u-root/scbmc/pkg/logger"
)

var log = logger.LogContainer.GetSimpleLogger()

type Transaction interface {
	// Read writes out to the device at addr and then reads len(in) bytes
	// back, normally used as register address followed by register data.
	Read(addr uint16, out, in []byte) error
	Write(addr uint16, out []byte) error
	Close() error
}

type Opener interface {
	Open(bus string) (Transaction, error)
}

type scoped struct {
	bus string
	tx  Transaction
}

func (s *scoped) Read(addr uint16, out, in []byte) error {
	if err := s.tx.Read(addr, out, in); err != nil {
		return &hwerr.TransactionError{Op: "read", Bus: s.bus, Addr: addr, Err: err}
	}
	log.Debugf("%s@0x%02x read % x -> % x", s.bus, addr, out, in)
	return nil
}

func (s *scoped) Write(addr uint16, out []byte) error {
	if err := s.tx.Write(addr, out); err != nil {
		return &hwerr.TransactionError{Op: "write", Bus: s.bus, Addr: addr, Err: err}
	}
	log.Debugf("%s@0x%02x write % x", s.bus, addr, out)
	return nil
}

func (s *scoped) Close() error {
	return s.tx.Close()
}

// Do opens a transaction on bus, hands it to f and closes it again. Errors
// from Read and Write inside f, and from Open and Close, are reported as
// *hwerr.TransactionError. A close failure is joined with the error of f.
func Do(o Opener, bus string, f func(Transaction) error) (err error) {
	tx, err := o.Open(bus)
	if err != nil {
		return &hwerr.TransactionError{Op: "open", Bus: bus, Err: err}
	}
	defer func() {
		if cerr := tx.Close(); cerr != nil {
			err = multierr.Append(err, &hwerr.TransactionError{Op: "close", Bus: bus, Err: cerr})
		}
	}()
	return f(&scoped{bus: bus, tx: tx})
}

// ReadReg reads n bytes starting at register reg.
func ReadReg(tx Transaction, addr uint16, reg byte, n int) ([]byte, error) {
	in := make([]byte, n)
	if err := tx.Read(addr, []byte{reg}, in); err != nil {
		return nil, err
	}
	return in, nil
}

// WriteReg writes data to register reg in a single transfer.
func WriteReg(tx Transaction, addr uint16, reg byte, data ...byte) error {
	out := make([]byte, 0, len(data)+1)
	out = append(out, reg)
	out = append(out, data...)
	return tx.Write(addr, out)
}
