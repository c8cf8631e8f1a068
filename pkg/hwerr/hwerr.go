// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hwerr holds the error kinds shared by the board-management
// decoders and controllers.
//
// There are three kinds. A TransactionError means the bus collaborator could
// not complete a read or write. A FormatError means a byte stream read from a
// device violates the layout it is supposed to have. A ValidationError means a
// caller supplied value was rejected before anything was written to hardware.
// A SequenceError wraps a failure in the middle of a multi-step write
// sequence, where the device may be left between states.
package hwerr

import (
	"errors"
	"fmt"
)

var (
	ErrTransaction = errors.New("bus transaction failed")
	ErrFormat      = errors.New("malformed data")
	ErrValidation  = errors.New("invalid value")
)

type TransactionError struct {
	Op   string
	Bus  string
	Addr uint16
	Err  error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s %s@0x%02x: %v", e.Op, e.Bus, e.Addr, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

func (e *TransactionError) Is(target error) bool {
	return target == ErrTransaction
}

type FormatError struct {
	Offset int
	Msg    string
	Err    error
}

// Format returns a FormatError for the byte at offset.
func Format(offset int, format string, args ...interface{}) *FormatError {
	return &FormatError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("offset 0x%02x: %s: %v", e.Offset, e.Msg, e.Err)
	}
	return fmt.Sprintf("offset 0x%02x: %s", e.Offset, e.Msg)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

type ValidationError struct {
	Field string
	Value interface{}
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %v: %s", e.Field, e.Value, e.Msg)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// SequenceError reports that step Step of an ordered write sequence failed.
// Steps before it have already been applied to the device.
type SequenceError struct {
	Step int
	Name string
	Err  error
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("step %d (%s) failed, device may be left mid-transition: %v", e.Step, e.Name, e.Err)
}

func (e *SequenceError) Unwrap() error {
	return e.Err
}
