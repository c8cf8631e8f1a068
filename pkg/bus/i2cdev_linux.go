// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bus

import (
	"os"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	I2C_RDWR = 0x0707
	I2C_M_RD = 0x0001
)

// Mirrors struct i2c_msg from linux/i2c.h.
type i2cMsg struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   *byte
}

// Mirrors struct i2c_rdwr_ioctl_data from linux/i2c-dev.h.
type i2cRdwrData struct {
	msgs  *i2cMsg
	nmsgs uint32
}

// I2CDev opens Linux i2c-dev character devices. The bus name is the device
// path, for example /dev/i2c-3.
type I2CDev struct{}

type i2cTx struct {
	f *os.File
}

func (I2CDev) Open(bus string) (Transaction, error) {
	f, err := os.OpenFile(bus, os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}
	return &i2cTx{f}, nil
}

func (t *i2cTx) transfer(msgs []i2cMsg) error {
	data := i2cRdwrData{msgs: &msgs[0], nmsgs: uint32(len(msgs))}
	_, _, e := unix.Syscall(unix.SYS_IOCTL, t.f.Fd(), I2C_RDWR, uintptr(unsafe.Pointer(&data)))
	runtime.KeepAlive(msgs)
	if e != 0 {
		return os.NewSyscallError("ioctl", e)
	}
	return nil
}

func msg(addr uint16, flags uint16, b []byte) i2cMsg {
	m := i2cMsg{addr: addr, flags: flags, len: uint16(len(b))}
	if len(b) > 0 {
		m.buf = &b[0]
	}
	return m
}

func (t *i2cTx) Read(addr uint16, out, in []byte) error {
	msgs := make([]i2cMsg, 0, 2)
	if len(out) > 0 {
		msgs = append(msgs, msg(addr, 0, out))
	}
	msgs = append(msgs, msg(addr, I2C_M_RD, in))
	err := t.transfer(msgs)
	runtime.KeepAlive(out)
	runtime.KeepAlive(in)
	return err
}

func (t *i2cTx) Write(addr uint16, out []byte) error {
	err := t.transfer([]i2cMsg{msg(addr, 0, out)})
	runtime.KeepAlive(out)
	return err
}

func (t *i2cTx) Close() error {
	return t.f.Close()
}
