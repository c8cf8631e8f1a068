// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bus

import (
	"github.com/u-root/scbmc/pkg/metric"
)

var transactions = metric.Counter(metric.MetricOpts{
	Namespace: "scbmc",
	Subsystem: "bus",
	Name:      "operations_total",
	Help:      "Bus operations by bus, kind and result.",
}, []string{"bus", "op", "result"})

type instrumented struct {
	o Opener
}

// Instrument counts every open, read and write going through o.
func Instrument(o Opener) Opener {
	return &instrumented{o}
}

func count(bus, op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	transactions.WithLabelValues(bus, op, result).Inc()
}

func (i *instrumented) Open(bus string) (Transaction, error) {
	tx, err := i.o.Open(bus)
	count(bus, "open", err)
	if err != nil {
		return nil, err
	}
	return &instrumentedTx{bus: bus, tx: tx}, nil
}

type instrumentedTx struct {
	bus string
	tx  Transaction
}

func (t *instrumentedTx) Read(addr uint16, out, in []byte) error {
	err := t.tx.Read(addr, out, in)
	count(t.bus, "read", err)
	return err
}

func (t *instrumentedTx) Write(addr uint16, out []byte) error {
	err := t.tx.Write(addr, out)
	count(t.bus, "write", err)
	return err
}

func (t *instrumentedTx) Close() error {
	return t.tx.Close()
}
