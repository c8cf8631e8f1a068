// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bus

import (
	"time"

	"github.com/jmhodges/clock"
	"github.com/jpillora/backoff"
)

type RetryOpts struct {
	// Attempts is the total number of tries per operation. Values below 2
	// disable retrying.
	Attempts int
	Min      time.Duration
	Max      time.Duration
	// Clock is used for the pauses between tries, clock.New() if nil.
	Clock clock.Clock
}

type retryOpener struct {
	o    Opener
	opts RetryOpts
}

// WithRetry retries failed opens, reads and writes with exponential backoff.
// Without it a failed transaction is reported to the caller immediately.
func WithRetry(o Opener, opts RetryOpts) Opener {
	if opts.Attempts < 2 {
		return o
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Min == 0 {
		opts.Min = 10 * time.Millisecond
	}
	if opts.Max == 0 {
		opts.Max = time.Second
	}
	return &retryOpener{o, opts}
}

func (r *retryOpener) do(what string, f func() error) error {
	b := &backoff.Backoff{Min: r.opts.Min, Max: r.opts.Max, Factor: 2}
	var err error
	for i := 0; i < r.opts.Attempts; i++ {
		if err = f(); err == nil {
			return nil
		}
		if i == r.opts.Attempts-1 {
			break
		}
		d := b.Duration()
		log.Warnf("%s failed (attempt %d/%d), retrying in %v: %v", what, i+1, r.opts.Attempts, d, err)
		r.opts.Clock.Sleep(d)
	}
	return err
}

func (r *retryOpener) Open(bus string) (Transaction, error) {
	var tx Transaction
	err := r.do("open "+bus, func() error {
		var err error
		tx, err = r.o.Open(bus)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &retryTx{r: r, bus: bus, tx: tx}, nil
}

type retryTx struct {
	r   *retryOpener
	bus string
	tx  Transaction
}

func (t *retryTx) Read(addr uint16, out, in []byte) error {
	return t.r.do("read "+t.bus, func() error {
		return t.tx.Read(addr, out, in)
	})
}

func (t *retryTx) Write(addr uint16, out []byte) error {
	return t.r.do("write "+t.bus, func() error {
		return t.tx.Write(addr, out)
	})
}

func (t *retryTx) Close() error {
	return t.tx.Close()
}
