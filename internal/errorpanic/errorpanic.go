// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errorpanic turns an error-valued panic raised anywhere in
// the compile pipeline back into a plain Go error at Compile's recover
// boundary (spec component C8's error-handling discipline). Opcode
// translation itself returns its failures as errors; Handle is the one
// place that catches a panic, re-raising anything that isn't an
// ordinary error so a real bug still crashes loudly.
package errorpanic

import (
	"io"
	"runtime"

	"golang.org/x/xerrors"
)

// ErrUnexpectedEOF replaces a bare io.EOF surfacing from a panic
// inside the emission pipeline: io.EOF means "end of stream" to the
// bytecode decoder, but an emission helper panicking with it mid-pass
// means the stream ended somewhere the caller did not expect one.
var ErrUnexpectedEOF = xerrors.New("amxjit: unexpected end of bytecode during compilation")

// Handle recovers x (the value recover() returned) into a plain error.
// A nil x (no panic in flight) returns a nil error. A non-error panic
// value, or one that implements runtime.Error (a real Go bug, not a
// compile-time invariant violation), is re-raised rather than
// swallowed.
func Handle(x interface{}) (err error) {
	if x != nil {
		err, _ = x.(error)
		if err == nil {
			panic(x)
		}

		if _, ok := err.(runtime.Error); ok {
			panic(x)
		}

		switch {
		case xerrors.Is(err, io.EOF):
			err = ErrUnexpectedEOF
		}
	}

	return
}
