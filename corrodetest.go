// Copyright 2026 The CorrodeTest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command corrodetest differentially tests the corrode C to Rust translator
// against a reference C compiler.
//
// Usage:
//
//	corrodetest [options] [csmith flags]
//
// A fresh run exits 0 when reference and candidate pipelines agree and 1
// when a divergence was found, printed and minimized. In oracle re-entry
// mode (-oracle) the exit code is the minimizer's verdict: 0 when the
// candidate file still reproduces the persisted divergence, 1 otherwise.
package main // import "modernc.org/corrodetest"

import (
	"fmt"
	"os"

	corrodetest "modernc.org/corrodetest/lib"
)

func main() {
	rc, err := corrodetest.NewTask(os.Args, os.Stdout, os.Stderr).Main()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(rc)
}
