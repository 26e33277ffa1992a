// Copyright 2026 The CorrodeTest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package corrodetest // import "modernc.org/corrodetest/lib"

import "bytes"

// csmithRestrictedArgs disables everything corrode does not handle. User
// flags are appended after these.
var csmithRestrictedArgs = []string{
	"--no-arrays",        // --arrays | --no-arrays: enable | disable arrays (enabled by default).
	"--no-bitfields",     // --bitfields | --no-bitfields: enable | disable full-bitfields structs (disabled by default).
	"--no-builtins",      // --builtins | --no-builtins: enable | disable the exercise of GCC builtins (enabled by default).
	"--no-jumps",         // --jumps | --no-jumps: enable | disable jumps (enabled by default).
	"--no-packed-struct", // --packed-struct | --no-packed-struct: enable | disable packed structs (disabled by default).
	"--no-pointers",      // --pointers | --no-pointers: enable | disable pointers (enabled by default).
	"--no-unions",        // --unions | --no-unions: enable | disable unions (enabled by default).
	"--no-volatiles",     // --volatiles | --no-volatiles: enable | disable volatiles (enabled by default).
}

// crcCall is the checksum-update call csmith emits for every variable that
// contributes to the final checksum.
const crcCall = "transparent_crc("

// crcCoverage counts checksum-contributing statements in src. A program
// that never feeds the checksum produces no comparable output and is not
// worth compiling.
func crcCoverage(src []byte) int {
	return bytes.Count(src, []byte(crcCall))
}

// generate writes one random program to mainName. ok is false when the
// generator failed or timed out; that carries no information about the
// translator and the case is silently dropped.
func (t *Task) generate() (ok bool, err error) {
	args := append([]string(nil), csmithRestrictedArgs...)
	args = append(args, t.genFlags...)
	args = append(args, "--output", mainName)
	r, err := runTimeout(t.genTimeout, t.csmith, args...)
	if err != nil {
		return false, err
	}

	return !r.timedOut && r.status == 0, nil
}
