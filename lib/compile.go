// Copyright 2026 The CorrodeTest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package corrodetest // import "modernc.org/corrodetest/lib"

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

var (
	mainName    = filepath.FromSlash("main.c")
	refBinName  = filepath.FromSlash("./a.out")
	candBinName = filepath.FromSlash("./b.out")

	// featureMacros limit the generated programs to the C subset corrode
	// handles. Defined on every cc, preprocessor and corrode invocation.
	featureMacros = []string{"-DNO_LONGLONG", "-DUSE_MATH_MACROS"}
)

// ccArgs assembles the macro/include flag environment shared by the
// reference compiler, the preprocessor and the translator.
func (t *Task) ccArgs() []string {
	args := append([]string(nil), featureMacros...)
	for _, v := range t.D {
		args = append(args, "-D"+v)
	}
	for _, v := range t.U {
		args = append(args, "-U"+v)
	}
	for _, v := range t.I {
		args = append(args, "-I"+v)
	}
	return append(args, "-I"+t.csmithPath)
}

// compileReference produces the native binary at refBinName. Failure
// discards the case: a program the trusted compiler rejects cannot witness
// a corrode bug.
func (t *Task) compileReference(src string) (ok bool, err error) {
	args := append([]string{"-w"}, t.ccArgs()...)
	args = append(args, "-o", refBinName, src)
	r, err := runTimeout(t.compileTimeout, t.cc, args...)
	if err != nil {
		return false, err
	}

	return !r.timedOut && r.status == 0, nil
}

// translate runs corrode on src. On success the derived Rust source is the
// source stem with the .rs extension, written by corrode next to src. A
// translator failure is a finding, not a discard.
func (t *Task) translate(src string) (rs string, div *divergence, err error) {
	args := append(t.ccArgs(), src)
	r, err := runTimeout(t.compileTimeout, t.corrode, args...)
	if err != nil {
		return "", nil, err
	}

	if r.timedOut || r.status != 0 {
		return "", &divergence{kind: divTranslateFail, text: t.toolText(r)}, nil
	}

	return strings.TrimSuffix(src, filepath.Ext(src)) + ".rs", nil, nil
}

// compileCandidate compiles the derived Rust source into candBinName.
func (t *Task) compileCandidate(rs string) (div *divergence, err error) {
	r, err := runTimeout(t.compileTimeout, t.rustc, "-A", "warnings", "-o", candBinName, rs)
	if err != nil {
		return nil, err
	}

	if r.timedOut || r.status != 0 {
		return &divergence{kind: divCompileFail, text: t.toolText(r)}, nil
	}

	return nil, nil
}

func (t *Task) toolText(r execResult) string {
	if r.timedOut {
		return fmt.Sprintf("timeout after %d seconds", int(t.compileTimeout/time.Second))
	}

	return r.combined()
}

// preprocess expands src through the reference preprocessor into dst.
// creduce shrinks csmith sources measurably better once the runtime
// headers are expanded away.
func (t *Task) preprocess(src, dst string) error {
	args := append([]string{"-E", "-w"}, t.ccArgs()...)
	args = append(args, "-o", dst, src)
	r, err := runTimeout(t.compileTimeout, t.cc, args...)
	if err != nil {
		return err
	}

	if r.timedOut || r.status != 0 {
		return fmt.Errorf("%s -E %s: %s", t.cc, src, r.combined())
	}

	return nil
}
