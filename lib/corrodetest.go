// Copyright 2026 The CorrodeTest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package corrodetest implements the corrodetest command, a differential
// tester for the corrode C to Rust translator.
//
// One cycle generates a random C program with csmith, compiles it natively
// with a trusted C compiler and independently through corrode and rustc,
// runs both binaries in verbose and summary modes and compares their
// behavior. A divergence is rendered as one canonical message, printed,
// persisted and handed to creduce, which shrinks the program while this
// same command, re-entered in oracle mode (-oracle), confirms after every
// cut that the recomputed message is still byte-identical to the persisted
// one.
//
// Messages are compared without any normalization. Tool error text may
// embed filesystem paths, which makes compile-failure reductions
// environment-sensitive; that is a known fragility of the protocol, kept
// because exact text identity is what makes the minimization oracle stable.
package corrodetest // import "modernc.org/corrodetest/lib"

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"modernc.org/opt"
)

const Version = "1.0.3"

// Task is the frozen per-process configuration. It is constructed once at
// startup and never mutated afterwards; re-entrant oracle checks run in
// fresh processes and share nothing with the parent but files on disk.
type Task struct {
	D          []string // -D
	I          []string // -I
	U          []string // -U
	args       []string
	blackBox   string // -blackbox
	cc         string // $CC
	corrode    string // $CORRODE
	creduce    string // $CREDUCE
	csmith     string // $CSMITH
	csmithPath string // $CSMITH_PATH
	genFlags   []string
	iterations int    // -n
	oracleC    string // -oracle, candidate file
	oracleErr  string // -oracle, persisted message file
	rustc      string // $RUSTC
	stderr     io.Writer
	stdout     io.Writer

	compileTimeout time.Duration // -compile-timeout
	execTimeout    time.Duration // -exec-timeout
	genTimeout     time.Duration // -gen-timeout

	trc bool // -trc
}

// NewTask returns a newly created Task for args, stdout, stderr. args is
// the full argv including the command name.
func NewTask(args []string, stdout, stderr io.Writer) *Task {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Task{
		args:           args,
		cc:             env("CC", "gcc"),
		compileTimeout: 60 * time.Second,
		corrode:        env("CORRODE", "corrode"),
		creduce:        env("CREDUCE", "creduce"),
		csmith:         env("CSMITH", "csmith"),
		csmithPath:     env("CSMITH_PATH", "/usr/include/csmith"),
		execTimeout:    10 * time.Second,
		genTimeout:     30 * time.Second,
		iterations:     1,
		rustc:          env("RUSTC", "rustc"),
		stderr:         stderr,
		stdout:         stdout,
	}
}

// parseArgs classifies argv into toolchain flags, harness options and, via
// the fallback handler, flags forwarded verbatim to the generator.
func (t *Task) parseArgs() error {
	if s := os.Getenv("CSMITH_ARGS"); s != "" {
		a, err := shellquote.Split(s)
		if err != nil {
			return fmt.Errorf("$CSMITH_ARGS: %v", err)
		}

		t.genFlags = append(t.genFlags, a...)
	}
	opts := opt.NewSet()
	opts.Arg("D", true, func(arg, value string) error { t.D = append(t.D, value); return nil })
	opts.Arg("I", true, func(arg, value string) error { t.I = append(t.I, value); return nil })
	opts.Arg("U", true, func(arg, value string) error { t.U = append(t.U, value); return nil })
	opts.Arg("blackbox", false, func(arg, value string) error { t.blackBox = value; return nil })
	opts.Arg("compile-timeout", false, func(arg, value string) error { return setTimeout(&t.compileTimeout, value) })
	opts.Arg("exec-timeout", false, func(arg, value string) error { return setTimeout(&t.execTimeout, value) })
	opts.Arg("gen-timeout", false, func(arg, value string) error { return setTimeout(&t.genTimeout, value) })
	opts.Opt("trc", func(opt string) error { t.trc = true; return nil })
	opts.Arg("n", false, func(arg, value string) error {
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid argument: -n %s", value)
		}

		t.iterations = n
		return nil
	})
	opts.Arg("oracle", false, func(arg, value string) error {
		a := strings.SplitN(value, ",", 2)
		if len(a) != 2 || a[0] == "" || a[1] == "" {
			return fmt.Errorf("expected -oracle <candidateFile>,<errorFile>: %s", value)
		}

		t.oracleC = a[0]
		t.oracleErr = a[1]
		return nil
	})
	return opts.Parse(t.args[1:], func(arg string) error {
		t.genFlags = append(t.genFlags, arg)
		return nil
	})
}

func setTimeout(d *time.Duration, s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}

	if v <= 0 {
		return fmt.Errorf("invalid timeout: %s", s)
	}

	*d = v
	return nil
}

// Main executes the task. In oracle mode rc is the minimizer verdict: 0
// when the candidate file reproduces the persisted divergence exactly. In
// a fresh run rc is 0 when no divergence was found and 1 when one was
// found, printed to stdout, persisted and minimized. err reports
// environment faults only; those terminate the run via the caller.
func (t *Task) Main() (rc int, err error) {
	if err := t.parseArgs(); err != nil {
		return 1, err
	}

	if t.oracleC != "" {
		return t.oracleMain()
	}

	return t.runMain()
}

func (t *Task) runMain() (rc int, err error) {
	for i := 0; i < t.iterations; i++ {
		div, err := t.cycle()
		if err != nil {
			return 1, err
		}

		if div == nil {
			continue
		}

		fmt.Fprintln(t.stdout, div.String())
		if err := t.reduce(div); err != nil {
			return 1, err
		}

		return 1, nil
	}
	return 0, nil
}

// cycle is one generate→filter→dual-compile→compare pass. A nil divergence
// means the case was either discarded or passed.
func (t *Task) cycle() (*divergence, error) {
	ok, err := t.generate()
	if err != nil {
		return nil, err
	}

	if !ok {
		t.trcf("generator failed, discarded")
		return nil, nil
	}

	src, err := os.ReadFile(mainName)
	if err != nil {
		return nil, err
	}

	if t.blackBox != "" {
		if err := os.WriteFile(t.blackBox, src, 0660); err != nil {
			return nil, err
		}
	}
	coverage := crcCoverage(src)
	if coverage == 0 {
		t.trcf("checksum coverage 0, discarded")
		return nil, nil
	}

	return t.test(mainName, coverage)
}

// test establishes the reference behavior of src and compares the
// corrode+rustc pipeline against it. Failures on the reference side
// discard the case; failures on the candidate side are findings.
func (t *Task) test(src string, coverage int) (*divergence, error) {
	ok, err := t.compileReference(src)
	if err != nil {
		return nil, err
	}

	if !ok {
		t.trcf("reference compile failed, discarded")
		return nil, nil
	}

	rs, div, err := t.translate(src)
	if err != nil || div != nil {
		return div, err
	}

	if div, err = t.compileCandidate(rs); err != nil || div != nil {
		return div, err
	}

	return t.compare(refBinName, candBinName, coverage)
}

// oracleMain is the re-entry mode creduce drives. Generation is skipped;
// the checksum coverage and the native behavior of the candidate file are
// rederived from scratch.
func (t *Task) oracleMain() (rc int, err error) {
	want, err := os.ReadFile(t.oracleErr)
	if err != nil {
		return 1, err
	}

	src, err := os.ReadFile(t.oracleC)
	if err != nil {
		return 1, err
	}

	coverage := crcCoverage(src)
	if coverage == 0 {
		return 1, nil
	}

	div, err := t.test(t.oracleC, coverage)
	if err != nil {
		return 1, err
	}

	if div != nil && div.String() == string(want) {
		return 0, nil
	}

	return 1, nil
}

func (t *Task) trcf(s string, args ...interface{}) {
	if t.trc {
		fmt.Fprintf(t.stderr, s+"\n", args...)
	}
}
