// Copyright 2026 The CorrodeTest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package corrodetest // import "modernc.org/corrodetest/lib"

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// verboseArg makes a csmith program print one line per checksum update
// instead of the single final checksum line.
const verboseArg = "1"

// checksumRE is the exact shape of a trustworthy summary-mode output.
var checksumRE = regexp.MustCompile(`\Achecksum = [0-9A-F]+\n\z`)

// divKind enumerates the closed set of divergence classes.
type divKind int

const (
	divTimeout divKind = iota
	divStderr
	divExit
	divNoOutput
	divCountMismatch
	divContentMismatch
	divTranslateFail
	divCompileFail
)

// divergence is the unit of truth carried through reduction. Two
// divergences are the same bug iff their renderings are byte-identical.
type divergence struct {
	kind     divKind
	cmd      string   // candidate command line, eg. "./b.out 1"
	seconds  int      // divTimeout
	status   int      // divExit
	text     string   // stderr text, raw stdout or tool output
	expected []string // divContentMismatch, pairwise with actual
	actual   []string
}

// String renders the one canonical message, used both for display and,
// byte for byte, as the minimization oracle.
func (d *divergence) String() string {
	switch d.kind {
	case divTimeout:
		return fmt.Sprintf("'%s' timeout after %d seconds", d.cmd, d.seconds)
	case divStderr:
		return fmt.Sprintf("'%s' error: %s", d.cmd, d.text)
	case divExit:
		return fmt.Sprintf("'%s' failed with status %d", d.cmd, d.status)
	case divNoOutput:
		return fmt.Sprintf("'%s' produced no output", d.cmd)
	case divCountMismatch:
		return fmt.Sprintf("'%s' produced wrong output:\n%s", d.cmd, d.text)
	case divContentMismatch:
		a := make([]string, len(d.expected))
		for i, e := range d.expected {
			a[i] = fmt.Sprintf("expected '%s', got '%s'", e, d.actual[i])
		}
		return fmt.Sprintf("'%s' produced wrong output:\n%s", d.cmd, strings.Join(a, "\n"))
	case divTranslateFail:
		return fmt.Sprintf("translating to Rust failed:\n%s", d.text)
	case divCompileFail:
		return fmt.Sprintf("compiling via Rust failed:\n%s", d.text)
	}
	panic(fmt.Errorf("internal error: divergence kind %d", d.kind))
}

// lines splits terminated output into its lines. Empty output has no
// lines; a missing final newline does not add one.
func lines(s string) []string {
	if s == "" {
		return nil
	}

	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// trustedVerbose reports whether a verbose-mode reference run can anchor a
// comparison: no timeout, silent stderr and exactly one output line per
// checksum-contributing statement.
func trustedVerbose(r execResult, coverage int) bool {
	return !r.timedOut && len(r.stderr) == 0 && len(lines(string(r.stdout))) == coverage
}

// trustedSummary reports whether a summary-mode reference run can anchor a
// comparison: no timeout, silent stderr and exactly one checksum line.
func trustedSummary(r execResult) bool {
	return !r.timedOut && len(r.stderr) == 0 && checksumRE.Match(r.stdout)
}

// classify decides whether one candidate run diverges from the
// corresponding trusted reference run, in fixed priority order: timeout,
// stderr, exit status, empty output, line count, content.
func (t *Task) classify(cand execResult, cmd string, ref execResult) *divergence {
	switch {
	case cand.timedOut:
		return &divergence{kind: divTimeout, cmd: cmd, seconds: int(t.execTimeout / time.Second)}
	case len(cand.stderr) != 0:
		return &divergence{kind: divStderr, cmd: cmd, text: string(cand.stderr)}
	case cand.status != 0:
		return &divergence{kind: divExit, cmd: cmd, status: cand.status}
	case len(cand.stdout) == 0:
		return &divergence{kind: divNoOutput, cmd: cmd}
	}

	g, e := lines(string(cand.stdout)), lines(string(ref.stdout))
	if len(g) != len(e) {
		return &divergence{kind: divCountMismatch, cmd: cmd, text: string(cand.stdout)}
	}

	var expected, actual []string
	for i, v := range e {
		if g[i] != v {
			expected = append(expected, v)
			actual = append(actual, g[i])
		}
	}
	if len(expected) != 0 {
		return &divergence{kind: divContentMismatch, cmd: cmd, expected: expected, actual: actual}
	}

	return nil
}

// compare runs both binaries in verbose and summary modes and returns the
// divergence, if any. A nil divergence means either full agreement or an
// untrustworthy reference; neither says anything about the candidate.
// Verbose mode is evaluated first because its divergences localize faults
// better and reduce better; summary mode is consulted only when verbose
// matched exactly.
func (t *Task) compare(refBin, candBin string, coverage int) (*divergence, error) {
	refV, err := runTimeout(t.execTimeout, refBin, verboseArg)
	if err != nil {
		return nil, err
	}

	if !trustedVerbose(refV, coverage) {
		t.trcf("untrustworthy verbose reference run, discarded")
		return nil, nil
	}

	refS, err := runTimeout(t.execTimeout, refBin)
	if err != nil {
		return nil, err
	}

	if !trustedSummary(refS) {
		t.trcf("untrustworthy summary reference run, discarded")
		return nil, nil
	}

	candV, err := runTimeout(t.execTimeout, candBin, verboseArg)
	if err != nil {
		return nil, err
	}

	if div := t.classify(candV, candBin+" "+verboseArg, refV); div != nil {
		return div, nil
	}

	candS, err := runTimeout(t.execTimeout, candBin)
	if err != nil {
		return nil, err
	}

	return t.classify(candS, candBin, refS), nil
}
